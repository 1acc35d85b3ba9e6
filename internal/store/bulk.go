package store

import (
	"context"
	"fmt"

	"tpcc-service/internal/models"
)

// batchSize keeps multi-row inserts below the bind variable limits of both backends
const batchSize = 1000

const (
	insertItem = `INSERT INTO items (i_id, i_im_id, i_name, i_price, i_data)
		VALUES (:i_id, :i_im_id, :i_name, :i_price, :i_data)`
	insertWarehouse = `INSERT INTO warehouses (w_id, w_name, w_street_1, w_street_2, w_city, w_state, w_zip, w_tax, w_ytd)
		VALUES (:w_id, :w_name, :w_street_1, :w_street_2, :w_city, :w_state, :w_zip, :w_tax, :w_ytd)`
	insertDistrict = `INSERT INTO districts (d_id, d_w_id, d_name, d_street_1, d_street_2, d_city, d_state, d_zip, d_tax, d_ytd, d_next_o_id)
		VALUES (:d_id, :d_w_id, :d_name, :d_street_1, :d_street_2, :d_city, :d_state, :d_zip, :d_tax, :d_ytd, :d_next_o_id)`
	insertStock = `INSERT INTO stocks (s_i_id, s_w_id, s_quantity, s_dist_01, s_dist_02, s_dist_03, s_dist_04, s_dist_05,
		s_dist_06, s_dist_07, s_dist_08, s_dist_09, s_dist_10, s_ytd, s_order_cnt, s_remote_cnt, s_data)
		VALUES (:s_i_id, :s_w_id, :s_quantity, :s_dist_01, :s_dist_02, :s_dist_03, :s_dist_04, :s_dist_05,
		:s_dist_06, :s_dist_07, :s_dist_08, :s_dist_09, :s_dist_10, :s_ytd, :s_order_cnt, :s_remote_cnt, :s_data)`
	insertCustomer = `INSERT INTO customers (c_id, c_d_id, c_w_id, c_first, c_middle, c_last, c_street_1, c_street_2,
		c_city, c_state, c_zip, c_phone, c_since, c_credit, c_credit_lim, c_discount, c_balance, c_ytd_payment,
		c_payment_cnt, c_delivery_cnt, c_data)
		VALUES (:c_id, :c_d_id, :c_w_id, :c_first, :c_middle, :c_last, :c_street_1, :c_street_2,
		:c_city, :c_state, :c_zip, :c_phone, :c_since, :c_credit, :c_credit_lim, :c_discount, :c_balance, :c_ytd_payment,
		:c_payment_cnt, :c_delivery_cnt, :c_data)`
	insertHistory = `INSERT INTO histories (h_c_id, h_c_d_id, h_c_w_id, h_d_id, h_w_id, h_date, h_amount, h_data)
		VALUES (:h_c_id, :h_c_d_id, :h_c_w_id, :h_d_id, :h_w_id, :h_date, :h_amount, :h_data)`
	insertOrder = `INSERT INTO orders (o_id, o_d_id, o_w_id, o_c_id, o_entry_d, o_carrier_id, o_ol_cnt, o_all_local)
		VALUES (:o_id, :o_d_id, :o_w_id, :o_c_id, :o_entry_d, :o_carrier_id, :o_ol_cnt, :o_all_local)`
	insertOrderLine = `INSERT INTO order_lines (ol_o_id, ol_d_id, ol_w_id, ol_number, ol_i_id, ol_supply_w_id,
		ol_delivery_d, ol_quantity, ol_amount, ol_dist_info)
		VALUES (:ol_o_id, :ol_d_id, :ol_w_id, :ol_number, :ol_i_id, :ol_supply_w_id,
		:ol_delivery_d, :ol_quantity, :ol_amount, :ol_dist_info)`
	insertNewOrder = `INSERT INTO new_orders (no_o_id, no_d_id, no_w_id)
		VALUES (:no_o_id, :no_d_id, :no_w_id)`
)

// bulkInsert writes rows with batched multi-row inserts
func bulkInsert[T any](ctx context.Context, w *WrTx, query string, rows []T) error {
	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		if _, err := w.tx.NamedExecContext(ctx, query, rows[start:end]); err != nil {
			return fmt.Errorf("failed to bulk insert: %w", err)
		}
	}
	return nil
}

// InsertItems loads catalog rows
func (w *WrTx) InsertItems(ctx context.Context, rows []models.Item) error {
	return bulkInsert(ctx, w, insertItem, rows)
}

// InsertWarehouses loads warehouse rows
func (w *WrTx) InsertWarehouses(ctx context.Context, rows []models.Warehouse) error {
	return bulkInsert(ctx, w, insertWarehouse, rows)
}

// InsertDistricts loads district rows
func (w *WrTx) InsertDistricts(ctx context.Context, rows []models.District) error {
	return bulkInsert(ctx, w, insertDistrict, rows)
}

// InsertStocks loads stock rows
func (w *WrTx) InsertStocks(ctx context.Context, rows []models.Stock) error {
	return bulkInsert(ctx, w, insertStock, rows)
}

// InsertCustomers loads customer rows
func (w *WrTx) InsertCustomers(ctx context.Context, rows []models.Customer) error {
	return bulkInsert(ctx, w, insertCustomer, rows)
}

// InsertHistories loads payment ledger rows
func (w *WrTx) InsertHistories(ctx context.Context, rows []models.History) error {
	return bulkInsert(ctx, w, insertHistory, rows)
}

// InsertOrders loads order headers
func (w *WrTx) InsertOrders(ctx context.Context, rows []models.Order) error {
	return bulkInsert(ctx, w, insertOrder, rows)
}

// InsertNewOrders loads pending delivery queue entries
func (w *WrTx) InsertNewOrders(ctx context.Context, rows []models.NewOrder) error {
	return bulkInsert(ctx, w, insertNewOrder, rows)
}
