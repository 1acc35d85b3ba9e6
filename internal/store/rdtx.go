package store

import (
	"context"
	"fmt"

	"tpcc-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// RdTx is a read-only transaction handle. It is only handed out by Store.ReadTx
// and Store.WriteTx and exposes no mutations.
type RdTx struct {
	tx *sqlx.Tx
	// lock is the row-lock clause appended to reads of a write transaction
	lock string
}

func (r *RdTx) get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return r.tx.GetContext(ctx, dest, r.tx.Rebind(query), args...)
}

func (r *RdTx) sel(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return r.tx.SelectContext(ctx, dest, r.tx.Rebind(query), args...)
}

// Warehouse retrieves a warehouse by id
func (r *RdTx) Warehouse(ctx context.Context, warehouseID int32) (*models.Warehouse, error) {
	var w models.Warehouse
	err := r.get(ctx, &w, "SELECT * FROM warehouses WHERE w_id = ?", warehouseID)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("warehouse %d", warehouseID))
	}
	return &w, nil
}

// District retrieves a district by its scoped key
func (r *RdTx) District(ctx context.Context, warehouseID, districtID int32) (*models.District, error) {
	var d models.District
	err := r.get(ctx, &d, "SELECT * FROM districts WHERE d_w_id = ? AND d_id = ?", warehouseID, districtID)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("district %d/%d", warehouseID, districtID))
	}
	return &d, nil
}

// Customer retrieves a customer by its scoped key
func (r *RdTx) Customer(ctx context.Context, warehouseID, districtID, customerID int32) (*models.Customer, error) {
	var c models.Customer
	err := r.get(ctx, &c, "SELECT * FROM customers WHERE c_w_id = ? AND c_d_id = ? AND c_id = ?",
		warehouseID, districtID, customerID)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("customer %d/%d/%d", warehouseID, districtID, customerID))
	}
	return &c, nil
}

// CustomersByLastName returns every customer of a district with the given surname, ordered by first name
func (r *RdTx) CustomersByLastName(ctx context.Context, warehouseID, districtID int32, last string) ([]models.Customer, error) {
	var customers []models.Customer
	err := r.sel(ctx, &customers,
		"SELECT * FROM customers WHERE c_w_id = ? AND c_d_id = ? AND c_last = ? ORDER BY c_first, c_id",
		warehouseID, districtID, last)
	return customers, err
}

// StockedItem retrieves an item together with its stock row at warehouseID
func (r *RdTx) StockedItem(ctx context.Context, itemID, warehouseID int32) (*models.StockedItem, error) {
	var si models.StockedItem
	if err := r.get(ctx, &si.Item, "SELECT * FROM items WHERE i_id = ?", itemID); err != nil {
		return nil, notFound(err, fmt.Sprintf("item %d", itemID))
	}
	if err := r.get(ctx, &si.Stock, "SELECT * FROM stocks WHERE s_w_id = ? AND s_i_id = ?"+r.lock,
		warehouseID, itemID); err != nil {
		return nil, notFound(err, fmt.Sprintf("stock %d/%d", warehouseID, itemID))
	}
	return &si, nil
}

// LatestOrder returns the customer's order with the highest id
func (r *RdTx) LatestOrder(ctx context.Context, warehouseID, districtID, customerID int32) (*models.Order, error) {
	var o models.Order
	err := r.get(ctx, &o,
		"SELECT * FROM orders WHERE o_w_id = ? AND o_d_id = ? AND o_c_id = ? ORDER BY o_id DESC LIMIT 1",
		warehouseID, districtID, customerID)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("order of customer %d/%d/%d", warehouseID, districtID, customerID))
	}
	return &o, nil
}

// OrderLines returns the lines of an order by line number
func (r *RdTx) OrderLines(ctx context.Context, warehouseID, districtID, orderID int32) ([]models.OrderLine, error) {
	var lines []models.OrderLine
	err := r.sel(ctx, &lines,
		"SELECT * FROM order_lines WHERE ol_w_id = ? AND ol_d_id = ? AND ol_o_id = ? ORDER BY ol_number",
		warehouseID, districtID, orderID)
	return lines, err
}

// CountLowStock counts the distinct items of orders [fromOrderID, toOrderID)
// whose stock at the district's warehouse is below threshold
func (r *RdTx) CountLowStock(ctx context.Context, warehouseID, districtID, fromOrderID, toOrderID, threshold int32) (int, error) {
	var n int
	err := r.get(ctx, &n, `SELECT COUNT(DISTINCT s.s_i_id)
		FROM order_lines ol
		JOIN stocks s ON s.s_w_id = ol.ol_w_id AND s.s_i_id = ol.ol_i_id
		WHERE ol.ol_w_id = ? AND ol.ol_d_id = ? AND ol.ol_o_id >= ? AND ol.ol_o_id < ? AND s.s_quantity < ?`,
		warehouseID, districtID, fromOrderID, toOrderID, threshold)
	return n, err
}

// Counts returns the row count of every benchmark table
func (r *RdTx) Counts(ctx context.Context) (*models.TableCounts, error) {
	var c models.TableCounts
	targets := []struct {
		table string
		dest  *int64
	}{
		{"items", &c.Items},
		{"warehouses", &c.Warehouses},
		{"districts", &c.Districts},
		{"customers", &c.Customers},
		{"orders", &c.Orders},
		{"new_orders", &c.NewOrders},
		{"order_lines", &c.OrderLines},
		{"stocks", &c.Stocks},
		{"histories", &c.Histories},
	}
	for _, t := range targets {
		if err := r.get(ctx, t.dest, "SELECT COUNT(*) FROM "+t.table); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", t.table, err)
		}
	}
	return &c, nil
}
