package store

import (
	"context"
	"fmt"
	"time"

	"tpcc-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// WrTx is a read-write transaction handle. It is only handed out by Store.WriteTx.
type WrTx struct {
	RdTx
}

func (w *WrTx) exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	res, err := w.tx.ExecContext(ctx, w.tx.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (w *WrTx) execIn(ctx context.Context, query string, args ...interface{}) (int64, error) {
	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return 0, err
	}
	return w.exec(ctx, query, args...)
}

// CustomerForUpdate retrieves a customer and locks its row until the transaction ends
func (w *WrTx) CustomerForUpdate(ctx context.Context, warehouseID, districtID, customerID int32) (*models.Customer, error) {
	var c models.Customer
	err := w.get(ctx, &c, "SELECT * FROM customers WHERE c_w_id = ? AND c_d_id = ? AND c_id = ?"+w.lock,
		warehouseID, districtID, customerID)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("customer %d/%d/%d", warehouseID, districtID, customerID))
	}
	return &c, nil
}

// NextOrderID increments the district's order counter and returns the value it held before
func (w *WrTx) NextOrderID(ctx context.Context, warehouseID, districtID int32) (int32, error) {
	var id int32
	err := w.get(ctx, &id,
		"UPDATE districts SET d_next_o_id = d_next_o_id + 1 WHERE d_w_id = ? AND d_id = ? RETURNING d_next_o_id - 1",
		warehouseID, districtID)
	if err != nil {
		return 0, notFound(err, fmt.Sprintf("district %d/%d", warehouseID, districtID))
	}
	return id, nil
}

// InsertOrder inserts an order header
func (w *WrTx) InsertOrder(ctx context.Context, o *models.Order) error {
	_, err := w.tx.NamedExecContext(ctx, insertOrder, o)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

// InsertOrderLines inserts the lines of one order
func (w *WrTx) InsertOrderLines(ctx context.Context, lines []models.OrderLine) error {
	return bulkInsert(ctx, w, insertOrderLine, lines)
}

// InsertNewOrder queues an order for delivery
func (w *WrTx) InsertNewOrder(ctx context.Context, no *models.NewOrder) error {
	_, err := w.tx.NamedExecContext(ctx, insertNewOrder, no)
	if err != nil {
		return fmt.Errorf("failed to insert new order: %w", err)
	}
	return nil
}

// UpdateStock writes back the mutable counters of a stock row
func (w *WrTx) UpdateStock(ctx context.Context, s *models.Stock) error {
	n, err := w.exec(ctx,
		"UPDATE stocks SET s_quantity = ?, s_ytd = ?, s_order_cnt = ?, s_remote_cnt = ? WHERE s_w_id = ? AND s_i_id = ?",
		s.Quantity, s.YTD, s.OrderCount, s.RemoteCount, s.WarehouseID, s.ItemID)
	if err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("stock %d/%d: %w", s.WarehouseID, s.ItemID, ErrNotFound)
	}
	return nil
}

// AddWarehouseYTD adds amount to the warehouse's year-to-date revenue
func (w *WrTx) AddWarehouseYTD(ctx context.Context, warehouseID int32, amount float64) error {
	n, err := w.exec(ctx, "UPDATE warehouses SET w_ytd = w_ytd + ? WHERE w_id = ?", amount, warehouseID)
	if err != nil {
		return fmt.Errorf("failed to update warehouse: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("warehouse %d: %w", warehouseID, ErrNotFound)
	}
	return nil
}

// AddDistrictYTD adds amount to the district's year-to-date revenue
func (w *WrTx) AddDistrictYTD(ctx context.Context, warehouseID, districtID int32, amount float64) error {
	n, err := w.exec(ctx, "UPDATE districts SET d_ytd = d_ytd + ? WHERE d_w_id = ? AND d_id = ?",
		amount, warehouseID, districtID)
	if err != nil {
		return fmt.Errorf("failed to update district: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("district %d/%d: %w", warehouseID, districtID, ErrNotFound)
	}
	return nil
}

// UpdateCustomerPayment writes back the payment fields of a customer
func (w *WrTx) UpdateCustomerPayment(ctx context.Context, c *models.Customer) error {
	_, err := w.exec(ctx, `UPDATE customers SET c_balance = ?, c_ytd_payment = ?, c_payment_cnt = ?, c_data = ?
		WHERE c_w_id = ? AND c_d_id = ? AND c_id = ?`,
		c.Balance, c.YTDPayment, c.PaymentCount, c.Data, c.WarehouseID, c.DistrictID, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}
	return nil
}

// InsertHistory appends a payment ledger row
func (w *WrTx) InsertHistory(ctx context.Context, h *models.History) error {
	_, err := w.tx.NamedExecContext(ctx, insertHistory, h)
	if err != nil {
		return fmt.Errorf("failed to insert history: %w", err)
	}
	return nil
}

// OldestNewOrders returns up to limit pending order ids of a district, lowest first
func (w *WrTx) OldestNewOrders(ctx context.Context, warehouseID, districtID int32, limit int) ([]int32, error) {
	var ids []int32
	err := w.sel(ctx, &ids,
		"SELECT no_o_id FROM new_orders WHERE no_w_id = ? AND no_d_id = ? ORDER BY no_o_id LIMIT ?"+w.lock,
		warehouseID, districtID, limit)
	return ids, err
}

// DeleteNewOrders removes delivered orders from the queue
func (w *WrTx) DeleteNewOrders(ctx context.Context, warehouseID, districtID int32, orderIDs []int32) error {
	_, err := w.execIn(ctx, "DELETE FROM new_orders WHERE no_w_id = ? AND no_d_id = ? AND no_o_id IN (?)",
		warehouseID, districtID, orderIDs)
	if err != nil {
		return fmt.Errorf("failed to delete new orders: %w", err)
	}
	return nil
}

// SetCarrier assigns a carrier to orders
func (w *WrTx) SetCarrier(ctx context.Context, warehouseID, districtID int32, orderIDs []int32, carrierID int32) error {
	_, err := w.execIn(ctx, "UPDATE orders SET o_carrier_id = ? WHERE o_w_id = ? AND o_d_id = ? AND o_id IN (?)",
		carrierID, warehouseID, districtID, orderIDs)
	if err != nil {
		return fmt.Errorf("failed to set carrier: %w", err)
	}
	return nil
}

// StampDelivery sets the delivery time of every line of the given orders
func (w *WrTx) StampDelivery(ctx context.Context, warehouseID, districtID int32, orderIDs []int32, at time.Time) error {
	_, err := w.execIn(ctx, "UPDATE order_lines SET ol_delivery_d = ? WHERE ol_w_id = ? AND ol_d_id = ? AND ol_o_id IN (?)",
		at, warehouseID, districtID, orderIDs)
	if err != nil {
		return fmt.Errorf("failed to stamp order lines: %w", err)
	}
	return nil
}

// OrderTotal is the summed line amount of one order and its owner
type OrderTotal struct {
	OrderID    int32   `db:"o_id"`
	CustomerID int32   `db:"o_c_id"`
	Amount     float64 `db:"amount"`
}

// OrderTotals sums the line amounts of the given orders
func (w *WrTx) OrderTotals(ctx context.Context, warehouseID, districtID int32, orderIDs []int32) ([]OrderTotal, error) {
	query, args, err := sqlx.In(`SELECT o.o_id, o.o_c_id, COALESCE(SUM(ol.ol_amount), 0) AS amount
		FROM orders o
		LEFT JOIN order_lines ol ON ol.ol_w_id = o.o_w_id AND ol.ol_d_id = o.o_d_id AND ol.ol_o_id = o.o_id
		WHERE o.o_w_id = ? AND o.o_d_id = ? AND o.o_id IN (?)
		GROUP BY o.o_id, o.o_c_id
		ORDER BY o.o_id`, warehouseID, districtID, orderIDs)
	if err != nil {
		return nil, err
	}
	var totals []OrderTotal
	if err := w.sel(ctx, &totals, query, args...); err != nil {
		return nil, fmt.Errorf("failed to sum order lines: %w", err)
	}
	return totals, nil
}

// CreditDelivery adds a delivered order's amount to the customer's balance
func (w *WrTx) CreditDelivery(ctx context.Context, warehouseID, districtID, customerID int32, amount float64) error {
	n, err := w.exec(ctx, `UPDATE customers SET c_balance = c_balance + ?, c_delivery_cnt = c_delivery_cnt + 1
		WHERE c_w_id = ? AND c_d_id = ? AND c_id = ?`,
		amount, warehouseID, districtID, customerID)
	if err != nil {
		return fmt.Errorf("failed to credit customer: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("customer %d/%d/%d: %w", warehouseID, districtID, customerID, ErrNotFound)
	}
	return nil
}
