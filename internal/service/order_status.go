package service

import (
	"context"
	"errors"

	"tpcc-service/internal/models"
	"tpcc-service/internal/store"
	"tpcc-service/internal/util"

	"go.opentelemetry.io/otel/attribute"
)

// OrderStatus returns the customer's most recent order with its lines.
// A customer without orders yields an empty order list.
func (e *Engine) OrderStatus(ctx context.Context, warehouseID, districtID, customerID int32) (resp *models.OrderStatusResponse, err error) {
	ctx, span := util.StartSpan(ctx, "Engine.OrderStatus",
		attribute.Int("warehouse_id", int(warehouseID)),
		attribute.Int("district_id", int(districtID)),
		attribute.Int("customer_id", int(customerID)))
	defer func() { util.EndSpan(span, err) }()

	resp = &models.OrderStatusResponse{Orders: []models.OrderInfo{}}

	timings, err := e.store.ReadTx(ctx, func(tx *store.RdTx) error {
		customer, err := tx.Customer(ctx, warehouseID, districtID, customerID)
		if err != nil {
			return err
		}
		resp.Customer = models.NewCustomerInfo(customer)
		resp.Balance = customer.Balance

		order, err := tx.LatestOrder(ctx, warehouseID, districtID, customerID)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		lines, err := tx.OrderLines(ctx, warehouseID, districtID, order.ID)
		if err != nil {
			return err
		}
		resp.Orders = append(resp.Orders, orderInfo(order, lines))
		return nil
	})

	err = classify("order_status", err)
	e.observe(TxOrderStatus, timings, err)
	if err != nil {
		return nil, err
	}

	resp.Performance = perf(timings)
	return resp, nil
}

func orderInfo(o *models.Order, lines []models.OrderLine) models.OrderInfo {
	info := models.OrderInfo{
		OrderID: o.ID,
		EntryAt: o.EntryAt,
		Lines:   make([]models.OrderLineInfo, 0, len(lines)),
	}
	if o.CarrierID.Valid {
		carrier := o.CarrierID.Int32
		info.CarrierID = &carrier
	}
	for _, l := range lines {
		li := models.OrderLineInfo{
			ItemID:            l.ItemID,
			SupplyWarehouseID: l.SupplyWarehouseID,
			Quantity:          l.Quantity,
			Amount:            l.Amount,
		}
		if l.DeliveryAt.Valid {
			at := l.DeliveryAt.Time
			li.DeliveryAt = &at
		}
		info.Lines = append(info.Lines, li)
	}
	return info
}
