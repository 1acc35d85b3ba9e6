package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"tpcc-service/internal/models"
	"tpcc-service/internal/store"
	"tpcc-service/internal/util"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// errRollbackRequested aborts a New-Order after all of its work is done
var errRollbackRequested = errors.New("rollback requested")

// AllocateQuantity returns the stock quantity left after ordering qty units.
// Stock that would drop to 10 or fewer units is replenished by 91.
func AllocateQuantity(old, qty int32) int32 {
	if old > qty+10 {
		return old - qty
	}
	return old - qty + 91
}

// OrderTotal is sum(amounts) * (1 - discount) * (1 + warehouseTax + districtTax), rounded to cents
func OrderTotal(amounts []decimal.Decimal, discount, warehouseTax, districtTax float64) float64 {
	sum := decimal.Sum(decimal.Zero, amounts...)
	one := decimal.NewFromInt(1)
	total := sum.
		Mul(one.Sub(decimal.NewFromFloat(discount))).
		Mul(one.Add(decimal.NewFromFloat(warehouseTax)).Add(decimal.NewFromFloat(districtTax)))
	return total.Round(2).InexactFloat64()
}

func supplyWarehouse(req *models.NewOrderRequest, i int) int32 {
	if w := req.Items[i].SupplyWarehouseID; w != 0 {
		return w
	}
	return req.WarehouseID
}

// stockLockOrder returns the line indexes sorted by (supply warehouse, item)
// so concurrent orders lock stock rows in one global order
func stockLockOrder(req *models.NewOrderRequest) []int {
	idx := make([]int, len(req.Items))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		wa, wb := supplyWarehouse(req, idx[a]), supplyWarehouse(req, idx[b])
		if wa != wb {
			return wa < wb
		}
		return req.Items[idx[a]].ItemID < req.Items[idx[b]].ItemID
	})
	return idx
}

// NewOrder places an order for a customer
func (e *Engine) NewOrder(ctx context.Context, req *models.NewOrderRequest) (resp *models.NewOrderResponse, err error) {
	ctx, span := util.StartSpan(ctx, "Engine.NewOrder",
		attribute.Int("warehouse_id", int(req.WarehouseID)),
		attribute.Int("district_id", int(req.DistrictID)),
		attribute.Int("lines", len(req.Items)))
	defer func() { util.EndSpan(span, err) }()

	resp = &models.NewOrderResponse{
		WarehouseID: req.WarehouseID,
		DistrictID:  req.DistrictID,
		CustomerID:  req.CustomerID,
		EntryAt:     time.Now().UTC(),
	}

	timings, err := e.store.WriteTx(ctx, func(tx *store.WrTx) error {
		warehouse, err := tx.Warehouse(ctx, req.WarehouseID)
		if err != nil {
			return err
		}
		// district before customer, the same lock order Payment uses
		orderID, err := tx.NextOrderID(ctx, req.WarehouseID, req.DistrictID)
		if err != nil {
			return err
		}
		district, err := tx.District(ctx, req.WarehouseID, req.DistrictID)
		if err != nil {
			return err
		}
		customer, err := tx.Customer(ctx, req.WarehouseID, req.DistrictID, req.CustomerID)
		if err != nil {
			return err
		}

		allLocal := int32(1)
		lines := make([]models.OrderLine, len(req.Items))
		amounts := make([]decimal.Decimal, len(req.Items))
		resp.Lines = make([]models.NewOrderLine, len(req.Items))

		for _, i := range stockLockOrder(req) {
			item := req.Items[i]
			supplyW := supplyWarehouse(req, i)
			si, err := tx.StockedItem(ctx, item.ItemID, supplyW)
			if err != nil {
				return err
			}

			stock := &si.Stock
			stock.Quantity = AllocateQuantity(stock.Quantity, item.Quantity)
			stock.YTD += item.Quantity
			stock.OrderCount++
			if supplyW != req.WarehouseID {
				stock.RemoteCount++
				allLocal = 0
			}
			if err := tx.UpdateStock(ctx, stock); err != nil {
				return err
			}

			amount := decimal.NewFromFloat(si.Item.Price).Mul(decimal.NewFromInt32(item.Quantity)).Round(2)
			amounts[i] = amount
			number := int32(i + 1)
			lines[i] = models.OrderLine{
				OrderID:           orderID,
				DistrictID:        req.DistrictID,
				WarehouseID:       req.WarehouseID,
				Number:            number,
				ItemID:            item.ItemID,
				SupplyWarehouseID: supplyW,
				Quantity:          item.Quantity,
				Amount:            amount.InexactFloat64(),
				DistInfo:          stock.DistInfo(customer.DistrictID),
			}
			resp.Lines[i] = models.NewOrderLine{
				Number:            number,
				ItemID:            item.ItemID,
				ItemName:          si.Item.Name,
				SupplyWarehouseID: supplyW,
				Quantity:          item.Quantity,
				StockQuantity:     stock.Quantity,
				Price:             si.Item.Price,
				Amount:            amount.InexactFloat64(),
			}
		}

		if err := tx.InsertOrder(ctx, &models.Order{
			ID:          orderID,
			DistrictID:  req.DistrictID,
			WarehouseID: req.WarehouseID,
			CustomerID:  req.CustomerID,
			EntryAt:     resp.EntryAt,
			LineCount:   int32(len(lines)),
			AllLocal:    allLocal,
		}); err != nil {
			return err
		}
		if err := tx.InsertOrderLines(ctx, lines); err != nil {
			return err
		}
		if err := tx.InsertNewOrder(ctx, &models.NewOrder{
			OrderID:     orderID,
			DistrictID:  req.DistrictID,
			WarehouseID: req.WarehouseID,
		}); err != nil {
			return err
		}

		resp.OrderID = orderID
		resp.TotalAmount = OrderTotal(amounts, customer.Discount, warehouse.Tax, district.Tax)

		if req.InjectRollback {
			return errRollbackRequested
		}
		return nil
	})

	if errors.Is(err, errRollbackRequested) {
		util.NewOrderRollbacksTotal.Inc()
		e.logger.Debug("New-Order rolled back on request",
			zap.Int32("warehouse_id", req.WarehouseID),
			zap.Int32("district_id", req.DistrictID))
		e.observe(TxNewOrder, timings, nil)
		return &models.NewOrderResponse{
			WarehouseID: req.WarehouseID,
			DistrictID:  req.DistrictID,
			CustomerID:  req.CustomerID,
			EntryAt:     resp.EntryAt,
			RolledBack:  true,
			Lines:       []models.NewOrderLine{},
			Performance: perf(timings),
		}, nil
	}

	err = classify("new_order", err)
	e.observe(TxNewOrder, timings, err)
	if err != nil {
		return nil, err
	}

	resp.Performance = perf(timings)
	return resp, nil
}
