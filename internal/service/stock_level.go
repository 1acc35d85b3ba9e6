package service

import (
	"context"

	"tpcc-service/internal/models"
	"tpcc-service/internal/store"
	"tpcc-service/internal/util"

	"go.opentelemetry.io/otel/attribute"
)

// stockLevelWindow is how many of the district's latest orders Stock-Level examines
const stockLevelWindow = 20

// StockLevel counts the distinct items of the district's last 20 orders
// whose stock is below threshold
func (e *Engine) StockLevel(ctx context.Context, warehouseID, districtID, threshold int32) (resp *models.StockLevelResponse, err error) {
	ctx, span := util.StartSpan(ctx, "Engine.StockLevel",
		attribute.Int("warehouse_id", int(warehouseID)),
		attribute.Int("district_id", int(districtID)),
		attribute.Int("threshold", int(threshold)))
	defer func() { util.EndSpan(span, err) }()

	resp = &models.StockLevelResponse{}
	timings, err := e.store.ReadTx(ctx, func(tx *store.RdTx) error {
		district, err := tx.District(ctx, warehouseID, districtID)
		if err != nil {
			return err
		}
		n, err := tx.CountLowStock(ctx, warehouseID, districtID,
			district.NextOrderID-stockLevelWindow, district.NextOrderID, threshold)
		if err != nil {
			return err
		}
		resp.LowStocks = n
		return nil
	})

	err = classify("stock_level", err)
	e.observe(TxStockLevel, timings, err)
	if err != nil {
		return nil, err
	}

	resp.Performance = perf(timings)
	return resp, nil
}
