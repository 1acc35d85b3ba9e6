package service

import (
	"context"
	"fmt"
	"time"

	"tpcc-service/internal/models"
	"tpcc-service/internal/store"
	"tpcc-service/internal/util"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

// BadCreditData prepends the payment audit entry to a bad-credit customer's
// data, keeping the original length.
func BadCreditData(c *models.Customer, districtID, warehouseID int32, amount float64, old string) string {
	entry := fmt.Sprintf("%04d%04d%04d%04d%04d%.2f",
		c.ID, c.DistrictID, c.WarehouseID, districtID, warehouseID, amount)
	data := entry + old
	if len(data) > len(old) {
		data = data[:len(old)]
	}
	return data
}

// HistoryData is the ledger descriptor of a payment received at a district
func HistoryData(warehouseName, districtName string) string {
	return warehouseName + "    " + districtName
}

func addMoney(a, b float64) float64 {
	return decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).InexactFloat64()
}

// Payment records a customer payment received at a warehouse and district.
// The customer may belong to another district or warehouse.
func (e *Engine) Payment(ctx context.Context, req *models.PaymentRequest) (resp *models.PaymentResponse, err error) {
	ctx, span := util.StartSpan(ctx, "Engine.Payment",
		attribute.Int("warehouse_id", int(req.WarehouseID)),
		attribute.Int("district_id", int(req.DistrictID)),
		attribute.Float64("amount", req.Amount))
	defer func() { util.EndSpan(span, err) }()

	resp = &models.PaymentResponse{
		Amount:    req.Amount,
		Timestamp: time.Now().UTC(),
	}

	timings, err := e.store.WriteTx(ctx, func(tx *store.WrTx) error {
		if err := tx.AddWarehouseYTD(ctx, req.WarehouseID, req.Amount); err != nil {
			return err
		}
		if err := tx.AddDistrictYTD(ctx, req.WarehouseID, req.DistrictID, req.Amount); err != nil {
			return err
		}
		warehouse, err := tx.Warehouse(ctx, req.WarehouseID)
		if err != nil {
			return err
		}
		district, err := tx.District(ctx, req.WarehouseID, req.DistrictID)
		if err != nil {
			return err
		}
		customer, err := tx.CustomerForUpdate(ctx, req.CustomerWarehouseID, req.CustomerDistrictID, req.CustomerID)
		if err != nil {
			return err
		}

		customer.Balance = addMoney(customer.Balance, -req.Amount)
		customer.YTDPayment = addMoney(customer.YTDPayment, req.Amount)
		customer.PaymentCount++
		if customer.Credit == models.CreditBad {
			customer.Data = BadCreditData(customer, req.DistrictID, req.WarehouseID, req.Amount, customer.Data)
		}
		if err := tx.UpdateCustomerPayment(ctx, customer); err != nil {
			return err
		}

		if err := tx.InsertHistory(ctx, &models.History{
			CustomerID:         customer.ID,
			CustomerDistrictID: customer.DistrictID,
			CustomerWarehouse:  customer.WarehouseID,
			DistrictID:         district.ID,
			WarehouseID:        warehouse.ID,
			Date:               resp.Timestamp,
			Amount:             req.Amount,
			Data:               HistoryData(warehouse.Name, district.Name),
		}); err != nil {
			return err
		}

		resp.CustomerBalance = customer.Balance
		resp.CustomerCredit = customer.Credit
		return nil
	})

	err = classify("payment", err)
	e.observe(TxPayment, timings, err)
	if err != nil {
		return nil, err
	}

	resp.Performance = perf(timings)
	return resp, nil
}
