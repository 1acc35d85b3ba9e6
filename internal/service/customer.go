package service

import (
	"context"
	"time"

	"tpcc-service/internal/models"
	"tpcc-service/internal/store"
	"tpcc-service/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// CustomerByID looks up a single customer
func (e *Engine) CustomerByID(ctx context.Context, warehouseID, districtID, customerID int32) (resp *models.CustomerResponse, err error) {
	ctx, span := util.StartSpan(ctx, "Engine.CustomerByID",
		attribute.Int("customer_id", int(customerID)))
	defer func() { util.EndSpan(span, err) }()

	resp = &models.CustomerResponse{}
	timings, err := e.store.ReadTx(ctx, func(tx *store.RdTx) error {
		customer, err := tx.Customer(ctx, warehouseID, districtID, customerID)
		if err != nil {
			return err
		}
		resp.Customer = models.NewCustomerInfo(customer)
		resp.Balance = customer.Balance
		return nil
	})

	err = classify("customer_by_id", err)
	e.observe(TxCustomerByID, timings, err)
	if err != nil {
		return nil, err
	}

	resp.Performance = perf(timings)
	return resp, nil
}

// CustomersByLastName lists the customers of a district sharing a surname,
// ordered by first name. An unknown surname yields an empty list.
func (e *Engine) CustomersByLastName(ctx context.Context, warehouseID, districtID int32, last string) (resp *models.CustomersResponse, err error) {
	ctx, span := util.StartSpan(ctx, "Engine.CustomersByLastName",
		attribute.String("last", last))
	defer func() { util.EndSpan(span, err) }()

	start := time.Now()
	cached, ok, cacheErr := e.cache.GetCustomers(ctx, warehouseID, districtID, last)
	if cacheErr != nil {
		e.logger.Warn("Customer cache read failed", zap.Error(cacheErr))
	}
	if ok {
		util.CustomerCacheLookupsTotal.WithLabelValues("hit").Inc()
		e.stats.Record(TxCustomerByName, time.Since(start))
		return &models.CustomersResponse{Customers: cached}, nil
	}
	util.CustomerCacheLookupsTotal.WithLabelValues("miss").Inc()

	resp = &models.CustomersResponse{Customers: []models.CustomerInfo{}}
	timings, err := e.store.ReadTx(ctx, func(tx *store.RdTx) error {
		customers, err := tx.CustomersByLastName(ctx, warehouseID, districtID, last)
		if err != nil {
			return err
		}
		for i := range customers {
			resp.Customers = append(resp.Customers, models.NewCustomerInfo(&customers[i]))
		}
		return nil
	})

	err = classify("customer_by_name", err)
	e.observe(TxCustomerByName, timings, err)
	if err != nil {
		return nil, err
	}

	if len(resp.Customers) > 0 {
		if err := e.cache.PutCustomers(ctx, warehouseID, districtID, last, resp.Customers); err != nil {
			e.logger.Warn("Customer cache write failed", zap.Error(err))
		}
	}

	resp.Performance = perf(timings)
	return resp, nil
}
