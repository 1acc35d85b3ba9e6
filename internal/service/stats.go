package service

import (
	"sync/atomic"
	"time"

	"tpcc-service/internal/models"
	"tpcc-service/internal/store"
	"tpcc-service/internal/util"
)

// TxKind identifies a transaction for statistics
type TxKind int

const (
	TxNewOrder TxKind = iota
	TxPayment
	TxOrderStatus
	TxDelivery
	TxStockLevel
	TxCustomerByID
	TxCustomerByName
	txKindCount
)

var txKindNames = [txKindCount]string{
	"new_order", "payment", "order_status", "delivery", "stock_level", "customer_by_id", "customer_by_name",
}

func (k TxKind) String() string {
	if k < 0 || k >= txKindCount {
		return "unknown"
	}
	return txKindNames[k]
}

// Statistics holds process-wide running totals per transaction kind.
// Counters are independent aggregates and are never used for synchronization.
type Statistics struct {
	counts [txKindCount]atomic.Uint64
	micros [txKindCount]atomic.Uint64
}

// NewStatistics creates zeroed statistics
func NewStatistics() *Statistics {
	return &Statistics{}
}

// Record adds one completed transaction of kind k
func (s *Statistics) Record(k TxKind, d time.Duration) {
	s.counts[k].Add(1)
	s.micros[k].Add(uint64(d.Microseconds()))
}

func (s *Statistics) kind(k TxKind) models.KindStatistics {
	return models.KindStatistics{
		Count:   s.counts[k].Load(),
		Seconds: float64(s.micros[k].Load()) / 1e6,
	}
}

// Snapshot returns the current totals
func (s *Statistics) Snapshot() models.Statistics {
	return models.Statistics{
		NewOrder:       s.kind(TxNewOrder),
		Payment:        s.kind(TxPayment),
		OrderStatus:    s.kind(TxOrderStatus),
		Delivery:       s.kind(TxDelivery),
		StockLevel:     s.kind(TxStockLevel),
		CustomerByID:   s.kind(TxCustomerByID),
		CustomerByName: s.kind(TxCustomerByName),
	}
}

// perf converts store timings into the wire breakdown
func perf(t store.Timings) models.PerformanceMetrics {
	return models.PerformanceMetrics{
		Begin:  t.Begin().Seconds(),
		Query:  t.Query().Seconds(),
		Commit: t.Commit().Seconds(),
	}
}

// observe records a finished transaction in the statistics and metrics
func (e *Engine) observe(k TxKind, t store.Timings, err error) {
	if err != nil {
		util.TransactionsTotal.WithLabelValues(k.String(), KindOf(err).String()).Inc()
		return
	}
	e.stats.Record(k, t.Total())
	util.TransactionsTotal.WithLabelValues(k.String(), "ok").Inc()
	util.TransactionPhaseSeconds.WithLabelValues(k.String(), "begin").Observe(t.Begin().Seconds())
	util.TransactionPhaseSeconds.WithLabelValues(k.String(), "query").Observe(t.Query().Seconds())
	util.TransactionPhaseSeconds.WithLabelValues(k.String(), "commit").Observe(t.Commit().Seconds())
}
