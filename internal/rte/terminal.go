package rte

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tpcc-service/internal/models"
	"tpcc-service/internal/tpcrand"

	"go.uber.org/zap"
)

// errNoCustomer means a surname lookup matched nobody
var errNoCustomer = errors.New("no customer with that last name")

// Keying and mean think times per kind, in seconds, at wait factor 1
var (
	keyingTimes = [kindCount]float64{18, 3, 2, 2, 2}
	thinkTimes  = [kindCount]float64{12, 12, 10, 5, 5}
)

// window is the shared run timeline
type window struct {
	measureStart time.Time
	measureEnd   time.Time
	end          time.Time
}

func (w window) measuring(t time.Time) bool {
	return !t.Before(w.measureStart) && t.Before(w.measureEnd)
}

// terminal is one emulated user bound to a home warehouse
type terminal struct {
	id          int
	warehouseID int32
	districtID  int32

	client   Client
	schedule *Schedule
	inputs   *Inputs
	rng      *tpcrand.Generator

	timeout time.Duration
	wait    float64

	stats    *Stats
	recorder *recorder
	logger   *zap.Logger
}

// run cycles until the end of the window. A call in flight at the deadline
// is allowed to finish.
func (t *terminal) run(ctx context.Context, win window) {
	for {
		if ctx.Err() != nil || !time.Now().Before(win.end) {
			return
		}

		k := t.schedule.Next()
		if !t.pause(ctx, win, keyingTimes[k]) {
			return
		}

		start := time.Now()
		perf, rolledBack, err := t.execute(ctx, k)
		done := time.Now()
		elapsed := done.Sub(start)

		if err != nil {
			t.stats.failure(k)
			t.logger.Warn("Transaction failed",
				zap.Int("terminal", t.id),
				zap.Stringer("kind", k),
				zap.Duration("elapsed", elapsed),
				zap.Error(err))
		} else {
			t.stats.success(k, elapsed, perf)
			t.recorder.record(k, elapsed)
			if k == KindNewOrder {
				if rolledBack {
					t.stats.rollbacks.Add(1)
				}
				if win.measuring(done) {
					t.stats.measuredNewOrders.Add(1)
				}
			}
		}

		if !t.pause(ctx, win, t.thinkTime(k)) {
			return
		}
	}
}

// thinkTime is exponentially distributed, capped at ten times its mean
func (t *terminal) thinkTime(k Kind) float64 {
	mean := thinkTimes[k]
	v := t.rng.ExpFloat() * mean
	if v > 10*mean {
		v = 10 * mean
	}
	return v
}

// pause sleeps seconds scaled by the wait factor, never past the window end.
// It reports false when the terminal should stop.
func (t *terminal) pause(ctx context.Context, win window, seconds float64) bool {
	if t.wait <= 0 {
		return true
	}
	d := time.Duration(seconds * t.wait * float64(time.Second))
	if remaining := time.Until(win.end); d > remaining {
		d = remaining
	}
	if d <= 0 {
		return time.Now().Before(win.end)
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return time.Now().Before(win.end)
	}
}

// execute performs one transaction of kind k. The server-side timings are
// nil when the kind reports none.
func (t *terminal) execute(ctx context.Context, k Kind) (*models.PerformanceMetrics, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	switch k {
	case KindNewOrder:
		resp, err := t.client.NewOrder(ctx, t.inputs.NewOrder(t.warehouseID))
		if err != nil {
			return nil, false, err
		}
		return &resp.Performance, resp.RolledBack, nil

	case KindPayment:
		in := t.inputs.Payment(t.warehouseID)
		id, err := t.resolve(ctx, in.Customer)
		if err != nil {
			return nil, false, err
		}
		in.Request.CustomerID = id
		resp, err := t.client.Payment(ctx, &in.Request)
		if err != nil {
			return nil, false, err
		}
		return &resp.Performance, false, nil

	case KindOrderStatus:
		ref := t.inputs.OrderStatus(t.warehouseID)
		id, err := t.resolve(ctx, ref)
		if err != nil {
			return nil, false, err
		}
		resp, err := t.client.OrderStatus(ctx, ref.WarehouseID, ref.DistrictID, id)
		if err != nil {
			return nil, false, err
		}
		return &resp.Performance, false, nil

	case KindDelivery:
		resp, err := t.client.Delivery(ctx, t.inputs.Delivery(t.warehouseID))
		if err != nil {
			return nil, false, err
		}
		if resp.Queued {
			return nil, false, nil
		}
		return &resp.Performance, false, nil

	case KindStockLevel:
		resp, err := t.client.StockLevel(ctx, t.warehouseID, t.districtID, t.inputs.StockLevelThreshold())
		if err != nil {
			return nil, false, err
		}
		return &resp.Performance, false, nil
	}
	return nil, false, fmt.Errorf("unknown transaction kind %d", k)
}

// resolve returns the customer id of ref, looking surnames up and taking the
// middle entry of the first-name ordered matches
func (t *terminal) resolve(ctx context.Context, ref CustomerRef) (int32, error) {
	if !ref.ByName() {
		return ref.CustomerID, nil
	}
	resp, err := t.client.CustomersByLastName(ctx, ref.WarehouseID, ref.DistrictID, ref.LastName)
	if err != nil {
		return 0, err
	}
	if len(resp.Customers) == 0 {
		return 0, fmt.Errorf("%w: %s in %d/%d", errNoCustomer, ref.LastName, ref.WarehouseID, ref.DistrictID)
	}
	return resp.Customers[len(resp.Customers)/2].CustomerID, nil
}
