package rte

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tpcc-service/config"
	"tpcc-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fakePerf = models.PerformanceMetrics{Begin: 0.001, Query: 0.002, Commit: 0.003}

// fakeClient answers every call after a short pause and remembers what it saw
type fakeClient struct {
	counts models.TableCounts

	failStockLevel bool

	mu               sync.Mutex
	newOrderHomes    map[int32]int
	paymentCustomers map[int32]int
	stockDistricts   map[int32]int
}

func newFakeClient(warehouses int64) *fakeClient {
	return &fakeClient{
		counts: models.TableCounts{
			Items:      1000,
			Warehouses: warehouses,
			Districts:  warehouses * 10,
			Customers:  warehouses * 10 * 30,
		},
		newOrderHomes:    map[int32]int{},
		paymentCustomers: map[int32]int{},
		stockDistricts:   map[int32]int{},
	}
}

func (f *fakeClient) pause() { time.Sleep(time.Millisecond) }

func (f *fakeClient) NewOrder(_ context.Context, req *models.NewOrderRequest) (*models.NewOrderResponse, error) {
	f.pause()
	f.mu.Lock()
	f.newOrderHomes[req.WarehouseID]++
	f.mu.Unlock()
	return &models.NewOrderResponse{RolledBack: req.InjectRollback, Performance: fakePerf}, nil
}

func (f *fakeClient) Payment(_ context.Context, req *models.PaymentRequest) (*models.PaymentResponse, error) {
	f.pause()
	f.mu.Lock()
	f.paymentCustomers[req.CustomerID]++
	f.mu.Unlock()
	return &models.PaymentResponse{Amount: req.Amount, Performance: fakePerf}, nil
}

// CustomersByLastName always matches customers 7, 8 and 9
func (f *fakeClient) CustomersByLastName(_ context.Context, w, d int32, last string) (*models.CustomersResponse, error) {
	f.pause()
	resp := &models.CustomersResponse{}
	for id := int32(7); id <= 9; id++ {
		resp.Customers = append(resp.Customers, models.CustomerInfo{WarehouseID: w, DistrictID: d, CustomerID: id, Last: last})
	}
	return resp, nil
}

func (f *fakeClient) OrderStatus(context.Context, int32, int32, int32) (*models.OrderStatusResponse, error) {
	f.pause()
	return &models.OrderStatusResponse{Performance: fakePerf}, nil
}

func (f *fakeClient) Delivery(_ context.Context, req *models.DeliveryRequest) (*models.DeliveryResponse, error) {
	f.pause()
	if req.Deferred {
		return &models.DeliveryResponse{Queued: true}, nil
	}
	return &models.DeliveryResponse{DeliveredOrders: 10, Performance: fakePerf}, nil
}

func (f *fakeClient) StockLevel(_ context.Context, _, d, _ int32) (*models.StockLevelResponse, error) {
	f.pause()
	if f.failStockLevel {
		return nil, errors.New("stock level unavailable")
	}
	f.mu.Lock()
	f.stockDistricts[d]++
	f.mu.Unlock()
	return &models.StockLevelResponse{Performance: fakePerf}, nil
}

func (f *fakeClient) Prepare(context.Context, int32) (*models.DbStatusResponse, error) {
	return &models.DbStatusResponse{Counts: f.counts}, nil
}

func (f *fakeClient) Status(context.Context) (*models.DbStatusResponse, error) {
	return &models.DbStatusResponse{Counts: f.counts}, nil
}

func shortConfig() Config {
	return Config{
		Concurrency:    2,
		RampUp:         50 * time.Millisecond,
		Measure:        300 * time.Millisecond,
		RampDown:       50 * time.Millisecond,
		RequestTimeout: time.Second,
		Mix:            DefaultMix(),
		Seed:           1,
	}
}

func TestRunnerRun(t *testing.T) {
	client := newFakeClient(2)
	cfg := shortConfig()
	cfg.RollbackPercent = 100

	report, err := NewRunner(client, cfg).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.ScaleFactor)
	assert.Equal(t, 4, report.Terminals)
	assert.GreaterOrEqual(t, report.Elapsed, 400*time.Millisecond)

	no := report.Kind(KindNewOrder)
	require.Greater(t, no.Count, uint64(0))
	assert.Zero(t, no.Failures)
	assert.Equal(t, no.Count, report.Rollbacks)
	assert.Greater(t, report.MeasuredNewOrders, uint64(0))
	assert.Less(t, report.MeasuredNewOrders, no.Count)
	assert.InDelta(t, float64(report.MeasuredNewOrders)/cfg.Measure.Minutes(), report.TpmC, 1e-9)

	assert.InDelta(t, float64(time.Millisecond), float64(no.AvgBegin), float64(time.Microsecond))
	assert.InDelta(t, float64(3*time.Millisecond), float64(no.AvgCommit), float64(time.Microsecond))
	assert.GreaterOrEqual(t, no.P99, no.P50)
	assert.GreaterOrEqual(t, no.Max, no.P99)
	assert.GreaterOrEqual(t, no.AvgClient, time.Millisecond)

	for _, s := range report.Kinds {
		assert.Zero(t, s.Failures, s.Kind.String())
	}
	assert.Greater(t, report.Kind(KindPayment).Count, uint64(0))

	client.mu.Lock()
	defer client.mu.Unlock()

	// terminals spread over both warehouses
	assert.Greater(t, client.newOrderHomes[1], 0)
	assert.Greater(t, client.newOrderHomes[2], 0)

	// surname lookups resolve to the middle match
	for id := range client.paymentCustomers {
		assert.True(t, id == 8 || (id >= 1 && id <= 30), "customer %d", id)
	}
	assert.Greater(t, client.paymentCustomers[8], 0)

	// each terminal keeps a fixed Stock-Level district
	for d := range client.stockDistricts {
		assert.True(t, d == 1 || d == 2, "district %d", d)
	}
}

func TestRunnerCountsFailuresAndContinues(t *testing.T) {
	client := newFakeClient(1)
	client.failStockLevel = true
	cfg := shortConfig()
	cfg.Mix = Mix{0, 0, 0, 0, 1}

	report, err := NewRunner(client, cfg).Run(context.Background())
	require.NoError(t, err)

	sl := report.Kind(KindStockLevel)
	assert.Zero(t, sl.Count)
	assert.Greater(t, sl.Failures, uint64(1))
	assert.Zero(t, report.TpmC)
}

func TestRunnerDeferredDelivery(t *testing.T) {
	client := newFakeClient(1)
	cfg := shortConfig()
	cfg.Mix = Mix{0, 0, 0, 1, 0}
	cfg.DeferDelivery = true

	report, err := NewRunner(client, cfg).Run(context.Background())
	require.NoError(t, err)

	d := report.Kind(KindDelivery)
	assert.Greater(t, d.Count, uint64(0))
	assert.Zero(t, d.AvgBegin)
}

func TestRunnerRequiresPreparedDatabase(t *testing.T) {
	client := newFakeClient(0)
	_, err := NewRunner(client, shortConfig()).Run(context.Background())
	assert.ErrorIs(t, err, ErrNotPrepared)
}

func TestRunnerRejectsBadConfig(t *testing.T) {
	cfg := shortConfig()
	cfg.Concurrency = 0
	_, err := NewRunner(newFakeClient(1), cfg).Run(context.Background())
	assert.Error(t, err)

	cfg = shortConfig()
	cfg.Measure = 0
	_, err = NewRunner(newFakeClient(1), cfg).Run(context.Background())
	assert.Error(t, err)
}

func TestRunnerStopsOnCancel(t *testing.T) {
	cfg := shortConfig()
	cfg.Measure = time.Hour
	cfg.WaitFactor = 1

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	report, err := NewRunner(newFakeClient(1), cfg).Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	require.NotNil(t, report)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRunnerAgainstEngine(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping end-to-end run in short mode")
	}
	client := newServer(t, newEngine(t))
	_, err := client.Prepare(context.Background(), 1)
	require.NoError(t, err)

	cfg := shortConfig()
	cfg.Concurrency = 1
	report, err := NewRunner(client, cfg).Run(context.Background())
	require.NoError(t, err)

	no := report.Kind(KindNewOrder)
	assert.Greater(t, no.Count, uint64(0))
	assert.Zero(t, no.Failures)

	var buf bytes.Buffer
	report.Render(&buf)
	assert.Contains(t, buf.String(), "New-Order")
	assert.Contains(t, buf.String(), "tpmC")
}

func TestReportRender(t *testing.T) {
	report := &Report{
		ScaleFactor:       1,
		Terminals:         10,
		Measure:           time.Minute,
		Elapsed:           90 * time.Second,
		MeasuredNewOrders: 120,
		TpmC:              120,
		Kinds: []KindSummary{
			{Kind: KindNewOrder, Count: 130, AvgClient: 12 * time.Millisecond},
			{Kind: KindPayment, Count: 128, Failures: 2},
		},
	}

	var buf bytes.Buffer
	report.Render(&buf)
	out := buf.String()
	assert.Contains(t, out, "tpmC: 120.0")
	assert.Contains(t, out, "New-Order")
	assert.Contains(t, out, "Payment")
	assert.Contains(t, out, "12.00")
}

func TestConfigFromGenerator(t *testing.T) {
	cfg, err := ConfigFromGenerator(config.GeneratorConfig{
		Concurrency:    10,
		Measure:        time.Minute,
		RequestTimeout: time.Second,
		WaitFactor:     1,
		Mix:            []int{45, 43, 4, 4, 4},
	})
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Concurrency)
	assert.Equal(t, Mix{45, 43, 4, 4, 4}, cfg.Mix)
	assert.NoError(t, cfg.validate())

	_, err = ConfigFromGenerator(config.GeneratorConfig{Mix: []int{1}})
	assert.Error(t, err)
}
