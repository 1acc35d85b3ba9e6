package rte

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"tpcc-service/config"
	"tpcc-service/internal/models"
	"tpcc-service/internal/tpcrand"
	"tpcc-service/internal/util"

	"go.uber.org/zap"
)

// Config controls a benchmark run
type Config struct {
	// Concurrency is the number of terminals per warehouse
	Concurrency int
	RampUp      time.Duration
	Measure     time.Duration
	RampDown    time.Duration

	RequestTimeout time.Duration
	// WaitFactor scales keying and think times; 0 disables them
	WaitFactor float64

	Mix             Mix
	RollbackPercent int
	RemotePercent   int
	DeferDelivery   bool
	Seed            int64
}

// ConfigFromGenerator converts the environment defaults into a run config
func ConfigFromGenerator(g config.GeneratorConfig) (Config, error) {
	mix, err := MixFromWeights(g.Mix)
	if err != nil {
		return Config{}, err
	}
	return Config{
		Concurrency:     g.Concurrency,
		RampUp:          g.RampUp,
		Measure:         g.Measure,
		RampDown:        g.RampDown,
		RequestTimeout:  g.RequestTimeout,
		WaitFactor:      g.WaitFactor,
		Mix:             mix,
		RollbackPercent: g.RollbackPercent,
		RemotePercent:   g.RemotePercent,
		DeferDelivery:   g.DeferDelivery,
		Seed:            time.Now().UnixNano(),
	}, nil
}

func (c Config) validate() error {
	switch {
	case c.Concurrency < 1:
		return fmt.Errorf("concurrency must be at least 1")
	case c.Measure <= 0:
		return fmt.Errorf("measurement interval must be positive")
	case c.RampUp < 0 || c.RampDown < 0:
		return fmt.Errorf("ramp intervals must not be negative")
	case c.RequestTimeout <= 0:
		return fmt.Errorf("request timeout must be positive")
	case c.Mix.Total() == 0:
		return fmt.Errorf("transaction mix is empty")
	}
	return nil
}

// ErrNotPrepared means the engine holds no warehouses
var ErrNotPrepared = errors.New("database is not prepared")

// Runner drives a closed-loop benchmark against one engine
type Runner struct {
	client Client
	cfg    Config
	logger *zap.Logger
}

// NewRunner creates a runner
func NewRunner(client Client, cfg Config) *Runner {
	return &Runner{
		client: client,
		cfg:    cfg,
		logger: util.GetLogger(),
	}
}

// Run executes ramp-up, measurement and ramp-down and reports the results.
// Key ranges and the warehouse count are read from the engine's status.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	if err := r.cfg.validate(); err != nil {
		return nil, err
	}

	status, err := r.client.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read engine status: %w", err)
	}
	counts := status.Counts
	if counts.Warehouses == 0 || counts.Districts == 0 {
		return nil, ErrNotPrepared
	}
	scale := int(counts.Warehouses)

	inputCfg := InputConfig{
		Warehouses:           scale,
		Items:                int(counts.Items),
		CustomersPerDistrict: int(counts.Customers / counts.Districts),
		RollbackPercent:      r.cfg.RollbackPercent,
		RemotePercent:        r.cfg.RemotePercent,
		DeferDelivery:        r.cfg.DeferDelivery,
	}

	// one set of NURand constants for the whole run
	consts := tpcrand.NewRunConstants(tpcrand.DefaultConstants, rand.New(rand.NewSource(r.cfg.Seed)))

	stats := &Stats{}
	n := r.cfg.Concurrency * scale
	terminals := make([]*terminal, n)
	for i := range terminals {
		rng := tpcrand.NewWithConstants(r.cfg.Seed+int64(i)+1, consts)
		terminals[i] = &terminal{
			id:          i,
			warehouseID: int32(i%scale + 1),
			districtID:  int32((i/scale)%models.DistrictsPerWarehouse + 1),
			client:      r.client,
			schedule:    NewSchedule(r.cfg.Mix, rng),
			inputs:      NewInputs(rng, inputCfg),
			rng:         rng,
			timeout:     r.cfg.RequestTimeout,
			wait:        r.cfg.WaitFactor,
			stats:       stats,
			recorder:    newRecorder(),
			logger:      r.logger,
		}
	}

	start := time.Now()
	win := window{measureStart: start.Add(r.cfg.RampUp)}
	win.measureEnd = win.measureStart.Add(r.cfg.Measure)
	win.end = win.measureEnd.Add(r.cfg.RampDown)

	r.logger.Info("Starting benchmark",
		zap.Int("scale_factor", scale),
		zap.Int("terminals", n),
		zap.Duration("ramp_up", r.cfg.RampUp),
		zap.Duration("measure", r.cfg.Measure),
		zap.Duration("ramp_down", r.cfg.RampDown),
		zap.Int("c_last", consts.CLast))

	var wg sync.WaitGroup
	for _, t := range terminals {
		wg.Add(1)
		go func(t *terminal) {
			defer wg.Done()
			t.run(ctx, win)
		}(t)
	}
	wg.Wait()

	merged := newRecorder()
	for _, t := range terminals {
		merged.merge(t.recorder)
	}

	report := &Report{
		ScaleFactor:       scale,
		Terminals:         n,
		Measure:           r.cfg.Measure,
		Elapsed:           time.Since(start),
		MeasuredNewOrders: stats.measuredNewOrders.Load(),
		Rollbacks:         stats.rollbacks.Load(),
		Kinds:             stats.summarize(merged),
	}
	report.TpmC = float64(report.MeasuredNewOrders) / r.cfg.Measure.Minutes()

	r.logger.Info("Benchmark finished",
		zap.Float64("tpmC", report.TpmC),
		zap.Duration("elapsed", report.Elapsed))
	return report, ctx.Err()
}
