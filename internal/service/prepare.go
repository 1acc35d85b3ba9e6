package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tpcc-service/internal/models"
	"tpcc-service/internal/store"
	"tpcc-service/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const prepareLockKey = "prepare"

var errPrepareRunning = errors.New("database preparation already running")

// Prepare drops all benchmark data and generates a fresh database with
// scale warehouses
func (e *Engine) Prepare(ctx context.Context, scale int32) (resp *models.DbStatusResponse, err error) {
	ctx, span := util.StartSpan(ctx, "Engine.Prepare",
		attribute.Int("scale_factor", int(scale)))
	defer func() { util.EndSpan(span, err) }()

	if scale < 1 {
		return nil, &Error{Kind: SetupFailure, Op: "prepare", Err: fmt.Errorf("invalid scale factor %d", scale)}
	}

	if !e.prepareMu.TryLock() {
		return nil, &Error{Kind: ResourceExhausted, Op: "prepare", Err: errPrepareRunning}
	}
	defer e.prepareMu.Unlock()

	acquired, err := e.cache.AcquireLock(ctx, prepareLockKey, e.opts.PrepareLockTTL)
	if err != nil {
		return nil, &Error{Kind: SetupFailure, Op: "prepare", Err: fmt.Errorf("failed to acquire prepare lock: %w", err)}
	}
	if !acquired {
		return nil, &Error{Kind: ResourceExhausted, Op: "prepare", Err: errPrepareRunning}
	}
	defer func() {
		if err := e.cache.ReleaseLock(context.Background(), prepareLockKey); err != nil {
			e.logger.Warn("Failed to release prepare lock", zap.Error(err))
		}
	}()

	e.logger.Info("Preparing database", zap.Int32("scale_factor", scale))
	start := time.Now()

	if err := e.load(ctx, scale); err != nil {
		e.logger.Error("Database preparation failed", zap.Error(err))
		return nil, &Error{Kind: SetupFailure, Op: "prepare", Err: err}
	}

	elapsed := time.Since(start)
	util.PrepareDuration.Observe(elapsed.Seconds())
	e.logger.Info("Database prepared", zap.Int32("scale_factor", scale), zap.Duration("elapsed", elapsed))

	if err := e.cache.InvalidateCustomers(ctx); err != nil {
		e.logger.Warn("Failed to invalidate customer cache", zap.Error(err))
	}

	return e.Status(ctx)
}

// Status reports row counts, database size and the running statistics
func (e *Engine) Status(ctx context.Context) (resp *models.DbStatusResponse, err error) {
	ctx, span := util.StartSpan(ctx, "Engine.Status")
	defer func() { util.EndSpan(span, err) }()

	resp = &models.DbStatusResponse{}
	_, err = e.store.ReadTx(ctx, func(tx *store.RdTx) error {
		counts, err := tx.Counts(ctx)
		if err != nil {
			return err
		}
		resp.Counts = *counts
		return nil
	})
	if err != nil {
		return nil, classify("status", err)
	}

	size, err := e.store.DatabaseSize(ctx)
	if err != nil {
		return nil, classify("status", err)
	}
	resp.DatabaseBytes = size
	resp.Statistics = e.stats.Snapshot()
	return resp, nil
}
