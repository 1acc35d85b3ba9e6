package service

import (
	"context"
	"sync"
	"time"

	"tpcc-service/internal/models"
	"tpcc-service/internal/store"
	"tpcc-service/internal/util"

	"go.uber.org/zap"
)

// DistrictsPerWarehouse is the number of districts every warehouse owns
const DistrictsPerWarehouse = models.DistrictsPerWarehouse

// Cache is the shared state the engine keeps outside the database: the
// customer-by-surname cache, the prepare lock and event idempotency keys.
type Cache interface {
	GetCustomers(ctx context.Context, warehouseID, districtID int32, last string) ([]models.CustomerInfo, bool, error)
	PutCustomers(ctx context.Context, warehouseID, districtID int32, last string, customers []models.CustomerInfo) error
	InvalidateCustomers(ctx context.Context) error
	AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, lockKey string) error
	SetIdempotencyKey(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	CheckIdempotencyKey(ctx context.Context, key string) (bool, error)
}

// DeliveryQueue publishes deferred Delivery requests
type DeliveryQueue interface {
	PublishDeliveryQueued(ctx context.Context, event *models.DeliveryQueuedEvent) error
}

// NoopCache is used when no Redis is configured. Nothing is cached, every
// lock is granted and no event is ever seen twice.
type NoopCache struct{}

func (NoopCache) GetCustomers(context.Context, int32, int32, string) ([]models.CustomerInfo, bool, error) {
	return nil, false, nil
}

func (NoopCache) PutCustomers(context.Context, int32, int32, string, []models.CustomerInfo) error {
	return nil
}

func (NoopCache) InvalidateCustomers(context.Context) error { return nil }

func (NoopCache) AcquireLock(context.Context, string, time.Duration) (bool, error) { return true, nil }

func (NoopCache) ReleaseLock(context.Context, string) error { return nil }

func (NoopCache) SetIdempotencyKey(context.Context, string, interface{}, time.Duration) error {
	return nil
}

func (NoopCache) CheckIdempotencyKey(context.Context, string) (bool, error) { return false, nil }

// Options tune the engine
type Options struct {
	Population     Population
	PrepareLockTTL time.Duration
	LoadSeed       int64
}

// Engine executes the benchmark transactions against the store
type Engine struct {
	store  *store.Store
	cache  Cache
	queue  DeliveryQueue
	opts   Options
	stats  *Statistics
	logger *zap.Logger

	// prepareMu keeps a second Prepare in this process from racing the first
	prepareMu sync.Mutex
}

// NewEngine creates a new transaction engine. queue may be nil, in which case
// deferred deliveries run synchronously.
func NewEngine(st *store.Store, cache Cache, queue DeliveryQueue, opts Options) *Engine {
	if cache == nil {
		cache = NoopCache{}
	}
	if opts.Population == (Population{}) {
		opts.Population = DefaultPopulation()
	}
	if opts.PrepareLockTTL <= 0 {
		opts.PrepareLockTTL = 30 * time.Minute
	}
	return &Engine{
		store:  st,
		cache:  cache,
		queue:  queue,
		opts:   opts,
		stats:  NewStatistics(),
		logger: util.GetLogger(),
	}
}

// Statistics returns a snapshot of the running totals
func (e *Engine) Statistics() models.Statistics {
	return e.stats.Snapshot()
}

// Ready reports whether the database is reachable
func (e *Engine) Ready(ctx context.Context) error {
	return e.store.Ping(ctx)
}
