package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tpcc-service/internal/models"
	"tpcc-service/internal/store"
	"tpcc-service/internal/tpcrand"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Population sizes the generated database. Every warehouse gets Items stock
// rows and DistrictsPerWarehouse districts.
type Population struct {
	Items                int
	CustomersPerDistrict int
	OrdersPerDistrict    int
	// Orders with an id up to DeliveredOrders are loaded as already delivered
	DeliveredOrders int
}

// DefaultPopulation is the standard initial database
func DefaultPopulation() Population {
	return Population{
		Items:                100000,
		CustomersPerDistrict: 3000,
		OrdersPerDistrict:    3000,
		DeliveredOrders:      2100,
	}
}

// firstNamedCustomers get the surnames LastName(c_id) before NURand takes over
const firstNamedCustomers = 999

func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// loader generates the initial rows from one seeded generator
type loader struct {
	rng *tpcrand.Generator
	pop Population
	now time.Time
}

func newLoader(seed int64, pop Population) *loader {
	return &loader{
		rng: tpcrand.New(seed),
		pop: pop,
		now: time.Now().UTC(),
	}
}

func (l *loader) items() []models.Item {
	items := make([]models.Item, l.pop.Items)
	for i := range items {
		items[i] = models.Item{
			ID:      int32(i + 1),
			ImageID: int32(l.rng.UniformInt(1, 10000)),
			Name:    l.rng.AlnumString(14, 24),
			Price:   round(l.rng.UniformFloat(1.00, 100.00), 2),
			Data:    l.rng.ItemData(),
		}
	}
	return items
}

func (l *loader) warehouse(w int32) models.Warehouse {
	return models.Warehouse{
		ID:      w,
		Name:    l.rng.AlnumString(6, 10),
		Street1: l.rng.AlnumString(10, 20),
		Street2: l.rng.AlnumString(10, 20),
		City:    l.rng.AlnumString(10, 20),
		State:   l.rng.AlnumString(2, 2),
		Zip:     l.rng.ZipCode(),
		Tax:     round(l.rng.UniformFloat(0, 0.2), 4),
		YTD:     300000,
	}
}

func (l *loader) stocks(w int32) []models.Stock {
	stocks := make([]models.Stock, l.pop.Items)
	for i := range stocks {
		stocks[i] = models.Stock{
			ItemID:      int32(i + 1),
			WarehouseID: w,
			Quantity:    int32(l.rng.UniformInt(10, 100)),
			Dist01:      l.rng.AlnumString(24, 24),
			Dist02:      l.rng.AlnumString(24, 24),
			Dist03:      l.rng.AlnumString(24, 24),
			Dist04:      l.rng.AlnumString(24, 24),
			Dist05:      l.rng.AlnumString(24, 24),
			Dist06:      l.rng.AlnumString(24, 24),
			Dist07:      l.rng.AlnumString(24, 24),
			Dist08:      l.rng.AlnumString(24, 24),
			Dist09:      l.rng.AlnumString(24, 24),
			Dist10:      l.rng.AlnumString(24, 24),
			Data:        l.rng.ItemData(),
		}
	}
	return stocks
}

func (l *loader) districts(w int32) []models.District {
	districts := make([]models.District, DistrictsPerWarehouse)
	for i := range districts {
		districts[i] = models.District{
			ID:          int32(i + 1),
			WarehouseID: w,
			Name:        l.rng.AlnumString(6, 10),
			Street1:     l.rng.AlnumString(10, 20),
			Street2:     l.rng.AlnumString(10, 20),
			City:        l.rng.AlnumString(10, 20),
			State:       l.rng.AlnumString(2, 2),
			Zip:         l.rng.ZipCode(),
			Tax:         round(l.rng.UniformFloat(0, 0.2), 4),
			YTD:         30000,
			NextOrderID: int32(l.pop.OrdersPerDistrict + 1),
		}
	}
	return districts
}

// customers returns the customers of a district and their initial payment history
func (l *loader) customers(w, d int32) ([]models.Customer, []models.History) {
	customers := make([]models.Customer, l.pop.CustomersPerDistrict)
	histories := make([]models.History, l.pop.CustomersPerDistrict)
	for i := range customers {
		id := int32(i + 1)
		last := tpcrand.LastName(int(id))
		if id > firstNamedCustomers {
			last = l.rng.RandomLastName()
		}
		credit := models.CreditGood
		if l.rng.Percent(10) {
			credit = models.CreditBad
		}
		customers[i] = models.Customer{
			ID:           id,
			DistrictID:   d,
			WarehouseID:  w,
			First:        l.rng.AlnumString(8, 16),
			Middle:       "OE",
			Last:         last,
			Street1:      l.rng.AlnumString(10, 20),
			Street2:      l.rng.AlnumString(10, 20),
			City:         l.rng.AlnumString(10, 20),
			State:        l.rng.AlnumString(2, 2),
			Zip:          l.rng.ZipCode(),
			Phone:        l.rng.NumericString(16),
			Since:        l.now,
			Credit:       credit,
			CreditLimit:  50000,
			Discount:     round(l.rng.UniformFloat(0, 0.5), 4),
			Balance:      -10,
			YTDPayment:   10,
			PaymentCount: 1,
			Data:         l.rng.AlnumString(300, 500),
		}
		histories[i] = models.History{
			CustomerID:         id,
			CustomerDistrictID: d,
			CustomerWarehouse:  w,
			DistrictID:         d,
			WarehouseID:        w,
			Date:               l.now,
			Amount:             10,
			Data:               l.rng.AlnumString(12, 24),
		}
	}
	return customers, histories
}

// orders returns the initial orders of a district. Order customers are a
// random permutation of the district's customers.
func (l *loader) orders(w, d int32) ([]models.Order, []models.OrderLine, []models.NewOrder) {
	perm := l.rng.Permutation(1, l.pop.CustomersPerDistrict)
	orders := make([]models.Order, l.pop.OrdersPerDistrict)
	lines := make([]models.OrderLine, 0, l.pop.OrdersPerDistrict*10)
	var newOrders []models.NewOrder

	for i := range orders {
		id := int32(i + 1)
		delivered := int(id) <= l.pop.DeliveredOrders
		o := models.Order{
			ID:          id,
			DistrictID:  d,
			WarehouseID: w,
			CustomerID:  int32(perm[i%len(perm)]),
			EntryAt:     l.now,
			LineCount:   int32(l.rng.UniformInt(5, 15)),
			AllLocal:    1,
		}
		if delivered {
			o.CarrierID = sql.NullInt32{Int32: int32(l.rng.UniformInt(1, 10)), Valid: true}
		} else {
			newOrders = append(newOrders, models.NewOrder{OrderID: id, DistrictID: d, WarehouseID: w})
		}
		orders[i] = o

		for n := int32(1); n <= o.LineCount; n++ {
			line := models.OrderLine{
				OrderID:           id,
				DistrictID:        d,
				WarehouseID:       w,
				Number:            n,
				ItemID:            int32(l.rng.UniformInt(1, l.pop.Items)),
				SupplyWarehouseID: w,
				Quantity:          5,
				DistInfo:          l.rng.AlnumString(24, 24),
			}
			if delivered {
				line.DeliveryAt = sql.NullTime{Time: l.now, Valid: true}
			} else {
				line.Amount = round(l.rng.UniformFloat(0.01, 9999.99), 2)
			}
			lines = append(lines, line)
		}
	}
	return orders, lines, newOrders
}

// load rebuilds the schema and fills it for scale warehouses
func (e *Engine) load(ctx context.Context, scale int32) error {
	if err := e.store.ResetSchema(ctx); err != nil {
		return err
	}

	l := newLoader(e.opts.LoadSeed, e.opts.Population)
	if _, err := e.store.WriteTx(ctx, func(tx *store.WrTx) error {
		return tx.InsertItems(ctx, l.items())
	}); err != nil {
		return fmt.Errorf("failed to load items: %w", err)
	}
	e.logger.Info("Items loaded", zap.Int("items", l.pop.Items))

	for w := int32(1); w <= scale; w++ {
		if _, err := e.store.WriteTx(ctx, func(tx *store.WrTx) error {
			return l.loadWarehouse(ctx, tx, w)
		}); err != nil {
			return fmt.Errorf("failed to load warehouse %d: %w", w, err)
		}
		e.logger.Info("Warehouse loaded", zap.Int32("warehouse_id", w), zap.Int32("scale_factor", scale))
	}

	return e.store.Vacuum(ctx)
}

func (l *loader) loadWarehouse(ctx context.Context, tx *store.WrTx, w int32) error {
	if err := tx.InsertWarehouses(ctx, []models.Warehouse{l.warehouse(w)}); err != nil {
		return err
	}
	if err := tx.InsertStocks(ctx, l.stocks(w)); err != nil {
		return err
	}
	if err := tx.InsertDistricts(ctx, l.districts(w)); err != nil {
		return err
	}
	for d := int32(1); d <= DistrictsPerWarehouse; d++ {
		customers, histories := l.customers(w, d)
		if err := tx.InsertCustomers(ctx, customers); err != nil {
			return err
		}
		if err := tx.InsertHistories(ctx, histories); err != nil {
			return err
		}
		orders, lines, newOrders := l.orders(w, d)
		if err := tx.InsertOrders(ctx, orders); err != nil {
			return err
		}
		if err := tx.InsertOrderLines(ctx, lines); err != nil {
			return err
		}
		if err := tx.InsertNewOrders(ctx, newOrders); err != nil {
			return err
		}
	}
	return nil
}
