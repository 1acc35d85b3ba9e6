package rte

import (
	"tpcc-service/internal/models"
	"tpcc-service/internal/tpcrand"

	"github.com/shopspring/decimal"
)

// InputConfig sizes the key ranges inputs are drawn from
type InputConfig struct {
	Warehouses           int
	Items                int
	CustomersPerDistrict int
	// RollbackPercent of New-Orders ask the engine to roll back
	RollbackPercent int
	// RemotePercent of New-Order lines are supplied by another warehouse
	RemotePercent int
	DeferDelivery bool
}

// CustomerRef selects a customer either by id or, when LastName is set, by surname
type CustomerRef struct {
	WarehouseID int32
	DistrictID  int32
	CustomerID  int32
	LastName    string
}

// ByName reports whether the customer must be resolved through a surname lookup
func (r CustomerRef) ByName() bool {
	return r.LastName != ""
}

// PaymentInput is a Payment request whose customer may still need resolving
type PaymentInput struct {
	Request  models.PaymentRequest
	Customer CustomerRef
}

// Inputs synthesizes transaction inputs. Each terminal owns one.
type Inputs struct {
	rng *tpcrand.Generator
	cfg InputConfig
}

// NewInputs creates an input generator. rng must not be shared.
func NewInputs(rng *tpcrand.Generator, cfg InputConfig) *Inputs {
	return &Inputs{rng: rng, cfg: cfg}
}

func (in *Inputs) district() int32 {
	return int32(in.rng.UniformInt(1, models.DistrictsPerWarehouse))
}

// remoteWarehouse picks a warehouse other than home, or home when there is only one
func (in *Inputs) remoteWarehouse(home int32) int32 {
	if in.cfg.Warehouses < 2 {
		return home
	}
	w := int32(in.rng.UniformInt(1, in.cfg.Warehouses-1))
	if w >= home {
		w++
	}
	return w
}

func (in *Inputs) customerID() int32 {
	return int32(in.rng.NonUniformInt(tpcrand.MaskCustomerID, 1, in.cfg.CustomersPerDistrict))
}

// customer picks a customer of a district, 60% by surname and 40% by id
func (in *Inputs) customer(warehouseID, districtID int32) CustomerRef {
	ref := CustomerRef{WarehouseID: warehouseID, DistrictID: districtID}
	if in.rng.Percent(60) {
		ref.LastName = in.rng.RandomLastName()
	} else {
		ref.CustomerID = in.customerID()
	}
	return ref
}

// NewOrder draws a New-Order for a terminal's home warehouse
func (in *Inputs) NewOrder(warehouseID int32) *models.NewOrderRequest {
	n := in.rng.UniformInt(5, 15)
	items := make([]models.NewOrderItem, n)
	for i := range items {
		supply := warehouseID
		if in.cfg.Warehouses > 1 && in.rng.Percent(in.cfg.RemotePercent) {
			supply = in.remoteWarehouse(warehouseID)
		}
		items[i] = models.NewOrderItem{
			ItemID:            int32(in.rng.NonUniformInt(tpcrand.MaskItemID, 1, in.cfg.Items)),
			SupplyWarehouseID: supply,
			Quantity:          int32(in.rng.UniformInt(1, 10)),
		}
	}
	return &models.NewOrderRequest{
		WarehouseID:    warehouseID,
		DistrictID:     in.district(),
		CustomerID:     in.customerID(),
		Items:          items,
		InjectRollback: in.rng.Percent(in.cfg.RollbackPercent),
	}
}

// Payment draws a Payment. 85% of customers belong to the paying district,
// the rest to a random district of another warehouse when one exists.
func (in *Inputs) Payment(warehouseID int32) PaymentInput {
	districtID := in.district()
	cw, cd := warehouseID, districtID
	if !in.rng.Percent(85) {
		cw = in.remoteWarehouse(warehouseID)
		cd = in.district()
	}

	amount := decimal.NewFromFloat(in.rng.UniformFloat(1.00, 5000.00)).Round(2).InexactFloat64()
	return PaymentInput{
		Request: models.PaymentRequest{
			WarehouseID:         warehouseID,
			DistrictID:          districtID,
			CustomerWarehouseID: cw,
			CustomerDistrictID:  cd,
			Amount:              amount,
		},
		Customer: in.customer(cw, cd),
	}
}

// OrderStatus draws the customer whose last order is queried
func (in *Inputs) OrderStatus(warehouseID int32) CustomerRef {
	return in.customer(warehouseID, in.district())
}

// Delivery draws a Delivery with a random carrier
func (in *Inputs) Delivery(warehouseID int32) *models.DeliveryRequest {
	return &models.DeliveryRequest{
		WarehouseID: warehouseID,
		CarrierID:   int32(in.rng.UniformInt(1, 10)),
		Deferred:    in.cfg.DeferDelivery,
	}
}

// StockLevelThreshold draws the low-stock threshold
func (in *Inputs) StockLevelThreshold() int32 {
	return int32(in.rng.UniformInt(10, 20))
}
