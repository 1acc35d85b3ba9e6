package models

import "time"

// PerformanceMetrics is the server-side phase breakdown of one transaction, in seconds
type PerformanceMetrics struct {
	Begin  float64 `json:"begin"`
	Query  float64 `json:"query"`
	Commit float64 `json:"commit"`
}

// NewOrderItem is one requested order line
type NewOrderItem struct {
	ItemID            int32 `json:"item_id" binding:"required,min=1"`
	SupplyWarehouseID int32 `json:"supply_warehouse_id,omitempty"`
	Quantity          int32 `json:"quantity" binding:"required,min=1"`
}

// NewOrderRequest represents a New-Order transaction input
type NewOrderRequest struct {
	WarehouseID    int32          `json:"warehouse_id" binding:"required,min=1"`
	DistrictID     int32          `json:"district_id" binding:"required,min=1"`
	CustomerID     int32          `json:"customer_id" binding:"required,min=1"`
	Items          []NewOrderItem `json:"items" binding:"required,min=1,dive"`
	InjectRollback bool           `json:"inject_rollback,omitempty"`
}

// NewOrderLine is a persisted order line as reported back to the caller
type NewOrderLine struct {
	Number            int32   `json:"number"`
	ItemID            int32   `json:"item_id"`
	ItemName          string  `json:"item_name"`
	SupplyWarehouseID int32   `json:"supply_warehouse_id"`
	Quantity          int32   `json:"quantity"`
	StockQuantity     int32   `json:"stock_quantity"`
	Price             float64 `json:"price"`
	Amount            float64 `json:"amount"`
}

// NewOrderResponse is returned by New-Order. A rolled back order carries only its inputs.
type NewOrderResponse struct {
	WarehouseID int32              `json:"warehouse_id"`
	DistrictID  int32              `json:"district_id"`
	OrderID     int32              `json:"order_id"`
	CustomerID  int32              `json:"customer_id"`
	EntryAt     time.Time          `json:"entry_at"`
	TotalAmount float64            `json:"total_amount"`
	RolledBack  bool               `json:"rolled_back"`
	Lines       []NewOrderLine     `json:"lines"`
	Performance PerformanceMetrics `json:"performance"`
}

// PaymentRequest represents a Payment transaction input
type PaymentRequest struct {
	WarehouseID         int32   `json:"warehouse_id" binding:"required,min=1"`
	DistrictID          int32   `json:"district_id" binding:"required,min=1"`
	CustomerWarehouseID int32   `json:"customer_warehouse_id" binding:"required,min=1"`
	CustomerDistrictID  int32   `json:"customer_district_id" binding:"required,min=1"`
	CustomerID          int32   `json:"customer_id" binding:"required,min=1"`
	Amount              float64 `json:"amount" binding:"required,gt=0"`
}

// PaymentResponse is returned by Payment
type PaymentResponse struct {
	Amount          float64            `json:"amount"`
	Timestamp       time.Time          `json:"timestamp"`
	CustomerBalance float64            `json:"customer_balance"`
	CustomerCredit  string             `json:"customer_credit"`
	Performance     PerformanceMetrics `json:"performance"`
}

// CustomerInfo holds the fields of a customer that never change after loading
type CustomerInfo struct {
	WarehouseID int32  `json:"warehouse_id"`
	DistrictID  int32  `json:"district_id"`
	CustomerID  int32  `json:"customer_id"`
	First       string `json:"first"`
	Middle      string `json:"middle"`
	Last        string `json:"last"`
	Credit      string `json:"credit"`
}

// NewCustomerInfo projects a customer row
func NewCustomerInfo(c *Customer) CustomerInfo {
	return CustomerInfo{
		WarehouseID: c.WarehouseID,
		DistrictID:  c.DistrictID,
		CustomerID:  c.ID,
		First:       c.First,
		Middle:      c.Middle,
		Last:        c.Last,
		Credit:      c.Credit,
	}
}

// CustomerResponse wraps a single customer lookup
type CustomerResponse struct {
	Customer    CustomerInfo       `json:"customer"`
	Balance     float64            `json:"balance"`
	Performance PerformanceMetrics `json:"performance"`
}

// CustomersResponse lists customers sharing a surname, ordered by first name
type CustomersResponse struct {
	Customers   []CustomerInfo     `json:"customers"`
	Performance PerformanceMetrics `json:"performance"`
}

// OrderLineInfo is one line of an order status
type OrderLineInfo struct {
	ItemID            int32      `json:"item_id"`
	SupplyWarehouseID int32      `json:"supply_warehouse_id"`
	Quantity          int32      `json:"quantity"`
	Amount            float64    `json:"amount"`
	DeliveryAt        *time.Time `json:"delivery_at,omitempty"`
}

// OrderInfo is an order with its lines
type OrderInfo struct {
	OrderID   int32           `json:"order_id"`
	EntryAt   time.Time       `json:"entry_at"`
	CarrierID *int32          `json:"carrier_id,omitempty"`
	Lines     []OrderLineInfo `json:"lines"`
}

// OrderStatusResponse holds the customer's most recent order, if any
type OrderStatusResponse struct {
	Customer    CustomerInfo       `json:"customer"`
	Balance     float64            `json:"balance"`
	Orders      []OrderInfo        `json:"orders"`
	Performance PerformanceMetrics `json:"performance"`
}

// DeliveryRequest represents a Delivery transaction input
type DeliveryRequest struct {
	WarehouseID int32 `json:"warehouse_id" binding:"required,min=1"`
	CarrierID   int32 `json:"carrier_id" binding:"required,min=1,max=10"`
	Deferred    bool  `json:"deferred,omitempty"`
}

// DeliveryResponse reports the delivered order count, or that the delivery was queued
type DeliveryResponse struct {
	DeliveredOrders int                `json:"delivered_orders"`
	Queued          bool               `json:"queued"`
	Performance     PerformanceMetrics `json:"performance"`
}

// StockLevelResponse reports the number of distinct low-stock items
type StockLevelResponse struct {
	LowStocks   int                `json:"low_stocks"`
	Performance PerformanceMetrics `json:"performance"`
}

// PrepareDbRequest asks the engine to rebuild the database
type PrepareDbRequest struct {
	ScaleFactor int32 `json:"scale_factor" binding:"required,min=1"`
}

// KindStatistics is the running total of one transaction kind
type KindStatistics struct {
	Count   uint64  `json:"count"`
	Seconds float64 `json:"seconds"`
}

// Statistics is a snapshot of the engine's running counters
type Statistics struct {
	NewOrder       KindStatistics `json:"new_order"`
	Payment        KindStatistics `json:"payment"`
	OrderStatus    KindStatistics `json:"order_status"`
	Delivery       KindStatistics `json:"delivery"`
	StockLevel     KindStatistics `json:"stock_level"`
	CustomerByID   KindStatistics `json:"customer_by_id"`
	CustomerByName KindStatistics `json:"customer_by_name"`
}

// DbStatusResponse is returned by Status and Prepare
type DbStatusResponse struct {
	Counts        TableCounts `json:"counts"`
	DatabaseBytes int64       `json:"database_bytes"`
	Statistics    Statistics  `json:"statistics"`
}
