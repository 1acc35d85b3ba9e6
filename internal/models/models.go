package models

import (
	"database/sql"
	"time"
)

// DistrictsPerWarehouse is fixed by the S_DIST_01..S_DIST_10 stock columns
const DistrictsPerWarehouse = 10

// Item represents a row of the global catalog
type Item struct {
	ID      int32   `db:"i_id" json:"id"`
	ImageID int32   `db:"i_im_id" json:"image_id"`
	Name    string  `db:"i_name" json:"name"`
	Price   float64 `db:"i_price" json:"price"`
	Data    string  `db:"i_data" json:"data"`
}

// Warehouse represents a warehouse and its year-to-date revenue
type Warehouse struct {
	ID      int32   `db:"w_id"`
	Name    string  `db:"w_name"`
	Street1 string  `db:"w_street_1"`
	Street2 string  `db:"w_street_2"`
	City    string  `db:"w_city"`
	State   string  `db:"w_state"`
	Zip     string  `db:"w_zip"`
	Tax     float64 `db:"w_tax"`
	YTD     float64 `db:"w_ytd"`
}

// District belongs to a warehouse and issues order ids
type District struct {
	ID          int32   `db:"d_id"`
	WarehouseID int32   `db:"d_w_id"`
	Name        string  `db:"d_name"`
	Street1     string  `db:"d_street_1"`
	Street2     string  `db:"d_street_2"`
	City        string  `db:"d_city"`
	State       string  `db:"d_state"`
	Zip         string  `db:"d_zip"`
	Tax         float64 `db:"d_tax"`
	YTD         float64 `db:"d_ytd"`
	NextOrderID int32   `db:"d_next_o_id"`
}

// Stock is the per-warehouse inventory of an item
type Stock struct {
	ItemID      int32  `db:"s_i_id"`
	WarehouseID int32  `db:"s_w_id"`
	Quantity    int32  `db:"s_quantity"`
	Dist01      string `db:"s_dist_01"`
	Dist02      string `db:"s_dist_02"`
	Dist03      string `db:"s_dist_03"`
	Dist04      string `db:"s_dist_04"`
	Dist05      string `db:"s_dist_05"`
	Dist06      string `db:"s_dist_06"`
	Dist07      string `db:"s_dist_07"`
	Dist08      string `db:"s_dist_08"`
	Dist09      string `db:"s_dist_09"`
	Dist10      string `db:"s_dist_10"`
	YTD         int32  `db:"s_ytd"`
	OrderCount  int32  `db:"s_order_cnt"`
	RemoteCount int32  `db:"s_remote_cnt"`
	Data        string `db:"s_data"`
}

// DistInfo returns the S_DIST_xx string for a district id in 1..10
func (s *Stock) DistInfo(districtID int32) string {
	switch districtID {
	case 1:
		return s.Dist01
	case 2:
		return s.Dist02
	case 3:
		return s.Dist03
	case 4:
		return s.Dist04
	case 5:
		return s.Dist05
	case 6:
		return s.Dist06
	case 7:
		return s.Dist07
	case 8:
		return s.Dist08
	case 9:
		return s.Dist09
	case 10:
		return s.Dist10
	}
	return ""
}

// Customer credit flags
const (
	CreditGood = "GC"
	CreditBad  = "BC"
)

// Customer belongs to a district
type Customer struct {
	ID           int32     `db:"c_id"`
	DistrictID   int32     `db:"c_d_id"`
	WarehouseID  int32     `db:"c_w_id"`
	First        string    `db:"c_first"`
	Middle       string    `db:"c_middle"`
	Last         string    `db:"c_last"`
	Street1      string    `db:"c_street_1"`
	Street2      string    `db:"c_street_2"`
	City         string    `db:"c_city"`
	State        string    `db:"c_state"`
	Zip          string    `db:"c_zip"`
	Phone        string    `db:"c_phone"`
	Since        time.Time `db:"c_since"`
	Credit       string    `db:"c_credit"`
	CreditLimit  float64   `db:"c_credit_lim"`
	Discount     float64   `db:"c_discount"`
	Balance      float64   `db:"c_balance"`
	YTDPayment   float64   `db:"c_ytd_payment"`
	PaymentCount int32     `db:"c_payment_cnt"`
	DeliveryCnt  int32     `db:"c_delivery_cnt"`
	Data         string    `db:"c_data"`
}

// History is an append-only payment ledger row
type History struct {
	CustomerID         int32     `db:"h_c_id"`
	CustomerDistrictID int32     `db:"h_c_d_id"`
	CustomerWarehouse  int32     `db:"h_c_w_id"`
	DistrictID         int32     `db:"h_d_id"`
	WarehouseID        int32     `db:"h_w_id"`
	Date               time.Time `db:"h_date"`
	Amount             float64   `db:"h_amount"`
	Data               string    `db:"h_data"`
}

// Order header. CarrierID is NULL until the order is delivered.
type Order struct {
	ID          int32         `db:"o_id"`
	DistrictID  int32         `db:"o_d_id"`
	WarehouseID int32         `db:"o_w_id"`
	CustomerID  int32         `db:"o_c_id"`
	EntryAt     time.Time     `db:"o_entry_d"`
	CarrierID   sql.NullInt32 `db:"o_carrier_id"`
	LineCount   int32         `db:"o_ol_cnt"`
	AllLocal    int32         `db:"o_all_local"`
}

// OrderLine is one item of an order
type OrderLine struct {
	OrderID           int32        `db:"ol_o_id"`
	DistrictID        int32        `db:"ol_d_id"`
	WarehouseID       int32        `db:"ol_w_id"`
	Number            int32        `db:"ol_number"`
	ItemID            int32        `db:"ol_i_id"`
	SupplyWarehouseID int32        `db:"ol_supply_w_id"`
	DeliveryAt        sql.NullTime `db:"ol_delivery_d"`
	Quantity          int32        `db:"ol_quantity"`
	Amount            float64      `db:"ol_amount"`
	DistInfo          string       `db:"ol_dist_info"`
}

// NewOrder marks an undelivered order
type NewOrder struct {
	OrderID     int32 `db:"no_o_id"`
	DistrictID  int32 `db:"no_d_id"`
	WarehouseID int32 `db:"no_w_id"`
}

// StockedItem pairs a catalog item with the supplying warehouse's stock row
type StockedItem struct {
	Item  Item
	Stock Stock
}

// TableCounts is a row count snapshot
type TableCounts struct {
	Items      int64 `json:"item_count"`
	Warehouses int64 `json:"warehouse_count"`
	Districts  int64 `json:"district_count"`
	Customers  int64 `json:"customer_count"`
	Orders     int64 `json:"order_count"`
	NewOrders  int64 `json:"new_order_count"`
	OrderLines int64 `json:"order_line_count"`
	Stocks     int64 `json:"stock_count"`
	Histories  int64 `json:"history_count"`
}
