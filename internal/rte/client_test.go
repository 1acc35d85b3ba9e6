package rte

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"tpcc-service/config"
	"tpcc-service/internal/api"
	"tpcc-service/internal/models"
	"tpcc-service/internal/service"
	"tpcc-service/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newEngine returns an unprepared engine over a fresh sqlite file
func newEngine(t *testing.T) *service.Engine {
	t.Helper()
	st, err := store.NewStore(config.DatabaseConfig{
		URL:            "sqlite://" + filepath.Join(t.TempDir(), "rte.db"),
		MaxOpenConns:   4,
		AcquireTimeout: 10 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	return service.NewEngine(st, nil, nil, service.Options{
		Population: service.Population{Items: 100, CustomersPerDistrict: 20, OrdersPerDistrict: 20, DeliveredOrders: 14},
		LoadSeed:   11,
	})
}

func newServer(t *testing.T, engine *service.Engine) *HTTPClient {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	api.NewHandler(engine).SetupRoutes(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL + "/")
}

func TestHTTPClientStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"gone"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewHTTPClient(srv.URL).Status(context.Background())
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Equal(t, http.MethodGet, se.Method)
	assert.Equal(t, "/", se.Path)
	assert.Contains(t, se.Body, "gone")
}

func TestHTTPClientAgainstEngine(t *testing.T) {
	client := newServer(t, newEngine(t))
	ctx := context.Background()

	status, err := client.Prepare(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), status.Counts.Warehouses)
	assert.Equal(t, int64(100), status.Counts.Items)
	assert.Equal(t, int64(200), status.Counts.Customers)

	order, err := client.NewOrder(ctx, &models.NewOrderRequest{
		WarehouseID: 1, DistrictID: 1, CustomerID: 1,
		Items: []models.NewOrderItem{{ItemID: 1, SupplyWarehouseID: 1, Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, int32(21), order.OrderID)
	assert.Len(t, order.Lines, 1)

	byName, err := client.CustomersByLastName(ctx, 1, 1, "BARBARABLE")
	require.NoError(t, err)
	require.NotEmpty(t, byName.Customers)
	assert.Equal(t, "BARBARABLE", byName.Customers[0].Last)

	payment, err := client.Payment(ctx, &models.PaymentRequest{
		WarehouseID: 1, DistrictID: 1, CustomerWarehouseID: 1, CustomerDistrictID: 1,
		CustomerID: byName.Customers[0].CustomerID, Amount: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 10.0, payment.Amount)

	orders, err := client.OrderStatus(ctx, 1, 1, 1)
	require.NoError(t, err)
	require.Len(t, orders.Orders, 1)
	assert.Equal(t, int32(21), orders.Orders[0].OrderID)

	delivery, err := client.Delivery(ctx, &models.DeliveryRequest{WarehouseID: 1, CarrierID: 3})
	require.NoError(t, err)
	assert.Equal(t, 61, delivery.DeliveredOrders)

	_, err = client.StockLevel(ctx, 1, 1, 20)
	require.NoError(t, err)

	_, err = client.OrderStatus(ctx, 1, 1, 999)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Code)

	status, err = client.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), status.Statistics.NewOrder.Count)
	assert.Equal(t, uint64(1), status.Statistics.Delivery.Count)
}
