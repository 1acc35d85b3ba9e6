package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"tpcc-service/config"
	"tpcc-service/internal/models"
	"tpcc-service/internal/service"
	"tpcc-service/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.NewStore(config.DatabaseConfig{
		URL:            "sqlite://" + filepath.Join(t.TempDir(), "api.db"),
		MaxOpenConns:   4,
		AcquireTimeout: 10 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	engine := service.NewEngine(st, nil, nil, service.Options{
		Population: service.Population{Items: 100, CustomersPerDistrict: 20, OrdersPerDistrict: 20, DeliveredOrders: 14},
		LoadSeed:   3,
	})
	router := gin.New()
	NewHandler(engine).SetupRoutes(router)
	return router
}

func do(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func prepared(t *testing.T) *gin.Engine {
	t.Helper()
	router := setupRouter(t)
	w := do(t, router, http.MethodPost, "/prepare_db", models.PrepareDbRequest{ScaleFactor: 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var status models.DbStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	require.Equal(t, int64(1), status.Counts.Warehouses)
	return router
}

func TestHealth(t *testing.T) {
	router := setupRouter(t)

	w := do(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")

	w = do(t, router, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStatusBeforePrepareFails(t *testing.T) {
	router := setupRouter(t)

	w := do(t, router, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "details")
}

func TestPrepareRejectsBadScale(t *testing.T) {
	router := setupRouter(t)

	w := do(t, router, http.MethodPost, "/prepare_db", map[string]int{"scale_factor": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNewOrderEndpoint(t *testing.T) {
	router := prepared(t)

	w := do(t, router, http.MethodPost, "/orders", models.NewOrderRequest{
		WarehouseID: 1, DistrictID: 1, CustomerID: 1,
		Items: []models.NewOrderItem{{ItemID: 1, Quantity: 2}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp models.NewOrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int32(21), resp.OrderID)
	assert.Len(t, resp.Lines, 1)

	w = do(t, router, http.MethodPost, "/orders", models.NewOrderRequest{
		WarehouseID: 1, DistrictID: 1, CustomerID: 1,
		Items: []models.NewOrderItem{{ItemID: 5000, Quantity: 2}},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "details")

	w = do(t, router, http.MethodPost, "/orders", map[string]int{"warehouse_id": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentEndpoint(t *testing.T) {
	router := prepared(t)

	w := do(t, router, http.MethodPost, "/payment", models.PaymentRequest{
		WarehouseID: 1, DistrictID: 2, CustomerWarehouseID: 1, CustomerDistrictID: 2, CustomerID: 5, Amount: 100,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.PaymentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, -110.0, resp.CustomerBalance)

	w = do(t, router, http.MethodPost, "/payment", models.PaymentRequest{
		WarehouseID: 1, DistrictID: 2, CustomerWarehouseID: 1, CustomerDistrictID: 2, CustomerID: 5, Amount: -3,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCustomerEndpoints(t *testing.T) {
	router := prepared(t)

	w := do(t, router, http.MethodGet, "/customers/1/3/2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var byID models.CustomerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &byID))
	assert.Equal(t, "BARBARABLE", byID.Customer.Last)

	w = do(t, router, http.MethodGet, "/customers?warehouse_id=1&district_id=3&lastname=BARBARABLE", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var byName models.CustomersResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &byName))
	require.Len(t, byName.Customers, 1)
	assert.Equal(t, int32(2), byName.Customers[0].CustomerID)

	w = do(t, router, http.MethodGet, "/customers?warehouse_id=1&district_id=3", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodGet, "/customers/1/3/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, router, http.MethodGet, "/customers/1/x/2", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodGet, "/customers/1/3/2/orders", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status models.OrderStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, int32(2), status.Customer.CustomerID)
}

func TestDeliveryAndStockLevelEndpoints(t *testing.T) {
	router := prepared(t)

	w := do(t, router, http.MethodPost, "/delivery", models.DeliveryRequest{WarehouseID: 1, CarrierID: 3})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var delivery models.DeliveryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &delivery))
	assert.Equal(t, 60, delivery.DeliveredOrders)

	w = do(t, router, http.MethodPost, "/delivery", models.DeliveryRequest{WarehouseID: 1, CarrierID: 11})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodGet, "/districts/1/4/check_stocks?stock_level=15", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var level models.StockLevelResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &level))
	assert.GreaterOrEqual(t, level.LowStocks, 0)

	w = do(t, router, http.MethodGet, "/districts/1/4/check_stocks", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status models.DbStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, uint64(1), status.Statistics.Delivery.Count)
	assert.Equal(t, uint64(1), status.Statistics.StockLevel.Count)
}

func TestStatusForCoversEveryKind(t *testing.T) {
	for _, k := range []service.ErrorKind{
		service.NotFound, service.StorageFailure, service.ResourceExhausted,
		service.WorkerFailure, service.SetupFailure,
	} {
		_, ok := statusFor[k]
		assert.True(t, ok, k.String())
	}
	assert.Equal(t, http.StatusServiceUnavailable, statusFor[service.ResourceExhausted])
}
