package rte

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"tpcc-service/internal/models"
)

// Client is the engine as seen by the workload generator
type Client interface {
	NewOrder(ctx context.Context, req *models.NewOrderRequest) (*models.NewOrderResponse, error)
	Payment(ctx context.Context, req *models.PaymentRequest) (*models.PaymentResponse, error)
	CustomersByLastName(ctx context.Context, warehouseID, districtID int32, last string) (*models.CustomersResponse, error)
	OrderStatus(ctx context.Context, warehouseID, districtID, customerID int32) (*models.OrderStatusResponse, error)
	Delivery(ctx context.Context, req *models.DeliveryRequest) (*models.DeliveryResponse, error)
	StockLevel(ctx context.Context, warehouseID, districtID, threshold int32) (*models.StockLevelResponse, error)
	Prepare(ctx context.Context, scale int32) (*models.DbStatusResponse, error)
	Status(ctx context.Context) (*models.DbStatusResponse, error)
}

// StatusError is a non-2xx engine response
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// maxErrorBody bounds how much of an error response is kept
const maxErrorBody = 512

// HTTPClient talks to the engine's HTTP service. Timeouts come from the
// caller's context.
type HTTPClient struct {
	base string
	http *http.Client
}

// NewHTTPClient creates a client for the service at endpoint
func NewHTTPClient(endpoint string) *HTTPClient {
	return &HTTPClient{
		base: strings.TrimRight(endpoint, "/"),
		http: &http.Client{
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 256,
			},
		},
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	target := c.base + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: string(msg)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

func itoa(v int32) string {
	return strconv.FormatInt(int64(v), 10)
}

func (c *HTTPClient) NewOrder(ctx context.Context, req *models.NewOrderRequest) (*models.NewOrderResponse, error) {
	var resp models.NewOrderResponse
	if err := c.do(ctx, http.MethodPost, "/orders", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Payment(ctx context.Context, req *models.PaymentRequest) (*models.PaymentResponse, error) {
	var resp models.PaymentResponse
	if err := c.do(ctx, http.MethodPost, "/payment", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) CustomersByLastName(ctx context.Context, warehouseID, districtID int32, last string) (*models.CustomersResponse, error) {
	query := url.Values{
		"warehouse_id": {itoa(warehouseID)},
		"district_id":  {itoa(districtID)},
		"lastname":     {last},
	}
	var resp models.CustomersResponse
	if err := c.do(ctx, http.MethodGet, "/customers", query, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) OrderStatus(ctx context.Context, warehouseID, districtID, customerID int32) (*models.OrderStatusResponse, error) {
	path := fmt.Sprintf("/customers/%d/%d/%d/orders", warehouseID, districtID, customerID)
	var resp models.OrderStatusResponse
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Delivery(ctx context.Context, req *models.DeliveryRequest) (*models.DeliveryResponse, error) {
	var resp models.DeliveryResponse
	if err := c.do(ctx, http.MethodPost, "/delivery", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) StockLevel(ctx context.Context, warehouseID, districtID, threshold int32) (*models.StockLevelResponse, error) {
	path := fmt.Sprintf("/districts/%d/%d/check_stocks", warehouseID, districtID)
	query := url.Values{"stock_level": {itoa(threshold)}}
	var resp models.StockLevelResponse
	if err := c.do(ctx, http.MethodGet, path, query, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Prepare(ctx context.Context, scale int32) (*models.DbStatusResponse, error) {
	var resp models.DbStatusResponse
	if err := c.do(ctx, http.MethodPost, "/prepare_db", nil, &models.PrepareDbRequest{ScaleFactor: scale}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Status(ctx context.Context) (*models.DbStatusResponse, error) {
	var resp models.DbStatusResponse
	if err := c.do(ctx, http.MethodGet, "/", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
