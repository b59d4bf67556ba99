package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// StatusError carries the HTTP status and server-provided body of a failed
// backend call so the saga can report the exact cause of a step failure.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Body)
}

// Client talks to the storefront backend that owns Address, Product, Order,
// OrderItem and Delivery records.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a storefront backend client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// doRequest performs an HTTP request and decodes the response
func (c *Client) doRequest(ctx context.Context, method, url string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}

// AddressPayload is the request body for creating a destination address.
type AddressPayload struct {
	AddressType  string   `json:"addressType"`
	Address      string   `json:"address"`
	City         string   `json:"city"`
	ContactName  string   `json:"contactName"`
	ContactPhone string   `json:"contactPhone"`
	ContactEmail string   `json:"contactEmail,omitempty"`
	Country      string   `json:"country"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
}

// Address is a backend-owned address record.
type Address struct {
	ID int64 `json:"id"`
}

// CreateAddress creates a destination address record.
func (c *Client) CreateAddress(ctx context.Context, payload AddressPayload) (*Address, error) {
	var address Address
	if err := c.doRequest(ctx, http.MethodPost, c.baseURL+"/addresses", payload, &address); err != nil {
		return nil, err
	}
	return &address, nil
}

// ProductPayload is the request body for creating a product.
type ProductPayload struct {
	Name            string  `json:"name"`
	Weight          float64 `json:"weight"`
	Volume          float64 `json:"volume,omitempty"`
	Fragile         bool    `json:"fragile"`
	CreatedByUserID int64   `json:"createdByUserId"`
	UnitPrice       float64 `json:"unitPrice"`
	CategoryID      int64   `json:"categoryId"`
	ProductStatus   string  `json:"productStatus"`
	StockQuantity   int     `json:"stockQuantity"`
	Temporary       bool    `json:"temporary"`
}

// Product is a backend-owned product record.
type Product struct {
	ID int64 `json:"id"`
}

// CreateProduct creates a product record.
func (c *Client) CreateProduct(ctx context.Context, payload ProductPayload) (*Product, error) {
	var product Product
	if err := c.doRequest(ctx, http.MethodPost, c.baseURL+"/products", payload, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// EntityRef references a backend entity by ID.
type EntityRef struct {
	ID int64 `json:"id"`
}

// OrderPayload is the request body for creating an order.
type OrderPayload struct {
	Store       EntityRef `json:"store"`
	Address     EntityRef `json:"address"`
	Status      EntityRef `json:"status"`
	CreatedBy   EntityRef `json:"createdBy"`
	Description string    `json:"description,omitempty"`
	Notes       string    `json:"notes,omitempty"`
}

// Order is a backend-owned order record.
type Order struct {
	ID int64 `json:"id"`
}

// CreateOrder creates an order record.
func (c *Client) CreateOrder(ctx context.Context, payload OrderPayload) (*Order, error) {
	var order Order
	if err := c.doRequest(ctx, http.MethodPost, c.baseURL+"/orders", payload, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// OrderItemPayload is the request body for creating an order item. The
// shipping fee is the item's base fee only; the service tier is applied at
// the delivery level.
type OrderItemPayload struct {
	OrderID     int64   `json:"orderId"`
	ProductID   int64   `json:"productId"`
	Quantity    int     `json:"quantity"`
	ShippingFee float64 `json:"shippingFee"`
	Notes       string  `json:"notes,omitempty"`
}

// OrderItem is a backend-owned order item record.
type OrderItem struct {
	ID int64 `json:"id"`
}

// CreateOrderItem creates an order item record.
func (c *Client) CreateOrderItem(ctx context.Context, payload OrderItemPayload) (*OrderItem, error) {
	var item OrderItem
	if err := c.doRequest(ctx, http.MethodPost, c.baseURL+"/order-items", payload, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// DeliveryPayload is the request body for creating a delivery.
type DeliveryPayload struct {
	OrderID          int64   `json:"orderId"`
	DeliveryFee      float64 `json:"deliveryFee"`
	ServiceType      string  `json:"serviceType"`
	TransportMode    string  `json:"transportMode"`
	OrderDate        string  `json:"orderDate"`
	LateDeliveryRisk bool    `json:"lateDeliveryRisk"`
}

// Delivery is a backend-owned delivery record.
type Delivery struct {
	ID int64 `json:"id"`
}

// CreateDelivery creates a delivery record.
func (c *Client) CreateDelivery(ctx context.Context, payload DeliveryPayload) (*Delivery, error) {
	var delivery Delivery
	if err := c.doRequest(ctx, http.MethodPost, c.baseURL+"/deliveries", payload, &delivery); err != nil {
		return nil, err
	}
	return &delivery, nil
}

// Store is a backend-owned store record. Coordinates are optional.
type Store struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// GetStore fetches a store record.
func (c *Client) GetStore(ctx context.Context, storeID int64) (*Store, error) {
	var store Store
	url := fmt.Sprintf("%s/stores/%d", c.baseURL, storeID)
	if err := c.doRequest(ctx, http.MethodGet, url, nil, &store); err != nil {
		return nil, err
	}
	return &store, nil
}
