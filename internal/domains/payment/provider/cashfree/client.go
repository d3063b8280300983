package cashfree

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storefront-backend/internal/domains/payment/model"
	"storefront-backend/internal/domains/payment/provider"
)

// =====================================================
// CASHFREE CLIENT IMPLEMENTATION
// =====================================================
//
// UPI-redirect flow: a JSON order create against /pg/orders returns a
// payment_session_id the storefront hands to the hosted checkout. The
// order is keyed by our merchant reference, which is what makes the
// create idempotent on the gateway side.

type Client struct {
	config     *Config
	httpClient *http.Client
}

func NewClient(config *Config) (provider.PaymentProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid Cashfree config: %w", err)
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

func (c *Client) Name() string {
	return model.ProviderCashfree
}

// =====================================================
// REQUEST/RESPONSE SHAPES
// =====================================================

type createOrderRequest struct {
	OrderID         string          `json:"order_id"`
	OrderAmount     float64         `json:"order_amount"`
	OrderCurrency   string          `json:"order_currency"`
	CustomerDetails customerDetails `json:"customer_details"`
	OrderMeta       orderMeta       `json:"order_meta"`
}

type customerDetails struct {
	CustomerID    string `json:"customer_id"`
	CustomerPhone string `json:"customer_phone"`
	CustomerEmail string `json:"customer_email,omitempty"`
}

type orderMeta struct {
	ReturnURL string `json:"return_url"`
}

type orderEntity struct {
	CfOrderID        json.Number `json:"cf_order_id"`
	OrderID          string      `json:"order_id"`
	OrderStatus      string      `json:"order_status"`
	OrderAmount      float64     `json:"order_amount"`
	PaymentSessionID string      `json:"payment_session_id"`
	PaymentLink      string      `json:"payment_link"`
}

type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Type    string `json:"type"`
}

// =====================================================
// CREATE PAYMENT
// =====================================================

func (c *Client) CreatePayment(
	ctx context.Context,
	params provider.CreatePaymentParams,
) (*provider.CreatePaymentResult, error) {
	if params.MerchantTransactionID == "" {
		return nil, fmt.Errorf("merchant_transaction_id is required")
	}
	if params.AmountMinor <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	// Step 1: Reuse the gateway order if an earlier attempt already
	// registered it. Registering the same order_id twice is an error on
	// the Cashfree side and would double-bill on others.
	existing, err := c.CheckOrderExists(ctx, params.MerchantTransactionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &provider.CreatePaymentResult{
			ProviderReferenceID: existing.ProviderReferenceID,
			SessionToken:        existing.SessionToken,
			RedirectURL:         existing.RedirectURL,
			Status:              existing.Status,
			Reused:              true,
			RawResponse:         existing.RawResponse,
		}, nil
	}

	// Step 2: Build order create request
	reqBody := createOrderRequest{
		OrderID:       params.MerchantTransactionID,
		OrderAmount:   params.Amount.InexactFloat64(),
		OrderCurrency: params.Currency,
		CustomerDetails: customerDetails{
			CustomerID:    params.CustomerID,
			CustomerPhone: params.CustomerPhone,
			CustomerEmail: params.CustomerEmail,
		},
		OrderMeta: orderMeta{
			ReturnURL: c.buildReturnURL(params.MerchantTransactionID),
		},
	}

	// Step 3: Call Cashfree API
	respBytes, statusCode, err := c.doRequest(ctx, http.MethodPost, c.config.GetOrdersURL(), reqBody)
	if err != nil {
		return nil, err
	}

	if statusCode < 200 || statusCode >= 300 {
		return nil, parseAPIError("create order", statusCode, respBytes)
	}

	// Step 4: Parse response
	var order orderEntity
	if err := json.Unmarshal(respBytes, &order); err != nil {
		return nil, fmt.Errorf("failed to parse Cashfree response: %w", err)
	}

	var raw map[string]interface{}
	json.Unmarshal(respBytes, &raw)

	return &provider.CreatePaymentResult{
		ProviderReferenceID: order.CfOrderID.String(),
		SessionToken:        order.PaymentSessionID,
		RedirectURL:         order.PaymentLink,
		Status:              c.MapStatus(order.OrderStatus),
		RawResponse:         raw,
	}, nil
}

// buildReturnURL appends our merchant reference so the return probe
// can locate the transaction
func (c *Client) buildReturnURL(merchantTxnID string) string {
	sep := "?"
	if strings.Contains(c.config.ReturnURL, "?") {
		sep = "&"
	}
	return c.config.ReturnURL + sep + "merchantTransactionId=" + url.QueryEscape(merchantTxnID)
}

// =====================================================
// CHECK ORDER EXISTS
// =====================================================

// CheckOrderExists fetches the gateway order keyed by our merchant
// reference. Returns (nil, nil) when Cashfree has never seen it.
func (c *Client) CheckOrderExists(
	ctx context.Context,
	merchantTransactionID string,
) (*provider.ProviderOrder, error) {
	respBytes, statusCode, err := c.doRequest(ctx, http.MethodGet, c.config.GetOrderURL(merchantTransactionID), nil)
	if err != nil {
		return nil, err
	}

	if statusCode == http.StatusNotFound {
		return nil, nil
	}
	if statusCode < 200 || statusCode >= 300 {
		return nil, parseAPIError("fetch order", statusCode, respBytes)
	}

	var order orderEntity
	if err := json.Unmarshal(respBytes, &order); err != nil {
		return nil, fmt.Errorf("failed to parse Cashfree response: %w", err)
	}

	var raw map[string]interface{}
	json.Unmarshal(respBytes, &raw)

	return &provider.ProviderOrder{
		MerchantTransactionID: order.OrderID,
		ProviderReferenceID:   order.CfOrderID.String(),
		ProviderStatus:        order.OrderStatus,
		Status:                c.MapStatus(order.OrderStatus),
		AmountMinor:           int64(order.OrderAmount*100 + 0.5),
		SessionToken:          order.PaymentSessionID,
		RedirectURL:           order.PaymentLink,
		RawResponse:           raw,
	}, nil
}

// =====================================================
// STATUS MAPPING & RETURN VERIFICATION
// =====================================================

func (c *Client) MapStatus(providerStatus string) string {
	return model.MapCashfreeStatus(providerStatus)
}

// VerifyReturn admits a return probe when the redirect carries a
// plausible merchant reference. Cashfree redirects are unsigned, so
// the reference is only a lookup key; the settlement decision always
// comes from a fresh order fetch.
func (c *Client) VerifyReturn(params url.Values) bool {
	ref := params.Get("merchantTransactionId")
	if ref == "" {
		ref = params.Get("order_id")
	}
	if !strings.HasPrefix(ref, "CF-") {
		return false
	}
	return len(ref) >= 6 && len(ref) <= 50
}

// =====================================================
// HTTP PLUMBING
// =====================================================

func (c *Client) doRequest(ctx context.Context, method, reqURL string, body interface{}) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		bodyJSON, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(bodyJSON)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-version", c.config.APIVersion)
	httpReq.Header.Set("x-client-id", c.config.ClientID)
	httpReq.Header.Set("x-client-secret", c.config.ClientSecret)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to call Cashfree API: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response: %w", err)
	}

	return respBytes, resp.StatusCode, nil
}

func parseAPIError(op string, statusCode int, body []byte) error {
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		return fmt.Errorf("Cashfree %s failed: [%s] %s", op, apiErr.Code, apiErr.Message)
	}
	return fmt.Errorf("Cashfree %s failed: HTTP %d", op, statusCode)
}
