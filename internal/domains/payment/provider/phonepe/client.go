package phonepe

import (
	"bytes"
	"context"
	"encoding/base64"
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
// PHONEPE CLIENT IMPLEMENTATION
// =====================================================
//
// UPI-session flow: the pay call carries a base64 JSON payload signed
// with the salt-key checksum and answers with a hosted page redirect.
// Status lives under /pg/v1/status keyed by our merchant reference.

const notFoundCode = "TRANSACTION_NOT_FOUND"

type Client struct {
	config     *Config
	httpClient *http.Client
}

func NewClient(config *Config) (provider.PaymentProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid PhonePe config: %w", err)
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

func (c *Client) Name() string {
	return model.ProviderPhonePe
}

// =====================================================
// REQUEST/RESPONSE SHAPES
// =====================================================

type payPayload struct {
	MerchantID            string            `json:"merchantId"`
	MerchantTransactionID string            `json:"merchantTransactionId"`
	MerchantUserID        string            `json:"merchantUserId"`
	Amount                int64             `json:"amount"`
	RedirectURL           string            `json:"redirectUrl"`
	RedirectMode          string            `json:"redirectMode"`
	MobileNumber          string            `json:"mobileNumber,omitempty"`
	PaymentInstrument     paymentInstrument `json:"paymentInstrument"`
}

type paymentInstrument struct {
	Type string `json:"type"`
}

type apiResponse struct {
	Success bool            `json:"success"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type payResponseData struct {
	MerchantTransactionID string `json:"merchantTransactionId"`
	InstrumentResponse    struct {
		Type         string `json:"type"`
		RedirectInfo struct {
			URL    string `json:"url"`
			Method string `json:"method"`
		} `json:"redirectInfo"`
	} `json:"instrumentResponse"`
}

type statusResponseData struct {
	MerchantTransactionID string `json:"merchantTransactionId"`
	TransactionID         string `json:"transactionId"`
	Amount                int64  `json:"amount"`
	State                 string `json:"state"`
	ResponseCode          string `json:"responseCode"`
	PaymentInstrument     struct {
		Type string `json:"type"`
		UTR  string `json:"utr"`
		VPA  string `json:"vpa"`
	} `json:"paymentInstrument"`
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

	// Step 1: Reuse the gateway transaction if an earlier attempt
	// already registered it; PhonePe rejects a second pay call with the
	// same merchant reference.
	existing, err := c.CheckOrderExists(ctx, params.MerchantTransactionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &provider.CreatePaymentResult{
			ProviderReferenceID: existing.ProviderReferenceID,
			Status:              existing.Status,
			Reused:              true,
			RawResponse:         existing.RawResponse,
		}, nil
	}

	// Step 2: Build and encode payload
	payload := payPayload{
		MerchantID:            c.config.MerchantID,
		MerchantTransactionID: params.MerchantTransactionID,
		MerchantUserID:        params.CustomerID,
		Amount:                params.AmountMinor,
		RedirectURL:           c.buildReturnURL(params.MerchantTransactionID),
		RedirectMode:          "REDIRECT",
		MobileNumber:          params.CustomerPhone,
		PaymentInstrument:     paymentInstrument{Type: "PAY_PAGE"},
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	base64Payload := base64.StdEncoding.EncodeToString(payloadJSON)

	bodyJSON, err := json.Marshal(map[string]string{"request": base64Payload})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	// Step 3: Call PhonePe pay API with checksum header
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.APIUrl+PayPath, bytes.NewReader(bodyJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-VERIFY", GenerateXVerify(base64Payload, PayPath, c.config.SaltKey, c.config.SaltIndex))

	apiResp, raw, err := c.execute(httpReq)
	if err != nil {
		return nil, err
	}

	if !apiResp.Success {
		return nil, fmt.Errorf("PhonePe pay failed: [%s] %s", apiResp.Code, apiResp.Message)
	}

	// Step 4: Extract the hosted page redirect
	var data payResponseData
	if err := json.Unmarshal(apiResp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse PhonePe response: %w", err)
	}

	return &provider.CreatePaymentResult{
		RedirectURL: data.InstrumentResponse.RedirectInfo.URL,
		Status:      c.MapStatus(apiResp.Code),
		RawResponse: raw,
	}, nil
}

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

// CheckOrderExists fetches the gateway's view of the transaction.
// Returns (nil, nil) when PhonePe has never seen the reference.
func (c *Client) CheckOrderExists(
	ctx context.Context,
	merchantTransactionID string,
) (*provider.ProviderOrder, error) {
	path := c.config.StatusPath(merchantTransactionID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.APIUrl+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-VERIFY", GenerateXVerify("", path, c.config.SaltKey, c.config.SaltIndex))
	httpReq.Header.Set("X-MERCHANT-ID", c.config.MerchantID)

	apiResp, raw, err := c.execute(httpReq)
	if err != nil {
		return nil, err
	}

	if apiResp.Code == notFoundCode {
		return nil, nil
	}

	order := &provider.ProviderOrder{
		MerchantTransactionID: merchantTransactionID,
		ProviderStatus:        apiResp.Code,
		Status:                c.MapStatus(apiResp.Code),
		RawResponse:           raw,
	}

	if len(apiResp.Data) > 0 {
		var data statusResponseData
		if err := json.Unmarshal(apiResp.Data, &data); err == nil {
			order.ProviderReferenceID = data.TransactionID
			order.AmountMinor = data.Amount
			order.UTR = data.PaymentInstrument.UTR
			order.PayerVPA = data.PaymentInstrument.VPA
			order.PaymentInstrument = data.PaymentInstrument.Type
		}
	}

	return order, nil
}

// =====================================================
// STATUS MAPPING & RETURN VERIFICATION
// =====================================================

func (c *Client) MapStatus(providerStatus string) string {
	return model.MapPhonePeCode(providerStatus)
}

// VerifyReturn admits a return probe when the redirect carries a
// plausible merchant reference; settlement always comes from a status
// fetch signed with our salt key.
func (c *Client) VerifyReturn(params url.Values) bool {
	ref := params.Get("merchantTransactionId")
	if !strings.HasPrefix(ref, "PP-") {
		return false
	}
	return len(ref) >= 6 && len(ref) <= 38
}

// =====================================================
// HTTP PLUMBING
// =====================================================

func (c *Client) execute(httpReq *http.Request) (*apiResponse, map[string]interface{}, error) {
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to call PhonePe API: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response: %w", err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(respBytes, &apiResp); err != nil {
		return nil, nil, fmt.Errorf("failed to parse PhonePe response (HTTP %d): %w", resp.StatusCode, err)
	}

	var raw map[string]interface{}
	json.Unmarshal(respBytes, &raw)

	return &apiResp, raw, nil
}
