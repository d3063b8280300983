package cashfree

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-backend/internal/domains/payment/model"
	"storefront-backend/internal/domains/payment/provider"
)

func newTestClient(t *testing.T, handler http.Handler) (provider.PaymentProvider, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(NewConfig("app-id", "app-secret", server.URL, "https://shop.test/payment/return"))
	require.NoError(t, err)

	return client, server
}

func paymentParams() provider.CreatePaymentParams {
	return provider.CreatePaymentParams{
		MerchantTransactionID: "CF-0123456789abcdef0123456789abcdef",
		Amount:                decimal.RequireFromString("499.00"),
		AmountMinor:           49900,
		Currency:              "INR",
		CustomerID:            "user-1",
		CustomerPhone:         "9999999999",
	}
}

func TestCreatePayment_RegistersNewOrder(t *testing.T) {
	var createBody createOrderRequest
	creates := 0

	mux := http.NewServeMux()
	mux.HandleFunc("GET /pg/orders/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"message": "order not found", "code": "order_not_found"})
	})
	mux.HandleFunc("POST /pg/orders", func(w http.ResponseWriter, r *http.Request) {
		creates++
		assert.Equal(t, "app-id", r.Header.Get("x-client-id"))
		assert.Equal(t, "app-secret", r.Header.Get("x-client-secret"))
		assert.Equal(t, "2023-08-01", r.Header.Get("x-api-version"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&createBody))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"cf_order_id":        2149460581,
			"order_id":           createBody.OrderID,
			"order_status":       "ACTIVE",
			"order_amount":       createBody.OrderAmount,
			"payment_session_id": "session_abc123",
		})
	})

	client, _ := newTestClient(t, mux)

	result, err := client.CreatePayment(context.Background(), paymentParams())
	require.NoError(t, err)

	assert.Equal(t, 1, creates)
	assert.False(t, result.Reused)
	assert.Equal(t, "2149460581", result.ProviderReferenceID)
	assert.Equal(t, "session_abc123", result.SessionToken)
	assert.Equal(t, model.TxnStatusPending, result.Status)

	assert.Equal(t, "CF-0123456789abcdef0123456789abcdef", createBody.OrderID)
	assert.InDelta(t, 499.00, createBody.OrderAmount, 0.001)
	assert.Equal(t, "INR", createBody.OrderCurrency)
	assert.Contains(t, createBody.OrderMeta.ReturnURL, "merchantTransactionId=CF-")
}

func TestCreatePayment_ReusesExistingOrder(t *testing.T) {
	creates := 0

	mux := http.NewServeMux()
	mux.HandleFunc("GET /pg/orders/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"cf_order_id":        2149460581,
			"order_id":           "CF-0123456789abcdef0123456789abcdef",
			"order_status":       "ACTIVE",
			"order_amount":       499.00,
			"payment_session_id": "session_first_attempt",
		})
	})
	mux.HandleFunc("POST /pg/orders", func(w http.ResponseWriter, r *http.Request) {
		creates++
		w.WriteHeader(http.StatusConflict)
	})

	client, _ := newTestClient(t, mux)

	result, err := client.CreatePayment(context.Background(), paymentParams())
	require.NoError(t, err)

	assert.True(t, result.Reused)
	assert.Equal(t, "session_first_attempt", result.SessionToken)
	assert.Equal(t, 0, creates, "an existing gateway order must never be created twice")
}

func TestCheckOrderExists_NotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /pg/orders/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	client, _ := newTestClient(t, mux)

	order, err := client.CheckOrderExists(context.Background(), "CF-unknown12345")
	require.NoError(t, err)
	assert.Nil(t, order)
}

func TestCheckOrderExists_PaidOrder(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /pg/orders/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"cf_order_id":  2149460581,
			"order_id":     "CF-0123456789abcdef0123456789abcdef",
			"order_status": "PAID",
			"order_amount": 499.00,
		})
	})

	client, _ := newTestClient(t, mux)

	order, err := client.CheckOrderExists(context.Background(), "CF-0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	require.NotNil(t, order)

	assert.Equal(t, "PAID", order.ProviderStatus)
	assert.Equal(t, model.TxnStatusCompleted, order.Status)
	assert.Equal(t, int64(49900), order.AmountMinor)
}

func TestCreatePayment_SurfacesAPIError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /pg/orders/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("POST /pg/orders", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{
			"message": "authentication failed",
			"code":    "request_failed",
			"type":    "authentication_error",
		})
	})

	client, _ := newTestClient(t, mux)

	_, err := client.CreatePayment(context.Background(), paymentParams())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authentication failed")
}

func TestVerifyReturn(t *testing.T) {
	client, err := NewClient(NewConfig("app-id", "app-secret", "https://sandbox.cashfree.com", "https://shop.test/return"))
	require.NoError(t, err)

	valid := url.Values{"merchantTransactionId": {"CF-0123456789abcdef0123456789abcdef"}}
	assert.True(t, client.VerifyReturn(valid))

	viaOrderID := url.Values{"order_id": {"CF-0123456789abcdef0123456789abcdef"}}
	assert.True(t, client.VerifyReturn(viaOrderID))

	assert.False(t, client.VerifyReturn(url.Values{}))
	assert.False(t, client.VerifyReturn(url.Values{"merchantTransactionId": {"PP-wrongprovider"}}))
	assert.False(t, client.VerifyReturn(url.Values{"merchantTransactionId": {"CF-"}}))
}
