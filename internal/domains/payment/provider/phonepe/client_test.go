package phonepe

import (
	"context"
	"encoding/base64"
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

const (
	testMerchantID = "MERCHANTTEST"
	testSaltKey    = "salt-key-value"
	testSaltIndex  = "1"
)

func newTestClient(t *testing.T, handler http.Handler) provider.PaymentProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(NewConfig(testMerchantID, testSaltKey, testSaltIndex, server.URL, "https://shop.test/payment/return"))
	require.NoError(t, err)

	return client
}

func paymentParams() provider.CreatePaymentParams {
	return provider.CreatePaymentParams{
		MerchantTransactionID: "PP-0123456789abcdef0123456789abcdef",
		Amount:                decimal.RequireFromString("499.00"),
		AmountMinor:           49900,
		Currency:              "INR",
		CustomerID:            "user-1",
		CustomerPhone:         "9999999999",
	}
}

func notFoundStatusHandler(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"code":    "TRANSACTION_NOT_FOUND",
		"message": "transaction not found",
	})
}

func TestCreatePayment_SendsSignedPayload(t *testing.T) {
	var gotXVerify, gotBase64 string
	var payload payPayload

	mux := http.NewServeMux()
	mux.HandleFunc("GET /pg/v1/status/", notFoundStatusHandler)
	mux.HandleFunc("POST /pg/v1/pay", func(w http.ResponseWriter, r *http.Request) {
		gotXVerify = r.Header.Get("X-VERIFY")

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotBase64 = body["request"]

		decoded, err := base64.StdEncoding.DecodeString(gotBase64)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(decoded, &payload))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"code":    "PAYMENT_INITIATED",
			"message": "Payment initiated",
			"data": map[string]interface{}{
				"merchantTransactionId": payload.MerchantTransactionID,
				"instrumentResponse": map[string]interface{}{
					"type": "PAY_PAGE",
					"redirectInfo": map[string]interface{}{
						"url":    "https://mercury.phonepe.com/transact/pg?token=abc",
						"method": "GET",
					},
				},
			},
		})
	})

	client := newTestClient(t, mux)

	result, err := client.CreatePayment(context.Background(), paymentParams())
	require.NoError(t, err)

	assert.Equal(t, "https://mercury.phonepe.com/transact/pg?token=abc", result.RedirectURL)
	assert.Equal(t, model.TxnStatusPending, result.Status)
	assert.False(t, result.Reused)

	// The checksum must cover the exact base64 body that was sent
	assert.Equal(t, GenerateXVerify(gotBase64, PayPath, testSaltKey, testSaltIndex), gotXVerify)

	assert.Equal(t, testMerchantID, payload.MerchantID)
	assert.Equal(t, "PP-0123456789abcdef0123456789abcdef", payload.MerchantTransactionID)
	assert.Equal(t, int64(49900), payload.Amount, "PhonePe bills in paise")
	assert.Equal(t, "REDIRECT", payload.RedirectMode)
	assert.Equal(t, "PAY_PAGE", payload.PaymentInstrument.Type)
	assert.Contains(t, payload.RedirectURL, "merchantTransactionId=PP-")
}

func TestCreatePayment_ReusesExistingTransaction(t *testing.T) {
	pays := 0

	mux := http.NewServeMux()
	mux.HandleFunc("GET /pg/v1/status/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"code":    "PAYMENT_PENDING",
			"message": "Payment pending",
			"data": map[string]interface{}{
				"merchantTransactionId": "PP-0123456789abcdef0123456789abcdef",
				"transactionId":         "T2401011200000001",
				"amount":                49900,
				"state":                 "PENDING",
			},
		})
	})
	mux.HandleFunc("POST /pg/v1/pay", func(w http.ResponseWriter, r *http.Request) {
		pays++
		w.WriteHeader(http.StatusBadRequest)
	})

	client := newTestClient(t, mux)

	result, err := client.CreatePayment(context.Background(), paymentParams())
	require.NoError(t, err)

	assert.True(t, result.Reused)
	assert.Equal(t, "T2401011200000001", result.ProviderReferenceID)
	assert.Equal(t, model.TxnStatusPending, result.Status)
	assert.Equal(t, 0, pays, "a registered transaction must never be paid for twice")
}

func TestCheckOrderExists_Settled(t *testing.T) {
	var gotXVerify, gotPath string

	mux := http.NewServeMux()
	mux.HandleFunc("GET /pg/v1/status/", func(w http.ResponseWriter, r *http.Request) {
		gotXVerify = r.Header.Get("X-VERIFY")
		gotPath = r.URL.Path

		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"code":    "PAYMENT_SUCCESS",
			"message": "Your payment is successful.",
			"data": map[string]interface{}{
				"merchantTransactionId": "PP-0123456789abcdef0123456789abcdef",
				"transactionId":         "T2401011200000001",
				"amount":                49900,
				"state":                 "COMPLETED",
				"responseCode":          "SUCCESS",
				"paymentInstrument": map[string]interface{}{
					"type": "UPI",
					"utr":  "405554491450",
					"vpa":  "customer@upi",
				},
			},
		})
	})

	client := newTestClient(t, mux)

	order, err := client.CheckOrderExists(context.Background(), "PP-0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	require.NotNil(t, order)

	assert.Equal(t, model.TxnStatusCompleted, order.Status)
	assert.Equal(t, "PAYMENT_SUCCESS", order.ProviderStatus)
	assert.Equal(t, "T2401011200000001", order.ProviderReferenceID)
	assert.Equal(t, int64(49900), order.AmountMinor)
	assert.Equal(t, "405554491450", order.UTR)
	assert.Equal(t, "customer@upi", order.PayerVPA)

	// Status fetches are signed over path + salt, with no body
	assert.Equal(t, "/pg/v1/status/MERCHANTTEST/PP-0123456789abcdef0123456789abcdef", gotPath)
	assert.Equal(t, GenerateXVerify("", gotPath, testSaltKey, testSaltIndex), gotXVerify)
}

func TestCheckOrderExists_NotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /pg/v1/status/", notFoundStatusHandler)

	client := newTestClient(t, mux)

	order, err := client.CheckOrderExists(context.Background(), "PP-unknown12345")
	require.NoError(t, err)
	assert.Nil(t, order)
}

func TestVerifyReturn(t *testing.T) {
	client, err := NewClient(NewConfig(testMerchantID, testSaltKey, testSaltIndex, "https://api.phonepe.com", "https://shop.test/return"))
	require.NoError(t, err)

	assert.True(t, client.VerifyReturn(url.Values{"merchantTransactionId": {"PP-0123456789abcdef0123456789abcdef"}}))
	assert.False(t, client.VerifyReturn(url.Values{}))
	assert.False(t, client.VerifyReturn(url.Values{"merchantTransactionId": {"CF-otherprovider"}}))
}
