package mock

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"storefront-backend/internal/domains/payment/model"
	"storefront-backend/internal/domains/payment/provider"
)

// =====================================================
// MOCK PAYMENT PROVIDER FOR TESTING
// =====================================================

// Provider is an in-memory gateway double. It keeps gateway-side order
// state so idempotent create and reconcile flows can be exercised
// without network access.
type Provider struct {
	mu          sync.Mutex
	name        string
	failCreates int
	failChecks  int
	createCalls int
	checkCalls  int
	orders      map[string]*provider.ProviderOrder
}

func NewProvider(name string) *Provider {
	return &Provider{
		name:   name,
		orders: make(map[string]*provider.ProviderOrder),
	}
}

func (m *Provider) Name() string {
	return m.name
}

func (m *Provider) CreatePayment(
	ctx context.Context,
	params provider.CreatePaymentParams,
) (*provider.CreatePaymentResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.createCalls++
	if m.failCreates > 0 {
		m.failCreates--
		return nil, fmt.Errorf("mock gateway unavailable")
	}

	if existing, ok := m.orders[params.MerchantTransactionID]; ok {
		return &provider.CreatePaymentResult{
			ProviderReferenceID: existing.ProviderReferenceID,
			SessionToken:        existing.SessionToken,
			RedirectURL:         existing.RedirectURL,
			Status:              existing.Status,
			Reused:              true,
		}, nil
	}

	order := &provider.ProviderOrder{
		MerchantTransactionID: params.MerchantTransactionID,
		ProviderReferenceID:   fmt.Sprintf("MOCK_%s", params.MerchantTransactionID),
		ProviderStatus:        "CREATED",
		Status:                model.TxnStatusPending,
		AmountMinor:           params.AmountMinor,
		SessionToken:          fmt.Sprintf("session_%s", params.MerchantTransactionID),
		RedirectURL: fmt.Sprintf(
			"https://mock-gateway.test/pay?merchantTransactionId=%s&amount=%d",
			params.MerchantTransactionID,
			params.AmountMinor,
		),
	}
	m.orders[params.MerchantTransactionID] = order

	return &provider.CreatePaymentResult{
		ProviderReferenceID: order.ProviderReferenceID,
		SessionToken:        order.SessionToken,
		RedirectURL:         order.RedirectURL,
		Status:              order.Status,
	}, nil
}

func (m *Provider) CheckOrderExists(
	ctx context.Context,
	merchantTransactionID string,
) (*provider.ProviderOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.checkCalls++
	if m.failChecks > 0 {
		m.failChecks--
		return nil, fmt.Errorf("mock gateway unavailable")
	}

	order, ok := m.orders[merchantTransactionID]
	if !ok {
		return nil, nil
	}

	copied := *order
	return &copied, nil
}

// MapStatus treats already-internal statuses as themselves so tests
// can settle orders with the states the service understands.
func (m *Provider) MapStatus(providerStatus string) string {
	for _, valid := range model.ValidTxnStatuses {
		if providerStatus == valid {
			return providerStatus
		}
	}
	return model.TxnStatusPending
}

func (m *Provider) VerifyReturn(params url.Values) bool {
	return params.Get("merchantTransactionId") != ""
}

// =====================================================
// TEST CONTROLS
// =====================================================

// SetFailCreates makes the next n create calls fail
func (m *Provider) SetFailCreates(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failCreates = n
}

// SetFailChecks makes the next n status fetches fail
func (m *Provider) SetFailChecks(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failChecks = n
}

// CreateCalls reports how many create calls were attempted, failed
// ones included
func (m *Provider) CreateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createCalls
}

// CheckCalls reports how many status fetches were attempted
func (m *Provider) CheckCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checkCalls
}

// SettleOrder flips the gateway-side state so a later reconcile
// observes it
func (m *Provider) SettleOrder(merchantTransactionID, status, utr, vpa string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.orders[merchantTransactionID]
	if !ok {
		return
	}
	order.ProviderStatus = status
	order.Status = status
	order.UTR = utr
	order.PayerVPA = vpa
}
