package provider

import (
	"context"
	"net/url"
	"sort"

	"github.com/shopspring/decimal"

	"storefront-backend/internal/domains/payment/model"
)

// =====================================================
// PAYMENT PROVIDER INTERFACE
// =====================================================

// PaymentProvider is the closed surface every UPI gateway adapter
// implements. The concrete provider is chosen once at order intake and
// the same value is used for every downstream call; nothing below this
// interface re-dispatches on provider strings.
//
// Adapters perform the outbound call only. They never touch local
// storage; persisting the outcome is the caller's job.
type PaymentProvider interface {
	// Name returns the provider key, e.g. "cashfree"
	Name() string

	// CreatePayment registers the payment with the gateway and returns
	// what the client needs for the handoff. Implementations check for
	// an existing gateway-side order first and reuse it, so re-running
	// a create never produces a duplicate financial transaction.
	CreatePayment(ctx context.Context, params CreatePaymentParams) (*CreatePaymentResult, error)

	// CheckOrderExists looks the merchant reference up on the gateway.
	// Returns (nil, nil) when the gateway has never seen it.
	CheckOrderExists(ctx context.Context, merchantTransactionID string) (*ProviderOrder, error)

	// MapStatus maps a raw gateway state string onto the internal
	// transaction status set
	MapStatus(providerStatus string) string

	// VerifyReturn checks the query parameters the gateway appended on
	// the redirect back to the shop. A passing check only admits the
	// probe; the transaction settles exclusively through a gateway
	// status fetch.
	VerifyReturn(params url.Values) bool
}

// =====================================================
// COMMON REQUEST/RESPONSE TYPES
// =====================================================

// CreatePaymentParams request to register a payment with a gateway
type CreatePaymentParams struct {
	MerchantTransactionID string          // Our reference, unique per attempt
	Amount                decimal.Decimal // Major units (gateways billing in rupees)
	AmountMinor           int64           // Minor units (gateways billing in paise)
	Currency              string
	CustomerID            string // Registered user ID or guest session key
	CustomerPhone         string
	CustomerEmail         string
}

// CreatePaymentResult response from a gateway create call
type CreatePaymentResult struct {
	ProviderReferenceID string                 // Gateway-side order/transaction ID
	SessionToken        string                 // Hosted-session token, when the flow uses one
	RedirectURL         string                 // Hosted payment page, when the flow uses one
	Status              string                 // Mapped internal status after create
	Reused              bool                   // True when an existing gateway order was reused
	RawResponse         map[string]interface{} // Full response for audit
}

// ProviderOrder is the gateway's current view of a payment, used by
// reconciliation
type ProviderOrder struct {
	MerchantTransactionID string
	ProviderReferenceID   string
	ProviderStatus        string // Raw gateway state string
	Status                string // Mapped internal status
	AmountMinor           int64
	SessionToken          string
	RedirectURL           string
	PayerVPA              string
	UTR                   string
	PaymentInstrument     string
	RawResponse           map[string]interface{}
}

// =====================================================
// PROVIDER REGISTRY
// =====================================================

// Registry holds the configured adapters keyed by name.
type Registry struct {
	providers map[string]PaymentProvider
}

func NewRegistry(providers ...PaymentProvider) *Registry {
	r := &Registry{providers: make(map[string]PaymentProvider, len(providers))}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

// Get returns the adapter registered under name
func (r *Registry) Get(name string) (PaymentProvider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, model.NewInvalidProviderError(name)
	}
	return p, nil
}

// Names lists the registered provider keys, sorted
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
