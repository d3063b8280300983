package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPFetcher loads snapshots from the payments API.
type HTTPFetcher struct {
	baseURL string
	client  *http.Client

	// Authorize attaches credentials (session cookie, bearer token) to
	// each request. Nil sends the request as-is.
	Authorize func(req *http.Request)
}

// NewHTTPFetcher points the fetcher at an API base URL, e.g.
// "https://shop.example.com/api/v1".
func NewHTTPFetcher(baseURL string) *HTTPFetcher {
	return &HTTPFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// orderInfoEnvelope mirrors the API response wrapper, trimmed to the
// fields the scheduler acts on
type orderInfoEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		Order struct {
			PaymentStatus string `json:"paymentStatus"`
		} `json:"order"`
		LatestTransaction *struct {
			Status string `json:"status"`
		} `json:"latestTransaction"`
		Reconciliation *Hint `json:"reconciliation"`
	} `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// FetchOrderInfo implements Fetcher
func (f *HTTPFetcher) FetchOrderInfo(ctx context.Context, orderID string) (*Snapshot, error) {
	url := f.baseURL + "/payments/order-info/" + orderID
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build order info request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if f.Authorize != nil {
		f.Authorize(req)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("order info request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrUnauthorized
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read order info response: %w", err)
	}

	var envelope orderInfoEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse order info response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || !envelope.Success {
		if envelope.Error != nil {
			return nil, fmt.Errorf("order info fetch rejected: [%s] %s", envelope.Error.Code, envelope.Error.Message)
		}
		return nil, fmt.Errorf("order info fetch rejected with status %d", resp.StatusCode)
	}

	snap := &Snapshot{
		PaymentStatus:  envelope.Data.Order.PaymentStatus,
		Reconciliation: envelope.Data.Reconciliation,
	}
	if envelope.Data.LatestTransaction != nil {
		snap.TransactionStatus = envelope.Data.LatestTransaction.Status
	}
	return snap, nil
}
