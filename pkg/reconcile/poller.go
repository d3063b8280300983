// Package reconcile implements the client half of the payment
// reconciliation protocol: a polling scheduler that follows the
// server's nextPollAt hints until the payment resolves.
package reconcile

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Reconciliation status values carried by order-info responses.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusExpired   = "expired"
)

// ErrUnauthorized is returned by a Fetcher when the API answers 401 or
// 403. The poller stops immediately on it; repeated unauthenticated
// polling is indistinguishable from a bug.
var ErrUnauthorized = errors.New("order info fetch unauthorized")

// Hint is the server's polling guidance, present while a payment
// attempt is in flight.
type Hint struct {
	Status     string    `json:"status"`
	NextPollAt time.Time `json:"nextPollAt"`
	Attempt    int       `json:"attempt"`
}

// Snapshot is the slice of an order-info response the scheduler acts
// on. A nil Reconciliation means no further provider confirmation is
// expected.
type Snapshot struct {
	PaymentStatus     string
	TransactionStatus string
	Reconciliation    *Hint
}

// Terminal reports whether the snapshot ends polling: a settled
// transaction, a paid order, or the absence of a reconciliation hint.
func (s *Snapshot) Terminal() bool {
	if s.PaymentStatus == "paid" {
		return true
	}
	switch s.TransactionStatus {
	case "completed", "failed", "cancelled":
		return true
	}
	return s.Reconciliation == nil
}

// Fetcher loads the current payment snapshot for an order. 401/403
// answers must surface as ErrUnauthorized; a cancelled context must
// abort the request.
type Fetcher interface {
	FetchOrderInfo(ctx context.Context, orderID string) (*Snapshot, error)
}

// StopReason tells the subscriber why polling for an order ended.
type StopReason string

const (
	// StopResolved: the snapshot reached a terminal state
	StopResolved StopReason = "resolved"

	// StopUnauthorized: the API answered 401/403
	StopUnauthorized StopReason = "unauthorized"

	// StopCancelled: Stop or StopAll was called, or the Start context
	// ended
	StopCancelled StopReason = "cancelled"
)

// Options tunes the polling cadence.
type Options struct {
	// Bounds applied to nextPollAt-derived delays while the
	// reconciliation status is pending. Defaults: 1s and 60s.
	MinInterval time.Duration
	MaxInterval time.Duration

	// Cadence when the hint is not pending, and after a transient
	// fetch error. Default: 5s.
	Fallback time.Duration

	// OnUpdate receives every applied snapshot, the final one
	// included. Expired hints arrive here so the caller can offer the
	// start-again action; polling itself continues until the attempt
	// settles or Stop is called.
	OnUpdate func(orderID string, snap *Snapshot)

	// OnStop fires once when polling for an order ends. err is set for
	// StopUnauthorized.
	OnStop func(orderID string, reason StopReason, err error)
}

func (o Options) normalized() Options {
	if o.MinInterval <= 0 {
		o.MinInterval = time.Second
	}
	if o.MaxInterval < o.MinInterval {
		o.MaxInterval = 60 * time.Second
	}
	if o.Fallback <= 0 {
		o.Fallback = 5 * time.Second
	}
	return o
}

type session struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Poller runs one goroutine-owned timer per order. Requests for the
// same order are strictly serialized: the next fetch is scheduled only
// after the previous one returned.
type Poller struct {
	fetcher Fetcher
	opts    Options

	mu       sync.Mutex
	sessions map[string]*session
}

func NewPoller(fetcher Fetcher, opts Options) *Poller {
	return &Poller{
		fetcher:  fetcher,
		opts:     opts.normalized(),
		sessions: make(map[string]*session),
	}
}

// Start begins polling for orderID. A second Start while the first is
// still running is a no-op. The first fetch is issued immediately. ctx
// bounds the whole polling session, so tying it to the caller's
// lifecycle cancels cleanly.
func (p *Poller) Start(ctx context.Context, orderID string) {
	p.mu.Lock()
	if _, running := p.sessions[orderID]; running {
		p.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s := &session{cancel: cancel, done: make(chan struct{})}
	p.sessions[orderID] = s
	p.mu.Unlock()

	go p.run(ctx, orderID, s)
}

// Stop ends polling for orderID and waits for its goroutine to exit.
// A fetch in flight is aborted and its result discarded. Must not be
// called from the poller's own callbacks.
func (p *Poller) Stop(orderID string) {
	p.mu.Lock()
	s, ok := p.sessions[orderID]
	p.mu.Unlock()
	if !ok {
		return
	}
	s.cancel()
	<-s.done
}

// StopAll stops every active polling session
func (p *Poller) StopAll() {
	p.mu.Lock()
	sessions := make([]*session, 0, len(p.sessions))
	for _, s := range p.sessions {
		sessions = append(sessions, s)
	}
	p.mu.Unlock()

	for _, s := range sessions {
		s.cancel()
		<-s.done
	}
}

// Active reports whether a polling session is running for orderID
func (p *Poller) Active(orderID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.sessions[orderID]
	return ok
}

func (p *Poller) run(ctx context.Context, orderID string, s *session) {
	defer close(s.done)
	defer func() {
		s.cancel()
		p.mu.Lock()
		if p.sessions[orderID] == s {
			delete(p.sessions, orderID)
		}
		p.mu.Unlock()
	}()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			p.report(orderID, StopCancelled, nil)
			return
		case <-timer.C:
		}

		snap, err := p.fetcher.FetchOrderInfo(ctx, orderID)

		// A cancelled fetch never applies its result
		if ctx.Err() != nil {
			p.report(orderID, StopCancelled, nil)
			return
		}

		if err != nil {
			if errors.Is(err, ErrUnauthorized) {
				p.report(orderID, StopUnauthorized, err)
				return
			}
			// Transient fetch errors keep the session alive at the
			// fallback cadence
			timer.Reset(p.opts.Fallback)
			continue
		}

		if p.opts.OnUpdate != nil {
			p.opts.OnUpdate(orderID, snap)
		}

		if snap.Terminal() {
			p.report(orderID, StopResolved, nil)
			return
		}

		timer.Reset(p.nextDelay(snap))
	}
}

func (p *Poller) report(orderID string, reason StopReason, err error) {
	if p.opts.OnStop != nil {
		p.opts.OnStop(orderID, reason, err)
	}
}

// nextDelay derives the wait before the next fetch. While the server
// reports pending, the hint drives the schedule inside the configured
// bounds; any other state polls at the fixed fallback.
func (p *Poller) nextDelay(snap *Snapshot) time.Duration {
	if snap.Reconciliation != nil && snap.Reconciliation.Status == StatusPending {
		return clampDelay(time.Until(snap.Reconciliation.NextPollAt), p.opts.MinInterval, p.opts.MaxInterval)
	}
	return p.opts.Fallback
}

func clampDelay(d, min, max time.Duration) time.Duration {
	if d < min {
		return min
	}
	if d > max {
		return max
	}
	return d
}
