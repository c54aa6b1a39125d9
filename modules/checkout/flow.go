// Package checkout drives a cart through purchase submission.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/000francisca0/Peluchemaniav3/domain/cart"
	"github.com/000francisca0/Peluchemaniav3/domain/user"
	"github.com/000francisca0/Peluchemaniav3/events"
	"github.com/000francisca0/Peluchemaniav3/modules/backend"
	"github.com/google/uuid"
)

var (
	// ErrNotAuthenticated is returned when there is no session to check out.
	ErrNotAuthenticated = errors.New("checkout requires a session")
	// ErrEmptyCart is returned when the session's cart has no lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidAddress is returned when street, region or comuna is missing.
	ErrInvalidAddress = errors.New("shipping address is incomplete")
	// ErrSubmitInProgress is returned while the session already has a submission in flight.
	ErrSubmitInProgress = errors.New("checkout already in progress")
	// ErrKeyReused is returned when an idempotency key was already used by
	// another customer, or for an accepted order with different contents.
	ErrKeyReused = errors.New("idempotency key already used for a different purchase")
)

// Messages shown to the customer.
const (
	MsgInvalidAddress  = "Por favor completa los datos de envío."
	MsgConnectionError = "Error de conexión."
)

// State is the checkout state of a session.
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StateSuccess    State = "success"
	StateFailure    State = "failure"
)

// Result is the outcome of the latest submission. On failure it carries what
// was attempted so the customer can review and retry.
type Result struct {
	State          State        `json:"state"`
	OrderID        string       `json:"order_id,omitempty"`
	Message        string       `json:"message,omitempty"`
	Lines          []cart.Line  `json:"lines,omitempty"`
	Total          int64        `json:"total"`
	Address        user.Address `json:"address"`
	AttemptedAt    time.Time    `json:"attempted_at"`
	IdempotencyKey string       `json:"idempotency_key,omitempty"`
	Replayed       bool         `json:"replayed,omitempty"`
}

// Form is the data shown on the checkout page before submitting.
type Form struct {
	Address user.Address `json:"address"`
	Lines   []cart.Line  `json:"lines"`
	Total   int64        `json:"total"`
	Count   int          `json:"count"`
}

// Purchaser submits purchases to the shop backend.
type Purchaser interface {
	Purchase(ctx context.Context, token string, req backend.PurchaseRequest) (backend.PurchaseResult, error)
}

// Carts reads session carts and takes ordered lines out of them.
type Carts interface {
	Get(ctx context.Context, sessionID string) (cart.Cart, error)
	Subtract(ctx context.Context, sessionID string, lines []cart.Line) (cart.Cart, error)
}

// Notifier is told about purchase outcomes.
type Notifier interface {
	OrderPlaced(ctx context.Context, event events.OrderPlacedEvent)
	PurchaseFailed(ctx context.Context, event events.PurchaseFailedEvent)
}

type sessionState struct {
	result     Result
	pendingKey string
	submitting bool
}

// Flow is the per-session checkout state machine.
type Flow struct {
	purchaser Purchaser
	carts     Carts
	ledger    *Ledger
	notifier  Notifier
	now       func() time.Time
	newKey    func() string

	mu       sync.Mutex
	sessions map[string]*sessionState
}

// NewFlow creates a Flow. notifier may be nil.
func NewFlow(purchaser Purchaser, carts Carts, ledger *Ledger, notifier Notifier) *Flow {
	return &Flow{
		purchaser: purchaser,
		carts:     carts,
		ledger:    ledger,
		notifier:  notifier,
		now:       time.Now,
		newKey:    uuid.NewString,
		sessions:  make(map[string]*sessionState),
	}
}

// Prefill builds the checkout form from the session's default address and cart.
func (f *Flow) Prefill(sess user.Session, c cart.Cart) Form {
	lines := c.Lines
	if lines == nil {
		lines = []cart.Line{}
	}
	return Form{
		Address: sess.User.DefaultAddress,
		Lines:   lines,
		Total:   c.Total(),
		Count:   c.Count(),
	}
}

// Status returns the session's latest result, or idle.
func (f *Flow) Status(sessionID string) Result {
	f.mu.Lock()
	defer f.mu.Unlock()

	st, ok := f.sessions[sessionID]
	if !ok {
		return Result{State: StateIdle}
	}
	return st.result
}

// Forget drops the state of an ended session.
func (f *Flow) Forget(sessionID string) {
	f.mu.Lock()
	delete(f.sessions, sessionID)
	f.mu.Unlock()
}

// Submit posts the session's cart as a purchase. A rejected or unreachable
// backend is not an error: the returned Result is in the failure state and
// the cart is kept. key may be empty. A key recorded for another customer, or
// for an accepted order with different contents, fails with ErrKeyReused.
func (f *Flow) Submit(ctx context.Context, sess *user.Session, addr user.Address, key string) (Result, error) {
	if sess == nil {
		return Result{}, ErrNotAuthenticated
	}

	c, err := f.carts.Get(ctx, sess.ID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load cart: %w", err)
	}
	if c.IsEmpty() {
		return Result{}, ErrEmptyCart
	}
	if !addr.IsComplete() {
		return Result{}, ErrInvalidAddress
	}

	key, prev, err := f.begin(sess.ID, key, c, addr)
	if err != nil {
		return Result{}, err
	}

	result, err := f.submit(ctx, sess, c, addr, key)

	f.mu.Lock()
	st := f.state(sess.ID)
	st.submitting = false
	if err != nil {
		st.result = prev
		f.mu.Unlock()
		return Result{}, err
	}
	st.result = result
	if result.State == StateSuccess {
		st.pendingKey = ""
	} else {
		st.pendingKey = key
	}
	f.mu.Unlock()

	return result, nil
}

// begin marks the session as submitting and picks the idempotency key: the
// caller's, then the one kept from a failed attempt on the same total, then a
// new one. It returns the result it replaced.
func (f *Flow) begin(sessionID, key string, c cart.Cart, addr user.Address) (string, Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	st := f.state(sessionID)
	if st.submitting {
		return "", Result{}, ErrSubmitInProgress
	}
	prev := st.result

	switch {
	case key != "":
	case st.pendingKey != "" && prev.Total == c.Total():
		key = st.pendingKey
	default:
		key = f.newKey()
	}

	st.submitting = true
	st.result = Result{
		State:          StateSubmitting,
		Lines:          c.Lines,
		Total:          c.Total(),
		Address:        addr,
		AttemptedAt:    f.now(),
		IdempotencyKey: key,
	}
	return key, prev, nil
}

func (f *Flow) submit(ctx context.Context, sess *user.Session, c cart.Cart, addr user.Address, key string) (Result, error) {
	total := c.Total()
	attemptedAt := f.now()

	prev, err := f.ledger.Lookup(key)
	switch {
	case err != nil:
		log.Printf("[checkout] Warning: ledger lookup failed for %s: %v", key, err)
	case prev == nil:
	case !prev.OwnedBy(sess.User.Email):
		log.Printf("[checkout] Rejected key %s from %s: recorded for another customer", key, sess.User.Email)
		return Result{}, ErrKeyReused
	case prev.Status != AttemptSucceeded:
	case !prev.Covers(sess.User.Email, total, c.Count()):
		log.Printf("[checkout] Rejected key %s from %s: order %s had different contents", key, sess.User.Email, prev.OrderID)
		return Result{}, ErrKeyReused
	default:
		log.Printf("[checkout] Replaying order %s for key %s", prev.OrderID, key)
		f.takeOrdered(ctx, sess.ID, c.Lines)
		return Result{
			State:          StateSuccess,
			OrderID:        prev.OrderID,
			Message:        prev.Message,
			Total:          prev.Total,
			Address:        addr,
			AttemptedAt:    attemptedAt,
			IdempotencyKey: key,
			Replayed:       true,
		}, nil
	}

	res, err := f.purchaser.Purchase(ctx, sess.BackendToken, backend.PurchaseRequest{
		CustomerEmail:  sess.User.Email,
		Lines:          c.Lines,
		Address:        addr,
		Total:          total,
		IdempotencyKey: key,
	})

	attempt := &Attempt{
		IdempotencyKey: key,
		SessionID:      sess.ID,
		CustomerEmail:  sess.User.Email,
		Total:          total,
		Units:          c.Count(),
	}

	if err != nil {
		msg := failureMessage(err)
		log.Printf("[checkout] Purchase failed for %s (key %s): %v", sess.User.Email, key, err)

		attempt.Status = AttemptFailed
		attempt.Message = msg
		f.record(attempt)

		if f.notifier != nil {
			f.notifier.PurchaseFailed(ctx, events.PurchaseFailedEvent{
				SessionID:      sess.ID,
				CustomerEmail:  sess.User.Email,
				Total:          total,
				Reason:         msg,
				IdempotencyKey: key,
				AttemptedAt:    attemptedAt,
			})
		}

		return Result{
			State:          StateFailure,
			Message:        msg,
			Lines:          c.Lines,
			Total:          total,
			Address:        addr,
			AttemptedAt:    attemptedAt,
			IdempotencyKey: key,
		}, nil
	}

	attempt.Status = AttemptSucceeded
	attempt.OrderID = res.OrderID
	attempt.Message = res.Message
	f.record(attempt)
	f.takeOrdered(ctx, sess.ID, c.Lines)

	log.Printf("[checkout] Order %s placed by %s (total %d)", res.OrderID, sess.User.Email, total)
	if f.notifier != nil {
		f.notifier.OrderPlaced(ctx, events.OrderPlacedEvent{
			OrderID:        res.OrderID,
			SessionID:      sess.ID,
			CustomerEmail:  sess.User.Email,
			Total:          total,
			Units:          c.Count(),
			IdempotencyKey: key,
			PlacedAt:       attemptedAt,
		})
	}

	return Result{
		State:          StateSuccess,
		OrderID:        res.OrderID,
		Message:        res.Message,
		Total:          total,
		Address:        addr,
		AttemptedAt:    attemptedAt,
		IdempotencyKey: key,
	}, nil
}

func (f *Flow) state(sessionID string) *sessionState {
	st, ok := f.sessions[sessionID]
	if !ok {
		st = &sessionState{result: Result{State: StateIdle}}
		f.sessions[sessionID] = st
	}
	return st
}

func (f *Flow) record(a *Attempt) {
	if err := f.ledger.Record(a); err != nil {
		log.Printf("[checkout] Warning: %v", err)
	}
}

// takeOrdered removes the ordered lines from the cart after an accepted order,
// keeping units added while the purchase was in flight. The order stands even
// if the cart cannot be updated.
func (f *Flow) takeOrdered(ctx context.Context, sessionID string, lines []cart.Line) {
	if _, err := f.carts.Subtract(ctx, sessionID, lines); err != nil {
		log.Printf("[checkout] Warning: failed to update cart of %s: %v", sessionID, err)
	}
}

// failureMessage is the backend's message, or the connection error text.
func failureMessage(err error) string {
	if errors.Is(err, backend.ErrUnavailable) {
		return MsgConnectionError
	}
	if msg := backend.Message(err); msg != "" {
		return msg
	}
	return MsgConnectionError
}
