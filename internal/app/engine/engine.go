package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"stayfinder/internal/app/outbox"
	"stayfinder/internal/app/policies"
	"stayfinder/internal/domain/booking"
	"stayfinder/internal/domain/pricing"
	"stayfinder/internal/domain/shared/daterange"
)

var (
	ErrNotConfigured = errors.New("engine: missing dependencies")
	ErrUnknownHandle = errors.New("engine: unknown attempt handle")
)

// Config tunes a booking engine instance.
type Config struct {
	// CallTimeout bounds every external call (availability, reservation,
	// payment). A timed-out call is mapped to the matching terminal failure,
	// never left pending.
	CallTimeout   time.Duration
	MaxStayNights int
	PaymentMethod string
}

const defaultCallTimeout = 10 * time.Second

// Engine runs booking attempts. Each attempt is a sequential unit of work on
// its own goroutine; attempts share no mutable state besides the repository,
// which the engine guards.
type Engine struct {
	Availability policies.AvailabilityPort
	Reservations policies.ReservationsPort
	Payments     policies.PaymentsPort
	Attempts     booking.Repository
	Outbox       outbox.Outbox
	Encoder      outbox.EventEncoder
	Logger       *slog.Logger
	Config       Config
	Now          func() time.Time

	mu      sync.Mutex
	handles map[booking.AttemptID]*Handle
}

// Handle is the non-blocking reference to one in-flight attempt.
type Handle struct {
	ID   booking.AttemptID
	done chan struct{}
}

// Done is closed once the attempt reaches a terminal state.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

func New(availability policies.AvailabilityPort, reservations policies.ReservationsPort, payments policies.PaymentsPort, attempts booking.Repository, cfg Config) (*Engine, error) {
	if availability == nil || reservations == nil || payments == nil || attempts == nil {
		return nil, ErrNotConfigured
	}
	return &Engine{
		Availability: availability,
		Reservations: reservations,
		Payments:     payments,
		Attempts:     attempts,
		Config:       cfg,
		handles:      make(map[booking.AttemptID]*Handle),
	}, nil
}

// Start registers a new attempt and launches its run. The returned handle is
// immediately observable through Snapshot; Start never blocks on external
// services.
func (e *Engine) Start(ctx context.Context, req booking.Request) (*Handle, error) {
	id := booking.AttemptID(uuid.NewString())
	now := e.now()

	attempt, err := booking.NewAttempt(id, req, now)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.persistLocked(ctx, attempt); err != nil {
		return nil, err
	}
	h := &Handle{ID: id, done: make(chan struct{})}
	if e.handles == nil {
		e.handles = make(map[booking.AttemptID]*Handle)
	}
	e.handles[id] = h

	// The run outlives the HTTP request that started it; per-call timeouts
	// bound each step instead of the caller's context deadline.
	go e.run(context.WithoutCancel(ctx), h, req)
	return h, nil
}

// Snapshot returns the current caller-facing view of an attempt.
func (e *Engine) Snapshot(ctx context.Context, id booking.AttemptID) (booking.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	attempt, err := e.Attempts.ByID(ctx, id)
	if err != nil {
		return booking.Snapshot{}, err
	}
	return attempt.Snapshot(), nil
}

// Cancel aborts an attempt that has not yet created a reservation. Returns
// booking.ErrAlreadyTerminal or booking.ErrTooLateToCancel otherwise.
func (e *Engine) Cancel(ctx context.Context, id booking.AttemptID) error {
	_, err := e.transition(ctx, id, func(a *booking.Attempt) error {
		return a.Cancel(e.now())
	})
	return err
}

// Await blocks until the attempt reaches a terminal state or the context is
// done, then returns the final snapshot. An attempt whose handle was already
// released resolves immediately from storage.
func (e *Engine) Await(ctx context.Context, id booking.AttemptID) (booking.Snapshot, error) {
	e.mu.Lock()
	h, ok := e.handles[id]
	e.mu.Unlock()
	if !ok {
		snap, err := e.Snapshot(ctx, id)
		if err != nil {
			return booking.Snapshot{}, err
		}
		if !snap.State.IsTerminal() {
			return booking.Snapshot{}, ErrUnknownHandle
		}
		return snap, nil
	}
	select {
	case <-ctx.Done():
		return booking.Snapshot{}, ctx.Err()
	case <-h.done:
	}
	return e.Snapshot(ctx, id)
}

func (e *Engine) run(ctx context.Context, h *Handle, req booking.Request) {
	// Release the handle once the attempt is terminal; the attempt itself
	// stays queryable through the repository.
	defer func() {
		close(h.done)
		e.mu.Lock()
		delete(e.handles, h.ID)
		e.mu.Unlock()
	}()
	log := e.logger().With("attempt_id", h.ID, "listing_id", req.ListingID)

	if _, err := e.transition(ctx, h.ID, func(a *booking.Attempt) error {
		return a.BeginValidation(e.now())
	}); err != nil {
		return
	}

	dr, verr := booking.ValidateRequest(req, booking.Rules{
		Today:         e.now(),
		MaxStayNights: e.Config.MaxStayNights,
	})
	var priced pricing.PricedBooking
	if verr == nil {
		var perr error
		priced, perr = pricing.Quote(dr, req.NightlyRate)
		if perr != nil {
			verr = &booking.ValidationError{Code: booking.CodeInvalidRate, Detail: perr.Error()}
		}
	}
	if verr != nil {
		log.Info("attempt rejected by validation", "code", verr.Code)
		e.mustTransition(ctx, h.ID, func(a *booking.Attempt) error {
			return a.FailValidation(verr, e.now())
		})
		return
	}

	if _, err := e.transition(ctx, h.ID, func(a *booking.Attempt) error {
		if err := a.SetQuote(dr, priced, e.now()); err != nil {
			return err
		}
		return a.BeginAvailabilityCheck(e.now())
	}); err != nil {
		return
	}

	availability, err := e.checkAvailability(ctx, req.ListingID, dr)
	switch {
	case err != nil:
		log.Warn("availability oracle unreachable", "error", err)
		e.mustTransition(ctx, h.ID, func(a *booking.Attempt) error {
			return a.MarkOracleUnreachable(err.Error(), e.now())
		})
		return
	case availability != policies.Available:
		log.Info("listing unavailable for range", "range", dr.String())
		e.mustTransition(ctx, h.ID, func(a *booking.Attempt) error {
			return a.MarkUnavailable(e.now())
		})
		return
	}

	// Past this transition the attempt can no longer be cancelled; a
	// concurrent Cancel surfaces here as ErrAlreadyTerminal and stops the run.
	if _, err := e.transition(ctx, h.ID, func(a *booking.Attempt) error {
		return a.BeginReservation(e.now())
	}); err != nil {
		return
	}

	confirmation, err := e.createReservation(ctx, policies.ReservationRequest{
		ListingID: req.ListingID,
		GuestID:   req.GuestID,
		Range:     dr,
		Guests:    req.Guests,
		Total:     priced.Total,
	})
	if err != nil {
		log.Warn("reservation creation failed", "error", err)
		e.mustTransition(ctx, h.ID, func(a *booking.Attempt) error {
			return a.FailReservation(reasonOf(err), e.now())
		})
		return
	}

	if _, err := e.transition(ctx, h.ID, func(a *booking.Attempt) error {
		return a.BeginPayment(confirmation.ReservationID, e.now())
	}); err != nil {
		return
	}

	payment, err := e.initiatePayment(ctx, policies.PaymentRequest{
		ReservationID: confirmation.ReservationID,
		Amount:        priced.Total,
		Method:        e.paymentMethod(),
	})
	if err != nil {
		// The reservation stands; surface its id so the caller can reconcile.
		log.Warn("payment failed after reservation", "reservation_id", confirmation.ReservationID, "error", err)
		e.mustTransition(ctx, h.ID, func(a *booking.Attempt) error {
			return a.FailPayment(reasonOf(err), e.now())
		})
		return
	}

	e.mustTransition(ctx, h.ID, func(a *booking.Attempt) error {
		return a.Confirm(payment.PaymentID, e.now())
	})
	log.Info("attempt confirmed", "reservation_id", confirmation.ReservationID, "payment_id", payment.PaymentID)
}

func (e *Engine) checkAvailability(ctx context.Context, listingID string, dr daterange.DateRange) (policies.Availability, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout())
	defer cancel()
	availability, err := e.Availability.Check(callCtx, listingID, dr)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return policies.AvailabilityUnknown, policies.ErrOracleUnreachable
		}
		return policies.AvailabilityUnknown, err
	}
	return availability, nil
}

func (e *Engine) createReservation(ctx context.Context, req policies.ReservationRequest) (policies.ReservationConfirmation, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout())
	defer cancel()
	return e.Reservations.Create(callCtx, req)
}

func (e *Engine) initiatePayment(ctx context.Context, req policies.PaymentRequest) (policies.PaymentConfirmation, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout())
	defer cancel()
	return e.Payments.Initiate(callCtx, req)
}

// transition loads the attempt, applies fn and persists the result under the
// engine lock, draining recorded events into the outbox.
func (e *Engine) transition(ctx context.Context, id booking.AttemptID, fn func(*booking.Attempt) error) (*booking.Attempt, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	attempt, err := e.Attempts.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(attempt); err != nil {
		return nil, err
	}
	if err := e.persistLocked(ctx, attempt); err != nil {
		return nil, err
	}
	return attempt, nil
}

// mustTransition applies a terminal transition; a failure here means the
// attempt already terminated (e.g. concurrent cancel), which is final anyway.
func (e *Engine) mustTransition(ctx context.Context, id booking.AttemptID, fn func(*booking.Attempt) error) {
	if _, err := e.transition(ctx, id, fn); err != nil {
		e.logger().Debug("terminal transition skipped", "attempt_id", id, "error", err)
	}
}

func (e *Engine) persistLocked(ctx context.Context, attempt *booking.Attempt) error {
	if err := e.Attempts.Save(ctx, attempt); err != nil {
		return err
	}
	pending := attempt.PendingEvents()
	attempt.ClearEvents()
	return outbox.RecordDomainEvents(ctx, e.Outbox, e.Encoder, pending)
}

func reasonOf(err error) string {
	var resErr *policies.ReservationDeclinedError
	if errors.As(err, &resErr) {
		return resErr.Reason
	}
	var payErr *policies.PaymentDeclinedError
	if errors.As(err, &payErr) {
		return payErr.Reason
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "external service timed out"
	}
	return err.Error()
}

func (e *Engine) callTimeout() time.Duration {
	if e.Config.CallTimeout > 0 {
		return e.Config.CallTimeout
	}
	return defaultCallTimeout
}

func (e *Engine) paymentMethod() string {
	if e.Config.PaymentMethod != "" {
		return e.Config.PaymentMethod
	}
	return "CARD"
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now().UTC()
	}
	return time.Now().UTC()
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}
