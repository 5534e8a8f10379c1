package booking

import (
	"context"
	"errors"
	"time"

	"stayfinder/internal/domain/pricing"
	"stayfinder/internal/domain/shared/daterange"
	"stayfinder/internal/domain/shared/events"
)

var (
	ErrAlreadyTerminal   = errors.New("booking: attempt already reached a terminal state")
	ErrTooLateToCancel   = errors.New("booking: reservation already created, cancel it through the reservation service")
	ErrInvalidTransition = errors.New("booking: invalid attempt state transition")
	ErrAttemptNotFound   = errors.New("booking: attempt not found")
	ErrGuestRequired     = errors.New("booking: guest id required")
)

type AttemptID string

type AttemptState string

const (
	StateCreated              AttemptState = "CREATED"
	StateValidating           AttemptState = "VALIDATING"
	StateCheckingAvailability AttemptState = "CHECKING_AVAILABILITY"
	StateCreatingReservation  AttemptState = "CREATING_RESERVATION"
	StateInitiatingPayment    AttemptState = "INITIATING_PAYMENT"
	StateConfirmed            AttemptState = "CONFIRMED"
	StateValidationFailed     AttemptState = "VALIDATION_FAILED"
	StateUnavailable          AttemptState = "UNAVAILABLE"
	StateReservationFailed    AttemptState = "RESERVATION_FAILED"
	StatePaymentFailed        AttemptState = "PAYMENT_FAILED"
	StateCancelled            AttemptState = "CANCELLED"
)

// IsTerminal reports whether the state has no outgoing transitions.
func (s AttemptState) IsTerminal() bool {
	switch s {
	case StateConfirmed, StateValidationFailed, StateUnavailable,
		StateReservationFailed, StatePaymentFailed, StateCancelled:
		return true
	}
	return false
}

// Attempt is one run of the booking state machine for a single user action.
// It consumes exactly one priced request and produces at most one reservation
// and one payment record. Attempts are never reused.
type Attempt struct {
	ID            AttemptID
	ListingID     string
	GuestID       string
	Range         daterange.DateRange
	Guests        int
	Price         pricing.PricedBooking
	State         AttemptState
	ReservationID string
	PaymentID     string
	FailureCode   string
	FailureReason string
	Transient     bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Version       int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id AttemptID) (*Attempt, error)
	Save(ctx context.Context, attempt *Attempt) error
	ListByGuest(ctx context.Context, guestID string) ([]*Attempt, error)
}

func NewAttempt(id AttemptID, req Request, now time.Time) (*Attempt, error) {
	if id == "" {
		return nil, errors.New("booking: attempt id required")
	}
	if req.GuestID == "" {
		return nil, ErrGuestRequired
	}
	now = now.UTC()
	a := &Attempt{
		ID:        id,
		ListingID: req.ListingID,
		GuestID:   req.GuestID,
		Guests:    req.Guests,
		State:     StateCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}
	a.Record(AttemptStarted{AttemptID: a.ID, ListingID: a.ListingID, GuestID: a.GuestID, Guests: a.Guests, At: now})
	return a, nil
}

func (a *Attempt) BeginValidation(now time.Time) error {
	return a.advance(StateCreated, StateValidating, now)
}

// FailValidation terminates the attempt with the specific rule that rejected
// the input. No external calls have been made at this point.
func (a *Attempt) FailValidation(verr *ValidationError, now time.Time) error {
	if err := a.advance(StateValidating, StateValidationFailed, now); err != nil {
		return err
	}
	a.FailureCode = string(verr.Code)
	a.FailureReason = verr.Error()
	a.Record(AttemptFailed{AttemptID: a.ID, Stage: "validation", Code: a.FailureCode, Reason: a.FailureReason, At: a.UpdatedAt})
	return nil
}

// SetQuote attaches the validated range and its derived price before the
// availability check.
func (a *Attempt) SetQuote(dr daterange.DateRange, price pricing.PricedBooking, now time.Time) error {
	if err := a.ensureActive(StateValidating); err != nil {
		return err
	}
	a.Range = dr
	a.Price = price
	a.UpdatedAt = now.UTC()
	return nil
}

func (a *Attempt) BeginAvailabilityCheck(now time.Time) error {
	return a.advance(StateValidating, StateCheckingAvailability, now)
}

// MarkUnavailable records a definitive refusal from the availability oracle.
// Retrying without changing dates cannot succeed.
func (a *Attempt) MarkUnavailable(now time.Time) error {
	if err := a.advance(StateCheckingAvailability, StateUnavailable, now); err != nil {
		return err
	}
	a.FailureCode = "UNAVAILABLE"
	a.FailureReason = "listing is not available for the requested dates"
	a.Record(AttemptFailed{AttemptID: a.ID, Stage: "availability", Code: a.FailureCode, Reason: a.FailureReason, At: a.UpdatedAt})
	return nil
}

// MarkOracleUnreachable terminates the attempt when the oracle cannot answer.
// The failure is transient: the caller may retry the whole attempt.
func (a *Attempt) MarkOracleUnreachable(reason string, now time.Time) error {
	if err := a.advance(StateCheckingAvailability, StateReservationFailed, now); err != nil {
		return err
	}
	a.FailureCode = "ORACLE_UNREACHABLE"
	a.FailureReason = reason
	a.Transient = true
	a.Record(AttemptFailed{AttemptID: a.ID, Stage: "availability", Code: a.FailureCode, Reason: reason, Transient: true, At: a.UpdatedAt})
	return nil
}

// BeginReservation is the point of no return for cancellation: once the
// reservation service is about to be called, Cancel is rejected.
func (a *Attempt) BeginReservation(now time.Time) error {
	return a.advance(StateCheckingAvailability, StateCreatingReservation, now)
}

func (a *Attempt) FailReservation(reason string, now time.Time) error {
	if err := a.advance(StateCreatingReservation, StateReservationFailed, now); err != nil {
		return err
	}
	a.FailureCode = "RESERVATION_FAILED"
	a.FailureReason = reason
	a.Record(AttemptFailed{AttemptID: a.ID, Stage: "reservation", Code: a.FailureCode, Reason: reason, At: a.UpdatedAt})
	return nil
}

// BeginPayment stores the created reservation id and moves on to payment.
func (a *Attempt) BeginPayment(reservationID string, now time.Time) error {
	if reservationID == "" {
		return errors.New("booking: reservation id required before payment")
	}
	if err := a.advance(StateCreatingReservation, StateInitiatingPayment, now); err != nil {
		return err
	}
	a.ReservationID = reservationID
	return nil
}

// FailPayment terminates the attempt but keeps the created reservation id so
// the caller can reconcile. The reservation is reported, not rolled back.
func (a *Attempt) FailPayment(reason string, now time.Time) error {
	if err := a.advance(StateInitiatingPayment, StatePaymentFailed, now); err != nil {
		return err
	}
	a.FailureCode = "PAYMENT_FAILED"
	a.FailureReason = reason
	a.Record(AttemptFailed{AttemptID: a.ID, Stage: "payment", Code: a.FailureCode, Reason: reason, ReservationID: a.ReservationID, At: a.UpdatedAt})
	return nil
}

func (a *Attempt) Confirm(paymentID string, now time.Time) error {
	if paymentID == "" {
		return errors.New("booking: payment id required for confirmation")
	}
	if err := a.advance(StateInitiatingPayment, StateConfirmed, now); err != nil {
		return err
	}
	a.PaymentID = paymentID
	a.Record(AttemptConfirmed{AttemptID: a.ID, ListingID: a.ListingID, Range: a.Range, Total: a.Price.Total, ReservationID: a.ReservationID, PaymentID: paymentID, At: a.UpdatedAt})
	return nil
}

// Cancel aborts the attempt while it has no externally visible side effect.
// Once reservation work has started the caller must let the attempt finish
// and cancel the reservation through the reservation service instead.
func (a *Attempt) Cancel(now time.Time) error {
	if a.State.IsTerminal() {
		return ErrAlreadyTerminal
	}
	switch a.State {
	case StateCreated, StateValidating, StateCheckingAvailability:
	default:
		return ErrTooLateToCancel
	}
	a.State = StateCancelled
	a.UpdatedAt = now.UTC()
	a.FailureCode = "CANCELLED"
	a.FailureReason = "cancelled by caller"
	a.Record(AttemptCancelled{AttemptID: a.ID, At: a.UpdatedAt})
	return nil
}

func (a *Attempt) advance(from, to AttemptState, now time.Time) error {
	if err := a.ensureActive(from); err != nil {
		return err
	}
	a.State = to
	a.UpdatedAt = now.UTC()
	return nil
}

func (a *Attempt) ensureActive(expected AttemptState) error {
	if a.State.IsTerminal() {
		return ErrAlreadyTerminal
	}
	if a.State != expected {
		return ErrInvalidTransition
	}
	return nil
}

// Snapshot is the caller-facing view of an attempt.
type Snapshot struct {
	ID            AttemptID              `json:"id"`
	ListingID     string                 `json:"listing_id"`
	GuestID       string                 `json:"guest_id"`
	State         AttemptState           `json:"state"`
	Range         daterange.DateRange    `json:"range,omitzero"`
	Guests        int                    `json:"guests"`
	Price         *pricing.PricedBooking `json:"price,omitempty"`
	ReservationID string                 `json:"reservation_id,omitempty"`
	PaymentID     string                 `json:"payment_id,omitempty"`
	FailureCode   string                 `json:"failure_code,omitempty"`
	FailureReason string                 `json:"failure_reason,omitempty"`
	Transient     bool                   `json:"transient,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

func (a *Attempt) Snapshot() Snapshot {
	s := Snapshot{
		ID:            a.ID,
		ListingID:     a.ListingID,
		GuestID:       a.GuestID,
		State:         a.State,
		Range:         a.Range,
		Guests:        a.Guests,
		ReservationID: a.ReservationID,
		PaymentID:     a.PaymentID,
		FailureCode:   a.FailureCode,
		FailureReason: a.FailureReason,
		Transient:     a.Transient,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
	if a.Price.Nights > 0 {
		price := a.Price
		s.Price = &price
	}
	return s
}
