package booking

import (
	"time"

	"stayfinder/internal/domain/shared/daterange"
	"stayfinder/internal/domain/shared/money"
)

type AttemptStarted struct {
	AttemptID AttemptID `json:"attempt_id"`
	ListingID string    `json:"listing_id"`
	GuestID   string    `json:"guest_id"`
	Guests    int       `json:"guests"`
	At        time.Time `json:"at"`
}

func (e AttemptStarted) EventName() string     { return "booking.attempt_started" }
func (e AttemptStarted) AggregateID() string   { return string(e.AttemptID) }
func (e AttemptStarted) OccurredAt() time.Time { return e.At }

type AttemptConfirmed struct {
	AttemptID     AttemptID           `json:"attempt_id"`
	ListingID     string              `json:"listing_id"`
	Range         daterange.DateRange `json:"range"`
	Total         money.Money         `json:"total"`
	ReservationID string              `json:"reservation_id"`
	PaymentID     string              `json:"payment_id"`
	At            time.Time           `json:"at"`
}

func (e AttemptConfirmed) EventName() string     { return "booking.attempt_confirmed" }
func (e AttemptConfirmed) AggregateID() string   { return string(e.AttemptID) }
func (e AttemptConfirmed) OccurredAt() time.Time { return e.At }

// AttemptFailed covers every non-confirmed terminal outcome; Stage names the
// step that failed and ReservationID is set when a reservation outlives the
// attempt (payment failures).
type AttemptFailed struct {
	AttemptID     AttemptID `json:"attempt_id"`
	Stage         string    `json:"stage"`
	Code          string    `json:"code"`
	Reason        string    `json:"reason"`
	ReservationID string    `json:"reservation_id,omitempty"`
	Transient     bool      `json:"transient,omitempty"`
	At            time.Time `json:"at"`
}

func (e AttemptFailed) EventName() string     { return "booking.attempt_failed" }
func (e AttemptFailed) AggregateID() string   { return string(e.AttemptID) }
func (e AttemptFailed) OccurredAt() time.Time { return e.At }

type AttemptCancelled struct {
	AttemptID AttemptID `json:"attempt_id"`
	At        time.Time `json:"at"`
}

func (e AttemptCancelled) EventName() string     { return "booking.attempt_cancelled" }
func (e AttemptCancelled) AggregateID() string   { return string(e.AttemptID) }
func (e AttemptCancelled) OccurredAt() time.Time { return e.At }
