package booking

import (
	"fmt"
	"time"

	"stayfinder/internal/domain/shared/daterange"
	"stayfinder/internal/domain/shared/money"
)

// ValidationCode is the closed set of input-level rejection reasons. These
// are always recoverable by correcting the request and never reach the
// external services.
type ValidationCode string

const (
	CodeMalformedDate        ValidationCode = "MALFORMED_DATE"
	CodeCheckInInPast        ValidationCode = "CHECK_IN_IN_PAST"
	CodeInvertedOrEmptyRange ValidationCode = "INVERTED_OR_EMPTY_RANGE"
	CodeStayTooLong          ValidationCode = "STAY_TOO_LONG"
	CodeGuestsExceedCapacity ValidationCode = "GUESTS_EXCEED_CAPACITY"
	CodeInvalidRate          ValidationCode = "INVALID_RATE"
)

type ValidationError struct {
	Code   ValidationCode
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("booking: validation failed (%s)", e.Code)
	}
	return fmt.Sprintf("booking: validation failed (%s): %s", e.Code, e.Detail)
}

// Request carries everything one booking attempt needs. It is owned by a
// single attempt and never shared across concurrent runs.
type Request struct {
	ListingID    string
	GuestID      string
	CheckIn      time.Time
	CheckOut     time.Time
	Guests       int
	MaxOccupancy int
	NightlyRate  money.Money
}

// Rules configures request validation. Today is injected so validation stays
// a pure function of its inputs.
type Rules struct {
	Today         time.Time
	MaxStayNights int
}

// DefaultMaxStayNights caps a single stay when no explicit limit is set.
const DefaultMaxStayNights = 365

// ValidateRequest applies the booking rules in order, first failure wins, and
// returns the normalized date range on success. No side effects.
func ValidateRequest(req Request, rules Rules) (daterange.DateRange, *ValidationError) {
	if req.CheckIn.IsZero() || req.CheckOut.IsZero() {
		return daterange.DateRange{}, &ValidationError{Code: CodeMalformedDate, Detail: "check-in and check-out dates are required"}
	}

	today := daterange.Midnight(rules.Today)
	checkIn := daterange.Midnight(req.CheckIn)
	if checkIn.Before(today) {
		return daterange.DateRange{}, &ValidationError{Code: CodeCheckInInPast, Detail: fmt.Sprintf("check-in %s is before %s", checkIn.Format("2006-01-02"), today.Format("2006-01-02"))}
	}

	dr, err := daterange.New(req.CheckIn, req.CheckOut)
	if err != nil {
		return daterange.DateRange{}, &ValidationError{Code: CodeInvertedOrEmptyRange, Detail: "stay must cover at least one night"}
	}

	maxNights := rules.MaxStayNights
	if maxNights <= 0 {
		maxNights = DefaultMaxStayNights
	}
	if dr.Nights() > maxNights {
		return daterange.DateRange{}, &ValidationError{Code: CodeStayTooLong, Detail: fmt.Sprintf("%d nights exceeds the %d night limit", dr.Nights(), maxNights)}
	}

	if req.Guests < 1 || (req.MaxOccupancy > 0 && req.Guests > req.MaxOccupancy) {
		return daterange.DateRange{}, &ValidationError{Code: CodeGuestsExceedCapacity, Detail: fmt.Sprintf("%d guests for capacity %d", req.Guests, req.MaxOccupancy)}
	}

	if req.NightlyRate.IsNegative() {
		return daterange.DateRange{}, &ValidationError{Code: CodeInvalidRate, Detail: "nightly rate cannot be negative"}
	}

	return dr, nil
}
