package daterange

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrMalformed     = errors.New("daterange: malformed calendar date")
	ErrInvertedRange = errors.New("daterange: checkout must be after checkin")
)

// DateRange represents a half-open interval [checkIn, checkOut) of calendar
// days. Both bounds are stored normalized to UTC midnight so night counts are
// a pure function of date components, immune to DST shifts in the source
// location.
type DateRange struct {
	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`
}

// New builds a validated range from candidate check-in/check-out instants.
// Time-of-day and zone information is discarded.
func New(checkIn, checkOut time.Time) (DateRange, error) {
	if checkIn.IsZero() || checkOut.IsZero() {
		return DateRange{}, ErrMalformed
	}
	dr := DateRange{CheckIn: Midnight(checkIn), CheckOut: Midnight(checkOut)}
	if !dr.CheckOut.After(dr.CheckIn) {
		return DateRange{}, ErrInvertedRange
	}
	return dr, nil
}

// Midnight truncates an instant to its civil date at UTC midnight.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Nights counts the calendar days covered by the range. Both bounds sit on
// UTC midnights, so the division is exact.
func (dr DateRange) Nights() int {
	return int(dr.CheckOut.Sub(dr.CheckIn) / (24 * time.Hour))
}

// Overlaps reports whether two half-open ranges share at least one night.
func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(dr.CheckOut)
}

// IsZero reports an unpopulated range.
func (dr DateRange) IsZero() bool {
	return dr.CheckIn.IsZero() && dr.CheckOut.IsZero()
}

func (dr DateRange) String() string {
	return fmt.Sprintf("%s..%s", dr.CheckIn.Format("2006-01-02"), dr.CheckOut.Format("2006-01-02"))
}
