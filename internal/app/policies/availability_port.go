package policies

import (
	"context"
	"errors"

	"stayfinder/internal/domain/shared/daterange"
)

// Availability is the oracle's definitive answer. Transport failures are
// reported as ErrOracleUnreachable, never folded into Unavailable.
type Availability int

const (
	AvailabilityUnknown Availability = iota
	Available
	Unavailable
)

var ErrOracleUnreachable = errors.New("policies: availability oracle unreachable")

type AvailabilityPort interface {
	Check(ctx context.Context, listingID string, dr daterange.DateRange) (Availability, error)
}
