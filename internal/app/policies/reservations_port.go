package policies

import (
	"context"
	"fmt"

	"stayfinder/internal/domain/shared/daterange"
	"stayfinder/internal/domain/shared/money"
)

type ReservationRequest struct {
	ListingID string
	GuestID   string
	Range     daterange.DateRange
	Guests    int
	Total     money.Money
}

type ReservationConfirmation struct {
	ReservationID string
	Status        string
	Total         money.Money
}

// ReservationDeclinedError carries the machine-readable reason supplied by
// the reservation service.
type ReservationDeclinedError struct {
	Reason string
}

func (e *ReservationDeclinedError) Error() string {
	return fmt.Sprintf("policies: reservation declined: %s", e.Reason)
}

type ReservationsPort interface {
	Create(ctx context.Context, req ReservationRequest) (ReservationConfirmation, error)
}
