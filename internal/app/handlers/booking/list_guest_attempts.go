package booking

import (
	"context"

	"stayfinder/internal/app/queries"
	domainbooking "stayfinder/internal/domain/booking"
)

const listGuestAttemptsKey = "booking.guest_attempts"

type ListGuestAttemptsQuery struct {
	GuestID string
}

func (q ListGuestAttemptsQuery) Key() string { return listGuestAttemptsKey }

type ListGuestAttemptsHandler struct {
	Attempts domainbooking.Repository
}

func (h *ListGuestAttemptsHandler) Handle(ctx context.Context, q ListGuestAttemptsQuery) ([]domainbooking.Snapshot, error) {
	attempts, err := h.Attempts.ListByGuest(ctx, q.GuestID)
	if err != nil {
		return nil, err
	}
	snapshots := make([]domainbooking.Snapshot, 0, len(attempts))
	for _, attempt := range attempts {
		snapshots = append(snapshots, attempt.Snapshot())
	}
	return snapshots, nil
}

var _ queries.Handler[ListGuestAttemptsQuery, []domainbooking.Snapshot] = (*ListGuestAttemptsHandler)(nil)
