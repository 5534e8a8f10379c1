package booking

import (
	"context"

	"stayfinder/internal/app/engine"
	"stayfinder/internal/app/queries"
	domainbooking "stayfinder/internal/domain/booking"
	"stayfinder/internal/domain/user"
)

const getAttemptKey = "booking.attempt"

type GetAttemptQuery struct {
	AttemptID  string
	CallerID   string
	CallerRole user.Role
}

func (q GetAttemptQuery) Key() string { return getAttemptKey }

type GetAttemptHandler struct {
	Engine *engine.Engine
}

func (h *GetAttemptHandler) Handle(ctx context.Context, q GetAttemptQuery) (domainbooking.Snapshot, error) {
	if h.Engine == nil {
		return domainbooking.Snapshot{}, ErrEngineRequired
	}
	snapshot, err := h.Engine.Snapshot(ctx, domainbooking.AttemptID(q.AttemptID))
	if err != nil {
		return domainbooking.Snapshot{}, err
	}
	if !q.CallerRole.CanInspectAttempt(snapshot.GuestID, q.CallerID) {
		return domainbooking.Snapshot{}, domainbooking.ErrAttemptNotFound
	}
	return snapshot, nil
}

var _ queries.Handler[GetAttemptQuery, domainbooking.Snapshot] = (*GetAttemptHandler)(nil)
