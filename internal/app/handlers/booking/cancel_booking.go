package booking

import (
	"context"

	"stayfinder/internal/app/commands"
	"stayfinder/internal/app/engine"
	domainbooking "stayfinder/internal/domain/booking"
)

const cancelBookingKey = "booking.cancel"

type CancelBookingCommand struct {
	AttemptID string
}

func (c CancelBookingCommand) Key() string { return cancelBookingKey }

type CancelBookingResult struct {
	AttemptID string `json:"attempt_id"`
	Cancelled bool   `json:"cancelled"`
}

type CancelBookingHandler struct {
	Engine *engine.Engine
}

// Handle rejects cancellation once a reservation exists; the engine surfaces
// booking.ErrTooLateToCancel / booking.ErrAlreadyTerminal untouched so the
// transport layer can map them.
func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (*CancelBookingResult, error) {
	if h.Engine == nil {
		return nil, ErrEngineRequired
	}
	if err := h.Engine.Cancel(ctx, domainbooking.AttemptID(cmd.AttemptID)); err != nil {
		return nil, err
	}
	return &CancelBookingResult{AttemptID: cmd.AttemptID, Cancelled: true}, nil
}

var _ commands.Handler[CancelBookingCommand, *CancelBookingResult] = (*CancelBookingHandler)(nil)
