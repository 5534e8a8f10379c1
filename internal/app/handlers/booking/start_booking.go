package booking

import (
	"context"
	"errors"
	"time"

	"stayfinder/internal/app/commands"
	"stayfinder/internal/app/engine"
	"stayfinder/internal/app/middleware"
	domainbooking "stayfinder/internal/domain/booking"
	"stayfinder/internal/domain/shared/money"
)

const startBookingKey = "booking.start"

var ErrEngineRequired = errors.New("booking: engine required")

// StartBookingCommand launches one booking attempt. The guest id is explicit
// command state, never ambient session state.
type StartBookingCommand struct {
	ListingID       string
	GuestID         string
	CheckIn         time.Time
	CheckOut        time.Time
	Guests          int
	MaxOccupancy    int
	NightlyRate     money.Money
	IdempotencyKeyV string
}

func (c StartBookingCommand) Key() string { return startBookingKey }

func (c StartBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c StartBookingCommand) ResultPrototype() any { return &StartBookingResult{} }

type StartBookingResult struct {
	AttemptID string `json:"attempt_id"`
}

type StartBookingHandler struct {
	Engine *engine.Engine
}

func (h *StartBookingHandler) Handle(ctx context.Context, cmd StartBookingCommand) (*StartBookingResult, error) {
	if h.Engine == nil {
		return nil, ErrEngineRequired
	}
	handle, err := h.Engine.Start(ctx, domainbooking.Request{
		ListingID:    cmd.ListingID,
		GuestID:      cmd.GuestID,
		CheckIn:      cmd.CheckIn,
		CheckOut:     cmd.CheckOut,
		Guests:       cmd.Guests,
		MaxOccupancy: cmd.MaxOccupancy,
		NightlyRate:  cmd.NightlyRate,
	})
	if err != nil {
		return nil, err
	}
	return &StartBookingResult{AttemptID: string(handle.ID)}, nil
}

var _ commands.Handler[StartBookingCommand, *StartBookingResult] = (*StartBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*StartBookingCommand)(nil)
