package policies

import (
	"context"
	"fmt"

	"stayfinder/internal/domain/shared/money"
)

type PaymentRequest struct {
	ReservationID string
	Amount        money.Money
	Method        string
}

type PaymentConfirmation struct {
	PaymentID string
	Status    string
}

// PaymentDeclinedError carries the payment service's machine-readable reason.
type PaymentDeclinedError struct {
	Reason string
}

func (e *PaymentDeclinedError) Error() string {
	return fmt.Sprintf("policies: payment declined: %s", e.Reason)
}

type PaymentsPort interface {
	Initiate(ctx context.Context, req PaymentRequest) (PaymentConfirmation, error)
}
