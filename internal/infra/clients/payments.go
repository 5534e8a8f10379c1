package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"stayfinder/internal/app/policies"
)

// PaymentsClient initiates payments in the external payment service.
type PaymentsClient struct {
	Client  *http.Client
	BaseURL string
	Logger  *slog.Logger
}

type initiatePaymentRequest struct {
	ReservationID string `json:"reservation_id"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	Method        string `json:"method"`
}

type initiatePaymentResponse struct {
	PaymentID string `json:"payment_id"`
	Status    string `json:"status"`
}

func (c *PaymentsClient) Initiate(ctx context.Context, req policies.PaymentRequest) (policies.PaymentConfirmation, error) {
	var zero policies.PaymentConfirmation
	if c == nil || c.Client == nil || c.BaseURL == "" {
		return zero, errors.New("clients: payments client not configured")
	}

	body, err := json.Marshal(initiatePaymentRequest{
		ReservationID: req.ReservationID,
		Amount:        req.Amount.Amount,
		Currency:      req.Amount.Currency,
		Method:        req.Method,
	})
	if err != nil {
		return zero, err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/payments", bytes.NewReader(body))
	if err != nil {
		return zero, err
	}
	request.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(request)
	if err != nil {
		c.logError("payment request failed", req.ReservationID, err)
		return zero, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		reason := readErrorReason(resp)
		c.logError("payment declined", req.ReservationID, errors.New(reason))
		return zero, &policies.PaymentDeclinedError{Reason: reason}
	}

	var payload initiatePaymentResponse
	if err := decodeJSON(resp, &payload); err != nil {
		c.logError("payment decode failed", req.ReservationID, err)
		return zero, err
	}
	if payload.PaymentID == "" {
		return zero, &policies.PaymentDeclinedError{Reason: "payment service returned no payment id"}
	}
	return policies.PaymentConfirmation{PaymentID: payload.PaymentID, Status: payload.Status}, nil
}

func (c *PaymentsClient) logError(msg, reservationID string, err error) {
	if c.Logger == nil {
		return
	}
	c.Logger.Error(msg, "reservation_id", reservationID, "error", err)
}

var _ policies.PaymentsPort = (*PaymentsClient)(nil)
