package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"stayfinder/internal/app/policies"
	"stayfinder/internal/domain/shared/money"
)

// ReservationsClient creates reservations in the external reservation
// service. A rejected request surfaces the service's machine-readable reason
// as policies.ReservationDeclinedError.
type ReservationsClient struct {
	Client  *http.Client
	BaseURL string
	Logger  *slog.Logger
}

type createReservationRequest struct {
	ListingID  string `json:"listing_id"`
	UserID     string `json:"user_id"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
	GuestCount int    `json:"guest_count"`
	TotalPrice int64  `json:"total_price"`
	Currency   string `json:"currency"`
}

type createReservationResponse struct {
	ReservationID string `json:"reservation_id"`
	TotalPrice    int64  `json:"total_price"`
	Currency      string `json:"currency"`
	Status        string `json:"status"`
}

func (c *ReservationsClient) Create(ctx context.Context, req policies.ReservationRequest) (policies.ReservationConfirmation, error) {
	var zero policies.ReservationConfirmation
	if c == nil || c.Client == nil || c.BaseURL == "" {
		return zero, errors.New("clients: reservations client not configured")
	}

	body, err := json.Marshal(createReservationRequest{
		ListingID:  req.ListingID,
		UserID:     req.GuestID,
		CheckIn:    req.Range.CheckIn.Format("2006-01-02"),
		CheckOut:   req.Range.CheckOut.Format("2006-01-02"),
		GuestCount: req.Guests,
		TotalPrice: req.Total.Amount,
		Currency:   req.Total.Currency,
	})
	if err != nil {
		return zero, err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/reservations", bytes.NewReader(body))
	if err != nil {
		return zero, err
	}
	request.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(request)
	if err != nil {
		c.logError("reservation request failed", req.ListingID, err)
		return zero, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		reason := readErrorReason(resp)
		c.logError("reservation declined", req.ListingID, errors.New(reason))
		return zero, &policies.ReservationDeclinedError{Reason: reason}
	}

	var payload createReservationResponse
	if err := decodeJSON(resp, &payload); err != nil {
		c.logError("reservation decode failed", req.ListingID, err)
		return zero, err
	}
	if payload.ReservationID == "" {
		return zero, &policies.ReservationDeclinedError{Reason: "reservation service returned no reservation id"}
	}

	total := req.Total
	if payload.TotalPrice > 0 {
		currency := payload.Currency
		if currency == "" {
			currency = req.Total.Currency
		}
		total = money.Money{Amount: payload.TotalPrice, Currency: currency}
	}
	return policies.ReservationConfirmation{
		ReservationID: payload.ReservationID,
		Status:        payload.Status,
		Total:         total,
	}, nil
}

func (c *ReservationsClient) logError(msg, listingID string, err error) {
	if c.Logger == nil {
		return
	}
	c.Logger.Error(msg, "listing_id", listingID, "error", err)
}

var _ policies.ReservationsPort = (*ReservationsClient)(nil)
