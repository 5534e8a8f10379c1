package clients

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"stayfinder/internal/app/policies"
	"stayfinder/internal/domain/shared/daterange"
)

// AvailabilityClient queries the external availability service. Any transport
// problem, timeout or non-JSON reply maps to policies.ErrOracleUnreachable so
// the engine never mistakes an outage for a definitive "unavailable".
type AvailabilityClient struct {
	Client  *http.Client
	BaseURL string
	Logger  *slog.Logger
}

type availabilityResponse struct {
	Available bool `json:"available"`
}

func (c *AvailabilityClient) Check(ctx context.Context, listingID string, dr daterange.DateRange) (policies.Availability, error) {
	if c == nil || c.Client == nil || c.BaseURL == "" {
		return policies.AvailabilityUnknown, errors.New("clients: availability client not configured")
	}

	query := url.Values{}
	query.Set("listing_id", listingID)
	query.Set("check_in", dr.CheckIn.Format("2006-01-02"))
	query.Set("check_out", dr.CheckOut.Format("2006-01-02"))
	endpoint := fmt.Sprintf("%s/availability?%s", c.BaseURL, query.Encode())

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return policies.AvailabilityUnknown, err
	}

	resp, err := c.Client.Do(request)
	if err != nil {
		c.logError("availability request failed", listingID, err)
		return policies.AvailabilityUnknown, fmt.Errorf("%w: %v", policies.ErrOracleUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		err := fmt.Errorf("availability service returned status %d", resp.StatusCode)
		c.logError("availability returned error", listingID, err)
		return policies.AvailabilityUnknown, fmt.Errorf("%w: %v", policies.ErrOracleUnreachable, err)
	}

	var payload availabilityResponse
	if err := decodeJSON(resp, &payload); err != nil {
		c.logError("availability decode failed", listingID, err)
		return policies.AvailabilityUnknown, fmt.Errorf("%w: %v", policies.ErrOracleUnreachable, err)
	}
	if payload.Available {
		return policies.Available, nil
	}
	return policies.Unavailable, nil
}

func (c *AvailabilityClient) logError(msg, listingID string, err error) {
	if c.Logger == nil {
		return
	}
	c.Logger.Error(msg, "listing_id", listingID, "error", err)
}

var _ policies.AvailabilityPort = (*AvailabilityClient)(nil)
