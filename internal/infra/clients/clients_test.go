package clients

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stayfinder/internal/app/policies"
	"stayfinder/internal/domain/shared/daterange"
	"stayfinder/internal/domain/shared/money"
)

func testRange(t *testing.T) daterange.DateRange {
	t.Helper()
	dr, err := daterange.New(
		time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 12, 5, 0, 0, 0, 0, time.UTC),
	)
	if err != nil {
		t.Fatal(err)
	}
	return dr
}

func TestAvailabilityClientParsesAnswer(t *testing.T) {
	tests := []struct {
		name string
		body string
		want policies.Availability
	}{
		{"available", `{"available": true}`, policies.Available},
		{"unavailable", `{"available": false}`, policies.Unavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/availability" {
					t.Errorf("path = %s, want /availability", r.URL.Path)
				}
				if got := r.URL.Query().Get("listing_id"); got != "listing-1" {
					t.Errorf("listing_id = %s", got)
				}
				if got := r.URL.Query().Get("check_in"); got != "2025-12-01" {
					t.Errorf("check_in = %s", got)
				}
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := &AvailabilityClient{Client: srv.Client(), BaseURL: srv.URL}
			got, err := client.Check(context.Background(), "listing-1", testRange(t))
			if err != nil {
				t.Fatalf("Check() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Check() = %v, want %v", got, tt.want)
			}
		})
	}
}

// Oracle outages must never read as a definitive "unavailable".
func TestAvailabilityClientMapsFailuresToUnreachable(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		close   bool
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "garbage body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("not json"))
			},
		},
		{
			name:  "connection refused",
			close: true,
			handler: func(w http.ResponseWriter, r *http.Request) {
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			client := &AvailabilityClient{Client: srv.Client(), BaseURL: srv.URL}
			if tt.close {
				srv.Close()
			} else {
				defer srv.Close()
			}

			got, err := client.Check(context.Background(), "listing-1", testRange(t))
			if !errors.Is(err, policies.ErrOracleUnreachable) {
				t.Fatalf("Check() error = %v, want ErrOracleUnreachable", err)
			}
			if got != policies.AvailabilityUnknown {
				t.Errorf("Check() = %v, want AvailabilityUnknown", got)
			}
		})
	}
}

func TestReservationsClientCreate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reservations" || r.Method != http.MethodPost {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"reservation_id": "res-42", "total_price": 600000, "currency": "COP", "status": "PENDING"}`))
	}))
	defer srv.Close()

	client := &ReservationsClient{Client: srv.Client(), BaseURL: srv.URL}
	confirmation, err := client.Create(context.Background(), policies.ReservationRequest{
		ListingID: "listing-1",
		GuestID:   "guest-1",
		Range:     testRange(t),
		Guests:    2,
		Total:     money.Must(600000, "COP"),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if confirmation.ReservationID != "res-42" {
		t.Errorf("ReservationID = %s, want res-42", confirmation.ReservationID)
	}
	if confirmation.Total.Amount != 600000 {
		t.Errorf("Total = %d, want 600000", confirmation.Total.Amount)
	}
}

func TestReservationsClientSurfacesDeclineReason(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"reason": "dates taken"}`))
	}))
	defer srv.Close()

	client := &ReservationsClient{Client: srv.Client(), BaseURL: srv.URL}
	_, err := client.Create(context.Background(), policies.ReservationRequest{Total: money.Must(1, "COP")})

	var declined *policies.ReservationDeclinedError
	if !errors.As(err, &declined) {
		t.Fatalf("Create() error = %v, want ReservationDeclinedError", err)
	}
	if declined.Reason != "dates taken" {
		t.Errorf("Reason = %q, want dates taken", declined.Reason)
	}
}

func TestReservationsClientRejectsEmptyID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "PENDING"}`))
	}))
	defer srv.Close()

	client := &ReservationsClient{Client: srv.Client(), BaseURL: srv.URL}
	_, err := client.Create(context.Background(), policies.ReservationRequest{Total: money.Must(1, "COP")})

	var declined *policies.ReservationDeclinedError
	if !errors.As(err, &declined) {
		t.Fatalf("Create() error = %v, want ReservationDeclinedError for missing id", err)
	}
}

func TestPaymentsClientInitiate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/payments" || r.Method != http.MethodPost {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"payment_id": "pay-7", "status": "APPROVED"}`))
	}))
	defer srv.Close()

	client := &PaymentsClient{Client: srv.Client(), BaseURL: srv.URL}
	confirmation, err := client.Initiate(context.Background(), policies.PaymentRequest{
		ReservationID: "res-42",
		Amount:        money.Must(600000, "COP"),
		Method:        "CARD",
	})
	if err != nil {
		t.Fatalf("Initiate() error = %v", err)
	}
	if confirmation.PaymentID != "pay-7" {
		t.Errorf("PaymentID = %s, want pay-7", confirmation.PaymentID)
	}
}

func TestPaymentsClientSurfacesDecline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error": "card declined"}`))
	}))
	defer srv.Close()

	client := &PaymentsClient{Client: srv.Client(), BaseURL: srv.URL}
	_, err := client.Initiate(context.Background(), policies.PaymentRequest{
		ReservationID: "res-42",
		Amount:        money.Must(600000, "COP"),
		Method:        "CARD",
	})

	var declined *policies.PaymentDeclinedError
	if !errors.As(err, &declined) {
		t.Fatalf("Initiate() error = %v, want PaymentDeclinedError", err)
	}
	if declined.Reason != "card declined" {
		t.Errorf("Reason = %q, want card declined", declined.Reason)
	}
}

func TestReadErrorReasonFallbacks(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
		want string
	}{
		{"reason field", `{"reason": "r"}`, 400, "r"},
		{"error field", `{"error": "e"}`, 400, "e"},
		{"plain text", "boom", 400, "boom"},
		{"empty body", "", 503, "service returned status 503"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			resp, err := srv.Client().Get(srv.URL)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if got := readErrorReason(resp); got != tt.want {
				t.Errorf("readErrorReason() = %q, want %q", got, tt.want)
			}
		})
	}
}
