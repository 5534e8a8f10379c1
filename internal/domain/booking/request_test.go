package booking

import (
	"testing"
	"time"

	"stayfinder/internal/domain/shared/money"
)

var today = time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC)

func validRequest() Request {
	return Request{
		ListingID:    "listing-1",
		GuestID:      "guest-1",
		CheckIn:      time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
		CheckOut:     time.Date(2025, 12, 5, 0, 0, 0, 0, time.UTC),
		Guests:       2,
		MaxOccupancy: 4,
		NightlyRate:  money.Must(150000, "COP"),
	}
}

func TestValidateRequestAccepts(t *testing.T) {
	dr, verr := ValidateRequest(validRequest(), Rules{Today: today})
	if verr != nil {
		t.Fatalf("ValidateRequest() rejected valid request: %v", verr)
	}
	if dr.Nights() != 4 {
		t.Errorf("Nights = %d, want 4", dr.Nights())
	}
}

func TestValidateRequestRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Request)
		rules  Rules
		want   ValidationCode
	}{
		{
			name:   "missing check-in",
			mutate: func(r *Request) { r.CheckIn = time.Time{} },
			rules:  Rules{Today: today},
			want:   CodeMalformedDate,
		},
		{
			name:   "missing check-out",
			mutate: func(r *Request) { r.CheckOut = time.Time{} },
			rules:  Rules{Today: today},
			want:   CodeMalformedDate,
		},
		{
			name:   "check-in in the past",
			mutate: func(r *Request) { r.CheckIn = today.AddDate(0, 0, -1) },
			rules:  Rules{Today: today},
			want:   CodeCheckInInPast,
		},
		{
			name: "inverted range",
			mutate: func(r *Request) {
				r.CheckIn = time.Date(2025, 12, 5, 0, 0, 0, 0, time.UTC)
				r.CheckOut = time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
			},
			rules: Rules{Today: today},
			want:  CodeInvertedOrEmptyRange,
		},
		{
			name: "zero-night stay",
			mutate: func(r *Request) {
				r.CheckOut = r.CheckIn
			},
			rules: Rules{Today: today},
			want:  CodeInvertedOrEmptyRange,
		},
		{
			name:   "stay too long",
			mutate: func(r *Request) { r.CheckOut = r.CheckIn.AddDate(0, 0, 31) },
			rules:  Rules{Today: today, MaxStayNights: 30},
			want:   CodeStayTooLong,
		},
		{
			name:   "too many guests",
			mutate: func(r *Request) { r.Guests = 5 },
			rules:  Rules{Today: today},
			want:   CodeGuestsExceedCapacity,
		},
		{
			name:   "zero guests",
			mutate: func(r *Request) { r.Guests = 0 },
			rules:  Rules{Today: today},
			want:   CodeGuestsExceedCapacity,
		},
		{
			name:   "negative rate",
			mutate: func(r *Request) { r.NightlyRate = money.Must(-1, "COP") },
			rules:  Rules{Today: today},
			want:   CodeInvalidRate,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			_, verr := ValidateRequest(req, tt.rules)
			if verr == nil {
				t.Fatal("ValidateRequest() accepted invalid request")
			}
			if verr.Code != tt.want {
				t.Errorf("code = %s, want %s", verr.Code, tt.want)
			}
		})
	}
}

// A request failing several rules at once reports only the first one in
// evaluation order.
func TestValidateRequestFirstFailureWins(t *testing.T) {
	req := validRequest()
	req.CheckIn = today.AddDate(0, 0, -3)
	req.CheckOut = today.AddDate(0, 0, -5)
	req.Guests = 99

	_, verr := ValidateRequest(req, Rules{Today: today})
	if verr == nil {
		t.Fatal("ValidateRequest() accepted invalid request")
	}
	if verr.Code != CodeCheckInInPast {
		t.Errorf("code = %s, want %s", verr.Code, CodeCheckInInPast)
	}
}

func TestValidateRequestCheckInTodayAccepted(t *testing.T) {
	req := validRequest()
	req.CheckIn = today
	req.CheckOut = today.AddDate(0, 0, 2)

	if _, verr := ValidateRequest(req, Rules{Today: today}); verr != nil {
		t.Errorf("same-day check-in rejected: %v", verr)
	}
}

func TestValidateRequestDefaultMaxStay(t *testing.T) {
	req := validRequest()
	req.CheckOut = req.CheckIn.AddDate(0, 0, DefaultMaxStayNights+1)

	_, verr := ValidateRequest(req, Rules{Today: today})
	if verr == nil || verr.Code != CodeStayTooLong {
		t.Errorf("got %v, want %s via default limit", verr, CodeStayTooLong)
	}
}
