package pricing

import (
	"errors"
	"testing"
	"time"

	"stayfinder/internal/domain/shared/daterange"
	"stayfinder/internal/domain/shared/money"
)

func stay(t *testing.T, inDay, outDay int) daterange.DateRange {
	t.Helper()
	dr, err := daterange.New(
		time.Date(2025, 12, inDay, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 12, outDay, 0, 0, 0, 0, time.UTC),
	)
	if err != nil {
		t.Fatalf("daterange.New error = %v", err)
	}
	return dr
}

func TestQuote(t *testing.T) {
	dr := stay(t, 1, 5)
	rate := money.Must(150000, "COP")

	priced, err := Quote(dr, rate)
	if err != nil {
		t.Fatalf("Quote() error = %v", err)
	}
	if priced.Nights != 4 {
		t.Errorf("Nights = %d, want 4", priced.Nights)
	}
	if priced.Total.Amount != 600000 {
		t.Errorf("Total = %d, want 600000", priced.Total.Amount)
	}
	if priced.Total.Currency != "COP" {
		t.Errorf("Total currency = %q, want COP", priced.Total.Currency)
	}
}

func TestQuoteIsDeterministic(t *testing.T) {
	dr := stay(t, 10, 13)
	rate := money.Must(98750, "COP")

	first, err := Quote(dr, rate)
	if err != nil {
		t.Fatalf("Quote() error = %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := Quote(dr, rate)
		if err != nil {
			t.Fatalf("Quote() repeat error = %v", err)
		}
		if again != first {
			t.Fatalf("Quote() not deterministic: %+v != %+v", again, first)
		}
	}
}

func TestQuoteTotalGrowsWithNights(t *testing.T) {
	rate := money.Must(150000, "COP")
	prev := int64(0)
	for out := 2; out <= 8; out++ {
		priced, err := Quote(stay(t, 1, out), rate)
		if err != nil {
			t.Fatalf("Quote() error = %v", err)
		}
		if priced.Total.Amount <= prev {
			t.Fatalf("total %d for %d nights not greater than %d", priced.Total.Amount, priced.Nights, prev)
		}
		prev = priced.Total.Amount
	}
}

func TestQuoteZeroRate(t *testing.T) {
	priced, err := Quote(stay(t, 1, 3), money.Must(0, "COP"))
	if err != nil {
		t.Fatalf("Quote() error = %v", err)
	}
	if priced.Total.Amount != 0 {
		t.Errorf("Total = %d, want 0 for free listing", priced.Total.Amount)
	}
}

func TestQuoteRejectsNegativeRate(t *testing.T) {
	if _, err := Quote(stay(t, 1, 3), money.Must(-1, "COP")); !errors.Is(err, ErrNegativeRate) {
		t.Errorf("Quote() error = %v, want ErrNegativeRate", err)
	}
}

func TestQuoteRejectsEmptyRange(t *testing.T) {
	if _, err := Quote(daterange.DateRange{}, money.Must(100, "COP")); !errors.Is(err, ErrEmptyRange) {
		t.Errorf("Quote() error = %v, want ErrEmptyRange", err)
	}
}
