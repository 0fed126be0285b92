package ratemath

import (
	"math"
	"testing"
	"time"
)

func TestDiscretizeTargetTierBoundaries(t *testing.T) {
	cases := []struct {
		price float64
		want  float64
	}{
		{1000.0, 1000.0}, // exact boundary lands on the 50 grid
		{999.99, 1000.0}, // just below: 20 grid, rounds up
		{500.0, 500.0},
		{499.0, 500.0}, // 10 grid
		{200.0, 200.0},
		{104.4, 105.0}, // 5 grid
		{102.4, 100.0},
		{80.0, 80.0},
		{79.0, 80.0}, // 2.5 grid
		{51.2, 50.0},
		{22.4, 22.0}, // 1 grid
		{20.0, 20.0},
		{19.8, 20.0}, // 0.5 grid
		{0.2, 0.0},
		{0.3, 0.5},
	}
	for _, c := range cases {
		got := DiscretizeTarget(c.price)
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("DiscretizeTarget(%v): expected %v, got %v", c.price, c.want, got)
		}
	}
}

func TestDiscretizeTargetHalfRoundsUp(t *testing.T) {
	// 990 sits exactly on the half of the 20-tick grid (980 + 10).
	if got := DiscretizeTarget(990.0); got != 1000.0 {
		t.Errorf("expected exact half to round up to 1000, got %v", got)
	}
	if got := DiscretizeTarget(102.5); got != 105.0 {
		t.Errorf("expected exact half to round up to 105, got %v", got)
	}
}

func TestDiscretizeTargetIdempotent(t *testing.T) {
	for _, price := range []float64{0.7, 13.3, 21.4, 52.9, 79.9, 104.4, 317.0, 640.0, 1033.0} {
		once := DiscretizeTarget(price)
		twice := DiscretizeTarget(once)
		if math.Abs(once-twice) > 1e-9 {
			t.Errorf("DiscretizeTarget not idempotent at %v: %v then %v", price, once, twice)
		}
	}
}

func TestSelectStrike(t *testing.T) {
	catalog := []float64{50, 55, 60}

	strike, ok := SelectStrike(52, catalog)
	if !ok || strike != 55 {
		t.Errorf("expected (55, true), got (%v, %v)", strike, ok)
	}

	strike, ok = SelectStrike(50, catalog)
	if !ok || strike != 50 {
		t.Errorf("expected (50, true), got (%v, %v)", strike, ok)
	}

	if _, ok := SelectStrike(61, catalog); ok {
		t.Error("expected no selection when target exceeds every entry")
	}
	if _, ok := SelectStrike(52, nil); ok {
		t.Error("expected no selection from an empty catalog")
	}
}

func TestDaysToExpiry(t *testing.T) {
	today := time.Date(2022, 7, 30, 9, 13, 0, 0, time.UTC)
	expiry := time.Date(2022, 8, 19, 0, 0, 0, 0, time.UTC)
	if got := DaysToExpiry(today, expiry); got != 21 {
		t.Errorf("expected 21 days (20 whole days + settlement bias), got %d", got)
	}
	if got := DaysToExpiry(today, today); got != 1 {
		t.Errorf("expected same-day count of 1, got %d", got)
	}
}

func TestAnnualizedRate(t *testing.T) {
	rate, ok := AnnualizedRate(110, 100, 30)
	if !ok {
		t.Fatal("expected rate to be computable")
	}
	// spread=10, ratio=10, 10*365/30*100
	want := 100.0 / 10.0 * 365 / 30 * 100
	if math.Abs(rate-want) > 1e-9 {
		t.Errorf("expected %v, got %v", want, rate)
	}

	if _, ok := AnnualizedRate(100, 100, 30); ok {
		t.Error("expected zero spread to be not computable")
	}
	if _, ok := AnnualizedRate(110, 100, 0); ok {
		t.Error("expected zero days to be not computable")
	}
}
