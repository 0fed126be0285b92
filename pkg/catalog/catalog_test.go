package catalog

import (
	"strconv"
	"testing"
	"time"

	"github.com/bighouse/optrate/pkg/reqid"
)

func TestExpirySetParsesDates(t *testing.T) {
	set, err := NewExpirySet([]string{"20220819", "20230120"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.Count() != 2 {
		t.Errorf("expected 2 expiries, got %d", set.Count())
	}
	if set.At(1) != "20230120" {
		t.Errorf("expected 20230120, got %s", set.At(1))
	}
	want := time.Date(2022, 8, 19, 0, 0, 0, 0, time.UTC)
	if !set.TimeAt(0).Equal(want) {
		t.Errorf("expected %v, got %v", want, set.TimeAt(0))
	}
}

func TestExpirySetRejectsBadInput(t *testing.T) {
	if _, err := NewExpirySet(nil); err == nil {
		t.Error("expected error for empty set")
	}
	if _, err := NewExpirySet([]string{"2022-08-19"}); err == nil {
		t.Error("expected error for wrong date layout")
	}
}

func TestSymbolUniverseBounds(t *testing.T) {
	u, err := NewSymbolUniverse([]string{"GOOG", "BLUE"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Count() != 2 || u.At(0) != "GOOG" {
		t.Errorf("unexpected universe contents: count=%d at0=%s", u.Count(), u.At(0))
	}

	big := make([]string, reqid.MaxSymbols+1)
	for i := range big {
		big[i] = "S" + strconv.Itoa(i)
	}
	if _, err := NewSymbolUniverse(big); err == nil {
		t.Errorf("expected error for universe above %d symbols", reqid.MaxSymbols)
	}
}

func TestScanRecordFlagsAreMonotonic(t *testing.T) {
	board := NewBoard(2, 3)
	rec := board.At(1, 2)
	if rec.StrikeChosen() || rec.RateWritten() {
		t.Error("expected fresh record with both flags unset")
	}
	rec.MarkStrikeChosen()
	rec.MarkRateWritten()
	if !rec.StrikeChosen() || !rec.RateWritten() {
		t.Error("expected both flags set after marking")
	}
	// Cells are distinct.
	if board.At(0, 0).StrikeChosen() {
		t.Error("expected neighboring record to be untouched")
	}
}
