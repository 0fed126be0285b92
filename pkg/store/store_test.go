package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func newTestStore(t *testing.T) *ResultStore {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.ErrorLevel)
	s := NewResultStore(t.TempDir(), logger)
	s.now = func() time.Time { return time.Date(2022, 8, 1, 10, 0, 0, 0, time.UTC) }
	return s
}

func TestAppendRateWritesBothDestinations(t *testing.T) {
	s := newTestStore(t)
	if err := s.EnsureExpiryDirs("20220819"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.AppendRate("20220819", "GOOG", 110, 86.904761904761); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.AppendRate("20220819", "BLUE", 7.5, 12.3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "GOOG,110,86.90\nBLUE,7.5,12.30\n"

	data, err := os.ReadFile(filepath.Join(s.root, "期权利率_20220819.txt"))
	if err != nil {
		t.Fatalf("rate file missing: %v", err)
	}
	if string(data) != want {
		t.Errorf("rate file: expected %q, got %q", want, string(data))
	}

	snap, err := os.ReadFile(filepath.Join(s.root, "利率", "20220819", "20220819_20220801.txt"))
	if err != nil {
		t.Fatalf("snapshot file missing: %v", err)
	}
	if string(snap) != want {
		t.Errorf("snapshot file: expected %q, got %q", want, string(snap))
	}
}

func TestIndexRoundTrip(t *testing.T) {
	s := newTestStore(t)
	if err := s.EnsureExpiryDirs("20230120"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := s.ReadIndex("20230120"); got != 0 {
		t.Errorf("expected missing cursor to read 0, got %d", got)
	}
	if err := s.WriteIndex("20230120", 37); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.ReadIndex("20230120"); got != 37 {
		t.Errorf("expected 37, got %d", got)
	}
}

func TestReadIndexGarbledFile(t *testing.T) {
	s := newTestStore(t)
	if err := s.EnsureExpiryDirs("20230120"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	path := filepath.Join(s.root, "20230120", "索引.txt")
	if err := os.WriteFile(path, []byte("not a number"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := s.ReadIndex("20230120"); got != 0 {
		t.Errorf("expected garbled cursor to read 0, got %d", got)
	}
}

func TestStrikeFileLifecycle(t *testing.T) {
	s := newTestStore(t)
	if err := s.EnsureExpiryDirs("20220819"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Missing file reads as no data.
	strikes, err := s.ReadStrikes("20220819", "GOOG")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(strikes) != 0 {
		t.Errorf("expected no strikes, got %v", strikes)
	}

	if err := s.EnsureStrikeFile("20220819", "GOOG"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, v := range []float64{110, 100, 105} {
		if err := s.AppendStrike("20220819", "GOOG", v); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	strikes, err = s.ReadStrikes("20220819", "GOOG")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{100, 105, 110}
	if len(strikes) != len(want) {
		t.Fatalf("expected %v, got %v", want, strikes)
	}
	for i := range want {
		if strikes[i] != want[i] {
			t.Errorf("expected sorted strikes %v, got %v", want, strikes)
			break
		}
	}
}
