// Package catalog holds the static inputs of a scan run — the ordered
// symbol universe and expiry set — and the mutable per-(expiry,symbol)
// record board the pipeline stages write into.
package catalog

import (
	"fmt"
	"time"

	"github.com/bighouse/optrate/pkg/reqid"
)

const expiryLayout = "20060102"

// ExpirySet is the ordered, immutable list of option expiration dates.
type ExpirySet struct {
	dates []string
	times []time.Time
}

// NewExpirySet parses yyyymmdd date strings into an ordered set.
func NewExpirySet(dates []string) (*ExpirySet, error) {
	if len(dates) == 0 {
		return nil, fmt.Errorf("expiry set is empty")
	}
	times := make([]time.Time, len(dates))
	for i, d := range dates {
		t, err := time.ParseInLocation(expiryLayout, d, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("invalid expiry %q: %w", d, err)
		}
		times[i] = t
	}
	return &ExpirySet{dates: dates, times: times}, nil
}

func (e *ExpirySet) Count() int             { return len(e.dates) }
func (e *ExpirySet) At(i int) string        { return e.dates[i] }
func (e *ExpirySet) TimeAt(i int) time.Time { return e.times[i] }

// SymbolUniverse is the ordered, immutable ticker catalog. Its size is
// capped by the id-encoding scheme.
type SymbolUniverse struct {
	symbols []string
}

func NewSymbolUniverse(symbols []string) (*SymbolUniverse, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("symbol universe is empty")
	}
	if len(symbols) > reqid.MaxSymbols {
		return nil, fmt.Errorf("symbol universe holds %d symbols, id scheme supports at most %d",
			len(symbols), reqid.MaxSymbols)
	}
	return &SymbolUniverse{symbols: symbols}, nil
}

func (u *SymbolUniverse) Count() int      { return len(u.symbols) }
func (u *SymbolUniverse) At(i int) string { return u.symbols[i] }
