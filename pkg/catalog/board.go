package catalog

import (
	"sync/atomic"
	"time"
)

// ScanRecord is the mutable cell for one (expiry, symbol) pair. Price and
// strike fields are written only by the single event-dispatch goroutine.
// RequestedAt is stamped once by the batch loop before the underlying
// subscription opens and never touched again. The two completion flags
// flip false→true exactly once and are atomic because the batch loop
// polls them from another goroutine.
type ScanRecord struct {
	LastPrice   float64
	Strike      float64
	Bid         float64
	Ask         float64
	RequestedAt time.Time

	strikeChosen atomic.Bool
	rateWritten  atomic.Bool
}

func (r *ScanRecord) StrikeChosen() bool { return r.strikeChosen.Load() }
func (r *ScanRecord) MarkStrikeChosen()  { r.strikeChosen.Store(true) }
func (r *ScanRecord) RateWritten() bool  { return r.rateWritten.Load() }
func (r *ScanRecord) MarkRateWritten()   { r.rateWritten.Store(true) }

// Board owns the full record grid for a run, sized once at start and
// never resized. Cells live for the process lifetime.
type Board struct {
	records [][]ScanRecord
}

func NewBoard(expiries, symbols int) *Board {
	records := make([][]ScanRecord, expiries)
	for i := range records {
		records[i] = make([]ScanRecord, symbols)
	}
	return &Board{records: records}
}

func (b *Board) At(expiryIdx, symbolIdx int) *ScanRecord {
	return &b.records[expiryIdx][symbolIdx]
}
