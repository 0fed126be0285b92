// Package scanner drives the implied-option-rate scan: batches of
// underlying subscriptions, strike discovery from live prices, and rate
// computation from option quotes. All feed events funnel through one
// dispatch goroutine, which is the only writer of scan records.
package scanner

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bighouse/optrate/internal/metrics"
	"github.com/bighouse/optrate/pkg/catalog"
	"github.com/bighouse/optrate/pkg/feed"
	"github.com/bighouse/optrate/pkg/ratemath"
	"github.com/bighouse/optrate/pkg/reqid"
	"github.com/bighouse/optrate/pkg/store"
)

type Scanner struct {
	feed     feed.Client
	universe *catalog.SymbolUniverse
	expiries *catalog.ExpirySet
	board    *catalog.Board
	store    *store.ResultStore
	logger   *logrus.Logger
	metrics  *metrics.Metrics

	batchSize int
	settle    time.Duration

	commands chan flushCommand

	// Injection points for tests; production uses the defaults.
	now        func() time.Time
	settleWait func(ctx context.Context) error
}

// flushCommand asks the dispatch goroutine to force-write rates for a
// batch slice before teardown. done is closed when the flush finishes.
type flushCommand struct {
	expiryIdx int
	lo, hi    int
	done      chan struct{}
}

func New(client feed.Client, universe *catalog.SymbolUniverse, expiries *catalog.ExpirySet,
	st *store.ResultStore, logger *logrus.Logger, m *metrics.Metrics,
	batchSize int, settle time.Duration) *Scanner {

	s := &Scanner{
		feed:      client,
		universe:  universe,
		expiries:  expiries,
		board:     catalog.NewBoard(expiries.Count(), universe.Count()),
		store:     st,
		logger:    logger,
		metrics:   m,
		batchSize: batchSize,
		settle:    settle,
		commands:  make(chan flushCommand),
		now:       time.Now,
	}
	s.settleWait = func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.settle):
			return nil
		}
	}
	return s
}

// Run scans every expiry in order. It returns when all expiries have
// been processed or the context is cancelled; per-symbol failures never
// abort the run.
func (s *Scanner) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.dispatch(ctx)
	}()

	var runErr error
	for e := 0; e < s.expiries.Count(); e++ {
		if err := s.runExpiry(ctx, e); err != nil {
			runErr = err
			break
		}
	}

	cancel()
	<-done
	return runErr
}

// dispatch is the single consumer of feed events and flush commands.
// Because every record mutation happens here, the stages need no locks.
func (s *Scanner) dispatch(ctx context.Context) {
	events := s.feed.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-s.commands:
			s.flushRange(cmd.expiryIdx, cmd.lo, cmd.hi)
			close(cmd.done)
		case ev, ok := <-events:
			if !ok {
				// No more ticks will arrive, but the batch loop still
				// needs its flush commands served to finish teardown.
				s.logger.Warn("Feed event stream closed")
				events = nil
				continue
			}
			s.handleEvent(ev)
		}
	}
}

func (s *Scanner) handleEvent(ev feed.Event) {
	switch ev.Type {
	case feed.EventError:
		s.metrics.FeedErrors.Inc()
		s.logger.WithFields(logrus.Fields{
			"req_id": ev.ReqID,
			"code":   ev.Code,
		}).Warn(ev.Msg)
	case feed.EventTick:
		phase, expiryIdx, symbolIdx := reqid.Decode(ev.ReqID)
		if expiryIdx >= s.expiries.Count() || symbolIdx >= s.universe.Count() {
			s.logger.WithField("req_id", ev.ReqID).Warn("Tick for unknown subscription")
			return
		}
		if phase == reqid.PhaseUnderlying {
			s.handleUnderlyingTick(ev, expiryIdx, symbolIdx)
		} else {
			s.handleOptionTick(ev, expiryIdx, symbolIdx)
		}
	}
	// Contract-detail events belong to the bootstrap phase and are
	// ignored if one straggles in during the scan.
}

// writeRate computes and persists the annualized rate for one record.
// Returns false when the rate is not computable (zero spread or a
// same-day expiry), in which case nothing is written.
func (s *Scanner) writeRate(expiryIdx, symbolIdx int, price float64) bool {
	rec := s.board.At(expiryIdx, symbolIdx)
	expiry := s.expiries.At(expiryIdx)
	symbol := s.universe.At(symbolIdx)

	days := ratemath.DaysToExpiry(s.now(), s.expiries.TimeAt(expiryIdx))
	rate, ok := ratemath.AnnualizedRate(rec.Strike, price, days)
	if !ok {
		s.logger.WithFields(logrus.Fields{
			"expiry": expiry,
			"symbol": symbol,
			"strike": rec.Strike,
			"price":  price,
		}).Warn("Rate not computable")
		return false
	}

	if err := s.store.AppendRate(expiry, symbol, rec.Strike, rate); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"expiry": expiry,
			"symbol": symbol,
		}).Error("Failed to persist rate")
		return false
	}

	rec.MarkRateWritten()
	s.metrics.RatesWritten.Inc()
	s.logger.WithFields(logrus.Fields{
		"expiry": expiry,
		"symbol": symbol,
		"strike": rec.Strike,
		"rate":   rate,
	}).Info("Rate written")
	return true
}

// ExpiryProgress is a point-in-time view of one expiry's scan state.
type ExpiryProgress struct {
	Expiry        string `json:"expiry"`
	Catalogued    int    `json:"catalogued"`
	StrikesChosen int    `json:"strikes_chosen"`
	RatesWritten  int    `json:"rates_written"`
}

// Progress reports per-expiry completion counts. Safe to call from any
// goroutine; it only reads the resume cursors and the atomic flags.
func (s *Scanner) Progress() []ExpiryProgress {
	out := make([]ExpiryProgress, s.expiries.Count())
	for e := range out {
		p := ExpiryProgress{
			Expiry:     s.expiries.At(e),
			Catalogued: min(s.store.ReadIndex(s.expiries.At(e)), s.universe.Count()),
		}
		for k := 0; k < s.universe.Count(); k++ {
			rec := s.board.At(e, k)
			if rec.StrikeChosen() {
				p.StrikesChosen++
			}
			if rec.RateWritten() {
				p.RatesWritten++
			}
		}
		out[e] = p
	}
	return out
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
