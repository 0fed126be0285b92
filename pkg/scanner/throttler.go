package scanner

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/bighouse/optrate/pkg/feed"
	"github.com/bighouse/optrate/pkg/reqid"
)

// runExpiry iterates the catalogued slice of the universe in fixed-size
// batches of underlying subscriptions. Each batch gets one settle window
// for quotes to arrive, then a forced flush and teardown. The batch
// ceiling is the feed's concurrent-line limit; symbols that stay silent
// through their window are dropped for the run.
func (s *Scanner) runExpiry(ctx context.Context, expiryIdx int) error {
	expiry := s.expiries.At(expiryIdx)
	log := s.logger.WithField("expiry", expiry)

	if err := s.store.EnsureExpiryDirs(expiry); err != nil {
		log.WithError(err).Error("Failed to prepare expiry directories, skipping expiry")
		return nil
	}

	// Only symbols the bootstrap has catalogued are worth scanning.
	limit := min(s.universe.Count(), s.store.ReadIndex(expiry))
	if limit == 0 {
		log.Warn("No catalogued symbols for expiry, skipping")
		return nil
	}
	log.WithField("symbols", limit).Info("Scanning expiry")

	for k := 0; k < limit; k++ {
		rec := s.board.At(expiryIdx, k)
		rec.RequestedAt = s.now()

		id := reqid.Encode(reqid.PhaseUnderlying, expiryIdx, k)
		if err := s.feed.SubscribeMarketData(id, feed.Stock(s.universe.At(k))); err != nil {
			log.WithError(err).WithField("symbol", s.universe.At(k)).Error("Failed to subscribe underlying")
			continue
		}
		s.metrics.SubscriptionsOpened.WithLabelValues(reqid.PhaseUnderlying.String()).Inc()

		if (k+1)%s.batchSize == 0 {
			if err := s.settleAndTearDown(ctx, expiryIdx, k-s.batchSize+1, k); err != nil {
				return err
			}
		}
	}
	if rem := limit % s.batchSize; rem != 0 {
		if err := s.settleAndTearDown(ctx, expiryIdx, limit-rem, limit-1); err != nil {
			return err
		}
	}
	return nil
}

// settleAndTearDown waits out the settle window, forces a rate write for
// every record that chose a strike but saw no last trade, then cancels
// the batch's underlying subscriptions. Option legs stay open; they are
// cancelled by the rate stage when their terminal tick arrives.
func (s *Scanner) settleAndTearDown(ctx context.Context, expiryIdx, lo, hi int) error {
	if err := s.settleWait(ctx); err != nil {
		return err
	}

	cmd := flushCommand{expiryIdx: expiryIdx, lo: lo, hi: hi, done: make(chan struct{})}
	select {
	case s.commands <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-cmd.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	for k := hi; k >= lo; k-- {
		id := reqid.Encode(reqid.PhaseUnderlying, expiryIdx, k)
		if err := s.feed.CancelMarketData(id); err != nil {
			s.logger.WithError(err).WithField("req_id", id).Error("Failed to cancel subscription")
		}
		s.metrics.SubscriptionsCancelled.WithLabelValues(reqid.PhaseUnderlying.String()).Inc()
		if !s.board.At(expiryIdx, k).RateWritten() {
			s.metrics.SymbolsSkipped.Inc()
		}
	}
	return nil
}

// flushRange runs on the dispatch goroutine. A record with a chosen
// strike, observed bid and ask, and no written rate gets one computed
// from the midpoint before its batch is torn down.
func (s *Scanner) flushRange(expiryIdx, lo, hi int) {
	for k := lo; k <= hi; k++ {
		rec := s.board.At(expiryIdx, k)
		if !rec.StrikeChosen() || rec.RateWritten() {
			continue
		}
		if rec.Bid <= 0 || rec.Ask <= 0 {
			s.logger.WithFields(logrus.Fields{
				"expiry": s.expiries.At(expiryIdx),
				"symbol": s.universe.At(k),
			}).Debug("No usable option quote before teardown")
			continue
		}
		s.writeRate(expiryIdx, k, (rec.Bid+rec.Ask)/2)
	}
}
