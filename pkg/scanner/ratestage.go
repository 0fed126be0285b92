package scanner

import (
	"github.com/bighouse/optrate/pkg/feed"
	"github.com/bighouse/optrate/pkg/reqid"
)

// handleOptionTick is the rate-computation stage. Bid and ask are
// retained for the end-of-batch midpoint flush; a last trade is terminal
// and writes the rate immediately; a close is teardown without a result.
// Negative prices mean "no quote" and are discarded.
func (s *Scanner) handleOptionTick(ev feed.Event, expiryIdx, symbolIdx int) {
	rec := s.board.At(expiryIdx, symbolIdx)

	switch ev.Field {
	case feed.TickBid:
		if ev.Price >= 0 {
			rec.Bid = ev.Price
		}
	case feed.TickAsk:
		if ev.Price >= 0 {
			rec.Ask = ev.Price
		}
	case feed.TickLast:
		if rec.RateWritten() {
			// Duplicate terminal tick; the result line is already on
			// disk and must not repeat.
			return
		}
		if !rec.StrikeChosen() {
			s.logger.WithField("req_id", ev.ReqID).Warn("Option tick without a chosen strike")
			return
		}
		s.writeRate(expiryIdx, symbolIdx, ev.Price)
		s.cancelOption(ev.ReqID)
	case feed.TickClose:
		// Market closed before a usable quote arrived.
		s.cancelOption(ev.ReqID)
	}
}

func (s *Scanner) cancelOption(id int) {
	if err := s.feed.CancelMarketData(id); err != nil {
		s.logger.WithError(err).WithField("req_id", id).Error("Failed to cancel option leg")
		return
	}
	s.metrics.SubscriptionsCancelled.WithLabelValues(reqid.PhaseOption.String()).Inc()
}
