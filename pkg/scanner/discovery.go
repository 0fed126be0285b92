package scanner

import (
	"github.com/sirupsen/logrus"

	"github.com/bighouse/optrate/pkg/feed"
	"github.com/bighouse/optrate/pkg/ratemath"
	"github.com/bighouse/optrate/pkg/reqid"
)

// handleUnderlyingTick is the strike-discovery stage. A last-trade on an
// underlying leg picks a target strike from the spot price and, when a
// catalogued strike qualifies, opens the option leg. Duplicate last
// trades after the strike is chosen are no-ops.
func (s *Scanner) handleUnderlyingTick(ev feed.Event, expiryIdx, symbolIdx int) {
	if ev.Field != feed.TickLast {
		return
	}

	rec := s.board.At(expiryIdx, symbolIdx)
	rec.LastPrice = ev.Price
	if rec.StrikeChosen() {
		return
	}

	expiry := s.expiries.At(expiryIdx)
	symbol := s.universe.At(symbolIdx)
	log := s.logger.WithFields(logrus.Fields{"expiry": expiry, "symbol": symbol})

	strikes, err := s.store.ReadStrikes(expiry, symbol)
	if err != nil {
		log.WithError(err).Warn("Failed to read strike catalog")
		return
	}
	if len(strikes) == 0 {
		return
	}

	target := ratemath.DiscretizeTarget(0.9 * ev.Price)
	strike, ok := ratemath.SelectStrike(target, strikes)
	if !ok {
		log.WithField("target", target).Debug("No catalogued strike at or above target")
		return
	}
	rec.Strike = strike

	// A strike above spot is priced unfavorably for this scan; record
	// it but never open the option leg.
	if strike > ev.Price {
		log.WithFields(logrus.Fields{"strike": strike, "price": ev.Price}).Debug("Strike above spot, skipping")
		return
	}

	optID := reqid.Encode(reqid.PhaseOption, expiryIdx, symbolIdx)
	if err := s.feed.SubscribeMarketData(optID, feed.Option(symbol, expiry, strike)); err != nil {
		log.WithError(err).Error("Failed to subscribe option leg")
		return
	}
	rec.MarkStrikeChosen()
	s.metrics.SubscriptionsOpened.WithLabelValues(reqid.PhaseOption.String()).Inc()
	log.WithField("strike", strike).Info("Strike chosen")
}
