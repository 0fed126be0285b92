// Package bootstrap populates the per-expiry strike catalogs before the
// scan starts: one contract-details request per (expiry, symbol), paced
// to the feed's rate limits, resumable through the persisted cursor.
package bootstrap

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/bighouse/optrate/internal/metrics"
	"github.com/bighouse/optrate/pkg/catalog"
	"github.com/bighouse/optrate/pkg/feed"
	"github.com/bighouse/optrate/pkg/reqid"
	"github.com/bighouse/optrate/pkg/store"
)

type Bootstrap struct {
	feed     feed.Client
	universe *catalog.SymbolUniverse
	expiries *catalog.ExpirySet
	store    *store.ResultStore
	logger   *logrus.Logger
	metrics  *metrics.Metrics

	batchSize int
	delay     time.Duration
}

func New(client feed.Client, universe *catalog.SymbolUniverse, expiries *catalog.ExpirySet,
	st *store.ResultStore, logger *logrus.Logger, m *metrics.Metrics,
	batchSize int, delay time.Duration) *Bootstrap {

	return &Bootstrap{
		feed:      client,
		universe:  universe,
		expiries:  expiries,
		store:     st,
		logger:    logger,
		metrics:   m,
		batchSize: batchSize,
		delay:     delay,
	}
}

// Run issues contract-details requests for every uncatalogued symbol,
// one goroutine per expiry, while this goroutine is the single consumer
// of the resulting detail events. It returns once every request has
// been issued and one final delay window has drained stragglers.
func (b *Bootstrap) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for e := 0; e < b.expiries.Count(); e++ {
		wg.Add(1)
		go func(expiryIdx int) {
			defer wg.Done()
			b.requestExpiry(ctx, expiryIdx)
		}(e)
	}

	issued := make(chan struct{})
	go func() {
		wg.Wait()
		close(issued)
	}()

	events := b.feed.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				b.logger.Warn("Feed event stream closed")
				events = nil
				continue
			}
			b.handleEvent(ev)
		case <-issued:
			return b.drain(ctx, events)
		}
	}
}

// drain keeps consuming detail events for one delay window after the
// last request went out; replies after that are lost to this run and
// picked up by the next one through the resume cursor.
func (b *Bootstrap) drain(ctx context.Context, events <-chan feed.Event) error {
	if events == nil {
		return nil
	}
	deadline := time.After(b.delay)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			b.handleEvent(ev)
		case <-deadline:
			return nil
		}
	}
}

// requestExpiry walks the universe from the resume cursor, pre-creating
// each symbol's strike file and requesting its option chain. The limiter
// refills one batch per delay window, preserving the feed's
// N-requests-then-pause pacing as an explicit rate limit.
func (b *Bootstrap) requestExpiry(ctx context.Context, expiryIdx int) {
	expiry := b.expiries.At(expiryIdx)
	log := b.logger.WithField("expiry", expiry)

	if err := b.store.EnsureExpiryDirs(expiry); err != nil {
		log.WithError(err).Error("Failed to prepare expiry directories, skipping expiry")
		return
	}

	start := b.store.ReadIndex(expiry)
	if start >= b.universe.Count() {
		log.Info("Strike catalog already complete")
		return
	}
	log.WithField("resume_at", start).Info("Cataloguing strikes")

	limiter := rate.NewLimiter(rate.Limit(float64(b.batchSize)/b.delay.Seconds()), b.batchSize)
	for k := start; k < b.universe.Count(); k++ {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		symbol := b.universe.At(k)
		if err := b.store.EnsureStrikeFile(expiry, symbol); err != nil {
			log.WithError(err).WithField("symbol", symbol).Error("Failed to create strike file")
		}
		id := reqid.Encode(reqid.PhaseUnderlying, expiryIdx, k)
		if err := b.feed.RequestContractDetails(id, feed.OptionQuery(symbol, expiry)); err != nil {
			log.WithError(err).WithField("symbol", symbol).Error("Failed to request contract details")
		}
	}
}

// handleEvent runs on the single consumer goroutine; store writes are
// therefore serialized. Only put contracts are catalogued — calls are
// observed and logged, matching the downstream files' contract.
func (b *Bootstrap) handleEvent(ev feed.Event) {
	switch ev.Type {
	case feed.EventError:
		b.metrics.FeedErrors.Inc()
		b.logger.WithFields(logrus.Fields{
			"req_id": ev.ReqID,
			"code":   ev.Code,
		}).Warn(ev.Msg)
	case feed.EventContractDetails:
		_, expiryIdx, symbolIdx := reqid.Decode(ev.ReqID)
		if expiryIdx >= b.expiries.Count() || symbolIdx >= b.universe.Count() {
			b.logger.WithField("req_id", ev.ReqID).Warn("Contract details for unknown request")
			return
		}
		expiry := b.expiries.At(expiryIdx)
		symbol := b.universe.At(symbolIdx)

		if ev.Contract.Right != "P" {
			b.logger.WithFields(logrus.Fields{
				"expiry": expiry,
				"symbol": symbol,
				"right":  ev.Contract.Right,
			}).Debug("Ignoring non-put contract")
			return
		}

		if err := b.store.AppendStrike(expiry, symbol, ev.Contract.Strike); err != nil {
			b.logger.WithError(err).WithField("symbol", symbol).Error("Failed to append strike")
			return
		}
		if err := b.store.WriteIndex(expiry, symbolIdx+1); err != nil {
			b.logger.WithError(err).WithField("expiry", expiry).Error("Failed to advance resume cursor")
		}
		b.metrics.ContractsCatalogued.Inc()
	}
}
