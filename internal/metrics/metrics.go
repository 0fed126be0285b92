// Package metrics exposes the scan's operational counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	SubscriptionsOpened    *prometheus.CounterVec
	SubscriptionsCancelled *prometheus.CounterVec
	RatesWritten           prometheus.Counter
	SymbolsSkipped         prometheus.Counter
	ContractsCatalogued    prometheus.Counter
	FeedErrors             prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SubscriptionsOpened: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "optrate_subscriptions_opened_total",
			Help: "Market data subscriptions opened, by phase.",
		}, []string{"phase"}),
		SubscriptionsCancelled: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "optrate_subscriptions_cancelled_total",
			Help: "Market data subscriptions cancelled, by phase.",
		}, []string{"phase"}),
		RatesWritten: factory.NewCounter(prometheus.CounterOpts{
			Name: "optrate_rates_written_total",
			Help: "Result lines appended to the rate files.",
		}),
		SymbolsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "optrate_symbols_skipped_total",
			Help: "Symbols abandoned without a usable strike or quote.",
		}),
		ContractsCatalogued: factory.NewCounter(prometheus.CounterOpts{
			Name: "optrate_contracts_catalogued_total",
			Help: "Put contracts appended to strike catalogs during bootstrap.",
		}),
		FeedErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "optrate_feed_errors_total",
			Help: "Error events received from the feed.",
		}),
	}
}
