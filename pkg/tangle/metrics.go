package tangle

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	confirmPollsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tangle_confirm_polls_total",
		Help: "Total inclusion polls issued by the confirmation engine",
	})

	confirmPromotionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tangle_confirm_promotions_total",
		Help: "Total promotions issued while waiting for confirmation",
	})

	confirmReattachmentsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tangle_confirm_reattachments_total",
		Help: "Total reattachments issued while waiting for confirmation",
	})

	confirmFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tangle_confirm_failures_total",
		Help: "Confirmation runs that ended in a transport or budget failure",
	})

	confirmDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tangle_confirm_duration_seconds",
		Help:    "Wall time from submission to confirmed inclusion",
		Buckets: []float64{10, 30, 60, 120, 300, 600, 1800},
	})
)
