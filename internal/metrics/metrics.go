// Package metrics exposes prometheus collectors for the bidding core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BidsTotal counts processed bids by outcome status.
	BidsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auction_bids_total",
		Help: "Bids processed, labeled by outcome status",
	}, []string{"status"})

	// BidProcessingDuration observes end-to-end bid command latency.
	BidProcessingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "auction_bid_processing_duration_seconds",
		Help:    "End-to-end bid processing duration",
		Buckets: prometheus.DefBuckets,
	})

	// VersionConflictsTotal counts optimistic-version conflicts at commit.
	VersionConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auction_version_conflicts_total",
		Help: "Optimistic concurrency conflicts detected at commit",
	})

	// CommandRetriesTotal counts retry attempts after version conflicts.
	CommandRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auction_command_retries_total",
		Help: "Command retries after version conflicts",
	})

	// EventsEmittedTotal counts lifecycle events handed to the sink.
	EventsEmittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auction_events_emitted_total",
		Help: "Lifecycle events emitted after commit, by type",
	}, []string{"type"})
)
