// Package metrics provides Prometheus metrics for the Clover service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PairsScoredTotal tracks contact pairs run through the pair scorer
	PairsScoredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "matching",
			Name:      "pairs_scored_total",
			Help:      "Total number of contact pairs scored",
		},
	)

	// MatchesTotal tracks reported duplicate matches by confidence
	MatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "matching",
			Name:      "matches_total",
			Help:      "Total number of duplicate matches reported by confidence",
		},
		[]string{"confidence"},
	)

	// RunsTotal tracks duplicate searches by mode and completion status
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "matching",
			Name:      "runs_total",
			Help:      "Total number of duplicate searches by mode and status",
		},
		[]string{"mode", "status"},
	)

	// RunDuration tracks duplicate search duration in seconds
	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "matching",
			Name:      "run_duration_seconds",
			Help:      "Duration of duplicate searches in seconds",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		},
		[]string{"mode"},
	)

	// MergesTotal tracks completed merges by strategy
	MergesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "merging",
			Name:      "merges_total",
			Help:      "Total number of contact merges by strategy",
		},
		[]string{"strategy"},
	)

	// MergeConflictsTotal tracks field conflicts recorded during merges
	MergeConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "merging",
			Name:      "conflicts_total",
			Help:      "Total number of field conflicts recorded during merges",
		},
	)

	// PendingMatches tracks the size of the current pending match batch
	PendingMatches = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "clover",
			Subsystem: "session",
			Name:      "pending_matches",
			Help:      "Number of matches awaiting resolution",
		},
	)

	// EventsPublishedTotal tracks events sent to Kafka by type and status
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Total number of events published by type and status",
		},
		[]string{"event_type", "status"},
	)
)

// Run status label values
const (
	RunStatusComplete  = "complete"
	RunStatusTruncated = "truncated"
)
