// Package metrics exposes the pipeline's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProviderSearches counts search calls per provider and outcome.
	ProviderSearches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "harvest_provider_searches_total",
		Help: "Search calls per provider and outcome (ok, error, timeout, empty).",
	}, []string{"provider", "outcome"})

	// CredentialQuarantines counts credentials pulled out of rotation.
	CredentialQuarantines = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "harvest_credential_quarantines_total",
		Help: "Credentials quarantined per provider and failure kind.",
	}, []string{"provider", "kind"})

	// Extractions counts content extraction attempts per winning strategy.
	Extractions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "harvest_extractions_total",
		Help: "Extraction attempts per winning strategy; failures use strategy=none.",
	}, []string{"strategy"})

	// DuplicatesDropped counts URLs removed by deduplication.
	DuplicatesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harvest_duplicates_dropped_total",
		Help: "URLs dropped because their canonical form was already seen.",
	})

	// DegradedRuns counts runs that finished with no results at all.
	DegradedRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harvest_degraded_runs_total",
		Help: "Runs that completed in degraded mode with zero results.",
	})

	// RunStates counts run state transitions as published on the
	// progress broker.
	RunStates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "harvest_run_states_total",
		Help: "Run state transitions observed on the progress stream.",
	}, []string{"state"})

	// RunDuration observes end-to-end run latency.
	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "harvest_run_duration_seconds",
		Help:    "End-to-end duration of a harvest run.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})
)
