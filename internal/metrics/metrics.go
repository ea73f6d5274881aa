// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package metrics exposes the ambient Prometheus counters and histograms
// described in SPEC_FULL.md: ingestion throughput, search latency, and
// cache hit rate, served on /metrics via promhttp alongside the REST API.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SearchRequests counts every /api/search/ call by outcome.
	SearchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netspeed_search_requests_total",
		Help: "Total number of search requests, labeled by outcome.",
	}, []string{"outcome"})

	// SearchDuration observes end-to-end search latency.
	SearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "netspeed_search_duration_seconds",
		Help:    "Search request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	})

	// DocumentsIndexed counts documents written to the search engine by a
	// rebuild or a per-file index operation.
	DocumentsIndexed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "netspeed_documents_indexed_total",
		Help: "Total number of documents indexed into the search engine.",
	})

	// RebuildDuration observes full-rebuild wall-clock time.
	RebuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "netspeed_rebuild_duration_seconds",
		Help:    "Full-rebuild task duration in seconds.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	// CacheHits counts stats-engine cache lookups by hit/miss.
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netspeed_stats_cache_lookups_total",
		Help: "Stats engine in-process cache lookups, labeled hit or miss.",
	}, []string{"result"})
)

// ObserveSearch records one search request's latency and outcome.
func ObserveSearch(start time.Time, err error) {
	SearchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		SearchRequests.WithLabelValues("error").Inc()
		return
	}
	SearchRequests.WithLabelValues("ok").Inc()
}

// ObserveCacheLookup records one stats-engine cache lookup as a hit or miss.
func ObserveCacheLookup(hit bool) {
	if hit {
		CacheHits.WithLabelValues("hit").Inc()
		return
	}
	CacheHits.WithLabelValues("miss").Inc()
}

// Handler returns the promhttp handler mounted at /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
