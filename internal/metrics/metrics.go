// Package metrics holds Prometheus instruments that are used across the
// service.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// SiteRequestsTotal counts public site requests by resolution route
	// ("slug" or "domain") and outcome ("ok", "not_found", "unavailable").
	SiteRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "site_requests_total",
			Help: "Public site requests by resolution route and outcome.",
		}, []string{"route", "outcome"})

	PublicationCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "publication_cache_total",
			Help: "Publication cache lookups by result (hit or miss).",
		}, []string{"result"})

	PublicationErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "publication_errors_total",
			Help: "Publication lookups that failed, by error kind.",
		}, []string{"kind"})

	PublicationFetchSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "publication_fetch_seconds",
			Help:    "Backend latency for an uncached publication lookup.",
			Buckets: prometheus.DefBuckets,
		})

	SectionPlaceholdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "section_placeholders_total",
			Help: "Sections rendered as empty placeholders, by reason.",
		}, []string{"reason"})

	CrawlerRequestsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_requests_total",
			Help: "Requests whose User-Agent matched a crawler signature.",
		})

	CacheInvalidationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_invalidations_total",
			Help: "Cache evictions by source (event or admin).",
		}, []string{"source"})
)

func init() {
	prometheus.MustRegister(
		SiteRequestsTotal,
		PublicationCacheTotal,
		PublicationErrorsTotal,
		PublicationFetchSeconds,
		SectionPlaceholdersTotal,
		CrawlerRequestsTotal,
		CacheInvalidationsTotal,
	)
}
