// Package metrics holds the prometheus collectors of the wallet service.
// They are registered with the default registry and exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Issuance

	IssuancesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "walletpass_issuances_total",
			Help: "Total number of add to wallet link requests by result (error code or success)",
		},
		[]string{"result"},
	)

	IssuanceDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "walletpass_issuance_duration_seconds",
			Help:    "Time taken to produce an add to wallet link",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	// Wallet provider

	UpsertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "walletpass_upserts_total",
			Help: "Total number of ensure operations against the wallet provider",
		},
		[]string{"kind", "outcome"},
	)

	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "walletpass_provider_request_duration_seconds",
			Help:    "Wallet provider request latency in seconds",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"kind", "method"},
	)

	// HTTP API

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "walletpass_http_requests_total",
			Help: "Total number of HTTP requests by route pattern and status code",
		},
		[]string{"route", "code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "walletpass_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	// Credentials

	TokenFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "walletpass_token_fetches_total",
			Help: "Total number of access token requests sent to the token endpoint",
		},
		[]string{"status"},
	)
)

// upsert outcomes
const (
	OutcomeExisting = "existing"
	OutcomeCreated  = "created"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)
