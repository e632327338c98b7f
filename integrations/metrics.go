// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package integrations

import "github.com/prometheus/client_golang/prometheus"

var (
	promQueryExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opsbridge_query_executions_total",
			Help: "Query executions by plugin, entry point and outcome",
		},
		[]string{"plugin", "source", "status"},
	)
	promQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "opsbridge_query_duration_milliseconds",
			Help:    "Upstream query duration in milliseconds",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		},
		[]string{"plugin", "source"},
	)
	promHealthChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opsbridge_health_checks_total",
			Help: "Instance health probes by plugin and resulting status",
		},
		[]string{"plugin", "status"},
	)
)

func init() {
	prometheus.MustRegister(promQueryExecutions)
	prometheus.MustRegister(promQueryDuration)
	prometheus.MustRegister(promHealthChecks)
}
