/*
 * GraphMap
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package api

import (
	"net/http"

	"devt.de/krotik/graphmap/changelog"
	"devt.de/krotik/graphmap/trans"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

/*
EndpointMetrics is the metrics endpoint URL.
*/
const EndpointMetrics = "/metrics"

/*
Metrics holds the prometheus metrics of a GraphMap.
*/
type Metrics struct {
	Registry *prometheus.Registry   // Registry of all metrics
	Changes  *prometheus.CounterVec // Committed change log entries by source and action
}

/*
NewMetrics creates the metrics of a given transaction provider. The change
counter is fed by committed change log entries.
*/
func NewMetrics(lm *trans.LogManager) *Metrics {
	reg := prometheus.NewRegistry()

	changes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "graphmap_changes_total",
		Help: "Total number of committed change log entries",
	}, []string{"source", "action"})

	gm := lm.GraphMap()

	reg.MustRegister(changes,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "graphmap_nodes",
			Help: "Current number of nodes",
		}, func() float64 {
			return float64(gm.NodeCount())
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "graphmap_edges",
			Help: "Current number of edges",
		}, func() float64 {
			return float64(gm.EdgeCount())
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "graphmap_lsn",
			Help: "Last assigned log sequence number",
		}, func() float64 {
			return float64(lm.LastLSN())
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "graphmap_transactions_committed_total",
			Help: "Total number of committed transactions",
		}, func() float64 {
			return float64(lm.Stats().Committed)
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "graphmap_transactions_rolled_back_total",
			Help: "Total number of rolled back transactions",
		}, func() float64 {
			return float64(lm.Stats().RolledBack)
		}),
	)

	m := &Metrics{reg, changes}

	lm.AddObserver(m.observe)

	return m
}

/*
observe counts a committed change log entry.
*/
func (m *Metrics) observe(e *changelog.Entry) {
	m.Changes.WithLabelValues(e.Source.String(), e.Action.String()).Inc()
}

/*
Handler returns a HTTP handler which exposes all metrics.
*/
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
