// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package metrics exposes Prometheus counters for menu rendering and edits.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ocms_menu"

// Cache lookup results used as the "cache" label of renders.
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

// Write operations used as the "op" label.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
	OpOrder  = "order"
)

// Metrics holds the application's collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	renders     *prometheus.CounterVec
	unresolved  *prometheus.CounterVec
	writes      *prometheus.CounterVec
	validations *prometheus.CounterVec
}

// New creates the collectors and registers them, together with the Go and
// process collectors, on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Menu renders by menu name and snapshot cache result.",
		}, []string{"menu", "cache"}),
		unresolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unresolved_urls_total",
			Help:      "Named URLs that could not be reversed and rendered as #.",
		}, []string{"menu"}),
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "item_writes_total",
			Help:      "Successful menu item writes by operation.",
		}, []string{"op"}),
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Rejected menu item saves by field.",
		}, []string{"field"}),
	}

	reg.MustRegister(
		m.renders,
		m.unresolved,
		m.writes,
		m.validations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Render counts one render of menu.
func (m *Metrics) Render(menu string, cacheHit bool) {
	if m == nil {
		return
	}
	result := CacheMiss
	if cacheHit {
		result = CacheHit
	}
	m.renders.WithLabelValues(menu, result).Inc()
}

// Unresolved counts n items of menu whose named URL fell back to "#".
func (m *Metrics) Unresolved(menu string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.unresolved.WithLabelValues(menu).Add(float64(n))
}

// Write counts a successful write operation.
func (m *Metrics) Write(op string) {
	if m == nil {
		return
	}
	m.writes.WithLabelValues(op).Inc()
}

// ValidationFailure counts a rejected save. An empty field is reported as "item".
func (m *Metrics) ValidationFailure(field string) {
	if m == nil {
		return
	}
	if field == "" {
		field = "item"
	}
	m.validations.WithLabelValues(field).Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
