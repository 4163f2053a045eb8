// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the root path.
	RouteRoot = "/"
	// RouteAbout is the about page.
	RouteAbout = "/about"
	// RouteTeam is the team page, nested under about.
	RouteTeam = "/about/team"
	// RouteContact is the contact page.
	RouteContact = "/contact"

	// RouteHealth is the health check endpoint.
	RouteHealth = "/health"
	// RouteHealthLive is the liveness endpoint.
	RouteHealthLive = "/health/live"
	// RouteMetrics is the Prometheus endpoint.
	RouteMetrics = "/metrics"

	// RouteAPI is the public JSON API prefix.
	RouteAPI = "/api"
	// RouteAdmin is the admin API prefix.
	RouteAdmin = "/admin"
)

// Route names used by named menu URLs.
const (
	RouteNameHome    = "home"
	RouteNameAbout   = "about"
	RouteNameTeam    = "team"
	RouteNameContact = "contact"
)
