// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/olegiv/ocms-menu/internal/cache"
	"github.com/olegiv/ocms-menu/internal/model"
)

// CacheResponse describes the menu snapshot cache.
type CacheResponse struct {
	Enabled   bool         `json:"enabled"`
	Menus     []string     `json:"menus"`
	Snapshots cache.Stats  `json:"snapshots"`
	Backend   *cache.Stats `json:"backend,omitempty"`
}

// GetCache handles GET /admin/cache.
func (h *Handler) GetCache(w http.ResponseWriter, _ *http.Request) {
	mc := h.menus.MenuCache()
	if mc == nil {
		WriteSuccess(w, CacheResponse{Menus: []string{}}, nil)
		return
	}

	resp := CacheResponse{
		Enabled:   true,
		Menus:     mc.Cached(),
		Snapshots: mc.Stats(),
	}
	if stats, ok := mc.BackendStats(); ok {
		resp.Backend = &stats
	}
	WriteSuccess(w, resp, nil)
}

// ClearCache handles DELETE /admin/cache. Every snapshot is dropped and the
// counters start over.
func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	if err := h.menus.InvalidateCache(r.Context()); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.menus.ResetCacheStats()
	h.logger.Info("menu cache cleared", "category", model.EventCategoryCache)
	w.WriteHeader(http.StatusNoContent)
}
