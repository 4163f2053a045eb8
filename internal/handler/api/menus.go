// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ocms-menu/internal/menutree"
	"github.com/olegiv/ocms-menu/internal/model"
)

// MenuItemResponse represents a menu item in API responses.
type MenuItemResponse struct {
	ID          int64     `json:"id"`
	MenuName    string    `json:"menu_name"`
	Name        string    `json:"name"`
	URL         string    `json:"url,omitempty"`
	NamedURL    string    `json:"named_url,omitempty"`
	ResolvedURL string    `json:"resolved_url,omitempty"`
	ParentID    *int64    `json:"parent_id"`
	Order       int       `json:"order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NodeResponse is one entry of the nested menu tree.
type NodeResponse struct {
	ID       int64          `json:"id"`
	Name     string         `json:"name"`
	URL      string         `json:"url"`
	Active   bool           `json:"active"`
	InTrail  bool           `json:"in_trail"`
	Children []NodeResponse `json:"children,omitempty"`
}

// MenuResponse is a menu resolved for one request path.
type MenuResponse struct {
	Menu            string             `json:"menu"`
	Path            string             `json:"path"`
	RootItems       []MenuItemResponse `json:"root_items"`
	ActiveItem      *MenuItemResponse  `json:"active_item"`
	ActiveAncestors []MenuItemResponse `json:"active_ancestors"`
	Tree            []NodeResponse     `json:"tree"`
}

func itemToResponse(item model.MenuItem, resolvedURL string) MenuItemResponse {
	resp := MenuItemResponse{
		ID:          item.ID,
		MenuName:    item.MenuName,
		Name:        item.Name,
		URL:         item.URL,
		NamedURL:    item.NamedURL,
		ResolvedURL: resolvedURL,
		Order:       item.Order,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
	if item.ParentID.Valid {
		id := item.ParentID.Int64
		resp.ParentID = &id
	}
	return resp
}

func nodesToResponse(nodes []menutree.Node) []NodeResponse {
	out := make([]NodeResponse, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, NodeResponse{
			ID:       n.Item.ID,
			Name:     n.Item.Name,
			URL:      n.URL,
			Active:   n.Active,
			InTrail:  n.InTrail,
			Children: nodesToResponse(n.Children),
		})
	}
	return out
}

func resultToResponse(res menutree.Result, path string) MenuResponse {
	urls := res.URLs
	resp := MenuResponse{
		Menu:            res.MenuName,
		Path:            path,
		Tree:            nodesToResponse(res.Tree),
		RootItems:       make([]MenuItemResponse, 0, len(res.RootItems)),
		ActiveAncestors: make([]MenuItemResponse, 0, len(res.ActiveAncestors)),
	}
	for _, item := range res.RootItems {
		resp.RootItems = append(resp.RootItems, itemToResponse(item, urls[item.ID]))
	}
	for _, item := range res.ActiveAncestors {
		resp.ActiveAncestors = append(resp.ActiveAncestors, itemToResponse(item, urls[item.ID]))
	}
	if res.ActiveItem != nil {
		active := itemToResponse(*res.ActiveItem, urls[res.ActiveItem.ID])
		resp.ActiveItem = &active
	}
	return resp
}

// ListMenus handles GET /api/menus.
func (h *Handler) ListMenus(w http.ResponseWriter, r *http.Request) {
	names, err := h.menus.MenuNames(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	WriteSuccess(w, names, &Meta{Count: len(names)})
}

// GetMenu handles GET /api/menus/{menu}?path=/x. The path defaults to "/".
// An unknown menu resolves to an empty structure.
func (h *Handler) GetMenu(w http.ResponseWriter, r *http.Request) {
	menuName := strings.TrimSpace(chi.URLParam(r, "menu"))
	if menuName == "" {
		WriteBadRequest(w, "Menu name is required", nil)
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		path = "/"
	}

	res, err := h.menus.Render(r.Context(), menuName, path)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, resultToResponse(res, path), nil)
}
