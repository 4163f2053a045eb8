// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"html"
	"net/http"
	"strconv"

	"github.com/olegiv/ocms-menu/internal/model"
	"github.com/olegiv/ocms-menu/internal/service"
)

// List paging limits.
const (
	defaultListLimit = 100
	maxListLimit     = 500
)

// MenuItemRequest is the body of create and update requests.
type MenuItemRequest struct {
	MenuName string `json:"menu_name"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	NamedURL string `json:"named_url"`
	ParentID *int64 `json:"parent_id"`
	Order    int    `json:"order"`
}

// OrderRequest is the body of PATCH /admin/menu-items/{id}/order.
type OrderRequest struct {
	Order *int `json:"order"`
}

// maxStripPasses bounds stripMarkup on names nested in layers of entities.
const maxStripPasses = 8

// stripMarkup returns name as plain text. Entities are decoded before the
// policy runs, so encoded tags are stripped too, and passes repeat until the
// text is stable. A name that never settles is dropped.
func (h *Handler) stripMarkup(name string) string {
	for range maxStripPasses {
		plain := html.UnescapeString(h.sanitize.Sanitize(html.UnescapeString(name)))
		if plain == name {
			return plain
		}
		name = plain
	}
	return ""
}

// toModel builds a menu item from the request. Markup is stripped from the
// display name; templates escape it again on output.
func (h *Handler) toModel(req MenuItemRequest) model.MenuItem {
	return model.MenuItem{
		MenuName: req.MenuName,
		Name:     h.stripMarkup(req.Name),
		URL:      req.URL,
		NamedURL: req.NamedURL,
		ParentID: model.NullParent(req.ParentID),
		Order:    req.Order,
	}
}

func (h *Handler) itemResponse(item model.MenuItem) MenuItemResponse {
	return itemToResponse(item, h.menus.ResolveURL(item))
}

// ListItems handles GET /admin/menu-items.
// Query: menu, parent ("root" for top-level items or a parent id), q, limit, offset.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	params := service.ListParams{
		MenuName: query.Get("menu"),
		Query:    query.Get("q"),
		Limit:    defaultListLimit,
	}

	switch parent := query.Get("parent"); parent {
	case "":
	case "root":
		params.FilterParent = true
	default:
		id, err := strconv.ParseInt(parent, 10, 64)
		if err != nil || id <= 0 {
			WriteBadRequest(w, "Invalid parent filter", map[string]string{"parent": "must be \"root\" or an item ID"})
			return
		}
		params.FilterParent = true
		params.ParentID = &id
	}

	if s := query.Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit < 1 {
			WriteBadRequest(w, "Invalid limit", map[string]string{"limit": "must be a positive integer"})
			return
		}
		params.Limit = min(limit, maxListLimit)
	}
	if s := query.Get("offset"); s != "" {
		offset, err := strconv.Atoi(s)
		if err != nil || offset < 0 {
			WriteBadRequest(w, "Invalid offset", map[string]string{"offset": "must be a non-negative integer"})
			return
		}
		params.Offset = offset
	}

	items, err := h.menus.List(r.Context(), params)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := make([]MenuItemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, h.itemResponse(item))
	}
	WriteSuccess(w, resp, &Meta{Count: len(resp), Limit: params.Limit, Offset: params.Offset})
}

// CreateItem handles POST /admin/menu-items.
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req MenuItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	item, err := h.menus.Create(r.Context(), h.toModel(req))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteCreated(w, h.itemResponse(item))
}

// GetItem handles GET /admin/menu-items/{id}.
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	item, err := h.menus.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, h.itemResponse(item), nil)
}

// UpdateItem handles PUT /admin/menu-items/{id}. The body replaces every
// editable field.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req MenuItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	item := h.toModel(req)
	item.ID = id
	updated, err := h.menus.Update(r.Context(), item)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, h.itemResponse(updated), nil)
}

// DeleteItem handles DELETE /admin/menu-items/{id}. Descendants are removed
// with the item.
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.menus.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetItemOrder handles PATCH /admin/menu-items/{id}/order.
func (h *Handler) SetItemOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req OrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Order == nil {
		WriteValidationError(w, map[string]string{model.FieldOrder: "order is required"})
		return
	}

	item, err := h.menus.SetOrder(r.Context(), id, *req.Order)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, h.itemResponse(item), nil)
}
