// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides the HTTP handlers for the demo pages and health
// checks.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ocms-menu/internal/menutree"
	"github.com/olegiv/ocms-menu/internal/model"
	"github.com/olegiv/ocms-menu/internal/render"
	"github.com/olegiv/ocms-menu/internal/routes"
	"github.com/olegiv/ocms-menu/internal/service"
)

// Page is a demo page served under a named route.
type Page struct {
	RouteName string
	Path      string
	Template  string
	Title     string
}

// Pages lists the demo pages the seeded menus link to.
var Pages = []Page{
	{RouteName: RouteNameHome, Path: RouteRoot, Template: "home", Title: "Home"},
	{RouteName: RouteNameAbout, Path: RouteAbout, Template: "about", Title: "About"},
	{RouteName: RouteNameTeam, Path: RouteTeam, Template: "team", Title: "Team"},
	{RouteName: RouteNameContact, Path: RouteContact, Template: "contact", Title: "Contact"},
}

// pageMenus are resolved for every page.
var pageMenus = []string{model.MenuMain, model.MenuFooter}

// FrontendHandler renders the demo pages with their menus.
type FrontendHandler struct {
	menus    *service.MenuService
	renderer *render.Renderer
	logger   *slog.Logger
}

// NewFrontendHandler creates a new frontend handler.
func NewFrontendHandler(menus *service.MenuService, renderer *render.Renderer, logger *slog.Logger) *FrontendHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FrontendHandler{menus: menus, renderer: renderer, logger: logger}
}

// Routes registers every demo page on r and names it in reg so menu items
// can link to it by route name.
func (h *FrontendHandler) Routes(r chi.Router, reg *routes.Registry) {
	for _, p := range Pages {
		reg.Get(r, p.RouteName, p.Path, h.page(p))
	}
}

func (h *FrontendHandler) page(p Page) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		menus, err := h.resolveMenus(r)
		if err != nil {
			h.logger.Error("failed to resolve menus",
				"category", model.EventCategoryMenu, "path", r.URL.Path, "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		data := render.TemplateData{
			Title: p.Title,
			Path:  r.URL.Path,
			Menus: menus,
		}
		if err := h.renderer.Render(w, p.Template, data); err != nil {
			h.logger.Error("failed to render page",
				"category", model.EventCategorySystem, "page", p.Template, "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}
}

func (h *FrontendHandler) resolveMenus(r *http.Request) (map[string]menutree.Result, error) {
	out := make(map[string]menutree.Result, len(pageMenus))
	for _, name := range pageMenus {
		res, err := h.menus.Render(r.Context(), name, r.URL.Path)
		if err != nil {
			return nil, err
		}
		out[name] = res
	}
	return out, nil
}
