// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service provides business logic and service layer functionality.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/olegiv/ocms-menu/internal/cache"
	"github.com/olegiv/ocms-menu/internal/menutree"
	"github.com/olegiv/ocms-menu/internal/metrics"
	"github.com/olegiv/ocms-menu/internal/model"
	"github.com/olegiv/ocms-menu/internal/routes"
	"github.com/olegiv/ocms-menu/internal/store"
)

// Options configures a MenuService. Every field is optional.
type Options struct {
	// Cache stores per-menu snapshots between renders. Nil disables caching.
	Cache    cache.Cacher
	CacheTTL time.Duration

	Resolver routes.Resolver
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// MenuService validates and persists menu items and renders menus.
type MenuService struct {
	db        *sql.DB
	queries   *store.Queries
	menuCache *cache.MenuCache
	resolver  routes.Resolver
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewMenuService creates a new MenuService.
func NewMenuService(db *sql.DB, opts Options) *MenuService {
	s := &MenuService{
		db:       db,
		queries:  store.New(db),
		resolver: opts.Resolver,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if opts.Cache != nil {
		s.menuCache = cache.NewMenuCache(opts.Cache, s.loadMenu, opts.CacheTTL, s.logger)
	}
	return s
}

// MenuCache returns the snapshot cache, or nil when caching is disabled.
func (s *MenuService) MenuCache() *cache.MenuCache {
	return s.menuCache
}

func (s *MenuService) loadMenu(ctx context.Context, menuName string) ([]model.MenuItem, error) {
	rows, err := s.queries.ListMenuItemsByMenuName(ctx, menuName)
	if err != nil {
		return nil, err
	}
	return store.MenuItemModels(rows), nil
}

func (s *MenuService) lookup(ctx context.Context, id int64) (model.MenuItem, bool, error) {
	row, err := s.queries.GetMenuItemByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.MenuItem{}, false, nil
	}
	if err != nil {
		return model.MenuItem{}, false, err
	}
	return row.Model(), true, nil
}

// Validate checks item without writing anything. Field errors come first,
// then the parent chain, then name uniqueness within (menu, parent).
// Failures are *model.ValidationError values.
func (s *MenuService) Validate(ctx context.Context, item model.MenuItem) error {
	if err := model.ValidateFields(item); err != nil {
		return err
	}
	if err := model.CheckAncestry(ctx, item, s.lookup); err != nil {
		return err
	}

	exists, err := s.queries.MenuItemNameExists(ctx, store.MenuItemNameExistsParams{
		MenuName:  item.MenuName,
		ParentID:  item.ParentID,
		Name:      item.Name,
		ExcludeID: item.ID,
	})
	if err != nil {
		return fmt.Errorf("checking name uniqueness: %w", err)
	}
	if exists {
		return &model.ValidationError{Field: model.FieldName, Err: model.ErrDuplicateName}
	}
	return nil
}

func (s *MenuService) rejected(err error) error {
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		s.metrics.ValidationFailure(ve.Field)
	}
	return err
}

// Create validates and stores a new item. item.ID is ignored.
func (s *MenuService) Create(ctx context.Context, item model.MenuItem) (model.MenuItem, error) {
	item.ID = 0
	normalize(&item)
	if err := s.Validate(ctx, item); err != nil {
		return model.MenuItem{}, s.rejected(err)
	}

	now := time.Now()
	row, err := s.queries.CreateMenuItem(ctx, store.CreateMenuItemParams{
		MenuName:  item.MenuName,
		Name:      item.Name,
		Url:       item.URL,
		NamedUrl:  item.NamedURL,
		ParentID:  item.ParentID,
		Position:  int64(item.Order),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		if ve := constraintError(err); ve != nil {
			return model.MenuItem{}, s.rejected(ve)
		}
		return model.MenuItem{}, fmt.Errorf("creating menu item: %w", err)
	}

	created := row.Model()
	s.metrics.Write(metrics.OpCreate)
	s.invalidate(ctx, created.MenuName)
	s.logger.Info("menu item created",
		"category", model.EventCategoryMenu, "item_id", created.ID, "menu", created.MenuName, "name", created.Name)
	return created, nil
}

// Update validates and rewrites an existing item. Both the old and the new
// menu are invalidated when the item moves between menus.
func (s *MenuService) Update(ctx context.Context, item model.MenuItem) (model.MenuItem, error) {
	existing, err := s.Get(ctx, item.ID)
	if err != nil {
		return model.MenuItem{}, err
	}

	normalize(&item)
	if err := s.Validate(ctx, item); err != nil {
		return model.MenuItem{}, s.rejected(err)
	}

	row, err := s.queries.UpdateMenuItem(ctx, store.UpdateMenuItemParams{
		ID:        item.ID,
		MenuName:  item.MenuName,
		Name:      item.Name,
		Url:       item.URL,
		NamedUrl:  item.NamedURL,
		ParentID:  item.ParentID,
		Position:  int64(item.Order),
		UpdatedAt: time.Now(),
	})
	if err != nil {
		if ve := constraintError(err); ve != nil {
			return model.MenuItem{}, s.rejected(ve)
		}
		return model.MenuItem{}, fmt.Errorf("updating menu item %d: %w", item.ID, err)
	}

	updated := row.Model()
	s.metrics.Write(metrics.OpUpdate)
	s.invalidate(ctx, existing.MenuName, updated.MenuName)
	s.logger.Info("menu item updated",
		"category", model.EventCategoryMenu, "item_id", updated.ID, "menu", updated.MenuName, "name", updated.Name)
	return updated, nil
}

// SetOrder changes only the sort key of an item.
func (s *MenuService) SetOrder(ctx context.Context, id int64, order int) (model.MenuItem, error) {
	if order < 0 {
		return model.MenuItem{}, s.rejected(&model.ValidationError{Field: model.FieldOrder, Err: model.ErrNegativeOrder})
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return model.MenuItem{}, err
	}

	now := time.Now()
	if err := s.queries.UpdateMenuItemPosition(ctx, store.UpdateMenuItemPositionParams{
		ID:        id,
		Position:  int64(order),
		UpdatedAt: now,
	}); err != nil {
		return model.MenuItem{}, fmt.Errorf("ordering menu item %d: %w", id, err)
	}

	existing.Order = order
	existing.UpdatedAt = now
	s.metrics.Write(metrics.OpOrder)
	s.invalidate(ctx, existing.MenuName)
	return existing, nil
}

// Delete removes an item and, through the foreign key cascade, its subtree.
// Descendants may sit in other menus, so every menu the subtree touches is
// invalidated.
func (s *MenuService) Delete(ctx context.Context, id int64) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	affected, err := s.queries.ListSubtreeMenuNames(ctx, id)
	if err != nil {
		return fmt.Errorf("collecting menus under item %d: %w", id, err)
	}
	if err := s.queries.DeleteMenuItem(ctx, id); err != nil {
		return fmt.Errorf("deleting menu item %d: %w", id, err)
	}

	s.metrics.Write(metrics.OpDelete)
	s.invalidate(ctx, append(affected, existing.MenuName)...)
	s.logger.Info("menu item deleted",
		"category", model.EventCategoryMenu, "item_id", id, "menu", existing.MenuName, "name", existing.Name,
		"menus_affected", affected)
	return nil
}

// Get returns an item by id. A missing item yields an error wrapping sql.ErrNoRows.
func (s *MenuService) Get(ctx context.Context, id int64) (model.MenuItem, error) {
	row, err := s.queries.GetMenuItemByID(ctx, id)
	if err != nil {
		return model.MenuItem{}, fmt.Errorf("getting menu item %d: %w", id, err)
	}
	return row.Model(), nil
}

// ListParams filters List. Parent filtering applies only when FilterParent
// is set; a nil ParentID then selects root items.
type ListParams struct {
	MenuName     string
	FilterParent bool
	ParentID     *int64
	Query        string
	Limit        int
	Offset       int
}

// List returns items for administration ordered by menu, order and name.
func (s *MenuService) List(ctx context.Context, p ListParams) ([]model.MenuItem, error) {
	rows, err := s.queries.SearchMenuItems(ctx, store.SearchMenuItemsParams{
		MenuName:     strings.TrimSpace(p.MenuName),
		FilterParent: p.FilterParent,
		ParentID:     model.NullParent(p.ParentID),
		Query:        strings.TrimSpace(p.Query),
		Limit:        int64(p.Limit),
		Offset:       int64(p.Offset),
	})
	if err != nil {
		return nil, fmt.Errorf("listing menu items: %w", err)
	}
	return store.MenuItemModels(rows), nil
}

// MenuNames returns the distinct menu names in use.
func (s *MenuService) MenuNames(ctx context.Context) ([]string, error) {
	names, err := s.queries.ListMenuNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing menu names: %w", err)
	}
	return names, nil
}

// ResolveURL returns the item's literal URL or its reversed named route,
// falling back to "#".
func (s *MenuService) ResolveURL(item model.MenuItem) string {
	url := menutree.ResolveURL(item, s.resolver)
	if url == model.UnresolvedURL && item.URL == "" {
		s.logger.Debug("named url not resolved",
			"category", model.EventCategoryMenu, "item_id", item.ID, "named_url", item.NamedURL)
	}
	return url
}

// Ancestors returns item's parents nearest first, read from the store one
// level at a time. The walk stops at a missing parent, a repeated id or
// model.MaxDepth.
func (s *MenuService) Ancestors(ctx context.Context, item model.MenuItem) ([]model.MenuItem, error) {
	out := []model.MenuItem{}
	seen := map[int64]bool{item.ID: true}

	parentID := item.ParentID
	for parentID.Valid && len(out) < model.MaxDepth && !seen[parentID.Int64] {
		parent, found, err := s.lookup(ctx, parentID.Int64)
		if err != nil {
			return nil, fmt.Errorf("loading parent %d: %w", parentID.Int64, err)
		}
		if !found {
			break
		}
		seen[parent.ID] = true
		out = append(out, parent)
		parentID = parent.ParentID
	}
	return out, nil
}

// Siblings returns the items sharing item's parent, excluding item. For a
// root these are the other roots of the same menu.
func (s *MenuService) Siblings(ctx context.Context, item model.MenuItem) ([]model.MenuItem, error) {
	var (
		rows []store.MenuItem
		err  error
	)
	if item.IsRoot() {
		rows, err = s.queries.ListRootMenuItems(ctx, store.ListRootMenuItemsParams{
			MenuName:  item.MenuName,
			ExcludeID: item.ID,
		})
	} else {
		rows, err = s.queries.ListChildMenuItems(ctx, store.ListChildMenuItemsParams{
			ParentID:  item.ParentID.Int64,
			ExcludeID: item.ID,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("listing siblings of %d: %w", item.ID, err)
	}
	return store.MenuItemModels(rows), nil
}

// Render resolves menuName for currentPath from a single snapshot of the
// menu: from the cache when present, otherwise one store query. The store
// is read again only when the active item's parent chain leaves the menu.
func (s *MenuService) Render(ctx context.Context, menuName, currentPath string) (menutree.Result, error) {
	items, hit, err := s.snapshot(ctx, menuName)
	if err != nil {
		return menutree.Result{}, err
	}

	res := menutree.NewTable(items).Resolve(menuName, currentPath, s.resolver)
	if err := s.extendTrail(ctx, &res); err != nil {
		return menutree.Result{}, err
	}

	s.metrics.Render(menuName, hit)
	if n := len(res.Unresolved); n > 0 {
		s.metrics.Unresolved(menuName, n)
		s.logger.Debug("menu has unresolved named urls",
			"category", model.EventCategoryMenu, "menu", menuName, "item_ids", res.Unresolved)
	}
	return res, nil
}

// extendTrail continues res.ActiveAncestors through parents held by other
// menus, so the trail matches Ancestors. Those parents are not part of the
// tree and only gain an entry in res.URLs.
func (s *MenuService) extendTrail(ctx context.Context, res *menutree.Result) error {
	if res.ActiveItem == nil {
		return nil
	}
	last := *res.ActiveItem
	if n := len(res.ActiveAncestors); n > 0 {
		last = res.ActiveAncestors[n-1]
	}
	if !last.ParentID.Valid || len(res.ActiveAncestors) >= model.MaxDepth {
		return nil
	}

	seen := map[int64]bool{res.ActiveItem.ID: true}
	for _, a := range res.ActiveAncestors {
		seen[a.ID] = true
	}
	if seen[last.ParentID.Int64] {
		return nil // cycle inside the snapshot
	}

	rest, err := s.Ancestors(ctx, last)
	if err != nil {
		return fmt.Errorf("loading trail of item %d: %w", res.ActiveItem.ID, err)
	}
	for _, a := range rest {
		if seen[a.ID] || len(res.ActiveAncestors) >= model.MaxDepth {
			break
		}
		seen[a.ID] = true
		res.ActiveAncestors = append(res.ActiveAncestors, a)
		res.URLs[a.ID] = s.ResolveURL(a)
	}
	return nil
}

func (s *MenuService) snapshot(ctx context.Context, menuName string) ([]model.MenuItem, bool, error) {
	if s.menuCache != nil {
		return s.menuCache.Get(ctx, menuName)
	}
	items, err := s.loadMenu(ctx, menuName)
	if err != nil {
		return nil, false, fmt.Errorf("loading menu %q: %w", menuName, err)
	}
	return items, false, nil
}

// InvalidateCache drops every cached menu snapshot.
func (s *MenuService) InvalidateCache(ctx context.Context) error {
	if s.menuCache == nil {
		return nil
	}
	return s.menuCache.InvalidateAll(ctx)
}

// ResetCacheStats zeroes the snapshot and backend cache counters.
func (s *MenuService) ResetCacheStats() {
	if s.menuCache != nil {
		s.menuCache.ResetStats()
	}
}

func (s *MenuService) invalidate(ctx context.Context, menuNames ...string) {
	if s.menuCache == nil {
		return
	}
	if err := s.menuCache.Invalidate(ctx, menuNames...); err != nil {
		s.logger.Warn("failed to invalidate menu cache",
			"category", model.EventCategoryCache, "menus", menuNames, "error", err)
	}
}

func normalize(item *model.MenuItem) {
	item.Name = strings.TrimSpace(item.Name)
	item.MenuName = strings.TrimSpace(item.MenuName)
	item.URL = strings.TrimSpace(item.URL)
	item.NamedURL = strings.TrimSpace(item.NamedURL)
}

// constraintError maps SQLite constraint failures that slipped past Validate
// (concurrent writers) to validation errors.
func constraintError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return &model.ValidationError{Field: model.FieldName, Err: model.ErrDuplicateName}
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return &model.ValidationError{Field: model.FieldParent, Err: model.ErrParentNotFound}
	}
	return nil
}
