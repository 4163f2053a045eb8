// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/ocms-menu/internal/cache"
	"github.com/olegiv/ocms-menu/internal/metrics"
	"github.com/olegiv/ocms-menu/internal/model"
	"github.com/olegiv/ocms-menu/internal/routes"
	"github.com/olegiv/ocms-menu/internal/testutil"
)

var demoRoutes = routes.ResolverFunc(func(name string) (string, error) {
	switch name {
	case "team":
		return "/about/team", nil
	case "contact":
		return "/contact", nil
	}
	return "", routes.ErrNotFound
})

func newTestService(t *testing.T) *MenuService {
	t.Helper()

	db := testutil.TestSeededDB(t)
	backend := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Hour})
	t.Cleanup(func() { _ = backend.Close() })

	return NewMenuService(db, Options{
		Cache:    backend,
		Resolver: demoRoutes,
		Metrics:  metrics.New(),
		Logger:   testutil.TestLoggerSilent(),
	})
}

func find(t *testing.T, svc *MenuService, menu, name string) model.MenuItem {
	t.Helper()

	items, err := svc.List(context.Background(), ListParams{MenuName: menu})
	require.NoError(t, err)
	for _, it := range items {
		if it.Name == name {
			return it
		}
	}
	t.Fatalf("item %q not found in menu %q", name, menu)
	return model.MenuItem{}
}

func itemNames(items []model.MenuItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name)
	}
	return out
}

func parentOf(item model.MenuItem) sql.NullInt64 {
	return sql.NullInt64{Int64: item.ID, Valid: true}
}

func requireValidation(t *testing.T, err error, field string, want error) {
	t.Helper()

	require.Error(t, err)
	var ve *model.ValidationError
	require.True(t, errors.As(err, &ve), "error %v is not a ValidationError", err)
	assert.Equal(t, field, ve.Field)
	assert.ErrorIs(t, err, want)
}

func TestRenderActiveTrail(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	res, err := svc.Render(ctx, model.MenuMain, "/about/team")
	require.NoError(t, err)

	require.NotNil(t, res.ActiveItem)
	assert.Equal(t, "Team", res.ActiveItem.Name)
	assert.Equal(t, []string{"About", "Home"}, itemNames(res.ActiveAncestors))
	assert.Equal(t, []string{"Home", "Contact"}, itemNames(res.RootItems))
	assert.Empty(t, res.Unresolved)
}

func TestRenderUnresolvedRoute(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	res, err := svc.Render(ctx, model.MenuFooter, "/privacy")
	require.NoError(t, err)

	require.NotNil(t, res.ActiveItem)
	assert.Equal(t, "Privacy", res.ActiveItem.Name)

	sitemap := find(t, svc, model.MenuFooter, "Sitemap")
	assert.Equal(t, []int64{sitemap.ID}, res.Unresolved)
	require.Len(t, res.Tree, 2)
	assert.Equal(t, model.UnresolvedURL, res.Tree[1].URL)
}

func TestRenderUnknownMenu(t *testing.T) {
	svc := newTestService(t)

	res, err := svc.Render(context.Background(), "sidebar", "/")
	require.NoError(t, err)
	assert.Nil(t, res.ActiveItem)
	assert.Empty(t, res.RootItems)
	assert.Empty(t, res.Tree)
}

func TestRenderUsesCacheAndWritesInvalidate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Render(ctx, model.MenuMain, "/")
	require.NoError(t, err)
	_, err = svc.Render(ctx, model.MenuMain, "/")
	require.NoError(t, err)

	stats := svc.MenuCache().Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)

	home := find(t, svc, model.MenuMain, "Home")
	home.Name = "Start"
	_, err = svc.Update(ctx, home)
	require.NoError(t, err)

	res, err := svc.Render(ctx, model.MenuMain, "/")
	require.NoError(t, err)
	assert.Equal(t, []string{"Start", "Contact"}, itemNames(res.RootItems))
	assert.Equal(t, int64(2), svc.MenuCache().Stats().Misses)
}

func TestUpdateAcrossMenusInvalidatesBoth(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Render(ctx, model.MenuMain, "/")
	require.NoError(t, err)
	_, err = svc.Render(ctx, model.MenuFooter, "/")
	require.NoError(t, err)

	privacy := find(t, svc, model.MenuFooter, "Privacy")
	privacy.MenuName = model.MenuMain
	_, err = svc.Update(ctx, privacy)
	require.NoError(t, err)

	footer, err := svc.Render(ctx, model.MenuFooter, "/")
	require.NoError(t, err)
	assert.Equal(t, []string{"Sitemap"}, itemNames(footer.RootItems))

	mainMenu, err := svc.Render(ctx, model.MenuMain, "/privacy")
	require.NoError(t, err)
	require.NotNil(t, mainMenu.ActiveItem)
	assert.Equal(t, "Privacy", mainMenu.ActiveItem.Name)
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	home := find(t, svc, model.MenuMain, "Home")

	tests := []struct {
		name  string
		item  model.MenuItem
		field string
		want  error
	}{
		{
			name:  "missing target",
			item:  model.MenuItem{MenuName: "main", Name: "Blog"},
			field: "",
			want:  model.ErrMissingTarget,
		},
		{
			name:  "conflicting target",
			item:  model.MenuItem{MenuName: "main", Name: "Blog", URL: "/blog", NamedURL: "blog"},
			field: "",
			want:  model.ErrConflictingTarget,
		},
		{
			name:  "duplicate root name",
			item:  model.MenuItem{MenuName: "main", Name: "Home", URL: "/home"},
			field: model.FieldName,
			want:  model.ErrDuplicateName,
		},
		{
			name:  "duplicate child name",
			item:  model.MenuItem{MenuName: "main", Name: "About", URL: "/about-us", ParentID: parentOf(home)},
			field: model.FieldName,
			want:  model.ErrDuplicateName,
		},
		{
			name:  "padded duplicate",
			item:  model.MenuItem{MenuName: "main", Name: "  Home ", URL: "/home"},
			field: model.FieldName,
			want:  model.ErrDuplicateName,
		},
		{
			name:  "parent not found",
			item:  model.MenuItem{MenuName: "main", Name: "Orphan", URL: "/o", ParentID: sql.NullInt64{Int64: 9999, Valid: true}},
			field: model.FieldParent,
			want:  model.ErrParentNotFound,
		},
		{
			name:  "negative order",
			item:  model.MenuItem{MenuName: "main", Name: "Blog", URL: "/blog", Order: -1},
			field: model.FieldOrder,
			want:  model.ErrNegativeOrder,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.item)
			requireValidation(t, err, tt.field, tt.want)
		})
	}
}

func TestCreateSameNameElsewhere(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	contact := find(t, svc, model.MenuMain, "Contact")

	underContact, err := svc.Create(ctx, model.MenuItem{
		MenuName: "main", Name: "About", URL: "/contact/about", ParentID: parentOf(contact),
	})
	require.NoError(t, err)
	assert.NotZero(t, underContact.ID)

	_, err = svc.Create(ctx, model.MenuItem{MenuName: "footer", Name: "Home", URL: "/"})
	require.NoError(t, err)
}

func TestUpdateRejectsCycles(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	home := find(t, svc, model.MenuMain, "Home")
	team := find(t, svc, model.MenuMain, "Team")

	self := home
	self.ParentID = parentOf(home)
	_, err := svc.Update(ctx, self)
	requireValidation(t, err, model.FieldParent, model.ErrInvalidParent)

	loop := home
	loop.ParentID = parentOf(team)
	_, err = svc.Update(ctx, loop)
	requireValidation(t, err, model.FieldParent, model.ErrCircularReference)

	// Saving an item unchanged does not collide with its own name.
	_, err = svc.Update(ctx, home)
	require.NoError(t, err)
}

func TestUpdateMissingItem(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Update(context.Background(), model.MenuItem{ID: 9999, MenuName: "main", Name: "X", URL: "/x"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestDeleteCascades(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	home := find(t, svc, model.MenuMain, "Home")
	about := find(t, svc, model.MenuMain, "About")
	team := find(t, svc, model.MenuMain, "Team")

	_, err := svc.Render(ctx, model.MenuMain, "/")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, home.ID))

	for _, id := range []int64{home.ID, about.ID, team.ID} {
		_, err := svc.Get(ctx, id)
		assert.ErrorIs(t, err, sql.ErrNoRows, "item %d survived", id)
	}

	res, err := svc.Render(ctx, model.MenuMain, "/")
	require.NoError(t, err)
	assert.Equal(t, []string{"Contact"}, itemNames(res.RootItems))

	assert.ErrorIs(t, svc.Delete(ctx, home.ID), sql.ErrNoRows)
}

func TestDeleteCascadesAcrossMenus(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	parent, err := svc.Create(ctx, model.MenuItem{MenuName: "m1", Name: "P", URL: "/p"})
	require.NoError(t, err)
	child, err := svc.Create(ctx, model.MenuItem{MenuName: "m2", Name: "C", URL: "/c", ParentID: parentOf(parent)})
	require.NoError(t, err)

	res, err := svc.Render(ctx, "m2", "/c")
	require.NoError(t, err)
	require.NotNil(t, res.ActiveItem)
	require.Equal(t, []string{"m2"}, svc.MenuCache().Cached())

	require.NoError(t, svc.Delete(ctx, parent.ID))

	_, err = svc.Get(ctx, child.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.Empty(t, svc.MenuCache().Cached())

	res, err = svc.Render(ctx, "m2", "/c")
	require.NoError(t, err)
	assert.Nil(t, res.ActiveItem, "deleted child still rendered from a stale snapshot")
	assert.Empty(t, res.RootItems)
}

func TestRenderTrailCrossesMenus(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	parent, err := svc.Create(ctx, model.MenuItem{MenuName: "m1", Name: "P", URL: "/p"})
	require.NoError(t, err)
	child, err := svc.Create(ctx, model.MenuItem{MenuName: "m2", Name: "C", URL: "/c", ParentID: parentOf(parent)})
	require.NoError(t, err)

	res, err := svc.Render(ctx, "m2", "/c")
	require.NoError(t, err)
	require.NotNil(t, res.ActiveItem)
	assert.Equal(t, child.ID, res.ActiveItem.ID)
	assert.Empty(t, res.RootItems)
	assert.Empty(t, res.Tree)

	want, err := svc.Ancestors(ctx, child)
	require.NoError(t, err)
	assert.Equal(t, itemNames(want), itemNames(res.ActiveAncestors))
	assert.Equal(t, []string{"P"}, itemNames(res.ActiveAncestors))
	assert.Equal(t, "/c", res.URLs[child.ID])
	assert.Equal(t, "/p", res.URLs[parent.ID])
}

func TestSetOrder(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	contact := find(t, svc, model.MenuMain, "Contact")

	_, err := svc.SetOrder(ctx, contact.ID, -1)
	requireValidation(t, err, model.FieldOrder, model.ErrNegativeOrder)

	updated, err := svc.SetOrder(ctx, contact.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Order)

	res, err := svc.Render(ctx, model.MenuMain, "/")
	require.NoError(t, err)
	assert.Equal(t, []string{"Contact", "Home"}, itemNames(res.RootItems))
}

func TestAncestorsAndSiblings(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	home := find(t, svc, model.MenuMain, "Home")
	about := find(t, svc, model.MenuMain, "About")
	team := find(t, svc, model.MenuMain, "Team")

	ancestors, err := svc.Ancestors(ctx, team)
	require.NoError(t, err)
	assert.Equal(t, []string{"About", "Home"}, itemNames(ancestors))

	ancestors, err = svc.Ancestors(ctx, home)
	require.NoError(t, err)
	assert.NotNil(t, ancestors)
	assert.Empty(t, ancestors)

	siblings, err := svc.Siblings(ctx, home)
	require.NoError(t, err)
	assert.Equal(t, []string{"Contact"}, itemNames(siblings))

	siblings, err = svc.Siblings(ctx, about)
	require.NoError(t, err)
	assert.Empty(t, siblings)
}

func TestResolveURL(t *testing.T) {
	svc := newTestService(t)

	assert.Equal(t, "/about", svc.ResolveURL(model.MenuItem{URL: "/about"}))
	assert.Equal(t, "/about/team", svc.ResolveURL(model.MenuItem{NamedURL: "team"}))
	assert.Equal(t, model.UnresolvedURL, svc.ResolveURL(model.MenuItem{NamedURL: "sitemap"}))
}

func TestListFilters(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	roots, err := svc.List(ctx, ListParams{MenuName: model.MenuMain, FilterParent: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Home", "Contact"}, itemNames(roots))

	home := find(t, svc, model.MenuMain, "Home")
	children, err := svc.List(ctx, ListParams{FilterParent: true, ParentID: &home.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"About"}, itemNames(children))

	found, err := svc.List(ctx, ListParams{Query: "team"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Team"}, itemNames(found))

	names, err := svc.MenuNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"footer", "main"}, names)
}

func TestServiceWithoutCache(t *testing.T) {
	db := testutil.TestSeededDB(t)
	svc := NewMenuService(db, Options{Logger: testutil.TestLoggerSilent()})
	ctx := context.Background()

	assert.Nil(t, svc.MenuCache())
	require.NoError(t, svc.InvalidateCache(ctx))

	res, err := svc.Render(ctx, model.MenuMain, "/about")
	require.NoError(t, err)
	require.NotNil(t, res.ActiveItem)
	assert.Equal(t, "About", res.ActiveItem.Name)

	// Without a resolver named items degrade to "#".
	assert.Len(t, res.Unresolved, 2)
}
