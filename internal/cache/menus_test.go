// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/olegiv/ocms-menu/internal/model"
)

type countingLoader struct {
	calls map[string]int
	items map[string][]model.MenuItem
	err   error
	// during runs inside load, standing in for a concurrent write.
	during func()
}

func (l *countingLoader) load(_ context.Context, menuName string) ([]model.MenuItem, error) {
	l.calls[menuName]++
	if l.during != nil {
		l.during()
	}
	if l.err != nil {
		return nil, l.err
	}
	return l.items[menuName], nil
}

func newLoader() *countingLoader {
	return &countingLoader{
		calls: map[string]int{},
		items: map[string][]model.MenuItem{
			"main": {
				{ID: 1, MenuName: "main", Name: "Home", URL: "/"},
				{ID: 2, MenuName: "main", Name: "About", URL: "/about", ParentID: sql.NullInt64{Int64: 1, Valid: true}},
			},
		},
	}
}

func TestMenuCacheLoadsOnce(t *testing.T) {
	backend := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Hour})
	defer func() { _ = backend.Close() }()
	loader := newLoader()
	mc := NewMenuCache(backend, loader.load, 0, nil)
	ctx := context.Background()

	items, hit, err := mc.Get(ctx, "main")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if hit {
		t.Error("first Get reported a hit")
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}

	items, hit, err = mc.Get(ctx, "main")
	if err != nil {
		t.Fatalf("second Get: %v", err)
	}
	if !hit {
		t.Error("second Get missed")
	}
	if loader.calls["main"] != 1 {
		t.Errorf("loader called %d times, want 1", loader.calls["main"])
	}
	if !items[1].ParentID.Valid || items[1].ParentID.Int64 != 1 {
		t.Errorf("parent lost in snapshot: %+v", items[1].ParentID)
	}

	if s := mc.Stats(); s.Hits != 1 || s.Misses != 1 || s.Items != 1 {
		t.Errorf("Stats = %+v", s)
	}
}

func TestMenuCacheEmptyMenu(t *testing.T) {
	backend := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Hour})
	defer func() { _ = backend.Close() }()
	mc := NewMenuCache(backend, newLoader().load, 0, nil)

	items, _, err := mc.Get(context.Background(), "nothing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Errorf("items = %#v, want empty non-nil", items)
	}
}

func TestMenuCacheInvalidate(t *testing.T) {
	backend := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Hour})
	defer func() { _ = backend.Close() }()
	loader := newLoader()
	mc := NewMenuCache(backend, loader.load, 0, nil)
	ctx := context.Background()

	_, _, _ = mc.Get(ctx, "main")
	_, _, _ = mc.Get(ctx, "footer")

	if err := mc.Invalidate(ctx, "main", "main", ""); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if got := mc.Cached(); len(got) != 1 || got[0] != "footer" {
		t.Errorf("Cached = %v, want [footer]", got)
	}

	_, hit, _ := mc.Get(ctx, "main")
	if hit {
		t.Error("Get after Invalidate hit a stale snapshot")
	}
	if loader.calls["main"] != 2 {
		t.Errorf("loader called %d times, want 2", loader.calls["main"])
	}

	if err := mc.InvalidateAll(ctx); err != nil {
		t.Fatalf("InvalidateAll: %v", err)
	}
	if got := mc.Cached(); len(got) != 0 {
		t.Errorf("Cached after InvalidateAll = %v", got)
	}
}

func TestMenuCacheLoaderError(t *testing.T) {
	backend := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Hour})
	defer func() { _ = backend.Close() }()
	loader := newLoader()
	loader.err = errors.New("db down")
	mc := NewMenuCache(backend, loader.load, 0, nil)

	if _, _, err := mc.Get(context.Background(), "main"); !errors.Is(err, loader.err) {
		t.Errorf("Get error = %v, want wrapped loader error", err)
	}
}

func TestMenuCacheSurvivesBrokenBackend(t *testing.T) {
	backend := NewMemoryCache(MemoryCacheOptions{})
	_ = backend.Close()
	loader := newLoader()
	mc := NewMenuCache(backend, loader.load, 0, nil)

	items, hit, err := mc.Get(context.Background(), "main")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if hit || len(items) != 2 {
		t.Errorf("Get = %d items, hit %v; want 2 items from the store", len(items), hit)
	}
}

func TestMenuCacheOverRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	backend, err := NewRedisCacheFromURL("redis://"+mr.Addr(), "ocms-menu:", time.Hour)
	if err != nil {
		t.Fatalf("NewRedisCacheFromURL: %v", err)
	}
	defer func() { _ = backend.Close() }()

	loader := newLoader()
	ctx := context.Background()

	first := NewMenuCache(backend, loader.load, time.Minute, nil)
	if _, _, err := first.Get(ctx, "main"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !mr.Exists("ocms-menu:menu:main") {
		t.Fatal("snapshot not written to redis")
	}

	// A second process sharing the backend sees the same snapshot.
	second := NewMenuCache(backend, loader.load, time.Minute, nil)
	if _, hit, _ := second.Get(ctx, "main"); !hit {
		t.Error("shared snapshot not found")
	}
	if loader.calls["main"] != 1 {
		t.Errorf("loader called %d times, want 1", loader.calls["main"])
	}

	if err := second.Invalidate(ctx, "main"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if mr.Exists("ocms-menu:menu:main") {
		t.Error("snapshot survived Invalidate")
	}
}

func TestMenuCacheSkipsSnapshotInvalidatedDuringLoad(t *testing.T) {
	backend := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Hour})
	defer func() { _ = backend.Close() }()
	loader := newLoader()
	mc := NewMenuCache(backend, loader.load, 0, nil)
	ctx := context.Background()

	loader.during = func() {
		if err := mc.Invalidate(ctx, "main"); err != nil {
			t.Errorf("Invalidate: %v", err)
		}
	}
	items, hit, err := mc.Get(ctx, "main")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if hit || len(items) != 2 {
		t.Errorf("Get = %d items, hit %v; want 2 loaded items", len(items), hit)
	}
	if _, err := backend.Get(ctx, menuKey("main")); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("snapshot stored despite invalidation: err = %v", err)
	}
	if got := mc.Cached(); len(got) != 0 {
		t.Errorf("Cached = %v, want none", got)
	}

	loader.during = func() {
		if err := mc.InvalidateAll(ctx); err != nil {
			t.Errorf("InvalidateAll: %v", err)
		}
	}
	if _, _, err := mc.Get(ctx, "main"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, err := backend.Get(ctx, menuKey("main")); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("snapshot stored despite clear: err = %v", err)
	}

	// Once writes stop, the next load is stored as usual.
	loader.during = nil
	_, _, _ = mc.Get(ctx, "main")
	if _, hit, _ := mc.Get(ctx, "main"); !hit {
		t.Error("snapshot not stored after invalidations stopped")
	}
}

func TestMenuCacheResetStats(t *testing.T) {
	backend := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Hour})
	defer func() { _ = backend.Close() }()
	mc := NewMenuCache(backend, newLoader().load, 0, nil)
	ctx := context.Background()

	_, _, _ = mc.Get(ctx, "main")
	_, _, _ = mc.Get(ctx, "main")

	bs, ok := mc.BackendStats()
	if !ok {
		t.Fatal("memory backend reported no stats")
	}
	if bs.Sets != 1 || bs.Hits != 1 {
		t.Errorf("BackendStats = %+v, want 1 set and 1 hit", bs)
	}

	mc.ResetStats()
	if s := mc.Stats(); s.Hits != 0 || s.Misses != 0 || s.Items != 1 {
		t.Errorf("Stats after reset = %+v", s)
	}
	if bs, _ := mc.BackendStats(); bs.Hits != 0 || bs.Misses != 0 || bs.Sets != 0 {
		t.Errorf("BackendStats after reset = %+v", bs)
	}
}
