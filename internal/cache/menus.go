// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/olegiv/ocms-menu/internal/model"
)

const menuKeyPrefix = "menu:"

// MenuLoader reads every item of one menu from the store.
type MenuLoader func(ctx context.Context, menuName string) ([]model.MenuItem, error)

// MenuCache holds one snapshot of items per menu name. The snapshot is
// stored as JSON so the same code runs over memory and Redis.
type MenuCache struct {
	backend Cacher
	load    MenuLoader
	ttl     time.Duration
	logger  *slog.Logger

	// gens counts invalidations per menu and epoch counts full clears. A
	// load only stores its snapshot when neither moved while it ran.
	mu    sync.Mutex
	keys  map[string]struct{}
	gens  map[string]uint64
	epoch uint64

	hits   atomic.Int64
	misses atomic.Int64
}

// NewMenuCache creates a menu cache over backend. A zero ttl uses the
// backend default. Invalidation on write keeps entries fresh; the ttl only
// bounds staleness after writes made behind the service's back, such as
// another process sharing a Redis backend. A nil logger uses slog.Default.
func NewMenuCache(backend Cacher, load MenuLoader, ttl time.Duration, logger *slog.Logger) *MenuCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &MenuCache{
		backend: backend,
		load:    load,
		ttl:     ttl,
		logger:  logger,
		keys:    map[string]struct{}{},
		gens:    map[string]uint64{},
	}
}

func menuKey(menuName string) string {
	return menuKeyPrefix + menuName
}

// Get returns the snapshot for menuName, loading and storing it on a miss.
// hit reports whether the snapshot came from the cache. Backend failures
// other than a miss are logged and the store is read directly.
func (c *MenuCache) Get(ctx context.Context, menuName string) (items []model.MenuItem, hit bool, err error) {
	data, err := c.backend.Get(ctx, menuKey(menuName))
	switch {
	case err == nil:
		jerr := json.Unmarshal(data, &items)
		if jerr == nil {
			c.hits.Add(1)
			return items, true, nil
		}
		c.logger.Warn("discarding unreadable menu snapshot",
			"category", model.EventCategoryCache, "menu", menuName, "error", jerr)
	case !errors.Is(err, ErrCacheMiss):
		c.logger.Warn("menu cache read failed",
			"category", model.EventCategoryCache, "menu", menuName, "error", err)
	}
	c.misses.Add(1)

	epoch, gen := c.generation(menuName)
	items, err = c.load(ctx, menuName)
	if err != nil {
		return nil, false, fmt.Errorf("loading menu %q: %w", menuName, err)
	}
	if items == nil {
		items = []model.MenuItem{}
	}

	data, err = json.Marshal(items)
	if err != nil {
		return nil, false, fmt.Errorf("encoding menu %q: %w", menuName, err)
	}
	stored, err := c.store(ctx, menuName, data, epoch, gen)
	switch {
	case err != nil:
		c.logger.Warn("menu cache write failed",
			"category", model.EventCategoryCache, "menu", menuName, "error", err)
	case !stored:
		c.logger.Debug("menu invalidated while loading, snapshot not stored",
			"category", model.EventCategoryCache, "menu", menuName)
	}
	return items, false, nil
}

func (c *MenuCache) generation(menuName string) (epoch, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch, c.gens[menuName]
}

// store writes data unless menuName was invalidated after epoch and gen were
// read. The check and the write share the lock that invalidation takes
// before deleting, so a snapshot read before a write never outlives it.
func (c *MenuCache) store(ctx context.Context, menuName string, data []byte, epoch, gen uint64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch || c.gens[menuName] != gen {
		return false, nil
	}
	if err := c.backend.Set(ctx, menuKey(menuName), data, c.ttl); err != nil {
		return false, err
	}
	c.keys[menuName] = struct{}{}
	return true, nil
}

// Invalidate drops the snapshots of the given menus. Duplicate and empty
// names are ignored.
func (c *MenuCache) Invalidate(ctx context.Context, menuNames ...string) error {
	var errs []error
	seen := make(map[string]bool, len(menuNames))
	for _, name := range menuNames {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		c.bump(name)
		if err := c.backend.Delete(ctx, menuKey(name)); err != nil {
			errs = append(errs, fmt.Errorf("invalidating menu %q: %w", name, err))
			continue
		}
		c.forget(name)
	}
	return errors.Join(errs...)
}

// InvalidateAll drops every snapshot held by the backend.
func (c *MenuCache) InvalidateAll(ctx context.Context) error {
	c.mu.Lock()
	c.epoch++
	c.mu.Unlock()
	if err := c.backend.Clear(ctx); err != nil {
		return fmt.Errorf("clearing menu cache: %w", err)
	}
	c.mu.Lock()
	clear(c.keys)
	c.mu.Unlock()
	return nil
}

// Cached lists menu names this process has stored since the last clear.
func (c *MenuCache) Cached() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.keys))
	for name := range c.keys {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// Stats returns hit and miss counts for menu snapshots.
func (c *MenuCache) Stats() Stats {
	hits, misses := c.hits.Load(), c.misses.Load()
	return Stats{
		Hits:    hits,
		Misses:  misses,
		Items:   len(c.Cached()),
		HitRate: hitRate(hits, misses),
	}
}

// BackendStats returns the backend's own statistics when it tracks them.
func (c *MenuCache) BackendStats() (Stats, bool) {
	sp, ok := c.backend.(StatsProvider)
	if !ok {
		return Stats{}, false
	}
	return sp.Stats(), true
}

// ResetStats zeroes the snapshot counters and those of the backend.
func (c *MenuCache) ResetStats() {
	c.hits.Store(0)
	c.misses.Store(0)
	if sp, ok := c.backend.(StatsProvider); ok {
		sp.ResetStats()
	}
}

func (c *MenuCache) bump(name string) {
	c.mu.Lock()
	c.gens[name]++
	c.mu.Unlock()
}

func (c *MenuCache) forget(name string) {
	c.mu.Lock()
	delete(c.keys, name)
	c.mu.Unlock()
}
