// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryCacheGetSet(t *testing.T) {
	c := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Hour})
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	if _, err := c.Get(ctx, "missing"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("Get(missing) error = %v, want ErrCacheMiss", err)
	}

	value := []byte("hello")
	if err := c.Set(ctx, "k", value, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	value[0] = 'j'

	got, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("Get = %q, want %q", got, "hello")
	}

	got[0] = 'x'
	again, _ := c.Get(ctx, "k")
	if string(again) != "hello" {
		t.Errorf("cached value mutated through returned slice: %q", again)
	}

	stats := c.Stats()
	if stats.Hits != 2 || stats.Misses != 1 || stats.Sets != 1 || stats.Items != 1 {
		t.Errorf("Stats = %+v, want 2 hits, 1 miss, 1 set, 1 item", stats)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Hour})
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	if err := c.Set(ctx, "short", []byte("v"), time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, err := c.Get(ctx, "short"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get(expired) error = %v, want ErrCacheMiss", err)
	}
	if n := c.Stats().Items; n != 0 {
		t.Errorf("Items = %d, want 0 after expiry", n)
	}
}

func TestMemoryCacheMaxSize(t *testing.T) {
	c := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Hour, MaxSize: 2})
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatalf("Set(%s): %v", k, err)
		}
	}

	if _, err := c.Get(ctx, "c"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get(c) error = %v, want ErrCacheMiss when full", err)
	}

	// Overwriting an existing key is allowed when full.
	if err := c.Set(ctx, "a", []byte("A"), 0); err != nil {
		t.Fatalf("Set(a): %v", err)
	}
	got, err := c.Get(ctx, "a")
	if err != nil || string(got) != "A" {
		t.Errorf("Get(a) = %q, %v; want %q", got, err, "A")
	}
	if n := c.Stats().Items; n != 2 {
		t.Errorf("Items = %d, want 2", n)
	}
}

func TestMemoryCacheDeleteClear(t *testing.T) {
	c := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Hour})
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	_ = c.Set(ctx, "a", []byte("1"), 0)
	_ = c.Set(ctx, "b", []byte("2"), 0)

	if err := c.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.Get(ctx, "a"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get(a) after Delete error = %v, want ErrCacheMiss", err)
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n := c.Stats().Items; n != 0 {
		t.Errorf("Items = %d, want 0 after Clear", n)
	}
}

func TestMemoryCacheClosed(t *testing.T) {
	c := NewMemoryCache(MemoryCacheOptions{CleanupInterval: time.Millisecond})
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	ctx := context.Background()
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("Get error = %v, want ErrCacheClosed", err)
	}
	if err := c.Set(ctx, "k", nil, 0); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("Set error = %v, want ErrCacheClosed", err)
	}
}

func TestMemoryCacheResetStats(t *testing.T) {
	c := NewMemoryCache(MemoryCacheOptions{})
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	_, _ = c.Get(ctx, "x")
	c.ResetStats()
	if s := c.Stats(); s.Misses != 0 || s.HitRate != 0 {
		t.Errorf("Stats after reset = %+v", s)
	}
}
