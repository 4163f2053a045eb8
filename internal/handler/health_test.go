// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/ocms-menu/internal/cache"
	"github.com/olegiv/ocms-menu/internal/testutil"
	"github.com/olegiv/ocms-menu/internal/version"
)

func decodeHealth(t *testing.T, h http.HandlerFunc, target string) (int, HealthStatus) {
	t.Helper()
	w := get(t, h, target)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var status HealthStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	return w.Code, status
}

func TestHealthMemoryCache(t *testing.T) {
	db := testutil.TestDB(t)
	mc := cache.NewMemoryCache(cache.MemoryCacheOptions{})
	t.Cleanup(func() { _ = mc.Close() })

	h := NewHealthHandler(db, mc, cache.Info{Backend: cache.BackendMemory}, version.Info{Version: "v1.2.3"})
	code, status := decodeHealth(t, h.Health, "/health")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, statusHealthy, status.Status)
	assert.Equal(t, "v1.2.3", status.Version)
	assert.Equal(t, statusHealthy, status.Checks["database"].Status)
	assert.Equal(t, "memory", status.Checks["cache"].Message)
	assert.Nil(t, status.System)
}

func TestHealthVerbose(t *testing.T) {
	h := NewHealthHandler(testutil.TestDB(t), nil, cache.Info{}, version.Info{})
	_, status := decodeHealth(t, h.Health, "/health?verbose=true")

	require.NotNil(t, status.System)
	assert.Positive(t, status.System.NumCPU)
	assert.Equal(t, "disabled", status.Checks["cache"].Message)
	assert.Equal(t, "dev", status.Version)
}

func TestHealthDatabaseDown(t *testing.T) {
	db := testutil.TestDB(t)
	require.NoError(t, db.Close())

	h := NewHealthHandler(db, nil, cache.Info{}, version.Info{})
	code, status := decodeHealth(t, h.Health, "/health")

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, statusUnhealthy, status.Status)
	assert.Equal(t, "database unreachable", status.Checks["database"].Message)
}

func TestHealthRedisDownIsDegraded(t *testing.T) {
	mr := miniredis.RunT(t)
	rc, err := cache.NewRedisCacheFromURL("redis://"+mr.Addr(), "test:", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })

	h := NewHealthHandler(testutil.TestDB(t), rc, cache.Info{Backend: cache.BackendRedis}, version.Info{})

	code, status := decodeHealth(t, h.Health, "/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, statusHealthy, status.Checks["cache"].Status)

	mr.Close()
	code, status = decodeHealth(t, h.Health, "/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, statusDegraded, status.Status)
	assert.Equal(t, "redis unreachable", status.Checks["cache"].Message)
}

func TestHealthLiveness(t *testing.T) {
	h := NewHealthHandler(testutil.TestDB(t), nil, cache.Info{}, version.Info{})
	w := get(t, http.HandlerFunc(h.Liveness), "/health/live")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"alive"}`, w.Body.String())
}
