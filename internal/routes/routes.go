// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package routes keeps a registry of named routes so menu items can point at
// a route by name instead of a literal path.
package routes

import (
	"errors"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

// ErrNotFound is returned when a route name cannot be reversed to a path.
var ErrNotFound = errors.New("route not found")

// Resolver maps a symbolic route name to a concrete path.
type Resolver interface {
	Reverse(name string) (string, error)
}

// ResolverFunc adapts a plain function to Resolver.
type ResolverFunc func(name string) (string, error)

// Reverse calls f(name).
func (f ResolverFunc) Reverse(name string) (string, error) {
	return f(name)
}

// Registry records route names alongside their chi patterns.
// It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	patterns map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{patterns: make(map[string]string)}
}

// Name records pattern under name, replacing any earlier pattern.
func (reg *Registry) Name(name, pattern string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.patterns[name] = pattern
}

// Get registers a GET handler on r and names its pattern.
func (reg *Registry) Get(r chi.Router, name, pattern string, h http.HandlerFunc) {
	r.Get(pattern, h)
	reg.Name(name, pattern)
}

// Handle registers a handler for all methods on r and names its pattern.
func (reg *Registry) Handle(r chi.Router, name, pattern string, h http.Handler) {
	r.Handle(pattern, h)
	reg.Name(name, pattern)
}

// Reverse returns the path registered under name. Patterns with URL
// parameters or wildcards need arguments and cannot be reversed by name alone.
func (reg *Registry) Reverse(name string) (string, error) {
	reg.mu.RLock()
	pattern, ok := reg.patterns[name]
	reg.mu.RUnlock()

	if !ok || !isStatic(pattern) {
		return "", ErrNotFound
	}
	return pattern, nil
}

// Names returns all registered route names, sorted.
func (reg *Registry) Names() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	names := make([]string, 0, len(reg.patterns))
	for name := range reg.patterns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func isStatic(pattern string) bool {
	return !strings.ContainsAny(pattern, "{*")
}

var _ Resolver = (*Registry)(nil)
