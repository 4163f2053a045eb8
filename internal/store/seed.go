// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// seedItem describes a demo menu item; parent refers to another seedItem key.
type seedItem struct {
	key      string
	parent   string
	menu     string
	name     string
	url      string
	namedURL string
	position int64
}

// demoItems is the default navigation installed by Seed.
var demoItems = []seedItem{
	{key: "home", menu: "main", name: "Home", url: "/", position: 0},
	{key: "about", parent: "home", menu: "main", name: "About", url: "/about", position: 0},
	{key: "team", parent: "about", menu: "main", name: "Team", namedURL: "team", position: 0},
	{key: "contact", menu: "main", name: "Contact", namedURL: "contact", position: 1},
	{key: "privacy", menu: "footer", name: "Privacy", url: "/privacy", position: 0},
	{key: "sitemap", menu: "footer", name: "Sitemap", namedURL: "sitemap", position: 1},
}

// Seed installs the demo menus when doSeed is set and no items exist yet.
func Seed(ctx context.Context, db *sql.DB, doSeed bool) error {
	if !doSeed {
		slog.Info("seeding disabled, skipping")
		return nil
	}

	queries := New(db)

	names, err := queries.ListMenuNames(ctx)
	if err != nil {
		return fmt.Errorf("checking for menus: %w", err)
	}
	if len(names) > 0 {
		slog.Info("menus already exist, skipping seed", "menus", names)
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	qtx := queries.WithTx(tx)
	now := time.Now()
	ids := make(map[string]int64, len(demoItems))

	for _, it := range demoItems {
		var parentID sql.NullInt64
		if it.parent != "" {
			parentID = sql.NullInt64{Int64: ids[it.parent], Valid: true}
		}
		created, err := qtx.CreateMenuItem(ctx, CreateMenuItemParams{
			MenuName:  it.menu,
			Name:      it.name,
			Url:       it.url,
			NamedUrl:  it.namedURL,
			ParentID:  parentID,
			Position:  it.position,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("creating menu item %q: %w", it.name, err)
		}
		ids[it.key] = created.ID
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing seed: %w", err)
	}

	slog.Info("seeded demo menus", "items", len(demoItems))
	return nil
}
