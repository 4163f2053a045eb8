// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the menu item record and its validation rules.
package model

import (
	"cmp"
	"database/sql"
	"slices"
	"time"
)

// Default menu names
const (
	MenuMain   = "main"
	MenuFooter = "footer"
)

// UnresolvedURL is returned for items whose named route cannot be reversed.
const UnresolvedURL = "#"

// MaxDepth bounds every walk along parent links.
const MaxDepth = 64

// Field limits
const (
	MaxNameLength     = 100
	MaxMenuNameLength = 100
	MaxURLLength      = 255
)

// MenuItem is a node in a named forest of menu items.
// ParentID is null for root items.
type MenuItem struct {
	ID        int64
	MenuName  string
	Name      string
	URL       string
	NamedURL  string
	ParentID  sql.NullInt64
	Order     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsRoot reports whether the item has no parent.
func (m MenuItem) IsRoot() bool {
	return !m.ParentID.Valid
}

// HasParent reports whether the item's parent is the given id.
func (m MenuItem) HasParent(id int64) bool {
	return m.ParentID.Valid && m.ParentID.Int64 == id
}

func (m MenuItem) String() string {
	return m.Name
}

// CompareSiblings orders items by Order, then Name, then ID.
func CompareSiblings(a, b MenuItem) int {
	return cmp.Or(
		cmp.Compare(a.Order, b.Order),
		cmp.Compare(a.Name, b.Name),
		cmp.Compare(a.ID, b.ID),
	)
}

// SortSiblings sorts items in place using CompareSiblings.
func SortSiblings(items []MenuItem) {
	slices.SortStableFunc(items, CompareSiblings)
}

// NullParent builds a parent reference from an optional id.
func NullParent(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}
