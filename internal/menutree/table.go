// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package menutree works on an immutable snapshot of one menu's items. Items
// live in a flat table indexed by id; parent links are ids, never pointers.
package menutree

import (
	"github.com/olegiv/ocms-menu/internal/model"
)

// Table is a read-only snapshot of menu items keyed by id.
// The zero value is an empty table.
type Table struct {
	items    []model.MenuItem // sibling order: position, name, id
	index    map[int64]int
	children map[int64][]int
	roots    []int
}

// NewTable copies items into a table. The caller's slice is not retained.
func NewTable(items []model.MenuItem) *Table {
	sorted := make([]model.MenuItem, len(items))
	copy(sorted, items)
	model.SortSiblings(sorted)

	t := &Table{
		items:    sorted,
		index:    make(map[int64]int, len(sorted)),
		children: make(map[int64][]int),
	}
	for i, it := range sorted {
		t.index[it.ID] = i
		if it.IsRoot() {
			t.roots = append(t.roots, i)
		} else {
			t.children[it.ParentID.Int64] = append(t.children[it.ParentID.Int64], i)
		}
	}
	return t
}

// Items returns all items in sibling order.
func (t *Table) Items() []model.MenuItem {
	out := make([]model.MenuItem, len(t.items))
	copy(out, t.items)
	return out
}

// Get returns the item with the given id.
func (t *Table) Get(id int64) (model.MenuItem, bool) {
	i, ok := t.index[id]
	if !ok {
		return model.MenuItem{}, false
	}
	return t.items[i], true
}

// Roots returns the items without a parent, in sibling order.
func (t *Table) Roots() []model.MenuItem {
	return t.pick(t.roots, 0)
}

// Children returns the direct children of id, in sibling order.
func (t *Table) Children(id int64) []model.MenuItem {
	return t.pick(t.children[id], 0)
}

// Siblings returns the items sharing item's parent, excluding item itself.
// For a root item these are the other roots of the same menu.
func (t *Table) Siblings(item model.MenuItem) []model.MenuItem {
	if !item.IsRoot() {
		return t.pick(t.children[item.ParentID.Int64], item.ID)
	}

	out := []model.MenuItem{}
	for _, i := range t.roots {
		it := t.items[i]
		if it.ID != item.ID && it.MenuName == item.MenuName {
			out = append(out, it)
		}
	}
	return out
}

// Ancestors returns item's parents from the nearest up to the root.
// The walk stops at a parent missing from the table, at a repeated id, or
// after model.MaxDepth steps, so corrupted links cannot make it loop.
func (t *Table) Ancestors(item model.MenuItem) []model.MenuItem {
	out := []model.MenuItem{}
	seen := map[int64]bool{item.ID: true}

	parentID := item.ParentID
	for parentID.Valid && len(out) < model.MaxDepth {
		if seen[parentID.Int64] {
			break
		}
		parent, ok := t.Get(parentID.Int64)
		if !ok {
			break
		}
		seen[parent.ID] = true
		out = append(out, parent)
		parentID = parent.ParentID
	}
	return out
}

func (t *Table) pick(indices []int, exclude int64) []model.MenuItem {
	out := make([]model.MenuItem, 0, len(indices))
	for _, i := range indices {
		if exclude != 0 && t.items[i].ID == exclude {
			continue
		}
		out = append(out, t.items[i])
	}
	return out
}
