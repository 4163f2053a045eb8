// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package menutree

import (
	"github.com/olegiv/ocms-menu/internal/model"
	"github.com/olegiv/ocms-menu/internal/routes"
)

// ResolveURL returns the item's literal URL when set, otherwise the path its
// named route reverses to. Unresolvable names yield model.UnresolvedURL.
func ResolveURL(item model.MenuItem, resolver routes.Resolver) string {
	if item.URL != "" {
		return item.URL
	}
	if item.NamedURL == "" || resolver == nil {
		return model.UnresolvedURL
	}
	path, err := resolver.Reverse(item.NamedURL)
	if err != nil {
		return model.UnresolvedURL
	}
	return path
}

// Node is an item with its resolved URL and children, ready for a template.
type Node struct {
	Item     model.MenuItem
	URL      string
	Active   bool // the item matching the requested path
	InTrail  bool // an ancestor of the active item
	Children []Node
}

// Result is what a menu render needs for one request.
type Result struct {
	MenuName        string
	RootItems       []model.MenuItem
	ActiveItem      *model.MenuItem
	ActiveAncestors []model.MenuItem // nearest first
	Tree            []Node
	// URLs holds the resolved URL of every item above, keyed by id,
	// including items the tree cannot reach from a root.
	URLs map[int64]string
	// Unresolved lists ids of items whose named URL fell back to "#".
	Unresolved []int64
}

// Resolve locates the active item for currentPath and builds the render tree.
// Items are scanned in sibling order (position, name, id) over the whole
// table; the first whose resolved URL equals currentPath wins.
func (t *Table) Resolve(menuName, currentPath string, resolver routes.Resolver) Result {
	urls := make([]string, len(t.items))
	res := Result{
		MenuName:        menuName,
		RootItems:       t.Roots(),
		ActiveAncestors: []model.MenuItem{},
		URLs:            make(map[int64]string, len(t.items)),
		Unresolved:      []int64{},
	}

	active := -1
	for i, it := range t.items {
		urls[i] = ResolveURL(it, resolver)
		res.URLs[it.ID] = urls[i]
		if it.URL == "" && urls[i] == model.UnresolvedURL {
			res.Unresolved = append(res.Unresolved, it.ID)
		}
		if active < 0 && urls[i] == currentPath {
			active = i
		}
	}

	trail := map[int64]bool{}
	if active >= 0 {
		item := t.items[active]
		res.ActiveItem = &item
		res.ActiveAncestors = t.Ancestors(item)
		for _, a := range res.ActiveAncestors {
			trail[a.ID] = true
		}
	}

	var activeID int64
	if res.ActiveItem != nil {
		activeID = res.ActiveItem.ID
	}
	res.Tree = t.buildNodes(t.roots, urls, activeID, trail, 0)
	return res
}

// buildNodes descends from the given indices. Every node has exactly one
// parent, so the descent from roots cannot revisit a node; depth is still
// capped at model.MaxDepth.
func (t *Table) buildNodes(indices []int, urls []string, activeID int64, trail map[int64]bool, depth int) []Node {
	nodes := make([]Node, 0, len(indices))
	if depth >= model.MaxDepth {
		return nodes
	}
	for _, i := range indices {
		it := t.items[i]
		nodes = append(nodes, Node{
			Item:     it,
			URL:      urls[i],
			Active:   activeID != 0 && it.ID == activeID,
			InTrail:  trail[it.ID],
			Children: t.buildNodes(t.children[it.ID], urls, activeID, trail, depth+1),
		})
	}
	return nodes
}
