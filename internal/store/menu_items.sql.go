// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/olegiv/ocms-menu/internal/model"
)

const menuItemColumns = `id, menu_name, name, url, named_url, parent_id, position, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMenuItem(row rowScanner) (MenuItem, error) {
	var i MenuItem
	err := row.Scan(
		&i.ID,
		&i.MenuName,
		&i.Name,
		&i.Url,
		&i.NamedUrl,
		&i.ParentID,
		&i.Position,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func (q *Queries) listMenuItems(ctx context.Context, query string, args ...any) ([]MenuItem, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []MenuItem{}
	for rows.Next() {
		i, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createMenuItem = `
INSERT INTO menu_items (menu_name, name, url, named_url, parent_id, position, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + menuItemColumns

// CreateMenuItemParams holds the columns of a new menu item.
type CreateMenuItemParams struct {
	MenuName  string
	Name      string
	Url       string
	NamedUrl  string
	ParentID  sql.NullInt64
	Position  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateMenuItem inserts a menu item and returns the stored row.
func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRowContext(ctx, createMenuItem,
		arg.MenuName,
		arg.Name,
		arg.Url,
		arg.NamedUrl,
		arg.ParentID,
		arg.Position,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanMenuItem(row)
}

const getMenuItemByID = `SELECT ` + menuItemColumns + ` FROM menu_items WHERE id = ?`

// GetMenuItemByID returns sql.ErrNoRows when the item does not exist.
func (q *Queries) GetMenuItemByID(ctx context.Context, id int64) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRowContext(ctx, getMenuItemByID, id))
}

const updateMenuItem = `
UPDATE menu_items
SET menu_name = ?, name = ?, url = ?, named_url = ?, parent_id = ?, position = ?, updated_at = ?
WHERE id = ?
RETURNING ` + menuItemColumns

// UpdateMenuItemParams holds the editable columns of a menu item.
type UpdateMenuItemParams struct {
	ID        int64
	MenuName  string
	Name      string
	Url       string
	NamedUrl  string
	ParentID  sql.NullInt64
	Position  int64
	UpdatedAt time.Time
}

// UpdateMenuItem rewrites all editable columns of a menu item.
func (q *Queries) UpdateMenuItem(ctx context.Context, arg UpdateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRowContext(ctx, updateMenuItem,
		arg.MenuName,
		arg.Name,
		arg.Url,
		arg.NamedUrl,
		arg.ParentID,
		arg.Position,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanMenuItem(row)
}

const updateMenuItemPosition = `UPDATE menu_items SET position = ?, updated_at = ? WHERE id = ?`

// UpdateMenuItemPositionParams holds a new sort key for an item.
type UpdateMenuItemPositionParams struct {
	ID        int64
	Position  int64
	UpdatedAt time.Time
}

// UpdateMenuItemPosition changes only the sort key of an item.
func (q *Queries) UpdateMenuItemPosition(ctx context.Context, arg UpdateMenuItemPositionParams) error {
	_, err := q.db.ExecContext(ctx, updateMenuItemPosition, arg.Position, arg.UpdatedAt, arg.ID)
	return err
}

const deleteMenuItem = `DELETE FROM menu_items WHERE id = ?`

// DeleteMenuItem removes an item; its subtree goes with it through ON DELETE CASCADE.
func (q *Queries) DeleteMenuItem(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteMenuItem, id)
	return err
}

const listMenuItemsByMenuName = `
SELECT ` + menuItemColumns + ` FROM menu_items
WHERE menu_name = ?
ORDER BY position, name, id`

// ListMenuItemsByMenuName loads every item of one menu in a single query.
func (q *Queries) ListMenuItemsByMenuName(ctx context.Context, menuName string) ([]MenuItem, error) {
	return q.listMenuItems(ctx, listMenuItemsByMenuName, menuName)
}

const listRootMenuItems = `
SELECT ` + menuItemColumns + ` FROM menu_items
WHERE menu_name = ? AND parent_id IS NULL AND id <> ?
ORDER BY position, name, id`

// ListRootMenuItemsParams selects root items of a menu, optionally excluding one id.
type ListRootMenuItemsParams struct {
	MenuName  string
	ExcludeID int64
}

// ListRootMenuItems returns root items of a menu. ExcludeID 0 excludes nothing.
func (q *Queries) ListRootMenuItems(ctx context.Context, arg ListRootMenuItemsParams) ([]MenuItem, error) {
	return q.listMenuItems(ctx, listRootMenuItems, arg.MenuName, arg.ExcludeID)
}

const listChildMenuItems = `
SELECT ` + menuItemColumns + ` FROM menu_items
WHERE parent_id = ? AND id <> ?
ORDER BY position, name, id`

// ListChildMenuItemsParams selects children of a parent, optionally excluding one id.
type ListChildMenuItemsParams struct {
	ParentID  int64
	ExcludeID int64
}

// ListChildMenuItems returns the direct children of a parent item.
func (q *Queries) ListChildMenuItems(ctx context.Context, arg ListChildMenuItemsParams) ([]MenuItem, error) {
	return q.listMenuItems(ctx, listChildMenuItems, arg.ParentID, arg.ExcludeID)
}

const listMenuNames = `SELECT DISTINCT menu_name FROM menu_items ORDER BY menu_name`

// ListMenuNames returns the distinct menu names in use.
func (q *Queries) ListMenuNames(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listMenuNames)
	if err != nil {
		return nil, err
	}
	return scanNames(rows)
}

const listSubtreeMenuNames = `
WITH RECURSIVE subtree(id, menu_name, depth) AS (
    SELECT id, menu_name, 0 FROM menu_items WHERE id = ?
    UNION
    SELECT m.id, m.menu_name, s.depth + 1
    FROM menu_items m JOIN subtree s ON m.parent_id = s.id
    WHERE s.depth < ?
)
SELECT DISTINCT menu_name FROM subtree ORDER BY menu_name`

// ListSubtreeMenuNames returns the menus holding id or any of its
// descendants, which is every menu a cascading delete of id touches.
func (q *Queries) ListSubtreeMenuNames(ctx context.Context, id int64) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listSubtreeMenuNames, id, model.MaxDepth)
	if err != nil {
		return nil, err
	}
	return scanNames(rows)
}

func scanNames(rows *sql.Rows) ([]string, error) {
	defer func() { _ = rows.Close() }()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

const menuItemNameExists = `
SELECT EXISTS (
    SELECT 1 FROM menu_items
    WHERE menu_name = ? AND COALESCE(parent_id, 0) = ? AND name = ? AND id <> ?
)`

// MenuItemNameExistsParams identifies a (menu, parent, name) group member.
type MenuItemNameExistsParams struct {
	MenuName  string
	ParentID  sql.NullInt64
	Name      string
	ExcludeID int64
}

// MenuItemNameExists reports whether another item already uses the name in the group.
func (q *Queries) MenuItemNameExists(ctx context.Context, arg MenuItemNameExistsParams) (bool, error) {
	var parentKey int64
	if arg.ParentID.Valid {
		parentKey = arg.ParentID.Int64
	}
	var exists int64
	err := q.db.QueryRowContext(ctx, menuItemNameExists, arg.MenuName, parentKey, arg.Name, arg.ExcludeID).Scan(&exists)
	return exists != 0, err
}

const searchMenuItems = `
SELECT ` + menuItemColumns + ` FROM menu_items
WHERE (? = '' OR menu_name = ?)
  AND (? = 0 OR (? = 1 AND parent_id IS NULL) OR parent_id = ?)
  AND (? = '' OR name LIKE ? ESCAPE '\' OR menu_name LIKE ? ESCAPE '\'
       OR url LIKE ? ESCAPE '\' OR named_url LIKE ? ESCAPE '\')
ORDER BY menu_name, position, name, id
LIMIT ? OFFSET ?`

// SearchMenuItemsParams filters the admin item list.
// FilterParent enables the parent filter; a null ParentID then selects roots.
type SearchMenuItemsParams struct {
	MenuName     string
	FilterParent bool
	ParentID     sql.NullInt64
	Query        string
	Limit        int64
	Offset       int64
}

// SearchMenuItems lists items for administration, ordered by menu, position and name.
func (q *Queries) SearchMenuItems(ctx context.Context, arg SearchMenuItemsParams) ([]MenuItem, error) {
	var parentMode, rootsOnly int64
	if arg.FilterParent {
		parentMode = 1
		if !arg.ParentID.Valid {
			rootsOnly = 1
		}
	}
	pattern := "%" + escapeLike(arg.Query) + "%"
	limit := arg.Limit
	if limit <= 0 {
		limit = -1
	}
	return q.listMenuItems(ctx, searchMenuItems,
		arg.MenuName, arg.MenuName,
		parentMode, rootsOnly, arg.ParentID,
		arg.Query, pattern, pattern, pattern, pattern,
		limit, arg.Offset,
	)
}

// escapeLike escapes LIKE wildcards so the query matches literally.
func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
