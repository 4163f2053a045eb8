// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"

	"github.com/olegiv/ocms-menu/internal/model"
)

// MenuItem is a row of the menu_items table.
type MenuItem struct {
	ID        int64
	MenuName  string
	Name      string
	Url       string
	NamedUrl  string
	ParentID  sql.NullInt64
	Position  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Model converts the row to the domain type.
func (m MenuItem) Model() model.MenuItem {
	return model.MenuItem{
		ID:        m.ID,
		MenuName:  m.MenuName,
		Name:      m.Name,
		URL:       m.Url,
		NamedURL:  m.NamedUrl,
		ParentID:  m.ParentID,
		Order:     int(m.Position),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// MenuItemModels converts a slice of rows.
func MenuItemModels(rows []MenuItem) []model.MenuItem {
	items := make([]model.MenuItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, r.Model())
	}
	return items
}

// Event is a row of the events table.
type Event struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	Metadata  string
	CreatedAt time.Time
}
