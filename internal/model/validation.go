// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Validation errors. Messages are shown to admin users as form errors.
var (
	ErrInvalidParent     = errors.New("an item cannot be its own parent")
	ErrMissingTarget     = errors.New("either URL or named URL must be provided")
	ErrConflictingTarget = errors.New("cannot provide both URL and named URL")
	ErrCircularReference = errors.New("circular reference detected")
	ErrParentNotFound    = errors.New("parent item does not exist")
	ErrDuplicateName     = errors.New("an item with this name already exists under the same parent")
	ErrNameRequired      = errors.New("name is required")
	ErrMenuNameRequired  = errors.New("menu name is required")
	ErrFieldTooLong      = errors.New("value is too long")
	ErrNegativeOrder     = errors.New("order must not be negative")
)

// Form field names used in ValidationError.
const (
	FieldName     = "name"
	FieldMenuName = "menu_name"
	FieldURL      = "url"
	FieldNamedURL = "named_url"
	FieldParent   = "parent"
	FieldOrder    = "order"
)

// ValidationError ties a validation failure to the form field it concerns.
// Field is empty for errors that concern the item as a whole.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Err: err}
}

// ValidateFields checks everything that can be decided from the item alone:
// required fields, length limits, order, self-parenting and the URL source rule.
func ValidateFields(item MenuItem) error {
	switch {
	case strings.TrimSpace(item.Name) == "":
		return invalid(FieldName, ErrNameRequired)
	case len(item.Name) > MaxNameLength:
		return invalid(FieldName, ErrFieldTooLong)
	case strings.TrimSpace(item.MenuName) == "":
		return invalid(FieldMenuName, ErrMenuNameRequired)
	case len(item.MenuName) > MaxMenuNameLength:
		return invalid(FieldMenuName, ErrFieldTooLong)
	case len(item.URL) > MaxURLLength:
		return invalid(FieldURL, ErrFieldTooLong)
	case len(item.NamedURL) > MaxURLLength:
		return invalid(FieldNamedURL, ErrFieldTooLong)
	case item.Order < 0:
		return invalid(FieldOrder, ErrNegativeOrder)
	}

	if item.ID != 0 && item.HasParent(item.ID) {
		return invalid(FieldParent, ErrInvalidParent)
	}
	if item.URL == "" && item.NamedURL == "" {
		return invalid("", ErrMissingTarget)
	}
	if item.URL != "" && item.NamedURL != "" {
		return invalid("", ErrConflictingTarget)
	}
	return nil
}

// ParentLookup fetches an item by id. found is false when no such item exists.
type ParentLookup func(ctx context.Context, id int64) (item MenuItem, found bool, err error)

// CheckAncestry walks the parent chain of item through lookup and fails with
// ErrCircularReference if the chain comes back to item, or does not reach a
// root within MaxDepth steps. A dangling first parent yields ErrParentNotFound.
func CheckAncestry(ctx context.Context, item MenuItem, lookup ParentLookup) error {
	if item.IsRoot() {
		return nil
	}

	parentID := item.ParentID
	for depth := 0; parentID.Valid; depth++ {
		if depth >= MaxDepth {
			return invalid(FieldParent, ErrCircularReference)
		}
		if item.ID != 0 && parentID.Int64 == item.ID {
			if depth == 0 {
				return invalid(FieldParent, ErrInvalidParent)
			}
			return invalid(FieldParent, ErrCircularReference)
		}

		parent, found, err := lookup(ctx, parentID.Int64)
		if err != nil {
			return fmt.Errorf("loading parent %d: %w", parentID.Int64, err)
		}
		if !found {
			if depth == 0 {
				return invalid(FieldParent, ErrParentNotFound)
			}
			// Broken link further up; the chain ends here.
			return nil
		}
		parentID = parent.ParentID
	}
	return nil
}
