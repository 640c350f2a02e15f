// Copyright (C) 2025 Tidewater Commerce (dev@tidewatercommerce.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package catalog resolves the self-referential category tree:
// descendant aggregation, cycle detection before reparenting, and
// transactional subtree deletion.
//
// The tree invariant (no cycles) is enforced on the write path via
// WouldCreateCycle. The read path still carries a visited-set guard
// so a corrupted tree degrades to a truncated walk instead of an
// infinite loop.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/tidewater-commerce/tidewater/pkg/logging"
	"github.com/tidewater-commerce/tidewater/services/storefront/models"
)

// Sentinel errors. Handlers map these to HTTP statuses.
var (
	ErrNotFound = errors.New("category not found")
	ErrCycle    = errors.New("reparent would create a cycle")
	ErrConflict = errors.New("category has subcategories or product associations")
)

// Store is the persistence surface for the tree resolver.
// Lookup methods return (nil, nil) when the row does not exist.
type Store interface {
	// Category returns a category by id.
	Category(ctx context.Context, id string) (*models.Category, error)

	// Children returns the direct children of a category, by position.
	Children(ctx context.Context, parentID string) ([]models.Category, error)

	// HasProducts reports whether any product is associated with the
	// category.
	HasProducts(ctx context.Context, id string) (bool, error)

	// InsertCategory persists a new category.
	InsertCategory(ctx context.Context, c *models.Category) error

	// UpdateCategory persists changes to a category.
	UpdateCategory(ctx context.Context, c *models.Category) error

	// DeleteCategories removes the given category rows.
	DeleteCategories(ctx context.Context, ids []string) error

	// DeleteProductAssociations strips product links for the given
	// categories.
	DeleteProductAssociations(ctx context.Context, categoryIDs []string) error

	// Transact runs fn against a transactional view of the store.
	Transact(ctx context.Context, fn func(Store) error) error
}

// Tree provides category tree operations over a Store.
type Tree struct {
	store  Store
	logger *logging.Logger
}

// NewTree creates a tree resolver. A nil logger falls back to the
// package default.
func NewTree(store Store, logger *logging.Logger) *Tree {
	if logger == nil {
		logger = logging.Default()
	}
	return &Tree{store: store, logger: logger}
}

// Create inserts a new category. A non-nil parent must exist.
func (t *Tree) Create(ctx context.Context, name, slug string, parentID *string) (*models.Category, error) {
	if parentID != nil {
		parent, err := t.store.Category(ctx, *parentID)
		if err != nil {
			return nil, fmt.Errorf("loading parent: %w", err)
		}
		if parent == nil {
			return nil, ErrNotFound
		}
	}
	c := &models.Category{
		ID:       uuid.NewString(),
		Name:     name,
		Slug:     slug,
		ParentID: parentID,
	}
	if err := t.store.InsertCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("inserting category: %w", err)
	}
	return c, nil
}

// Get returns a category by id, or ErrNotFound.
func (t *Tree) Get(ctx context.Context, id string) (*models.Category, error) {
	c, err := t.store.Category(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrNotFound
	}
	return c, nil
}

// Children returns the direct children of a category.
func (t *Tree) Children(ctx context.Context, id string) ([]models.Category, error) {
	return t.store.Children(ctx, id)
}

// Descendants returns every transitive child id of the category,
// depth-first. A visited set guards against cycles that would only
// exist if the write-path invariant had been bypassed.
func (t *Tree) Descendants(ctx context.Context, id string) ([]string, error) {
	return t.descendants(ctx, t.store, id)
}

func (t *Tree) descendants(ctx context.Context, store Store, id string) ([]string, error) {
	visited := map[string]bool{id: true}
	var out []string

	var walk func(string) error
	walk = func(cur string) error {
		children, err := store.Children(ctx, cur)
		if err != nil {
			return fmt.Errorf("loading children of %s: %w", cur, err)
		}
		for _, child := range children {
			if visited[child.ID] {
				t.logger.Warn("category tree contains a cycle", "category_id", child.ID)
				continue
			}
			visited[child.ID] = true
			out = append(out, child.ID)
			if err := walk(child.ID); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(id); err != nil {
		return nil, err
	}
	return out, nil
}

// Path returns the ancestor chain of a category, root first, ending
// with the category itself.
func (t *Tree) Path(ctx context.Context, id string) ([]models.Category, error) {
	var chain []models.Category
	visited := map[string]bool{}

	cur := &id
	for cur != nil {
		if visited[*cur] {
			break
		}
		visited[*cur] = true

		c, err := t.store.Category(ctx, *cur)
		if err != nil {
			return nil, err
		}
		if c == nil {
			if len(chain) == 0 {
				return nil, ErrNotFound
			}
			break
		}
		chain = append([]models.Category{*c}, chain...)
		cur = c.ParentID
	}
	return chain, nil
}

// WouldCreateCycle reports whether setting newParentID as the parent
// of id would create a cycle: true iff newParentID is id itself or a
// transitive descendant of id.
func (t *Tree) WouldCreateCycle(ctx context.Context, newParentID, id string) (bool, error) {
	if newParentID == id {
		return true, nil
	}
	desc, err := t.Descendants(ctx, id)
	if err != nil {
		return false, err
	}
	for _, d := range desc {
		if d == newParentID {
			return true, nil
		}
	}
	return false, nil
}

// Update renames and/or reparents a category. Reparenting onto a
// descendant (or onto itself) fails with ErrCycle and writes nothing.
func (t *Tree) Update(ctx context.Context, id string, name, slug *string, parentID *string, reparent bool) (*models.Category, error) {
	var updated *models.Category
	err := t.store.Transact(ctx, func(tx Store) error {
		c, err := tx.Category(ctx, id)
		if err != nil {
			return err
		}
		if c == nil {
			return ErrNotFound
		}

		if reparent {
			if parentID != nil {
				parent, err := tx.Category(ctx, *parentID)
				if err != nil {
					return err
				}
				if parent == nil {
					return ErrNotFound
				}
				cycle, err := t.wouldCreateCycleIn(ctx, tx, *parentID, id)
				if err != nil {
					return err
				}
				if cycle {
					return ErrCycle
				}
			}
			c.ParentID = parentID
		}
		if name != nil {
			c.Name = *name
		}
		if slug != nil {
			c.Slug = *slug
		}

		if err := tx.UpdateCategory(ctx, c); err != nil {
			return fmt.Errorf("updating category: %w", err)
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (t *Tree) wouldCreateCycleIn(ctx context.Context, store Store, newParentID, id string) (bool, error) {
	if newParentID == id {
		return true, nil
	}
	desc, err := t.descendants(ctx, store, id)
	if err != nil {
		return false, err
	}
	for _, d := range desc {
		if d == newParentID {
			return true, nil
		}
	}
	return false, nil
}

// Delete removes a category. Without force it fails with ErrConflict
// when subcategories or product associations exist. With force the
// whole subtree and its product associations are removed in one
// transaction — there is no per-row round-trip and no partial delete.
func (t *Tree) Delete(ctx context.Context, id string, force bool) error {
	return t.store.Transact(ctx, func(tx Store) error {
		c, err := tx.Category(ctx, id)
		if err != nil {
			return err
		}
		if c == nil {
			return ErrNotFound
		}

		children, err := tx.Children(ctx, id)
		if err != nil {
			return err
		}
		hasProducts, err := tx.HasProducts(ctx, id)
		if err != nil {
			return err
		}

		if !force {
			if len(children) > 0 || hasProducts {
				return ErrConflict
			}
			if err := tx.DeleteProductAssociations(ctx, []string{id}); err != nil {
				return err
			}
			return tx.DeleteCategories(ctx, []string{id})
		}

		desc, err := t.descendants(ctx, tx, id)
		if err != nil {
			return err
		}
		ids := append(desc, id)
		if err := tx.DeleteProductAssociations(ctx, ids); err != nil {
			return fmt.Errorf("stripping product associations: %w", err)
		}
		if err := tx.DeleteCategories(ctx, ids); err != nil {
			return fmt.Errorf("deleting subtree: %w", err)
		}
		t.logger.Info("category subtree deleted", "category_id", id, "descendants", len(desc))
		return nil
	})
}
