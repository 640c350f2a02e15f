// Copyright (C) 2025 Tidewater Commerce (dev@tidewatercommerce.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/tidewater-commerce/tidewater/services/storefront/catalog"
	"github.com/tidewater-commerce/tidewater/services/storefront/models"
)

type catalogStore struct {
	db *gorm.DB
}

func (s catalogStore) Category(ctx context.Context, id string) (*models.Category, error) {
	return first[models.Category](s.db.WithContext(ctx), "id = ?", id)
}

func (s catalogStore) Children(ctx context.Context, parentID string) ([]models.Category, error) {
	var out []models.Category
	err := s.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("position ASC, name ASC").
		Find(&out).Error
	return out, err
}

func (s catalogStore) HasProducts(ctx context.Context, id string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Table("product_categories").
		Where("category_id = ?", id).
		Count(&n).Error
	return n > 0, err
}

func (s catalogStore) InsertCategory(ctx context.Context, c *models.Category) error {
	return s.db.WithContext(ctx).Create(c).Error
}

func (s catalogStore) UpdateCategory(ctx context.Context, c *models.Category) error {
	// Select("*") so reparenting to root writes parent_id NULL.
	return s.db.WithContext(ctx).Model(c).Select("*").Updates(c).Error
}

func (s catalogStore) DeleteCategories(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Delete(&models.Category{}, "id IN ?", ids).Error
}

func (s catalogStore) DeleteProductAssociations(ctx context.Context, categoryIDs []string) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Table("product_categories").
		Where("category_id IN ?", categoryIDs).
		Delete(nil).Error
}

func (s catalogStore) Transact(ctx context.Context, fn func(catalog.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(catalogStore{db: tx})
	})
}
