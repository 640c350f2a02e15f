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

	"github.com/tidewater-commerce/tidewater/services/storefront/cart"
	"github.com/tidewater-commerce/tidewater/services/storefront/models"
)

type cartStore struct {
	db *gorm.DB
}

func (s cartStore) Product(ctx context.Context, id string) (*models.Product, error) {
	return first[models.Product](s.db.WithContext(ctx), "id = ?", id)
}

func (s cartStore) Variant(ctx context.Context, id string) (*models.ProductVariant, error) {
	return first[models.ProductVariant](s.db.WithContext(ctx), "id = ?", id)
}

func (s cartStore) VariantCount(ctx context.Context, productID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where("product_id = ?", productID).
		Count(&n).Error
	return n, err
}

// ownerScope filters by exactly one ownership key.
func ownerScope(owner cart.Owner) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if owner.UserID != "" {
			return db.Where("user_id = ?", owner.UserID)
		}
		return db.Where("session_id = ?", owner.SessionID)
	}
}

func (s cartStore) ItemsByOwner(ctx context.Context, owner cart.Owner) ([]models.CartItem, error) {
	var items []models.CartItem
	err := s.db.WithContext(ctx).
		Scopes(ownerScope(owner)).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

func (s cartStore) ItemByID(ctx context.Context, id string) (*models.CartItem, error) {
	return first[models.CartItem](s.db.WithContext(ctx), "id = ?", id)
}

func (s cartStore) FindLine(ctx context.Context, owner cart.Owner, productID string, variantID *string) (*models.CartItem, error) {
	q := s.db.WithContext(ctx).Scopes(ownerScope(owner)).Where("product_id = ?", productID)
	if variantID != nil {
		q = q.Where("variant_id = ?", *variantID)
	} else {
		q = q.Where("variant_id IS NULL")
	}
	return first[models.CartItem](q)
}

func (s cartStore) InsertItem(ctx context.Context, item *models.CartItem) error {
	return s.db.WithContext(ctx).Create(item).Error
}

func (s cartStore) UpdateItem(ctx context.Context, item *models.CartItem) error {
	// Save with Select("*") so clearing SessionID to nil during a
	// merge actually writes NULL.
	return s.db.WithContext(ctx).Model(item).Select("*").Updates(item).Error
}

func (s cartStore) DeleteItem(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&models.CartItem{}, "id = ?", id).Error
}

func (s cartStore) DeleteByOwner(ctx context.Context, owner cart.Owner) error {
	return s.db.WithContext(ctx).
		Scopes(ownerScope(owner)).
		Delete(&models.CartItem{}).Error
}

func (s cartStore) Transact(ctx context.Context, fn func(cart.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(cartStore{db: tx})
	})
}
