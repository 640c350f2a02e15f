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

	"github.com/tidewater-commerce/tidewater/services/storefront/admin"
	"github.com/tidewater-commerce/tidewater/services/storefront/models"
)

type adminStore struct {
	db *gorm.DB
}

// --- products ---

func (s adminStore) ProductByID(ctx context.Context, id string, withAssociations bool) (*models.Product, error) {
	q := s.db.WithContext(ctx)
	if withAssociations {
		q = q.Preload("Variants").Preload("Images").Preload("Categories")
	}
	return first[models.Product](q, "id = ?", id)
}

func (s adminStore) ListProducts(ctx context.Context, status string, limit, offset int) ([]models.Product, error) {
	q := s.db.WithContext(ctx).Preload("Variants").Preload("Images")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []models.Product
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&out).Error
	return out, err
}

func (s adminStore) InsertProduct(ctx context.Context, p *models.Product) error {
	return s.db.WithContext(ctx).Omit("Variants", "Images", "Categories").Create(p).Error
}

func (s adminStore) UpdateProduct(ctx context.Context, p *models.Product) error {
	return s.db.WithContext(ctx).Omit("Variants", "Images", "Categories").
		Model(p).Select("*").Updates(p).Error
}

func (s adminStore) DeleteProduct(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Select("Variants", "Images").
		Delete(&models.Product{ID: id}).Error
}

func (s adminStore) VariantByID(ctx context.Context, id string) (*models.ProductVariant, error) {
	return first[models.ProductVariant](s.db.WithContext(ctx), "id = ?", id)
}

func (s adminStore) InsertVariant(ctx context.Context, v *models.ProductVariant) error {
	return s.db.WithContext(ctx).Create(v).Error
}

func (s adminStore) UpdateVariant(ctx context.Context, v *models.ProductVariant) error {
	return s.db.WithContext(ctx).Model(v).Select("*").Updates(v).Error
}

func (s adminStore) DeleteVariant(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&models.ProductVariant{}, "id = ?", id).Error
}

func (s adminStore) AnyVariantReferenced(ctx context.Context, productID string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Joins("JOIN product_variants ON product_variants.id = order_items.variant_id").
		Where("product_variants.product_id = ?", productID).
		Count(&n).Error
	return n > 0, err
}

func (s adminStore) ImageByID(ctx context.Context, id string) (*models.ProductImage, error) {
	return first[models.ProductImage](s.db.WithContext(ctx), "id = ?", id)
}

func (s adminStore) ImagesByProduct(ctx context.Context, productID string) ([]models.ProductImage, error) {
	var out []models.ProductImage
	err := s.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("position ASC").
		Find(&out).Error
	return out, err
}

func (s adminStore) InsertImage(ctx context.Context, img *models.ProductImage) error {
	return s.db.WithContext(ctx).Create(img).Error
}

func (s adminStore) UpdateImage(ctx context.Context, img *models.ProductImage) error {
	return s.db.WithContext(ctx).Model(img).Select("*").Updates(img).Error
}

func (s adminStore) DeleteImage(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&models.ProductImage{}, "id = ?", id).Error
}

// --- customers ---

func (s adminStore) CustomerByID(ctx context.Context, id string) (*models.Customer, error) {
	return first[models.Customer](s.db.WithContext(ctx), "id = ?", id)
}

func (s adminStore) ListCustomers(ctx context.Context, limit, offset int) ([]models.Customer, error) {
	var out []models.Customer
	err := s.db.WithContext(ctx).
		Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&out).Error
	return out, err
}

func (s adminStore) UpdateCustomer(ctx context.Context, c *models.Customer) error {
	return s.db.WithContext(ctx).Model(c).Select("*").Updates(c).Error
}

func (s adminStore) DeleteCustomer(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&models.Customer{}, "id = ?", id).Error
}

func (s adminStore) NotesByCustomer(ctx context.Context, customerID string) ([]models.CustomerNote, error) {
	var out []models.CustomerNote
	err := s.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

func (s adminStore) InsertNote(ctx context.Context, n *models.CustomerNote) error {
	return s.db.WithContext(ctx).Create(n).Error
}

// --- orders ---

func (s adminStore) OrderByID(ctx context.Context, id string, withItems bool) (*models.Order, error) {
	q := s.db.WithContext(ctx)
	if withItems {
		q = q.Preload("Items")
	}
	return first[models.Order](q, "id = ?", id)
}

func (s adminStore) ListOrders(ctx context.Context, status string, limit, offset int) ([]models.Order, error) {
	q := s.db.WithContext(ctx).Preload("Items")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []models.Order
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&out).Error
	return out, err
}

func (s adminStore) UpdateOrder(ctx context.Context, o *models.Order) error {
	return s.db.WithContext(ctx).Omit("Items").Model(o).Select("*").Updates(o).Error
}

// --- audit ---

func (s adminStore) InsertAdminLog(ctx context.Context, entry *models.AdminLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s adminStore) RecentAdminLogs(ctx context.Context, limit int) ([]models.AdminLog, error) {
	var out []models.AdminLog
	err := s.db.WithContext(ctx).
		Order("created_at DESC").Limit(limit).
		Find(&out).Error
	return out, err
}

func (s adminStore) Transact(ctx context.Context, fn func(admin.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(adminStore{db: tx})
	})
}
