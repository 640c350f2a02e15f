// Copyright (C) 2025 Tidewater Commerce (dev@tidewatercommerce.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package admin implements the back-office services: product,
// customer, and order administration with an append-only audit trail.
//
// Every mutation writes its AdminLog row inside the same transaction
// as the mutation itself, so the audit trail cannot disagree with the
// data.
package admin

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tidewater-commerce/tidewater/services/storefront/models"
)

// Sentinel errors. Handlers map these to HTTP statuses.
var (
	ErrNotFound = errors.New("resource not found")
	ErrConflict = errors.New("conflicting state")
	ErrBadInput = errors.New("invalid input")
)

// Batch actions for variant and image sub-resources.
const (
	BatchCreate = "create"
	BatchUpdate = "update"
	BatchDelete = "delete"
)

// Audit actions.
const (
	AuditCreate = "create"
	AuditUpdate = "update"
	AuditDelete = "delete"
	AuditNote   = "note"
	AuditUpload = "upload"
)

// Store is the persistence surface for the admin services.
// Lookup methods return (nil, nil) when the row does not exist.
type Store interface {
	// --- products ---
	ProductByID(ctx context.Context, id string, withAssociations bool) (*models.Product, error)
	ListProducts(ctx context.Context, status string, limit, offset int) ([]models.Product, error)
	InsertProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id string) error

	VariantByID(ctx context.Context, id string) (*models.ProductVariant, error)
	InsertVariant(ctx context.Context, v *models.ProductVariant) error
	UpdateVariant(ctx context.Context, v *models.ProductVariant) error
	DeleteVariant(ctx context.Context, id string) error

	// AnyVariantReferenced reports whether any order item references a
	// variant of the product. Referenced products cannot be deleted.
	AnyVariantReferenced(ctx context.Context, productID string) (bool, error)

	ImageByID(ctx context.Context, id string) (*models.ProductImage, error)
	ImagesByProduct(ctx context.Context, productID string) ([]models.ProductImage, error)
	InsertImage(ctx context.Context, img *models.ProductImage) error
	UpdateImage(ctx context.Context, img *models.ProductImage) error
	DeleteImage(ctx context.Context, id string) error

	// --- customers ---
	CustomerByID(ctx context.Context, id string) (*models.Customer, error)
	ListCustomers(ctx context.Context, limit, offset int) ([]models.Customer, error)
	UpdateCustomer(ctx context.Context, c *models.Customer) error
	DeleteCustomer(ctx context.Context, id string) error

	NotesByCustomer(ctx context.Context, customerID string) ([]models.CustomerNote, error)
	InsertNote(ctx context.Context, n *models.CustomerNote) error

	// --- orders ---
	OrderByID(ctx context.Context, id string, withItems bool) (*models.Order, error)
	ListOrders(ctx context.Context, status string, limit, offset int) ([]models.Order, error)
	UpdateOrder(ctx context.Context, o *models.Order) error

	// --- audit ---
	InsertAdminLog(ctx context.Context, entry *models.AdminLog) error
	RecentAdminLogs(ctx context.Context, limit int) ([]models.AdminLog, error)

	// Transact runs fn against a transactional view of the store.
	Transact(ctx context.Context, fn func(Store) error) error
}

// ObjectStore is the product image object storage surface. The GCS
// implementation lives in the images package.
type ObjectStore interface {
	// Put writes an object. Overwrites are allowed.
	Put(ctx context.Context, path string, content []byte, contentType string) error

	// Delete removes an object. Deleting a missing object is not an
	// error.
	Delete(ctx context.Context, path string) error
}

// audit writes one AdminLog row through the given (usually
// transactional) store view.
func audit(ctx context.Context, store Store, adminID, action, resource, resourceID, detail string) error {
	return store.InsertAdminLog(ctx, &models.AdminLog{
		ID:         uuid.NewString(),
		AdminID:    adminID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Detail:     detail,
		CreatedAt:  time.Now(),
	})
}

// clampPage normalizes limit/offset for list endpoints.
func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
