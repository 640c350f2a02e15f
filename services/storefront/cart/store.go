// Copyright (C) 2025 Tidewater Commerce (dev@tidewatercommerce.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package cart

import (
	"context"

	"github.com/tidewater-commerce/tidewater/services/storefront/models"
)

// Store is the persistence surface the reconciliation engine needs.
// The postgres implementation lives in storage/postgres; tests use an
// in-memory fake.
//
// Lookup methods return (nil, nil) when the row does not exist; the
// service maps absence to its own sentinel errors.
type Store interface {
	// Product returns a product by id, without association loading.
	Product(ctx context.Context, id string) (*models.Product, error)

	// Variant returns a variant by id.
	Variant(ctx context.Context, id string) (*models.ProductVariant, error)

	// VariantCount returns how many variants a product has.
	VariantCount(ctx context.Context, productID string) (int64, error)

	// ItemsByOwner returns all cart lines for one owner, oldest first.
	ItemsByOwner(ctx context.Context, owner Owner) ([]models.CartItem, error)

	// ItemByID returns one cart line by id.
	ItemByID(ctx context.Context, id string) (*models.CartItem, error)

	// FindLine returns the owner's line for (product, variant), if any.
	FindLine(ctx context.Context, owner Owner, productID string, variantID *string) (*models.CartItem, error)

	// InsertItem persists a new cart line.
	InsertItem(ctx context.Context, item *models.CartItem) error

	// UpdateItem persists changes to an existing cart line.
	UpdateItem(ctx context.Context, item *models.CartItem) error

	// DeleteItem removes one cart line by id.
	DeleteItem(ctx context.Context, id string) error

	// DeleteByOwner removes every cart line for one owner.
	DeleteByOwner(ctx context.Context, owner Owner) error

	// Transact runs fn against a transactional view of the store.
	// If fn returns an error every write inside it is rolled back.
	Transact(ctx context.Context, fn func(Store) error) error
}
