// Copyright (C) 2025 Tidewater Commerce (dev@tidewatercommerce.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package admin_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidewater-commerce/tidewater/services/storefront/admin"
	"github.com/tidewater-commerce/tidewater/services/storefront/models"
	"github.com/tidewater-commerce/tidewater/services/storefront/storage/memory"
)

const adminID = "aaaaaaaa-0000-0000-0000-000000000001"

func ptr[T any](v T) *T { return &v }

func newProducts(t *testing.T) (*admin.Products, *memory.Store, *memory.ObjectStore) {
	t.Helper()
	store := memory.New()
	objects := memory.NewObjectStore()
	return admin.NewProducts(store.Admin(), objects, nil), store, objects
}

func TestProductsCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("with initial variants", func(t *testing.T) {
		svc, store, _ := newProducts(t)

		p, err := svc.Create(ctx, adminID, admin.CreateProductInput{
			Title: "Harbor Hoodie",
			Slug:  "harbor-hoodie",
			Variants: []admin.VariantChangeInput{
				{Action: admin.BatchCreate, SKU: ptr("HOOD-S"), PriceCents: ptr(int64(5400)), Stock: ptr(10)},
				{Action: admin.BatchCreate, SKU: ptr("HOOD-M"), PriceCents: ptr(int64(5400)), Stock: ptr(12)},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, models.ProductDraft, p.Status, "status defaults to draft")
		assert.True(t, p.TrackQuantity)
		assert.Len(t, p.Variants, 2)
		assert.Equal(t, 1, store.AdminLogCount())
	})

	t.Run("bad slug", func(t *testing.T) {
		svc, _, _ := newProducts(t)
		_, err := svc.Create(ctx, adminID, admin.CreateProductInput{Title: "X", Slug: "Not A Slug!"})
		assert.ErrorIs(t, err, admin.ErrBadInput)
	})

	t.Run("non-create variant action rejected and rolled back", func(t *testing.T) {
		svc, store, _ := newProducts(t)
		_, err := svc.Create(ctx, adminID, admin.CreateProductInput{
			Title: "X", Slug: "x",
			Variants: []admin.VariantChangeInput{
				{Action: admin.BatchDelete, ID: "whatever"},
			},
		})
		require.ErrorIs(t, err, admin.ErrBadInput)

		list, err := svc.List(ctx, "", 0, 0)
		require.NoError(t, err)
		assert.Empty(t, list, "nothing may persist from a failed create")
		assert.Equal(t, 0, store.AdminLogCount())
	})
}

func TestProductsUpdate(t *testing.T) {
	ctx := context.Background()

	create := func(t *testing.T, svc *admin.Products) *models.Product {
		t.Helper()
		p, err := svc.Create(ctx, adminID, admin.CreateProductInput{
			Title: "Logo Tee", Slug: "logo-tee",
			Variants: []admin.VariantChangeInput{
				{Action: admin.BatchCreate, SKU: ptr("TEE-S"), PriceCents: ptr(int64(2400)), Stock: ptr(5)},
			},
		})
		require.NoError(t, err)
		return p
	}

	t.Run("mixed variant batch applies atomically", func(t *testing.T) {
		svc, _, _ := newProducts(t)
		p := create(t, svc)
		existing := p.Variants[0].ID

		updated, err := svc.Update(ctx, adminID, p.ID, admin.UpdateProductInput{
			Status: ptr(models.ProductPublished),
			Variants: []admin.VariantChangeInput{
				{Action: admin.BatchUpdate, ID: existing, Stock: ptr(20)},
				{Action: admin.BatchCreate, SKU: ptr("TEE-M"), PriceCents: ptr(int64(2400))},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, models.ProductPublished, updated.Status)
		require.Len(t, updated.Variants, 2)
	})

	t.Run("one failing element rolls back the whole batch", func(t *testing.T) {
		svc, store, _ := newProducts(t)
		p := create(t, svc)
		logsBefore := store.AdminLogCount()

		_, err := svc.Update(ctx, adminID, p.ID, admin.UpdateProductInput{
			Title: ptr("Renamed"),
			Variants: []admin.VariantChangeInput{
				{Action: admin.BatchCreate, SKU: ptr("TEE-L"), PriceCents: ptr(int64(2400))},
				{Action: admin.BatchUpdate, ID: "not-a-variant", Stock: ptr(1)},
			},
		})
		require.ErrorIs(t, err, admin.ErrNotFound)

		got, err := svc.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Logo Tee", got.Title, "title change must roll back")
		assert.Len(t, got.Variants, 1, "created variant must roll back")
		assert.Equal(t, logsBefore, store.AdminLogCount())
	})

	t.Run("variant of another product is not reachable", func(t *testing.T) {
		svc, _, _ := newProducts(t)
		p1 := create(t, svc)
		p2, err := svc.Create(ctx, adminID, admin.CreateProductInput{Title: "Mug", Slug: "mug"})
		require.NoError(t, err)

		_, err = svc.Update(ctx, adminID, p2.ID, admin.UpdateProductInput{
			Variants: []admin.VariantChangeInput{
				{Action: admin.BatchDelete, ID: p1.Variants[0].ID},
			},
		})
		assert.ErrorIs(t, err, admin.ErrNotFound)
	})

	t.Run("image batch create and delete", func(t *testing.T) {
		svc, _, _ := newProducts(t)
		p := create(t, svc)

		updated, err := svc.Update(ctx, adminID, p.ID, admin.UpdateProductInput{
			Images: []admin.ImageChangeInput{
				{Action: admin.BatchCreate, ObjectPath: ptr("products/x/front.png"), Position: ptr(1)},
			},
		})
		require.NoError(t, err)
		require.Len(t, updated.Images, 1)

		updated, err = svc.Update(ctx, adminID, p.ID, admin.UpdateProductInput{
			Images: []admin.ImageChangeInput{
				{Action: admin.BatchDelete, ID: updated.Images[0].ID},
			},
		})
		require.NoError(t, err)
		assert.Empty(t, updated.Images)
	})

	t.Run("image delete removes the object after commit", func(t *testing.T) {
		svc, _, objects := newProducts(t)
		p := create(t, svc)

		img, err := svc.UploadImage(ctx, adminID, p.ID, "front.png", []byte("png-bytes"), "image/png", "")
		require.NoError(t, err)
		require.Equal(t, 1, objects.Len())

		updated, err := svc.Update(ctx, adminID, p.ID, admin.UpdateProductInput{
			Images: []admin.ImageChangeInput{
				{Action: admin.BatchDelete, ID: img.ID},
			},
		})
		require.NoError(t, err)
		assert.Empty(t, updated.Images)
		_, ok := objects.Get(img.ObjectPath)
		assert.False(t, ok, "object is cleaned up once the batch commits")
	})

	t.Run("rolled back image delete keeps the object", func(t *testing.T) {
		svc, _, objects := newProducts(t)
		p := create(t, svc)

		img, err := svc.UploadImage(ctx, adminID, p.ID, "front.png", []byte("png-bytes"), "image/png", "")
		require.NoError(t, err)

		// The delete element succeeds, then the update element fails,
		// rolling back the whole batch. The row must survive and its
		// object must not have been touched.
		_, err = svc.Update(ctx, adminID, p.ID, admin.UpdateProductInput{
			Images: []admin.ImageChangeInput{
				{Action: admin.BatchDelete, ID: img.ID},
				{Action: admin.BatchUpdate, ID: "not-an-image", Alt: ptr("x")},
			},
		})
		require.ErrorIs(t, err, admin.ErrNotFound)

		got, err := svc.Get(ctx, p.ID)
		require.NoError(t, err)
		require.Len(t, got.Images, 1, "image row must roll back")
		_, ok := objects.Get(img.ObjectPath)
		assert.True(t, ok, "row and object must stay consistent after rollback")
	})

	t.Run("unknown product", func(t *testing.T) {
		svc, _, _ := newProducts(t)
		_, err := svc.Update(ctx, adminID, "00000000-0000-0000-0000-000000000000", admin.UpdateProductInput{})
		assert.ErrorIs(t, err, admin.ErrNotFound)
	})
}

func TestProductsDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("blocked while orders reference a variant", func(t *testing.T) {
		svc, store, _ := newProducts(t)
		p, err := svc.Create(ctx, adminID, admin.CreateProductInput{
			Title: "Logo Tee", Slug: "logo-tee",
			Variants: []admin.VariantChangeInput{
				{Action: admin.BatchCreate, SKU: ptr("TEE-S"), PriceCents: ptr(int64(2400))},
			},
		})
		require.NoError(t, err)

		store.PutOrder(models.Order{
			ID: "5f0c5e8a-0000-0000-0000-000000000009", Email: "b@example.com",
			Items: []models.OrderItem{
				{ID: "item-1", VariantID: p.Variants[0].ID, Quantity: 1, UnitPriceCents: 2400},
			},
		})

		err = svc.Delete(ctx, adminID, p.ID)
		require.ErrorIs(t, err, admin.ErrConflict)

		_, err = svc.Get(ctx, p.ID)
		assert.NoError(t, err, "blocked delete must leave the product intact")
	})

	t.Run("removes product and image objects", func(t *testing.T) {
		svc, _, objects := newProducts(t)
		p, err := svc.Create(ctx, adminID, admin.CreateProductInput{Title: "Mug", Slug: "mug"})
		require.NoError(t, err)

		img, err := svc.UploadImage(ctx, adminID, p.ID, "front.png", []byte("png-bytes"), "image/png", "front")
		require.NoError(t, err)
		require.Equal(t, 1, objects.Len())

		require.NoError(t, svc.Delete(ctx, adminID, p.ID))

		_, err = svc.Get(ctx, p.ID)
		assert.ErrorIs(t, err, admin.ErrNotFound)
		_, ok := objects.Get(img.ObjectPath)
		assert.False(t, ok, "image objects are cleaned up after delete")
	})
}

func TestProductsUploadImage(t *testing.T) {
	ctx := context.Background()

	t.Run("stores the object and the row", func(t *testing.T) {
		svc, _, objects := newProducts(t)
		p, err := svc.Create(ctx, adminID, admin.CreateProductInput{Title: "Mug", Slug: "mug"})
		require.NoError(t, err)

		img, err := svc.UploadImage(ctx, adminID, p.ID, "front.png", []byte("png-bytes"), "image/png", "front view")
		require.NoError(t, err)

		buf, ok := objects.Get(img.ObjectPath)
		require.True(t, ok)
		assert.Equal(t, []byte("png-bytes"), buf)

		got, err := svc.Get(ctx, p.ID)
		require.NoError(t, err)
		require.Len(t, got.Images, 1)
		assert.Equal(t, "front view", got.Images[0].Alt)
	})

	t.Run("unknown product", func(t *testing.T) {
		svc, _, objects := newProducts(t)
		_, err := svc.UploadImage(ctx, adminID, "00000000-0000-0000-0000-000000000000",
			"x.png", []byte("x"), "image/png", "")
		assert.ErrorIs(t, err, admin.ErrNotFound)
		assert.Equal(t, 0, objects.Len())
	})

	t.Run("empty body", func(t *testing.T) {
		svc, _, _ := newProducts(t)
		p, err := svc.Create(ctx, adminID, admin.CreateProductInput{Title: "Mug", Slug: "mug"})
		require.NoError(t, err)
		_, err = svc.UploadImage(ctx, adminID, p.ID, "x.png", nil, "image/png", "")
		assert.ErrorIs(t, err, admin.ErrBadInput)
	})

	t.Run("no object store configured", func(t *testing.T) {
		store := memory.New()
		svc := admin.NewProducts(store.Admin(), nil, nil)
		p, err := svc.Create(ctx, adminID, admin.CreateProductInput{Title: "Mug", Slug: "mug"})
		require.NoError(t, err)
		_, err = svc.UploadImage(ctx, adminID, p.ID, "x.png", []byte("x"), "image/png", "")
		assert.ErrorIs(t, err, admin.ErrConflict)
	})
}
