// Copyright (C) 2025 Tidewater Commerce (dev@tidewatercommerce.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package cart_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidewater-commerce/tidewater/services/storefront/cart"
	"github.com/tidewater-commerce/tidewater/services/storefront/models"
	"github.com/tidewater-commerce/tidewater/services/storefront/storage/memory"
)

// fixture builds a store with one tracked product and variants at
// known stock levels.
type fixture struct {
	store *memory.Store
	svc   *cart.Service

	productID string
	smallID   string // stock 3
	mediumID  string // stock 10
	backID    string // stock 0, backorder allowed

	simpleID string // product without variants, untracked
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	now := time.Now()

	f := &fixture{
		store:     store,
		svc:       cart.NewService(store.Cart(), nil),
		productID: uuid.NewString(),
		smallID:   uuid.NewString(),
		mediumID:  uuid.NewString(),
		backID:    uuid.NewString(),
		simpleID:  uuid.NewString(),
	}

	store.PutProduct(models.Product{
		ID: f.productID, Title: "Tee", Slug: "tee",
		Status: models.ProductPublished, TrackQuantity: true,
		CreatedAt: now, UpdatedAt: now,
	})
	store.PutVariant(models.ProductVariant{
		ID: f.smallID, ProductID: f.productID, SKU: "TEE-S", Stock: 3,
		PriceCents: 2400, Currency: "USD", CreatedAt: now, UpdatedAt: now,
	})
	store.PutVariant(models.ProductVariant{
		ID: f.mediumID, ProductID: f.productID, SKU: "TEE-M", Stock: 10,
		PriceCents: 2400, Currency: "USD", CreatedAt: now, UpdatedAt: now,
	})
	store.PutVariant(models.ProductVariant{
		ID: f.backID, ProductID: f.productID, SKU: "TEE-B", Stock: 0,
		AllowBackorder: true, PriceCents: 2400, Currency: "USD",
		CreatedAt: now, UpdatedAt: now,
	})

	store.PutProduct(models.Product{
		ID: f.simpleID, Title: "Gift Card", Slug: "gift-card",
		Status: models.ProductPublished, TrackQuantity: false,
		CreatedAt: now, UpdatedAt: now,
	})
	return f
}

func TestAddItem(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects quantity over stock without creating a row", func(t *testing.T) {
		f := newFixture(t)
		owner := cart.SessionOwner(uuid.NewString())

		_, err := f.svc.AddItem(ctx, owner, f.productID, &f.smallID, 5)
		require.ErrorIs(t, err, cart.ErrInsufficientStock)
		assert.Equal(t, 0, f.store.CartItemCount())
	})

	t.Run("sums with existing line before the stock check", func(t *testing.T) {
		f := newFixture(t)
		owner := cart.SessionOwner(uuid.NewString())

		first, err := f.svc.AddItem(ctx, owner, f.productID, &f.mediumID, 4)
		require.NoError(t, err)
		assert.Equal(t, cart.ActionCreated, first.Action)

		second, err := f.svc.AddItem(ctx, owner, f.productID, &f.mediumID, 3)
		require.NoError(t, err)
		assert.Equal(t, cart.ActionUpdated, second.Action)
		assert.Equal(t, 7, second.Item.Quantity)
		assert.Equal(t, 1, f.store.CartItemCount())
	})

	t.Run("summed quantity over stock is rejected, not clamped", func(t *testing.T) {
		f := newFixture(t)
		owner := cart.SessionOwner(uuid.NewString())

		_, err := f.svc.AddItem(ctx, owner, f.productID, &f.mediumID, 8)
		require.NoError(t, err)

		_, err = f.svc.AddItem(ctx, owner, f.productID, &f.mediumID, 3)
		require.ErrorIs(t, err, cart.ErrInsufficientStock)

		items, err := f.svc.Items(ctx, owner)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, 8, items[0].Quantity)
	})

	t.Run("backorder variant ignores stock", func(t *testing.T) {
		f := newFixture(t)
		owner := cart.SessionOwner(uuid.NewString())

		res, err := f.svc.AddItem(ctx, owner, f.productID, &f.backID, 50)
		require.NoError(t, err)
		assert.Equal(t, 50, res.Item.Quantity)
	})

	t.Run("variant required when the product has variants", func(t *testing.T) {
		f := newFixture(t)
		owner := cart.SessionOwner(uuid.NewString())

		_, err := f.svc.AddItem(ctx, owner, f.productID, nil, 1)
		assert.ErrorIs(t, err, cart.ErrVariantRequired)
	})

	t.Run("variant of another product is not found", func(t *testing.T) {
		f := newFixture(t)
		owner := cart.SessionOwner(uuid.NewString())

		_, err := f.svc.AddItem(ctx, owner, f.simpleID, &f.smallID, 1)
		assert.ErrorIs(t, err, cart.ErrVariantNotFound)
	})

	t.Run("untracked product without variants sells freely", func(t *testing.T) {
		f := newFixture(t)
		owner := cart.UserOwner(uuid.NewString())

		res, err := f.svc.AddItem(ctx, owner, f.simpleID, nil, 99)
		require.NoError(t, err)
		assert.Equal(t, 99, res.Item.Quantity)
	})

	t.Run("invalid inputs", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.AddItem(ctx, cart.Owner{}, f.simpleID, nil, 1)
		assert.ErrorIs(t, err, cart.ErrInvalidOwner)

		_, err = f.svc.AddItem(ctx, cart.SessionOwner("s"), f.simpleID, nil, 0)
		assert.ErrorIs(t, err, cart.ErrInvalidQuantity)

		_, err = f.svc.AddItem(ctx, cart.SessionOwner("s"), uuid.NewString(), nil, 1)
		assert.ErrorIs(t, err, cart.ErrProductNotFound)
	})
}

func TestUpdateQuantity(t *testing.T) {
	ctx := context.Background()

	t.Run("zero removes the line", func(t *testing.T) {
		f := newFixture(t)
		owner := cart.SessionOwner(uuid.NewString())

		added, err := f.svc.AddItem(ctx, owner, f.productID, &f.mediumID, 2)
		require.NoError(t, err)

		res, err := f.svc.UpdateQuantity(ctx, owner, added.Item.ID, 0)
		require.NoError(t, err)
		assert.Equal(t, cart.ActionRemoved, res.Action)
		assert.Nil(t, res.Item)
		assert.Equal(t, 0, f.store.CartItemCount())
	})

	t.Run("revalidates against stock", func(t *testing.T) {
		f := newFixture(t)
		owner := cart.SessionOwner(uuid.NewString())

		added, err := f.svc.AddItem(ctx, owner, f.productID, &f.smallID, 2)
		require.NoError(t, err)

		_, err = f.svc.UpdateQuantity(ctx, owner, added.Item.ID, 4)
		assert.ErrorIs(t, err, cart.ErrInsufficientStock)

		res, err := f.svc.UpdateQuantity(ctx, owner, added.Item.ID, 3)
		require.NoError(t, err)
		assert.Equal(t, 3, res.Item.Quantity)
	})

	t.Run("someone else's line looks missing", func(t *testing.T) {
		f := newFixture(t)
		owner := cart.SessionOwner(uuid.NewString())
		other := cart.SessionOwner(uuid.NewString())

		added, err := f.svc.AddItem(ctx, owner, f.productID, &f.mediumID, 1)
		require.NoError(t, err)

		_, err = f.svc.UpdateQuantity(ctx, other, added.Item.ID, 2)
		assert.ErrorIs(t, err, cart.ErrItemNotFound)
	})
}

func TestClearAndCount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := cart.UserOwner(uuid.NewString())

	_, err := f.svc.AddItem(ctx, owner, f.productID, &f.mediumID, 4)
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, owner, f.simpleID, nil, 2)
	require.NoError(t, err)

	count, err := f.svc.Count(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 6, count)

	require.NoError(t, f.svc.Clear(ctx, owner))
	count, err = f.svc.Count(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestMergeGuestCart(t *testing.T) {
	ctx := context.Background()

	t.Run("re-parents lines the user does not hold", func(t *testing.T) {
		f := newFixture(t)
		sessionID := uuid.NewString()
		userID := uuid.NewString()
		guest := cart.SessionOwner(sessionID)
		user := cart.UserOwner(userID)

		_, err := f.svc.AddItem(ctx, guest, f.productID, &f.mediumID, 2)
		require.NoError(t, err)

		results, err := f.svc.MergeGuestCart(ctx, sessionID, userID, cart.StrategyMerge)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, cart.ActionTransferred, results[0].Action)

		userItems, err := f.svc.Items(ctx, user)
		require.NoError(t, err)
		require.Len(t, userItems, 1)
		assert.Equal(t, 2, userItems[0].Quantity)

		guestItems, err := f.svc.Items(ctx, guest)
		require.NoError(t, err)
		assert.Empty(t, guestItems)
	})

	t.Run("merge sums and clamps to stock", func(t *testing.T) {
		f := newFixture(t)
		sessionID := uuid.NewString()
		userID := uuid.NewString()

		_, err := f.svc.AddItem(ctx, cart.SessionOwner(sessionID), f.productID, &f.mediumID, 7)
		require.NoError(t, err)
		_, err = f.svc.AddItem(ctx, cart.UserOwner(userID), f.productID, &f.mediumID, 6)
		require.NoError(t, err)

		results, err := f.svc.MergeGuestCart(ctx, sessionID, userID, cart.StrategyMerge)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, cart.ActionMerged, results[0].Action)
		// min(7+6, stock 10)
		assert.Equal(t, 10, results[0].Item.Quantity)
	})

	t.Run("replace takes the guest quantity, clamped", func(t *testing.T) {
		f := newFixture(t)
		sessionID := uuid.NewString()
		userID := uuid.NewString()

		_, err := f.svc.AddItem(ctx, cart.SessionOwner(sessionID), f.productID, &f.mediumID, 7)
		require.NoError(t, err)
		_, err = f.svc.AddItem(ctx, cart.UserOwner(userID), f.productID, &f.mediumID, 2)
		require.NoError(t, err)

		results, err := f.svc.MergeGuestCart(ctx, sessionID, userID, cart.StrategyReplace)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, cart.ActionReplaced, results[0].Action)
		assert.Equal(t, 7, results[0].Item.Quantity)
	})

	t.Run("keep_existing leaves the user line alone", func(t *testing.T) {
		f := newFixture(t)
		sessionID := uuid.NewString()
		userID := uuid.NewString()

		_, err := f.svc.AddItem(ctx, cart.SessionOwner(sessionID), f.productID, &f.mediumID, 7)
		require.NoError(t, err)
		_, err = f.svc.AddItem(ctx, cart.UserOwner(userID), f.productID, &f.mediumID, 2)
		require.NoError(t, err)

		results, err := f.svc.MergeGuestCart(ctx, sessionID, userID, cart.StrategyKeepExisting)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, cart.ActionKept, results[0].Action)
		assert.Equal(t, 2, results[0].Item.Quantity)

		// Guest cart is still cleared.
		guestItems, err := f.svc.Items(ctx, cart.SessionOwner(sessionID))
		require.NoError(t, err)
		assert.Empty(t, guestItems)
	})

	t.Run("clamp to zero stock drops the user line", func(t *testing.T) {
		f := newFixture(t)
		sessionID := uuid.NewString()
		userID := uuid.NewString()

		_, err := f.svc.AddItem(ctx, cart.SessionOwner(sessionID), f.productID, &f.mediumID, 2)
		require.NoError(t, err)
		_, err = f.svc.AddItem(ctx, cart.UserOwner(userID), f.productID, &f.mediumID, 2)
		require.NoError(t, err)

		// Stock sold out between add and merge.
		f.store.PutVariant(models.ProductVariant{
			ID: f.mediumID, ProductID: f.productID, SKU: "TEE-M", Stock: 0,
			PriceCents: 2400, Currency: "USD",
		})

		results, err := f.svc.MergeGuestCart(ctx, sessionID, userID, cart.StrategyMerge)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, cart.ActionRemoved, results[0].Action)
		assert.Equal(t, 0, f.store.CartItemCount())
	})

	t.Run("empty guest cart merges cleanly", func(t *testing.T) {
		f := newFixture(t)

		results, err := f.svc.MergeGuestCart(ctx, uuid.NewString(), uuid.NewString(), "")
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("unknown strategy is rejected", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.MergeGuestCart(ctx, uuid.NewString(), uuid.NewString(), "overwrite")
		assert.ErrorIs(t, err, cart.ErrUnknownStrategy)
	})
}
