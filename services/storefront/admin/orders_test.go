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
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidewater-commerce/tidewater/services/storefront/admin"
	"github.com/tidewater-commerce/tidewater/services/storefront/models"
	"github.com/tidewater-commerce/tidewater/services/storefront/storage/memory"
)

const orderID = "dddddddd-0000-0000-0000-000000000001"

func newOrders(t *testing.T) (*admin.Orders, *memory.Store) {
	t.Helper()
	store := memory.New()
	store.PutOrder(models.Order{
		ID: orderID, Email: "jo@example.com",
		Status:            models.OrderPending,
		FulfillmentStatus: models.FulfillmentUnfulfilled,
		PaymentStatus:     models.PaymentPending,
		TotalCents:        2400, Currency: "USD",
		Items: []models.OrderItem{
			{ID: "item-1", VariantID: "variant-1", Quantity: 1, UnitPriceCents: 2400},
		},
		CreatedAt: time.Now(),
	})
	return admin.NewOrders(store.Admin(), nil), store
}

func TestOrdersGet(t *testing.T) {
	ctx := context.Background()
	svc, _ := newOrders(t)

	o, err := svc.Get(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, o.Items, 1)
	assert.Equal(t, "variant-1", o.Items[0].VariantID)

	_, err = svc.Get(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, admin.ErrNotFound)
}

func TestOrdersList(t *testing.T) {
	ctx := context.Background()
	svc, store := newOrders(t)
	store.PutOrder(models.Order{
		ID: "dddddddd-0000-0000-0000-000000000002", Email: "x@example.com",
		Status: models.OrderConfirmed, CreatedAt: time.Now().Add(time.Second),
	})

	all, err := svc.List(ctx, "", 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, models.OrderConfirmed, all[0].Status, "newest first")

	confirmed, err := svc.List(ctx, models.OrderConfirmed, 0, 0)
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
}

func TestOrdersUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("status and fulfillment", func(t *testing.T) {
		svc, store := newOrders(t)

		o, err := svc.Update(ctx, adminID, orderID, admin.UpdateOrderInput{
			Status:            ptr(models.OrderConfirmed),
			FulfillmentStatus: ptr(models.FulfillmentPartial),
		})
		require.NoError(t, err)
		assert.Equal(t, models.OrderConfirmed, o.Status)
		assert.Equal(t, models.FulfillmentPartial, o.FulfillmentStatus)
		assert.Equal(t, 1, store.AdminLogCount())
	})

	t.Run("cancelled is terminal", func(t *testing.T) {
		svc, _ := newOrders(t)

		_, err := svc.Update(ctx, adminID, orderID, admin.UpdateOrderInput{
			Status: ptr(models.OrderCancelled),
		})
		require.NoError(t, err)

		_, err = svc.Update(ctx, adminID, orderID, admin.UpdateOrderInput{
			Status: ptr(models.OrderPending),
		})
		assert.ErrorIs(t, err, admin.ErrConflict)
	})

	t.Run("unknown order", func(t *testing.T) {
		svc, _ := newOrders(t)
		_, err := svc.Update(ctx, adminID, "00000000-0000-0000-0000-000000000000",
			admin.UpdateOrderInput{Status: ptr(models.OrderConfirmed)})
		assert.ErrorIs(t, err, admin.ErrNotFound)
	})
}

func TestRecentAuditLogs(t *testing.T) {
	ctx := context.Background()
	svc, _ := newOrders(t)

	for _, status := range []string{models.OrderConfirmed, models.OrderCancelled} {
		_, err := svc.Update(ctx, adminID, orderID, admin.UpdateOrderInput{Status: ptr(status)})
		require.NoError(t, err)
	}

	logs, err := svc.RecentAuditLogs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, models.OrderCancelled, logs[0].Detail, "newest first")
	assert.Equal(t, adminID, logs[0].AdminID)
	assert.Equal(t, "order", logs[0].Resource)

	one, err := svc.RecentAuditLogs(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, one, 1)
}
