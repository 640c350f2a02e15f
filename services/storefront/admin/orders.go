// Copyright (C) 2025 Tidewater Commerce (dev@tidewatercommerce.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/tidewater-commerce/tidewater/pkg/logging"
	"github.com/tidewater-commerce/tidewater/services/storefront/models"
)

// UpdateOrderInput is the admin update-order request body. Payment
// status is deliberately absent: it belongs to the webhook pipeline.
type UpdateOrderInput struct {
	Status            *string `json:"status" binding:"omitempty,oneof=pending confirmed cancelled"`
	FulfillmentStatus *string `json:"fulfillment_status" binding:"omitempty,oneof=unfulfilled partial fulfilled"`
}

// Orders is the admin order service.
type Orders struct {
	store  Store
	logger *logging.Logger
}

// NewOrders creates the order service.
func NewOrders(store Store, logger *logging.Logger) *Orders {
	if logger == nil {
		logger = logging.Default()
	}
	return &Orders{store: store, logger: logger}
}

// List returns orders filtered by status ("" for all), newest first.
func (s *Orders) List(ctx context.Context, status string, limit, offset int) ([]models.Order, error) {
	limit, offset = clampPage(limit, offset)
	return s.store.ListOrders(ctx, status, limit, offset)
}

// Get returns one order with its items.
func (s *Orders) Get(ctx context.Context, id string) (*models.Order, error) {
	o, err := s.store.OrderByID(ctx, id, true)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrNotFound
	}
	return o, nil
}

// Update transitions order and fulfillment status with the audit row
// in the same transaction. Cancelled orders are terminal.
func (s *Orders) Update(ctx context.Context, adminID, id string, in UpdateOrderInput) (*models.Order, error) {
	var updated *models.Order
	err := s.store.Transact(ctx, func(tx Store) error {
		o, err := tx.OrderByID(ctx, id, false)
		if err != nil {
			return err
		}
		if o == nil {
			return ErrNotFound
		}

		if o.Status == models.OrderCancelled && in.Status != nil && *in.Status != models.OrderCancelled {
			return fmt.Errorf("%w: cancelled orders cannot change status", ErrConflict)
		}

		if in.Status != nil {
			o.Status = *in.Status
		}
		if in.FulfillmentStatus != nil {
			o.FulfillmentStatus = *in.FulfillmentStatus
		}
		o.UpdatedAt = time.Now()

		if err := tx.UpdateOrder(ctx, o); err != nil {
			return fmt.Errorf("updating order: %w", err)
		}
		updated = o
		return audit(ctx, tx, adminID, AuditUpdate, "order", id, o.Status)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RecentAuditLogs returns the newest audit rows for the admin UI.
func (s *Orders) RecentAuditLogs(ctx context.Context, limit int) ([]models.AdminLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.store.RecentAdminLogs(ctx, limit)
}
