// Copyright (C) 2025 Tidewater Commerce (dev@tidewatercommerce.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tidewater-commerce/tidewater/services/storefront/models"
	"github.com/tidewater-commerce/tidewater/services/storefront/payments"
)

type paymentsStore struct {
	db *gorm.DB
}

func (s paymentsStore) InsertEvent(ctx context.Context, ev *models.WebhookEvent) error {
	err := s.db.WithContext(ctx).Create(ev).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return payments.ErrDuplicateEvent
	}
	return err
}

func (s paymentsStore) PaymentByIntent(ctx context.Context, intentID string) (*models.Payment, error) {
	return first[models.Payment](s.db.WithContext(ctx), "intent_id = ?", intentID)
}

func (s paymentsStore) UpdatePayment(ctx context.Context, p *models.Payment) error {
	return s.db.WithContext(ctx).Model(p).Select("*").Updates(p).Error
}

func (s paymentsStore) CheckoutSessionByIntent(ctx context.Context, intentID string) (*models.CheckoutSession, error) {
	return first[models.CheckoutSession](s.db.WithContext(ctx), "intent_id = ?", intentID)
}

func (s paymentsStore) UpdateCheckoutSession(ctx context.Context, cs *models.CheckoutSession) error {
	return s.db.WithContext(ctx).Model(cs).Select("*").Updates(cs).Error
}

func (s paymentsStore) Order(ctx context.Context, id string) (*models.Order, error) {
	return first[models.Order](s.db.WithContext(ctx), "id = ?", id)
}

func (s paymentsStore) UpdateOrder(ctx context.Context, o *models.Order) error {
	return s.db.WithContext(ctx).Omit("Items").Model(o).Select("*").Updates(o).Error
}

func (s paymentsStore) Transact(ctx context.Context, fn func(payments.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(paymentsStore{db: tx})
	})
}
