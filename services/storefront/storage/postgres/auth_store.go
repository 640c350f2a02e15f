// Copyright (C) 2025 Tidewater Commerce (dev@tidewatercommerce.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tidewater-commerce/tidewater/services/storefront/middleware"
	"github.com/tidewater-commerce/tidewater/services/storefront/models"
)

// AuthStore resolves bearer session tokens against the sessions table.
type AuthStore struct {
	db *gorm.DB
}

// Resolve looks up a session token and returns the authenticated
// identity, or (nil, nil) when the token is unknown or expired.
func (s *AuthStore) Resolve(ctx context.Context, token string) (*middleware.AuthInfo, error) {
	session, err := first[models.Session](s.db.WithContext(ctx), "token = ?", token)
	if err != nil {
		return nil, err
	}
	if session == nil || session.ExpiresAt.Before(time.Now()) {
		return nil, nil
	}

	customer, err := first[models.Customer](s.db.WithContext(ctx), "id = ?", session.CustomerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, nil
	}

	return &middleware.AuthInfo{
		UserID: customer.ID,
		Email:  customer.Email,
		Role:   customer.Role,
	}, nil
}
