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

	"github.com/google/uuid"

	"github.com/tidewater-commerce/tidewater/pkg/logging"
	"github.com/tidewater-commerce/tidewater/services/storefront/models"
)

// UpdateCustomerInput is the admin update-customer request body.
type UpdateCustomerInput struct {
	Email     *string `json:"email" binding:"omitempty,email"`
	FirstName *string `json:"first_name" binding:"omitempty,max=100"`
	LastName  *string `json:"last_name" binding:"omitempty,max=100"`
	Role      *string `json:"role" binding:"omitempty,oneof=customer admin"`
}

// CreateNoteInput is the add-customer-note request body.
type CreateNoteInput struct {
	Body string `json:"body" binding:"required,max=4000"`
}

// Customers is the admin customer service.
type Customers struct {
	store  Store
	logger *logging.Logger
}

// NewCustomers creates the customer service.
func NewCustomers(store Store, logger *logging.Logger) *Customers {
	if logger == nil {
		logger = logging.Default()
	}
	return &Customers{store: store, logger: logger}
}

// List returns customers, newest first.
func (s *Customers) List(ctx context.Context, limit, offset int) ([]models.Customer, error) {
	limit, offset = clampPage(limit, offset)
	return s.store.ListCustomers(ctx, limit, offset)
}

// Get returns one customer.
func (s *Customers) Get(ctx context.Context, id string) (*models.Customer, error) {
	c, err := s.store.CustomerByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrNotFound
	}
	return c, nil
}

// Update applies field changes plus the audit row in one transaction.
func (s *Customers) Update(ctx context.Context, adminID, id string, in UpdateCustomerInput) (*models.Customer, error) {
	var updated *models.Customer
	err := s.store.Transact(ctx, func(tx Store) error {
		c, err := tx.CustomerByID(ctx, id)
		if err != nil {
			return err
		}
		if c == nil {
			return ErrNotFound
		}

		if in.Email != nil {
			c.Email = *in.Email
		}
		if in.FirstName != nil {
			c.FirstName = *in.FirstName
		}
		if in.LastName != nil {
			c.LastName = *in.LastName
		}
		if in.Role != nil {
			c.Role = *in.Role
		}
		c.UpdatedAt = time.Now()

		if err := tx.UpdateCustomer(ctx, c); err != nil {
			return fmt.Errorf("updating customer: %w", err)
		}
		updated = c
		return audit(ctx, tx, adminID, AuditUpdate, "customer", id, "")
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a customer record. Notes and the audit trail are
// retained; only the customer row goes away.
func (s *Customers) Delete(ctx context.Context, adminID, id string) error {
	return s.store.Transact(ctx, func(tx Store) error {
		c, err := tx.CustomerByID(ctx, id)
		if err != nil {
			return err
		}
		if c == nil {
			return ErrNotFound
		}
		if err := tx.DeleteCustomer(ctx, id); err != nil {
			return fmt.Errorf("deleting customer: %w", err)
		}
		return audit(ctx, tx, adminID, AuditDelete, "customer", id, c.Email)
	})
}

// Notes returns a customer's notes, oldest first.
func (s *Customers) Notes(ctx context.Context, customerID string) ([]models.CustomerNote, error) {
	c, err := s.store.CustomerByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrNotFound
	}
	return s.store.NotesByCustomer(ctx, customerID)
}

// AddNote appends a note. Notes are append-only; there is no update
// or delete path.
func (s *Customers) AddNote(ctx context.Context, adminID, customerID string, in CreateNoteInput) (*models.CustomerNote, error) {
	note := &models.CustomerNote{
		ID:         uuid.NewString(),
		CustomerID: customerID,
		AuthorID:   adminID,
		Body:       in.Body,
		CreatedAt:  time.Now(),
	}
	err := s.store.Transact(ctx, func(tx Store) error {
		c, err := tx.CustomerByID(ctx, customerID)
		if err != nil {
			return err
		}
		if c == nil {
			return ErrNotFound
		}
		if err := tx.InsertNote(ctx, note); err != nil {
			return fmt.Errorf("inserting note: %w", err)
		}
		return audit(ctx, tx, adminID, AuditNote, "customer", customerID, "")
	})
	if err != nil {
		return nil, err
	}
	return note, nil
}
