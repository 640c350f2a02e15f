// Copyright (C) 2025 Tidewater Commerce (dev@tidewatercommerce.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes defines the wire-level request and response types
// shared by the HTTP handlers.
//
// Every endpoint responds with the same envelope:
//
//	{"success": true,  "data": {...}}
//	{"success": false, "error": "...", "details": {...}}
//
// so clients can branch on a single field regardless of endpoint.
package datatypes

// Envelope is the uniform response wrapper.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Details any    `json:"details,omitempty"`
}

// OK wraps a successful payload.
func OK(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

// Err wraps an error message.
func Err(msg string) Envelope {
	return Envelope{Success: false, Error: msg}
}

// ErrWithDetails wraps an error message with structured detail, used
// for validation failures where the client needs per-field messages.
func ErrWithDetails(msg string, details any) Envelope {
	return Envelope{Success: false, Error: msg, Details: details}
}

// =============================================================================
// Cart requests
// =============================================================================

// AddCartItemRequest is the body for POST /api/cart/add.
type AddCartItemRequest struct {
	ProductID string  `json:"product_id" binding:"required,uuid"`
	VariantID *string `json:"variant_id" binding:"omitempty,uuid"`
	Quantity  int     `json:"quantity" binding:"required,gt=0"`
}

// UpdateCartItemRequest is the body for POST /api/cart/update.
// Quantity zero removes the line.
type UpdateCartItemRequest struct {
	ItemID   string `json:"item_id" binding:"required,uuid"`
	Quantity *int   `json:"quantity" binding:"required,gte=0"`
}

// RemoveCartItemRequest is the body for POST /api/cart/remove.
type RemoveCartItemRequest struct {
	ItemID string `json:"item_id" binding:"required,uuid"`
}

// MergeCartRequest is the body for POST /api/cart/merge. SessionID is
// the guest session whose lines fold into the caller's cart.
type MergeCartRequest struct {
	SessionID string `json:"session_id" binding:"required,uuid"`
	Strategy  string `json:"strategy" binding:"omitempty,oneof=merge replace keep_existing"`
}

// =============================================================================
// Category requests
// =============================================================================

// CreateCategoryRequest is the body for POST /api/admin/categories.
type CreateCategoryRequest struct {
	Name     string  `json:"name" binding:"required,max=255"`
	Slug     string  `json:"slug" binding:"required,max=120"`
	ParentID *string `json:"parent_id" binding:"omitempty,uuid"`
}

// UpdateCategoryRequest is the body for PUT /api/admin/categories/:id.
// Nil fields are left unchanged; SetParent distinguishes "move to root"
// from "do not reparent".
type UpdateCategoryRequest struct {
	Name      *string `json:"name" binding:"omitempty,max=255"`
	Slug      *string `json:"slug" binding:"omitempty,max=120"`
	SetParent bool    `json:"set_parent"`
	ParentID  *string `json:"parent_id" binding:"omitempty,uuid"`
}
