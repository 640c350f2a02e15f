// Copyright (C) 2025 Tidewater Commerce (dev@tidewatercommerce.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package cart implements cart reconciliation: stock-validated adds
// and updates, and the guest-to-user cart merge that runs on login.
//
// # Ownership
//
// A cart is not a row of its own; it is the set of CartItem rows
// sharing one Owner. An Owner is either a user id (authenticated
// cart) or a session id (guest cart), never both. Merging a guest
// cart into a user cart re-parents or combines rows and then clears
// the guest side, all inside one store transaction so a failure
// mid-merge leaves both carts untouched.
//
// # Stock Rule
//
// A variant is stock-constrained when its product tracks quantity and
// the variant does not allow backorders. Adds and updates against a
// constrained variant are rejected once the requested line quantity
// would exceed the variant's stock. The merge path clamps instead of
// rejecting: merged quantity = min(guest + user, stock).
package cart

import (
	"errors"
	"fmt"
)

// Merge strategies accepted by MergeGuestCart.
const (
	// StrategyMerge sums guest and user quantities, clamped to stock.
	StrategyMerge = "merge"
	// StrategyReplace takes the guest quantity, clamped to stock.
	StrategyReplace = "replace"
	// StrategyKeepExisting leaves the user's line untouched.
	StrategyKeepExisting = "keep_existing"
)

// Actions reported in line results.
const (
	ActionCreated     = "created"
	ActionUpdated     = "updated"
	ActionRemoved     = "removed"
	ActionTransferred = "transferred"
	ActionMerged      = "merged"
	ActionReplaced    = "replaced"
	ActionKept        = "kept"
)

// Sentinel errors. Handlers map these to HTTP statuses.
var (
	ErrInvalidQuantity   = errors.New("quantity must be greater than zero")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrProductNotFound   = errors.New("product not found")
	ErrVariantNotFound   = errors.New("variant not found")
	ErrVariantRequired   = errors.New("variant selection required")
	ErrItemNotFound      = errors.New("cart item not found")
	ErrInvalidOwner      = errors.New("owner must be exactly one of user or session")
	ErrUnknownStrategy   = errors.New("unknown merge strategy")
)

// Owner identifies whose cart a line belongs to. Exactly one of
// UserID and SessionID is set.
type Owner struct {
	UserID    string
	SessionID string
}

// UserOwner returns an Owner for an authenticated cart.
func UserOwner(userID string) Owner { return Owner{UserID: userID} }

// SessionOwner returns an Owner for a guest cart.
func SessionOwner(sessionID string) Owner { return Owner{SessionID: sessionID} }

// Valid reports whether exactly one ownership key is set.
func (o Owner) Valid() bool {
	return (o.UserID != "") != (o.SessionID != "")
}

// String renders the owner for logs without distinguishing key names.
func (o Owner) String() string {
	if o.UserID != "" {
		return fmt.Sprintf("user:%s", o.UserID)
	}
	return fmt.Sprintf("session:%s", o.SessionID)
}
