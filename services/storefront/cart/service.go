// Copyright (C) 2025 Tidewater Commerce (dev@tidewatercommerce.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tidewater-commerce/tidewater/pkg/logging"
	"github.com/tidewater-commerce/tidewater/services/storefront/models"
)

// LineResult describes what happened to one cart line.
type LineResult struct {
	Item   *models.CartItem `json:"item,omitempty"`
	Action string           `json:"action"`
}

// Service is the cart reconciliation engine.
//
// # Thread Safety
//
// Service itself is stateless and safe for concurrent use; isolation
// between concurrent mutations of the same cart is whatever the
// underlying store's transactions provide.
type Service struct {
	store  Store
	logger *logging.Logger
	now    func() time.Time
}

// NewService creates a cart service. A nil logger falls back to the
// package default.
func NewService(store Store, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// stockLimit returns the maximum sellable quantity for a variant, or
// -1 when the variant is not stock-constrained.
func stockLimit(p *models.Product, v *models.ProductVariant) int {
	if !p.TrackQuantity || v == nil || v.AllowBackorder {
		return -1
	}
	return v.Stock
}

// resolveLine loads the product and (optional) variant for a cart
// mutation and applies the variant-required rule.
func (s *Service) resolveLine(ctx context.Context, store Store, productID string, variantID *string) (*models.Product, *models.ProductVariant, error) {
	product, err := store.Product(ctx, productID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading product: %w", err)
	}
	if product == nil {
		return nil, nil, ErrProductNotFound
	}

	var variant *models.ProductVariant
	if variantID != nil {
		variant, err = store.Variant(ctx, *variantID)
		if err != nil {
			return nil, nil, fmt.Errorf("loading variant: %w", err)
		}
		if variant == nil || variant.ProductID != product.ID {
			return nil, nil, ErrVariantNotFound
		}
	} else {
		n, err := store.VariantCount(ctx, product.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("counting variants: %w", err)
		}
		if n > 0 {
			return nil, nil, ErrVariantRequired
		}
	}
	return product, variant, nil
}

// AddItem adds quantity of a (product, variant) to the owner's cart.
//
// If the owner already holds a line for the same pair, quantities are
// summed and the total is validated against stock — the request is
// rejected, not clamped, when it would exceed stock. Returns the
// resulting line with action "created" or "updated".
func (s *Service) AddItem(ctx context.Context, owner Owner, productID string, variantID *string, quantity int) (*LineResult, error) {
	if !owner.Valid() {
		return nil, ErrInvalidOwner
	}
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	var result *LineResult
	err := s.store.Transact(ctx, func(tx Store) error {
		product, variant, err := s.resolveLine(ctx, tx, productID, variantID)
		if err != nil {
			return err
		}

		existing, err := tx.FindLine(ctx, owner, productID, variantID)
		if err != nil {
			return fmt.Errorf("finding existing line: %w", err)
		}

		total := quantity
		if existing != nil {
			total += existing.Quantity
		}
		if limit := stockLimit(product, variant); limit >= 0 && total > limit {
			return ErrInsufficientStock
		}

		now := s.now()
		if existing != nil {
			existing.Quantity = total
			existing.UpdatedAt = now
			if err := tx.UpdateItem(ctx, existing); err != nil {
				return fmt.Errorf("updating line: %w", err)
			}
			result = &LineResult{Item: existing, Action: ActionUpdated}
			return nil
		}

		item := &models.CartItem{
			ID:        uuid.NewString(),
			ProductID: productID,
			VariantID: variantID,
			Quantity:  quantity,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if owner.UserID != "" {
			item.UserID = &owner.UserID
		} else {
			item.SessionID = &owner.SessionID
		}
		if err := tx.InsertItem(ctx, item); err != nil {
			return fmt.Errorf("inserting line: %w", err)
		}
		result = &LineResult{Item: item, Action: ActionCreated}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("cart item reconciled",
		"owner", owner.String(), "product_id", productID, "action", result.Action,
		"quantity", result.Item.Quantity)
	return result, nil
}

// UpdateQuantity sets an owned line to a new quantity. Zero deletes
// the line and reports action "removed"; positive quantities are
// re-validated against stock.
func (s *Service) UpdateQuantity(ctx context.Context, owner Owner, itemID string, quantity int) (*LineResult, error) {
	if !owner.Valid() {
		return nil, ErrInvalidOwner
	}
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}

	var result *LineResult
	err := s.store.Transact(ctx, func(tx Store) error {
		item, err := s.ownedItem(ctx, tx, owner, itemID)
		if err != nil {
			return err
		}

		if quantity == 0 {
			if err := tx.DeleteItem(ctx, item.ID); err != nil {
				return fmt.Errorf("deleting line: %w", err)
			}
			result = &LineResult{Action: ActionRemoved}
			return nil
		}

		product, variant, err := s.resolveLine(ctx, tx, item.ProductID, item.VariantID)
		if err != nil {
			return err
		}
		if limit := stockLimit(product, variant); limit >= 0 && quantity > limit {
			return ErrInsufficientStock
		}

		item.Quantity = quantity
		item.UpdatedAt = s.now()
		if err := tx.UpdateItem(ctx, item); err != nil {
			return fmt.Errorf("updating line: %w", err)
		}
		result = &LineResult{Item: item, Action: ActionUpdated}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RemoveItem deletes one owned line.
func (s *Service) RemoveItem(ctx context.Context, owner Owner, itemID string) error {
	if !owner.Valid() {
		return ErrInvalidOwner
	}
	return s.store.Transact(ctx, func(tx Store) error {
		item, err := s.ownedItem(ctx, tx, owner, itemID)
		if err != nil {
			return err
		}
		return tx.DeleteItem(ctx, item.ID)
	})
}

// Clear deletes every line in the owner's cart.
func (s *Service) Clear(ctx context.Context, owner Owner) error {
	if !owner.Valid() {
		return ErrInvalidOwner
	}
	return s.store.DeleteByOwner(ctx, owner)
}

// Items returns the owner's cart lines.
func (s *Service) Items(ctx context.Context, owner Owner) ([]models.CartItem, error) {
	if !owner.Valid() {
		return nil, ErrInvalidOwner
	}
	return s.store.ItemsByOwner(ctx, owner)
}

// Count returns the sum of line quantities in the owner's cart.
func (s *Service) Count(ctx context.Context, owner Owner) (int, error) {
	items, err := s.Items(ctx, owner)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, it := range items {
		total += it.Quantity
	}
	return total, nil
}

// ownedItem loads a line and verifies it belongs to owner. A line
// owned by someone else is indistinguishable from a missing one.
func (s *Service) ownedItem(ctx context.Context, store Store, owner Owner, itemID string) (*models.CartItem, error) {
	item, err := store.ItemByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("loading line: %w", err)
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	switch {
	case owner.UserID != "" && item.UserID != nil && *item.UserID == owner.UserID:
	case owner.SessionID != "" && item.SessionID != nil && *item.SessionID == owner.SessionID:
	default:
		return nil, ErrItemNotFound
	}
	return item, nil
}

// MergeGuestCart folds the guest cart identified by sessionID into
// the user's cart and clears the guest cart. The whole merge runs in
// one transaction: a failure on any line leaves both carts as they
// were.
//
// For each guest line, when the user already holds the same
// (product, variant):
//
//   - StrategyMerge: user quantity becomes min(guest+user, stock)
//   - StrategyReplace: user quantity becomes min(guest, stock)
//   - StrategyKeepExisting: user line is untouched
//
// The stock clamp only applies to stock-constrained variants. Lines
// the user does not hold are re-parented from session to user
// ownership. An empty guest cart merges successfully with no results.
func (s *Service) MergeGuestCart(ctx context.Context, sessionID, userID, strategy string) ([]LineResult, error) {
	if sessionID == "" || userID == "" {
		return nil, ErrInvalidOwner
	}
	if strategy == "" {
		strategy = StrategyMerge
	}
	switch strategy {
	case StrategyMerge, StrategyReplace, StrategyKeepExisting:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}

	guest := SessionOwner(sessionID)
	user := UserOwner(userID)

	var results []LineResult
	err := s.store.Transact(ctx, func(tx Store) error {
		guestItems, err := tx.ItemsByOwner(ctx, guest)
		if err != nil {
			return fmt.Errorf("loading guest cart: %w", err)
		}

		for i := range guestItems {
			res, err := s.mergeLine(ctx, tx, &guestItems[i], user, strategy)
			if err != nil {
				return fmt.Errorf("merging line %s: %w", guestItems[i].ID, err)
			}
			results = append(results, *res)
		}

		// Anything left under the session key is cleared only after
		// every line was processed.
		if err := tx.DeleteByOwner(ctx, guest); err != nil {
			return fmt.Errorf("clearing guest cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("guest cart merged",
		"session_id", sessionID, "user_id", userID,
		"strategy", strategy, "lines", len(results))
	return results, nil
}

func (s *Service) mergeLine(ctx context.Context, tx Store, guestItem *models.CartItem, user Owner, strategy string) (*LineResult, error) {
	existing, err := tx.FindLine(ctx, user, guestItem.ProductID, guestItem.VariantID)
	if err != nil {
		return nil, fmt.Errorf("finding user line: %w", err)
	}

	now := s.now()

	if existing == nil {
		// Re-parent the row: same line, new owner.
		guestItem.SessionID = nil
		guestItem.UserID = &user.UserID
		guestItem.UpdatedAt = now
		if err := tx.UpdateItem(ctx, guestItem); err != nil {
			return nil, fmt.Errorf("re-parenting line: %w", err)
		}
		return &LineResult{Item: guestItem, Action: ActionTransferred}, nil
	}

	if strategy == StrategyKeepExisting {
		return &LineResult{Item: existing, Action: ActionKept}, nil
	}

	product, variant, err := s.resolveLine(ctx, tx, guestItem.ProductID, guestItem.VariantID)
	if err != nil {
		return nil, err
	}

	target := guestItem.Quantity
	action := ActionReplaced
	if strategy == StrategyMerge {
		target += existing.Quantity
		action = ActionMerged
	}
	if limit := stockLimit(product, variant); limit >= 0 && target > limit {
		target = limit
	}

	if target <= 0 {
		// Clamped to nothing (stock exhausted); the invariant says a
		// line's quantity is always positive, so drop the user line.
		if err := tx.DeleteItem(ctx, existing.ID); err != nil {
			return nil, fmt.Errorf("deleting clamped line: %w", err)
		}
		return &LineResult{Action: ActionRemoved}, nil
	}

	existing.Quantity = target
	existing.UpdatedAt = now
	if err := tx.UpdateItem(ctx, existing); err != nil {
		return nil, fmt.Errorf("updating user line: %w", err)
	}
	return &LineResult{Item: existing, Action: action}, nil
}
