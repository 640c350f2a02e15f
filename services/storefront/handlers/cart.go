// Copyright (C) 2025 Tidewater Commerce (dev@tidewatercommerce.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tidewater-commerce/tidewater/services/storefront/cart"
	"github.com/tidewater-commerce/tidewater/services/storefront/datatypes"
	"github.com/tidewater-commerce/tidewater/services/storefront/middleware"
	"github.com/tidewater-commerce/tidewater/services/storefront/observability"
)

// GetCart lists the caller's cart lines.
func GetCart(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner := cartOwner(c)
		items, err := svc.Items(c.Request.Context(), owner)
		if err != nil {
			fail(c, cartStatus(err), err)
			return
		}
		c.JSON(http.StatusOK, datatypes.OK(gin.H{"items": items}))
	}
}

// GetCartCount returns the total quantity across the caller's lines.
func GetCartCount(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner := cartOwner(c)
		count, err := svc.Count(c.Request.Context(), owner)
		if err != nil {
			fail(c, cartStatus(err), err)
			return
		}
		c.JSON(http.StatusOK, datatypes.OK(gin.H{"count": count}))
	}
}

// AddCartItem adds a product (or variant) to the caller's cart.
// Adding a line that already exists sums quantities; the summed
// quantity is validated against stock before anything is written.
func AddCartItem(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.AddCartItemRequest
		if !bindJSON(c, &req) {
			return
		}
		owner := cartOwner(c)

		result, err := svc.AddItem(c.Request.Context(), owner, req.ProductID, req.VariantID, req.Quantity)
		if err != nil {
			observability.ObserveCartOperation("add", "rejected")
			fail(c, cartStatus(err), err)
			return
		}
		observability.ObserveCartOperation("add", "ok")
		c.JSON(http.StatusOK, datatypes.OK(result))
	}
}

// UpdateCartItem sets a line's quantity. Zero removes the line.
func UpdateCartItem(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.UpdateCartItemRequest
		if !bindJSON(c, &req) {
			return
		}
		owner := cartOwner(c)

		result, err := svc.UpdateQuantity(c.Request.Context(), owner, req.ItemID, *req.Quantity)
		if err != nil {
			observability.ObserveCartOperation("update", "rejected")
			fail(c, cartStatus(err), err)
			return
		}
		observability.ObserveCartOperation("update", "ok")
		c.JSON(http.StatusOK, datatypes.OK(result))
	}
}

// RemoveCartItem deletes a line from the caller's cart.
func RemoveCartItem(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.RemoveCartItemRequest
		if !bindJSON(c, &req) {
			return
		}
		owner := cartOwner(c)

		if err := svc.RemoveItem(c.Request.Context(), owner, req.ItemID); err != nil {
			observability.ObserveCartOperation("remove", "rejected")
			fail(c, cartStatus(err), err)
			return
		}
		observability.ObserveCartOperation("remove", "ok")
		c.JSON(http.StatusOK, datatypes.OK(gin.H{"removed": req.ItemID}))
	}
}

// ClearCart deletes every line the caller owns.
func ClearCart(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner := cartOwner(c)
		if err := svc.Clear(c.Request.Context(), owner); err != nil {
			observability.ObserveCartOperation("clear", "error")
			fail(c, cartStatus(err), err)
			return
		}
		observability.ObserveCartOperation("clear", "ok")
		c.JSON(http.StatusOK, datatypes.OK(gin.H{"cleared": true}))
	}
}

// MergeCart folds a guest session's cart into the authenticated
// user's cart. Authentication is required; the guest session id comes
// from the request body, not the header, so a client can merge the
// pre-login session it still holds.
func MergeCart(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		info := middleware.GetAuthInfo(c)
		if info == nil {
			c.JSON(http.StatusUnauthorized, datatypes.Err("authentication required"))
			return
		}

		var req datatypes.MergeCartRequest
		if !bindJSON(c, &req) {
			return
		}
		strategy := req.Strategy
		if strategy == "" {
			strategy = cart.StrategyMerge
		}

		results, err := svc.MergeGuestCart(c.Request.Context(), req.SessionID, info.UserID, strategy)
		if err != nil {
			observability.ObserveCartOperation("merge", "rejected")
			fail(c, cartStatus(err), err)
			return
		}
		observability.ObserveCartOperation("merge", "ok")
		c.JSON(http.StatusOK, datatypes.OK(gin.H{"lines": results}))
	}
}
