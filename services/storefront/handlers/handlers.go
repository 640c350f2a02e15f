// Copyright (C) 2025 Tidewater Commerce (dev@tidewatercommerce.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers implements the HTTP endpoints of the storefront
// service. Each handler is a constructor taking its dependencies and
// returning a gin.HandlerFunc; wiring happens in the routes package.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/tidewater-commerce/tidewater/pkg/validation"
	"github.com/tidewater-commerce/tidewater/services/storefront/admin"
	"github.com/tidewater-commerce/tidewater/services/storefront/cart"
	"github.com/tidewater-commerce/tidewater/services/storefront/catalog"
	"github.com/tidewater-commerce/tidewater/services/storefront/datatypes"
	"github.com/tidewater-commerce/tidewater/services/storefront/middleware"
)

// bindJSON binds the request body and writes the validation envelope
// on failure. Returns false when the request has been answered.
func bindJSON(c *gin.Context, out any) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			details := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				details[fe.Field()] = fe.Tag()
			}
			c.JSON(http.StatusBadRequest,
				datatypes.ErrWithDetails("validation failed", details))
			return false
		}
		c.JSON(http.StatusBadRequest, datatypes.Err("malformed request body"))
		return false
	}
	return true
}

// cartOwner derives the cart owner for the request: the authenticated
// user when present, otherwise the guest session from X-Cart-Session.
// The header value must be UUID-shaped before it can become an
// ownership key; a missing or malformed header gets a fresh guest id,
// echoed back in the response header so the client can keep using it.
func cartOwner(c *gin.Context) cart.Owner {
	if info := middleware.GetAuthInfo(c); info != nil {
		return cart.UserOwner(info.UserID)
	}
	sessionID := c.GetHeader(middleware.SessionHeader)
	if validation.ValidateSessionID(sessionID) != nil {
		sessionID = uuid.NewString()
	}
	c.Header(middleware.SessionHeader, sessionID)
	return cart.SessionOwner(sessionID)
}

// cartStatus maps cart sentinel errors to HTTP statuses.
func cartStatus(err error) int {
	switch {
	case errors.Is(err, cart.ErrProductNotFound),
		errors.Is(err, cart.ErrVariantNotFound),
		errors.Is(err, cart.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrInsufficientStock),
		errors.Is(err, cart.ErrVariantRequired),
		errors.Is(err, cart.ErrInvalidOwner),
		errors.Is(err, cart.ErrUnknownStrategy):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// adminStatus maps admin sentinel errors to HTTP statuses.
func adminStatus(err error) int {
	switch {
	case errors.Is(err, admin.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, admin.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, admin.ErrBadInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// catalogStatus maps catalog sentinel errors to HTTP statuses.
func catalogStatus(err error) int {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrCycle):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail writes an error envelope, hiding internal error text on 500s.
func fail(c *gin.Context, status int, err error) {
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	c.JSON(status, datatypes.Err(msg))
}
