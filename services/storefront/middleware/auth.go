// Copyright (C) 2025 Tidewater Commerce (dev@tidewatercommerce.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package middleware provides HTTP middleware for the storefront
// service.
//
// # Authentication Flow
//
// The auth middleware extracts a bearer token from the Authorization
// header, resolves it against the session store, and stores the
// resulting AuthInfo in the Gin context for downstream handlers.
//
//	Request
//	   │
//	   ▼
//	Auth
//	   │
//	   ├─► Extract token from "Authorization: Bearer <token>"
//	   │
//	   ├─► resolver.Resolve(ctx, token)
//	   │
//	   └─► Store AuthInfo in context
//	           │
//	           ▼
//	       Handler (retrieves via GetAuthInfo)
//
// Requests without a token continue as guests; storefront endpoints
// fall back to the X-Cart-Session header for cart ownership. Admin
// routes additionally pass through RequireAdmin, which rejects
// unauthenticated requests with 401 and non-admin roles with 403.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tidewater-commerce/tidewater/services/storefront/datatypes"
	"github.com/tidewater-commerce/tidewater/services/storefront/models"
)

// SessionHeader carries the guest session id for unauthenticated
// cart requests. Handlers mint and echo a fresh id when absent.
const SessionHeader = "X-Cart-Session"

// authInfoKey is the context key for storing AuthInfo.
// Using a dedicated key prevents collisions with other context values.
const authInfoKey = "tidewater_auth_info"

// AuthInfo is the authenticated identity attached to a request.
type AuthInfo struct {
	UserID string
	Email  string
	Role   string
}

// IsAdmin reports whether the identity holds the admin role.
func (a *AuthInfo) IsAdmin() bool {
	return a != nil && a.Role == models.RoleAdmin
}

// SessionResolver resolves a bearer token to an identity. Resolve
// returns (nil, nil) for unknown or expired tokens; errors are
// reserved for store failures.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*AuthInfo, error)
}

// SetAuthInfo stores the authenticated user info in the Gin context.
// Only valid for the current request.
func SetAuthInfo(c *gin.Context, info *AuthInfo) {
	c.Set(authInfoKey, info)
}

// GetAuthInfo retrieves the authenticated user info from the Gin
// context, or nil when the request is unauthenticated.
func GetAuthInfo(c *gin.Context) *AuthInfo {
	if info, exists := c.Get(authInfoKey); exists {
		if authInfo, ok := info.(*AuthInfo); ok {
			return authInfo
		}
	}
	return nil
}

// =============================================================================
// Middleware
// =============================================================================

// Auth creates a Gin middleware that authenticates requests.
//
// A missing or empty Authorization header is not an error: the request
// continues as a guest and handlers decide whether identity is
// required. A token that is present but does not resolve aborts with
// 401 so a caller holding a stale token learns about it immediately
// instead of silently shopping as a guest.
func Auth(resolver SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			c.Next()
			return
		}

		info, err := resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				datatypes.Err("authentication failed"))
			return
		}
		if info == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				datatypes.Err("invalid or expired session"))
			return
		}

		SetAuthInfo(c, info)
		c.Next()
	}
}

// RequireAuth aborts with 401 when the request carries no resolved
// identity.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetAuthInfo(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				datatypes.Err("authentication required"))
			return
		}
		c.Next()
	}
}

// RequireAdmin aborts with 401 for unauthenticated requests and 403
// for authenticated requests without the admin role.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		info := GetAuthInfo(c)
		if info == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				datatypes.Err("authentication required"))
			return
		}
		if !info.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden,
				datatypes.Err("admin role required"))
			return
		}
		c.Next()
	}
}

// extractBearerToken parses the Authorization header expecting
// "Bearer <token>". The scheme is case-insensitive per RFC 7235.
// Returns empty string if the header is missing or malformed.
func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
