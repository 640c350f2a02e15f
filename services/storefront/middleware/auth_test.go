// Copyright (C) 2025 Tidewater Commerce (dev@tidewatercommerce.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidewater-commerce/tidewater/services/storefront/models"
)

type stubResolver struct {
	info *AuthInfo
	err  error
}

func (r stubResolver) Resolve(ctx context.Context, token string) (*AuthInfo, error) {
	return r.info, r.err
}

func doRequest(t *testing.T, resolver SessionResolver, extra []gin.HandlerFunc, header string) (*httptest.ResponseRecorder, *AuthInfo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var seen *AuthInfo
	engine := gin.New()
	chain := append([]gin.HandlerFunc{Auth(resolver)}, extra...)
	engine.GET("/probe", append(chain, func(c *gin.Context) {
		seen = GetAuthInfo(c)
		c.Status(http.StatusOK)
	})...)

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w, seen
}

func TestAuth(t *testing.T) {
	admin := &AuthInfo{UserID: "u1", Email: "a@example.com", Role: models.RoleAdmin}

	t.Run("no header continues as guest", func(t *testing.T) {
		w, seen := doRequest(t, stubResolver{}, nil, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Nil(t, seen)
	})

	t.Run("valid token attaches identity", func(t *testing.T) {
		w, seen := doRequest(t, stubResolver{info: admin}, nil, "Bearer tok123")
		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, seen)
		assert.Equal(t, "u1", seen.UserID)
	})

	t.Run("stale token is 401, not guest", func(t *testing.T) {
		w, _ := doRequest(t, stubResolver{}, nil, "Bearer expired")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("resolver failure is 500", func(t *testing.T) {
		w, _ := doRequest(t, stubResolver{err: errors.New("store down")}, nil, "Bearer tok")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("malformed header continues as guest", func(t *testing.T) {
		for _, header := range []string{"tok123", "Basic dXNlcg==", "Bearer"} {
			w, seen := doRequest(t, stubResolver{info: admin}, nil, header)
			assert.Equal(t, http.StatusOK, w.Code, header)
			assert.Nil(t, seen, header)
		}
	})

	t.Run("scheme is case-insensitive", func(t *testing.T) {
		_, seen := doRequest(t, stubResolver{info: admin}, nil, "bearer tok123")
		require.NotNil(t, seen)
	})
}

func TestRequireAuth(t *testing.T) {
	t.Run("guest rejected", func(t *testing.T) {
		w, _ := doRequest(t, stubResolver{}, []gin.HandlerFunc{RequireAuth()}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("authenticated passes", func(t *testing.T) {
		info := &AuthInfo{UserID: "u1", Role: models.RoleCustomer}
		w, _ := doRequest(t, stubResolver{info: info}, []gin.HandlerFunc{RequireAuth()}, "Bearer tok")
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRequireAdmin(t *testing.T) {
	t.Run("guest is 401", func(t *testing.T) {
		w, _ := doRequest(t, stubResolver{}, []gin.HandlerFunc{RequireAdmin()}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("customer is 403", func(t *testing.T) {
		info := &AuthInfo{UserID: "u1", Role: models.RoleCustomer}
		w, _ := doRequest(t, stubResolver{info: info}, []gin.HandlerFunc{RequireAdmin()}, "Bearer tok")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("admin passes", func(t *testing.T) {
		info := &AuthInfo{UserID: "u1", Role: models.RoleAdmin}
		w, _ := doRequest(t, stubResolver{info: info}, []gin.HandlerFunc{RequireAdmin()}, "Bearer tok")
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestIsAdmin(t *testing.T) {
	var nilInfo *AuthInfo
	assert.False(t, nilInfo.IsAdmin())
	assert.False(t, (&AuthInfo{Role: models.RoleCustomer}).IsAdmin())
	assert.True(t, (&AuthInfo{Role: models.RoleAdmin}).IsAdmin())
}
