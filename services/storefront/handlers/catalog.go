// Copyright (C) 2025 Tidewater Commerce (dev@tidewatercommerce.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tidewater-commerce/tidewater/pkg/logging"
	"github.com/tidewater-commerce/tidewater/services/storefront/admin"
	"github.com/tidewater-commerce/tidewater/services/storefront/catalog"
	"github.com/tidewater-commerce/tidewater/services/storefront/datatypes"
	"github.com/tidewater-commerce/tidewater/services/storefront/models"
	"github.com/tidewater-commerce/tidewater/services/storefront/observability"
	"github.com/tidewater-commerce/tidewater/services/storefront/storage/badgercache"
)

// ProductCachePrefix keys the cached public product responses. Admin
// product writes invalidate this whole prefix.
const ProductCachePrefix = "products:"

// ListProducts serves the public product listing: published products
// with variants and images, paginated, served through the cache.
func ListProducts(svc *admin.Products, cache *badgercache.Cache, logger *logging.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = logging.Default()
	}
	return func(c *gin.Context) {
		limit, offset := pageParams(c)
		key := fmt.Sprintf("%slist:%d:%d", ProductCachePrefix, limit, offset)

		if cache != nil {
			if raw, ok := cache.Get(key); ok {
				observability.ObserveCacheHit(true)
				c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
				return
			}
			observability.ObserveCacheHit(false)
		}

		products, err := svc.List(c.Request.Context(), models.ProductPublished, limit, offset)
		if err != nil {
			fail(c, adminStatus(err), err)
			return
		}
		if products == nil {
			products = []models.Product{}
		}

		body, err := json.Marshal(datatypes.OK(gin.H{"products": products}))
		if err != nil {
			fail(c, http.StatusInternalServerError, err)
			return
		}
		if cache != nil {
			if err := cache.Set(key, body, 0); err != nil {
				logger.Warn("product cache write failed", "error", err)
			}
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", body)
	}
}

// GetProduct serves one published product with its associations.
// Draft and archived products answer 404 on the public surface.
func GetProduct(svc *admin.Products) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			fail(c, adminStatus(err), err)
			return
		}
		if p.Status != models.ProductPublished {
			c.JSON(http.StatusNotFound, datatypes.Err("product not found"))
			return
		}
		c.JSON(http.StatusOK, datatypes.OK(p))
	}
}

// GetCategory serves one category with its direct children and the
// breadcrumb path from the root.
func GetCategory(tree *catalog.Tree) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id := c.Param("id")

		category, err := tree.Get(ctx, id)
		if err != nil {
			fail(c, catalogStatus(err), err)
			return
		}
		children, err := tree.Children(ctx, id)
		if err != nil {
			fail(c, catalogStatus(err), err)
			return
		}
		path, err := tree.Path(ctx, id)
		if err != nil {
			fail(c, catalogStatus(err), err)
			return
		}
		if children == nil {
			children = []models.Category{}
		}

		c.JSON(http.StatusOK, datatypes.OK(gin.H{
			"category": category,
			"children": children,
			"path":     path,
		}))
	}
}

// pageParams reads limit/offset query params with the same bounds the
// admin listings use.
func pageParams(c *gin.Context) (int, int) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
