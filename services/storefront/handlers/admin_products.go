// Copyright (C) 2025 Tidewater Commerce (dev@tidewatercommerce.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tidewater-commerce/tidewater/pkg/logging"
	"github.com/tidewater-commerce/tidewater/services/storefront/admin"
	"github.com/tidewater-commerce/tidewater/services/storefront/datatypes"
	"github.com/tidewater-commerce/tidewater/services/storefront/middleware"
	"github.com/tidewater-commerce/tidewater/services/storefront/observability"
	"github.com/tidewater-commerce/tidewater/services/storefront/storage/badgercache"
)

// maxImageUploadBytes caps product image uploads at 10 MiB.
const maxImageUploadBytes = 10 << 20

// invalidateProducts drops the cached public product responses after
// an admin write. Failures are logged, not surfaced: the cache entries
// expire on their own TTL anyway.
func invalidateProducts(cache *badgercache.Cache, logger *logging.Logger) {
	if cache == nil {
		return
	}
	if err := cache.InvalidatePrefix(ProductCachePrefix); err != nil && logger != nil {
		logger.Warn("product cache invalidation failed", "error", err)
	}
}

// AdminListProducts lists products for the back office, any status.
func AdminListProducts(svc *admin.Products) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := pageParams(c)
		products, err := svc.List(c.Request.Context(), c.Query("status"), limit, offset)
		if err != nil {
			fail(c, adminStatus(err), err)
			return
		}
		c.JSON(http.StatusOK, datatypes.OK(gin.H{"products": products}))
	}
}

// AdminGetProduct returns one product with all associations.
func AdminGetProduct(svc *admin.Products) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			fail(c, adminStatus(err), err)
			return
		}
		c.JSON(http.StatusOK, datatypes.OK(p))
	}
}

// AdminCreateProduct creates a product with its initial variants.
func AdminCreateProduct(svc *admin.Products, cache *badgercache.Cache, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in admin.CreateProductInput
		if !bindJSON(c, &in) {
			return
		}
		info := middleware.GetAuthInfo(c)

		p, err := svc.Create(c.Request.Context(), info.UserID, in)
		if err != nil {
			fail(c, adminStatus(err), err)
			return
		}
		observability.ObserveAdminMutation("product", admin.AuditCreate)
		invalidateProducts(cache, logger)
		c.JSON(http.StatusCreated, datatypes.OK(p))
	}
}

// AdminUpdateProduct applies field changes plus variant and image
// batches in one transaction.
func AdminUpdateProduct(svc *admin.Products, cache *badgercache.Cache, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in admin.UpdateProductInput
		if !bindJSON(c, &in) {
			return
		}
		info := middleware.GetAuthInfo(c)

		p, err := svc.Update(c.Request.Context(), info.UserID, c.Param("id"), in)
		if err != nil {
			fail(c, adminStatus(err), err)
			return
		}
		observability.ObserveAdminMutation("product", admin.AuditUpdate)
		invalidateProducts(cache, logger)
		c.JSON(http.StatusOK, datatypes.OK(p))
	}
}

// AdminDeleteProduct deletes a product unless any of its variants is
// referenced by an order (409).
func AdminDeleteProduct(svc *admin.Products, cache *badgercache.Cache, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		info := middleware.GetAuthInfo(c)

		if err := svc.Delete(c.Request.Context(), info.UserID, c.Param("id")); err != nil {
			fail(c, adminStatus(err), err)
			return
		}
		observability.ObserveAdminMutation("product", admin.AuditDelete)
		invalidateProducts(cache, logger)
		c.JSON(http.StatusOK, datatypes.OK(gin.H{"deleted": c.Param("id")}))
	}
}

// AdminUploadImage accepts a multipart image upload for a product.
// The object lands in the image store first; the database row insert
// is compensated by an object delete when it fails.
func AdminUploadImage(svc *admin.Products, cache *badgercache.Cache, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		info := middleware.GetAuthInfo(c)

		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, datatypes.Err("missing file field"))
			return
		}
		if fileHeader.Size > maxImageUploadBytes {
			c.JSON(http.StatusBadRequest, datatypes.Err("image exceeds size limit"))
			return
		}

		f, err := fileHeader.Open()
		if err != nil {
			fail(c, http.StatusInternalServerError, err)
			return
		}
		defer f.Close()
		content, err := io.ReadAll(io.LimitReader(f, maxImageUploadBytes+1))
		if err != nil {
			fail(c, http.StatusInternalServerError, err)
			return
		}
		if len(content) > maxImageUploadBytes {
			c.JSON(http.StatusBadRequest, datatypes.Err("image exceeds size limit"))
			return
		}

		contentType := fileHeader.Header.Get("Content-Type")
		img, err := svc.UploadImage(c.Request.Context(), info.UserID, c.Param("id"),
			fileHeader.Filename, content, contentType, c.PostForm("alt"))
		if err != nil {
			fail(c, adminStatus(err), err)
			return
		}
		observability.ObserveAdminMutation("product", admin.AuditUpload)
		invalidateProducts(cache, logger)
		c.JSON(http.StatusCreated, datatypes.OK(img))
	}
}
