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

	"github.com/tidewater-commerce/tidewater/services/storefront/catalog"
	"github.com/tidewater-commerce/tidewater/services/storefront/datatypes"
	"github.com/tidewater-commerce/tidewater/services/storefront/observability"
)

// AdminCreateCategory creates a category, optionally under a parent.
func AdminCreateCategory(tree *catalog.Tree) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.CreateCategoryRequest
		if !bindJSON(c, &req) {
			return
		}

		category, err := tree.Create(c.Request.Context(), req.Name, req.Slug, req.ParentID)
		if err != nil {
			fail(c, catalogStatus(err), err)
			return
		}
		observability.ObserveAdminMutation("category", "create")
		c.JSON(http.StatusCreated, datatypes.OK(category))
	}
}

// AdminUpdateCategory renames and/or reparents a category. A reparent
// that would introduce a cycle answers 400 and writes nothing.
func AdminUpdateCategory(tree *catalog.Tree) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.UpdateCategoryRequest
		if !bindJSON(c, &req) {
			return
		}

		category, err := tree.Update(c.Request.Context(), c.Param("id"),
			req.Name, req.Slug, req.ParentID, req.SetParent)
		if err != nil {
			fail(c, catalogStatus(err), err)
			return
		}
		observability.ObserveAdminMutation("category", "update")
		c.JSON(http.StatusOK, datatypes.OK(category))
	}
}

// AdminDeleteCategory deletes a category. Without ?force=true a
// category that still has children or product associations answers
// 409; with force the whole subtree goes in one transaction.
func AdminDeleteCategory(tree *catalog.Tree) gin.HandlerFunc {
	return func(c *gin.Context) {
		force := c.Query("force") == "true"

		if err := tree.Delete(c.Request.Context(), c.Param("id"), force); err != nil {
			fail(c, catalogStatus(err), err)
			return
		}
		observability.ObserveAdminMutation("category", "delete")
		c.JSON(http.StatusOK, datatypes.OK(gin.H{"deleted": c.Param("id"), "force": force}))
	}
}
