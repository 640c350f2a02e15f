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

	"github.com/tidewater-commerce/tidewater/services/storefront/admin"
	"github.com/tidewater-commerce/tidewater/services/storefront/datatypes"
	"github.com/tidewater-commerce/tidewater/services/storefront/middleware"
	"github.com/tidewater-commerce/tidewater/services/storefront/observability"
)

// AdminListOrders lists orders, optionally filtered by status.
func AdminListOrders(svc *admin.Orders) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := pageParams(c)
		orders, err := svc.List(c.Request.Context(), c.Query("status"), limit, offset)
		if err != nil {
			fail(c, adminStatus(err), err)
			return
		}
		c.JSON(http.StatusOK, datatypes.OK(gin.H{"orders": orders}))
	}
}

// AdminGetOrder returns one order with its items.
func AdminGetOrder(svc *admin.Orders) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			fail(c, adminStatus(err), err)
			return
		}
		c.JSON(http.StatusOK, datatypes.OK(order))
	}
}

// AdminUpdateOrder updates order status and fulfillment. Cancelled
// orders are terminal and answer 409. Payment status is never set
// here; only webhook processing moves it.
func AdminUpdateOrder(svc *admin.Orders) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in admin.UpdateOrderInput
		if !bindJSON(c, &in) {
			return
		}
		info := middleware.GetAuthInfo(c)

		order, err := svc.Update(c.Request.Context(), info.UserID, c.Param("id"), in)
		if err != nil {
			fail(c, adminStatus(err), err)
			return
		}
		observability.ObserveAdminMutation("order", admin.AuditUpdate)
		c.JSON(http.StatusOK, datatypes.OK(order))
	}
}

// AdminAuditLog returns the most recent audit rows, newest first.
func AdminAuditLog(svc *admin.Orders) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := pageParams(c)
		entries, err := svc.RecentAuditLogs(c.Request.Context(), limit)
		if err != nil {
			fail(c, adminStatus(err), err)
			return
		}
		c.JSON(http.StatusOK, datatypes.OK(gin.H{"entries": entries}))
	}
}
