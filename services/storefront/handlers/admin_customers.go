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

// AdminListCustomers lists customers for the back office.
func AdminListCustomers(svc *admin.Customers) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := pageParams(c)
		customers, err := svc.List(c.Request.Context(), limit, offset)
		if err != nil {
			fail(c, adminStatus(err), err)
			return
		}
		c.JSON(http.StatusOK, datatypes.OK(gin.H{"customers": customers}))
	}
}

// AdminGetCustomer returns one customer.
func AdminGetCustomer(svc *admin.Customers) gin.HandlerFunc {
	return func(c *gin.Context) {
		customer, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			fail(c, adminStatus(err), err)
			return
		}
		c.JSON(http.StatusOK, datatypes.OK(customer))
	}
}

// AdminUpdateCustomer updates customer profile fields.
func AdminUpdateCustomer(svc *admin.Customers) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in admin.UpdateCustomerInput
		if !bindJSON(c, &in) {
			return
		}
		info := middleware.GetAuthInfo(c)

		customer, err := svc.Update(c.Request.Context(), info.UserID, c.Param("id"), in)
		if err != nil {
			fail(c, adminStatus(err), err)
			return
		}
		observability.ObserveAdminMutation("customer", admin.AuditUpdate)
		c.JSON(http.StatusOK, datatypes.OK(customer))
	}
}

// AdminDeleteCustomer deletes a customer record.
func AdminDeleteCustomer(svc *admin.Customers) gin.HandlerFunc {
	return func(c *gin.Context) {
		info := middleware.GetAuthInfo(c)

		if err := svc.Delete(c.Request.Context(), info.UserID, c.Param("id")); err != nil {
			fail(c, adminStatus(err), err)
			return
		}
		observability.ObserveAdminMutation("customer", admin.AuditDelete)
		c.JSON(http.StatusOK, datatypes.OK(gin.H{"deleted": c.Param("id")}))
	}
}

// AdminListNotes lists a customer's notes, oldest first.
func AdminListNotes(svc *admin.Customers) gin.HandlerFunc {
	return func(c *gin.Context) {
		notes, err := svc.Notes(c.Request.Context(), c.Param("id"))
		if err != nil {
			fail(c, adminStatus(err), err)
			return
		}
		c.JSON(http.StatusOK, datatypes.OK(gin.H{"notes": notes}))
	}
}

// AdminAddNote appends a note to a customer record. Notes are never
// edited or removed.
func AdminAddNote(svc *admin.Customers) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in admin.CreateNoteInput
		if !bindJSON(c, &in) {
			return
		}
		info := middleware.GetAuthInfo(c)

		note, err := svc.AddNote(c.Request.Context(), info.UserID, c.Param("id"), in)
		if err != nil {
			fail(c, adminStatus(err), err)
			return
		}
		observability.ObserveAdminMutation("customer", admin.AuditNote)
		c.JSON(http.StatusCreated, datatypes.OK(note))
	}
}
