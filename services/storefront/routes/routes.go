// Copyright (C) 2025 Tidewater Commerce (dev@tidewatercommerce.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package routes wires the storefront handlers onto a Gin engine.
package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/tidewater-commerce/tidewater/pkg/logging"
	"github.com/tidewater-commerce/tidewater/services/storefront/admin"
	"github.com/tidewater-commerce/tidewater/services/storefront/cart"
	"github.com/tidewater-commerce/tidewater/services/storefront/catalog"
	"github.com/tidewater-commerce/tidewater/services/storefront/handlers"
	"github.com/tidewater-commerce/tidewater/services/storefront/middleware"
	"github.com/tidewater-commerce/tidewater/services/storefront/observability"
	"github.com/tidewater-commerce/tidewater/services/storefront/payments"
	"github.com/tidewater-commerce/tidewater/services/storefront/storage/badgercache"
)

// Deps carries everything route registration needs. Cache and Limiter
// may be nil; the affected endpoints degrade gracefully.
type Deps struct {
	Cart      *cart.Service
	Catalog   *catalog.Tree
	Products  *admin.Products
	Customers *admin.Customers
	Orders    *admin.Orders
	Verifier  *payments.Verifier
	Processor *payments.Processor
	Resolver  middleware.SessionResolver
	Cache     *badgercache.Cache
	Limiter   *rate.Limiter
	Logger    *logging.Logger

	// Mode is reported by the health endpoint ("postgres" or "memory").
	Mode string
}

// Register attaches every storefront route to the engine.
//
// Route map:
//
//	GET    /health                          liveness
//	GET    /metrics                         prometheus
//
//	GET    /api/products                    public list (cached)
//	GET    /api/products/:id                public detail
//	GET    /api/categories/:id              category + children + path
//
//	GET    /api/cart                        list items
//	GET    /api/cart/count                  item count
//	POST   /api/cart/add                    add item
//	POST   /api/cart/update                 update quantity (0 removes)
//	POST   /api/cart/remove                 remove item
//	POST   /api/cart/clear                  clear cart
//	POST   /api/cart/merge                  guest→user merge (auth)
//
//	POST   /api/checkout/webhook            payment provider webhook
//
//	/api/admin/*                            back office (admin role)
func Register(engine *gin.Engine, deps Deps) {
	engine.GET("/health", handlers.Health(deps.Mode, time.Now()))
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api")
	api.Use(middleware.Auth(deps.Resolver))

	// Public catalog.
	api.GET("/products", handlers.ListProducts(deps.Products, deps.Cache, deps.Logger))
	api.GET("/products/:id", handlers.GetProduct(deps.Products))
	api.GET("/categories/:id", handlers.GetCategory(deps.Catalog))

	// Cart. Works for guests (X-Cart-Session) and logged-in users.
	api.GET("/cart", handlers.GetCart(deps.Cart))
	api.GET("/cart/count", handlers.GetCartCount(deps.Cart))
	api.POST("/cart/add", handlers.AddCartItem(deps.Cart))
	api.POST("/cart/update", handlers.UpdateCartItem(deps.Cart))
	api.POST("/cart/remove", handlers.RemoveCartItem(deps.Cart))
	api.POST("/cart/clear", handlers.ClearCart(deps.Cart))
	api.POST("/cart/merge", handlers.MergeCart(deps.Cart))

	// Provider webhook. Signature-verified, not session-authenticated.
	api.POST("/checkout/webhook",
		handlers.CheckoutWebhook(deps.Verifier, deps.Processor, deps.Limiter, deps.Logger))

	// Back office.
	adm := api.Group("/admin")
	adm.Use(middleware.RequireAdmin())
	{
		adm.GET("/products", handlers.AdminListProducts(deps.Products))
		adm.POST("/products", handlers.AdminCreateProduct(deps.Products, deps.Cache, deps.Logger))
		adm.GET("/products/:id", handlers.AdminGetProduct(deps.Products))
		adm.PUT("/products/:id", handlers.AdminUpdateProduct(deps.Products, deps.Cache, deps.Logger))
		adm.DELETE("/products/:id", handlers.AdminDeleteProduct(deps.Products, deps.Cache, deps.Logger))
		adm.POST("/products/:id/images", handlers.AdminUploadImage(deps.Products, deps.Cache, deps.Logger))

		adm.POST("/categories", handlers.AdminCreateCategory(deps.Catalog))
		adm.PUT("/categories/:id", handlers.AdminUpdateCategory(deps.Catalog))
		adm.DELETE("/categories/:id", handlers.AdminDeleteCategory(deps.Catalog))

		adm.GET("/customers", handlers.AdminListCustomers(deps.Customers))
		adm.GET("/customers/:id", handlers.AdminGetCustomer(deps.Customers))
		adm.PUT("/customers/:id", handlers.AdminUpdateCustomer(deps.Customers))
		adm.DELETE("/customers/:id", handlers.AdminDeleteCustomer(deps.Customers))
		adm.GET("/customers/:id/notes", handlers.AdminListNotes(deps.Customers))
		adm.POST("/customers/:id/notes", handlers.AdminAddNote(deps.Customers))

		adm.GET("/orders", handlers.AdminListOrders(deps.Orders))
		adm.GET("/orders/:id", handlers.AdminGetOrder(deps.Orders))
		adm.PUT("/orders/:id", handlers.AdminUpdateOrder(deps.Orders))

		adm.GET("/audit", handlers.AdminAuditLog(deps.Orders))
	}
}

// Observe returns the engine-wide metrics middleware. The server
// assembly attaches it before Register; tests can do the same.
func Observe() gin.HandlerFunc {
	return observability.Metrics()
}
