// Copyright (C) 2025 Tidewater Commerce (dev@tidewatercommerce.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package models defines the persistent entities for the storefront.
//
// All ids are UUID strings assigned by the application (never by the
// database), so entities can be constructed and linked before the
// first insert.
package models

import (
	"time"
)

// Product status values.
const (
	ProductDraft     = "draft"
	ProductPublished = "published"
	ProductArchived  = "archived"
)

// Product is a catalog entry. Purchasable configurations live in
// Variants; a product with TrackQuantity set sells only while its
// variants have stock, unless a variant allows backorders.
type Product struct {
	ID            string `gorm:"type:uuid;primaryKey" json:"id"`
	Title         string `gorm:"not null;size:255" json:"title"`
	Slug          string `gorm:"not null;uniqueIndex;size:120" json:"slug"`
	Description   string `gorm:"type:text" json:"description,omitempty"`
	Status        string `gorm:"not null;size:20;default:'draft';index" json:"status"`
	TrackQuantity bool   `gorm:"not null;default:true" json:"track_quantity"`

	Variants   []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"variants,omitempty"`
	Images     []ProductImage   `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"images,omitempty"`
	Categories []Category       `gorm:"many2many:product_categories" json:"categories,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProductVariant is a purchasable SKU-level configuration carrying its
// own price and stock quantity.
type ProductVariant struct {
	ID             string `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID      string `gorm:"type:uuid;not null;index" json:"product_id"`
	SKU            string `gorm:"not null;uniqueIndex;size:40" json:"sku"`
	Title          string `gorm:"size:255" json:"title,omitempty"`
	PriceCents     int64  `gorm:"not null;check:price_cents >= 0" json:"price_cents"`
	Currency       string `gorm:"not null;size:3;default:'USD'" json:"currency"`
	Stock          int    `gorm:"not null;default:0" json:"stock"`
	AllowBackorder bool   `gorm:"not null;default:false" json:"allow_backorder"`
	Option1        string `gorm:"size:100" json:"option1,omitempty"`
	Option2        string `gorm:"size:100" json:"option2,omitempty"`
	Option3        string `gorm:"size:100" json:"option3,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProductImage references an object in the image store. ObjectPath is
// the bucket-relative path, not a public URL.
type ProductImage struct {
	ID         string    `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID  string    `gorm:"type:uuid;not null;index" json:"product_id"`
	ObjectPath string    `gorm:"not null;size:512" json:"object_path"`
	Alt        string    `gorm:"size:255" json:"alt,omitempty"`
	Position   int       `gorm:"not null;default:0" json:"position"`
	CreatedAt  time.Time `json:"created_at"`
}

// Category is a node in the self-referential category tree.
// The write path guarantees the tree is acyclic; see catalog.Tree.
type Category struct {
	ID       string  `gorm:"type:uuid;primaryKey" json:"id"`
	Name     string  `gorm:"not null;size:255" json:"name"`
	Slug     string  `gorm:"not null;uniqueIndex;size:120" json:"slug"`
	ParentID *string `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	Position int     `gorm:"not null;default:0" json:"position"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CartItem is one cart line. Exactly one of UserID and SessionID is
// set; that pair is the ownership key. Rows move from session to user
// ownership during guest cart merge.
type CartItem struct {
	ID        string  `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID string  `gorm:"type:uuid;not null;index" json:"product_id"`
	VariantID *string `gorm:"type:uuid;index" json:"variant_id,omitempty"`
	Quantity  int     `gorm:"not null;check:quantity > 0" json:"quantity"`
	UserID    *string `gorm:"type:uuid;index:idx_cart_user" json:"user_id,omitempty"`
	SessionID *string `gorm:"type:uuid;index:idx_cart_session" json:"session_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Customer role values.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// Customer is a registered shopper or back-office admin.
type Customer struct {
	ID        string `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string `gorm:"not null;uniqueIndex;size:255" json:"email"`
	FirstName string `gorm:"size:100" json:"first_name,omitempty"`
	LastName  string `gorm:"size:100" json:"last_name,omitempty"`
	Role      string `gorm:"not null;size:20;default:'customer'" json:"role"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CustomerNote is an append-only annotation on a customer record.
// Notes are never updated or deleted by the application.
type CustomerNote struct {
	ID         string    `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerID string    `gorm:"type:uuid;not null;index" json:"customer_id"`
	AuthorID   string    `gorm:"type:uuid;not null" json:"author_id"`
	Body       string    `gorm:"type:text;not null" json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// Session is an authenticated login session resolved by the auth
// middleware. Tokens are opaque and expire server-side.
type Session struct {
	Token      string    `gorm:"primaryKey;size:64" json:"-"`
	CustomerID string    `gorm:"type:uuid;not null;index" json:"customer_id"`
	ExpiresAt  time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// Order status values.
const (
	OrderPending   = "pending"
	OrderConfirmed = "confirmed"
	OrderCancelled = "cancelled"

	FulfillmentUnfulfilled = "unfulfilled"
	FulfillmentPartial     = "partial"
	FulfillmentFulfilled   = "fulfilled"

	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"
)

// Order is a placed order. Status transitions are driven by the admin
// API and by payment webhooks.
type Order struct {
	ID                string  `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerID        *string `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	Email             string  `gorm:"not null;size:255" json:"email"`
	Status            string  `gorm:"not null;size:20;default:'pending';index" json:"status"`
	FulfillmentStatus string  `gorm:"not null;size:20;default:'unfulfilled'" json:"fulfillment_status"`
	PaymentStatus     string  `gorm:"not null;size:20;default:'pending'" json:"payment_status"`
	TotalCents        int64   `gorm:"not null" json:"total_cents"`
	Currency          string  `gorm:"not null;size:3;default:'USD'" json:"currency"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrderItem is one purchased line. VariantID references block product
// deletion; see admin.Products.Delete.
type OrderItem struct {
	ID             string `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID        string `gorm:"type:uuid;not null;index" json:"order_id"`
	VariantID      string `gorm:"type:uuid;not null;index" json:"variant_id"`
	Quantity       int    `gorm:"not null" json:"quantity"`
	UnitPriceCents int64  `gorm:"not null" json:"unit_price_cents"`
}

// Payment tracks one payment intent at the provider. Rows are keyed
// for lookup by the external intent id and updated by webhook events.
type Payment struct {
	ID          string `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID     string `gorm:"type:uuid;not null;index" json:"order_id"`
	Provider    string `gorm:"not null;size:40" json:"provider"`
	IntentID    string `gorm:"not null;uniqueIndex;size:255" json:"intent_id"`
	Status      string `gorm:"not null;size:20;default:'pending'" json:"status"`
	AmountCents int64  `gorm:"not null" json:"amount_cents"`
	Currency    string `gorm:"not null;size:3;default:'USD'" json:"currency"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CheckoutSession tracks one checkout flow against the provider.
type CheckoutSession struct {
	ID       string `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID  string `gorm:"type:uuid;not null;index" json:"order_id"`
	IntentID string `gorm:"not null;index;size:255" json:"intent_id"`
	Status   string `gorm:"not null;size:20;default:'open'" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WebhookEvent is the idempotency ledger for provider webhooks. The
// unique (provider, event_id) index makes replays observable as a
// constraint violation before any state is touched.
type WebhookEvent struct {
	ID         string    `gorm:"type:uuid;primaryKey" json:"id"`
	Provider   string    `gorm:"not null;size:40;uniqueIndex:idx_webhook_provider_event" json:"provider"`
	EventID    string    `gorm:"not null;size:255;uniqueIndex:idx_webhook_provider_event" json:"event_id"`
	Type       string    `gorm:"not null;size:80" json:"type"`
	ReceivedAt time.Time `gorm:"not null" json:"received_at"`
}

// AdminLog is the append-only audit trail written alongside every
// admin mutation. Rows are never updated or deleted.
type AdminLog struct {
	ID         string    `gorm:"type:uuid;primaryKey" json:"id"`
	AdminID    string    `gorm:"type:uuid;not null;index" json:"admin_id"`
	Action     string    `gorm:"not null;size:40" json:"action"`
	Resource   string    `gorm:"not null;size:40" json:"resource"`
	ResourceID string    `gorm:"size:255" json:"resource_id,omitempty"`
	Detail     string    `gorm:"type:text" json:"detail,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
