// Copyright (C) 2025 Tidewater Commerce (dev@tidewatercommerce.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package memory implements the domain store interfaces on in-process
// maps. It backs the unit tests and the `serve` memory mode used when
// no database is reachable — nothing persists across restarts.
//
// Transactions are snapshot-based: Transact clones the dataset, runs
// the function under the store lock, and restores the snapshot when
// the function fails. That gives the same all-or-nothing observable
// behavior as the postgres adapters.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/tidewater-commerce/tidewater/services/storefront/admin"
	"github.com/tidewater-commerce/tidewater/services/storefront/cart"
	"github.com/tidewater-commerce/tidewater/services/storefront/catalog"
	"github.com/tidewater-commerce/tidewater/services/storefront/models"
	"github.com/tidewater-commerce/tidewater/services/storefront/payments"
)

type data struct {
	products          map[string]models.Product
	variants          map[string]models.ProductVariant
	images            map[string]models.ProductImage
	categories        map[string]models.Category
	productCategories map[string]map[string]bool // categoryID -> productID set
	cartItems         map[string]models.CartItem
	customers         map[string]models.Customer
	notes             map[string]models.CustomerNote
	sessions          map[string]models.Session
	orders            map[string]models.Order
	orderItems        map[string]models.OrderItem
	paymentRows       map[string]models.Payment
	checkoutSessions  map[string]models.CheckoutSession
	webhookEvents     map[string]models.WebhookEvent // provider + "\x00" + eventID
	adminLogs         []models.AdminLog
}

func newData() *data {
	return &data{
		products:          map[string]models.Product{},
		variants:          map[string]models.ProductVariant{},
		images:            map[string]models.ProductImage{},
		categories:        map[string]models.Category{},
		productCategories: map[string]map[string]bool{},
		cartItems:         map[string]models.CartItem{},
		customers:         map[string]models.Customer{},
		notes:             map[string]models.CustomerNote{},
		sessions:          map[string]models.Session{},
		orders:            map[string]models.Order{},
		orderItems:        map[string]models.OrderItem{},
		paymentRows:       map[string]models.Payment{},
		checkoutSessions:  map[string]models.CheckoutSession{},
		webhookEvents:     map[string]models.WebhookEvent{},
	}
}

func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (d *data) clone() *data {
	pc := make(map[string]map[string]bool, len(d.productCategories))
	for k, set := range d.productCategories {
		s := make(map[string]bool, len(set))
		for id := range set {
			s[id] = true
		}
		pc[k] = s
	}
	logs := make([]models.AdminLog, len(d.adminLogs))
	copy(logs, d.adminLogs)

	return &data{
		products:          cloneMap(d.products),
		variants:          cloneMap(d.variants),
		images:            cloneMap(d.images),
		categories:        cloneMap(d.categories),
		productCategories: pc,
		cartItems:         cloneMap(d.cartItems),
		customers:         cloneMap(d.customers),
		notes:             cloneMap(d.notes),
		sessions:          cloneMap(d.sessions),
		orders:            cloneMap(d.orders),
		orderItems:        cloneMap(d.orderItems),
		paymentRows:       cloneMap(d.paymentRows),
		checkoutSessions:  cloneMap(d.checkoutSessions),
		webhookEvents:     cloneMap(d.webhookEvents),
		adminLogs:         logs,
	}
}

type core struct {
	mu sync.Mutex
	d  *data
}

// run executes fn under the store lock unless already inside a
// transaction (which holds the lock for its whole duration).
func (c *core) run(inTx bool, fn func(d *data)) {
	if inTx {
		fn(c.d)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.d)
}

// transact snapshots the dataset, runs fn holding the lock, and
// restores the snapshot if fn fails. Nested calls join the outer
// transaction.
func (c *core) transact(inTx bool, fn func() error) error {
	if inTx {
		return fn()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	snapshot := c.d.clone()
	if err := fn(); err != nil {
		c.d = snapshot
		return err
	}
	return nil
}

// Store is the in-memory implementation root.
type Store struct {
	c *core
}

// New creates an empty store.
func New() *Store {
	return &Store{c: &core{d: newData()}}
}

// Cart returns the cart.Store adapter.
func (s *Store) Cart() cart.Store { return cartStore{c: s.c} }

// Catalog returns the catalog.Store adapter.
func (s *Store) Catalog() catalog.Store { return catalogStore{c: s.c} }

// Admin returns the admin.Store adapter.
func (s *Store) Admin() admin.Store { return adminStore{c: s.c} }

// Payments returns the payments.Store adapter.
func (s *Store) Payments() payments.Store { return paymentsStore{c: s.c} }

// =============================================================================
// Seed helpers (used by tests and the seed command's memory mode)
// =============================================================================

// PutProduct stores a product row (associations are stored separately).
func (s *Store) PutProduct(p models.Product) {
	s.c.run(false, func(d *data) { d.products[p.ID] = p })
}

// PutVariant stores a variant row.
func (s *Store) PutVariant(v models.ProductVariant) {
	s.c.run(false, func(d *data) { d.variants[v.ID] = v })
}

// PutImage stores an image row.
func (s *Store) PutImage(img models.ProductImage) {
	s.c.run(false, func(d *data) { d.images[img.ID] = img })
}

// PutCategory stores a category row.
func (s *Store) PutCategory(c models.Category) {
	s.c.run(false, func(d *data) { d.categories[c.ID] = c })
}

// AssociateProduct links a product to a category.
func (s *Store) AssociateProduct(categoryID, productID string) {
	s.c.run(false, func(d *data) {
		set := d.productCategories[categoryID]
		if set == nil {
			set = map[string]bool{}
			d.productCategories[categoryID] = set
		}
		set[productID] = true
	})
}

// PutCustomer stores a customer row.
func (s *Store) PutCustomer(c models.Customer) {
	s.c.run(false, func(d *data) { d.customers[c.ID] = c })
}

// PutSession stores a login session.
func (s *Store) PutSession(sess models.Session) {
	s.c.run(false, func(d *data) { d.sessions[sess.Token] = sess })
}

// PutOrder stores an order and its items.
func (s *Store) PutOrder(o models.Order) {
	s.c.run(false, func(d *data) {
		items := o.Items
		o.Items = nil
		d.orders[o.ID] = o
		for _, it := range items {
			it.OrderID = o.ID
			d.orderItems[it.ID] = it
		}
	})
}

// PutPayment stores a payment row.
func (s *Store) PutPayment(p models.Payment) {
	s.c.run(false, func(d *data) { d.paymentRows[p.ID] = p })
}

// PutCheckoutSession stores a checkout session row.
func (s *Store) PutCheckoutSession(cs models.CheckoutSession) {
	s.c.run(false, func(d *data) { d.checkoutSessions[cs.ID] = cs })
}

// CartItemCount reports the number of cart rows, for assertions.
func (s *Store) CartItemCount() int {
	var n int
	s.c.run(false, func(d *data) { n = len(d.cartItems) })
	return n
}

// AdminLogCount reports the number of audit rows, for assertions.
func (s *Store) AdminLogCount() int {
	var n int
	s.c.run(false, func(d *data) { n = len(d.adminLogs) })
	return n
}

// Resolve implements the middleware session resolver on the memory
// store.
func (s *Store) Resolve(token string) (userID, email, role string, ok bool) {
	s.c.run(false, func(d *data) {
		sess, found := d.sessions[token]
		if !found || sess.ExpiresAt.Before(time.Now()) {
			return
		}
		customer, found := d.customers[sess.CustomerID]
		if !found {
			return
		}
		userID, email, role, ok = customer.ID, customer.Email, customer.Role, true
	})
	return
}

// sortedByCreated sorts rows oldest-first with id as tiebreaker.
func sortedByCreated[T any](rows []T, createdAt func(T) time.Time, id func(T) string, newestFirst bool) []T {
	sort.SliceStable(rows, func(i, j int) bool {
		ti, tj := createdAt(rows[i]), createdAt(rows[j])
		if ti.Equal(tj) {
			if newestFirst {
				return id(rows[i]) > id(rows[j])
			}
			return id(rows[i]) < id(rows[j])
		}
		if newestFirst {
			return ti.After(tj)
		}
		return ti.Before(tj)
	})
	return rows
}

func page[T any](rows []T, limit, offset int) []T {
	if offset >= len(rows) {
		return nil
	}
	rows = rows[offset:]
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}
