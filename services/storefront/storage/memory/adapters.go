// Copyright (C) 2025 Tidewater Commerce (dev@tidewatercommerce.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package memory

import (
	"context"
	"sort"
	"time"

	"github.com/tidewater-commerce/tidewater/services/storefront/admin"
	"github.com/tidewater-commerce/tidewater/services/storefront/cart"
	"github.com/tidewater-commerce/tidewater/services/storefront/catalog"
	"github.com/tidewater-commerce/tidewater/services/storefront/models"
	"github.com/tidewater-commerce/tidewater/services/storefront/payments"
)

// =============================================================================
// cart.Store
// =============================================================================

type cartStore struct {
	c    *core
	inTx bool
}

func ownerMatches(item models.CartItem, owner cart.Owner) bool {
	if owner.UserID != "" {
		return item.UserID != nil && *item.UserID == owner.UserID
	}
	return item.SessionID != nil && *item.SessionID == owner.SessionID
}

func (s cartStore) Product(ctx context.Context, id string) (*models.Product, error) {
	var out *models.Product
	s.c.run(s.inTx, func(d *data) {
		if p, ok := d.products[id]; ok {
			out = &p
		}
	})
	return out, nil
}

func (s cartStore) Variant(ctx context.Context, id string) (*models.ProductVariant, error) {
	var out *models.ProductVariant
	s.c.run(s.inTx, func(d *data) {
		if v, ok := d.variants[id]; ok {
			out = &v
		}
	})
	return out, nil
}

func (s cartStore) VariantCount(ctx context.Context, productID string) (int64, error) {
	var n int64
	s.c.run(s.inTx, func(d *data) {
		for _, v := range d.variants {
			if v.ProductID == productID {
				n++
			}
		}
	})
	return n, nil
}

func (s cartStore) ItemsByOwner(ctx context.Context, owner cart.Owner) ([]models.CartItem, error) {
	var out []models.CartItem
	s.c.run(s.inTx, func(d *data) {
		for _, it := range d.cartItems {
			if ownerMatches(it, owner) {
				out = append(out, it)
			}
		}
	})
	sortedByCreated(out,
		func(it models.CartItem) time.Time { return it.CreatedAt },
		func(it models.CartItem) string { return it.ID },
		false)
	return out, nil
}

func (s cartStore) ItemByID(ctx context.Context, id string) (*models.CartItem, error) {
	var out *models.CartItem
	s.c.run(s.inTx, func(d *data) {
		if it, ok := d.cartItems[id]; ok {
			out = &it
		}
	})
	return out, nil
}

func (s cartStore) FindLine(ctx context.Context, owner cart.Owner, productID string, variantID *string) (*models.CartItem, error) {
	var out *models.CartItem
	s.c.run(s.inTx, func(d *data) {
		for _, it := range d.cartItems {
			if !ownerMatches(it, owner) || it.ProductID != productID {
				continue
			}
			if (it.VariantID == nil) != (variantID == nil) {
				continue
			}
			if variantID != nil && *it.VariantID != *variantID {
				continue
			}
			row := it
			out = &row
			return
		}
	})
	return out, nil
}

func (s cartStore) InsertItem(ctx context.Context, item *models.CartItem) error {
	s.c.run(s.inTx, func(d *data) { d.cartItems[item.ID] = *item })
	return nil
}

func (s cartStore) UpdateItem(ctx context.Context, item *models.CartItem) error {
	s.c.run(s.inTx, func(d *data) { d.cartItems[item.ID] = *item })
	return nil
}

func (s cartStore) DeleteItem(ctx context.Context, id string) error {
	s.c.run(s.inTx, func(d *data) { delete(d.cartItems, id) })
	return nil
}

func (s cartStore) DeleteByOwner(ctx context.Context, owner cart.Owner) error {
	s.c.run(s.inTx, func(d *data) {
		for id, it := range d.cartItems {
			if ownerMatches(it, owner) {
				delete(d.cartItems, id)
			}
		}
	})
	return nil
}

func (s cartStore) Transact(ctx context.Context, fn func(cart.Store) error) error {
	return s.c.transact(s.inTx, func() error {
		return fn(cartStore{c: s.c, inTx: true})
	})
}

// =============================================================================
// catalog.Store
// =============================================================================

type catalogStore struct {
	c    *core
	inTx bool
}

func (s catalogStore) Category(ctx context.Context, id string) (*models.Category, error) {
	var out *models.Category
	s.c.run(s.inTx, func(d *data) {
		if c, ok := d.categories[id]; ok {
			out = &c
		}
	})
	return out, nil
}

func (s catalogStore) Children(ctx context.Context, parentID string) ([]models.Category, error) {
	var out []models.Category
	s.c.run(s.inTx, func(d *data) {
		for _, c := range d.categories {
			if c.ParentID != nil && *c.ParentID == parentID {
				out = append(out, c)
			}
		}
	})
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s catalogStore) HasProducts(ctx context.Context, id string) (bool, error) {
	var has bool
	s.c.run(s.inTx, func(d *data) { has = len(d.productCategories[id]) > 0 })
	return has, nil
}

func (s catalogStore) InsertCategory(ctx context.Context, c *models.Category) error {
	s.c.run(s.inTx, func(d *data) { d.categories[c.ID] = *c })
	return nil
}

func (s catalogStore) UpdateCategory(ctx context.Context, c *models.Category) error {
	s.c.run(s.inTx, func(d *data) { d.categories[c.ID] = *c })
	return nil
}

func (s catalogStore) DeleteCategories(ctx context.Context, ids []string) error {
	s.c.run(s.inTx, func(d *data) {
		for _, id := range ids {
			delete(d.categories, id)
		}
	})
	return nil
}

func (s catalogStore) DeleteProductAssociations(ctx context.Context, categoryIDs []string) error {
	s.c.run(s.inTx, func(d *data) {
		for _, id := range categoryIDs {
			delete(d.productCategories, id)
		}
	})
	return nil
}

func (s catalogStore) Transact(ctx context.Context, fn func(catalog.Store) error) error {
	return s.c.transact(s.inTx, func() error {
		return fn(catalogStore{c: s.c, inTx: true})
	})
}

// =============================================================================
// admin.Store
// =============================================================================

type adminStore struct {
	c    *core
	inTx bool
}

func (s adminStore) ProductByID(ctx context.Context, id string, withAssociations bool) (*models.Product, error) {
	var out *models.Product
	s.c.run(s.inTx, func(d *data) {
		p, ok := d.products[id]
		if !ok {
			return
		}
		if withAssociations {
			loadProductAssociations(d, &p)
		}
		out = &p
	})
	return out, nil
}

func loadProductAssociations(d *data, p *models.Product) {
	for _, v := range d.variants {
		if v.ProductID == p.ID {
			p.Variants = append(p.Variants, v)
		}
	}
	sortedByCreated(p.Variants,
		func(v models.ProductVariant) time.Time { return v.CreatedAt },
		func(v models.ProductVariant) string { return v.ID },
		false)
	for _, img := range d.images {
		if img.ProductID == p.ID {
			p.Images = append(p.Images, img)
		}
	}
	sortImages(p.Images)
	for catID, set := range d.productCategories {
		if set[p.ID] {
			if c, ok := d.categories[catID]; ok {
				p.Categories = append(p.Categories, c)
			}
		}
	}
}

func (s adminStore) ListProducts(ctx context.Context, status string, limit, offset int) ([]models.Product, error) {
	var out []models.Product
	s.c.run(s.inTx, func(d *data) {
		for _, p := range d.products {
			if status != "" && p.Status != status {
				continue
			}
			loadProductAssociations(d, &p)
			out = append(out, p)
		}
	})
	sortedByCreated(out,
		func(p models.Product) time.Time { return p.CreatedAt },
		func(p models.Product) string { return p.ID },
		true)
	return page(out, limit, offset), nil
}

func (s adminStore) InsertProduct(ctx context.Context, p *models.Product) error {
	row := *p
	row.Variants, row.Images, row.Categories = nil, nil, nil
	s.c.run(s.inTx, func(d *data) { d.products[row.ID] = row })
	return nil
}

func (s adminStore) UpdateProduct(ctx context.Context, p *models.Product) error {
	row := *p
	row.Variants, row.Images, row.Categories = nil, nil, nil
	s.c.run(s.inTx, func(d *data) { d.products[row.ID] = row })
	return nil
}

func (s adminStore) DeleteProduct(ctx context.Context, id string) error {
	s.c.run(s.inTx, func(d *data) {
		delete(d.products, id)
		for vid, v := range d.variants {
			if v.ProductID == id {
				delete(d.variants, vid)
			}
		}
		for iid, img := range d.images {
			if img.ProductID == id {
				delete(d.images, iid)
			}
		}
		for _, set := range d.productCategories {
			delete(set, id)
		}
	})
	return nil
}

func (s adminStore) VariantByID(ctx context.Context, id string) (*models.ProductVariant, error) {
	var out *models.ProductVariant
	s.c.run(s.inTx, func(d *data) {
		if v, ok := d.variants[id]; ok {
			out = &v
		}
	})
	return out, nil
}

func (s adminStore) InsertVariant(ctx context.Context, v *models.ProductVariant) error {
	s.c.run(s.inTx, func(d *data) { d.variants[v.ID] = *v })
	return nil
}

func (s adminStore) UpdateVariant(ctx context.Context, v *models.ProductVariant) error {
	s.c.run(s.inTx, func(d *data) { d.variants[v.ID] = *v })
	return nil
}

func (s adminStore) DeleteVariant(ctx context.Context, id string) error {
	s.c.run(s.inTx, func(d *data) { delete(d.variants, id) })
	return nil
}

func (s adminStore) AnyVariantReferenced(ctx context.Context, productID string) (bool, error) {
	var referenced bool
	s.c.run(s.inTx, func(d *data) {
		for _, it := range d.orderItems {
			v, ok := d.variants[it.VariantID]
			if ok && v.ProductID == productID {
				referenced = true
				return
			}
		}
	})
	return referenced, nil
}

func (s adminStore) ImageByID(ctx context.Context, id string) (*models.ProductImage, error) {
	var out *models.ProductImage
	s.c.run(s.inTx, func(d *data) {
		if img, ok := d.images[id]; ok {
			out = &img
		}
	})
	return out, nil
}

func (s adminStore) ImagesByProduct(ctx context.Context, productID string) ([]models.ProductImage, error) {
	var out []models.ProductImage
	s.c.run(s.inTx, func(d *data) {
		for _, img := range d.images {
			if img.ProductID == productID {
				out = append(out, img)
			}
		}
	})
	sortImages(out)
	return out, nil
}

func sortImages(imgs []models.ProductImage) {
	sort.SliceStable(imgs, func(i, j int) bool {
		if imgs[i].Position != imgs[j].Position {
			return imgs[i].Position < imgs[j].Position
		}
		return imgs[i].ID < imgs[j].ID
	})
}

func (s adminStore) InsertImage(ctx context.Context, img *models.ProductImage) error {
	s.c.run(s.inTx, func(d *data) { d.images[img.ID] = *img })
	return nil
}

func (s adminStore) UpdateImage(ctx context.Context, img *models.ProductImage) error {
	s.c.run(s.inTx, func(d *data) { d.images[img.ID] = *img })
	return nil
}

func (s adminStore) DeleteImage(ctx context.Context, id string) error {
	s.c.run(s.inTx, func(d *data) { delete(d.images, id) })
	return nil
}

func (s adminStore) CustomerByID(ctx context.Context, id string) (*models.Customer, error) {
	var out *models.Customer
	s.c.run(s.inTx, func(d *data) {
		if c, ok := d.customers[id]; ok {
			out = &c
		}
	})
	return out, nil
}

func (s adminStore) ListCustomers(ctx context.Context, limit, offset int) ([]models.Customer, error) {
	var out []models.Customer
	s.c.run(s.inTx, func(d *data) {
		for _, c := range d.customers {
			out = append(out, c)
		}
	})
	sortedByCreated(out,
		func(c models.Customer) time.Time { return c.CreatedAt },
		func(c models.Customer) string { return c.ID },
		true)
	return page(out, limit, offset), nil
}

func (s adminStore) UpdateCustomer(ctx context.Context, c *models.Customer) error {
	s.c.run(s.inTx, func(d *data) { d.customers[c.ID] = *c })
	return nil
}

func (s adminStore) DeleteCustomer(ctx context.Context, id string) error {
	s.c.run(s.inTx, func(d *data) { delete(d.customers, id) })
	return nil
}

func (s adminStore) NotesByCustomer(ctx context.Context, customerID string) ([]models.CustomerNote, error) {
	var out []models.CustomerNote
	s.c.run(s.inTx, func(d *data) {
		for _, n := range d.notes {
			if n.CustomerID == customerID {
				out = append(out, n)
			}
		}
	})
	sortedByCreated(out,
		func(n models.CustomerNote) time.Time { return n.CreatedAt },
		func(n models.CustomerNote) string { return n.ID },
		false)
	return out, nil
}

func (s adminStore) InsertNote(ctx context.Context, n *models.CustomerNote) error {
	s.c.run(s.inTx, func(d *data) { d.notes[n.ID] = *n })
	return nil
}

func (s adminStore) OrderByID(ctx context.Context, id string, withItems bool) (*models.Order, error) {
	var out *models.Order
	s.c.run(s.inTx, func(d *data) {
		o, ok := d.orders[id]
		if !ok {
			return
		}
		if withItems {
			loadOrderItems(d, &o)
		}
		out = &o
	})
	return out, nil
}

func loadOrderItems(d *data, o *models.Order) {
	for _, it := range d.orderItems {
		if it.OrderID == o.ID {
			o.Items = append(o.Items, it)
		}
	}
	sort.SliceStable(o.Items, func(i, j int) bool { return o.Items[i].ID < o.Items[j].ID })
}

func (s adminStore) ListOrders(ctx context.Context, status string, limit, offset int) ([]models.Order, error) {
	var out []models.Order
	s.c.run(s.inTx, func(d *data) {
		for _, o := range d.orders {
			if status != "" && o.Status != status {
				continue
			}
			loadOrderItems(d, &o)
			out = append(out, o)
		}
	})
	sortedByCreated(out,
		func(o models.Order) time.Time { return o.CreatedAt },
		func(o models.Order) string { return o.ID },
		true)
	return page(out, limit, offset), nil
}

func (s adminStore) UpdateOrder(ctx context.Context, o *models.Order) error {
	row := *o
	row.Items = nil
	s.c.run(s.inTx, func(d *data) { d.orders[row.ID] = row })
	return nil
}

func (s adminStore) InsertAdminLog(ctx context.Context, entry *models.AdminLog) error {
	s.c.run(s.inTx, func(d *data) { d.adminLogs = append(d.adminLogs, *entry) })
	return nil
}

func (s adminStore) RecentAdminLogs(ctx context.Context, limit int) ([]models.AdminLog, error) {
	var out []models.AdminLog
	s.c.run(s.inTx, func(d *data) {
		out = append(out, d.adminLogs...)
	})
	// Append order is insertion order; newest rows sit at the tail.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s adminStore) Transact(ctx context.Context, fn func(admin.Store) error) error {
	return s.c.transact(s.inTx, func() error {
		return fn(adminStore{c: s.c, inTx: true})
	})
}

// =============================================================================
// payments.Store
// =============================================================================

type paymentsStore struct {
	c    *core
	inTx bool
}

func eventKey(provider, eventID string) string { return provider + "\x00" + eventID }

func (s paymentsStore) InsertEvent(ctx context.Context, ev *models.WebhookEvent) error {
	var dup bool
	s.c.run(s.inTx, func(d *data) {
		key := eventKey(ev.Provider, ev.EventID)
		if _, exists := d.webhookEvents[key]; exists {
			dup = true
			return
		}
		d.webhookEvents[key] = *ev
	})
	if dup {
		return payments.ErrDuplicateEvent
	}
	return nil
}

func (s paymentsStore) PaymentByIntent(ctx context.Context, intentID string) (*models.Payment, error) {
	var out *models.Payment
	s.c.run(s.inTx, func(d *data) {
		for _, p := range d.paymentRows {
			if p.IntentID == intentID {
				row := p
				out = &row
				return
			}
		}
	})
	return out, nil
}

func (s paymentsStore) UpdatePayment(ctx context.Context, p *models.Payment) error {
	s.c.run(s.inTx, func(d *data) { d.paymentRows[p.ID] = *p })
	return nil
}

func (s paymentsStore) CheckoutSessionByIntent(ctx context.Context, intentID string) (*models.CheckoutSession, error) {
	var out *models.CheckoutSession
	s.c.run(s.inTx, func(d *data) {
		for _, cs := range d.checkoutSessions {
			if cs.IntentID == intentID {
				row := cs
				out = &row
				return
			}
		}
	})
	return out, nil
}

func (s paymentsStore) UpdateCheckoutSession(ctx context.Context, cs *models.CheckoutSession) error {
	s.c.run(s.inTx, func(d *data) { d.checkoutSessions[cs.ID] = *cs })
	return nil
}

func (s paymentsStore) Order(ctx context.Context, id string) (*models.Order, error) {
	var out *models.Order
	s.c.run(s.inTx, func(d *data) {
		if o, ok := d.orders[id]; ok {
			o.Items = nil
			out = &o
		}
	})
	return out, nil
}

func (s paymentsStore) UpdateOrder(ctx context.Context, o *models.Order) error {
	row := *o
	row.Items = nil
	s.c.run(s.inTx, func(d *data) { d.orders[row.ID] = row })
	return nil
}

func (s paymentsStore) Transact(ctx context.Context, fn func(payments.Store) error) error {
	return s.c.transact(s.inTx, func() error {
		return fn(paymentsStore{c: s.c, inTx: true})
	})
}
