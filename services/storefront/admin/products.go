// Copyright (C) 2025 Tidewater Commerce (dev@tidewatercommerce.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package admin

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/tidewater-commerce/tidewater/pkg/logging"
	"github.com/tidewater-commerce/tidewater/pkg/validation"
	"github.com/tidewater-commerce/tidewater/services/storefront/models"
	"github.com/tidewater-commerce/tidewater/services/storefront/saga"
)

// CreateProductInput is the admin create-product request body.
type CreateProductInput struct {
	Title         string               `json:"title" binding:"required,max=255"`
	Slug          string               `json:"slug" binding:"required,max=120"`
	Description   string               `json:"description"`
	Status        string               `json:"status" binding:"omitempty,oneof=draft published archived"`
	TrackQuantity *bool                `json:"track_quantity"`
	Variants      []VariantChangeInput `json:"variants" binding:"omitempty,dive"`
}

// UpdateProductInput is the admin update-product request body.
// Variant and image arrays carry a per-element _action discriminator;
// the whole batch applies in one transaction.
type UpdateProductInput struct {
	Title         *string              `json:"title" binding:"omitempty,max=255"`
	Slug          *string              `json:"slug" binding:"omitempty,max=120"`
	Description   *string              `json:"description"`
	Status        *string              `json:"status" binding:"omitempty,oneof=draft published archived"`
	TrackQuantity *bool                `json:"track_quantity"`
	Variants      []VariantChangeInput `json:"variants" binding:"omitempty,dive"`
	Images        []ImageChangeInput   `json:"images" binding:"omitempty,dive"`
}

// VariantChangeInput is one element of a variant batch.
type VariantChangeInput struct {
	Action         string  `json:"_action" binding:"required,oneof=create update delete"`
	ID             string  `json:"id"`
	SKU            *string `json:"sku"`
	Title          *string `json:"title"`
	PriceCents     *int64  `json:"price_cents" binding:"omitempty,gte=0"`
	Currency       *string `json:"currency"`
	Stock          *int    `json:"stock"`
	AllowBackorder *bool   `json:"allow_backorder"`
	Option1        *string `json:"option1"`
	Option2        *string `json:"option2"`
	Option3        *string `json:"option3"`
}

// ImageChangeInput is one element of an image batch. Creation through
// the batch records an already-uploaded object; fresh uploads go
// through UploadImage.
type ImageChangeInput struct {
	Action     string  `json:"_action" binding:"required,oneof=create update delete"`
	ID         string  `json:"id"`
	ObjectPath *string `json:"object_path"`
	Alt        *string `json:"alt"`
	Position   *int    `json:"position"`
}

// Products is the admin product service.
type Products struct {
	store   Store
	objects ObjectStore
	logger  *logging.Logger
}

// NewProducts creates the product service. objects may be nil when no
// object store is configured; image upload then fails cleanly.
func NewProducts(store Store, objects ObjectStore, logger *logging.Logger) *Products {
	if logger == nil {
		logger = logging.Default()
	}
	return &Products{store: store, objects: objects, logger: logger}
}

// List returns products filtered by status ("" for all).
func (s *Products) List(ctx context.Context, status string, limit, offset int) ([]models.Product, error) {
	limit, offset = clampPage(limit, offset)
	return s.store.ListProducts(ctx, status, limit, offset)
}

// Get returns one product with variants and images.
func (s *Products) Get(ctx context.Context, id string) (*models.Product, error) {
	p, err := s.store.ProductByID(ctx, id, true)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

// Create inserts a product and its initial variants in one
// transaction, plus the audit row.
func (s *Products) Create(ctx context.Context, adminID string, in CreateProductInput) (*models.Product, error) {
	if err := validation.ValidateSlug(in.Slug); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadInput, err)
	}

	status := in.Status
	if status == "" {
		status = models.ProductDraft
	}
	track := true
	if in.TrackQuantity != nil {
		track = *in.TrackQuantity
	}

	product := &models.Product{
		ID:            uuid.NewString(),
		Title:         in.Title,
		Slug:          in.Slug,
		Description:   in.Description,
		Status:        status,
		TrackQuantity: track,
	}

	err := s.store.Transact(ctx, func(tx Store) error {
		if err := tx.InsertProduct(ctx, product); err != nil {
			return fmt.Errorf("inserting product: %w", err)
		}
		for _, vc := range in.Variants {
			if vc.Action != BatchCreate {
				return fmt.Errorf("%w: variants on create must use _action=create", ErrBadInput)
			}
			if _, err := s.applyVariantChange(ctx, tx, product.ID, vc); err != nil {
				return err
			}
		}
		return audit(ctx, tx, adminID, AuditCreate, "product", product.ID, product.Title)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, product.ID)
}

// Update applies field changes and the variant/image batches in one
// transaction. A failing element rolls back the entire batch — there
// is no partially applied update. Objects behind deleted image rows
// are removed only after the transaction commits, best effort.
func (s *Products) Update(ctx context.Context, adminID, id string, in UpdateProductInput) (*models.Product, error) {
	if in.Slug != nil {
		if err := validation.ValidateSlug(*in.Slug); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadInput, err)
		}
	}

	var removedObjects []string

	err := s.store.Transact(ctx, func(tx Store) error {
		product, err := tx.ProductByID(ctx, id, false)
		if err != nil {
			return err
		}
		if product == nil {
			return ErrNotFound
		}

		if in.Title != nil {
			product.Title = *in.Title
		}
		if in.Slug != nil {
			product.Slug = *in.Slug
		}
		if in.Description != nil {
			product.Description = *in.Description
		}
		if in.Status != nil {
			product.Status = *in.Status
		}
		if in.TrackQuantity != nil {
			product.TrackQuantity = *in.TrackQuantity
		}
		product.UpdatedAt = time.Now()
		if err := tx.UpdateProduct(ctx, product); err != nil {
			return fmt.Errorf("updating product: %w", err)
		}

		for _, vc := range in.Variants {
			if _, err := s.applyVariantChange(ctx, tx, id, vc); err != nil {
				return err
			}
		}
		for _, ic := range in.Images {
			objPath, err := s.applyImageChange(ctx, tx, id, ic)
			if err != nil {
				return err
			}
			if objPath != "" {
				removedObjects = append(removedObjects, objPath)
			}
		}
		return audit(ctx, tx, adminID, AuditUpdate, "product", id, "")
	})
	if err != nil {
		return nil, err
	}

	if s.objects != nil {
		for _, p := range removedObjects {
			if err := s.objects.Delete(ctx, p); err != nil {
				s.logger.Warn("image object cleanup failed", "path", p, "error", err)
			}
		}
	}
	return s.Get(ctx, id)
}

func (s *Products) applyVariantChange(ctx context.Context, tx Store, productID string, vc VariantChangeInput) (*models.ProductVariant, error) {
	switch vc.Action {
	case BatchCreate:
		if vc.SKU == nil || vc.PriceCents == nil {
			return nil, fmt.Errorf("%w: variant create requires sku and price_cents", ErrBadInput)
		}
		if err := validation.ValidateSKU(*vc.SKU); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadInput, err)
		}
		v := &models.ProductVariant{
			ID:         uuid.NewString(),
			ProductID:  productID,
			SKU:        *vc.SKU,
			PriceCents: *vc.PriceCents,
			Currency:   "USD",
		}
		if vc.Currency != nil {
			if err := validation.ValidateCurrency(*vc.Currency); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrBadInput, err)
			}
			v.Currency = *vc.Currency
		}
		applyVariantFields(v, vc)
		if err := tx.InsertVariant(ctx, v); err != nil {
			return nil, fmt.Errorf("inserting variant: %w", err)
		}
		return v, nil

	case BatchUpdate:
		v, err := s.ownedVariant(ctx, tx, productID, vc.ID)
		if err != nil {
			return nil, err
		}
		if vc.SKU != nil {
			if err := validation.ValidateSKU(*vc.SKU); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrBadInput, err)
			}
			v.SKU = *vc.SKU
		}
		if vc.PriceCents != nil {
			v.PriceCents = *vc.PriceCents
		}
		if vc.Currency != nil {
			if err := validation.ValidateCurrency(*vc.Currency); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrBadInput, err)
			}
			v.Currency = *vc.Currency
		}
		applyVariantFields(v, vc)
		v.UpdatedAt = time.Now()
		if err := tx.UpdateVariant(ctx, v); err != nil {
			return nil, fmt.Errorf("updating variant: %w", err)
		}
		return v, nil

	case BatchDelete:
		v, err := s.ownedVariant(ctx, tx, productID, vc.ID)
		if err != nil {
			return nil, err
		}
		if err := tx.DeleteVariant(ctx, v.ID); err != nil {
			return nil, fmt.Errorf("deleting variant: %w", err)
		}
		return nil, nil

	default:
		return nil, fmt.Errorf("%w: unknown variant _action %q", ErrBadInput, vc.Action)
	}
}

func applyVariantFields(v *models.ProductVariant, vc VariantChangeInput) {
	if vc.Title != nil {
		v.Title = *vc.Title
	}
	if vc.Stock != nil {
		v.Stock = *vc.Stock
	}
	if vc.AllowBackorder != nil {
		v.AllowBackorder = *vc.AllowBackorder
	}
	if vc.Option1 != nil {
		v.Option1 = *vc.Option1
	}
	if vc.Option2 != nil {
		v.Option2 = *vc.Option2
	}
	if vc.Option3 != nil {
		v.Option3 = *vc.Option3
	}
}

func (s *Products) ownedVariant(ctx context.Context, tx Store, productID, variantID string) (*models.ProductVariant, error) {
	if variantID == "" {
		return nil, fmt.Errorf("%w: variant id required", ErrBadInput)
	}
	v, err := tx.VariantByID(ctx, variantID)
	if err != nil {
		return nil, err
	}
	if v == nil || v.ProductID != productID {
		return nil, ErrNotFound
	}
	return v, nil
}

// applyImageChange applies one image batch element. For deletes it
// returns the object path of the removed row so the caller can clean
// the object up after the transaction commits; touching the object
// store here would make a later rollback strand a row whose object is
// already gone.
func (s *Products) applyImageChange(ctx context.Context, tx Store, productID string, ic ImageChangeInput) (string, error) {
	switch ic.Action {
	case BatchCreate:
		if ic.ObjectPath == nil {
			return "", fmt.Errorf("%w: image create requires object_path", ErrBadInput)
		}
		if err := validation.ValidateObjectName(*ic.ObjectPath); err != nil {
			return "", fmt.Errorf("%w: %v", ErrBadInput, err)
		}
		img := &models.ProductImage{
			ID:         uuid.NewString(),
			ProductID:  productID,
			ObjectPath: *ic.ObjectPath,
			CreatedAt:  time.Now(),
		}
		if ic.Alt != nil {
			img.Alt = *ic.Alt
		}
		if ic.Position != nil {
			img.Position = *ic.Position
		}
		return "", tx.InsertImage(ctx, img)

	case BatchUpdate:
		img, err := s.ownedImage(ctx, tx, productID, ic.ID)
		if err != nil {
			return "", err
		}
		if ic.Alt != nil {
			img.Alt = *ic.Alt
		}
		if ic.Position != nil {
			img.Position = *ic.Position
		}
		return "", tx.UpdateImage(ctx, img)

	case BatchDelete:
		img, err := s.ownedImage(ctx, tx, productID, ic.ID)
		if err != nil {
			return "", err
		}
		if err := tx.DeleteImage(ctx, img.ID); err != nil {
			return "", err
		}
		return img.ObjectPath, nil

	default:
		return "", fmt.Errorf("%w: unknown image _action %q", ErrBadInput, ic.Action)
	}
}

func (s *Products) ownedImage(ctx context.Context, tx Store, productID, imageID string) (*models.ProductImage, error) {
	if imageID == "" {
		return nil, fmt.Errorf("%w: image id required", ErrBadInput)
	}
	img, err := tx.ImageByID(ctx, imageID)
	if err != nil {
		return nil, err
	}
	if img == nil || img.ProductID != productID {
		return nil, ErrNotFound
	}
	return img, nil
}

// Delete removes a product. It fails with ErrConflict when any order
// item references one of the product's variants, and deletes nothing
// in that case. Image objects are cleaned up after the transaction
// commits, best effort.
func (s *Products) Delete(ctx context.Context, adminID, id string) error {
	var objectPaths []string

	err := s.store.Transact(ctx, func(tx Store) error {
		product, err := tx.ProductByID(ctx, id, false)
		if err != nil {
			return err
		}
		if product == nil {
			return ErrNotFound
		}

		referenced, err := tx.AnyVariantReferenced(ctx, id)
		if err != nil {
			return fmt.Errorf("checking order references: %w", err)
		}
		if referenced {
			return fmt.Errorf("%w: product variants are referenced by orders", ErrConflict)
		}

		images, err := tx.ImagesByProduct(ctx, id)
		if err != nil {
			return err
		}
		for _, img := range images {
			objectPaths = append(objectPaths, img.ObjectPath)
		}

		if err := tx.DeleteProduct(ctx, id); err != nil {
			return fmt.Errorf("deleting product: %w", err)
		}
		return audit(ctx, tx, adminID, AuditDelete, "product", id, product.Title)
	})
	if err != nil {
		return err
	}

	if s.objects != nil {
		for _, p := range objectPaths {
			if err := s.objects.Delete(ctx, p); err != nil {
				s.logger.Warn("image object cleanup failed", "path", p, "error", err)
			}
		}
	}
	return nil
}

// UploadImage stores a new image object and records its row. Because
// the object store and the database cannot share a transaction, the
// pair runs as a saga: a failing DB insert compensates by deleting
// the uploaded object.
func (s *Products) UploadImage(ctx context.Context, adminID, productID, filename string, content []byte, contentType, alt string) (*models.ProductImage, error) {
	if s.objects == nil {
		return nil, fmt.Errorf("%w: no image store configured", ErrConflict)
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: empty image body", ErrBadInput)
	}

	product, err := s.store.ProductByID(ctx, productID, false)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrNotFound
	}

	objectPath := path.Join("products", productID, uuid.NewString()+"_"+path.Base(filename))
	if err := validation.ValidateObjectName(objectPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadInput, err)
	}

	img := &models.ProductImage{
		ID:         uuid.NewString(),
		ProductID:  productID,
		ObjectPath: objectPath,
		Alt:        alt,
		CreatedAt:  time.Now(),
	}

	sg := saga.New(saga.Config{}, s.logger)
	sg.AddFunc("upload image object",
		func(ctx context.Context) error {
			return s.objects.Put(ctx, objectPath, content, contentType)
		},
		func(ctx context.Context) error {
			return s.objects.Delete(ctx, objectPath)
		})
	sg.AddFunc("record image row",
		func(ctx context.Context) error {
			return s.store.Transact(ctx, func(tx Store) error {
				if err := tx.InsertImage(ctx, img); err != nil {
					return err
				}
				return audit(ctx, tx, adminID, AuditUpload, "product_image", img.ID, objectPath)
			})
		},
		nil)

	if err := sg.Execute(ctx); err != nil {
		return nil, err
	}
	return img, nil
}
