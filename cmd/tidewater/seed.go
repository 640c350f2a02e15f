// Copyright (C) 2025 Tidewater Commerce (dev@tidewatercommerce.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tidewater-commerce/tidewater/services/storefront/models"
)

// runSeed loads a small demo catalog plus an admin account. The admin
// session token prints to stdout once; it is not stored anywhere else.
func runSeed(cmd *cobra.Command, args []string) error {
	defer logger.Close()

	store, err := openDatabase()
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.AutoMigrate(); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	db := store.DB()

	now := time.Now()

	root := models.Category{ID: uuid.NewString(), Name: "Apparel", Slug: "apparel", CreatedAt: now, UpdatedAt: now}
	shirts := models.Category{ID: uuid.NewString(), Name: "Shirts", Slug: "shirts", ParentID: &root.ID, CreatedAt: now, UpdatedAt: now}

	tee := models.Product{
		ID:            uuid.NewString(),
		Title:         "Tidewater Logo Tee",
		Slug:          "tidewater-logo-tee",
		Description:   "Organic cotton tee with the Tidewater wave mark.",
		Status:        models.ProductPublished,
		TrackQuantity: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	teeVariants := []models.ProductVariant{
		{ID: uuid.NewString(), ProductID: tee.ID, SKU: "TEE-S", Title: "Small", PriceCents: 2400, Currency: "USD", Stock: 25, Option1: "S", CreatedAt: now, UpdatedAt: now},
		{ID: uuid.NewString(), ProductID: tee.ID, SKU: "TEE-M", Title: "Medium", PriceCents: 2400, Currency: "USD", Stock: 40, Option1: "M", CreatedAt: now, UpdatedAt: now},
		{ID: uuid.NewString(), ProductID: tee.ID, SKU: "TEE-L", Title: "Large", PriceCents: 2400, Currency: "USD", Stock: 0, AllowBackorder: true, Option1: "L", CreatedAt: now, UpdatedAt: now},
	}

	mug := models.Product{
		ID:            uuid.NewString(),
		Title:         "Harbor Mug",
		Slug:          "harbor-mug",
		Description:   "12oz enamel mug.",
		Status:        models.ProductDraft,
		TrackQuantity: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	mugVariant := models.ProductVariant{
		ID: uuid.NewString(), ProductID: mug.ID, SKU: "MUG-STD",
		PriceCents: 1600, Currency: "USD", Stock: 100, CreatedAt: now, UpdatedAt: now,
	}

	adminUser := models.Customer{
		ID:        uuid.NewString(),
		Email:     "admin@tidewatercommerce.io",
		FirstName: "Demo",
		LastName:  "Admin",
		Role:      models.RoleAdmin,
		CreatedAt: now,
		UpdatedAt: now,
	}
	token, err := newToken()
	if err != nil {
		return err
	}
	session := models.Session{
		Token:      token,
		CustomerID: adminUser.ID,
		ExpiresAt:  now.Add(30 * 24 * time.Hour),
		CreatedAt:  now,
	}

	rows := []any{
		&root, &shirts, &tee, &mug, &mugVariant, &adminUser, &session,
	}
	for i := range teeVariants {
		rows = append(rows, &teeVariants[i])
	}
	for _, row := range rows {
		if err := db.Create(row).Error; err != nil {
			return fmt.Errorf("seeding: %w", err)
		}
	}
	if err := db.Table("product_categories").Create(map[string]any{
		"product_id": tee.ID, "category_id": shirts.ID,
	}).Error; err != nil {
		return fmt.Errorf("seeding category association: %w", err)
	}

	logger.Info("demo data seeded",
		"products", 2, "categories", 2, "admin", adminUser.Email)
	fmt.Printf("admin bearer token (expires in 30 days): %s\n", token)
	return nil
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
