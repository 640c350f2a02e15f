// Copyright (C) 2025 Tidewater Commerce (dev@tidewatercommerce.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package postgres implements the domain store interfaces over GORM.
//
// One Store wraps the database handle; per-domain adapters are
// obtained from it (Cart(), Catalog(), Admin(), Payments(), Auth()).
// Every adapter's Transact delegates to gorm's Transaction, so the
// rollback guarantees the services rely on come straight from
// postgres.
package postgres

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tidewater-commerce/tidewater/services/storefront/admin"
	"github.com/tidewater-commerce/tidewater/services/storefront/cart"
	"github.com/tidewater-commerce/tidewater/services/storefront/catalog"
	"github.com/tidewater-commerce/tidewater/services/storefront/models"
	"github.com/tidewater-commerce/tidewater/services/storefront/payments"
)

// Config holds connection parameters.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN renders the postgres connection string.
func (c Config) DSN() string {
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, sslmode)
}

// Store wraps the gorm handle.
type Store struct {
	db *gorm.DB
}

// Open connects to postgres. TranslateError is enabled so unique
// violations surface as gorm.ErrDuplicatedKey regardless of driver.
func Open(cfg Config) (*Store, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrapping sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &Store{db: db}, nil
}

// AutoMigrate creates or updates the schema for every entity.
func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(
		&models.Product{},
		&models.ProductVariant{},
		&models.ProductImage{},
		&models.Category{},
		&models.CartItem{},
		&models.Customer{},
		&models.CustomerNote{},
		&models.Session{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.CheckoutSession{},
		&models.WebhookEvent{},
		&models.AdminLog{},
	)
}

// DB exposes the raw handle for the seed command.
func (s *Store) DB() *gorm.DB { return s.db }

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Cart returns the cart.Store adapter.
func (s *Store) Cart() cart.Store { return cartStore{db: s.db} }

// Catalog returns the catalog.Store adapter.
func (s *Store) Catalog() catalog.Store { return catalogStore{db: s.db} }

// Admin returns the admin.Store adapter.
func (s *Store) Admin() admin.Store { return adminStore{db: s.db} }

// Payments returns the payments.Store adapter.
func (s *Store) Payments() payments.Store { return paymentsStore{db: s.db} }

// Auth returns the session resolver used by the auth middleware.
func (s *Store) Auth() *AuthStore { return &AuthStore{db: s.db} }

// first loads one row into dst, mapping ErrRecordNotFound to a nil
// result, which the domain interfaces expect for absent rows.
func first[T any](db *gorm.DB, conds ...any) (*T, error) {
	var row T
	err := db.First(&row, conds...).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}
