// Copyright (C) 2025 Tidewater Commerce (dev@tidewatercommerce.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validation provides input validation utilities for security-critical values.
//
// This package contains validators for user-provided identifiers that end up
// in database queries, cache keys, or object storage paths. Using these
// validators prevents injection and path-traversal style abuse.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// slugPattern matches URL slugs for products and categories.
// Lowercase letters, digits, hyphens; no leading/trailing hyphen.
// Max length: 120 characters.
var slugPattern = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,118}[a-z0-9])?$`)

// skuPattern matches variant SKUs: uppercase alphanumerics with dots,
// hyphens, and underscores, 1-40 characters (TW-SHIRT-RED-M, BRK.A-01).
var skuPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9._\-]{0,39}$`)

// sessionIDPattern matches guest cart session identifiers. These are
// minted as UUIDs but arrive from a client header, so they are
// validated before being used as an ownership key.
var sessionIDPattern = regexp.MustCompile(`^[a-fA-F0-9]{8}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{12}$`)

// currencyPattern matches ISO 4217 alpha codes.
var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// ValidateSlug validates a product or category slug.
//
// Valid slugs are 1-120 characters of lowercase letters, digits, and
// interior hyphens. Returns an error describing the constraint when
// the slug is invalid.
//
// Example:
//
//	if err := validation.ValidateSlug(req.Slug); err != nil {
//	    return fmt.Errorf("invalid slug: %w", err)
//	}
func ValidateSlug(slug string) error {
	if slug == "" {
		return fmt.Errorf("slug cannot be empty")
	}
	if !slugPattern.MatchString(slug) {
		return fmt.Errorf("invalid slug format: %q (must be 1-120 lowercase alphanumeric chars with interior hyphens)", slug)
	}
	return nil
}

// ValidateSKU validates a variant SKU.
func ValidateSKU(sku string) error {
	if sku == "" {
		return fmt.Errorf("sku cannot be empty")
	}
	if !skuPattern.MatchString(sku) {
		return fmt.Errorf("invalid sku format: %q (must be 1-40 uppercase alphanumeric chars, dots, hyphens, or underscores)", sku)
	}
	return nil
}

// ValidateSessionID validates a guest cart session identifier.
// Session ids are UUID-shaped; anything else is rejected before it
// can be used as a query parameter or cache key.
func ValidateSessionID(id string) error {
	if id == "" {
		return fmt.Errorf("session id cannot be empty")
	}
	if !sessionIDPattern.MatchString(id) {
		return fmt.Errorf("invalid session id format")
	}
	return nil
}

// ValidateCurrency validates an ISO 4217 currency code.
func ValidateCurrency(code string) error {
	if code == "" {
		return fmt.Errorf("currency cannot be empty")
	}
	if !currencyPattern.MatchString(code) {
		return fmt.Errorf("invalid currency code: %q (must be a 3-letter ISO 4217 code)", code)
	}
	return nil
}

// ValidateObjectName validates a relative object-storage path segment
// for product images. Rejects empty names, absolute paths, traversal
// sequences, and control characters.
func ValidateObjectName(name string) error {
	if name == "" {
		return fmt.Errorf("object name cannot be empty")
	}
	if len(name) > 512 {
		return fmt.Errorf("object name too long (%d > 512)", len(name))
	}
	if strings.HasPrefix(name, "/") {
		return fmt.Errorf("object name must be relative: %q", name)
	}
	if strings.Contains(name, "..") {
		return fmt.Errorf("object name must not contain traversal sequences: %q", name)
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("object name contains control characters")
		}
	}
	return nil
}
