// Copyright (C) 2025 Tidewater Commerce (dev@tidewatercommerce.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package images stores product images in Google Cloud Storage.
// It satisfies the admin.ObjectStore interface.
package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/tidewater-commerce/tidewater/pkg/validation"
)

// GCSStore uploads and deletes product image objects in one bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore creates a store against the given bucket. When
// credentialsFile is empty, application default credentials are used.
func NewGCSStore(ctx context.Context, bucket, credentialsFile string) (*GCSStore, error) {
	if bucket == "" {
		return nil, errors.New("bucket name is required")
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		if _, err := os.Stat(credentialsFile); os.IsNotExist(err) {
			return nil, fmt.Errorf("service account key not found at %s", credentialsFile)
		}
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating GCS client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

// Put writes an object. Overwrites are allowed; product image paths
// embed a UUID so collisions only happen on deliberate re-upload.
func (s *GCSStore) Put(ctx context.Context, path string, content []byte, contentType string) error {
	if err := validation.ValidateObjectName(path); err != nil {
		return err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w := s.client.Bucket(s.bucket).Object(path).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=86400"

	if _, err := io.Copy(w, bytes.NewReader(content)); err != nil {
		_ = w.Close()
		return fmt.Errorf("writing object %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing writer for %s: %w", path, err)
	}
	return nil
}

// Delete removes an object. A missing object is not an error, so
// saga compensation and post-commit cleanup can re-run safely.
func (s *GCSStore) Delete(ctx context.Context, path string) error {
	if err := validation.ValidateObjectName(path); err != nil {
		return err
	}
	err := s.client.Bucket(s.bucket).Object(path).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("deleting object %s: %w", path, err)
	}
	return nil
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}
