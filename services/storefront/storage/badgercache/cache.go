// Copyright (C) 2025 Tidewater Commerce (dev@tidewatercommerce.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package badgercache is an embedded BadgerDB read cache for hot
// storefront responses (product lists, category trees).
//
// Entries carry a TTL and are invalidated wholesale by prefix when an
// admin write touches the underlying data. Losing the cache directory
// costs nothing but latency.
package badgercache

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// Config holds cache configuration.
type Config struct {
	// Path is the directory for BadgerDB files. Ignored when InMemory
	// is set.
	Path string

	// InMemory disables disk persistence. Used in tests and in
	// memory-mode deployments.
	InMemory bool

	// DefaultTTL applies to Set calls with a zero ttl. Default: 45s.
	DefaultTTL time.Duration

	// Logger receives BadgerDB's internal logs. Nil silences them.
	Logger *slog.Logger
}

// Cache wraps a BadgerDB instance.
type Cache struct {
	db         *badger.DB
	defaultTTL time.Duration
}

// ErrClosed is returned by operations on a closed cache.
var ErrClosed = errors.New("cache is closed")

// Open creates or opens the cache.
func Open(config Config) (*Cache, error) {
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = 45 * time.Second
	}

	var opts badger.Options
	if config.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if config.Path == "" {
			return nil, errors.New("cache path is required unless in-memory")
		}
		opts = badger.DefaultOptions(config.Path)
	}
	opts = opts.WithLogger(nil)
	if config.Logger != nil {
		opts = opts.WithLogger(slogAdapter{config.Logger})
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger cache: %w", err)
	}
	return &Cache{db: db, defaultTTL: config.DefaultTTL}, nil
}

// Get returns the cached value for key, or (nil, false) on a miss.
// Expired entries count as misses.
func (c *Cache) Get(key string) ([]byte, bool) {
	var out []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, false
	}
	return out, true
}

// Set stores value under key. A zero ttl uses the default.
func (c *Cache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	return c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), value).WithTTL(ttl)
		return txn.SetEntry(entry)
	})
}

// InvalidatePrefix deletes every key under the prefix. Admin writes
// call this with the resource prefix ("products:", "categories:").
func (c *Cache) InvalidatePrefix(prefix string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{
			Prefix:         []byte(prefix),
			PrefetchValues: false,
		})
		defer it.Close()

		var keys [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close flushes and closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// slogAdapter bridges BadgerDB's logger interface onto slog.
type slogAdapter struct {
	l *slog.Logger
}

func (a slogAdapter) Errorf(format string, args ...any) {
	a.l.Error(fmt.Sprintf(format, args...))
}

func (a slogAdapter) Warningf(format string, args ...any) {
	a.l.Warn(fmt.Sprintf(format, args...))
}

func (a slogAdapter) Infof(format string, args ...any) {
	a.l.Info(fmt.Sprintf(format, args...))
}

func (a slogAdapter) Debugf(format string, args ...any) {
	a.l.Debug(fmt.Sprintf(format, args...))
}
