// Copyright (C) 2025 Tidewater Commerce (dev@tidewatercommerce.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package badgercache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}

func TestGetSet(t *testing.T) {
	c := newCache(t)

	_, ok := c.Get("products:list:50:0")
	assert.False(t, ok, "empty cache misses")

	require.NoError(t, c.Set("products:list:50:0", []byte(`{"ok":true}`), 0))

	got, ok := c.Get("products:list:50:0")
	require.True(t, ok)
	assert.Equal(t, []byte(`{"ok":true}`), got)
}

func TestExpiredEntryMisses(t *testing.T) {
	c := newCache(t)
	require.NoError(t, c.Set("products:list:50:0", []byte("x"), time.Second))

	// Badger TTLs have one-second resolution.
	time.Sleep(1100 * time.Millisecond)

	_, ok := c.Get("products:list:50:0")
	assert.False(t, ok)
}

func TestInvalidatePrefix(t *testing.T) {
	c := newCache(t)
	require.NoError(t, c.Set("products:list:50:0", []byte("a"), 0))
	require.NoError(t, c.Set("products:list:50:50", []byte("b"), 0))
	require.NoError(t, c.Set("categories:tree", []byte("c"), 0))

	require.NoError(t, c.InvalidatePrefix("products:"))

	_, ok := c.Get("products:list:50:0")
	assert.False(t, ok)
	_, ok = c.Get("products:list:50:50")
	assert.False(t, ok)

	got, ok := c.Get("categories:tree")
	require.True(t, ok, "other prefixes survive")
	assert.Equal(t, []byte("c"), got)
}
