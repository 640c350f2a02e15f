// Copyright (C) 2025 Tidewater Commerce (dev@tidewatercommerce.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health answers the liveness probe. It reports the running mode so
// an operator can tell at a glance whether the service fell back to
// the in-memory store.
func Health(mode string, startedAt time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"mode":    mode,
			"uptime":  time.Since(startedAt).Round(time.Second).String(),
			"service": "tidewater-storefront",
		})
	}
}
