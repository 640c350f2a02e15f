// Copyright (C) 2025 Tidewater Commerce (dev@tidewatercommerce.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/tidewater-commerce/tidewater/pkg/logging"
	"github.com/tidewater-commerce/tidewater/services/storefront/datatypes"
	"github.com/tidewater-commerce/tidewater/services/storefront/observability"
	"github.com/tidewater-commerce/tidewater/services/storefront/payments"
)

// maxWebhookBody caps provider webhook payloads at 1 MiB.
const maxWebhookBody = 1 << 20

// CheckoutWebhook handles provider payment notifications.
//
// Processing order matters: the rate limiter runs first, then the
// signature check over the raw body, and only then is the body parsed
// and applied. A delivery that fails signature verification is never
// parsed. Duplicate deliveries acknowledge with duplicate:true and
// mutate nothing.
func CheckoutWebhook(verifier *payments.Verifier, processor *payments.Processor,
	limiter *rate.Limiter, logger *logging.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = logging.Default()
	}
	return func(c *gin.Context) {
		if limiter != nil && !limiter.Allow() {
			observability.ObserveWebhookEvent("unknown", "rate_limited")
			c.JSON(http.StatusTooManyRequests, datatypes.Err("rate limit exceeded"))
			return
		}

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody+1))
		if err != nil {
			fail(c, http.StatusInternalServerError, err)
			return
		}
		if len(body) > maxWebhookBody {
			c.JSON(http.StatusBadRequest, datatypes.Err("payload too large"))
			return
		}

		if err := verifier.Verify(c.GetHeader(payments.SignatureHeader), body); err != nil {
			logger.Warn("webhook signature rejected", "error", err)
			observability.ObserveWebhookEvent("unknown", "rejected")
			c.JSON(http.StatusBadRequest, datatypes.Err("signature verification failed"))
			return
		}

		result, err := processor.Process(c.Request.Context(), body)
		if err != nil {
			if errors.Is(err, payments.ErrMalformedEvent) {
				observability.ObserveWebhookEvent("unknown", "rejected")
				c.JSON(http.StatusBadRequest, datatypes.Err("malformed event"))
				return
			}
			observability.ObserveWebhookEvent("unknown", "error")
			fail(c, http.StatusInternalServerError, err)
			return
		}

		applied := result.Applied
		if applied == "" {
			applied = "none"
		}
		if result.Duplicate {
			observability.ObserveWebhookEvent(applied, "duplicate")
		} else {
			observability.ObserveWebhookEvent(applied, "applied")
		}
		c.JSON(http.StatusOK, result)
	}
}
