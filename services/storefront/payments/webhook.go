// Copyright (C) 2025 Tidewater Commerce (dev@tidewatercommerce.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package payments verifies and applies checkout webhook deliveries.
//
// # Idempotency
//
// Every delivery is first recorded in the webhook_events ledger keyed
// by (provider, event_id). A unique-constraint violation short-circuits
// with Duplicate=true before any state is touched. The ledger insert
// and the state mutation share one transaction, so a crash between
// them cannot strand an event id that was never applied.
//
// # State Machine
//
//	payment_intent.succeeded      -> payment succeeded, session paid, order paid
//	payment_intent.payment_failed -> payment failed
//	charge.refunded               -> payment refunded, order refunded
//
// Unknown event types are acknowledged and recorded but change nothing;
// the provider must not keep retrying events we will never handle.
package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tidewater-commerce/tidewater/pkg/logging"
	"github.com/tidewater-commerce/tidewater/services/storefront/models"
)

// Payment status values written by the state machine.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusRefunded  = "refunded"

	SessionPaid = "paid"
)

// Event types handled by the state machine.
const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
	EventChargeRefunded   = "charge.refunded"
)

// Sentinel errors.
var (
	// ErrDuplicateEvent is returned by Store.InsertEvent when the
	// (provider, event_id) pair already exists.
	ErrDuplicateEvent = errors.New("webhook event already processed")

	// ErrMalformedEvent is returned for bodies that do not parse into
	// an Event with an id and type.
	ErrMalformedEvent = errors.New("malformed webhook event")
)

// Event is the parsed webhook body.
type Event struct {
	ID   string    `json:"id"`
	Type string    `json:"type"`
	Data EventData `json:"data"`
}

// EventData wraps the provider object the event describes.
type EventData struct {
	Object EventObject `json:"object"`
}

// EventObject carries the fields the state machine needs. For
// payment_intent.* events ID is the intent id; charge.refunded events
// reference the intent through PaymentIntent instead.
type EventObject struct {
	ID            string `json:"id"`
	PaymentIntent string `json:"payment_intent,omitempty"`
	AmountCents   int64  `json:"amount,omitempty"`
	Currency      string `json:"currency,omitempty"`
}

// IntentID returns the payment intent the event refers to.
func (e Event) IntentID() string {
	if e.Type == EventChargeRefunded && e.Data.Object.PaymentIntent != "" {
		return e.Data.Object.PaymentIntent
	}
	return e.Data.Object.ID
}

// Result reports the outcome of one delivery.
type Result struct {
	Received  bool   `json:"received"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Applied   string `json:"applied,omitempty"`
}

// Store is the persistence surface for webhook processing.
// Lookup methods return (nil, nil) when the row does not exist.
type Store interface {
	// InsertEvent records a delivery in the idempotency ledger.
	// Returns ErrDuplicateEvent when (provider, event_id) exists.
	InsertEvent(ctx context.Context, ev *models.WebhookEvent) error

	// PaymentByIntent returns the payment row for an external intent id.
	PaymentByIntent(ctx context.Context, intentID string) (*models.Payment, error)

	// UpdatePayment persists payment status changes.
	UpdatePayment(ctx context.Context, p *models.Payment) error

	// CheckoutSessionByIntent returns the checkout session for an intent.
	CheckoutSessionByIntent(ctx context.Context, intentID string) (*models.CheckoutSession, error)

	// UpdateCheckoutSession persists session status changes.
	UpdateCheckoutSession(ctx context.Context, s *models.CheckoutSession) error

	// Order returns an order by id.
	Order(ctx context.Context, id string) (*models.Order, error)

	// UpdateOrder persists order status changes.
	UpdateOrder(ctx context.Context, o *models.Order) error

	// Transact runs fn against a transactional view of the store.
	Transact(ctx context.Context, fn func(Store) error) error
}

// Processor applies verified webhook deliveries.
type Processor struct {
	store    Store
	provider string
	logger   *logging.Logger
	now      func() time.Time
}

// NewProcessor creates a Processor for one payment provider.
func NewProcessor(store Store, provider string, logger *logging.Logger) *Processor {
	if logger == nil {
		logger = logging.Default()
	}
	return &Processor{store: store, provider: provider, logger: logger, now: time.Now}
}

// Process parses and applies one delivery body. The caller must have
// verified the signature already.
//
// Replays return Result{Received: true, Duplicate: true} and mutate
// nothing. Events referencing an unknown payment intent are recorded
// and acknowledged so the provider stops retrying them.
func (p *Processor) Process(ctx context.Context, body []byte) (*Result, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if ev.ID == "" || ev.Type == "" {
		return nil, ErrMalformedEvent
	}

	result := &Result{Received: true}
	err := p.store.Transact(ctx, func(tx Store) error {
		record := &models.WebhookEvent{
			ID:         uuid.NewString(),
			Provider:   p.provider,
			EventID:    ev.ID,
			Type:       ev.Type,
			ReceivedAt: p.now(),
		}
		if err := tx.InsertEvent(ctx, record); err != nil {
			if errors.Is(err, ErrDuplicateEvent) {
				result.Duplicate = true
				return nil
			}
			return fmt.Errorf("recording event: %w", err)
		}
		return p.apply(ctx, tx, ev, result)
	})
	if err != nil {
		return nil, err
	}

	if result.Duplicate {
		p.logger.Info("webhook replay ignored", "provider", p.provider, "event_id", ev.ID)
	} else {
		p.logger.Info("webhook processed",
			"provider", p.provider, "event_id", ev.ID, "type", ev.Type, "applied", result.Applied)
	}
	return result, nil
}

func (p *Processor) apply(ctx context.Context, tx Store, ev Event, result *Result) error {
	var target string
	switch ev.Type {
	case EventPaymentSucceeded:
		target = StatusSucceeded
	case EventPaymentFailed:
		target = StatusFailed
	case EventChargeRefunded:
		target = StatusRefunded
	default:
		// Recorded but not applied.
		return nil
	}

	intentID := ev.IntentID()
	payment, err := tx.PaymentByIntent(ctx, intentID)
	if err != nil {
		return fmt.Errorf("loading payment: %w", err)
	}
	if payment == nil {
		p.logger.Warn("webhook for unknown payment intent",
			"provider", p.provider, "event_id", ev.ID, "intent_id", intentID)
		return nil
	}

	now := p.now()
	payment.Status = target
	payment.UpdatedAt = now
	if err := tx.UpdatePayment(ctx, payment); err != nil {
		return fmt.Errorf("updating payment: %w", err)
	}
	result.Applied = target

	switch target {
	case StatusSucceeded:
		session, err := tx.CheckoutSessionByIntent(ctx, intentID)
		if err != nil {
			return fmt.Errorf("loading checkout session: %w", err)
		}
		if session != nil {
			session.Status = SessionPaid
			session.UpdatedAt = now
			if err := tx.UpdateCheckoutSession(ctx, session); err != nil {
				return fmt.Errorf("updating checkout session: %w", err)
			}
		}
		if err := p.setOrderPayment(ctx, tx, payment.OrderID, models.PaymentPaid, now); err != nil {
			return err
		}
	case StatusRefunded:
		if err := p.setOrderPayment(ctx, tx, payment.OrderID, models.PaymentRefunded, now); err != nil {
			return err
		}
	}
	return nil
}

func (p *Processor) setOrderPayment(ctx context.Context, tx Store, orderID, status string, now time.Time) error {
	order, err := tx.Order(ctx, orderID)
	if err != nil {
		return fmt.Errorf("loading order: %w", err)
	}
	if order == nil {
		return nil
	}
	order.PaymentStatus = status
	order.UpdatedAt = now
	if err := tx.UpdateOrder(ctx, order); err != nil {
		return fmt.Errorf("updating order: %w", err)
	}
	return nil
}
