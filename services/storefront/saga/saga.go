// Copyright (C) 2025 Tidewater Commerce (dev@tidewatercommerce.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package saga runs multi-step operations with automatic compensation.
//
// Database-only mutations use store transactions. Operations that span
// the database AND the object store (product image upload, forced
// product delete with image cleanup) cannot share a transaction, so
// they run as a saga: when a step fails, previously completed steps
// are compensated in reverse order.
package saga

import (
	"context"
	"fmt"
	"time"

	"github.com/tidewater-commerce/tidewater/pkg/logging"
)

// Step is one forward action with its undo.
//
// Compensate may be nil when the action needs no cleanup. It should be
// idempotent and tolerate "already gone" conditions, because it can run
// after a partial Execute.
type Step struct {
	Name       string
	Execute    func(ctx context.Context) error
	Compensate func(ctx context.Context) error

	// Timeout overrides the saga default for this step. Zero uses the
	// default.
	Timeout time.Duration
}

// Config controls saga behavior.
type Config struct {
	// StepTimeout is the default per-step timeout. Default: 30s.
	StepTimeout time.Duration

	// CompensationTimeout bounds each compensation. Default: 15s.
	CompensationTimeout time.Duration
}

// Saga executes steps in order and compensates on failure.
// A Saga is single-use; build a new one per operation.
type Saga struct {
	steps     []Step
	completed []string
	lastErr   error
	config    Config
	logger    *logging.Logger
}

// New creates an empty saga. A nil logger falls back to the package
// default.
func New(config Config, logger *logging.Logger) *Saga {
	if config.StepTimeout <= 0 {
		config.StepTimeout = 30 * time.Second
	}
	if config.CompensationTimeout <= 0 {
		config.CompensationTimeout = 15 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Saga{config: config, logger: logger}
}

// Add appends a step.
func (s *Saga) Add(step Step) {
	s.steps = append(s.steps, step)
}

// AddFunc appends a step built from bare functions.
func (s *Saga) AddFunc(name string, execute, compensate func(ctx context.Context) error) {
	s.Add(Step{Name: name, Execute: execute, Compensate: compensate})
}

// Execute runs every step in order. On the first failure it
// compensates the completed steps in reverse order and returns the
// step error. Compensation failures are logged, not returned; the
// original failure is what the caller needs to see.
func (s *Saga) Execute(ctx context.Context) error {
	var done []Step

	for _, step := range s.steps {
		timeout := step.Timeout
		if timeout <= 0 {
			timeout = s.config.StepTimeout
		}
		stepCtx, cancel := context.WithTimeout(ctx, timeout)
		err := step.Execute(stepCtx)
		cancel()

		if err != nil {
			s.lastErr = fmt.Errorf("step %q: %w", step.Name, err)
			s.compensate(done)
			return s.lastErr
		}
		done = append(done, step)
		s.completed = append(s.completed, step.Name)
	}
	return nil
}

// compensate undoes completed steps in reverse order. It runs on a
// fresh context so cancellation of the request does not strand
// half-compensated state.
func (s *Saga) compensate(done []Step) {
	for i := len(done) - 1; i >= 0; i-- {
		step := done[i]
		if step.Compensate == nil {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), s.config.CompensationTimeout)
		if err := step.Compensate(ctx); err != nil {
			s.logger.Error("saga compensation failed",
				"step", step.Name, "error", err)
		} else {
			s.logger.Info("saga step compensated", "step", step.Name)
		}
		cancel()
	}
}

// Completed returns the names of steps that finished successfully,
// in execution order.
func (s *Saga) Completed() []string {
	out := make([]string, len(s.completed))
	copy(out, s.completed)
	return out
}

// LastError returns the error that aborted Execute, if any.
func (s *Saga) LastError() error { return s.lastErr }
