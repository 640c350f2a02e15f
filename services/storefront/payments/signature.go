// Copyright (C) 2025 Tidewater Commerce (dev@tidewatercommerce.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/awnumar/memguard"
)

// SignatureHeader is the provider signature header on webhook
// deliveries: "t=<unix>,v1=<hex hmac-sha256(secret, t + \".\" + body)>".
const SignatureHeader = "Tidewater-Signature"

// DefaultTolerance is how far a signed timestamp may drift before the
// delivery is rejected as a replay.
const DefaultTolerance = 5 * time.Minute

// Signature verification errors. All of them map to HTTP 400.
var (
	ErrMissingSignature = errors.New("missing signature header")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrStaleTimestamp   = errors.New("signature timestamp outside tolerance")
)

// SecretKeeper holds the webhook signing secret in a memguard enclave
// so the plaintext only exists in locked memory while a signature is
// being checked.
type SecretKeeper struct {
	enclave *memguard.Enclave
}

// NewSecretKeeper seals the signing secret. The caller should wipe
// its own copy after this returns.
func NewSecretKeeper(secret []byte) (*SecretKeeper, error) {
	if len(secret) == 0 {
		return nil, errors.New("webhook signing secret is empty")
	}
	return &SecretKeeper{enclave: memguard.NewEnclave(secret)}, nil
}

// mac computes the HMAC over payload with the sealed secret.
func (k *SecretKeeper) mac(payload []byte) ([]byte, error) {
	buf, err := k.enclave.Open()
	if err != nil {
		return nil, fmt.Errorf("opening secret enclave: %w", err)
	}
	defer buf.Destroy()

	h := hmac.New(sha256.New, buf.Bytes())
	h.Write(payload)
	return h.Sum(nil), nil
}

// Verifier checks webhook signatures.
type Verifier struct {
	keeper    *SecretKeeper
	tolerance time.Duration
	now       func() time.Time
}

// NewVerifier creates a Verifier. A zero tolerance uses
// DefaultTolerance.
func NewVerifier(keeper *SecretKeeper, tolerance time.Duration) *Verifier {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Verifier{keeper: keeper, tolerance: tolerance, now: time.Now}
}

// Verify checks the signature header against the raw request body.
// The comparison is constant-time. Returns nil only when the header
// parses, the timestamp is within tolerance, and the v1 MAC matches.
func (v *Verifier) Verify(header string, body []byte) error {
	if header == "" {
		return ErrMissingSignature
	}

	ts, sig, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}

	drift := v.now().Sub(time.Unix(ts, 0))
	if drift < 0 {
		drift = -drift
	}
	if drift > v.tolerance {
		return ErrStaleTimestamp
	}

	payload := make([]byte, 0, len(body)+24)
	payload = strconv.AppendInt(payload, ts, 10)
	payload = append(payload, '.')
	payload = append(payload, body...)

	expected, err := v.keeper.mac(payload)
	if err != nil {
		return err
	}
	if !hmac.Equal(expected, sig) {
		return ErrInvalidSignature
	}
	return nil
}

// parseSignatureHeader extracts the timestamp and v1 MAC from the
// comma-separated header. Unknown elements are ignored so the scheme
// can grow a v2 later.
func parseSignatureHeader(header string) (int64, []byte, error) {
	var ts int64 = -1
	var sig []byte

	for _, part := range strings.Split(header, ",") {
		key, val, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			n, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("%w: bad timestamp", ErrInvalidSignature)
			}
			ts = n
		case "v1":
			raw, err := hex.DecodeString(val)
			if err != nil {
				return 0, nil, fmt.Errorf("%w: bad hex", ErrInvalidSignature)
			}
			sig = raw
		}
	}
	if ts < 0 || len(sig) == 0 {
		return 0, nil, fmt.Errorf("%w: missing elements", ErrInvalidSignature)
	}
	return ts, sig, nil
}

// Sign produces a signature header for the given body, used by tests
// and by the seed command's webhook replay helper.
func (v *Verifier) Sign(body []byte, at time.Time) (string, error) {
	payload := make([]byte, 0, len(body)+24)
	payload = strconv.AppendInt(payload, at.Unix(), 10)
	payload = append(payload, '.')
	payload = append(payload, body...)

	mac, err := v.keeper.mac(payload)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac)), nil
}
