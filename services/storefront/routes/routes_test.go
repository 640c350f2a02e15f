// Copyright (C) 2025 Tidewater Commerce (dev@tidewatercommerce.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/tidewater-commerce/tidewater/services/storefront/admin"
	"github.com/tidewater-commerce/tidewater/services/storefront/cart"
	"github.com/tidewater-commerce/tidewater/services/storefront/catalog"
	"github.com/tidewater-commerce/tidewater/services/storefront/middleware"
	"github.com/tidewater-commerce/tidewater/services/storefront/models"
	"github.com/tidewater-commerce/tidewater/services/storefront/payments"
	"github.com/tidewater-commerce/tidewater/services/storefront/routes"
	"github.com/tidewater-commerce/tidewater/services/storefront/storage/memory"
)

const (
	adminToken    = "admin-token"
	customerToken = "customer-token"

	teeID        = "11111111-0000-0000-0000-000000000001"
	teeVariantID = "11111111-0000-0000-0000-000000000002"
	draftID      = "11111111-0000-0000-0000-000000000003"
	rootCatID    = "22222222-0000-0000-0000-000000000001"
	childCatID   = "22222222-0000-0000-0000-000000000002"
)

type memResolver struct {
	store *memory.Store
}

func (r memResolver) Resolve(ctx context.Context, token string) (*middleware.AuthInfo, error) {
	userID, email, role, ok := r.store.Resolve(token)
	if !ok {
		return nil, nil
	}
	return &middleware.AuthInfo{UserID: userID, Email: email, Role: role}, nil
}

type env struct {
	engine   *gin.Engine
	store    *memory.Store
	verifier *payments.Verifier
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.New()
	seed(store)

	keeper, err := payments.NewSecretKeeper([]byte("whsec_routes_test"))
	require.NoError(t, err)
	verifier := payments.NewVerifier(keeper, 0)

	engine := gin.New()
	routes.Register(engine, routes.Deps{
		Cart:      cart.NewService(store.Cart(), nil),
		Catalog:   catalog.NewTree(store.Catalog(), nil),
		Products:  admin.NewProducts(store.Admin(), memory.NewObjectStore(), nil),
		Customers: admin.NewCustomers(store.Admin(), nil),
		Orders:    admin.NewOrders(store.Admin(), nil),
		Verifier:  verifier,
		Processor: payments.NewProcessor(store.Payments(), "stripe", nil),
		Resolver:  memResolver{store: store},
		Limiter:   rate.NewLimiter(rate.Limit(100), 100),
		Mode:      "memory",
	})
	return &env{engine: engine, store: store, verifier: verifier}
}

func seed(store *memory.Store) {
	now := time.Now()

	store.PutProduct(models.Product{
		ID: teeID, Title: "Logo Tee", Slug: "logo-tee",
		Status: models.ProductPublished, TrackQuantity: true, CreatedAt: now,
	})
	store.PutVariant(models.ProductVariant{
		ID: teeVariantID, ProductID: teeID, SKU: "TEE-M",
		PriceCents: 2400, Currency: "USD", Stock: 10,
	})
	store.PutProduct(models.Product{
		ID: draftID, Title: "Unreleased", Slug: "unreleased",
		Status: models.ProductDraft, CreatedAt: now,
	})

	store.PutCategory(models.Category{ID: rootCatID, Name: "Apparel", Slug: "apparel"})
	parent := rootCatID
	store.PutCategory(models.Category{ID: childCatID, Name: "Shirts", Slug: "shirts", ParentID: &parent})

	adminCust := models.Customer{
		ID: "33333333-0000-0000-0000-000000000001",
		Email: "admin@tidewatercommerce.io", Role: models.RoleAdmin,
	}
	shopper := models.Customer{
		ID: "33333333-0000-0000-0000-000000000002",
		Email: "jo@example.com", Role: models.RoleCustomer,
	}
	store.PutCustomer(adminCust)
	store.PutCustomer(shopper)
	store.PutSession(models.Session{Token: adminToken, CustomerID: adminCust.ID, ExpiresAt: now.Add(time.Hour)})
	store.PutSession(models.Session{Token: customerToken, CustomerID: shopper.ID, ExpiresAt: now.Add(time.Hour)})
}

func (e *env) do(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestHealth(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "memory", body["mode"])
}

func TestPublicCatalog(t *testing.T) {
	e := newEnv(t)

	t.Run("list excludes drafts", func(t *testing.T) {
		w := e.do(t, http.MethodGet, "/api/products", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "logo-tee")
		assert.NotContains(t, w.Body.String(), "unreleased")
	})

	t.Run("published detail", func(t *testing.T) {
		w := e.do(t, http.MethodGet, "/api/products/"+teeID, "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "TEE-M")
	})

	t.Run("draft is 404 publicly", func(t *testing.T) {
		w := e.do(t, http.MethodGet, "/api/products/"+draftID, "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("category with children and path", func(t *testing.T) {
		w := e.do(t, http.MethodGet, "/api/categories/"+childCatID, "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		data := decode(t, w)["data"].(map[string]any)
		path := data["path"].([]any)
		require.Len(t, path, 2)
		assert.Empty(t, data["children"])
	})
}

func TestGuestCartFlow(t *testing.T) {
	e := newEnv(t)

	// First contact mints a session id and echoes it.
	w := e.do(t, http.MethodGet, "/api/cart", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	sessionID := w.Header().Get(middleware.SessionHeader)
	require.NotEmpty(t, sessionID)

	session := map[string]string{middleware.SessionHeader: sessionID}

	w = e.do(t, http.MethodPost, "/api/cart/add",
		`{"product_id":"`+teeID+`","variant_id":"`+teeVariantID+`","quantity":2}`, session)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, sessionID, w.Header().Get(middleware.SessionHeader), "session id is echoed back")

	w = e.do(t, http.MethodGet, "/api/cart/count", "", session)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, float64(2), data["count"])

	t.Run("malformed session header is replaced", func(t *testing.T) {
		// An arbitrary header string must never become an ownership
		// key; the server mints a fresh id instead.
		headers := map[string]string{middleware.SessionHeader: "../../etc/passwd"}
		w := e.do(t, http.MethodGet, "/api/cart", "", headers)
		require.Equal(t, http.StatusOK, w.Code)

		minted := w.Header().Get(middleware.SessionHeader)
		assert.NotEqual(t, "../../etc/passwd", minted)
		_, err := uuid.Parse(minted)
		assert.NoError(t, err, "replacement id is uuid-shaped")
	})

	t.Run("over stock rejected", func(t *testing.T) {
		w := e.do(t, http.MethodPost, "/api/cart/add",
			`{"product_id":"`+teeID+`","variant_id":"`+teeVariantID+`","quantity":99}`, session)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("validation failure names the field", func(t *testing.T) {
		w := e.do(t, http.MethodPost, "/api/cart/add", `{"quantity":1}`, session)
		require.Equal(t, http.StatusBadRequest, w.Code)
		body := decode(t, w)
		details := body["details"].(map[string]any)
		assert.Contains(t, details, "ProductID")
	})

	t.Run("merge requires auth", func(t *testing.T) {
		w := e.do(t, http.MethodPost, "/api/cart/merge",
			`{"session_id":"`+sessionID+`"}`, session)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("merge folds guest lines into the user cart", func(t *testing.T) {
		headers := bearer(customerToken)
		headers["Content-Type"] = "application/json"
		w := e.do(t, http.MethodPost, "/api/cart/merge",
			`{"session_id":"`+sessionID+`"}`, headers)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = e.do(t, http.MethodGet, "/api/cart/count", "", bearer(customerToken))
		require.Equal(t, http.StatusOK, w.Code)
		data := decode(t, w)["data"].(map[string]any)
		assert.Equal(t, float64(2), data["count"])
	})
}

func TestAdminAccessControl(t *testing.T) {
	e := newEnv(t)

	t.Run("guest is 401", func(t *testing.T) {
		w := e.do(t, http.MethodGet, "/api/admin/products", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("customer is 403", func(t *testing.T) {
		w := e.do(t, http.MethodGet, "/api/admin/products", "", bearer(customerToken))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("stale token is 401", func(t *testing.T) {
		w := e.do(t, http.MethodGet, "/api/admin/products", "", bearer("expired"))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("admin lists every status", func(t *testing.T) {
		w := e.do(t, http.MethodGet, "/api/admin/products", "", bearer(adminToken))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "unreleased")
	})
}

func TestAdminProductLifecycle(t *testing.T) {
	e := newEnv(t)
	headers := bearer(adminToken)

	w := e.do(t, http.MethodPost, "/api/admin/products",
		`{"title":"Harbor Mug","slug":"harbor-mug","status":"published"}`, headers)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)["data"].(map[string]any)
	id := created["id"].(string)

	w = e.do(t, http.MethodPut, "/api/admin/products/"+id,
		`{"title":"Harbor Mug 12oz"}`, headers)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Harbor Mug 12oz")

	w = e.do(t, http.MethodDelete, "/api/admin/products/"+id, "", headers)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodGet, "/api/admin/products/"+id, "", headers)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminDeleteReferencedProduct(t *testing.T) {
	e := newEnv(t)
	e.store.PutOrder(models.Order{
		ID: "44444444-0000-0000-0000-000000000001", Email: "jo@example.com",
		Items: []models.OrderItem{
			{ID: "item-1", VariantID: teeVariantID, Quantity: 1, UnitPriceCents: 2400},
		},
	})

	w := e.do(t, http.MethodDelete, "/api/admin/products/"+teeID, "", bearer(adminToken))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = e.do(t, http.MethodGet, "/api/admin/products/"+teeID, "", bearer(adminToken))
	assert.Equal(t, http.StatusOK, w.Code, "blocked delete leaves the product")
}

func TestAdminCategoryCycleRejected(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodPut, "/api/admin/categories/"+rootCatID,
		`{"set_parent":true,"parent_id":"`+childCatID+`"}`, bearer(adminToken))
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}

func TestWebhookEndpoint(t *testing.T) {
	e := newEnv(t)
	e.store.PutOrder(models.Order{
		ID: "55555555-0000-0000-0000-000000000001", Email: "jo@example.com",
		PaymentStatus: models.PaymentPending,
	})
	e.store.PutPayment(models.Payment{
		ID:      "55555555-0000-0000-0000-000000000002",
		OrderID: "55555555-0000-0000-0000-000000000001",
		Provider: "stripe", IntentID: "pi_route_1", Status: "pending",
	})

	body := `{"id":"evt_route_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_route_1"}}}`

	sign := func(t *testing.T, b string) map[string]string {
		t.Helper()
		header, err := e.verifier.Sign([]byte(b), time.Now())
		require.NoError(t, err)
		return map[string]string{payments.SignatureHeader: header}
	}

	t.Run("unsigned is 400", func(t *testing.T) {
		w := e.do(t, http.MethodPost, "/api/checkout/webhook", body, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("signed delivery applies", func(t *testing.T) {
		w := e.do(t, http.MethodPost, "/api/checkout/webhook", body, sign(t, body))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), `"applied":"succeeded"`)
	})

	t.Run("replay acks as duplicate", func(t *testing.T) {
		w := e.do(t, http.MethodPost, "/api/checkout/webhook", body, sign(t, body))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"duplicate":true`)
	})

	t.Run("malformed signed body is 400", func(t *testing.T) {
		bad := `{"nope":`
		w := e.do(t, http.MethodPost, "/api/checkout/webhook", bad, sign(t, bad))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestWebhookRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := memory.New()
	keeper, err := payments.NewSecretKeeper([]byte("whsec_limit"))
	require.NoError(t, err)
	verifier := payments.NewVerifier(keeper, 0)

	engine := gin.New()
	routes.Register(engine, routes.Deps{
		Cart:      cart.NewService(store.Cart(), nil),
		Catalog:   catalog.NewTree(store.Catalog(), nil),
		Products:  admin.NewProducts(store.Admin(), nil, nil),
		Customers: admin.NewCustomers(store.Admin(), nil),
		Orders:    admin.NewOrders(store.Admin(), nil),
		Verifier:  verifier,
		Processor: payments.NewProcessor(store.Payments(), "stripe", nil),
		Resolver:  memResolver{store: store},
		Limiter:   rate.NewLimiter(rate.Limit(0.001), 1),
		Mode:      "memory",
	})
	e := &env{engine: engine, store: store, verifier: verifier}

	body := `{"id":"evt_limit","type":"noop","data":{"object":{}}}`
	header, err := verifier.Sign([]byte(body), time.Now())
	require.NoError(t, err)
	headers := map[string]string{payments.SignatureHeader: header}

	w := e.do(t, http.MethodPost, "/api/checkout/webhook", body, headers)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodPost, "/api/checkout/webhook", body, headers)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
