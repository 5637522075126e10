package routes

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/apps"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/apps/cart"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/apps/catalog"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/apps/orders"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/apps/storefront"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/cache"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/events"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/mailer"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/storage"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/tenant"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/testutil"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testServer struct {
	t      *testing.T
	app    *fiber.App
	db     *gorm.DB
	mail   *mailer.MemoryMailer
	events *events.MemoryPublisher
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := testutil.NewDB(t, testutil.CatalogModels()...)
	cfg := testutil.Config()
	kv := cache.NewMemoryCache()
	mail := mailer.NewMemoryMailer()
	pub := events.NewMemoryPublisher()
	resolver := tenant.NewResolver(db, kv, cfg.PlatformBaseDomain, cfg.DomainCacheTTL)

	deps := &apps.Deps{
		DB:          db,
		Config:      cfg,
		Cache:       kv,
		Storage:     storage.NewStubStorage(),
		Publisher:   pub,
		Mailer:      mail,
		RequireAuth: middleware.JWTProtected(cfg),
	}
	settings := services.NewSettingsService(db, cfg.Currency)
	h := Handlers{
		Auth:     handlers.NewAuthHandler(services.NewAuthService(db, cfg, kv, mail)),
		Health:   handlers.NewHealthHandler(db, kv),
		Webhook:  handlers.NewWebhookHandler(services.NewPaymentService(db, pub), cfg.PaymentWebhookSecret),
		Legal:    handlers.NewLegalHandler(),
		Settings: handlers.NewStoreSettingsHandler(settings),
		Vendor:   handlers.NewVendorHandler(services.NewVendorService(db, settings, resolver, pub)),
		Domain:   handlers.NewDomainHandler(services.NewDomainService(db, resolver)),
		Admin:    handlers.NewAdminHandler(services.NewAdminService(db)),
	}

	app := fiber.New()
	Setup(app, deps, resolver, h, []apps.Plugin{catalog.New(), storefront.New(), cart.New(), orders.New()})
	return &testServer{t: t, app: app, db: db, mail: mail, events: pub}
}

func (s *testServer) do(method, path, token string, body interface{}, headers ...string) (int, []byte) {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(s.t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	return resp.StatusCode, data
}

var codePattern = regexp.MustCompile(`code is (\d+)\.`)

// login runs the OTP flow for email and returns the auth response.
func (s *testServer) login(email string) dto.AuthResponse {
	s.t.Helper()
	status, _ := s.do(http.MethodPost, "/api/auth/send-otp", "", dto.SendOTPRequest{Email: email})
	require.Equal(s.t, fiber.StatusOK, status)

	msg, ok := s.mail.Last()
	require.True(s.t, ok)
	m := codePattern.FindStringSubmatch(msg.Body)
	require.Len(s.t, m, 2, msg.Body)

	status, body := s.do(http.MethodPost, "/api/auth/verify-otp", "", dto.VerifyOTPRequest{Email: email, Code: m[1]})
	require.Equal(s.t, fiber.StatusOK, status, string(body))
	var resp dto.AuthResponse
	require.NoError(s.t, json.Unmarshal(body, &resp))
	return resp
}

func TestMarketplaceFlow(t *testing.T) {
	s := newTestServer(t)

	// A new account applies for a store; the route is not caught by the /vendor group.
	seller := s.login("maker@example.com")
	assert.Equal(t, "/", seller.RedirectTo)

	status, body := s.do(http.MethodPost, "/api/vendors", seller.AccessToken, dto.ApplyVendorRequest{
		Name: "Maker Goods", Subdomain: "maker", ContactEmail: "hello@maker.test",
	})
	require.Equal(t, fiber.StatusCreated, status, string(body))
	var vendor models.Vendor
	require.NoError(t, json.Unmarshal(body, &vendor))
	assert.Equal(t, models.VendorStatusPending, vendor.Status)

	// Still a buyer until the store is approved.
	status, _ = s.do(http.MethodGet, "/api/vendor", seller.AccessToken, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	admin := s.login("root@platform.test")
	assert.Equal(t, "/admin", admin.RedirectTo)
	status, body = s.do(http.MethodPut, "/api/admin/vendors/"+vendor.ID.String()+"/status", admin.AccessToken,
		dto.VendorStatusRequest{Status: models.VendorStatusActive})
	require.Equal(t, fiber.StatusOK, status, string(body))

	// The stored role is re-read, so the old token now reaches the back office.
	status, _ = s.do(http.MethodGet, "/api/vendor", seller.AccessToken, nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, body = s.do(http.MethodPost, "/api/vendor/products", seller.AccessToken, map[string]interface{}{
		"name": "Oak Board", "price": 42, "stock": 3, "status": "active",
	})
	require.Equal(t, fiber.StatusCreated, status, string(body))
	var product models.Product
	require.NoError(t, json.Unmarshal(body, &product))
	assert.Equal(t, "oak-board", product.Slug)

	// Storefront resolves the store from the header.
	status, body = s.do(http.MethodGet, "/api/storefront/products/oak-board", "", nil, "X-Store-Domain", "maker.shops.test")
	require.Equal(t, fiber.StatusOK, status, string(body))
	status, _ = s.do(http.MethodGet, "/api/storefront/products", "", nil, "X-Store-Domain", "nobody.shops.test")
	assert.Equal(t, fiber.StatusNotFound, status)

	// A buyer fills a cart and checks out.
	buyer := s.login("shopper@example.com")
	status, _ = s.do(http.MethodPost, "/api/cart", "", cart.AddItemRequest{ProductID: product.ID, Quantity: 1})
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, body = s.do(http.MethodPost, "/api/cart", buyer.AccessToken, cart.AddItemRequest{ProductID: product.ID, Quantity: 2})
	require.Equal(t, fiber.StatusCreated, status, string(body))

	status, body = s.do(http.MethodGet, "/api/cart", buyer.AccessToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	var view cart.View
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Equal(t, "84.00", view.Summary.Subtotal.StringFixed(2))
	assert.True(t, view.Summary.Shipping.IsZero())

	status, body = s.do(http.MethodPost, "/api/checkout", buyer.AccessToken, map[string]interface{}{
		"shipping_address": map[string]string{
			"full_name": "Sam Shopper", "line1": "2 Elm St", "city": "Portland",
			"postal_code": "97201", "country": "US",
		},
		"payment_method": "card",
	})
	require.Equal(t, fiber.StatusCreated, status, string(body))
	var checkout struct {
		Orders []models.Order `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(body, &checkout))
	require.Len(t, checkout.Orders, 1)
	order := checkout.Orders[0]
	assert.Equal(t, "90.72", order.Total.StringFixed(2))

	// Payment provider confirms the charge.
	webhook := dto.PaymentWebhook{ID: "evt_1", Type: services.PaymentSucceeded, Data: dto.PaymentEvent{
		OrderNumber: order.Number, PaymentRef: "pi_123", Amount: "90.72", Currency: "USD",
	}}
	status, _ = s.do(http.MethodPost, "/api/webhooks/payments", "", webhook, "Authorization", "wrong")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	status, body = s.do(http.MethodPost, "/api/webhooks/payments", "", webhook, "Authorization", "whsec")
	require.Equal(t, fiber.StatusOK, status, string(body))

	status, body = s.do(http.MethodGet, "/api/orders/"+order.ID.String(), buyer.AccessToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	var paid models.Order
	require.NoError(t, json.Unmarshal(body, &paid))
	assert.Equal(t, models.PaymentStatusPaid, paid.PaymentStatus)

	// Seller ships it.
	status, body = s.do(http.MethodPut, "/api/vendor/orders/"+order.ID.String()+"/status", seller.AccessToken,
		orders.StatusRequest{Status: models.OrderStatusConfirmed})
	require.Equal(t, fiber.StatusOK, status, string(body))

	// Buyers cannot use the back office or the admin panel.
	status, _ = s.do(http.MethodGet, "/api/vendor/orders", buyer.AccessToken, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	status, _ = s.do(http.MethodGet, "/api/admin/orders", buyer.AccessToken, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body = s.do(http.MethodGet, "/api/admin/stats", admin.AccessToken, nil)
	require.Equal(t, fiber.StatusOK, status, string(body))

	assert.Equal(t, []string{
		events.VendorStatusChanged,
		events.OrderCreated,
		events.OrderStatusChanged,
	}, s.events.Keys())

	created, ok := s.events.Events()[1].Payload.(events.OrderEvent)
	require.True(t, ok)
	assert.Equal(t, order.Number, created.Number)
	assert.Equal(t, vendor.ID, created.VendorID)
	assert.Equal(t, "90.72", created.Total)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	testutil.CreateVendor(t, s.db, "acme")

	status, body := s.do(http.MethodGet, "/api/health", "", nil)
	require.Equal(t, fiber.StatusOK, status)
	var health dto.HealthResponse
	require.NoError(t, json.Unmarshal(body, &health))
	assert.Equal(t, "ok", health.DB)
	assert.Equal(t, int64(1), health.VendorCount)
}

func TestHealth_VendorCountErrorDegrades(t *testing.T) {
	s := newTestServer(t)
	testutil.FailCounts(t, s.db, "vendors", errors.New("connection reset"))

	status, body := s.do(http.MethodGet, "/api/health", "", nil)
	require.Equal(t, fiber.StatusOK, status)
	var health dto.HealthResponse
	require.NoError(t, json.Unmarshal(body, &health))
	assert.Equal(t, "degraded", health.Status)
	assert.Contains(t, health.DB, "connection reset")
}

func TestStorefrontSettingsAndLegal(t *testing.T) {
	s := newTestServer(t)
	vendor, _ := testutil.CreateVendor(t, s.db, "acme")
	require.NoError(t, s.db.Create(&models.StoreSetting{
		VendorID: vendor.ID, Key: "announcement_message", Value: "Spring sale", Type: "string",
	}).Error)

	status, body := s.do(http.MethodGet, "/api/storefront/settings?domain=acme.shops.test", "", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(body), "Spring sale")

	status, body = s.do(http.MethodGet, "/api/storefront/legal/privacy", "", nil, "X-Store-Domain", "acme.shops.test")
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(body), "acme store")
}
