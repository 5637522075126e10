package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/cache"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/tenant"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/testutil"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bearer(t *testing.T, user *models.User, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"role":  role,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testutil.Config().JWTSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func TestRoleRequired_UsesDatabaseRole(t *testing.T) {
	db := testutil.NewDB(t)
	cfg := testutil.Config()
	user := testutil.CreateUser(t, db, "ops@platform.test", models.RoleBuyer)

	app := fiber.New()
	app.Get("/admin", JWTProtected(cfg), AdminRequired(db, cfg), func(c *fiber.Ctx) error {
		return c.SendString(tenant.GetRole(c))
	})

	// The token claims admin but the stored role is buyer.
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", bearer(t, user, models.RoleAdmin))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	require.NoError(t, db.Model(user).Update("role", models.RoleAdmin).Error)
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", bearer(t, user, models.RoleBuyer))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRoleRequired_AdminEmailIsSuperAdmin(t *testing.T) {
	db := testutil.NewDB(t)
	cfg := testutil.Config()
	root := testutil.CreateUser(t, db, "root@platform.test", models.RoleBuyer)

	app := fiber.New()
	app.Get("/root", JWTProtected(cfg), RoleRequired(db, cfg, models.RoleSuperAdmin), func(c *fiber.Ctx) error {
		return c.SendString(tenant.GetRole(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/root", nil)
	req.Header.Set("Authorization", bearer(t, root, models.RoleBuyer))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestJWTProtected_RejectsMissingToken(t *testing.T) {
	app := fiber.New()
	app.Get("/me", JWTProtected(testutil.Config()), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestVendorRequired(t *testing.T) {
	db := testutil.NewDB(t)
	cfg := testutil.Config()
	vendor, owner := testutil.CreateVendor(t, db, "acme")
	buyer := testutil.CreateUser(t, db, "buyer@example.test", models.RoleBuyer)

	app := fiber.New()
	handler := func(c *fiber.Ctx) error { return c.SendString(tenant.GetVendor(c).Subdomain) }
	app.Get("/vendor", JWTProtected(cfg), VendorRequired(db), handler)
	app.Put("/vendor", JWTProtected(cfg), VendorRequired(db), handler)

	req := httptest.NewRequest(http.MethodGet, "/vendor", nil)
	req.Header.Set("Authorization", bearer(t, buyer, models.RoleBuyer))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest(http.MethodPut, "/vendor", nil)
	req.Header.Set("Authorization", bearer(t, owner, models.RoleSeller))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.NoError(t, db.Model(vendor).Update("status", models.VendorStatusSuspended).Error)

	req = httptest.NewRequest(http.MethodPut, "/vendor", nil)
	req.Header.Set("Authorization", bearer(t, owner, models.RoleSeller))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/vendor", nil)
	req.Header.Set("Authorization", bearer(t, owner, models.RoleSeller))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestStorefront_ResolvesHostSources(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateVendor(t, db, "acme")
	resolver := tenant.NewResolver(db, cache.NewMemoryCache(), "shops.test", time.Minute)

	app := fiber.New()
	app.Get("/store", Storefront(resolver), func(c *fiber.Ctx) error {
		return c.SendString(tenant.GetVendor(c).Subdomain)
	})

	req := httptest.NewRequest(http.MethodGet, "/store", nil)
	req.Header.Set("X-Store-Domain", "ACME.shops.test")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/store?domain=acme.shops.test", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/store", nil)
	req.Host = "acme.shops.test:8080"
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/store", nil)
	req.Host = "unknown.shops.test"
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
