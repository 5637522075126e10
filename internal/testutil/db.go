// Package testutil holds helpers shared by package tests.
package testutil

import (
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens an in-memory SQLite database with the shared schema plus extra models migrated.
func NewDB(t *testing.T, extra ...interface{}) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	// A single connection keeps every query on the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.MigrateShared(db))
	require.NoError(t, database.MigrateModels(db, extra))
	return db
}

// CatalogModels are the tables the catalog, cart and order tests need.
func CatalogModels() []interface{} {
	return []interface{}{
		&models.Category{},
		&models.Product{},
		&models.ProductVariant{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	}
}

// Config returns a configuration suitable for tests.
func Config() *config.Config {
	return &config.Config{
		JWTSecret:             "test-secret",
		JWTAccessExpiry:       15 * time.Minute,
		JWTRefreshExpiry:      24 * time.Hour,
		OTPLength:             6,
		OTPTTL:                10 * time.Minute,
		OTPMaxAttempts:        3,
		OTPResendCooldown:     time.Minute,
		PlatformBaseDomain:    "shops.test",
		AdminEmails:           "root@platform.test",
		DomainCacheTTL:        time.Minute,
		TaxRate:               decimal.RequireFromString("0.08"),
		ShippingFee:           decimal.RequireFromString("9.99"),
		FreeShippingThreshold: decimal.NewFromInt(50),
		Currency:              "USD",
		PaymentWebhookSecret:  "whsec",
		LogRetentionDays:      30,
	}
}

// CreateUser inserts a user with the given role.
func CreateUser(t *testing.T, db *gorm.DB, email, role string) *models.User {
	t.Helper()
	user := &models.User{Email: email, Role: role}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateVendor inserts an active vendor owned by a new seller.
func CreateVendor(t *testing.T, db *gorm.DB, subdomain string) (*models.Vendor, *models.User) {
	t.Helper()
	owner := CreateUser(t, db, subdomain+"@sellers.test", models.RoleSeller)
	vendor := &models.Vendor{
		OwnerID:      owner.ID,
		Name:         subdomain + " store",
		Subdomain:    subdomain,
		ContactEmail: owner.Email,
		Status:       models.VendorStatusActive,
	}
	require.NoError(t, db.Create(vendor).Error)
	return vendor, owner
}

// CreateProduct inserts an active product for vendor.
func CreateProduct(t *testing.T, db *gorm.DB, vendorID uuid.UUID, name, price string, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		VendorID: vendorID,
		Name:     name,
		Slug:     slugFor(name),
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		Status:   models.ProductStatusActive,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

// CreateVariant inserts a variant of product.
func CreateVariant(t *testing.T, db *gorm.DB, productID uuid.UUID, sku, color, size, price string, stock int) *models.ProductVariant {
	t.Helper()
	variant := &models.ProductVariant{
		ProductID: productID,
		SKU:       sku,
		Color:     color,
		Size:      size,
		Price:     decimal.RequireFromString(price),
		Stock:     stock,
	}
	require.NoError(t, db.Create(variant).Error)
	return variant
}

func slugFor(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		default:
			out = append(out, '-')
		}
	}
	return string(out)
}

// FailCounts makes every COUNT query against table fail with err.
func FailCounts(t *testing.T, db *gorm.DB, table string, err error) {
	t.Helper()
	require.NoError(t, db.Callback().Query().Before("gorm:query").
		Register("testutil:fail_counts:"+table, func(tx *gorm.DB) {
			if _, ok := tx.Statement.Dest.(*int64); ok && tx.Statement.Table == table {
				_ = tx.AddError(err)
			}
		}))
}
