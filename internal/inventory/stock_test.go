package inventory

import (
	"testing"

	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReserveAndRelease_Product(t *testing.T) {
	db := testutil.NewDB(t, testutil.CatalogModels()...)
	vendor, _ := testutil.CreateVendor(t, db, "acme")
	product := testutil.CreateProduct(t, db, vendor.ID, "Mug", "12.00", 3)

	require.NoError(t, Reserve(db, product.ID, nil, 2))
	assert.ErrorIs(t, Reserve(db, product.ID, nil, 2), ErrOutOfStock)

	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, "id = ?", product.ID).Error)
	assert.Equal(t, 1, reloaded.Stock)

	require.NoError(t, Release(db, []models.OrderItem{{ProductID: product.ID, Quantity: 2}}))
	require.NoError(t, db.First(&reloaded, "id = ?", product.ID).Error)
	assert.Equal(t, 3, reloaded.Stock)
}

func TestReserve_VariantStockOnly(t *testing.T) {
	db := testutil.NewDB(t, testutil.CatalogModels()...)
	vendor, _ := testutil.CreateVendor(t, db, "acme")
	product := testutil.CreateProduct(t, db, vendor.ID, "Tee", "20.00", 100)
	variant := testutil.CreateVariant(t, db, product.ID, "TEE-RED-M", "Red", "M", "20.00", 1)

	require.NoError(t, Reserve(db, product.ID, &variant.ID, 1))
	assert.ErrorIs(t, Reserve(db, product.ID, &variant.ID, 1), ErrOutOfStock)

	var p models.Product
	require.NoError(t, db.First(&p, "id = ?", product.ID).Error)
	assert.Equal(t, 100, p.Stock)
}

func TestReserve_RejectsNonPositive(t *testing.T) {
	db := testutil.NewDB(t, testutil.CatalogModels()...)
	vendor, _ := testutil.CreateVendor(t, db, "acme")
	product := testutil.CreateProduct(t, db, vendor.ID, "Mug", "12.00", 3)

	assert.Error(t, Reserve(db, product.ID, nil, 0))
}
