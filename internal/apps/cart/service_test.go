package cart

import (
	"context"
	"testing"

	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/pricing"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	svc   *Service
	buyer *models.User
	ctx   context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t, testutil.CatalogModels()...)
	return &fixture{
		db:    db,
		svc:   NewService(db, pricing.RulesFromConfig(testutil.Config())),
		buyer: testutil.CreateUser(t, db, "buyer@example.com", models.RoleBuyer),
		ctx:   context.Background(),
	}
}

func (f *fixture) add(t *testing.T, productID uuid.UUID, variantID *uuid.UUID, qty int) *models.CartItem {
	t.Helper()
	item, err := f.svc.Add(f.ctx, f.buyer.ID, &AddItemRequest{ProductID: productID, VariantID: variantID, Quantity: qty})
	require.NoError(t, err)
	return item
}

func TestAdd_MergesSameLine(t *testing.T) {
	f := newFixture(t)
	vendor, _ := testutil.CreateVendor(t, f.db, "acme")
	p := testutil.CreateProduct(t, f.db, vendor.ID, "Mug", "12.00", 5)

	first := f.add(t, p.ID, nil, 2)
	second := f.add(t, p.ID, nil, 3)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 5, second.Quantity)

	_, err := f.svc.Add(f.ctx, f.buyer.ID, &AddItemRequest{ProductID: p.ID, Quantity: 1})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	var count int64
	f.db.Model(&models.CartItem{}).Where("user_id = ?", f.buyer.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestAdd_VariantRules(t *testing.T) {
	f := newFixture(t)
	vendor, _ := testutil.CreateVendor(t, f.db, "acme")
	tee := testutil.CreateProduct(t, f.db, vendor.ID, "Tee", "20.00", 0)
	small := testutil.CreateVariant(t, f.db, tee.ID, "TEE-S", "", "S", "20.00", 3)
	large := testutil.CreateVariant(t, f.db, tee.ID, "TEE-L", "", "L", "22.00", 1)
	mug := testutil.CreateProduct(t, f.db, vendor.ID, "Mug", "12.00", 5)
	mugVariant := testutil.CreateVariant(t, f.db, mug.ID, "MUG-1", "White", "", "12.00", 5)

	_, err := f.svc.Add(f.ctx, f.buyer.ID, &AddItemRequest{ProductID: tee.ID, Quantity: 1})
	assert.ErrorIs(t, err, ErrVariantRequired)

	_, err = f.svc.Add(f.ctx, f.buyer.ID, &AddItemRequest{ProductID: tee.ID, VariantID: &mugVariant.ID, Quantity: 1})
	assert.ErrorIs(t, err, ErrVariantNotFound)

	_, err = f.svc.Add(f.ctx, f.buyer.ID, &AddItemRequest{ProductID: tee.ID, VariantID: &large.ID, Quantity: 2})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	s := f.add(t, tee.ID, &small.ID, 2)
	l := f.add(t, tee.ID, &large.ID, 1)
	assert.NotEqual(t, s.ID, l.ID)
}

func TestAdd_OnlyActiveProductsOfActiveVendors(t *testing.T) {
	f := newFixture(t)
	vendor, _ := testutil.CreateVendor(t, f.db, "acme")
	draft := testutil.CreateProduct(t, f.db, vendor.ID, "Draft", "5.00", 5)
	require.NoError(t, f.db.Model(draft).Update("status", models.ProductStatusDraft).Error)

	_, err := f.svc.Add(f.ctx, f.buyer.ID, &AddItemRequest{ProductID: draft.ID, Quantity: 1})
	assert.ErrorIs(t, err, ErrProductUnavailable)

	suspended, _ := testutil.CreateVendor(t, f.db, "gone")
	p := testutil.CreateProduct(t, f.db, suspended.ID, "Lamp", "30.00", 5)
	require.NoError(t, f.db.Model(suspended).Update("status", models.VendorStatusSuspended).Error)

	_, err = f.svc.Add(f.ctx, f.buyer.ID, &AddItemRequest{ProductID: p.ID, Quantity: 1})
	assert.ErrorIs(t, err, ErrProductUnavailable)

	_, err = f.svc.Add(f.ctx, f.buyer.ID, &AddItemRequest{ProductID: uuid.New(), Quantity: 1})
	assert.ErrorIs(t, err, ErrProductUnavailable)
}

func TestGet_TotalsPerVendor(t *testing.T) {
	f := newFixture(t)
	acme, _ := testutil.CreateVendor(t, f.db, "acme")
	bolt, _ := testutil.CreateVendor(t, f.db, "bolt")
	tee := testutil.CreateProduct(t, f.db, acme.ID, "Tee", "20.00", 10)
	jacket := testutil.CreateProduct(t, f.db, bolt.ID, "Jacket", "60.00", 10)

	f.add(t, tee.ID, nil, 2)
	f.add(t, jacket.ID, nil, 1)

	view, err := f.svc.Get(f.ctx, f.buyer.ID)
	require.NoError(t, err)
	require.Len(t, view.Items, 2)
	assert.Equal(t, "40.00", view.Items[0].LineTotal.StringFixed(2))
	assert.Equal(t, "acme store", view.Items[0].VendorName)

	require.Len(t, view.Vendors, 2)
	assert.Equal(t, acme.ID, view.Vendors[0].VendorID)
	assert.Equal(t, "9.99", view.Vendors[0].Summary.Shipping.StringFixed(2))
	assert.Equal(t, "53.19", view.Vendors[0].Summary.Total.StringFixed(2))
	assert.True(t, view.Vendors[1].Summary.Shipping.IsZero())
	assert.Equal(t, "64.80", view.Vendors[1].Summary.Total.StringFixed(2))

	assert.Equal(t, 3, view.Summary.ItemCount)
	assert.Equal(t, "100.00", view.Summary.Subtotal.StringFixed(2))
	assert.Equal(t, "8.00", view.Summary.Tax.StringFixed(2))
	assert.Equal(t, "117.99", view.Summary.Total.StringFixed(2))
}

func TestGet_UnavailableLinesExcludedFromTotals(t *testing.T) {
	f := newFixture(t)
	vendor, _ := testutil.CreateVendor(t, f.db, "acme")
	tee := testutil.CreateProduct(t, f.db, vendor.ID, "Tee", "20.00", 10)
	mug := testutil.CreateProduct(t, f.db, vendor.ID, "Mug", "10.00", 10)
	f.add(t, tee.ID, nil, 1)
	f.add(t, mug.ID, nil, 1)

	require.NoError(t, f.db.Model(mug).Update("status", models.ProductStatusArchived).Error)

	view, err := f.svc.Get(f.ctx, f.buyer.ID)
	require.NoError(t, err)
	require.Len(t, view.Items, 2)
	assert.True(t, view.Items[0].Available)
	assert.False(t, view.Items[1].Available)
	assert.Equal(t, "20.00", view.Summary.Subtotal.StringFixed(2))
}

func TestUpdateRemoveClear(t *testing.T) {
	f := newFixture(t)
	vendor, _ := testutil.CreateVendor(t, f.db, "acme")
	tee := testutil.CreateProduct(t, f.db, vendor.ID, "Tee", "20.00", 4)
	mug := testutil.CreateProduct(t, f.db, vendor.ID, "Mug", "10.00", 4)
	item := f.add(t, tee.ID, nil, 1)
	f.add(t, mug.ID, nil, 1)

	updated, err := f.svc.UpdateQuantity(f.ctx, f.buyer.ID, item.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Quantity)

	_, err = f.svc.UpdateQuantity(f.ctx, f.buyer.ID, item.ID, 5)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	stranger := testutil.CreateUser(t, f.db, "other@example.com", models.RoleBuyer)
	_, err = f.svc.UpdateQuantity(f.ctx, stranger.ID, item.ID, 1)
	assert.ErrorIs(t, err, ErrItemNotFound)
	assert.ErrorIs(t, f.svc.Remove(f.ctx, stranger.ID, item.ID), ErrItemNotFound)

	removed, err := f.svc.UpdateQuantity(f.ctx, f.buyer.ID, item.ID, 0)
	require.NoError(t, err)
	assert.Nil(t, removed)

	view, err := f.svc.Get(f.ctx, f.buyer.ID)
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)

	require.NoError(t, f.svc.Clear(f.ctx, f.buyer.ID))
	view, err = f.svc.Get(f.ctx, f.buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.True(t, view.Summary.Total.IsZero())
}
