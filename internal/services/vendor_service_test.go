package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/cache"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/events"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/tenant"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type vendorFixture struct {
	db       *gorm.DB
	svc      *VendorService
	settings *SettingsService
	resolver *tenant.Resolver
	events   *events.MemoryPublisher
}

func newVendorFixture(t *testing.T) *vendorFixture {
	t.Helper()
	db := testutil.NewDB(t)
	resolver := tenant.NewResolver(db, cache.NewMemoryCache(), "shops.test", time.Minute)
	settings := NewSettingsService(db, "USD")
	pub := events.NewMemoryPublisher()
	return &vendorFixture{
		db:       db,
		svc:      NewVendorService(db, settings, resolver, pub),
		settings: settings,
		resolver: resolver,
		events:   pub,
	}
}

func TestNormalizeSubdomain(t *testing.T) {
	got, err := NormalizeSubdomain("  Acme-Shop ")
	require.NoError(t, err)
	assert.Equal(t, "acme-shop", got)

	for _, bad := range []string{"ab", "-acme", "acme-", "acme.shop", "acme_shop", ""} {
		_, err := NormalizeSubdomain(bad)
		assert.ErrorIs(t, err, ErrInvalidSubdomain, bad)
	}
	for _, reserved := range []string{"www", "API", "admin", "app", "mail"} {
		_, err := NormalizeSubdomain(reserved)
		assert.ErrorIs(t, err, ErrReservedSubdomain, reserved)
	}
}

func TestApply_PendingUntilActivated(t *testing.T) {
	f := newVendorFixture(t)
	ctx := context.Background()
	buyer := testutil.CreateUser(t, f.db, "maker@example.com", models.RoleBuyer)

	// Cache a miss for the host before the store exists.
	_, err := f.resolver.Resolve(ctx, "maker.shops.test")
	assert.ErrorIs(t, err, tenant.ErrStoreNotFound)

	vendor, err := f.svc.Apply(ctx, buyer.ID, &dto.ApplyVendorRequest{Name: "Maker", Subdomain: "Maker"})
	require.NoError(t, err)
	assert.Equal(t, models.VendorStatusPending, vendor.Status)
	assert.Equal(t, "maker", vendor.Subdomain)

	_, err = f.svc.Apply(ctx, buyer.ID, &dto.ApplyVendorRequest{Name: "Again", Subdomain: "again"})
	assert.ErrorIs(t, err, ErrAlreadyVendor)

	other := testutil.CreateUser(t, f.db, "other@example.com", models.RoleBuyer)
	_, err = f.svc.Apply(ctx, other.ID, &dto.ApplyVendorRequest{Name: "Copy", Subdomain: "maker"})
	assert.ErrorIs(t, err, ErrSubdomainTaken)

	// Pending stores do not resolve.
	_, err = f.resolver.Resolve(ctx, "maker.shops.test")
	assert.ErrorIs(t, err, tenant.ErrStoreNotFound)

	activated, err := f.svc.SetStatus(ctx, vendor.ID, models.VendorStatusActive)
	require.NoError(t, err)
	assert.Equal(t, models.VendorStatusActive, activated.Status)

	resolved, err := f.resolver.Resolve(ctx, "maker.shops.test")
	require.NoError(t, err)
	assert.Equal(t, vendor.ID, resolved.ID)

	var owner models.User
	require.NoError(t, f.db.First(&owner, "id = ?", buyer.ID).Error)
	assert.Equal(t, models.RoleSeller, owner.Role)

	settings, err := f.settings.All(ctx, vendor.ID)
	require.NoError(t, err)
	assert.Equal(t, "Maker", settings["store_name"])
	assert.Equal(t, "USD", settings["currency"])
	assert.Equal(t, false, settings["maintenance_mode"])

	assert.Equal(t, []string{events.VendorStatusChanged}, f.events.Keys())
}

func TestApply_GuardErrorCreatesNothing(t *testing.T) {
	f := newVendorFixture(t)
	buyer := testutil.CreateUser(t, f.db, "maker@example.com", models.RoleBuyer)

	boom := errors.New("connection reset")
	testutil.FailCounts(t, f.db, "vendors", boom)

	_, err := f.svc.Apply(context.Background(), buyer.ID, &dto.ApplyVendorRequest{Name: "Maker", Subdomain: "maker"})
	assert.ErrorIs(t, err, boom)

	var vendors []models.Vendor
	require.NoError(t, f.db.Find(&vendors).Error)
	assert.Empty(t, vendors)
}

func TestSetStatus_Transitions(t *testing.T) {
	f := newVendorFixture(t)
	ctx := context.Background()
	vendor, _ := testutil.CreateVendor(t, f.db, "acme")

	_, err := f.svc.SetStatus(ctx, vendor.ID, models.VendorStatusRejected)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	_, err = f.resolver.Resolve(ctx, "acme.shops.test")
	require.NoError(t, err)

	_, err = f.svc.SetStatus(ctx, vendor.ID, models.VendorStatusSuspended)
	require.NoError(t, err)

	// Suspension invalidates the cached resolution.
	_, err = f.resolver.Resolve(ctx, "acme.shops.test")
	assert.ErrorIs(t, err, tenant.ErrStoreNotFound)

	_, err = f.svc.SetStatus(ctx, vendor.ID, models.VendorStatusActive)
	require.NoError(t, err)

	_, err = f.svc.SetStatus(ctx, vendor.ID, models.VendorStatusPending)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func TestOnboard_CreatesOwner(t *testing.T) {
	f := newVendorFixture(t)
	ctx := context.Background()

	vendor, err := f.svc.Onboard(ctx, &dto.OnboardVendorRequest{
		OwnerEmail: "New.Owner@Example.com",
		Name:       "Fresh",
		Subdomain:  "fresh",
	})
	require.NoError(t, err)
	assert.True(t, vendor.IsActive())
	assert.NotNil(t, vendor.ApprovedAt)
	assert.Equal(t, "new.owner@example.com", vendor.ContactEmail)

	var owner models.User
	require.NoError(t, f.db.First(&owner, "id = ?", vendor.OwnerID).Error)
	assert.Equal(t, "new.owner@example.com", owner.Email)
	assert.Equal(t, models.RoleSeller, owner.Role)

	_, err = f.svc.Onboard(ctx, &dto.OnboardVendorRequest{OwnerEmail: "new.owner@example.com", Name: "Twice", Subdomain: "twice"})
	assert.ErrorIs(t, err, ErrAlreadyVendor)
}

func TestUpdateProfile(t *testing.T) {
	f := newVendorFixture(t)
	ctx := context.Background()
	vendor, _ := testutil.CreateVendor(t, f.db, "acme")

	name := "Acme Goods"
	email := "Sales@Acme.test"
	updated, err := f.svc.UpdateProfile(ctx, vendor, &dto.UpdateVendorRequest{Name: &name, ContactEmail: &email})
	require.NoError(t, err)
	assert.Equal(t, "Acme Goods", updated.Name)
	assert.Equal(t, "sales@acme.test", updated.ContactEmail)
}

func TestSettingsService(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	vendor, _ := testutil.CreateVendor(t, db, "acme")
	svc := NewSettingsService(db, "EUR")

	_, err := svc.Set(ctx, vendor.ID, "max_items", "ten", "int")
	assert.ErrorIs(t, err, ErrInvalidSettingType)

	_, err = svc.Set(ctx, vendor.ID, "max_items", "10", "int")
	require.NoError(t, err)
	_, err = svc.Set(ctx, vendor.ID, "banner", `{"color":"red"}`, "json")
	require.NoError(t, err)
	st, err := svc.Set(ctx, vendor.ID, "max_items", "12", "int")
	require.NoError(t, err)
	assert.Equal(t, "12", st.Value)

	all, err := svc.All(ctx, vendor.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, all["max_items"])
	assert.Equal(t, map[string]interface{}{"color": "red"}, all["banner"])

	require.NoError(t, svc.Delete(ctx, vendor.ID, "banner"))
	assert.ErrorIs(t, svc.Delete(ctx, vendor.ID, "banner"), ErrSettingNotFound)

	require.NoError(t, svc.SeedDefaults(db, vendor))
	all, err = svc.All(ctx, vendor.ID)
	require.NoError(t, err)
	assert.Equal(t, "EUR", all["currency"])
	assert.Equal(t, "", all["announcement_message"])
}
