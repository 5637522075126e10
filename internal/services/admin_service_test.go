package services

import (
	"context"
	"testing"

	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminService_Stats(t *testing.T) {
	db := testutil.NewDB(t, testutil.CatalogModels()...)
	svc := NewAdminService(db)

	paid, _ := placeOrder(t, db, "ORD-20260101-BBBB01", models.OrderStatusConfirmed, 2)
	placeOrder(t, db, "ORD-20260101-BBBB02", models.OrderStatusPending, 1)
	require.NoError(t, db.Model(paid).Update("payment_status", models.PaymentStatusPaid).Error)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.UsersByRole[models.RoleBuyer])
	assert.Equal(t, int64(2), stats.UsersByRole[models.RoleSeller])
	assert.Equal(t, int64(2), stats.VendorsByStatus[models.VendorStatusActive])
	assert.Equal(t, int64(2), stats.Products)
	assert.Equal(t, int64(2), stats.Orders)
	assert.Equal(t, "20.00", stats.GrossRevenue.StringFixed(2))
}

func TestAdminService_SetUserRole(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewAdminService(db)
	ctx := context.Background()

	root := testutil.CreateUser(t, db, "root@platform.test", models.RoleSuperAdmin)
	admin := testutil.CreateUser(t, db, "admin@platform.test", models.RoleAdmin)
	buyer := testutil.CreateUser(t, db, "buyer@example.com", models.RoleBuyer)

	_, err := svc.SetUserRole(ctx, admin.ID, models.RoleAdmin, admin.ID, models.RoleSuperAdmin)
	assert.ErrorIs(t, err, ErrOwnRole)

	_, err = svc.SetUserRole(ctx, admin.ID, models.RoleAdmin, buyer.ID, "owner")
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = svc.SetUserRole(ctx, admin.ID, models.RoleAdmin, buyer.ID, models.RoleAdmin)
	assert.ErrorIs(t, err, ErrRoleForbidden)

	updated, err := svc.SetUserRole(ctx, admin.ID, models.RoleAdmin, buyer.ID, models.RoleSeller)
	require.NoError(t, err)
	assert.Equal(t, models.RoleSeller, updated.Role)

	_, err = svc.SetUserRole(ctx, admin.ID, models.RoleAdmin, root.ID, models.RoleBuyer)
	assert.ErrorIs(t, err, ErrRoleForbidden)

	updated, err = svc.SetUserRole(ctx, root.ID, models.RoleSuperAdmin, admin.ID, models.RoleBuyer)
	require.NoError(t, err)
	assert.Equal(t, models.RoleBuyer, updated.Role)

	users, total, err := svc.ListUsers(ctx, models.RoleBuyer, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, admin.ID, users[0].ID)
}
