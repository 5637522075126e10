package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrInvalidRole   = errors.New("invalid role")
	ErrOwnRole       = errors.New("you cannot change your own role")
	ErrRoleForbidden = errors.New("only a super admin can grant or revoke admin roles")
)

type Stats struct {
	UsersByRole     map[string]int64 `json:"users_by_role"`
	VendorsByStatus map[string]int64 `json:"vendors_by_status"`
	Products        int64            `json:"products"`
	Orders          int64            `json:"orders"`
	GrossRevenue    decimal.Decimal  `json:"gross_revenue"`
}

type AdminService struct {
	db *gorm.DB
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{db: db}
}

type groupCount struct {
	Label string
	Count int64
}

func (s *AdminService) countBy(db *gorm.DB, model interface{}, column string) (map[string]int64, error) {
	var rows []groupCount
	if err := db.Model(model).Select(column + " AS label, COUNT(*) AS count").Group(column).Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Label] = r.Count
	}
	return out, nil
}

func (s *AdminService) Stats(ctx context.Context) (*Stats, error) {
	db := s.db.WithContext(ctx)
	stats := &Stats{}

	var err error
	if stats.UsersByRole, err = s.countBy(db, &models.User{}, "role"); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	if stats.VendorsByStatus, err = s.countBy(db, &models.Vendor{}, "status"); err != nil {
		return nil, fmt.Errorf("count vendors: %w", err)
	}
	if err := db.Model(&models.Product{}).Count(&stats.Products).Error; err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	if err := db.Model(&models.Order{}).Count(&stats.Orders).Error; err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	var revenue struct {
		Revenue decimal.NullDecimal
	}
	if err := db.Model(&models.Order{}).
		Where("payment_status = ?", models.PaymentStatusPaid).
		Select("SUM(total) AS revenue").Scan(&revenue).Error; err != nil {
		return nil, fmt.Errorf("sum revenue: %w", err)
	}
	stats.GrossRevenue = decimal.Zero
	if revenue.Revenue.Valid {
		stats.GrossRevenue = revenue.Revenue.Decimal.Round(2)
	}
	return stats, nil
}

func (s *AdminService) ListUsers(ctx context.Context, role string, page, limit int) ([]models.User, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.User{})
	if role != "" {
		query = query.Where("role = ?", role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []models.User
	err := query.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&users).Error
	return users, total, err
}

// SetUserRole changes target's role on behalf of actor, whose effective role is actorRole.
func (s *AdminService) SetUserRole(ctx context.Context, actorID uuid.UUID, actorRole string, targetID uuid.UUID, role string) (*models.User, error) {
	if !models.ValidRole(role) {
		return nil, ErrInvalidRole
	}
	if actorID == targetID {
		return nil, ErrOwnRole
	}

	db := s.db.WithContext(ctx)
	var user models.User
	if err := db.First(&user, "id = ?", targetID).Error; err != nil {
		return nil, ErrUserNotFound
	}

	touchesAdmin := user.IsAdmin() || role == models.RoleAdmin || role == models.RoleSuperAdmin
	if touchesAdmin && actorRole != models.RoleSuperAdmin {
		return nil, ErrRoleForbidden
	}

	if err := db.Model(&user).Update("role", role).Error; err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	user.Role = role
	slog.Info("user role changed", "user_id", targetID.String(), "role", role, "by", actorID.String())
	return &user, nil
}
