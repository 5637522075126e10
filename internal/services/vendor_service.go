package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/events"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrInvalidSubdomain        = errors.New("subdomain must be a DNS label of 3-63 lowercase letters, digits or hyphens")
	ErrReservedSubdomain       = errors.New("subdomain is reserved")
	ErrSubdomainTaken          = errors.New("subdomain is already taken")
	ErrAlreadyVendor           = errors.New("user already owns a store")
	ErrVendorNotFound          = errors.New("vendor not found")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
)

var (
	subdomainPattern   = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)
	reservedSubdomains = map[string]bool{"www": true, "api": true, "admin": true, "app": true, "mail": true}
)

var vendorTransitions = map[string][]string{
	models.VendorStatusPending:   {models.VendorStatusActive, models.VendorStatusRejected},
	models.VendorStatusActive:    {models.VendorStatusSuspended},
	models.VendorStatusSuspended: {models.VendorStatusActive},
}

// NormalizeSubdomain lowercases subdomain and checks it is an allowed DNS label.
func NormalizeSubdomain(subdomain string) (string, error) {
	subdomain = strings.ToLower(strings.TrimSpace(subdomain))
	if len(subdomain) < 3 || len(subdomain) > 63 || !subdomainPattern.MatchString(subdomain) {
		return "", ErrInvalidSubdomain
	}
	if reservedSubdomains[subdomain] {
		return "", ErrReservedSubdomain
	}
	return subdomain, nil
}

type VendorService struct {
	db        *gorm.DB
	settings  *SettingsService
	resolver  *tenant.Resolver
	publisher events.Publisher
}

func NewVendorService(db *gorm.DB, settings *SettingsService, resolver *tenant.Resolver, publisher events.Publisher) *VendorService {
	return &VendorService{
		db:        db,
		settings:  settings,
		resolver:  resolver,
		publisher: publisher,
	}
}

// Apply registers a pending store for ownerID.
func (s *VendorService) Apply(ctx context.Context, ownerID uuid.UUID, req *dto.ApplyVendorRequest) (*models.Vendor, error) {
	vendor := &models.Vendor{
		OwnerID:      ownerID,
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		ContactEmail: normalizeEmail(req.ContactEmail),
		Status:       models.VendorStatusPending,
	}
	if err := s.create(ctx, s.db.WithContext(ctx), vendor, req.Subdomain); err != nil {
		return nil, err
	}
	slog.Info("vendor applied", "vendor_id", vendor.ID.String(), "subdomain", vendor.Subdomain)
	return vendor, nil
}

// Onboard creates an active store for ownerEmail, creating the account when needed.
func (s *VendorService) Onboard(ctx context.Context, req *dto.OnboardVendorRequest) (*models.Vendor, error) {
	email := normalizeEmail(req.OwnerEmail)
	vendor := &models.Vendor{
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		ContactEmail: normalizeEmail(req.ContactEmail),
		Status:       models.VendorStatusActive,
	}
	if vendor.ContactEmail == "" {
		vendor.ContactEmail = email
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner models.User
		err := tx.Where("email = ?", email).First(&owner).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			owner = models.User{Email: email, Name: strings.Split(email, "@")[0], Role: models.RoleSeller}
			if err := tx.Create(&owner).Error; err != nil {
				return fmt.Errorf("failed to create owner: %w", err)
			}
		} else if err != nil {
			return err
		}

		vendor.OwnerID = owner.ID
		now := time.Now()
		vendor.ApprovedAt = &now
		if err := s.create(ctx, tx, vendor, req.Subdomain); err != nil {
			return err
		}
		return s.activate(tx, vendor, &owner)
	})
	if err != nil {
		return nil, err
	}

	s.afterStatusChange(ctx, vendor)
	return vendor, nil
}

func (s *VendorService) create(ctx context.Context, db *gorm.DB, vendor *models.Vendor, subdomain string) error {
	sub, err := NormalizeSubdomain(subdomain)
	if err != nil {
		return err
	}
	vendor.Subdomain = sub

	var count int64
	if err := db.Model(&models.Vendor{}).Where("owner_id = ?", vendor.OwnerID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check existing store: %w", err)
	}
	if count > 0 {
		return ErrAlreadyVendor
	}
	if err := db.Unscoped().Model(&models.Vendor{}).Where("subdomain = ?", sub).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check subdomain: %w", err)
	}
	if count > 0 {
		return ErrSubdomainTaken
	}

	if err := db.Create(vendor).Error; err != nil {
		return fmt.Errorf("failed to create vendor: %w", err)
	}
	// A miss for this host may have been cached before the store existed.
	if err := s.resolver.Invalidate(ctx, s.resolver.SubdomainHost(sub)); err != nil {
		slog.Warn("domain cache invalidation failed", "error", err)
	}
	return nil
}

// activate promotes the owner to seller and seeds default store settings.
func (s *VendorService) activate(tx *gorm.DB, vendor *models.Vendor, owner *models.User) error {
	if owner.Role == models.RoleBuyer {
		if err := tx.Model(owner).Update("role", models.RoleSeller).Error; err != nil {
			return fmt.Errorf("failed to promote owner: %w", err)
		}
	}
	return s.settings.SeedDefaults(tx, vendor)
}

func (s *VendorService) Get(ctx context.Context, vendorID uuid.UUID) (*models.Vendor, error) {
	var vendor models.Vendor
	err := s.db.WithContext(ctx).Preload("Domains").First(&vendor, "id = ?", vendorID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrVendorNotFound
	}
	return &vendor, err
}

func (s *VendorService) List(ctx context.Context, status string, page, limit int) ([]models.Vendor, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Vendor{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var vendors []models.Vendor
	err := query.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&vendors).Error
	return vendors, total, err
}

func (s *VendorService) UpdateProfile(ctx context.Context, vendor *models.Vendor, req *dto.UpdateVendorRequest) (*models.Vendor, error) {
	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.LogoURL != nil {
		updates["logo_url"] = *req.LogoURL
	}
	if req.ContactEmail != nil {
		updates["contact_email"] = normalizeEmail(*req.ContactEmail)
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(vendor).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update vendor: %w", err)
		}
		if err := s.resolver.InvalidateVendor(ctx, vendor); err != nil {
			slog.Warn("domain cache invalidation failed", "vendor_id", vendor.ID.String(), "error", err)
		}
	}
	return s.Get(ctx, vendor.ID)
}

// SetStatus moves a vendor through pending → active|rejected and active ↔ suspended.
func (s *VendorService) SetStatus(ctx context.Context, vendorID uuid.UUID, status string) (*models.Vendor, error) {
	var vendor models.Vendor
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&vendor, "id = ?", vendorID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVendorNotFound
			}
			return err
		}
		if !allowed(vendorTransitions, vendor.Status, status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, vendor.Status, status)
		}

		updates := map[string]interface{}{"status": status}
		if status == models.VendorStatusActive && vendor.ApprovedAt == nil {
			now := time.Now()
			updates["approved_at"] = &now
		}
		if err := tx.Model(&vendor).Updates(updates).Error; err != nil {
			return err
		}
		vendor.Status = status

		if status == models.VendorStatusActive {
			var owner models.User
			if err := tx.First(&owner, "id = ?", vendor.OwnerID).Error; err != nil {
				return fmt.Errorf("failed to load owner: %w", err)
			}
			return s.activate(tx, &vendor, &owner)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterStatusChange(ctx, &vendor)
	return &vendor, nil
}

func (s *VendorService) afterStatusChange(ctx context.Context, vendor *models.Vendor) {
	if err := s.resolver.InvalidateVendor(ctx, vendor); err != nil {
		slog.Warn("domain cache invalidation failed", "vendor_id", vendor.ID.String(), "error", err)
	}
	if err := s.publisher.Publish(ctx, events.VendorStatusChanged, events.NewVendorEvent(vendor)); err != nil {
		slog.Error("failed to publish vendor event", "vendor_id", vendor.ID.String(), "error", err)
	}
	slog.Info("vendor status changed", "vendor_id", vendor.ID.String(), "status", vendor.Status)
}

func allowed(transitions map[string][]string, from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
