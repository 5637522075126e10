package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrInvalidDomain      = errors.New("invalid domain")
	ErrPlatformDomain     = errors.New("platform subdomains cannot be added as custom domains")
	ErrDomainTaken        = errors.New("domain is already registered")
	ErrDomainNotFound     = errors.New("domain not found")
	ErrDomainVerification = errors.New("verification TXT record not found")
)

// VerificationPrefix is prepended to a custom domain to form the TXT record holding its token.
const VerificationPrefix = "_storefront-verify."

// TXTLookup resolves TXT records for name.
type TXTLookup func(ctx context.Context, name string) ([]string, error)

type DomainService struct {
	db        *gorm.DB
	resolver  *tenant.Resolver
	lookupTXT TXTLookup
}

func NewDomainService(db *gorm.DB, resolver *tenant.Resolver) *DomainService {
	return &DomainService{
		db:        db,
		resolver:  resolver,
		lookupTXT: net.DefaultResolver.LookupTXT,
	}
}

// WithTXTLookup replaces the DNS lookup used by Verify.
func (s *DomainService) WithTXTLookup(fn TXTLookup) *DomainService {
	s.lookupTXT = fn
	return s
}

func (s *DomainService) List(ctx context.Context, vendorID uuid.UUID) ([]models.CustomDomain, error) {
	var domains []models.CustomDomain
	err := s.db.WithContext(ctx).Scopes(tenant.ForVendor(vendorID)).Order("created_at").Find(&domains).Error
	return domains, err
}

// Add registers an unverified custom domain for the vendor.
func (s *DomainService) Add(ctx context.Context, vendorID uuid.UUID, domain string) (*models.CustomDomain, error) {
	host := tenant.NormalizeHost(domain)
	if host == "" || !strings.Contains(host, ".") || strings.ContainsAny(host, "/ :@") {
		return nil, ErrInvalidDomain
	}
	base := s.resolver.BaseDomain()
	if host == base || strings.HasSuffix(host, "."+base) {
		return nil, ErrPlatformDomain
	}

	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.CustomDomain{}).Where("domain = ?", host).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check domain: %w", err)
	}
	if count > 0 {
		return nil, ErrDomainTaken
	}

	token := make([]byte, 16)
	if _, err := rand.Read(token); err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	record := &models.CustomDomain{
		VendorID:          vendorID,
		Domain:            host,
		VerificationToken: hex.EncodeToString(token),
	}
	if err := db.Create(record).Error; err != nil {
		return nil, fmt.Errorf("failed to add domain: %w", err)
	}
	return record, nil
}

func (s *DomainService) find(ctx context.Context, vendorID, domainID uuid.UUID) (*models.CustomDomain, error) {
	var d models.CustomDomain
	err := s.db.WithContext(ctx).Scopes(tenant.ForVendor(vendorID)).First(&d, "id = ?", domainID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDomainNotFound
	}
	return &d, err
}

// Verify checks the domain's TXT record for its token and marks it verified.
func (s *DomainService) Verify(ctx context.Context, vendorID, domainID uuid.UUID) (*models.CustomDomain, error) {
	d, err := s.find(ctx, vendorID, domainID)
	if err != nil {
		return nil, err
	}
	if d.Verified() {
		return d, nil
	}

	records, err := s.lookupTXT(ctx, VerificationPrefix+d.Domain)
	if err != nil {
		slog.Info("domain verification lookup failed", "domain", d.Domain, "error", err)
		return nil, ErrDomainVerification
	}
	found := false
	for _, r := range records {
		if strings.TrimSpace(r) == d.VerificationToken {
			found = true
			break
		}
	}
	if !found {
		return nil, ErrDomainVerification
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Model(d).Update("verified_at", &now).Error; err != nil {
		return nil, fmt.Errorf("failed to verify domain: %w", err)
	}
	d.VerifiedAt = &now

	if err := s.resolver.Invalidate(ctx, d.Domain); err != nil {
		slog.Warn("domain cache invalidation failed", "domain", d.Domain, "error", err)
	}
	return d, nil
}

func (s *DomainService) Delete(ctx context.Context, vendorID, domainID uuid.UUID) error {
	d, err := s.find(ctx, vendorID, domainID)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(d).Error; err != nil {
		return fmt.Errorf("failed to delete domain: %w", err)
	}
	if err := s.resolver.Invalidate(ctx, d.Domain); err != nil {
		slog.Warn("domain cache invalidation failed", "domain", d.Domain, "error", err)
	}
	return nil
}
