package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/cache"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/models"
	"gorm.io/gorm"
)

var ErrStoreNotFound = errors.New("store not found")

// missMarker is cached for hosts that do not resolve, so unknown hosts do not hit the database.
const missMarker = "-"

// Resolver maps request hosts to active vendors: verified custom domains first, then
// <subdomain>.<base domain>.
type Resolver struct {
	db         *gorm.DB
	cache      cache.Cache
	baseDomain string
	ttl        time.Duration
}

func NewResolver(db *gorm.DB, c cache.Cache, baseDomain string, ttl time.Duration) *Resolver {
	return &Resolver{
		db:         db,
		cache:      c,
		baseDomain: NormalizeHost(baseDomain),
		ttl:        ttl,
	}
}

// NormalizeHost lowercases host and strips any port and trailing dot.
func NormalizeHost(host string) string {
	host = strings.TrimSpace(strings.ToLower(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.TrimSuffix(host, ".")
}

func (r *Resolver) BaseDomain() string {
	return r.baseDomain
}

// SubdomainHost returns the platform hostname of a vendor subdomain.
func (r *Resolver) SubdomainHost(subdomain string) string {
	return subdomain + "." + r.baseDomain
}

func cacheKey(host string) string {
	return "domain:" + host
}

// Resolve returns the active vendor serving host, or ErrStoreNotFound.
func (r *Resolver) Resolve(ctx context.Context, host string) (*models.Vendor, error) {
	host = NormalizeHost(host)
	if host == "" {
		return nil, ErrStoreNotFound
	}

	if cached, ok, err := r.cache.Get(ctx, cacheKey(host)); err != nil {
		slog.Warn("domain cache read failed", "host", host, "error", err)
	} else if ok {
		if cached == missMarker {
			return nil, ErrStoreNotFound
		}
		var v models.Vendor
		if err := json.Unmarshal([]byte(cached), &v); err == nil {
			return &v, nil
		}
	}

	vendor, err := r.lookup(ctx, host)
	if err != nil && !errors.Is(err, ErrStoreNotFound) {
		return nil, err
	}

	value := missMarker
	if vendor != nil {
		if b, mErr := json.Marshal(vendor); mErr == nil {
			value = string(b)
		}
	}
	if cErr := r.cache.Set(ctx, cacheKey(host), value, r.ttl); cErr != nil {
		slog.Warn("domain cache write failed", "host", host, "error", cErr)
	}

	return vendor, err
}

func (r *Resolver) lookup(ctx context.Context, host string) (*models.Vendor, error) {
	db := r.db.WithContext(ctx)

	var domain models.CustomDomain
	err := db.Where("domain = ? AND verified_at IS NOT NULL", host).First(&domain).Error
	if err == nil {
		return r.activeVendor(db.Where("id = ?", domain.VendorID))
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("custom domain lookup: %w", err)
	}

	suffix := "." + r.baseDomain
	if !strings.HasSuffix(host, suffix) {
		return nil, ErrStoreNotFound
	}
	label := strings.TrimSuffix(host, suffix)
	if label == "" || strings.Contains(label, ".") {
		return nil, ErrStoreNotFound
	}
	return r.activeVendor(db.Where("subdomain = ?", label))
}

func (r *Resolver) activeVendor(query *gorm.DB) (*models.Vendor, error) {
	var vendor models.Vendor
	err := query.Where("status = ?", models.VendorStatusActive).First(&vendor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrStoreNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("vendor lookup: %w", err)
	}
	return &vendor, nil
}

// Invalidate drops cached resolutions for hosts.
func (r *Resolver) Invalidate(ctx context.Context, hosts ...string) error {
	keys := make([]string, 0, len(hosts))
	for _, h := range hosts {
		if h = NormalizeHost(h); h != "" {
			keys = append(keys, cacheKey(h))
		}
	}
	return r.cache.Delete(ctx, keys...)
}

// InvalidateVendor drops every cached host that may point at vendor.
func (r *Resolver) InvalidateVendor(ctx context.Context, vendor *models.Vendor) error {
	hosts := []string{r.SubdomainHost(vendor.Subdomain)}

	var domains []models.CustomDomain
	if err := r.db.WithContext(ctx).Where("vendor_id = ?", vendor.ID).Find(&domains).Error; err != nil {
		return fmt.Errorf("list vendor domains: %w", err)
	}
	for _, d := range domains {
		hosts = append(hosts, d.Domain)
	}
	return r.Invalidate(ctx, hosts...)
}
