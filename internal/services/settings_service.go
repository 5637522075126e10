package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrSettingNotFound    = errors.New("setting not found")
	ErrInvalidSettingType = errors.New("value does not match setting type")
)

type SettingsService struct {
	db       *gorm.DB
	currency string
}

func NewSettingsService(db *gorm.DB, currency string) *SettingsService {
	return &SettingsService{db: db, currency: currency}
}

// All returns the vendor's settings decoded by type.
func (s *SettingsService) All(ctx context.Context, vendorID uuid.UUID) (map[string]interface{}, error) {
	var settings []models.StoreSetting
	if err := s.db.WithContext(ctx).Scopes(tenant.ForVendor(vendorID)).Find(&settings).Error; err != nil {
		return nil, err
	}

	result := make(map[string]interface{}, len(settings))
	for _, st := range settings {
		result[st.Key] = decodeSetting(st)
	}
	return result, nil
}

func (s *SettingsService) Get(ctx context.Context, vendorID uuid.UUID, key string) (*models.StoreSetting, error) {
	var st models.StoreSetting
	err := s.db.WithContext(ctx).Scopes(tenant.ForVendor(vendorID)).Where("key = ?", key).First(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSettingNotFound
	}
	return &st, err
}

// Set creates or replaces a setting. typ defaults to "string".
func (s *SettingsService) Set(ctx context.Context, vendorID uuid.UUID, key, value, typ string) (*models.StoreSetting, error) {
	if typ == "" {
		typ = "string"
	}
	if err := checkSettingValue(value, typ); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	st, err := s.Get(ctx, vendorID, key)
	if errors.Is(err, ErrSettingNotFound) {
		st = &models.StoreSetting{VendorID: vendorID, Key: key, Value: value, Type: typ}
		if err := db.Create(st).Error; err != nil {
			return nil, fmt.Errorf("failed to create setting: %w", err)
		}
		return st, nil
	}
	if err != nil {
		return nil, err
	}

	st.Value = value
	st.Type = typ
	if err := db.Save(st).Error; err != nil {
		return nil, fmt.Errorf("failed to update setting: %w", err)
	}
	return st, nil
}

func (s *SettingsService) Delete(ctx context.Context, vendorID uuid.UUID, key string) error {
	res := s.db.WithContext(ctx).Scopes(tenant.ForVendor(vendorID)).Where("key = ?", key).Delete(&models.StoreSetting{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSettingNotFound
	}
	return nil
}

// SeedDefaults creates the default settings a new store starts with. Existing keys are left alone.
func (s *SettingsService) SeedDefaults(tx *gorm.DB, vendor *models.Vendor) error {
	defaults := []models.StoreSetting{
		{Key: "store_name", Value: vendor.Name, Type: "string"},
		{Key: "currency", Value: s.currency, Type: "string"},
		{Key: "maintenance_mode", Value: "false", Type: "bool"},
		{Key: "announcement_message", Value: "", Type: "string"},
	}

	for _, d := range defaults {
		var existing models.StoreSetting
		err := tx.Where("vendor_id = ? AND key = ?", vendor.ID, d.Key).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		d.VendorID = vendor.ID
		if err := tx.Create(&d).Error; err != nil {
			return err
		}
	}
	return nil
}

func decodeSetting(st models.StoreSetting) interface{} {
	var value interface{}
	switch st.Type {
	case "bool":
		value, _ = strconv.ParseBool(st.Value)
	case "int":
		value, _ = strconv.Atoi(st.Value)
	case "json":
		_ = json.Unmarshal([]byte(st.Value), &value)
	default:
		value = st.Value
	}
	return value
}

func checkSettingValue(value, typ string) error {
	var err error
	switch typ {
	case "string":
	case "bool":
		_, err = strconv.ParseBool(value)
	case "int":
		_, err = strconv.Atoi(value)
	case "json":
		if !json.Valid([]byte(value)) {
			err = ErrInvalidSettingType
		}
	default:
		return ErrInvalidSettingType
	}
	if err != nil {
		return ErrInvalidSettingType
	}
	return nil
}
