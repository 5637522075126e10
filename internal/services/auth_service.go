package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/cache"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/mailer"
	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrOTPCooldown       = errors.New("a code was sent recently, please wait before requesting another")
	ErrInvalidOTP        = errors.New("invalid verification code")
	ErrOTPExpired        = errors.New("verification code expired")
	ErrOTPAttemptsExceed = errors.New("too many attempts, request a new code")
	ErrInvalidToken      = errors.New("invalid or expired refresh token")
	ErrUserNotFound      = errors.New("user not found")
	ErrOwnsActiveStore   = errors.New("close or transfer your active store before deleting the account")
)

type AuthService struct {
	db     *gorm.DB
	cfg    *config.Config
	cache  cache.Cache
	mailer mailer.Mailer
	now    func() time.Time
}

func NewAuthService(db *gorm.DB, cfg *config.Config, c cache.Cache, m mailer.Mailer) *AuthService {
	return &AuthService{
		db:     db,
		cfg:    cfg,
		cache:  c,
		mailer: m,
		now:    time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func cooldownKey(email string) string {
	return "otp:cooldown:" + email
}

// SendOTP emails a fresh code to email. Earlier unconsumed codes stop working.
// The result does not depend on whether an account exists for email.
func (s *AuthService) SendOTP(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	ok, err := s.cache.SetNX(ctx, cooldownKey(email), "1", s.cfg.OTPResendCooldown)
	if err != nil {
		slog.Warn("otp cooldown check failed", "error", err)
	} else if !ok {
		return ErrOTPCooldown
	}

	code, err := generateCode(s.cfg.OTPLength)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash code: %w", err)
	}

	now := s.now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.OtpCode{}).
			Where("email = ? AND consumed_at IS NULL", email).
			Update("consumed_at", now).Error; err != nil {
			return err
		}
		return tx.Create(&models.OtpCode{
			Email:     email,
			CodeHash:  string(hash),
			ExpiresAt: now.Add(s.cfg.OTPTTL),
		}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to store code: %w", err)
	}

	minutes := int(s.cfg.OTPTTL.Minutes())
	if err := s.mailer.Send(ctx, mailer.Message{
		To:      email,
		Subject: "Your sign-in code",
		Body:    fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, minutes),
	}); err != nil {
		_ = s.cache.Delete(ctx, cooldownKey(email))
		return fmt.Errorf("failed to send code: %w", err)
	}
	return nil
}

// VerifyOTP checks code against the latest outstanding code for email and signs the user in,
// creating the account on first use.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (*dto.AuthResponse, error) {
	email = normalizeEmail(email)
	db := s.db.WithContext(ctx)

	var otp models.OtpCode
	if err := db.Where("email = ? AND consumed_at IS NULL", email).
		Order("created_at DESC").First(&otp).Error; err != nil {
		return nil, ErrInvalidOTP
	}

	now := s.now()
	if now.After(otp.ExpiresAt) {
		db.Model(&otp).Update("consumed_at", now)
		return nil, ErrOTPExpired
	}

	// Each comparison claims an attempt up front; once the limit is claimed no
	// further guesses are evaluated, however many requests run in parallel.
	claim := db.Model(&models.OtpCode{}).
		Where("id = ? AND consumed_at IS NULL AND attempts < ?", otp.ID, s.cfg.OTPMaxAttempts).
		UpdateColumn("attempts", gorm.Expr("attempts + 1"))
	if claim.Error != nil {
		return nil, fmt.Errorf("failed to record attempt: %w", claim.Error)
	}
	if claim.RowsAffected == 0 {
		return nil, ErrOTPAttemptsExceed
	}

	if err := bcrypt.CompareHashAndPassword([]byte(otp.CodeHash), []byte(strings.TrimSpace(code))); err != nil {
		var attempts int
		if err := db.Model(&models.OtpCode{}).Where("id = ?", otp.ID).
			Select("attempts").Scan(&attempts).Error; err != nil {
			return nil, fmt.Errorf("failed to read attempts: %w", err)
		}
		if attempts < s.cfg.OTPMaxAttempts {
			return nil, ErrInvalidOTP
		}
		if err := db.Model(&models.OtpCode{}).
			Where("id = ? AND consumed_at IS NULL", otp.ID).
			Update("consumed_at", now).Error; err != nil {
			return nil, fmt.Errorf("failed to burn code: %w", err)
		}
		return nil, ErrOTPAttemptsExceed
	}

	// Conditional update so two concurrent verifications cannot both consume the code.
	res := db.Model(&models.OtpCode{}).
		Where("id = ? AND consumed_at IS NULL", otp.ID).
		Update("consumed_at", now)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to consume code: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrInvalidOTP
	}

	user, err := s.findOrCreateUser(db, email)
	if err != nil {
		return nil, err
	}
	db.Model(user).Update("last_login", now)

	return s.generateTokenPair(db, user)
}

func (s *AuthService) findOrCreateUser(db *gorm.DB, email string) (*models.User, error) {
	var user models.User
	err := db.Where("email = ?", email).First(&user).Error
	if err == nil {
		if s.cfg.IsAdminEmail(email) && user.Role != models.RoleSuperAdmin {
			if err := db.Model(&user).Update("role", models.RoleSuperAdmin).Error; err != nil {
				return nil, fmt.Errorf("failed to promote user: %w", err)
			}
		}
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	user = models.User{
		Email: email,
		Name:  strings.Split(email, "@")[0],
		Role:  models.RoleBuyer,
	}
	if s.cfg.IsAdminEmail(email) {
		user.Role = models.RoleSuperAdmin
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	slog.Info("user created", "user_id", user.ID.String(), "role", user.Role)
	return &user, nil
}

func (s *AuthService) Refresh(ctx context.Context, req *dto.RefreshRequest) (*dto.AuthResponse, error) {
	db := s.db.WithContext(ctx)
	tokenHash := hashToken(req.RefreshToken)

	var stored models.RefreshToken
	if err := db.Where("token_hash = ? AND revoked = ?", tokenHash, false).First(&stored).Error; err != nil {
		return nil, ErrInvalidToken
	}

	db.Model(&stored).Update("revoked", true)
	if s.now().After(stored.ExpiresAt) {
		return nil, ErrInvalidToken
	}

	var user models.User
	if err := db.First(&user, "id = ?", stored.UserID).Error; err != nil {
		return nil, ErrInvalidToken
	}

	return s.generateTokenPair(db, &user)
}

func (s *AuthService) Logout(ctx context.Context, req *dto.LogoutRequest) error {
	return s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ?", hashToken(req.RefreshToken)).
		Update("revoked", true).Error
}

func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*dto.MeResponse, error) {
	db := s.db.WithContext(ctx)
	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, ErrUserNotFound
	}
	resp := s.userResponse(db, &user)
	return &dto.MeResponse{
		User:       resp,
		RedirectTo: RouteForRole(resp.Role, resp.VendorID != nil),
	}, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *dto.UpdateProfileRequest) (*dto.MeResponse, error) {
	db := s.db.WithContext(ctx)
	if err := db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"name":  strings.TrimSpace(req.Name),
		"phone": strings.TrimSpace(req.Phone),
	}).Error; err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return s.Me(ctx, userID)
}

// DeleteAccount anonymises and soft-deletes the user so the email can sign up again.
// Orders keep pointing at the deleted row.
func (s *AuthService) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	db := s.db.WithContext(ctx)
	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		return ErrUserNotFound
	}

	var active int64
	if err := db.Model(&models.Vendor{}).
		Where("owner_id = ? AND status = ?", userID, models.VendorStatusActive).
		Count(&active).Error; err != nil {
		return fmt.Errorf("failed to check stores: %w", err)
	}
	if active > 0 {
		return ErrOwnsActiveStore
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&user).Updates(map[string]interface{}{
			"email": user.ID.String() + "@deleted.invalid",
			"name":  "",
			"phone": "",
		}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
}

func (s *AuthService) userResponse(db *gorm.DB, user *models.User) dto.UserResponse {
	resp := dto.UserResponse{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Phone: user.Phone,
		Role:  user.Role,
	}
	if s.cfg.IsAdminEmail(user.Email) {
		resp.Role = models.RoleSuperAdmin
	}
	var vendor models.Vendor
	if err := db.Select("id").Where("owner_id = ?", user.ID).First(&vendor).Error; err == nil {
		resp.VendorID = &vendor.ID
	}
	return resp
}

func (s *AuthService) generateTokenPair(db *gorm.DB, user *models.User) (*dto.AuthResponse, error) {
	userResp := s.userResponse(db, user)

	accessToken, err := s.generateAccessToken(user, userResp.Role)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.generateRefreshToken(db, user)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		RedirectTo:   RouteForRole(userResp.Role, userResp.VendorID != nil),
		User:         userResp,
	}, nil
}

func (s *AuthService) generateAccessToken(user *models.User, role string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"role":  role,
		"iat":   now.Unix(),
		"exp":   now.Add(s.cfg.JWTAccessExpiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) generateRefreshToken(db *gorm.DB, user *models.User) (string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	rawToken := base64.URLEncoding.EncodeToString(rawBytes)

	record := models.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashToken(rawToken),
		ExpiresAt: s.now().Add(s.cfg.JWTRefreshExpiry),
	}
	if err := db.Create(&record).Error; err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return rawToken, nil
}

// generateCode returns a uniformly random numeric code of the given length.
func generateCode(length int) (string, error) {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to generate code: %w", err)
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}
