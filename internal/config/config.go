package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// OTP
	OTPLength         int
	OTPTTL            time.Duration
	OTPMaxAttempts    int
	OTPResendCooldown time.Duration

	// Platform
	PlatformBaseDomain string
	AdminEmails        string
	DomainCacheTTL     time.Duration

	// Checkout
	TaxRate               decimal.Decimal
	ShippingFee           decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	Currency              string

	// Redis (empty address uses the in-process cache)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Object storage (empty bucket uses the stub storage)
	S3Endpoint     string
	S3Region       string
	S3Bucket       string
	S3AccessKey    string
	S3SecretKey    string
	S3UsePathStyle bool
	S3PublicURL    string

	// SMTP (empty host logs emails instead of sending them)
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	// AMQP (empty URL disables event publishing)
	AMQPURL      string
	AMQPExchange string

	// Payments
	PaymentWebhookSecret string

	// Server
	Port             string
	CORSOrigins      string
	LogRetentionDays int
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "marketplace_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTAccessExpiry:  parseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m"), 15*time.Minute),
		JWTRefreshExpiry: parseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h"), 168*time.Hour),

		OTPLength:         parseInt(getEnv("OTP_LENGTH", "6"), 6),
		OTPTTL:            parseDuration(getEnv("OTP_TTL", "10m"), 10*time.Minute),
		OTPMaxAttempts:    parseInt(getEnv("OTP_MAX_ATTEMPTS", "5"), 5),
		OTPResendCooldown: parseDuration(getEnv("OTP_RESEND_COOLDOWN", "60s"), time.Minute),

		PlatformBaseDomain: strings.ToLower(getEnv("PLATFORM_BASE_DOMAIN", "shops.localhost")),
		AdminEmails:        getEnv("ADMIN_EMAILS", ""),
		DomainCacheTTL:     parseDuration(getEnv("DOMAIN_CACHE_TTL", "5m"), 5*time.Minute),

		TaxRate:               parseDecimal(getEnv("TAX_RATE", "0.08")),
		ShippingFee:           parseDecimal(getEnv("SHIPPING_FEE", "9.99")),
		FreeShippingThreshold: parseDecimal(getEnv("FREE_SHIPPING_THRESHOLD", "50")),
		Currency:              strings.ToUpper(getEnv("CURRENCY", "USD")),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       parseInt(getEnv("REDIS_DB", "0"), 0),

		S3Endpoint:     getEnv("S3_ENDPOINT", ""),
		S3Region:       getEnv("S3_REGION", "us-east-1"),
		S3Bucket:       getEnv("S3_BUCKET", ""),
		S3AccessKey:    getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:    getEnv("S3_SECRET_KEY", ""),
		S3UsePathStyle: getEnv("S3_USE_PATH_STYLE", "true") == "true",
		S3PublicURL:    getEnv("S3_PUBLIC_URL", ""),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     parseInt(getEnv("SMTP_PORT", "587"), 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "no-reply@shops.localhost"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "marketplace.events"),

		PaymentWebhookSecret: getEnv("PAYMENT_WEBHOOK_SECRET", ""),

		Port:             getEnv("PORT", "8080"),
		CORSOrigins:      getEnv("CORS_ORIGINS", "*"),
		LogRetentionDays: parseInt(getEnv("LOG_RETENTION_DAYS", "30"), 30),
	}
}

// Validate reports the first configuration problem that prevents the server from starting.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is required")
	}
	if c.DBPassword == "" {
		return errors.New("DB_PASSWORD environment variable is required")
	}
	if c.OTPLength < 4 || c.OTPLength > 10 {
		return errors.New("OTP_LENGTH must be between 4 and 10")
	}
	if c.TaxRate.IsNegative() || c.TaxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return errors.New("TAX_RATE must be in [0, 1)")
	}
	if c.ShippingFee.IsNegative() || c.FreeShippingThreshold.IsNegative() {
		return errors.New("SHIPPING_FEE and FREE_SHIPPING_THRESHOLD must not be negative")
	}
	return nil
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// AdminEmailList returns the lowercased ADMIN_EMAILS entries.
func (c *Config) AdminEmailList() []string {
	if c.AdminEmails == "" {
		return nil
	}
	parts := strings.Split(c.AdminEmails, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.ToLower(strings.TrimSpace(p))
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// IsAdminEmail reports whether email is configured as a platform super admin.
func (c *Config) IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	for _, e := range c.AdminEmailList() {
		if e == email {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
