package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Configはアプリ全体の設定
type Config struct {
	Port     string // サーバーポート（:8080）
	GoEnv    string // dev/prod
	LogLevel string // debug/info/warn/error

	DBDriver    string // postgres/sqlite
	DatabaseURL string // あればPOSTGRES_*/SQLITE_PATHより優先

	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート（5432）
	PostgresSSLMode  string

	SQLitePath string

	JWTSecret         string // セッションJWT署名シークレット
	DeliveryJWTSecret string // 配達員トークン用（未設定ならJWTSecret）
	SessionTTL        time.Duration
	DeliveryTokenTTL  time.Duration
	CookieSecure      bool

	RateLimitStore       string // memory/db
	RateLimitLoginMax    int
	RateLimitLoginWindow time.Duration
	RateLimitSweepEvery  time.Duration

	IngressRPS   float64 // IPごとの流量制限
	IngressBurst int

	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSSenderAddress   string // 空ならメールはログ出力のみ

	StoreURL string // メール内リンク

	AdminEmail    string // 両方あれば起動時に管理者を作る
	AdminPassword string
}

func (c Config) IsProd() bool {
	return c.GoEnv == "prod"
}

// Loadは環境変数
func Load() (Config, error) {
	var err error
	cfg := Config{
		GoEnv:    getenv("GO_ENV", "dev"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		DBDriver:    strings.ToLower(getenv("DB_DRIVER", "postgres")),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		PostgresUser:     getenv("POSTGRES_USER", "postgres"),
		PostgresPassword: getenv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       getenv("POSTGRES_DB", "bakery"),
		PostgresHost:     getenv("POSTGRES_HOST", "localhost"),
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),

		SQLitePath: getenv("SQLITE_PATH", "bakery.db"),

		JWTSecret:         os.Getenv("JWT_SECRET"),
		DeliveryJWTSecret: os.Getenv("DELIVERY_JWT_SECRET"),

		RateLimitStore: strings.ToLower(getenv("RATE_LIMIT_STORE", "memory")),

		AWSRegion:          os.Getenv("AWS_REGION"),
		AWSAccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		AWSSenderAddress:   os.Getenv("AWS_SENDER_ADDRESS"),

		StoreURL: strings.TrimRight(getenv("STORE_URL", "http://localhost:3000"), "/"),

		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	cfg.Port = getenv("PORT", "8080")
	if cfg.Port[0] != ':' {
		cfg.Port = ":" + cfg.Port
	}

	if cfg.PostgresPort, err = atoiDefault("POSTGRES_PORT", 5432); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = durationDefault("SESSION_TTL", 7*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.DeliveryTokenTTL, err = durationDefault("DELIVERY_TOKEN_TTL", 7*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.CookieSecure, err = boolDefault("COOKIE_SECURE", cfg.IsProd()); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitLoginMax, err = atoiDefault("RATE_LIMIT_LOGIN_MAX", 5); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitLoginWindow, err = durationDefault("RATE_LIMIT_LOGIN_WINDOW", 15*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitSweepEvery, err = durationDefault("RATE_LIMIT_SWEEP_INTERVAL", 5*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.IngressRPS, err = floatDefault("INGRESS_RATE_RPS", 20); err != nil {
		return Config{}, err
	}
	if cfg.IngressBurst, err = atoiDefault("INGRESS_RATE_BURST", 40); err != nil {
		return Config{}, err
	}

	//必須チェック
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.DeliveryJWTSecret == "" {
		cfg.DeliveryJWTSecret = cfg.JWTSecret
	}
	switch cfg.DBDriver {
	case "postgres", "sqlite":
	default:
		return Config{}, fmt.Errorf("DB_DRIVER must be postgres or sqlite: %q", cfg.DBDriver)
	}
	switch cfg.RateLimitStore {
	case "memory", "db":
	default:
		return Config{}, fmt.Errorf("RATE_LIMIT_STORE must be memory or db: %q", cfg.RateLimitStore)
	}
	if cfg.RateLimitLoginMax <= 0 {
		return Config{}, fmt.Errorf("RATE_LIMIT_LOGIN_MAX must be positive")
	}
	if cfg.RateLimitLoginWindow <= 0 || cfg.RateLimitSweepEvery <= 0 {
		return Config{}, fmt.Errorf("rate limit durations must be positive")
	}
	if cfg.AWSSenderAddress != "" && cfg.AWSRegion == "" {
		return Config{}, fmt.Errorf("AWS_REGION is required when AWS_SENDER_ADDRESS is set")
	}

	return cfg, nil
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func atoiDefault(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func floatDefault(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return f, nil
}

func durationDefault(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be duration: %w", key, err)
	}
	return d, nil
}

func boolDefault(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be bool: %w", key, err)
	}
	return b, nil
}
