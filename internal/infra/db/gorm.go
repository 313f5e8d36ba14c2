package db

import (
	"fmt"
	"log/slog"
	"time"

	"bakery/internal/config"
	"bakery/internal/domain/model"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect はDBに接続して *gorm.DB を返す。
func Connect(cfg config.Config, log *slog.Logger) (*gorm.DB, error) {
	switch cfg.DBDriver {
	case "sqlite":
		dsn := cfg.SQLitePath
		if cfg.DatabaseURL != "" {
			dsn = cfg.DatabaseURL
		}
		return gorm.Open(sqlite.Open(dsn), gormConfig(log))
	default:
		// DATABASE_URL があれば最優先で使う
		dsn := cfg.DatabaseURL
		if dsn == "" {
			dsn = fmt.Sprintf(
				"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
				cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser,
				cfg.PostgresPassword, cfg.PostgresDB, cfg.PostgresSSLMode,
			)
		}
		return gorm.Open(postgres.Open(dsn), gormConfig(log))
	}
}

// 開発用・テスト用
func OpenSQLite(dsn string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(dsn), gormConfig(slog.Default()))
}

func gormConfig(log *slog.Logger) *gorm.Config {
	return &gorm.Config{
		//ErrDuplicatedKeyを受け取るため
		TranslateError: true,
		Logger:         NewGormLogger(log),
	}
}

// gormのログをslogに流す（ErrRecordNotFoundは出さない）
func NewGormLogger(log *slog.Logger) logger.Interface {
	return logger.New(slogWriter{log: log}, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

type slogWriter struct {
	log *slog.Logger
}

func (w slogWriter) Printf(format string, args ...interface{}) {
	w.log.Warn("gorm", "detail", fmt.Sprintf(format, args...))
}

// Migrate はテーブルを作成・更新する
func Migrate(gormDB *gorm.DB) error {
	return gormDB.AutoMigrate(
		&model.User{},
		&model.Address{},
		&model.Category{},
		&model.Product{},
		&model.WishlistItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.DeliveryPartner{},
		&model.PasswordResetToken{},
		&model.AuditLog{},
		&model.RateLimitCounter{},
	)
}
