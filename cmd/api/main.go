package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bakery/internal/config"
	"bakery/internal/domain/model"
	"bakery/internal/handler"
	"bakery/internal/infra/db"
	"bakery/internal/infra/notifier"
	infraRepo "bakery/internal/infra/repository"
	"bakery/internal/middleware"
	"bakery/internal/ratelimit"
	"bakery/internal/repository"
	"bakery/internal/server"
	"bakery/internal/usecase"
	auth "bakery/internal/usecase/auth_usecase"

	"github.com/joho/godotenv"
)

// メール送信先（注文通知 + パスワード再設定）
type mailer interface {
	usecase.Notifier
	auth.ResetMailer
}

func main() {
	//.envは無くてもよい（本番は環境変数）
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Error("load .env", "err", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	//DB接続
	gormDB, err := db.Connect(cfg, logger)
	if err != nil {
		return err
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	resetRepo := infraRepo.NewPasswordResetTokenRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	categoryRepo := infraRepo.NewCategoryGormRepository(gormDB)
	wishlistRepo := infraRepo.NewWishlistGormRepository(gormDB)
	addressRepo := infraRepo.NewAddressGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	partnerRepo := infraRepo.NewDeliveryPartnerGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//bcrypt（会員登録：Hash / ログイン：Verify）
	hasher := auth.NewBcryptPasswordHasher(12)
	verifier := auth.NewBcryptPasswordVerifier()
	clock := auth.SystemClock{}

	if err := seedAdmin(ctx, cfg, userRepo, hasher, logger); err != nil {
		return err
	}

	//ログイン系のレート制限（memory: 単一プロセス / db: 複数台で共有）
	var store ratelimit.Store = ratelimit.NewMemoryStore()
	if cfg.RateLimitStore == "db" {
		store = infraRepo.NewRateLimitCounterGormStore(gormDB)
	}
	limiter := ratelimit.New(store, cfg.RateLimitLoginMax, cfg.RateLimitLoginWindow)
	go limiter.Run(ctx, cfg.RateLimitSweepEvery, logger)

	throttle := middleware.NewIPThrottle(cfg.IngressRPS, cfg.IngressBurst)
	go throttle.Run(ctx, time.Minute)

	mail, err := newMailer(ctx, cfg, logger)
	if err != nil {
		return err
	}

	//Usecase生成
	registerUC := auth.NewRegisterUserUsecase(userRepo, hasher, clock)
	loginUC := auth.NewLoginUsecase(userRepo, verifier, auth.NewJWTIssuer(cfg.JWTSecret, cfg.SessionTTL), limiter, clock)
	sessionUC := auth.NewSessionUsecase(userRepo)
	resetUC := auth.NewPasswordResetUsecase(userRepo, resetRepo, txm, hasher, mail, limiter, clock, cfg.StoreURL, logger)

	productUC := usecase.NewProductUsecase(productRepo, categoryRepo)
	wishlistUC := usecase.NewWishlistUsecase(wishlistRepo, productRepo)
	addressUC := usecase.NewAddressUsecase(addressRepo)
	orderUC := usecase.NewOrderUsecase(txm, userRepo, mail, logger)
	adminOrderUC := usecase.NewAdminOrderUsecase(txm, auditRepo, mail, logger)
	partnerUC := usecase.NewDeliveryPartnerUsecase(txm, hasher)
	deliveryUC := usecase.NewDeliveryUsecase(txm, verifier,
		auth.NewDeliveryTokenIssuer(cfg.DeliveryJWTSecret, cfg.DeliveryTokenTTL), limiter, clock)

	//Handler生成
	e := server.New(cfg, logger, userRepo, partnerRepo, throttle, server.Handlers{
		Auth:            handler.NewAuthHandler(registerUC, loginUC, sessionUC, resetUC, cfg),
		Product:         handler.NewProductHandler(productUC),
		AdminProduct:    handler.NewAdminProductHandler(productUC),
		Wishlist:        handler.NewWishlistHandler(wishlistUC),
		Address:         handler.NewAddressHandler(addressUC),
		Order:           handler.NewOrderHandler(orderUC),
		AdminOrder:      handler.NewAdminOrderHandler(adminOrderUC),
		DeliveryPartner: handler.NewAdminDeliveryPartnerHandler(partnerUC),
		Delivery:        handler.NewDeliveryHandler(deliveryUC),
	})

	//Server起動
	shutdown := server.Start(e, cfg.Port, logger)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return shutdown(shutdownCtx)
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if cfg.IsProd() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// AWS_SENDER_ADDRESSがあればSES、なければログ出力
func newMailer(ctx context.Context, cfg config.Config, logger *slog.Logger) (mailer, error) {
	if cfg.AWSSenderAddress == "" {
		logger.Info("AWS_SENDER_ADDRESS not set, emails are logged only")
		return notifier.NewLogNotifier(logger), nil
	}
	client, err := notifier.NewSESClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return notifier.NewSESNotifier(client, cfg.AWSSenderAddress, logger), nil
}

// ADMIN_EMAIL / ADMIN_PASSWORD があれば管理者を用意する（既存なら何もしない）
func seedAdmin(ctx context.Context, cfg config.Config, users repository.UserRepository, hasher auth.PasswordHasher, logger *slog.Logger) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}
	email := auth.NormalizeEmail(cfg.AdminEmail)

	_, err := users.FindByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	hashed, err := hasher.Hash(cfg.AdminPassword)
	if err != nil {
		return err
	}
	admin := &model.User{
		Name:         "Admin",
		Email:        email,
		PasswordHash: hashed,
		Role:         model.RoleAdmin,
		IsActive:     true,
	}
	if err := users.Create(ctx, admin); err != nil && !errors.Is(err, repository.ErrDuplicate) {
		return err
	}
	logger.Info("admin user created", "email", email)
	return nil
}
