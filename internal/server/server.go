package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"bakery/internal/config"
	"bakery/internal/middleware"
	"bakery/internal/repository"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// echoの組み立て（共通ミドルウェア + ルート）
func New(cfg config.Config, logger *slog.Logger, userRepo repository.UserRepository, partnerRepo repository.DeliveryPartnerRepository, throttle *middleware.IPThrottle, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLogger(logger))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	RegisterRoutes(e, cfg, userRepo, partnerRepo, throttle, h)
	return e
}

// 別goroutineで起動し、停止用の関数を返す
func Start(e *echo.Echo, addr string, logger *slog.Logger) func(ctx context.Context) error {
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "err", err)
		}
	}()
	logger.Info("http server listening", "addr", addr)

	return e.Shutdown
}
