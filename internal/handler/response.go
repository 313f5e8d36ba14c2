package handler

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"bakery/internal/middleware"
	"bakery/internal/usecase"
	auth "bakery/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
)

// ErrorResponse は { "error": string } の形
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse は { "message": string } の形
type SuccessResponse struct {
	Message string `json:"message"`
}

// usecaseのエラーをHTTPレスポンスへ
func writeError(c echo.Context, err error) error {
	if he, ok := usecase.AsHTTPError(err); ok {
		if he.Status >= http.StatusInternalServerError {
			slog.ErrorContext(c.Request().Context(), "request failed",
				"method", c.Request().Method, "path", c.Path(), "err", err)
		}
		if he.RetryAfter > 0 {
			setRetryAfter(c, he.RetryAfter)
		}
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}

	slog.ErrorContext(c.Request().Context(), "unexpected error",
		"method", c.Request().Method, "path", c.Path(), "err", err)
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// authパッケージのsentinelエラーをステータスへ
func writeAuthError(c echo.Context, err error) error {
	var rl *auth.RateLimitedError
	switch {
	case errors.As(err, &rl):
		setRetryAfter(c, rl.RetryAfter)
		return c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "too many attempts, try again later"})
	case errors.Is(err, auth.ErrInvalidEmailFormat),
		errors.Is(err, auth.ErrInvalidName),
		errors.Is(err, auth.ErrPasswordTooShort),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrInvalidResetToken):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, auth.ErrEmailAlreadyExists):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrUserNotFound):
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
	case errors.Is(err, auth.ErrUserInactive):
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})
	default:
		return writeError(c, err)
	}
}

// 秒に切り上げ（最低1秒）
func setRetryAfter(c echo.Context, d time.Duration) {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
}

// middleware.AuthJWT が c.Set("user_id", int64) した値を取り出す
func getUserIDFromContext(c echo.Context) (int64, bool) {
	id, ok := c.Get(middleware.CtxUserIDKey).(int64)
	if !ok || id <= 0 {
		return 0, false
	}
	return id, true
}

// middleware.DeliveryAuth が入れた配達員ID
func getPartnerIDFromContext(c echo.Context) (int64, bool) {
	id, ok := c.Get(middleware.CtxDeliveryPartnerIDKey).(int64)
	if !ok || id <= 0 {
		return 0, false
	}
	return id, true
}

func parseIDParam(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// 空なら既定値、数字でなければ ok=false
func queryInt(c echo.Context, name string, def int) (int, bool) {
	s := c.QueryParam(name)
	if s == "" {
		return def, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// 空ならnil
func queryInt64Ptr(c echo.Context, name string) (*int64, bool) {
	s := c.QueryParam(name)
	if s == "" {
		return nil, true
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, false
	}
	return &n, true
}

// RFC3339。空ならnil
func queryTimePtr(c echo.Context, name string) (*time.Time, bool) {
	s := c.QueryParam(name)
	if s == "" {
		return nil, true
	}
	tm, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, false
	}
	return &tm, true
}
