package auth

import (
	"context"
	"strings"

	"bakery/internal/ratelimit"
)

// ログイン等の試行回数制限
type Limiter interface {
	Allow(ctx context.Context, key string) (ratelimit.Decision, error)
}

func LoginKey(email string) string {
	return "login:" + strings.ToLower(strings.TrimSpace(email))
}

func DeliveryLoginKey(phone string) string {
	return "delivery-login:" + strings.TrimSpace(phone)
}

func ForgotPasswordKey(email string) string {
	return "forgot:" + strings.ToLower(strings.TrimSpace(email))
}

// 許可されなければ *RateLimitedError
func CheckLimit(ctx context.Context, l Limiter, key string) error {
	d, err := l.Allow(ctx, key)
	if err != nil {
		return err
	}
	if !d.Allowed {
		return &RateLimitedError{RetryAfter: d.RetryAfter}
	}
	return nil
}
