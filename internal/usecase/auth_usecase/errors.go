package auth

import (
	"errors"
	"fmt"
	"time"
)

var (
	// 入力が不正
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrInvalidName        = errors.New("name required")
	ErrPasswordTooShort   = errors.New("password too short")
	ErrWeakPassword       = errors.New("weak password")

	// 競合
	ErrEmailAlreadyExists = errors.New("email already exists")

	// メールまたはパスワードが違う
	ErrInvalidCredentials = errors.New("invalid credentials")
	// 停止済みユーザー
	ErrUserInactive = errors.New("user is inactive")

	// 期限切れ・使用済み・存在しない
	ErrInvalidResetToken = errors.New("invalid or expired reset token")
)

// レート制限に引っかかった
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}
