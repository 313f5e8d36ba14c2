package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"bakery/internal/domain/model"
	"bakery/internal/repository"
)

const ResetTokenTTL = time.Hour

// 再設定リンクを送る約束
type ResetMailer interface {
	PasswordReset(ctx context.Context, to string, name string, link string) error
}

type PasswordResetUsecase struct {
	userRepo  repository.UserRepository
	tokenRepo repository.PasswordResetTokenRepository
	tx        repository.TransactionManager
	hasher    PasswordHasher
	mailer    ResetMailer
	limiter   Limiter
	clock     Clock
	storeURL  string
	logger    *slog.Logger
}

func NewPasswordResetUsecase(
	userRepo repository.UserRepository,
	tokenRepo repository.PasswordResetTokenRepository,
	tx repository.TransactionManager,
	hasher PasswordHasher,
	mailer ResetMailer,
	limiter Limiter,
	clock Clock,
	storeURL string,
	logger *slog.Logger,
) *PasswordResetUsecase {
	return &PasswordResetUsecase{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		tx:        tx,
		hasher:    hasher,
		mailer:    mailer,
		limiter:   limiter,
		clock:     clock,
		storeURL:  strings.TrimRight(storeURL, "/"),
		logger:    logger,
	}
}

// 登録の有無はレスポンスで区別しない
func (u *PasswordResetUsecase) ForgotPassword(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if !isValidEmailFormat(email) {
		return ErrInvalidEmailFormat
	}
	if err := CheckLimit(ctx, u.limiter, ForgotPasswordKey(email)); err != nil {
		return err
	}

	user, err := u.userRepo.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !user.IsActive {
		return nil
	}

	plain, err := generateSecureToken(32)
	if err != nil {
		return err
	}

	now := u.clock.Now()
	//古いトークンは捨てて1本だけ有効にする
	if err := u.tokenRepo.DeleteByUserID(ctx, user.ID); err != nil {
		return err
	}
	if err := u.tokenRepo.Create(ctx, &model.PasswordResetToken{
		UserID:    user.ID,
		TokenHash: hashToken(plain),
		ExpiresAt: now.Add(ResetTokenTTL),
		CreatedAt: now,
	}); err != nil {
		return err
	}

	link := u.storeURL + "/reset-password?token=" + url.QueryEscape(plain)
	if err := u.mailer.PasswordReset(ctx, user.Email, user.Name, link); err != nil {
		u.logger.Warn("password reset mail failed", "user_id", user.ID, "err", err)
	}
	return nil
}

// トークン消費・パスワード更新・token_version更新を1つのtxで
func (u *PasswordResetUsecase) ResetPassword(ctx context.Context, token string, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidResetToken
	}
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	hashed, err := u.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	now := u.clock.Now()

	return u.tx.WithinTx(ctx, func(r repository.TxRepos) error {
		t, err := r.PasswordResetTokens().FindByTokenHash(ctx, hashToken(token))
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidResetToken
		}
		if err != nil {
			return err
		}
		if !t.Usable(now) {
			return ErrInvalidResetToken
		}

		// 同時に使われたら片方だけ通る
		if err := r.PasswordResetTokens().MarkUsed(ctx, t.ID, now); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrInvalidResetToken
			}
			return err
		}

		user, err := r.Users().FindByID(ctx, t.UserID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidResetToken
		}
		if err != nil {
			return err
		}
		user.PasswordHash = hashed
		user.UpdatedAt = now
		if err := r.Users().Update(ctx, user); err != nil {
			return err
		}
		return r.Users().IncrementTokenVersion(ctx, user.ID)
	})
}

func hashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}

func generateSecureToken(bytesLen int) (string, error) {
	if bytesLen <= 0 {
		return "", fmt.Errorf("bytesLen must be positive")
	}

	// ランダムなバイト列を作る（OSが持つ安全な乱数）
	b := make([]byte, bytesLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}
