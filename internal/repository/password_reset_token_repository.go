package repository

import (
	"bakery/internal/domain/model"
	"context"
	"time"
)

// パスワード再設定トークンの保存・取得・使用済み化
type PasswordResetTokenRepository interface {
	Create(ctx context.Context, token *model.PasswordResetToken) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.PasswordResetToken, error)
	//未使用のときだけ used_at をセットする（0件ならErrNotFound）
	MarkUsed(ctx context.Context, tokenID int64, usedAt time.Time) error
	DeleteByUserID(ctx context.Context, userID int64) error
}
