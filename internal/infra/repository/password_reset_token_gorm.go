package repository

import (
	"context"
	"time"

	"bakery/internal/domain/model"
	repo "bakery/internal/repository"

	"gorm.io/gorm"
)

type passwordResetTokenGormRepository struct {
	db *gorm.DB //DB接続（GORM）
}

// GORM実装
func NewPasswordResetTokenRepository(db *gorm.DB) repo.PasswordResetTokenRepository {
	return &passwordResetTokenGormRepository{db: db}
}

// トークンを保存
func (r *passwordResetTokenGormRepository) Create(ctx context.Context, token *model.PasswordResetToken) error {
	return mapErr(r.db.WithContext(ctx).Create(token).Error)
}

// token_hashで1件検索します。
func (r *passwordResetTokenGormRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*model.PasswordResetToken, error) {
	var token model.PasswordResetToken

	err := r.db.WithContext(ctx).
		Where("token_hash = ?", tokenHash).
		First(&token).Error
	if err != nil {
		return nil, mapErr(err)
	}

	return &token, nil
}

// used_at をセットして「使用済み」にします。
func (r *passwordResetTokenGormRepository) MarkUsed(ctx context.Context, tokenID int64, usedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.PasswordResetToken{}).
		Where("id = ? AND used_at IS NULL", tokenID).
		Update("used_at", usedAt)

	if result.Error != nil {
		return result.Error
	}

	// 更新件数が0なら「すでに使用済み/存在しない」
	if result.RowsAffected == 0 {
		return repo.ErrNotFound
	}

	return nil
}

// 指定ユーザーのトークンを全削除します。
func (r *passwordResetTokenGormRepository) DeleteByUserID(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.PasswordResetToken{}).Error
}
