package repository

import (
	"context"
	"time"

	"bakery/internal/domain/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 複数インスタンスで共有するレートリミットカウンタ（ratelimit.Store）
type RateLimitCounterGormStore struct {
	db *gorm.DB
}

func NewRateLimitCounterGormStore(db *gorm.DB) *RateLimitCounterGormStore {
	return &RateLimitCounterGormStore{db: db}
}

// INSERT ... ON CONFLICT DO UPDATE で原子的に+1する
// 期限切れの行は1から数え直す
func (s *RateLimitCounterGormStore) Incr(ctx context.Context, key string, window time.Duration, now time.Time) (int, time.Time, error) {
	now = now.UTC()
	expiresAt := now.Add(window)

	var row model.RateLimitCounter
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "limit_key"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"count": gorm.Expr(
					"CASE WHEN rate_limit_counters.expires_at <= ? THEN 1 ELSE rate_limit_counters.count + 1 END", now),
				"expires_at": gorm.Expr(
					"CASE WHEN rate_limit_counters.expires_at <= ? THEN ? ELSE rate_limit_counters.expires_at END", now, expiresAt),
			}),
		}).Create(&model.RateLimitCounter{Key: key, Count: 1, ExpiresAt: expiresAt}).Error
		if err != nil {
			return err
		}
		return tx.Where("limit_key = ?", key).First(&row).Error
	})
	if err != nil {
		return 0, time.Time{}, err
	}
	return row.Count, row.ExpiresAt, nil
}

// 期限切れのカウンタを削除
func (s *RateLimitCounterGormStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at <= ?", now.UTC()).
		Delete(&model.RateLimitCounter{})
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}
