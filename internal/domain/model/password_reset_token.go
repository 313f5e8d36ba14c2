package model

import "time"

// パスワード再設定トークン（DBにはhashのみ保存）
type PasswordResetToken struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64      `gorm:"not null;index" json:"user_id"`
	TokenHash string     `gorm:"type:varchar(255);not null;uniqueIndex" json:"-"`
	ExpiresAt time.Time  `gorm:"not null;index" json:"expires_at"`
	UsedAt    *time.Time `json:"used_at"`
	CreatedAt time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (t PasswordResetToken) Usable(now time.Time) bool {
	return t.UsedAt == nil && now.Before(t.ExpiresAt)
}

// 共有レートリミッタのカウンタ行
type RateLimitCounter struct {
	Key       string    `gorm:"column:limit_key;primaryKey;type:varchar(255)"`
	Count     int       `gorm:"not null;default:0"`
	ExpiresAt time.Time `gorm:"not null;index"`
}
