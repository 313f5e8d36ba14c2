package model

import "time"

type PartnerStatus string

const (
	PartnerStatusAvailable PartnerStatus = "AVAILABLE"
	PartnerStatusBusy      PartnerStatus = "BUSY"
	PartnerStatusOffline   PartnerStatus = "OFFLINE"
)

// 配達員アカウント
// Statusは担当中の注文数から再計算される
type DeliveryPartner struct {
	ID              int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	Name            string        `gorm:"type:varchar(255);not null" json:"name"`
	Phone           string        `gorm:"type:varchar(30);not null;uniqueIndex" json:"phone"`
	Email           string        `gorm:"type:varchar(255)" json:"email"`
	PasswordHash    string        `gorm:"column:password_hash;not null" json:"-"`
	VehicleType     string        `gorm:"type:varchar(50)" json:"vehicle_type"`
	VehicleNumber   string        `gorm:"type:varchar(50)" json:"vehicle_number"`
	Status          PartnerStatus `gorm:"type:varchar(20);not null;default:'OFFLINE';index" json:"status"`
	TotalDeliveries int64         `gorm:"not null;default:0" json:"total_deliveries"`
	//パスワード変更で+1（発行済みトークンを失効させる）
	TokenVersion int        `gorm:"not null;default:0" json:"-"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	CreatedAt    time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 管理画面で割り当て先として選べるか
func (p DeliveryPartner) Selectable() bool {
	return p.Status == PartnerStatusAvailable || p.Status == PartnerStatusBusy
}
