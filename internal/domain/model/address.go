package model

import "time"

// 配送先住所
// チェックアウト時に (user, full_name, address_line, pincode) で再利用される
type Address struct {
	ID     int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64 `gorm:"not null;index:idx_addresses_match,priority:1" json:"user_id"`

	//宛名
	FullName string `gorm:"type:varchar(255);not null;index:idx_addresses_match,priority:2" json:"full_name"`

	//電話番号
	Phone string `gorm:"type:varchar(30)" json:"phone"`

	//番地など
	AddressLine string `gorm:"type:varchar(500);not null" json:"address_line"`

	City  string `gorm:"type:varchar(255)" json:"city"`
	State string `gorm:"type:varchar(255)" json:"state"`

	//郵便番号
	Pincode string `gorm:"type:varchar(20);not null;index:idx_addresses_match,priority:3" json:"pincode"`

	Landmark string `gorm:"type:varchar(255)" json:"landmark"`

	//このユーザーのデフォルト住所か
	IsDefault bool `gorm:"not null;default:false" json:"is_default"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
