package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "PENDING"
	OrderStatusConfirmed      OrderStatus = "CONFIRMED"
	OrderStatusPreparing      OrderStatus = "PREPARING"
	OrderStatusAssigned       OrderStatus = "ASSIGNED"
	OrderStatusPickedUp       OrderStatus = "PICKED_UP"
	OrderStatusOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	OrderStatusDelivered      OrderStatus = "DELIVERED"
	OrderStatusCancelled      OrderStatus = "CANCELLED"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

type PaymentMethod string

const (
	PaymentMethodCOD    PaymentMethod = "COD"
	PaymentMethodCash   PaymentMethod = "CASH"
	PaymentMethodCard   PaymentMethod = "CARD"
	PaymentMethodUPI    PaymentMethod = "UPI"
	PaymentMethodOnline PaymentMethod = "ONLINE"
)

func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch m := PaymentMethod(s); m {
	case PaymentMethodCOD, PaymentMethodCash, PaymentMethodCard, PaymentMethodUPI, PaymentMethodOnline:
		return m, true
	}
	return "", false
}

// 代金引換（配達完了時にPAIDへ）
func (m PaymentMethod) SettledOnDelivery() bool {
	return m == PaymentMethodCOD || m == PaymentMethodCash
}

type Order struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNumber string `gorm:"type:varchar(20);not null;uniqueIndex" json:"order_number"`
	UserID      int64  `gorm:"not null;index" json:"user_id"`
	AddressID   int64  `gorm:"not null" json:"address_id"`

	Subtotal    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	DeliveryFee decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"delivery_fee"`
	Tax         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"tax"`
	Total       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`

	Status        OrderStatus   `gorm:"type:varchar(20);not null;index" json:"status"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(20);not null" json:"payment_status"`
	PaymentMethod PaymentMethod `gorm:"type:varchar(20);not null;default:'ONLINE'" json:"payment_method"`

	//削除済みの配達員IDが残ることがあるのでFKは張らない
	DeliveryPartnerID *int64 `gorm:"index" json:"delivery_partner_id"`

	DeliveryDate datatypes.Date `json:"delivery_date"`
	DeliverySlot string         `gorm:"type:varchar(50)" json:"delivery_slot"`
	Notes        string         `gorm:"type:text" json:"notes"`

	//JSON配列をtextで保存（StatusHistoryEntry）
	StatusHistory datatypes.JSON `gorm:"type:text" json:"-"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 配達完了またはキャンセル済み
func (o Order) Closed() bool {
	return o.Status == OrderStatusDelivered || o.Status == OrderStatusCancelled
}
