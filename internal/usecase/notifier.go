package usecase

import (
	"context"

	"github.com/shopspring/decimal"
)

type OrderPlacedMessage struct {
	To           string
	CustomerName string
	OrderNumber  string
	Total        decimal.Decimal
	DeliveryDate string
	DeliverySlot string
}

type OrderAssignedMessage struct {
	To          string
	PartnerName string
	OrderNumber string
	Address     string
}

// 通知（コミット後に呼ぶ・失敗してもリクエストは失敗させない）
type Notifier interface {
	OrderPlaced(ctx context.Context, msg OrderPlacedMessage) error
	OrderAssigned(ctx context.Context, msg OrderAssignedMessage) error
}
