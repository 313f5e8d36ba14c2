package repository

import (
	"context"
	"time"

	"bakery/internal/domain/model"
)

type AdminOrderListFilter struct {
	Page              int
	Limit             int
	Status            string
	UserID            *int64
	DeliveryPartnerID *int64
	From              *time.Time
	To                *time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	//行ロック付き（tx内で使う）
	FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	//order_number重複はErrDuplicate
	Create(ctx context.Context, order *model.Order) error
	//status / payment_status / delivery_partner_id / status_historyを保存
	SaveLifecycle(ctx context.Context, order model.Order) error

	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)

	//配達員の担当注文
	ListByDeliveryPartner(ctx context.Context, partnerID int64, statuses []model.OrderStatus) ([]model.Order, error)
	CountByDeliveryPartner(ctx context.Context, partnerID int64, statuses []model.OrderStatus) (int64, error)
}
