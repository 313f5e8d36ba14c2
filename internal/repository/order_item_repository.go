package repository

import (
	"context"

	"bakery/internal/domain/model"
)

// 注文明細（注文時点の商品名・単価のスナップショット）
type OrderItemRepository interface {
	//orderIDを詰めてまとめて保存
	CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error)
	//一覧画面用。注文IDごとにまとめて返す（明細なしの注文はキーなし）
	ListByOrderIDs(ctx context.Context, orderIDs []int64) (map[int64][]model.OrderItem, error)
}
