package repository

import (
	"context"
	"time"

	"bakery/internal/domain/model"
)

// 監査ログの対象。IDが0なら種類だけで絞る
type AuditTarget struct {
	Type model.AuditResourceType
	ID   int64
}

func OrderTarget(orderID int64) *AuditTarget {
	return &AuditTarget{Type: model.AuditResourceOrder, ID: orderID}
}

func PartnerTarget(partnerID int64) *AuditTarget {
	return &AuditTarget{Type: model.AuditResourceDeliveryPartner, ID: partnerID}
}

type AuditLogFilter struct {
	ActorUserID *int64
	Action      *model.AuditAction
	Target      *AuditTarget
	Since       *time.Time
	Until       *time.Time
	//0ならすべて
	Limit  int
	Offset int
}

type AuditLogRepository interface {
	//管理者操作と同じtxで書く
	Create(ctx context.Context, log model.AuditLog) error

	//新しい順。totalはlimit/offset前の件数
	List(ctx context.Context, filter AuditLogFilter) ([]model.AuditLog, int64, error)
}
