package model

import "time"

// 注文ステータス更新、配達員の割り当てなど。
type AuditAction string

const (
	//注文ステータスを更新した操作。
	AuditActionUpdateOrderStatus AuditAction = "UPDATE_ORDER_STATUS"
	//配達員を割り当てた操作。
	AuditActionAssignDeliveryPartner AuditAction = "ASSIGN_DELIVERY_PARTNER"
	AuditActionCreateDeliveryPartner AuditAction = "CREATE_DELIVERY_PARTNER"
	AuditActionDeleteDeliveryPartner AuditAction = "DELETE_DELIVERY_PARTNER"
	//配達員パスワードの再設定。
	AuditActionRotatePartnerPassword AuditAction = "ROTATE_PARTNER_PASSWORD"
)

func (a AuditAction) Valid() bool {
	switch a {
	case AuditActionUpdateOrderStatus, AuditActionAssignDeliveryPartner,
		AuditActionCreateDeliveryPartner, AuditActionDeleteDeliveryPartner,
		AuditActionRotatePartnerPassword:
		return true
	}
	return false
}

// 何に対する操作か
type AuditResourceType string

const (
	//注文に対する操作。
	AuditResourceOrder AuditResourceType = "order"

	//配達員に対する操作。
	AuditResourceDeliveryPartner AuditResourceType = "delivery_partner"
)

func (t AuditResourceType) Valid() bool {
	return t == AuditResourceOrder || t == AuditResourceDeliveryPartner
}

// 監査ログ（管理者操作ログ）。
// 「誰が」「何を」「どの対象に」「どう変えたか」を残す。
type AuditLog struct {
	//IDは監査ログの主キー
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//操作したユーザー（主に管理者）のID。
	ActorUserID int64 `gorm:"not null;index" json:"actor_user_id"`

	//Actionは操作の種類（UPDATE_ORDER_STATUS / ASSIGN_DELIVERY_PARTNER など）。
	Action AuditAction `gorm:"type:varchar(50);not null;index" json:"action"`

	//対象の種類（order / delivery_partner）。
	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`

	//対象のID）。
	ResourceID int64 `gorm:"not null;index" json:"resource_id"`

	//JSON文字列で保存する。
	BeforeJSON string `gorm:"type:text" json:"before_json"`

	//JSON文字列で保存する。
	AfterJSON string `gorm:"type:text" json:"after_json"`

	//作成時刻
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
