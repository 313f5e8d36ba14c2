package model

// 配達員が持っている扱いになるステータス
var ActiveDeliveryStatuses = []OrderStatus{
	OrderStatusAssigned,
	OrderStatusPickedUp,
	OrderStatusOutForDelivery,
}

// 配達員が進められる遷移
var partnerTransitions = map[OrderStatus]OrderStatus{
	OrderStatusAssigned:       OrderStatusPickedUp,
	OrderStatusPickedUp:       OrderStatusOutForDelivery,
	OrderStatusOutForDelivery: OrderStatusDelivered,
}

// 管理者が直接指定できる値
var adminSettableStatuses = map[OrderStatus]struct{}{
	OrderStatusPending:        {},
	OrderStatusConfirmed:      {},
	OrderStatusPreparing:      {},
	OrderStatusOutForDelivery: {},
	OrderStatusDelivered:      {},
	OrderStatusCancelled:      {},
}

func CanPartnerTransition(from, to OrderStatus) bool {
	next, ok := partnerTransitions[from]
	return ok && next == to
}

func IsAdminSettable(s OrderStatus) bool {
	_, ok := adminSettableStatuses[s]
	return ok
}

func (s OrderStatus) IsActiveDelivery() bool {
	for _, a := range ActiveDeliveryStatuses {
		if s == a {
			return true
		}
	}
	return false
}

// 配達員がまだ付いていない段階（ASSIGNEDより前）
func (s OrderStatus) BeforeAssignment() bool {
	return s == OrderStatusPending || s == OrderStatusConfirmed || s == OrderStatusPreparing
}

// 割り当て・付け替えは集荷前まで
func (s OrderStatus) Assignable() bool {
	return s.BeforeAssignment() || s == OrderStatusAssigned
}
