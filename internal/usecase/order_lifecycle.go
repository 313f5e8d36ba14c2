package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"bakery/internal/domain/model"
	repo "bakery/internal/repository"
)

type ActorRole string

const (
	ActorAdmin           ActorRole = "ADMIN"
	ActorDeliveryPartner ActorRole = "DELIVERY_PARTNER"
)

// ステータスを変更する主体
// ADMINは遷移表を無視して6つの値を直接指定できる（force）
type Actor struct {
	Role ActorRole
	ID   int64
}

type transitionResult struct {
	Before  model.Order
	After   model.Order
	Changed bool
}

// 注文ステータス変更の唯一の入口（割り当て以外）
// 呼び出し側のtx内で 注文ロック→権限→遷移チェック→履歴追記→COD精算→保存→配達員状態の再計算 を行う
func transitionOrder(
	ctx context.Context,
	r repo.TxRepos,
	orderID int64,
	to model.OrderStatus,
	note string,
	actor Actor,
	now time.Time,
) (transitionResult, error) {
	o, err := r.Orders().FindByIDForUpdate(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return transitionResult{}, NewHTTPError(http.StatusNotFound, "order not found")
	}
	if err != nil {
		return transitionResult{}, internalError(err)
	}
	before := o

	switch actor.Role {
	case ActorDeliveryPartner:
		//担当の配達員だけ
		if o.DeliveryPartnerID == nil || *o.DeliveryPartnerID != actor.ID {
			return transitionResult{}, NewHTTPError(http.StatusForbidden, "forbidden")
		}
		if !model.CanPartnerTransition(o.Status, to) {
			return transitionResult{}, NewHTTPError(http.StatusBadRequest,
				fmt.Sprintf("Cannot transition from %s to %s", o.Status, to))
		}
	case ActorAdmin:
		if !model.IsAdminSettable(to) {
			return transitionResult{}, NewHTTPError(http.StatusBadRequest, "invalid status")
		}
		// すでに同じなら何もしない
		if o.Status == to {
			return transitionResult{Before: before, After: o}, nil
		}
	default:
		return transitionResult{}, NewHTTPError(http.StatusForbidden, "forbidden")
	}

	if note == "" {
		note = "Status updated to " + string(to)
	}
	o.Status = to

	//ASSIGNEDより前に戻したら配達員を外す
	var releasedPartnerID int64
	if to.BeforeAssignment() && o.DeliveryPartnerID != nil {
		releasedPartnerID = *o.DeliveryPartnerID
		o.DeliveryPartnerID = nil
	}

	if err := o.AppendHistory(to, note, now); err != nil {
		return transitionResult{}, internalError(err)
	}

	//代金引換は配達完了で支払い済み
	if to == model.OrderStatusDelivered &&
		o.PaymentMethod.SettledOnDelivery() &&
		o.PaymentStatus == model.PaymentStatusPending {
		o.PaymentStatus = model.PaymentStatusPaid
	}

	if err := r.Orders().SaveLifecycle(ctx, o); err != nil {
		return transitionResult{}, internalError(err)
	}

	if o.DeliveryPartnerID != nil {
		partnerID := *o.DeliveryPartnerID
		if to == model.OrderStatusDelivered {
			err := r.DeliveryPartners().IncrementTotalDeliveries(ctx, partnerID)
			if err != nil && !errors.Is(err, repo.ErrNotFound) {
				return transitionResult{}, internalError(err)
			}
		}
		if err := recomputePartnerAvailability(ctx, r, partnerID, true); err != nil {
			return transitionResult{}, err
		}
	}
	if releasedPartnerID > 0 {
		if err := recomputePartnerAvailability(ctx, r, releasedPartnerID, true); err != nil {
			return transitionResult{}, err
		}
	}

	return transitionResult{Before: before, After: o, Changed: true}, nil
}

// 担当中の注文数から配達員の状態を決め直す
// 1件以上ならBUSY、0件ならallowAvailableのときだけAVAILABLE
func recomputePartnerAvailability(ctx context.Context, r repo.TxRepos, partnerID int64, allowAvailable bool) error {
	p, err := r.DeliveryPartners().FindByIDForUpdate(ctx, partnerID)
	if errors.Is(err, repo.ErrNotFound) {
		//削除済みの配達員
		return nil
	}
	if err != nil {
		return internalError(err)
	}

	active, err := r.Orders().CountByDeliveryPartner(ctx, partnerID, model.ActiveDeliveryStatuses)
	if err != nil {
		return internalError(err)
	}

	next := p.Status
	switch {
	case active > 0:
		next = model.PartnerStatusBusy
	case allowAvailable:
		next = model.PartnerStatusAvailable
	}
	if next == p.Status {
		return nil
	}

	if err := r.DeliveryPartners().UpdateStatus(ctx, partnerID, next); err != nil {
		return internalError(err)
	}
	return nil
}

// 配達員の行をid昇順でロックする（0と削除済みは除く）
func lockPartners(ctx context.Context, r repo.TxRepos, ids ...int64) (map[int64]model.DeliveryPartner, error) {
	sorted := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id > 0 && !slices.Contains(sorted, id) {
			sorted = append(sorted, id)
		}
	}
	slices.Sort(sorted)

	locked := make(map[int64]model.DeliveryPartner, len(sorted))
	for _, id := range sorted {
		p, err := r.DeliveryPartners().FindByIDForUpdate(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, internalError(err)
		}
		locked[id] = p
	}
	return locked, nil
}
