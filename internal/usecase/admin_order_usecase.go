package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"bakery/internal/domain/model"
	repo "bakery/internal/repository"
)

type AdminOrderUsecase struct {
	tx        repo.TransactionManager
	auditRepo repo.AuditLogRepository
	notifier  Notifier
	logger    *slog.Logger
}

func NewAdminOrderUsecase(tx repo.TransactionManager, auditRepo repo.AuditLogRepository, notifier Notifier, logger *slog.Logger) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, auditRepo: auditRepo, notifier: notifier, logger: logger}
}

type AdminUpdateOrderStatusInput struct {
	Status string
	Note   string
}

// 注文一覧
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) ([]OrderOutput, error) {
	// page/limitの最低限チェック
	if f.Page < 1 {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListAdmin(ctx, f)
		if err != nil {
			return internalError(err)
		}

		outs, err = toOrderOutputs(ctx, r, orders)
		return err
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

// 管理者によるステータス直接指定（遷移表は見ないが、履歴と配達員状態は更新する）
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorAdminUserID int64, orderID int64, in AdminUpdateOrderStatusInput) error {
	if actorAdminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	newStatus := model.OrderStatus(strings.ToUpper(strings.TrimSpace(in.Status)))
	if !model.IsAdminSettable(newStatus) {
		return NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		res, err := transitionOrder(ctx, r, orderID, newStatus, strings.TrimSpace(in.Note),
			Actor{Role: ActorAdmin, ID: actorAdminUserID}, time.Now())
		if err != nil {
			return err
		}
		if !res.Changed {
			return nil
		}

		// ★監査ログ（UPDATE_ORDER_STATUS）
		return writeAudit(ctx, r, actorAdminUserID, model.AuditActionUpdateOrderStatus,
			model.AuditResourceOrder, orderID, orderAuditSnapshot(res.Before), orderAuditSnapshot(res.After))
	})
}

// 配達員の割り当て（注文はASSIGNEDへ、配達員はBUSYへ）
func (u *AdminOrderUsecase) AssignDeliveryPartner(ctx context.Context, actorAdminUserID int64, orderID int64, partnerID int64) (OrderOutput, error) {
	if actorAdminUserID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if partnerID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "delivery partner id required")
	}

	var out OrderOutput
	var partner model.DeliveryPartner

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByIDForUpdate(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "order not found")
		}
		if err != nil {
			return internalError(err)
		}

		// 集荷後・終端の注文は付け替えない（ASSIGNEDへ戻さない）
		if !o.Status.Assignable() {
			return NewHTTPError(http.StatusBadRequest, "cannot assign "+strings.ToLower(string(o.Status))+" order")
		}

		var previousPartnerID int64
		if o.DeliveryPartnerID != nil && *o.DeliveryPartnerID != partnerID {
			previousPartnerID = *o.DeliveryPartnerID
		}

		//付け替え元と付け替え先はid昇順でロック
		locked, err := lockPartners(ctx, r, partnerID, previousPartnerID)
		if err != nil {
			return err
		}
		var ok bool
		partner, ok = locked[partnerID]
		if !ok {
			return NewHTTPError(http.StatusNotFound, "delivery partner not found")
		}
		if partner.Status == model.PartnerStatusOffline {
			return NewHTTPError(http.StatusBadRequest, "delivery partner is offline")
		}

		before := o

		o.Status = model.OrderStatusAssigned
		o.DeliveryPartnerID = &partner.ID
		if err := o.AppendHistory(model.OrderStatusAssigned, "Assigned to "+partner.Name, time.Now()); err != nil {
			return internalError(err)
		}
		if err := r.Orders().SaveLifecycle(ctx, o); err != nil {
			return internalError(err)
		}

		//割り当て直後はBUSYにするだけ
		if err := recomputePartnerAvailability(ctx, r, partner.ID, false); err != nil {
			return err
		}
		//付け替え元の配達員は空けば AVAILABLE に戻す
		if previousPartnerID > 0 {
			if err := recomputePartnerAvailability(ctx, r, previousPartnerID, true); err != nil {
				return err
			}
		}

		if err := writeAudit(ctx, r, actorAdminUserID, model.AuditActionAssignDeliveryPartner,
			model.AuditResourceOrder, orderID, orderAuditSnapshot(before), orderAuditSnapshot(o)); err != nil {
			return err
		}

		out, err = loadOrderDetail(ctx, r, o)
		return err
	})
	if err != nil {
		return OrderOutput{}, err
	}

	u.notifyAssigned(ctx, partner, out)
	return out, nil
}

func (u *AdminOrderUsecase) notifyAssigned(ctx context.Context, p model.DeliveryPartner, out OrderOutput) {
	if p.Email == "" {
		return
	}
	msg := OrderAssignedMessage{
		To:          p.Email,
		PartnerName: p.Name,
		OrderNumber: out.OrderNumber,
	}
	if out.Address != nil {
		msg.Address = strings.Join(nonEmpty(out.Address.AddressLine, out.Address.City, out.Address.Pincode), ", ")
	}
	if err := u.notifier.OrderAssigned(ctx, msg); err != nil {
		u.logger.Warn("assignment notification failed", "order_number", out.OrderNumber, "partner_id", p.ID, "err", err)
	}
}

// 監査ログ一覧（新しい順）と総件数
func (u *AdminOrderUsecase) ListAuditLogs(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, int64, error) {
	if f.Limit == 0 {
		f.Limit = 50
	}
	if f.Limit < 0 || f.Limit > 200 {
		return nil, 0, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if f.Offset < 0 {
		return nil, 0, NewHTTPError(http.StatusBadRequest, "invalid offset")
	}
	if f.Action != nil && !f.Action.Valid() {
		return nil, 0, NewHTTPError(http.StatusBadRequest, "invalid action")
	}
	if f.Target != nil && !f.Target.Type.Valid() {
		return nil, 0, NewHTTPError(http.StatusBadRequest, "invalid resource_type")
	}

	logs, total, err := u.auditRepo.List(ctx, f)
	if err != nil {
		return nil, 0, internalError(err)
	}
	return logs, total, nil
}

// 1件の注文に対する管理者操作をすべて
func (u *AdminOrderUsecase) OrderAuditTrail(ctx context.Context, orderID int64) ([]model.AuditLog, error) {
	if orderID <= 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	logs, _, err := u.auditRepo.List(ctx, repo.AuditLogFilter{Target: repo.OrderTarget(orderID)})
	if err != nil {
		return nil, internalError(err)
	}
	return logs, nil
}

type orderAudit struct {
	Status            model.OrderStatus   `json:"status"`
	PaymentStatus     model.PaymentStatus `json:"payment_status"`
	DeliveryPartnerID *int64              `json:"delivery_partner_id"`
}

func orderAuditSnapshot(o model.Order) orderAudit {
	return orderAudit{
		Status:            o.Status,
		PaymentStatus:     o.PaymentStatus,
		DeliveryPartnerID: o.DeliveryPartnerID,
	}
}

// tx内で監査ログを残す
func writeAudit(
	ctx context.Context,
	r repo.TxRepos,
	actorID int64,
	action model.AuditAction,
	resource model.AuditResourceType,
	resourceID int64,
	before interface{},
	after interface{},
) error {
	beforeJSON, err := json.Marshal(before)
	if err != nil {
		return internalError(err)
	}
	afterJSON, err := json.Marshal(after)
	if err != nil {
		return internalError(err)
	}

	if err := r.AuditLogs().Create(ctx, model.AuditLog{
		ActorUserID:  actorID,
		Action:       action,
		ResourceType: resource,
		ResourceID:   resourceID,
		BeforeJSON:   string(beforeJSON),
		AfterJSON:    string(afterJSON),
		CreatedAt:    time.Now(),
	}); err != nil {
		return internalError(err)
	}
	return nil
}

func nonEmpty(parts ...string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
