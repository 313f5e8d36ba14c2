package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"bakery/internal/domain/model"
	repo "bakery/internal/repository"
	auth "bakery/internal/usecase/auth_usecase"
)

type PartnerOutput struct {
	ID              int64               `json:"id"`
	Name            string              `json:"name"`
	Phone           string              `json:"phone"`
	Email           string              `json:"email,omitempty"`
	VehicleType     string              `json:"vehicle_type,omitempty"`
	VehicleNumber   string              `json:"vehicle_number,omitempty"`
	Status          model.PartnerStatus `json:"status"`
	TotalDeliveries int64               `json:"total_deliveries"`
	ActiveOrders    int64               `json:"active_orders"`
	LastLoginAt     *time.Time          `json:"last_login_at"`
	CreatedAt       time.Time           `json:"created_at"`
}

func toPartnerOutput(p model.DeliveryPartner, active int64) PartnerOutput {
	return PartnerOutput{
		ID:              p.ID,
		Name:            p.Name,
		Phone:           p.Phone,
		Email:           p.Email,
		VehicleType:     p.VehicleType,
		VehicleNumber:   p.VehicleNumber,
		Status:          p.Status,
		TotalDeliveries: p.TotalDeliveries,
		ActiveOrders:    active,
		LastLoginAt:     p.LastLoginAt,
		CreatedAt:       p.CreatedAt,
	}
}

// 管理者による配達員アカウント管理
type DeliveryPartnerUsecase struct {
	tx     repo.TransactionManager
	hasher auth.PasswordHasher
}

func NewDeliveryPartnerUsecase(tx repo.TransactionManager, hasher auth.PasswordHasher) *DeliveryPartnerUsecase {
	return &DeliveryPartnerUsecase{tx: tx, hasher: hasher}
}

type PartnerListInput struct {
	Status     string
	Selectable bool
}

func (u *DeliveryPartnerUsecase) List(ctx context.Context, in PartnerListInput) ([]PartnerOutput, error) {
	f := repo.DeliveryPartnerFilter{SelectableOnly: in.Selectable}
	if s := strings.ToUpper(strings.TrimSpace(in.Status)); s != "" {
		st := model.PartnerStatus(s)
		switch st {
		case model.PartnerStatusAvailable, model.PartnerStatusBusy, model.PartnerStatusOffline:
			f.Status = &st
		default:
			return nil, NewHTTPError(http.StatusBadRequest, "invalid status")
		}
	}

	var outs []PartnerOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		list, err := r.DeliveryPartners().List(ctx, f)
		if err != nil {
			return internalError(err)
		}
		outs = make([]PartnerOutput, 0, len(list))
		for _, p := range list {
			active, err := r.Orders().CountByDeliveryPartner(ctx, p.ID, model.ActiveDeliveryStatuses)
			if err != nil {
				return internalError(err)
			}
			outs = append(outs, toPartnerOutput(p, active))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outs, nil
}

type CreatePartnerInput struct {
	Name          string
	Phone         string
	Email         string
	Password      string
	VehicleType   string
	VehicleNumber string
}

func (u *DeliveryPartnerUsecase) Create(ctx context.Context, actorAdminUserID int64, in CreatePartnerInput) (PartnerOutput, error) {
	if actorAdminUserID <= 0 {
		return PartnerOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	name := strings.TrimSpace(in.Name)
	phone := strings.TrimSpace(in.Phone)
	if name == "" {
		return PartnerOutput{}, NewHTTPError(http.StatusBadRequest, "name required")
	}
	if phone == "" {
		return PartnerOutput{}, NewHTTPError(http.StatusBadRequest, "phone required")
	}
	if err := auth.ValidatePassword(in.Password); err != nil {
		return PartnerOutput{}, NewHTTPError(http.StatusBadRequest, err.Error())
	}

	hashed, err := u.hasher.Hash(in.Password)
	if err != nil {
		return PartnerOutput{}, internalError(err)
	}

	p := model.DeliveryPartner{
		Name:          name,
		Phone:         phone,
		Email:         strings.TrimSpace(in.Email),
		PasswordHash:  hashed,
		VehicleType:   strings.TrimSpace(in.VehicleType),
		VehicleNumber: strings.TrimSpace(in.VehicleNumber),
		Status:        model.PartnerStatusAvailable,
	}

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.DeliveryPartners().Create(ctx, &p); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return NewHTTPError(http.StatusConflict, "phone already registered")
			}
			return internalError(err)
		}
		return writeAudit(ctx, r, actorAdminUserID, model.AuditActionCreateDeliveryPartner,
			model.AuditResourceDeliveryPartner, p.ID, nil, partnerAuditSnapshot(p))
	})
	if err != nil {
		return PartnerOutput{}, err
	}
	return toPartnerOutput(p, 0), nil
}

func (u *DeliveryPartnerUsecase) RotatePassword(ctx context.Context, actorAdminUserID int64, partnerID int64, password string) error {
	if actorAdminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if partnerID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := auth.ValidatePassword(password); err != nil {
		return NewHTTPError(http.StatusBadRequest, err.Error())
	}
	hashed, err := u.hasher.Hash(password)
	if err != nil {
		return internalError(err)
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		err := r.DeliveryPartners().UpdatePassword(ctx, partnerID, hashed)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "delivery partner not found")
		}
		if err != nil {
			return internalError(err)
		}
		return writeAudit(ctx, r, actorAdminUserID, model.AuditActionRotatePartnerPassword,
			model.AuditResourceDeliveryPartner, partnerID, nil, nil)
	})
}

// 担当中の注文がある配達員は消せない
func (u *DeliveryPartnerUsecase) Delete(ctx context.Context, actorAdminUserID int64, partnerID int64) error {
	if actorAdminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if partnerID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.DeliveryPartners().FindByIDForUpdate(ctx, partnerID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "delivery partner not found")
		}
		if err != nil {
			return internalError(err)
		}

		active, err := r.Orders().CountByDeliveryPartner(ctx, partnerID, model.ActiveDeliveryStatuses)
		if err != nil {
			return internalError(err)
		}
		if active > 0 {
			return NewHTTPError(http.StatusConflict, "delivery partner has active orders")
		}

		if err := r.DeliveryPartners().Delete(ctx, partnerID); err != nil {
			return internalError(err)
		}
		return writeAudit(ctx, r, actorAdminUserID, model.AuditActionDeleteDeliveryPartner,
			model.AuditResourceDeliveryPartner, partnerID, partnerAuditSnapshot(p), nil)
	})
}

type partnerAudit struct {
	Name   string              `json:"name"`
	Phone  string              `json:"phone"`
	Status model.PartnerStatus `json:"status"`
}

func partnerAuditSnapshot(p model.DeliveryPartner) partnerAudit {
	return partnerAudit{Name: p.Name, Phone: p.Phone, Status: p.Status}
}
