package repository

import (
	"context"
	"time"

	"bakery/internal/domain/model"
)

type DeliveryPartnerFilter struct {
	Status *model.PartnerStatus
	//AVAILABLE / BUSY のみ
	SelectableOnly bool
}

type DeliveryPartnerRepository interface {
	//phone重複はErrDuplicate
	Create(ctx context.Context, p *model.DeliveryPartner) error
	FindByID(ctx context.Context, id int64) (model.DeliveryPartner, error)
	FindByIDForUpdate(ctx context.Context, id int64) (model.DeliveryPartner, error)
	FindByPhone(ctx context.Context, phone string) (model.DeliveryPartner, error)
	List(ctx context.Context, f DeliveryPartnerFilter) ([]model.DeliveryPartner, error)

	UpdateStatus(ctx context.Context, id int64, status model.PartnerStatus) error
	IncrementTotalDeliveries(ctx context.Context, id int64) error
	//token_versionも+1する
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
	Delete(ctx context.Context, id int64) error
}
