package repository

import (
	"context"
	"time"

	"bakery/internal/domain/model"
	repo "bakery/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type deliveryPartnerGormRepository struct {
	db *gorm.DB
}

func NewDeliveryPartnerGormRepository(db *gorm.DB) repo.DeliveryPartnerRepository {
	return &deliveryPartnerGormRepository{db: db}
}

func (r *deliveryPartnerGormRepository) Create(ctx context.Context, p *model.DeliveryPartner) error {
	return mapErr(r.db.WithContext(ctx).Create(p).Error)
}

func (r *deliveryPartnerGormRepository) FindByID(ctx context.Context, id int64) (model.DeliveryPartner, error) {
	var p model.DeliveryPartner
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return model.DeliveryPartner{}, mapErr(err)
	}
	return p, nil
}

func (r *deliveryPartnerGormRepository) FindByIDForUpdate(ctx context.Context, id int64) (model.DeliveryPartner, error) {
	var p model.DeliveryPartner
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&p, id).Error
	if err != nil {
		return model.DeliveryPartner{}, mapErr(err)
	}
	return p, nil
}

func (r *deliveryPartnerGormRepository) FindByPhone(ctx context.Context, phone string) (model.DeliveryPartner, error) {
	var p model.DeliveryPartner
	if err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&p).Error; err != nil {
		return model.DeliveryPartner{}, mapErr(err)
	}
	return p, nil
}

func (r *deliveryPartnerGormRepository) List(ctx context.Context, f repo.DeliveryPartnerFilter) ([]model.DeliveryPartner, error) {
	q := r.db.WithContext(ctx).Model(&model.DeliveryPartner{})

	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.SelectableOnly {
		q = q.Where("status IN ?", []model.PartnerStatus{model.PartnerStatusAvailable, model.PartnerStatusBusy})
	}

	var list []model.DeliveryPartner
	if err := q.Order("name asc").Order("id asc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *deliveryPartnerGormRepository) UpdateStatus(ctx context.Context, id int64, status model.PartnerStatus) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"status": status})
}

func (r *deliveryPartnerGormRepository) IncrementTotalDeliveries(ctx context.Context, id int64) error {
	return r.updateColumns(ctx, id, map[string]interface{}{
		"total_deliveries": gorm.Expr("total_deliveries + ?", 1),
	})
}

func (r *deliveryPartnerGormRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return r.updateColumns(ctx, id, map[string]interface{}{
		"password_hash": passwordHash,
		"token_version": gorm.Expr("token_version + ?", 1),
	})
}

func (r *deliveryPartnerGormRepository) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"last_login_at": at})
}

// 物理削除（過去の注文のdelivery_partner_idは残る）
func (r *deliveryPartnerGormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.DeliveryPartner{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *deliveryPartnerGormRepository) updateColumns(ctx context.Context, id int64, cols map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&model.DeliveryPartner{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
