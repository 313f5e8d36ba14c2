package repository

import (
	"context"

	repo "bakery/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	orders           repo.OrderRepository
	orderItems       repo.OrderItemRepository
	addresses        repo.AddressRepository
	products         repo.ProductRepository
	deliveryPartners repo.DeliveryPartnerRepository
	auditLogs        repo.AuditLogRepository
	users            repo.UserRepository
	resetTokens      repo.PasswordResetTokenRepository
}

func (r *txReposGorm) Orders() repo.OrderRepository                           { return r.orders }
func (r *txReposGorm) OrderItems() repo.OrderItemRepository                   { return r.orderItems }
func (r *txReposGorm) Addresses() repo.AddressRepository                      { return r.addresses }
func (r *txReposGorm) Products() repo.ProductRepository                       { return r.products }
func (r *txReposGorm) DeliveryPartners() repo.DeliveryPartnerRepository       { return r.deliveryPartners }
func (r *txReposGorm) AuditLogs() repo.AuditLogRepository                     { return r.auditLogs }
func (r *txReposGorm) Users() repo.UserRepository                             { return r.users }
func (r *txReposGorm) PasswordResetTokens() repo.PasswordResetTokenRepository { return r.resetTokens }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			orders:           NewOrderGormRepository(tx),
			orderItems:       NewOrderItemGormRepository(tx),
			addresses:        NewAddressGormRepository(tx),
			products:         NewProductGormRepository(tx),
			deliveryPartners: NewDeliveryPartnerGormRepository(tx),
			auditLogs:        NewAuditLogGormRepository(tx),
			users:            NewUserGormRepository(tx),
			resetTokens:      NewPasswordResetTokenRepository(tx),
		}
		return fn(r)
	})
}
