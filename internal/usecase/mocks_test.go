package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"bakery/internal/domain/model"
	repo "bakery/internal/repository"
	"bakery/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// TxManager / TxRepos mocks
// =====================

// TxManagerMock は WithinTx の中で渡す repos を固定して unit テストを回す
type TxManagerMock struct {
	mock.Mock
	Repos repo.TxRepos
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	// 呼ばれた事実だけ記録（ctxの具体値は問わない）
	m.Called(ctx)
	return fn(m.Repos)
}

type TxReposMock struct {
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	addresses  repo.AddressRepository
	products   repo.ProductRepository
	partners   repo.DeliveryPartnerRepository
	audit      repo.AuditLogRepository
	users      repo.UserRepository
	resets     repo.PasswordResetTokenRepository
}

func (r *TxReposMock) Orders() repo.OrderRepository                     { return r.orders }
func (r *TxReposMock) OrderItems() repo.OrderItemRepository             { return r.orderItems }
func (r *TxReposMock) Addresses() repo.AddressRepository                { return r.addresses }
func (r *TxReposMock) Products() repo.ProductRepository                 { return r.products }
func (r *TxReposMock) DeliveryPartners() repo.DeliveryPartnerRepository { return r.partners }
func (r *TxReposMock) AuditLogs() repo.AuditLogRepository               { return r.audit }
func (r *TxReposMock) Users() repo.UserRepository                       { return r.users }
func (r *TxReposMock) PasswordResetTokens() repo.PasswordResetTokenRepository {
	return r.resets
}

// =====================
// Repository mocks
// =====================

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	args := m.Called(ctx, userID, page, limit)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *OrderRepoMock) Create(ctx context.Context, order *model.Order) error {
	args := m.Called(ctx, order)
	if args.Error(0) == nil {
		order.ID = 100
	}
	return args.Error(0)
}

func (m *OrderRepoMock) SaveLifecycle(ctx context.Context, order model.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *OrderRepoMock) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	args := m.Called(ctx, f)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *OrderRepoMock) ListByDeliveryPartner(ctx context.Context, partnerID int64, statuses []model.OrderStatus) ([]model.Order, error) {
	args := m.Called(ctx, partnerID, statuses)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Error(1)
}

func (m *OrderRepoMock) CountByDeliveryPartner(ctx context.Context, partnerID int64, statuses []model.OrderStatus) (int64, error) {
	args := m.Called(ctx, partnerID, statuses)
	return args.Get(0).(int64), args.Error(1)
}

type OrderItemRepoMock struct{ mock.Mock }

func (m *OrderItemRepoMock) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

func (m *OrderItemRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderItem)
	return items, args.Error(1)
}

func (m *OrderItemRepoMock) ListByOrderIDs(ctx context.Context, orderIDs []int64) (map[int64][]model.OrderItem, error) {
	args := m.Called(ctx, orderIDs)
	out, _ := args.Get(0).(map[int64][]model.OrderItem)
	return out, args.Error(1)
}

type AddressRepoMock struct{ mock.Mock }

func (m *AddressRepoMock) Create(ctx context.Context, a model.Address) (model.Address, error) {
	args := m.Called(ctx, a)
	out, _ := args.Get(0).(model.Address)
	return out, args.Error(1)
}

func (m *AddressRepoMock) ListByUserID(ctx context.Context, userID int64) ([]model.Address, error) {
	args := m.Called(ctx, userID)
	out, _ := args.Get(0).([]model.Address)
	return out, args.Error(1)
}

func (m *AddressRepoMock) FindByID(ctx context.Context, addressID int64) (model.Address, error) {
	args := m.Called(ctx, addressID)
	out, _ := args.Get(0).(model.Address)
	return out, args.Error(1)
}

func (m *AddressRepoMock) FindMatching(ctx context.Context, userID int64, fullName, addressLine, pincode string) (model.Address, error) {
	args := m.Called(ctx, userID, fullName, addressLine, pincode)
	out, _ := args.Get(0).(model.Address)
	return out, args.Error(1)
}

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	args := m.Called(ctx, q)
	out, _ := args.Get(0).([]model.Product)
	return out, args.Get(1).(int64), args.Error(2)
}

func (m *ProductRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	out, _ := args.Get(0).(model.Product)
	return out, args.Error(1)
}

func (m *ProductRepoMock) Create(ctx context.Context, p model.Product) (model.Product, error) {
	args := m.Called(ctx, p)
	out, _ := args.Get(0).(model.Product)
	return out, args.Error(1)
}

func (m *ProductRepoMock) Update(ctx context.Context, p model.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *ProductRepoMock) SoftDelete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type PartnerRepoMock struct{ mock.Mock }

func (m *PartnerRepoMock) Create(ctx context.Context, p *model.DeliveryPartner) error {
	args := m.Called(ctx, p)
	if args.Error(0) == nil {
		p.ID = 50
	}
	return args.Error(0)
}

func (m *PartnerRepoMock) FindByID(ctx context.Context, id int64) (model.DeliveryPartner, error) {
	args := m.Called(ctx, id)
	out, _ := args.Get(0).(model.DeliveryPartner)
	return out, args.Error(1)
}

func (m *PartnerRepoMock) FindByIDForUpdate(ctx context.Context, id int64) (model.DeliveryPartner, error) {
	args := m.Called(ctx, id)
	out, _ := args.Get(0).(model.DeliveryPartner)
	return out, args.Error(1)
}

func (m *PartnerRepoMock) FindByPhone(ctx context.Context, phone string) (model.DeliveryPartner, error) {
	args := m.Called(ctx, phone)
	out, _ := args.Get(0).(model.DeliveryPartner)
	return out, args.Error(1)
}

func (m *PartnerRepoMock) List(ctx context.Context, f repo.DeliveryPartnerFilter) ([]model.DeliveryPartner, error) {
	args := m.Called(ctx, f)
	out, _ := args.Get(0).([]model.DeliveryPartner)
	return out, args.Error(1)
}

func (m *PartnerRepoMock) UpdateStatus(ctx context.Context, id int64, status model.PartnerStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *PartnerRepoMock) IncrementTotalDeliveries(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *PartnerRepoMock) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return m.Called(ctx, id, passwordHash).Error(0)
}

func (m *PartnerRepoMock) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *PartnerRepoMock) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *AuditRepoMock) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, int64, error) {
	args := m.Called(ctx, filter)
	out, _ := args.Get(0).([]model.AuditLog)
	return out, args.Get(1).(int64), args.Error(2)
}

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) Create(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *UserRepoMock) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) Update(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *UserRepoMock) IncrementTokenVersion(ctx context.Context, userID int64) error {
	return m.Called(ctx, userID).Error(0)
}

type NotifierMock struct{ mock.Mock }

func (m *NotifierMock) OrderPlaced(ctx context.Context, msg usecase.OrderPlacedMessage) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *NotifierMock) OrderAssigned(ctx context.Context, msg usecase.OrderAssignedMessage) error {
	return m.Called(ctx, msg).Error(0)
}

// =====================
// fixture
// =====================

type fixture struct {
	tx       *TxManagerMock
	orders   *OrderRepoMock
	items    *OrderItemRepoMock
	addrs    *AddressRepoMock
	products *ProductRepoMock
	partners *PartnerRepoMock
	audit    *AuditRepoMock
	users    *UserRepoMock
	notifier *NotifierMock
}

func newFixture() *fixture {
	f := &fixture{
		tx:       new(TxManagerMock),
		orders:   new(OrderRepoMock),
		items:    new(OrderItemRepoMock),
		addrs:    new(AddressRepoMock),
		products: new(ProductRepoMock),
		partners: new(PartnerRepoMock),
		audit:    new(AuditRepoMock),
		users:    new(UserRepoMock),
		notifier: new(NotifierMock),
	}
	f.tx.Repos = &TxReposMock{
		orders:     f.orders,
		orderItems: f.items,
		addresses:  f.addrs,
		products:   f.products,
		partners:   f.partners,
		audit:      f.audit,
		users:      f.users,
	}
	f.tx.On("WithinTx", mock.Anything).Return(nil)
	return f
}

// 明細・住所の読み込み（レスポンス組み立て）
func (f *fixture) expectDetail(orderID, addressID int64) {
	f.items.On("ListByOrderID", mock.Anything, orderID).Return([]model.OrderItem{}, nil)
	f.addrs.On("FindByID", mock.Anything, addressID).Return(model.Address{ID: addressID, FullName: "Anna", AddressLine: "1 Baker St", Pincode: "560001"}, nil)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T { return &v }

// =====================
// Helper: error contains（HTTPErrorの実装詳細に依存しない）
// =====================

func assertErrContains(t *testing.T, err error, wantSubstr string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.True(t, strings.Contains(err.Error(), wantSubstr), "err=%q want contains %q", err.Error(), wantSubstr)
	}
}

func assertStatus(t *testing.T, err error, want int) {
	t.Helper()
	he, ok := usecase.AsHTTPError(err)
	if assert.True(t, ok, "err=%v", err) {
		assert.Equal(t, want, he.Status)
	}
}
