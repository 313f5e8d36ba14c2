package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"bakery/internal/config"
	"bakery/internal/domain/model"
	"bakery/internal/handler"
	"bakery/internal/infra/db"
	infraRepo "bakery/internal/infra/repository"
	"bakery/internal/ratelimit"
	"bakery/internal/repository"
	"bakery/internal/server"
	"bakery/internal/usecase"
	auth "bakery/internal/usecase/auth_usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testPassword = "Bakery-Pass-2026"

// 送信したメールを記録するだけ
type recordingMailer struct {
	mu       sync.Mutex
	placed   []usecase.OrderPlacedMessage
	assigned []usecase.OrderAssignedMessage
	resets   []string
}

func (m *recordingMailer) OrderPlaced(_ context.Context, msg usecase.OrderPlacedMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.placed = append(m.placed, msg)
	return nil
}

func (m *recordingMailer) OrderAssigned(_ context.Context, msg usecase.OrderAssignedMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assigned = append(m.assigned, msg)
	return nil
}

func (m *recordingMailer) PasswordReset(_ context.Context, _, _, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets = append(m.resets, link)
	return nil
}

type testApp struct {
	t      *testing.T
	e      *echo.Echo
	db     *gorm.DB
	users  repository.UserRepository
	mailer *recordingMailer
}

// SQLite(in-memory)の上に本番と同じ配線でechoを組み立てる
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	gormDB, err := db.OpenSQLite("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	//tx中に別コネクションを取りに行かないように1本に絞る
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.Migrate(gormDB))

	cfg := config.Config{
		JWTSecret:         "test-session-secret",
		DeliveryJWTSecret: "test-delivery-secret",
		SessionTTL:        time.Hour,
		DeliveryTokenTTL:  7 * 24 * time.Hour,
		StoreURL:          "http://shop.test",
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	userRepo := infraRepo.NewUserGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	hasher := auth.NewBcryptPasswordHasher(bcrypt.MinCost)
	verifier := auth.NewBcryptPasswordVerifier()
	clock := auth.SystemClock{}
	limiter := ratelimit.New(ratelimit.NewMemoryStore(), 5, 15*time.Minute)
	mailer := &recordingMailer{}

	registerUC := auth.NewRegisterUserUsecase(userRepo, hasher, clock)
	loginUC := auth.NewLoginUsecase(userRepo, verifier, auth.NewJWTIssuer(cfg.JWTSecret, cfg.SessionTTL), limiter, clock)
	sessionUC := auth.NewSessionUsecase(userRepo)
	resetUC := auth.NewPasswordResetUsecase(userRepo, infraRepo.NewPasswordResetTokenRepository(gormDB),
		txm, hasher, mailer, limiter, clock, cfg.StoreURL, logger)
	productUC := usecase.NewProductUsecase(productRepo, infraRepo.NewCategoryGormRepository(gormDB))

	e := server.New(cfg, logger, userRepo, infraRepo.NewDeliveryPartnerGormRepository(gormDB), nil, server.Handlers{
		Auth:         handler.NewAuthHandler(registerUC, loginUC, sessionUC, resetUC, cfg),
		Product:      handler.NewProductHandler(productUC),
		AdminProduct: handler.NewAdminProductHandler(productUC),
		Wishlist: handler.NewWishlistHandler(
			usecase.NewWishlistUsecase(infraRepo.NewWishlistGormRepository(gormDB), productRepo)),
		Address:    handler.NewAddressHandler(usecase.NewAddressUsecase(infraRepo.NewAddressGormRepository(gormDB))),
		Order:      handler.NewOrderHandler(usecase.NewOrderUsecase(txm, userRepo, mailer, logger)),
		AdminOrder: handler.NewAdminOrderHandler(usecase.NewAdminOrderUsecase(txm, infraRepo.NewAuditLogGormRepository(gormDB), mailer, logger)),
		DeliveryPartner: handler.NewAdminDeliveryPartnerHandler(
			usecase.NewDeliveryPartnerUsecase(txm, hasher)),
		Delivery: handler.NewDeliveryHandler(usecase.NewDeliveryUsecase(txm, verifier,
			auth.NewDeliveryTokenIssuer(cfg.DeliveryJWTSecret, cfg.DeliveryTokenTTL), limiter, clock)),
	})

	return &testApp{t: t, e: e, db: gormDB, users: userRepo, mailer: mailer}
}

func (a *testApp) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	a.t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[handler.ErrorResponse](t, rec).Error
}

// ユーザーを作ってAPI経由でログインし、セッションJWTを返す
func (a *testApp) loginAs(email string, role model.Role) (int64, string) {
	a.t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(a.t, err)
	u := &model.User{Name: string(role) + " user", Email: email, PasswordHash: string(hashed), Role: role, IsActive: true}
	require.NoError(a.t, a.users.Create(context.Background(), u))

	rec := a.do(http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": testPassword}, "")
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode[auth.LoginOutput](a.t, rec)
	return u.ID, out.Token.AccessToken
}

func (a *testApp) seedProduct(name string, price string) model.Product {
	a.t.Helper()
	p, err := infraRepo.NewProductGormRepository(a.db).Create(context.Background(), model.Product{
		Name:     name,
		Slug:     usecase.Slugify(name),
		Price:    decimal.RequireFromString(price),
		IsActive: true,
	})
	require.NoError(a.t, err)
	return p
}

// 管理APIで配達員を作り、配達員APIでログインしてトークンを返す
func (a *testApp) seedPartner(adminToken, name, phone string) (usecase.PartnerOutput, string) {
	a.t.Helper()

	rec := a.do(http.MethodPost, "/api/admin/delivery-partners", map[string]string{
		"name": name, "phone": phone, "password": testPassword, "email": phone + "@rider.test",
	}, adminToken)
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(http.MethodPost, "/api/delivery/login", map[string]string{"phone": phone, "password": testPassword}, "")
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode[usecase.DeliveryLoginOutput](a.t, rec)
	return out.Partner, out.Token
}

func (a *testApp) placeOrder(token string, body map[string]interface{}) usecase.OrderOutput {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/orders", body, token)
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[usecase.OrderOutput](a.t, rec)
}

func (a *testApp) partner(id int64) model.DeliveryPartner {
	a.t.Helper()
	var p model.DeliveryPartner
	require.NoError(a.t, a.db.First(&p, id).Error)
	return p
}

func (a *testApp) order(id int64) model.Order {
	a.t.Helper()
	var o model.Order
	require.NoError(a.t, a.db.First(&o, id).Error)
	return o
}

func orderBody(items ...map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"items":         items,
		"subtotal":      997,
		"deliveryFee":   50,
		"total":         1047,
		"paymentMethod": "ONLINE",
		"deliverySlot":  "10:00-12:00",
		"address": map[string]string{
			"fullName":    "Asha Rao",
			"phone":       "9000000001",
			"addressLine": "12 Baker Street",
			"city":        "Pune",
			"state":       "MH",
			"pincode":     "411001",
		},
	}
}

func item(productID int64, qty int, price string) map[string]interface{} {
	return map[string]interface{}{"productId": productID, "quantity": qty, "price": price}
}
