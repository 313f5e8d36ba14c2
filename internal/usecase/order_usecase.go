package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"time"

	"bakery/internal/domain/model"
	repo "bakery/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	orderNumberPrefix   = "ORD-"
	orderNumberLength   = 10
	orderNumberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	//order_number衝突時にtxごとやり直す回数
	maxOrderNumberAttempts = 5
)

var errOrderNumberTaken = errors.New("order number taken")

type OrderUsecase struct {
	tx       repo.TransactionManager
	users    repo.UserRepository
	notifier Notifier
	logger   *slog.Logger
}

func NewOrderUsecase(tx repo.TransactionManager, users repo.UserRepository, notifier Notifier, logger *slog.Logger) *OrderUsecase {
	return &OrderUsecase{tx: tx, users: users, notifier: notifier, logger: logger}
}

type PlaceOrderItemInput struct {
	ProductID     int64
	Quantity      int64
	Price         decimal.Decimal
	Customization string
}

type PlaceOrderAddressInput struct {
	FullName    string
	Phone       string
	AddressLine string
	City        string
	State       string
	Pincode     string
	Landmark    string
}

type PlaceOrderInput struct {
	Items         []PlaceOrderItemInput
	Subtotal      decimal.Decimal
	DeliveryFee   decimal.Decimal
	Total         decimal.Decimal
	PaymentMethod string
	DeliveryDate  string // YYYY-MM-DD（空なら翌日）
	DeliverySlot  string
	Notes         string
	Address       *PlaceOrderAddressInput
}

// 書き込み前に入力をすべて検証してから、1つのtxで住所・注文・明細を作る
func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if len(in.Items) == 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "items required")
	}
	if in.Address == nil {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "address required")
	}

	addr := normalizeAddress(*in.Address)
	if addr.FullName == "" || addr.AddressLine == "" || addr.Pincode == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid address")
	}

	for _, it := range in.Items {
		if it.ProductID <= 0 {
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
		}
		if it.Quantity <= 0 {
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
		}
		if it.Price.IsNegative() {
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid price")
		}
	}
	if in.Subtotal.IsNegative() || in.DeliveryFee.IsNegative() || in.Total.IsNegative() {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid amount")
	}

	method := model.PaymentMethodOnline
	if s := strings.ToUpper(strings.TrimSpace(in.PaymentMethod)); s != "" {
		m, ok := model.ParsePaymentMethod(s)
		if !ok {
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid payment method")
		}
		method = m
	}

	now := time.Now()
	deliveryDate := startOfDay(now).AddDate(0, 0, 1)
	if s := strings.TrimSpace(in.DeliveryDate); s != "" {
		d, err := time.ParseInLocation("2006-01-02", s, now.Location())
		if err != nil {
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid delivery date")
		}
		deliveryDate = d
	}

	var out OrderOutput
	var err error
	for attempt := 1; attempt <= maxOrderNumberAttempts; attempt++ {
		var number string
		number, err = newOrderNumber()
		if err != nil {
			return OrderOutput{}, internalError(err)
		}

		err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
			//住所は (user, 宛名, 住所, 郵便番号) が一致すれば再利用
			address, err := r.Addresses().FindMatching(ctx, userID, addr.FullName, addr.AddressLine, addr.Pincode)
			if errors.Is(err, repo.ErrNotFound) {
				address, err = r.Addresses().Create(ctx, model.Address{
					UserID:      userID,
					FullName:    addr.FullName,
					Phone:       addr.Phone,
					AddressLine: addr.AddressLine,
					City:        addr.City,
					State:       addr.State,
					Pincode:     addr.Pincode,
					Landmark:    addr.Landmark,
				})
			}
			if err != nil {
				return internalError(err)
			}

			//スナップショット
			orderItems := make([]model.OrderItem, 0, len(in.Items))
			for _, it := range in.Items {
				p, err := r.Products().FindByID(ctx, it.ProductID)
				if errors.Is(err, repo.ErrNotFound) {
					return NewHTTPError(http.StatusBadRequest, "product not found")
				}
				if err != nil {
					return internalError(err)
				}
				orderItems = append(orderItems, model.OrderItem{
					ProductID:           p.ID,
					ProductNameSnapshot: p.Name,
					UnitPriceSnapshot:   it.Price,
					Quantity:            it.Quantity,
					Customization:       strings.TrimSpace(it.Customization),
				})
			}

			order := model.Order{
				OrderNumber:   number,
				UserID:        userID,
				AddressID:     address.ID,
				Subtotal:      in.Subtotal,
				DeliveryFee:   in.DeliveryFee,
				Tax:           decimal.Zero,
				Total:         in.Total,
				Status:        model.OrderStatusPending,
				PaymentStatus: model.PaymentStatusPaid,
				PaymentMethod: method,
				DeliveryDate:  datatypes.Date(deliveryDate),
				DeliverySlot:  strings.TrimSpace(in.DeliverySlot),
				Notes:         strings.TrimSpace(in.Notes),
			}
			if err := order.AppendHistory(model.OrderStatusPending, "Order placed", now); err != nil {
				return internalError(err)
			}

			// 注文作成
			if err := r.Orders().Create(ctx, &order); err != nil {
				if errors.Is(err, repo.ErrDuplicate) {
					return errOrderNumberTaken
				}
				return internalError(err)
			}

			//注文明細一括作成
			if err := r.OrderItems().CreateBulk(ctx, order.ID, orderItems); err != nil {
				return internalError(err)
			}

			out = toOrderOutput(order, orderItems)
			out.Address = toAddressOutput(address)
			return nil
		})
		if !errors.Is(err, errOrderNumberTaken) {
			break
		}
		u.logger.Warn("order number collision, retrying", "order_number", number, "attempt", attempt)
	}
	if errors.Is(err, errOrderNumberTaken) {
		return OrderOutput{}, internalError(err)
	}
	if err != nil {
		return OrderOutput{}, err
	}

	u.notifyOrderPlaced(ctx, userID, out)
	return out, nil
}

func (u *OrderUsecase) notifyOrderPlaced(ctx context.Context, userID int64, out OrderOutput) {
	user, err := u.users.FindByID(ctx, userID)
	if err != nil || user == nil {
		u.logger.Warn("order confirmation skipped", "order_number", out.OrderNumber, "err", err)
		return
	}
	err = u.notifier.OrderPlaced(ctx, OrderPlacedMessage{
		To:           user.Email,
		CustomerName: user.Name,
		OrderNumber:  out.OrderNumber,
		Total:        out.Total,
		DeliveryDate: out.DeliveryDate,
		DeliverySlot: out.DeliverySlot,
	})
	if err != nil {
		u.logger.Warn("order confirmation failed", "order_number", out.OrderNumber, "err", err)
	}
}

// 自分の注文（新しい順）と総件数
func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, page int, limit int) ([]OrderOutput, int64, error) {
	if userID <= 0 {
		return []OrderOutput{}, 0, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if page < 1 {
		return []OrderOutput{}, 0, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if limit < 1 || limit > 100 {
		return []OrderOutput{}, 0, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	var (
		outs  []OrderOutput
		total int64
	)
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, n, err := r.Orders().ListByUserID(ctx, userID, page, limit)
		if err != nil {
			return internalError(err)
		}
		total = n

		outs, err = toOrderOutputs(ctx, r, orders)
		return err
	})

	if err != nil {
		return []OrderOutput{}, 0, err
	}
	return outs, total, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return internalError(err)
		}
		if o.UserID != userID {
			//他人の注文は「存在しない扱い」にする
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		out, err = loadOrderDetail(ctx, r, o)
		return err
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// 明細と配送先をつけて返す
func loadOrderDetail(ctx context.Context, r repo.TxRepos, o model.Order) (OrderOutput, error) {
	items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
	if err != nil {
		return OrderOutput{}, internalError(err)
	}
	out := toOrderOutput(o, items)

	a, err := r.Addresses().FindByID(ctx, o.AddressID)
	switch {
	case err == nil:
		out.Address = toAddressOutput(a)
	case !errors.Is(err, repo.ErrNotFound):
		return OrderOutput{}, internalError(err)
	}
	return out, nil
}

func normalizeAddress(a PlaceOrderAddressInput) PlaceOrderAddressInput {
	return PlaceOrderAddressInput{
		FullName:    strings.TrimSpace(a.FullName),
		Phone:       strings.TrimSpace(a.Phone),
		AddressLine: strings.TrimSpace(a.AddressLine),
		City:        strings.TrimSpace(a.City),
		State:       strings.TrimSpace(a.State),
		Pincode:     strings.TrimSpace(a.Pincode),
		Landmark:    strings.TrimSpace(a.Landmark),
	}
}

// ORD- + 英大文字数字10桁
func newOrderNumber() (string, error) {
	var b strings.Builder
	b.WriteString(orderNumberPrefix)
	max := big.NewInt(int64(len(orderNumberAlphabet)))
	for i := 0; i < orderNumberLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(orderNumberAlphabet[n.Int64()])
	}
	return b.String(), nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
