package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"testing"
	"time"

	"bakery/internal/domain/model"
	repo "bakery/internal/repository"
	"bakery/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var orderNumberPattern = regexp.MustCompile(`^ORD-[A-Z0-9]{10}$`)

func newOrderUC(f *fixture) *usecase.OrderUsecase {
	return usecase.NewOrderUsecase(f.tx, f.users, f.notifier, discardLogger())
}

func validOrderInput() usecase.PlaceOrderInput {
	return usecase.PlaceOrderInput{
		Items: []usecase.PlaceOrderItemInput{
			{ProductID: 5, Quantity: 2, Price: decimal.RequireFromString("450.00"), Customization: "Happy Birthday"},
		},
		Subtotal:      decimal.RequireFromString("900.00"),
		DeliveryFee:   decimal.RequireFromString("50.00"),
		Total:         decimal.RequireFromString("950.00"),
		PaymentMethod: "cod",
		DeliveryDate:  "2025-03-02",
		DeliverySlot:  "10:00-12:00",
		Address: &usecase.PlaceOrderAddressInput{
			FullName:    " Anna ",
			Phone:       "9000000000",
			AddressLine: "1 Baker St",
			City:        "Bengaluru",
			Pincode:     "560001",
		},
	}
}

func TestOrderUsecase_PlaceOrder_Validation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(in *usecase.PlaceOrderInput)
		want   string
	}{
		{"no items", func(in *usecase.PlaceOrderInput) { in.Items = nil }, "items required"},
		{"no address", func(in *usecase.PlaceOrderInput) { in.Address = nil }, "address required"},
		{"address without pincode", func(in *usecase.PlaceOrderInput) { in.Address.Pincode = " " }, "invalid address"},
		{"zero quantity", func(in *usecase.PlaceOrderInput) { in.Items[0].Quantity = 0 }, "invalid quantity"},
		{"negative price", func(in *usecase.PlaceOrderInput) { in.Items[0].Price = decimal.NewFromInt(-1) }, "invalid price"},
		{"bad product id", func(in *usecase.PlaceOrderInput) { in.Items[0].ProductID = 0 }, "invalid product_id"},
		{"negative total", func(in *usecase.PlaceOrderInput) { in.Total = decimal.NewFromInt(-5) }, "invalid amount"},
		{"unknown payment method", func(in *usecase.PlaceOrderInput) { in.PaymentMethod = "BARTER" }, "invalid payment method"},
		{"bad delivery date", func(in *usecase.PlaceOrderInput) { in.DeliveryDate = "02/03/2025" }, "invalid delivery date"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			in := validOrderInput()
			tc.mutate(&in)

			_, err := newOrderUC(f).PlaceOrder(context.Background(), 1, in)
			assertErrContains(t, err, tc.want)
			assertStatus(t, err, http.StatusBadRequest)
			//書き込み前に弾く
			f.tx.AssertNotCalled(t, "WithinTx", mock.Anything)
		})
	}
}

func TestOrderUsecase_PlaceOrder_Unauthenticated(t *testing.T) {
	f := newFixture()
	_, err := newOrderUC(f).PlaceOrder(context.Background(), 0, validOrderInput())
	assertStatus(t, err, http.StatusUnauthorized)
}

func TestOrderUsecase_PlaceOrder_Success(t *testing.T) {
	f := newFixture()

	f.addrs.On("FindMatching", mock.Anything, int64(1), "Anna", "1 Baker St", "560001").Return(model.Address{}, repo.ErrNotFound)
	f.addrs.On("Create", mock.Anything, mock.MatchedBy(func(a model.Address) bool {
		return a.UserID == 1 && a.FullName == "Anna" && a.City == "Bengaluru"
	})).Return(model.Address{ID: 3, UserID: 1, FullName: "Anna", AddressLine: "1 Baker St", Pincode: "560001"}, nil)
	f.products.On("FindByID", mock.Anything, int64(5)).Return(model.Product{ID: 5, Name: "Black Forest Cake"}, nil)

	var created model.Order
	f.orders.On("Create", mock.Anything, mock.AnythingOfType("*model.Order")).
		Run(func(args mock.Arguments) { created = *args.Get(1).(*model.Order) }).
		Return(nil)
	f.items.On("CreateBulk", mock.Anything, int64(100), mock.MatchedBy(func(items []model.OrderItem) bool {
		return len(items) == 1 &&
			items[0].ProductNameSnapshot == "Black Forest Cake" &&
			items[0].UnitPriceSnapshot.Equal(decimal.RequireFromString("450")) &&
			items[0].Customization == "Happy Birthday"
	})).Return(nil)
	f.users.On("FindByID", mock.Anything, int64(1)).Return(&model.User{ID: 1, Name: "Anna", Email: "anna@test.com"}, nil)
	f.notifier.On("OrderPlaced", mock.Anything, mock.MatchedBy(func(m usecase.OrderPlacedMessage) bool {
		return m.To == "anna@test.com" && m.Total.Equal(decimal.RequireFromString("950"))
	})).Return(nil)

	out, err := newOrderUC(f).PlaceOrder(context.Background(), 1, validOrderInput())
	require.NoError(t, err)

	assert.Regexp(t, orderNumberPattern, out.OrderNumber)
	assert.Equal(t, "PENDING", out.Status)
	assert.Equal(t, "PAID", out.PaymentStatus)
	assert.Equal(t, "COD", out.PaymentMethod)
	assert.Equal(t, "2025-03-02", out.DeliveryDate)
	assert.True(t, out.Tax.IsZero())
	require.Len(t, out.StatusHistory, 1)
	assert.Equal(t, model.OrderStatusPending, out.StatusHistory[0].Status)
	assert.Equal(t, "Order placed", out.StatusHistory[0].Note)
	require.NotNil(t, out.Address)
	assert.Equal(t, int64(3), out.Address.ID)

	assert.Equal(t, int64(3), created.AddressID)
	assert.Nil(t, created.DeliveryPartnerID)

	f.addrs.AssertExpectations(t)
	f.items.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func TestOrderUsecase_PlaceOrder_ReusesMatchingAddress(t *testing.T) {
	f := newFixture()
	f.addrs.On("FindMatching", mock.Anything, int64(1), "Anna", "1 Baker St", "560001").Return(model.Address{ID: 9, UserID: 1}, nil)
	f.products.On("FindByID", mock.Anything, int64(5)).Return(model.Product{ID: 5, Name: "Cake"}, nil)
	f.orders.On("Create", mock.Anything, mock.MatchedBy(func(o *model.Order) bool { return o.AddressID == 9 })).Return(nil)
	f.items.On("CreateBulk", mock.Anything, int64(100), mock.Anything).Return(nil)
	f.users.On("FindByID", mock.Anything, int64(1)).Return(nil, repo.ErrNotFound)

	_, err := newOrderUC(f).PlaceOrder(context.Background(), 1, validOrderInput())
	require.NoError(t, err)
	f.addrs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	//通知先が取れなくても注文は成功
	f.notifier.AssertNotCalled(t, "OrderPlaced", mock.Anything, mock.Anything)
}

func TestOrderUsecase_PlaceOrder_DefaultsDeliveryDateToTomorrow(t *testing.T) {
	f := newFixture()
	f.addrs.On("FindMatching", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(model.Address{ID: 9}, nil)
	f.products.On("FindByID", mock.Anything, int64(5)).Return(model.Product{ID: 5, Name: "Cake"}, nil)
	f.orders.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.items.On("CreateBulk", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.users.On("FindByID", mock.Anything, int64(1)).Return(&model.User{ID: 1, Email: "a@test.com"}, nil)
	f.notifier.On("OrderPlaced", mock.Anything, mock.Anything).Return(errors.New("ses down"))

	in := validOrderInput()
	in.DeliveryDate = ""
	in.PaymentMethod = ""

	out, err := newOrderUC(f).PlaceOrder(context.Background(), 1, in)
	require.NoError(t, err)
	assert.Equal(t, time.Now().AddDate(0, 0, 1).Format("2006-01-02"), out.DeliveryDate)
	assert.Equal(t, "ONLINE", out.PaymentMethod)
}

// order_number が衝突したらtxごとやり直す
func TestOrderUsecase_PlaceOrder_RetriesOnDuplicateOrderNumber(t *testing.T) {
	f := newFixture()
	f.addrs.On("FindMatching", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(model.Address{ID: 9}, nil)
	f.products.On("FindByID", mock.Anything, int64(5)).Return(model.Product{ID: 5, Name: "Cake"}, nil)

	var numbers []string
	record := func(args mock.Arguments) { numbers = append(numbers, args.Get(1).(*model.Order).OrderNumber) }
	f.orders.On("Create", mock.Anything, mock.Anything).Run(record).Return(repo.ErrDuplicate).Twice()
	f.orders.On("Create", mock.Anything, mock.Anything).Run(record).Return(nil).Once()
	f.items.On("CreateBulk", mock.Anything, int64(100), mock.Anything).Return(nil).Once()
	f.users.On("FindByID", mock.Anything, int64(1)).Return(nil, repo.ErrNotFound)

	out, err := newOrderUC(f).PlaceOrder(context.Background(), 1, validOrderInput())
	require.NoError(t, err)

	require.Len(t, numbers, 3)
	assert.Equal(t, numbers[2], out.OrderNumber)
	f.tx.AssertNumberOfCalls(t, "WithinTx", 3)
}

func TestOrderUsecase_PlaceOrder_GivesUpAfterMaxAttempts(t *testing.T) {
	f := newFixture()
	f.addrs.On("FindMatching", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(model.Address{ID: 9}, nil)
	f.products.On("FindByID", mock.Anything, int64(5)).Return(model.Product{ID: 5, Name: "Cake"}, nil)
	f.orders.On("Create", mock.Anything, mock.Anything).Return(repo.ErrDuplicate)

	_, err := newOrderUC(f).PlaceOrder(context.Background(), 1, validOrderInput())
	assertStatus(t, err, http.StatusInternalServerError)
	f.orders.AssertNumberOfCalls(t, "Create", 5)
}

func TestOrderUsecase_PlaceOrder_UnknownProduct(t *testing.T) {
	f := newFixture()
	f.addrs.On("FindMatching", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(model.Address{ID: 9}, nil)
	f.products.On("FindByID", mock.Anything, int64(5)).Return(model.Product{}, repo.ErrNotFound)

	_, err := newOrderUC(f).PlaceOrder(context.Background(), 1, validOrderInput())
	assertErrContains(t, err, "product not found")
	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestOrderUsecase_GetMyOrderDetail_OtherUsersOrderIsNotFound(t *testing.T) {
	f := newFixture()
	f.orders.On("FindByID", mock.Anything, int64(10)).Return(model.Order{ID: 10, UserID: 2}, nil)

	_, err := newOrderUC(f).GetMyOrderDetail(context.Background(), 1, 10)
	assertStatus(t, err, http.StatusNotFound)
}

func TestOrderUsecase_ListMyOrders_Paging(t *testing.T) {
	f := newFixture()
	f.orders.On("ListByUserID", mock.Anything, int64(1), 2, 5).Return([]model.Order{
		{ID: 14, UserID: 1, Status: model.OrderStatusPending},
		{ID: 12, UserID: 1, Status: model.OrderStatusDelivered},
	}, int64(7), nil)
	f.items.On("ListByOrderIDs", mock.Anything, []int64{14, 12}).Return(map[int64][]model.OrderItem{
		12: {{OrderID: 12, ProductID: 5, ProductNameSnapshot: "Plum Cake", Quantity: 1}},
	}, nil)

	outs, total, err := newOrderUC(f).ListMyOrders(context.Background(), 1, 2, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(7), total)
	require.Len(t, outs, 2)
	assert.Equal(t, int64(14), outs[0].ID)
	require.Len(t, outs[1].Items, 1)
	assert.Equal(t, "Plum Cake", outs[1].Items[0].Name)
	f.orders.AssertExpectations(t)
}

func TestOrderUsecase_ListMyOrders_InvalidPaging(t *testing.T) {
	cases := []struct {
		name        string
		page, limit int
		want        string
	}{
		{"page zero", 0, 20, "invalid page"},
		{"limit zero", 1, 0, "invalid limit"},
		{"limit too large", 1, 101, "invalid limit"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			_, _, err := newOrderUC(f).ListMyOrders(context.Background(), 1, tc.page, tc.limit)
			assertErrContains(t, err, tc.want)
			f.orders.AssertNotCalled(t, "ListByUserID", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}
