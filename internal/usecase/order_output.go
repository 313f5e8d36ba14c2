package usecase

import (
	"context"
	"time"

	"bakery/internal/domain/model"
	repo "bakery/internal/repository"

	"github.com/shopspring/decimal"
)

type OrderItemOutput struct {
	ProductID     int64           `json:"product_id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int64           `json:"quantity"`
	Customization string          `json:"customization,omitempty"`
}

type AddressOutput struct {
	ID          int64  `json:"id"`
	FullName    string `json:"full_name"`
	Phone       string `json:"phone"`
	AddressLine string `json:"address_line"`
	City        string `json:"city"`
	State       string `json:"state"`
	Pincode     string `json:"pincode"`
	Landmark    string `json:"landmark,omitempty"`
}

type OrderOutput struct {
	ID                int64                      `json:"id"`
	OrderNumber       string                     `json:"order_number"`
	UserID            int64                      `json:"user_id"`
	AddressID         int64                      `json:"address_id"`
	Address           *AddressOutput             `json:"address,omitempty"`
	Subtotal          decimal.Decimal            `json:"subtotal"`
	DeliveryFee       decimal.Decimal            `json:"delivery_fee"`
	Tax               decimal.Decimal            `json:"tax"`
	Total             decimal.Decimal            `json:"total"`
	Status            string                     `json:"status"`
	PaymentStatus     string                     `json:"payment_status"`
	PaymentMethod     string                     `json:"payment_method"`
	DeliveryPartnerID *int64                     `json:"delivery_partner_id"`
	DeliveryDate      string                     `json:"delivery_date"`
	DeliverySlot      string                     `json:"delivery_slot,omitempty"`
	Notes             string                     `json:"notes,omitempty"`
	StatusHistory     []model.StatusHistoryEntry `json:"status_history"`
	CreatedAt         time.Time                  `json:"created_at"`
	Items             []OrderItemOutput          `json:"items"`
}

// 一覧用。明細は1クエリでまとめて引く
func toOrderOutputs(ctx context.Context, r repo.TxRepos, orders []model.Order) ([]OrderOutput, error) {
	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	byOrder, err := r.OrderItems().ListByOrderIDs(ctx, ids)
	if err != nil {
		return nil, internalError(err)
	}

	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		outs = append(outs, toOrderOutput(o, byOrder[o.ID]))
	}
	return outs, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID:     it.ProductID,
			Name:          it.ProductNameSnapshot,
			Price:         it.UnitPriceSnapshot,
			Quantity:      it.Quantity,
			Customization: it.Customization,
		})
	}

	return OrderOutput{
		ID:                o.ID,
		OrderNumber:       o.OrderNumber,
		UserID:            o.UserID,
		AddressID:         o.AddressID,
		Subtotal:          o.Subtotal,
		DeliveryFee:       o.DeliveryFee,
		Tax:               o.Tax,
		Total:             o.Total,
		Status:            string(o.Status),
		PaymentStatus:     string(o.PaymentStatus),
		PaymentMethod:     string(o.PaymentMethod),
		DeliveryPartnerID: o.DeliveryPartnerID,
		DeliveryDate:      formatDate(o),
		DeliverySlot:      o.DeliverySlot,
		Notes:             o.Notes,
		StatusHistory:     o.History(),
		CreatedAt:         o.CreatedAt,
		Items:             outItems,
	}
}

func toAddressOutput(a model.Address) *AddressOutput {
	return &AddressOutput{
		ID:          a.ID,
		FullName:    a.FullName,
		Phone:       a.Phone,
		AddressLine: a.AddressLine,
		City:        a.City,
		State:       a.State,
		Pincode:     a.Pincode,
		Landmark:    a.Landmark,
	}
}

func formatDate(o model.Order) string {
	t := time.Time(o.DeliveryDate)
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
