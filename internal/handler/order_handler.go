package handler

import (
	"net/http"
	"strconv"

	"bakery/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type OrderHandler struct {
	uc *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

type OrderItemRequest struct {
	ProductID     int64           `json:"productId"`
	Quantity      int64           `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	Customization string          `json:"customization"`
}

type OrderAddressRequest struct {
	FullName    string `json:"fullName"`
	Phone       string `json:"phone"`
	AddressLine string `json:"addressLine"`
	City        string `json:"city"`
	State       string `json:"state"`
	Pincode     string `json:"pincode"`
	Landmark    string `json:"landmark"`
}

type OrderCreateRequest struct {
	Items         []OrderItemRequest   `json:"items"`
	Subtotal      decimal.Decimal      `json:"subtotal"`
	DeliveryFee   decimal.Decimal      `json:"deliveryFee"`
	Total         decimal.Decimal      `json:"total"`
	PaymentMethod string               `json:"paymentMethod"`
	DeliveryDate  string               `json:"deliveryDate"`
	DeliverySlot  string               `json:"deliverySlot"`
	Notes         string               `json:"notes"`
	Address       *OrderAddressRequest `json:"address"`
}

func (r OrderCreateRequest) toInput() usecase.PlaceOrderInput {
	in := usecase.PlaceOrderInput{
		Items:         make([]usecase.PlaceOrderItemInput, 0, len(r.Items)),
		Subtotal:      r.Subtotal,
		DeliveryFee:   r.DeliveryFee,
		Total:         r.Total,
		PaymentMethod: r.PaymentMethod,
		DeliveryDate:  r.DeliveryDate,
		DeliverySlot:  r.DeliverySlot,
		Notes:         r.Notes,
	}
	for _, it := range r.Items {
		in.Items = append(in.Items, usecase.PlaceOrderItemInput{
			ProductID:     it.ProductID,
			Quantity:      it.Quantity,
			Price:         it.Price,
			Customization: it.Customization,
		})
	}
	if r.Address != nil {
		in.Address = &usecase.PlaceOrderAddressInput{
			FullName:    r.Address.FullName,
			Phone:       r.Address.Phone,
			AddressLine: r.Address.AddressLine,
			City:        r.Address.City,
			State:       r.Address.State,
			Pincode:     r.Address.Pincode,
			Landmark:    r.Address.Landmark,
		}
	}
	return in
}

func (h *OrderHandler) RegisterRoutes(g *echo.Group, session ...echo.MiddlewareFunc) {
	o := g.Group("/orders", session...)

	o.POST("", h.create)
	o.GET("/user", h.list)
	o.GET("/:id", h.detail)
}

func (h *OrderHandler) create(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req OrderCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.PlaceOrder(c.Request().Context(), userID, req.toInput())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, out)
}

func (h *OrderHandler) list(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	page, ok := queryInt(c, "page", 1)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid page"})
	}
	limit, ok := queryInt(c, "limit", 20)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
	}

	out, total, err := h.uc.ListMyOrders(c.Request().Context(), userID, page, limit)
	if err != nil {
		return writeError(c, err)
	}
	//本文は配列のまま、総件数はヘッダで返す
	c.Response().Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) detail(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.uc.GetMyOrderDetail(c.Request().Context(), userID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
