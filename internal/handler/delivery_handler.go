package handler

import (
	"net/http"

	"bakery/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 配達員アプリ向け（/delivery）
type DeliveryHandler struct {
	uc *usecase.DeliveryUsecase
}

func NewDeliveryHandler(uc *usecase.DeliveryUsecase) *DeliveryHandler {
	return &DeliveryHandler{uc: uc}
}

type DeliveryLoginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type DeliveryStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

// partnerAuthにはDeliveryAuthを渡す
func (h *DeliveryHandler) RegisterRoutes(g *echo.Group, partnerAuth ...echo.MiddlewareFunc) {
	d := g.Group("/delivery")
	d.POST("/login", h.login)

	d.POST("/logout", h.logout, partnerAuth...)
	d.GET("/me", h.me, partnerAuth...)
	d.GET("/orders", h.orders, partnerAuth...)
	d.PATCH("/orders/:id/status", h.updateStatus, partnerAuth...)
}

func (h *DeliveryHandler) login(c echo.Context) error {
	var req DeliveryLoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.Login(c.Request().Context(), req.Phone, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *DeliveryHandler) logout(c echo.Context) error {
	partnerID, ok := getPartnerIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if err := h.uc.Logout(c.Request().Context(), partnerID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "logged out"})
}

func (h *DeliveryHandler) me(c echo.Context) error {
	partnerID, ok := getPartnerIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.Me(c.Request().Context(), partnerID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// ?scope=active|completed
func (h *DeliveryHandler) orders(c echo.Context) error {
	partnerID, ok := getPartnerIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.ListOrders(c.Request().Context(), partnerID, c.QueryParam("scope"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *DeliveryHandler) updateStatus(c echo.Context) error {
	partnerID, ok := getPartnerIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req DeliveryStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.UpdateStatus(c.Request().Context(), partnerID, orderID, usecase.DeliveryUpdateStatusInput{
		Status: req.Status,
		Note:   req.Note,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
