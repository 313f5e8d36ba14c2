package handler

import (
	"net/http"
	"strconv"

	"bakery/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /admin/delivery-partners
type AdminDeliveryPartnerHandler struct {
	uc *usecase.DeliveryPartnerUsecase
}

func NewAdminDeliveryPartnerHandler(uc *usecase.DeliveryPartnerUsecase) *AdminDeliveryPartnerHandler {
	return &AdminDeliveryPartnerHandler{uc: uc}
}

type CreatePartnerRequest struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	VehicleType   string `json:"vehicleType"`
	VehicleNumber string `json:"vehicleNumber"`
}

type RotatePasswordRequest struct {
	Password string `json:"password"`
}

func (h *AdminDeliveryPartnerHandler) RegisterRoutes(admin *echo.Group) {
	admin.GET("/delivery-partners", h.List)
	admin.POST("/delivery-partners", h.Create)
	admin.PATCH("/delivery-partners/:id/password", h.RotatePassword)
	admin.DELETE("/delivery-partners/:id", h.Delete)
}

// ?status=AVAILABLE|BUSY|OFFLINE&selectable=true
func (h *AdminDeliveryPartnerHandler) List(c echo.Context) error {
	selectable := false
	if v := c.QueryParam("selectable"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid selectable"})
		}
		selectable = b
	}

	out, err := h.uc.List(c.Request().Context(), usecase.PartnerListInput{
		Status:     c.QueryParam("status"),
		Selectable: selectable,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminDeliveryPartnerHandler) Create(c echo.Context) error {
	var req CreatePartnerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.Create(c.Request().Context(), adminID, usecase.CreatePartnerInput{
		Name:          req.Name,
		Phone:         req.Phone,
		Email:         req.Email,
		Password:      req.Password,
		VehicleType:   req.VehicleType,
		VehicleNumber: req.VehicleNumber,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *AdminDeliveryPartnerHandler) RotatePassword(c echo.Context) error {
	partnerID, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req RotatePasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if err := h.uc.RotatePassword(c.Request().Context(), adminID, partnerID, req.Password); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "password updated"})
}

func (h *AdminDeliveryPartnerHandler) Delete(c echo.Context) error {
	partnerID, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if err := h.uc.Delete(c.Request().Context(), adminID, partnerID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}
