package handler

import (
	"net/http"
	"strconv"
	"strings"

	"bakery/internal/domain/model"
	"bakery/internal/repository"
	"bakery/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminOrderHandler struct {
	uc *usecase.AdminOrderUsecase
}

func NewAdminOrderHandler(uc *usecase.AdminOrderUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{uc: uc}
}

type OrderStatusUpdateRequest struct {
	OrderID int64  `json:"orderId"`
	Status  string `json:"status"`
	Note    string `json:"note"`
}

type AssignDeliveryPartnerRequest struct {
	DeliveryPartnerID int64 `json:"deliveryPartnerId"`
}

func (h *AdminOrderHandler) RegisterRoutes(admin *echo.Group) {
	admin.GET("/orders", h.list)
	admin.PATCH("/orders", h.updateStatus)
	admin.PATCH("/orders/:id/assign", h.assign)
	admin.GET("/orders/:id/audit-logs", h.auditTrail)
	admin.GET("/audit-logs", h.auditLogs)
}

func (h *AdminOrderHandler) list(c echo.Context) error {
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid page"})
	}

	limit, ok := queryInt(c, "limit", 50)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
	}

	status := strings.ToUpper(strings.TrimSpace(c.QueryParam("status")))

	userID, ok := queryInt64Ptr(c, "user_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user_id"})
	}

	partnerID, ok := queryInt64Ptr(c, "delivery_partner_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid delivery_partner_id"})
	}

	fromPtr, ok := queryTimePtr(c, "from")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid from"})
	}
	toPtr, ok := queryTimePtr(c, "to")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid to"})
	}

	out, err := h.uc.List(c.Request().Context(), repository.AdminOrderListFilter{
		Page:              page,
		Limit:             limit,
		Status:            status,
		UserID:            userID,
		DeliveryPartnerID: partnerID,
		From:              fromPtr,
		To:                toPtr,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

// PATCH /admin/orders {orderId, status, note}
func (h *AdminOrderHandler) updateStatus(c echo.Context) error {
	var req OrderStatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if req.OrderID <= 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "orderId required"})
	}

	// ★操作した管理者IDを取得（監査ログ用）
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if err := h.uc.UpdateStatus(
		c.Request().Context(),
		adminID,
		req.OrderID,
		usecase.AdminUpdateOrderStatusInput{Status: req.Status, Note: req.Note},
	); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "updated"})
}

// PATCH /admin/orders/:id/assign {deliveryPartnerId}
func (h *AdminOrderHandler) assign(c echo.Context) error {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req AssignDeliveryPartnerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.AssignDeliveryPartner(c.Request().Context(), adminID, orderID, req.DeliveryPartnerID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) auditLogs(c echo.Context) error {
	limit, ok := queryInt(c, "limit", 50)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
	}
	offset, ok := queryInt(c, "offset", 0)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid offset"})
	}
	actorID, ok := queryInt64Ptr(c, "actor_user_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid actor_user_id"})
	}
	resourceID, ok := queryInt64Ptr(c, "resource_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid resource_id"})
	}
	since, ok := queryTimePtr(c, "from")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid from"})
	}
	until, ok := queryTimePtr(c, "to")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid to"})
	}

	f := repository.AuditLogFilter{
		ActorUserID: actorID,
		Since:       since,
		Until:       until,
		Limit:       limit,
		Offset:      offset,
	}
	if v := c.QueryParam("action"); v != "" {
		a := model.AuditAction(strings.ToUpper(v))
		f.Action = &a
	}
	// resource_idだけでは対象が決まらない
	if v := c.QueryParam("resource_type"); v != "" {
		f.Target = &repository.AuditTarget{Type: model.AuditResourceType(strings.ToLower(v))}
		if resourceID != nil {
			f.Target.ID = *resourceID
		}
	} else if resourceID != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "resource_type required"})
	}

	logs, total, err := h.uc.ListAuditLogs(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	c.Response().Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	return c.JSON(http.StatusOK, logs)
}

func (h *AdminOrderHandler) auditTrail(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}
	logs, err := h.uc.OrderAuditTrail(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, logs)
}
