package middleware

import (
	"context"
	"net/http"

	"bakery/internal/domain/model"
	auth "bakery/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
)

const CtxDeliveryPartnerIDKey = "delivery_partner_id" // int64

// DeliveryAuthがDBを引くための最小限
type DeliveryPartnerFinder interface {
	FindByID(ctx context.Context, id int64) (model.DeliveryPartner, error)
}

// 配達員のbearerトークン（id, phone, role=DELIVERY_PARTNER, tv）を検証する
func DeliveryAuth(secret string, partners DeliveryPartnerFinder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c)
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			claims, err := auth.ParseDeliveryToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//削除済み・パスワード変更済みなら401
			p, err := partners.FindByID(c.Request().Context(), claims.ID)
			if err != nil || p.TokenVersion != claims.TokenVersion {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			c.Set(CtxDeliveryPartnerIDKey, claims.ID)
			return next(c)
		}
	}
}
