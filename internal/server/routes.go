package server

import (
	"bakery/internal/config"
	"bakery/internal/domain/model"
	"bakery/internal/handler"
	"bakery/internal/middleware"
	"bakery/internal/repository"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Auth            *handler.AuthHandler
	Product         *handler.ProductHandler
	AdminProduct    *handler.AdminProductHandler
	Wishlist        *handler.WishlistHandler
	Address         *handler.AddressHandler
	Order           *handler.OrderHandler
	AdminOrder      *handler.AdminOrderHandler
	DeliveryPartner *handler.AdminDeliveryPartnerHandler
	Delivery        *handler.DeliveryHandler
}

// /api 配下のルート
func RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository, partnerRepo repository.DeliveryPartnerRepository, throttle *middleware.IPThrottle, h Handlers) {
	api := e.Group("/api")
	if throttle != nil {
		api.Use(throttle.Middleware())
	}

	//JWT必須 + token_version一致 + 顧客/管理者のrole
	session := []echo.MiddlewareFunc{
		middleware.AuthJWT(cfg),
		middleware.TokenVersionGuard(userRepo),
		middleware.RequireRole(model.RoleUser, model.RoleAdmin),
	}

	h.Auth.RegisterRoutes(api, session...)
	h.Product.RegisterRoutes(api)
	h.Wishlist.RegisterRoutes(api, session...)
	h.Address.RegisterRoutes(api, session...)
	h.Order.RegisterRoutes(api, session...)
	h.Delivery.RegisterRoutes(api, middleware.DeliveryAuth(cfg.DeliveryJWTSecret, partnerRepo))

	// /admin 配下はADMINだけ
	admin := api.Group("/admin", append(session, middleware.RequireRole(model.RoleAdmin))...)
	h.AdminProduct.RegisterRoutes(admin)
	h.AdminOrder.RegisterRoutes(admin)
	h.DeliveryPartner.RegisterRoutes(admin)
}
