package middleware

import (
	"net/http"
	"slices"
	"strings"

	"bakery/internal/domain/model"

	"github.com/labstack/echo/v4"
)

// AuthJWTが入れたroleが許可されたものか確認する
// 1つだけなら "admin only" のように返す
func RequireRole(allowed ...model.Role) echo.MiddlewareFunc {
	denied := "forbidden"
	if len(allowed) == 1 {
		denied = strings.ToLower(string(allowed[0])) + " only"
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, _ := c.Get(CtxUserRoleKey).(string)
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			if !slices.Contains(allowed, model.Role(raw)) {
				return c.JSON(http.StatusForbidden, errorJSON(denied))
			}
			return next(c)
		}
	}
}
