package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/chintakjoshi/authapp/internal/tokenverify"
	res "github.com/chintakjoshi/authapp/pkg/http"
)

type AuthMiddleware struct {
	validator tokenverify.Validator
}

func NewAuthMiddleware(validator tokenverify.Validator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// Handler admits requests bearing a valid access token and stashes the
// subject and role on the echo context for downstream handlers.
func (m *AuthMiddleware) Handler(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authz := c.Request().Header.Get(echo.HeaderAuthorization)
		parts := strings.SplitN(authz, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return res.Text(c, http.StatusUnauthorized, "Missing or malformed Authorization header")
		}
		result, err := tokenverify.VerifyAccess(m.validator, parts[1])
		if err != nil {
			return res.Text(c, http.StatusUnauthorized, "Invalid or expired token")
		}
		c.Set("username", result.Username)
		c.Set("role", result.Role)
		return next(c)
	}
}
