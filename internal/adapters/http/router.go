package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/chintakjoshi/authapp/internal/adapters/http/handlers"
)

type Router struct {
	handlers *handlers.AuthHandler
	authMW   echo.MiddlewareFunc
}

func NewRouter(h *handlers.AuthHandler, authMW echo.MiddlewareFunc) *Router {
	return &Router{handlers: h, authMW: authMW}
}

func (r *Router) Setup(e *echo.Echo) {
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/login", r.handlers.Login)
	auth.POST("/register", r.handlers.Register)
	auth.POST("/verify", r.handlers.VerifyOtp)
	auth.POST("/resend-otp", r.handlers.ResendOtp)
	auth.POST("/refresh", r.handlers.Refresh)
	auth.POST("/logout", r.handlers.Logout)
	auth.POST("/forgot-password", r.handlers.ForgotPassword)
	auth.POST("/reset-password", r.handlers.ResetPassword)
	auth.GET("/validate-reset-token", r.handlers.ValidateResetToken)

	protected := api.Group("", r.authMW)
	protected.GET("/secure-endpoint", r.handlers.SecureEndpoint)
}
