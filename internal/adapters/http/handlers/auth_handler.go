package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/chintakjoshi/authapp/internal/domain"
	"github.com/chintakjoshi/authapp/internal/usecase"
	res "github.com/chintakjoshi/authapp/pkg/http"
)

type AuthHandler struct {
	service usecase.Service
}

func NewAuthHandler(s usecase.Service) *AuthHandler { return &AuthHandler{service: s} }

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	DeviceID string `json:"deviceId"`
}

type registerRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
	DeviceID     string `json:"deviceId"`
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *AuthHandler) Login(c echo.Context) error {
	req := new(loginRequest)
	if err := c.Bind(req); err != nil {
		return res.Text(c, http.StatusBadRequest, "Invalid request payload")
	}
	tokens, err := h.service.Login(c.Request().Context(), requestIDFromCtx(c), req.Username, req.Password, metaFromCtx(c, req.DeviceID))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return res.Text(c, http.StatusUnauthorized, "Invalid username or password")
		}
		return res.Text(c, http.StatusInternalServerError, "Login failed")
	}
	return res.JSON(c, http.StatusOK, tokens)
}

func (h *AuthHandler) Register(c echo.Context) error {
	req := new(registerRequest)
	if err := c.Bind(req); err != nil {
		return res.Text(c, http.StatusBadRequest, "Invalid request payload")
	}
	err := h.service.Register(c.Request().Context(), requestIDFromCtx(c), usecase.RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPasswordMismatch):
			return res.Text(c, http.StatusBadRequest, "Passwords do not match")
		case errors.Is(err, domain.ErrAlreadyInUse):
			return res.Text(c, http.StatusBadRequest, "Username or email already in use")
		}
		return res.Text(c, http.StatusInternalServerError, "Registration failed")
	}
	return res.Text(c, http.StatusOK, "OTP sent to your email")
}

func (h *AuthHandler) VerifyOtp(c echo.Context) error {
	email := c.FormValue("email")
	otp := c.FormValue("otp")
	err := h.service.VerifyOtp(c.Request().Context(), requestIDFromCtx(c), email, otp)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOtpMismatch):
			return res.Text(c, http.StatusUnauthorized, "Invalid OTP")
		case errors.Is(err, domain.ErrNotFound):
			return res.Text(c, http.StatusNotFound, "No pending registration for this email")
		case errors.Is(err, domain.ErrOtpExpired):
			return res.Text(c, http.StatusGone, "OTP has expired")
		case errors.Is(err, domain.ErrAlreadyInUse):
			return res.Text(c, http.StatusBadRequest, "Username or email already in use")
		}
		return res.Text(c, http.StatusInternalServerError, "Verification failed")
	}
	return res.Text(c, http.StatusOK, "Account verified successfully")
}

func (h *AuthHandler) ResendOtp(c echo.Context) error {
	email := c.FormValue("email")
	err := h.service.ResendOtp(c.Request().Context(), requestIDFromCtx(c), email)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return res.Text(c, http.StatusNotFound, "No pending registration for this email")
		case errors.Is(err, domain.ErrThrottled):
			return res.Text(c, http.StatusTooManyRequests, "OTP was sent recently, please wait before retrying")
		}
		return res.Text(c, http.StatusInternalServerError, "Resend failed")
	}
	return res.Text(c, http.StatusOK, "OTP resent to your email")
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	req := new(refreshRequest)
	if err := c.Bind(req); err != nil {
		return res.Text(c, http.StatusBadRequest, "Invalid request payload")
	}
	tokens, err := h.service.Refresh(c.Request().Context(), requestIDFromCtx(c), req.RefreshToken, metaFromCtx(c, req.DeviceID))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTokenExpired),
			errors.Is(err, domain.ErrTokenMalformed),
			errors.Is(err, domain.ErrTokenWrongType),
			errors.Is(err, domain.ErrTokenNotFound),
			errors.Is(err, domain.ErrTokenRevoked),
			errors.Is(err, domain.ErrDeviceMismatch),
			errors.Is(err, domain.ErrInvalidCredentials):
			return res.Text(c, http.StatusUnauthorized, "Invalid refresh token")
		}
		return res.Text(c, http.StatusInternalServerError, "Refresh failed")
	}
	return res.JSON(c, http.StatusOK, tokens)
}

func (h *AuthHandler) Logout(c echo.Context) error {
	req := new(logoutRequest)
	if err := c.Bind(req); err != nil {
		return res.Text(c, http.StatusBadRequest, "Invalid request payload")
	}
	if err := h.service.Logout(c.Request().Context(), requestIDFromCtx(c), req.RefreshToken); err != nil {
		return res.Text(c, http.StatusInternalServerError, "Logout failed")
	}
	return res.Text(c, http.StatusOK, "Logged out")
}

func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	email := c.FormValue("email")
	err := h.service.ForgotPassword(c.Request().Context(), requestIDFromCtx(c), email)
	if err != nil {
		if errors.Is(err, domain.ErrThrottled) {
			return res.Text(c, http.StatusTooManyRequests, "A reset link was sent recently, please wait before retrying")
		}
		return res.Text(c, http.StatusInternalServerError, "Request failed")
	}
	return res.Text(c, http.StatusOK, "If the email exists, a password reset link has been sent")
}

func (h *AuthHandler) ResetPassword(c echo.Context) error {
	token := c.FormValue("token")
	newPassword := c.FormValue("newPassword")
	err := h.service.ResetPassword(c.Request().Context(), requestIDFromCtx(c), token, newPassword)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return res.Text(c, http.StatusNotFound, "Invalid reset token")
		case errors.Is(err, domain.ErrTokenExpired):
			return res.Text(c, http.StatusGone, "Reset token has expired")
		}
		return res.Text(c, http.StatusInternalServerError, "Password reset failed")
	}
	return res.Text(c, http.StatusOK, "Password has been reset successfully")
}

func (h *AuthHandler) ValidateResetToken(c echo.Context) error {
	token := c.QueryParam("token")
	err := h.service.ValidateResetToken(c.Request().Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return res.Text(c, http.StatusNotFound, "Invalid reset token")
		case errors.Is(err, domain.ErrTokenExpired):
			return res.Text(c, http.StatusGone, "Reset token has expired")
		}
		return res.Text(c, http.StatusInternalServerError, "Validation failed")
	}
	return res.Text(c, http.StatusOK, "Token is valid")
}

// SecureEndpoint is a smoke-test route behind the bearer middleware.
func (h *AuthHandler) SecureEndpoint(c echo.Context) error {
	username, _ := c.Get("username").(string)
	return res.JSON(c, http.StatusOK, map[string]string{
		"message":  "You have accessed a protected resource",
		"username": username,
	})
}

func metaFromCtx(c echo.Context, deviceID string) usecase.RequestMeta {
	return usecase.RequestMeta{
		DeviceID:  deviceID,
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}
}

func requestIDFromCtx(c echo.Context) string {
	if reqID := c.Response().Header().Get(echo.HeaderXRequestID); reqID != "" {
		return reqID
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}
