package http

import "github.com/labstack/echo/v4"

// JSON writes a JSON body. Success payloads use this form.
func JSON(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, data)
}

// Text writes a plain-text body. Error responses and one-line success
// messages use this form.
func Text(c echo.Context, status int, message string) error {
	return c.String(status, message)
}
