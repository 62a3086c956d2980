package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// Subject returns the authenticated subject stored by JWTAuth, or
// "anon" when the request carries no identity.
func Subject(c echo.Context) string {
	switch v := c.Get("user_id").(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return "anon"
}
