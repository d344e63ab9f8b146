package middleware

// identity.go defines helper functions shared across middleware files.
// userID pulls the subject stored by JWTAuth out of the Echo context so
// the rate-limit and cache key strategies can partition per user. When
// no user is authenticated, "guest" is returned.

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// userID extracts a user identifier from context. It returns "guest"
// when no user is authenticated.
func userID(c echo.Context) string {
	u := c.Get("user_id")
	if u == nil {
		return "guest"
	}
	switch v := u.(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		return fmt.Sprintf("%.0f", v)
	}
	return "guest"
}
