package middleware // middleware provides shared request processing for handlers

import (
    "net/http" // standard HTTP status codes

    "github.com/labstack/echo/v4" // echo provides middleware chaining and context
)

// RequireRole returns a middleware that enforces that the
// authenticated principal carries one of the allowed roles (HOST for
// residents inviting visitors, SECURITY for gate officers).  The role
// comes from the JWT's "role" claim, stored in the context by JWTAuth;
// a missing or unknown role is rejected with 403.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            role, ok := c.Get("role").(string)
            if !ok || !allowed[role] {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
            }
            return next(c)
        }
    }
}
