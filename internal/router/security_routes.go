package router

import (
    "github.com/labstack/echo/v4"

    "github.com/safegate/visitor-access/internal/handler"
    "github.com/safegate/visitor-access/internal/middleware"
)

// RegisterSecurity registers gate-officer endpoints under /v1.  All
// routes require a valid JWT and the SECURITY role.  The scan endpoint
// carries the rate limiter so a misbehaving scanner cannot hammer the
// row locks.
func RegisterSecurity(e *echo.Echo, s *handler.ScanHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole("SECURITY"),
    )
    g.POST("/scan", s.Scan, limiter)
}
