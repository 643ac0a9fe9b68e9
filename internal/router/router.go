package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4" // Echo web framework for routing

    "github.com/safegate/visitor-access/internal/handler"    // handlers implementing the endpoints
    "github.com/safegate/visitor-access/internal/middleware" // JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check
// used by load balancers and monitoring.
func RegisterRoutes(e *echo.Echo) {
    e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes.
// Unauthenticated operations live under /v1/auth; protected identity
// endpoints live under /v1.  limiter is the rate-limit middleware
// applied to the credential endpoints; it degrades to a no-op when
// Redis is unavailable.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
    g := e.Group("/v1/auth", limiter)
    g.POST("/register", a.Register)
    g.POST("/login", a.Login)
    g.POST("/refresh", a.Refresh)
    g.POST("/logout", a.Logout)

    auth := e.Group("/v1")
    auth.Use(middleware.JWTAuth(jwtSecret))
    auth.Use(middleware.RequireRole("HOST", "SECURITY"))
    auth.GET("/me", a.Me)
}

// RegisterShared registers endpoints available to both roles.  The ban
// check is read-only and consulted by hosts before inviting and by
// gate officers when in doubt.
func RegisterShared(e *echo.Echo, b *handler.BanHandler, jwtSecret string) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole("HOST", "SECURITY"),
    )
    g.GET("/bans/check", b.CheckBan)
}
