package router

import (
    "github.com/labstack/echo/v4"

    "github.com/safegate/visitor-access/internal/handler"
    "github.com/safegate/visitor-access/internal/middleware"
)

// RegisterHost registers host-scoped endpoints under /v1.  All routes
// require a valid JWT and the HOST role.  Hosts create and cancel
// visits, fetch the bound QR image, manage their own visitor bans and
// browse the visitor registry.  cached is the read-cache middleware
// applied to list/detail reads; it degrades to a no-op when Redis is
// unavailable.
func RegisterHost(e *echo.Echo, v *handler.VisitHandler, b *handler.BanHandler, vis *handler.VisitorHandler, jwtSecret string, cached echo.MiddlewareFunc) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole("HOST"),
    )

    g.POST("/visits", v.CreateVisit)
    g.DELETE("/visits/:id", v.CancelVisit)
    g.GET("/visits/:id", v.GetVisit, cached)
    g.GET("/visits/:id/qr", v.GetVisitQR)
    g.GET("/visits/:id/scans", v.ListScanLogs)
    g.GET("/my-visits", v.ListMyVisits, cached)

    g.POST("/bans", b.CreateBan)
    g.DELETE("/bans/:id", b.LiftBan)
    g.GET("/bans", b.ListBans)

    g.GET("/visitors", vis.Search, cached)
    g.GET("/visitors/:id", vis.GetVisitor)
    g.DELETE("/visitors/:id", vis.DeactivateVisitor)
}
