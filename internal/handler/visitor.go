package handler

import (
    "database/sql"
    "errors"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/safegate/visitor-access/internal/access"
    "github.com/safegate/visitor-access/internal/config"
    "github.com/safegate/visitor-access/internal/model"
    "github.com/safegate/visitor-access/internal/phone"
    "github.com/safegate/visitor-access/internal/repository"
)

// VisitorHandler exposes the visitor registry read model to hosts.
// All writes to the registry happen through visit creation; this
// handler only reads and soft-deactivates.
type VisitorHandler struct {
    Cfg      config.Config
    Visitors *repository.VisitorRepo
}

// NewVisitorHandler constructs a VisitorHandler with the provided dependencies.
func NewVisitorHandler(cfg config.Config, visitors *repository.VisitorRepo) *VisitorHandler {
    if visitors == nil {
        panic("nil repository passed to NewVisitorHandler")
    }
    return &VisitorHandler{Cfg: cfg, Visitors: visitors}
}

type visitorResp struct {
    ID         uint64    `json:"id"`
    Phone      string    `json:"phone"`
    Name       string    `json:"name"`
    Email      *string   `json:"email,omitempty"`
    Company    *string   `json:"company,omitempty"`
    VisitCount uint32    `json:"visit_count"`
    IsFrequent bool      `json:"is_frequent"`
    IsActive   bool      `json:"is_active"`
    CreatedAt  time.Time `json:"created_at"`
}

func toVisitorResp(v model.Visitor) visitorResp {
    return visitorResp{
        ID:         v.ID,
        Phone:      v.Phone,
        Name:       v.Name,
        Email:      v.Email,
        Company:    v.Company,
        VisitCount: v.VisitCount,
        IsFrequent: v.IsFrequent(),
        IsActive:   v.IsActive,
        CreatedAt:  v.CreatedAt,
    }
}

// Search handles GET /v1/visitors?q=.  A term that parses as a phone
// number is canonicalized first so any spelling of a number finds the
// same visitor; otherwise it matches against names.
func (h *VisitorHandler) Search(c echo.Context) error {
    buildingID, err := getBuildingID(c)
    if err != nil || buildingID == 0 {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no building in token"})
    }
    term := strings.TrimSpace(c.QueryParam("q"))
    if term == "" {
        return reject(c, access.NewError(access.KindValidation, "q is required"))
    }
    if canonical, perr := phone.Normalize(term, h.Cfg.PhoneRegion); perr == nil {
        term = canonical
    }
    limit := 20
    if raw := c.QueryParam("limit"); raw != "" {
        if n, perr := strconv.Atoi(raw); perr == nil && n > 0 && n <= 100 {
            limit = n
        }
    }
    visitors, err := h.Visitors.Search(c.Request().Context(), buildingID, term, limit)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    out := make([]visitorResp, 0, len(visitors))
    for _, v := range visitors {
        out = append(out, toVisitorResp(v))
    }
    return c.JSON(http.StatusOK, echo.Map{"visitors": out, "count": len(out)})
}

// GetVisitor handles GET /v1/visitors/:id.
func (h *VisitorHandler) GetVisitor(c echo.Context) error {
    buildingID, err := getBuildingID(c)
    if err != nil || buildingID == 0 {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no building in token"})
    }
    visitorID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || visitorID == 0 {
        return reject(c, access.NewError(access.KindValidation, "invalid visitor id"))
    }
    v, err := h.Visitors.GetByID(c.Request().Context(), visitorID)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "visitor not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    if v.BuildingID != buildingID {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "visitor not found"})
    }
    return c.JSON(http.StatusOK, toVisitorResp(*v))
}

// DeactivateVisitor handles DELETE /v1/visitors/:id.  Soft only; the
// row and its visit history stay.
func (h *VisitorHandler) DeactivateVisitor(c echo.Context) error {
    buildingID, err := getBuildingID(c)
    if err != nil || buildingID == 0 {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no building in token"})
    }
    visitorID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || visitorID == 0 {
        return reject(c, access.NewError(access.KindValidation, "invalid visitor id"))
    }
    v, err := h.Visitors.GetByID(c.Request().Context(), visitorID)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "visitor not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    if v.BuildingID != buildingID {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "visitor not found"})
    }
    if err := h.Visitors.Deactivate(c.Request().Context(), visitorID); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deactivate failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"visitor_id": visitorID, "is_active": false})
}
