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

// banSeverities are the accepted severity labels, mildest first.
var banSeverities = map[string]struct{}{
    "WARNING":  {},
    "STANDARD": {},
    "SEVERE":   {},
}

// BanHandler manages resident-issued visitor bans and the read-only
// ban check used by both hosts (before inviting) and gate officers.
type BanHandler struct {
    Cfg  config.Config
    Bans *repository.BanRepo
}

// NewBanHandler constructs a BanHandler with the provided dependencies.
func NewBanHandler(cfg config.Config, bans *repository.BanRepo) *BanHandler {
    if bans == nil {
        panic("nil repository passed to NewBanHandler")
    }
    return &BanHandler{Cfg: cfg, Bans: bans}
}

type createBanReq struct {
    Phone     string     `json:"phone"`
    Severity  string     `json:"severity"`
    Reason    string     `json:"reason"`
    ExpiresAt *time.Time `json:"expires_at"`
}

type banResp struct {
    ID        uint64     `json:"id"`
    Phone     string     `json:"phone"`
    Severity  string     `json:"severity"`
    Reason    string     `json:"reason"`
    IsActive  bool       `json:"is_active"`
    ExpiresAt *time.Time `json:"expires_at,omitempty"`
    CreatedAt time.Time  `json:"created_at"`
}

func toBanResp(b model.VisitorBan) banResp {
    return banResp{
        ID:        b.ID,
        Phone:     b.Phone,
        Severity:  b.Severity,
        Reason:    b.Reason,
        IsActive:  b.IsActive,
        ExpiresAt: b.ExpiresAt,
        CreatedAt: b.CreatedAt,
    }
}

// CheckBan handles GET /v1/bans/check?phone=.  The answer aggregates
// across every resident's active bans plus building-wide bans; one
// blocking ban is enough.
func (h *BanHandler) CheckBan(c echo.Context) error {
    buildingID, err := getBuildingID(c)
    if err != nil || buildingID == 0 {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no building in token"})
    }
    canonical, perr := phone.Normalize(c.QueryParam("phone"), h.Cfg.PhoneRegion)
    if perr != nil {
        return reject(c, access.NewError(access.KindValidation, "invalid phone"))
    }
    bans, apartments, err := h.Bans.ActiveByPhone(c.Request().Context(), buildingID, canonical)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    dec := access.DecideBan(bans, apartments, time.Now().UTC())
    return c.JSON(http.StatusOK, echo.Map{
        "phone":     canonical,
        "is_banned": dec.Blocked,
        "blockers":  dec.Blockers,
    })
}

// CreateBan handles POST /v1/bans.  A resident holds at most one
// active ban per phone; a duplicate attempt is a conflict, not a
// second row.
func (h *BanHandler) CreateBan(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    buildingID, err := getBuildingID(c)
    if err != nil || buildingID == 0 {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no building in token"})
    }

    var req createBanReq
    if err := c.Bind(&req); err != nil {
        return reject(c, access.NewError(access.KindValidation, "invalid request body"))
    }
    canonical, perr := phone.Normalize(req.Phone, h.Cfg.PhoneRegion)
    if perr != nil {
        return reject(c, access.NewError(access.KindValidation, "invalid phone %q", req.Phone))
    }
    severity := strings.ToUpper(strings.TrimSpace(req.Severity))
    if severity == "" {
        severity = "STANDARD"
    }
    if _, ok := banSeverities[severity]; !ok {
        return reject(c, access.NewError(access.KindValidation, "severity must be WARNING, STANDARD or SEVERE"))
    }
    req.Reason = strings.TrimSpace(req.Reason)
    if req.Reason == "" {
        return reject(c, access.NewError(access.KindValidation, "reason is required"))
    }
    if req.ExpiresAt != nil && !req.ExpiresAt.After(time.Now().UTC()) {
        return reject(c, access.NewError(access.KindValidation, "expires_at must be in the future"))
    }

    ban := &model.VisitorBan{
        BuildingID: buildingID,
        UserID:     userID,
        Phone:      canonical,
        Severity:   severity,
        Reason:     req.Reason,
        IsActive:   true,
        ExpiresAt:  req.ExpiresAt,
    }
    if err := h.Bans.Create(c.Request().Context(), ban); err != nil {
        if errors.Is(err, repository.ErrConflict) {
            return reject(c, access.NewError(access.KindConflict, "you already hold an active ban on this phone"))
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "ban create failed"})
    }
    return c.JSON(http.StatusCreated, toBanResp(*ban))
}

// LiftBan handles DELETE /v1/bans/:id.  Only the resident who placed
// a ban can lift it.
func (h *BanHandler) LiftBan(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    banID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || banID == 0 {
        return reject(c, access.NewError(access.KindValidation, "invalid ban id"))
    }
    if err := h.Bans.Lift(c.Request().Context(), banID, userID); err != nil {
        switch {
        case errors.Is(err, sql.ErrNoRows):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "ban not found"})
        case errors.Is(err, repository.ErrForbidden):
            return c.JSON(http.StatusForbidden, echo.Map{"error": "not your ban"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "ban lift failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"ban_id": banID, "is_active": false})
}

// ListBans handles GET /v1/bans, the caller's own bans newest first.
func (h *BanHandler) ListBans(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    bans, err := h.Bans.ListByOwner(c.Request().Context(), userID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    out := make([]banResp, 0, len(bans))
    for _, b := range bans {
        out = append(out, toBanResp(b))
    }
    return c.JSON(http.StatusOK, echo.Map{"bans": out, "count": len(out)})
}
