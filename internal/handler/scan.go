package handler

import (
    "database/sql"
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/safegate/visitor-access/internal/access"
    "github.com/safegate/visitor-access/internal/config"
    "github.com/safegate/visitor-access/internal/model"
    "github.com/safegate/visitor-access/internal/qr"
    "github.com/safegate/visitor-access/internal/queue"
    "github.com/safegate/visitor-access/internal/repository"
)

// ScanHandler processes gate scans.  A scan is the single write path
// through the access-control core at the gate: resolve the code under
// a row lock, run the guard chain, apply the transition, append the
// audit row, all in one transaction, commit-or-nothing.
type ScanHandler struct {
    Cfg           config.Config
    Issuer        *qr.Issuer
    Visits        *repository.VisitRepo
    VisitVisitors *repository.VisitVisitorRepo
    Bans          *repository.BanRepo
    ScanLogs      *repository.ScanLogRepo
}

// NewScanHandler constructs a ScanHandler with the provided dependencies.
func NewScanHandler(cfg config.Config, issuer *qr.Issuer, visits *repository.VisitRepo, vv *repository.VisitVisitorRepo, bans *repository.BanRepo, logs *repository.ScanLogRepo) *ScanHandler {
    if issuer == nil || visits == nil || vv == nil || bans == nil || logs == nil {
        panic("nil dependency passed to NewScanHandler")
    }
    return &ScanHandler{Cfg: cfg, Issuer: issuer, Visits: visits, VisitVisitors: vv, Bans: bans, ScanLogs: logs}
}

type scanReq struct {
    Code       string   `json:"code"`
    Action     string   `json:"action"` // ENTRY | EXIT
    GateLabel  *string  `json:"gate_label"`
    GeoLat     *float64 `json:"geo_lat"`
    GeoLng     *float64 `json:"geo_lng"`
    GeoAddress *string  `json:"geo_address"`
}

type scanResp struct {
    VisitID          uint64    `json:"visit_id"`
    Action           string    `json:"action"`
    NewStatus        string    `json:"new_status"`
    VisitorsAffected int       `json:"visitors_affected"`
    OfficerID        uint64    `json:"officer_id"`
    ScannedAt        time.Time `json:"scanned_at"`
}

// Scan handles POST /v1/scan.  The officer identity comes from the
// JWT, never from the body; a request without it is rejected before
// the state machine runs.  Two concurrent scans of the same code
// serialize on the FOR UPDATE row lock, so exactly one passes and the
// other receives a typed duplicate rejection.
func (h *ScanHandler) Scan(c echo.Context) error {
    officerID, err := getUserID(c)
    if err != nil || officerID == 0 {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "officer identity required"})
    }
    buildingID, err := getBuildingID(c)
    if err != nil || buildingID == 0 {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no building in token"})
    }

    var req scanReq
    if err := c.Bind(&req); err != nil {
        return reject(c, access.NewError(access.KindValidation, "invalid request body"))
    }
    action := strings.ToUpper(strings.TrimSpace(req.Action))
    if action != access.ActionEntry && action != access.ActionExit {
        return reject(c, access.NewError(access.KindValidation, "action must be ENTRY or EXIT"))
    }
    code := strings.TrimSpace(req.Code)
    // Shape check before any lookup: garbage strings never reach the
    // database and are indistinguishable from unknown codes.
    if !h.Issuer.Validate(code) {
        return reject(c, access.NewError(access.KindCodeNotFound, "unknown code"))
    }

    ctx := c.Request().Context()
    now := time.Now().UTC()

    tx, err := h.Visits.DB().BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    visit, err := h.Visits.GetByCodeForUpdateTx(ctx, tx, code)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return reject(c, access.NewError(access.KindCodeNotFound, "unknown code"))
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    if visit.BuildingID != buildingID {
        // A code from another building is unknown here, not forbidden:
        // don't leak that it exists elsewhere.
        return reject(c, access.NewError(access.KindCodeNotFound, "unknown code"))
    }

    snapshot := access.VisitSnapshot{
        ID:          visit.ID,
        Status:      visit.Status,
        Entered:     visit.Entered,
        Exited:      visit.Exited,
        QRExpiresAt: visit.QRExpiresAt,
    }
    if gerr := access.EvaluateScan(snapshot, action, now); gerr != nil {
        if gerr.Kind == access.KindCodeExpired && access.ExpireOnRejectedScan(snapshot) {
            // The expiry flip is the one side effect a rejected scan
            // is allowed to commit; everything else rolls back.
            if serr := h.Visits.SetStatusTx(ctx, tx, visit.ID, access.StatusExpired); serr == nil {
                if tx.Commit() == nil {
                    committed = true
                }
            }
        }
        return reject(c, gerr)
    }

    rows, err := h.VisitVisitors.ListWithVisitorsTx(ctx, tx, visit.ID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }

    // Entry re-checks bans: a ban placed after the invitation was
    // issued still blocks at the gate.  Exit is never ban-gated: a
    // banned visitor who is inside must always be able to leave.
    if action == access.ActionEntry {
        for _, row := range rows {
            bans, apartments, berr := h.Bans.ActiveByPhoneTx(ctx, tx, visit.BuildingID, row.Phone)
            if berr != nil {
                return c.JSON(http.StatusInternalServerError, echo.Map{"error": "ban lookup failed"})
            }
            if dec := access.DecideBan(bans, apartments, now); dec.Blocked {
                publishAsync(queue.VisitEvent{
                    Type:        queue.TypeAdmissionDenied,
                    VisitID:     visit.ID,
                    BuildingID:  visit.BuildingID,
                    HostUserID:  visit.HostUserID,
                    VisitTitle:  visit.Title,
                    VisitStatus: visit.Status,
                    OfficerID:   officerID,
                    Reason:      "banned visitor " + row.Phone,
                })
                return c.JSON(statusForKind(access.KindAdmissionDenied), echo.Map{
                    "kind":     access.KindAdmissionDenied,
                    "message":  "admission denied: visitor " + row.Phone + " is banned",
                    "blockers": dec.Blockers,
                })
            }
        }
    }

    entered, exited := visit.Entered, visit.Exited
    var actualStart, actualEnd *time.Time
    if action == access.ActionEntry {
        entered = true
        actualStart = &now
    } else {
        exited = true
        actualEnd = &now
    }
    newStatus := access.DeriveStatus(visit.Status, entered, exited, visit.QRExpiresAt, now)
    if err := h.Visits.ApplyScanTx(ctx, tx, visit.ID, entered, exited, newStatus, actualStart, actualEnd); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "scan write failed"})
    }

    // Advance each visitor row that the action can move forward; rows
    // already past the transition stay where they are (monotonic).
    affected := 0
    names := make([]string, 0, len(rows))
    for _, row := range rows {
        var next string
        var ok bool
        if action == access.ActionEntry {
            next, ok = access.ProgressOnEntry(row.Status)
        } else {
            next, ok = access.ProgressOnExit(row.Status)
        }
        if !ok {
            continue
        }
        if err := h.VisitVisitors.AdvanceTx(ctx, tx, row.ID, next, now); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "visitor progression failed"})
        }
        affected++
        names = append(names, row.Name)
    }
    if err := h.Visits.RecountVisitorsTx(ctx, tx, visit.ID); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "recount failed"})
    }

    logRow := &model.ScanLog{
        VisitID:    visit.ID,
        OfficerID:  officerID,
        Action:     action,
        GateLabel:  req.GateLabel,
        GeoLat:     req.GeoLat,
        GeoLng:     req.GeoLng,
        GeoAddress: req.GeoAddress,
        ScannedAt:  now,
    }
    if err := h.ScanLogs.InsertTx(ctx, tx, logRow); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "audit write failed"})
    }

    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
    }
    committed = true

    eventType := queue.TypeVisitorEntered
    if action == access.ActionExit {
        eventType = queue.TypeVisitorExited
    }
    gate := ""
    if req.GateLabel != nil {
        gate = *req.GateLabel
    }
    publishAsync(queue.VisitEvent{
        Type:         eventType,
        VisitID:      visit.ID,
        BuildingID:   visit.BuildingID,
        HostUserID:   visit.HostUserID,
        VisitTitle:   visit.Title,
        VisitStatus:  newStatus,
        VisitorNames: names,
        OfficerID:    officerID,
        GateLabel:    gate,
    })

    return c.JSON(http.StatusOK, scanResp{
        VisitID:          visit.ID,
        Action:           action,
        NewStatus:        newStatus,
        VisitorsAffected: affected,
        OfficerID:        officerID,
        ScannedAt:        now,
    })
}
