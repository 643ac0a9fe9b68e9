package handler

import (
    "context"
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
    "github.com/safegate/visitor-access/internal/qr"
    "github.com/safegate/visitor-access/internal/queue"
    "github.com/safegate/visitor-access/internal/repository"
    queue_publisher "github.com/safegate/visitor-access/internal/service"
)

// maxVisitorsPerVisit caps the size of a single invitation batch.
const maxVisitorsPerVisit = 20

// VisitHandler groups the repositories needed to create, cancel and
// read visits on behalf of hosts.  JWT authentication and role checks
// have already run in middleware; methods only extract the principal
// from the context.  Every mutating method runs its critical section
// inside one transaction so a failed guard leaves no partial rows and
// no license increment behind.
type VisitHandler struct {
    Cfg           config.Config
    Issuer        *qr.Issuer
    Visits        *repository.VisitRepo
    Visitors      *repository.VisitorRepo
    VisitVisitors *repository.VisitVisitorRepo
    Buildings     *repository.BuildingRepo
    Bans          *repository.BanRepo
    ScanLogs      *repository.ScanLogRepo
}

// NewVisitHandler constructs a VisitHandler with the provided dependencies.
func NewVisitHandler(cfg config.Config, issuer *qr.Issuer, visits *repository.VisitRepo, visitors *repository.VisitorRepo, vv *repository.VisitVisitorRepo, buildings *repository.BuildingRepo, bans *repository.BanRepo, logs *repository.ScanLogRepo) *VisitHandler {
    if issuer == nil || visits == nil || visitors == nil || vv == nil || buildings == nil || bans == nil {
        panic("nil dependency passed to NewVisitHandler")
    }
    return &VisitHandler{
        Cfg:           cfg,
        Issuer:        issuer,
        Visits:        visits,
        Visitors:      visitors,
        VisitVisitors: vv,
        Buildings:     buildings,
        Bans:          bans,
        ScanLogs:      logs,
    }
}

// ----- DTOs -----

type visitorReq struct {
    Phone   string  `json:"phone"`
    Name    string  `json:"name"`
    Email   *string `json:"email"`
    Company *string `json:"company"`
}

type createVisitReq struct {
    Title         string       `json:"title"`
    Description   *string      `json:"description"`
    VisitType     string       `json:"visit_type"` // SINGLE | GROUP, inferred when empty
    UsesLicense   bool         `json:"uses_license"`
    ExpectedStart time.Time    `json:"expected_start"`
    ExpectedEnd   *time.Time   `json:"expected_end"`
    Visitors      []visitorReq `json:"visitors"`
}

type createVisitResp struct {
    VisitID      uint64    `json:"visit_id"`
    QRCode       string    `json:"qr_code"`
    QRImageURL   string    `json:"qr_image_url"`
    VisitorCount int       `json:"visitor_count"`
    Status       string    `json:"status"`
    ExpiresAt    time.Time `json:"expires_at"`
}

type visitResp struct {
    ID              uint64     `json:"id"`
    BuildingID      uint64     `json:"building_id"`
    Title           string     `json:"title"`
    Description     *string    `json:"description,omitempty"`
    VisitType       string     `json:"visit_type"`
    Status          string     `json:"status"`
    Entered         bool       `json:"entered"`
    Exited          bool       `json:"exited"`
    UsesLicense     bool       `json:"uses_license"`
    ExpectedStart   time.Time  `json:"expected_start"`
    ExpectedEnd     *time.Time `json:"expected_end,omitempty"`
    ActualStart     *time.Time `json:"actual_start,omitempty"`
    ActualEnd       *time.Time `json:"actual_end,omitempty"`
    QRExpiresAt     time.Time  `json:"qr_expires_at"`
    CurrentVisitors uint32     `json:"current_visitors"`
    CreatedAt       time.Time  `json:"created_at"`
}

func toVisitResp(v *model.Visit) visitResp {
    // Reads re-derive the status so a visit whose code lapsed after
    // the last write is already shown as expired; the stored column
    // converges later via the sweep.
    return visitResp{
        ID:              v.ID,
        BuildingID:      v.BuildingID,
        Title:           v.Title,
        Description:     v.Description,
        VisitType:       v.VisitType,
        Status:          access.DeriveStatus(v.Status, v.Entered, v.Exited, v.QRExpiresAt, time.Now().UTC()),
        Entered:         v.Entered,
        Exited:          v.Exited,
        UsesLicense:     v.UsesLicense,
        ExpectedStart:   v.ExpectedStart,
        ExpectedEnd:     v.ExpectedEnd,
        ActualStart:     v.ActualStart,
        ActualEnd:       v.ActualEnd,
        QRExpiresAt:     v.QRExpiresAt,
        CurrentVisitors: v.CurrentVisitors,
        CreatedAt:       v.CreatedAt,
    }
}

// CreateVisit handles POST /v1/visits.  It validates and normalizes
// the visitor batch, then runs the whole creation (ban checks,
// license reservation, visitor upserts, visit insert with QR binding
// and the per-visitor join rows) inside one transaction.  A failure
// at any guard rolls everything back, so either the full invitation
// exists or none of it does.
func (h *VisitHandler) CreateVisit(c echo.Context) error {
    hostID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    buildingID, err := getBuildingID(c)
    if err != nil || buildingID == 0 {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no building in token"})
    }

    var req createVisitReq
    if err := c.Bind(&req); err != nil {
        return reject(c, access.NewError(access.KindValidation, "invalid request body"))
    }
    req.Title = strings.TrimSpace(req.Title)
    if req.Title == "" {
        return reject(c, access.NewError(access.KindValidation, "title is required"))
    }
    if req.ExpectedStart.IsZero() {
        return reject(c, access.NewError(access.KindValidation, "expected_start is required"))
    }
    if req.ExpectedEnd != nil && !req.ExpectedEnd.After(req.ExpectedStart) {
        return reject(c, access.NewError(access.KindValidation, "expected_end must be after expected_start"))
    }
    if len(req.Visitors) == 0 {
        return reject(c, access.NewError(access.KindValidation, "at least one visitor is required"))
    }
    if len(req.Visitors) > maxVisitorsPerVisit {
        return reject(c, access.NewError(access.KindValidation, "at most %d visitors per visit", maxVisitorsPerVisit))
    }

    // Normalize phones up front and deduplicate on the canonical form,
    // so two spellings of the same number collapse to one visitor.
    inputs := make([]repository.VisitorInput, 0, len(req.Visitors))
    seen := make(map[string]struct{})
    for _, v := range req.Visitors {
        name := strings.TrimSpace(v.Name)
        if name == "" {
            return reject(c, access.NewError(access.KindValidation, "visitor name is required"))
        }
        canonical, perr := phone.Normalize(v.Phone, h.Cfg.PhoneRegion)
        if perr != nil {
            return reject(c, access.NewError(access.KindValidation, "invalid phone %q", v.Phone))
        }
        if _, dup := seen[canonical]; dup {
            continue
        }
        seen[canonical] = struct{}{}
        inputs = append(inputs, repository.VisitorInput{Phone: canonical, Name: name, Email: v.Email, Company: v.Company})
    }

    visitType := strings.ToUpper(strings.TrimSpace(req.VisitType))
    switch visitType {
    case access.VisitTypeSingle, access.VisitTypeGroup:
    case "":
        visitType = access.VisitTypeSingle
        if len(inputs) > 1 {
            visitType = access.VisitTypeGroup
        }
    default:
        return reject(c, access.NewError(access.KindValidation, "visit_type must be SINGLE or GROUP"))
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

    // Ban check per phone, inside the transaction so the decision and
    // the insert observe the same ban rows.  One banned phone rejects
    // the whole batch; no partial invitation is ever created.
    for _, in := range inputs {
        bans, apartments, berr := h.Bans.ActiveByPhoneTx(ctx, tx, buildingID, in.Phone)
        if berr != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "ban lookup failed"})
        }
        if dec := access.DecideBan(bans, apartments, now); dec.Blocked {
            return c.JSON(statusForKind(access.KindVisitorBanned), echo.Map{
                "kind":     access.KindVisitorBanned,
                "message":  "visitor " + in.Phone + " is banned from this building",
                "phone":    in.Phone,
                "blockers": dec.Blockers,
            })
        }
    }

    if req.UsesLicense {
        if err := h.Buildings.TryReserveLicenseTx(ctx, tx, buildingID); err != nil {
            if errors.Is(err, repository.ErrCapacity) {
                return reject(c, access.NewError(access.KindCapacityExceeded, "building has no spare admission licenses"))
            }
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "license reservation failed"})
        }
    }

    visitorIDs := make([]uint64, 0, len(inputs))
    names := make([]string, 0, len(inputs))
    for _, in := range inputs {
        id, uerr := h.Visitors.UpsertTx(ctx, tx, buildingID, in)
        if uerr != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "visitor upsert failed"})
        }
        visitorIDs = append(visitorIDs, id)
        names = append(names, in.Name)
    }

    expiresAt := h.Issuer.ExpiryFor(req.ExpectedEnd, now)
    record := &repository.VisitRecord{
        BuildingID:    buildingID,
        HostUserID:    hostID,
        Title:         req.Title,
        Description:   req.Description,
        VisitType:     visitType,
        Status:        access.StatusPending,
        UsesLicense:   req.UsesLicense,
        ExpectedStart: req.ExpectedStart.UTC(),
        ExpectedEnd:   req.ExpectedEnd,
        QRIssuedAt:    now,
        QRExpiresAt:   expiresAt,
        VisitorCount:  uint32(len(visitorIDs)),
    }
    // Bind a fresh code; a collision on the unique index regenerates
    // inside the same transaction up to the attempt cap.
    issued := false
    for attempt := 0; attempt < qr.MaxIssueAttempts; attempt++ {
        code, gerr := h.Issuer.Generate()
        if gerr != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "code generation failed"})
        }
        record.QRCode = code
        if cerr := h.Visits.CreateTx(ctx, tx, record); cerr != nil {
            if errors.Is(cerr, repository.ErrDuplicateCode) {
                continue
            }
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "visit insert failed"})
        }
        issued = true
        break
    }
    if !issued {
        return reject(c, access.NewError(access.KindIssuanceExhausted, "could not issue a unique code after %d attempts", qr.MaxIssueAttempts))
    }

    if err := h.VisitVisitors.CreateBulkTx(ctx, tx, record.ID, visitorIDs); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "visitor linking failed"})
    }

    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
    }
    committed = true

    publishAsync(queue.VisitEvent{
        Type:         queue.TypeVisitCreated,
        VisitID:      record.ID,
        BuildingID:   buildingID,
        HostUserID:   hostID,
        VisitTitle:   record.Title,
        VisitStatus:  record.Status,
        VisitorNames: names,
    })

    return c.JSON(http.StatusCreated, createVisitResp{
        VisitID:      record.ID,
        QRCode:       record.QRCode,
        QRImageURL:   "/v1/visits/" + strconv.FormatUint(record.ID, 10) + "/qr",
        VisitorCount: len(visitorIDs),
        Status:       record.Status,
        ExpiresAt:    expiresAt,
    })
}

// CancelVisit handles DELETE /v1/visits/:id.  It locks the visit row,
// so a cancellation racing a scan of the same code serializes on the
// lock: whichever transaction commits first wins and the loser sees
// the committed state.  The consumed license is returned to the pool
// only when the visitor never entered.
func (h *VisitHandler) CancelVisit(c echo.Context) error {
    hostID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    visitID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || visitID == 0 {
        return reject(c, access.NewError(access.KindValidation, "invalid visit id"))
    }

    ctx := c.Request().Context()
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

    visit, err := h.Visits.GetByIDForUpdateTx(ctx, tx, visitID)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "visit not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    if visit.HostUserID != hostID {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "not your visit"})
    }
    if access.IsTerminal(visit.Status) {
        return reject(c, access.NewError(access.KindVisitClosed, "visit is already %s", visit.Status))
    }
    if visit.Entered && !visit.Exited {
        return reject(c, access.NewError(access.KindConflict, "visitor is inside the building; record the exit first"))
    }

    if err := h.Visits.SetStatusTx(ctx, tx, visitID, access.StatusCancelled); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
    }
    if visit.UsesLicense && !visit.Entered {
        if err := h.Buildings.ReleaseLicenseTx(ctx, tx, visit.BuildingID); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "license release failed"})
        }
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
    }
    committed = true

    return c.JSON(http.StatusOK, echo.Map{
        "visit_id": visitID,
        "status":   access.StatusCancelled,
    })
}

// GetVisit handles GET /v1/visits/:id for the owning host.
func (h *VisitHandler) GetVisit(c echo.Context) error {
    hostID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    visitID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || visitID == 0 {
        return reject(c, access.NewError(access.KindValidation, "invalid visit id"))
    }
    visit, err := h.Visits.GetByID(c.Request().Context(), visitID)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "visit not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    if visit.HostUserID != hostID {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "not your visit"})
    }
    return c.JSON(http.StatusOK, toVisitResp(visit))
}

// ListMyVisits handles GET /v1/my-visits.
func (h *VisitHandler) ListMyVisits(c echo.Context) error {
    hostID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    limit := 50
    if raw := c.QueryParam("limit"); raw != "" {
        if n, perr := strconv.Atoi(raw); perr == nil && n > 0 && n <= 100 {
            limit = n
        }
    }
    visits, err := h.Visits.ListByHost(c.Request().Context(), hostID, limit)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    out := make([]visitResp, 0, len(visits))
    for i := range visits {
        out = append(out, toVisitResp(&visits[i]))
    }
    return c.JSON(http.StatusOK, echo.Map{"visits": out, "count": len(out)})
}

// GetVisitQR handles GET /v1/visits/:id/qr.  It re-renders the bound
// code as a PNG; it never issues a new code, so a lost image can be
// fetched again without invalidating anything.
func (h *VisitHandler) GetVisitQR(c echo.Context) error {
    hostID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    visitID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || visitID == 0 {
        return reject(c, access.NewError(access.KindValidation, "invalid visit id"))
    }
    visit, err := h.Visits.GetByID(c.Request().Context(), visitID)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "visit not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    if visit.HostUserID != hostID {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "not your visit"})
    }
    if access.IsTerminal(visit.Status) {
        return reject(c, access.NewError(access.KindVisitClosed, "visit is %s; its code is no longer scannable", visit.Status))
    }
    png, err := qr.Render(visit.QRCode, h.Cfg.QRImageSize)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "render failed"})
    }
    return c.Blob(http.StatusOK, "image/png", png)
}

// ListScanLogs handles GET /v1/visits/:id/scans, the audit trail of a
// single visit for its host.
func (h *VisitHandler) ListScanLogs(c echo.Context) error {
    hostID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    visitID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || visitID == 0 {
        return reject(c, access.NewError(access.KindValidation, "invalid visit id"))
    }
    visit, err := h.Visits.GetByID(c.Request().Context(), visitID)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "visit not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    if visit.HostUserID != hostID {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "not your visit"})
    }
    logs, err := h.ScanLogs.ListByVisit(c.Request().Context(), visitID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, echo.Map{"visit_id": visitID, "scans": logs})
}

// publishAsync fires an event without blocking the request.  The
// publisher logs its own failures; delivery is best-effort and a down
// broker never fails the API call.
func publishAsync(ev queue.VisitEvent) {
    go func() {
        ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
        defer cancel()
        _ = queue_publisher.PublishVisitEvent(ctx, ev)
    }()
}
