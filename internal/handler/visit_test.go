package handler

import (
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    sqlmock "github.com/DATA-DOG/go-sqlmock"
    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/safegate/visitor-access/internal/config"
    "github.com/safegate/visitor-access/internal/qr"
    "github.com/safegate/visitor-access/internal/repository"
)

var banColumns = []string{
    "id", "building_id", "user_id", "phone", "severity", "reason",
    "is_active", "expires_at", "created_at", "updated_at", "apartment",
}

var testStamp = time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)

func newVisitHandler(t *testing.T) (*VisitHandler, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { db.Close() })

    cfg := config.Config{PhoneRegion: "NG"}
    issuer := qr.NewIssuer("SG", 12, 4*time.Hour)
    h := NewVisitHandler(cfg, issuer,
        repository.NewVisitRepo(db),
        repository.NewVisitorRepo(db),
        repository.NewVisitVisitorRepo(db),
        repository.NewBuildingRepo(db),
        repository.NewBanRepo(db),
        repository.NewScanLogRepo(db),
    )
    return h, mock
}

func postCreateVisit(t *testing.T, h *VisitHandler, body string) *httptest.ResponseRecorder {
    t.Helper()
    req := httptest.NewRequest(http.MethodPost, "/v1/visits", strings.NewReader(body))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    rec := httptest.NewRecorder()
    c := echo.New().NewContext(req, rec)
    c.Set("user_id", uint64(5))
    c.Set("building_id", uint64(1))
    require.NoError(t, h.CreateVisit(c))
    return rec
}

const licensedVisitBody = `{
    "title": "Contractor visit",
    "uses_license": true,
    "expected_start": "2026-09-01T10:00:00Z",
    "visitors": [{"phone": "+2348123456789", "name": "Ada Obi"}]
}`

// A building with one spare license admits the first licensed
// invitation and rejects the next.  The conditional increment matches
// zero rows once the pool is used up, so of N racing creations at
// most the spare capacity ever commits, and a rejected creation rolls
// back without inserting a visit or its visitors.
func TestCreateVisitLicensePoolExhaustion(t *testing.T) {
    h, mock := newVisitHandler(t)

    // First creation takes the last license and commits fully.
    mock.ExpectBegin()
    mock.ExpectQuery("FROM visitor_bans b").
        WithArgs(1, "+2348123456789").
        WillReturnRows(sqlmock.NewRows(banColumns))
    mock.ExpectExec("UPDATE buildings").
        WithArgs(1).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec("INSERT INTO visitors").
        WithArgs(1, "+2348123456789", "Ada Obi", nil, nil).
        WillReturnResult(sqlmock.NewResult(7, 1))
    mock.ExpectExec("INSERT INTO visits").
        WillReturnResult(sqlmock.NewResult(42, 1))
    mock.ExpectExec("INSERT INTO visit_visitors").
        WithArgs(42, 7, "EXPECTED").
        WillReturnResult(sqlmock.NewResult(1, 1))
    mock.ExpectCommit()

    rec := postCreateVisit(t, h, licensedVisitBody)
    assert.Equal(t, http.StatusCreated, rec.Code)

    // Second creation finds the pool empty.  Nothing past the license
    // reservation may run; the transaction rolls back whole.
    mock.ExpectBegin()
    mock.ExpectQuery("FROM visitor_bans b").
        WithArgs(1, "+2348123456789").
        WillReturnRows(sqlmock.NewRows(banColumns))
    mock.ExpectExec("UPDATE buildings").
        WithArgs(1).
        WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectRollback()

    rec = postCreateVisit(t, h, licensedVisitBody)
    assert.Equal(t, http.StatusConflict, rec.Code)
    assert.Contains(t, rec.Body.String(), "capacity_exceeded")

    require.NoError(t, mock.ExpectationsWereMet())
}

// One banned phone rejects the whole batch before any license is
// reserved or any row is written.
func TestCreateVisitRejectsBannedPhone(t *testing.T) {
    h, mock := newVisitHandler(t)

    mock.ExpectBegin()
    mock.ExpectQuery("FROM visitor_bans b").
        WithArgs(1, "+2348123456789").
        WillReturnRows(sqlmock.NewRows(banColumns).
            AddRow(9, 1, 3, "+2348123456789", "SEVERE", "trespass", true, nil, testStamp, testStamp, "4B"))
    mock.ExpectRollback()

    rec := postCreateVisit(t, h, licensedVisitBody)
    assert.Equal(t, http.StatusForbidden, rec.Code)
    assert.Contains(t, rec.Body.String(), "visitor_banned")

    require.NoError(t, mock.ExpectationsWereMet())
}
