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

var visitColumns = []string{
    "id", "building_id", "host_user_id", "title", "description", "visit_type", "status",
    "entered", "exited", "uses_license", "expected_start", "expected_end",
    "actual_start", "actual_end", "qr_code", "qr_issued_at", "qr_expires_at",
    "current_visitors", "created_at", "updated_at",
}

var visitorJoinColumns = []string{
    "id", "visit_id", "visitor_id", "status", "arrival_time", "departure_time", "created_at",
    "phone", "name",
}

func newScanHandler(t *testing.T) (*ScanHandler, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { db.Close() })

    cfg := config.Config{PhoneRegion: "NG"}
    issuer := qr.NewIssuer("SG", 12, 4*time.Hour)
    h := NewScanHandler(cfg, issuer,
        repository.NewVisitRepo(db),
        repository.NewVisitVisitorRepo(db),
        repository.NewBanRepo(db),
        repository.NewScanLogRepo(db),
    )
    return h, mock
}

func postScan(t *testing.T, h *ScanHandler, body string) *httptest.ResponseRecorder {
    t.Helper()
    req := httptest.NewRequest(http.MethodPost, "/v1/scan", strings.NewReader(body))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    rec := httptest.NewRecorder()
    c := echo.New().NewContext(req, rec)
    c.Set("user_id", uint64(9))
    c.Set("building_id", uint64(1))
    require.NoError(t, h.Scan(c))
    return rec
}

// A ban placed after the invitation was issued still blocks the entry
// scan at the gate, and the denial commits nothing.
func TestScanEntryReChecksBansPlacedAfterIssuance(t *testing.T) {
    h, mock := newScanHandler(t)
    code := "SG_7KQ2MPX4A9ZD"
    expires := time.Now().UTC().Add(2 * time.Hour)

    mock.ExpectBegin()
    mock.ExpectQuery("FROM visits WHERE qr_code").
        WithArgs(code).
        WillReturnRows(sqlmock.NewRows(visitColumns).AddRow(
            42, 1, 5, "Contractor visit", nil, "SINGLE", "pending",
            false, false, false, testStamp, nil,
            nil, nil, code, testStamp, expires,
            1, testStamp, testStamp,
        ))
    mock.ExpectQuery("JOIN visitors v").
        WithArgs(42).
        WillReturnRows(sqlmock.NewRows(visitorJoinColumns).
            AddRow(1, 42, 7, "EXPECTED", nil, nil, testStamp, "+2348123456789", "Ada Obi"))
    mock.ExpectQuery("FROM visitor_bans b").
        WithArgs(1, "+2348123456789").
        WillReturnRows(sqlmock.NewRows(banColumns).
            AddRow(9, 1, 3, "+2348123456789", "SEVERE", "trespass", true, nil, testStamp, testStamp, "4B"))
    mock.ExpectRollback()

    rec := postScan(t, h, `{"code":"`+code+`","action":"ENTRY"}`)
    assert.Equal(t, http.StatusForbidden, rec.Code)
    assert.Contains(t, rec.Body.String(), "admission_denied")

    require.NoError(t, mock.ExpectationsWereMet())
}

// A scan of a lapsed code against a visit still waiting at the gate
// persists the expired status even though the scan itself is rejected.
func TestScanLapsedCodePersistsExpiryForUnenteredVisit(t *testing.T) {
    h, mock := newScanHandler(t)
    code := "SG_7KQ2MPX4A9ZD"
    lapsed := time.Now().UTC().Add(-time.Minute)

    mock.ExpectBegin()
    mock.ExpectQuery("FROM visits WHERE qr_code").
        WithArgs(code).
        WillReturnRows(sqlmock.NewRows(visitColumns).AddRow(
            42, 1, 5, "Contractor visit", nil, "SINGLE", "pending",
            false, false, false, testStamp, nil,
            nil, nil, code, testStamp, lapsed,
            1, testStamp, testStamp,
        ))
    mock.ExpectExec("UPDATE visits SET status").
        WithArgs("expired", 42).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()

    rec := postScan(t, h, `{"code":"`+code+`","action":"ENTRY"}`)
    assert.Equal(t, http.StatusGone, rec.Code)
    assert.Contains(t, rec.Body.String(), "code_expired")

    require.NoError(t, mock.ExpectationsWereMet())
}

// A visitor who already entered keeps an active visit when the code
// lapses: the rejected exit scan must roll back without flipping the
// visit to expired, otherwise the exit could never be recorded.
func TestScanLapsedCodeDoesNotExpireEnteredVisit(t *testing.T) {
    h, mock := newScanHandler(t)
    code := "SG_7KQ2MPX4A9ZD"
    lapsed := time.Now().UTC().Add(-time.Minute)

    mock.ExpectBegin()
    mock.ExpectQuery("FROM visits WHERE qr_code").
        WithArgs(code).
        WillReturnRows(sqlmock.NewRows(visitColumns).AddRow(
            42, 1, 5, "Contractor visit", nil, "SINGLE", "active",
            true, false, false, testStamp, nil,
            testStamp, nil, code, testStamp, lapsed,
            1, testStamp, testStamp,
        ))
    mock.ExpectRollback()

    rec := postScan(t, h, `{"code":"`+code+`","action":"EXIT"}`)
    assert.Equal(t, http.StatusGone, rec.Code)
    assert.Contains(t, rec.Body.String(), "code_expired")

    // No UPDATE was expected and none may have run.
    require.NoError(t, mock.ExpectationsWereMet())
}
