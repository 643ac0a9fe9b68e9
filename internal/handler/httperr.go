package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/safegate/visitor-access/internal/access"
)

// statusForKind maps a typed rejection kind to its HTTP status.  The
// kind strings are part of the wire contract; the mapping here only
// decides the transport-level code.
func statusForKind(k access.Kind) int {
    switch k {
    case access.KindValidation:
        return http.StatusBadRequest
    case access.KindVisitorBanned, access.KindAdmissionDenied:
        return http.StatusForbidden
    case access.KindCodeNotFound:
        return http.StatusNotFound
    case access.KindCodeExpired:
        return http.StatusGone
    case access.KindCapacityExceeded, access.KindVisitClosed,
        access.KindDuplicateEntry, access.KindDuplicateExit,
        access.KindExitWithoutEntry, access.KindConflict:
        return http.StatusConflict
    case access.KindIssuanceExhausted:
        return http.StatusServiceUnavailable
    }
    return http.StatusInternalServerError
}

// reject writes a typed rejection as the JSON response body.
func reject(c echo.Context, e *access.Error) error {
    return c.JSON(statusForKind(e.Kind), e)
}
