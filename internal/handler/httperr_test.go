package handler

import (
    "net/http"
    "testing"

    "github.com/stretchr/testify/assert"

    "github.com/safegate/visitor-access/internal/access"
)

func TestStatusForKind(t *testing.T) {
    cases := map[access.Kind]int{
        access.KindValidation:        http.StatusBadRequest,
        access.KindVisitorBanned:     http.StatusForbidden,
        access.KindAdmissionDenied:   http.StatusForbidden,
        access.KindCodeNotFound:      http.StatusNotFound,
        access.KindCodeExpired:       http.StatusGone,
        access.KindCapacityExceeded:  http.StatusConflict,
        access.KindVisitClosed:       http.StatusConflict,
        access.KindDuplicateEntry:    http.StatusConflict,
        access.KindDuplicateExit:     http.StatusConflict,
        access.KindExitWithoutEntry:  http.StatusConflict,
        access.KindConflict:          http.StatusConflict,
        access.KindIssuanceExhausted: http.StatusServiceUnavailable,
        access.KindStorage:           http.StatusInternalServerError,
    }
    for kind, want := range cases {
        assert.Equal(t, want, statusForKind(kind), "kind %s", kind)
    }
}

func TestStatusForUnknownKindIsServerError(t *testing.T) {
    assert.Equal(t, http.StatusInternalServerError, statusForKind(access.Kind("something_new")))
}
