package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/safegate/visitor-access/internal/config"
)

func cacheCtx(userID, target string) echo.Context {
    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, target, nil)
    c := e.NewContext(req, httptest.NewRecorder())
    if userID != "" {
        c.Set("user_id", userID)
    }
    return c
}

func TestCacheKeyScopedPerUserAndURL(t *testing.T) {
    hostA := cacheKey("vgate:cache", cacheCtx("5", "/v1/my-visits?limit=10"))
    hostB := cacheKey("vgate:cache", cacheCtx("6", "/v1/my-visits?limit=10"))
    assert.NotEqual(t, hostA, hostB, "two hosts must never share a cached list")

    byID := cacheKey("vgate:cache", cacheCtx("5", "/v1/visits/7"))
    otherID := cacheKey("vgate:cache", cacheCtx("5", "/v1/visits/8"))
    assert.NotEqual(t, byID, otherID, "distinct visits must have distinct entries")

    again := cacheKey("vgate:cache", cacheCtx("5", "/v1/my-visits?limit=10"))
    assert.Equal(t, hostA, again)
}

func TestCachePayloadRoundTrip(t *testing.T) {
    hdr := http.Header{"Content-Type": {"application/json"}}
    body := []byte(`{"id":7}`)

    bs, err := encodePayload(http.StatusOK, hdr, body)
    require.NoError(t, err)

    status, gotHdr, gotBody, ok := decodePayload(bs)
    require.True(t, ok)
    assert.Equal(t, http.StatusOK, status)
    assert.Equal(t, "application/json", gotHdr.Get("Content-Type"))
    assert.Equal(t, body, gotBody)

    _, _, _, ok = decodePayload(bs[:5])
    assert.False(t, ok, "truncated entry must be treated as a miss")
}

func TestCaptureWriterDropsOversizedBody(t *testing.T) {
    cw := &captureWriter{ResponseWriter: httptest.NewRecorder(), limit: 8}
    _, err := cw.Write([]byte("12345"))
    require.NoError(t, err)
    _, err = cw.Write([]byte("67890"))
    require.NoError(t, err)
    assert.True(t, cw.overflow)
    assert.Zero(t, cw.buf.Len(), "an oversized body is forwarded but never cached")
}

func TestRedisCacheDisabledIsPassThrough(t *testing.T) {
    mw := NewRedisCache(config.CacheConfig{Enabled: false}, nil)
    c := cacheCtx("5", "/v1/my-visits")
    called := false
    err := mw(func(echo.Context) error { called = true; return nil })(c)
    require.NoError(t, err)
    assert.True(t, called)
}
