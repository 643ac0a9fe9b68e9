package middleware

// identity.go holds the helper that resolves the request principal for
// key-building purposes (rate-limit buckets, cache partitions).  The
// JWTAuth middleware stores claim values in the context as-is, so the
// subject may arrive as a string or as a JSON number.

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// currentUserID returns a stable identifier for the authenticated user
// or "anon" for unauthenticated requests.  Used to partition rate
// limits per principal; never used for authorization.
func currentUserID(c echo.Context) string {
    for _, key := range []string{"user_id", "userID"} {
        switch v := c.Get(key).(type) {
        case string:
            if v != "" {
                return v
            }
        case float64:
            return strconv.FormatUint(uint64(v), 10)
        case uint64:
            return strconv.FormatUint(v, 10)
        case int:
            return strconv.Itoa(v)
        }
    }
    return "anon"
}
