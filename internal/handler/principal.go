package handler

// principal.go holds helpers shared across handler files for reading
// the resolved principal (user, role, building) that JWTAuth stored in
// the Echo context.  Claims decoded from JSON arrive as float64, while
// tests and internal callers may store native integers, so the helpers
// accept both.

import (
    "errors"
    "strconv"

    "github.com/labstack/echo/v4"
)

// getUserID extracts the authenticated user's ID from context.
func getUserID(c echo.Context) (uint64, error) {
    return contextUint(c, "user_id")
}

// getBuildingID extracts the principal's building from context.  Every
// core operation is scoped to this tenant boundary.
func getBuildingID(c echo.Context) (uint64, error) {
    return contextUint(c, "building_id")
}

func contextUint(c echo.Context, key string) (uint64, error) {
    v := c.Get(key)
    switch t := v.(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid " + key + " in context")
}
