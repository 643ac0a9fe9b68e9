package config

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
)

func TestLoadRateLimitConfigDefaults(t *testing.T) {
    cfg := LoadRateLimitConfig()
    assert.True(t, cfg.Enabled)
    assert.Equal(t, 60, cfg.Capacity)
    assert.Equal(t, 1, cfg.RefillTokens)
    assert.Equal(t, time.Second, cfg.RefillInterval)
    assert.Equal(t, "ip_user_route", cfg.KeyStrategy)
    assert.Equal(t, "vgate:rl", cfg.Prefix)
    // TTL must outlive several refill intervals or buckets reset mid-burst.
    assert.GreaterOrEqual(t, cfg.TTL, 5*cfg.RefillInterval)
}

func TestLoadRateLimitConfigClampsBadValues(t *testing.T) {
    t.Setenv("RATE_LIMIT_CAPACITY", "0")
    t.Setenv("RATE_LIMIT_REFILL_TOKENS", "-3")
    cfg := LoadRateLimitConfig()
    assert.Equal(t, 1, cfg.Capacity)
    assert.Equal(t, 1, cfg.RefillTokens)
}

func TestLoadCacheConfigDefaults(t *testing.T) {
    cfg := LoadCacheConfig()
    assert.True(t, cfg.Enabled)
    assert.True(t, cfg.Methods["GET"])
    assert.False(t, cfg.Methods["POST"])
    assert.Equal(t, 30*time.Second, cfg.TTL)
    assert.Equal(t, "vgate:cache", cfg.Prefix)
}
