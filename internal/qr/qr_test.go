package qr

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestGenerateMatchesOwnShape(t *testing.T) {
    iss := NewIssuer("SG", 12, 4*time.Hour)
    seen := make(map[string]struct{})
    for n := 0; n < 64; n++ {
        code, err := iss.Generate()
        require.NoError(t, err)
        assert.True(t, iss.Validate(code), "generated %q", code)
        assert.Len(t, code, len("SG_")+12)
        seen[code] = struct{}{}
    }
    // 64 draws from a 36^12 space colliding would mean a broken generator.
    assert.Len(t, seen, 64)
}

func TestValidateRejectsGarbage(t *testing.T) {
    iss := NewIssuer("SG", 12, 4*time.Hour)
    for _, code := range []string{
        "",
        "SG_",
        "SG_abcdef123456",      // lowercase
        "SG_ABCDEF12345",       // too short
        "SG_ABCDEF1234567",     // too long
        "XX_ABCDEF123456",      // wrong prefix
        "SG_ABCDEF12345!",      // bad character
        "'; DROP TABLE visits", // never reaches the DB
    } {
        assert.False(t, iss.Validate(code), "code %q", code)
    }
    assert.True(t, iss.Validate("SG_ABCDEF123456"))
}

func TestExpiryFor(t *testing.T) {
    iss := NewIssuer("SG", 12, 4*time.Hour)
    now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

    assert.Equal(t, now.Add(4*time.Hour), iss.ExpiryFor(nil, now))

    end := now.Add(90 * time.Minute)
    assert.Equal(t, end, iss.ExpiryFor(&end, now))
}

func TestRenderProducesPNG(t *testing.T) {
    img, err := Render("SG_ABCDEF123456", 256)
    require.NoError(t, err)
    require.NotEmpty(t, img)
    assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, img[:4])
}
