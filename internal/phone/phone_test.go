package phone

import (
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestNormalizeSpellingsCompareEqual(t *testing.T) {
    spellings := []string{
        "+2348123456789",
        "+234 812 345 6789",
        "+234-812-345-6789",
        "0812 345 6789",
    }
    for _, raw := range spellings {
        got, err := Normalize(raw, "NG")
        require.NoError(t, err, "raw %q", raw)
        assert.Equal(t, "+2348123456789", got, "raw %q", raw)
    }
}

func TestNormalizeRejectsGarbage(t *testing.T) {
    for _, raw := range []string{"", "   ", "abc", "+", "12"} {
        _, err := Normalize(raw, "NG")
        assert.ErrorIs(t, err, ErrInvalid, "raw %q", raw)
    }
}

func TestNormalizeKeepsExplicitCountryCode(t *testing.T) {
    got, err := Normalize("+14155552671", "NG")
    require.NoError(t, err)
    assert.Equal(t, "+14155552671", got)
}
