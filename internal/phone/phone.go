// Package phone canonicalizes visitor phone numbers.  All ban lookups
// and visitor dedup keys operate on the canonical E.164 form, so two
// different raw spellings of one number always compare equal.
package phone

import (
    "errors"
    "regexp"
    "strings"

    "github.com/nyaruka/phonenumbers"
)

// ErrInvalid is returned when the input cannot be parsed as a phone
// number in any supported form.
var ErrInvalid = errors.New("invalid phone number")

var nonDialable = regexp.MustCompile(`[^\d+]`)

// Normalize converts a raw phone string to canonical E.164 using the
// given default ISO region (e.g. "NG") for numbers entered without a
// country prefix.  Separators and formatting characters are stripped
// before parsing.  Numbers that parse but fail validation are rejected
// rather than stored in a non-canonical shape.
func Normalize(raw, defaultRegion string) (string, error) {
    trimmed := nonDialable.ReplaceAllString(strings.TrimSpace(raw), "")
    if trimmed == "" {
        return "", ErrInvalid
    }
    num, err := phonenumbers.Parse(trimmed, defaultRegion)
    if err != nil {
        return "", ErrInvalid
    }
    if !phonenumbers.IsValidNumber(num) {
        return "", ErrInvalid
    }
    return phonenumbers.Format(num, phonenumbers.E164), nil
}
