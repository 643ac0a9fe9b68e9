// Package qr issues and validates visit-scoped QR codes.  A code is an
// opaque single-visit token of fixed shape PREFIX_[A-Z0-9]{N}; it is
// not a blank capability and scanning it resolves to exactly one
// visit.  Uniqueness is enforced by the visits.qr_code unique index;
// the creation transaction retries generation on a duplicate-key
// conflict up to MaxIssueAttempts before giving up.
package qr

import (
    "crypto/rand"
    "fmt"
    "math/big"
    "regexp"
    "time"

    qrcode "github.com/skip2/go-qrcode"
)

// MaxIssueAttempts bounds collision retries during issuance.
const MaxIssueAttempts = 5

// codeAlphabet is the character set of the random suffix.  Uppercase
// alphanumerics survive case-folding scanners and manual entry.
const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Issuer generates and validates codes of one fixed shape.
type Issuer struct {
    prefix     string
    suffixLen  int
    defaultTTL time.Duration
    pattern    *regexp.Regexp
}

// NewIssuer builds an Issuer for codes of the form
// <prefix>_<suffixLen uppercase alphanumerics>.  defaultTTL bounds the
// code lifetime when the visit has no expected end.
func NewIssuer(prefix string, suffixLen int, defaultTTL time.Duration) *Issuer {
    return &Issuer{
        prefix:     prefix,
        suffixLen:  suffixLen,
        defaultTTL: defaultTTL,
        pattern:    regexp.MustCompile(fmt.Sprintf(`^%s_[A-Z0-9]{%d}$`, regexp.QuoteMeta(prefix), suffixLen)),
    }
}

// Generate returns a fresh candidate code with a cryptographically
// unguessable suffix.
func (i *Issuer) Generate() (string, error) {
    suffix := make([]byte, i.suffixLen)
    max := big.NewInt(int64(len(codeAlphabet)))
    for n := range suffix {
        idx, err := rand.Int(rand.Reader, max)
        if err != nil {
            return "", err
        }
        suffix[n] = codeAlphabet[idx.Int64()]
    }
    return i.prefix + "_" + string(suffix), nil
}

// Validate is the cheap shape check run on every scanned string before
// any database lookup, so garbage input never reaches the store.
func (i *Issuer) Validate(code string) bool {
    return i.pattern.MatchString(code)
}

// ExpiryFor computes the code expiry: the visit's expected end when
// present, otherwise now plus the default lifetime.
func (i *Issuer) ExpiryFor(expectedEnd *time.Time, now time.Time) time.Time {
    if expectedEnd != nil {
        return expectedEnd.UTC()
    }
    return now.UTC().Add(i.defaultTTL)
}

// Render encodes the code string into a PNG image of size x size
// pixels for display on the visitor's phone.
func Render(code string, size int) ([]byte, error) {
    return qrcode.Encode(code, qrcode.Medium, size)
}
