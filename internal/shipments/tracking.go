package shipments

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strings"
	"time"
)

const (
	trackingPrefix    = "PKG"
	trackingSuffixLen = 8
	trackingAlphabet  = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

var trackingRe = regexp.MustCompile(`^[A-Z0-9-]+$`)

// TrackingGenerator produces a candidate tracking number; uniqueness is
// enforced by the store.
type TrackingGenerator func(now time.Time) (string, error)

// GenerateTrackingNumber returns PKG-YYYYMMDD-XXXXXXXX with a random suffix
// from an alphabet without look-alike characters (0/O, 1/I).
func GenerateTrackingNumber(now time.Time) (string, error) {
	var b strings.Builder
	b.WriteString(trackingPrefix)
	b.WriteByte('-')
	b.WriteString(now.UTC().Format("20060102"))
	b.WriteByte('-')
	max := big.NewInt(int64(len(trackingAlphabet)))
	for i := 0; i < trackingSuffixLen; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(trackingAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// NormalizeTrackingNumber upper-cases and trims user input; ok is false when
// the result cannot be a tracking number.
func NormalizeTrackingNumber(raw string) (string, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" || len(s) > 64 || !trackingRe.MatchString(s) {
		return "", false
	}
	return s, true
}
