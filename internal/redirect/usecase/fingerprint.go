package usecase

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net"
	"strings"
)

// Fingerprinter derives stable one-way digests of client context so tokens never carry raw
// IP addresses or user agents.
type Fingerprinter struct {
	pepper string
}

func NewFingerprinter(pepper string) Fingerprinter {
	return Fingerprinter{pepper: pepper}
}

func (f Fingerprinter) HashIP(ip string) string {
	return f.digest("ip", normalizeIP(ip))
}

func (f Fingerprinter) HashUA(userAgent string) string {
	return f.digest("ua", strings.TrimSpace(userAgent))
}

func (f Fingerprinter) digest(kind, value string) string {
	h := sha256.Sum256([]byte(kind + ":" + value + ":" + f.pepper))
	return hex.EncodeToString(h[:])
}

// sameDigest compares two hex digests in constant time.
func sameDigest(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func normalizeIP(raw string) string {
	raw = strings.TrimSpace(raw)
	if host, _, err := net.SplitHostPort(raw); err == nil {
		raw = host
	}
	if ip := net.ParseIP(raw); ip != nil {
		return ip.String()
	}
	return raw
}
