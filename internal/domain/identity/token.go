package identity

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Inspector evaluates bearer-token expiry without verifying signatures.
// The backend issues and verifies tokens; the client only judges whether a
// token it already holds is still worth presenting. Every decode failure is
// reported as expired; downstream authorization assumes "expired" is the
// safe default for unparsable input.
type Inspector struct {
	// Now is the clock used for expiry comparison. Defaults to time.Now.
	Now func() time.Time
}

// NewInspector returns an Inspector on the real clock.
func NewInspector() *Inspector {
	return &Inspector{Now: time.Now}
}

// IsExpired reports whether the credential's embedded expiry has passed.
// Malformed tokens, tokens without claims, and tokens without an exp claim
// all count as expired. Never returns an error, performs no I/O.
func (i *Inspector) IsExpired(credential string) bool {
	if credential == "" {
		return true
	}

	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(credential, claims); err != nil {
		return true
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}

	now := time.Now
	if i.Now != nil {
		now = i.Now
	}
	return !exp.Time.After(now())
}

// Expiry returns the credential's embedded expiry time when it can be
// decoded. ok is false for malformed tokens or tokens without an exp claim.
func (i *Inspector) Expiry(credential string) (expiry time.Time, ok bool) {
	if credential == "" {
		return time.Time{}, false
	}
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(credential, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
