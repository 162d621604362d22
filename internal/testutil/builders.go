package testutil

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	domainid "github.com/shopfront/identity/internal/domain/identity"
)

// testSigningKey signs test tokens. The core never verifies signatures, so
// the key only needs to be stable, not secret.
var testSigningKey = []byte("test-signing-key")

// SignedToken returns a JWT whose exp claim is the given time.
func SignedToken(t TestingTB, expiresAt time.Time) string {
	t.Helper()

	claims := jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSigningKey)
	if err != nil {
		t.Fatalf("sign test token: %v", err)
	}
	return token
}

// TokenWithoutExpiry returns a JWT carrying no exp claim.
func TokenWithoutExpiry(t TestingTB) string {
	t.Helper()

	claims := jwt.RegisteredClaims{Subject: "user-1"}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSigningKey)
	if err != nil {
		t.Fatalf("sign test token: %v", err)
	}
	return token
}

// ProfileBuilder provides a fluent interface for building Profile values.
type ProfileBuilder struct {
	profile domainid.Profile
}

// NewProfile creates a ProfileBuilder with sensible defaults.
func NewProfile() *ProfileBuilder {
	return &ProfileBuilder{
		profile: domainid.Profile{
			ID:        "user-1",
			FirstName: "Jane",
			LastName:  "Shopper",
			Email:     "jane.shopper@example.com",
			Roles:     []domainid.Role{domainid.RoleUser},
		},
	}
}

// WithID sets the profile id.
func (b *ProfileBuilder) WithID(id string) *ProfileBuilder {
	b.profile.ID = id
	return b
}

// WithRoles sets the profile roles.
func (b *ProfileBuilder) WithRoles(roles ...domainid.Role) *ProfileBuilder {
	b.profile.Roles = roles
	return b
}

// WithEmail sets the profile email.
func (b *ProfileBuilder) WithEmail(email string) *ProfileBuilder {
	b.profile.Email = email
	return b
}

// Build returns the constructed profile.
func (b *ProfileBuilder) Build() domainid.Profile {
	return b.profile
}

// SessionRecord builds a complete session record around the profile with a
// token expiring at the given time.
func (b *ProfileBuilder) SessionRecord(t TestingTB, expiresAt time.Time) domainid.SessionRecord {
	t.Helper()
	return domainid.SessionRecord{
		Profile:    b.profile,
		Credential: SignedToken(t, expiresAt),
	}
}
