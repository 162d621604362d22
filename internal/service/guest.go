package service

import (
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"

	domainid "github.com/shopfront/identity/internal/domain/identity"
)

// Structural shape checks only; the backend owns real contact verification.
var (
	emailShape = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	nonDigits  = regexp.MustCompile(`\D`)
)

// GuestIssuer issues the ephemeral guest principal used to allow checkout
// without authentication. The record lives only in memory: a restart during
// guest checkout requires re-entry. Guests never carry roles or
// credentials and are never elevated to an authenticated principal.
type GuestIssuer struct {
	logger *slog.Logger

	mu      sync.Mutex
	current *domainid.Principal
}

// NewGuestIssuer constructs a GuestIssuer.
func NewGuestIssuer(logger *slog.Logger) *GuestIssuer {
	if logger == nil {
		logger = slog.Default()
	}
	return &GuestIssuer{logger: logger}
}

// Create validates the contact payload and issues a guest principal. The
// phone is normalized to its digits. Validation failure is a *ValidationError
// naming every offending field; the issuer state is unchanged on failure.
func (g *GuestIssuer) Create(info domainid.GuestInfo) (domainid.Principal, error) {
	fields := map[string]string{}

	name := strings.TrimSpace(info.Name)
	if name == "" {
		fields["name"] = "name is required"
	}

	email := strings.TrimSpace(info.Email)
	if email == "" {
		fields["email"] = "email is required"
	} else if !emailShape.MatchString(email) {
		fields["email"] = "email address is not valid"
	}

	phone := nonDigits.ReplaceAllString(info.Phone, "")
	if len(phone) != 10 {
		fields["phone"] = "phone must contain exactly 10 digits"
	}

	if len(fields) > 0 {
		return domainid.Anonymous, &domainid.ValidationError{Fields: fields}
	}

	principal := domainid.Principal{
		Kind: domainid.KindGuest,
		ID:   "guest_" + uuid.NewString(),
		Guest: domainid.GuestInfo{
			Name:  name,
			Email: email,
			Phone: phone,
		},
	}

	g.mu.Lock()
	g.current = &principal
	g.mu.Unlock()

	g.logger.Info("guest session started", "guest_id", principal.ID)
	return principal, nil
}

// Current returns the issued guest principal, if any.
func (g *GuestIssuer) Current() *domainid.Principal {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current == nil {
		return nil
	}
	p := *g.current
	return &p
}

// Clear discards the guest record. Called when an authenticated session
// appears or the checkout flow completes or aborts.
func (g *GuestIssuer) Clear() {
	g.mu.Lock()
	had := g.current != nil
	g.current = nil
	g.mu.Unlock()
	if had {
		g.logger.Info("guest session cleared")
	}
}
