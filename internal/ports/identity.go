// Package ports defines interfaces (hexagonal ports) for identity behavior.
// Implementations live in internal/adapters; orchestration in internal/service.
package ports

import (
	"context"

	domainid "github.com/shopfront/identity/internal/domain/identity"
)

// SessionStore persists the current principal's session record.
// There is exactly one record; Load returns identity.ErrNoSession when it is
// absent or unreadable. Implementations must tolerate partially-corrupt
// persisted data by reporting it as absent rather than failing.
type SessionStore interface {
	Load(ctx context.Context) (domainid.SessionRecord, error)
	Save(ctx context.Context, rec domainid.SessionRecord) error
	Clear(ctx context.Context) error
}

// LoginInput carries the credentials submitted to the backend.
type LoginInput struct {
	UserName string
	Password string
}

// LoginResult is the normalized successful login payload.
type LoginResult struct {
	Profile    domainid.Profile
	Credential string
}

// AuthBackend is the remote collaborator that issues and renews credentials.
// Implementations classify failures onto the identity error taxonomy:
// identity.ErrInvalidCredentials, identity.ErrUnreachable,
// identity.ErrMalformedResponse.
type AuthBackend interface {
	// Login exchanges username/password for a profile and bearer token.
	Login(ctx context.Context, in LoginInput) (LoginResult, error)

	// Refresh exchanges the current token for a fresh one.
	Refresh(ctx context.Context, credential string) (string, error)
}

// RolesMapper normalizes the backend's loosely-shaped role claims into a
// non-empty role set.
type RolesMapper interface {
	Map(raw []byte) []domainid.Role
}

// OrderSubmitter posts an order request carrying the resolved principal.
type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, req OrderRequest) (OrderReceipt, error)
}

// OrderRequest is the order submission payload. Cart and address content are
// external collaborators and pass through opaquely.
type OrderRequest struct {
	Principal  domainid.OrderPrincipal
	Credential string // bearer token, authenticated principals only
	Items      []OrderItem
	Address    map[string]string
	Total      float64
}

// OrderItem is a single cart line item.
type OrderItem struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// OrderReceipt is the backend's acknowledgement of a created order.
type OrderReceipt struct {
	OrderID string
}
