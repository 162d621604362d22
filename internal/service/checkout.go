package service

import (
	"context"
	"fmt"
	"log/slog"

	domainid "github.com/shopfront/identity/internal/domain/identity"
	"github.com/shopfront/identity/internal/ports"
)

// CheckoutResolverOptions groups dependencies for CheckoutResolver.
type CheckoutResolverOptions struct {
	Session *Session
	Guests  *GuestIssuer
	Orders  ports.OrderSubmitter
	Logger  *slog.Logger
}

// CheckoutResolver produces the single principal reference attached to an
// order request, arbitrating between the authenticated session and the guest
// record. The order payload never carries roles or credentials.
type CheckoutResolver struct {
	session *Session
	guests  *GuestIssuer
	orders  ports.OrderSubmitter
	logger  *slog.Logger
}

// NewCheckoutResolver constructs a CheckoutResolver.
func NewCheckoutResolver(opts CheckoutResolverOptions) *CheckoutResolver {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &CheckoutResolver{
		session: opts.Session,
		guests:  opts.Guests,
		orders:  opts.Orders,
		logger:  logger,
	}
}

// Resolve picks the order principal: the authenticated user when the session
// is live, otherwise the guest record. The access guard should have gated the
// route already, but Resolve re-validates independently; with neither
// principal available it returns ErrNoPrincipal, which callers treat as a
// redirect back through the guard rather than a crash.
func (r *CheckoutResolver) Resolve() (domainid.OrderPrincipal, error) {
	if current := r.session.Current(); current.IsAuthenticated() {
		return domainid.OrderPrincipal{
			Kind:   domainid.KindAuthenticated,
			UserID: current.ID,
		}, nil
	}

	if guest := r.guests.Current(); guest != nil {
		info := guest.Guest
		return domainid.OrderPrincipal{
			Kind:      domainid.KindGuest,
			GuestInfo: &info,
		}, nil
	}

	r.logger.Error("checkout reached with no principal; access guard was bypassed or state changed mid-flow")
	return domainid.OrderPrincipal{}, domainid.ErrNoPrincipal
}

// PlaceOrderInput carries the cart and address payload for order submission.
// Cart and address content are external collaborators; they pass through
// untouched.
type PlaceOrderInput struct {
	Items   []ports.OrderItem
	Address map[string]string
	Total   float64
}

// PlaceOrder resolves the principal and submits the order. The bearer token
// accompanies the request only for authenticated principals.
func (r *CheckoutResolver) PlaceOrder(ctx context.Context, in PlaceOrderInput) (ports.OrderReceipt, error) {
	principal, err := r.Resolve()
	if err != nil {
		return ports.OrderReceipt{}, err
	}

	req := ports.OrderRequest{
		Principal: principal,
		Items:     in.Items,
		Address:   in.Address,
		Total:     in.Total,
	}
	if principal.Kind == domainid.KindAuthenticated {
		if credential, ok := r.session.Credential(); ok {
			req.Credential = credential
		}
	}

	receipt, err := r.orders.SubmitOrder(ctx, req)
	if err != nil {
		return ports.OrderReceipt{}, fmt.Errorf("submit order: %w", err)
	}

	// The guest record is single-use: a completed checkout discards it.
	if principal.Kind == domainid.KindGuest {
		r.guests.Clear()
	}

	r.logger.Info("order placed", "order_id", receipt.OrderID, "principal_kind", principal.Kind)
	return receipt, nil
}
