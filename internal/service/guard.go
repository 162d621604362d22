package service

import (
	domainid "github.com/shopfront/identity/internal/domain/identity"
)

// Decision is the closed set of route-entry outcomes. The UI layer maps each
// value to a render action; this package only decides.
type Decision string

const (
	DecisionAllow                Decision = "allow"
	DecisionAllowAsGuest         Decision = "allow_as_guest"
	DecisionRedirectLogin        Decision = "redirect_login"
	DecisionRedirectUnauthorized Decision = "redirect_unauthorized"
)

// RouteKind classifies the target route for the guest carve-out.
type RouteKind string

const (
	// RouteGeneral is any protected route outside the checkout flow.
	RouteGeneral RouteKind = "general"
	// RouteCheckoutOnly is the checkout path, the one place a guest
	// principal may stand in for authentication.
	RouteCheckoutOnly RouteKind = "checkout"
)

// AuthState is the read surface the guard needs from the session.
type AuthState interface {
	IsAuthenticated() bool
	HasRole(domainid.Role) bool
}

// Decide evaluates the route decision table, first match wins. It is pure
// with respect to its inputs, never panics, and must be called fresh on
// every route entry; a session that expires while the user idles is caught
// at the next navigation because IsAuthenticated re-evaluates expiry.
//
// AllowAsGuest is a deliberately narrow carve-out: only a role-free checkout
// route can yield it. Guests never satisfy a role requirement.
func Decide(auth AuthState, guest *domainid.Principal, required []domainid.Role, route RouteKind) Decision {
	authenticated := auth != nil && auth.IsAuthenticated()
	hasGuest := guest != nil && guest.IsGuest()

	if len(required) == 0 {
		if authenticated {
			return DecisionAllow
		}
		if hasGuest && route == RouteCheckoutOnly {
			return DecisionAllowAsGuest
		}
		return DecisionRedirectLogin
	}

	if authenticated {
		for _, role := range required {
			if !auth.HasRole(role) {
				return DecisionRedirectUnauthorized
			}
		}
		return DecisionAllow
	}

	return DecisionRedirectLogin
}
