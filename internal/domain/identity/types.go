// Package identity contains domain-level types for client identity resolution.
// It is pure and free of transport/adapter concerns.
package identity

// Role represents an application's authorization role.
// Kept in string form for easy persistence; the backend is the authority on
// which roles exist, these constants only name the ones the core reasons about.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Kind discriminates the resolved principal variants.
type Kind string

const (
	KindAnonymous     Kind = "anonymous"
	KindAuthenticated Kind = "user"
	KindGuest         Kind = "guest"
)

// Profile is the authenticated user's profile as normalized at the backend
// boundary. IDs are always strings here even when the backend sends numbers.
type Profile struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Roles     []Role `json:"roles"`
}

// DisplayName returns the profile's human-readable name.
func (p Profile) DisplayName() string {
	switch {
	case p.FirstName != "" && p.LastName != "":
		return p.FirstName + " " + p.LastName
	case p.FirstName != "":
		return p.FirstName
	default:
		return p.Email
	}
}

// HasRole reports whether the profile carries the given role.
func (p Profile) HasRole(r Role) bool {
	for _, have := range p.Roles {
		if have == r {
			return true
		}
	}
	return false
}

// GuestInfo is the contact payload a guest supplies at checkout.
type GuestInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Principal is the resolved identity used for authorization decisions.
// Exactly one variant is populated: Profile for authenticated users,
// Guest for guest checkout; both empty means anonymous.
type Principal struct {
	Kind    Kind
	ID      string
	Profile Profile   // KindAuthenticated only
	Guest   GuestInfo // KindGuest only
}

// Anonymous is the zero principal.
var Anonymous = Principal{Kind: KindAnonymous}

// IsAuthenticated reports whether the principal is a logged-in user.
func (p Principal) IsAuthenticated() bool { return p.Kind == KindAuthenticated }

// IsGuest reports whether the principal is a checkout guest.
// Guests never carry roles and never satisfy role-gated checks.
func (p Principal) IsGuest() bool { return p.Kind == KindGuest }

// SessionRecord is the persisted pairing of profile and bearer token.
// Profile and credential are set and cleared together; a record missing
// either half is invalid and must collapse to logged-out.
type SessionRecord struct {
	Profile    Profile `json:"profile"`
	Credential string  `json:"credential"`
}

// Complete reports whether both halves of the record are present.
func (r SessionRecord) Complete() bool {
	return r.Profile.ID != "" && r.Credential != ""
}

// OrderPrincipal is the only identity representation an order request may
// embed. It deliberately excludes roles and credentials.
type OrderPrincipal struct {
	Kind      Kind       `json:"kind"`
	UserID    string     `json:"userId,omitempty"`
	GuestInfo *GuestInfo `json:"guestInfo,omitempty"`
}

// NormalizeRoles returns a non-empty role set: input copied when present,
// otherwise the USER default the backend contract promises.
func NormalizeRoles(roles []Role) []Role {
	if len(roles) == 0 {
		return []Role{RoleUser}
	}
	out := make([]Role, 0, len(roles))
	for _, r := range roles {
		if r != "" {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return []Role{RoleUser}
	}
	return out
}
