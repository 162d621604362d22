// Package authroles normalizes the backend's loosely-shaped role claims into
// a non-empty role set. The login payload has carried roles three different
// ways across backend versions: a "roles" array, a legacy singular "role"
// string, or nothing at all. Deployments with a nonstandard payload can
// instead point a JMESPath expression at wherever their roles live.
package authroles

import (
	"encoding/json"
	"fmt"

	jmespath "github.com/jmespath-community/go-jmespath"

	domainid "github.com/shopfront/identity/internal/domain/identity"
)

// DefaultMapper understands the standard login payload shapes.
type DefaultMapper struct{}

// Map extracts roles from the raw login payload: "roles" array first, then
// the legacy singular "role", defaulting to USER when neither is present.
func (DefaultMapper) Map(payload []byte) []domainid.Role {
	var envelope struct {
		Roles []string `json:"roles"`
		Role  string   `json:"role"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return domainid.NormalizeRoles(nil)
	}

	if len(envelope.Roles) > 0 {
		return domainid.NormalizeRoles(toRoles(envelope.Roles))
	}
	if envelope.Role != "" {
		return domainid.NormalizeRoles([]domainid.Role{domainid.Role(envelope.Role)})
	}
	return domainid.NormalizeRoles(nil)
}

// JMESPathMapper extracts roles via a compiled JMESPath expression evaluated
// against the login payload. The expression should yield a string or a list
// of strings; anything else falls back to the USER default.
type JMESPathMapper struct {
	expr jmespath.JMESPath
}

// NewJMESPathMapper compiles the expression up front so a bad expression is a
// construction error, not a per-login surprise.
func NewJMESPathMapper(expression string) (*JMESPathMapper, error) {
	compiled, err := jmespath.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("compile roles expression: %w", err)
	}
	return &JMESPathMapper{expr: compiled}, nil
}

func (m *JMESPathMapper) Map(payload []byte) []domainid.Role {
	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return domainid.NormalizeRoles(nil)
	}

	result, err := m.expr.Search(doc)
	if err != nil {
		return domainid.NormalizeRoles(nil)
	}

	switch v := result.(type) {
	case string:
		return domainid.NormalizeRoles([]domainid.Role{domainid.Role(v)})
	case []any:
		roles := make([]domainid.Role, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				roles = append(roles, domainid.Role(s))
			}
		}
		return domainid.NormalizeRoles(roles)
	default:
		return domainid.NormalizeRoles(nil)
	}
}

func toRoles(in []string) []domainid.Role {
	out := make([]domainid.Role, 0, len(in))
	for _, s := range in {
		out = append(out, domainid.Role(s))
	}
	return out
}
