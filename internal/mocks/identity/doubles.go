// Package identity contains simple hand-written test doubles for the
// identity ports. These are lightweight and suitable for scenario tests
// without codegen; expectation-style gomock mocks live one package up.
package identity

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopfront/identity/internal/adapters/memstore"
	domainid "github.com/shopfront/identity/internal/domain/identity"
	"github.com/shopfront/identity/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthBackend    = (*ScriptedBackend)(nil)
	_ ports.SessionStore   = (*SessionStoreFuncs)(nil)
	_ ports.OrderSubmitter = (*CapturingOrders)(nil)
)

// ScriptedBackend simulates the storefront backend with deterministic
// responses. Override LoginFunc/RefreshFunc for failure scenarios.
type ScriptedBackend struct {
	LoginFunc   func(ctx context.Context, in ports.LoginInput) (ports.LoginResult, error)
	RefreshFunc func(ctx context.Context, credential string) (string, error)

	// Deterministic values for predictable testing
	Profile    domainid.Profile
	Credential string

	mu           sync.Mutex
	loginCalls   int
	refreshCalls int
}

// NewScriptedBackend creates a ScriptedBackend with sensible defaults.
func NewScriptedBackend() *ScriptedBackend {
	return &ScriptedBackend{
		Profile: domainid.Profile{
			ID:        "user-1",
			FirstName: "Test",
			LastName:  "Shopper",
			Email:     "test.shopper@example.com",
			Roles:     []domainid.Role{domainid.RoleUser},
		},
		Credential: "scripted-token-1",
	}
}

func (s *ScriptedBackend) Login(ctx context.Context, in ports.LoginInput) (ports.LoginResult, error) {
	s.mu.Lock()
	s.loginCalls++
	s.mu.Unlock()

	if s.LoginFunc != nil {
		return s.LoginFunc(ctx, in)
	}
	return ports.LoginResult{Profile: s.Profile, Credential: s.Credential}, nil
}

func (s *ScriptedBackend) Refresh(ctx context.Context, credential string) (string, error) {
	s.mu.Lock()
	s.refreshCalls++
	n := s.refreshCalls
	s.mu.Unlock()

	if s.RefreshFunc != nil {
		return s.RefreshFunc(ctx, credential)
	}
	return fmt.Sprintf("scripted-token-%d", n+1), nil
}

// LoginCalls returns how many times Login was invoked.
func (s *ScriptedBackend) LoginCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loginCalls
}

// RefreshCalls returns how many times Refresh was invoked.
func (s *ScriptedBackend) RefreshCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshCalls
}

// SessionStoreFuncs is a session store double: each operation delegates to
// the corresponding Func when set and to an in-memory store otherwise, so a
// test can break exactly one operation.
type SessionStoreFuncs struct {
	LoadFunc  func(ctx context.Context) (domainid.SessionRecord, error)
	SaveFunc  func(ctx context.Context, rec domainid.SessionRecord) error
	ClearFunc func(ctx context.Context) error

	Inner *memstore.Store
}

// NewSessionStoreFuncs creates a SessionStoreFuncs over a fresh memory store.
func NewSessionStoreFuncs() *SessionStoreFuncs {
	return &SessionStoreFuncs{Inner: memstore.New()}
}

func (s *SessionStoreFuncs) Load(ctx context.Context) (domainid.SessionRecord, error) {
	if s.LoadFunc != nil {
		return s.LoadFunc(ctx)
	}
	return s.Inner.Load(ctx)
}

func (s *SessionStoreFuncs) Save(ctx context.Context, rec domainid.SessionRecord) error {
	if s.SaveFunc != nil {
		return s.SaveFunc(ctx, rec)
	}
	return s.Inner.Save(ctx, rec)
}

func (s *SessionStoreFuncs) Clear(ctx context.Context) error {
	if s.ClearFunc != nil {
		return s.ClearFunc(ctx)
	}
	return s.Inner.Clear(ctx)
}

// CapturingOrders records order submissions and returns a scripted receipt.
type CapturingOrders struct {
	SubmitFunc func(ctx context.Context, req ports.OrderRequest) (ports.OrderReceipt, error)

	mu   sync.Mutex
	last *ports.OrderRequest
}

func (c *CapturingOrders) SubmitOrder(ctx context.Context, req ports.OrderRequest) (ports.OrderReceipt, error) {
	c.mu.Lock()
	captured := req
	c.last = &captured
	c.mu.Unlock()

	if c.SubmitFunc != nil {
		return c.SubmitFunc(ctx, req)
	}
	return ports.OrderReceipt{OrderID: "order-1"}, nil
}

// Last returns the most recent captured order request, nil when none.
func (c *CapturingOrders) Last() *ports.OrderRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return nil
	}
	req := *c.last
	return &req
}
