// Package mocks provides mock implementations for testing the identity core.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for
// the identity ports. The mocks are generated using go:generate directives
// and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	store := mocks.NewMockSessionStore(ctrl)
//	store.EXPECT().Load(gomock.Any()).Return(rec, nil)
//
// Hand-written doubles suited to scenario tests live in mocks/identity.
package mocks

// Generate mocks for the identity ports. This creates MockSessionStore,
// MockAuthBackend and MockOrderSubmitter covering every interface method.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=identity_ports_mock.go github.com/shopfront/identity/internal/ports SessionStore,AuthBackend,OrderSubmitter
