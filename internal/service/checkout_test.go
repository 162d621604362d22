package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainid "github.com/shopfront/identity/internal/domain/identity"
	"github.com/shopfront/identity/internal/mocks"
	idmocks "github.com/shopfront/identity/internal/mocks/identity"
	"github.com/shopfront/identity/internal/ports"
)

// checkoutFixture wires a CheckoutResolver over a real Session and GuestIssuer
// with capturing orders.
type checkoutFixture struct {
	resolver *CheckoutResolver
	session  *sessionFixture
	guests   *GuestIssuer
	orders   *idmocks.CapturingOrders
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()

	session := newSessionFixture(t)
	guests := NewGuestIssuer(nil)
	orders := &idmocks.CapturingOrders{}

	resolver := NewCheckoutResolver(CheckoutResolverOptions{
		Session: session.session,
		Guests:  guests,
		Orders:  orders,
	})
	return &checkoutFixture{
		resolver: resolver,
		session:  session,
		guests:   guests,
		orders:   orders,
	}
}

func TestCheckoutResolver_Resolve_AuthenticatedUser(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	_, err := f.session.session.Login(ctx, "jane", "secret")
	require.NoError(t, err)

	principal, err := f.resolver.Resolve()
	require.NoError(t, err)
	assert.Equal(t, domainid.KindAuthenticated, principal.Kind)
	assert.Equal(t, "user-1", principal.UserID)
	assert.Nil(t, principal.GuestInfo)
}

func TestCheckoutResolver_Resolve_AuthenticatedWinsOverGuest(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	_, err := f.guests.Create(validGuestInfo())
	require.NoError(t, err)
	_, err = f.session.session.Login(ctx, "jane", "secret")
	require.NoError(t, err)

	principal, err := f.resolver.Resolve()
	require.NoError(t, err)
	assert.Equal(t, domainid.KindAuthenticated, principal.Kind)
}

func TestCheckoutResolver_Resolve_Guest(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.guests.Create(validGuestInfo())
	require.NoError(t, err)

	principal, err := f.resolver.Resolve()
	require.NoError(t, err)
	assert.Equal(t, domainid.KindGuest, principal.Kind)
	require.NotNil(t, principal.GuestInfo)
	assert.Equal(t, "jane@example.com", principal.GuestInfo.Email)
	assert.Empty(t, principal.UserID)
}

func TestCheckoutResolver_Resolve_NoPrincipal(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.resolver.Resolve()
	assert.ErrorIs(t, err, domainid.ErrNoPrincipal)
}

func TestCheckoutResolver_Resolve_ExpiredSessionFallsThroughToGuest(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	_, err := f.session.session.Login(ctx, "jane", "secret")
	require.NoError(t, err)
	_, err = f.guests.Create(validGuestInfo())
	require.NoError(t, err)

	f.session.advance(2 * time.Hour)

	principal, err := f.resolver.Resolve()
	require.NoError(t, err)
	assert.Equal(t, domainid.KindGuest, principal.Kind)
}

func TestCheckoutResolver_PlaceOrder_Authenticated(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	_, err := f.session.session.Login(ctx, "jane", "secret")
	require.NoError(t, err)

	receipt, err := f.resolver.PlaceOrder(ctx, PlaceOrderInput{
		Items: []ports.OrderItem{{ProductID: "p-1", Quantity: 1, Price: 24.50}},
		Total: 24.50,
	})
	require.NoError(t, err)
	assert.Equal(t, "order-1", receipt.OrderID)

	sent := f.orders.Last()
	require.NotNil(t, sent)
	assert.Equal(t, domainid.KindAuthenticated, sent.Principal.Kind)
	assert.Equal(t, f.session.backend.Credential, sent.Credential)
}

func TestCheckoutResolver_PlaceOrder_GuestOmitsCredentialAndClearsGuest(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	_, err := f.guests.Create(validGuestInfo())
	require.NoError(t, err)

	_, err = f.resolver.PlaceOrder(ctx, PlaceOrderInput{Total: 12})
	require.NoError(t, err)

	sent := f.orders.Last()
	require.NotNil(t, sent)
	assert.Equal(t, domainid.KindGuest, sent.Principal.Kind)
	assert.Empty(t, sent.Credential)

	// The guest record is single-use.
	assert.Nil(t, f.guests.Current())
}

func TestCheckoutResolver_PlaceOrder_SubmitFailureKeepsGuest(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	_, err := f.guests.Create(validGuestInfo())
	require.NoError(t, err)

	f.orders.SubmitFunc = func(context.Context, ports.OrderRequest) (ports.OrderReceipt, error) {
		return ports.OrderReceipt{}, errors.New("backend down")
	}

	_, err = f.resolver.PlaceOrder(ctx, PlaceOrderInput{Total: 12})
	assert.Error(t, err)
	assert.NotNil(t, f.guests.Current())
}

func TestCheckoutResolver_PlaceOrder_ExpectationStyle(t *testing.T) {
	ctrl := gomock.NewController(t)
	orders := mocks.NewMockOrderSubmitter(ctrl)

	session := newSessionFixture(t)
	_, err := session.session.Login(context.Background(), "jane", "secret")
	require.NoError(t, err)

	resolver := NewCheckoutResolver(CheckoutResolverOptions{
		Session: session.session,
		Guests:  NewGuestIssuer(nil),
		Orders:  orders,
	})

	orders.EXPECT().
		SubmitOrder(gomock.Any(), gomock.Cond(func(req ports.OrderRequest) bool {
			return req.Principal.Kind == domainid.KindAuthenticated && req.Total == 99.95
		})).
		Return(ports.OrderReceipt{OrderID: "order-555"}, nil)

	receipt, err := resolver.PlaceOrder(context.Background(), PlaceOrderInput{Total: 99.95})
	require.NoError(t, err)
	assert.Equal(t, "order-555", receipt.OrderID)
}
