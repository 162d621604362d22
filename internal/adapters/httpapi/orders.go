package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	domainid "github.com/shopfront/identity/internal/domain/identity"
	"github.com/shopfront/identity/internal/ports"
)

// orderRequest is the wire shape of an order submission. The principal is the
// only identity representation allowed in the payload; roles and credentials
// never appear in the body (the bearer token travels in the header for
// authenticated principals only).
type orderRequest struct {
	UserID    string              `json:"userId"`
	GuestInfo *domainid.GuestInfo `json:"guestInfo,omitempty"`
	Items     []ports.OrderItem   `json:"items"`
	Address   map[string]string   `json:"address,omitempty"`
	Total     float64             `json:"total"`
}

// SubmitOrder posts the order request to the backend.
func (c *Client) SubmitOrder(ctx context.Context, req ports.OrderRequest) (ports.OrderReceipt, error) {
	wire := orderRequest{
		Items:   req.Items,
		Address: req.Address,
		Total:   req.Total,
	}
	switch req.Principal.Kind {
	case domainid.KindAuthenticated:
		wire.UserID = req.Principal.UserID
	case domainid.KindGuest:
		if req.Principal.GuestInfo != nil {
			guest := *req.Principal.GuestInfo
			wire.GuestInfo = &guest
		}
	default:
		return ports.OrderReceipt{}, domainid.ErrNoPrincipal
	}

	body, err := json.Marshal(wire)
	if err != nil {
		return ports.OrderReceipt{}, fmt.Errorf("encode order request: %w", err)
	}

	bearer := ""
	if req.Principal.Kind == domainid.KindAuthenticated {
		bearer = req.Credential
	}

	payload, err := c.post(ctx, "/orders", bearer, body, classifyOrder)
	if err != nil {
		return ports.OrderReceipt{}, err
	}

	var resp struct {
		ID json.Number `json:"id"`
	}
	if err := json.Unmarshal(payload, &resp); err != nil {
		return ports.OrderReceipt{}, fmt.Errorf("%w: %v", domainid.ErrMalformedResponse, err)
	}
	if resp.ID.String() == "" {
		return ports.OrderReceipt{}, fmt.Errorf("%w: missing order id", domainid.ErrMalformedResponse)
	}
	return ports.OrderReceipt{OrderID: resp.ID.String()}, nil
}

func classifyOrder(status int) error {
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return domainid.ErrInvalidCredentials
	}
	return fmt.Errorf("%w: backend returned status %d", domainid.ErrUnreachable, status)
}
