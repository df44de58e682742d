package clients

import (
	"context"
	"net/http"
	"net/url"
)

// RemoteCart is the wire shape of the remote cart resource. The backend
// accepts writes but does not durably persist them, so callers must treat
// every response as a best-effort mirror of local state.
type RemoteCart struct {
	ID       string          `json:"id,omitempty"`
	UserID   string          `json:"userId"`
	Date     string          `json:"date"`
	Products []RemoteProduct `json:"products"`
}

// RemoteProduct is the bare (productId, quantity) pair stored remotely.
type RemoteProduct struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type CartClient struct{ c *Client }

func NewCartClient(c *Client) *CartClient { return &CartClient{c: c} }

// ListByUser returns the user's carts, newest first.
func (cc *CartClient) ListByUser(ctx context.Context, userID string) ([]RemoteCart, error) {
	q := url.Values{"userId": []string{userID}}
	var carts []RemoteCart
	if err := cc.c.doJSON(ctx, http.MethodGet, "/carts", q.Encode(), nil, &carts); err != nil {
		return nil, err
	}
	return carts, nil
}

func (cc *CartClient) Get(ctx context.Context, id string) (*RemoteCart, error) {
	var rc RemoteCart
	if err := cc.c.doJSON(ctx, http.MethodGet, "/carts/"+id, "", nil, &rc); err != nil {
		return nil, err
	}
	return &rc, nil
}

func (cc *CartClient) Create(ctx context.Context, rc *RemoteCart) (*RemoteCart, error) {
	var created RemoteCart
	if err := cc.c.doJSON(ctx, http.MethodPost, "/carts", "", rc, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (cc *CartClient) Update(ctx context.Context, rc *RemoteCart) (*RemoteCart, error) {
	var updated RemoteCart
	if err := cc.c.doJSON(ctx, http.MethodPut, "/carts/"+rc.ID, "", rc, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (cc *CartClient) Delete(ctx context.Context, id string) error {
	return cc.c.doJSON(ctx, http.MethodDelete, "/carts/"+id, "", nil, nil)
}
