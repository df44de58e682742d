package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pankajkarki11/swoo-cart-sync/internal/clients"
	"github.com/pankajkarki11/swoo-cart-sync/internal/storage"
	"github.com/pankajkarki11/swoo-cart-sync/internal/store"
)

type fakeRemote struct {
	mu    sync.Mutex
	carts []clients.RemoteCart
}

func (f *fakeRemote) ListByUser(_ context.Context, _ string) ([]clients.RemoteCart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]clients.RemoteCart(nil), f.carts...), nil
}

func (f *fakeRemote) Create(_ context.Context, rc *clients.RemoteCart) (*clients.RemoteCart, error) {
	cp := *rc
	cp.ID = "created-1"
	return &cp, nil
}

func (f *fakeRemote) Update(_ context.Context, rc *clients.RemoteCart) (*clients.RemoteCart, error) {
	cp := *rc
	return &cp, nil
}

func (f *fakeRemote) Delete(_ context.Context, _ string) error { return nil }

type fakeProducts struct{}

func (fakeProducts) Get(_ context.Context, productID string) (*clients.Product, error) {
	if productID == "1" {
		return &clients.Product{ID: "1", Title: "Monitor", Price: 10}, nil
	}
	return nil, errors.New("unknown product")
}

func newTestServer(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()
	st := store.New(store.Options{
		KV:       storage.NewMemory(),
		Carts:    &fakeRemote{},
		Products: fakeProducts{},
	})
	t.Cleanup(st.Close)

	srv := httptest.NewServer(NewRouter(NewHandler(st, nil)))
	t.Cleanup(srv.Close)
	return srv, st
}

func doReq(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	var req *http.Request
	var err error
	if body == "" {
		req, err = http.NewRequest(method, url, nil)
	} else {
		req, err = http.NewRequest(method, url, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func TestAddItemEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doReq(t, http.MethodPost, srv.URL+"/api/cart/items",
		`{"productId":"1","title":"Monitor","price":10,"quantity":2}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snap store.Snapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	require.Len(t, snap.Cart, 1)
	assert.Equal(t, 2, snap.Cart[0].Quantity)
	assert.Equal(t, 2, snap.Stats.ItemCount)
}

func TestAddItemEndpointValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doReq(t, http.MethodPost, srv.URL+"/api/cart/items",
		`{"title":"no product id","quantity":1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doReq(t, http.MethodPost, srv.URL+"/api/cart/items", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateQuantityEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	_, _ = doReq(t, http.MethodPost, srv.URL+"/api/cart/items",
		`{"productId":"1","title":"Monitor","price":10,"quantity":2}`)

	resp, body := doReq(t, http.MethodPut, srv.URL+"/api/cart/items/1", `{"quantity":7}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snap store.Snapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	require.Len(t, snap.Cart, 1)
	assert.Equal(t, 7, snap.Cart[0].Quantity)

	// Zero quantity removes the line over HTTP too.
	resp, body = doReq(t, http.MethodPut, srv.URL+"/api/cart/items/1", `{"quantity":0}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Empty(t, snap.Cart)
}

func TestUpdateQuantityUnknownProductIs404(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doReq(t, http.MethodPut, srv.URL+"/api/cart/items/nope", `{"quantity":3}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestClearCartEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	_, _ = doReq(t, http.MethodPost, srv.URL+"/api/cart/items",
		`{"productId":"1","price":10,"quantity":2}`)

	resp, body := doReq(t, http.MethodDelete, srv.URL+"/api/cart", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snap store.Snapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Empty(t, snap.Cart)
}

func TestStatsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	_, _ = doReq(t, http.MethodPost, srv.URL+"/api/cart/items",
		`{"productId":"1","price":10,"quantity":2}`)
	_, _ = doReq(t, http.MethodPost, srv.URL+"/api/cart/items",
		`{"productId":"2","price":5,"quantity":1}`)

	resp, body := doReq(t, http.MethodGet, srv.URL+"/api/cart/stats", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats struct {
		ItemCount          int     `json:"itemCount"`
		UniqueProductCount int     `json:"uniqueProductCount"`
		TotalValue         float64 `json:"totalValue"`
	}
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.Equal(t, 3, stats.ItemCount)
	assert.Equal(t, 2, stats.UniqueProductCount)
	assert.InDelta(t, 25.0, stats.TotalValue, 1e-9)
}

func TestSyncWithoutSessionIs401(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doReq(t, http.MethodPost, srv.URL+"/api/cart/sync", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSessionLoginMergesRemoteCart(t *testing.T) {
	st := store.New(store.Options{
		KV: storage.NewMemory(),
		Carts: &fakeRemote{carts: []clients.RemoteCart{{
			ID:       "c1",
			UserID:   "u1",
			Products: []clients.RemoteProduct{{ProductID: "1", Quantity: 4}},
		}}},
		Products: fakeProducts{},
	})
	t.Cleanup(st.Close)
	srv := httptest.NewServer(NewRouter(NewHandler(st, nil)))
	t.Cleanup(srv.Close)

	resp, body := doReq(t, http.MethodPost, srv.URL+"/api/session", `{"userId":"u1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snap store.Snapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	require.Len(t, snap.Cart, 1)
	assert.Equal(t, "Monitor", snap.Cart[0].Title)
	assert.Equal(t, 4, snap.Cart[0].Quantity)
	assert.Equal(t, "u1", snap.UserID)

	// Logout flushes the local cart.
	resp, body = doReq(t, http.MethodDelete, srv.URL+"/api/session", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	// userId is omitempty; reset snap so the unmarshal doesn't keep stale fields.
	snap = store.Snapshot{}
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Empty(t, snap.Cart)
	assert.Empty(t, snap.UserID)
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doReq(t, http.MethodGet, srv.URL+"/health", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}
