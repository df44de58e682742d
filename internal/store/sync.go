package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pankajkarki11/swoo-cart-sync/internal/cart"
	"github.com/pankajkarki11/swoo-cart-sync/internal/clients"
	"github.com/pankajkarki11/swoo-cart-sync/internal/storage"
)

// afterMutation runs the fire-and-forget side of a completed mutation: the
// change event and the background push to the remote mirror. The caller's
// success was already decided by the local commit.
func (s *Store) afterMutation(snap Snapshot) {
	s.publishUpdated(snap)
	s.scheduleSync()
}

func (s *Store) scheduleSync() {
	s.mu.Lock()
	if s.closed || s.userID == "" {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.syncTimeout)
		defer cancel()
		if err := s.SyncNow(ctx); err != nil && !errors.Is(err, cart.ErrNoSession) {
			s.log.Warn("background sync failed", zap.Error(err))
		}
	}()
}

// SyncNow pushes the full current cart to the remote cart resource. Without
// a session it returns ErrNoSession, which callers treat as a quiet no-op.
// Concurrent calls collapse into the sync already in flight. Failures are
// recorded in SyncState and never touch the local cart.
func (s *Store) SyncNow(ctx context.Context) error {
	s.mu.Lock()
	if s.userID == "" {
		s.mu.Unlock()
		return cart.ErrNoSession
	}
	if s.syncState.Syncing {
		s.mu.Unlock()
		return nil
	}
	s.syncState.Syncing = true
	userID := s.userID
	remoteID := s.remoteID
	items := s.items.Clone()
	s.notifyLocked(s.snapshotLocked())
	s.mu.Unlock()

	start := time.Now()
	newRemoteID, err := s.pushRemote(ctx, userID, remoteID, items)

	// Hold the syncing flag up briefly so UI feedback stays visible even
	// when the round trip is instant.
	if wait := s.minSyncWindow - time.Since(start); wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
		}
	}

	s.mu.Lock()
	s.syncState.Syncing = false
	if err != nil {
		s.syncState.LastSyncError = err.Error()
	} else {
		now := time.Now().UTC()
		s.syncState.LastSyncTime = &now
		s.syncState.LastSyncError = ""
		s.remoteID = newRemoteID
		if kvErr := s.kv.Set(context.WithoutCancel(ctx), storage.KeySyncTime, now.Format(time.RFC3339)); kvErr != nil {
			s.log.Warn("persist sync time", zap.Error(kvErr))
		}
	}
	snap := s.snapshotLocked()
	s.notifyLocked(snap)
	s.mu.Unlock()

	s.publishSynced(snap, err)

	if err != nil {
		return &cart.SyncError{Op: "push", Err: err}
	}
	return nil
}

// pushRemote mirrors items to the remote cart resource and returns the
// remote cart id in play afterwards. An empty cart deletes the remote
// resource; an update carrying an empty product list is never sent.
func (s *Store) pushRemote(ctx context.Context, userID, remoteID string, items cart.Cart) (string, error) {
	if len(items) == 0 {
		id := remoteID
		if id == "" {
			carts, err := s.carts.ListByUser(ctx, userID)
			if err != nil {
				return "", err
			}
			if len(carts) == 0 {
				return "", nil
			}
			id = carts[0].ID
		}
		if err := s.carts.Delete(ctx, id); err != nil {
			return "", err
		}
		return "", nil
	}

	body := &clients.RemoteCart{
		UserID:   userID,
		Date:     time.Now().UTC().Format(time.RFC3339),
		Products: make([]clients.RemoteProduct, 0, len(items)),
	}
	for _, it := range items {
		body.Products = append(body.Products, clients.RemoteProduct{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		})
	}

	id := remoteID
	if id == "" {
		carts, err := s.carts.ListByUser(ctx, userID)
		if err != nil {
			return "", err
		}
		if len(carts) > 0 {
			id = carts[0].ID
		}
	}

	if id != "" {
		body.ID = id
		updated, err := s.carts.Update(ctx, body)
		if err != nil {
			return "", err
		}
		if updated != nil && updated.ID != "" {
			return updated.ID, nil
		}
		return id, nil
	}

	created, err := s.carts.Create(ctx, body)
	if err != nil {
		return "", err
	}
	if created != nil && created.ID != "" {
		return created.ID, nil
	}
	return "", nil
}

// fetchRemote returns the user's most recent remote cart, or nil when the
// user has none. The list endpoint orders newest first; older carts are only
// reachable through History and are never merged.
func (s *Store) fetchRemote(ctx context.Context, userID string) (*clients.RemoteCart, error) {
	carts, err := s.carts.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(carts) == 0 {
		return nil, nil
	}
	return &carts[0], nil
}

// hydrate resolves bare remote (productId, quantity) pairs into full line
// items, looking products up concurrently. A failed lookup degrades that one
// line to a placeholder instead of failing the whole load.
func (s *Store) hydrate(ctx context.Context, rc *clients.RemoteCart) cart.Cart {
	now := time.Now().UTC()
	items := make(cart.Cart, len(rc.Products))
	var wg sync.WaitGroup
	for i, rp := range rc.Products {
		wg.Add(1)
		go func(i int, rp clients.RemoteProduct) {
			defer wg.Done()
			p, err := s.products.Get(ctx, rp.ProductID)
			if err != nil {
				s.log.Warn("product lookup failed, keeping placeholder line",
					zap.String("productId", rp.ProductID), zap.Error(err))
				items[i] = cart.PlaceholderLine(rp.ProductID, rp.Quantity, now)
				return
			}
			line := cart.NewLine(p.Info(), rp.Quantity, now)
			line.Origin = cart.OriginAPI
			items[i] = line
		}(i, rp)
	}
	wg.Wait()
	return items
}

// History lists the user's remote carts newest first, for the read-only
// history view. Nothing here is ever merged into the live cart.
func (s *Store) History(ctx context.Context) ([]clients.RemoteCart, error) {
	s.mu.Lock()
	userID := s.userID
	s.mu.Unlock()
	if userID == "" {
		return nil, cart.ErrNoSession
	}
	carts, err := s.carts.ListByUser(ctx, userID)
	if err != nil {
		return nil, &cart.SyncError{Op: "history", Err: err}
	}
	return carts, nil
}

func (s *Store) publishUpdated(snap Snapshot) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := s.pub.PublishCartUpdated(ctx, snap); err != nil {
			s.log.Warn("publish cart.updated", zap.Error(err))
		}
	}()
}

func (s *Store) publishSynced(snap Snapshot, syncErr error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.pub.PublishCartSynced(ctx, snap, syncErr); err != nil {
		s.log.Warn("publish cart.synced", zap.Error(err))
	}
}
