package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pankajkarki11/swoo-cart-sync/internal/cart"
	"github.com/pankajkarki11/swoo-cart-sync/internal/clients"
	"github.com/pankajkarki11/swoo-cart-sync/internal/storage"
)

// RemoteCarts is the slice of the remote cart API the store drives. The
// backing resource accepts writes without durably persisting them, so the
// store only ever treats it as a best-effort mirror of local state.
type RemoteCarts interface {
	ListByUser(ctx context.Context, userID string) ([]clients.RemoteCart, error)
	Create(ctx context.Context, rc *clients.RemoteCart) (*clients.RemoteCart, error)
	Update(ctx context.Context, rc *clients.RemoteCart) (*clients.RemoteCart, error)
	Delete(ctx context.Context, id string) error
}

// Products resolves a productId into full catalog detail during hydration.
type Products interface {
	Get(ctx context.Context, productID string) (*clients.Product, error)
}

// Publisher emits cart change and sync events. Publish failures are logged
// and never surfaced to mutation callers.
type Publisher interface {
	PublishCartUpdated(ctx context.Context, snap Snapshot) error
	PublishCartSynced(ctx context.Context, snap Snapshot, syncErr error) error
}

type nopPublisher struct{}

func (nopPublisher) PublishCartUpdated(context.Context, Snapshot) error      { return nil }
func (nopPublisher) PublishCartSynced(context.Context, Snapshot, error) error { return nil }

// SyncState describes the remote mirror, not the cart itself. It is
// process-wide and never persisted (except the last successful sync time).
type SyncState struct {
	Syncing       bool       `json:"isSyncing"`
	LastSyncTime  *time.Time `json:"lastSyncTime"`
	LastSyncError string     `json:"lastSyncError,omitempty"`
}

// Snapshot is delivered to subscribers on every state transition and
// returned from every mutation.
type Snapshot struct {
	Cart    cart.Cart  `json:"cart"`
	Stats   cart.Stats `json:"stats"`
	Sync    SyncState  `json:"sync"`
	UserID  string     `json:"userId,omitempty"`
	Version uint64     `json:"version"`
}

// Options wires a Store's collaborators.
type Options struct {
	KV       storage.KV
	Carts    RemoteCarts
	Products Products

	// Publisher may be nil; events are then dropped.
	Publisher Publisher
	Logger    *zap.Logger

	// SyncTimeout bounds one background push to the remote mirror.
	SyncTimeout time.Duration
	// MinSyncWindow keeps the syncing flag raised at least this long so
	// transient UI feedback stays visible on fast networks.
	MinSyncWindow time.Duration
}

// Store owns the authoritative in-memory cart. Mutations apply synchronously
// against memory and the local durable store; pushing to the remote cart
// resource happens in the background and never blocks a mutation.
type Store struct {
	kv       storage.KV
	carts    RemoteCarts
	products Products
	pub      Publisher
	log      *zap.Logger

	syncTimeout   time.Duration
	minSyncWindow time.Duration

	mu        sync.Mutex
	items     cart.Cart
	userID    string
	remoteID  string
	version   uint64
	syncState SyncState
	subs      map[int]chan Snapshot
	nextSub   int
	closed    bool

	wg sync.WaitGroup
}

func New(opts Options) *Store {
	if opts.Publisher == nil {
		opts.Publisher = nopPublisher{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.SyncTimeout <= 0 {
		opts.SyncTimeout = 10 * time.Second
	}
	return &Store{
		kv:            opts.KV,
		carts:         opts.Carts,
		products:      opts.Products,
		pub:           opts.Publisher,
		log:           opts.Logger,
		syncTimeout:   opts.SyncTimeout,
		minSyncWindow: opts.MinSyncWindow,
		subs:          make(map[int]chan Snapshot),
	}
}

// Load initializes the store from the local durable store and, when a user
// session exists, merges in that user's most recent remote cart. A remote
// failure leaves the local cart fully usable; the error is recorded in
// SyncState and returned for logging.
func (s *Store) Load(ctx context.Context, userID string) (Snapshot, error) {
	local := s.loadLocal(ctx)
	lastSync := s.loadSyncTime(ctx)

	s.mu.Lock()
	s.userID = userID
	s.remoteID = ""
	s.items = cart.Dedupe(local)
	if lastSync != nil {
		s.syncState.LastSyncTime = lastSync
	}
	s.version++
	snap := s.snapshotLocked()
	s.notifyLocked(snap)
	s.mu.Unlock()

	if userID == "" {
		return snap, nil
	}

	rc, err := s.fetchRemote(ctx, userID)
	if err != nil {
		serr := &cart.SyncError{Op: "load", Err: err}
		s.mu.Lock()
		s.syncState.LastSyncError = serr.Error()
		snap = s.snapshotLocked()
		s.notifyLocked(snap)
		s.mu.Unlock()
		return snap, serr
	}
	if rc == nil {
		return snap, nil
	}

	hydrated := s.hydrate(ctx, rc)

	s.mu.Lock()
	s.items = cart.Merge(hydrated, s.items)
	s.remoteID = rc.ID
	if perr := s.persistLocked(ctx); perr != nil {
		// Keep the merged cart in memory; it will be persisted again by the
		// next mutation.
		s.log.Warn("persist merged cart", zap.Error(perr))
	}
	s.version++
	snap = s.snapshotLocked()
	s.notifyLocked(snap)
	s.mu.Unlock()

	return snap, nil
}

// AddItem puts quantity units of a product into the cart, accumulating onto
// an existing line instead of appending a duplicate. A quantity below one is
// a no-op success.
func (s *Store) AddItem(ctx context.Context, p cart.ProductInfo, quantity int) (Snapshot, error) {
	if p.ProductID == "" {
		return Snapshot{}, fmt.Errorf("%w: product has no productId", cart.ErrInvalidInput)
	}

	s.mu.Lock()
	if quantity < 1 {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, nil
	}
	now := time.Now().UTC()
	prev := s.items.Clone()
	if i := s.items.IndexOf(p.ProductID); i >= 0 {
		s.items[i].Quantity += quantity
		s.items[i].UpdatedAt = now
	} else {
		s.items = append(s.items, cart.NewLine(p, quantity, now))
	}
	snap, err := s.commitLocked(ctx, prev)
	s.mu.Unlock()
	if err != nil {
		return Snapshot{}, err
	}
	s.afterMutation(snap)
	return snap, nil
}

// RemoveItem drops the line for productID. Removing something that is not in
// the cart is a no-op success.
func (s *Store) RemoveItem(ctx context.Context, productID string) (Snapshot, error) {
	s.mu.Lock()
	i := s.items.IndexOf(productID)
	if i < 0 {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, nil
	}
	prev := s.items.Clone()
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	snap, err := s.commitLocked(ctx, prev)
	s.mu.Unlock()
	if err != nil {
		return Snapshot{}, err
	}
	s.afterMutation(snap)
	return snap, nil
}

// UpdateQuantity sets the quantity on an existing line. A quantity below one
// removes the line entirely; a zero-quantity line must never exist.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int) (Snapshot, error) {
	if quantity < 1 {
		return s.RemoveItem(ctx, productID)
	}

	s.mu.Lock()
	i := s.items.IndexOf(productID)
	if i < 0 {
		s.mu.Unlock()
		return Snapshot{}, fmt.Errorf("%w: %s", cart.ErrNotFound, productID)
	}
	prev := s.items.Clone()
	s.items[i].Quantity = quantity
	s.items[i].UpdatedAt = time.Now().UTC()
	snap, err := s.commitLocked(ctx, prev)
	s.mu.Unlock()
	if err != nil {
		return Snapshot{}, err
	}
	s.afterMutation(snap)
	return snap, nil
}

// ClearCart empties the cart, drops the local entry and deletes the remote
// mirror in the background.
func (s *Store) ClearCart(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	prev := s.items.Clone()
	s.items = cart.Cart{}
	if err := s.kv.Delete(ctx, storage.KeyCart); err != nil {
		s.items = prev
		s.mu.Unlock()
		return Snapshot{}, &cart.StorageError{Err: err}
	}
	s.version++
	snap := s.snapshotLocked()
	s.notifyLocked(snap)
	s.mu.Unlock()
	s.afterMutation(snap)
	return snap, nil
}

// ClearUser ends the session and flushes the cart locally. The remote mirror
// is left alone; the same account may be active elsewhere.
func (s *Store) ClearUser(ctx context.Context) Snapshot {
	s.mu.Lock()
	s.userID = ""
	s.remoteID = ""
	s.items = cart.Cart{}
	if err := s.kv.Delete(ctx, storage.KeyCart); err != nil {
		s.log.Warn("flush local cart on logout", zap.Error(err))
	}
	s.version++
	snap := s.snapshotLocked()
	s.notifyLocked(snap)
	s.mu.Unlock()
	return snap
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Stats returns the derived totals for the current cart.
func (s *Store) Stats() cart.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cart.ComputeStats(s.items)
}

// Subscribe registers a state listener. The channel is seeded with the
// current snapshot; the returned func unsubscribes and closes it.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan Snapshot, 8)
	s.subs[id] = ch
	ch <- s.snapshotLocked()
	return ch, func() { s.unsubscribe(id) }
}

func (s *Store) unsubscribe(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.subs[id]; ok {
		delete(s.subs, id)
		close(ch)
	}
}

// Close waits for in-flight background work and releases subscribers.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.wg.Wait()

	s.mu.Lock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.mu.Unlock()
}

// commitLocked persists the mutated cart, rolling back to prev when the
// local durable store rejects the write. Callers hold s.mu.
func (s *Store) commitLocked(ctx context.Context, prev cart.Cart) (Snapshot, error) {
	if err := s.persistLocked(ctx); err != nil {
		s.items = prev
		return Snapshot{}, &cart.StorageError{Err: err}
	}
	s.version++
	snap := s.snapshotLocked()
	s.notifyLocked(snap)
	return snap, nil
}

func (s *Store) persistLocked(ctx context.Context) error {
	b, err := json.Marshal(s.items)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, storage.KeyCart, string(b))
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Cart:    s.items.Clone(),
		Stats:   cart.ComputeStats(s.items),
		Sync:    s.syncState,
		UserID:  s.userID,
		Version: s.version,
	}
}

func (s *Store) notifyLocked(snap Snapshot) {
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			// Slow subscriber: drop its oldest pending snapshot so the
			// newest state still gets through.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

// loadLocal reads the persisted cart. Missing or corrupt entries degrade to
// an empty cart; a corrupt entry is cleared so the next load starts clean.
func (s *Store) loadLocal(ctx context.Context) cart.Cart {
	raw, err := s.kv.Get(ctx, storage.KeyCart)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		s.log.Warn("read local cart", zap.Error(err))
		return nil
	}
	var items cart.Cart
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.log.Warn("local cart entry is corrupt, clearing it", zap.Error(err))
		_ = s.kv.Delete(ctx, storage.KeyCart)
		return nil
	}
	return items
}

func (s *Store) loadSyncTime(ctx context.Context) *time.Time {
	raw, err := s.kv.Get(ctx, storage.KeySyncTime)
	if err != nil {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		_ = s.kv.Delete(ctx, storage.KeySyncTime)
		return nil
	}
	return &t
}
