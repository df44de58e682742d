package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/pankajkarki11/swoo-cart-sync/internal/cart"
	"github.com/pankajkarki11/swoo-cart-sync/internal/store"
)

// Handler is the presentation-facing HTTP surface over the cart store. It
// only reads snapshots and issues commands; the store owns all cart state.
type Handler struct {
	store    *store.Store
	validate *validator.Validate
	log      *zap.Logger
}

func NewHandler(s *store.Store, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{store: s, validate: validator.New(), log: log}
}

type addItemRequest struct {
	ProductID string      `json:"productId" validate:"required"`
	Title     string      `json:"title"`
	Price     float64     `json:"price" validate:"gte=0"`
	Image     string      `json:"image"`
	Category  string      `json:"category"`
	Rating    cart.Rating `json:"rating"`
	Quantity  int         `json:"quantity"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type sessionRequest struct {
	UserID string `json:"userId" validate:"required"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var body addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validate.Struct(body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	info := cart.ProductInfo{
		ProductID: body.ProductID,
		Title:     body.Title,
		Price:     cart.Price(body.Price),
		Image:     body.Image,
		Category:  body.Category,
		Rating:    body.Rating,
	}
	snap, err := h.store.AddItem(r.Context(), info, body.Quantity)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	if productID == "" {
		writeError(w, http.StatusBadRequest, "missing productId")
		return
	}

	var body updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	snap, err := h.store.UpdateQuantity(r.Context(), productID, body.Quantity)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	if productID == "" {
		writeError(w, http.StatusBadRequest, "missing productId")
		return
	}

	snap, err := h.store.RemoveItem(r.Context(), productID)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	snap, err := h.store.ClearCart(r.Context())
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Stats())
}

// Sync forces a push to the remote cart resource and waits for it, so the
// caller sees the outcome directly instead of through SyncState.
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	if err := h.store.SyncNow(r.Context()); err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	carts, err := h.store.History(r.Context())
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, carts)
}

// Login associates a user with the session and reloads the cart, merging in
// the user's most recent remote cart. A degraded remote load still returns
// the usable local cart.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validate.Struct(body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap, err := h.store.Load(r.Context(), body.UserID)
	if err != nil {
		h.log.Warn("remote cart load degraded to local state",
			zap.String("userId", body.UserID), zap.Error(err))
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.ClearUser(r.Context()))
}

func (h *Handler) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cart.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, cart.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, cart.ErrNoSession):
		writeError(w, http.StatusUnauthorized, "no user session")
	default:
		var storageErr *cart.StorageError
		if errors.As(err, &storageErr) {
			writeError(w, http.StatusInternalServerError, "failed to persist cart")
			return
		}
		var syncErr *cart.SyncError
		if errors.As(err, &syncErr) {
			writeError(w, http.StatusBadGateway, "remote sync failed: "+syncErr.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{
		"error": msg,
	})
}
