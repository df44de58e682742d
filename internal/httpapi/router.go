package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Delete("/", h.ClearCart)
			r.Post("/items", h.AddItem)
			r.Put("/items/{productId}", h.UpdateQuantity)
			r.Delete("/items/{productId}", h.RemoveItem)
			r.Post("/sync", h.Sync)
			r.Get("/stats", h.Stats)
			r.Get("/history", h.History)
			r.Get("/events", h.Events)
		})
		r.Post("/session", h.Login)
		r.Delete("/session", h.Logout)
	})

	return r
}
