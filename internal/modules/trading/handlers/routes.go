package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all trading routes (authenticated)
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/buy-fund", h.HandleBuy)
	r.Post("/sell-fund", h.HandleSell)
	r.Get("/order-status/{orderId}", h.HandleOrderStatus)
	r.Get("/order-history", h.HandleOrderHistory)
}
