package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all payment routes (authenticated)
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/create-payment-order", h.HandleCreateOrder)
	r.Post("/verify-payment", h.HandleVerifyPayment)
}
