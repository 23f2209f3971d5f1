// Package handlers provides HTTP handlers for the payment gateway boundary.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fundfolio/fundfolio/internal/domain"
	"github.com/fundfolio/fundfolio/internal/modules/payments"
)

// Handler handles payment HTTP requests
type Handler struct {
	service *payments.Service
	log     zerolog.Logger
}

// NewHandler creates a new payments handler
func NewHandler(service *payments.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "payments").Logger(),
	}
}

type createOrderRequest struct {
	Amount  decimal.Decimal `json:"amount"`
	Receipt string          `json:"receipt"`
}

type verifyPaymentRequest struct {
	OrderID   string `json:"razorpayOrderId"`
	PaymentID string `json:"razorpayPaymentId"`
	Signature string `json:"razorpaySignature"`
}

// HandleCreateOrder creates a payment gateway order
func (h *Handler) HandleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.service.CreateOrder(req.Amount, req.Receipt)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrGatewayDisabled):
			h.writeError(w, http.StatusServiceUnavailable, "Payment gateway not configured")
		case domain.IsValidationError(err):
			h.writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.log.Error().Err(err).Msg("Gateway order creation failed")
			h.writeError(w, http.StatusBadGateway, "Payment gateway error")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"order":   order,
	})
}

// HandleVerifyPayment verifies a payment signature from the gateway
func (h *Handler) HandleVerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req verifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.VerifyPayment(req.OrderID, req.PaymentID, req.Signature); err != nil {
		switch {
		case errors.Is(err, domain.ErrGatewayDisabled):
			h.writeError(w, http.StatusServiceUnavailable, "Payment gateway not configured")
		case domain.IsValidationError(err):
			h.writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.writeError(w, http.StatusBadRequest, "Payment verification failed")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Payment verified",
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]interface{}{
		"success": false,
		"message": message,
	})
}
