// Package handlers provides HTTP handlers for trade execution and order
// status lookup.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fundfolio/fundfolio/internal/domain"
	"github.com/fundfolio/fundfolio/internal/modules/auth"
	"github.com/fundfolio/fundfolio/internal/modules/trading"
)

// Handler handles trading HTTP requests
type Handler struct {
	engine *trading.Engine
	orders *trading.OrderRepository
	log    zerolog.Logger
}

// NewHandler creates a new trading handler
func NewHandler(engine *trading.Engine, orders *trading.OrderRepository, log zerolog.Logger) *Handler {
	return &Handler{
		engine: engine,
		orders: orders,
		log:    log.With().Str("handler", "trading").Logger(),
	}
}

type buyRequest struct {
	FundName string          `json:"fundName"`
	Amount   decimal.Decimal `json:"amount"`
}

type sellRequest struct {
	FundName string          `json:"fundName"`
	Units    decimal.Decimal `json:"units"`
}

// HandleBuy executes a buy order for the authenticated user
func (h *Handler) HandleBuy(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req buyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.engine.Buy(r.Context(), userID, req.FundName, req.Amount)
	if err != nil {
		h.writeTradeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"orderId": result.OrderID,
		"units":   jsonNumber(result.Units),
		"nav":     jsonNumber(result.NAV),
	})
}

// HandleSell executes a sell order for the authenticated user
func (h *Handler) HandleSell(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req sellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.engine.Sell(r.Context(), userID, req.FundName, req.Units)
	if err != nil {
		h.writeTradeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"orderId": result.OrderID,
		"amount":  jsonNumber(result.Amount),
		"nav":     jsonNumber(result.NAV),
	})
}

// HandleOrderStatus looks up one order by order id
func (h *Handler) HandleOrderStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	orderID := chi.URLParam(r, "orderId")
	order, err := h.orders.GetByOrderID(orderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			h.writeError(w, http.StatusNotFound, "Order not found")
			return
		}
		h.log.Error().Err(err).Str("order_id", orderID).Msg("Order lookup failed")
		h.writeError(w, http.StatusInternalServerError, "Order lookup failed")
		return
	}

	// Orders are scoped to their owner
	if order.UserID != userID {
		h.writeError(w, http.StatusNotFound, "Order not found")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"order":   orderToResponse(order),
	})
}

// HandleOrderHistory lists the authenticated user's recent orders
func (h *Handler) HandleOrderHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	orders, err := h.orders.GetHistoryForUser(userID, 50)
	if err != nil {
		h.log.Error().Err(err).Msg("Order history lookup failed")
		h.writeError(w, http.StatusInternalServerError, "Order history lookup failed")
		return
	}

	result := make([]map[string]interface{}, 0, len(orders))
	for i := range orders {
		result = append(result, orderToResponse(&orders[i]))
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"orders":  result,
	})
}

// writeTradeError maps engine errors to HTTP responses
func (h *Handler) writeTradeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInsufficientHoldings):
		h.writeError(w, http.StatusBadRequest, "Insufficient units")
	case domain.IsValidationError(err):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error().Err(err).Msg("Trade execution failed")
		h.writeError(w, http.StatusInternalServerError, "Trade execution failed")
	}
}

// orderToResponse converts an order to its API shape with numeric money fields
func orderToResponse(order *domain.Order) map[string]interface{} {
	return map[string]interface{}{
		"orderId":   order.OrderID,
		"userId":    order.UserID,
		"fundName":  order.FundName,
		"side":      string(order.Side),
		"amount":    jsonNumber(order.Amount),
		"units":     jsonNumber(order.Units),
		"nav":       jsonNumber(order.NAV),
		"status":    string(order.Status),
		"createdAt": order.CreatedAt,
	}
}

// jsonNumber renders a decimal as a bare JSON number, matching the API the
// consumers already parse
func jsonNumber(d decimal.Decimal) json.Number {
	return json.Number(d.String())
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
