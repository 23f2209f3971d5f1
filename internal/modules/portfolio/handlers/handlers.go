// Package handlers provides HTTP handlers for the portfolio view.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fundfolio/fundfolio/internal/modules/auth"
	"github.com/fundfolio/fundfolio/internal/modules/portfolio"
)

// Handler handles portfolio HTTP requests
type Handler struct {
	service *portfolio.PortfolioService
	log     zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(service *portfolio.PortfolioService, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "portfolio").Logger(),
	}
}

// HandleGetPortfolio returns all positions for the authenticated user,
// zero-unit rows included
func (h *Handler) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	positions, err := h.service.GetPortfolio(userID)
	if err != nil {
		h.log.Error().Err(err).Msg("Portfolio lookup failed")
		h.writeError(w, http.StatusInternalServerError, "Portfolio lookup failed")
		return
	}

	result := make([]map[string]interface{}, 0, len(positions))
	for _, pos := range positions {
		result = append(result, map[string]interface{}{
			"fundName":      pos.FundName,
			"totalUnits":    jsonNumber(pos.TotalUnits),
			"totalInvested": jsonNumber(pos.TotalInvested),
			"currentValue":  jsonNumber(pos.CurrentValue),
			"updatedAt":     pos.UpdatedAt,
		})
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"portfolio": result,
	})
}

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
