package portfolio

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/fundfolio/fundfolio/internal/domain"
	"github.com/fundfolio/fundfolio/internal/modules/pricing"
)

// PortfolioService provides read-side portfolio projections and the
// periodic revaluation of held positions.
type PortfolioService struct {
	positions *PositionRepository
	oracle    pricing.Oracle
	log       zerolog.Logger
}

// NewPortfolioService creates a new portfolio service
func NewPortfolioService(positions *PositionRepository, oracle pricing.Oracle, log zerolog.Logger) *PortfolioService {
	return &PortfolioService{
		positions: positions,
		oracle:    oracle,
		log:       log.With().Str("service", "portfolio").Logger(),
	}
}

// GetPortfolio returns all positions for a user, zero-unit rows included.
// Read-only: calling it twice without intervening trades yields identical
// results.
func (s *PortfolioService) GetPortfolio(userID string) ([]domain.Position, error) {
	positions, err := s.positions.GetAllForUser(userID)
	if err != nil {
		return nil, domain.NewStorageError("portfolio.get", err)
	}

	// Always return a slice, never nil - an empty portfolio is a valid portfolio
	if positions == nil {
		positions = []domain.Position{}
	}

	return positions, nil
}

// RevalueAll recomputes current_value for every position at the latest NAV.
// Trades concurrently rewriting a position win: the engine's transactional
// upsert always carries a fresher valuation than this sweep.
func (s *PortfolioService) RevalueAll(ctx context.Context) error {
	positions, err := s.positions.GetAll()
	if err != nil {
		return fmt.Errorf("failed to load positions for revaluation: %w", err)
	}

	var failed int
	for i := range positions {
		pos := &positions[i]

		nav, err := s.oracle.GetNAV(ctx, pos.FundName)
		if err != nil {
			s.log.Warn().Err(err).Str("fund", pos.FundName).Msg("Skipping revaluation, NAV unavailable")
			failed++
			continue
		}

		pos.Revalue(nav, time.Now().UTC())
		if err := s.positions.UpdateValue(pos.UserID, pos.FundName, pos.CurrentValue, pos.UpdatedAt); err != nil {
			s.log.Warn().Err(err).
				Str("user_id", pos.UserID).
				Str("fund", pos.FundName).
				Msg("Failed to persist revaluation")
			failed++
		}
	}

	s.log.Info().
		Int("positions", len(positions)).
		Int("failed", failed).
		Msg("Revaluation sweep complete")

	if failed > 0 {
		return fmt.Errorf("revaluation failed for %d of %d positions", failed, len(positions))
	}
	return nil
}
