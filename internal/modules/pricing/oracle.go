// Package pricing provides NAV lookup for funds.
//
// The execution engine depends only on the Oracle interface: a positive NAV
// for any fund name, sampled exactly once per trade. Nothing guarantees two
// calls return the same value, so callers must never re-fetch mid-operation.
package pricing

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Oracle returns the current NAV for a fund
type Oracle interface {
	GetNAV(ctx context.Context, fundName string) (decimal.Decimal, error)
}

// FixedOracle returns the same NAV for every fund. This is the default
// oracle: the system trades against a mock price, not a live feed.
type FixedOracle struct {
	nav decimal.Decimal
	log zerolog.Logger
}

// NewFixedOracle creates an oracle pinned to nav
func NewFixedOracle(nav decimal.Decimal, log zerolog.Logger) (*FixedOracle, error) {
	if !nav.IsPositive() {
		return nil, fmt.Errorf("fixed NAV must be positive, got %s", nav)
	}
	return &FixedOracle{
		nav: nav,
		log: log.With().Str("oracle", "fixed").Logger(),
	}, nil
}

// GetNAV returns the configured NAV regardless of fund name
func (o *FixedOracle) GetNAV(_ context.Context, fundName string) (decimal.Decimal, error) {
	o.log.Debug().Str("fund", fundName).Str("nav", o.nav.String()).Msg("NAV lookup")
	return o.nav, nil
}
