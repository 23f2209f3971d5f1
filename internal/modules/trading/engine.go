// Package trading implements order execution: turning a buy or sell intent
// into an immutable order record plus a consistently updated position.
package trading

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fundfolio/fundfolio/internal/database"
	"github.com/fundfolio/fundfolio/internal/domain"
	"github.com/fundfolio/fundfolio/internal/modules/portfolio"
	"github.com/fundfolio/fundfolio/internal/modules/pricing"
)

// BuyResult is returned on a successful buy
type BuyResult struct {
	OrderID string
	Units   decimal.Decimal
	NAV     decimal.Decimal
}

// SellResult is returned on a successful sell
type SellResult struct {
	OrderID string
	Amount  decimal.Decimal
	NAV     decimal.Decimal
}

// Engine executes trades. It is the only writer of the orders and positions
// tables; queries elsewhere are read-only.
//
// Concurrency contract: all operations for one (user, fund) pair serialize
// on a keyed mutex, so the sufficiency check and the position write are
// observed atomically. The order insert and position upsert additionally
// share one SQLite transaction, so a persistence failure mid-trade leaves
// no partial state behind. Different (user, fund) pairs proceed in parallel.
type Engine struct {
	ledgerDB  *database.DB
	orders    *OrderRepository
	positions *portfolio.PositionRepository
	oracle    pricing.Oracle
	locks     keyedMutex
	log       zerolog.Logger
}

// NewEngine creates a new execution engine
func NewEngine(
	ledgerDB *database.DB,
	orders *OrderRepository,
	positions *portfolio.PositionRepository,
	oracle pricing.Oracle,
	log zerolog.Logger,
) *Engine {
	return &Engine{
		ledgerDB:  ledgerDB,
		orders:    orders,
		positions: positions,
		oracle:    oracle,
		log:       log.With().Str("service", "engine").Logger(),
	}
}

// Buy executes a buy: amount of money converted to units at the current NAV.
// The NAV is sampled exactly once and used for both the order record and the
// position update.
func (e *Engine) Buy(ctx context.Context, userID, fundName string, amount decimal.Decimal) (*BuyResult, error) {
	fundName = strings.TrimSpace(fundName)
	if fundName == "" {
		return nil, domain.NewValidationError("fundName", "must not be empty")
	}
	if !amount.IsPositive() {
		return nil, domain.NewValidationError("amount", "must be positive")
	}

	unlock := e.locks.lock(positionKey(userID, fundName))
	defer unlock()

	nav, err := e.oracle.GetNAV(ctx, fundName)
	if err != nil {
		return nil, fmt.Errorf("failed to get NAV for %s: %w", fundName, err)
	}

	units := amount.DivRound(nav, domain.UnitsPrecision)
	if !units.IsPositive() {
		return nil, domain.NewValidationError("amount", "too small to buy any units at current NAV")
	}

	now := time.Now().UTC()
	order := &domain.Order{
		OrderID:   newOrderID(),
		UserID:    userID,
		FundName:  fundName,
		Side:      domain.SideBuy,
		Amount:    amount,
		Units:     units,
		NAV:       nav,
		Status:    domain.StatusCompleted,
		CreatedAt: now,
	}

	err = database.WithTransaction(e.ledgerDB.Conn(), func(tx *sql.Tx) error {
		if err := e.orders.CreateTx(tx, order); err != nil {
			return err
		}

		pos, err := e.positions.GetTx(tx, userID, fundName)
		if errors.Is(err, domain.ErrPositionNotFound) {
			pos = domain.NewPosition(userID, fundName)
		} else if err != nil {
			return err
		}

		pos.ApplyBuy(units, amount, nav, now)
		return e.positions.UpsertTx(tx, pos)
	})
	if err != nil {
		return nil, domain.NewStorageError("trade.buy", err)
	}

	e.log.Info().
		Str("user_id", userID).
		Str("fund", fundName).
		Str("amount", amount.String()).
		Str("units", units.String()).
		Str("order_id", order.OrderID).
		Msg("Buy executed")

	return &BuyResult{OrderID: order.OrderID, Units: units, NAV: nav}, nil
}

// Sell executes a sell: units converted to money at the current NAV.
// A sell beyond the current holding fails with ErrInsufficientHoldings and
// performs no writes - no order row, no position change.
func (e *Engine) Sell(ctx context.Context, userID, fundName string, units decimal.Decimal) (*SellResult, error) {
	fundName = strings.TrimSpace(fundName)
	if fundName == "" {
		return nil, domain.NewValidationError("fundName", "must not be empty")
	}
	if !units.IsPositive() {
		return nil, domain.NewValidationError("units", "must be positive")
	}

	unlock := e.locks.lock(positionKey(userID, fundName))
	defer unlock()

	// Sufficiency check before touching the oracle. The keyed mutex makes
	// this check-then-act sequence sound; the in-transaction ApplySell below
	// re-checks as a backstop.
	pos, err := e.positions.Get(userID, fundName)
	if errors.Is(err, domain.ErrPositionNotFound) {
		return nil, domain.ErrInsufficientHoldings
	}
	if err != nil {
		return nil, domain.NewStorageError("trade.sell", err)
	}
	if pos.TotalUnits.LessThan(units) {
		return nil, domain.ErrInsufficientHoldings
	}

	nav, err := e.oracle.GetNAV(ctx, fundName)
	if err != nil {
		return nil, fmt.Errorf("failed to get NAV for %s: %w", fundName, err)
	}

	amount := units.Mul(nav).Round(domain.MoneyPrecision)
	now := time.Now().UTC()
	order := &domain.Order{
		OrderID:   newOrderID(),
		UserID:    userID,
		FundName:  fundName,
		Side:      domain.SideSell,
		Amount:    amount,
		Units:     units,
		NAV:       nav,
		Status:    domain.StatusCompleted,
		CreatedAt: now,
	}

	err = database.WithTransaction(e.ledgerDB.Conn(), func(tx *sql.Tx) error {
		if err := e.orders.CreateTx(tx, order); err != nil {
			return err
		}

		pos, err := e.positions.GetTx(tx, userID, fundName)
		if err != nil {
			return err
		}

		if err := pos.ApplySell(units, nav, now); err != nil {
			return err
		}
		return e.positions.UpsertTx(tx, pos)
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientHoldings) {
			return nil, domain.ErrInsufficientHoldings
		}
		return nil, domain.NewStorageError("trade.sell", err)
	}

	e.log.Info().
		Str("user_id", userID).
		Str("fund", fundName).
		Str("units", units.String()).
		Str("amount", amount.String()).
		Str("order_id", order.OrderID).
		Msg("Sell executed")

	return &SellResult{OrderID: order.OrderID, Amount: amount, NAV: nav}, nil
}

// newOrderID generates a globally unique order id.
// The ORD prefix is kept for API compatibility with existing consumers.
func newOrderID() string {
	return "ORD" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
}

// positionKey is the serialization key for one (user, fund) position
func positionKey(userID, fundName string) string {
	return userID + "\x00" + fundName
}

// keyedMutex serializes operations per key. Entries are never removed: the
// key space is bounded by (users x funds) actually traded, which is small.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// lock acquires the mutex for key, creating it on first use.
// Returns the unlock function.
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
