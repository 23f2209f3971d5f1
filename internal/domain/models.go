// Package domain contains the core data model: orders, positions and users.
// The domain layer is pure - no storage or transport dependencies.
package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderSide is the direction of a trade
type OrderSide string

const (
	SideBuy  OrderSide = "BUY"
	SideSell OrderSide = "SELL"
)

// OrderStatus is the lifecycle state of an order. Orders resolve
// synchronously: a successful trade is written COMPLETED, a failed attempt
// is never written at all. PENDING exists for forward compatibility with
// asynchronous settlement.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusCompleted OrderStatus = "COMPLETED"
	StatusFailed    OrderStatus = "FAILED"
)

// Precision used when converting between amounts and units.
// Money is held to 2 decimal places, fund units to 4.
const (
	MoneyPrecision = 2
	UnitsPrecision = 4
)

// Order is an immutable record of one executed trade.
// The NAV is captured at execution time and never recomputed.
type Order struct {
	OrderID   string          `json:"orderId"`
	UserID    string          `json:"userId"`
	FundName  string          `json:"fundName"`
	Side      OrderSide       `json:"side"`
	Amount    decimal.Decimal `json:"amount"`
	Units     decimal.Decimal `json:"units"`
	NAV       decimal.Decimal `json:"nav"`
	Status    OrderStatus     `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Validate checks order fields before persistence
func (o *Order) Validate() error {
	if strings.TrimSpace(o.OrderID) == "" {
		return NewValidationError("orderId", "must not be empty")
	}
	if strings.TrimSpace(o.UserID) == "" {
		return NewValidationError("userId", "must not be empty")
	}
	if strings.TrimSpace(o.FundName) == "" {
		return NewValidationError("fundName", "must not be empty")
	}
	if o.Side != SideBuy && o.Side != SideSell {
		return NewValidationError("side", "must be BUY or SELL")
	}
	if o.Status != StatusPending && o.Status != StatusCompleted && o.Status != StatusFailed {
		return NewValidationError("status", "unknown status")
	}
	if !o.Amount.IsPositive() {
		return NewValidationError("amount", "must be positive")
	}
	if !o.Units.IsPositive() {
		return NewValidationError("units", "must be positive")
	}
	if !o.NAV.IsPositive() {
		return NewValidationError("nav", "must be positive")
	}
	return nil
}

// Position is the mutable aggregate holding of one fund for one user.
// TotalInvested is cumulative lifetime buy-side money: it is NOT reduced on
// sells, so it is not a current cost basis. Downstream consumers depend on
// the cumulative reading; do not "fix" this without a product decision.
type Position struct {
	UserID        string          `json:"userId"`
	FundName      string          `json:"fundName"`
	TotalUnits    decimal.Decimal `json:"totalUnits"`
	TotalInvested decimal.Decimal `json:"totalInvested"`
	CurrentValue  decimal.Decimal `json:"currentValue"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// NewPosition creates an empty position for a (user, fund) pair
func NewPosition(userID, fundName string) *Position {
	return &Position{
		UserID:        userID,
		FundName:      fundName,
		TotalUnits:    decimal.Zero,
		TotalInvested: decimal.Zero,
		CurrentValue:  decimal.Zero,
	}
}

// ApplyBuy folds a buy trade into the position and revalues it at nav
func (p *Position) ApplyBuy(units, amount, nav decimal.Decimal, now time.Time) {
	p.TotalUnits = p.TotalUnits.Add(units)
	p.TotalInvested = p.TotalInvested.Add(amount)
	p.CurrentValue = p.TotalUnits.Mul(nav).Round(MoneyPrecision)
	p.UpdatedAt = now
}

// ApplySell folds a sell trade into the position and revalues it at nav.
// Returns ErrInsufficientHoldings without mutating anything when the
// position holds fewer units than requested.
func (p *Position) ApplySell(units, nav decimal.Decimal, now time.Time) error {
	if p.TotalUnits.LessThan(units) {
		return ErrInsufficientHoldings
	}
	p.TotalUnits = p.TotalUnits.Sub(units)
	p.CurrentValue = p.TotalUnits.Mul(nav).Round(MoneyPrecision)
	p.UpdatedAt = now
	return nil
}

// Revalue recomputes CurrentValue at nav without touching units or invested
func (p *Position) Revalue(nav decimal.Decimal, now time.Time) {
	p.CurrentValue = p.TotalUnits.Mul(nav).Round(MoneyPrecision)
	p.UpdatedAt = now
}

// User is an account identity. The trading core only ever sees the ID.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Validate checks user fields before persistence
func (u *User) Validate() error {
	if strings.TrimSpace(u.ID) == "" {
		return NewValidationError("id", "must not be empty")
	}
	if strings.TrimSpace(u.Email) == "" {
		return NewValidationError("email", "must not be empty")
	}
	if !strings.Contains(u.Email, "@") {
		return NewValidationError("email", "must be an email address")
	}
	if u.PasswordHash == "" {
		return NewValidationError("password", "must not be empty")
	}
	return nil
}
