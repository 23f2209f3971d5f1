package trading

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fundfolio/fundfolio/internal/domain"
)

// ordersColumns is the list of columns for the orders table.
// Used to avoid SELECT * which can break when schema changes.
// Column order must match the scan functions below.
const ordersColumns = `order_id, user_id, fund_name, side, amount, units, nav, status, created_at`

// OrderRepository handles order database operations. The orders table is
// append-only: rows are inserted once and never updated.
type OrderRepository struct {
	ledgerDB *sql.DB
	log      zerolog.Logger
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(ledgerDB *sql.DB, log zerolog.Logger) *OrderRepository {
	return &OrderRepository{
		ledgerDB: ledgerDB,
		log:      log.With().Str("repo", "order").Logger(),
	}
}

// CreateTx inserts a new order record within an existing transaction.
// The UNIQUE index on order_id is the uniqueness backstop: a collision
// surfaces as a constraint error and rolls the trade back.
func (r *OrderRepository) CreateTx(tx *sql.Tx, order *domain.Order) error {
	if err := order.Validate(); err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	query := `
		INSERT INTO orders
		(order_id, user_id, fund_name, side, amount, units, nav, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := tx.Exec(query,
		order.OrderID,
		order.UserID,
		strings.TrimSpace(order.FundName),
		string(order.Side),
		order.Amount.String(),
		order.Units.String(),
		order.NAV.String(),
		string(order.Status),
		order.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.log.Info().
		Str("order_id", order.OrderID).
		Str("fund", order.FundName).
		Str("side", string(order.Side)).
		Str("units", order.Units.String()).
		Msg("Order created")

	return nil
}

// GetByOrderID retrieves an order by its order id.
// Returns domain.ErrOrderNotFound when no such order exists.
func (r *OrderRepository) GetByOrderID(orderID string) (*domain.Order, error) {
	query := "SELECT " + ordersColumns + " FROM orders WHERE order_id = ?"

	row := r.ledgerDB.QueryRow(query, orderID)
	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order by order_id: %w", err)
	}

	return order, nil
}

// Exists checks if an order with the given order id already exists
func (r *OrderRepository) Exists(orderID string) (bool, error) {
	var exists int
	err := r.ledgerDB.QueryRow("SELECT 1 FROM orders WHERE order_id = ? LIMIT 1", orderID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check order existence: %w", err)
	}
	return true, nil
}

// GetHistoryForUser retrieves a user's orders, most recent first
func (r *OrderRepository) GetHistoryForUser(userID string, limit int) ([]domain.Order, error) {
	query := `
		SELECT ` + ordersColumns + ` FROM orders
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	rows, err := r.ledgerDB.Query(query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get order history: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrderFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for the scan helpers
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		order                 domain.Order
		amount, units, nav    string
		side, status          string
		createdAt             int64
	)

	err := row.Scan(
		&order.OrderID,
		&order.UserID,
		&order.FundName,
		&side,
		&amount,
		&units,
		&nav,
		&status,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	order.Side = domain.OrderSide(side)
	order.Status = domain.OrderStatus(status)
	order.CreatedAt = time.Unix(createdAt, 0).UTC()

	if order.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("invalid amount %q in orders table: %w", amount, err)
	}
	if order.Units, err = decimal.NewFromString(units); err != nil {
		return nil, fmt.Errorf("invalid units %q in orders table: %w", units, err)
	}
	if order.NAV, err = decimal.NewFromString(nav); err != nil {
		return nil, fmt.Errorf("invalid nav %q in orders table: %w", nav, err)
	}

	return &order, nil
}

func scanOrderFromRows(rows *sql.Rows) (*domain.Order, error) {
	return scanOrder(rows)
}
