// Package portfolio manages per-user fund positions.
package portfolio

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fundfolio/fundfolio/internal/domain"
)

// positionsColumns is the list of columns for the positions table.
// Column order must match scanPosition().
const positionsColumns = `user_id, fund_name, total_units, total_invested, current_value, updated_at`

// PositionRepository handles position database operations.
// The execution engine is the only writer; everything else reads.
type PositionRepository struct {
	ledgerDB *sql.DB
	log      zerolog.Logger
}

// NewPositionRepository creates a new position repository
func NewPositionRepository(ledgerDB *sql.DB, log zerolog.Logger) *PositionRepository {
	return &PositionRepository{
		ledgerDB: ledgerDB,
		log:      log.With().Str("repo", "position").Logger(),
	}
}

// Get retrieves the position for a (user, fund) pair.
// Returns domain.ErrPositionNotFound when the user never bought the fund.
func (r *PositionRepository) Get(userID, fundName string) (*domain.Position, error) {
	query := "SELECT " + positionsColumns + " FROM positions WHERE user_id = ? AND fund_name = ?"

	row := r.ledgerDB.QueryRow(query, userID, fundName)
	pos, err := scanPosition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPositionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get position: %w", err)
	}

	return pos, nil
}

// GetTx retrieves a position within an existing transaction.
// Returns domain.ErrPositionNotFound when absent.
func (r *PositionRepository) GetTx(tx *sql.Tx, userID, fundName string) (*domain.Position, error) {
	query := "SELECT " + positionsColumns + " FROM positions WHERE user_id = ? AND fund_name = ?"

	row := tx.QueryRow(query, userID, fundName)
	pos, err := scanPosition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPositionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get position: %w", err)
	}

	return pos, nil
}

// UpsertTx writes a position within an existing transaction, inserting the
// row on the first buy for a (user, fund) pair and replacing the aggregate
// afterwards. Zero-unit positions are kept, never deleted.
func (r *PositionRepository) UpsertTx(tx *sql.Tx, pos *domain.Position) error {
	if pos.TotalUnits.IsNegative() {
		return fmt.Errorf("refusing to persist negative holding for %s/%s", pos.UserID, pos.FundName)
	}

	query := `
		INSERT INTO positions (user_id, fund_name, total_units, total_invested, current_value, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, fund_name) DO UPDATE SET
			total_units = excluded.total_units,
			total_invested = excluded.total_invested,
			current_value = excluded.current_value,
			updated_at = excluded.updated_at
	`

	_, err := tx.Exec(query,
		pos.UserID,
		pos.FundName,
		pos.TotalUnits.String(),
		pos.TotalInvested.String(),
		pos.CurrentValue.String(),
		pos.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert position: %w", err)
	}

	return nil
}

// GetAllForUser retrieves every position a user holds, zero-unit rows
// included. Order is not significant.
func (r *PositionRepository) GetAllForUser(userID string) ([]domain.Position, error) {
	query := "SELECT " + positionsColumns + " FROM positions WHERE user_id = ?"

	rows, err := r.ledgerDB.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get positions: %w", err)
	}
	defer rows.Close()

	return collectPositions(rows)
}

// GetAll retrieves every position in the system. Used by the revaluation job.
func (r *PositionRepository) GetAll() ([]domain.Position, error) {
	query := "SELECT " + positionsColumns + " FROM positions"

	rows, err := r.ledgerDB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get positions: %w", err)
	}
	defer rows.Close()

	return collectPositions(rows)
}

// UpdateValue rewrites current_value and updated_at for one position.
// Only the revaluation job uses this; trades always go through UpsertTx
// inside the engine's transaction.
func (r *PositionRepository) UpdateValue(userID, fundName string, currentValue decimal.Decimal, updatedAt time.Time) error {
	query := `UPDATE positions SET current_value = ?, updated_at = ? WHERE user_id = ? AND fund_name = ?`

	res, err := r.ledgerDB.Exec(query, currentValue.String(), updatedAt.Unix(), userID, fundName)
	if err != nil {
		return fmt.Errorf("failed to update position value: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check position update: %w", err)
	}
	if affected == 0 {
		return domain.ErrPositionNotFound
	}

	return nil
}

func collectPositions(rows *sql.Rows) ([]domain.Position, error) {
	var positions []domain.Position
	for rows.Next() {
		pos, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, *pos)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}

	return positions, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPosition(row rowScanner) (*domain.Position, error) {
	var (
		pos                                     domain.Position
		totalUnits, totalInvested, currentValue string
		updatedAt                               int64
	)

	err := row.Scan(
		&pos.UserID,
		&pos.FundName,
		&totalUnits,
		&totalInvested,
		&currentValue,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	pos.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	if pos.TotalUnits, err = decimal.NewFromString(totalUnits); err != nil {
		return nil, fmt.Errorf("invalid total_units %q in positions table: %w", totalUnits, err)
	}
	if pos.TotalInvested, err = decimal.NewFromString(totalInvested); err != nil {
		return nil, fmt.Errorf("invalid total_invested %q in positions table: %w", totalInvested, err)
	}
	if pos.CurrentValue, err = decimal.NewFromString(currentValue); err != nil {
		return nil, fmt.Errorf("invalid current_value %q in positions table: %w", currentValue, err)
	}

	return &pos, nil
}
