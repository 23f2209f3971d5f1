package trading

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundfolio/fundfolio/internal/domain"
)

// newOrdersDB creates an in-memory SQLite database with the orders table
func newOrdersDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
		CREATE TABLE orders (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			order_id   TEXT NOT NULL UNIQUE,
			user_id    TEXT NOT NULL,
			fund_name  TEXT NOT NULL,
			side       TEXT NOT NULL CHECK(side IN ('BUY', 'SELL')),
			amount     TEXT NOT NULL,
			units      TEXT NOT NULL,
			nav        TEXT NOT NULL,
			status     TEXT NOT NULL DEFAULT 'PENDING',
			created_at INTEGER NOT NULL
		)
	`)
	require.NoError(t, err)

	return db
}

func testOrder(orderID string) *domain.Order {
	return &domain.Order{
		OrderID:   orderID,
		UserID:    "user-1",
		FundName:  "Bluechip Growth",
		Side:      domain.SideBuy,
		Amount:    d("1000"),
		Units:     d("21.8984"),
		NAV:       d("45.67"),
		Status:    domain.StatusCompleted,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func createOrder(t *testing.T, db *sql.DB, repo *OrderRepository, order *domain.Order) {
	t.Helper()
	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, repo.CreateTx(tx, order))
	require.NoError(t, tx.Commit())
}

func TestOrderCreateAndGet(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	db := newOrdersDB(t)
	repo := NewOrderRepository(db, log)

	order := testOrder("ORDTEST1")
	createOrder(t, db, repo, order)

	got, err := repo.GetByOrderID("ORDTEST1")
	require.NoError(t, err)
	assert.Equal(t, order.OrderID, got.OrderID)
	assert.Equal(t, order.UserID, got.UserID)
	assert.Equal(t, order.FundName, got.FundName)
	assert.Equal(t, order.Side, got.Side)
	assert.Equal(t, order.Status, got.Status)
	assert.True(t, got.Amount.Equal(order.Amount))
	assert.True(t, got.Units.Equal(order.Units))
	assert.True(t, got.NAV.Equal(order.NAV))
	assert.Equal(t, order.CreatedAt.Unix(), got.CreatedAt.Unix())
}

func TestOrderGet_Missing(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	repo := NewOrderRepository(newOrdersDB(t), log)

	_, err := repo.GetByOrderID("ORDNOPE")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestOrderCreate_RejectsInvalid(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	db := newOrdersDB(t)
	repo := NewOrderRepository(db, log)

	order := testOrder("ORDBAD")
	order.Amount = d("-1")

	tx, err := db.Begin()
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	err = repo.CreateTx(tx, order)
	assert.Error(t, err)
	assert.True(t, domain.IsValidationError(err))
}

func TestOrderCreate_DuplicateIDConflicts(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	db := newOrdersDB(t)
	repo := NewOrderRepository(db, log)

	createOrder(t, db, repo, testOrder("ORDDUP"))

	tx, err := db.Begin()
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	err = repo.CreateTx(tx, testOrder("ORDDUP"))
	assert.Error(t, err, "UNIQUE constraint must reject duplicate order ids")
}

func TestOrderExists(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	db := newOrdersDB(t)
	repo := NewOrderRepository(db, log)

	exists, err := repo.Exists("ORDX")
	require.NoError(t, err)
	assert.False(t, exists)

	createOrder(t, db, repo, testOrder("ORDX"))

	exists, err = repo.Exists("ORDX")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestOrderHistory_ScopedToUserMostRecentFirst(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	db := newOrdersDB(t)
	repo := NewOrderRepository(db, log)

	first := testOrder("ORDA")
	first.CreatedAt = time.Now().UTC().Add(-2 * time.Hour)
	second := testOrder("ORDB")
	second.CreatedAt = time.Now().UTC().Add(-1 * time.Hour)
	other := testOrder("ORDC")
	other.UserID = "user-2"

	createOrder(t, db, repo, first)
	createOrder(t, db, repo, second)
	createOrder(t, db, repo, other)

	history, err := repo.GetHistoryForUser("user-1", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "ORDB", history[0].OrderID)
	assert.Equal(t, "ORDA", history[1].OrderID)
}
