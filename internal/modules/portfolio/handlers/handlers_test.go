package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundfolio/fundfolio/internal/database"
	"github.com/fundfolio/fundfolio/internal/modules/auth"
	"github.com/fundfolio/fundfolio/internal/modules/portfolio"
	"github.com/fundfolio/fundfolio/internal/modules/pricing"
	"github.com/fundfolio/fundfolio/internal/modules/trading"
)

type testStack struct {
	router chi.Router
	engine *trading.Engine
	token  string
	userID string
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	log := zerolog.New(nil).Level(zerolog.Disabled)
	dir := t.TempDir()

	usersDB, err := database.New(database.Config{
		Path:    filepath.Join(dir, "users.db"),
		Profile: database.ProfileStandard,
		Name:    "users",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = usersDB.Close() })
	require.NoError(t, usersDB.Migrate())

	ledgerDB, err := database.New(database.Config{
		Path:    filepath.Join(dir, "ledger.db"),
		Profile: database.ProfileLedger,
		Name:    "ledger",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ledgerDB.Close() })
	require.NoError(t, ledgerDB.Migrate())

	authService := auth.NewService(auth.NewUserRepository(usersDB.Conn(), log), "test-secret", 4, log)
	user, err := authService.Register("Asha", "asha@example.com", "hunter22")
	require.NoError(t, err)
	token, _, err := authService.Login("asha@example.com", "hunter22")
	require.NoError(t, err)

	orders := trading.NewOrderRepository(ledgerDB.Conn(), log)
	positions := portfolio.NewPositionRepository(ledgerDB.Conn(), log)
	oracle, err := pricing.NewFixedOracle(decimal.RequireFromString("45.67"), log)
	require.NoError(t, err)
	engine := trading.NewEngine(ledgerDB, orders, positions, oracle, log)
	service := portfolio.NewPortfolioService(positions, oracle, log)

	handler := NewHandler(service, log)
	router := chi.NewRouter()
	router.Group(func(r chi.Router) {
		r.Use(authService.Middleware)
		handler.RegisterRoutes(r)
	})

	return &testStack{router: router, engine: engine, token: token, userID: user.ID}
}

func (s *testStack) getPortfolio(t *testing.T) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", "/portfolio", bytes.NewReader(nil))
	req.Header.Set("Authorization", "Bearer "+s.token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestGetPortfolio_EmptyForNewUser(t *testing.T) {
	stack := newTestStack(t)

	w := stack.getPortfolio(t)
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, true, body["success"])

	positions, ok := body["portfolio"].([]interface{})
	require.True(t, ok, "portfolio must be an array, not null")
	assert.Empty(t, positions)
}

func TestGetPortfolio_ReflectsTrades(t *testing.T) {
	stack := newTestStack(t)

	_, err := stack.engine.Buy(context.Background(), stack.userID, "Bluechip Growth", decimal.RequireFromString("1000"))
	require.NoError(t, err)

	w := stack.getPortfolio(t)
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))

	positions := body["portfolio"].([]interface{})
	require.Len(t, positions, 1)

	pos := positions[0].(map[string]interface{})
	assert.Equal(t, "Bluechip Growth", pos["fundName"])
	assert.Equal(t, 21.8984, pos["totalUnits"])
	assert.Equal(t, float64(1000), pos["totalInvested"])
}

func TestGetPortfolio_RequiresAuthentication(t *testing.T) {
	stack := newTestStack(t)

	req := httptest.NewRequest("GET", "/portfolio", nil)
	w := httptest.NewRecorder()
	stack.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
