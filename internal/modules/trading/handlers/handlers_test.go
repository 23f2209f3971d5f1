package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
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

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type testStack struct {
	router chi.Router
	token  string
}

// newTestStack wires real services against migrated temp databases and
// returns an authenticated router, the way the server assembles them
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
	_, err = authService.Register("Asha", "asha@example.com", "hunter22")
	require.NoError(t, err)
	token, _, err := authService.Login("asha@example.com", "hunter22")
	require.NoError(t, err)

	orders := trading.NewOrderRepository(ledgerDB.Conn(), log)
	positions := portfolio.NewPositionRepository(ledgerDB.Conn(), log)
	oracle, err := pricing.NewFixedOracle(mustDecimal("45.67"), log)
	require.NoError(t, err)
	engine := trading.NewEngine(ledgerDB, orders, positions, oracle, log)

	handler := NewHandler(engine, orders, log)
	router := chi.NewRouter()
	router.Group(func(r chi.Router) {
		r.Use(authService.Middleware)
		handler.RegisterRoutes(r)
	})

	return &testStack{router: router, token: token}
}

func (s *testStack) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+s.token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestBuyFund(t *testing.T) {
	stack := newTestStack(t)

	w := stack.do(t, "POST", "/buy-fund", map[string]interface{}{
		"fundName": "Bluechip Growth",
		"amount":   1000,
	})

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["orderId"])
	// money fields come back as bare JSON numbers
	assert.Equal(t, 21.8984, body["units"])
	assert.Equal(t, 45.67, body["nav"])
}

func TestBuyFund_RejectsBadRequests(t *testing.T) {
	stack := newTestStack(t)

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing fund name", map[string]interface{}{"amount": 1000}},
		{"zero amount", map[string]interface{}{"fundName": "Bluechip Growth", "amount": 0}},
		{"negative amount", map[string]interface{}{"fundName": "Bluechip Growth", "amount": -5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := stack.do(t, "POST", "/buy-fund", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, false, decodeBody(t, w)["success"])
		})
	}
}

func TestSellFund_InsufficientUnits(t *testing.T) {
	stack := newTestStack(t)

	w := stack.do(t, "POST", "/sell-fund", map[string]interface{}{
		"fundName": "Bluechip Growth",
		"units":    5,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Insufficient units", body["message"])
}

func TestSellFund_AfterBuy(t *testing.T) {
	stack := newTestStack(t)

	w := stack.do(t, "POST", "/buy-fund", map[string]interface{}{
		"fundName": "Bluechip Growth",
		"amount":   1000,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = stack.do(t, "POST", "/sell-fund", map[string]interface{}{
		"fundName": "Bluechip Growth",
		"units":    10,
	})

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	// 10 * 45.67
	assert.Equal(t, 456.7, body["amount"])
}

func TestOrderStatus(t *testing.T) {
	stack := newTestStack(t)

	w := stack.do(t, "POST", "/buy-fund", map[string]interface{}{
		"fundName": "Bluechip Growth",
		"amount":   1000,
	})
	require.Equal(t, http.StatusOK, w.Code)
	orderID := decodeBody(t, w)["orderId"].(string)

	w = stack.do(t, "GET", fmt.Sprintf("/order-status/%s", orderID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	order := body["order"].(map[string]interface{})
	assert.Equal(t, orderID, order["orderId"])
	assert.Equal(t, "BUY", order["side"])
	assert.Equal(t, "COMPLETED", order["status"])
}

func TestOrderStatus_UnknownOrder(t *testing.T) {
	stack := newTestStack(t)

	w := stack.do(t, "GET", "/order-status/ORDDOESNOTEXIST", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Order not found", decodeBody(t, w)["message"])
}

func TestOrderHistory(t *testing.T) {
	stack := newTestStack(t)

	for i := 0; i < 3; i++ {
		w := stack.do(t, "POST", "/buy-fund", map[string]interface{}{
			"fundName": "Bluechip Growth",
			"amount":   100,
		})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := stack.do(t, "GET", "/order-history", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	orders := decodeBody(t, w)["orders"].([]interface{})
	assert.Len(t, orders, 3)
}

func TestRoutes_RequireAuthentication(t *testing.T) {
	stack := newTestStack(t)

	req := httptest.NewRequest("POST", "/buy-fund", bytes.NewReader([]byte(`{}`)))
	w := httptest.NewRecorder()
	stack.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Unauthorized", decodeBody(t, w)["message"])
}
