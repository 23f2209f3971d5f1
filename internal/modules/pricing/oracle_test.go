package pricing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestFixedOracle(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)

	oracle, err := NewFixedOracle(d("45.67"), log)
	require.NoError(t, err)

	nav, err := oracle.GetNAV(context.Background(), "Bluechip Growth")
	require.NoError(t, err)
	assert.True(t, nav.Equal(d("45.67")))

	// same value for every fund
	nav, err = oracle.GetNAV(context.Background(), "Midcap Value")
	require.NoError(t, err)
	assert.True(t, nav.Equal(d("45.67")))
}

func TestFixedOracle_RejectsNonPositiveNAV(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)

	_, err := NewFixedOracle(d("0"), log)
	assert.Error(t, err)

	_, err = NewFixedOracle(d("-1"), log)
	assert.Error(t, err)
}

func TestAPIClient_FetchesNAV(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/nav/Bluechip%20Growth", r.URL.EscapedPath())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"fund": "Bluechip Growth", "nav": "48.12"}`))
	}))
	defer server.Close()

	client := NewAPIClient(server.URL, nil, log)
	nav, err := client.GetNAV(context.Background(), "Bluechip Growth")
	require.NoError(t, err)
	assert.True(t, nav.Equal(d("48.12")))
}

func TestAPIClient_FallsBackOnServerError(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	fallback, err := NewFixedOracle(d("45.67"), log)
	require.NoError(t, err)

	client := NewAPIClient(server.URL, fallback, log)
	nav, err := client.GetNAV(context.Background(), "Bluechip Growth")
	require.NoError(t, err)
	assert.True(t, nav.Equal(d("45.67")), "should use fallback NAV when the API fails")
}

func TestAPIClient_NoFallbackSurfacesError(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewAPIClient(server.URL, nil, log)
	_, err := client.GetNAV(context.Background(), "Bluechip Growth")
	assert.Error(t, err)
}

func TestAPIClient_RejectsBadNAV(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)

	tests := []struct {
		name string
		body string
	}{
		{"unparseable", `{"fund": "X", "nav": "not-a-number"}`},
		{"zero", `{"fund": "X", "nav": "0"}`},
		{"negative", `{"fund": "X", "nav": "-3"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewAPIClient(server.URL, nil, log)
			_, err := client.GetNAV(context.Background(), "X")
			assert.Error(t, err)
		})
	}
}
