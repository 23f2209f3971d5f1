package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// APIClient fetches NAVs from an external HTTP NAV service. It satisfies
// Oracle, so it can replace the fixed oracle via configuration without the
// engine noticing.
//
// Expected response: {"fund": "...", "nav": "45.67"}
type APIClient struct {
	baseURL  string
	client   *http.Client
	fallback Oracle // Used when the API is unreachable (stale price > no price)
	log      zerolog.Logger
}

// NewAPIClient creates a NAV API client.
// fallback is optional - if nil, API failures surface as errors.
func NewAPIClient(baseURL string, fallback Oracle, log zerolog.Logger) *APIClient {
	return &APIClient{
		baseURL:  baseURL,
		client:   &http.Client{Timeout: 10 * time.Second},
		fallback: fallback,
		log:      log.With().Str("oracle", "nav-api").Logger(),
	}
}

// GetNAV fetches the NAV for fundName from the API
func (c *APIClient) GetNAV(ctx context.Context, fundName string) (decimal.Decimal, error) {
	reqURL := fmt.Sprintf("%s/nav/%s", c.baseURL, url.PathEscape(fundName))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to build NAV request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return c.fallbackNAV(ctx, fundName, fmt.Errorf("NAV API request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.fallbackNAV(ctx, fundName, fmt.Errorf("NAV API returned status %d", resp.StatusCode))
	}

	var result struct {
		Fund string `json:"fund"`
		NAV  string `json:"nav"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode NAV response: %w", err)
	}

	nav, err := decimal.NewFromString(result.NAV)
	if err != nil {
		return decimal.Zero, fmt.Errorf("NAV API returned unparseable NAV %q: %w", result.NAV, err)
	}
	if !nav.IsPositive() {
		return decimal.Zero, fmt.Errorf("NAV API returned non-positive NAV %s for %s", nav, fundName)
	}

	c.log.Debug().Str("fund", fundName).Str("nav", nav.String()).Msg("NAV fetched")
	return nav, nil
}

func (c *APIClient) fallbackNAV(ctx context.Context, fundName string, cause error) (decimal.Decimal, error) {
	if c.fallback == nil {
		return decimal.Zero, cause
	}
	nav, err := c.fallback.GetNAV(ctx, fundName)
	if err != nil {
		return decimal.Zero, cause
	}
	c.log.Warn().Err(cause).Str("fund", fundName).Msg("NAV API unavailable, using fallback oracle")
	return nav, nil
}
