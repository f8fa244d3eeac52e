// Package positions implements the paper-position lifecycle: entry from
// approved eligible signals, daily price refresh, and exit rules. For
// validation only; no automated order execution.
package positions

import (
	"encoding/json"
	"fmt"
	"time"

	"eva-finance/internal/evaerr"

	"github.com/go-resty/resty/v2"
)

// TickerLookupClient resolves a brand name to a tradable ticker via the
// external ticker-lookup provider.
type TickerLookupClient struct {
	client  *resty.Client
	enabled bool
}

func NewTickerLookupClient(baseURL, apiKey string) *TickerLookupClient {
	return &TickerLookupClient{
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(10*time.Second).
			SetHeader("Authorization", "Bearer "+apiKey),
		enabled: baseURL != "",
	}
}

type tickerLookupResponse struct {
	Ticker   string `json:"ticker"`
	Exchange string `json:"exchange"`
}

// Lookup resolves brand to a ticker/exchange pair. Returns ok=false when
// the provider has no mapping or is disabled. resolveTicker consults it
// only after the operator-maintained BrandTickerMap has no row for the
// brand, and a miss here leaves the brand unmapped.
func (c *TickerLookupClient) Lookup(brand string) (ticker, exchange string, ok bool, err error) {
	if !c.enabled {
		return "", "", false, nil
	}
	resp, err := c.client.R().SetQueryParam("brand", brand).Get("/v1/ticker")
	if err != nil {
		return "", "", false, evaerr.New("positions.ticker_lookup", evaerr.TransientExternal, err)
	}
	if resp.StatusCode() == 404 {
		return "", "", false, nil
	}
	if resp.IsError() {
		return "", "", false, evaerr.New("positions.ticker_lookup", evaerr.PermanentExternal, fmt.Errorf("status %d", resp.StatusCode()))
	}
	var parsed tickerLookupResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil || parsed.Ticker == "" {
		return "", "", false, nil
	}
	return parsed.Ticker, parsed.Exchange, true, nil
}

// MarketPriceClient fetches the current price for a ticker from the
// external market-price provider.
type MarketPriceClient struct {
	client *resty.Client
}

func NewMarketPriceClient(baseURL, apiKey string) *MarketPriceClient {
	return &MarketPriceClient{
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(10*time.Second).
			SetHeader("Authorization", "Bearer "+apiKey),
	}
}

type priceResponse struct {
	Price float64 `json:"price"`
}

// CurrentPrice fetches the latest traded price for ticker.
func (c *MarketPriceClient) CurrentPrice(ticker string) (float64, error) {
	resp, err := c.client.R().SetQueryParam("ticker", ticker).Get("/v1/price")
	if err != nil {
		return 0, evaerr.New("positions.market_price", evaerr.TransientExternal, err)
	}
	if resp.IsError() {
		kind := evaerr.TransientExternal
		if resp.StatusCode() >= 400 && resp.StatusCode() < 500 && resp.StatusCode() != 429 {
			kind = evaerr.PermanentExternal
		}
		return 0, evaerr.New("positions.market_price", kind, fmt.Errorf("status %d", resp.StatusCode()))
	}
	var parsed priceResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return 0, evaerr.New("positions.market_price", evaerr.TransientExternal, fmt.Errorf("malformed price response: %w", err))
	}
	if parsed.Price <= 0 {
		return 0, evaerr.New("positions.market_price", evaerr.TransientExternal, fmt.Errorf("non-positive price"))
	}
	return parsed.Price, nil
}
