package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"
)

type priceSource interface {
	Name() string
	Price(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// cbrSource reads the central bank daily rates document.
type cbrSource struct {
	client *http.Client
	url    string
}

type cbrDaily struct {
	Valute map[string]struct {
		Nominal int64           `json:"Nominal"`
		Value   decimal.Decimal `json:"Value"`
	} `json:"Valute"`
}

func (s *cbrSource) Name() string { return "cbr" }

// Price returns the RUB price of one unit of the currency code.
func (s *cbrSource) Price(ctx context.Context, code string) (decimal.Decimal, error) {
	var doc cbrDaily
	if err := getJSON(ctx, s.client, s.url, &doc); err != nil {
		return decimal.Zero, err
	}

	v, ok := doc.Valute[code]
	if !ok {
		return decimal.Zero, fmt.Errorf("cbr: no quote for %s", code)
	}
	if v.Nominal > 1 {
		return v.Value.Div(decimal.NewFromInt(v.Nominal)), nil
	}
	return v.Value, nil
}

// tickerSource reads a Binance-compatible /api/v3/ticker/price endpoint.
type tickerSource struct {
	name   string
	client *http.Client
	url    string
}

type tickerPrice struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
}

func (s *tickerSource) Name() string { return s.name }

func (s *tickerSource) Price(ctx context.Context, pair string) (decimal.Decimal, error) {
	u, err := url.Parse(s.url)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: parse url: %w", s.name, err)
	}
	q := u.Query()
	q.Set("symbol", pair)
	u.RawQuery = q.Encode()

	var tp tickerPrice
	if err := getJSON(ctx, s.client, u.String(), &tp); err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", s.name, err)
	}
	return tp.Price, nil
}

func getJSON(ctx context.Context, client *http.Client, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
