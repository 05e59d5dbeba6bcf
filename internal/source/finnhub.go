package source

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"stockpoller/internal/config"
	"stockpoller/internal/fetch"
	"stockpoller/internal/model"
)

const finnhubName = "Finnhub"

// finnhub polls the Finnhub real-time quote endpoint.
type finnhub struct {
	apiKey string
	now    func() time.Time
}

func newFinnhub(cfg config.SourceConfig) (Adapter, error) {
	if cfg.APIKey == "" {
		return nil, &MissingCredentialError{Source: finnhubName, Key: "FINNHUB_API_KEY"}
	}
	return &finnhub{apiKey: cfg.APIKey, now: time.Now}, nil
}

func (f *finnhub) Name() string { return finnhubName }

func (f *finnhub) NewRequest(symbol string) (fetch.Request, error) {
	query := url.Values{}
	query.Set("symbol", symbol)
	query.Set("token", f.apiKey)
	return fetch.Request{URL: "https://finnhub.io/api/v1/quote?" + query.Encode()}, nil
}

type finnhubQuote struct {
	Current       *float64 `json:"c"`
	High          float64  `json:"h"`
	Low           float64  `json:"l"`
	Open          float64  `json:"o"`
	PreviousClose float64  `json:"pc"`
	Time          int64    `json:"t"`
}

func (f *finnhub) Transform(symbol string, raw []byte) (model.Quote, error) {
	var resp finnhubQuote
	if err := json.Unmarshal(raw, &resp); err != nil {
		return model.Quote{}, fmt.Errorf("decode response: %w", err)
	}

	if resp.Current == nil {
		return model.Quote{}, &DataError{
			Source: finnhubName,
			Reason: fmt.Sprintf("no current price for symbol %s", symbol),
		}
	}

	// Finnhub reports the quote time as epoch seconds; fall back to the
	// poll time when it is absent.
	timestamp := rfc3339FromSeconds(resp.Time)
	if resp.Time == 0 {
		timestamp = f.now().UTC().Format(time.RFC3339)
	}

	return model.Quote{
		Symbol:    symbol,
		Timestamp: timestamp,
		Price:     *resp.Current,
		Source:    finnhubName,
		Data: map[string]float64{
			"current":        *resp.Current,
			"high":           resp.High,
			"low":            resp.Low,
			"open":           resp.Open,
			"previous_close": resp.PreviousClose,
			"volume":         0,
		},
	}, nil
}
