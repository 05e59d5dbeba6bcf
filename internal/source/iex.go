package source

import (
	"encoding/json"
	"fmt"
	"net/url"

	"stockpoller/internal/config"
	"stockpoller/internal/fetch"
	"stockpoller/internal/model"
)

const iexName = "IEX"

// iex polls the IEX Cloud quote endpoint.
type iex struct {
	apiKey string
}

func newIEX(cfg config.SourceConfig) (Adapter, error) {
	if cfg.APIKey == "" {
		return nil, &MissingCredentialError{Source: iexName, Key: "IEX_API_KEY"}
	}
	return &iex{apiKey: cfg.APIKey}, nil
}

func (i *iex) Name() string { return iexName }

func (i *iex) NewRequest(symbol string) (fetch.Request, error) {
	query := url.Values{}
	query.Set("token", i.apiKey)
	return fetch.Request{
		URL: fmt.Sprintf("https://cloud.iexapis.com/stable/stock/%s/quote?%s",
			url.PathEscape(symbol), query.Encode()),
	}, nil
}

type iexQuote struct {
	Symbol       string   `json:"symbol"`
	LatestPrice  *float64 `json:"latestPrice"`
	LatestUpdate int64    `json:"latestUpdate"` // epoch millis
	Open         float64  `json:"open"`
	High         float64  `json:"high"`
	Low          float64  `json:"low"`
	Volume       float64  `json:"volume"`
}

func (i *iex) Transform(symbol string, raw []byte) (model.Quote, error) {
	var resp iexQuote
	if err := json.Unmarshal(raw, &resp); err != nil {
		return model.Quote{}, fmt.Errorf("decode response: %w", err)
	}

	if resp.LatestPrice == nil {
		return model.Quote{}, &DataError{
			Source: iexName,
			Reason: fmt.Sprintf("no latest price for symbol %s", symbol),
		}
	}

	return model.Quote{
		Symbol:    symbol,
		Timestamp: rfc3339FromMillis(resp.LatestUpdate),
		Price:     *resp.LatestPrice,
		Source:    iexName,
		Data: map[string]float64{
			"open":   resp.Open,
			"high":   resp.High,
			"low":    resp.Low,
			"close":  *resp.LatestPrice,
			"volume": resp.Volume,
		},
	}, nil
}
