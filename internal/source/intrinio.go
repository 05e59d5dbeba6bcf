package source

import (
	"encoding/json"
	"fmt"
	"net/url"

	"stockpoller/internal/config"
	"stockpoller/internal/fetch"
	"stockpoller/internal/model"
)

const intrinioName = "Intrinio"

// intrinio polls the Intrinio daily securities prices endpoint. The API
// key is sent as the basic-auth username.
type intrinio struct {
	apiKey string
}

func newIntrinio(cfg config.SourceConfig) (Adapter, error) {
	if cfg.APIKey == "" {
		return nil, &MissingCredentialError{Source: intrinioName, Key: "INTRINIO_API_KEY"}
	}
	return &intrinio{apiKey: cfg.APIKey}, nil
}

func (i *intrinio) Name() string { return intrinioName }

func (i *intrinio) NewRequest(symbol string) (fetch.Request, error) {
	query := url.Values{}
	query.Set("page_size", "1")
	query.Set("sort_order", "desc")
	query.Set("frequency", "daily")
	return fetch.Request{
		URL: fmt.Sprintf("https://api.intrinio.com/securities/%s/prices?%s",
			url.PathEscape(symbol), query.Encode()),
		BasicAuth: &fetch.BasicAuth{Username: i.apiKey},
	}, nil
}

type intrinioResponse struct {
	Prices []struct {
		Date   string  `json:"date"`
		Open   float64 `json:"open"`
		High   float64 `json:"high"`
		Low    float64 `json:"low"`
		Close  float64 `json:"close"`
		Volume float64 `json:"volume"`
	} `json:"prices"`
}

func (i *intrinio) Transform(symbol string, raw []byte) (model.Quote, error) {
	var resp intrinioResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return model.Quote{}, fmt.Errorf("decode response: %w", err)
	}

	if len(resp.Prices) == 0 {
		return model.Quote{}, &DataError{
			Source: intrinioName,
			Reason: fmt.Sprintf("no prices for symbol %s", symbol),
		}
	}

	price := resp.Prices[0]
	timestamp, err := rfc3339FromLayout("2006-01-02", price.Date)
	if err != nil {
		return model.Quote{}, &DataError{
			Source: intrinioName,
			Reason: fmt.Sprintf("bad date %q", price.Date),
		}
	}

	return model.Quote{
		Symbol:    symbol,
		Timestamp: timestamp,
		Price:     price.Close,
		Source:    intrinioName,
		Data: map[string]float64{
			"open":   price.Open,
			"high":   price.High,
			"low":    price.Low,
			"close":  price.Close,
			"volume": price.Volume,
		},
	}, nil
}
