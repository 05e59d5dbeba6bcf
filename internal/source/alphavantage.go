package source

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"stockpoller/internal/config"
	"stockpoller/internal/fetch"
	"stockpoller/internal/model"
)

const alphaVantageName = "AlphaVantage"

// alphaVantage polls the Alpha Vantage 5-minute intraday time series and
// normalizes the most recent bar.
type alphaVantage struct {
	apiKey string
}

func newAlphaVantage(cfg config.SourceConfig) (Adapter, error) {
	if cfg.APIKey == "" {
		return nil, &MissingCredentialError{Source: alphaVantageName, Key: "ALPHA_VANTAGE_API_KEY"}
	}
	return &alphaVantage{apiKey: cfg.APIKey}, nil
}

func (a *alphaVantage) Name() string { return alphaVantageName }

func (a *alphaVantage) NewRequest(symbol string) (fetch.Request, error) {
	query := url.Values{}
	query.Set("function", "TIME_SERIES_INTRADAY")
	query.Set("symbol", symbol)
	query.Set("interval", "5min")
	query.Set("apikey", a.apiKey)
	return fetch.Request{URL: "https://www.alphavantage.co/query?" + query.Encode()}, nil
}

type alphaVantageResponse struct {
	ErrorMessage string                       `json:"Error Message"`
	Note         string                       `json:"Note"`
	TimeSeries   map[string]map[string]string `json:"Time Series (5min)"`
}

func (a *alphaVantage) Transform(symbol string, raw []byte) (model.Quote, error) {
	var resp alphaVantageResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return model.Quote{}, fmt.Errorf("decode response: %w", err)
	}

	if resp.ErrorMessage != "" {
		return model.Quote{}, &DataError{Source: alphaVantageName, Reason: resp.ErrorMessage}
	}
	if resp.Note != "" {
		return model.Quote{}, &DataError{Source: alphaVantageName, Reason: resp.Note}
	}
	if len(resp.TimeSeries) == 0 {
		return model.Quote{}, &DataError{
			Source: alphaVantageName,
			Reason: fmt.Sprintf("no time series data for symbol %s", symbol),
		}
	}

	// The latest bar has the lexicographically greatest timestamp key.
	var latest string
	for key := range resp.TimeSeries {
		if key > latest {
			latest = key
		}
	}
	bar := resp.TimeSeries[latest]

	fields := map[string]string{
		"open":   bar["1. open"],
		"high":   bar["2. high"],
		"low":    bar["3. low"],
		"close":  bar["4. close"],
		"volume": bar["5. volume"],
	}
	data := make(map[string]float64, len(fields))
	for name, value := range fields {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return model.Quote{}, &DataError{
				Source: alphaVantageName,
				Reason: fmt.Sprintf("bar field %s is not numeric: %q", name, value),
			}
		}
		data[name] = f
	}

	timestamp, err := rfc3339FromLayout("2006-01-02 15:04:05", latest)
	if err != nil {
		return model.Quote{}, &DataError{
			Source: alphaVantageName,
			Reason: fmt.Sprintf("bad bar timestamp %q", latest),
		}
	}

	return model.Quote{
		Symbol:    symbol,
		Timestamp: timestamp,
		Price:     data["close"],
		Source:    alphaVantageName,
		Data:      data,
	}, nil
}
