package source

import (
	"encoding/json"
	"fmt"
	"net/url"

	"stockpoller/internal/config"
	"stockpoller/internal/fetch"
	"stockpoller/internal/model"
)

const yfinanceName = "YFinance"

// yfinance polls the public Yahoo Finance chart endpoint for recent
// 5-minute bars. No API key is required.
type yfinance struct{}

func newYFinance(config.SourceConfig) (Adapter, error) {
	return &yfinance{}, nil
}

func (y *yfinance) Name() string { return yfinanceName }

func (y *yfinance) NewRequest(symbol string) (fetch.Request, error) {
	query := url.Values{}
	query.Set("interval", "5m")
	query.Set("range", "1d")
	return fetch.Request{
		URL: fmt.Sprintf("https://query1.finance.yahoo.com/v8/finance/chart/%s?%s",
			url.PathEscape(symbol), query.Encode()),
	}, nil
}

// The chart payload carries parallel arrays of bar values; entries may be
// null for bars Yahoo has not filled in yet.
type yfinanceResponse struct {
	Chart struct {
		Error *struct {
			Description string `json:"description"`
		} `json:"error"`
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
	} `json:"chart"`
}

func (y *yfinance) Transform(symbol string, raw []byte) (model.Quote, error) {
	var resp yfinanceResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return model.Quote{}, fmt.Errorf("decode response: %w", err)
	}

	if resp.Chart.Error != nil {
		return model.Quote{}, &DataError{Source: yfinanceName, Reason: resp.Chart.Error.Description}
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return model.Quote{}, &DataError{
			Source: yfinanceName,
			Reason: fmt.Sprintf("no chart data for symbol %s", symbol),
		}
	}

	result := resp.Chart.Result[0]
	bars := result.Indicators.Quote[0]

	// Walk back to the most recent fully populated bar.
	for i := len(result.Timestamp) - 1; i >= 0; i-- {
		if i >= len(bars.Close) || bars.Close[i] == nil ||
			bars.Open[i] == nil || bars.High[i] == nil ||
			bars.Low[i] == nil || bars.Volume[i] == nil {
			continue
		}

		return model.Quote{
			Symbol:    symbol,
			Timestamp: rfc3339FromSeconds(result.Timestamp[i]),
			Price:     *bars.Close[i],
			Source:    yfinanceName,
			Data: map[string]float64{
				"open":   *bars.Open[i],
				"high":   *bars.High[i],
				"low":    *bars.Low[i],
				"close":  *bars.Close[i],
				"volume": *bars.Volume[i],
			},
		}, nil
	}

	return model.Quote{}, &DataError{
		Source: yfinanceName,
		Reason: fmt.Sprintf("no complete bars for symbol %s", symbol),
	}
}
