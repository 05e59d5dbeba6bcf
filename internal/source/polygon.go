package source

import (
	"encoding/json"
	"fmt"
	"net/url"

	"stockpoller/internal/config"
	"stockpoller/internal/fetch"
	"stockpoller/internal/model"
)

const polygonName = "Polygon"

// polygon polls the Polygon.io previous-close aggregate endpoint.
type polygon struct {
	apiKey string
}

func newPolygon(cfg config.SourceConfig) (Adapter, error) {
	if cfg.APIKey == "" {
		return nil, &MissingCredentialError{Source: polygonName, Key: "POLYGON_API_KEY"}
	}
	return &polygon{apiKey: cfg.APIKey}, nil
}

func (p *polygon) Name() string { return polygonName }

func (p *polygon) NewRequest(symbol string) (fetch.Request, error) {
	query := url.Values{}
	query.Set("adjusted", "true")
	query.Set("apiKey", p.apiKey)
	return fetch.Request{
		URL: fmt.Sprintf("https://api.polygon.io/v2/aggs/ticker/%s/prev?%s",
			url.PathEscape(symbol), query.Encode()),
	}, nil
}

type polygonResponse struct {
	Results []struct {
		Time   int64   `json:"t"` // epoch millis
		Open   float64 `json:"o"`
		High   float64 `json:"h"`
		Low    float64 `json:"l"`
		Close  float64 `json:"c"`
		Volume float64 `json:"v"`
	} `json:"results"`
}

func (p *polygon) Transform(symbol string, raw []byte) (model.Quote, error) {
	var resp polygonResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return model.Quote{}, fmt.Errorf("decode response: %w", err)
	}

	if len(resp.Results) == 0 {
		return model.Quote{}, &DataError{
			Source: polygonName,
			Reason: fmt.Sprintf("no results for symbol %s", symbol),
		}
	}

	// Previous close returns exactly one aggregate.
	agg := resp.Results[0]

	return model.Quote{
		Symbol:    symbol,
		Timestamp: rfc3339FromMillis(agg.Time),
		Price:     agg.Close,
		Source:    polygonName,
		Data: map[string]float64{
			"open":   agg.Open,
			"high":   agg.High,
			"low":    agg.Low,
			"close":  agg.Close,
			"volume": agg.Volume,
		},
	}, nil
}
