package source

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"stockpoller/internal/config"
	"stockpoller/internal/fetch"
	"stockpoller/internal/model"
)

const finazonName = "Finazon"

// finazon polls the Finazon historical quotes endpoint. The API key is
// sent as a bearer token.
type finazon struct {
	apiKey string
}

func newFinazon(cfg config.SourceConfig) (Adapter, error) {
	if cfg.APIKey == "" {
		return nil, &MissingCredentialError{Source: finazonName, Key: "FINAZON_API_KEY"}
	}
	return &finazon{apiKey: cfg.APIKey}, nil
}

func (f *finazon) Name() string { return finazonName }

func (f *finazon) NewRequest(symbol string) (fetch.Request, error) {
	query := url.Values{}
	query.Set("symbols", symbol)
	header := http.Header{}
	header.Set("Authorization", "Bearer "+f.apiKey)
	return fetch.Request{
		URL:    "https://api.finazon.com/api/v1/quotes/historical?" + query.Encode(),
		Header: header,
	}, nil
}

type finazonResponse struct {
	Data []struct {
		Time   int64   `json:"t"` // epoch seconds
		Open   float64 `json:"o"`
		High   float64 `json:"h"`
		Low    float64 `json:"l"`
		Close  float64 `json:"c"`
		Volume float64 `json:"v"`
	} `json:"data"`
}

func (f *finazon) Transform(symbol string, raw []byte) (model.Quote, error) {
	var resp finazonResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return model.Quote{}, fmt.Errorf("decode response: %w", err)
	}

	if len(resp.Data) == 0 {
		return model.Quote{}, &DataError{
			Source: finazonName,
			Reason: fmt.Sprintf("no quotes for symbol %s", symbol),
		}
	}

	quote := resp.Data[0]

	return model.Quote{
		Symbol:    symbol,
		Timestamp: rfc3339FromSeconds(quote.Time),
		Price:     quote.Close,
		Source:    finazonName,
		Data: map[string]float64{
			"open":   quote.Open,
			"high":   quote.High,
			"low":    quote.Low,
			"close":  quote.Close,
			"volume": quote.Volume,
		},
	}, nil
}
