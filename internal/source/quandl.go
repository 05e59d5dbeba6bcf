package source

import (
	"encoding/json"
	"fmt"
	"net/url"

	"stockpoller/internal/config"
	"stockpoller/internal/fetch"
	"stockpoller/internal/model"
)

const quandlName = "Quandl"

// quandl polls the Nasdaq Data Link (formerly Quandl) WIKI dataset for
// the latest end-of-day row.
type quandl struct {
	apiKey string
}

func newQuandl(cfg config.SourceConfig) (Adapter, error) {
	if cfg.APIKey == "" {
		return nil, &MissingCredentialError{Source: quandlName, Key: "QUANDL_API_KEY"}
	}
	return &quandl{apiKey: cfg.APIKey}, nil
}

func (q *quandl) Name() string { return quandlName }

func (q *quandl) NewRequest(symbol string) (fetch.Request, error) {
	query := url.Values{}
	query.Set("api_key", q.apiKey)
	return fetch.Request{
		URL: fmt.Sprintf("https://data.nasdaq.com/api/v3/datasets/WIKI/%s.json?%s",
			url.PathEscape(symbol), query.Encode()),
	}, nil
}

type quandlResponse struct {
	Dataset *struct {
		ColumnNames []string `json:"column_names"`
		Data        [][]any  `json:"data"`
	} `json:"dataset"`
}

func (q *quandl) Transform(symbol string, raw []byte) (model.Quote, error) {
	var resp quandlResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return model.Quote{}, fmt.Errorf("decode response: %w", err)
	}

	if resp.Dataset == nil || len(resp.Dataset.Data) == 0 {
		return model.Quote{}, &DataError{
			Source: quandlName,
			Reason: fmt.Sprintf("no dataset rows for symbol %s", symbol),
		}
	}

	// Rows are newest first; columns are positional.
	index := make(map[string]int, len(resp.Dataset.ColumnNames))
	for i, name := range resp.Dataset.ColumnNames {
		index[name] = i
	}
	row := resp.Dataset.Data[0]

	cell := func(column string) (any, error) {
		i, ok := index[column]
		if !ok || i >= len(row) {
			return nil, &DataError{
				Source: quandlName,
				Reason: fmt.Sprintf("dataset missing column %q", column),
			}
		}
		return row[i], nil
	}

	data := make(map[string]float64, 5)
	for column, field := range map[string]string{
		"Open":   "open",
		"High":   "high",
		"Low":    "low",
		"Close":  "close",
		"Volume": "volume",
	} {
		v, err := cell(column)
		if err != nil {
			return model.Quote{}, err
		}
		f, ok := v.(float64)
		if !ok {
			return model.Quote{}, &DataError{
				Source: quandlName,
				Reason: fmt.Sprintf("column %q is not numeric", column),
			}
		}
		data[field] = f
	}

	rawDate, err := cell("Date")
	if err != nil {
		return model.Quote{}, err
	}
	date, ok := rawDate.(string)
	if !ok {
		return model.Quote{}, &DataError{Source: quandlName, Reason: "date column is not a string"}
	}
	timestamp, err := rfc3339FromLayout("2006-01-02", date)
	if err != nil {
		return model.Quote{}, &DataError{
			Source: quandlName,
			Reason: fmt.Sprintf("bad date %q", date),
		}
	}

	return model.Quote{
		Symbol:    symbol,
		Timestamp: timestamp,
		Price:     data["close"],
		Source:    quandlName,
		Data:      data,
	}, nil
}
