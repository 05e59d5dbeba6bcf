package source

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"stockpoller/internal/config"
	"stockpoller/internal/fetch"
	"stockpoller/internal/model"
)

// Adapter is the per-vendor contract: it knows the vendor's URL shape and
// auth scheme, and how to map the raw response onto the normalized Quote.
type Adapter interface {
	// Name returns the vendor name recorded in Quote.Source.
	Name() string
	// NewRequest builds the upstream request for one symbol.
	NewRequest(symbol string) (fetch.Request, error)
	// Transform maps a raw JSON response onto a Quote. It returns a
	// *DataError when expected fields are absent or the vendor reported
	// an error payload.
	Transform(symbol string, raw []byte) (model.Quote, error)
}

// ErrUnknownSource is returned by New for an unregistered source name.
var ErrUnknownSource = errors.New("unknown source")

// MissingCredentialError reports an absent required API key.
type MissingCredentialError struct {
	Source string
	Key    string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("missing %s credential for source %s", e.Key, e.Source)
}

// DataError reports an upstream payload that cannot be transformed:
// missing expected fields or a vendor-reported error. Never retried.
type DataError struct {
	Source string
	Reason string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("%s upstream data error: %s", e.Source, e.Reason)
}

type factory func(cfg config.SourceConfig) (Adapter, error)

var registry = map[string]factory{
	"alphavantage": newAlphaVantage,
	"finnhub":      newFinnhub,
	"iex":          newIEX,
	"polygon":      newPolygon,
	"quandl":       newQuandl,
	"yfinance":     newYFinance,
	"intrinio":     newIntrinio,
	"finazon":      newFinazon,
}

// New constructs the adapter registered under name (case-insensitive).
func New(name string, cfg config.SourceConfig) (Adapter, error) {
	f, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, name)
	}
	return f(cfg)
}

// Names returns the registered source names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Timestamps arrive from vendors as epoch millis, epoch seconds, ISO
// datetimes or date-only strings; everything is normalized to RFC 3339 UTC
// at this boundary.

func rfc3339FromMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}

func rfc3339FromSeconds(s int64) string {
	return time.Unix(s, 0).UTC().Format(time.RFC3339)
}

func rfc3339FromLayout(layout, value string) (string, error) {
	t, err := time.Parse(layout, value)
	if err != nil {
		return "", err
	}
	return t.UTC().Format(time.RFC3339), nil
}
