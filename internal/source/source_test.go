package source

import (
	"errors"
	"strings"
	"testing"

	"stockpoller/internal/config"
)

func TestNew_UnknownSource(t *testing.T) {
	_, err := New("bloomberg", config.SourceConfig{APIKey: "k"})
	if !errors.Is(err, ErrUnknownSource) {
		t.Errorf("err = %v, want ErrUnknownSource", err)
	}
}

func TestNew_CaseInsensitive(t *testing.T) {
	a, err := New("FINNHUB", config.SourceConfig{APIKey: "k"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if a.Name() != "Finnhub" {
		t.Errorf("Name() = %q, want Finnhub", a.Name())
	}
}

func TestNew_MissingCredential(t *testing.T) {
	// Every source except yfinance requires an API key.
	for _, name := range Names() {
		if name == "yfinance" {
			continue
		}
		t.Run(name, func(t *testing.T) {
			_, err := New(name, config.SourceConfig{})
			var credErr *MissingCredentialError
			if !errors.As(err, &credErr) {
				t.Errorf("err = %v, want *MissingCredentialError", err)
			}
		})
	}
}

func TestNew_YFinanceNeedsNoKey(t *testing.T) {
	a, err := New("yfinance", config.SourceConfig{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if a.Name() != "YFinance" {
		t.Errorf("Name() = %q, want YFinance", a.Name())
	}
}

func TestNames_Sorted(t *testing.T) {
	names := Names()
	if len(names) != 8 {
		t.Fatalf("len(Names()) = %d, want 8", len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("Names() not sorted at %d: %q >= %q", i, names[i-1], names[i])
		}
	}
}

func TestNewRequest_KeyPlacement(t *testing.T) {
	cfg := config.SourceConfig{APIKey: "secret-key"}

	t.Run("finnhub query token", func(t *testing.T) {
		a, _ := New("finnhub", cfg)
		req, err := a.NewRequest("AAPL")
		if err != nil {
			t.Fatalf("NewRequest failed: %v", err)
		}
		if !strings.Contains(req.URL, "token=secret-key") {
			t.Errorf("URL %q missing token parameter", req.URL)
		}
		if !strings.Contains(req.URL, "symbol=AAPL") {
			t.Errorf("URL %q missing symbol parameter", req.URL)
		}
	})

	t.Run("intrinio basic auth", func(t *testing.T) {
		a, _ := New("intrinio", cfg)
		req, err := a.NewRequest("AAPL")
		if err != nil {
			t.Fatalf("NewRequest failed: %v", err)
		}
		if req.BasicAuth == nil || req.BasicAuth.Username != "secret-key" {
			t.Errorf("BasicAuth = %+v, want username secret-key", req.BasicAuth)
		}
		if strings.Contains(req.URL, "secret-key") {
			t.Errorf("URL %q leaks the key, want basic auth only", req.URL)
		}
	})

	t.Run("finazon bearer header", func(t *testing.T) {
		a, _ := New("finazon", cfg)
		req, err := a.NewRequest("AAPL")
		if err != nil {
			t.Fatalf("NewRequest failed: %v", err)
		}
		if got := req.Header.Get("Authorization"); got != "Bearer secret-key" {
			t.Errorf("Authorization = %q, want bearer token", got)
		}
	})

	t.Run("yfinance keyless", func(t *testing.T) {
		a, _ := New("yfinance", config.SourceConfig{})
		req, err := a.NewRequest("AAPL")
		if err != nil {
			t.Fatalf("NewRequest failed: %v", err)
		}
		if !strings.Contains(req.URL, "/finance/chart/AAPL") {
			t.Errorf("URL = %q, want chart endpoint", req.URL)
		}
	})
}
