package poller

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"stockpoller/internal/config"
	"stockpoller/internal/fetch"
	"stockpoller/internal/metrics"
	"stockpoller/internal/model"
	"stockpoller/internal/ratelimit"
	"stockpoller/internal/retry"
	"stockpoller/internal/source"
	"stockpoller/internal/validate"
)

// recordingSender captures every quote handed to it.
type recordingSender struct {
	mu     sync.Mutex
	quotes []model.Quote
	err    error
}

func (s *recordingSender) Send(ctx context.Context, q model.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.quotes = append(s.quotes, q)
	return nil
}

func (s *recordingSender) sent() []model.Quote {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Quote(nil), s.quotes...)
}

// finnhubServer serves canned Finnhub quote payloads; the symbol "BAD"
// gets a payload with no current price, which must fail the transform.
func finnhubServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("symbol") == "BAD" {
			w.Write([]byte(`{"h": 1.0, "l": 1.0}`))
			return
		}
		w.Write([]byte(`{"c": 187.5, "h": 188.2, "l": 185.5, "o": 186.0, "pc": 185.9, "t": 1767366900}`))
	}))
}

// testAdapter rewrites the vendor URL onto the test server.
type testAdapter struct {
	source.Adapter
	baseURL string
}

func (a *testAdapter) NewRequest(symbol string) (fetch.Request, error) {
	return fetch.Request{URL: a.baseURL + "/quote?symbol=" + symbol}, nil
}

func newTestPoller(t *testing.T, serverURL string, sender Sender, m *metrics.Metrics, snap Snapshot) *Poller {
	t.Helper()

	inner, err := source.New("finnhub", config.SourceConfig{APIKey: "k"})
	if err != nil {
		t.Fatalf("source.New failed: %v", err)
	}

	limiter, err := ratelimit.New(1000, time.Minute, nil)
	if err != nil {
		t.Fatalf("ratelimit.New failed: %v", err)
	}

	return New(Deps{
		Adapter:   &testAdapter{Adapter: inner, baseURL: serverURL},
		Limiter:   limiter,
		Fetcher:   fetch.NewClient(fetch.WithTimeout(5 * time.Second)),
		Validator: validate.New(nil),
		Sender:    sender,
		Metrics:   m,
		Snapshot:  func() Snapshot { return snap },
		Retry:     retry.Policy{Kind: retry.Fixed, MaxAttempts: 2, Delay: time.Millisecond},
	})
}

func TestPoller_SuccessfulPoll(t *testing.T) {
	server := finnhubServer(t)
	defer server.Close()

	sender := &recordingSender{}
	p := newTestPoller(t, server.URL, sender, metrics.New(), Snapshot{
		Symbols:  []string{"AAPL"},
		Interval: time.Hour,
	})

	p.ctx, p.cancel = context.WithCancel(context.Background())
	defer p.cancel()
	p.pollCycle(Snapshot{Symbols: []string{"AAPL"}, Interval: time.Hour})

	sent := sender.sent()
	if len(sent) != 1 {
		t.Fatalf("Send called %d times, want 1", len(sent))
	}

	q := sent[0]
	if q.Symbol != "AAPL" {
		t.Errorf("Symbol = %q, want AAPL", q.Symbol)
	}
	if q.Source != "Finnhub" {
		t.Errorf("Source = %q, want Finnhub", q.Source)
	}
	if q.Price != 187.5 {
		t.Errorf("Price = %v, want 187.5", q.Price)
	}
	if q.Data["open"] != 186.0 {
		t.Errorf("open = %v, want 186.0", q.Data["open"])
	}
}

func TestPoller_FailureIsolation(t *testing.T) {
	server := finnhubServer(t)
	defer server.Close()

	sender := &recordingSender{}
	p := newTestPoller(t, server.URL, sender, metrics.New(), Snapshot{})

	p.ctx, p.cancel = context.WithCancel(context.Background())
	defer p.cancel()

	// BAD fails in the transform stage; AAPL must still go through.
	p.pollCycle(Snapshot{Symbols: []string{"BAD", "AAPL"}, Interval: time.Hour})

	sent := sender.sent()
	if len(sent) != 1 {
		t.Fatalf("Send called %d times, want 1 (only AAPL)", len(sent))
	}
	if sent[0].Symbol != "AAPL" {
		t.Errorf("sent symbol = %q, want AAPL", sent[0].Symbol)
	}

	stats := p.Stats()
	if stats.LastSucceeded != 1 || stats.LastFailed != 1 {
		t.Errorf("stats = %+v, want 1 succeeded and 1 failed", stats)
	}
}

func TestPoller_PublishFailureIsPerSymbol(t *testing.T) {
	server := finnhubServer(t)
	defer server.Close()

	sender := &recordingSender{err: errors.New("broker down")}
	p := newTestPoller(t, server.URL, sender, nil, Snapshot{})

	p.ctx, p.cancel = context.WithCancel(context.Background())
	defer p.cancel()
	p.pollCycle(Snapshot{Symbols: []string{"AAPL", "MSFT"}, Interval: time.Hour})

	stats := p.Stats()
	if stats.LastFailed != 2 {
		t.Errorf("LastFailed = %d, want 2", stats.LastFailed)
	}
	if stats.LastSucceeded != 0 {
		t.Errorf("LastSucceeded = %d, want 0", stats.LastSucceeded)
	}
}

func TestPoller_DryRunSkipsEnqueue(t *testing.T) {
	server := finnhubServer(t)
	defer server.Close()

	sender := &recordingSender{}
	p := newTestPoller(t, server.URL, sender, nil, Snapshot{})

	p.ctx, p.cancel = context.WithCancel(context.Background())
	defer p.cancel()
	p.pollCycle(Snapshot{Symbols: []string{"AAPL"}, Interval: time.Hour, DryRun: true})

	if sent := sender.sent(); len(sent) != 0 {
		t.Errorf("Send called %d times in dry run, want 0", len(sent))
	}
	if stats := p.Stats(); stats.LastSucceeded != 1 {
		t.Errorf("LastSucceeded = %d, want 1 (dry run still validates)", stats.LastSucceeded)
	}
}

func TestPoller_StartStop(t *testing.T) {
	server := finnhubServer(t)
	defer server.Close()

	sender := &recordingSender{}
	p := newTestPoller(t, server.URL, sender, nil, Snapshot{
		Symbols:  []string{"AAPL"},
		Interval: 50 * time.Millisecond,
	})

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Wait for at least one cycle.
	time.Sleep(150 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := p.Stop(stopCtx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if len(sender.sent()) == 0 {
		t.Error("no quotes sent after running for multiple intervals")
	}
	if p.Stats().Cycles == 0 {
		t.Error("cycle counter not incremented")
	}
}

func TestPoller_SnapshotReread(t *testing.T) {
	server := finnhubServer(t)
	defer server.Close()

	var mu sync.Mutex
	symbols := []string{"AAPL"}

	inner, _ := source.New("finnhub", config.SourceConfig{APIKey: "k"})
	limiter, _ := ratelimit.New(1000, time.Minute, nil)
	sender := &recordingSender{}

	p := New(Deps{
		Adapter:   &testAdapter{Adapter: inner, baseURL: server.URL},
		Limiter:   limiter,
		Fetcher:   fetch.NewClient(),
		Validator: validate.New(nil),
		Sender:    sender,
		Snapshot: func() Snapshot {
			mu.Lock()
			defer mu.Unlock()
			return Snapshot{Symbols: symbols, Interval: 30 * time.Millisecond}
		},
		Retry: retry.Policy{Kind: retry.Fixed, MaxAttempts: 1, Delay: 0},
	})

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	symbols = []string{"AAPL", "MSFT"}
	mu.Unlock()

	time.Sleep(100 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	p.Stop(stopCtx)

	// Later cycles must have picked up the second symbol.
	var sawMSFT bool
	for _, q := range sender.sent() {
		if q.Symbol == "MSFT" {
			sawMSFT = true
		}
	}
	if !sawMSFT {
		t.Error("updated symbol list never picked up by a later cycle")
	}
}
