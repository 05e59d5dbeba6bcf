package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"stockpoller/internal/fetch"
	"stockpoller/internal/metrics"
	"stockpoller/internal/model"
	"stockpoller/internal/ratelimit"
	"stockpoller/internal/retry"
	"stockpoller/internal/source"
	"stockpoller/internal/validate"
)

// Sender is the delivery surface the poller needs; satisfied by
// queue.Sender.
type Sender interface {
	Send(ctx context.Context, q model.Quote) error
}

// Snapshot is the per-cycle view of the mutable configuration. It is
// re-read at the top of every cycle so operators can adjust symbols,
// interval and dry-run without a restart.
type Snapshot struct {
	Symbols  []string
	Interval time.Duration
	DryRun   bool
}

// SnapshotFunc supplies the configuration snapshot for one cycle.
type SnapshotFunc func() Snapshot

// Stats reports polling progress for the health endpoint.
type Stats struct {
	Cycles        int64     `json:"cycles"`
	LastSucceeded int       `json:"last_succeeded"`
	LastFailed    int       `json:"last_failed"`
	LastCycleAt   time.Time `json:"last_cycle_at"`
}

// Deps wires the poller to the rest of the pipeline.
type Deps struct {
	Adapter   source.Adapter
	Limiter   *ratelimit.Limiter
	Fetcher   *fetch.Client
	Validator *validate.Validator
	Sender    Sender
	Metrics   *metrics.Metrics
	Snapshot  SnapshotFunc
	Retry     retry.Policy
	Logger    *slog.Logger
}

// Poller drives the per-symbol pipeline for one source adapter:
// rate-limit, fetch with retry, transform, validate, enqueue. A symbol's
// failure is recorded and never aborts the rest of the batch.
type Poller struct {
	adapter   source.Adapter
	limiter   *ratelimit.Limiter
	fetcher   *fetch.Client
	validator *validate.Validator
	sender    Sender
	metrics   *metrics.Metrics
	snapshot  SnapshotFunc
	retry     retry.Policy
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	statsMu sync.Mutex
	stats   Stats
}

// New creates a Poller.
func New(deps Deps) *Poller {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		adapter:   deps.Adapter,
		limiter:   deps.Limiter,
		fetcher:   deps.Fetcher,
		validator: deps.Validator,
		sender:    deps.Sender,
		metrics:   deps.Metrics,
		snapshot:  deps.Snapshot,
		retry:     deps.Retry,
		logger:    logger.With("source", deps.Adapter.Name()),
	}
}

// Start begins the polling loop.
func (p *Poller) Start(ctx context.Context) error {
	if err := p.retry.Validate(); err != nil {
		return err
	}

	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("poller started")
	return nil
}

// Stop gracefully shuts down the poller. The in-flight symbol finishes
// its current stage; no new symbols are started.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns current polling counters.
func (p *Poller) Stats() Stats {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	return p.stats
}

// run is the main polling loop. Each cycle re-reads the configuration
// snapshot, then sleeps the snapshot's interval before the next one.
func (p *Poller) run() {
	defer p.wg.Done()

	for {
		snap := p.snapshot()
		p.pollCycle(snap)

		timer := time.NewTimer(snap.Interval)
		select {
		case <-p.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// pollCycle processes every symbol sequentially in configuration order.
func (p *Poller) pollCycle(snap Snapshot) {
	start := time.Now()
	succeeded, failed := 0, 0

	for _, symbol := range snap.Symbols {
		if p.ctx.Err() != nil {
			return
		}
		if err := p.pollSymbol(symbol, snap.DryRun); err != nil {
			failed++
		} else {
			succeeded++
		}
	}

	duration := time.Since(start)
	if p.metrics != nil {
		p.metrics.ObserveCycle(duration.Seconds())
	}

	p.statsMu.Lock()
	p.stats.Cycles++
	p.stats.LastSucceeded = succeeded
	p.stats.LastFailed = failed
	p.stats.LastCycleAt = time.Now().UTC()
	p.statsMu.Unlock()

	p.logger.Info("poll cycle complete",
		"symbols", len(snap.Symbols),
		"succeeded", succeeded,
		"failed", failed,
		"dry_run", snap.DryRun,
		"duration", duration,
	)
}

// pollSymbol runs one symbol through the full pipeline, recording exactly
// one success-or-failure outcome.
func (p *Poller) pollSymbol(symbol string, dryRun bool) error {
	if err := p.limiter.Acquire(p.ctx, p.adapter.Name()); err != nil {
		// Shutdown during the rate-limit wait; not a symbol failure.
		return err
	}

	req, err := p.adapter.NewRequest(symbol)
	if err != nil {
		return p.fail(symbol, metrics.StageRequest, err)
	}

	raw, err := retry.Do(p.ctx, p.logger, symbol, p.retry, func() ([]byte, error) {
		return p.fetcher.Fetch(p.ctx, req)
	})
	if err != nil {
		return p.fail(symbol, metrics.StageFetch, err)
	}

	quote, err := p.adapter.Transform(symbol, raw)
	if err != nil {
		return p.fail(symbol, metrics.StageTransform, err)
	}

	if err := p.validator.Check(quote); err != nil {
		return p.fail(symbol, metrics.StageValidate, err)
	}

	if !dryRun {
		if err := p.sender.Send(p.ctx, quote); err != nil {
			return p.fail(symbol, metrics.StagePublish, err)
		}
	}

	if p.metrics != nil {
		p.metrics.RecordPollSuccess(p.adapter.Name(), symbol)
	}
	p.logger.Debug("symbol polled",
		"symbol", symbol,
		"price", quote.Price,
		"dry_run", dryRun,
	)
	return nil
}

// fail records one per-symbol failure outcome and returns the error to
// the cycle loop.
func (p *Poller) fail(symbol, stage string, err error) error {
	if p.metrics != nil {
		p.metrics.RecordPollFailure(p.adapter.Name(), symbol, stage)
	}
	p.logger.Error("symbol poll failed",
		"symbol", symbol,
		"stage", stage,
		"error", err,
	)
	return err
}
