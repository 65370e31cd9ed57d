// Package supervisor implements SessionSupervisor: the top-level task
// that reconciles a dynamically-refreshed watchlist against a set of
// live FeedSessions under a global concurrency ceiling, forwards admitted
// signals to the executor collaborator, and drives the position-monitor
// heartbeat. Its event loop selects over a watchlist-refresh timer, the
// signal channel, and a position-monitor timer, with semaphore-gated
// session spawns and a timeout-bounded graceful stop for each one.
package supervisor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/ofisentinel/sentinel/internal/collaborator"
	"github.com/ofisentinel/sentinel/internal/engine"
	"github.com/ofisentinel/sentinel/internal/feed"
	"github.com/ofisentinel/sentinel/internal/logx"
	"github.com/ofisentinel/sentinel/internal/model"
	"github.com/ofisentinel/sentinel/internal/signal"
)

const (
	stopAwaitTimeout    = 5 * time.Second
	executorInvokeLimit = 10 * time.Second
	positionTickLimit   = 30 * time.Second
)

// Config bundles everything the supervisor needs to reconcile the
// watchlist and construct sessions. Defaults are applied by New for
// zero-valued fields that have a sensible default per §6.
type Config struct {
	WebsocketURL string

	Params            model.StrategyParams
	Confidences       signal.Confidences
	TradeStorageLimit int

	// MaxConcurrentSessions bounds simultaneous live FeedSessions.
	// Defaults to 20 (max_concurrent_websocket_connections).
	MaxConcurrentSessions int

	// CapCandidatesToHalf reserves half of MaxConcurrentSessions by
	// truncating the watchlist producer's candidate list, matching the
	// original's unconditional max_candidates = max_concurrent_tasks / 2.
	// applyDefaults leaves it alone: the zero value false means no capping,
	// so a host enables it by setting it to true (cmd/sentinel does).
	CapCandidatesToHalf bool

	WatchlistRefreshInterval time.Duration // default 900s
	PositionMonitorInterval  time.Duration // default 60s
	OutboundChannelCapacity  int           // default 100
}

func (c *Config) applyDefaults() {
	if c.MaxConcurrentSessions <= 0 {
		c.MaxConcurrentSessions = 20
	}
	if c.WatchlistRefreshInterval <= 0 {
		c.WatchlistRefreshInterval = 900 * time.Second
	}
	if c.PositionMonitorInterval <= 0 {
		c.PositionMonitorInterval = 60 * time.Second
	}
	if c.OutboundChannelCapacity <= 0 {
		c.OutboundChannelCapacity = 100
	}
}

type runningSession struct {
	session *feed.FeedSession
}

// Supervisor owns the set of live FeedSessions and reconciles them
// against watchlist refreshes.
type Supervisor struct {
	cfg Config

	watchlist       collaborator.WatchlistProducer
	executor        collaborator.SignalExecutor
	positionMonitor collaborator.PositionMonitor
	logger          *logx.Logger

	sem *semaphore.Weighted
	out chan model.TradingSignal

	mu      sync.Mutex
	running map[string]*runningSession
}

// New constructs a Supervisor. cfg is copied and defaulted.
func New(cfg Config, watchlist collaborator.WatchlistProducer, executor collaborator.SignalExecutor, positionMonitor collaborator.PositionMonitor, logger *logx.Logger) *Supervisor {
	cfg.applyDefaults()
	return &Supervisor{
		cfg:             cfg,
		watchlist:       watchlist,
		executor:        executor,
		positionMonitor: positionMonitor,
		logger:          logger,
		sem:             semaphore.NewWeighted(int64(cfg.MaxConcurrentSessions)),
		out:             make(chan model.TradingSignal, cfg.OutboundChannelCapacity),
		running:         make(map[string]*runningSession),
	}
}

// Run blocks, dispatching watchlist refreshes, admitted signals, and
// position-monitor ticks, until ctx is cancelled. On return every running
// session has been asked to stop.
func (sup *Supervisor) Run(ctx context.Context) {
	sup.reconcileWatchlist(ctx)

	watchlistTicker := time.NewTicker(sup.cfg.WatchlistRefreshInterval)
	defer watchlistTicker.Stop()
	positionTicker := time.NewTicker(sup.cfg.PositionMonitorInterval)
	defer positionTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			sup.stopAll()
			return
		case <-watchlistTicker.C:
			sup.reconcileWatchlist(ctx)
		case sig := <-sup.out:
			sup.forwardSignal(ctx, sig)
		case <-positionTicker.C:
			sup.tickPositionMonitor(ctx)
		}
	}
}

func (sup *Supervisor) reconcileWatchlist(ctx context.Context) {
	candidates, err := sup.watchlist.Candidates(ctx)
	if err != nil {
		sup.logger.Warn("supervisor: watchlist producer failed, keeping current set", zap.Error(err))
		return
	}

	if sup.cfg.CapCandidatesToHalf {
		limit := sup.cfg.MaxConcurrentSessions / 2
		if limit > 0 && len(candidates) > limit {
			sup.logger.Warn("supervisor: capping candidates to half of max_concurrent_sessions",
				zap.Int("candidates", len(candidates)), zap.Int("limit", limit))
			candidates = candidates[:limit]
		}
	}

	candidateSet := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		candidateSet[c] = struct{}{}
	}

	sup.mu.Lock()
	var toStop []string
	for symbol := range sup.running {
		if _, keep := candidateSet[symbol]; !keep {
			toStop = append(toStop, symbol)
		}
	}
	var toStart []string
	for symbol := range candidateSet {
		if _, running := sup.running[symbol]; !running {
			toStart = append(toStart, symbol)
		}
	}
	sup.mu.Unlock()

	for _, symbol := range toStop {
		sup.stopSession(symbol)
	}
	for _, symbol := range toStart {
		sup.startSession(ctx, symbol)
	}
}

func (sup *Supervisor) startSession(ctx context.Context, symbol string) {
	if err := sup.sem.Acquire(ctx, 1); err != nil {
		return
	}

	eng := engine.New(sup.cfg.Params, sup.cfg.Confidences, sup.cfg.TradeStorageLimit)
	session := feed.NewSession(symbol, sup.cfg.WebsocketURL, eng, sup.out, sup.logger)

	sup.mu.Lock()
	sup.running[symbol] = &runningSession{session: session}
	sup.mu.Unlock()

	go session.Run(ctx)
}

func (sup *Supervisor) stopSession(symbol string) {
	sup.mu.Lock()
	rs, ok := sup.running[symbol]
	delete(sup.running, symbol)
	sup.mu.Unlock()
	if !ok {
		return
	}

	rs.session.Stop()
	select {
	case <-rs.session.Done():
	case <-time.After(stopAwaitTimeout):
		sup.logger.Warn("supervisor: session did not stop within timeout", zap.String("symbol", symbol))
	}
	sup.sem.Release(1)
}

func (sup *Supervisor) stopAll() {
	sup.mu.Lock()
	symbols := make([]string, 0, len(sup.running))
	for symbol := range sup.running {
		symbols = append(symbols, symbol)
	}
	sup.mu.Unlock()

	for _, symbol := range symbols {
		sup.stopSession(symbol)
	}
}

// forwardSignal hands an admitted signal to the executor collaborator off
// the hot path. Collaborator failures are logged and never propagate.
func (sup *Supervisor) forwardSignal(ctx context.Context, sig model.TradingSignal) {
	go func() {
		cctx, cancel := context.WithTimeout(ctx, executorInvokeLimit)
		defer cancel()

		res, err := sup.executor.Execute(cctx, sig)
		if err != nil {
			sup.logger.Warn("supervisor: signal executor failed", zap.String("symbol", sig.Symbol), zap.Error(err))
			return
		}
		if res.Status == collaborator.StatusError {
			sup.logger.Warn("supervisor: signal executor reported error", zap.String("symbol", sig.Symbol), zap.String("reason", res.Reason))
		}
	}()
}

// tickPositionMonitor invokes the position-monitor collaborator off the
// hot path with a bounded deadline; failures are logged and ignored.
func (sup *Supervisor) tickPositionMonitor(ctx context.Context) {
	go func() {
		cctx, cancel := context.WithTimeout(ctx, positionTickLimit)
		defer cancel()

		res, err := sup.positionMonitor.Tick(cctx)
		if err != nil {
			sup.logger.Warn("supervisor: position monitor failed", zap.Error(err))
			return
		}
		if res.Status == collaborator.StatusError {
			sup.logger.Warn("supervisor: position monitor reported error", zap.String("reason", res.Reason))
		}
	}()
}
