package supervisor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ofisentinel/sentinel/internal/collaborator"
	"github.com/ofisentinel/sentinel/internal/logx"
	"github.com/ofisentinel/sentinel/internal/model"
	"github.com/ofisentinel/sentinel/internal/signal"
)

type fakeWatchlist struct {
	mu   sync.Mutex
	call int
	page [][]string
	err  error
}

func (f *fakeWatchlist) Candidates(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.call >= len(f.page) {
		return f.page[len(f.page)-1], nil
	}
	out := f.page[f.call]
	f.call++
	return out, nil
}

type fakeExecutor struct {
	mu      sync.Mutex
	signals []model.TradingSignal
}

func (f *fakeExecutor) Execute(ctx context.Context, sig model.TradingSignal) (collaborator.ExecutionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signals = append(f.signals, sig)
	return collaborator.ExecutionResult{Status: collaborator.StatusOK}, nil
}

func (f *fakeExecutor) received() []model.TradingSignal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.TradingSignal(nil), f.signals...)
}

type fakePositionMonitor struct {
	mu    sync.Mutex
	ticks int
}

func (f *fakePositionMonitor) Tick(ctx context.Context) (collaborator.ExecutionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ticks++
	return collaborator.ExecutionResult{Status: collaborator.StatusOK}, nil
}

func baseConfig() Config {
	return Config{
		WebsocketURL: "ws://127.0.0.1:9/ws",
		Params: model.StrategyParams{
			ImbalanceThreshold:        decimal.NewFromInt(5),
			DeltaThreshold:            decimal.NewFromInt(100),
			LookbackPeriodMS:          60000,
			MarketConditionMultiplier: decimal.NewFromInt(1),
		},
		Confidences: signal.Confidences{
			Strong:     decimal.NewFromFloat(0.9),
			Reversal:   decimal.NewFromFloat(0.6),
			Exhaustion: decimal.NewFromFloat(0.5),
		},
		TradeStorageLimit:        100,
		MaxConcurrentSessions:    5,
		WatchlistRefreshInterval: 20 * time.Millisecond,
		PositionMonitorInterval:  15 * time.Millisecond,
		OutboundChannelCapacity:  10,
	}
}

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.applyDefaults()

	assert.Equal(t, 20, cfg.MaxConcurrentSessions)
	assert.Equal(t, 900*time.Second, cfg.WatchlistRefreshInterval)
	assert.Equal(t, 60*time.Second, cfg.PositionMonitorInterval)
	assert.Equal(t, 100, cfg.OutboundChannelCapacity)
}

func TestSupervisor_ForwardsAdmittedSignalToExecutor(t *testing.T) {
	cfg := baseConfig()
	watchlist := &fakeWatchlist{page: [][]string{{}}}
	executor := &fakeExecutor{}
	posMon := &fakePositionMonitor{}

	sup := New(cfg, watchlist, executor, posMon, logx.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(done)
	}()

	sig := model.TradingSignal{Symbol: "BTCUSDT", SignalType: model.SignalStrongBuy}
	sup.out <- sig

	require.Eventually(t, func() bool {
		return len(executor.received()) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

func TestSupervisor_TicksPositionMonitor(t *testing.T) {
	cfg := baseConfig()
	watchlist := &fakeWatchlist{page: [][]string{{}}}
	executor := &fakeExecutor{}
	posMon := &fakePositionMonitor{}

	sup := New(cfg, watchlist, executor, posMon, logx.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		posMon.mu.Lock()
		defer posMon.mu.Unlock()
		return posMon.ticks >= 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

func TestSupervisor_ReconcileStartsAndStopsSessions(t *testing.T) {
	cfg := baseConfig()
	watchlist := &fakeWatchlist{page: [][]string{{"BTCUSDT"}, {}}}
	executor := &fakeExecutor{}
	posMon := &fakePositionMonitor{}

	sup := New(cfg, watchlist, executor, posMon, logx.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sup.reconcileWatchlist(ctx)
	sup.mu.Lock()
	_, running := sup.running["BTCUSDT"]
	sup.mu.Unlock()
	assert.True(t, running)

	sup.reconcileWatchlist(ctx)
	sup.mu.Lock()
	_, stillRunning := sup.running["BTCUSDT"]
	sup.mu.Unlock()
	assert.False(t, stillRunning)
}

func TestSupervisor_CapCandidatesToHalf(t *testing.T) {
	cfg := baseConfig()
	cfg.MaxConcurrentSessions = 4
	cfg.CapCandidatesToHalf = true
	watchlist := &fakeWatchlist{page: [][]string{{"A", "B", "C", "D"}}}
	executor := &fakeExecutor{}
	posMon := &fakePositionMonitor{}

	sup := New(cfg, watchlist, executor, posMon, logx.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sup.reconcileWatchlist(ctx)

	sup.mu.Lock()
	count := len(sup.running)
	sup.mu.Unlock()
	assert.Equal(t, 2, count) // capped to MaxConcurrentSessions/2
}
