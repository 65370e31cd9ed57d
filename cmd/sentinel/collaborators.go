package main

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/ofisentinel/sentinel/internal/collaborator"
	"github.com/ofisentinel/sentinel/internal/logx"
	"github.com/ofisentinel/sentinel/internal/model"
)

// envWatchlist is the simplest possible WatchlistProducer: a static list
// read once from an environment variable at construction time. A real
// deployment would replace this with an RPC or IPC-backed producer; the
// core only depends on the collaborator.WatchlistProducer interface.
type envWatchlist struct {
	symbols []string
}

func newEnvWatchlist(envVar string) *envWatchlist {
	return &envWatchlist{symbols: parseWatchlist(os.Getenv(envVar))}
}

func (w *envWatchlist) Candidates(ctx context.Context) ([]string, error) {
	return w.symbols, nil
}

// loggingExecutor logs every admitted signal instead of forwarding it to
// a real order-execution system — a stand-in SignalExecutor for running
// the supervisor standalone.
type loggingExecutor struct {
	logger *logx.Logger
}

func newLoggingExecutor(logger *logx.Logger) *loggingExecutor {
	return &loggingExecutor{logger: logger}
}

func (e *loggingExecutor) Execute(ctx context.Context, sig model.TradingSignal) (collaborator.ExecutionResult, error) {
	e.logger.Info("executor: signal received",
		zap.String("symbol", sig.Symbol),
		zap.String("signal_type", string(sig.SignalType)),
		zap.String("price", sig.Price.String()),
		zap.String("confidence", sig.Confidence.String()),
		zap.String("reason", sig.Reason),
	)
	return collaborator.ExecutionResult{Status: collaborator.StatusOK}, nil
}

// loggingPositionMonitor is a stand-in PositionMonitor for running the
// supervisor standalone.
type loggingPositionMonitor struct {
	logger *logx.Logger
}

func newLoggingPositionMonitor(logger *logx.Logger) *loggingPositionMonitor {
	return &loggingPositionMonitor{logger: logger}
}

func (m *loggingPositionMonitor) Tick(ctx context.Context) (collaborator.ExecutionResult, error) {
	m.logger.Debug("position monitor: tick")
	return collaborator.ExecutionResult{Status: collaborator.StatusOK}, nil
}
