// Package collaborator defines the three external, function-shaped
// collaborators the supervisor consumes: a watchlist producer, a signal
// executor, and a position monitor. Each is a plain Go interface — any
// transport (in-process, IPC, RPC) that satisfies one is a valid
// implementation.
package collaborator

import (
	"context"

	"github.com/ofisentinel/sentinel/internal/model"
)

// ExecutionStatus is the collaborator-side result status.
type ExecutionStatus string

const (
	StatusOK    ExecutionStatus = "ok"
	StatusError ExecutionStatus = "error"
)

// ExecutionResult is the uniform result shape returned by SignalExecutor
// and PositionMonitor.
type ExecutionResult struct {
	Status ExecutionStatus
	Reason string
}

// WatchlistProducer returns the current candidate symbol set. On error,
// the supervisor keeps the previously known set unchanged.
type WatchlistProducer interface {
	Candidates(ctx context.Context) ([]string, error)
}

// SignalExecutor receives an admitted, deduplicated TradingSignal.
// Invoked per admitted signal, fire-and-forget from the supervisor's
// perspective: its failures are logged and never stall the supervisor.
type SignalExecutor interface {
	Execute(ctx context.Context, signal model.TradingSignal) (ExecutionResult, error)
}

// PositionMonitor is invoked on a fixed 60s cadence with a bounded
// deadline; failures are logged and ignored.
type PositionMonitor interface {
	Tick(ctx context.Context) (ExecutionResult, error)
}
