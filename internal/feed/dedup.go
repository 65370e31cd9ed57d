package feed

import (
	"sync"
	"time"

	"github.com/ofisentinel/sentinel/internal/model"
)

// dedupWindow is the rolling window within which at most one signal per
// (symbol, type) is admitted.
const dedupWindow = 5 * time.Second

type dedupKey struct {
	symbol     string
	signalType model.SignalType
}

// DedupGate is private to a single FeedSession and never shared across
// sessions, so a plain mutex-guarded map is enough here rather than
// reaching for a TTL-cache library for something this small and
// short-lived.
type DedupGate struct {
	mu   sync.Mutex
	last map[dedupKey]time.Time
}

// NewDedupGate creates an empty gate.
func NewDedupGate() *DedupGate {
	return &DedupGate{last: make(map[dedupKey]time.Time)}
}

// Admit evicts entries older than the rolling window, then admits the
// candidate if (symbol, signalType) is not already present, recording now
// against it. The NoSignal type is never passed through the gate by
// callers and has no special handling here.
func (g *DedupGate) Admit(symbol string, signalType model.SignalType, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	for k, t := range g.last {
		if now.Sub(t) > dedupWindow {
			delete(g.last, k)
		}
	}

	key := dedupKey{symbol: symbol, signalType: signalType}
	if _, seen := g.last[key]; seen {
		return false
	}
	g.last[key] = now
	return true
}
