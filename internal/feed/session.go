// Package feed implements FeedSession: one live venue connection scoped
// to a single symbol, driving an Engine and emitting deduplicated
// TradingSignals. It cycles through an explicit
// Idle->Connecting->Subscribed->Streaming->Closing->Backoff state machine
// with a fixed 5s reconnect backoff and Bitget-shaped book/trade push
// messages.
package feed

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ofisentinel/sentinel/internal/engine"
	"github.com/ofisentinel/sentinel/internal/errs"
	"github.com/ofisentinel/sentinel/internal/logx"
	"github.com/ofisentinel/sentinel/internal/model"
)

// State is the FeedSession's lifecycle state, exposed for observability
// and tests; it plays no role in dispatch logic beyond what Run already
// encodes in its control flow.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateSubscribed
	StateStreaming
	StateClosing
	StateBackoff
)

const (
	connectTimeout    = 10 * time.Second
	subscribeTimeout  = 10 * time.Second
	pingInterval      = 25 * time.Second
	inactivityTimeout = 120 * time.Second
	analyzeTimeout    = 10 * time.Second
	signalSendTimeout = 5 * time.Second
	backoffDuration   = 5 * time.Second
)

// FeedSession owns one venue connection for one symbol.
type FeedSession struct {
	Symbol string
	URL    string

	engine *engine.Engine
	out    chan<- model.TradingSignal
	logger *logx.Logger
	dedup  *DedupGate

	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	state    atomic.Int32
}

// NewSession constructs a FeedSession. out is the supervisor's shared
// outbound signal channel; the session never closes it.
func NewSession(symbol, url string, eng *engine.Engine, out chan<- model.TradingSignal, logger *logx.Logger) *FeedSession {
	return &FeedSession{
		Symbol: symbol,
		URL:    url,
		engine: eng,
		out:    out,
		logger: logger,
		dedup:  NewDedupGate(),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// State returns the session's current lifecycle state.
func (s *FeedSession) State() State {
	return State(s.state.Load())
}

func (s *FeedSession) setState(st State) {
	s.state.Store(int32(st))
}

// Stop requests the session to break out of its current state without
// attempting further reconnects. Idempotent.
func (s *FeedSession) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// Done returns a channel closed once Run has returned, letting the
// supervisor await termination with its own timeout.
func (s *FeedSession) Done() <-chan struct{} {
	return s.done
}

// Run drives the Idle -> Connecting -> Subscribed -> Streaming -> Closing
// -> Backoff -> Connecting cycle until ctx is cancelled or Stop is
// called, at which point it returns without attempting a further
// reconnect.
func (s *FeedSession) Run(ctx context.Context) {
	defer close(s.done)
	defer s.setState(StateIdle)

	for {
		if s.stopping(ctx) {
			return
		}

		s.setState(StateConnecting)
		conn, err := s.connect(ctx)
		if err != nil {
			s.logger.Warn("feed: connect failed", zap.String("symbol", s.Symbol), zap.Error(err))
			if !s.sleep(ctx, backoffDuration) {
				return
			}
			continue
		}

		s.setState(StateSubscribed)
		if err := s.subscribe(conn); err != nil {
			s.logger.Warn("feed: subscribe failed", zap.String("symbol", s.Symbol), zap.Error(err))
			conn.Close()
			if !s.sleep(ctx, backoffDuration) {
				return
			}
			continue
		}

		s.setState(StateStreaming)
		streamErr := s.stream(ctx, conn)
		s.setState(StateClosing)
		conn.Close()
		if streamErr != nil {
			s.logger.Warn("feed: stream ended", zap.String("symbol", s.Symbol), zap.Error(streamErr))
		}

		if s.stopping(ctx) {
			return
		}

		s.setState(StateBackoff)
		if !s.sleep(ctx, backoffDuration) {
			return
		}
	}
}

func (s *FeedSession) stopping(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	case <-s.stopCh:
		return true
	default:
		return false
	}
}

// sleep waits for d or an early stop/cancellation. Returns false if the
// session should stop rather than continue the reconnect loop.
func (s *FeedSession) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	case <-s.stopCh:
		return false
	}
}

func (s *FeedSession) connect(ctx context.Context) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", errs.ErrTransientNetwork, s.URL, err)
	}
	return conn, nil
}

func (s *FeedSession) subscribe(conn *websocket.Conn) error {
	frame, err := buildSubscribeFrame(s.Symbol)
	if err != nil {
		return fmt.Errorf("%w: build subscribe frame: %v", errs.ErrTransientNetwork, err)
	}

	if err := conn.SetWriteDeadline(time.Now().Add(subscribeTimeout)); err != nil {
		return fmt.Errorf("%w: set write deadline: %v", errs.ErrTransientNetwork, err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("%w: send subscribe frame: %v", errs.ErrTransientNetwork, err)
	}
	return nil
}

// stream drives the Streaming state: reads venue frames on a background
// goroutine, dispatches them, sends liveness pings every 25s, and fails
// the session after 120s with no inbound frame.
func (s *FeedSession) stream(ctx context.Context, conn *websocket.Conn) error {
	msgCh := make(chan []byte)
	errCh := make(chan error, 1)

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				select {
				case errCh <- err:
				case <-readerDone:
				}
				return
			}
			select {
			case msgCh <- data:
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			}
		}
	}()

	pingTicker := time.NewTicker(pingInterval)
	defer pingTicker.Stop()
	inactivity := time.NewTimer(inactivityTimeout)
	defer inactivity.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.stopCh:
			return nil
		case err := <-errCh:
			return fmt.Errorf("%w: read: %v", errs.ErrTransientNetwork, err)
		case <-inactivity.C:
			return fmt.Errorf("%w: no inbound frame for %s", errs.ErrTransientNetwork, inactivityTimeout)
		case <-pingTicker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(subscribeTimeout)); err != nil {
				return fmt.Errorf("%w: ping write deadline: %v", errs.ErrTransientNetwork, err)
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte("ping")); err != nil {
				return fmt.Errorf("%w: ping: %v", errs.ErrTransientNetwork, err)
			}
		case data := <-msgCh:
			inactivity.Reset(inactivityTimeout)
			s.handleMessage(ctx, data)
		}
	}
}

func (s *FeedSession) handleMessage(ctx context.Context, raw []byte) {
	if isAckFrame(raw) {
		return
	}
	if isErrorFrame(raw) {
		s.logger.Warn("feed: venue error frame", zap.String("symbol", s.Symbol), zap.ByteString("frame", raw))
		return
	}

	env, err := parseEnvelope(raw)
	if err != nil {
		// Frames that fail to decode as a structured push message are
		// treated leniently and simply dropped, same as ack/ping frames.
		s.logger.Warn("feed: unparseable frame", zap.String("symbol", s.Symbol), zap.Error(err))
		return
	}

	now := time.Now().UnixMilli()
	dispatched := false

	switch env.Arg.Channel {
	case "books":
		snapshot, err := parseBookSnapshot(s.Symbol, env.Data, now)
		if err != nil {
			s.logger.Warn("feed: dropping book update", zap.String("symbol", s.Symbol), zap.Error(err))
			return
		}
		s.engine.UpdateBook(snapshot)
		dispatched = true
	case "trade":
		trades, skipped := parseTrades(s.Symbol, env.Data, now)
		for _, skipErr := range skipped {
			s.logger.Warn("feed: skipping malformed trade", zap.String("symbol", s.Symbol), zap.Error(skipErr))
		}
		for _, t := range trades {
			s.engine.AddTrade(t)
		}
		dispatched = len(trades) > 0
	default:
		return
	}

	if dispatched {
		s.analyzeAndEmit(ctx)
	}
}

type analyzeResult struct {
	signal model.TradingSignal
	err    error
}

func (s *FeedSession) analyzeAndEmit(ctx context.Context) {
	resultCh := make(chan analyzeResult, 1)
	go func() {
		sig, err := s.engine.Analyze(s.Symbol)
		resultCh <- analyzeResult{signal: sig, err: err}
	}()

	timer := time.NewTimer(analyzeTimeout)
	defer timer.Stop()

	select {
	case <-timer.C:
		s.logger.Warn("feed: analyze timed out", zap.String("symbol", s.Symbol))
		return
	case r := <-resultCh:
		if r.err != nil {
			return
		}
		if !r.signal.IsActionable() {
			return
		}
		if !s.dedup.Admit(r.signal.Symbol, r.signal.SignalType, time.Now()) {
			return
		}
		if err := s.send(r.signal); err != nil {
			s.logger.Warn("feed: dropping signal", zap.String("symbol", s.Symbol), zap.String("signal_type", string(r.signal.SignalType)), zap.Error(err))
		}
	}
}

// send delivers sig to the shared outbound channel with a 5s timeout. A
// send on a channel the supervisor has closed would panic; recover turns
// that into ErrChannelClosed so the caller can log it uniformly instead
// of crashing the session goroutine.
func (s *FeedSession) send(sig model.TradingSignal) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errs.ErrChannelClosed
		}
	}()

	select {
	case s.out <- sig:
		return nil
	case <-time.After(signalSendTimeout):
		return errs.ErrChannelFull
	}
}
