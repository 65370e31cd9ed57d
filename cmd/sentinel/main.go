// Command sentinel is the hosting binary for the order-flow pipeline: it
// loads configuration, initializes logging, wires a minimal set of
// collaborators, and runs the supervisor until SIGINT/SIGTERM, blocking
// on a cancellable context the whole way through.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/ofisentinel/sentinel/internal/config"
	"github.com/ofisentinel/sentinel/internal/logx"
	"github.com/ofisentinel/sentinel/internal/model"
	ofisignal "github.com/ofisentinel/sentinel/internal/signal"
	"github.com/ofisentinel/sentinel/internal/supervisor"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the pipeline configuration file")
	watchlistEnv := flag.String("watchlist-env", "OFI_WATCHLIST", "env var holding a comma-separated symbol watchlist")
	flag.Parse()

	logger, err := logx.New()
	if err != nil {
		log.Fatalf("sentinel: failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("sentinel: config load failed", zap.Error(err))
		os.Exit(1)
	}

	params := model.StrategyParams{
		ImbalanceThreshold:        cfg.DefaultImbalanceThreshold,
		AbsorptionThreshold:       cfg.DefaultAbsorptionThreshold,
		DeltaThreshold:            cfg.DefaultDeltaThreshold,
		LookbackPeriodMS:          cfg.DefaultLookbackPeriodMS,
		MarketConditionMultiplier: cfg.MarketConditionMultiplier(),
	}
	confidences := ofisignal.Confidences{
		Strong:     cfg.StrongSignalConfidence,
		Reversal:   cfg.ReversalSignalConfidence,
		Exhaustion: cfg.ExhaustionSignalConfidence,
	}

	sup := supervisor.New(
		supervisor.Config{
			WebsocketURL:             cfg.WebsocketURL,
			Params:                   params,
			Confidences:              confidences,
			TradeStorageLimit:        cfg.TradeStorageLimit,
			MaxConcurrentSessions:    cfg.MaxConcurrentWebsocketConnections,
			CapCandidatesToHalf:      true,
			WatchlistRefreshInterval: 0, // defaults to 900s
			PositionMonitorInterval:  0, // defaults to 60s
		},
		newEnvWatchlist(*watchlistEnv),
		newLoggingExecutor(logger),
		newLoggingPositionMonitor(logger),
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		logger.Info("sentinel: shutdown signal received")
		cancel()
	}()

	logger.Info("sentinel: starting supervisor", zap.String("websocket_url", cfg.WebsocketURL))
	sup.Run(ctx)
	logger.Info("sentinel: supervisor stopped")
}

// parseWatchlist splits a comma-separated symbol list, trimming blanks.
func parseWatchlist(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
