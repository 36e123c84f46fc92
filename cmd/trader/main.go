package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andrewbyteforge/dexsniper/config"
	"github.com/andrewbyteforge/dexsniper/internal/adapters/dexsim"
	"github.com/andrewbyteforge/dexsniper/internal/adapters/notify"
	"github.com/andrewbyteforge/dexsniper/internal/adapters/storage"
	"github.com/andrewbyteforge/dexsniper/internal/domain"
	"github.com/andrewbyteforge/dexsniper/internal/engine"
	"github.com/andrewbyteforge/dexsniper/internal/strategy"
)

// stopFile halts trading when present next to the binary. An operator can
// touch it to stop the engine without shell access to the process.
const stopFile = "STOP"

const liveAbortWindow = 5 * time.Second

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one scan cycle and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full opportunity/position tables (default: compact 1-line)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	if _, err := os.Stat(stopFile); err == nil {
		slog.Error("STOP file present, refusing to start", "path", stopFile)
		os.Exit(1)
	}

	mode := domain.ExecutionMode(cfg.Trading.ExecutionMode)
	slog.Info("dexsniper starting",
		"config", *configPath,
		"mode", mode,
		"risk_level", cfg.Trading.RiskLevel,
		"networks", cfg.Trading.EnabledNetworks,
		"once", *once,
	)

	if mode == domain.ModeLiveTrading && !confirmLive() {
		slog.Info("live trading aborted by operator")
		return
	}

	if err := run(cfg, mode, *once, *table); err != nil {
		slog.Error("trader exited with error", "err", err)
		os.Exit(1)
	}
	slog.Info("dexsniper stopped cleanly")
}

func run(cfg *config.Config, mode domain.ExecutionMode, once, table bool) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := storage.NewSQLiteStore(cfg.Storage.DSN)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	// Simulated market, executor, and wallet. Live adapters plug in here
	// behind the same ports once a real DEX aggregator client exists.
	market := dexsim.NewMarket(cfg.Sim.MarketSeed, cfg.Trading.EnabledNetworks)
	executor := dexsim.NewExecutor(market)
	wallet := dexsim.NewWallet(cfg.Sim.StartingBalanceUSD)

	walletRef, err := wallet.Connect(ctx, cfg.Trading.WalletAddress, cfg.Trading.EnabledNetworks[0])
	if err != nil {
		return fmt.Errorf("connect wallet: %w", err)
	}
	if ok, err := wallet.VerifyAccess(ctx, walletRef, cfg.Trading.EnabledNetworks[0], cfg.Strategy.OrderSizeUSD); err != nil {
		return fmt.Errorf("verify wallet: %w", err)
	} else if !ok {
		return fmt.Errorf("wallet %s cannot cover order size $%.2f", walletRef, cfg.Strategy.OrderSizeUSD)
	}

	sessions := engine.NewSessionManager()
	session, err := sessions.Start(walletRef, mode, domain.RiskLevel(cfg.Trading.RiskLevel),
		cfg.RiskLimits(), cfg.Trading.PortfolioValueUSD, time.Now())
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	slog.Info("session started", "session", session.ID, "wallet", walletRef)

	breaker, err := store.LoadCircuitBreaker(ctx)
	if err != nil {
		slog.Warn("could not restore circuit breaker, starting fresh", "err", err)
		breaker = domain.CircuitBreaker{}
	}
	if breaker.MaxLosses == 0 {
		breaker.MaxLosses = 3
		breaker.CooldownDuration = 30 * time.Minute
		breaker.MaxDrawdown = -cfg.Risk.MaxDailyLossUSD
	}

	opps := engine.NewOpportunityStore()
	positions := engine.NewPositionManager(cfg.PositionTimeout())
	gate := engine.NewRiskGate(mode)
	events := engine.NewEvents(256)

	coord := engine.NewCoordinator(opps, sessions, positions, gate, executor, store, events, &breaker,
		engine.CoordinatorConfig{
			CallTimeout:       cfg.CallTimeout(),
			SlippagePct:       cfg.Execution.SlippageTolerancePct,
			GasPriceLimitGwei: cfg.Execution.GasPriceLimitGwei,
			StableToken:       cfg.Execution.StableToken,
		})

	kinds, err := cfg.Strategies()
	if err != nil {
		return err
	}
	evaluators := strategy.ForKinds(cfg.StrategyTuning(), kinds)

	sched := engine.NewScheduler(
		engine.SchedulerConfig{
			ScanInterval:     time.Duration(cfg.Scheduler.ScanIntervalSeconds) * time.Second,
			PositionInterval: time.Duration(cfg.Scheduler.PositionIntervalSeconds) * time.Second,
			RiskInterval:     time.Duration(cfg.Scheduler.RiskIntervalSeconds) * time.Second,
			OptimizeInterval: time.Duration(cfg.Scheduler.OptimizeIntervalSeconds) * time.Second,
			Networks:         cfg.Trading.EnabledNetworks,
			Workers:          cfg.Scheduler.Workers,
		},
		mode, session.ID, evaluators, market, opps, coord, positions, sessions,
		store, notify.NewConsole(table), events,
	)

	if once {
		sched.RunOnce(ctx)
		return nil
	}

	sched.Start(ctx)
	consumeEvents(ctx, events, cancel)

	sched.Stop()
	if err := sessions.Stop(session.ID, time.Now()); err != nil {
		slog.Warn("stopping session", "err", err)
	}
	if err := store.SaveCircuitBreaker(context.Background(), coord.BreakerState()); err != nil {
		slog.Warn("persisting circuit breaker", "err", err)
	}

	final, err := sessions.Get(session.ID)
	if err == nil {
		slog.Info("session summary",
			"trades", final.TotalTrades,
			"win_rate", fmt.Sprintf("%.0f%%", final.WinRate()*100),
			"total_pnl_usd", fmt.Sprintf("%.2f", final.TotalPnLUSD),
		)
	}
	return nil
}

// consumeEvents drains the engine event bus until the context is cancelled.
// The STOP file is checked on every event batch as a remote kill switch.
func consumeEvents(ctx context.Context, events *engine.Events, cancel context.CancelFunc) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events.C():
			switch ev.Kind {
			case engine.EventRiskAlert:
				slog.Warn("risk alert", "msg", ev.Message)
			default:
				slog.Debug("event", "kind", ev.Kind, "msg", ev.Message)
			}
		case <-ticker.C:
			if _, err := os.Stat(stopFile); err == nil {
				slog.Warn("STOP file detected, shutting down")
				cancel()
				return
			}
		}
	}
}

// confirmLive gives the operator a short window to abort before real funds
// move. Any input (or EOF) during the window cancels startup.
func confirmLive() bool {
	fmt.Fprintf(os.Stderr, "\n*** LIVE TRADING MODE ***\nreal funds will move; press ENTER within %s to abort\n\n", liveAbortWindow)

	abort := make(chan struct{})
	go func() {
		r := bufio.NewReader(os.Stdin)
		if _, err := r.ReadString('\n'); err == nil {
			close(abort)
		}
	}()

	select {
	case <-abort:
		return false
	case <-time.After(liveAbortWindow):
		return true
	}
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
