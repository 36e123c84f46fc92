package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/andrewbyteforge/dexsniper/internal/domain"
	"github.com/andrewbyteforge/dexsniper/internal/ports"
	"github.com/andrewbyteforge/dexsniper/internal/strategy"
)

// SchedulerConfig tunes the four background loops.
type SchedulerConfig struct {
	ScanInterval     time.Duration
	PositionInterval time.Duration
	RiskInterval     time.Duration
	OptimizeInterval time.Duration
	Networks         []string
	Workers          int // evaluation worker pool size; <=0 = 2×NumCPU
}

// Scheduler owns the four periodic loops (scan, positions, risk, optimize)
// and the shared cancellation that stops them. Loop bodies recover their own
// panics: one bad cycle never takes down a sibling loop.
type Scheduler struct {
	cfg        SchedulerConfig
	mode       domain.ExecutionMode
	sessionID  string
	evaluators []strategy.Evaluator
	markets    ports.MarketData
	store      *OpportunityStore
	coord      *Coordinator
	positions  *PositionManager
	sessions   *SessionManager
	trades     ports.TradeStore
	notifier   ports.Notifier
	events     *Events

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewScheduler wires the orchestrator. The opportunity store, managers, and
// coordinator are owned by the scheduler's lifecycle: constructed with it,
// drained on Stop.
func NewScheduler(
	cfg SchedulerConfig,
	mode domain.ExecutionMode,
	sessionID string,
	evaluators []strategy.Evaluator,
	markets ports.MarketData,
	store *OpportunityStore,
	coord *Coordinator,
	positions *PositionManager,
	sessions *SessionManager,
	trades ports.TradeStore,
	notifier ports.Notifier,
	events *Events,
) *Scheduler {
	if cfg.ScanInterval <= 0 {
		cfg.ScanInterval = 15 * time.Second
	}
	if cfg.PositionInterval <= 0 {
		cfg.PositionInterval = 15 * time.Second
	}
	if cfg.RiskInterval <= 0 {
		cfg.RiskInterval = 60 * time.Second
	}
	if cfg.OptimizeInterval <= 0 {
		cfg.OptimizeInterval = time.Hour
	}
	return &Scheduler{
		cfg:        cfg,
		mode:       mode,
		sessionID:  sessionID,
		evaluators: evaluators,
		markets:    markets,
		store:      store,
		coord:      coord,
		positions:  positions,
		sessions:   sessions,
		trades:     trades,
		notifier:   notifier,
		events:     events,
	}
}

// Start launches the four loops against a child of ctx. Calling Start on a
// running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.running = true

	s.spawn(ctx, "scan", s.cfg.ScanInterval, s.scanCycle, true)
	s.spawn(ctx, "positions", s.cfg.PositionInterval, s.positionCycle, false)
	s.spawn(ctx, "risk", s.cfg.RiskInterval, s.riskCycle, false)
	s.spawn(ctx, "optimize", s.cfg.OptimizeInterval, s.optimizeCycle, false)

	slog.Info("scheduler started",
		"scan_interval", s.cfg.ScanInterval,
		"position_interval", s.cfg.PositionInterval,
		"risk_interval", s.cfg.RiskInterval,
		"optimize_interval", s.cfg.OptimizeInterval,
		"networks", s.cfg.Networks,
		"mode", s.mode,
	)
}

// RunOnce executes a single scan cycle synchronously, without starting the
// background loops. Used by the -once CLI mode.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.runSafe(ctx, "scan", s.scanCycle)
}

// Stop cancels all loops and blocks until they have drained. In-flight
// external calls finish or hit their own timeouts before this returns.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	slog.Info("scheduler stopped")
}

// spawn runs fn on a ticker until ctx is done. immediate runs one cycle
// before the first tick so a fresh start scans right away.
func (s *Scheduler) spawn(ctx context.Context, name string, interval time.Duration, fn func(context.Context), immediate bool) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		if immediate {
			s.runSafe(ctx, name, fn)
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				slog.Debug("loop exiting", "loop", name)
				return
			case <-ticker.C:
				s.runSafe(ctx, name, fn)
			}
		}
	}()
}

// runSafe isolates one loop body: a panic is logged and the loop keeps
// ticking instead of crashing siblings.
func (s *Scheduler) runSafe(ctx context.Context, name string, fn func(context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("loop panic recovered", "loop", name, "panic", r)
		}
	}()
	fn(ctx)
}
