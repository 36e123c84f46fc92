package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/andrewbyteforge/dexsniper/internal/domain"
	"github.com/andrewbyteforge/dexsniper/internal/ports"
)

// CoordinatorConfig tunes the execution pipeline.
type CoordinatorConfig struct {
	CallTimeout       time.Duration // per external call (quote, swap)
	SlippagePct       float64
	GasPriceLimitGwei float64
	StableToken       string // quote currency for entries/exits, e.g. USDC
}

// Coordinator claims an opportunity exactly once, runs it through the risk
// gate, executes via the external QuoteExecutor, and records the outcome.
// One successful call produces exactly one TradeRecord; a failed call
// produces none.
type Coordinator struct {
	store     *OpportunityStore
	sessions  *SessionManager
	positions *PositionManager
	gate      *RiskGate
	executor  ports.QuoteExecutor
	trades    ports.TradeStore
	events    *Events
	cfg       CoordinatorConfig

	breakerMu sync.Mutex
	breaker   *domain.CircuitBreaker

	sizingMu sync.Mutex
	sizing   float64 // multiplier applied to recommended sizes, tuned by the optimize loop
}

// NewCoordinator wires the execution pipeline. breaker may be nil to disable
// circuit breaking (tests).
func NewCoordinator(
	store *OpportunityStore,
	sessions *SessionManager,
	positions *PositionManager,
	gate *RiskGate,
	executor ports.QuoteExecutor,
	trades ports.TradeStore,
	events *Events,
	breaker *domain.CircuitBreaker,
	cfg CoordinatorConfig,
) *Coordinator {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 10 * time.Second
	}
	if cfg.StableToken == "" {
		cfg.StableToken = "USDC"
	}
	return &Coordinator{
		store:     store,
		sessions:  sessions,
		positions: positions,
		gate:      gate,
		executor:  executor,
		trades:    trades,
		events:    events,
		breaker:   breaker,
		cfg:       cfg,
		sizing:    1.0,
	}
}

// SetSizingMultiplier scales recommended trade sizes; the optimize loop
// feeds this from recent performance. Clamped to [0.25, 2].
func (c *Coordinator) SetSizingMultiplier(m float64) {
	if m < 0.25 {
		m = 0.25
	}
	if m > 2 {
		m = 2
	}
	c.sizingMu.Lock()
	c.sizing = m
	c.sizingMu.Unlock()
}

// SizingMultiplier returns the current size multiplier.
func (c *Coordinator) SizingMultiplier() float64 {
	c.sizingMu.Lock()
	defer c.sizingMu.Unlock()
	return c.sizing
}

// BreakerState returns a copy of the circuit breaker state.
func (c *Coordinator) BreakerState() domain.CircuitBreaker {
	c.breakerMu.Lock()
	defer c.breakerMu.Unlock()
	if c.breaker == nil {
		return domain.CircuitBreaker{}
	}
	return *c.breaker
}

// TryExecute runs one opportunity through the full pipeline:
// claim → session gate → risk gate → quote → swap → record.
// Each step is a hard gate. The claim is released on every failure except a
// swap timeout, whose on-chain fate is unknown — keeping the claim prevents
// a duplicate submission until a reconciliation step can decide.
func (c *Coordinator) TryExecute(ctx context.Context, oppID, sessionID string, overrideAmount float64) (domain.TradeRecord, error) {
	now := time.Now().UTC()

	opp, err := c.store.Claim(oppID, now)
	if err != nil {
		return domain.TradeRecord{}, err
	}

	// CanTradeToday rolls the day and re-reads the counters under the
	// session lock, so a losing close racing this call cannot leave a stale
	// approval behind. The copy is fetched after the roll for the same reason.
	canTrade, err := c.sessions.CanTradeToday(sessionID, now)
	if err != nil {
		c.store.Release(oppID)
		return domain.TradeRecord{}, err
	}

	session, err := c.sessions.Get(sessionID)
	if err != nil {
		c.store.Release(oppID)
		return domain.TradeRecord{}, err
	}
	if !session.IsActive {
		c.store.Release(oppID)
		return domain.TradeRecord{}, domain.ErrSessionInactive
	}
	if !canTrade {
		c.store.Release(oppID)
		return domain.TradeRecord{}, &domain.RiskViolation{
			Rule: "daily_loss_cap",
			Message: fmt.Sprintf("daily loss $%.2f has reached the $%.2f cap",
				session.DailyLossUSD, session.Limits.MaxDailyLossUSD),
		}
	}

	if !c.breakerAllows() {
		c.store.Release(oppID)
		return domain.TradeRecord{}, &domain.RiskViolation{
			Rule:    "circuit_breaker",
			Message: "circuit breaker is open, trading paused",
		}
	}

	amount := overrideAmount
	if amount <= 0 {
		amount = opp.Size * c.SizingMultiplier()
	}

	if err := c.gate.ApproveEntry(opp, session, amount, c.positions.Count(), now); err != nil {
		c.store.Release(oppID)
		slog.Debug("entry rejected by risk gate",
			"opportunity", oppID, "strategy", opp.Strategy, "err", err)
		return domain.TradeRecord{}, err
	}

	quote, err := c.getQuote(ctx, ports.QuoteRequest{
		InputToken:  c.cfg.StableToken,
		OutputToken: opp.Token,
		Amount:      amount,
		Network:     opp.Network,
		DEX:         opp.BuyDEX,
		SlippagePct: c.cfg.SlippagePct,
	})
	if err != nil {
		// Nothing was submitted on-chain: safe to fail the claim outright.
		c.store.Release(oppID)
		return domain.TradeRecord{}, &domain.ExecutionError{Stage: "quote", Err: err}
	}

	result, err := c.executeSwap(ctx, quote.QuoteID, session.WalletRef)
	if err != nil {
		if errors.Is(err, domain.ErrExecutionTimeout) {
			// The swap may have landed. Keep the claim so nobody re-submits;
			// the entry stays terminal until reconciled out-of-band.
			slog.Warn("swap timed out, keeping claim to prevent duplicate submission",
				"opportunity", oppID, "quote", quote.QuoteID)
			return domain.TradeRecord{}, &domain.ExecutionError{Stage: "swap", Err: domain.ErrExecutionTimeout}
		}
		c.store.Release(oppID)
		return domain.TradeRecord{}, &domain.ExecutionError{Stage: "swap", Err: err}
	}

	rec := domain.TradeRecord{
		ID:            uuid.New().String(),
		OpportunityID: opp.ID,
		SessionID:     sessionID,
		WalletRef:     session.WalletRef,
		Strategy:      opp.Strategy,
		Token:         opp.Token,
		Network:       opp.Network,
		Side:          "BUY",
		InputAmount:   result.InputAmount,
		OutputAmount:  result.OutputAmount,
		GasCostUSD:    result.GasCostUSD,
		Success:       true,
		ExecutedAt:    now,
	}
	if result.OutputAmount > 0 {
		rec.RealizedPrice = result.InputAmount / result.OutputAmount
	}

	pos := c.positions.Open(opp, rec, now)
	rec.PositionID = pos.ID

	if _, err := c.sessions.RecordTrade(sessionID, rec, 0, now); err != nil {
		slog.Warn("failed to record trade on session", "session", sessionID, "err", err)
	}
	if err := c.trades.SaveTrade(ctx, rec); err != nil {
		slog.Warn("failed to persist trade record", "trade", rec.ID, "err", err)
	}
	c.store.MarkExecuted(oppID)

	c.events.Publish(Event{
		Kind:        EventTradeExecuted,
		Message:     fmt.Sprintf("%s %s on %s: $%.2f in, %.6f out", opp.Strategy, opp.Token, opp.Network, rec.InputAmount, rec.OutputAmount),
		Opportunity: &opp,
		Trade:       &rec,
	})

	slog.Info("trade executed",
		"opportunity", opp.ID,
		"strategy", opp.Strategy,
		"token", opp.Token,
		"amount", fmt.Sprintf("$%.2f", rec.InputAmount),
		"price", rec.RealizedPrice,
		"gas", fmt.Sprintf("$%.2f", rec.GasCostUSD),
	)
	return rec, nil
}

// ClosePosition sells the position back to the stable token and records the
// realized P&L on the session. On executor failure the position stays open
// and the position loop retries on its next tick.
func (c *Coordinator) ClosePosition(ctx context.Context, positionID string, reason domain.ExitReason) (domain.ClosedPosition, error) {
	now := time.Now().UTC()

	pos, ok := c.positions.Get(positionID)
	if !ok {
		return domain.ClosedPosition{}, domain.ErrPositionNotFound
	}
	session, err := c.sessions.Get(pos.SessionID)
	if err != nil {
		return domain.ClosedPosition{}, err
	}
	reason = c.gate.ApproveExit(reason)

	quote, err := c.getQuote(ctx, ports.QuoteRequest{
		InputToken:  pos.Token,
		OutputToken: c.cfg.StableToken,
		Amount:      pos.Size,
		Network:     pos.Network,
		SlippagePct: c.cfg.SlippagePct,
	})
	if err != nil {
		return domain.ClosedPosition{}, &domain.ExecutionError{Stage: "quote", Err: err}
	}

	result, err := c.executeSwap(ctx, quote.QuoteID, session.WalletRef)
	if err != nil {
		return domain.ClosedPosition{}, &domain.ExecutionError{Stage: "swap", Err: err}
	}

	exitPrice := pos.CurrentPrice
	if pos.Size > 0 {
		exitPrice = result.OutputAmount / pos.Size
	}

	closed, err := c.positions.Close(positionID, reason, exitPrice, now)
	if err != nil {
		return domain.ClosedPosition{}, err
	}
	realized := closed.RealizedPnL - result.GasCostUSD
	closed.RealizedPnL = realized

	rec := domain.TradeRecord{
		ID:             uuid.New().String(),
		OpportunityID:  pos.OpportunityID,
		SessionID:      pos.SessionID,
		WalletRef:      session.WalletRef,
		PositionID:     pos.ID,
		Strategy:       pos.Strategy,
		Token:          pos.Token,
		Network:        pos.Network,
		Side:           "SELL",
		InputAmount:    pos.Size,
		OutputAmount:   result.OutputAmount,
		RealizedPrice:  exitPrice,
		GasCostUSD:     result.GasCostUSD,
		RealizedPnLUSD: realized,
		Success:        true,
		ExecutedAt:     now,
	}

	if _, err := c.sessions.RecordTrade(pos.SessionID, rec, realized, now); err != nil {
		slog.Warn("failed to record close on session", "session", pos.SessionID, "err", err)
	}
	if err := c.trades.SaveTrade(ctx, rec); err != nil {
		slog.Warn("failed to persist close record", "trade", rec.ID, "err", err)
	}

	c.feedBreaker(realized)

	c.events.Publish(Event{
		Kind:     EventPositionClosed,
		Message:  fmt.Sprintf("%s closed (%s): P&L $%.2f", pos.Token, reason, realized),
		Position: &closed,
	})

	slog.Info("position closed",
		"position", pos.ID,
		"token", pos.Token,
		"reason", reason,
		"entry", pos.EntryPrice,
		"exit", exitPrice,
		"pnl", fmt.Sprintf("$%.2f", realized),
	)
	return closed, nil
}

// getQuote calls the executor with the configured per-call timeout.
func (c *Coordinator) getQuote(ctx context.Context, req ports.QuoteRequest) (domain.Quote, error) {
	qctx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()
	quote, err := c.executor.GetQuote(qctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.Quote{}, domain.ErrExecutionTimeout
		}
		return domain.Quote{}, err
	}
	return quote, nil
}

// executeSwap calls the executor with the configured per-call timeout,
// normalizing deadline errors to ErrExecutionTimeout.
func (c *Coordinator) executeSwap(ctx context.Context, quoteID, walletRef string) (domain.SwapResult, error) {
	sctx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()
	result, err := c.executor.ExecuteSwap(sctx, quoteID, walletRef, c.cfg.GasPriceLimitGwei)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.SwapResult{}, domain.ErrExecutionTimeout
		}
		return domain.SwapResult{}, err
	}
	return result, nil
}

func (c *Coordinator) breakerAllows() bool {
	c.breakerMu.Lock()
	defer c.breakerMu.Unlock()
	return c.breaker == nil || c.breaker.Allows()
}

func (c *Coordinator) feedBreaker(realized float64) {
	c.breakerMu.Lock()
	defer c.breakerMu.Unlock()
	if c.breaker == nil {
		return
	}
	if realized < 0 {
		c.breaker.RecordLoss(realized)
	} else {
		c.breaker.RecordWin(realized)
	}
}
