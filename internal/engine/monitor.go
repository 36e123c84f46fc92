package engine

// monitor.go — the position, risk, and optimize loops.

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/andrewbyteforge/dexsniper/internal/domain"
)

// positionCycle reprices every open position against fresh snapshots and
// closes the ones that hit an exit condition.
func (s *Scheduler) positionCycle(ctx context.Context) {
	open := s.positions.Snapshot()
	if len(open) == 0 {
		return
	}

	prices := s.currentPrices(ctx)
	now := time.Now().UTC()

	for _, pos := range open {
		price, ok := prices[priceKey(pos.Token, pos.Network)]
		if !ok {
			slog.Debug("no fresh price for position", "position", pos.ID, "token", pos.Token)
			continue
		}

		updated, err := s.positions.Reprice(pos.ID, price, now)
		if err != nil {
			// Closed by a concurrent path between Snapshot and Reprice.
			continue
		}

		reason, exit := s.positions.CheckExit(updated, now)
		if !exit {
			continue
		}
		if _, err := s.coord.ClosePosition(ctx, updated.ID, reason); err != nil {
			slog.Warn("position close failed, will retry next tick",
				"position", updated.ID, "reason", reason, "err", err)
		}
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyPositions(ctx, s.positions.Snapshot()); err != nil {
			slog.Warn("notifier error", "err", err)
		}
	}
}

// currentPrices builds a token→price view from the latest snapshots.
func (s *Scheduler) currentPrices(ctx context.Context) map[string]float64 {
	prices := make(map[string]float64)
	for _, network := range s.cfg.Networks {
		snaps, err := s.markets.Snapshots(ctx, network)
		if err != nil {
			slog.Warn("snapshot fetch failed", "network", network, "err", err)
			continue
		}
		for _, snap := range snaps {
			prices[priceKey(snap.Token, snap.Network)] = snap.Price
		}
	}
	return prices
}

func priceKey(token, network string) string { return network + "/" + token }

// riskCycle assesses portfolio-level risk, emits alerts, persists breaker
// state, and writes the day's ledger row.
func (s *Scheduler) riskCycle(ctx context.Context) {
	session, err := s.sessions.Get(s.sessionID)
	if err != nil {
		slog.Warn("risk cycle: session lookup failed", "err", err)
		return
	}

	invested := s.positions.TotalInvested()
	unrealized := s.positions.UnrealizedPnL()

	// Daily loss approaching the cap.
	if lossCap := session.Limits.MaxDailyLossUSD; lossCap > 0 && session.DailyLossUSD >= lossCap*0.8 {
		s.alert(fmt.Sprintf("daily loss $%.2f at %.0f%% of the $%.2f cap",
			session.DailyLossUSD, session.DailyLossUSD/lossCap*100, lossCap))
	}

	// Drawdown against the portfolio.
	if session.Limits.MaxDrawdownPct > 0 && session.PortfolioValueUSD > 0 {
		ddPct := -(session.TotalPnLUSD + unrealized) / session.PortfolioValueUSD * 100
		if ddPct >= session.Limits.MaxDrawdownPct {
			s.alert(fmt.Sprintf("drawdown %.1f%% breached the %.1f%% limit",
				ddPct, session.Limits.MaxDrawdownPct))
		}
	}

	// Concentration per token.
	if session.Limits.MaxConcentrationPct > 0 && invested > 0 {
		perToken := make(map[string]float64)
		for _, pos := range s.positions.Snapshot() {
			perToken[pos.Token] += pos.InvestedUSD
		}
		for token, amt := range perToken {
			if pct := amt / invested * 100; pct > session.Limits.MaxConcentrationPct {
				s.alert(fmt.Sprintf("%s holds %.1f%% of deployed capital, limit %.1f%%",
					token, pct, session.Limits.MaxConcentrationPct))
			}
		}
	}

	breaker := s.coord.BreakerState()
	if !breaker.Allows() {
		s.alert("circuit breaker open: " + breaker.TriggeredReason)
	}
	if err := s.trades.SaveCircuitBreaker(ctx, breaker); err != nil {
		slog.Warn("failed to persist circuit breaker", "err", err)
	}

	now := time.Now().UTC()
	summary := domain.DailySummary{
		Date:            domain.DateOf(now),
		SessionID:       session.ID,
		Trades:          session.DailyTrades,
		OpenPositions:   s.positions.Count(),
		CapitalDeployed: invested,
	}
	for _, closed := range s.positions.ClosedHistory() {
		if !domain.DateOf(closed.ClosedAt).Equal(summary.Date) {
			continue
		}
		summary.RealizedPnLUSD += closed.RealizedPnL
		if closed.RealizedPnL >= 0 {
			summary.Wins++
		} else {
			summary.Losses++
		}
	}
	if recs, err := s.trades.History(ctx, session.WalletRef, 200); err == nil {
		for _, rec := range recs {
			if domain.DateOf(rec.ExecutedAt).Equal(summary.Date) {
				summary.GasCostUSD += rec.GasCostUSD
			}
		}
	} else {
		slog.Warn("risk cycle: trade history unavailable", "err", err)
	}
	if err := s.trades.SaveDailySummary(ctx, summary); err != nil {
		slog.Warn("failed to persist daily summary", "err", err)
	}

	slog.Debug("risk cycle complete",
		"open_positions", s.positions.Count(),
		"invested", fmt.Sprintf("$%.2f", invested),
		"unrealized_pnl", fmt.Sprintf("$%.2f", unrealized),
		"daily_loss", fmt.Sprintf("$%.2f", session.DailyLossUSD),
	)
}

func (s *Scheduler) alert(msg string) {
	slog.Warn("risk alert", "msg", msg)
	s.events.Publish(Event{Kind: EventRiskAlert, Message: msg})
}

// optimizeCycle retunes the sizing multiplier from recent performance with a
// half-Kelly fraction. Too little history keeps sizing at neutral.
func (s *Scheduler) optimizeCycle(ctx context.Context) {
	session, err := s.sessions.Get(s.sessionID)
	if err != nil {
		return
	}

	history, err := s.trades.History(ctx, session.WalletRef, 50)
	if err != nil {
		slog.Warn("optimize cycle: trade history unavailable", "err", err)
		return
	}

	var wins, losses int
	var winSum, lossSum float64
	for _, rec := range history {
		if rec.Side != "SELL" {
			continue
		}
		if rec.RealizedPnLUSD >= 0 {
			wins++
			winSum += rec.RealizedPnLUSD
		} else {
			losses++
			lossSum += -rec.RealizedPnLUSD
		}
	}

	closedTotal := wins + losses
	if closedTotal < 5 {
		slog.Debug("optimize cycle: not enough closed trades", "closed", closedTotal)
		return
	}

	p := float64(wins) / float64(closedTotal)
	q := 1 - p
	avgWin := winSum / maxf(float64(wins), 1)
	avgLoss := lossSum / maxf(float64(losses), 1)
	if avgLoss <= 0 {
		avgLoss = 1
	}
	b := avgWin / avgLoss

	// Half-Kelly: full Kelly overbets badly when p and b are estimates.
	kelly := (p*b - q) / maxf(b, 0.01) / 2
	multiplier := clampf(kelly*2.5, 0.25, 2)
	s.coord.SetSizingMultiplier(multiplier)

	slog.Info("optimize cycle complete",
		"closed_trades", closedTotal,
		"win_rate", fmt.Sprintf("%.0f%%", p*100),
		"payoff_ratio", fmt.Sprintf("%.2f", b),
		"sizing_multiplier", fmt.Sprintf("%.2f", multiplier),
	)
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
