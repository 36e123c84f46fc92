package engine

import (
	"fmt"
	"time"

	"github.com/andrewbyteforge/dexsniper/internal/domain"
)

// veryHighRisk is the risk-score line above which an opportunity needs an
// aggressive execution mode to pass the gate.
const veryHighRisk = 0.8

// RiskGate validates proposed entries against the session's limits. It never
// partially approves: the first violated rule comes back as a RiskViolation
// and nothing else is evaluated.
type RiskGate struct {
	mode domain.ExecutionMode
}

// NewRiskGate creates a gate for the given execution mode.
func NewRiskGate(mode domain.ExecutionMode) *RiskGate {
	return &RiskGate{mode: mode}
}

// ApproveEntry checks, in order: daily loss headroom, single-trade cap,
// position-size share of portfolio, concurrent position cap, risk-level vs
// execution mode, minimum liquidity, volatility ceiling, and confidence
// floor. A nil return is a full approval.
func (g *RiskGate) ApproveEntry(opp domain.Opportunity, session domain.TradingSession, amount float64, openPositions int, now time.Time) error {
	limits := session.Limits

	if !session.CanTradeToday(now) {
		return &domain.RiskViolation{
			Rule: "daily_loss_cap",
			Message: fmt.Sprintf("daily loss $%.2f has reached the $%.2f cap",
				session.DailyLossUSD, limits.MaxDailyLossUSD),
		}
	}

	if limits.MaxSingleTradeUSD > 0 && amount > limits.MaxSingleTradeUSD {
		return &domain.RiskViolation{
			Rule:    "max_single_trade",
			Message: fmt.Sprintf("proposed $%.2f exceeds per-trade limit $%.2f", amount, limits.MaxSingleTradeUSD),
		}
	}

	if limits.MaxPositionSizePct > 0 && session.PortfolioValueUSD > 0 {
		pct := amount / session.PortfolioValueUSD * 100
		if pct > limits.MaxPositionSizePct {
			return &domain.RiskViolation{
				Rule: "position_size_pct",
				Message: fmt.Sprintf("proposed $%.2f is %.1f%% of portfolio, limit %.1f%%",
					amount, pct, limits.MaxPositionSizePct),
			}
		}
	}

	if limits.MaxConcurrentPositions > 0 && openPositions >= limits.MaxConcurrentPositions {
		return &domain.RiskViolation{
			Rule: "concurrent_positions",
			Message: fmt.Sprintf("%d positions open, limit %d",
				openPositions, limits.MaxConcurrentPositions),
		}
	}

	if opp.RiskScore > veryHighRisk && !g.allowsVeryHighRisk() {
		return &domain.RiskViolation{
			Rule: "risk_mode",
			Message: fmt.Sprintf("risk score %.2f needs aggressive mode, current mode is %s",
				opp.RiskScore, g.mode),
		}
	}

	if limits.MinLiquidityUSD > 0 && opp.LiquidityUSD < limits.MinLiquidityUSD {
		return &domain.RiskViolation{
			Rule: "min_liquidity",
			Message: fmt.Sprintf("route liquidity $%.0f below minimum $%.0f",
				opp.LiquidityUSD, limits.MinLiquidityUSD),
		}
	}

	if limits.MaxVolatilityPct > 0 && opp.VolatilityPct > limits.MaxVolatilityPct {
		return &domain.RiskViolation{
			Rule: "max_volatility",
			Message: fmt.Sprintf("24h swing %.1f%% above the %.1f%% ceiling",
				opp.VolatilityPct, limits.MaxVolatilityPct),
		}
	}

	if opp.Confidence < limits.ConfidenceThreshold {
		return &domain.RiskViolation{
			Rule: "confidence_threshold",
			Message: fmt.Sprintf("confidence %.2f below threshold %.2f",
				opp.Confidence, limits.ConfidenceThreshold),
		}
	}

	return nil
}

// allowsVeryHighRisk: real money needs an explicitly aggressive mode;
// simulation and paper trading can take any candidate since nothing is at
// stake and the data is useful.
func (g *RiskGate) allowsVeryHighRisk() bool {
	switch g.mode {
	case domain.ModeAggressive, domain.ModeSimulation, domain.ModePaperTrading:
		return true
	}
	return false
}

// ApproveExit never blocks an exit — getting out is always allowed. It
// echoes the reason so callers log a structured cause for every close.
func (g *RiskGate) ApproveExit(reason domain.ExitReason) domain.ExitReason {
	return reason
}
