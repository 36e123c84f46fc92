package strategy

import (
	"fmt"

	"github.com/andrewbyteforge/dexsniper/internal/domain"
)

// Grid scores range-bound markets for grid trading: N buy levels below and N
// sell levels above the current price at a fixed percentage spacing.
type Grid struct {
	cfg Config
}

// NewGrid creates the grid evaluator.
func NewGrid(cfg Config) *Grid { return &Grid{cfg: cfg} }

func (g *Grid) Kind() domain.StrategyKind { return domain.StrategyGrid }

// Evaluate builds the grid around snap.Price and estimates the profit a full
// sweep of the levels would capture. Rejected on thin liquidity or weak
// confidence; the grid itself only pays if price actually oscillates.
func (g *Grid) Evaluate(snap domain.MarketSnapshot) (domain.Opportunity, bool) {
	if snap.Price <= 0 || snap.LiquidityUSD < g.cfg.MinLiquidityUSD {
		return domain.Opportunity{}, false
	}

	gc := g.cfg.Grid
	spacing := snap.Price * gc.SpacingPct
	lowestBuy := snap.Price - spacing*float64(gc.Levels)
	highestSell := snap.Price + spacing*float64(gc.Levels)
	if lowestBuy <= 0 {
		return domain.Opportunity{}, false
	}

	// Each filled level pair captures one spacing; damping discounts for
	// levels that never fill.
	expectedProfit := clamp(gc.SpacingPct*100*float64(gc.Levels)*gc.DampingFactor, 0, gc.MaxProfitPct)

	confidence := gridConfidence(snap.LiquidityUSD, gc.Levels, gc.SpacingPct)
	if confidence < g.cfg.ConfidenceThreshold {
		return domain.Opportunity{}, false
	}

	opp := newOpportunity(domain.StrategyGrid, snap, g.cfg.OpportunityTTL)
	opp.Signal = domain.SignalBuy
	opp.Confidence = confidence
	opp.ExpectedProfit = expectedProfit
	opp.RiskScore = clamp(0.5-gc.SpacingPct*10, 0.1, 0.5) // wider grids ride out more volatility
	opp.EntryPrice = snap.Price
	opp.TargetPrice = highestSell
	opp.StopPrice = lowestBuy
	opp.Size = g.cfg.OrderSizeUSD
	opp.LiquidityUSD = snap.LiquidityUSD
	opp.Reasoning = fmt.Sprintf(
		"grid: %d buy levels down to %.6f, %d sell levels up to %.6f, spacing %.2f%%, est profit %.2f%%",
		gc.Levels, lowestBuy, gc.Levels, highestSell, gc.SpacingPct*100, expectedProfit)
	return opp, true
}

// gridConfidence scores how well the market suits a grid: deep books and
// enough levels at tight spacing.
func gridConfidence(liquidityUSD float64, levels int, spacingPct float64) float64 {
	confidence := 0.5
	if liquidityUSD >= 500_000 {
		confidence += 0.2
	} else if liquidityUSD >= 200_000 {
		confidence += 0.1
	}
	if levels >= 10 {
		confidence += 0.1
	}
	if spacingPct >= 0.015 && spacingPct <= 0.05 {
		confidence += 0.15
	}
	return clamp(confidence, 0, 0.95)
}
