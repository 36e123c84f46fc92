package strategy

import (
	"fmt"

	"github.com/andrewbyteforge/dexsniper/internal/domain"
)

// Arbitrage looks for the same token priced apart on two DEXes: buy on the
// cheapest venue, sell on the dearest, pocket the gap minus gas.
type Arbitrage struct {
	cfg Config
}

// NewArbitrage creates the cross-DEX arbitrage evaluator.
func NewArbitrage(cfg Config) *Arbitrage { return &Arbitrage{cfg: cfg} }

func (a *Arbitrage) Kind() domain.StrategyKind { return domain.StrategyArbitrage }

// Evaluate picks the global min/max priced venues and gates on price gap,
// per-venue liquidity, gas cost, and net profit after gas.
func (a *Arbitrage) Evaluate(snap domain.MarketSnapshot) (domain.Opportunity, bool) {
	buyDEX, sellDEX, buyPrice, sellPrice, ok := snap.BestArbitrageRoute()
	if !ok {
		return domain.Opportunity{}, false
	}

	ac := a.cfg.Arbitrage
	diff := (sellPrice - buyPrice) / buyPrice
	if diff < ac.MinPriceDifference {
		return domain.Opportunity{}, false
	}

	buyLiq := snap.DEXLiquidity[buyDEX]
	sellLiq := snap.DEXLiquidity[sellDEX]
	minLiq := buyLiq
	if sellLiq < minLiq {
		minLiq = sellLiq
	}
	if minLiq < a.cfg.MinLiquidityUSD {
		return domain.Opportunity{}, false
	}

	if snap.EstimatedGasUSD > ac.GasCostThresholdUSD {
		return domain.Opportunity{}, false
	}

	// Size against the thin side of the route; gas is flat, so bigger
	// positions dilute it.
	size := minLiq * 0.01
	if size < a.cfg.OrderSizeUSD {
		size = a.cfg.OrderSizeUSD
	}

	grossPct := diff * 100
	gasPct := snap.EstimatedGasUSD / size * 100
	netPct := grossPct - gasPct
	if netPct < ac.MinNetProfitPct {
		return domain.Opportunity{}, false
	}

	confidence := clamp(0.7+diff*2, 0, 0.95)

	opp := newOpportunity(domain.StrategyArbitrage, snap, a.cfg.OpportunityTTL)
	opp.Signal = domain.SignalStrongBuy
	opp.Confidence = confidence
	opp.ExpectedProfit = netPct
	opp.RiskScore = clamp(0.3-diff, 0.05, 0.3) // bigger gaps leave more room for slippage
	opp.EntryPrice = buyPrice
	opp.TargetPrice = sellPrice
	opp.StopPrice = buyPrice * (1 - a.cfg.StopLossPct/100)
	opp.Size = size
	opp.LiquidityUSD = minLiq
	opp.BuyDEX = buyDEX
	opp.SellDEX = sellDEX
	opp.Reasoning = fmt.Sprintf(
		"arbitrage: buy %s@%.6f sell %s@%.6f, gap %.2f%%, gas $%.2f (%.2f%%), net %.2f%%",
		buyDEX, buyPrice, sellDEX, sellPrice, grossPct, snap.EstimatedGasUSD, gasPct, netPct)
	return opp, true
}
