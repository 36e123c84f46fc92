package strategy

import (
	"fmt"
	"math"
	"strings"

	"github.com/andrewbyteforge/dexsniper/internal/domain"
)

// Momentum scores trend-following setups 0–100 from weighted signals:
// 24h move magnitude, volume surge, RSI direction, MACD crossover, and
// SMA(20) > SMA(50) trend confirmation.
type Momentum struct {
	cfg Config
}

// NewMomentum creates the momentum evaluator.
func NewMomentum(cfg Config) *Momentum { return &Momentum{cfg: cfg} }

func (m *Momentum) Kind() domain.StrategyKind { return domain.StrategyMomentum }

// Evaluate maps the composite score into signal bands (>=80 strong, >=60
// regular, >=40 weak) in the direction of the 24h move; below 40 the
// candidate is rejected.
func (m *Momentum) Evaluate(snap domain.MarketSnapshot) (domain.Opportunity, bool) {
	if snap.Price <= 0 || snap.LiquidityUSD < m.cfg.MinLiquidityUSD {
		return domain.Opportunity{}, false
	}

	long := snap.PriceChange24h >= 0
	score := 0.0
	var parts []string

	// 24h move magnitude, up to 30 points at a 10% move.
	movePts := math.Min(math.Abs(snap.PriceChange24h)*3, 30)
	score += movePts
	parts = append(parts, fmt.Sprintf("24h %+.2f%% (%.0fpts)", snap.PriceChange24h, movePts))

	// Volume surge confirmation, 20 points.
	if surge := snap.VolumeSurge(); surge >= m.cfg.Momentum.VolumeSurgeThreshold {
		score += 20
		parts = append(parts, fmt.Sprintf("volume surge %.1fx (20pts)", surge))
	}

	// RSI agreeing with the direction, 20 points. Overbought/oversold
	// extremes are treated as exhaustion, not confirmation.
	rsi := RSI(snap.PriceHistory, 14)
	if long && rsi > 55 && rsi < 80 {
		score += 20
		parts = append(parts, fmt.Sprintf("RSI %.0f bullish (20pts)", rsi))
	} else if !long && rsi < 45 && rsi > 20 {
		score += 20
		parts = append(parts, fmt.Sprintf("RSI %.0f bearish (20pts)", rsi))
	}

	// MACD crossover in direction, 15 points.
	_, _, histogram := MACD(snap.PriceHistory)
	if (long && histogram > 0) || (!long && histogram < 0) {
		score += 15
		parts = append(parts, fmt.Sprintf("MACD hist %+.4f (15pts)", histogram))
	}

	// SMA(20) vs SMA(50) trend confirmation, 15 points.
	sma20, sma50 := SMA(snap.PriceHistory, 20), SMA(snap.PriceHistory, 50)
	if sma20 > 0 && sma50 > 0 {
		if (long && sma20 > sma50) || (!long && sma20 < sma50) {
			score += 15
			parts = append(parts, "SMA20/50 trend (15pts)")
		}
	}

	signal, ok := momentumSignal(score, long)
	if !ok || score < m.cfg.Momentum.MinScore {
		return domain.Opportunity{}, false
	}

	confidence := clamp(score/100, 0, 0.95)
	if confidence < m.cfg.ConfidenceThreshold {
		return domain.Opportunity{}, false
	}

	opp := newOpportunity(domain.StrategyMomentum, snap, m.cfg.OpportunityTTL)
	opp.Signal = signal
	opp.Confidence = confidence
	opp.ExpectedProfit = m.cfg.TakeProfitPct * confidence
	opp.RiskScore = clamp(1-score/100+0.2, 0.2, 0.8) // chasing trends is the riskiest book
	opp.EntryPrice = snap.Price
	if long {
		opp.TargetPrice = snap.Price * (1 + m.cfg.TakeProfitPct/100)
		opp.StopPrice = snap.Price * (1 - m.cfg.StopLossPct/100)
	} else {
		opp.TargetPrice = snap.Price * (1 - m.cfg.TakeProfitPct/100)
		opp.StopPrice = snap.Price * (1 + m.cfg.StopLossPct/100)
	}
	opp.Size = m.cfg.OrderSizeUSD
	opp.LiquidityUSD = snap.LiquidityUSD
	opp.Reasoning = fmt.Sprintf("momentum %.0f/100: %s", score, strings.Join(parts, ", "))
	return opp, true
}

// momentumSignal maps a 0–100 score into direction-aware signal bands.
func momentumSignal(score float64, long bool) (domain.Signal, bool) {
	switch {
	case score >= 80 && long:
		return domain.SignalStrongBuy, true
	case score >= 80:
		return domain.SignalStrongSell, true
	case score >= 60 && long:
		return domain.SignalBuy, true
	case score >= 60:
		return domain.SignalSell, true
	case score >= 40 && long:
		return domain.SignalWeakBuy, true
	case score >= 40:
		return domain.SignalWeakSell, true
	}
	return domain.SignalNeutral, false
}
