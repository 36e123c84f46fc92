package strategy

import (
	"fmt"
	"math"
	"strings"

	"github.com/andrewbyteforge/dexsniper/internal/domain"
)

// MeanReversion trades snapbacks to SMA(20): buy under the lower Bollinger
// band, sell over the upper one. The target is always the mean itself.
type MeanReversion struct {
	cfg Config
}

// NewMeanReversion creates the mean-reversion evaluator.
func NewMeanReversion(cfg Config) *MeanReversion { return &MeanReversion{cfg: cfg} }

func (m *MeanReversion) Kind() domain.StrategyKind { return domain.StrategyMeanReversion }

// Evaluate accumulates a reversion score from band breach, z-score magnitude,
// deviation from the mean, and volume/RSI confirmation. Candidates under the
// configured minimum score are rejected.
func (m *MeanReversion) Evaluate(snap domain.MarketSnapshot) (domain.Opportunity, bool) {
	if snap.Price <= 0 || snap.LiquidityUSD < m.cfg.MinLiquidityUSD {
		return domain.Opportunity{}, false
	}
	if len(snap.PriceHistory) < 20 {
		return domain.Opportunity{}, false
	}

	mc := m.cfg.MeanReversion
	upper, mean, lower := BollingerBands(snap.PriceHistory, 20, mc.BandWidth)
	z := ZScore(snap.PriceHistory, 20)
	if mean <= 0 {
		return domain.Opportunity{}, false
	}

	price := snap.Price
	var signal domain.Signal
	switch {
	case price <= lower || z <= -mc.BandWidth:
		signal = domain.SignalBuy
	case price >= upper || z >= mc.BandWidth:
		signal = domain.SignalSell
	default:
		return domain.Opportunity{}, false
	}

	score := 0.0
	var parts []string

	// Band breach is the primary trigger.
	if price <= lower || price >= upper {
		score += 30
		parts = append(parts, "band breach (30pts)")
	}

	// z-score magnitude, up to 25 points.
	zPts := math.Min(math.Abs(z)*10, 25)
	score += zPts
	parts = append(parts, fmt.Sprintf("z=%.2f (%.0fpts)", z, zPts))

	// Distance from the mean, up to 20 points at a 10% deviation.
	devPct := math.Abs(price-mean) / mean * 100
	devPts := math.Min(devPct*2, 20)
	score += devPts
	parts = append(parts, fmt.Sprintf("dev %.2f%% (%.0fpts)", devPct, devPts))

	// Volume confirmation: stretched moves on real volume revert harder.
	if snap.VolumeSurge() >= 1.5 {
		score += 15
		parts = append(parts, "volume confirm (15pts)")
	}

	// RSI confirming the exhaustion side.
	rsi := RSI(snap.PriceHistory, 14)
	if (signal == domain.SignalBuy && rsi < 30) || (signal == domain.SignalSell && rsi > 70) {
		score += 10
		parts = append(parts, fmt.Sprintf("RSI %.0f confirm (10pts)", rsi))
	}

	if score < mc.MinScore {
		return domain.Opportunity{}, false
	}

	confidence := clamp(score/100, 0, 0.95)
	if confidence < m.cfg.ConfidenceThreshold {
		return domain.Opportunity{}, false
	}

	expectedProfit := devPct // reverting to the mean recovers the deviation

	opp := newOpportunity(domain.StrategyMeanReversion, snap, m.cfg.OpportunityTTL)
	opp.Signal = signal
	opp.Confidence = confidence
	opp.ExpectedProfit = expectedProfit
	opp.RiskScore = clamp(math.Abs(z)/5, 0.2, 0.6) // the further out, the uglier when it keeps going
	opp.EntryPrice = price
	opp.TargetPrice = mean
	if signal == domain.SignalBuy {
		opp.StopPrice = price * (1 - m.cfg.StopLossPct/100)
	} else {
		opp.StopPrice = price * (1 + m.cfg.StopLossPct/100)
	}
	opp.Size = m.cfg.OrderSizeUSD
	opp.LiquidityUSD = snap.LiquidityUSD
	opp.Reasoning = fmt.Sprintf("mean-reversion %.0f/100 toward SMA20 %.6f: %s",
		score, mean, strings.Join(parts, ", "))
	return opp, true
}
