package dexsim

// executor.go — deterministic quote/execute implementation for simulation
// and paper trading. Quotes are priced off the Market walk, carry a short
// expiry like a real aggregator quote, and fills apply price impact scaled
// by pool liquidity.

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/andrewbyteforge/dexsniper/internal/domain"
	"github.com/andrewbyteforge/dexsniper/internal/ports"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	quoteTTL        = 30 * time.Second
	quoteRatePerSec = 10
	swapRatePerSec  = 2
	simGasUSD       = 2.5
	simGasPriceGwei = 25
)

// Executor implements ports.QuoteExecutor against the simulated market.
type Executor struct {
	market *Market

	quoteLimiter *rate.Limiter
	swapLimiter  *rate.Limiter

	mu     sync.Mutex
	quotes map[string]domain.Quote
}

// NewExecutor wraps a simulated market with quote and swap endpoints.
func NewExecutor(market *Market) *Executor {
	return &Executor{
		market:       market,
		quoteLimiter: rate.NewLimiter(quoteRatePerSec, quoteRatePerSec),
		swapLimiter:  rate.NewLimiter(swapRatePerSec, swapRatePerSec),
		quotes:       make(map[string]domain.Quote),
	}
}

// GetQuote prices a swap off the current walk. Buys (stable in) convert USD
// to token units; sells (stable out) convert token units to USD.
func (e *Executor) GetQuote(ctx context.Context, req ports.QuoteRequest) (domain.Quote, error) {
	if err := e.quoteLimiter.Wait(ctx); err != nil {
		return domain.Quote{}, fmt.Errorf("dexsim.GetQuote: rate wait: %w", err)
	}
	if req.Amount <= 0 {
		return domain.Quote{}, fmt.Errorf("dexsim.GetQuote: non-positive amount %f", req.Amount)
	}

	token, selling := req.OutputToken, false
	if isStable(req.OutputToken) {
		token, selling = req.InputToken, true
	}
	price := e.market.CurrentPrice(req.Network, token)
	if price <= 0 {
		return domain.Quote{}, &domain.NetworkError{
			Op:  "quote",
			Err: fmt.Errorf("no simulated price for %s on %s", token, req.Network),
		}
	}

	notional := req.Amount
	if selling {
		notional = req.Amount * price
	}
	impact := priceImpactPct(notional, e.market.Liquidity(req.Network, token))

	var out float64
	if selling {
		out = req.Amount * price * (1 - impact/100)
	} else {
		out = req.Amount / price * (1 - impact/100)
	}

	q := domain.Quote{
		QuoteID:      uuid.NewString(),
		InputToken:   req.InputToken,
		OutputToken:  req.OutputToken,
		InputAmount:  req.Amount,
		OutputAmount: out,
		PriceImpact:  impact,
		EstimatedGas: simGasUSD,
		DEX:          pickDEX(req.DEX),
		Network:      req.Network,
		ExpiresAt:    time.Now().Add(quoteTTL),
	}

	e.mu.Lock()
	e.quotes[q.QuoteID] = q
	e.mu.Unlock()
	return q, nil
}

// ExecuteSwap fills a previously issued quote. Expired or unknown quotes and
// a gas cap below the simulated gas price fail with ExecutionError.
func (e *Executor) ExecuteSwap(ctx context.Context, quoteID, walletRef string, maxGasPriceGwei float64) (domain.SwapResult, error) {
	if err := e.swapLimiter.Wait(ctx); err != nil {
		return domain.SwapResult{}, fmt.Errorf("dexsim.ExecuteSwap: rate wait: %w", err)
	}

	e.mu.Lock()
	q, ok := e.quotes[quoteID]
	if ok {
		delete(e.quotes, quoteID)
	}
	e.mu.Unlock()

	if !ok {
		return domain.SwapResult{}, &domain.ExecutionError{
			Stage: "swap", Err: fmt.Errorf("unknown quote %s", quoteID),
		}
	}
	if time.Now().After(q.ExpiresAt) {
		return domain.SwapResult{}, &domain.ExecutionError{
			Stage: "swap", Err: fmt.Errorf("quote %s expired", quoteID),
		}
	}
	if maxGasPriceGwei > 0 && simGasPriceGwei > maxGasPriceGwei {
		return domain.SwapResult{}, &domain.ExecutionError{
			Stage: "swap",
			Err:   fmt.Errorf("gas price %d gwei above cap %.0f", simGasPriceGwei, maxGasPriceGwei),
		}
	}

	return domain.SwapResult{
		TxHash:       "sim-" + uuid.NewString(),
		InputAmount:  q.InputAmount,
		OutputAmount: q.OutputAmount,
		GasCostUSD:   q.EstimatedGas,
		ExecutedAt:   time.Now(),
	}, nil
}

// priceImpactPct models square-root impact: 1% of pool moves ~0.5%.
func priceImpactPct(notionalUSD, liquidityUSD float64) float64 {
	if liquidityUSD <= 0 {
		return 5
	}
	impact := 50 * (notionalUSD / liquidityUSD)
	if impact > 5 {
		impact = 5
	}
	return impact
}

func pickDEX(requested string) string {
	if requested != "" {
		return requested
	}
	return "uniswap"
}

func isStable(token string) bool {
	switch token {
	case "USDC", "USDT", "DAI":
		return true
	}
	return false
}
