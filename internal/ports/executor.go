package ports

import (
	"context"

	"github.com/andrewbyteforge/dexsniper/internal/domain"
)

// QuoteRequest describes the swap the coordinator wants priced.
type QuoteRequest struct {
	InputToken  string
	OutputToken string
	Amount      float64 // input token units
	Network     string
	DEX         string // empty = executor picks the best route
	SlippagePct float64
}

// QuoteExecutor prices and executes swaps on a DEX. The engine never signs
// or broadcasts itself; everything on-chain goes through this port.
type QuoteExecutor interface {
	// GetQuote returns a priced, time-boxed quote for the requested swap.
	GetQuote(ctx context.Context, req QuoteRequest) (domain.Quote, error)

	// ExecuteSwap submits a previously obtained quote. maxGasPriceGwei caps
	// what the executor may pay; exceeding it is an ExecutionError.
	ExecuteSwap(ctx context.Context, quoteID, walletRef string, maxGasPriceGwei float64) (domain.SwapResult, error)
}
