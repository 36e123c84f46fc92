package domain

import "time"

// Quote is a priced swap offer from a DEX aggregator, valid until ExpiresAt.
type Quote struct {
	QuoteID      string
	InputToken   string
	OutputToken  string
	InputAmount  float64
	OutputAmount float64
	PriceImpact  float64 // percent
	EstimatedGas float64 // USD
	DEX          string
	Network      string
	ExpiresAt    time.Time
}

// Price returns output per input unit, 0 when the quote is degenerate.
func (q Quote) Price() float64 {
	if q.InputAmount <= 0 {
		return 0
	}
	return q.OutputAmount / q.InputAmount
}

// SwapResult is the executor's report of a submitted swap.
type SwapResult struct {
	TxHash       string
	InputAmount  float64
	OutputAmount float64
	GasCostUSD   float64
	ExecutedAt   time.Time
}
