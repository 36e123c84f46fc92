package engine

import (
	"context"
	"sync"
	"time"

	"github.com/andrewbyteforge/dexsniper/internal/domain"
	"github.com/andrewbyteforge/dexsniper/internal/ports"
	"github.com/google/uuid"
)

// fakeExecutor is a scriptable ports.QuoteExecutor. Zero value fills every
// quote at fillPrice with no gas; error hooks simulate failures.
type fakeExecutor struct {
	mu sync.Mutex

	fillPrice  float64 // token price in stable units; 0 = 100
	gasCostUSD float64

	quoteErr error
	swapErr  error

	quoteCalls int
	swapCalls  int

	quotes map[string]domain.Quote
}

func newFakeExecutor(fillPrice float64) *fakeExecutor {
	return &fakeExecutor{fillPrice: fillPrice, quotes: make(map[string]domain.Quote)}
}

func (f *fakeExecutor) GetQuote(ctx context.Context, req ports.QuoteRequest) (domain.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quoteCalls++
	if f.quoteErr != nil {
		return domain.Quote{}, f.quoteErr
	}

	price := f.fillPrice
	if price <= 0 {
		price = 100
	}
	out := req.Amount / price
	if req.OutputToken == "USDC" {
		out = req.Amount * price // selling token back to stable
	}
	q := domain.Quote{
		QuoteID:      uuid.NewString(),
		InputToken:   req.InputToken,
		OutputToken:  req.OutputToken,
		InputAmount:  req.Amount,
		OutputAmount: out,
		EstimatedGas: f.gasCostUSD,
		Network:      req.Network,
		ExpiresAt:    time.Now().Add(time.Minute),
	}
	f.quotes[q.QuoteID] = q
	return q, nil
}

func (f *fakeExecutor) ExecuteSwap(ctx context.Context, quoteID, walletRef string, maxGasPriceGwei float64) (domain.SwapResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.swapCalls++
	if f.swapErr != nil {
		return domain.SwapResult{}, f.swapErr
	}
	q := f.quotes[quoteID]
	return domain.SwapResult{
		TxHash:       "fake-" + quoteID,
		InputAmount:  q.InputAmount,
		OutputAmount: q.OutputAmount,
		GasCostUSD:   f.gasCostUSD,
		ExecutedAt:   time.Now(),
	}, nil
}

func (f *fakeExecutor) calls() (quotes, swaps int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.quoteCalls, f.swapCalls
}

// memStore is an in-memory ports.TradeStore for engine tests.
type memStore struct {
	mu        sync.Mutex
	trades    []domain.TradeRecord
	summaries []domain.DailySummary
	breaker   domain.CircuitBreaker
}

func newMemStore() *memStore { return &memStore{} }

func (m *memStore) SaveTrade(ctx context.Context, rec domain.TradeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trades = append(m.trades, rec)
	return nil
}

func (m *memStore) History(ctx context.Context, walletRef string, limit int) ([]domain.TradeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.TradeRecord
	for i := len(m.trades) - 1; i >= 0 && len(out) < limit; i-- {
		if m.trades[i].WalletRef == walletRef {
			out = append(out, m.trades[i])
		}
	}
	return out, nil
}

func (m *memStore) SaveDailySummary(ctx context.Context, d domain.DailySummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries = append(m.summaries, d)
	return nil
}

func (m *memStore) GetDailySummaries(ctx context.Context, sessionID string, from, to time.Time) ([]domain.DailySummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.DailySummary
	for _, d := range m.summaries {
		if d.SessionID == sessionID && !d.Date.Before(from) && !d.Date.After(to) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memStore) SaveCircuitBreaker(ctx context.Context, cb domain.CircuitBreaker) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.breaker = cb
	return nil
}

func (m *memStore) LoadCircuitBreaker(ctx context.Context) (domain.CircuitBreaker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.breaker, nil
}

func (m *memStore) Close() error { return nil }

func (m *memStore) savedTrades() []domain.TradeRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.TradeRecord, len(m.trades))
	copy(out, m.trades)
	return out
}

// fakeMarket serves canned snapshots.
type fakeMarket struct {
	mu    sync.Mutex
	snaps []domain.MarketSnapshot
	err   error
}

func (f *fakeMarket) Snapshots(ctx context.Context, network string) ([]domain.MarketSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.MarketSnapshot, len(f.snaps))
	copy(out, f.snaps)
	return out, nil
}

// nullNotifier discards notifications.
type nullNotifier struct{}

func (nullNotifier) NotifyOpportunities(ctx context.Context, opps []domain.Opportunity) error {
	return nil
}
func (nullNotifier) NotifyPositions(ctx context.Context, positions []domain.Position) error {
	return nil
}

// testOpportunity mints a minimal executable opportunity.
func testOpportunity(ttl time.Duration) domain.Opportunity {
	now := time.Now().UTC()
	return domain.Opportunity{
		ID:             uuid.NewString(),
		Strategy:       domain.StrategyGrid,
		Token:          "WETH",
		Network:        "ethereum",
		Signal:         domain.SignalBuy,
		Confidence:     0.8,
		ExpectedProfit: 5,
		RiskScore:      0.3,
		EntryPrice:     100,
		TargetPrice:    110,
		StopPrice:      95,
		Size:           100,
		LiquidityUSD:   200_000,
		CreatedAt:      now,
		ExpiresAt:      now.Add(ttl),
	}
}

// testLimits returns generous limits a default test trade passes.
func testLimits() domain.RiskLimits {
	return domain.RiskLimits{
		MaxPositionSizePct:     50,
		MaxSingleTradeUSD:      1_000,
		MaxDailyLossUSD:        100,
		MaxDrawdownPct:         50,
		MaxConcentrationPct:    100,
		MinLiquidityUSD:        10_000,
		MaxVolatilityPct:       100,
		ConfidenceThreshold:    0.5,
		MaxConcurrentPositions: 5,
	}
}
