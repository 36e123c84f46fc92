package engine

import (
	"context"
	"testing"
	"time"

	"github.com/andrewbyteforge/dexsniper/internal/domain"
	"github.com/andrewbyteforge/dexsniper/internal/ports"
	"github.com/andrewbyteforge/dexsniper/internal/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gridSnapshot is deep and liquid enough for the grid evaluator to accept.
func gridSnapshot() domain.MarketSnapshot {
	return domain.MarketSnapshot{
		Token:        "WETH",
		Network:      "ethereum",
		Price:        100,
		LiquidityUSD: 500_000,
		CapturedAt:   time.Now().UTC(),
	}
}

type schedRig struct {
	*coordRig
	market *fakeMarket
	sched  *Scheduler
}

func newSchedRig(t *testing.T, notifier ports.Notifier) *schedRig {
	t.Helper()
	r := &schedRig{
		coordRig: newCoordRig(t, domain.ModeSimulation, nil),
		market:   &fakeMarket{snaps: []domain.MarketSnapshot{gridSnapshot()}},
	}
	r.sched = NewScheduler(
		SchedulerConfig{
			ScanInterval:     10 * time.Millisecond,
			PositionInterval: 10 * time.Millisecond,
			RiskInterval:     50 * time.Millisecond,
			OptimizeInterval: time.Hour,
			Networks:         []string{"ethereum"},
			Workers:          2,
		},
		domain.ModeSimulation, r.session.ID,
		strategy.ForKinds(strategy.DefaultConfig(), []domain.StrategyKind{domain.StrategyGrid}),
		r.market, r.store, r.coord, r.positions, r.sessions, r.trades, notifier, r.events,
	)
	return r
}

func TestScheduler_RunOnceScansAndExecutes(t *testing.T) {
	r := newSchedRig(t, nullNotifier{})

	r.sched.RunOnce(context.Background())

	assert.Equal(t, 1, r.positions.Count(), "simulation mode auto-executes the best candidate")
	assert.Len(t, r.trades.savedTrades(), 1)
	assert.GreaterOrEqual(t, r.store.Len(), 1)
}

func TestScheduler_RunOnceCautiousOnlyRecords(t *testing.T) {
	r := newSchedRig(t, nullNotifier{})
	r.sched.mode = domain.ModeCautious

	r.sched.RunOnce(context.Background())

	assert.Zero(t, r.positions.Count(), "cautious mode leaves execution to the operator")
	assert.NotEmpty(t, r.store.ListActive(ListFilter{}, time.Now()))
}

func TestScheduler_StartStopDrainsLoops(t *testing.T) {
	r := newSchedRig(t, nullNotifier{})
	ctx := context.Background()

	r.sched.Start(ctx)
	r.sched.Start(ctx) // second start is a no-op

	time.Sleep(50 * time.Millisecond)
	r.sched.Stop()
	r.sched.Stop() // second stop is a no-op

	assert.GreaterOrEqual(t, len(r.trades.savedTrades()), 1)
}

// panicNotifier blows up on every notification to exercise loop isolation.
type panicNotifier struct{}

func (panicNotifier) NotifyOpportunities(ctx context.Context, opps []domain.Opportunity) error {
	panic("boom")
}
func (panicNotifier) NotifyPositions(ctx context.Context, positions []domain.Position) error {
	panic("boom")
}

func TestScheduler_PanicInOneCycleDoesNotKillLoops(t *testing.T) {
	r := newSchedRig(t, panicNotifier{})
	ctx := context.Background()

	r.sched.Start(ctx)
	time.Sleep(60 * time.Millisecond)
	r.sched.Stop() // must not hang or crash: panics are recovered per cycle

	require.True(t, true)
}

func TestScheduler_RiskCycleLedgerRowCoversOnlyTheDay(t *testing.T) {
	r := newSchedRig(t, nullNotifier{})
	ctx := context.Background()
	now := time.Now().UTC()
	yesterday := now.Add(-24 * time.Hour)

	// a -$40 close dated yesterday must stay off today's row
	old := openTestPosition(t, r.positions, 100, 0, 0)
	_, err := r.positions.Close(old.ID, domain.ExitManual, 60, yesterday)
	require.NoError(t, err)

	// +$10 close today: entry 100, exit 110, one token
	cur := openTestPosition(t, r.positions, 100, 0, 0)
	_, err = r.positions.Close(cur.ID, domain.ExitTakeProfit, 110, now)
	require.NoError(t, err)

	require.NoError(t, r.trades.SaveTrade(ctx, domain.TradeRecord{
		ID: "t-today", WalletRef: "w1", GasCostUSD: 2.5, ExecutedAt: now}))
	require.NoError(t, r.trades.SaveTrade(ctx, domain.TradeRecord{
		ID: "t-old", WalletRef: "w1", GasCostUSD: 9, ExecutedAt: yesterday}))

	r.sched.riskCycle(ctx)

	rows, err := r.trades.GetDailySummaries(ctx, r.session.ID, domain.DateOf(now), domain.DateOf(now))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.InDelta(t, 10.0, row.RealizedPnLUSD, 1e-9, "only today's closes count toward the row")
	assert.Equal(t, 1, row.Wins)
	assert.Zero(t, row.Losses)
	assert.InDelta(t, 2.5, row.GasCostUSD, 1e-9, "only today's gas counts toward the row")
}

func TestScheduler_PositionCapBackpressure(t *testing.T) {
	r := newSchedRig(t, nullNotifier{})

	// fill the book to the cap
	for i := 0; i < testLimits().MaxConcurrentPositions; i++ {
		openTestPosition(t, r.positions, 100, 95, 110)
	}

	r.sched.RunOnce(context.Background())

	assert.Equal(t, testLimits().MaxConcurrentPositions, r.positions.Count(),
		"no new position when the cap is reached")
	assert.NotEmpty(t, r.store.ListActive(ListFilter{}, time.Now()),
		"the candidate stays visible in the store")
}
