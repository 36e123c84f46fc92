package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/andrewbyteforge/dexsniper/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpportunityStore_ClaimExactlyOnce(t *testing.T) {
	store := NewOpportunityStore()
	opp := testOpportunity(time.Minute)
	store.Put(opp)

	const racers = 32
	var wg sync.WaitGroup
	wins := make(chan struct{}, racers)
	losses := make(chan error, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Claim(opp.ID, time.Now()); err == nil {
				wins <- struct{}{}
			} else {
				losses <- err
			}
		}()
	}
	wg.Wait()
	close(wins)
	close(losses)

	assert.Len(t, wins, 1, "exactly one racer wins the claim")
	assert.Len(t, losses, racers-1)
	for err := range losses {
		assert.ErrorIs(t, err, domain.ErrAlreadyClaimed)
	}
}

func TestOpportunityStore_ClaimUnknownAndExpired(t *testing.T) {
	store := NewOpportunityStore()

	_, err := store.Claim("missing", time.Now())
	assert.ErrorIs(t, err, domain.ErrOpportunityNotFound)

	opp := testOpportunity(time.Minute)
	store.Put(opp)
	_, err = store.Claim(opp.ID, time.Now().Add(2*time.Minute))
	assert.ErrorIs(t, err, domain.ErrOpportunityExpired)

	// once expired on claim, it stays expired even at an earlier clock
	_, err = store.Claim(opp.ID, time.Now())
	assert.ErrorIs(t, err, domain.ErrOpportunityExpired)
}

func TestOpportunityStore_ReleaseIsTerminal(t *testing.T) {
	store := NewOpportunityStore()
	opp := testOpportunity(time.Minute)
	store.Put(opp)

	_, err := store.Claim(opp.ID, time.Now())
	require.NoError(t, err)

	store.Release(opp.ID)

	// a released opportunity never becomes claimable again
	_, err = store.Claim(opp.ID, time.Now())
	assert.ErrorIs(t, err, domain.ErrAlreadyClaimed)
	assert.Empty(t, store.ListActive(ListFilter{}, time.Now()))
}

func TestOpportunityStore_RePutDoesNotResurrect(t *testing.T) {
	store := NewOpportunityStore()
	opp := testOpportunity(time.Minute)
	store.Put(opp)

	_, err := store.Claim(opp.ID, time.Now())
	require.NoError(t, err)
	store.MarkExecuted(opp.ID)

	store.Put(opp) // rescan found the same id again

	_, err = store.Claim(opp.ID, time.Now())
	assert.ErrorIs(t, err, domain.ErrAlreadyClaimed)
}

func TestOpportunityStore_ListActiveRanksByScore(t *testing.T) {
	store := NewOpportunityStore()

	low := testOpportunity(time.Minute)
	low.Confidence, low.ExpectedProfit = 0.5, 2 // score 1.0
	high := testOpportunity(time.Minute)
	high.Confidence, high.ExpectedProfit = 0.9, 10 // score 9.0
	mid := testOpportunity(time.Minute)
	mid.Confidence, mid.ExpectedProfit = 0.8, 5 // score 4.0

	store.Put(low)
	store.Put(high)
	store.Put(mid)

	ranked := store.ListActive(ListFilter{}, time.Now())
	require.Len(t, ranked, 3)
	assert.Equal(t, high.ID, ranked[0].ID)
	assert.Equal(t, mid.ID, ranked[1].ID)
	assert.Equal(t, low.ID, ranked[2].ID)
}

func TestOpportunityStore_ListActiveFilters(t *testing.T) {
	store := NewOpportunityStore()

	grid := testOpportunity(time.Minute)
	arb := testOpportunity(time.Minute)
	arb.Strategy = domain.StrategyArbitrage
	base := testOpportunity(time.Minute)
	base.Network = "base"

	store.Put(grid)
	store.Put(arb)
	store.Put(base)

	assert.Len(t, store.ListActive(ListFilter{Strategy: domain.StrategyArbitrage}, time.Now()), 1)
	assert.Len(t, store.ListActive(ListFilter{Network: "base"}, time.Now()), 1)
	assert.Len(t, store.ListActive(ListFilter{Network: "ethereum"}, time.Now()), 2)
}

func TestOpportunityStore_SweepNeverTouchesFutureExpiry(t *testing.T) {
	store := NewOpportunityStore()
	now := time.Now()

	fresh := testOpportunity(time.Hour)
	stale := testOpportunity(-time.Second) // already expired
	store.Put(fresh)
	store.Put(stale)

	expired := store.SweepExpired(now)
	assert.Equal(t, 1, expired)
	assert.Equal(t, 1, store.Len())

	_, ok := store.Get(fresh.ID)
	assert.True(t, ok, "an entry with expiresAt in the future is never swept")
}

func TestOpportunityStore_SweepEvictsTerminalEntries(t *testing.T) {
	store := NewOpportunityStore()
	opp := testOpportunity(10 * time.Millisecond)
	store.Put(opp)

	_, err := store.Claim(opp.ID, time.Now())
	require.NoError(t, err)
	store.MarkExecuted(opp.ID)

	// executed entries count as evictions, not expirations
	expired := store.SweepExpired(time.Now().Add(time.Second))
	assert.Equal(t, 0, expired)
	assert.Equal(t, 0, store.Len())
}
