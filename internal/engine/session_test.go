package engine

import (
	"testing"
	"time"

	"github.com/andrewbyteforge/dexsniper/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestSession(t *testing.T, sm *SessionManager) domain.TradingSession {
	t.Helper()
	s, err := sm.Start("w1", domain.ModeSimulation, domain.RiskModerate, testLimits(), 10_000, time.Now().UTC())
	require.NoError(t, err)
	return s
}

func TestSessionManager_StartValidatesLimits(t *testing.T) {
	sm := NewSessionManager()

	bad := testLimits()
	bad.MaxDailyLossUSD = 0
	_, err := sm.Start("w1", domain.ModeSimulation, domain.RiskModerate, bad, 10_000, time.Now())

	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "maxDailyLossUsd", cfgErr.Field)
}

func TestSessionManager_StartRejectsUnknownMode(t *testing.T) {
	sm := NewSessionManager()
	_, err := sm.Start("w1", "yolo", domain.RiskModerate, testLimits(), 10_000, time.Now())

	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestSessionManager_DailyLossCapBlocksTrading(t *testing.T) {
	sm := NewSessionManager()
	s := startTestSession(t, sm) // $100 daily cap
	now := time.Now().UTC()

	// three losing closes totaling $102
	for _, loss := range []float64{-30, -40, -32} {
		_, err := sm.RecordTrade(s.ID, domain.TradeRecord{Side: "SELL", Success: true}, loss, now)
		require.NoError(t, err)
	}

	ok, err := sm.CanTradeToday(s.ID, now)
	require.NoError(t, err)
	assert.False(t, ok, "daily loss $102 over the $100 cap")

	got, err := sm.Get(s.ID)
	require.NoError(t, err)
	assert.InDelta(t, 102.0, got.DailyLossUSD, 1e-9)
	assert.InDelta(t, -102.0, got.TotalPnLUSD, 1e-9)
	assert.InDelta(t, 40.0, got.LargestLossUSD, 1e-9)
}

func TestSessionManager_DailyCountersRollOver(t *testing.T) {
	sm := NewSessionManager()
	day1 := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	day2 := day1.Add(12 * time.Hour) // next calendar day

	s, err := sm.Start("w1", domain.ModeSimulation, domain.RiskModerate, testLimits(), 10_000, day1)
	require.NoError(t, err)

	_, err = sm.RecordTrade(s.ID, domain.TradeRecord{Side: "SELL", Success: true}, -150, day1)
	require.NoError(t, err)

	ok, err := sm.CanTradeToday(s.ID, day1)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = sm.CanTradeToday(s.ID, day2)
	require.NoError(t, err)
	assert.True(t, ok, "a new day resets the daily loss")

	got, err := sm.Get(s.ID)
	require.NoError(t, err)
	assert.Zero(t, got.DailyLossUSD)
	assert.InDelta(t, -150.0, got.TotalPnLUSD, 1e-9, "lifetime counters survive the roll")
}

func TestSessionManager_WinLossCounters(t *testing.T) {
	sm := NewSessionManager()
	s := startTestSession(t, sm)
	now := time.Now().UTC()

	_, err := sm.RecordTrade(s.ID, domain.TradeRecord{Side: "SELL", Success: true}, 25, now)
	require.NoError(t, err)
	_, err = sm.RecordTrade(s.ID, domain.TradeRecord{Side: "SELL", Success: false}, -10, now)
	require.NoError(t, err)

	got, err := sm.Get(s.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.TotalTrades)
	assert.Equal(t, 1, got.SuccessfulTrades)
	assert.Equal(t, 1, got.FailedTrades)
	assert.InDelta(t, 0.5, got.WinRate(), 1e-9)
	assert.InDelta(t, 25.0, got.LargestWinUSD, 1e-9)
}

func TestSessionManager_StopIsIdempotent(t *testing.T) {
	sm := NewSessionManager()
	s := startTestSession(t, sm)
	now := time.Now().UTC()

	require.NoError(t, sm.Stop(s.ID, now))
	require.NoError(t, sm.Stop(s.ID, now.Add(time.Hour)))

	got, err := sm.Get(s.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, now, got.StoppedAt, "second stop does not move the timestamp")

	_, err = sm.RecordTrade(s.ID, domain.TradeRecord{}, 0, now)
	assert.ErrorIs(t, err, domain.ErrSessionInactive)
}

func TestSessionManager_UnknownSession(t *testing.T) {
	sm := NewSessionManager()
	_, err := sm.Get("missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionManager_ActiveListsOnlyActive(t *testing.T) {
	sm := NewSessionManager()
	a := startTestSession(t, sm)
	b := startTestSession(t, sm)

	require.NoError(t, sm.Stop(a.ID, time.Now()))

	active := sm.Active()
	require.Len(t, active, 1)
	assert.Equal(t, b.ID, active[0].ID)
}
