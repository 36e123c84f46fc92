package engine

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/andrewbyteforge/dexsniper/internal/domain"
)

// sessionState pairs a session with its own lock so counter updates for one
// session never contend with another's.
type sessionState struct {
	mu sync.Mutex
	s  domain.TradingSession
}

// SessionManager owns trading sessions and their cumulative counters. All
// mutation happens under the per-session lock; callers only ever see value
// copies, so no torn counter set is observable.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*sessionState
}

// NewSessionManager creates an empty manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{sessions: make(map[string]*sessionState)}
}

// ValidateLimits rejects limit sets that cannot gate anything sensibly.
func ValidateLimits(l domain.RiskLimits) error {
	switch {
	case l.MaxDailyLossUSD <= 0:
		return &domain.ConfigurationError{Field: "maxDailyLossUsd", Message: "must be positive"}
	case l.MaxConcurrentPositions <= 0:
		return &domain.ConfigurationError{Field: "maxConcurrentPositions", Message: "must be positive"}
	case l.MaxPositionSizePct <= 0 || l.MaxPositionSizePct > 100:
		return &domain.ConfigurationError{Field: "maxPortfolioAllocationPct", Message: "must be in (0,100]"}
	case l.ConfidenceThreshold < 0 || l.ConfidenceThreshold > 1:
		return &domain.ConfigurationError{Field: "confidenceThreshold", Message: "must be in [0,1]"}
	case l.MinLiquidityUSD < 0:
		return &domain.ConfigurationError{Field: "minLiquidityUsd", Message: "cannot be negative"}
	}
	return nil
}

// Start creates and activates a session. Invalid limits fail with a
// ConfigurationError — fatal to this session only, never to the scheduler.
func (sm *SessionManager) Start(walletRef string, mode domain.ExecutionMode, level domain.RiskLevel, limits domain.RiskLimits, portfolioUSD float64, now time.Time) (domain.TradingSession, error) {
	if err := ValidateLimits(limits); err != nil {
		return domain.TradingSession{}, err
	}
	if !mode.Valid() {
		return domain.TradingSession{}, &domain.ConfigurationError{Field: "executionMode", Message: "unknown mode " + string(mode)}
	}
	if !level.Valid() {
		return domain.TradingSession{}, &domain.ConfigurationError{Field: "riskLevel", Message: "unknown level " + string(level)}
	}

	s := domain.TradingSession{
		ID:                uuid.New().String(),
		WalletRef:         walletRef,
		Mode:              mode,
		RiskLevel:         level,
		Limits:            limits,
		PortfolioValueUSD: portfolioUSD,
		LastResetDate:     domain.DateOf(now),
		IsActive:          true,
		StartedAt:         now,
	}

	sm.mu.Lock()
	sm.sessions[s.ID] = &sessionState{s: s}
	sm.mu.Unlock()
	return s, nil
}

func (sm *SessionManager) state(id string) (*sessionState, error) {
	sm.mu.RLock()
	st, ok := sm.sessions[id]
	sm.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return st, nil
}

// Get returns a copy of the session.
func (sm *SessionManager) Get(id string) (domain.TradingSession, error) {
	st, err := sm.state(id)
	if err != nil {
		return domain.TradingSession{}, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.s, nil
}

// CanTradeToday re-validates the daily loss headroom under the session lock,
// so a concurrent trade completion cannot slip a stale approval through.
func (sm *SessionManager) CanTradeToday(id string, now time.Time) (bool, error) {
	st, err := sm.state(id)
	if err != nil {
		return false, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	rollDaily(&st.s, now)
	return st.s.CanTradeToday(now), nil
}

// RecordTrade applies one completed execution to the counters. The daily
// counters roll over first when the wallclock date has advanced past
// LastResetDate. realizedPnL is 0 for entries; exits pass the realized
// amount, and losses accrue toward the daily cap.
func (sm *SessionManager) RecordTrade(id string, rec domain.TradeRecord, realizedPnL float64, now time.Time) (domain.TradingSession, error) {
	st, err := sm.state(id)
	if err != nil {
		return domain.TradingSession{}, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if !st.s.IsActive {
		return domain.TradingSession{}, domain.ErrSessionInactive
	}

	rollDaily(&st.s, now)

	st.s.TotalTrades++
	st.s.DailyTrades++
	if rec.Success {
		st.s.SuccessfulTrades++
	} else {
		st.s.FailedTrades++
	}

	st.s.TotalPnLUSD += realizedPnL
	if realizedPnL > st.s.LargestWinUSD {
		st.s.LargestWinUSD = realizedPnL
	}
	if realizedPnL < 0 {
		loss := -realizedPnL
		st.s.DailyLossUSD += loss
		if loss > st.s.LargestLossUSD {
			st.s.LargestLossUSD = loss
		}
	}

	return st.s, nil
}

// Stop deactivates the session. Idempotent.
func (sm *SessionManager) Stop(id string, now time.Time) error {
	st, err := sm.state(id)
	if err != nil {
		return err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.s.IsActive {
		st.s.IsActive = false
		st.s.StoppedAt = now
	}
	return nil
}

// Active returns copies of all active sessions.
func (sm *SessionManager) Active() []domain.TradingSession {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	var out []domain.TradingSession
	for _, st := range sm.sessions {
		st.mu.Lock()
		if st.s.IsActive {
			out = append(out, st.s)
		}
		st.mu.Unlock()
	}
	return out
}

// rollDaily resets the daily counters when the date has advanced. Caller
// holds the session lock.
func rollDaily(s *domain.TradingSession, now time.Time) {
	today := domain.DateOf(now)
	if today.After(s.LastResetDate) {
		s.DailyLossUSD = 0
		s.DailyTrades = 0
		s.LastResetDate = today
	}
}
