package domain

import "time"

// CircuitBreaker tracks consecutive losses and enforces trading pauses.
type CircuitBreaker struct {
	ConsecutiveLosses int
	MaxLosses         int
	CooldownUntil     time.Time
	CooldownDuration  time.Duration
	TotalPnL          float64
	MaxDrawdown       float64 // negative dollar amount threshold
	Triggered         bool
	TriggeredReason   string
}

// Allows reports whether trading may proceed: the breaker has not tripped
// and any cooldown has elapsed.
func (cb *CircuitBreaker) Allows() bool {
	if cb.Triggered {
		return false
	}
	if time.Now().Before(cb.CooldownUntil) {
		return false
	}
	return true
}

// RecordLoss records a losing close and may trip the breaker.
func (cb *CircuitBreaker) RecordLoss(loss float64) {
	cb.ConsecutiveLosses++
	cb.TotalPnL += loss
	if cb.ConsecutiveLosses >= cb.MaxLosses {
		cb.CooldownUntil = time.Now().Add(cb.CooldownDuration)
		cb.ConsecutiveLosses = 0
		cb.TriggeredReason = "consecutive losses"
	}
	if cb.TotalPnL < cb.MaxDrawdown {
		cb.Triggered = true
		cb.TriggeredReason = "max drawdown exceeded"
	}
}

// RecordWin resets the consecutive loss counter.
func (cb *CircuitBreaker) RecordWin(profit float64) {
	cb.ConsecutiveLosses = 0
	cb.TotalPnL += profit
}
