package domain

import (
	"errors"
	"fmt"
)

// Opportunity claim outcomes. Expected control flow, not failures: callers
// check these with errors.Is and move on.
var (
	ErrOpportunityNotFound = errors.New("opportunity not found")
	ErrAlreadyClaimed      = errors.New("opportunity already claimed")
	ErrOpportunityExpired  = errors.New("opportunity expired")
)

var (
	// ErrExecutionTimeout marks a swap whose on-chain fate is unknown. The
	// coordinator keeps the claim in this case so the opportunity cannot be
	// resubmitted; reconciliation against the chain is an extension point.
	ErrExecutionTimeout = errors.New("execution timed out")

	ErrPositionNotFound = errors.New("position not found")
	ErrPositionClosed   = errors.New("position already closed")
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionInactive  = errors.New("session is not active")
)

// RiskViolation names the first risk rule an entry failed. It is an expected
// outcome: logged at debug, surfaced to the operator with rule + message so
// "no money" is distinguishable from "too risky".
type RiskViolation struct {
	Rule    string
	Message string
}

func (v *RiskViolation) Error() string {
	return fmt.Sprintf("risk violation [%s]: %s", v.Rule, v.Message)
}

// WalletError wraps connection/auth failures from the wallet collaborator.
type WalletError struct {
	Op  string
	Err error
}

func (e *WalletError) Error() string { return fmt.Sprintf("wallet %s: %v", e.Op, e.Err) }
func (e *WalletError) Unwrap() error { return e.Err }

// NetworkError wraps RPC-level failures (transient, retryable by the caller).
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("network %s: %v", e.Op, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// ExecutionError wraps a failed or timed-out swap attempt, tagged with the
// coordinator stage that produced it.
type ExecutionError struct {
	Stage string // "claim", "risk", "quote", "swap", "record"
	Err   error
}

func (e *ExecutionError) Error() string { return fmt.Sprintf("execution %s: %v", e.Stage, e.Err) }
func (e *ExecutionError) Unwrap() error { return e.Err }

// Timeout reports whether the underlying cause was a timeout.
func (e *ExecutionError) Timeout() bool { return errors.Is(e.Err, ErrExecutionTimeout) }

// ConfigurationError rejects invalid limits at session start. Fatal to the
// session being created, never to the scheduler process.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration %s: %s", e.Field, e.Message)
}
