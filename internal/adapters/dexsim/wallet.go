package dexsim

// wallet.go — in-memory wallet for simulation and paper trading. Every
// connected wallet starts with a fixed USD balance; nothing is ever signed.

import (
	"context"
	"fmt"
	"sync"

	"github.com/andrewbyteforge/dexsniper/internal/domain"
)

const defaultStartingBalance = 10_000

// Wallet implements ports.WalletConnector with in-memory balances.
type Wallet struct {
	mu       sync.Mutex
	balances map[string]float64
	starting float64
}

// NewWallet returns an empty simulated wallet pool. startingBalance <= 0
// falls back to the default ($10k).
func NewWallet(startingBalance float64) *Wallet {
	if startingBalance <= 0 {
		startingBalance = defaultStartingBalance
	}
	return &Wallet{
		balances: make(map[string]float64),
		starting: startingBalance,
	}
}

// Connect registers the address and returns a wallet session reference.
// Reconnecting the same address on the same network reuses the balance.
func (w *Wallet) Connect(ctx context.Context, address, network string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if address == "" {
		return "", &domain.WalletError{Op: "connect", Err: fmt.Errorf("empty address")}
	}
	ref := "sim:" + address + "@" + network

	w.mu.Lock()
	if _, ok := w.balances[ref]; !ok {
		w.balances[ref] = w.starting
	}
	w.mu.Unlock()
	return ref, nil
}

// VerifyAccess reports whether the wallet can spend at least minBalance USD.
func (w *Wallet) VerifyAccess(ctx context.Context, walletRef, network string, minBalance float64) (bool, error) {
	bal, err := w.GetBalance(ctx, walletRef, network)
	if err != nil {
		return false, err
	}
	return bal >= minBalance, nil
}

// GetBalance returns the spendable USD balance for the wallet session.
func (w *Wallet) GetBalance(ctx context.Context, walletRef, network string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	bal, ok := w.balances[walletRef]
	if !ok {
		return 0, &domain.WalletError{Op: "balance", Err: fmt.Errorf("unknown wallet ref %q", walletRef)}
	}
	return bal, nil
}
