package ports

import "context"

// WalletConnector is the wallet handshake surface the engine depends on.
// Implementations live outside the core (browser wallet bridge, keystore).
type WalletConnector interface {
	// Connect binds a wallet address on the given network and returns an
	// opaque wallet session reference.
	Connect(ctx context.Context, address, network string) (string, error)

	// VerifyAccess checks the wallet session can spend at least minBalance
	// USD on the network.
	VerifyAccess(ctx context.Context, walletRef, network string, minBalance float64) (bool, error)

	// GetBalance returns the spendable USD balance for the wallet session.
	GetBalance(ctx context.Context, walletRef, network string) (float64, error)
}
