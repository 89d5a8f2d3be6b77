package deposits

import (
	"context"

	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/storage"
)

// StatusProvider answers the two read-only questions the engine asks
// before accepting money-bearing input from a user. Implementations are
// injectable so a real KYC/deposit pipeline can replace the default.
type StatusProvider interface {
	// IsKYCVerified reports whether the user's identity is verified.
	IsKYCVerified(ctx context.Context, userID string) (bool, error)

	// HasVerifiedDeposit reports whether the user has a verified deposit
	// on record, and returns its reference when they do.
	HasVerifiedDeposit(ctx context.Context, userID string) (bool, string, error)
}

// WalletFlagProvider is the default StatusProvider: it reads the
// verification flags the deposit pipeline persists on the wallet row.
type WalletFlagProvider struct {
	wallets storage.WalletStore
}

// NewWalletFlagProvider creates a WalletFlagProvider over the given store.
func NewWalletFlagProvider(wallets storage.WalletStore) *WalletFlagProvider {
	return &WalletFlagProvider{wallets: wallets}
}

var _ StatusProvider = (*WalletFlagProvider)(nil)

func (p *WalletFlagProvider) IsKYCVerified(ctx context.Context, userID string) (bool, error) {
	wallet, err := p.wallets.GetWallet(ctx, userID)
	if err != nil {
		return false, err
	}
	return wallet.KycVerified, nil
}

func (p *WalletFlagProvider) HasVerifiedDeposit(ctx context.Context, userID string) (bool, string, error) {
	wallet, err := p.wallets.GetWallet(ctx, userID)
	if err != nil {
		return false, "", err
	}
	return wallet.DepositVerified, wallet.DepositRef, nil
}
