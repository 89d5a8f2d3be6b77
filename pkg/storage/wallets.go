package storage

import (
	"context"

	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/models"
)

// WalletStore defines the interface for managing wallets. Balance
// mutations never go through this interface; those are privileged
// EngineStore operations paired with audit entries.
type WalletStore interface {
	// GetWallet retrieves a user's wallet by their user ID.
	GetWallet(ctx context.Context, userID string) (*models.Wallet, error)

	// CreateWallet creates a new wallet for a user.
	CreateWallet(ctx context.Context, wallet *models.Wallet) (*models.Wallet, error)

	// ListWallets retrieves all wallets from the storage.
	ListWallets(ctx context.Context) ([]models.Wallet, error)
}
