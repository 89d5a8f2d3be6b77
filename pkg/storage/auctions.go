package storage

import (
	"context"
	"time"

	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/models"
)

// AuctionReader defines the interface for reading auction data.
type AuctionReader interface {
	// GetAuction retrieves an auction by its ID.
	GetAuction(ctx context.Context, auctionID string) (*models.Auction, error)

	// ListAuctions retrieves all auctions.
	ListAuctions(ctx context.Context) ([]models.Auction, error)

	// ListLiveAuctions retrieves every auction currently in the LIVE
	// state, used to reconstruct countdown timers on process start.
	ListLiveAuctions(ctx context.Context) ([]models.Auction, error)

	// ListOverdueLiveAuctions retrieves live auctions whose end_time has
	// already passed, used by the periodic finalize sweep.
	ListOverdueLiveAuctions(ctx context.Context, now time.Time) ([]models.Auction, error)
}

// AuctionManager defines the interface for creating auctions. Auction
// scheduling lives outside this service; this exists for provisioning
// and local development.
type AuctionManager interface {
	// CreateAuction persists a new auction.
	CreateAuction(ctx context.Context, auction *models.Auction) (*models.Auction, error)
}
