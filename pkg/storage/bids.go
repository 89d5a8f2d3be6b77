package storage

import (
	"context"

	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/models"
)

// BidReader defines the interface for reading bid data.
type BidReader interface {
	// GetBid retrieves a bid by its ID.
	GetBid(ctx context.Context, bidID string) (*models.Bid, error)

	// GetBidByIdempotencyKey retrieves the bid previously inserted for
	// the given (auction, user, key) triple, or ErrBidNotFound.
	GetBidByIdempotencyKey(ctx context.Context, auctionID, userID, key string) (*models.Bid, error)

	// ListBidsByAuction retrieves all bids for an auction, most recent
	// sequence first.
	ListBidsByAuction(ctx context.Context, auctionID string) ([]models.Bid, error)

	// ListAcceptedBids retrieves all accepted bids for an auction, in no
	// particular order. Ranking is the engine's concern.
	ListAcceptedBids(ctx context.Context, auctionID string) ([]models.Bid, error)
}
