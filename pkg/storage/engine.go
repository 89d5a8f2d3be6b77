package storage

import (
	"context"
	"time"

	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/models"
)

// PlaceBidInput carries everything InsertBidWithEscrow writes in one
// atomic transaction. Auction and Wallet are the rows as the engine read
// them; their versions guard the conditional writes.
type PlaceBidInput struct {
	Auction *models.Auction
	Wallet  *models.Wallet
	Bid     *models.Bid
	Audit   *models.WalletAuditLogEntry
}

// RejectedBidInput records a bid refused by policy. No wallet items are
// part of the transaction.
type RejectedBidInput struct {
	Auction *models.Auction
	Bid     *models.Bid
}

// ReleaseEscrowInput moves a bid's locked escrow back to available.
// NewBidStatus may be empty to leave the bid's status unchanged (the
// finalize path releases losing bids without rejecting them).
type ReleaseEscrowInput struct {
	Auction      *models.Auction
	Bid          *models.Bid
	Wallet       *models.Wallet
	Amount       int64
	NewBidStatus models.BidStatus
	Audit        *models.WalletAuditLogEntry
	AdminLog     *models.AdminActionLogEntry
}

// AdjustEscrowInput applies an admin override: the bid row is rewritten
// with its new amount/kind/status/snapshot and the wallet moves Delta
// into escrow (negative Delta releases the difference).
type AdjustEscrowInput struct {
	Bid      *models.Bid
	Wallet   *models.Wallet
	Delta    int64
	Audit    *models.WalletAuditLogEntry
	AdminLog *models.AdminActionLogEntry
}

// BidStatusInput rewrites a bid's status field and records the action.
// Wallets are not part of the transaction.
type BidStatusInput struct {
	Bid      *models.Bid
	AdminLog *models.AdminActionLogEntry
}

// EngineStore defines the highly-privileged interface the bid ledger
// engine mutates money and auction state through. Every operation is a
// single atomic transaction; every wallet-touching operation writes its
// WalletAuditLogEntry inside that same transaction. It should only be
// exposed to the engine.
type EngineStore interface {
	// InsertBidWithEscrow atomically locks the bid's required escrow in
	// the user's wallet, inserts the bid, bumps the auction's bid_count
	// and sequence counter, and appends the audit entry. Fails with
	// ErrInsufficientFunds or ErrVersionConflict.
	InsertBidWithEscrow(ctx context.Context, in *PlaceBidInput) error

	// InsertRejectedBid atomically inserts a policy-rejected bid and
	// bumps the auction's sequence counter. Wallets are not touched.
	InsertRejectedBid(ctx context.Context, in *RejectedBidInput) error

	// ReleaseBidEscrow atomically returns escrow to available, marks the
	// bid's snapshot released, optionally flips the bid status, and
	// appends the audit (and admin) entries. A snapshot that was already
	// released fails with ErrEscrowAlreadyReleased.
	ReleaseBidEscrow(ctx context.Context, in *ReleaseEscrowInput) error

	// AdjustBidEscrow atomically applies an admin override's wallet
	// delta and bid rewrite. Fails with ErrInsufficientFunds when the
	// wallet cannot cover a positive delta.
	AdjustBidEscrow(ctx context.Context, in *AdjustEscrowInput) error

	// UpdateBidStatus atomically writes the bid's new status and records
	// the admin action that caused it.
	UpdateBidStatus(ctx context.Context, in *BidStatusInput) error

	// MarkAuctionEnded transitions the auction to ENDED. Fails with
	// ErrAuctionEnded if it already is, which is how redundant finalize
	// triggers detect each other.
	MarkAuctionEnded(ctx context.Context, auction *models.Auction, adminLog *models.AdminActionLogEntry) error

	// UpdateAuctionReserve sets the new reserve price and appends the
	// reserve-drop entry in the same transaction.
	UpdateAuctionReserve(ctx context.Context, auction *models.Auction, newReserve int64, entry *models.ReserveAutoDropLogEntry) error

	// UpdateAuctionEndTime persists a countdown extension.
	UpdateAuctionEndTime(ctx context.Context, auctionID string, endTime time.Time) error
}
