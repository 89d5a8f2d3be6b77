package memory

import (
	"context"
	"time"

	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/models"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/storage"
)

// InsertBidWithEscrow atomically locks escrow in the bidder's wallet,
// inserts the bid, and advances the auction's counters.
func (s *Store) InsertBidWithEscrow(ctx context.Context, in *storage.PlaceBidInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	auction, ok := s.auctions[in.Auction.Id]
	if !ok {
		return storage.ErrAuctionNotFound
	}
	wallet, ok := s.wallets[in.Wallet.UserId]
	if !ok {
		return storage.ErrWalletNotFound
	}

	// All conditions checked before any mutation, mirroring the
	// all-or-nothing transaction.
	amount := in.Bid.Escrow.Locked
	if wallet.Version != in.Wallet.Version || auction.Version != in.Auction.Version {
		return storage.ErrVersionConflict
	}
	if auction.Status != models.AuctionLive {
		return storage.ErrVersionConflict
	}
	if wallet.Available < amount {
		return storage.ErrInsufficientFunds
	}

	wallet.Available -= amount
	wallet.Escrow += amount
	wallet.Version++

	auction.BidCount++
	auction.LastSequence = in.Bid.Sequence
	auction.Version++
	auction.UpdatedAt = in.Bid.CreatedAt

	s.bids[in.Bid.Id] = copyBid(in.Bid)
	s.audit = append(s.audit, *in.Audit)
	return nil
}

// InsertRejectedBid atomically records a policy-rejected bid and
// consumes a sequence number.
func (s *Store) InsertRejectedBid(ctx context.Context, in *storage.RejectedBidInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	auction, ok := s.auctions[in.Auction.Id]
	if !ok {
		return storage.ErrAuctionNotFound
	}
	if auction.Version != in.Auction.Version {
		return storage.ErrVersionConflict
	}

	auction.LastSequence = in.Bid.Sequence
	auction.Version++
	auction.UpdatedAt = in.Bid.CreatedAt
	s.bids[in.Bid.Id] = copyBid(in.Bid)
	return nil
}

// ReleaseBidEscrow atomically returns a bid's locked escrow to the
// wallet and flips the snapshot's released flag.
func (s *Store) ReleaseBidEscrow(ctx context.Context, in *storage.ReleaseEscrowInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bid, ok := s.bids[in.Bid.Id]
	if !ok {
		return storage.ErrBidNotFound
	}
	wallet, ok := s.wallets[in.Wallet.UserId]
	if !ok {
		return storage.ErrWalletNotFound
	}

	if bid.Escrow != nil && bid.Escrow.Released {
		return storage.ErrEscrowAlreadyReleased
	}
	if wallet.Version != in.Wallet.Version || wallet.Escrow < in.Amount {
		return storage.ErrVersionConflict
	}

	wallet.Available += in.Amount
	wallet.Escrow -= in.Amount
	wallet.Version++

	if bid.Escrow == nil {
		bid.Escrow = &models.EscrowSnapshot{}
	}
	bid.Escrow.Released = true
	if in.NewBidStatus != "" {
		bid.Status = in.NewBidStatus
	}
	bid.UpdatedAt = in.Audit.Timestamp

	s.audit = append(s.audit, *in.Audit)
	if in.AdminLog != nil {
		s.opsLog = append(s.opsLog, *in.AdminLog)
	}
	return nil
}

// AdjustBidEscrow atomically applies an override's wallet delta and
// rewrites the bid row.
func (s *Store) AdjustBidEscrow(ctx context.Context, in *storage.AdjustEscrowInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bids[in.Bid.Id]; !ok {
		return storage.ErrBidNotFound
	}
	wallet, ok := s.wallets[in.Wallet.UserId]
	if !ok {
		return storage.ErrWalletNotFound
	}

	if wallet.Version != in.Wallet.Version {
		return storage.ErrVersionConflict
	}
	if in.Delta > 0 && wallet.Available < in.Delta {
		return storage.ErrInsufficientFunds
	}
	if in.Delta < 0 && wallet.Escrow < -in.Delta {
		return storage.ErrVersionConflict
	}

	wallet.Available -= in.Delta
	wallet.Escrow += in.Delta
	wallet.Version++

	s.bids[in.Bid.Id] = copyBid(in.Bid)
	s.audit = append(s.audit, *in.Audit)
	s.opsLog = append(s.opsLog, *in.AdminLog)
	return nil
}

// UpdateBidStatus atomically writes the bid's new status and records
// the admin action that caused it.
func (s *Store) UpdateBidStatus(ctx context.Context, in *storage.BidStatusInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bid, ok := s.bids[in.Bid.Id]
	if !ok {
		return storage.ErrBidNotFound
	}
	bid.Status = in.Bid.Status
	bid.UpdatedAt = in.Bid.UpdatedAt
	s.opsLog = append(s.opsLog, *in.AdminLog)
	return nil
}

// MarkAuctionEnded transitions the auction to ENDED.
func (s *Store) MarkAuctionEnded(ctx context.Context, auction *models.Auction, adminLog *models.AdminActionLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.auctions[auction.Id]
	if !ok {
		return storage.ErrAuctionNotFound
	}
	if stored.Status == models.AuctionEnded {
		return storage.ErrAuctionEnded
	}

	stored.Status = models.AuctionEnded
	stored.Version++
	stored.UpdatedAt = time.Now().UTC()
	if adminLog != nil {
		s.opsLog = append(s.opsLog, *adminLog)
	}
	return nil
}

// UpdateAuctionReserve sets the auction's new reserve price and appends
// the reserve-drop record.
func (s *Store) UpdateAuctionReserve(ctx context.Context, auction *models.Auction, newReserve int64, entry *models.ReserveAutoDropLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.auctions[auction.Id]
	if !ok {
		return storage.ErrAuctionNotFound
	}
	if stored.Version != auction.Version || stored.Status == models.AuctionEnded {
		return storage.ErrVersionConflict
	}

	stored.ReservePrice = newReserve
	stored.Version++
	stored.UpdatedAt = entry.Timestamp
	s.drops = append(s.drops, *entry)
	return nil
}
