// Package memory provides an in-memory Storage implementation with the
// same transactional semantics as the DynamoDB store: version-guarded
// writes, all-or-nothing engine operations, audit entries appended in
// the same critical section. It backs local development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/models"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/storage"
)

// Store implements the Storage interface with in-process maps. A single
// mutex stands in for DynamoDB's transactional conditions; every engine
// operation validates all its conditions before mutating anything.
type Store struct {
	mu       sync.RWMutex
	auctions map[string]*models.Auction
	bids     map[string]*models.Bid
	wallets  map[string]*models.Wallet
	audit    []models.WalletAuditLogEntry
	opsLog   []models.AdminActionLogEntry
	drops    []models.ReserveAutoDropLogEntry
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		auctions: make(map[string]*models.Auction),
		bids:     make(map[string]*models.Bid),
		wallets:  make(map[string]*models.Wallet),
	}
}

var _ storage.Storage = (*Store)(nil)
var _ storage.AuctionManager = (*Store)(nil)

func copyAuction(a *models.Auction) *models.Auction {
	c := *a
	return &c
}

func copyBid(b *models.Bid) *models.Bid {
	c := *b
	if b.Escrow != nil {
		e := *b.Escrow
		c.Escrow = &e
	}
	if b.Rejection != nil {
		r := *b.Rejection
		c.Rejection = &r
	}
	return &c
}

func copyWallet(w *models.Wallet) *models.Wallet {
	c := *w
	return &c
}

// GetAuction retrieves an auction by its ID.
func (s *Store) GetAuction(ctx context.Context, auctionID string) (*models.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	auction, ok := s.auctions[auctionID]
	if !ok {
		return nil, storage.ErrAuctionNotFound
	}
	return copyAuction(auction), nil
}

// CreateAuction persists a new auction.
func (s *Store) CreateAuction(ctx context.Context, auction *models.Auction) (*models.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auctions[auction.Id] = copyAuction(auction)
	return auction, nil
}

// ListAuctions retrieves all auctions.
func (s *Store) ListAuctions(ctx context.Context) ([]models.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	auctions := make([]models.Auction, 0, len(s.auctions))
	for _, a := range s.auctions {
		auctions = append(auctions, *a)
	}
	sort.Slice(auctions, func(i, j int) bool { return auctions[i].Id < auctions[j].Id })
	return auctions, nil
}

// ListLiveAuctions retrieves every auction currently in the LIVE state.
func (s *Store) ListLiveAuctions(ctx context.Context) ([]models.Auction, error) {
	return s.listLive(func(a *models.Auction) bool { return true })
}

// ListOverdueLiveAuctions retrieves live auctions whose end_time has
// already passed.
func (s *Store) ListOverdueLiveAuctions(ctx context.Context, now time.Time) ([]models.Auction, error) {
	return s.listLive(func(a *models.Auction) bool { return a.EndTime.Before(now) })
}

func (s *Store) listLive(keep func(*models.Auction) bool) ([]models.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var auctions []models.Auction
	for _, a := range s.auctions {
		if a.Status == models.AuctionLive && keep(a) {
			auctions = append(auctions, *a)
		}
	}
	sort.Slice(auctions, func(i, j int) bool { return auctions[i].EndTime.Before(auctions[j].EndTime) })
	return auctions, nil
}

// UpdateAuctionEndTime persists a countdown extension.
func (s *Store) UpdateAuctionEndTime(ctx context.Context, auctionID string, endTime time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	auction, ok := s.auctions[auctionID]
	if !ok {
		return storage.ErrAuctionNotFound
	}
	auction.EndTime = endTime
	auction.UpdatedAt = time.Now().UTC()
	return nil
}

// GetBid retrieves a bid by its ID.
func (s *Store) GetBid(ctx context.Context, bidID string) (*models.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bid, ok := s.bids[bidID]
	if !ok {
		return nil, storage.ErrBidNotFound
	}
	return copyBid(bid), nil
}

// GetBidByIdempotencyKey retrieves the bid previously inserted for the
// given (auction, user, key) triple.
func (s *Store) GetBidByIdempotencyKey(ctx context.Context, auctionID, userID, key string) (*models.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, bid := range s.bids {
		if bid.AuctionId == auctionID && bid.UserId == userID && bid.IdempotencyKey == key {
			return copyBid(bid), nil
		}
	}
	return nil, storage.ErrBidNotFound
}

// ListBidsByAuction retrieves all bids for an auction, most recent
// sequence first.
func (s *Store) ListBidsByAuction(ctx context.Context, auctionID string) ([]models.Bid, error) {
	return s.listBids(auctionID, false)
}

// ListAcceptedBids retrieves all accepted bids for an auction.
func (s *Store) ListAcceptedBids(ctx context.Context, auctionID string) ([]models.Bid, error) {
	return s.listBids(auctionID, true)
}

func (s *Store) listBids(auctionID string, acceptedOnly bool) ([]models.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var bids []models.Bid
	for _, bid := range s.bids {
		if bid.AuctionId != auctionID {
			continue
		}
		if acceptedOnly && bid.Status != models.BidAccepted {
			continue
		}
		bids = append(bids, *copyBid(bid))
	}
	sort.Slice(bids, func(i, j int) bool { return bids[i].Sequence > bids[j].Sequence })
	return bids, nil
}

// GetWallet retrieves a user's wallet by their user ID.
func (s *Store) GetWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wallet, ok := s.wallets[userID]
	if !ok {
		return nil, storage.ErrWalletNotFound
	}
	return copyWallet(wallet), nil
}

// CreateWallet creates a new wallet for a user.
func (s *Store) CreateWallet(ctx context.Context, wallet *models.Wallet) (*models.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.wallets[wallet.UserId]; ok {
		return nil, storage.ErrWalletExists
	}
	s.wallets[wallet.UserId] = copyWallet(wallet)
	return wallet, nil
}

// ListWallets retrieves all wallets.
func (s *Store) ListWallets(ctx context.Context) ([]models.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wallets := make([]models.Wallet, 0, len(s.wallets))
	for _, w := range s.wallets {
		wallets = append(wallets, *w)
	}
	sort.Slice(wallets, func(i, j int) bool { return wallets[i].UserId < wallets[j].UserId })
	return wallets, nil
}

// ListWalletAuditEntries retrieves the most recent wallet audit
// entries, newest first.
func (s *Store) ListWalletAuditEntries(ctx context.Context, limit int32) ([]models.WalletAuditLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.audit)
	entries := make([]models.WalletAuditLogEntry, 0, n)
	for i := n - 1; i >= 0 && len(entries) < int(limit); i-- {
		entries = append(entries, s.audit[i])
	}
	return entries, nil
}

// ListAdminActions retrieves the most recent admin action entries,
// newest first.
func (s *Store) ListAdminActions(ctx context.Context, limit int32) ([]models.AdminActionLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.opsLog)
	entries := make([]models.AdminActionLogEntry, 0, n)
	for i := n - 1; i >= 0 && len(entries) < int(limit); i-- {
		entries = append(entries, s.opsLog[i])
	}
	return entries, nil
}

// ReserveDrops returns every recorded reserve-price change. Test helper.
func (s *Store) ReserveDrops() []models.ReserveAutoDropLogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	drops := make([]models.ReserveAutoDropLogEntry, len(s.drops))
	copy(drops, s.drops)
	return drops
}
