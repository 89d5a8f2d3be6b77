package memory

import (
	"context"
	"testing"
	"time"

	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/models"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

func seed(t *testing.T) (*Store, *models.Auction, *models.Wallet) {
	t.Helper()
	s := New()
	auction, err := s.CreateAuction(ctx, &models.Auction{
		Id:      "auction1",
		Status:  models.AuctionLive,
		EndTime: time.Now().Add(10 * time.Minute),
		Version: 1,
	})
	require.NoError(t, err)
	wallet, err := s.CreateWallet(ctx, &models.Wallet{
		UserId:    "user1",
		Available: 50000,
		Version:   1,
	})
	require.NoError(t, err)
	return s, auction, wallet
}

func placeInput(auction *models.Auction, wallet *models.Wallet) *storage.PlaceBidInput {
	return &storage.PlaceBidInput{
		Auction: auction,
		Wallet:  wallet,
		Bid: &models.Bid{
			Id:        "bid1",
			AuctionId: auction.Id,
			UserId:    wallet.UserId,
			Amount:    10000,
			Status:    models.BidAccepted,
			Sequence:  auction.LastSequence + 1,
			Escrow:    &models.EscrowSnapshot{Locked: 1000, RequiredEscrow: 1000},
			CreatedAt: time.Now().UTC(),
		},
		Audit: &models.WalletAuditLogEntry{EntryId: "audit1", UserId: wallet.UserId, Delta: 1000},
	}
}

func TestInsertBidWithEscrow(t *testing.T) {
	t.Run("Moves Available Into Escrow", func(t *testing.T) {
		s, auction, wallet := seed(t)

		require.NoError(t, s.InsertBidWithEscrow(ctx, placeInput(auction, wallet)))

		updated, err := s.GetWallet(ctx, "user1")
		require.NoError(t, err)
		assert.Equal(t, int64(49000), updated.Available)
		assert.Equal(t, int64(1000), updated.Escrow)
		assert.Equal(t, int64(2), updated.Version)

		current, err := s.GetAuction(ctx, "auction1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), current.BidCount)
		assert.Equal(t, int64(1), current.LastSequence)
	})

	t.Run("Stale Version Mutates Nothing", func(t *testing.T) {
		s, auction, wallet := seed(t)
		stale := *auction
		stale.Version = 99

		err := s.InsertBidWithEscrow(ctx, placeInput(&stale, wallet))

		assert.ErrorIs(t, err, storage.ErrVersionConflict)
		updated, _ := s.GetWallet(ctx, "user1")
		assert.Equal(t, int64(50000), updated.Available)
		_, err = s.GetBid(ctx, "bid1")
		assert.ErrorIs(t, err, storage.ErrBidNotFound)
	})

	t.Run("Insufficient Funds", func(t *testing.T) {
		s, auction, wallet := seed(t)
		in := placeInput(auction, wallet)
		in.Bid.Escrow.Locked = 60000

		err := s.InsertBidWithEscrow(ctx, in)

		assert.ErrorIs(t, err, storage.ErrInsufficientFunds)
	})

	t.Run("Auction Not Live", func(t *testing.T) {
		s, auction, wallet := seed(t)
		require.NoError(t, s.MarkAuctionEnded(ctx, auction, nil))
		ended, err := s.GetAuction(ctx, "auction1")
		require.NoError(t, err)

		err = s.InsertBidWithEscrow(ctx, placeInput(ended, wallet))

		assert.Error(t, err)
	})
}

func TestReleaseBidEscrow(t *testing.T) {
	locked := func(t *testing.T) (*Store, *models.Bid, *models.Wallet) {
		t.Helper()
		s, auction, wallet := seed(t)
		require.NoError(t, s.InsertBidWithEscrow(ctx, placeInput(auction, wallet)))
		bid, err := s.GetBid(ctx, "bid1")
		require.NoError(t, err)
		current, err := s.GetWallet(ctx, "user1")
		require.NoError(t, err)
		return s, bid, current
	}

	t.Run("Returns Escrow Exactly Once", func(t *testing.T) {
		s, bid, wallet := locked(t)
		in := &storage.ReleaseEscrowInput{
			Bid:    bid,
			Wallet: wallet,
			Amount: 1000,
			Audit:  &models.WalletAuditLogEntry{EntryId: "audit2", UserId: "user1", Delta: -1000},
		}

		require.NoError(t, s.ReleaseBidEscrow(ctx, in))

		updated, err := s.GetWallet(ctx, "user1")
		require.NoError(t, err)
		assert.Equal(t, int64(50000), updated.Available)
		assert.Equal(t, int64(0), updated.Escrow)

		// The released flag guards the replay.
		replayBid, err := s.GetBid(ctx, "bid1")
		require.NoError(t, err)
		in.Bid = replayBid
		in.Wallet = updated
		assert.ErrorIs(t, s.ReleaseBidEscrow(ctx, in), storage.ErrEscrowAlreadyReleased)
	})

	t.Run("Optional Status Flip", func(t *testing.T) {
		s, bid, wallet := locked(t)

		err := s.ReleaseBidEscrow(ctx, &storage.ReleaseEscrowInput{
			Bid:          bid,
			Wallet:       wallet,
			Amount:       1000,
			NewBidStatus: models.BidRejected,
			Audit:        &models.WalletAuditLogEntry{EntryId: "audit2", UserId: "user1"},
			AdminLog:     &models.AdminActionLogEntry{EntryId: "ops1", AdminId: "admin1", Action: models.AdminReject},
		})
		require.NoError(t, err)

		updated, err := s.GetBid(ctx, "bid1")
		require.NoError(t, err)
		assert.Equal(t, models.BidRejected, updated.Status)

		actions, err := s.ListAdminActions(ctx, 10)
		require.NoError(t, err)
		require.Len(t, actions, 1)
		assert.Equal(t, "admin1", actions[0].AdminId)
	})
}

func TestMarkAuctionEnded(t *testing.T) {
	t.Run("Ended Is Terminal", func(t *testing.T) {
		s, auction, _ := seed(t)

		require.NoError(t, s.MarkAuctionEnded(ctx, auction, nil))

		ended, err := s.GetAuction(ctx, "auction1")
		require.NoError(t, err)
		assert.Equal(t, models.AuctionEnded, ended.Status)

		assert.ErrorIs(t, s.MarkAuctionEnded(ctx, ended, nil), storage.ErrAuctionEnded)
	})
}

func TestReads(t *testing.T) {
	t.Run("Copies Are Returned", func(t *testing.T) {
		s, _, _ := seed(t)

		first, err := s.GetAuction(ctx, "auction1")
		require.NoError(t, err)
		first.Status = models.AuctionPaused

		second, err := s.GetAuction(ctx, "auction1")
		require.NoError(t, err)
		assert.Equal(t, models.AuctionLive, second.Status)
	})

	t.Run("Accepted Bids Only", func(t *testing.T) {
		s, auction, wallet := seed(t)
		require.NoError(t, s.InsertBidWithEscrow(ctx, placeInput(auction, wallet)))

		current, err := s.GetAuction(ctx, "auction1")
		require.NoError(t, err)
		require.NoError(t, s.InsertRejectedBid(ctx, &storage.RejectedBidInput{
			Auction: current,
			Bid: &models.Bid{
				Id:        "bid2",
				AuctionId: "auction1",
				UserId:    "user1",
				Amount:    10100,
				Status:    models.BidRejected,
				Sequence:  current.LastSequence + 1,
				CreatedAt: time.Now().UTC(),
			},
		}))

		all, err := s.ListBidsByAuction(ctx, "auction1")
		require.NoError(t, err)
		assert.Len(t, all, 2)

		accepted, err := s.ListAcceptedBids(ctx, "auction1")
		require.NoError(t, err)
		require.Len(t, accepted, 1)
		assert.Equal(t, "bid1", accepted[0].Id)
	})
}
