package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/events"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/metrics"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/models"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/storage"
	"github.com/google/uuid"
)

// FinalizeWinner ends an auction on an admin's authority: the highest
// accepted bid wins, every other accepted bid's escrow is released, and
// the auction transitions to its terminal ENDED state. The winning
// bid's escrow stays locked for downstream settlement.
func (e *Engine) FinalizeWinner(ctx context.Context, auctionID, adminID string) error {
	return e.finalize(ctx, auctionID, adminID, "admin", false)
}

// AutoFinalizeWinner is the system-triggered finalize invoked by the
// countdown timer, the deadline queue and the periodic sweep. It is a
// no-op when the auction is already ended or its deadline has not
// passed, so all three triggers may fire redundantly.
func (e *Engine) AutoFinalizeWinner(ctx context.Context, auctionID, trigger string) error {
	return e.finalize(ctx, auctionID, "", trigger, true)
}

func (e *Engine) finalize(ctx context.Context, auctionID, adminID, trigger string, requireDeadline bool) error {
	unlock := e.lockAuction(auctionID)
	defer unlock()

	auction, err := e.store.GetAuction(ctx, auctionID)
	if err != nil {
		if errors.Is(err, storage.ErrAuctionNotFound) {
			return ErrAuctionNotFound
		}
		return fmt.Errorf("load auction: %w", err)
	}
	if auction.Status == models.AuctionEnded {
		return nil
	}
	if requireDeadline && e.now().Before(auction.EndTime) {
		return nil
	}

	accepted, err := e.store.ListAcceptedBids(ctx, auctionID)
	if err != nil {
		return fmt.Errorf("load accepted bids: %w", err)
	}
	winner := highestAccepted(accepted)

	// Every bid still holding escrow gets released, including pending
	// bids that never saw an admin decision. Losing escrow goes back
	// first, one idempotent release per bid; the terminal status flip
	// comes last so a crash mid-release leaves the auction visible to
	// the sweep, which re-runs the remainder.
	allBids, err := e.store.ListBidsByAuction(ctx, auctionID)
	if err != nil {
		return fmt.Errorf("load bids: %w", err)
	}
	released := 0
	for i := range allBids {
		bid := &allBids[i]
		if winner != nil && bid.Id == winner.Id {
			continue
		}
		// Rejected bids either never locked funds or were released on
		// rejection; everything else still holding escrow goes back.
		if bid.Status == models.BidRejected {
			continue
		}
		if bid.Escrow != nil && bid.Escrow.Released {
			continue
		}
		if err := e.releaseLosingBid(ctx, auction, bid); err != nil {
			return err
		}
		released++
	}

	var adminLog *models.AdminActionLogEntry
	if adminID != "" {
		adminLog = adminLogEntry(adminID, models.AdminFinalize, auctionID, winner)
	}
	if err := e.store.MarkAuctionEnded(ctx, auction, adminLog); err != nil {
		if errors.Is(err, storage.ErrAuctionEnded) {
			return nil
		}
		return fmt.Errorf("end auction: %w", err)
	}
	metrics.Finalizes.WithLabelValues(trigger).Inc()

	var winnerAmount int64
	if winner != nil {
		winnerAmount = winner.Amount
	}
	e.publish(ctx, auctionID, events.Message{
		Type:    events.MessageWinnerFinalized,
		Payload: events.WinnerFinalizedPayload{Winner: winner, Amount: winnerAmount},
	})
	e.publish(ctx, auctionID, events.Message{
		Type:    events.MessageAuctionEnded,
		Payload: events.AuctionEndedPayload{AuctionId: auctionID},
	})
	e.publishAdmins(ctx, events.Message{
		Type:    events.MessageWinnerFinalized,
		Payload: events.WinnerFinalizedPayload{Winner: winner, Amount: winnerAmount},
	})

	e.logger.Info("auction finalized",
		"auction_id", auctionID,
		"trigger", trigger,
		"winner_amount", winnerAmount,
		"released_bids", released,
	)
	return nil
}

func (e *Engine) releaseLosingBid(ctx context.Context, auction *models.Auction, bid *models.Bid) error {
	if bid.Escrow != nil && bid.Escrow.Released {
		return nil
	}
	amount := releaseAmount(auction, bid)
	if amount == 0 {
		return nil
	}

	wallet, err := e.store.GetWallet(ctx, bid.UserId)
	if err != nil {
		return fmt.Errorf("load wallet for release: %w", err)
	}
	audit := walletAudit(wallet, models.EscrowReleased, -amount, auction.Id, bid.Id,
		"escrow released on auction finalize")
	err = e.store.ReleaseBidEscrow(ctx, &storage.ReleaseEscrowInput{
		Auction: auction,
		Bid:     bid,
		Wallet:  wallet,
		Amount:  amount,
		Audit:   audit,
	})
	if err != nil {
		if errors.Is(err, storage.ErrEscrowAlreadyReleased) {
			return nil
		}
		return fmt.Errorf("release losing bid %s: %w", bid.Id, err)
	}
	metrics.EscrowMoved.WithLabelValues("released").Add(float64(amount))
	return nil
}

// releaseAmount prefers the bid's escrow snapshot; a snapshot with no
// recorded requirement falls back to the current deposit configuration.
func releaseAmount(auction *models.Auction, bid *models.Bid) int64 {
	if bid.Escrow != nil && bid.Escrow.Locked > 0 {
		return bid.Escrow.Locked
	}
	return auction.RequiredEscrow(bid.Amount)
}

// ReserveDropContext describes what triggered a reserve change.
type ReserveDropContext struct {
	TriggerReason string
	Actor         string
	ApprovalType  string
}

// ApplyReserveAutoDrop updates the auction's reserve price and records
// the change. Unchanged reserve is a no-op.
func (e *Engine) ApplyReserveAutoDrop(ctx context.Context, auctionID string, newReserve int64, drop ReserveDropContext) error {
	unlock := e.lockAuction(auctionID)
	defer unlock()

	auction, err := e.store.GetAuction(ctx, auctionID)
	if err != nil {
		if errors.Is(err, storage.ErrAuctionNotFound) {
			return ErrAuctionNotFound
		}
		return fmt.Errorf("load auction: %w", err)
	}
	if auction.ReservePrice == newReserve {
		return nil
	}

	entry := &models.ReserveAutoDropLogEntry{
		EntryId:       uuid.New().String(),
		Kind:          models.OpsReserveAutoDrop,
		AuctionId:     auctionID,
		OldReserve:    auction.ReservePrice,
		NewReserve:    newReserve,
		Delta:         newReserve - auction.ReservePrice,
		TriggerReason: drop.TriggerReason,
		Actor:         drop.Actor,
		ApprovalType:  drop.ApprovalType,
		Timestamp:     nowUTC(),
		GSI1PK:        "OPSLOG",
	}
	if err := e.store.UpdateAuctionReserve(ctx, auction, newReserve, entry); err != nil {
		return fmt.Errorf("update reserve: %w", err)
	}
	e.logger.Info("reserve updated",
		"auction_id", auctionID,
		"old_reserve", entry.OldReserve,
		"new_reserve", newReserve,
		"trigger", drop.TriggerReason,
	)
	return nil
}
