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

// HandleAdminAction executes a privileged accept/reject/override on a
// bid. Actions on the same auction are serialized with everything else
// the engine does to it; a second admin action on an already-updated
// bid operates on the updated row (last-committed-wins).
func (e *Engine) HandleAdminAction(ctx context.Context, bidID, adminID string, action models.AdminAction, overrideAmount *int64) error {
	// The auction id is on the bid, so one unlocked read precedes the
	// serialized section; the bid is re-read under the lock.
	ref, err := e.store.GetBid(ctx, bidID)
	if err != nil {
		if errors.Is(err, storage.ErrBidNotFound) {
			return ErrBidNotFound
		}
		return fmt.Errorf("load bid: %w", err)
	}

	unlock := e.lockAuction(ref.AuctionId)
	defer unlock()

	bid, err := e.store.GetBid(ctx, bidID)
	if err != nil {
		return fmt.Errorf("reload bid: %w", err)
	}
	auction, err := e.store.GetAuction(ctx, bid.AuctionId)
	if err != nil {
		if errors.Is(err, storage.ErrAuctionNotFound) {
			return ErrAuctionNotFound
		}
		return fmt.Errorf("load auction: %w", err)
	}
	wallet, err := e.store.GetWallet(ctx, bid.UserId)
	if err != nil {
		if errors.Is(err, storage.ErrWalletNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("load wallet: %w", err)
	}

	switch action {
	case models.AdminReject:
		return e.adminReject(ctx, auction, bid, wallet, adminID)
	case models.AdminOverride:
		if overrideAmount == nil {
			return ErrOverrideAmount
		}
		return e.adminOverride(ctx, auction, bid, wallet, adminID, *overrideAmount)
	case models.AdminAccept:
		return e.adminAccept(ctx, auction, bid, adminID)
	default:
		return fmt.Errorf("unknown admin action %q", action)
	}
}

func (e *Engine) adminReject(ctx context.Context, auction *models.Auction, bid *models.Bid, wallet *models.Wallet, adminID string) error {
	if bid.Status == models.BidRejected {
		return nil
	}

	adminLog := adminLogEntry(adminID, models.AdminReject, auction.Id, bid)
	adminLog.AfterStatus = models.BidRejected

	if bid.Escrow != nil && !bid.Escrow.Released {
		amount := bid.Escrow.Locked
		audit := walletAudit(wallet, models.EscrowReleased, -amount, auction.Id, bid.Id,
			"escrow released on admin reject")
		err := e.store.ReleaseBidEscrow(ctx, &storage.ReleaseEscrowInput{
			Auction:      auction,
			Bid:          bid,
			Wallet:       wallet,
			Amount:       amount,
			NewBidStatus: models.BidRejected,
			Audit:        audit,
			AdminLog:     adminLog,
		})
		if err != nil && !errors.Is(err, storage.ErrEscrowAlreadyReleased) {
			return fmt.Errorf("release escrow: %w", err)
		}
		metrics.EscrowMoved.WithLabelValues("released").Add(float64(amount))
	} else {
		updated := *bid
		updated.Status = models.BidRejected
		updated.UpdatedAt = e.now()
		if err := e.store.UpdateBidStatus(ctx, &storage.BidStatusInput{Bid: &updated, AdminLog: adminLog}); err != nil {
			return fmt.Errorf("reject bid: %w", err)
		}
	}

	bid.Status = models.BidRejected
	metrics.AdminActions.WithLabelValues(string(models.AdminReject)).Inc()
	e.publish(ctx, auction.Id, events.Message{
		Type:    events.MessageNewBid,
		Payload: events.NewBidPayload{Bid: bid, Accepted: false},
	})
	e.publish(ctx, auction.Id, events.Message{
		Type:    events.MessageAdminActionLog,
		Payload: events.AdminActionPayload{Action: adminLog},
	})
	return nil
}

func (e *Engine) adminOverride(ctx context.Context, auction *models.Auction, bid *models.Bid, wallet *models.Wallet, adminID string, amount int64) error {
	required := auction.RequiredEscrow(amount)

	var previous int64
	depositRef := ""
	if bid.Escrow != nil && !bid.Escrow.Released {
		previous = bid.Escrow.Locked
		depositRef = bid.Escrow.DepositRef
	}
	delta := required - previous
	if delta > 0 && wallet.Available < delta {
		return errInsufficientWalletForOverride(delta)
	}

	adminLog := adminLogEntry(adminID, models.AdminOverride, auction.Id, bid)
	adminLog.AfterStatus = models.BidAccepted
	adminLog.AfterAmount = amount

	updated := *bid
	updated.Amount = amount
	updated.Kind = models.BidAdminOverride
	updated.Status = models.BidAccepted
	updated.Escrow = &models.EscrowSnapshot{
		Locked:         required,
		RequiredEscrow: required,
		DepositRef:     depositRef,
	}
	updated.UpdatedAt = e.now()

	audit := walletAudit(wallet, models.EscrowAdjusted, delta, auction.Id, bid.Id,
		fmt.Sprintf("escrow adjusted for admin override to %d", amount))

	err := e.store.AdjustBidEscrow(ctx, &storage.AdjustEscrowInput{
		Bid:      &updated,
		Wallet:   wallet,
		Delta:    delta,
		Audit:    audit,
		AdminLog: adminLog,
	})
	if err != nil {
		if errors.Is(err, storage.ErrInsufficientFunds) {
			return errInsufficientWalletForOverride(delta)
		}
		return fmt.Errorf("adjust escrow: %w", err)
	}
	if delta > 0 {
		metrics.EscrowMoved.WithLabelValues("locked").Add(float64(delta))
	} else if delta < 0 {
		metrics.EscrowMoved.WithLabelValues("released").Add(float64(-delta))
	}

	metrics.AdminActions.WithLabelValues(string(models.AdminOverride)).Inc()
	e.publish(ctx, auction.Id, events.Message{
		Type:    events.MessageNewBid,
		Payload: events.NewBidPayload{Bid: &updated, Accepted: true},
	})
	e.publish(ctx, auction.Id, events.Message{
		Type:    events.MessageAdminActionLog,
		Payload: events.AdminActionPayload{Action: adminLog},
	})
	return nil
}

func (e *Engine) adminAccept(ctx context.Context, auction *models.Auction, bid *models.Bid, adminID string) error {
	if bid.Status == models.BidAccepted {
		return nil
	}

	adminLog := adminLogEntry(adminID, models.AdminAccept, auction.Id, bid)
	adminLog.AfterStatus = models.BidAccepted

	updated := *bid
	updated.Status = models.BidAccepted
	updated.UpdatedAt = e.now()

	if err := e.store.UpdateBidStatus(ctx, &storage.BidStatusInput{Bid: &updated, AdminLog: adminLog}); err != nil {
		return fmt.Errorf("accept bid: %w", err)
	}

	metrics.AdminActions.WithLabelValues(string(models.AdminAccept)).Inc()
	e.publish(ctx, auction.Id, events.Message{
		Type:    events.MessageNewBid,
		Payload: events.NewBidPayload{Bid: &updated, Accepted: true},
	})
	e.publish(ctx, auction.Id, events.Message{
		Type:    events.MessageAdminActionLog,
		Payload: events.AdminActionPayload{Action: adminLog},
	})
	return nil
}

func adminLogEntry(adminID string, action models.AdminAction, auctionID string, bid *models.Bid) *models.AdminActionLogEntry {
	entry := &models.AdminActionLogEntry{
		EntryId:   uuid.New().String(),
		Kind:      models.OpsAdminAction,
		AdminId:   adminID,
		Action:    action,
		AuctionId: auctionID,
		Timestamp: nowUTC(),
		GSI1PK:    "OPSLOG",
	}
	if bid != nil {
		entry.BidId = bid.Id
		entry.UserId = bid.UserId
		entry.BeforeStatus = bid.Status
		entry.BeforeAmount = bid.Amount
	}
	return entry
}
