package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/deposits"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/events"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/metrics"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/models"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/storage"
	"github.com/google/uuid"
)

// Engine is the bid ledger and escrow engine. Every public operation
// runs as one atomic unit of work against the store; operations on the
// same auction are serialized by a per-auction lock, so two concurrent
// bids (or a bid racing an admin override) can never interleave their
// wallet mutations. Different auctions proceed fully in parallel.
type Engine struct {
	store    storage.Storage
	pub      events.AdminPublisher
	deposits deposits.StatusProvider
	logger   *slog.Logger

	// locks maps auction id to its serialization mutex.
	locks sync.Map

	// Soft-close: an accepted bid landing inside the closing window
	// pushes the deadline out, so a last-second bid can always be
	// answered.
	extender        DeadlineExtender
	softCloseWindow time.Duration
	softCloseBy     int64

	now func() time.Time
}

// DeadlineExtender moves an auction's deadline forward. The countdown
// coordinator implements it.
type DeadlineExtender interface {
	Extend(ctx context.Context, auctionID string, minutes int64, reason string) error
}

// New creates an Engine over the given store, publisher and deposit
// status provider.
func New(store storage.Storage, pub events.AdminPublisher, dep deposits.StatusProvider, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:    store,
		pub:      pub,
		deposits: dep,
		logger:   logger,
		now:      time.Now,
	}
}

// EnableSoftClose turns on deadline extension for accepted bids placed
// within window of the auction's end. Each such bid extends the
// deadline by minutes.
func (e *Engine) EnableSoftClose(ext DeadlineExtender, window time.Duration, minutes int64) {
	e.extender = ext
	e.softCloseWindow = window
	e.softCloseBy = minutes
}

// lockAuction serializes engine operations per auction and returns the
// unlock function.
func (e *Engine) lockAuction(auctionID string) func() {
	v, _ := e.locks.LoadOrStore(auctionID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// PlaceBidParams are the caller-supplied fields of a bid placement.
type PlaceBidParams struct {
	AuctionId      string
	UserId         string
	Amount         int64
	IdempotencyKey string
	IsAuto         bool
	AutoBidId      string
}

// PlaceBidResult reports the recorded bid and its outcome. Accepted is
// false both for policy-rejected bids and for bids gated on admin
// approval; PendingAdmin distinguishes the two.
type PlaceBidResult struct {
	Bid          *models.Bid
	Accepted     bool
	PendingAdmin bool
}

// PlaceBid validates and records a bid, locking its required escrow.
// A bid below the minimum increment is recorded as rejected without
// touching any wallet balance. Resubmitting with the same idempotency
// key returns the previously recorded bid and locks nothing again.
func (e *Engine) PlaceBid(ctx context.Context, p PlaceBidParams) (*PlaceBidResult, error) {
	unlock := e.lockAuction(p.AuctionId)
	defer unlock()

	if p.IdempotencyKey != "" {
		existing, err := e.store.GetBidByIdempotencyKey(ctx, p.AuctionId, p.UserId, p.IdempotencyKey)
		if err == nil {
			return resultFor(existing), nil
		}
		if !errors.Is(err, storage.ErrBidNotFound) {
			return nil, fmt.Errorf("idempotency lookup: %w", err)
		}
	}

	auction, err := e.store.GetAuction(ctx, p.AuctionId)
	if err != nil {
		if errors.Is(err, storage.ErrAuctionNotFound) {
			return nil, ErrAuctionNotFound
		}
		return nil, fmt.Errorf("load auction: %w", err)
	}
	if auction.Status != models.AuctionLive {
		return nil, ErrAuctionNotLive
	}

	wallet, err := e.store.GetWallet(ctx, p.UserId)
	if err != nil {
		if errors.Is(err, storage.ErrWalletNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load wallet: %w", err)
	}

	required := auction.RequiredEscrow(p.Amount)

	kycOK, err := e.deposits.IsKYCVerified(ctx, p.UserId)
	if err != nil {
		return nil, fmt.Errorf("kyc status: %w", err)
	}
	if !kycOK {
		return nil, ErrKycNotVerified
	}
	depositOK, depositRef, err := e.deposits.HasVerifiedDeposit(ctx, p.UserId)
	if err != nil {
		return nil, fmt.Errorf("deposit status: %w", err)
	}
	if !depositOK {
		return nil, errDepositRequired(required)
	}

	now := e.now()

	if auction.MinIncrement > 0 {
		accepted, err := e.store.ListAcceptedBids(ctx, p.AuctionId)
		if err != nil {
			return nil, fmt.Errorf("load accepted bids: %w", err)
		}
		highest := highestAccepted(accepted)
		var highestAmount int64
		if highest != nil {
			highestAmount = highest.Amount
		}
		if minimum := auction.MinimumAllowedBid(highestAmount); p.Amount < minimum {
			bid := &models.Bid{
				Id:             uuid.New().String(),
				AuctionId:      p.AuctionId,
				UserId:         p.UserId,
				Amount:         p.Amount,
				Kind:           bidKind(p),
				Status:         models.BidRejected,
				Sequence:       auction.LastSequence + 1,
				IdempotencyKey: p.IdempotencyKey,
				AutoBidId:      p.AutoBidId,
				Rejection: &models.RejectionReason{
					Code:           models.ReasonBelowMinIncrement,
					HighestBid:     highestAmount,
					MinIncrement:   auction.MinIncrement,
					MinimumAllowed: minimum,
					Attempted:      p.Amount,
				},
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := e.store.InsertRejectedBid(ctx, &storage.RejectedBidInput{Auction: auction, Bid: bid}); err != nil {
				return nil, fmt.Errorf("record rejected bid: %w", err)
			}
			metrics.Bids.WithLabelValues("rejected").Inc()
			e.publish(ctx, p.AuctionId, events.Message{
				Type:    events.MessageBidRejected,
				Payload: events.BidRejectedPayload{Bid: bid, Reason: bid.Rejection},
			})
			return &PlaceBidResult{Bid: bid, Accepted: false}, nil
		}
	}

	if wallet.Available < required {
		return nil, errInsufficientWalletForDeposit(required)
	}

	status := models.BidAccepted
	if auction.AdminApprovalRequired {
		status = models.BidPending
	}
	bid := &models.Bid{
		Id:             uuid.New().String(),
		AuctionId:      p.AuctionId,
		UserId:         p.UserId,
		Amount:         p.Amount,
		Kind:           bidKind(p),
		Status:         status,
		Sequence:       auction.LastSequence + 1,
		IdempotencyKey: p.IdempotencyKey,
		AutoBidId:      p.AutoBidId,
		Escrow: &models.EscrowSnapshot{
			Locked:         required,
			RequiredEscrow: required,
			DepositRef:     depositRef,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	audit := walletAudit(wallet, models.EscrowLockedForBid, required, auction.Id, bid.Id,
		fmt.Sprintf("escrow locked for bid of %d", p.Amount))

	err = e.store.InsertBidWithEscrow(ctx, &storage.PlaceBidInput{
		Auction: auction,
		Wallet:  wallet,
		Bid:     bid,
		Audit:   audit,
	})
	if err != nil {
		if errors.Is(err, storage.ErrInsufficientFunds) {
			return nil, errInsufficientWalletForDeposit(required)
		}
		metrics.Bids.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("insert bid: %w", err)
	}
	metrics.EscrowMoved.WithLabelValues("locked").Add(float64(required))

	if status == models.BidPending {
		metrics.Bids.WithLabelValues("pending").Inc()
		e.publish(ctx, p.AuctionId, events.Message{
			Type:    events.MessageBidPending,
			Payload: events.BidPendingPayload{BidId: bid.Id},
		})
		return &PlaceBidResult{Bid: bid, PendingAdmin: true}, nil
	}

	metrics.Bids.WithLabelValues("accepted").Inc()
	e.publish(ctx, p.AuctionId, events.Message{
		Type:    events.MessageNewBid,
		Payload: events.NewBidPayload{Bid: bid, Accepted: true},
	})
	e.publish(ctx, p.AuctionId, events.Message{
		Type:    events.MessageBidOverlay,
		Payload: events.BidOverlayPayload{Amount: bid.Amount, Username: wallet.Name, Flags: overlayFlags(p)},
	})
	e.maybeSoftClose(ctx, auction, now)
	return &PlaceBidResult{Bid: bid, Accepted: true}, nil
}

// maybeSoftClose extends the deadline when an accepted bid lands inside
// the closing window.
func (e *Engine) maybeSoftClose(ctx context.Context, auction *models.Auction, now time.Time) {
	if e.extender == nil || e.softCloseWindow <= 0 {
		return
	}
	if remaining := auction.EndTime.Sub(now); remaining > 0 && remaining <= e.softCloseWindow {
		if err := e.extender.Extend(ctx, auction.Id, e.softCloseBy, "soft_close"); err != nil {
			e.logger.Error("soft-close extension failed", "auction_id", auction.Id, "error", err)
		}
	}
}

func resultFor(bid *models.Bid) *PlaceBidResult {
	return &PlaceBidResult{
		Bid:          bid,
		Accepted:     bid.Status == models.BidAccepted,
		PendingAdmin: bid.Status == models.BidPending,
	}
}

func bidKind(p PlaceBidParams) models.BidKind {
	if p.IsAuto {
		return models.BidAuto
	}
	return models.BidManual
}

func overlayFlags(p PlaceBidParams) []string {
	if p.IsAuto {
		return []string{"auto"}
	}
	return nil
}

// highestAccepted ranks by amount descending, then sequence descending:
// among equal amounts the later-sequenced bid wins.
func highestAccepted(bids []models.Bid) *models.Bid {
	var best *models.Bid
	for i := range bids {
		if bids[i].Status != models.BidAccepted {
			continue
		}
		if best == nil || bids[i].HigherThan(best) {
			best = &bids[i]
		}
	}
	return best
}

// walletAudit builds the audit entry for a wallet mutation moving
// escrowDelta from available into escrow (negative releases).
func walletAudit(w *models.Wallet, event models.WalletEventType, escrowDelta int64, auctionID, bidID, reason string) *models.WalletAuditLogEntry {
	return &models.WalletAuditLogEntry{
		EntryId:         uuid.New().String(),
		UserId:          w.UserId,
		EventType:       event,
		AvailableBefore: w.Available,
		AvailableAfter:  w.Available - escrowDelta,
		EscrowBefore:    w.Escrow,
		EscrowAfter:     w.Escrow + escrowDelta,
		Delta:           escrowDelta,
		AuctionId:       auctionID,
		BidId:           bidID,
		Reason:          reason,
		Timestamp:       nowUTC(),
		GSI1PK:          "AUDIT",
	}
}

func nowUTC() time.Time { return time.Now().UTC() }

func (e *Engine) publish(ctx context.Context, auctionID string, msg events.Message) {
	if e.pub == nil {
		return
	}
	if err := e.pub.PublishToAuction(ctx, auctionID, msg); err != nil {
		e.logger.Error("broadcast failed", "auction_id", auctionID, "type", msg.Type, "error", err)
	}
}

func (e *Engine) publishAdmins(ctx context.Context, msg events.Message) {
	if e.pub == nil {
		return
	}
	if err := e.pub.PublishToAdmins(ctx, msg); err != nil {
		e.logger.Error("admin broadcast failed", "type", msg.Type, "error", err)
	}
}
