package mapping

import (
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/api"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/models"
)

// ToApiAuction converts a domain Auction model to an API Auction model.
func ToApiAuction(auction *models.Auction) *api.Auction {
	return &api.Auction{
		Id:                    auction.Id,
		Title:                 auction.Title,
		SellerId:              auction.SellerId,
		Status:                string(auction.Status),
		EndTime:               auction.EndTime,
		ReservePrice:          auction.ReservePrice,
		MinIncrement:          auction.MinIncrement,
		AdminApprovalRequired: auction.AdminApprovalRequired,
		DepositPercent:        auction.DepositPercent,
		DepositFixed:          auction.DepositFixed,
		BidCount:              auction.BidCount,
		CreatedAt:             auction.CreatedAt,
	}
}

// ToApiBid converts a domain Bid model to an API Bid model.
func ToApiBid(bid *models.Bid) *api.Bid {
	apiBid := &api.Bid{
		Id:        bid.Id,
		AuctionId: bid.AuctionId,
		UserId:    bid.UserId,
		Amount:    bid.Amount,
		Kind:      string(bid.Kind),
		Status:    string(bid.Status),
		Sequence:  bid.Sequence,
		CreatedAt: bid.CreatedAt,
	}
	if bid.Escrow != nil && !bid.Escrow.Released {
		apiBid.LockedEscrow = bid.Escrow.Locked
	}
	if bid.Rejection != nil {
		apiBid.RejectionCode = bid.Rejection.Code
		minimum := bid.Rejection.MinimumAllowed
		apiBid.MinimumAllowed = &minimum
	}
	return apiBid
}

// ToApiWallet converts a domain Wallet model to an API Wallet model.
func ToApiWallet(wallet *models.Wallet) *api.Wallet {
	return &api.Wallet{
		UserId:          wallet.UserId,
		Name:            wallet.Name,
		Available:       wallet.Available,
		Escrow:          wallet.Escrow,
		KycVerified:     wallet.KycVerified,
		DepositVerified: wallet.DepositVerified,
	}
}

// ToDomainNewWallet converts an API NewWallet model to a domain Wallet model.
func ToDomainNewWallet(newWallet *api.NewWallet) *models.Wallet {
	return &models.Wallet{
		UserId:    newWallet.UserId,
		Name:      newWallet.Name,
		Available: 100000, // Seed new wallets with 100000 minor units.
		Version:   1,
	}
}

// ToApiLedgerEntry converts a domain WalletAuditLogEntry to an API LedgerEntry.
func ToApiLedgerEntry(entry *models.WalletAuditLogEntry) *api.LedgerEntry {
	return &api.LedgerEntry{
		EntryId:         entry.EntryId,
		UserId:          entry.UserId,
		EventType:       string(entry.EventType),
		AvailableBefore: entry.AvailableBefore,
		AvailableAfter:  entry.AvailableAfter,
		EscrowBefore:    entry.EscrowBefore,
		EscrowAfter:     entry.EscrowAfter,
		Delta:           entry.Delta,
		AuctionId:       entry.AuctionId,
		BidId:           entry.BidId,
		Reason:          entry.Reason,
		Timestamp:       entry.Timestamp,
	}
}

// ToApiAdminAction converts a domain AdminActionLogEntry to an API AdminActionEntry.
func ToApiAdminAction(entry *models.AdminActionLogEntry) *api.AdminActionEntry {
	return &api.AdminActionEntry{
		EntryId:      entry.EntryId,
		AdminId:      entry.AdminId,
		Action:       string(entry.Action),
		AuctionId:    entry.AuctionId,
		BidId:        entry.BidId,
		UserId:       entry.UserId,
		BeforeStatus: string(entry.BeforeStatus),
		AfterStatus:  string(entry.AfterStatus),
		BeforeAmount: entry.BeforeAmount,
		AfterAmount:  entry.AfterAmount,
		Timestamp:    entry.Timestamp,
	}
}
