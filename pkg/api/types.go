// Package api holds the JSON types served by the HTTP read surface.
// They are deliberately decoupled from the domain models in pkg/models
// so internal fields (versions, index keys) never leak onto the wire.
package api

import "time"

// Auction is the public view of an auction.
type Auction struct {
	Id                    string    `json:"id"`
	Title                 string    `json:"title"`
	SellerId              string    `json:"seller_id"`
	Status                string    `json:"status"`
	EndTime               time.Time `json:"end_time"`
	ReservePrice          int64     `json:"reserve_price"`
	MinIncrement          int64     `json:"min_increment"`
	AdminApprovalRequired bool      `json:"admin_approval_required"`
	DepositPercent        int64     `json:"deposit_percent"`
	DepositFixed          int64     `json:"deposit_fixed"`
	BidCount              int64     `json:"bid_count"`
	CreatedAt             time.Time `json:"created_at"`
}

// Bid is the public view of a bid.
type Bid struct {
	Id             string    `json:"id"`
	AuctionId      string    `json:"auction_id"`
	UserId         string    `json:"user_id"`
	Amount         int64     `json:"amount"`
	Kind           string    `json:"kind"`
	Status         string    `json:"status"`
	Sequence       int64     `json:"sequence"`
	LockedEscrow   int64     `json:"locked_escrow,omitempty"`
	RejectionCode  string    `json:"rejection_code,omitempty"`
	MinimumAllowed *int64    `json:"minimum_allowed,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Wallet is the public view of a wallet. Escrow is reported alongside
// the available balance so clients can render total funds.
type Wallet struct {
	UserId          string `json:"user_id"`
	Name            string `json:"name,omitempty"`
	Available       int64  `json:"available"`
	Escrow          int64  `json:"escrow"`
	KycVerified     bool   `json:"kyc_verified"`
	DepositVerified bool   `json:"deposit_verified"`
}

// NewWallet is the request body for creating a wallet.
type NewWallet struct {
	UserId string `json:"user_id"`
	Name   string `json:"name,omitempty"`
}

// LedgerEntry is the public view of a wallet audit entry.
type LedgerEntry struct {
	EntryId         string    `json:"entry_id"`
	UserId          string    `json:"user_id"`
	EventType       string    `json:"event_type"`
	AvailableBefore int64     `json:"available_before"`
	AvailableAfter  int64     `json:"available_after"`
	EscrowBefore    int64     `json:"escrow_before"`
	EscrowAfter     int64     `json:"escrow_after"`
	Delta           int64     `json:"delta"`
	AuctionId       string    `json:"auction_id,omitempty"`
	BidId           string    `json:"bid_id,omitempty"`
	Reason          string    `json:"reason,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// AdminActionEntry is the public view of an admin action record.
type AdminActionEntry struct {
	EntryId      string    `json:"entry_id"`
	AdminId      string    `json:"admin_id"`
	Action       string    `json:"action"`
	AuctionId    string    `json:"auction_id"`
	BidId        string    `json:"bid_id,omitempty"`
	UserId       string    `json:"user_id,omitempty"`
	BeforeStatus string    `json:"before_status,omitempty"`
	AfterStatus  string    `json:"after_status,omitempty"`
	BeforeAmount int64     `json:"before_amount,omitempty"`
	AfterAmount  int64     `json:"after_amount,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}
