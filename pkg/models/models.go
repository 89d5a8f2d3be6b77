package models

import (
	"time"
)

// AuctionStatus defines the lifecycle states of an auction. Ended is terminal.
type AuctionStatus string

const (
	AuctionPending AuctionStatus = "PENDING"
	AuctionLive    AuctionStatus = "LIVE"
	AuctionPaused  AuctionStatus = "PAUSED"
	AuctionEnded   AuctionStatus = "ENDED"
)

// BidStatus defines the possible states of a bid.
type BidStatus string

const (
	BidPending  BidStatus = "PENDING"
	BidAccepted BidStatus = "ACCEPTED"
	BidRejected BidStatus = "REJECTED"
)

// BidKind records how a bid was placed.
type BidKind string

const (
	BidManual        BidKind = "MANUAL"
	BidAuto          BidKind = "AUTO"
	BidAdminOverride BidKind = "ADMIN_OVERRIDE"
)

// Auction is the internal domain model for a single auction.
// Auctions are created by the scheduling system and never deleted;
// the engine mutates status, bid_count and reserve_price, and the
// countdown coordinator moves end_time forward on extension.
type Auction struct {
	Id                    string        `json:"id" dynamodbav:"id"`
	Title                 string        `json:"title" dynamodbav:"title"`
	SellerId              string        `json:"seller_id" dynamodbav:"seller_id"`
	Status                AuctionStatus `json:"status" dynamodbav:"status"`
	EndTime               time.Time     `json:"end_time" dynamodbav:"end_time"`
	ReservePrice          int64         `json:"reserve_price" dynamodbav:"reserve_price"`
	MinIncrement          int64         `json:"min_increment" dynamodbav:"min_increment"`
	AdminApprovalRequired bool          `json:"admin_approval_required" dynamodbav:"admin_approval_required"`
	// Deposit configuration used to compute required escrow for a bid:
	// max(amount * DepositPercent / 100, DepositFixed). These fields are
	// the single source of truth for deposit configuration.
	DepositPercent int64 `json:"deposit_percent" dynamodbav:"deposit_percent"`
	DepositFixed   int64 `json:"deposit_fixed" dynamodbav:"deposit_fixed"`
	BidCount       int64 `json:"bid_count" dynamodbav:"bid_count"`
	// LastSequence is the per-auction monotonic bid sequence counter.
	// Every inserted bid, accepted or rejected, consumes one.
	LastSequence int64     `json:"last_sequence" dynamodbav:"last_sequence"`
	Version      int64     `json:"-" dynamodbav:"version"`
	CreatedAt    time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

// EscrowSnapshot records the funds a bid holds and the configuration
// used to lock them, so the exact amount can be released later even if
// the auction's deposit configuration changes in the meantime.
type EscrowSnapshot struct {
	Locked         int64  `json:"locked" dynamodbav:"locked"`
	RequiredEscrow int64  `json:"required_escrow" dynamodbav:"required_escrow"`
	DepositRef     string `json:"deposit_ref,omitempty" dynamodbav:"deposit_ref,omitempty"`
	// Released flips exactly once, when the locked funds go back to the
	// wallet. It is the guard that makes release idempotent per bid.
	Released bool `json:"released,omitempty" dynamodbav:"released,omitempty"`
}

// RejectionReason is the structured outcome attached to a bid that was
// recorded but refused, e.g. for falling below the minimum increment.
type RejectionReason struct {
	Code           string `json:"code" dynamodbav:"code"`
	HighestBid     int64  `json:"highest_bid" dynamodbav:"highest_bid"`
	MinIncrement   int64  `json:"min_increment" dynamodbav:"min_increment"`
	MinimumAllowed int64  `json:"minimum_allowed" dynamodbav:"minimum_allowed"`
	Attempted      int64  `json:"attempted" dynamodbav:"attempted"`
}

// ReasonBelowMinIncrement is the rejection code for bids under the
// current highest accepted bid plus the auction's minimum increment.
const ReasonBelowMinIncrement = "below_min_increment"

// Bid is the internal domain model for a single bid. Bids are never
// deleted; only status, amount and the typed metadata fields below are
// mutated by later engine calls (admin accept/reject/override).
type Bid struct {
	Id        string    `json:"id" dynamodbav:"id"`
	AuctionId string    `json:"auction_id" dynamodbav:"auction_id"`
	UserId    string    `json:"user_id" dynamodbav:"user_id"`
	Amount    int64     `json:"amount" dynamodbav:"amount"`
	Kind      BidKind   `json:"kind" dynamodbav:"kind"`
	Status    BidStatus `json:"status" dynamodbav:"status"`
	Sequence  int64     `json:"sequence" dynamodbav:"sequence"`
	// IdempotencyKey is the caller-supplied retry token, unique per
	// (auction, user). Empty when the caller did not supply one.
	IdempotencyKey string           `json:"idempotency_key,omitempty" dynamodbav:"idempotency_key,omitempty"`
	Escrow         *EscrowSnapshot  `json:"escrow,omitempty" dynamodbav:"escrow,omitempty"`
	Rejection      *RejectionReason `json:"rejection,omitempty" dynamodbav:"rejection,omitempty"`
	AutoBidId      string           `json:"auto_bid_id,omitempty" dynamodbav:"auto_bid_id,omitempty"`
	CreatedAt      time.Time        `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at" dynamodbav:"updated_at"`
}

// Wallet is the internal domain model for a user's wallet. Balances are
// non-negative integers in the smallest currency unit. Available+Escrow
// only ever changes through engine operations that write a
// WalletAuditLogEntry in the same transaction.
type Wallet struct {
	UserId    string `json:"user_id" dynamodbav:"user_id"`
	Name      string `json:"name" dynamodbav:"name"`
	Available int64  `json:"available" dynamodbav:"available"`
	Escrow    int64  `json:"escrow" dynamodbav:"escrow"`
	// Read-only verification flags maintained by the KYC/deposit
	// pipeline; the engine only ever reads them.
	KycVerified     bool      `json:"kyc_verified" dynamodbav:"kyc_verified"`
	DepositVerified bool      `json:"deposit_verified" dynamodbav:"deposit_verified"`
	DepositRef      string    `json:"deposit_ref,omitempty" dynamodbav:"deposit_ref,omitempty"`
	Version         int64     `json:"-" dynamodbav:"version"`
	CreatedAt       time.Time `json:"created_at" dynamodbav:"created_at"`
}

// WalletEventType classifies a wallet balance mutation.
type WalletEventType string

const (
	EscrowLockedForBid WalletEventType = "ESCROW_LOCKED_FOR_BID"
	EscrowReleased     WalletEventType = "ESCROW_RELEASED"
	EscrowAdjusted     WalletEventType = "ESCROW_ADJUSTED_FOR_OVERRIDE"
)

// WalletAuditLogEntry is the immutable, append-only record of a single
// wallet balance mutation. Write-once; never updated or deleted.
type WalletAuditLogEntry struct {
	EntryId         string          `json:"entry_id" dynamodbav:"entry_id"`
	UserId          string          `json:"user_id" dynamodbav:"user_id"`
	EventType       WalletEventType `json:"event_type" dynamodbav:"event_type"`
	AvailableBefore int64           `json:"available_before" dynamodbav:"available_before"`
	AvailableAfter  int64           `json:"available_after" dynamodbav:"available_after"`
	EscrowBefore    int64           `json:"escrow_before" dynamodbav:"escrow_before"`
	EscrowAfter     int64           `json:"escrow_after" dynamodbav:"escrow_after"`
	Delta           int64           `json:"delta" dynamodbav:"delta"`
	AuctionId       string          `json:"auction_id,omitempty" dynamodbav:"auction_id,omitempty"`
	BidId           string          `json:"bid_id,omitempty" dynamodbav:"bid_id,omitempty"`
	OrderId         string          `json:"order_id,omitempty" dynamodbav:"order_id,omitempty"`
	Reason          string          `json:"reason,omitempty" dynamodbav:"reason,omitempty"`
	PolicyTags      []string        `json:"policy_tags,omitempty" dynamodbav:"policy_tags,omitempty"`
	Timestamp       time.Time       `json:"timestamp" dynamodbav:"timestamp"`
	GSI1PK          string          `json:"-" dynamodbav:"gsi1pk"`
}

// AdminAction enumerates the privileged operations on a bid or auction.
type AdminAction string

const (
	AdminAccept   AdminAction = "ACCEPT"
	AdminReject   AdminAction = "REJECT"
	AdminOverride AdminAction = "OVERRIDE"
	AdminFinalize AdminAction = "FINALIZE"
)

// OpsLogKind discriminates record types within the ops-log table.
type OpsLogKind string

const (
	OpsAdminAction     OpsLogKind = "ADMIN_ACTION"
	OpsReserveAutoDrop OpsLogKind = "RESERVE_AUTO_DROP"
)

// AdminActionLogEntry is the immutable record of a privileged action,
// with before/after detail for the target bid or auction.
type AdminActionLogEntry struct {
	EntryId      string      `json:"entry_id" dynamodbav:"entry_id"`
	Kind         OpsLogKind  `json:"kind" dynamodbav:"kind"`
	AdminId      string      `json:"admin_id" dynamodbav:"admin_id"`
	Action       AdminAction `json:"action" dynamodbav:"action"`
	AuctionId    string      `json:"auction_id" dynamodbav:"auction_id"`
	BidId        string      `json:"bid_id,omitempty" dynamodbav:"bid_id,omitempty"`
	UserId       string      `json:"user_id,omitempty" dynamodbav:"user_id,omitempty"`
	BeforeStatus BidStatus   `json:"before_status,omitempty" dynamodbav:"before_status,omitempty"`
	AfterStatus  BidStatus   `json:"after_status,omitempty" dynamodbav:"after_status,omitempty"`
	BeforeAmount int64       `json:"before_amount,omitempty" dynamodbav:"before_amount,omitempty"`
	AfterAmount  int64       `json:"after_amount,omitempty" dynamodbav:"after_amount,omitempty"`
	Detail       string      `json:"detail,omitempty" dynamodbav:"detail,omitempty"`
	Timestamp    time.Time   `json:"timestamp" dynamodbav:"timestamp"`
	GSI1PK       string      `json:"-" dynamodbav:"gsi1pk"`
}

// ReserveAutoDropLogEntry is the immutable record of a reserve-price
// change, capturing the trigger and the before/after state.
type ReserveAutoDropLogEntry struct {
	EntryId       string     `json:"entry_id" dynamodbav:"entry_id"`
	Kind          OpsLogKind `json:"kind" dynamodbav:"kind"`
	AuctionId     string     `json:"auction_id" dynamodbav:"auction_id"`
	OldReserve    int64      `json:"old_reserve" dynamodbav:"old_reserve"`
	NewReserve    int64      `json:"new_reserve" dynamodbav:"new_reserve"`
	Delta         int64      `json:"delta" dynamodbav:"delta"`
	TriggerReason string     `json:"trigger_reason" dynamodbav:"trigger_reason"`
	Actor         string     `json:"actor" dynamodbav:"actor"`
	ApprovalType  string     `json:"approval_type,omitempty" dynamodbav:"approval_type,omitempty"`
	Timestamp     time.Time  `json:"timestamp" dynamodbav:"timestamp"`
	GSI1PK        string     `json:"-" dynamodbav:"gsi1pk"`
}

// RequiredEscrow computes the escrow a bid of the given amount must
// lock under this auction's deposit configuration.
func (a *Auction) RequiredEscrow(amount int64) int64 {
	pct := amount * a.DepositPercent / 100
	if pct < a.DepositFixed {
		return a.DepositFixed
	}
	return pct
}

// MinimumAllowedBid returns the smallest amount a new bid must reach
// given the current highest accepted bid. With no increment configured
// any amount is allowed.
func (a *Auction) MinimumAllowedBid(highest int64) int64 {
	if a.MinIncrement <= 0 {
		return 0
	}
	return highest + a.MinIncrement
}

// HigherThan reports whether bid b ranks above other under the engine's
// ordering: amount descending, then sequence descending, so among equal
// amounts the later-sequenced bid wins.
func (b *Bid) HigherThan(other *Bid) bool {
	if b.Amount != other.Amount {
		return b.Amount > other.Amount
	}
	return b.Sequence > other.Sequence
}
