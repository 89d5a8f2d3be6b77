package events

import (
	"time"

	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/models"
)

// MessageType defines the type of a real-time message.
type MessageType string

const (
	// Room broadcasts.
	MessageNewBid            MessageType = "new-bid"
	MessageBidPending        MessageType = "bid-pending"
	MessageBidRejected       MessageType = "bid-rejected"
	MessageBidOverlay        MessageType = "bid-overlay"
	MessageAdminActionLog    MessageType = "admin-action-log"
	MessageWinnerFinalized   MessageType = "winner-finalized"
	MessageAuctionEnded      MessageType = "auction-ended"
	MessageCountdownUpdate   MessageType = "countdown-update"
	MessageCountdownWarning  MessageType = "countdown-warning"
	MessageCountdownExtended MessageType = "countdown-extended"

	// Unicast to the joining or requesting connection only.
	MessageAuctionState    MessageType = "auction-state"
	MessageError           MessageType = "error"
	MessageDepositRequired MessageType = "deposit-required"
	MessageRateLimited     MessageType = "rate-limited"
)

// Message represents a generic real-time message.
type Message struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// NewBidPayload announces a bid that reached a final accept/reject state.
type NewBidPayload struct {
	Bid      *models.Bid `json:"bid"`
	Accepted bool        `json:"accepted"`
}

// BidPendingPayload announces a bid waiting on admin approval.
type BidPendingPayload struct {
	BidId string `json:"bid_id"`
}

// BidRejectedPayload announces a policy-rejected bid with its reason.
type BidRejectedPayload struct {
	Bid    *models.Bid             `json:"bid"`
	Reason *models.RejectionReason `json:"reason"`
}

// BidOverlayPayload drives the live presentation overlay.
type BidOverlayPayload struct {
	Amount   int64    `json:"amount"`
	Username string   `json:"username"`
	Flags    []string `json:"flags,omitempty"`
}

// AdminActionPayload broadcasts a recorded privileged action.
type AdminActionPayload struct {
	Action *models.AdminActionLogEntry `json:"action"`
}

// WinnerFinalizedPayload announces the winning bid of an ended auction.
type WinnerFinalizedPayload struct {
	Winner *models.Bid `json:"winner,omitempty"`
	Amount int64       `json:"amount"`
}

// AuctionEndedPayload announces the terminal state of an auction.
type AuctionEndedPayload struct {
	AuctionId string `json:"auction_id"`
}

// CountdownUpdatePayload is the once-per-second authoritative timer state.
type CountdownUpdatePayload struct {
	Remaining int64     `json:"remaining"`
	EndTime   time.Time `json:"end_time"`
	Active    bool      `json:"active"`
}

// CountdownWarningPayload fires at fixed remaining-time thresholds.
type CountdownWarningPayload struct {
	Type      string `json:"type"`
	Remaining int64  `json:"remaining"`
}

// CountdownExtendedPayload announces a deadline extension.
type CountdownExtendedPayload struct {
	NewEndTime time.Time `json:"new_end_time"`
	Reason     string    `json:"reason,omitempty"`
}

// AuctionStatePayload is the unicast snapshot sent on join.
type AuctionStatePayload struct {
	Auction    *models.Auction `json:"auction"`
	HighestBid *models.Bid     `json:"highest_bid,omitempty"`
	RecentBids []models.Bid    `json:"recent_bids"`
}

// ErrorPayload is the unicast failure envelope: a stable code and the
// caller's correlation id, never internal detail.
type ErrorPayload struct {
	Code      string `json:"code"`
	RequestId string `json:"request_id,omitempty"`
}

// DepositRequiredPayload tells the caller the minimum deposit needed.
type DepositRequiredPayload struct {
	MinDeposit int64  `json:"min_deposit"`
	RequestId  string `json:"request_id,omitempty"`
}

// RateLimitedPayload tells the caller when to retry.
type RateLimitedPayload struct {
	RetryAfter int64  `json:"retry_after"`
	RequestId  string `json:"request_id,omitempty"`
}
