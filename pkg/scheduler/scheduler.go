package scheduler

import (
	"context"
	"time"
)

// FinalizeMessage is the payload delivered back at (or after) an
// auction's deadline. The consumer invokes the idempotent auto-finalize
// path, so late or duplicate delivery is harmless.
type FinalizeMessage struct {
	AuctionId string    `json:"auction_id"`
	EndTime   time.Time `json:"end_time"`
}

// Scheduler defines the interface for a component that schedules an
// auction's deadline finalize for asynchronous processing.
type Scheduler interface {
	// ScheduleFinalize enqueues a finalize message aimed at the
	// auction's end time.
	ScheduleFinalize(ctx context.Context, auctionID string, endTime time.Time) error
}
