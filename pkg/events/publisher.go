package events

import "context"

// Publisher defines the interface for fanning a message out to every
// subscriber of an auction's room. Implementations must never block on
// a slow subscriber.
type Publisher interface {
	PublishToAuction(ctx context.Context, auctionID string, message Message) error
}

// AdminPublisher additionally reaches the admin-facing channel that
// receives end-of-auction summaries.
type AdminPublisher interface {
	Publisher
	PublishToAdmins(ctx context.Context, message Message) error
}
