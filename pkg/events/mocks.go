package events

import "context"

// NoOpPublisher is a publisher that does nothing.
type NoOpPublisher struct{}

// PublishToAuction does nothing.
func (p *NoOpPublisher) PublishToAuction(ctx context.Context, auctionID string, message Message) error {
	return nil
}

// PublishToAdmins does nothing.
func (p *NoOpPublisher) PublishToAdmins(ctx context.Context, message Message) error {
	return nil
}
