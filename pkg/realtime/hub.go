package realtime

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/events"
)

// subscriber is one receiving end of a room's fan-out.
type subscriber struct {
	ch chan events.Message
}

// Subscription is a live membership in a broadcast room. Receive from C
// until it closes; Close leaves the room.
type Subscription struct {
	C      <-chan events.Message
	cancel func()
	once   sync.Once
}

// Close leaves the room and closes C.
func (s *Subscription) Close() {
	s.once.Do(s.cancel)
}

// Hub maps auction ids to broadcast rooms and fans engine/coordinator
// output to every room member. Broadcasts never block: a subscriber
// whose buffer is full misses the message and is expected to resync
// from the next authoritative update.
type Hub struct {
	logger *slog.Logger

	mu     sync.RWMutex
	rooms  map[string]map[*subscriber]struct{}
	admins map[*subscriber]struct{}
}

// NewHub creates an empty Hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger: logger,
		rooms:  make(map[string]map[*subscriber]struct{}),
		admins: make(map[*subscriber]struct{}),
	}
}

var _ events.AdminPublisher = (*Hub)(nil)

const subscriberBuffer = 256

// Join subscribes to an auction's room.
func (h *Hub) Join(auctionID string) *Subscription {
	sub := &subscriber{ch: make(chan events.Message, subscriberBuffer)}

	h.mu.Lock()
	room, ok := h.rooms[auctionID]
	if !ok {
		room = make(map[*subscriber]struct{})
		h.rooms[auctionID] = room
	}
	room[sub] = struct{}{}
	h.mu.Unlock()

	return &Subscription{
		C: sub.ch,
		cancel: func() {
			h.mu.Lock()
			if room, ok := h.rooms[auctionID]; ok {
				delete(room, sub)
				if len(room) == 0 {
					delete(h.rooms, auctionID)
				}
			}
			h.mu.Unlock()
			close(sub.ch)
		},
	}
}

// JoinAdmins subscribes to the admin-facing channel.
func (h *Hub) JoinAdmins() *Subscription {
	sub := &subscriber{ch: make(chan events.Message, subscriberBuffer)}

	h.mu.Lock()
	h.admins[sub] = struct{}{}
	h.mu.Unlock()

	return &Subscription{
		C: sub.ch,
		cancel: func() {
			h.mu.Lock()
			delete(h.admins, sub)
			h.mu.Unlock()
			close(sub.ch)
		},
	}
}

// PublishToAuction fans a message out to every member of the auction's
// room.
func (h *Hub) PublishToAuction(ctx context.Context, auctionID string, message events.Message) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.rooms[auctionID] {
		h.send(sub, auctionID, message)
	}
	return nil
}

// PublishToAdmins fans a message out to the admin channel.
func (h *Hub) PublishToAdmins(ctx context.Context, message events.Message) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.admins {
		h.send(sub, "admins", message)
	}
	return nil
}

// RoomSize reports the current member count of an auction's room.
func (h *Hub) RoomSize(auctionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[auctionID])
}

func (h *Hub) send(sub *subscriber, room string, message events.Message) {
	select {
	case sub.ch <- message:
	default:
		// Slow subscriber; the next countdown-update or snapshot resyncs it.
		h.logger.Warn("dropping message for slow subscriber", "room", room, "type", message.Type)
	}
}
