package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/auth"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/engine"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/events"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/metrics"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/models"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/storage"
	"github.com/gorilla/websocket"
)

// BidEngine is the slice of the engine the gateway delegates intents to.
type BidEngine interface {
	PlaceBid(ctx context.Context, p engine.PlaceBidParams) (*engine.PlaceBidResult, error)
	HandleAdminAction(ctx context.Context, bidID, adminID string, action models.AdminAction, overrideAmount *int64) error
	FinalizeWinner(ctx context.Context, auctionID, adminID string) error
	ApplyReserveAutoDrop(ctx context.Context, auctionID string, newReserve int64, drop engine.ReserveDropContext) error
}

// Gateway authenticates live connections, maps them to auction rooms,
// relays client intents into the engine, and writes room broadcasts
// back out. All engine-originated events reach the room through the
// Hub; only the error family is unicast here.
type Gateway struct {
	store         storage.ReadStore
	engine        BidEngine
	hub           *Hub
	authenticator auth.Authenticator
	limiter       RateLimiter
	logger        *slog.Logger
}

// NewGateway wires a Gateway. limiter may be nil, which disables bid
// rate limiting.
func NewGateway(store storage.ReadStore, eng BidEngine, hub *Hub, authenticator auth.Authenticator, limiter RateLimiter, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		store:         store,
		engine:        eng,
		hub:           hub,
		authenticator: authenticator,
		limiter:       limiter,
		logger:        logger,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// Browsers enforce auth via the bearer token, not the origin.
		return true
	},
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = 30 * time.Second
	snapshotBids   = 20
	outboundBuffer = 256
)

// clientFrame is the single inbound message shape; Type selects which
// fields are meaningful.
type clientFrame struct {
	Type           string `json:"type"`
	RequestId      string `json:"request_id,omitempty"`
	AuctionId      string `json:"auction_id,omitempty"`
	Amount         int64  `json:"amount,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
	BidId          string `json:"bid_id,omitempty"`
	Action         string `json:"action,omitempty"`
	OverrideAmount *int64 `json:"override_amount,omitempty"`
	NewReserve     int64  `json:"new_reserve,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

// connection is the per-socket state: the resolved identity, the rooms
// joined, and the serialized outbound queue.
type connection struct {
	identity *auth.Identity
	outbound chan events.Message
	done     chan struct{}

	mu   sync.Mutex
	subs map[string]*Subscription
}

// ServeHTTP authenticates the handshake, upgrades, and runs the
// connection's read loop. Unauthenticated connections are refused
// before the upgrade.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity, err := g.authenticator.Authenticate(r.Context(), bearerToken(r))
	if err != nil {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	defer ws.Close()

	metrics.WSConnections.Inc()
	defer metrics.WSConnections.Dec()

	conn := &connection{
		identity: identity,
		outbound: make(chan events.Message, outboundBuffer),
		done:     make(chan struct{}),
		subs:     make(map[string]*Subscription),
	}
	defer conn.close()

	// Admin-capable connections also receive the admin channel.
	if identity.Can(auth.CapAdminBidAction) {
		adminSub := g.hub.JoinAdmins()
		conn.track("admins", adminSub)
		go conn.forward(adminSub)
	}

	go g.writeLoop(ws, conn)
	g.readLoop(r.Context(), ws, conn)
}

func bearerToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

func (g *Gateway) readLoop(ctx context.Context, ws *websocket.Conn, conn *connection) {
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				g.logger.Info("connection closed unexpectedly", "user_id", conn.identity.UserID, "error", err)
			}
			return
		}
		var frame clientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			conn.unicast(errorMessage("BAD_FRAME", ""))
			continue
		}
		g.handleFrame(ctx, conn, &frame)
	}
}

func (g *Gateway) writeLoop(ws *websocket.Conn, conn *connection) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-conn.outbound:
			if !ok {
				return
			}
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-conn.done:
			return
		}
	}
}

func (g *Gateway) handleFrame(ctx context.Context, conn *connection, frame *clientFrame) {
	switch frame.Type {
	case "join-auction":
		g.handleJoin(ctx, conn, frame)
	case "place-bid":
		g.handlePlaceBid(ctx, conn, frame)
	case "admin-approve-bid":
		g.handleAdminApprove(ctx, conn, frame)
	case "finalize-winner":
		g.handleFinalize(ctx, conn, frame)
	case "drop-reserve":
		g.handleDropReserve(ctx, conn, frame)
	default:
		conn.unicast(errorMessage("UNKNOWN_EVENT", frame.RequestId))
	}
}

// handleJoin subscribes the connection to the auction's room and
// unicasts the authoritative snapshot.
func (g *Gateway) handleJoin(ctx context.Context, conn *connection, frame *clientFrame) {
	auction, err := g.store.GetAuction(ctx, frame.AuctionId)
	if err != nil {
		if errors.Is(err, storage.ErrAuctionNotFound) {
			conn.unicast(errorMessage("AUCTION_NOT_FOUND", frame.RequestId))
			return
		}
		g.logger.Error("join snapshot failed", "auction_id", frame.AuctionId, "error", err)
		conn.unicast(errorMessage("INTERNAL", frame.RequestId))
		return
	}

	accepted, err := g.store.ListAcceptedBids(ctx, frame.AuctionId)
	if err != nil {
		g.logger.Error("join snapshot failed", "auction_id", frame.AuctionId, "error", err)
		conn.unicast(errorMessage("INTERNAL", frame.RequestId))
		return
	}

	if !conn.joined(frame.AuctionId) {
		sub := g.hub.Join(frame.AuctionId)
		conn.track(frame.AuctionId, sub)
		go conn.forward(sub)
	}

	conn.unicast(events.Message{
		Type:    events.MessageAuctionState,
		Payload: snapshot(auction, accepted),
	})
}

func (g *Gateway) handlePlaceBid(ctx context.Context, conn *connection, frame *clientFrame) {
	if !conn.identity.Can(auth.CapPlaceBid) {
		conn.unicast(errorMessage("FORBIDDEN", frame.RequestId))
		return
	}
	if g.limiter != nil {
		if ok, retryAfter := g.limiter.Allow(conn.identity.UserID); !ok {
			conn.unicast(events.Message{
				Type: events.MessageRateLimited,
				Payload: events.RateLimitedPayload{
					RetryAfter: int64(retryAfter.Round(time.Second) / time.Second),
					RequestId:  frame.RequestId,
				},
			})
			return
		}
	}

	_, err := g.engine.PlaceBid(ctx, engine.PlaceBidParams{
		AuctionId:      frame.AuctionId,
		UserId:         conn.identity.UserID,
		Amount:         frame.Amount,
		IdempotencyKey: frame.IdempotencyKey,
	})
	if err != nil {
		conn.unicast(g.engineErrorMessage(err, frame.RequestId))
	}
}

func (g *Gateway) handleAdminApprove(ctx context.Context, conn *connection, frame *clientFrame) {
	if !conn.identity.Can(auth.CapAdminBidAction) {
		conn.unicast(errorMessage("FORBIDDEN", frame.RequestId))
		return
	}
	action, ok := adminActionFrom(frame.Action)
	if !ok {
		conn.unicast(errorMessage("UNKNOWN_ACTION", frame.RequestId))
		return
	}
	err := g.engine.HandleAdminAction(ctx, frame.BidId, conn.identity.UserID, action, frame.OverrideAmount)
	if err != nil {
		conn.unicast(g.engineErrorMessage(err, frame.RequestId))
	}
}

func (g *Gateway) handleFinalize(ctx context.Context, conn *connection, frame *clientFrame) {
	if !conn.identity.Can(auth.CapFinalize) {
		conn.unicast(errorMessage("FORBIDDEN", frame.RequestId))
		return
	}
	if err := g.engine.FinalizeWinner(ctx, frame.AuctionId, conn.identity.UserID); err != nil {
		conn.unicast(g.engineErrorMessage(err, frame.RequestId))
	}
}

func (g *Gateway) handleDropReserve(ctx context.Context, conn *connection, frame *clientFrame) {
	if !conn.identity.Can(auth.CapReserveDrop) {
		conn.unicast(errorMessage("FORBIDDEN", frame.RequestId))
		return
	}
	err := g.engine.ApplyReserveAutoDrop(ctx, frame.AuctionId, frame.NewReserve, engine.ReserveDropContext{
		TriggerReason: frame.Reason,
		Actor:         conn.identity.UserID,
		ApprovalType:  "manual",
	})
	if err != nil {
		conn.unicast(g.engineErrorMessage(err, frame.RequestId))
	}
}

// engineErrorMessage maps an engine failure onto the unicast error
// family. Deposit-related codes become deposit-required so the client
// can prompt for funds; everything else is a bare stable code.
func (g *Gateway) engineErrorMessage(err error, requestID string) events.Message {
	var engErr *engine.Error
	if errors.As(err, &engErr) {
		switch engErr.Code {
		case "DEPOSIT_REQUIRED", "INSUFFICIENT_WALLET_FOR_DEPOSIT":
			return events.Message{
				Type:    events.MessageDepositRequired,
				Payload: events.DepositRequiredPayload{MinDeposit: engErr.MinDeposit, RequestId: requestID},
			}
		}
		return errorMessage(engErr.Code, requestID)
	}
	g.logger.Error("engine call failed", "error", err)
	return errorMessage("INTERNAL", requestID)
}

func errorMessage(code, requestID string) events.Message {
	return events.Message{
		Type:    events.MessageError,
		Payload: events.ErrorPayload{Code: code, RequestId: requestID},
	}
}

func adminActionFrom(s string) (models.AdminAction, bool) {
	switch strings.ToLower(s) {
	case "accept":
		return models.AdminAccept, true
	case "reject":
		return models.AdminReject, true
	case "override":
		return models.AdminOverride, true
	}
	return "", false
}

// snapshot builds the join-time auction-state payload: auction fields,
// the current highest accepted bid, and the most recent accepted bids.
func snapshot(auction *models.Auction, accepted []models.Bid) events.AuctionStatePayload {
	var highest *models.Bid
	for i := range accepted {
		if highest == nil || accepted[i].HigherThan(highest) {
			b := accepted[i]
			highest = &b
		}
	}
	sort.Slice(accepted, func(i, j int) bool {
		return accepted[i].Sequence > accepted[j].Sequence
	})
	recent := accepted
	if len(recent) > snapshotBids {
		recent = recent[:snapshotBids]
	}
	return events.AuctionStatePayload{
		Auction:    auction,
		HighestBid: highest,
		RecentBids: recent,
	}
}

func (c *connection) joined(room string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.subs[room]
	return ok
}

func (c *connection) track(room string, sub *Subscription) {
	c.mu.Lock()
	c.subs[room] = sub
	c.mu.Unlock()
}

// forward copies room broadcasts into the connection's outbound queue.
func (c *connection) forward(sub *Subscription) {
	for msg := range sub.C {
		c.unicast(msg)
	}
}

func (c *connection) unicast(msg events.Message) {
	select {
	case c.outbound <- msg:
	case <-c.done:
	default:
		// Outbound queue full; the client resyncs from the next update.
	}
}

func (c *connection) close() {
	c.mu.Lock()
	subs := make([]*Subscription, 0, len(c.subs))
	for _, sub := range c.subs {
		subs = append(subs, sub)
	}
	c.subs = make(map[string]*Subscription)
	c.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
	close(c.done)
}
