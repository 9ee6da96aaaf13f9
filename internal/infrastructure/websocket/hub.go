package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"auction-market/pkg/logger"

	"github.com/google/uuid"
)

// Hub tracks which clients watch which auction and pushes "re-fetch" pokes
// when the core reports a change. The hub never carries auction state
// itself; clients are expected to call the API again.
type Hub struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]map[*Conn]struct{}
	log   logger.Logger
}

func NewHub(log logger.Logger) *Hub {
	return &Hub{
		conns: make(map[uuid.UUID]map[*Conn]struct{}),
		log:   log,
	}
}

func (h *Hub) Register(conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	auctionID := conn.AuctionID()
	if h.conns[auctionID] == nil {
		h.conns[auctionID] = make(map[*Conn]struct{})
	}
	h.conns[auctionID][conn] = struct{}{}

	h.log.Info("Realtime client attached", "user_id", conn.UserID(), "auction_id", auctionID)
}

func (h *Hub) Unregister(conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	auctionID := conn.AuctionID()
	if set, ok := h.conns[auctionID]; ok {
		delete(set, conn)
		if len(set) == 0 {
			delete(h.conns, auctionID)
		}
	}

	h.log.Info("Realtime client detached", "user_id", conn.UserID(), "auction_id", auctionID)
}

type refetchMessage struct {
	Type      string    `json:"type"`
	AuctionID string    `json:"auction_id"`
	ChangedAt time.Time `json:"changed_at"`
}

// BroadcastRefetch tells every client watching the auction to re-fetch it.
// A failed send is logged and does not stop delivery to other clients.
func (h *Hub) BroadcastRefetch(auctionID uuid.UUID, changedAt time.Time) error {
	message, err := json.Marshal(refetchMessage{
		Type:      "auction_changed",
		AuctionID: auctionID.String(),
		ChangedAt: changedAt,
	})
	if err != nil {
		return err
	}

	h.mu.RLock()
	conns := make([]*Conn, 0, len(h.conns[auctionID]))
	for conn := range h.conns[auctionID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.Send(message); err != nil {
			h.log.Error("Failed to push refetch", "user_id", conn.UserID(),
				"auction_id", auctionID, "error", err)
		}
	}
	return nil
}

// CloseAuction disconnects every client attached to the auction.
func (h *Hub) CloseAuction(auctionID uuid.UUID) {
	h.mu.Lock()
	set := h.conns[auctionID]
	delete(h.conns, auctionID)
	h.mu.Unlock()

	for conn := range set {
		if err := conn.Close(); err != nil {
			h.log.Error("Failed to close connection", "user_id", conn.UserID(),
				"auction_id", auctionID, "error", err)
		}
	}
}
