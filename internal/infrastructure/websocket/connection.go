package websocket

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Conn is one client attached to one auction. Writes are serialized with a
// mutex because gorilla allows a single concurrent writer.
type Conn struct {
	ws        *websocket.Conn
	userID    uuid.UUID
	auctionID uuid.UUID
	writeMu   sync.Mutex
}

func NewConn(ws *websocket.Conn, userID, auctionID uuid.UUID) *Conn {
	return &Conn{
		ws:        ws,
		userID:    userID,
		auctionID: auctionID,
	}
}

func (c *Conn) Send(message []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, message)
}

func (c *Conn) Close() error {
	return c.ws.Close()
}

func (c *Conn) UserID() uuid.UUID {
	return c.userID
}

func (c *Conn) AuctionID() uuid.UUID {
	return c.auctionID
}

// ReadUntilClosed drains incoming frames until the peer disconnects.
// Clients never send anything meaningful; the hub only pushes.
func (c *Conn) ReadUntilClosed() {
	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			return
		}
	}
}
