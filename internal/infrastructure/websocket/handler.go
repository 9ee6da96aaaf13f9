package websocket

import (
	"errors"
	"net/http"

	"auction-market/internal/domain"
	"auction-market/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler upgrades API clients onto the hub. Anonymous viewers are allowed;
// the user id only tags the connection for logging.
type Handler struct {
	details domain.AuctionDetailsStore
	hub     *Hub
	log     logger.Logger
}

func NewHandler(details domain.AuctionDetailsStore, hub *Hub, log logger.Logger) *Handler {
	return &Handler{
		details: details,
		hub:     hub,
		log:     log,
	}
}

func (h *Handler) Attach(c echo.Context) error {
	auctionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid auction id"})
	}

	if _, err := h.details.GetByID(c.Request().Context(), auctionID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "auction not found"})
		}
		h.log.Error("Failed to load auction", "auction_id", auctionID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	userID := uuid.Nil
	if raw := c.QueryParam("user_id"); raw != "" {
		if userID, err = uuid.Parse(raw); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid user id"})
		}
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "auction_id", auctionID, "error", err)
		return nil
	}

	conn := NewConn(ws, userID, auctionID)
	h.hub.Register(conn)

	go func() {
		conn.ReadUntilClosed()
		h.hub.Unregister(conn)
		_ = conn.Close()
	}()

	return nil
}
