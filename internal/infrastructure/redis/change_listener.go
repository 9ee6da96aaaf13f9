package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"auction-market/internal/domain"
	"auction-market/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ChangeListener consumes auction-changed events and feeds them to the
// realtime layer. Runs until the context is cancelled.
type ChangeListener struct {
	client *redis.Client
	log    logger.Logger
}

func NewChangeListener(client *redis.Client, log logger.Logger) *ChangeListener {
	return &ChangeListener{client: client, log: log}
}

func (l *ChangeListener) Listen(ctx context.Context, handler domain.ChangeHandler) error {
	pubsub := l.client.Subscribe(ctx, changeChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	l.log.Info("Subscribed to auction changes")

	for {
		select {
		case msg := <-ch:
			auctionID, at, err := parseChange(msg.Payload)
			if err != nil {
				l.log.Error("Failed to parse change event", "payload", msg.Payload, "error", err)
				continue
			}
			if err := handler(auctionID, at); err != nil {
				l.log.Error("Failed to handle change event", "auction_id", auctionID, "error", err)
			}

		case <-ctx.Done():
			l.log.Info("Change listener stopped")
			return ctx.Err()
		}
	}
}

func parseChange(payload string) (uuid.UUID, time.Time, error) {
	// "auctionID:unixSeconds"
	parts := strings.Split(payload, ":")
	if len(parts) != 2 {
		return uuid.Nil, time.Time{}, fmt.Errorf("invalid change event format: %s", payload)
	}

	auctionID, err := uuid.Parse(parts[0])
	if err != nil {
		return uuid.Nil, time.Time{}, err
	}
	ts, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return uuid.Nil, time.Time{}, err
	}
	return auctionID, time.Unix(ts, 0), nil
}
