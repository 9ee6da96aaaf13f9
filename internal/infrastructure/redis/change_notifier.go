package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const changeChannel = "auction_changes"

// ChangeNotifier publishes "auction changed" events to Redis pub/sub. The
// payload is just the auction id and a timestamp; subscribers re-fetch
// whatever they need.
type ChangeNotifier struct {
	client *redis.Client
}

func NewChangeNotifier(client *redis.Client) *ChangeNotifier {
	return &ChangeNotifier{client: client}
}

func (n *ChangeNotifier) AuctionChanged(ctx context.Context, auctionID uuid.UUID) error {
	payload := fmt.Sprintf("%s:%d", auctionID, time.Now().Unix())
	return n.client.Publish(ctx, changeChannel, payload).Err()
}
