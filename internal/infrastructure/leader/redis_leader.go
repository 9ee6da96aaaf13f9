package leader

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

const leaderKey = "auction_sweep_leader"

// RedisLeaderElection elects the single instance that runs the sweep. The
// leader key expires after ttl; the holder refreshes it from a heartbeat
// goroutine and drops out silently when it loses the key.
type RedisLeaderElection struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLeaderElection(client *redis.Client, ttl time.Duration) *RedisLeaderElection {
	return &RedisLeaderElection{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisLeaderElection) BecomeLeader(ctx context.Context, instanceID string) (bool, error) {
	acquired, err := r.client.SetNX(ctx, leaderKey, instanceID, r.ttl).Result()
	if err != nil {
		return false, err
	}

	if acquired {
		go r.maintainLeadership(instanceID)
	}
	return acquired, nil
}

func (r *RedisLeaderElection) IsLeader(ctx context.Context, instanceID string) (bool, error) {
	current, err := r.client.Get(ctx, leaderKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return current == instanceID, nil
}

func (r *RedisLeaderElection) ReleaseLeadership(ctx context.Context, instanceID string) error {
	// Delete only if we still hold the key.
	releaseScript := `
        if redis.call("GET", KEYS[1]) == ARGV[1] then
            return redis.call("DEL", KEYS[1])
        else
            return 0
        end
    `
	_, err := r.client.Eval(ctx, releaseScript, []string{leaderKey}, instanceID).Result()
	return err
}

func (r *RedisLeaderElection) maintainLeadership(instanceID string) {
	ticker := time.NewTicker(r.ttl / 3)
	defer ticker.Stop()

	refreshScript := `
        if redis.call("GET", KEYS[1]) == ARGV[1] then
            return redis.call("EXPIRE", KEYS[1], ARGV[2])
        else
            return 0
        end
    `

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		result, err := r.client.Eval(ctx, refreshScript, []string{leaderKey},
			instanceID, int(r.ttl.Seconds())).Result()
		cancel()

		if err != nil {
			continue
		}
		if extended, ok := result.(int64); !ok || extended == 0 {
			// Lost leadership, stop the heartbeat.
			return
		}
	}
}
