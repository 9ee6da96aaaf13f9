package services

import (
	"context"
	"sync"
	"time"

	"auction-market/internal/domain"

	"github.com/google/uuid"
)

// KeyedAuctionLocker serializes all mutations of a single auction inside
// this process. Both the request path and the sweep go through it, so
// "whoever holds the auction's lock" owns that auction's consistency.
// Acquisition is bounded: a stuck holder surfaces as a recoverable
// "auction is busy" failure instead of a hang.
type KeyedAuctionLocker struct {
	mu      sync.Mutex
	locks   map[uuid.UUID]chan struct{}
	timeout time.Duration
}

func NewKeyedAuctionLocker(timeout time.Duration) *KeyedAuctionLocker {
	return &KeyedAuctionLocker{
		locks:   make(map[uuid.UUID]chan struct{}),
		timeout: timeout,
	}
}

func (l *KeyedAuctionLocker) lockFor(auctionID uuid.UUID) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	ch, ok := l.locks[auctionID]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[auctionID] = ch
	}
	return ch
}

func (l *KeyedAuctionLocker) Acquire(ctx context.Context, auctionID uuid.UUID) (func(), error) {
	ch := l.lockFor(auctionID)

	timer := time.NewTimer(l.timeout)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		var once sync.Once
		release := func() {
			once.Do(func() { <-ch })
		}
		return release, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, domain.NewRuleError("Auction is busy, try again")
	}
}
