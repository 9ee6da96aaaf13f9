package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Sort orders for auction listings.
type AuctionSort string

const (
	SortByEndTime      AuctionSort = "end_time"
	SortByCreationTime AuctionSort = "creation_time"
)

type AuctionQuery struct {
	Sort     AuctionSort
	Page     int
	PageSize int
	IsActive *bool
}

// Store interfaces. All reads of a missing row return ErrNotFound.
type AuctionDetailsStore interface {
	Add(ctx context.Context, details *AuctionDetails) error
	GetByID(ctx context.Context, auctionID uuid.UUID) (*AuctionDetails, error)
	GetAllActive(ctx context.Context) ([]*AuctionDetails, error)
	Update(ctx context.Context, details *AuctionDetails) error
	Query(ctx context.Context, q AuctionQuery) ([]*AuctionDetails, error)
}

type AuctionStatusStore interface {
	Add(ctx context.Context, status *AuctionStatus) error
	GetByID(ctx context.Context, auctionID uuid.UUID) (*AuctionStatus, error)
	Update(ctx context.Context, status *AuctionStatus) error
}

type BidStore interface {
	Add(ctx context.Context, bid *Bid) error
	// GetMaxForAuction returns the highest surviving bid, or nil when the
	// auction has no bids.
	GetMaxForAuction(ctx context.Context, auctionID uuid.UUID) (*Bid, error)
	GetAllForAuction(ctx context.Context, auctionID uuid.UUID) ([]*Bid, error)
	GetAllForUser(ctx context.Context, auctionID, bidderID uuid.UUID) ([]*Bid, error)
	DeleteAllExceptMax(ctx context.Context, auctionID uuid.UUID) error
	DeleteForUserExceptMax(ctx context.Context, auctionID, bidderID uuid.UUID) error
	DeleteAllForUser(ctx context.Context, auctionID, bidderID uuid.UUID) error
	DeleteAll(ctx context.Context, auctionID uuid.UUID) error
}

// ChangeNotifier is the fire-and-forget sink told that an auction's state
// changed; the realtime layer turns this into "re-fetch auction X" pushes.
type ChangeNotifier interface {
	AuctionChanged(ctx context.Context, auctionID uuid.UUID) error
}

// AuctionLocker serializes all mutations of one auction. Acquire blocks up
// to the locker's timeout and returns a recoverable error when the auction
// is busy; the returned release func must be called exactly once.
type AuctionLocker interface {
	Acquire(ctx context.Context, auctionID uuid.UUID) (release func(), err error)
}

// LeaderElection gates singleton background work across instances.
type LeaderElection interface {
	BecomeLeader(ctx context.Context, instanceID string) (bool, error)
	IsLeader(ctx context.Context, instanceID string) (bool, error)
	ReleaseLeadership(ctx context.Context, instanceID string) error
}

// ChangeHandler consumes auction-changed events on the realtime side.
type ChangeHandler func(auctionID uuid.UUID, at time.Time) error
