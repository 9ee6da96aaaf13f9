package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	MaxTitleLen       = 100
	MaxDescriptionLen = 1000
)

type Title string

func NewTitle(s string) (Title, error) {
	if len(s) == 0 {
		return "", NewRuleError("Title must not be empty")
	}
	if len(s) > MaxTitleLen {
		return "", NewRuleError("Title must be at most 100 characters")
	}
	return Title(s), nil
}

type Description string

func NewDescription(s string) (Description, error) {
	if len(s) > MaxDescriptionLen {
		return "", NewRuleError("Description must be at most 1000 characters")
	}
	return Description(s), nil
}

// AuctionDetails is the descriptive and temporal state of one auction.
// IsActive is monotonic: once false it never becomes true again, and any
// further mutation is an invariant violation.
type AuctionDetails struct {
	ID           uuid.UUID
	CreatorID    uuid.UUID
	Title        Title
	Description  Description
	Reserve      int64
	CreationTime time.Time
	EndTime      time.Time
	IsActive     bool
}

func NewAuctionDetails(creatorID uuid.UUID, title Title, description Description, reserve int64, endTime time.Time) (*AuctionDetails, error) {
	if reserve < 0 {
		return nil, NewRuleError("Reserve must not be negative")
	}
	now := time.Now().UTC()
	if !endTime.After(now) {
		return nil, NewRuleError("End time must be in the future")
	}
	return &AuctionDetails{
		ID:           uuid.New(),
		CreatorID:    creatorID,
		Title:        title,
		Description:  description,
		Reserve:      reserve,
		CreationTime: now,
		EndTime:      endTime,
		IsActive:     true,
	}, nil
}

// Close deactivates the auction and records now as its effective end time.
func (a *AuctionDetails) Close(now time.Time) error {
	if !a.IsActive {
		return InvariantErrorf("auction %s is already closed", a.ID)
	}
	a.IsActive = false
	a.EndTime = now
	return nil
}

func (a *AuctionDetails) SetTitle(t Title) error {
	if !a.IsActive {
		return InvariantErrorf("auction %s is not active", a.ID)
	}
	a.Title = t
	return nil
}

func (a *AuctionDetails) SetDescription(d Description) error {
	if !a.IsActive {
		return InvariantErrorf("auction %s is not active", a.ID)
	}
	a.Description = d
	return nil
}

func (a *AuctionDetails) Expired(now time.Time) bool {
	return !a.EndTime.After(now)
}

// Bid is one user's offer on one auction. Immutable; only ever deleted.
type Bid struct {
	ID           uuid.UUID
	AuctionID    uuid.UUID
	BidderID     uuid.UUID
	Value        int64
	CreationTime time.Time
}

func NewBid(auctionID, bidderID uuid.UUID, value int64) (*Bid, error) {
	if value <= 0 {
		return nil, NewRuleError("Bid value must be greater than zero")
	}
	return &Bid{
		ID:           uuid.New(),
		AuctionID:    auctionID,
		BidderID:     bidderID,
		Value:        value,
		CreationTime: time.Now().UTC(),
	}, nil
}

// Category is a caller's relationship to an auction.
type Category int

const (
	CategoryGuest Category = iota
	CategoryCreator
	CategoryWinner
	CategoryBidder
)

func (c Category) String() string {
	switch c {
	case CategoryGuest:
		return "guest"
	case CategoryCreator:
		return "creator"
	case CategoryWinner:
		return "winner"
	case CategoryBidder:
		return "bidder"
	default:
		return "unknown"
	}
}

// CloserRole identifies who requested an explicit close.
type CloserRole int

const (
	RoleCreator CloserRole = iota + 1
	RoleModerator
)

func (r CloserRole) String() string {
	switch r {
	case RoleCreator:
		return "creator"
	case RoleModerator:
		return "moderator"
	default:
		return "unknown"
	}
}
