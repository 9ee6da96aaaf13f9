package services

import (
	"context"
	"errors"
	"testing"

	"auction-market/internal/domain"

	"github.com/google/uuid"
	"github.com/peterldowns/testy/check"
)

func TestClose_ByCreator(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	auction := e.newAuction(uuid.New(), 0)

	check.Nil(t, e.lifecycle.Close(ctx, auction.ID, domain.RoleCreator))

	details, err := e.details.GetByID(ctx, auction.ID)
	check.Nil(t, err)
	check.False(t, details.IsActive)

	label, err := e.lifecycle.DescribeStatus(ctx, auction.ID)
	check.Nil(t, err)
	check.Equal(t, domain.StatusClosedByCreator, label)
}

func TestClose_ByModerator(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	auction := e.newAuction(uuid.New(), 0)

	check.Nil(t, e.lifecycle.Close(ctx, auction.ID, domain.RoleModerator))

	label, err := e.lifecycle.DescribeStatus(ctx, auction.ID)
	check.Nil(t, err)
	check.Equal(t, domain.StatusClosedByModerator, label)
}

func TestClose_TrimsBidsToSingleMax(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	auction := e.newAuction(uuid.New(), 0)
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	check.Nil(t, e.admission.PlaceBid(ctx, auction.ID, a, 10))
	check.Nil(t, e.admission.PlaceBid(ctx, auction.ID, b, 20))
	check.Nil(t, e.admission.PlaceBid(ctx, auction.ID, c, 30))

	check.Nil(t, e.lifecycle.Close(ctx, auction.ID, domain.RoleCreator))

	bids, err := e.bids.GetAllForAuction(ctx, auction.ID)
	check.Nil(t, err)
	check.Equal(t, 1, len(bids))
	check.Equal(t, c, bids[0].BidderID)
	check.Equal(t, int64(30), bids[0].Value)
}

// An explicit close never assigns a winner, whatever the bids look like
// against the reserve.
func TestClose_DoesNotAssignWinner(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	auction := e.newAuction(uuid.New(), 100)

	check.Nil(t, e.admission.PlaceBid(ctx, auction.ID, uuid.New(), 500))
	check.Nil(t, e.lifecycle.Close(ctx, auction.ID, domain.RoleCreator))

	status, err := e.statuses.GetByID(ctx, auction.ID)
	check.Nil(t, err)
	check.False(t, status.HasWinner())
}

func TestClose_TwiceIsFatal(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	auction := e.newAuction(uuid.New(), 0)

	check.Nil(t, e.lifecycle.Close(ctx, auction.ID, domain.RoleCreator))
	err := e.lifecycle.Close(ctx, auction.ID, domain.RoleCreator)
	check.True(t, errors.Is(err, domain.ErrInvariant))
}

func TestClose_UnknownRoleIsFatal(t *testing.T) {
	e := newEnv()
	auction := e.newAuction(uuid.New(), 0)

	err := e.lifecycle.Close(context.Background(), auction.ID, domain.CloserRole(42))
	check.True(t, errors.Is(err, domain.ErrInvariant))
}

// resolveWinner runs the auction to a sweep-assigned winner.
func resolveWinner(t *testing.T, e *env, reserve, value int64) (auctionID, creatorID, winnerID uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	creatorID = uuid.New()
	winnerID = uuid.New()

	auction := e.newAuction(creatorID, reserve)
	check.Nil(t, e.admission.PlaceBid(ctx, auction.ID, winnerID, value))
	e.expire(auction.ID)
	e.sweeper.Sweep(ctx)

	label, err := e.lifecycle.DescribeStatus(ctx, auction.ID)
	check.Nil(t, err)
	check.Equal(t, domain.StatusHasWinner, label)
	return auction.ID, creatorID, winnerID
}

func TestCompleteDeal_WhileActiveIsFatal(t *testing.T) {
	e := newEnv()
	creator := uuid.New()
	auction := e.newAuction(creator, 0)

	err := e.lifecycle.CompleteDeal(context.Background(), auction.ID, creator)
	check.True(t, errors.Is(err, domain.ErrInvariant))
}

func TestCompleteDeal_StrangerIsFatal(t *testing.T) {
	e := newEnv()
	auctionID, _, _ := resolveWinner(t, e, 0, 100)

	err := e.lifecycle.CompleteDeal(context.Background(), auctionID, uuid.New())
	check.True(t, errors.Is(err, domain.ErrInvariant))
}

func TestCompleteDeal_ConvergesInEitherOrder(t *testing.T) {
	orders := []struct {
		name  string
		first string
	}{
		{"creator first", "creator"},
		{"winner first", "winner"},
	}

	for _, tt := range orders {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv()
			ctx := context.Background()
			auctionID, creatorID, winnerID := resolveWinner(t, e, 100, 150)

			first, second := creatorID, winnerID
			midLabel := domain.StatusDealCompletedByCreator
			if tt.first == "winner" {
				first, second = winnerID, creatorID
				midLabel = domain.StatusDealCompletedByWinner
			}

			check.Nil(t, e.lifecycle.CompleteDeal(ctx, auctionID, first))
			label, err := e.lifecycle.DescribeStatus(ctx, auctionID)
			check.Nil(t, err)
			check.Equal(t, midLabel, label)

			status, err := e.statuses.GetByID(ctx, auctionID)
			check.Nil(t, err)
			check.False(t, status.CompletelyFinished())

			check.Nil(t, e.lifecycle.CompleteDeal(ctx, auctionID, second))
			label, err = e.lifecycle.DescribeStatus(ctx, auctionID)
			check.Nil(t, err)
			check.Equal(t, domain.StatusCompletelyFinished, label)
		})
	}
}

func TestResolveContact_CreatorAndWinnerSeeEachOther(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	auctionID, creatorID, winnerID := resolveWinner(t, e, 0, 100)

	contact, ok, err := e.lifecycle.ResolveContact(ctx, auctionID, creatorID)
	check.Nil(t, err)
	check.True(t, ok)
	check.Equal(t, winnerID, contact)

	contact, ok, err = e.lifecycle.ResolveContact(ctx, auctionID, winnerID)
	check.Nil(t, err)
	check.True(t, ok)
	check.Equal(t, creatorID, contact)

	// A stranger gets nothing.
	_, ok, err = e.lifecycle.ResolveContact(ctx, auctionID, uuid.New())
	check.Nil(t, err)
	check.False(t, ok)
}

func TestResolveContact_NotAvailableWithoutWinner(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	creator := uuid.New()
	auction := e.newAuction(creator, 0)

	// Active auction: no contact.
	_, ok, err := e.lifecycle.ResolveContact(ctx, auction.ID, creator)
	check.Nil(t, err)
	check.False(t, ok)

	// Explicitly closed auction: still no contact.
	check.Nil(t, e.lifecycle.Close(ctx, auction.ID, domain.RoleCreator))
	_, ok, err = e.lifecycle.ResolveContact(ctx, auction.ID, creator)
	check.Nil(t, err)
	check.False(t, ok)
}

func TestDescribeStatus_ActiveAuction(t *testing.T) {
	e := newEnv()
	auction := e.newAuction(uuid.New(), 0)

	label, err := e.lifecycle.DescribeStatus(context.Background(), auction.ID)
	check.Nil(t, err)
	check.Equal(t, domain.StatusActive, label)
}
