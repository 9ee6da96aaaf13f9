package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"auction-market/internal/domain"

	"github.com/google/uuid"
	"github.com/peterldowns/testy/check"
)

func TestPlaceBid_FirstBidSucceeds(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	auction := e.newAuction(uuid.New(), 100)
	bidder := uuid.New()

	check.Nil(t, e.admission.PlaceBid(ctx, auction.ID, bidder, 50))

	bids, err := e.bids.GetAllForAuction(ctx, auction.ID)
	check.Nil(t, err)
	check.Equal(t, 1, len(bids))
	check.Equal(t, int64(50), bids[0].Value)
	check.Equal(t, bidder, bids[0].BidderID)
}

func TestPlaceBid_MustBeatCurrentMax(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	auction := e.newAuction(uuid.New(), 0)
	a, b := uuid.New(), uuid.New()

	check.Nil(t, e.admission.PlaceBid(ctx, auction.ID, a, 100))

	// Equal and lower values are rejected, and the rejection changes nothing.
	err := e.admission.PlaceBid(ctx, auction.ID, b, 100)
	check.True(t, domain.IsRuleError(err))
	err = e.admission.PlaceBid(ctx, auction.ID, b, 99)
	check.True(t, domain.IsRuleError(err))

	bids, err := e.bids.GetAllForAuction(ctx, auction.ID)
	check.Nil(t, err)
	check.Equal(t, 1, len(bids))
	check.Equal(t, a, bids[0].BidderID)
}

func TestPlaceBid_NonPositiveValue(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	auction := e.newAuction(uuid.New(), 0)

	err := e.admission.PlaceBid(ctx, auction.ID, uuid.New(), 0)
	check.True(t, domain.IsRuleError(err))
	err = e.admission.PlaceBid(ctx, auction.ID, uuid.New(), -10)
	check.True(t, domain.IsRuleError(err))
}

func TestPlaceBid_CreatorCannotBid(t *testing.T) {
	e := newEnv()
	creator := uuid.New()
	auction := e.newAuction(creator, 0)

	err := e.admission.PlaceBid(context.Background(), auction.ID, creator, 10)
	check.True(t, errors.Is(err, domain.ErrInvariant))
}

func TestPlaceBid_InactiveAuctionIsFatal(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	auction := e.newAuction(uuid.New(), 0)
	check.Nil(t, e.lifecycle.Close(ctx, auction.ID, domain.RoleCreator))

	err := e.admission.PlaceBid(ctx, auction.ID, uuid.New(), 10)
	check.True(t, errors.Is(err, domain.ErrInvariant))
}

func TestPlaceBid_UnknownAuction(t *testing.T) {
	e := newEnv()
	err := e.admission.PlaceBid(context.Background(), uuid.New(), uuid.New(), 10)
	check.True(t, errors.Is(err, domain.ErrNotFound))
}

// Each bidder keeps at most one surviving bid per auction, and the stored
// max never decreases across successful admissions.
func TestPlaceBid_AtMostOnePerBidder(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	auction := e.newAuction(uuid.New(), 0)
	a, b := uuid.New(), uuid.New()

	var lastMax int64
	for _, step := range []struct {
		bidder uuid.UUID
		value  int64
	}{
		{a, 10}, {b, 20}, {a, 30}, {b, 40}, {a, 50},
	} {
		check.Nil(t, e.admission.PlaceBid(ctx, auction.ID, step.bidder, step.value))

		max, err := e.bids.GetMaxForAuction(ctx, auction.ID)
		check.Nil(t, err)
		check.True(t, max.Value >= lastMax)
		lastMax = max.Value
	}

	aBids, err := e.bids.GetAllForUser(ctx, auction.ID, a)
	check.Nil(t, err)
	check.Equal(t, 1, len(aBids))
	check.Equal(t, int64(50), aBids[0].Value)

	bBids, err := e.bids.GetAllForUser(ctx, auction.ID, b)
	check.Nil(t, err)
	check.Equal(t, 1, len(bBids))
	check.Equal(t, int64(40), bBids[0].Value)
}

func TestPlaceBid_ConcurrentAdmissionsStaySerialized(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	auction := e.newAuction(uuid.New(), 0)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(value int64) {
			defer wg.Done()
			// Rejections are expected; the point is that no two bids both
			// pass the max check.
			_ = e.admission.PlaceBid(ctx, auction.ID, uuid.New(), value)
		}(int64(i + 1))
	}
	wg.Wait()

	bids, err := e.bids.GetAllForAuction(ctx, auction.ID)
	check.Nil(t, err)

	seen := make(map[int64]bool)
	for _, bid := range bids {
		check.False(t, seen[bid.Value])
		seen[bid.Value] = true
	}
	max, err := e.bids.GetMaxForAuction(ctx, auction.ID)
	check.Nil(t, err)
	for _, bid := range bids {
		check.True(t, bid.Value <= max.Value)
	}
}

func TestWithdrawBid_RemovesAllBidderRows(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	auction := e.newAuction(uuid.New(), 0)
	a, b := uuid.New(), uuid.New()

	check.Nil(t, e.admission.PlaceBid(ctx, auction.ID, a, 10))
	check.Nil(t, e.admission.PlaceBid(ctx, auction.ID, b, 20))

	check.Nil(t, e.admission.WithdrawBid(ctx, auction.ID, a))

	bids, err := e.bids.GetAllForAuction(ctx, auction.ID)
	check.Nil(t, err)
	check.Equal(t, 1, len(bids))
	check.Equal(t, b, bids[0].BidderID)
}

func TestWithdrawBid_WorksOnClosedAuction(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	auction := e.newAuction(uuid.New(), 0)
	bidder := uuid.New()

	check.Nil(t, e.admission.PlaceBid(ctx, auction.ID, bidder, 10))
	check.Nil(t, e.lifecycle.Close(ctx, auction.ID, domain.RoleCreator))

	check.Nil(t, e.admission.WithdrawBid(ctx, auction.ID, bidder))
}

func TestPlaceBid_PublishesChangeEvent(t *testing.T) {
	e := newEnv()
	auction := e.newAuction(uuid.New(), 0)

	before := e.notifier.count()
	check.Nil(t, e.admission.PlaceBid(context.Background(), auction.ID, uuid.New(), 10))
	check.Equal(t, before+1, e.notifier.count())
}
