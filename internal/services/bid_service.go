package services

import (
	"context"

	"auction-market/internal/domain"
	"auction-market/pkg/logger"

	"github.com/google/uuid"
)

// BidAdmissionService validates and persists new bids. All admission work
// for one auction runs under that auction's lock: the read-compare-insert-
// trim sequence must not interleave with a concurrent admission or with the
// sweep closing the auction.
type BidAdmissionService struct {
	details  domain.AuctionDetailsStore
	bids     domain.BidStore
	locker   domain.AuctionLocker
	notifier domain.ChangeNotifier
	log      logger.Logger
}

func NewBidAdmissionService(
	details domain.AuctionDetailsStore,
	bids domain.BidStore,
	locker domain.AuctionLocker,
	notifier domain.ChangeNotifier,
	log logger.Logger,
) *BidAdmissionService {
	return &BidAdmissionService{
		details:  details,
		bids:     bids,
		locker:   locker,
		notifier: notifier,
		log:      log,
	}
}

// PlaceBid admits a new bid. A bid on a missing or inactive auction, or by
// the auction's own creator, is a fatal precondition violation; a
// non-positive value or a value not beating the current max is a
// recoverable failure. On success the bidder keeps exactly one bid row for
// the auction.
func (s *BidAdmissionService) PlaceBid(ctx context.Context, auctionID, bidderID uuid.UUID, value int64) error {
	release, err := s.locker.Acquire(ctx, auctionID)
	if err != nil {
		return err
	}
	defer release()

	details, err := s.details.GetByID(ctx, auctionID)
	if err != nil {
		return err
	}
	if !details.IsActive {
		return domain.InvariantErrorf("auction %s is not active", auctionID)
	}
	if bidderID == details.CreatorID {
		return domain.InvariantErrorf("creator may not bid on own auction %s", auctionID)
	}

	bid, err := domain.NewBid(auctionID, bidderID, value)
	if err != nil {
		return err
	}

	max, err := s.bids.GetMaxForAuction(ctx, auctionID)
	if err != nil {
		return err
	}
	if max != nil && value <= max.Value {
		return domain.NewRuleError("New bid must be greater than the previous bid")
	}

	if err := s.bids.Add(ctx, bid); err != nil {
		return err
	}
	// The new bid is this bidder's highest, so trimming keeps exactly it.
	if err := s.bids.DeleteForUserExceptMax(ctx, auctionID, bidderID); err != nil {
		return err
	}

	s.log.Info("Bid placed", "auction_id", auctionID, "bidder_id", bidderID, "value", value)
	s.notifyChanged(ctx, auctionID)
	return nil
}

// WithdrawBid removes every bid by the bidder for the auction. There is no
// activity precondition: withdrawing from a resolved auction simply deletes
// nothing observable.
func (s *BidAdmissionService) WithdrawBid(ctx context.Context, auctionID, bidderID uuid.UUID) error {
	release, err := s.locker.Acquire(ctx, auctionID)
	if err != nil {
		return err
	}
	defer release()

	if err := s.bids.DeleteAllForUser(ctx, auctionID, bidderID); err != nil {
		return err
	}

	s.log.Info("Bid withdrawn", "auction_id", auctionID, "bidder_id", bidderID)
	s.notifyChanged(ctx, auctionID)
	return nil
}

func (s *BidAdmissionService) notifyChanged(ctx context.Context, auctionID uuid.UUID) {
	if err := s.notifier.AuctionChanged(ctx, auctionID); err != nil {
		s.log.Error("Failed to publish auction change", "auction_id", auctionID, "error", err)
	}
}
