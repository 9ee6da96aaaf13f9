package services

import (
	"context"
	"fmt"
	"time"

	"auction-market/internal/domain"
	"auction-market/pkg/logger"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// SweepScheduler is the background worker that expires auctions: on every
// tick it closes active auctions whose end time has passed and resolves the
// winner against the reserve. It is the only component that declares
// winners. Each auction is processed under its lock, so an explicit Close
// racing the sweep wins if it gets there first.
type SweepScheduler struct {
	cron       *cron.Cron
	details    domain.AuctionDetailsStore
	statuses   domain.AuctionStatusStore
	bids       domain.BidStore
	locker     domain.AuctionLocker
	leader     domain.LeaderElection
	notifier   domain.ChangeNotifier
	instanceID string
	interval   time.Duration
	log        logger.Logger
}

func NewSweepScheduler(
	details domain.AuctionDetailsStore,
	statuses domain.AuctionStatusStore,
	bids domain.BidStore,
	locker domain.AuctionLocker,
	leader domain.LeaderElection,
	notifier domain.ChangeNotifier,
	instanceID string,
	interval time.Duration,
	log logger.Logger,
) *SweepScheduler {
	return &SweepScheduler{
		cron:       cron.New(cron.WithSeconds()),
		details:    details,
		statuses:   statuses,
		bids:       bids,
		locker:     locker,
		leader:     leader,
		notifier:   notifier,
		instanceID: instanceID,
		interval:   interval,
		log:        log,
	}
}

// Start schedules the periodic sweep. Stop cancels future ticks; a tick in
// flight finishes its current auction.
func (s *SweepScheduler) Start(ctx context.Context) error {
	s.log.Info("Starting auction sweep", "interval", s.interval)

	_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), func() {
		s.Sweep(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *SweepScheduler) Stop() error {
	s.log.Info("Stopping auction sweep")
	s.cron.Stop()
	return nil
}

// Sweep runs one pass over the active auctions. A failure on one auction is
// logged and never aborts the rest of the pass.
func (s *SweepScheduler) Sweep(ctx context.Context) {
	isLeader, err := s.leader.IsLeader(ctx, s.instanceID)
	if err != nil {
		s.log.Error("Leader check failed, skipping sweep", "error", err)
		return
	}
	if !isLeader {
		return
	}

	active, err := s.details.GetAllActive(ctx)
	if err != nil {
		s.log.Error("Failed to list active auctions", "error", err)
		return
	}

	now := time.Now().UTC()
	for _, details := range active {
		if ctx.Err() != nil {
			return
		}
		if !details.Expired(now) {
			continue
		}
		if err := s.sweepOne(ctx, details.ID, now); err != nil {
			s.log.Error("Failed to sweep auction", "auction_id", details.ID, "error", err)
		}
	}
}

// sweepOne closes one expired auction and resolves its winner. The auction
// is re-read under the lock: a concurrent explicit Close may have already
// deactivated it, in which case the sweep backs off.
func (s *SweepScheduler) sweepOne(ctx context.Context, auctionID uuid.UUID, now time.Time) error {
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
		return nil
	}

	if err := details.Close(now); err != nil {
		return err
	}
	if err := s.details.Update(ctx, details); err != nil {
		return err
	}

	max, err := s.bids.GetMaxForAuction(ctx, auctionID)
	if err != nil {
		return err
	}

	if max != nil && max.Value >= details.Reserve {
		if err := s.bids.DeleteAllExceptMax(ctx, auctionID); err != nil {
			return err
		}
		status, err := s.statuses.GetByID(ctx, auctionID)
		if err != nil {
			return err
		}
		// An auction explicitly closed before expiry keeps its close flag;
		// no winner is assigned then.
		if status.Phase == domain.PhaseOpen {
			if err := status.AssignWinner(max.BidderID); err != nil {
				return err
			}
			if err := s.statuses.Update(ctx, status); err != nil {
				return err
			}
			s.log.Info("Auction resolved with winner", "auction_id", auctionID,
				"winner_id", max.BidderID, "value", max.Value)
		}
	} else {
		if err := s.bids.DeleteAll(ctx, auctionID); err != nil {
			return err
		}
		s.log.Info("Auction finished without winner", "auction_id", auctionID,
			"reserve", details.Reserve)
	}

	if err := s.notifier.AuctionChanged(ctx, auctionID); err != nil {
		s.log.Error("Failed to publish auction change", "auction_id", auctionID, "error", err)
	}
	return nil
}
