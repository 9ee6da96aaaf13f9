package services

import (
	"context"
	"time"

	"auction-market/internal/domain"
	"auction-market/pkg/logger"

	"github.com/google/uuid"
)

// AuctionCreationService creates the details/status pair and handles the
// creator's edits while the auction is active.
type AuctionCreationService struct {
	details  domain.AuctionDetailsStore
	statuses domain.AuctionStatusStore
	locker   domain.AuctionLocker
	notifier domain.ChangeNotifier
	log      logger.Logger
}

func NewAuctionCreationService(
	details domain.AuctionDetailsStore,
	statuses domain.AuctionStatusStore,
	locker domain.AuctionLocker,
	notifier domain.ChangeNotifier,
	log logger.Logger,
) *AuctionCreationService {
	return &AuctionCreationService{
		details:  details,
		statuses: statuses,
		locker:   locker,
		notifier: notifier,
		log:      log,
	}
}

// CreateAuction creates an active auction together with its open status
// record. Bad title, description, reserve or end time are recoverable
// failures.
func (s *AuctionCreationService) CreateAuction(ctx context.Context, creatorID uuid.UUID, title, description string, reserve int64, endTime time.Time) (*domain.AuctionDetails, error) {
	t, err := domain.NewTitle(title)
	if err != nil {
		return nil, err
	}
	d, err := domain.NewDescription(description)
	if err != nil {
		return nil, err
	}

	details, err := domain.NewAuctionDetails(creatorID, t, d, reserve, endTime)
	if err != nil {
		return nil, err
	}

	if err := s.details.Add(ctx, details); err != nil {
		return nil, err
	}
	if err := s.statuses.Add(ctx, domain.NewAuctionStatus(details.ID)); err != nil {
		return nil, err
	}

	s.log.Info("Auction created", "auction_id", details.ID,
		"creator_id", creatorID, "reserve", reserve, "end_time", endTime)
	return details, nil
}

// UpdateAuction edits title and description. Only the creator may edit, and
// only while the auction is active; either violation is fatal because the
// API layer checks both before calling.
func (s *AuctionCreationService) UpdateAuction(ctx context.Context, auctionID, callerID uuid.UUID, title, description string) error {
	t, err := domain.NewTitle(title)
	if err != nil {
		return err
	}
	d, err := domain.NewDescription(description)
	if err != nil {
		return err
	}

	release, err := s.locker.Acquire(ctx, auctionID)
	if err != nil {
		return err
	}
	defer release()

	details, err := s.details.GetByID(ctx, auctionID)
	if err != nil {
		return err
	}
	if callerID != details.CreatorID {
		return domain.InvariantErrorf("user %s is not the creator of auction %s", callerID, auctionID)
	}
	if err := details.SetTitle(t); err != nil {
		return err
	}
	if err := details.SetDescription(d); err != nil {
		return err
	}

	if err := s.details.Update(ctx, details); err != nil {
		return err
	}

	s.log.Info("Auction updated", "auction_id", auctionID)
	if err := s.notifier.AuctionChanged(ctx, auctionID); err != nil {
		s.log.Error("Failed to publish auction change", "auction_id", auctionID, "error", err)
	}
	return nil
}
