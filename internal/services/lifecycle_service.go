package services

import (
	"context"
	"time"

	"auction-market/internal/domain"
	"auction-market/pkg/logger"

	"github.com/google/uuid"
)

// AuctionLifecycleService orchestrates explicit closes, deal-completion
// acknowledgements and the derived status view. Winner assignment is not
// part of an explicit close: only the sweep declares winners, an explicit
// close forfeits the reserve check.
type AuctionLifecycleService struct {
	details     domain.AuctionDetailsStore
	statuses    domain.AuctionStatusStore
	bids        domain.BidStore
	locker      domain.AuctionLocker
	categorizer *UserCategorizationService
	notifier    domain.ChangeNotifier
	log         logger.Logger
}

func NewAuctionLifecycleService(
	details domain.AuctionDetailsStore,
	statuses domain.AuctionStatusStore,
	bids domain.BidStore,
	locker domain.AuctionLocker,
	categorizer *UserCategorizationService,
	notifier domain.ChangeNotifier,
	log logger.Logger,
) *AuctionLifecycleService {
	return &AuctionLifecycleService{
		details:     details,
		statuses:    statuses,
		bids:        bids,
		locker:      locker,
		categorizer: categorizer,
		notifier:    notifier,
		log:         log,
	}
}

// Close deactivates the auction on behalf of its creator or a moderator and
// trims the bid history down to the single highest bid. Closing an already
// inactive auction is fatal.
func (s *AuctionLifecycleService) Close(ctx context.Context, auctionID uuid.UUID, role domain.CloserRole) error {
	release, err := s.locker.Acquire(ctx, auctionID)
	if err != nil {
		return err
	}
	defer release()

	details, err := s.details.GetByID(ctx, auctionID)
	if err != nil {
		return err
	}
	if err := details.Close(time.Now().UTC()); err != nil {
		return err
	}

	status, err := s.statuses.GetByID(ctx, auctionID)
	if err != nil {
		return err
	}
	switch role {
	case domain.RoleCreator:
		err = status.CloseByCreator()
	case domain.RoleModerator:
		err = status.CloseByModerator()
	default:
		err = domain.InvariantErrorf("unknown closer role %d for auction %s", role, auctionID)
	}
	if err != nil {
		return err
	}

	if err := s.details.Update(ctx, details); err != nil {
		return err
	}
	if err := s.statuses.Update(ctx, status); err != nil {
		return err
	}
	if err := s.bids.DeleteAllExceptMax(ctx, auctionID); err != nil {
		return err
	}

	s.log.Info("Auction closed", "auction_id", auctionID, "closed_by", role.String())
	s.notifyChanged(ctx, auctionID)
	return nil
}

// CompleteDeal records the caller's acknowledgement that the deal outside
// the system was fulfilled. Only the creator and the winner may acknowledge,
// and only after the auction closed.
func (s *AuctionLifecycleService) CompleteDeal(ctx context.Context, auctionID, callerID uuid.UUID) error {
	release, err := s.locker.Acquire(ctx, auctionID)
	if err != nil {
		return err
	}
	defer release()

	details, err := s.details.GetByID(ctx, auctionID)
	if err != nil {
		return err
	}
	if details.IsActive {
		return domain.InvariantErrorf("auction %s is still active", auctionID)
	}

	category, err := s.categorizer.Categorize(ctx, callerID, auctionID)
	if err != nil {
		return err
	}

	status, err := s.statuses.GetByID(ctx, auctionID)
	if err != nil {
		return err
	}
	switch category {
	case domain.CategoryCreator:
		err = status.MarkDealDoneByCreator()
	case domain.CategoryWinner:
		err = status.MarkDealDoneByWinner()
	default:
		err = domain.InvariantErrorf("user %s is neither creator nor winner of auction %s", callerID, auctionID)
	}
	if err != nil {
		return err
	}

	if err := s.statuses.Update(ctx, status); err != nil {
		return err
	}

	s.log.Info("Deal completion recorded", "auction_id", auctionID,
		"caller_id", callerID, "category", category.String(),
		"completely_finished", status.CompletelyFinished())
	s.notifyChanged(ctx, auctionID)
	return nil
}

// DescribeStatus returns the display status of the auction.
func (s *AuctionLifecycleService) DescribeStatus(ctx context.Context, auctionID uuid.UUID) (string, error) {
	details, err := s.details.GetByID(ctx, auctionID)
	if err != nil {
		return "", err
	}
	status, err := s.statuses.GetByID(ctx, auctionID)
	if err != nil {
		return "", err
	}
	return domain.StatusLabel(details, status), nil
}

// ResolveContact returns the counterparty's identity once the auction has a
// winner: the creator gets the winner's id and the winner gets the
// creator's. In every other state, or for any other caller, there is no
// contact to reveal.
func (s *AuctionLifecycleService) ResolveContact(ctx context.Context, auctionID, callerID uuid.UUID) (uuid.UUID, bool, error) {
	label, err := s.DescribeStatus(ctx, auctionID)
	if err != nil {
		return uuid.Nil, false, err
	}
	switch label {
	case domain.StatusCompletelyFinished,
		domain.StatusDealCompletedByCreator,
		domain.StatusDealCompletedByWinner,
		domain.StatusHasWinner:
	default:
		return uuid.Nil, false, nil
	}

	category, err := s.categorizer.Categorize(ctx, callerID, auctionID)
	if err != nil {
		return uuid.Nil, false, err
	}

	switch category {
	case domain.CategoryCreator:
		status, err := s.statuses.GetByID(ctx, auctionID)
		if err != nil {
			return uuid.Nil, false, err
		}
		return status.WinnerID, true, nil
	case domain.CategoryWinner:
		details, err := s.details.GetByID(ctx, auctionID)
		if err != nil {
			return uuid.Nil, false, err
		}
		return details.CreatorID, true, nil
	default:
		return uuid.Nil, false, nil
	}
}

func (s *AuctionLifecycleService) notifyChanged(ctx context.Context, auctionID uuid.UUID) {
	if err := s.notifier.AuctionChanged(ctx, auctionID); err != nil {
		s.log.Error("Failed to publish auction change", "auction_id", auctionID, "error", err)
	}
}
