package services

import (
	"context"

	"auction-market/internal/domain"

	"github.com/google/uuid"
)

// UserCategorizationService classifies a caller relative to an auction. It
// is read-only; both the API layer and the realtime hub use it for
// authorization and display.
type UserCategorizationService struct {
	details  domain.AuctionDetailsStore
	statuses domain.AuctionStatusStore
	bids     domain.BidStore
}

func NewUserCategorizationService(
	details domain.AuctionDetailsStore,
	statuses domain.AuctionStatusStore,
	bids domain.BidStore,
) *UserCategorizationService {
	return &UserCategorizationService{
		details:  details,
		statuses: statuses,
		bids:     bids,
	}
}

// Categorize resolves the caller's category with strict priority:
// anonymous -> Guest, creator -> Creator, winner -> Winner, surviving bid ->
// Bidder, otherwise Guest.
func (s *UserCategorizationService) Categorize(ctx context.Context, userID, auctionID uuid.UUID) (domain.Category, error) {
	if userID == uuid.Nil {
		return domain.CategoryGuest, nil
	}

	details, err := s.details.GetByID(ctx, auctionID)
	if err != nil {
		return domain.CategoryGuest, err
	}
	if userID == details.CreatorID {
		return domain.CategoryCreator, nil
	}

	status, err := s.statuses.GetByID(ctx, auctionID)
	if err != nil {
		return domain.CategoryGuest, err
	}
	if status.HasWinner() && status.WinnerID == userID {
		return domain.CategoryWinner, nil
	}

	userBids, err := s.bids.GetAllForUser(ctx, auctionID, userID)
	if err != nil {
		return domain.CategoryGuest, err
	}
	if len(userBids) > 0 {
		return domain.CategoryBidder, nil
	}

	return domain.CategoryGuest, nil
}
