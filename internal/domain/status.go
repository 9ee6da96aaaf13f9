package domain

import (
	"github.com/google/uuid"
)

// Phase is the closing phase of an auction. Transitions are one-way:
// Open -> ClosedByCreator | ClosedByModerator | HasWinner. The two explicit
// close phases and HasWinner are mutually exclusive by construction.
type Phase int

const (
	PhaseOpen Phase = iota
	PhaseClosedByCreator
	PhaseClosedByModerator
	PhaseHasWinner
)

func (p Phase) String() string {
	switch p {
	case PhaseOpen:
		return "open"
	case PhaseClosedByCreator:
		return "closed_by_creator"
	case PhaseClosedByModerator:
		return "closed_by_moderator"
	case PhaseHasWinner:
		return "has_winner"
	default:
		return "unknown"
	}
}

// AuctionStatus tracks how an auction was resolved and the post-auction deal
// acknowledgements. It shares its id with the AuctionDetails it belongs to.
// Every field is monotonic; mutations go through the methods below, which
// reject illegal transitions.
type AuctionStatus struct {
	AuctionID         uuid.UUID
	Phase             Phase
	WinnerID          uuid.UUID
	DealDoneByCreator bool
	DealDoneByWinner  bool
}

func NewAuctionStatus(auctionID uuid.UUID) *AuctionStatus {
	return &AuctionStatus{AuctionID: auctionID, Phase: PhaseOpen}
}

func (s *AuctionStatus) CloseByCreator() error {
	if s.Phase != PhaseOpen {
		return InvariantErrorf("auction %s status is already %s", s.AuctionID, s.Phase)
	}
	s.Phase = PhaseClosedByCreator
	return nil
}

func (s *AuctionStatus) CloseByModerator() error {
	if s.Phase != PhaseOpen {
		return InvariantErrorf("auction %s status is already %s", s.AuctionID, s.Phase)
	}
	s.Phase = PhaseClosedByModerator
	return nil
}

// AssignWinner is only legal from the open phase: an auction that was closed
// explicitly forfeits winner assignment.
func (s *AuctionStatus) AssignWinner(winnerID uuid.UUID) error {
	if s.Phase != PhaseOpen {
		return InvariantErrorf("auction %s status is already %s", s.AuctionID, s.Phase)
	}
	if winnerID == uuid.Nil {
		return InvariantErrorf("auction %s winner id is empty", s.AuctionID)
	}
	s.Phase = PhaseHasWinner
	s.WinnerID = winnerID
	return nil
}

func (s *AuctionStatus) MarkDealDoneByCreator() error {
	if s.Phase != PhaseHasWinner {
		return InvariantErrorf("auction %s has no winner", s.AuctionID)
	}
	s.DealDoneByCreator = true
	return nil
}

func (s *AuctionStatus) MarkDealDoneByWinner() error {
	if s.Phase != PhaseHasWinner {
		return InvariantErrorf("auction %s has no winner", s.AuctionID)
	}
	s.DealDoneByWinner = true
	return nil
}

func (s *AuctionStatus) HasWinner() bool {
	return s.Phase == PhaseHasWinner
}

func (s *AuctionStatus) ClosedByCreator() bool {
	return s.Phase == PhaseClosedByCreator
}

func (s *AuctionStatus) ClosedByModerator() bool {
	return s.Phase == PhaseClosedByModerator
}

// CompletelyFinished is derived: true exactly when both sides acknowledged
// the deal.
func (s *AuctionStatus) CompletelyFinished() bool {
	return s.DealDoneByCreator && s.DealDoneByWinner
}

// Human-readable status labels. The API and the realtime layer gate actions
// on these exact strings.
const (
	StatusCompletelyFinished     = "Auction Completely Finished"
	StatusDealCompletedByCreator = "Deal Completed by Creator"
	StatusDealCompletedByWinner  = "Deal Completed by Winner"
	StatusHasWinner              = "Auction has a Winner"
	StatusClosedByModerator      = "Closed by Moderator"
	StatusClosedByCreator        = "Closed by Creator"
	StatusActive                 = "Active"
	StatusFinishedWithoutWinner  = "Finished without winner"
)

// StatusLabel resolves the display status of an auction. The rows are a
// strict priority table evaluated top-down; first match wins.
func StatusLabel(details *AuctionDetails, status *AuctionStatus) string {
	switch {
	case status.CompletelyFinished():
		return StatusCompletelyFinished
	case status.DealDoneByCreator:
		return StatusDealCompletedByCreator
	case status.DealDoneByWinner:
		return StatusDealCompletedByWinner
	case status.HasWinner():
		return StatusHasWinner
	case status.ClosedByModerator():
		return StatusClosedByModerator
	case status.ClosedByCreator():
		return StatusClosedByCreator
	case details.IsActive:
		return StatusActive
	default:
		return StatusFinishedWithoutWinner
	}
}
