package handlers

import (
	"net/http"

	"auction-market/internal/domain"
	"auction-market/internal/services"
	"auction-market/pkg/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type BidHandler struct {
	admission *services.BidAdmissionService
	details   domain.AuctionDetailsStore
	log       logger.Logger
}

func NewBidHandler(admission *services.BidAdmissionService, details domain.AuctionDetailsStore, log logger.Logger) *BidHandler {
	return &BidHandler{
		admission: admission,
		details:   details,
		log:       log,
	}
}

type PlaceBidRequest struct {
	BidderID string `json:"bidder_id"`
	Value    int64  `json:"value"`
}

func (h *BidHandler) PlaceBid(c echo.Context) error {
	auctionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid auction id"})
	}

	var req PlaceBidRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	bidderID, err := uuid.Parse(req.BidderID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid bidder id"})
	}

	// The admission service treats an inactive auction or a self-bid as a
	// precondition violation, so reject both here as plain bad input.
	details, err := h.details.GetByID(c.Request().Context(), auctionID)
	if err != nil {
		return writeError(c, err)
	}
	if !details.IsActive {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Auction is not active"})
	}
	if bidderID == details.CreatorID {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "You cannot bid on your own auction"})
	}

	if err := h.admission.PlaceBid(c.Request().Context(), auctionID, bidderID, req.Value); err != nil {
		if !domain.IsRuleError(err) {
			h.log.Error("Failed to place bid", "auction_id", auctionID, "error", err)
		}
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]string{"message": "Bid placed"})
}

func (h *BidHandler) WithdrawBid(c echo.Context) error {
	auctionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid auction id"})
	}
	bidderID, err := uuid.Parse(c.QueryParam("bidder_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid bidder id"})
	}

	if err := h.admission.WithdrawBid(c.Request().Context(), auctionID, bidderID); err != nil {
		if !domain.IsRuleError(err) {
			h.log.Error("Failed to withdraw bid", "auction_id", auctionID, "error", err)
		}
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Bids withdrawn"})
}
