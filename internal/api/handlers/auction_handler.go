package handlers

import (
	"net/http"
	"strconv"
	"time"

	"auction-market/internal/domain"
	"auction-market/internal/services"
	"auction-market/pkg/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type AuctionHandler struct {
	creation    *services.AuctionCreationService
	lifecycle   *services.AuctionLifecycleService
	categorizer *services.UserCategorizationService
	details     domain.AuctionDetailsStore
	bids        domain.BidStore
	log         logger.Logger
}

func NewAuctionHandler(
	creation *services.AuctionCreationService,
	lifecycle *services.AuctionLifecycleService,
	categorizer *services.UserCategorizationService,
	details domain.AuctionDetailsStore,
	bids domain.BidStore,
	log logger.Logger,
) *AuctionHandler {
	return &AuctionHandler{
		creation:    creation,
		lifecycle:   lifecycle,
		categorizer: categorizer,
		details:     details,
		bids:        bids,
		log:         log,
	}
}

type CreateAuctionRequest struct {
	CreatorID   string    `json:"creator_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Reserve     int64     `json:"reserve"`
	EndTime     time.Time `json:"end_time"`
}

type AuctionResponse struct {
	AuctionID   string    `json:"auction_id"`
	CreatorID   string    `json:"creator_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Reserve     int64     `json:"reserve"`
	CreatedAt   time.Time `json:"created_at"`
	EndTime     time.Time `json:"end_time"`
	Status      string    `json:"status"`
	MaxBid      *int64    `json:"max_bid,omitempty"`
}

func (h *AuctionHandler) CreateAuction(c echo.Context) error {
	var req CreateAuctionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	creatorID, err := uuid.Parse(req.CreatorID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid creator id"})
	}

	details, err := h.creation.CreateAuction(c.Request().Context(), creatorID,
		req.Title, req.Description, req.Reserve, req.EndTime)
	if err != nil {
		h.log.Error("Failed to create auction", "error", err)
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, AuctionResponse{
		AuctionID:   details.ID.String(),
		CreatorID:   details.CreatorID.String(),
		Title:       string(details.Title),
		Description: string(details.Description),
		Reserve:     details.Reserve,
		CreatedAt:   details.CreationTime,
		EndTime:     details.EndTime,
		Status:      domain.StatusActive,
	})
}

type UpdateAuctionRequest struct {
	CallerID    string `json:"caller_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (h *AuctionHandler) UpdateAuction(c echo.Context) error {
	auctionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid auction id"})
	}

	var req UpdateAuctionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	callerID, err := uuid.Parse(req.CallerID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid caller id"})
	}

	// Guard what the service treats as fatal: only the creator may edit,
	// only while the auction is active.
	details, err := h.details.GetByID(c.Request().Context(), auctionID)
	if err != nil {
		return writeError(c, err)
	}
	if !details.IsActive {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Auction is not active"})
	}
	if callerID != details.CreatorID {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "Only the creator may edit the auction"})
	}

	if err := h.creation.UpdateAuction(c.Request().Context(), auctionID, callerID, req.Title, req.Description); err != nil {
		h.log.Error("Failed to update auction", "auction_id", auctionID, "error", err)
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Auction updated"})
}

func (h *AuctionHandler) GetAuction(c echo.Context) error {
	auctionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid auction id"})
	}

	ctx := c.Request().Context()
	details, err := h.details.GetByID(ctx, auctionID)
	if err != nil {
		return writeError(c, err)
	}
	label, err := h.lifecycle.DescribeStatus(ctx, auctionID)
	if err != nil {
		h.log.Error("Failed to describe auction", "auction_id", auctionID, "error", err)
		return writeError(c, err)
	}

	resp := AuctionResponse{
		AuctionID:   details.ID.String(),
		CreatorID:   details.CreatorID.String(),
		Title:       string(details.Title),
		Description: string(details.Description),
		Reserve:     details.Reserve,
		CreatedAt:   details.CreationTime,
		EndTime:     details.EndTime,
		Status:      label,
	}
	if max, err := h.bids.GetMaxForAuction(ctx, auctionID); err == nil && max != nil {
		resp.MaxBid = &max.Value
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *AuctionHandler) ListAuctions(c echo.Context) error {
	q := domain.AuctionQuery{
		Sort:     domain.AuctionSort(c.QueryParam("sort")),
		Page:     intParam(c, "page", 1),
		PageSize: intParam(c, "page_size", 20),
	}
	if raw := c.QueryParam("active"); raw != "" {
		active := raw == "true"
		q.IsActive = &active
	}

	auctions, err := h.details.Query(c.Request().Context(), q)
	if err != nil {
		h.log.Error("Failed to list auctions", "error", err)
		return writeError(c, err)
	}

	resp := make([]AuctionResponse, 0, len(auctions))
	for _, details := range auctions {
		resp = append(resp, AuctionResponse{
			AuctionID:   details.ID.String(),
			CreatorID:   details.CreatorID.String(),
			Title:       string(details.Title),
			Description: string(details.Description),
			Reserve:     details.Reserve,
			CreatedAt:   details.CreationTime,
			EndTime:     details.EndTime,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

type CloseAuctionRequest struct {
	Role string `json:"role"`
}

func (h *AuctionHandler) CloseAuction(c echo.Context) error {
	auctionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid auction id"})
	}

	var req CloseAuctionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	var role domain.CloserRole
	switch req.Role {
	case "creator":
		role = domain.RoleCreator
	case "moderator":
		role = domain.RoleModerator
	default:
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Role must be creator or moderator"})
	}

	// Closing an inactive auction is fatal in the service; reject it here
	// as ordinary bad input.
	details, err := h.details.GetByID(c.Request().Context(), auctionID)
	if err != nil {
		return writeError(c, err)
	}
	if !details.IsActive {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Auction is already closed"})
	}

	if err := h.lifecycle.Close(c.Request().Context(), auctionID, role); err != nil {
		h.log.Error("Failed to close auction", "auction_id", auctionID, "error", err)
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Auction closed"})
}

type CompleteDealRequest struct {
	CallerID string `json:"caller_id"`
}

func (h *AuctionHandler) CompleteDeal(c echo.Context) error {
	auctionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid auction id"})
	}

	var req CompleteDealRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	callerID, err := uuid.Parse(req.CallerID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid caller id"})
	}

	ctx := c.Request().Context()
	details, err := h.details.GetByID(ctx, auctionID)
	if err != nil {
		return writeError(c, err)
	}
	if details.IsActive {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Auction is still active"})
	}
	category, err := h.categorizer.Categorize(ctx, callerID, auctionID)
	if err != nil {
		return writeError(c, err)
	}
	if category != domain.CategoryCreator && category != domain.CategoryWinner {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "Only the creator or the winner may complete the deal"})
	}

	if err := h.lifecycle.CompleteDeal(ctx, auctionID, callerID); err != nil {
		h.log.Error("Failed to complete deal", "auction_id", auctionID, "error", err)
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Deal completion recorded"})
}

func (h *AuctionHandler) GetStatus(c echo.Context) error {
	auctionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid auction id"})
	}

	label, err := h.lifecycle.DescribeStatus(c.Request().Context(), auctionID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": label})
}

func (h *AuctionHandler) GetContact(c echo.Context) error {
	auctionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid auction id"})
	}
	callerID, err := uuid.Parse(c.QueryParam("caller_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid caller id"})
	}

	contactID, ok, err := h.lifecycle.ResolveContact(c.Request().Context(), auctionID, callerID)
	if err != nil {
		return writeError(c, err)
	}
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "No contact available"})
	}
	return c.JSON(http.StatusOK, map[string]string{"contact_id": contactID.String()})
}

func (h *AuctionHandler) GetCategory(c echo.Context) error {
	auctionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid auction id"})
	}
	userID := uuid.Nil
	if raw := c.QueryParam("user_id"); raw != "" {
		if userID, err = uuid.Parse(raw); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid user id"})
		}
	}

	category, err := h.categorizer.Categorize(c.Request().Context(), userID, auctionID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"category": category.String()})
}

func intParam(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
