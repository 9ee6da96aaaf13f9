package mysql

import (
	"context"
	"database/sql"
	"errors"

	"auction-market/internal/domain"

	"github.com/google/uuid"
)

type BidStore struct {
	db *sql.DB
}

func NewBidStore(db *sql.DB) *BidStore {
	return &BidStore{db: db}
}

func (r *BidStore) Add(ctx context.Context, bid *domain.Bid) error {
	query := `
        INSERT INTO bids (id, auction_id, bidder_id, value, creation_time)
        VALUES (?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		bid.ID.String(), bid.AuctionID.String(), bid.BidderID.String(),
		bid.Value, bid.CreationTime)
	return err
}

// GetMaxForAuction returns the single highest surviving bid, nil when the
// auction has none. Ties go to the earliest bid.
func (r *BidStore) GetMaxForAuction(ctx context.Context, auctionID uuid.UUID) (*domain.Bid, error) {
	query := `
        SELECT id, auction_id, bidder_id, value, creation_time
        FROM bids WHERE auction_id = ?
        ORDER BY value DESC, creation_time ASC LIMIT 1
    `
	bid, err := scanBid(r.db.QueryRowContext(ctx, query, auctionID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return bid, nil
}

func (r *BidStore) GetAllForAuction(ctx context.Context, auctionID uuid.UUID) ([]*domain.Bid, error) {
	query := `
        SELECT id, auction_id, bidder_id, value, creation_time
        FROM bids WHERE auction_id = ?
        ORDER BY value DESC, creation_time ASC
    `
	rows, err := r.db.QueryContext(ctx, query, auctionID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBids(rows)
}

func (r *BidStore) GetAllForUser(ctx context.Context, auctionID, bidderID uuid.UUID) ([]*domain.Bid, error) {
	query := `
        SELECT id, auction_id, bidder_id, value, creation_time
        FROM bids WHERE auction_id = ? AND bidder_id = ?
        ORDER BY value DESC, creation_time ASC
    `
	rows, err := r.db.QueryContext(ctx, query, auctionID.String(), bidderID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBids(rows)
}

func (r *BidStore) DeleteAllExceptMax(ctx context.Context, auctionID uuid.UUID) error {
	// MySQL cannot delete from a table referenced in a plain subquery, hence
	// the derived table.
	query := `
        DELETE FROM bids WHERE auction_id = ? AND id <> (
            SELECT id FROM (
                SELECT id FROM bids WHERE auction_id = ?
                ORDER BY value DESC, creation_time ASC LIMIT 1
            ) AS keeper
        )
    `
	_, err := r.db.ExecContext(ctx, query, auctionID.String(), auctionID.String())
	return err
}

func (r *BidStore) DeleteForUserExceptMax(ctx context.Context, auctionID, bidderID uuid.UUID) error {
	query := `
        DELETE FROM bids WHERE auction_id = ? AND bidder_id = ? AND id <> (
            SELECT id FROM (
                SELECT id FROM bids WHERE auction_id = ? AND bidder_id = ?
                ORDER BY value DESC, creation_time ASC LIMIT 1
            ) AS keeper
        )
    `
	_, err := r.db.ExecContext(ctx, query,
		auctionID.String(), bidderID.String(), auctionID.String(), bidderID.String())
	return err
}

func (r *BidStore) DeleteAllForUser(ctx context.Context, auctionID, bidderID uuid.UUID) error {
	query := `DELETE FROM bids WHERE auction_id = ? AND bidder_id = ?`
	_, err := r.db.ExecContext(ctx, query, auctionID.String(), bidderID.String())
	return err
}

func (r *BidStore) DeleteAll(ctx context.Context, auctionID uuid.UUID) error {
	query := `DELETE FROM bids WHERE auction_id = ?`
	_, err := r.db.ExecContext(ctx, query, auctionID.String())
	return err
}

func scanBid(row rowScanner) (*domain.Bid, error) {
	var bid domain.Bid
	var id, auctionID, bidderID string

	err := row.Scan(&id, &auctionID, &bidderID, &bid.Value, &bid.CreationTime)
	if err != nil {
		return nil, err
	}

	if bid.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if bid.AuctionID, err = uuid.Parse(auctionID); err != nil {
		return nil, err
	}
	if bid.BidderID, err = uuid.Parse(bidderID); err != nil {
		return nil, err
	}
	return &bid, nil
}

func collectBids(rows *sql.Rows) ([]*domain.Bid, error) {
	var result []*domain.Bid
	for rows.Next() {
		bid, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, bid)
	}
	return result, rows.Err()
}
