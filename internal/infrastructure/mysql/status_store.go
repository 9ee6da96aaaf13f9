package mysql

import (
	"context"
	"database/sql"
	"errors"

	"auction-market/internal/domain"

	"github.com/google/uuid"
)

type AuctionStatusStore struct {
	db *sql.DB
}

func NewAuctionStatusStore(db *sql.DB) *AuctionStatusStore {
	return &AuctionStatusStore{db: db}
}

func (r *AuctionStatusStore) Add(ctx context.Context, status *domain.AuctionStatus) error {
	query := `
        INSERT INTO auction_status (auction_id, phase, winner_id, deal_done_by_creator, deal_done_by_winner)
        VALUES (?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		status.AuctionID.String(), int(status.Phase), winnerColumn(status),
		status.DealDoneByCreator, status.DealDoneByWinner)
	return err
}

func (r *AuctionStatusStore) GetByID(ctx context.Context, auctionID uuid.UUID) (*domain.AuctionStatus, error) {
	query := `
        SELECT auction_id, phase, winner_id, deal_done_by_creator, deal_done_by_winner
        FROM auction_status WHERE auction_id = ?
    `

	var status domain.AuctionStatus
	var id string
	var phase int
	var winnerID sql.NullString

	err := r.db.QueryRowContext(ctx, query, auctionID.String()).Scan(
		&id, &phase, &winnerID, &status.DealDoneByCreator, &status.DealDoneByWinner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	if status.AuctionID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	status.Phase = domain.Phase(phase)
	if winnerID.Valid {
		if status.WinnerID, err = uuid.Parse(winnerID.String); err != nil {
			return nil, err
		}
	}
	return &status, nil
}

func (r *AuctionStatusStore) Update(ctx context.Context, status *domain.AuctionStatus) error {
	query := `
        UPDATE auction_status
        SET phase = ?, winner_id = ?, deal_done_by_creator = ?, deal_done_by_winner = ?
        WHERE auction_id = ?
    `
	_, err := r.db.ExecContext(ctx, query,
		int(status.Phase), winnerColumn(status),
		status.DealDoneByCreator, status.DealDoneByWinner,
		status.AuctionID.String())
	return err
}

func winnerColumn(status *domain.AuctionStatus) interface{} {
	if status.WinnerID == uuid.Nil {
		return nil
	}
	return status.WinnerID.String()
}
