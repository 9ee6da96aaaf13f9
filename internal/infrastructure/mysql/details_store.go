package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"auction-market/internal/domain"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
)

type AuctionDetailsStore struct {
	db *sql.DB
}

func NewAuctionDetailsStore(db *sql.DB) *AuctionDetailsStore {
	return &AuctionDetailsStore{db: db}
}

func (r *AuctionDetailsStore) Add(ctx context.Context, details *domain.AuctionDetails) error {
	query := `
        INSERT INTO auction_details (id, creator_id, title, description, reserve, creation_time, end_time, is_active)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		details.ID.String(), details.CreatorID.String(),
		string(details.Title), string(details.Description),
		details.Reserve, details.CreationTime, details.EndTime, details.IsActive)
	return err
}

func (r *AuctionDetailsStore) GetByID(ctx context.Context, auctionID uuid.UUID) (*domain.AuctionDetails, error) {
	query := `
        SELECT id, creator_id, title, description, reserve, creation_time, end_time, is_active
        FROM auction_details WHERE id = ?
    `
	details, err := scanDetails(r.db.QueryRowContext(ctx, query, auctionID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return details, nil
}

func (r *AuctionDetailsStore) GetAllActive(ctx context.Context) ([]*domain.AuctionDetails, error) {
	query := `
        SELECT id, creator_id, title, description, reserve, creation_time, end_time, is_active
        FROM auction_details WHERE is_active = TRUE
    `
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDetails(rows)
}

func (r *AuctionDetailsStore) Update(ctx context.Context, details *domain.AuctionDetails) error {
	query := `
        UPDATE auction_details
        SET title = ?, description = ?, end_time = ?, is_active = ?
        WHERE id = ?
    `
	_, err := r.db.ExecContext(ctx, query,
		string(details.Title), string(details.Description),
		details.EndTime, details.IsActive, details.ID.String())
	return err
}

func (r *AuctionDetailsStore) Query(ctx context.Context, q domain.AuctionQuery) ([]*domain.AuctionDetails, error) {
	order := "creation_time DESC"
	if q.Sort == domain.SortByEndTime {
		order = "end_time ASC"
	}

	where := ""
	args := []interface{}{}
	if q.IsActive != nil {
		where = "WHERE is_active = ?"
		args = append(args, *q.IsActive)
	}

	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	args = append(args, pageSize, (page-1)*pageSize)

	query := fmt.Sprintf(`
        SELECT id, creator_id, title, description, reserve, creation_time, end_time, is_active
        FROM auction_details %s ORDER BY %s LIMIT ? OFFSET ?
    `, where, order)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDetails(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDetails(row rowScanner) (*domain.AuctionDetails, error) {
	var details domain.AuctionDetails
	var id, creatorID, title, description string

	err := row.Scan(&id, &creatorID, &title, &description,
		&details.Reserve, &details.CreationTime, &details.EndTime, &details.IsActive)
	if err != nil {
		return nil, err
	}

	if details.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if details.CreatorID, err = uuid.Parse(creatorID); err != nil {
		return nil, err
	}
	details.Title = domain.Title(title)
	details.Description = domain.Description(description)
	return &details, nil
}

func collectDetails(rows *sql.Rows) ([]*domain.AuctionDetails, error) {
	var result []*domain.AuctionDetails
	for rows.Next() {
		details, err := scanDetails(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, details)
	}
	return result, rows.Err()
}
