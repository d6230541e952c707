package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DestinationRepository interface {
	List(ctx context.Context) ([]domain.Destination, error)
	GetByID(ctx context.Context, id int64) (*domain.Destination, error)
}

type PGDestinationRepository struct {
	db *pgxpool.Pool
}

func NewDestinationRepository(db *pgxpool.Pool) DestinationRepository {
	return &PGDestinationRepository{db: db}
}

const destinationColumns = `id, name, price, max_guests, duration, coupon_code, discount_percentage`

func scanDestination(row pgx.Row) (*domain.Destination, error) {
	var (
		d       domain.Destination
		code    *string
		percent *int
	)
	if err := row.Scan(&d.ID, &d.Name, &d.Price, &d.MaxGuests, &d.Duration, &code, &percent); err != nil {
		return nil, err
	}
	if code != nil && *code != "" && percent != nil {
		d.Coupon = &domain.Coupon{Code: *code, DiscountPercentage: *percent}
	}
	return &d, nil
}

func (r *PGDestinationRepository) List(ctx context.Context) ([]domain.Destination, error) {
	rows, err := r.db.Query(ctx, `SELECT `+destinationColumns+` FROM destinations ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list destinations: %w", err)
	}
	defer rows.Close()

	destinations := make([]domain.Destination, 0)
	for rows.Next() {
		d, err := scanDestination(rows)
		if err != nil {
			return nil, err
		}
		destinations = append(destinations, *d)
	}
	return destinations, rows.Err()
}

func (r *PGDestinationRepository) GetByID(ctx context.Context, id int64) (*domain.Destination, error) {
	d, err := scanDestination(r.db.QueryRow(ctx, `SELECT `+destinationColumns+` FROM destinations WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NotFoundf("destination %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get destination: %w", err)
	}
	return d, nil
}

var _ DestinationRepository = (*PGDestinationRepository)(nil)
