package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ActivityRepository interface {
	Insert(ctx context.Context, entry domain.ActivityEntry) error
}

type PGActivityRepository struct {
	db *pgxpool.Pool
}

func NewActivityRepository(db *pgxpool.Pool) ActivityRepository {
	return &PGActivityRepository{db: db}
}

func (r *PGActivityRepository) Insert(ctx context.Context, entry domain.ActivityEntry) error {
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("encode activity metadata: %w", err)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err = r.db.Exec(ctx, `INSERT INTO activity_logs (user_id, action, description, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5)`, entry.UserID, entry.Action, entry.Description, metadata, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert activity log: %w", err)
	}
	return nil
}

var _ ActivityRepository = (*PGActivityRepository)(nil)
