// Package activity records the user-facing audit trail of booking actions.
// Recording is fire-and-forget: a failure is logged and never reaches the
// caller's business operation.
package activity

import (
	"context"
	"log/slog"
	"time"

	"github.com/Domenick1991/travelbooking/internal/domain"
)

type Logger interface {
	Record(ctx context.Context, userID int64, action, description string, metadata map[string]any)
}

// LogOnly writes activity entries to the structured log only. It is used
// when no broker is configured.
type LogOnly struct {
	logger *slog.Logger
}

func NewLogOnly(logger *slog.Logger) *LogOnly {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogOnly{logger: logger}
}

func (l *LogOnly) Record(ctx context.Context, userID int64, action, description string, metadata map[string]any) {
	l.logger.InfoContext(ctx, "activity",
		"user_id", userID,
		"action", action,
		"description", description,
		"metadata", metadata,
	)
}

func newEntry(userID int64, action, description string, metadata map[string]any) domain.ActivityEntry {
	return domain.ActivityEntry{
		UserID:      userID,
		Action:      action,
		Description: description,
		Metadata:    metadata,
		CreatedAt:   time.Now().UTC(),
	}
}

var _ Logger = (*LogOnly)(nil)
