package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"musicschool-news/domain/models"
)

type ActivityLogRepository interface {
	Create(ctx context.Context, log *models.ActivityLog) error

	// GetByNews pages one article's history, newest first. An empty activityType matches all.
	GetByNews(ctx context.Context, newsID uuid.UUID, activityType models.ActivityType, offset, limit int) ([]models.ActivityLog, int64, error)

	// GetRecent returns the latest entries across all articles
	GetRecent(ctx context.Context, limit int) ([]models.ActivityLog, error)

	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
