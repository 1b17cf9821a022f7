package services

import (
	"context"

	"github.com/google/uuid"

	"musicschool-news/domain/models"
)

// ActivityLogService records article changes and serves them back to admins.
// It is also a NewsEventPublisher so it can sit next to the live hub.
type ActivityLogService interface {
	NewsEventPublisher

	GetByNews(ctx context.Context, newsID uuid.UUID, activityType models.ActivityType, page, limit int) ([]models.ActivityLog, int64, error)
	GetRecent(ctx context.Context, limit int) ([]models.ActivityLog, error)

	// Cleanup deletes entries older than the given number of days
	Cleanup(ctx context.Context, days int) (int64, error)
}
