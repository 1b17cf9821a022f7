package serviceimpl

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"musicschool-news/domain/models"
	"musicschool-news/domain/repositories"
	"musicschool-news/domain/services"
	"musicschool-news/pkg/clock"
	"musicschool-news/pkg/logger"
)

const activityWriteTimeout = 5 * time.Second

var activityMessages = map[services.NewsEventType]string{
	services.NewsEventCreated: "Article created",
	services.NewsEventUpdated: "Article updated",
	services.NewsEventDeleted: "Article deleted",
}

type ActivityLogServiceImpl struct {
	activityLogRepo repositories.ActivityLogRepository
	clock           clock.Clock
}

func NewActivityLogService(activityLogRepo repositories.ActivityLogRepository, clk clock.Clock) services.ActivityLogService {
	if clk == nil {
		clk = clock.Real{}
	}
	return &ActivityLogServiceImpl{
		activityLogRepo: activityLogRepo,
		clock:           clk,
	}
}

// Publish stores the event. Failures are logged; they never reach the caller.
func (s *ActivityLogServiceImpl) Publish(event services.NewsEvent) {
	details, _ := json.Marshal(models.ActivityDetails{
		Visible:    event.Visible,
		OccurredAt: event.OccurredAt,
	})

	message, ok := activityMessages[event.Type]
	if !ok {
		message = string(event.Type)
	}

	entry := &models.ActivityLog{
		NewsID:       event.NewsID,
		ActivityType: models.ActivityType(event.Type),
		Slug:         event.Slug,
		Message:      fmt.Sprintf("%s: %s", message, event.Slug),
		Details:      string(details),
		CreatedAt:    event.OccurredAt,
	}

	ctx, cancel := context.WithTimeout(context.Background(), activityWriteTimeout)
	defer cancel()

	if err := s.activityLogRepo.Create(ctx, entry); err != nil {
		logger.NewsError("activity_log_failed", "Failed to record article activity", err, map[string]interface{}{
			"news_id": event.NewsID.String(),
			"type":    string(event.Type),
		})
	}
}

func (s *ActivityLogServiceImpl) GetByNews(ctx context.Context, newsID uuid.UUID, activityType models.ActivityType, page, limit int) ([]models.ActivityLog, int64, error) {
	offset := (page - 1) * limit
	if offset < 0 {
		offset = 0
	}
	return s.activityLogRepo.GetByNews(ctx, newsID, activityType, offset, limit)
}

func (s *ActivityLogServiceImpl) GetRecent(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	return s.activityLogRepo.GetRecent(ctx, limit)
}

func (s *ActivityLogServiceImpl) Cleanup(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, nil
	}
	return s.activityLogRepo.DeleteOlderThan(ctx, s.clock.Now().AddDate(0, 0, -days))
}

// FanoutPublisher hands every event to each publisher in order.
type FanoutPublisher []services.NewsEventPublisher

func (f FanoutPublisher) Publish(event services.NewsEvent) {
	for _, p := range f {
		if p != nil {
			p.Publish(event)
		}
	}
}
