package serviceimpl

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"musicschool-news/domain/models"
	"musicschool-news/domain/services"
	"musicschool-news/infrastructure/postgres"
	"musicschool-news/pkg/clock"
)

func TestActivityLogService_RecordsNewsEvents(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	clk := clock.NewFake(testStart)
	activity := NewActivityLogService(postgres.NewActivityLogRepository(db), clk)

	env := newTestEnv(t)
	service := NewNewsService(NewsServiceDeps{
		NewsRepo:  env.newsRepo,
		MediaRepo: env.mediaRepo,
		Slugs:     NewSlugAllocator(env.newsRepo),
		Media:     env.media,
		Views:     env.views,
		Blobs:     env.blobs,
		Events:    FanoutPublisher{activity},
		Clock:     env.clock,
	})

	detail, err := service.Create(ctx, services.CreateNewsInput{Title: "Muestra de fin de año", Body: "Programa"})
	require.NoError(t, err)
	id := detail.News.ID

	env.clock.Advance(time.Minute)
	title := "Muestra de fin de año 2025"
	_, err = service.Update(ctx, id, services.UpdateNewsInput{Title: &title})
	require.NoError(t, err)

	env.clock.Advance(time.Minute)
	require.NoError(t, service.Delete(ctx, id))

	logs, total, err := activity.GetByNews(ctx, id, "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, logs, 3)
	assert.Equal(t, models.ActivityNewsDeleted, logs[0].ActivityType, "newest first")
	assert.Equal(t, models.ActivityNewsCreated, logs[2].ActivityType)
	assert.Equal(t, "muestra-de-fin-de-ano", logs[2].Slug)
	assert.Contains(t, logs[2].Message, "Article created")

	updates, total, err := activity.GetByNews(ctx, id, models.ActivityNewsUpdated, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, updates, 1)
	assert.JSONEq(t, `{"visible":true,"occurred_at":"2025-04-01T12:01:00Z"}`, updates[0].Details)
}

func TestActivityLogService_RecentAndCleanup(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFake(testStart)
	activity := NewActivityLogService(postgres.NewActivityLogRepository(setupTestDB(t)), clk)

	old := uuid.New()
	fresh := uuid.New()
	activity.Publish(services.NewsEvent{Type: services.NewsEventCreated, NewsID: old, Slug: "vieja", Visible: true, OccurredAt: testStart.AddDate(0, 0, -100)})
	activity.Publish(services.NewsEvent{Type: services.NewsEventCreated, NewsID: fresh, Slug: "nueva", Visible: false, OccurredAt: testStart.Add(-time.Hour)})

	recent, err := activity.GetRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, fresh, recent[0].NewsID)

	deleted, err := activity.Cleanup(ctx, 90)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	recent, err = activity.GetRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, fresh, recent[0].NewsID)

	deleted, err = activity.Cleanup(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, deleted, "a non-positive retention keeps everything")
}

func TestFanoutPublisher(t *testing.T) {
	a, b := &eventRecorder{}, &eventRecorder{}
	FanoutPublisher{a, nil, b}.Publish(services.NewsEvent{Type: services.NewsEventDeleted, NewsID: uuid.New()})

	assert.Equal(t, []services.NewsEventType{services.NewsEventDeleted}, a.types())
	assert.Equal(t, []services.NewsEventType{services.NewsEventDeleted}, b.types())
}
