package serviceimpl

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"musicschool-news/domain/models"
	"musicschool-news/domain/repositories"
	"musicschool-news/domain/services"
	"musicschool-news/infrastructure/postgres"
	"musicschool-news/infrastructure/storage"
	"musicschool-news/infrastructure/viewcache"
	"musicschool-news/pkg/clock"
)

var testStart = time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "news.db")), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, postgres.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// fakeBlobStore keeps blobs in memory and can be told to fail.
type fakeBlobStore struct {
	mu         sync.Mutex
	next       int
	blobs      map[string][]byte
	deleted    []string
	failStore  bool
	failDelete map[string]bool
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: make(map[string][]byte), failDelete: make(map[string]bool)}
}

func (f *fakeBlobStore) Store(ctx context.Context, data []byte, meta storage.BlobMetadata) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failStore {
		return "", fmt.Errorf("storage unavailable")
	}
	f.next++
	url := fmt.Sprintf("https://cdn.test/%s/%d-%s", meta.Folder, f.next, meta.FileName)
	f.blobs[url] = data
	return url, nil
}

func (f *fakeBlobStore) Delete(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, url)
	if f.failDelete[url] {
		return fmt.Errorf("delete refused")
	}
	delete(f.blobs, url)
	return nil
}

func (f *fakeBlobStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.blobs)
}

type mockBlobStore struct {
	mock.Mock
}

func (m *mockBlobStore) Store(ctx context.Context, data []byte, meta storage.BlobMetadata) (string, error) {
	args := m.Called(ctx, data, meta)
	return args.String(0), args.Error(1)
}

func (m *mockBlobStore) Delete(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}

type eventRecorder struct {
	mu     sync.Mutex
	events []services.NewsEvent
}

func (r *eventRecorder) Publish(event services.NewsEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) types() []services.NewsEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	var types []services.NewsEventType
	for _, e := range r.events {
		types = append(types, e.Type)
	}
	return types
}

type testEnv struct {
	newsRepo  repositories.NewsRepository
	mediaRepo repositories.NewsMediaRepository
	blobs     *fakeBlobStore
	clock     *clock.Fake
	views     *viewcache.Memory
	events    *eventRecorder
	media     services.MediaOrderingService
	service   services.NewsService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := setupTestDB(t)

	env := &testEnv{
		newsRepo:  postgres.NewNewsRepository(db),
		mediaRepo: postgres.NewNewsMediaRepository(db),
		blobs:     newFakeBlobStore(),
		clock:     clock.NewFake(testStart),
		views:     viewcache.NewMemory(15 * time.Second),
		events:    &eventRecorder{},
	}
	env.media = NewMediaOrderingService(env.mediaRepo, env.blobs, nil, env.clock)
	env.service = env.newService(env.newsRepo)
	return env
}

func (env *testEnv) newService(newsRepo repositories.NewsRepository) services.NewsService {
	return NewNewsService(NewsServiceDeps{
		NewsRepo:      newsRepo,
		MediaRepo:     env.mediaRepo,
		Slugs:         NewSlugAllocator(newsRepo),
		Media:         env.media,
		Views:         env.views,
		Blobs:         env.blobs,
		Events:        env.events,
		Clock:         env.clock,
		MaxMediaBytes: 1 << 20,
	})
}

func (env *testEnv) createNews(t *testing.T, title string) *models.News {
	t.Helper()
	detail, err := env.service.Create(context.Background(), services.CreateNewsInput{
		Title: title,
		Body:  "Cuerpo de " + title,
	})
	require.NoError(t, err)
	return detail.News
}

func pngBytes(tag string) []byte {
	return append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), []byte(tag)...)
}

func gifBytes(tag string) []byte {
	return append([]byte("GIF89a\x01\x00\x01\x00"), []byte(tag)...)
}

func imageAsset(name string, principal bool) services.AssetData {
	return services.AssetData{
		URL:         "https://cdn.test/news/" + name,
		AltText:     name,
		MimeType:    "image/png",
		Kind:        models.MediaKindImage,
		SizeBytes:   16,
		IsPrincipal: principal,
	}
}

func principalIDs(items []models.NewsMedia) []uuid.UUID {
	var ids []uuid.UUID
	for _, m := range items {
		if m.IsPrincipal {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

func mediaIDs(items []models.NewsMedia) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(items))
	for _, m := range items {
		ids = append(ids, m.ID)
	}
	return ids
}
