package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"musicschool-news/domain/models"
)

// ErrDuplicateSlug is returned by Insert and UpdateFields when the slug index rejects the row.
var ErrDuplicateSlug = errors.New("slug already exists")

type NewsListFilter struct {
	IncludeHidden bool
	Category      string
	Featured      *bool
	Offset        int
	Limit         int
}

type NewsRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.News, error)
	FindBySlug(ctx context.Context, slug string) (*models.News, error)
	// ExistsSlug compares case-insensitively; excludeID skips the article being updated.
	ExistsSlug(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error)
	List(ctx context.Context, filter NewsListFilter) ([]models.News, int64, error)

	Insert(ctx context.Context, news *models.News) error
	UpdateFields(ctx context.Context, id uuid.UUID, patch models.NewsPatch) error
	IncrementViewCount(ctx context.Context, id uuid.UUID) error
	// Delete removes the article and all of its media rows.
	Delete(ctx context.Context, id uuid.UUID) error
}
