package services

import (
	"context"

	"github.com/google/uuid"

	"musicschool-news/domain/models"
)

// AssetData describes a stored blob that is about to become a NewsMedia row.
type AssetData struct {
	URL         string
	AltText     string
	MimeType    string
	Kind        models.MediaKind
	SizeBytes   int64
	IsPrincipal bool
}

// MediaOrderingService owns the ordered, principal-flagged media of an article.
// It is the only place principal selection happens.
type MediaOrderingService interface {
	// Attach appends after the current maximum order unless explicitOrder is given.
	Attach(ctx context.Context, newsID uuid.UUID, data AssetData, explicitOrder *int) (*models.NewsMedia, error)
	// AttachBatch attaches in slice order; only the first item asking for principal gets it.
	AttachBatch(ctx context.Context, newsID uuid.UUID, items []AssetData) ([]models.NewsMedia, error)
	SetPrincipal(ctx context.Context, newsID, mediaID uuid.UUID) error
	ClearPrincipal(ctx context.Context, newsID uuid.UUID) error
	ReplacePrincipal(ctx context.Context, newsID uuid.UUID, data AssetData) (*models.NewsMedia, error)
	Reorder(ctx context.Context, newsID uuid.UUID, ids []uuid.UUID) error
	Remove(ctx context.Context, mediaID uuid.UUID) (*models.NewsMedia, error)
	ListByArticle(ctx context.Context, newsID uuid.UUID) ([]models.NewsMedia, error)
}
