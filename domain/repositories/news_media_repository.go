package repositories

import (
	"context"

	"github.com/google/uuid"

	"musicschool-news/domain/models"
)

// NewsMediaRepository persists attachments. Every method is a single transaction,
// so a cancelled request never leaves two principals behind.
type NewsMediaRepository interface {
	// Create inserts the row; when media.IsPrincipal is set, other principals of the article are cleared first.
	Create(ctx context.Context, media *models.NewsMedia) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.NewsMedia, error)
	// ListByNews orders by sort_order ASC, is_principal DESC, uploaded_at ASC.
	ListByNews(ctx context.Context, newsID uuid.UUID) ([]models.NewsMedia, error)
	// MaxSortOrder returns -1 when the article has no media.
	MaxSortOrder(ctx context.Context, newsID uuid.UUID) (int, error)
	GetPrincipal(ctx context.Context, newsID uuid.UUID) (*models.NewsMedia, error)
	// SetPrincipal returns gorm.ErrRecordNotFound when mediaID does not belong to newsID.
	SetPrincipal(ctx context.Context, newsID, mediaID uuid.UUID) error
	ClearPrincipal(ctx context.Context, newsID uuid.UUID) error
	UpdateSortOrders(ctx context.Context, newsID uuid.UUID, orders map[uuid.UUID]int) error
	Delete(ctx context.Context, id uuid.UUID) error
}
