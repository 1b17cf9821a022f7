package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"musicschool-news/domain/models"
)

// MediaRole is the multipart field a file arrived under.
type MediaRole string

const (
	MediaRolePrincipal MediaRole = "principal"
	MediaRoleGallery   MediaRole = "gallery"
	MediaRoleFile      MediaRole = "files"
)

// MediaUpload is a file received by the HTTP layer that still has to be stored.
type MediaUpload struct {
	Role     MediaRole
	FileName string
	MimeType string
	AltText  string
	Data     []byte
}

type CreateNewsInput struct {
	Title       string
	Body        string
	Summary     *string
	Author      string
	Category    string
	PublishedAt *time.Time
	Visible     *bool // nil defaults to true
	Featured    *bool // nil defaults to false
	Media       []MediaUpload
}

// UpdateNewsInput carries a partial update; nil fields keep the stored value.
type UpdateNewsInput struct {
	Title       *string
	Body        *string
	Summary     *string
	Author      *string
	Category    *string
	PublishedAt *time.Time
	Visible     *bool
	Featured    *bool

	// Media appended after the existing assets. A MediaRolePrincipal upload replaces the current principal.
	Media            []MediaUpload
	PrincipalMediaID *uuid.UUID
	ClearPrincipal   bool
	MediaOrder       []uuid.UUID
}

type NewsListQuery struct {
	Category      string
	Featured      *bool
	IncludeHidden bool
	Page          int
	Limit         int
}

type NewsPage struct {
	Items []models.News
	Total int64
	Page  int
	Limit int
}

// ViewContext tells GetBySlug whether this read should be counted and who is reading.
type ViewContext struct {
	Count     bool
	ClientKey string
	// IncludeHidden lets admins read articles that are not visible yet.
	IncludeHidden bool
}

// NewsDetail is an article together with its ordered media.
type NewsDetail struct {
	News  *models.News
	Media []models.NewsMedia
}

type NewsService interface {
	List(ctx context.Context, query NewsListQuery) (*NewsPage, error)
	GetBySlug(ctx context.Context, slug string, view ViewContext) (*NewsDetail, error)
	GetByID(ctx context.Context, id uuid.UUID) (*NewsDetail, error)
	ListMedia(ctx context.Context, newsID uuid.UUID, includeHidden bool) ([]models.NewsMedia, error)

	Create(ctx context.Context, input CreateNewsInput) (*NewsDetail, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateNewsInput) (*NewsDetail, error)
	Delete(ctx context.Context, id uuid.UUID) error

	RemoveMedia(ctx context.Context, mediaID uuid.UUID) error
	SetPrincipal(ctx context.Context, newsID, mediaID uuid.UUID) error
	ClearPrincipal(ctx context.Context, newsID uuid.UUID) error
	ReorderMedia(ctx context.Context, newsID uuid.UUID, ids []uuid.UUID) ([]models.NewsMedia, error)
}
