package dto

import (
	"time"

	"github.com/google/uuid"
)

// CreateNewsRequest is the JSON body of POST /news when no files are sent.
type CreateNewsRequest struct {
	Title       string   `json:"title" validate:"required,max=255"`
	Body        string   `json:"body" validate:"required"`
	Summary     *string  `json:"summary"`
	Author      string   `json:"author" validate:"max=255"`
	Category    string   `json:"category" validate:"max=100"`
	PublishedAt string   `json:"published_at"`
	Visible     FlexBool `json:"visible"`
	Featured    FlexBool `json:"featured"`
}

// UpdateNewsRequest is the JSON body of PUT /news/:id. Omitted fields keep their value.
type UpdateNewsRequest struct {
	Title            *string  `json:"title" validate:"omitempty,max=255"`
	Body             *string  `json:"body"`
	Summary          *string  `json:"summary"`
	Author           *string  `json:"author" validate:"omitempty,max=255"`
	Category         *string  `json:"category" validate:"omitempty,max=100"`
	PublishedAt      *string  `json:"published_at"`
	Visible          FlexBool `json:"visible"`
	Featured         FlexBool `json:"featured"`
	PrincipalMediaID *string  `json:"principal_media_id" validate:"omitempty,uuid"`
	ClearPrincipal   FlexBool `json:"clear_principal"`
	MediaOrder       []string `json:"media_order" validate:"omitempty,dive,uuid"`
}

type ReorderMediaRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,uuid"`
}

type NewsMediaResponse struct {
	ID          uuid.UUID `json:"id"`
	NewsID      uuid.UUID `json:"news_id"`
	URL         string    `json:"url"`
	AltText     string    `json:"alt_text"`
	SortOrder   int       `json:"sort_order"`
	IsPrincipal bool      `json:"is_principal"`
	Kind        string    `json:"kind"`
	MimeType    string    `json:"mime_type"`
	SizeBytes   int64     `json:"size_bytes"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// NewsSummaryResponse is the list projection; it never carries the body.
type NewsSummaryResponse struct {
	ID          uuid.UUID `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Summary     *string   `json:"summary,omitempty"`
	Author      string    `json:"author"`
	Category    string    `json:"category"`
	PublishedAt string    `json:"published_at"`
	Visible     bool      `json:"visible"`
	Featured    bool      `json:"featured"`
	ViewCount   int64     `json:"view_count"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type NewsResponse struct {
	NewsSummaryResponse
	Body      string              `json:"body"`
	CreatedAt time.Time           `json:"created_at"`
	Principal *NewsMediaResponse  `json:"principal,omitempty"`
	Media     []NewsMediaResponse `json:"media"`
}

type NewsListResponse struct {
	News  []NewsSummaryResponse `json:"news"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}
