package models

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type News struct {
	ID   uuid.UUID `gorm:"primaryKey;type:uuid"`
	Slug string    `gorm:"size:100;not null"` // unique on LOWER(slug), see postgres.Migrate

	// Content
	Title    string  `gorm:"not null"`
	Body     string  `gorm:"type:text;not null"`
	Summary  *string `gorm:"type:text"`
	Author   string
	Category string `gorm:"index"`

	PublishedAt time.Time `gorm:"index"`
	Visible     bool      `gorm:"not null;index"`
	Featured    bool      `gorm:"not null"`
	ViewCount   int64     `gorm:"not null"`

	CreatedAt time.Time
	UpdatedAt time.Time

	// Relations
	Media []NewsMedia `gorm:"foreignKey:NewsID;constraint:OnDelete:CASCADE"`
}

func (News) TableName() string {
	return "news"
}

func (n *News) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
	MediaKindGIF   MediaKind = "gif"
)

// NewsMedia is a file attached to a News article.
// At most one row per article has IsPrincipal set; SortOrder is unique per article but may have gaps.
type NewsMedia struct {
	ID          uuid.UUID `gorm:"primaryKey;type:uuid"`
	NewsID      uuid.UUID `gorm:"type:uuid;not null;index"`
	URL         string    `gorm:"not null"`
	AltText     string
	SortOrder   int       `gorm:"not null"`
	IsPrincipal bool      `gorm:"not null"`
	Kind        MediaKind `gorm:"size:16;not null"`
	MimeType    string    `gorm:"size:127"`
	SizeBytes   int64
	UploadedAt  time.Time `gorm:"not null"`
}

func (NewsMedia) TableName() string {
	return "news_media"
}

func (m *NewsMedia) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

var extensionKinds = map[string]MediaKind{
	".jpg":  MediaKindImage,
	".jpeg": MediaKindImage,
	".png":  MediaKindImage,
	".webp": MediaKindImage,
	".avif": MediaKindImage,
	".svg":  MediaKindImage,
	".gif":  MediaKindGIF,
	".mp4":  MediaKindVideo,
	".webm": MediaKindVideo,
	".mov":  MediaKindVideo,
	".m4v":  MediaKindVideo,
	".ogv":  MediaKindVideo,
}

// DetectMediaKind derives the kind from the MIME type, falling back to the file extension.
func DetectMediaKind(mimeType, fileName string) (MediaKind, bool) {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}

	switch {
	case mimeType == "image/gif":
		return MediaKindGIF, true
	case strings.HasPrefix(mimeType, "image/"):
		return MediaKindImage, true
	case strings.HasPrefix(mimeType, "video/"):
		return MediaKindVideo, true
	}

	kind, ok := extensionKinds[strings.ToLower(filepath.Ext(fileName))]
	return kind, ok
}

// NewsPatch lists every column a partial update may touch. Nil fields keep the stored value.
type NewsPatch struct {
	Title       *string
	Slug        *string
	Body        *string
	Summary     *string
	Author      *string
	Category    *string
	PublishedAt *time.Time
	Visible     *bool
	Featured    *bool
}

// Columns returns the set fields keyed by column name.
func (p NewsPatch) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.Slug != nil {
		cols["slug"] = *p.Slug
	}
	if p.Body != nil {
		cols["body"] = *p.Body
	}
	if p.Summary != nil {
		cols["summary"] = *p.Summary
	}
	if p.Author != nil {
		cols["author"] = *p.Author
	}
	if p.Category != nil {
		cols["category"] = *p.Category
	}
	if p.PublishedAt != nil {
		cols["published_at"] = *p.PublishedAt
	}
	if p.Visible != nil {
		cols["visible"] = *p.Visible
	}
	if p.Featured != nil {
		cols["featured"] = *p.Featured
	}
	return cols
}

// IsEmpty reports whether the patch changes nothing.
func (p NewsPatch) IsEmpty() bool {
	return len(p.Columns()) == 0
}
