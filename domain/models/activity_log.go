package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ActivityType string

const (
	ActivityNewsCreated ActivityType = "news.created"
	ActivityNewsUpdated ActivityType = "news.updated"
	ActivityNewsDeleted ActivityType = "news.deleted"
)

// ActivityLog is the audit trail of article changes. Rows outlive the article they describe.
type ActivityLog struct {
	ID           uuid.UUID    `gorm:"primaryKey;type:uuid"`
	NewsID       uuid.UUID    `gorm:"type:uuid;not null;index"`
	ActivityType ActivityType `gorm:"type:varchar(50);not null;index"`
	Slug         string       `gorm:"size:100"`
	Message      string       `gorm:"type:text"`
	Details      string       `gorm:"type:jsonb"` // ActivityDetails as JSON
	CreatedAt    time.Time    `gorm:"index"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}

func (a *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

type ActivityDetails struct {
	Visible    bool      `json:"visible"`
	OccurredAt time.Time `json:"occurred_at"`
}
