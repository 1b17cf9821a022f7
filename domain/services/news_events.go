package services

import (
	"time"

	"github.com/google/uuid"
)

type NewsEventType string

const (
	NewsEventCreated NewsEventType = "news.created"
	NewsEventUpdated NewsEventType = "news.updated"
	NewsEventDeleted NewsEventType = "news.deleted"
)

type NewsEvent struct {
	Type       NewsEventType `json:"type"`
	NewsID     uuid.UUID     `json:"news_id"`
	Slug       string        `json:"slug"`
	Visible    bool          `json:"visible"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// NewsEventPublisher fans article changes out to live subscribers.
type NewsEventPublisher interface {
	Publish(event NewsEvent)
}
