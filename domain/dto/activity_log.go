package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"musicschool-news/domain/models"
)

type ActivityLogResponse struct {
	ID           uuid.UUID       `json:"id"`
	NewsID       uuid.UUID       `json:"news_id"`
	ActivityType string          `json:"activity_type"`
	Slug         string          `json:"slug"`
	Message      string          `json:"message"`
	Details      json.RawMessage `json:"details,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

func ActivityLogToResponse(log *models.ActivityLog) ActivityLogResponse {
	resp := ActivityLogResponse{
		ID:           log.ID,
		NewsID:       log.NewsID,
		ActivityType: string(log.ActivityType),
		Slug:         log.Slug,
		Message:      log.Message,
		CreatedAt:    log.CreatedAt,
	}
	if json.Valid([]byte(log.Details)) {
		resp.Details = json.RawMessage(log.Details)
	}
	return resp
}

func ActivityLogsToResponse(logs []models.ActivityLog) []ActivityLogResponse {
	responses := make([]ActivityLogResponse, 0, len(logs))
	for i := range logs {
		responses = append(responses, ActivityLogToResponse(&logs[i]))
	}
	return responses
}
