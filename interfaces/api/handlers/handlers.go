package handlers

import (
	"musicschool-news/domain/services"
)

// Services contains all the services needed for handlers
type Services struct {
	NewsService        services.NewsService
	ActivityLogService services.ActivityLogService
}

// Handlers contains all HTTP handlers
type Handlers struct {
	News        *NewsHandler
	ActivityLog *ActivityLogHandler
	Health      *HealthHandler
	Log         *LogHandler
}

// NewHandlers creates a new instance of Handlers with all dependencies
func NewHandlers(svc *Services, health *HealthHandler) *Handlers {
	h := &Handlers{
		News:   NewNewsHandler(svc.NewsService),
		Health: health,
		Log:    NewLogHandler(),
	}
	if svc.ActivityLogService != nil {
		h.ActivityLog = NewActivityLogHandler(svc.ActivityLogService)
	}
	return h
}
