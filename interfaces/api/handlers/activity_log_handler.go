package handlers

import (
	"github.com/gofiber/fiber/v2"

	"musicschool-news/domain/dto"
	"musicschool-news/domain/errs"
	"musicschool-news/domain/models"
	"musicschool-news/domain/services"
	"musicschool-news/pkg/utils"
)

const maxActivityPage = 100

type ActivityLogHandler struct {
	activityLogService services.ActivityLogService
}

func NewActivityLogHandler(activityLogService services.ActivityLogService) *ActivityLogHandler {
	return &ActivityLogHandler{activityLogService: activityLogService}
}

// GetNewsActivity returns one article's change history
// @Summary Get activity for an article
// @Tags Activity
// @Security BearerAuth
// @Param id path string true "News ID"
// @Param type query string false "Filter by activity type"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(50)
// @Success 200 {object} utils.Response{data=[]dto.ActivityLogResponse}
// @Router /api/v1/admin/activity/news/{id} [get]
func (h *ActivityLogHandler) GetNewsActivity(c *fiber.Ctx) error {
	newsID, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.ErrorFromErr(c, err)
	}

	activityType := models.ActivityType(c.Query("type"))
	if activityType != "" && !knownActivityType(activityType) {
		return utils.ErrorFromErr(c, errs.Validationf("unknown activity type %q", activityType))
	}

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > maxActivityPage {
		limit = maxActivityPage
	}

	logs, total, err := h.activityLogService.GetByNews(c.UserContext(), newsID, activityType, page, limit)
	if err != nil {
		return utils.ErrorFromErr(c, errs.Internal("failed to load activity", err))
	}

	totalPages := int(total) / limit
	if int(total)%limit > 0 {
		totalPages++
	}

	return utils.SuccessResponse(c, "Activity retrieved", fiber.Map{
		"entries": dto.ActivityLogsToResponse(logs),
		"meta": fiber.Map{
			"total":      total,
			"page":       page,
			"limit":      limit,
			"totalPages": totalPages,
			"hasNext":    page < totalPages,
			"hasPrev":    page > 1,
		},
	})
}

// GetRecentActivity returns the latest changes across all articles
// @Summary Get recent activity
// @Tags Activity
// @Security BearerAuth
// @Param limit query int false "Number of entries" default(50)
// @Success 200 {object} utils.Response{data=[]dto.ActivityLogResponse}
// @Router /api/v1/admin/activity/recent [get]
func (h *ActivityLogHandler) GetRecentActivity(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > maxActivityPage {
		limit = maxActivityPage
	}

	logs, err := h.activityLogService.GetRecent(c.UserContext(), limit)
	if err != nil {
		return utils.ErrorFromErr(c, errs.Internal("failed to load activity", err))
	}

	return utils.SuccessResponse(c, "Activity retrieved", dto.ActivityLogsToResponse(logs))
}

// GetActivityTypes lists the recorded activity types
// @Summary List activity types
// @Tags Activity
// @Security BearerAuth
// @Success 200 {object} utils.Response
// @Router /api/v1/admin/activity/types [get]
func (h *ActivityLogHandler) GetActivityTypes(c *fiber.Ctx) error {
	return utils.SuccessResponse(c, "Activity types retrieved", []fiber.Map{
		{"value": models.ActivityNewsCreated, "label": "Article created"},
		{"value": models.ActivityNewsUpdated, "label": "Article updated"},
		{"value": models.ActivityNewsDeleted, "label": "Article deleted"},
	})
}

func knownActivityType(t models.ActivityType) bool {
	switch t {
	case models.ActivityNewsCreated, models.ActivityNewsUpdated, models.ActivityNewsDeleted:
		return true
	}
	return false
}
