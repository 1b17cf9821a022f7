package handlers

import (
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"

	"musicschool-news/pkg/logger"
	"musicschool-news/pkg/utils"
)

// LogHandler exposes today's log files to admins. Routes are guarded by JWT + admin role.
type LogHandler struct{}

func NewLogHandler() *LogHandler {
	return &LogHandler{}
}

// GetLogs returns log entries
// @Summary Get application logs
// @Tags Admin
// @Security BearerAuth
// @Param lines query int false "Number of lines" default(100)
// @Param level query string false "Filter by level (DEBUG, INFO, WARN, ERROR)"
// @Param category query string false "Filter by category (news, media, storage, cache, api, db, auth)"
// @Param search query string false "Search in message/action"
// @Success 200 {object} utils.Response
// @Router /api/v1/admin/logs [get]
func (h *LogHandler) GetLogs(c *fiber.Ctx) error {
	opts := logger.ReadLogsOptions{
		Lines:    c.QueryInt("lines", 100),
		Level:    logger.Level(c.Query("level")),
		Category: logger.Category(c.Query("category")),
		Search:   c.Query("search"),
	}

	entries, err := logger.ReadLogs(opts)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to read logs", nil)
	}

	return utils.SuccessResponse(c, "Logs retrieved", fiber.Map{
		"entries": entries,
		"count":   len(entries),
		"filters": fiber.Map{
			"lines":    opts.Lines,
			"level":    opts.Level,
			"category": opts.Category,
			"search":   opts.Search,
		},
	})
}

// GetNewsLogs returns news and media entries that mention one article id.
// @Summary Get logs for an article
// @Tags Admin
// @Security BearerAuth
// @Param id path string true "News ID"
// @Param lines query int false "Number of lines per category" default(200)
// @Success 200 {object} utils.Response
// @Router /api/v1/admin/logs/news/{id} [get]
func (h *LogHandler) GetNewsLogs(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.ErrorFromErr(c, err)
	}

	lines := c.QueryInt("lines", 200)
	var entries []logger.LogEntry
	for _, category := range []logger.Category{logger.CategoryNews, logger.CategoryMedia} {
		found, err := logger.ReadLogs(logger.ReadLogsOptions{
			Lines:    lines,
			Category: category,
			Search:   id.String(),
		})
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to read logs", nil)
		}
		entries = append(entries, found...)
	}

	return utils.SuccessResponse(c, "Logs retrieved", fiber.Map{
		"news_id": id,
		"entries": entries,
		"count":   len(entries),
	})
}

// @Summary List log files
// @Tags Admin
// @Security BearerAuth
// @Success 200 {object} utils.Response
// @Router /api/v1/admin/logs/files [get]
func (h *LogHandler) GetLogFiles(c *fiber.Ctx) error {
	files, err := logger.ListLogFiles()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list log files", nil)
	}

	return utils.SuccessResponse(c, "Log files retrieved", fiber.Map{
		"files":  files,
		"logDir": logger.GetLogDir(),
	})
}

// GetLogStats counts today's entries by level and category.
// @Summary Get log statistics
// @Tags Admin
// @Security BearerAuth
// @Success 200 {object} utils.Response
// @Router /api/v1/admin/logs/stats [get]
func (h *LogHandler) GetLogStats(c *fiber.Ctx) error {
	allLogs, _ := logger.ReadLogs(logger.ReadLogsOptions{Lines: 1000})

	levelCounts := map[string]int{
		"DEBUG": 0,
		"INFO":  0,
		"WARN":  0,
		"ERROR": 0,
	}
	categoryCounts := map[string]int{}
	for _, entry := range allLogs {
		levelCounts[string(entry.Level)]++
		categoryCounts[string(entry.Category)]++
	}

	var totalSize int64
	files, _ := logger.ListLogFiles()
	logDir := logger.GetLogDir()
	for _, f := range files {
		if info, err := os.Stat(filepath.Join(logDir, f)); err == nil {
			totalSize += info.Size()
		}
	}

	return utils.SuccessResponse(c, "Log stats retrieved", fiber.Map{
		"total_entries":    len(allLogs),
		"by_level":         levelCounts,
		"by_category":      categoryCounts,
		"total_files":      len(files),
		"total_size_bytes": totalSize,
	})
}
