package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/cuongbtq/failure-notifier/internal/api/dto"
	"github.com/cuongbtq/failure-notifier/internal/notification"
	"github.com/gin-gonic/gin"
)

// Preview handles POST /api/v1/notifications/preview
// Renders the blocks a failure record would be posted as
func (h *NotificationHandler) Preview(c *gin.Context) {
	var req dto.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid preview request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	level := h.defaultLevel
	if strings.TrimSpace(req.Level) != "" {
		level = notification.ParseLevel(req.Level)
	}

	maxBlockChars := req.MaxBlockChars
	if maxBlockChars == 0 {
		maxBlockChars = h.maxBlockChars
	}

	blocks := notification.Format(req.Record, level, maxBlockChars)

	h.logger.Debug("Rendered notification preview",
		slog.String("level", level.String()),
		slog.Int("blocks", len(blocks)),
	)

	c.JSON(http.StatusOK, dto.PreviewResponse{
		Level:         level.String(),
		MaxBlockChars: maxBlockChars,
		Blocks:        blocks,
	})
}

// Levels handles GET /api/v1/notifications/levels
func (h *NotificationHandler) Levels(c *gin.Context) {
	names := make([]string, 0, len(notification.Levels))
	for _, level := range notification.Levels {
		names = append(names, level.String())
	}

	c.JSON(http.StatusOK, dto.LevelsResponse{
		Levels:  names,
		Default: h.defaultLevel.String(),
	})
}
