package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/cuongbtq/failure-notifier/internal/api/dto"
	"github.com/cuongbtq/failure-notifier/internal/failure"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReportFailure handles POST /api/v1/failures
// Validates a failure event and publishes it for the notifier service
func (h *FailureHandler) ReportFailure(c *gin.Context) {
	var event failure.Event
	if err := c.ShouldBindJSON(&event); err != nil {
		h.logger.Warn("Invalid failure report", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	if err := event.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Invalid failure event",
			Details: err.Error(),
		})
		return
	}

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.FailedAt.IsZero() {
		event.FailedAt = time.Now().UTC()
	}

	body, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to encode failure event",
			slog.String("failure_id", event.ID),
			slog.Any("error", err),
		)
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Invalid failure event",
			Details: err.Error(),
		})
		return
	}

	if err := h.publisher.Publish(c.Request.Context(), body, "application/json"); err != nil {
		h.logger.Error("Failed to publish failure event",
			slog.String("failure_id", event.ID),
			slog.Any("error", err),
		)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error: "Failed to queue failure notification",
		})
		return
	}

	h.logger.Info("Failure event queued",
		slog.String("failure_id", event.ID),
		slog.String("worker", event.Worker),
		slog.String("queue", event.Queue),
	)

	c.JSON(http.StatusAccepted, dto.ReportFailureResponse{
		ID:     event.ID,
		Status: "queued",
	})
}
