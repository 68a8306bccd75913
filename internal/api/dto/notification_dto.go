package dto

import (
	"github.com/cuongbtq/failure-notifier/internal/notification"
)

type PreviewRequest struct {
	Record        notification.FailureRecord `json:"record"`
	Level         string                     `json:"level"`
	MaxBlockChars int                        `json:"max_block_chars" binding:"gte=0"`
}

type PreviewResponse struct {
	Level         string   `json:"level"`
	MaxBlockChars int      `json:"max_block_chars"`
	Blocks        []string `json:"blocks"`
}

type LevelsResponse struct {
	Levels  []string `json:"levels"`
	Default string   `json:"default"`
}

type ReportFailureResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
