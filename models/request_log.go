package models

import (
	"time"

	"gorm.io/datatypes"
)

// RequestLog is the audit row written for every forwarded question.
// Rows are never updated after creation.
type RequestLog struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	StoreID        string         `json:"store_id" gorm:"size:255;not null;index"`
	Question       string         `json:"question" gorm:"type:text;not null"`
	Response       datatypes.JSON `json:"response"`
	Success        bool           `json:"success"`
	ErrorMessage   *string        `json:"error_message"`
	ResponseTimeMs int64          `json:"response_time_ms"`
	CreatedAt      time.Time      `json:"created_at" gorm:"index"`
	UpdatedAt      time.Time      `json:"updated_at"`
}
