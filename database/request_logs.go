package database

import (
	"context"
	"errors"
	"fmt"

	"analytics-gateway/models"

	"gorm.io/gorm"
)

// MaxRequestLogs caps a single listing.
const MaxRequestLogs = 100

// RequestLogFilter narrows Recent. Zero values mean "any".
type RequestLogFilter struct {
	StoreID string
	Success *bool
	Limit   int
}

// RequestLogStore is the append-only audit trail of forwarded questions.
type RequestLogStore struct {
	db *gorm.DB
}

func NewRequestLogStore(db *gorm.DB) *RequestLogStore {
	return &RequestLogStore{db: db}
}

func (s *RequestLogStore) Record(ctx context.Context, entry *models.RequestLog) error {
	if entry == nil {
		return errors.New("request log is nil")
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("create request log: %w", err)
	}
	return nil
}

// Recent returns matching logs, newest first.
func (s *RequestLogStore) Recent(ctx context.Context, f RequestLogFilter) ([]models.RequestLog, error) {
	limit := f.Limit
	if limit <= 0 || limit > MaxRequestLogs {
		limit = MaxRequestLogs
	}

	q := s.db.WithContext(ctx).Model(&models.RequestLog{})
	if f.StoreID != "" {
		q = q.Where("store_id = ?", f.StoreID)
	}
	if f.Success != nil {
		q = q.Where("success = ?", *f.Success)
	}

	var logs []models.RequestLog
	if err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("list request logs: %w", err)
	}
	return logs, nil
}
