package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/zecpath/evaluation-engine/internal/apperrors"
	"github.com/zecpath/evaluation-engine/internal/entities"
	"gorm.io/gorm"
)

type CallQueue struct {
	db *gorm.DB
}

func NewCallQueueRepository(db *gorm.DB) *CallQueue {
	return &CallQueue{db: db}
}

func (repo *CallQueue) GetByID(ctx context.Context, id int64) (*entities.CallQueueEntry, error) {
	var entry entities.CallQueueEntry
	err := repo.db.WithContext(ctx).First(&entry, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("call queue entry", id)
		}
		return nil, err
	}
	return &entry, nil
}

func (repo *CallQueue) HasActiveForApplication(ctx context.Context, applicationID int64) (bool, error) {
	var count int64
	err := repo.db.WithContext(ctx).Model(&entities.CallQueueEntry{}).
		Where("application_id = ? AND status IN ?", applicationID,
			[]entities.CallStatus{entities.CallQueued, entities.CallInProgress}).
		Count(&count).Error
	return count > 0, err
}

// CreateIfNoneActive inserts the entry only while the application has no
// queued or in-progress call. The insert and the check run in one
// transaction, which is the mutual-exclusion boundary that keeps two
// concurrent triggers from both enqueueing.
func (repo *CallQueue) CreateIfNoneActive(ctx context.Context, entry *entities.CallQueueEntry) error {
	return repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&entities.CallQueueEntry{}).
			Where("application_id = ? AND status IN ?", entry.ApplicationID,
				[]entities.CallStatus{entities.CallQueued, entities.CallInProgress}).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return apperrors.NewConflict("application %d already has a call in flight", entry.ApplicationID)
		}
		return tx.Create(entry).Error
	})
}

func (repo *CallQueue) GetDue(ctx context.Context, now time.Time, limit int) ([]entities.CallQueueEntry, error) {
	var entries []entities.CallQueueEntry
	err := repo.db.WithContext(ctx).
		Where("status = ? AND scheduled_at <= ?", entities.CallQueued, now).
		Order("scheduled_at asc").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (repo *CallQueue) GetLatestByApplication(ctx context.Context, applicationID int64) (*entities.CallQueueEntry, error) {
	var entry entities.CallQueueEntry
	err := repo.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("created_at desc").
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("call queue entry for application", applicationID)
		}
		return nil, err
	}
	return &entry, nil
}

func (repo *CallQueue) MarkInProgress(ctx context.Context, id int64, startedAt time.Time) error {
	return repo.db.WithContext(ctx).Model(&entities.CallQueueEntry{}).Where("id = ?", id).
		Updates(map[string]any{"status": entities.CallInProgress, "started_at": startedAt}).Error
}

func (repo *CallQueue) MarkCompleted(ctx context.Context, id int64, completedAt time.Time, durationSeconds int) error {
	return repo.db.WithContext(ctx).Model(&entities.CallQueueEntry{}).Where("id = ?", id).
		Updates(map[string]any{
			"status":        entities.CallCompleted,
			"completed_at":  completedAt,
			"call_duration": durationSeconds,
		}).Error
}

// RecordFailure increments the retry counter atomically and stores the error.
func (repo *CallQueue) RecordFailure(ctx context.Context, id int64, errorMessage string) error {
	return repo.db.WithContext(ctx).Model(&entities.CallQueueEntry{}).Where("id = ?", id).
		Updates(map[string]any{
			"status":        entities.CallFailed,
			"error_message": errorMessage,
			"retry_count":   gorm.Expr("retry_count + 1"),
		}).Error
}

func (repo *CallQueue) Requeue(ctx context.Context, id int64, scheduledAt time.Time) error {
	return repo.db.WithContext(ctx).Model(&entities.CallQueueEntry{}).Where("id = ?", id).
		Updates(map[string]any{"status": entities.CallQueued, "scheduled_at": scheduledAt}).Error
}

func (repo *CallQueue) Finalize(ctx context.Context, id int64, outcome entities.CallOutcome,
	summary string, sentiment *float64) error {
	return repo.db.WithContext(ctx).Model(&entities.CallQueueEntry{}).Where("id = ?", id).
		Updates(map[string]any{
			"call_outcome":         outcome,
			"conversation_summary": summary,
			"sentiment_score":      sentiment,
		}).Error
}
