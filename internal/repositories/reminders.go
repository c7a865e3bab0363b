package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/zecpath/evaluation-engine/internal/apperrors"
	"github.com/zecpath/evaluation-engine/internal/entities"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Reminders struct {
	db *gorm.DB
}

func NewRemindersRepository(db *gorm.DB) *Reminders {
	return &Reminders{db: db}
}

// CreateIfAbsent relies on the (schedule, type) unique index; an existing
// reminder of the same stage is left untouched.
func (repo *Reminders) CreateIfAbsent(ctx context.Context, reminder *entities.InterviewReminder) (bool, error) {
	result := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(reminder)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (repo *Reminders) GetByID(ctx context.Context, id int64) (*entities.InterviewReminder, error) {
	var reminder entities.InterviewReminder
	err := repo.db.WithContext(ctx).First(&reminder, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("interview reminder", id)
		}
		return nil, err
	}
	return &reminder, nil
}

// GetDue returns pending reminders whose send time has passed and whose
// schedule is still pending or confirmed.
func (repo *Reminders) GetDue(ctx context.Context, now time.Time) ([]entities.InterviewReminder, error) {
	var reminders []entities.InterviewReminder
	err := repo.db.WithContext(ctx).
		Joins("JOIN interview_schedules ON interview_schedules.id = interview_reminders.schedule_id").
		Where("interview_reminders.status = ? AND interview_reminders.scheduled_at <= ?",
			entities.ReminderPending, now).
		Where("interview_schedules.status IN ?",
			[]entities.ScheduleStatus{entities.SchedulePending, entities.ScheduleConfirmed}).
		Find(&reminders).Error
	if err != nil {
		return nil, err
	}
	return reminders, nil
}

func (repo *Reminders) MarkSent(ctx context.Context, id int64, sentAt time.Time) error {
	return repo.db.WithContext(ctx).Model(&entities.InterviewReminder{}).Where("id = ?", id).
		Updates(map[string]any{"status": entities.ReminderSent, "sent_at": sentAt}).Error
}

// MarkFailed stores the error and increments the retry counter atomically.
func (repo *Reminders) MarkFailed(ctx context.Context, id int64, errorMessage string) error {
	return repo.db.WithContext(ctx).Model(&entities.InterviewReminder{}).Where("id = ?", id).
		Updates(map[string]any{
			"status":        entities.ReminderFailed,
			"error_message": errorMessage,
			"retry_count":   gorm.Expr("retry_count + 1"),
		}).Error
}

func (repo *Reminders) Requeue(ctx context.Context, id int64, scheduledAt time.Time) error {
	return repo.db.WithContext(ctx).Model(&entities.InterviewReminder{}).Where("id = ?", id).
		Updates(map[string]any{"status": entities.ReminderPending, "scheduled_at": scheduledAt}).Error
}

// CancelForSchedule bulk-fails all pending reminders of a schedule.
func (repo *Reminders) CancelForSchedule(ctx context.Context, scheduleID int64, reason string) (int64, error) {
	result := repo.db.WithContext(ctx).Model(&entities.InterviewReminder{}).
		Where("schedule_id = ? AND status = ?", scheduleID, entities.ReminderPending).
		Updates(map[string]any{"status": entities.ReminderFailed, "error_message": reason})
	return result.RowsAffected, result.Error
}
