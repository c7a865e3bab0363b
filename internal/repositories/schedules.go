package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/zecpath/evaluation-engine/internal/apperrors"
	"github.com/zecpath/evaluation-engine/internal/entities"
	"gorm.io/gorm"
)

type Schedules struct {
	db *gorm.DB
}

func NewSchedulesRepository(db *gorm.DB) *Schedules {
	return &Schedules{db: db}
}

func (repo *Schedules) Create(ctx context.Context, schedule *entities.InterviewSchedule) error {
	return repo.db.WithContext(ctx).Create(schedule).Error
}

func (repo *Schedules) GetByID(ctx context.Context, id int64) (*entities.InterviewSchedule, error) {
	var schedule entities.InterviewSchedule
	err := repo.db.WithContext(ctx).First(&schedule, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("interview schedule", id)
		}
		return nil, err
	}
	return &schedule, nil
}

func (repo *Schedules) Update(ctx context.Context, schedule *entities.InterviewSchedule) error {
	return repo.db.WithContext(ctx).Save(schedule).Error
}

// HasConflictForUser reports whether any pending or confirmed schedule
// involving the user falls inside [from, to).
func (repo *Schedules) HasConflictForUser(ctx context.Context, userID int64, from, to time.Time) (bool, error) {
	var count int64
	err := repo.db.WithContext(ctx).
		Model(&entities.InterviewSchedule{}).
		Joins("JOIN applications ON applications.id = interview_schedules.application_id").
		Joins("JOIN candidates ON candidates.id = applications.candidate_id").
		Joins("JOIN jobs ON jobs.id = applications.job_id").
		Where("interview_schedules.status IN ?",
			[]entities.ScheduleStatus{entities.SchedulePending, entities.ScheduleConfirmed}).
		Where("interview_schedules.interview_date >= ? AND interview_schedules.interview_date < ?", from, to).
		Where("candidates.user_id = ? OR jobs.employer_id = ?", userID, userID).
		Count(&count).Error
	return count > 0, err
}

func (repo *Schedules) GetActiveSlots(ctx context.Context, userID int64) ([]entities.AvailabilitySlot, error) {
	var slots []entities.AvailabilitySlot
	err := repo.db.WithContext(ctx).
		Find(&slots, "user_id = ? AND is_active = ?", userID, true).Error
	if err != nil {
		return nil, err
	}
	return slots, nil
}
