package repositories

import (
	"context"
	"errors"

	"github.com/zecpath/evaluation-engine/internal/apperrors"
	"github.com/zecpath/evaluation-engine/internal/entities"
	"gorm.io/gorm"
)

type Jobs struct {
	db *gorm.DB
}

func NewJobsRepository(db *gorm.DB) *Jobs {
	return &Jobs{db: db}
}

func (repo *Jobs) GetByID(ctx context.Context, id int64) (*entities.Job, error) {
	var job entities.Job
	err := repo.db.WithContext(ctx).First(&job, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("job", id)
		}
		return nil, err
	}
	return &job, nil
}

func (repo *Jobs) GetAutomationEnabled(ctx context.Context) ([]entities.Job, error) {
	var jobs []entities.Job
	err := repo.db.WithContext(ctx).
		Find(&jobs, "automation_enabled = ? AND status = ?", true, entities.JobPublished).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}
