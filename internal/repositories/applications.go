package repositories

import (
	"context"
	"errors"

	"github.com/zecpath/evaluation-engine/internal/apperrors"
	"github.com/zecpath/evaluation-engine/internal/entities"
	"gorm.io/gorm"
)

type Applications struct {
	db *gorm.DB
}

func NewApplicationsRepository(db *gorm.DB) *Applications {
	return &Applications{db: db}
}

func (repo *Applications) GetByID(ctx context.Context, id int64) (*entities.Application, error) {
	var application entities.Application
	err := repo.db.WithContext(ctx).First(&application, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("application", id)
		}
		return nil, err
	}
	return &application, nil
}

func (repo *Applications) GetPendingByJob(ctx context.Context, jobID int64) ([]entities.Application, error) {
	var applications []entities.Application
	err := repo.db.WithContext(ctx).
		Find(&applications, "job_id = ? AND status = ?", jobID, entities.ApplicationPending).Error
	if err != nil {
		return nil, err
	}
	return applications, nil
}

func (repo *Applications) Create(ctx context.Context, application *entities.Application) error {
	return repo.db.WithContext(ctx).Create(application).Error
}

func (repo *Applications) UpdateStatus(ctx context.Context, id int64, status entities.ApplicationStatus) error {
	return repo.db.WithContext(ctx).Model(&entities.Application{}).Where("id = ?", id).
		Update("status", status).Error
}

func (repo *Applications) UpdateScore(ctx context.Context, id int64, score float64, breakdown string) error {
	return repo.db.WithContext(ctx).Model(&entities.Application{}).Where("id = ?", id).
		Updates(map[string]any{"match_score": score, "breakdown": breakdown}).Error
}

func (repo *Applications) AddStatusHistory(ctx context.Context, record entities.ApplicationStatusHistory) error {
	return repo.db.WithContext(ctx).Create(&record).Error
}

func (repo *Applications) GetStatusHistory(ctx context.Context, applicationID int64) ([]entities.ApplicationStatusHistory, error) {
	var history []entities.ApplicationStatusHistory
	err := repo.db.WithContext(ctx).
		Order("changed_at asc").
		Find(&history, "application_id = ?", applicationID).Error
	if err != nil {
		return nil, err
	}
	return history, nil
}

func (repo *Applications) GetCandidate(ctx context.Context, candidateID int64) (*entities.Candidate, error) {
	var candidate entities.Candidate
	err := repo.db.WithContext(ctx).First(&candidate, "id = ?", candidateID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("candidate", candidateID)
		}
		return nil, err
	}
	return &candidate, nil
}
