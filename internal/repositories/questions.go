package repositories

import (
	"context"

	"github.com/zecpath/evaluation-engine/internal/entities"
	"gorm.io/gorm"
)

type Questions struct {
	db *gorm.DB
}

func NewQuestionsRepository(db *gorm.DB) *Questions {
	return &Questions{db: db}
}

// GetFlowForJob returns the job's explicit flow templates in order, or the
// active default templates when no flow is configured.
func (repo *Questions) GetFlowForJob(ctx context.Context, jobID int64) ([]entities.QuestionTemplate, error) {

	var flows []entities.QuestionFlow
	err := repo.db.WithContext(ctx).
		Order("flow_order asc").
		Find(&flows, "job_id = ?", jobID).Error
	if err != nil {
		return nil, err
	}

	if len(flows) == 0 {
		return repo.getDefaultTemplates(ctx)
	}

	templates := make([]entities.QuestionTemplate, 0, len(flows))
	for _, flow := range flows {
		var template entities.QuestionTemplate
		if err := repo.db.WithContext(ctx).First(&template, "id = ?", flow.TemplateID).Error; err != nil {
			return nil, err
		}
		templates = append(templates, template)
	}
	return templates, nil
}

func (repo *Questions) getDefaultTemplates(ctx context.Context) ([]entities.QuestionTemplate, error) {
	var templates []entities.QuestionTemplate
	err := repo.db.WithContext(ctx).
		Order("question_order asc").
		Find(&templates, "is_active = ? AND role = ?", true, "").Error
	if err != nil {
		return nil, err
	}
	return templates, nil
}
