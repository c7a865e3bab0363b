package repositories

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/zecpath/evaluation-engine/internal/entities"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type DbContext struct {
	DB *gorm.DB
}

func NewDbContext(connectionString string) (*DbContext, error) {
	db, err := gorm.Open(sqlite.Open(connectionString), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, err
	}

	return &DbContext{DB: db}, nil
}

func (c *DbContext) Migrate() error {

	models := []any{
		entities.Candidate{},
		entities.Job{},
		entities.Application{},
		entities.ApplicationStatusHistory{},
		entities.CallQueueEntry{},
		entities.InterviewSession{},
		entities.ConversationTurn{},
		entities.InterviewState{},
		entities.InterviewSchedule{},
		entities.AvailabilitySlot{},
		entities.InterviewReminder{},
		entities.QuestionTemplate{},
		entities.QuestionFlow{},
	}

	for _, model := range models {
		if err := c.DB.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	if err := c.seedDefaultTemplates(); err != nil {
		return fmt.Errorf("failed to seed question templates: %w", err)
	}

	return nil
}

// seedDefaultTemplates installs the built-in five-category interview flow.
// Runs once: a non-empty template table is left untouched.
func (c *DbContext) seedDefaultTemplates() error {

	var count int64
	if err := c.DB.Model(entities.QuestionTemplate{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	defaults := []entities.QuestionTemplate{
		{Category: entities.CategoryIntroduction, QuestionText: "Tell me about yourself and your background.", Order: 1, IsActive: true},
		{Category: entities.CategoryExperience, QuestionText: "How many years of professional experience do you have?", Order: 2, IsActive: true},
		{Category: entities.CategorySkills, QuestionText: "What are your key technical skills?", Order: 3, IsActive: true},
		{Category: entities.CategoryAvailability, QuestionText: "When can you start if selected?", Order: 4, IsActive: true},
		{Category: entities.CategorySalary, QuestionText: "What are your salary expectations?", Order: 5, IsActive: true},
	}

	return c.DB.Create(&defaults).Error
}

func (c *DbContext) Close() error {
	db, err := c.DB.DB()
	if err != nil {
		return err
	}

	return db.Close()
}
