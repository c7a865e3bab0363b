package entities

import (
	"encoding/json"
	"time"
)

const (
	CategoryIntroduction = "introduction"
	CategoryExperience   = "experience"
	CategorySkills       = "skills"
	CategoryAvailability = "availability"
	CategorySalary       = "salary"
)

// QuestionCondition gates a question on what earlier answers contained.
type QuestionCondition struct {
	MinExperience *int   `json:"min_experience,omitempty"`
	RequiresSkill string `json:"requires_skill,omitempty"`
}

// FollowUpTrigger lists keywords that spawn a one-shot follow-up question.
type FollowUpTrigger struct {
	Keywords []string `json:"keywords,omitempty"`
}

type QuestionTemplate struct {
	ID              int64
	Category        string `gorm:"index"`
	QuestionText    string
	Role            string
	Condition       string
	FollowUpTrigger string
	Order           int  `gorm:"column:question_order;default:0"`
	IsActive        bool `gorm:"default:true"`
	CreatedAt       time.Time
}

func (t *QuestionTemplate) ConditionDetail() (QuestionCondition, error) {
	var condition QuestionCondition
	if t.Condition == "" {
		return condition, nil
	}
	err := json.Unmarshal([]byte(t.Condition), &condition)
	return condition, err
}

func (t *QuestionTemplate) SetCondition(condition QuestionCondition) error {
	bytes, err := json.Marshal(condition)
	if err != nil {
		return err
	}
	t.Condition = string(bytes)
	return nil
}

func (t *QuestionTemplate) FollowUpKeywords() []string {
	if t.FollowUpTrigger == "" {
		return nil
	}
	var trigger FollowUpTrigger
	if err := json.Unmarshal([]byte(t.FollowUpTrigger), &trigger); err != nil {
		return nil
	}
	return trigger.Keywords
}

func (t *QuestionTemplate) SetFollowUpTrigger(trigger FollowUpTrigger) error {
	bytes, err := json.Marshal(trigger)
	if err != nil {
		return err
	}
	t.FollowUpTrigger = string(bytes)
	return nil
}

// QuestionFlow binds a template into a job's ordered interview flow.
type QuestionFlow struct {
	ID         int64
	JobID      int64 `gorm:"uniqueIndex:idx_flows_job_template_order,priority:1"`
	TemplateID int64 `gorm:"uniqueIndex:idx_flows_job_template_order,priority:2"`
	Order      int   `gorm:"column:flow_order;uniqueIndex:idx_flows_job_template_order,priority:3"`
	IsRequired bool  `gorm:"default:true"`
}
