package entities

import (
	"encoding/json"
	"time"
)

type ApplicationStatus string

const (
	ApplicationPending            ApplicationStatus = "pending"
	ApplicationShortlisted        ApplicationStatus = "shortlisted"
	ApplicationInterviewScheduled ApplicationStatus = "interview_scheduled"
	ApplicationReviewed           ApplicationStatus = "reviewed"
	ApplicationAccepted           ApplicationStatus = "accepted"
	ApplicationRejected           ApplicationStatus = "rejected"
	ApplicationSelected           ApplicationStatus = "selected"
)

// MatchBreakdown is the per-factor detail behind an application's match score.
type MatchBreakdown struct {
	SkillsScore     float64  `json:"skills_score"`
	ExperienceScore float64  `json:"experience_score"`
	EducationScore  float64  `json:"education_score"`
	SalaryScore     float64  `json:"salary_score"`
	SkillsMatched   []string `json:"skills_matched"`
	SkillsMissing   []string `json:"skills_missing"`
}

type Application struct {
	ID          int64
	CandidateID int64             `gorm:"uniqueIndex:idx_applications_candidate_job,priority:1"`
	JobID       int64             `gorm:"uniqueIndex:idx_applications_candidate_job,priority:2"`
	Status      ApplicationStatus `gorm:"default:'pending';index"`
	MatchScore  float64           `gorm:"index"`
	Breakdown   string
	AppliedAt   time.Time         `gorm:"autoCreateTime"`
	UpdatedAt   time.Time
}

func (a *Application) MatchBreakdown() (MatchBreakdown, error) {
	var breakdown MatchBreakdown
	if a.Breakdown == "" {
		return breakdown, nil
	}
	err := json.Unmarshal([]byte(a.Breakdown), &breakdown)
	return breakdown, err
}

func (a *Application) SetMatchBreakdown(breakdown MatchBreakdown) error {
	bytes, err := json.Marshal(breakdown)
	if err != nil {
		return err
	}
	a.Breakdown = string(bytes)
	return nil
}

type ApplicationStatusHistory struct {
	ID            int64
	ApplicationID int64 `gorm:"index"`
	OldStatus     ApplicationStatus
	NewStatus     ApplicationStatus
	ChangedBy     string
	Notes         string
	ChangedAt     time.Time `gorm:"autoCreateTime;index"`
}
