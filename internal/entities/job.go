package entities

import (
	"strings"
	"time"

	"github.com/samber/lo"
)

type JobStatus string

const (
	JobDraft     JobStatus = "draft"
	JobPublished JobStatus = "published"
	JobClosed    JobStatus = "closed"
)

type Job struct {
	ID         int64
	EmployerID int64 `gorm:"index"`
	Title      string
	Skills     string
	Experience string
	SalaryMin  *int
	SalaryMax  *int
	Status     JobStatus `gorm:"default:'draft';index"`

	AutomationEnabled  bool `gorm:"default:false"`
	ShortlistThreshold int  `gorm:"default:80"`
	RejectThreshold    int  `gorm:"default:30"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (j *Job) SkillsAsArray() []string {
	if j.Skills == "" {
		return []string{}
	}
	return lo.Map(strings.Split(j.Skills, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	})
}

func (j *Job) SetSkills(skills []string) {
	j.Skills = strings.Join(skills, ",")
}
