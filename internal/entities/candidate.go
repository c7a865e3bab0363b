package entities

import (
	"strings"
	"time"

	"github.com/samber/lo"
)

type Candidate struct {
	ID                 int64
	UserID             int64 `gorm:"index"`
	Skills             string
	Education          string
	ExperienceYears    int
	ExpectedSalary     *int
	IsAvailableForCall bool `gorm:"default:true"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (c *Candidate) SkillsAsArray() []string {
	if c.Skills == "" {
		return []string{}
	}
	return lo.Map(strings.Split(c.Skills, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	})
}

func (c *Candidate) SetSkills(skills []string) {
	c.Skills = strings.Join(skills, ",")
}
