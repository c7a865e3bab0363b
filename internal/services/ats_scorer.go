package services

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/zecpath/evaluation-engine/internal/entities"
)

// Weights of the four match factors; they sum to exactly 1.0.
const (
	WeightSkills     = 0.40
	WeightExperience = 0.30
	WeightEducation  = 0.20
	WeightSalary     = 0.10
)

var yearsPattern = regexp.MustCompile(`(\d+)`)

// ATSScorer computes the 0-100 compatibility score between a candidate and a
// job. It is pure: no storage, no clock.
type ATSScorer struct{}

func NewATSScorer() *ATSScorer {
	return &ATSScorer{}
}

func (s *ATSScorer) Score(candidate *entities.Candidate, job *entities.Job) (float64, entities.MatchBreakdown) {

	skillsScore, matched, missing := s.scoreSkills(candidate, job)
	experienceScore := s.scoreExperience(candidate, job)
	educationScore := s.scoreEducation(candidate)
	salaryScore := s.scoreSalary(candidate, job)

	total := skillsScore*WeightSkills +
		experienceScore*WeightExperience +
		educationScore*WeightEducation +
		salaryScore*WeightSalary

	breakdown := entities.MatchBreakdown{
		SkillsScore:     round2(skillsScore),
		ExperienceScore: round2(experienceScore),
		EducationScore:  round2(educationScore),
		SalaryScore:     round2(salaryScore),
		SkillsMatched:   matched,
		SkillsMissing:   missing,
	}

	return round2(total), breakdown
}

func (s *ATSScorer) scoreSkills(candidate *entities.Candidate, job *entities.Job) (float64, []string, []string) {

	jobSkills := lo.Map(job.SkillsAsArray(), func(skill string, _ int) string {
		return strings.ToLower(strings.TrimSpace(skill))
	})

	if len(jobSkills) == 0 {
		return 100, []string{}, []string{}
	}

	candidateSkills := lo.Map(candidate.SkillsAsArray(), func(skill string, _ int) string {
		return strings.ToLower(strings.TrimSpace(skill))
	})

	if len(candidateSkills) == 0 {
		return 0, []string{}, jobSkills
	}

	matched := lo.Filter(jobSkills, func(skill string, _ int) bool {
		return lo.Contains(candidateSkills, skill)
	})
	missing := lo.Filter(jobSkills, func(skill string, _ int) bool {
		return !lo.Contains(candidateSkills, skill)
	})

	score := float64(len(matched)) / float64(len(jobSkills)) * 100
	return math.Min(100, score), matched, missing
}

func (s *ATSScorer) scoreExperience(candidate *entities.Candidate, job *entities.Job) float64 {

	required, found := extractYears(job.Experience)
	if !found {
		return 100
	}

	candidateYears := float64(candidate.ExperienceYears)
	requiredYears := float64(required)

	switch {
	case candidateYears >= requiredYears:
		return 100
	case candidateYears >= requiredYears*0.8:
		return 80
	case candidateYears >= requiredYears*0.6:
		return 60
	case candidateYears >= requiredYears*0.4:
		return 40
	default:
		return 20
	}
}

// scoreEducation is deliberately coarse: any education text counts in full.
func (s *ATSScorer) scoreEducation(candidate *entities.Candidate) float64 {
	if strings.TrimSpace(candidate.Education) != "" {
		return 100
	}
	return 50
}

func (s *ATSScorer) scoreSalary(candidate *entities.Candidate, job *entities.Job) float64 {

	if candidate.ExpectedSalary == nil || job.SalaryMax == nil {
		return 100
	}

	expected := float64(*candidate.ExpectedSalary)
	budget := float64(*job.SalaryMax)

	switch {
	case expected <= budget:
		return 100
	case expected <= budget*1.1:
		return 80
	case expected <= budget*1.2:
		return 60
	default:
		return 30
	}
}

func extractYears(text string) (int, bool) {
	match := yearsPattern.FindString(text)
	if match == "" {
		return 0, false
	}
	years, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return years, true
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
