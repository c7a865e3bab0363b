package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/samber/lo"
	"github.com/zecpath/evaluation-engine/internal/entities"
)

const (
	RecommendationStrongHire = "Strong Hire"
	RecommendationHire       = "Hire"
	RecommendationConsider   = "Consider"
	RecommendationReject     = "Reject"
)

const (
	RatingExcellent    = "Excellent"
	RatingGood         = "Good"
	RatingAverage      = "Average"
	RatingBelowAverage = "Below Average"
)

const maxListedFindings = 5

type reportApplicationRepository interface {
	GetByID(ctx context.Context, id int64) (*entities.Application, error)
	GetStatusHistory(ctx context.Context, applicationID int64) ([]entities.ApplicationStatusHistory, error)
	GetCandidate(ctx context.Context, candidateID int64) (*entities.Candidate, error)
}

type reportJobRepository interface {
	GetByID(ctx context.Context, id int64) (*entities.Job, error)
}

type reportCallRepository interface {
	GetLatestByApplication(ctx context.Context, applicationID int64) (*entities.CallQueueEntry, error)
}

type reportSessionRepository interface {
	GetByCallQueueID(ctx context.Context, callQueueID int64) (*entities.InterviewSession, error)
}

// HiringReport is the composed recommendation for one application.
type HiringReport struct {
	ApplicationID  int64
	MatchScore     float64
	Breakdown      entities.MatchBreakdown
	InterviewScore *float64
	CategoryScores map[string]entities.CategoryScore
	CombinedScore  float64
	Recommendation string
	Rating         string
	Strengths      []string
	Risks          []string
	Timeline       []entities.ApplicationStatusHistory
}

type ReportGenerator struct {
	applications reportApplicationRepository
	jobs         reportJobRepository
	callQueue    reportCallRepository
	sessions     reportSessionRepository
}

func NewReportGenerator(applications reportApplicationRepository, jobs reportJobRepository,
	callQueue reportCallRepository, sessions reportSessionRepository) *ReportGenerator {
	return &ReportGenerator{
		applications: applications,
		jobs:         jobs,
		callQueue:    callQueue,
		sessions:     sessions,
	}
}

func (g *ReportGenerator) Generate(ctx context.Context, applicationID int64) (*HiringReport, error) {

	application, err := g.applications.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	job, err := g.jobs.GetByID(ctx, application.JobID)
	if err != nil {
		return nil, err
	}
	candidate, err := g.applications.GetCandidate(ctx, application.CandidateID)
	if err != nil {
		return nil, err
	}
	history, err := g.applications.GetStatusHistory(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	breakdown, err := application.MatchBreakdown()
	if err != nil {
		return nil, err
	}

	report := &HiringReport{
		ApplicationID: applicationID,
		MatchScore:    application.MatchScore,
		Breakdown:     breakdown,
		Timeline:      history,
	}

	call, session := g.latestInterview(ctx, applicationID)
	if session != nil && session.OverallScore != nil {
		report.InterviewScore = session.OverallScore
		categories, err := session.CategoryScoresAsMap()
		if err == nil {
			report.CategoryScores = categories
		}
	}

	report.CombinedScore = combinedScore(application.MatchScore, report.InterviewScore)
	report.Recommendation = recommendationTier(report.CombinedScore)
	report.Rating = qualitativeRating(report.CombinedScore)
	report.Strengths, report.Risks = g.findings(application, job, candidate, breakdown, call, report)

	return report, nil
}

// latestInterview resolves the most recent call attempt and its session, if
// any. Absence of either is a normal condition, not an error.
func (g *ReportGenerator) latestInterview(ctx context.Context,
	applicationID int64) (*entities.CallQueueEntry, *entities.InterviewSession) {

	call, err := g.callQueue.GetLatestByApplication(ctx, applicationID)
	if err != nil || call == nil {
		return nil, nil
	}
	session, err := g.sessions.GetByCallQueueID(ctx, call.ID)
	if err != nil {
		return call, nil
	}
	return call, session
}

func combinedScore(matchScore float64, interviewScore *float64) float64 {
	if interviewScore == nil {
		return round2(matchScore)
	}
	return round2(matchScore*0.4 + *interviewScore*0.6)
}

func recommendationTier(combined float64) string {
	switch {
	case combined >= 80:
		return RecommendationStrongHire
	case combined >= 70:
		return RecommendationHire
	case combined >= 60:
		return RecommendationConsider
	default:
		return RecommendationReject
	}
}

func qualitativeRating(combined float64) string {
	switch {
	case combined >= 85:
		return RatingExcellent
	case combined >= 75:
		return RatingGood
	case combined >= 65:
		return RatingAverage
	default:
		return RatingBelowAverage
	}
}

func (g *ReportGenerator) findings(application *entities.Application, job *entities.Job,
	candidate *entities.Candidate, breakdown entities.MatchBreakdown,
	call *entities.CallQueueEntry, report *HiringReport) (strengths []string, risks []string) {

	if application.MatchScore >= 80 {
		strengths = append(strengths, fmt.Sprintf("Strong overall profile match (%.0f%%)", application.MatchScore))
	} else if application.MatchScore < 50 {
		risks = append(risks, fmt.Sprintf("Weak overall profile match (%.0f%%)", application.MatchScore))
	}

	if breakdown.SkillsScore >= 80 {
		strengths = append(strengths, "Excellent skills coverage for the role")
	} else if breakdown.SkillsScore < 50 {
		risks = append(risks, fmt.Sprintf("Missing key skills: %v", breakdown.SkillsMissing))
	}

	if breakdown.ExperienceScore >= 80 {
		strengths = append(strengths, "Experience level meets or exceeds requirements")
	} else if breakdown.ExperienceScore < 50 {
		risks = append(risks, "Experience below the stated requirement")
	}

	if report.InterviewScore != nil {
		if *report.InterviewScore >= 80 {
			strengths = append(strengths, fmt.Sprintf("Strong interview performance (%.0f%%)", *report.InterviewScore))
		} else if *report.InterviewScore < 60 {
			risks = append(risks, fmt.Sprintf("Below-average interview performance (%.0f%%)", *report.InterviewScore))
		}
		for _, category := range orderedCategories(report.CategoryScores) {
			score := report.CategoryScores[category]
			if score.AverageScore >= 85 {
				strengths = append(strengths, fmt.Sprintf("Outstanding %s answers (%.0f%%)", category, score.AverageScore))
			} else if score.AverageScore < 60 {
				risks = append(risks, fmt.Sprintf("Weak %s answers (%.0f%%)", category, score.AverageScore))
			}
		}
	}

	if call != nil {
		if call.SentimentScore != nil {
			if *call.SentimentScore >= 0.7 {
				strengths = append(strengths, "Very positive attitude during the interview")
			} else if *call.SentimentScore < 0.4 {
				risks = append(risks, "Negative sentiment during the interview")
			}
		}
		switch call.CallOutcome {
		case entities.OutcomeInterested:
			strengths = append(strengths, "Candidate expressed clear interest in the role")
		case entities.OutcomeNotInterested:
			risks = append(risks, "Candidate expressed no interest in the role")
		}
	}

	if candidate.ExpectedSalary != nil && job.SalaryMax != nil {
		expected, budget := *candidate.ExpectedSalary, *job.SalaryMax
		if float64(expected) > float64(budget)*1.2 {
			risks = append(risks, "Salary expectation exceeds budget by more than 20%")
		} else if expected <= budget {
			strengths = append(strengths, "Salary expectation fits within budget")
		}
	}

	if len(strengths) > maxListedFindings {
		strengths = strengths[:maxListedFindings]
	}
	if len(risks) > maxListedFindings {
		risks = risks[:maxListedFindings]
	}
	return strengths, risks
}

var reportCategoryOrder = []string{
	entities.CategoryIntroduction,
	entities.CategoryExperience,
	entities.CategorySkills,
	entities.CategoryAvailability,
	entities.CategorySalary,
}

// orderedCategories gives findings a stable order: the interview flow order
// first, anything custom after it alphabetically.
func orderedCategories(scores map[string]entities.CategoryScore) []string {
	ordered := make([]string, 0, len(scores))
	for _, category := range reportCategoryOrder {
		if _, ok := scores[category]; ok {
			ordered = append(ordered, category)
		}
	}
	extras := lo.Filter(lo.Keys(scores), func(category string, _ int) bool {
		return !lo.Contains(reportCategoryOrder, category)
	})
	sort.Strings(extras)
	return append(ordered, extras...)
}
