package services

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/zecpath/evaluation-engine/internal/apperrors"
	"github.com/zecpath/evaluation-engine/internal/entities"
)

type intakeApplications interface {
	Create(ctx context.Context, application *entities.Application) error
	GetCandidate(ctx context.Context, candidateID int64) (*entities.Candidate, error)
}

type intakeJobs interface {
	GetByID(ctx context.Context, id int64) (*entities.Job, error)
}

// IntakeService creates applications with their match score computed once,
// then runs the automation pass over the fresh record.
type IntakeService struct {
	applications intakeApplications
	jobs         intakeJobs
	scorer       *ATSScorer
	automation   *AutomationService
}

func NewIntakeService(applications intakeApplications, jobs intakeJobs,
	scorer *ATSScorer, automation *AutomationService) *IntakeService {
	return &IntakeService{
		applications: applications,
		jobs:         jobs,
		scorer:       scorer,
		automation:   automation,
	}
}

type IntakeResult struct {
	Application *entities.Application
	Action      AutoAction
}

func (s *IntakeService) Apply(ctx context.Context, candidateID, jobID int64) (*IntakeResult, error) {

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != entities.JobPublished {
		return nil, apperrors.NewValidation("job %d is not accepting applications", jobID)
	}

	candidate, err := s.applications.GetCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	score, breakdown := s.scorer.Score(candidate, job)
	application := &entities.Application{
		CandidateID: candidateID,
		JobID:       jobID,
		Status:      entities.ApplicationPending,
		MatchScore:  score,
	}
	if err = application.SetMatchBreakdown(breakdown); err != nil {
		return nil, err
	}
	if err = s.applications.Create(ctx, application); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"application_id": application.ID,
		"job_id":         jobID,
		"match_score":    score,
	}).Info("application created")

	action, err := s.automation.ApplyAutoActions(ctx, application.ID)
	if err != nil {
		return nil, err
	}
	return &IntakeResult{Application: application, Action: action}, nil
}
