package services

import (
	"context"
	"time"

	"github.com/zecpath/evaluation-engine/internal/config"
	"github.com/zecpath/evaluation-engine/internal/entities"
)

const (
	CheckMatchScore         = "match_score"
	CheckJobStatus          = "job_status"
	CheckCandidateAvailable = "candidate_available"
	CheckNotAlreadyQueued   = "not_already_queued"
	CheckStatusValid        = "status_valid"
)

type eligibilityApplications interface {
	GetByID(ctx context.Context, id int64) (*entities.Application, error)
	GetCandidate(ctx context.Context, candidateID int64) (*entities.Candidate, error)
}

type eligibilityJobs interface {
	GetByID(ctx context.Context, id int64) (*entities.Job, error)
}

type eligibilityCallQueue interface {
	HasActiveForApplication(ctx context.Context, applicationID int64) (bool, error)
}

// EligibilityService guards entry into the automated interview pipeline.
type EligibilityService struct {
	applications eligibilityApplications
	jobs         eligibilityJobs
	callQueue    eligibilityCallQueue
	cfg          config.EngineConfig
	clock        Clock
}

func NewEligibilityService(applications eligibilityApplications, jobs eligibilityJobs,
	callQueue eligibilityCallQueue, cfg config.EngineConfig, clock Clock) *EligibilityService {
	return &EligibilityService{
		applications: applications,
		jobs:         jobs,
		callQueue:    callQueue,
		cfg:          cfg,
		clock:        clock,
	}
}

// IsEligible returns the aggregate answer plus every individual check so
// operators can see exactly which gate blocked a call.
func (e *EligibilityService) IsEligible(ctx context.Context, applicationID int64) (bool, map[string]bool, error) {

	application, err := e.applications.GetByID(ctx, applicationID)
	if err != nil {
		return false, nil, err
	}

	job, err := e.jobs.GetByID(ctx, application.JobID)
	if err != nil {
		return false, nil, err
	}

	candidate, err := e.applications.GetCandidate(ctx, application.CandidateID)
	if err != nil {
		return false, nil, err
	}

	hasActive, err := e.callQueue.HasActiveForApplication(ctx, applicationID)
	if err != nil {
		return false, nil, err
	}

	checks := map[string]bool{
		CheckMatchScore:         application.MatchScore >= e.cfg.MinCallScore,
		CheckJobStatus:          job.Status == entities.JobPublished,
		CheckCandidateAvailable: candidate.IsAvailableForCall,
		CheckNotAlreadyQueued:   !hasActive,
		CheckStatusValid: application.Status == entities.ApplicationShortlisted ||
			application.Status == entities.ApplicationInterviewScheduled,
	}

	eligible := true
	for _, passed := range checks {
		if !passed {
			eligible = false
			break
		}
	}

	return eligible, checks, nil
}

// NextCallSlot schedules five minutes out inside the call window, otherwise
// at window start the next day.
func (e *EligibilityService) NextCallSlot() time.Time {

	now := e.clock.Now()

	if now.Hour() >= e.cfg.CallWindowStartHour && now.Hour() < e.cfg.CallWindowEndHour {
		return now.Add(5 * time.Minute)
	}

	nextDay := now.AddDate(0, 0, 1)
	return time.Date(nextDay.Year(), nextDay.Month(), nextDay.Day(),
		e.cfg.CallWindowStartHour, 0, 0, 0, now.Location())
}

func ShouldRetry(entry *entities.CallQueueEntry) bool {
	return entry.RetryCount < entry.MaxRetries
}
