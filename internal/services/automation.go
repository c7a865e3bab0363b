package services

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/zecpath/evaluation-engine/internal/apperrors"
	"github.com/zecpath/evaluation-engine/internal/entities"
	"github.com/zecpath/evaluation-engine/internal/logger"
	"github.com/zecpath/evaluation-engine/internal/metrics"
)

type AutoAction string

const (
	ActionShortlisted AutoAction = "auto_shortlisted"
	ActionRejected    AutoAction = "auto_rejected"
	ActionUnchanged   AutoAction = "unchanged"
	ActionDisabled    AutoAction = "automation_disabled"
)

type automationApplications interface {
	GetByID(ctx context.Context, id int64) (*entities.Application, error)
	GetPendingByJob(ctx context.Context, jobID int64) ([]entities.Application, error)
}

type automationJobs interface {
	GetByID(ctx context.Context, id int64) (*entities.Job, error)
	GetAutomationEnabled(ctx context.Context) ([]entities.Job, error)
}

// AutomationService auto-shortlists and auto-rejects pending applications
// against the job's thresholds. The job record is read once per invocation so
// every decision in a pass uses one threshold snapshot.
type AutomationService struct {
	applications automationApplications
	jobs         automationJobs
	workflow     *WorkflowService
}

func NewAutomationService(applications automationApplications, jobs automationJobs,
	workflow *WorkflowService) *AutomationService {
	return &AutomationService{applications: applications, jobs: jobs, workflow: workflow}
}

// grade is the single comparison both Preview and Apply share, so the two
// can never disagree for the same inputs.
func grade(score float64, job *entities.Job) AutoAction {
	if score >= float64(job.ShortlistThreshold) {
		return ActionShortlisted
	}
	if score < float64(job.RejectThreshold) {
		return ActionRejected
	}
	return ActionUnchanged
}

// ApplyAutoActions applies the rules to one application. It is a no-op for
// jobs without automation and for non-pending applications.
func (a *AutomationService) ApplyAutoActions(ctx context.Context, applicationID int64) (AutoAction, error) {

	application, err := a.applications.GetByID(ctx, applicationID)
	if err != nil {
		return ActionUnchanged, err
	}

	job, err := a.jobs.GetByID(ctx, application.JobID)
	if err != nil {
		return ActionUnchanged, err
	}

	if !job.AutomationEnabled {
		return ActionDisabled, nil
	}

	if application.Status != entities.ApplicationPending {
		return ActionUnchanged, nil
	}

	action := grade(application.MatchScore, job)
	switch action {
	case ActionShortlisted:
		err = a.workflow.Transition(ctx, applicationID, entities.ApplicationShortlisted,
			"automation", "auto-shortlisted by threshold rule")
	case ActionRejected:
		err = a.workflow.Transition(ctx, applicationID, entities.ApplicationRejected,
			"automation", "auto-rejected by threshold rule")
	}
	if err != nil {
		return ActionUnchanged, err
	}

	metrics.AutomationActionsCounter.WithLabelValues(string(action)).Inc()
	return action, nil
}

type AutomationResult struct {
	Total       int
	Shortlisted int
	Rejected    int
	Unchanged   int
}

// ProcessPendingForJob runs the rules over every pending application of one job.
func (a *AutomationService) ProcessPendingForJob(ctx context.Context, jobID int64) (AutomationResult, error) {

	var result AutomationResult

	job, err := a.jobs.GetByID(ctx, jobID)
	if err != nil {
		return result, err
	}
	if !job.AutomationEnabled {
		return result, apperrors.NewValidation("automation not enabled for job %d", jobID)
	}

	applications, err := a.applications.GetPendingByJob(ctx, jobID)
	if err != nil {
		return result, err
	}

	result.Total = len(applications)
	for _, application := range applications {
		action, err := a.ApplyAutoActions(ctx, application.ID)
		if err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
				Errorf("automation failed for application %v: %v", application.ID, err)
			result.Unchanged++
			continue
		}
		switch action {
		case ActionShortlisted:
			result.Shortlisted++
		case ActionRejected:
			result.Rejected++
		default:
			result.Unchanged++
		}
	}

	log.Infof("automation pass for job %v: %v shortlisted, %v rejected of %v",
		jobID, result.Shortlisted, result.Rejected, result.Total)
	return result, nil
}

type BulkAutomationResult struct {
	JobsProcessed     int
	TotalApplications int
	Shortlisted       int
	Rejected          int
}

// ProcessAllJobs runs an automation pass over every published job that has
// automation enabled.
func (a *AutomationService) ProcessAllJobs(ctx context.Context) (BulkAutomationResult, error) {

	var total BulkAutomationResult

	jobs, err := a.jobs.GetAutomationEnabled(ctx)
	if err != nil {
		return total, err
	}

	for _, job := range jobs {
		result, err := a.ProcessPendingForJob(ctx, job.ID)
		if err != nil {
			log.Errorf("automation pass failed for job %v: %v", job.ID, err)
			continue
		}
		total.JobsProcessed++
		total.TotalApplications += result.Total
		total.Shortlisted += result.Shortlisted
		total.Rejected += result.Rejected
	}

	return total, nil
}

type AutomationPreview struct {
	TotalPending       int
	WouldShortlist     int
	WouldReject        int
	WouldRemainPending int
	ShortlistThreshold int
	RejectThreshold    int
}

// Preview computes would-be outcomes without mutating anything.
func (a *AutomationService) Preview(ctx context.Context, jobID int64) (AutomationPreview, error) {

	var preview AutomationPreview

	job, err := a.jobs.GetByID(ctx, jobID)
	if err != nil {
		return preview, err
	}

	applications, err := a.applications.GetPendingByJob(ctx, jobID)
	if err != nil {
		return preview, err
	}

	preview.TotalPending = len(applications)
	preview.ShortlistThreshold = job.ShortlistThreshold
	preview.RejectThreshold = job.RejectThreshold

	for _, application := range applications {
		switch grade(application.MatchScore, job) {
		case ActionShortlisted:
			preview.WouldShortlist++
		case ActionRejected:
			preview.WouldReject++
		default:
			preview.WouldRemainPending++
		}
	}

	return preview, nil
}
