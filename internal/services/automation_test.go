package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/zecpath/evaluation-engine/internal/apperrors"
	"github.com/zecpath/evaluation-engine/internal/entities"
)

type mockAutomationApps struct {
	mockApplications
}

func (m *mockAutomationApps) GetPendingByJob(ctx context.Context, jobID int64) ([]entities.Application, error) {
	args := m.Called(ctx, jobID)
	return args.Get(0).([]entities.Application), args.Error(1)
}

type mockJobs struct {
	mock.Mock
}

func (m *mockJobs) GetByID(ctx context.Context, id int64) (*entities.Job, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Job), args.Error(1)
}

func (m *mockJobs) GetAutomationEnabled(ctx context.Context) ([]entities.Job, error) {
	args := m.Called(ctx)
	return args.Get(0).([]entities.Job), args.Error(1)
}

func automationFixture(application *entities.Application, job *entities.Job) (*AutomationService, *mockAutomationApps) {

	applications := &mockAutomationApps{}
	applications.On("GetByID", mock.Anything, application.ID).Return(application, nil)
	applications.On("UpdateStatus", mock.Anything, application.ID, mock.Anything).Return(nil)
	applications.On("AddStatusHistory", mock.Anything, mock.Anything).Return(nil)

	jobs := &mockJobs{}
	jobs.On("GetByID", mock.Anything, job.ID).Return(job, nil)

	workflow := NewWorkflowService(applications, nil, fakeClock{time.Now()})
	return NewAutomationService(applications, jobs, workflow), applications
}

func automationJob() *entities.Job {
	return &entities.Job{
		ID:                 1,
		Status:             entities.JobPublished,
		AutomationEnabled:  true,
		ShortlistThreshold: 80,
		RejectThreshold:    30,
	}
}

func Test_ApplyAutoActions_WhenScoreAboveShortlistThreshold_ShouldShortlist(t *testing.T) {

	application := &entities.Application{ID: 1, JobID: 1, Status: entities.ApplicationPending, MatchScore: 85}
	automation, applications := automationFixture(application, automationJob())

	action, err := automation.ApplyAutoActions(context.Background(), 1)

	assert.NoError(t, err)
	assert.Equal(t, ActionShortlisted, action)
	applications.AssertCalled(t, "UpdateStatus", mock.Anything, int64(1), entities.ApplicationShortlisted)
}

func Test_ApplyAutoActions_WhenScoreBelowRejectThreshold_ShouldReject(t *testing.T) {

	application := &entities.Application{ID: 1, JobID: 1, Status: entities.ApplicationPending, MatchScore: 20}
	automation, applications := automationFixture(application, automationJob())

	action, err := automation.ApplyAutoActions(context.Background(), 1)

	assert.NoError(t, err)
	assert.Equal(t, ActionRejected, action)
	applications.AssertCalled(t, "UpdateStatus", mock.Anything, int64(1), entities.ApplicationRejected)
}

func Test_ApplyAutoActions_WhenScoreBetweenThresholds_ShouldLeavePending(t *testing.T) {

	application := &entities.Application{ID: 1, JobID: 1, Status: entities.ApplicationPending, MatchScore: 50}
	automation, applications := automationFixture(application, automationJob())

	action, err := automation.ApplyAutoActions(context.Background(), 1)

	assert.NoError(t, err)
	assert.Equal(t, ActionUnchanged, action)
	applications.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func Test_ApplyAutoActions_WhenAutomationDisabled_ShouldDoNothing(t *testing.T) {

	job := automationJob()
	job.AutomationEnabled = false
	application := &entities.Application{ID: 1, JobID: 1, Status: entities.ApplicationPending, MatchScore: 95}
	automation, applications := automationFixture(application, job)

	action, err := automation.ApplyAutoActions(context.Background(), 1)

	assert.NoError(t, err)
	assert.Equal(t, ActionDisabled, action)
	applications.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func Test_ApplyAutoActions_WhenNotPending_ShouldDoNothing(t *testing.T) {

	application := &entities.Application{ID: 1, JobID: 1, Status: entities.ApplicationShortlisted, MatchScore: 95}
	automation, applications := automationFixture(application, automationJob())

	action, err := automation.ApplyAutoActions(context.Background(), 1)

	assert.NoError(t, err)
	assert.Equal(t, ActionUnchanged, action)
	applications.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func Test_PreviewAndApply_ShouldAgreeOnOutcome(t *testing.T) {

	job := automationJob()
	pending := []entities.Application{
		{ID: 1, JobID: 1, Status: entities.ApplicationPending, MatchScore: 85},
		{ID: 2, JobID: 1, Status: entities.ApplicationPending, MatchScore: 50},
		{ID: 3, JobID: 1, Status: entities.ApplicationPending, MatchScore: 20},
		{ID: 4, JobID: 1, Status: entities.ApplicationPending, MatchScore: 80},
	}

	applications := &mockAutomationApps{}
	applications.On("GetPendingByJob", mock.Anything, int64(1)).Return(pending, nil)
	for i := range pending {
		applications.On("GetByID", mock.Anything, pending[i].ID).Return(&pending[i], nil)
	}
	applications.On("UpdateStatus", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	applications.On("AddStatusHistory", mock.Anything, mock.Anything).Return(nil)

	jobs := &mockJobs{}
	jobs.On("GetByID", mock.Anything, int64(1)).Return(job, nil)

	workflow := NewWorkflowService(applications, nil, fakeClock{time.Now()})
	automation := NewAutomationService(applications, jobs, workflow)

	preview, err := automation.Preview(context.Background(), 1)
	assert.NoError(t, err)

	result, err := automation.ProcessPendingForJob(context.Background(), 1)
	assert.NoError(t, err)

	assert.Equal(t, preview.WouldShortlist, result.Shortlisted)
	assert.Equal(t, preview.WouldReject, result.Rejected)
	assert.Equal(t, preview.WouldRemainPending, result.Unchanged)
	assert.Equal(t, 2, result.Shortlisted)
	assert.Equal(t, 1, result.Rejected)
	assert.Equal(t, 1, result.Unchanged)
}

func Test_ProcessPendingForJob_WhenAutomationDisabled_ShouldFail(t *testing.T) {

	job := automationJob()
	job.AutomationEnabled = false

	jobs := &mockJobs{}
	jobs.On("GetByID", mock.Anything, int64(1)).Return(job, nil)

	automation := NewAutomationService(&mockAutomationApps{}, jobs,
		NewWorkflowService(&mockApplications{}, nil, fakeClock{time.Now()}))

	_, err := automation.ProcessPendingForJob(context.Background(), 1)

	assert.True(t, apperrors.IsValidation(err))
}
