package services

import (
	"context"
	"testing"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/zecpath/evaluation-engine/internal/apperrors"
	"github.com/zecpath/evaluation-engine/internal/entities"
	"github.com/zecpath/evaluation-engine/internal/events"
)

type fakeClock struct {
	now time.Time
}

func (c fakeClock) Now() time.Time {
	return c.now
}

type mockApplications struct {
	mock.Mock
}

func (m *mockApplications) GetByID(ctx context.Context, id int64) (*entities.Application, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Application), args.Error(1)
}

func (m *mockApplications) UpdateStatus(ctx context.Context, id int64, status entities.ApplicationStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *mockApplications) AddStatusHistory(ctx context.Context, record entities.ApplicationStatusHistory) error {
	return m.Called(ctx, record).Error(0)
}

func (m *mockApplications) GetStatusHistory(ctx context.Context, applicationID int64) ([]entities.ApplicationStatusHistory, error) {
	args := m.Called(ctx, applicationID)
	return args.Get(0).([]entities.ApplicationStatusHistory), args.Error(1)
}

func Test_ValidateTransition_ShouldFollowAllowList(t *testing.T) {

	assert.NoError(t, ValidateTransition(entities.ApplicationPending, entities.ApplicationShortlisted))
	assert.NoError(t, ValidateTransition(entities.ApplicationPending, entities.ApplicationRejected))
	assert.NoError(t, ValidateTransition(entities.ApplicationShortlisted, entities.ApplicationInterviewScheduled))
	assert.NoError(t, ValidateTransition(entities.ApplicationInterviewScheduled, entities.ApplicationReviewed))
	assert.NoError(t, ValidateTransition(entities.ApplicationReviewed, entities.ApplicationAccepted))
	assert.NoError(t, ValidateTransition(entities.ApplicationAccepted, entities.ApplicationSelected))

	err := ValidateTransition(entities.ApplicationPending, entities.ApplicationAccepted)
	assert.True(t, apperrors.IsInvalidTransition(err))

	err = ValidateTransition(entities.ApplicationShortlisted, entities.ApplicationSelected)
	assert.True(t, apperrors.IsInvalidTransition(err))
}

func Test_TerminalStates_ShouldHaveNoOutgoingTransitions(t *testing.T) {

	assert.Empty(t, AllowedTransitions(entities.ApplicationRejected))
	assert.Empty(t, AllowedTransitions(entities.ApplicationSelected))

	for _, to := range []entities.ApplicationStatus{
		entities.ApplicationPending, entities.ApplicationShortlisted, entities.ApplicationRejected,
		entities.ApplicationReviewed, entities.ApplicationAccepted, entities.ApplicationSelected,
	} {
		assert.Error(t, ValidateTransition(entities.ApplicationRejected, to))
		assert.Error(t, ValidateTransition(entities.ApplicationSelected, to))
	}
}

func Test_Transition_ShouldRecordHistory(t *testing.T) {

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	applications := &mockApplications{}
	applications.On("GetByID", mock.Anything, int64(1)).
		Return(&entities.Application{ID: 1, Status: entities.ApplicationPending}, nil)
	applications.On("UpdateStatus", mock.Anything, int64(1), entities.ApplicationRejected).Return(nil)
	applications.On("AddStatusHistory", mock.Anything, entities.ApplicationStatusHistory{
		ApplicationID: 1,
		OldStatus:     entities.ApplicationPending,
		NewStatus:     entities.ApplicationRejected,
		ChangedBy:     "recruiter",
		Notes:         "not a fit",
		ChangedAt:     now,
	}).Return(nil)

	workflow := NewWorkflowService(applications, EventBus.New(), fakeClock{now})

	err := workflow.Transition(context.Background(), 1, entities.ApplicationRejected, "recruiter", "not a fit")

	assert.NoError(t, err)
	applications.AssertExpectations(t)
}

func Test_Transition_WhenInvalid_ShouldNotMutate(t *testing.T) {

	applications := &mockApplications{}
	applications.On("GetByID", mock.Anything, int64(1)).
		Return(&entities.Application{ID: 1, Status: entities.ApplicationRejected}, nil)

	workflow := NewWorkflowService(applications, EventBus.New(), fakeClock{time.Now()})

	err := workflow.Transition(context.Background(), 1, entities.ApplicationShortlisted, "recruiter", "")

	assert.True(t, apperrors.IsInvalidTransition(err))
	applications.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	applications.AssertNotCalled(t, "AddStatusHistory", mock.Anything, mock.Anything)
}

func Test_Transition_WhenShortlisted_ShouldPublishEvent(t *testing.T) {

	applications := &mockApplications{}
	applications.On("GetByID", mock.Anything, int64(7)).
		Return(&entities.Application{ID: 7, Status: entities.ApplicationPending}, nil)
	applications.On("UpdateStatus", mock.Anything, int64(7), entities.ApplicationShortlisted).Return(nil)
	applications.On("AddStatusHistory", mock.Anything, mock.Anything).Return(nil)

	bus := EventBus.New()
	var received events.ApplicationShortlisted
	err := bus.Subscribe(events.ApplicationShortlistedTopic, func(event events.ApplicationShortlisted) {
		received = event
	})
	assert.NoError(t, err)

	workflow := NewWorkflowService(applications, bus, fakeClock{time.Now()})

	err = workflow.Transition(context.Background(), 7, entities.ApplicationShortlisted, "automation", "")

	assert.NoError(t, err)
	assert.Equal(t, int64(7), received.ApplicationID)
	assert.Equal(t, "automation", received.Actor)
}
