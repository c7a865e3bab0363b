package services

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zecpath/evaluation-engine/internal/config"
	"github.com/zecpath/evaluation-engine/internal/entities"
)

type mockOrchestratorQueue struct {
	mock.Mock
}

func (m *mockOrchestratorQueue) GetByID(ctx context.Context, id int64) (*entities.CallQueueEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.CallQueueEntry), args.Error(1)
}

func (m *mockOrchestratorQueue) CreateIfNoneActive(ctx context.Context, entry *entities.CallQueueEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *mockOrchestratorQueue) MarkInProgress(ctx context.Context, id int64, startedAt time.Time) error {
	return m.Called(ctx, id, startedAt).Error(0)
}

func (m *mockOrchestratorQueue) MarkCompleted(ctx context.Context, id int64, completedAt time.Time, durationSeconds int) error {
	return m.Called(ctx, id, completedAt, durationSeconds).Error(0)
}

func (m *mockOrchestratorQueue) RecordFailure(ctx context.Context, id int64, errorMessage string) error {
	return m.Called(ctx, id, errorMessage).Error(0)
}

func (m *mockOrchestratorQueue) Requeue(ctx context.Context, id int64, scheduledAt time.Time) error {
	return m.Called(ctx, id, scheduledAt).Error(0)
}

func (m *mockOrchestratorQueue) Finalize(ctx context.Context, id int64, outcome entities.CallOutcome,
	summary string, sentiment *float64) error {
	return m.Called(ctx, id, outcome, summary, sentiment).Error(0)
}

func (m *mockOrchestratorQueue) HasActiveForApplication(ctx context.Context, applicationID int64) (bool, error) {
	args := m.Called(ctx, applicationID)
	return args.Bool(0), args.Error(1)
}

// fakeSessionStore keeps sessions, turns and states in memory so the whole
// interview loop can run without a database.
type fakeSessionStore struct {
	session *entities.InterviewSession
	state   *entities.InterviewState
	turns   []entities.ConversationTurn
}

func (f *fakeSessionStore) Create(_ context.Context, session *entities.InterviewSession) error {
	session.ID = 1
	f.session = session
	return nil
}

func (f *fakeSessionStore) Update(_ context.Context, session *entities.InterviewSession) error {
	f.session = session
	return nil
}

func (f *fakeSessionStore) AddTurn(_ context.Context, turn *entities.ConversationTurn) error {
	f.turns = append(f.turns, *turn)
	return nil
}

func (f *fakeSessionStore) GetTurns(_ context.Context, _ int64) ([]entities.ConversationTurn, error) {
	return f.turns, nil
}

func (f *fakeSessionStore) CreateState(_ context.Context, state *entities.InterviewState) error {
	f.state = state
	return nil
}

func (f *fakeSessionStore) GetState(_ context.Context, _ int64) (*entities.InterviewState, error) {
	return f.state, nil
}

func (f *fakeSessionStore) UpdateState(_ context.Context, state *entities.InterviewState) error {
	f.state = state
	return nil
}

type stubAnswerProvider struct {
	answer string
	err    error
}

func (s stubAnswerProvider) Answer(_ context.Context, _, _, _ string) (string, error) {
	return s.answer, s.err
}

// scriptedAnswerProvider replays one response per question, so a call can
// mix answered and failed turns.
type scriptedAnswerProvider struct {
	answers []string
	errs    []error
	calls   int
}

func (s *scriptedAnswerProvider) Answer(_ context.Context, _, _, _ string) (string, error) {
	i := s.calls
	s.calls++
	return s.answers[i], s.errs[i]
}

func orchestratorFixture(queue *mockOrchestratorQueue, store *fakeSessionStore,
	provider AnswerProvider, now time.Time) *CallOrchestrator {

	return orchestratorFixtureWithFlow(queue, store, provider, now, []entities.QuestionTemplate{
		{Category: entities.CategoryIntroduction, QuestionText: "Tell me about yourself."},
		{Category: entities.CategoryAvailability, QuestionText: "When can you start?"},
	})
}

func orchestratorFixtureWithFlow(queue *mockOrchestratorQueue, store *fakeSessionStore,
	provider AnswerProvider, now time.Time, flow []entities.QuestionTemplate) *CallOrchestrator {

	applications := &mockEligibilityApps{}
	applications.On("GetByID", mock.Anything, int64(1)).
		Return(&entities.Application{ID: 1, JobID: 2, CandidateID: 3,
			Status: entities.ApplicationShortlisted, MatchScore: 80}, nil)
	applications.On("GetCandidate", mock.Anything, int64(3)).
		Return(&entities.Candidate{ID: 3, IsAvailableForCall: true}, nil)

	jobs := &mockJobs{}
	jobs.On("GetByID", mock.Anything, int64(2)).
		Return(&entities.Job{ID: 2, Status: entities.JobPublished}, nil)

	cfg := config.EngineConfig{CallWindowStartHour: 9, CallWindowEndHour: 18}
	clock := fakeClock{now}
	eligibility := NewEligibilityService(applications, jobs, queue, cfg, clock)

	return NewCallOrchestrator(queue, applications, store, eligibility,
		NewQuestionEngine(stubFlowSource{flow: flow}, store), NewAnswerEvaluator(), NewSessionScorer(),
		NewConversationService(store), provider, 3, clock)
}

func Test_Execute_ShouldRunFullInterview(t *testing.T) {

	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	entry := &entities.CallQueueEntry{ID: 4, ApplicationID: 1, Status: entities.CallQueued, MaxRetries: 3}

	queue := &mockOrchestratorQueue{}
	queue.On("GetByID", mock.Anything, int64(4)).Return(entry, nil)
	queue.On("MarkInProgress", mock.Anything, int64(4), now).Return(nil)
	queue.On("Finalize", mock.Anything, int64(4), entities.OutcomeInterested, mock.Anything, mock.Anything).
		Return(nil)
	queue.On("MarkCompleted", mock.Anything, int64(4), now, 0).Return(nil)

	store := &fakeSessionStore{}
	provider := stubAnswerProvider{answer: "Yes, I am available to start immediately and excited about this."}

	orchestrator := orchestratorFixture(queue, store, provider, now)

	err := orchestrator.Execute(context.Background(), 4)

	require.NoError(t, err)
	queue.AssertExpectations(t)
	assert.Len(t, store.turns, 2)
	assert.Equal(t, 1, store.turns[0].TurnNumber)
	assert.Equal(t, 2, store.turns[1].TurnNumber)
	assert.Equal(t, 2, store.session.TotalQuestions)
	assert.Equal(t, 2, store.session.TotalAnswers)
	require.NotNil(t, store.session.OverallScore)
	assert.NotEmpty(t, store.session.TranscriptText)
	assert.Contains(t, store.session.SessionID, "AI-4-")
}

func Test_Execute_WhenProviderFails_ShouldCompleteWithEmptyAnswers(t *testing.T) {

	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	entry := &entities.CallQueueEntry{ID: 4, ApplicationID: 1, Status: entities.CallQueued, MaxRetries: 3}

	queue := &mockOrchestratorQueue{}
	queue.On("GetByID", mock.Anything, int64(4)).Return(entry, nil)
	queue.On("MarkInProgress", mock.Anything, int64(4), now).Return(nil)
	queue.On("Finalize", mock.Anything, int64(4), entities.OutcomeNoResponse, mock.Anything, mock.Anything).
		Return(nil)
	queue.On("MarkCompleted", mock.Anything, int64(4), now, 0).Return(nil)

	store := &fakeSessionStore{}
	provider := stubAnswerProvider{err: errors.New("voice api unreachable")}

	orchestrator := orchestratorFixture(queue, store, provider, now)

	err := orchestrator.Execute(context.Background(), 4)

	require.NoError(t, err)
	assert.Equal(t, 2, store.session.TotalQuestions)
	assert.Equal(t, 0, store.session.TotalAnswers)
}

func Test_Execute_WhenOneAnswerMissing_ShouldExcludeTurnFromAverages(t *testing.T) {

	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	entry := &entities.CallQueueEntry{ID: 4, ApplicationID: 1, Status: entities.CallQueued, MaxRetries: 3}

	queue := &mockOrchestratorQueue{}
	queue.On("GetByID", mock.Anything, int64(4)).Return(entry, nil)
	queue.On("MarkInProgress", mock.Anything, int64(4), now).Return(nil)
	queue.On("Finalize", mock.Anything, int64(4), mock.Anything, mock.Anything, mock.Anything).
		Return(nil)
	queue.On("MarkCompleted", mock.Anything, int64(4), now, 0).Return(nil)

	store := &fakeSessionStore{}
	provider := &scriptedAnswerProvider{
		answers: []string{"I have built large Go services and mentored a team of five.", ""},
		errs:    []error{nil, errors.New("line dropped")},
	}

	orchestrator := orchestratorFixtureWithFlow(queue, store, provider, now,
		[]entities.QuestionTemplate{
			{Category: entities.CategorySkills, QuestionText: "Which technologies do you use?"},
			{Category: entities.CategorySkills, QuestionText: "Describe a recent project."},
		})

	err := orchestrator.Execute(context.Background(), 4)

	require.NoError(t, err)
	require.Len(t, store.turns, 2)
	require.NotNil(t, store.turns[0].AnswerScore)
	assert.Nil(t, store.turns[1].AnswerScore)
	assert.Equal(t, 1, store.session.TotalAnswers)

	scores, err := store.session.CategoryScoresAsMap()
	require.NoError(t, err)
	skills := scores[entities.CategorySkills]
	assert.Equal(t, 2, skills.QuestionCount)
	assert.Equal(t, 1, skills.AnsweredCount)
	assert.Equal(t, *store.turns[0].AnswerScore, skills.AverageScore)
}

func Test_Execute_WhenNotQueued_ShouldFail(t *testing.T) {

	queue := &mockOrchestratorQueue{}
	queue.On("GetByID", mock.Anything, int64(4)).
		Return(&entities.CallQueueEntry{ID: 4, Status: entities.CallCompleted}, nil)

	orchestrator := orchestratorFixture(queue, &fakeSessionStore{}, stubAnswerProvider{}, time.Now())

	err := orchestrator.Execute(context.Background(), 4)

	assert.Error(t, err)
}

func Test_Trigger_WhenEligible_ShouldEnqueueAtNextSlot(t *testing.T) {

	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)

	queue := &mockOrchestratorQueue{}
	queue.On("HasActiveForApplication", mock.Anything, int64(1)).Return(false, nil)
	queue.On("CreateIfNoneActive", mock.Anything, mock.Anything).Return(nil)

	orchestrator := orchestratorFixture(queue, &fakeSessionStore{}, stubAnswerProvider{}, now)

	entry, err := orchestrator.Trigger(context.Background(), 1, entities.TriggerAuto, "automation")

	require.NoError(t, err)
	assert.Equal(t, entities.CallQueued, entry.Status)
	assert.Equal(t, now.Add(5*time.Minute), entry.ScheduledAt)
	assert.Equal(t, entities.OutcomePending, entry.CallOutcome)
	assert.Equal(t, 3, entry.MaxRetries)
}

func Test_Trigger_WhenNotEligible_ShouldFail(t *testing.T) {

	queue := &mockOrchestratorQueue{}
	queue.On("HasActiveForApplication", mock.Anything, int64(1)).Return(true, nil)

	orchestrator := orchestratorFixture(queue, &fakeSessionStore{}, stubAnswerProvider{}, time.Now())

	_, err := orchestrator.Trigger(context.Background(), 1, entities.TriggerAuto, "automation")

	assert.Error(t, err)
	queue.AssertNotCalled(t, "CreateIfNoneActive", mock.Anything, mock.Anything)
}

func Test_RetryBackoff_ShouldDoubleEachAttempt(t *testing.T) {

	assert.Equal(t, 60*time.Second, RetryBackoff(0))
	assert.Equal(t, 120*time.Second, RetryBackoff(1))
	assert.Equal(t, 240*time.Second, RetryBackoff(2))
	assert.Equal(t, 480*time.Second, RetryBackoff(3))
}

func Test_HandleFailure_ShouldRequeueUntilRetriesExhausted(t *testing.T) {

	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	entry := &entities.CallQueueEntry{ID: 4, ApplicationID: 1, Status: entities.CallQueued,
		RetryCount: 0, MaxRetries: 2}

	queue := &mockOrchestratorQueue{}
	queue.On("GetByID", mock.Anything, int64(4)).Return(entry, nil)
	queue.On("MarkInProgress", mock.Anything, int64(4), now).Return(nil)
	queue.On("RecordFailure", mock.Anything, int64(4), mock.Anything).Return(nil)
	queue.On("Requeue", mock.Anything, int64(4), now.Add(RetryBackoff(1))).Return(nil)

	store := &fakeSessionStore{}
	orchestrator := orchestratorFixture(queue, store, stubAnswerProvider{}, now)

	// break the run by making the application lookup fail
	orchestrator.applications = failingApplications{}

	err := orchestrator.Execute(context.Background(), 4)

	require.NoError(t, err)
	queue.AssertCalled(t, "Requeue", mock.Anything, int64(4), now.Add(RetryBackoff(1)))
}

type failingApplications struct{}

func (failingApplications) GetByID(context.Context, int64) (*entities.Application, error) {
	return nil, errors.New("db unavailable")
}

func Test_SentimentAndOutcome(t *testing.T) {

	positive := entities.ConversationTurn{AnswerText: "yes", Annotations: `{"sentiment":"positive"}`}
	neutral := entities.ConversationTurn{AnswerText: "maybe", Annotations: `{"sentiment":"neutral"}`}

	assert.Equal(t, 1.0, sentimentOf([]entities.ConversationTurn{positive, positive}))
	assert.Equal(t, 0.5, sentimentOf([]entities.ConversationTurn{positive, neutral}))
	assert.Equal(t, 0.0, sentimentOf(nil))

	session := &entities.InterviewSession{TotalAnswers: 2}
	assert.Equal(t, entities.OutcomeInterested, outcomeOf(session, 0.8))
	assert.Equal(t, entities.OutcomeCallbackRequested, outcomeOf(session, 0.3))
	assert.Equal(t, entities.OutcomeNotInterested, outcomeOf(session, 0.1))
	assert.Equal(t, entities.OutcomeNoResponse, outcomeOf(&entities.InterviewSession{}, 0.9))
}
