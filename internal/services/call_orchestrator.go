package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/zecpath/evaluation-engine/internal/apperrors"
	"github.com/zecpath/evaluation-engine/internal/entities"
	"github.com/zecpath/evaluation-engine/internal/logger"
	"github.com/zecpath/evaluation-engine/internal/metrics"
)

// AnswerProvider is the external voice/LLM capability. Failures are
// non-fatal to the orchestrator: the call proceeds with an empty answer.
type AnswerProvider interface {
	Answer(ctx context.Context, sessionID, question, category string) (string, error)
}

type orchestratorCallQueue interface {
	GetByID(ctx context.Context, id int64) (*entities.CallQueueEntry, error)
	CreateIfNoneActive(ctx context.Context, entry *entities.CallQueueEntry) error
	MarkInProgress(ctx context.Context, id int64, startedAt time.Time) error
	MarkCompleted(ctx context.Context, id int64, completedAt time.Time, durationSeconds int) error
	RecordFailure(ctx context.Context, id int64, errorMessage string) error
	Requeue(ctx context.Context, id int64, scheduledAt time.Time) error
	Finalize(ctx context.Context, id int64, outcome entities.CallOutcome, summary string, sentiment *float64) error
}

type orchestratorApplications interface {
	GetByID(ctx context.Context, id int64) (*entities.Application, error)
}

type orchestratorSessions interface {
	Update(ctx context.Context, session *entities.InterviewSession) error
	GetState(ctx context.Context, sessionID int64) (*entities.InterviewState, error)
}

// CallOrchestrator runs one AI-interview attempt end to end and owns the
// failure/retry contract. It is the only component allowed to catch an
// error and requeue; everything below it fails fast.
type CallOrchestrator struct {
	callQueue    orchestratorCallQueue
	applications orchestratorApplications
	sessions     orchestratorSessions
	eligibility  *EligibilityService
	questions    *QuestionEngine
	evaluator    *AnswerEvaluator
	scorer       *SessionScorer
	conversation *ConversationService
	answers      AnswerProvider
	maxRetries   int
	clock        Clock
}

func NewCallOrchestrator(callQueue orchestratorCallQueue, applications orchestratorApplications,
	sessions orchestratorSessions, eligibility *EligibilityService, questions *QuestionEngine,
	evaluator *AnswerEvaluator, scorer *SessionScorer, conversation *ConversationService,
	answers AnswerProvider, maxRetries int, clock Clock) *CallOrchestrator {
	return &CallOrchestrator{
		callQueue:    callQueue,
		applications: applications,
		sessions:     sessions,
		eligibility:  eligibility,
		questions:    questions,
		evaluator:    evaluator,
		scorer:       scorer,
		conversation: conversation,
		answers:      answers,
		maxRetries:   maxRetries,
		clock:        clock,
	}
}

// Trigger enqueues a call for an eligible application. Enqueueing is atomic
// with the no-active-entry check, so two concurrent triggers cannot both
// succeed.
func (o *CallOrchestrator) Trigger(ctx context.Context, applicationID int64,
	reason entities.TriggerReason, triggeredBy string) (*entities.CallQueueEntry, error) {

	eligible, checks, err := o.eligibility.IsEligible(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, apperrors.NewValidation("application %d is not eligible for a call: %v",
			applicationID, checks)
	}

	entry := &entities.CallQueueEntry{
		ApplicationID: applicationID,
		Status:        entities.CallQueued,
		ScheduledAt:   o.eligibility.NextCallSlot(),
		MaxRetries:    o.maxRetries,
		TriggerReason: reason,
		TriggeredBy:   triggeredBy,
		CallOutcome:   entities.OutcomePending,
	}
	if err = o.callQueue.CreateIfNoneActive(ctx, entry); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"application_id": applicationID, "scheduled_at": entry.ScheduledAt}).
		Info("interview call enqueued")
	return entry, nil
}

// Execute runs one attempt for a queued entry. On failure the entry is
// requeued with exponential backoff until retries are exhausted.
func (o *CallOrchestrator) Execute(ctx context.Context, entryID int64) error {

	entry, err := o.callQueue.GetByID(ctx, entryID)
	if err != nil {
		return err
	}
	if entry.Status != entities.CallQueued {
		return apperrors.NewConflict("call entry %d is %s, not queued", entryID, entry.Status)
	}

	startedAt := o.clock.Now()
	if err = o.callQueue.MarkInProgress(ctx, entryID, startedAt); err != nil {
		return err
	}

	if err = o.runInterview(ctx, entry); err != nil {
		return o.handleFailure(ctx, entry, err)
	}

	duration := int(o.clock.Now().Sub(startedAt).Seconds())
	if err = o.callQueue.MarkCompleted(ctx, entryID, o.clock.Now(), duration); err != nil {
		return err
	}

	metrics.CallsExecutedCounter.WithLabelValues("completed").Inc()
	metrics.CallDuration.Observe(float64(duration))
	log.WithFields(log.Fields{"call_queue_id": entryID, "duration_seconds": duration}).
		Info("interview call completed")
	return nil
}

func (o *CallOrchestrator) runInterview(ctx context.Context, entry *entities.CallQueueEntry) error {

	application, err := o.applications.GetByID(ctx, entry.ApplicationID)
	if err != nil {
		return err
	}

	session, err := o.conversation.CreateSession(ctx, entry.ID)
	if err != nil {
		return err
	}
	state, err := o.questions.InitializeState(ctx, session.ID)
	if err != nil {
		return err
	}

	previousAnswer := ""
	for {
		question, err := o.questions.GetNextQuestion(ctx, state, application.JobID, previousAnswer)
		if err != nil {
			return err
		}
		if question.Done {
			break
		}

		answer := o.obtainAnswer(ctx, session.SessionID, question)

		// an unanswered question must not carry a score: the session scorer
		// only averages over scored turns
		var evaluation *AnswerEvaluation
		if strings.TrimSpace(answer) != "" {
			result := o.evaluator.Evaluate(question.Text, answer, question.Category)
			evaluation = &result
		}
		if _, err = o.conversation.RecordTurn(ctx, session, question, answer, evaluation); err != nil {
			return err
		}

		previousAnswer = answer
		if !question.FollowUp {
			if err = o.questions.AdvanceState(ctx, state); err != nil {
				return err
			}
		}
	}

	turns, err := o.conversation.SaveTranscript(ctx, session)
	if err != nil {
		return err
	}
	return o.finalize(ctx, entry, session, turns)
}

func (o *CallOrchestrator) obtainAnswer(ctx context.Context, sessionID string, question NextQuestion) string {
	started := o.clock.Now()
	answer, err := o.answers.Answer(ctx, sessionID, question.Text, question.Category)
	metrics.ScoringDuration.WithLabelValues("obtain_answer").Observe(o.clock.Now().Sub(started).Seconds())
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeVoiceApi).
			Errorf("failed to obtain answer, proceeding with empty one: %v", err)
		return ""
	}
	return answer
}

func (o *CallOrchestrator) finalize(ctx context.Context, entry *entities.CallQueueEntry,
	session *entities.InterviewSession, turns []entities.ConversationTurn) error {

	score := o.scorer.Score(turns)
	session.OverallScore = &score.Overall
	if err := session.SetCategoryScores(score.CategoryScores); err != nil {
		return err
	}
	if err := o.sessions.Update(ctx, session); err != nil {
		return err
	}

	sentiment := sentimentOf(turns)
	outcome := outcomeOf(session, sentiment)
	summary := fmt.Sprintf("%d of %d questions answered, overall score %.2f",
		session.TotalAnswers, session.TotalQuestions, score.Overall)
	return o.callQueue.Finalize(ctx, entry.ID, outcome, summary, &sentiment)
}

func (o *CallOrchestrator) handleFailure(ctx context.Context, entry *entities.CallQueueEntry, cause error) error {

	log.WithFields(log.Fields{"call_queue_id": entry.ID, "retry_count": entry.RetryCount}).
		Errorf("interview call failed: %v", cause)

	if err := o.callQueue.RecordFailure(ctx, entry.ID, cause.Error()); err != nil {
		return err
	}
	entry.RetryCount++

	if !ShouldRetry(entry) {
		metrics.CallsExecutedCounter.WithLabelValues("failed").Inc()
		log.WithField("call_queue_id", entry.ID).Warn("interview call retries exhausted")
		return nil
	}

	delay := RetryBackoff(entry.RetryCount)
	metrics.CallsExecutedCounter.WithLabelValues("retried").Inc()
	return o.callQueue.Requeue(ctx, entry.ID, o.clock.Now().Add(delay))
}

// RetryBackoff is the shared exponential backoff for call and reminder
// retries: 60 * 2^retryCount seconds.
func RetryBackoff(retryCount int) time.Duration {
	return time.Duration(60*math.Pow(2, float64(retryCount))) * time.Second
}

func sentimentOf(turns []entities.ConversationTurn) float64 {

	answered := 0
	positive := 0
	for _, turn := range turns {
		if turn.AnswerText == "" {
			continue
		}
		answered++
		var annotations AnswerAnnotations
		if turn.Annotations != "" {
			_ = json.Unmarshal([]byte(turn.Annotations), &annotations)
		}
		if annotations.Sentiment == "positive" {
			positive++
		}
	}
	if answered == 0 {
		return 0
	}
	return round2(float64(positive) / float64(answered))
}

func outcomeOf(session *entities.InterviewSession, sentiment float64) entities.CallOutcome {
	if session.TotalAnswers == 0 {
		return entities.OutcomeNoResponse
	}
	if sentiment >= 0.5 {
		return entities.OutcomeInterested
	}
	if sentiment < 0.2 {
		return entities.OutcomeNotInterested
	}
	return entities.OutcomeCallbackRequested
}
