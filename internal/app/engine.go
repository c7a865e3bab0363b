package app

import (
	"context"

	"github.com/asaskevich/EventBus"
	log "github.com/sirupsen/logrus"
	"github.com/zecpath/evaluation-engine/internal/clients/gemini"
	"github.com/zecpath/evaluation-engine/internal/clients/notify"
	"github.com/zecpath/evaluation-engine/internal/clients/voice"
	"github.com/zecpath/evaluation-engine/internal/config"
	"github.com/zecpath/evaluation-engine/internal/repositories"
	"github.com/zecpath/evaluation-engine/internal/services"
)

// Engine is the composition root: every service wired against one database
// and one event bus. The HTTP layer calls into these; the dispatcher drives
// the periodic work on its own.
type Engine struct {
	Intake       *services.IntakeService
	Workflow     *services.WorkflowService
	Automation   *services.AutomationService
	Eligibility  *services.EligibilityService
	Scheduler    *services.InterviewScheduler
	Orchestrator *services.CallOrchestrator
	Reports      *services.ReportGenerator
	Reminders    *services.ReminderService

	dispatcher *services.Dispatcher
}

func New(ctx context.Context, cfg *config.Config, dbContext *repositories.DbContext) (*Engine, error) {

	applications := repositories.NewApplicationsRepository(dbContext.DB)
	jobs := repositories.NewJobsRepository(dbContext.DB)
	callQueue := repositories.NewCallQueueRepository(dbContext.DB)
	sessions := repositories.NewSessionsRepository(dbContext.DB)
	schedules := repositories.NewSchedulesRepository(dbContext.DB)
	reminders := repositories.NewRemindersRepository(dbContext.DB)
	questions := repositories.NewCachedQuestions(repositories.NewQuestionsRepository(dbContext.DB))

	bus := EventBus.New()
	clock := services.SystemClock()

	workflow := services.NewWorkflowService(applications, bus, clock)
	automation := services.NewAutomationService(applications, jobs, workflow)
	eligibility := services.NewEligibilityService(applications, jobs, callQueue, cfg.Engine, clock)

	conversation := services.NewConversationService(sessions)
	questionEngine := services.NewQuestionEngine(questions, sessions)

	answers, err := newAnswerProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	orchestrator := services.NewCallOrchestrator(callQueue, applications, sessions, eligibility,
		questionEngine, services.NewAnswerEvaluator(), services.NewSessionScorer(), conversation,
		answers, cfg.Engine.MaxCallRetries, clock)

	reminderService := services.NewReminderService(reminders, schedules, notify.NewLogNotifier(),
		cfg.Engine.MaxReminderRetries, clock)
	if err = reminderService.Subscribe(bus); err != nil {
		return nil, err
	}

	dispatcher, err := services.NewDispatcher(cfg.Engine, callQueue, orchestrator, reminderService, bus, clock)
	if err != nil {
		return nil, err
	}

	return &Engine{
		Intake:       services.NewIntakeService(applications, jobs, services.NewATSScorer(), automation),
		Workflow:     workflow,
		Automation:   automation,
		Eligibility:  eligibility,
		Scheduler:    services.NewInterviewScheduler(applications, jobs, schedules, workflow, bus, cfg.Engine, clock),
		Orchestrator: orchestrator,
		Reports:      services.NewReportGenerator(applications, jobs, callQueue, sessions),
		Reminders:    reminderService,
		dispatcher:   dispatcher,
	}, nil
}

func (e *Engine) Stop() {
	e.dispatcher.Stop()
}

func newAnswerProvider(ctx context.Context, cfg *config.Config) (services.AnswerProvider, error) {

	if cfg.Engine.SimulateInterviews {
		log.Info("interview simulation enabled, using canned answers")
		return voice.NewSimulatedInterviewer(), nil
	}

	aiClient, err := gemini.NewClient(ctx, cfg.LLM.APIKey, gemini.Model15Flash)
	if err != nil {
		return nil, err
	}
	aiClient.SetMinuteRateLimit(cfg.LLM.MaxRequestsPerMinute)
	aiClient.SetDayRateLimit(cfg.LLM.MaxRequestsPerDay)
	aiClient.SetSystemInstruction("You are a candidate on a phone screening call. " +
		"Answer naturally and concisely, as plain spoken text.")
	return voice.NewLLMInterviewer(aiClient), nil
}
