package services

import (
	"context"
	"fmt"
	"time"

	"github.com/asaskevich/EventBus"
	log "github.com/sirupsen/logrus"
	"github.com/zecpath/evaluation-engine/internal/entities"
	"github.com/zecpath/evaluation-engine/internal/events"
	"github.com/zecpath/evaluation-engine/internal/logger"
	"github.com/zecpath/evaluation-engine/internal/metrics"
)

var reminderStages = map[entities.ReminderType]time.Duration{
	entities.Reminder24h:   24 * time.Hour,
	entities.Reminder2h:    2 * time.Hour,
	entities.Reminder30min: 30 * time.Minute,
}

// Notifier sends a templated message; delivery failures are reported back
// for the retry loop, never retried by the notifier itself.
type Notifier interface {
	Send(ctx context.Context, template string, context map[string]string) error
}

type reminderStore interface {
	CreateIfAbsent(ctx context.Context, reminder *entities.InterviewReminder) (bool, error)
	GetDue(ctx context.Context, now time.Time) ([]entities.InterviewReminder, error)
	MarkSent(ctx context.Context, id int64, sentAt time.Time) error
	MarkFailed(ctx context.Context, id int64, errorMessage string) error
	Requeue(ctx context.Context, id int64, scheduledAt time.Time) error
	CancelForSchedule(ctx context.Context, scheduleID int64, reason string) (int64, error)
}

type reminderScheduleStore interface {
	GetByID(ctx context.Context, id int64) (*entities.InterviewSchedule, error)
}

// ReminderService creates the staged reminders for a schedule and sends the
// due ones. Pending reminders are bulk-cancelled when their schedule leaves
// the pending/confirmed states.
type ReminderService struct {
	reminders  reminderStore
	schedules  reminderScheduleStore
	notifier   Notifier
	maxRetries int
	clock      Clock
}

func NewReminderService(reminders reminderStore, schedules reminderScheduleStore,
	notifier Notifier, maxRetries int, clock Clock) *ReminderService {
	return &ReminderService{
		reminders:  reminders,
		schedules:  schedules,
		notifier:   notifier,
		maxRetries: maxRetries,
		clock:      clock,
	}
}

// Subscribe wires cancellation to schedule lifecycle events.
func (s *ReminderService) Subscribe(bus EventBus.Bus) error {
	return bus.SubscribeAsync(events.ScheduleChangedTopic, s.onScheduleChanged, false)
}

// CreateForSchedule creates the 24h/2h/30min reminders whose send time is
// still in the future. Creation is idempotent per (schedule, type).
func (s *ReminderService) CreateForSchedule(ctx context.Context, schedule *entities.InterviewSchedule) (int, error) {

	now := s.clock.Now()
	created := 0
	for reminderType, lead := range reminderStages {
		sendAt := schedule.InterviewDate.Add(-lead)
		if !sendAt.After(now) {
			continue
		}
		wasCreated, err := s.reminders.CreateIfAbsent(ctx, &entities.InterviewReminder{
			ScheduleID:   schedule.ID,
			ReminderType: reminderType,
			Status:       entities.ReminderPending,
			ScheduledAt:  sendAt,
			MaxRetries:   s.maxRetries,
		})
		if err != nil {
			return created, err
		}
		if wasCreated {
			created++
		}
	}
	return created, nil
}

// SendDue delivers every reminder whose send time has passed. A delivery
// failure requeues the reminder with exponential backoff until its retry
// budget is exhausted.
func (s *ReminderService) SendDue(ctx context.Context) (int, error) {

	due, err := s.reminders.GetDue(ctx, s.clock.Now())
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, reminder := range due {
		delivered, err := s.send(ctx, &reminder)
		if err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeEmailApi).
				Errorf("failed to process reminder %d: %v", reminder.ID, err)
			continue
		}
		if delivered {
			sent++
		}
	}
	return sent, nil
}

func (s *ReminderService) send(ctx context.Context, reminder *entities.InterviewReminder) (bool, error) {

	schedule, err := s.schedules.GetByID(ctx, reminder.ScheduleID)
	if err != nil {
		return false, err
	}

	err = s.notifier.Send(ctx, "interview_reminder", map[string]string{
		"schedule_id":    fmt.Sprint(schedule.ID),
		"interview_date": schedule.InterviewDate.Format(time.RFC3339),
		"reminder_type":  string(reminder.ReminderType),
	})
	if err != nil {
		return false, s.handleSendFailure(ctx, reminder, err)
	}

	if err = s.reminders.MarkSent(ctx, reminder.ID, s.clock.Now()); err != nil {
		return false, err
	}
	metrics.RemindersSentCounter.Inc()
	return true, nil
}

func (s *ReminderService) handleSendFailure(ctx context.Context,
	reminder *entities.InterviewReminder, cause error) error {

	if err := s.reminders.MarkFailed(ctx, reminder.ID, cause.Error()); err != nil {
		return err
	}
	reminder.RetryCount++

	if reminder.RetryCount >= reminder.MaxRetries {
		log.WithField("reminder_id", reminder.ID).Warn("reminder retries exhausted")
		return nil
	}
	return s.reminders.Requeue(ctx, reminder.ID, s.clock.Now().Add(RetryBackoff(reminder.RetryCount)))
}

func (s *ReminderService) onScheduleChanged(event events.ScheduleChanged) {

	if event.Status == entities.SchedulePending || event.Status == entities.ScheduleConfirmed {
		schedule, err := s.schedules.GetByID(context.Background(), event.ScheduleID)
		if err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
				Errorf("failed to load schedule %d for reminders: %v", event.ScheduleID, err)
			return
		}
		if _, err = s.CreateForSchedule(context.Background(), schedule); err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
				Errorf("failed to create reminders for schedule %d: %v", event.ScheduleID, err)
		}
		return
	}

	cancelled, err := s.reminders.CancelForSchedule(context.Background(), event.ScheduleID,
		fmt.Sprintf("schedule moved to %s", event.Status))
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
			Errorf("failed to cancel reminders for schedule %d: %v", event.ScheduleID, err)
		return
	}
	if cancelled > 0 {
		log.Infof("cancelled %d pending reminders for schedule %d", cancelled, event.ScheduleID)
	}
}
