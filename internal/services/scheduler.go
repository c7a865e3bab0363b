package services

import (
	"context"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
	"github.com/zecpath/evaluation-engine/internal/apperrors"
	"github.com/zecpath/evaluation-engine/internal/config"
	"github.com/zecpath/evaluation-engine/internal/entities"
	"github.com/zecpath/evaluation-engine/internal/events"
)

const (
	defaultWindowStart = 9 * 60  // 09:00, minutes from midnight
	defaultWindowEnd   = 18 * 60 // 18:00
)

const (
	ConfirmerEmployer  = "employer"
	ConfirmerCandidate = "candidate"
)

type schedulerApplications interface {
	GetByID(ctx context.Context, id int64) (*entities.Application, error)
	GetCandidate(ctx context.Context, candidateID int64) (*entities.Candidate, error)
}

type schedulerJobs interface {
	GetByID(ctx context.Context, id int64) (*entities.Job, error)
}

type scheduleRepository interface {
	Create(ctx context.Context, schedule *entities.InterviewSchedule) error
	GetByID(ctx context.Context, id int64) (*entities.InterviewSchedule, error)
	Update(ctx context.Context, schedule *entities.InterviewSchedule) error
	HasConflictForUser(ctx context.Context, userID int64, from, to time.Time) (bool, error)
	GetActiveSlots(ctx context.Context, userID int64) ([]entities.AvailabilitySlot, error)
}

// InterviewScheduler computes mutually available slots and drives the
// schedule confirmation lifecycle.
type InterviewScheduler struct {
	applications schedulerApplications
	jobs         schedulerJobs
	schedules    scheduleRepository
	workflow     *WorkflowService
	bus          EventBus.Bus
	cfg          config.EngineConfig
	clock        Clock
	validate     *validator.Validate
}

func NewInterviewScheduler(applications schedulerApplications, jobs schedulerJobs,
	schedules scheduleRepository, workflow *WorkflowService, bus EventBus.Bus,
	cfg config.EngineConfig, clock Clock) *InterviewScheduler {
	return &InterviewScheduler{
		applications: applications,
		jobs:         jobs,
		schedules:    schedules,
		workflow:     workflow,
		bus:          bus,
		cfg:          cfg,
		clock:        clock,
		validate:     validator.New(),
	}
}

type ScheduleRequest struct {
	ApplicationID int64 `validate:"required,gt=0"`
	InterviewDate *time.Time
	AutoSchedule  bool
}

// FindAvailableSlots walks the next daysAhead calendar days, intersects both
// parties' weekly windows and emits conflict-free slot start times in
// chronological order.
func (s *InterviewScheduler) FindAvailableSlots(ctx context.Context, applicationID int64,
	daysAhead, maxSlots int) ([]time.Time, error) {

	employerID, candidateUserID, err := s.resolveParties(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	employerSlots, err := s.slotsOrDefault(ctx, employerID)
	if err != nil {
		return nil, err
	}
	candidateSlots, err := s.slotsOrDefault(ctx, candidateUserID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	startDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	step := time.Duration(s.cfg.SlotDurationMinutes+s.cfg.SlotBufferMinutes) * time.Minute
	duration := time.Duration(s.cfg.SlotDurationMinutes) * time.Minute

	var available []time.Time

	for dayOffset := 0; dayOffset < daysAhead; dayOffset++ {
		date := startDate.AddDate(0, 0, dayOffset)
		dayOfWeek := mondayIndexed(date.Weekday())

		for _, employerSlot := range slotsForDay(employerSlots, dayOfWeek) {
			for _, candidateSlot := range slotsForDay(candidateSlots, dayOfWeek) {

				overlapStart := max(employerSlot.Start, candidateSlot.Start)
				overlapEnd := min(employerSlot.End, candidateSlot.End)
				if overlapStart >= overlapEnd {
					continue
				}

				current := date.Add(time.Duration(overlapStart) * time.Minute)
				windowEnd := date.Add(time.Duration(overlapEnd) * time.Minute)

				for !current.Add(duration).After(windowEnd) {
					if current.After(now) {
						conflict, err := s.hasConflict(ctx, employerID, candidateUserID, current)
						if err != nil {
							return nil, err
						}
						if !conflict {
							available = append(available, current)
							if len(available) >= maxSlots {
								return available, nil
							}
						}
					}
					current = current.Add(step)
				}
			}
		}
	}

	return available, nil
}

// ScheduleInterview creates a pending schedule and advances the application
// to interview_scheduled.
func (s *InterviewScheduler) ScheduleInterview(ctx context.Context, request ScheduleRequest) (*entities.InterviewSchedule, error) {

	if err := s.validate.Struct(request); err != nil {
		return nil, apperrors.NewValidation("invalid schedule request: %v", err)
	}

	interviewDate := request.InterviewDate

	if request.AutoSchedule && interviewDate == nil {
		slots, err := s.FindAvailableSlots(ctx, request.ApplicationID, 7, 1)
		if err != nil {
			return nil, err
		}
		if len(slots) == 0 {
			return nil, apperrors.NewConflict("no available slots found for application %d", request.ApplicationID)
		}
		interviewDate = &slots[0]
	}

	if interviewDate == nil {
		return nil, apperrors.NewValidation("interview date required")
	}

	if interviewDate.Before(s.clock.Now()) {
		return nil, apperrors.NewValidation("interview date must be in the future")
	}

	schedule := &entities.InterviewSchedule{
		ApplicationID:   request.ApplicationID,
		InterviewDate:   *interviewDate,
		DurationMinutes: s.cfg.SlotDurationMinutes,
		Status:          entities.SchedulePending,
		MaxReschedules:  s.cfg.MaxReschedules,
	}
	if err := s.schedules.Create(ctx, schedule); err != nil {
		return nil, err
	}

	err := s.workflow.Transition(ctx, request.ApplicationID,
		entities.ApplicationInterviewScheduled, "scheduler", "interview scheduled")
	if err != nil {
		return nil, err
	}

	s.publishChange(schedule)
	log.Infof("interview scheduled for application %v at %v", request.ApplicationID, interviewDate)
	return schedule, nil
}

// Confirm is idempotent per party; the schedule turns confirmed once both
// flags are set, regardless of order.
func (s *InterviewScheduler) Confirm(ctx context.Context, scheduleID int64, party string) (*entities.InterviewSchedule, error) {

	schedule, err := s.schedules.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	switch party {
	case ConfirmerEmployer:
		schedule.EmployerConfirmed = true
	case ConfirmerCandidate:
		schedule.CandidateConfirmed = true
	default:
		return nil, apperrors.NewValidation("unknown confirming party %q", party)
	}

	if schedule.IsConfirmed() && schedule.Status == entities.SchedulePending {
		schedule.Status = entities.ScheduleConfirmed
	}

	if err = s.schedules.Update(ctx, schedule); err != nil {
		return nil, err
	}

	s.publishChange(schedule)
	return schedule, nil
}

// Reschedule retires the current schedule and creates its successor with the
// counter carried forward.
func (s *InterviewScheduler) Reschedule(ctx context.Context, scheduleID int64, newDate time.Time) (*entities.InterviewSchedule, error) {

	schedule, err := s.schedules.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	if !schedule.CanReschedule() {
		return nil, apperrors.NewConflict("maximum reschedule limit reached for schedule %d", scheduleID)
	}

	if newDate.Before(s.clock.Now()) {
		return nil, apperrors.NewValidation("new date must be in the future")
	}

	employerID, candidateUserID, err := s.resolveParties(ctx, schedule.ApplicationID)
	if err != nil {
		return nil, err
	}

	conflict, err := s.hasConflict(ctx, employerID, candidateUserID, newDate)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, apperrors.NewConflict("time slot has conflicts")
	}

	successor := &entities.InterviewSchedule{
		ApplicationID:      schedule.ApplicationID,
		InterviewDate:      newDate,
		DurationMinutes:    schedule.DurationMinutes,
		Status:             entities.SchedulePending,
		RescheduleCount:    schedule.RescheduleCount + 1,
		MaxReschedules:     schedule.MaxReschedules,
		PreviousScheduleID: &schedule.ID,
	}
	if err = s.schedules.Create(ctx, successor); err != nil {
		return nil, err
	}

	schedule.Status = entities.ScheduleRescheduled
	if err = s.schedules.Update(ctx, schedule); err != nil {
		return nil, err
	}

	s.publishChange(schedule)
	s.publishChange(successor)
	log.Infof("schedule %v rescheduled to %v (reschedule %v of %v)",
		scheduleID, newDate, successor.RescheduleCount, successor.MaxReschedules)
	return successor, nil
}

// Decline moves any non-terminal schedule to declined.
func (s *InterviewScheduler) Decline(ctx context.Context, scheduleID int64) (*entities.InterviewSchedule, error) {

	schedule, err := s.schedules.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	if schedule.IsTerminal() {
		return nil, apperrors.NewConflict("schedule %d is already %s", scheduleID, schedule.Status)
	}

	schedule.Status = entities.ScheduleDeclined
	if err = s.schedules.Update(ctx, schedule); err != nil {
		return nil, err
	}

	s.publishChange(schedule)
	return schedule, nil
}

func (s *InterviewScheduler) resolveParties(ctx context.Context, applicationID int64) (int64, int64, error) {

	application, err := s.applications.GetByID(ctx, applicationID)
	if err != nil {
		return 0, 0, err
	}

	job, err := s.jobs.GetByID(ctx, application.JobID)
	if err != nil {
		return 0, 0, err
	}

	candidate, err := s.applications.GetCandidate(ctx, application.CandidateID)
	if err != nil {
		return 0, 0, err
	}

	return job.EmployerID, candidate.UserID, nil
}

func (s *InterviewScheduler) slotsOrDefault(ctx context.Context, userID int64) ([]entities.AvailabilitySlot, error) {

	slots, err := s.schedules.GetActiveSlots(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(slots) > 0 {
		return slots, nil
	}

	defaults := make([]entities.AvailabilitySlot, 0, 5)
	for day := 0; day < 5; day++ {
		defaults = append(defaults, entities.AvailabilitySlot{
			UserID:    userID,
			DayOfWeek: day,
			Start:     defaultWindowStart,
			End:       defaultWindowEnd,
			IsActive:  true,
		})
	}
	return defaults, nil
}

// hasConflict checks both parties against [slot - duration, slot + duration).
func (s *InterviewScheduler) hasConflict(ctx context.Context, employerID, candidateUserID int64,
	slot time.Time) (bool, error) {

	duration := time.Duration(s.cfg.SlotDurationMinutes) * time.Minute
	from := slot.Add(-duration)
	to := slot.Add(duration)

	for _, userID := range []int64{employerID, candidateUserID} {
		conflict, err := s.schedules.HasConflictForUser(ctx, userID, from, to)
		if err != nil {
			return false, err
		}
		if conflict {
			return true, nil
		}
	}
	return false, nil
}

func (s *InterviewScheduler) publishChange(schedule *entities.InterviewSchedule) {
	if s.bus != nil {
		s.bus.Publish(events.ScheduleChangedTopic, events.ScheduleChanged{
			ScheduleID: schedule.ID,
			Status:     schedule.Status,
		})
	}
}

func slotsForDay(slots []entities.AvailabilitySlot, dayOfWeek int) []entities.AvailabilitySlot {
	var filtered []entities.AvailabilitySlot
	for _, slot := range slots {
		if slot.DayOfWeek == dayOfWeek {
			filtered = append(filtered, slot)
		}
	}
	return filtered
}

// mondayIndexed maps Go's Sunday-first weekday onto the Monday-first index
// the availability model stores.
func mondayIndexed(weekday time.Weekday) int {
	return (int(weekday) + 6) % 7
}
