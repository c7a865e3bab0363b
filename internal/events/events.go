package events

import "github.com/zecpath/evaluation-engine/internal/entities"

var (
	ApplicationShortlistedTopic = "ApplicationShortlistedEvent"
	ScheduleChangedTopic        = "ScheduleChangedEvent"
)

// ApplicationShortlisted fires after a transition into the shortlisted
// status; the call trigger listens to enqueue an interview attempt.
type ApplicationShortlisted struct {
	ApplicationID int64
	Reason        entities.TriggerReason
	Actor         string
}

// ScheduleChanged fires when an interview schedule is created, rescheduled,
// confirmed or declined; the reminder service listens to rebuild reminders.
type ScheduleChanged struct {
	ScheduleID int64
	Status     entities.ScheduleStatus
}
