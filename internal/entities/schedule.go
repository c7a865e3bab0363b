package entities

import "time"

type ScheduleStatus string

const (
	SchedulePending     ScheduleStatus = "pending"
	ScheduleConfirmed   ScheduleStatus = "confirmed"
	ScheduleDeclined    ScheduleStatus = "declined"
	ScheduleRescheduled ScheduleStatus = "rescheduled"
	ScheduleCompleted   ScheduleStatus = "completed"
	ScheduleCancelled   ScheduleStatus = "cancelled"
)

type InterviewSchedule struct {
	ID              int64
	ApplicationID   int64          `gorm:"index"`
	InterviewDate   time.Time      `gorm:"index"`
	DurationMinutes int            `gorm:"default:30"`
	Status          ScheduleStatus `gorm:"default:'pending';index"`

	EmployerConfirmed  bool `gorm:"default:false"`
	CandidateConfirmed bool `gorm:"default:false"`

	MeetingLink     string
	MeetingLocation string
	Notes           string

	RescheduleCount    int `gorm:"default:0"`
	MaxReschedules     int `gorm:"default:2"`
	PreviousScheduleID *int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s *InterviewSchedule) IsConfirmed() bool {
	return s.EmployerConfirmed && s.CandidateConfirmed
}

func (s *InterviewSchedule) CanReschedule() bool {
	return s.RescheduleCount < s.MaxReschedules
}

func (s *InterviewSchedule) IsTerminal() bool {
	return s.Status == ScheduleDeclined || s.Status == ScheduleCompleted || s.Status == ScheduleCancelled
}

// AvailabilitySlot is a recurring weekly window; day 0 is Monday.
// Start and End are minutes from midnight.
type AvailabilitySlot struct {
	ID        int64
	UserID    int64 `gorm:"index:idx_availability_user_day,priority:1"`
	DayOfWeek int   `gorm:"index:idx_availability_user_day,priority:2"`
	Start     int
	End       int
	IsActive  bool `gorm:"default:true"`
}

type ReminderType string

const (
	Reminder24h   ReminderType = "24h"
	Reminder2h    ReminderType = "2h"
	Reminder30min ReminderType = "30min"
)

type ReminderStatus string

const (
	ReminderPending ReminderStatus = "pending"
	ReminderSent    ReminderStatus = "sent"
	ReminderFailed  ReminderStatus = "failed"
)

type InterviewReminder struct {
	ID           int64
	ScheduleID   int64          `gorm:"uniqueIndex:idx_reminders_schedule_type,priority:1"`
	ReminderType ReminderType   `gorm:"uniqueIndex:idx_reminders_schedule_type,priority:2"`
	Status       ReminderStatus `gorm:"default:'pending';index:idx_reminders_status_scheduled,priority:1"`
	ScheduledAt  time.Time      `gorm:"index:idx_reminders_status_scheduled,priority:2"`
	SentAt       *time.Time
	ErrorMessage string
	RetryCount   int `gorm:"default:0"`
	MaxRetries   int `gorm:"default:3"`
	CreatedAt    time.Time
}
