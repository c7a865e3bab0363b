package entities

import "time"

type CallStatus string

const (
	CallQueued     CallStatus = "queued"
	CallInProgress CallStatus = "in_progress"
	CallCompleted  CallStatus = "completed"
	CallFailed     CallStatus = "failed"
)

type TriggerReason string

const (
	TriggerAuto   TriggerReason = "auto"
	TriggerManual TriggerReason = "manual"
)

type CallOutcome string

const (
	OutcomePending           CallOutcome = "pending"
	OutcomeInterested        CallOutcome = "interested"
	OutcomeNotInterested     CallOutcome = "not_interested"
	OutcomeCallbackRequested CallOutcome = "callback_requested"
	OutcomeNoResponse        CallOutcome = "no_response"
)

type CallQueueEntry struct {
	ID            int64
	ApplicationID int64      `gorm:"index"`
	Status        CallStatus `gorm:"default:'queued';index:idx_call_queue_status_scheduled,priority:1"`
	ScheduledAt   time.Time  `gorm:"index:idx_call_queue_status_scheduled,priority:2"`
	StartedAt     *time.Time
	CompletedAt   *time.Time
	RetryCount    int `gorm:"default:0"`
	MaxRetries    int `gorm:"default:3"`
	ErrorMessage  string
	CallDuration  *int

	TriggeredBy         string
	TriggerReason       TriggerReason `gorm:"default:'auto'"`
	CallOutcome         CallOutcome   `gorm:"default:'pending'"`
	ConversationSummary string
	SentimentScore      *float64

	CreatedAt time.Time
}
