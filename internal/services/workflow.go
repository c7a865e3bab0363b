package services

import (
	"context"

	"github.com/asaskevich/EventBus"
	log "github.com/sirupsen/logrus"
	"github.com/zecpath/evaluation-engine/internal/apperrors"
	"github.com/zecpath/evaluation-engine/internal/entities"
	"github.com/zecpath/evaluation-engine/internal/events"
	"github.com/zecpath/evaluation-engine/internal/logger"
)

// validTransitions is the full allow-list of the application state machine;
// rejected and selected have no outgoing edges.
var validTransitions = map[entities.ApplicationStatus][]entities.ApplicationStatus{
	entities.ApplicationPending:            {entities.ApplicationShortlisted, entities.ApplicationRejected},
	entities.ApplicationShortlisted:        {entities.ApplicationInterviewScheduled, entities.ApplicationRejected},
	entities.ApplicationInterviewScheduled: {entities.ApplicationReviewed, entities.ApplicationRejected},
	entities.ApplicationReviewed:           {entities.ApplicationAccepted, entities.ApplicationRejected, entities.ApplicationSelected},
	entities.ApplicationAccepted:           {entities.ApplicationSelected},
	entities.ApplicationRejected:           {},
	entities.ApplicationSelected:           {},
}

type workflowRepository interface {
	GetByID(ctx context.Context, id int64) (*entities.Application, error)
	UpdateStatus(ctx context.Context, id int64, status entities.ApplicationStatus) error
	AddStatusHistory(ctx context.Context, record entities.ApplicationStatusHistory) error
	GetStatusHistory(ctx context.Context, applicationID int64) ([]entities.ApplicationStatusHistory, error)
}

// WorkflowService validates and applies application status transitions and
// keeps the immutable audit trail behind the report timeline.
type WorkflowService struct {
	applications workflowRepository
	bus          EventBus.Bus
	clock        Clock
}

func NewWorkflowService(applications workflowRepository, bus EventBus.Bus, clock Clock) *WorkflowService {
	return &WorkflowService{applications: applications, bus: bus, clock: clock}
}

func ValidateTransition(from, to entities.ApplicationStatus) error {
	allowed, known := validTransitions[from]
	if !known {
		return apperrors.NewInvalidTransition(string(from), string(to))
	}
	for _, status := range allowed {
		if status == to {
			return nil
		}
	}
	return apperrors.NewInvalidTransition(string(from), string(to))
}

func AllowedTransitions(from entities.ApplicationStatus) []entities.ApplicationStatus {
	return validTransitions[from]
}

// Transition moves the application to the target status, appends the history
// record and publishes the shortlist event when applicable.
func (w *WorkflowService) Transition(ctx context.Context, applicationID int64,
	to entities.ApplicationStatus, actor string, notes string) error {

	application, err := w.applications.GetByID(ctx, applicationID)
	if err != nil {
		return err
	}

	if err = ValidateTransition(application.Status, to); err != nil {
		return err
	}

	if err = w.applications.UpdateStatus(ctx, applicationID, to); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
			Errorf("failed to update application %v status: %v", applicationID, err)
		return err
	}

	record := entities.ApplicationStatusHistory{
		ApplicationID: applicationID,
		OldStatus:     application.Status,
		NewStatus:     to,
		ChangedBy:     actor,
		Notes:         notes,
		ChangedAt:     w.clock.Now(),
	}
	if err = w.applications.AddStatusHistory(ctx, record); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
			Errorf("failed to append status history for application %v: %v", applicationID, err)
		return err
	}

	log.Infof("application %v moved from %v to %v by %v", applicationID, application.Status, to, actor)

	if w.bus != nil && to == entities.ApplicationShortlisted {
		w.bus.Publish(events.ApplicationShortlistedTopic, events.ApplicationShortlisted{
			ApplicationID: applicationID,
			Reason:        entities.TriggerAuto,
			Actor:         actor,
		})
	}

	return nil
}

func (w *WorkflowService) History(ctx context.Context, applicationID int64) ([]entities.ApplicationStatusHistory, error) {
	return w.applications.GetStatusHistory(ctx, applicationID)
}
