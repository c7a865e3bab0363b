package services

import (
	"context"
	"sync"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"github.com/zecpath/evaluation-engine/internal/apperrors"
	"github.com/zecpath/evaluation-engine/internal/config"
	"github.com/zecpath/evaluation-engine/internal/entities"
	"github.com/zecpath/evaluation-engine/internal/events"
	"github.com/zecpath/evaluation-engine/internal/logger"
)

const dueCallsBatchSize = 50

type dispatcherCallQueue interface {
	GetDue(ctx context.Context, now time.Time, limit int) ([]entities.CallQueueEntry, error)
}

// Dispatcher runs the periodic loops: executing due calls with a bounded
// worker pool, sending due reminders, and picking up shortlisted
// applications for automatic call triggering.
type Dispatcher struct {
	callQueue    dispatcherCallQueue
	orchestrator *CallOrchestrator
	reminders    *ReminderService
	cron         *cron.Cron
	workers      int
	clock        Clock
}

func NewDispatcher(cfg config.EngineConfig, callQueue dispatcherCallQueue,
	orchestrator *CallOrchestrator, reminders *ReminderService,
	bus EventBus.Bus, clock Clock) (*Dispatcher, error) {

	if cfg.DispatchWorkers <= 0 {
		return nil, errors.New("dispatch workers must be greater than zero")
	}

	d := &Dispatcher{
		callQueue:    callQueue,
		orchestrator: orchestrator,
		reminders:    reminders,
		cron:         cron.New(),
		workers:      cfg.DispatchWorkers,
		clock:        clock,
	}

	if _, err := d.cron.AddFunc(cfg.DispatchCronSpec, d.dispatchDueCalls); err != nil {
		return nil, err
	}
	if _, err := d.cron.AddFunc(cfg.ReminderScanCronSpec, d.sendDueReminders); err != nil {
		return nil, err
	}
	if err := bus.SubscribeAsync(events.ApplicationShortlistedTopic, d.onShortlisted, false); err != nil {
		return nil, err
	}

	d.cron.Start()
	log.Infof("dispatcher started with %d workers", d.workers)
	return d, nil
}

func (d *Dispatcher) Stop() {
	<-d.cron.Stop().Done()
}

func (d *Dispatcher) dispatchDueCalls() {

	ctx := context.Background()
	due, err := d.callQueue.GetDue(ctx, d.clock.Now(), dueCallsBatchSize)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
			Errorf("failed to fetch due calls: %v", err)
		return
	}
	if len(due) == 0 {
		return
	}

	entryIDs := make(chan int64, len(due))
	for _, entry := range due {
		entryIDs <- entry.ID
	}
	close(entryIDs)

	var wg sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range entryIDs {
				if err := d.orchestrator.Execute(ctx, id); err != nil {
					log.Errorf("failed to execute call %d: %v", id, err)
				}
			}
		}()
	}
	wg.Wait()
}

func (d *Dispatcher) sendDueReminders() {

	sent, err := d.reminders.SendDue(context.Background())
	if err != nil {
		log.Errorf("failed to send due reminders: %v", err)
		return
	}
	if sent > 0 {
		log.Infof("sent %d interview reminders", sent)
	}
}

func (d *Dispatcher) onShortlisted(event events.ApplicationShortlisted) {

	_, err := d.orchestrator.Trigger(context.Background(), event.ApplicationID,
		entities.TriggerAuto, event.Actor)
	if err != nil {
		if apperrors.IsConflict(err) || apperrors.IsValidation(err) {
			log.Debugf("skipping call trigger for application %d: %v", event.ApplicationID, err)
			return
		}
		log.Errorf("failed to trigger call for application %d: %v", event.ApplicationID, err)
	}
}
