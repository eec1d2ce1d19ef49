package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devshad-01/meteor-push-pwa/internal/errs"
	"github.com/devshad-01/meteor-push-pwa/internal/events"
	"github.com/devshad-01/meteor-push-pwa/internal/models"
	"github.com/devshad-01/meteor-push-pwa/internal/push"
	"github.com/devshad-01/meteor-push-pwa/internal/repositories"
	"github.com/devshad-01/meteor-push-pwa/pkg/logger"
	"github.com/devshad-01/meteor-push-pwa/pkg/metrics"
)

// DispatchConfig tunes the engine.
type DispatchConfig struct {
	// TransportTimeout bounds each push delivery. A timed-out delivery is a
	// transient failure, never a permanent one.
	TransportTimeout time.Duration
	// BroadcastConcurrency caps in-flight deliveries during fan-out.
	BroadcastConcurrency int
}

// DispatchEngine turns a send or broadcast intent into notification records
// and per-endpoint delivery attempts. The notification record always exists
// regardless of push delivery outcome; a permanent transport failure is the
// only send outcome that mutates registry state, by evicting the endpoint.
type DispatchEngine struct {
	endpoints repositories.EndpointRegistry
	store     repositories.NotificationStore
	transport push.Transport
	bus       *events.Bus
	log       *logger.Logger
	metrics   *metrics.Metrics
	cfg       DispatchConfig
}

func NewDispatchEngine(
	endpoints repositories.EndpointRegistry,
	store repositories.NotificationStore,
	transport push.Transport,
	bus *events.Bus,
	log *logger.Logger,
	m *metrics.Metrics,
	cfg DispatchConfig,
) *DispatchEngine {
	if cfg.TransportTimeout <= 0 {
		cfg.TransportTimeout = 10 * time.Second
	}
	if cfg.BroadcastConcurrency <= 0 {
		cfg.BroadcastConcurrency = 16
	}
	return &DispatchEngine{
		endpoints: endpoints,
		store:     store,
		transport: transport,
		bus:       bus,
		log:       log,
		metrics:   m,
		cfg:       cfg,
	}
}

// SendToUser persists the notification for userID and attempts push
// delivery to their endpoint. The record is created even when no endpoint
// exists, so in-app history survives independently of push delivery. The
// returned id is valid whenever it is non-empty, including alongside a
// delivery error.
func (e *DispatchEngine) SendToUser(ctx context.Context, userID string, input models.NotificationInput) (string, error) {
	rec, err := e.createRecord(ctx, userID, models.KindPersonal, input)
	if err != nil {
		return "", err
	}

	ep, err := e.endpoints.Lookup(ctx, userID)
	if errors.Is(err, errs.ErrEndpointNotFound) {
		e.countOutcome(metrics.OutcomeSkipped)
		e.log.WithUserID(userID).Debug("no push endpoint, delivery skipped")
		return rec.ID, nil
	}
	if err != nil {
		e.countOutcome(metrics.OutcomeTransient)
		return rec.ID, fmt.Errorf("lookup endpoint: %w", err)
	}

	if err := e.deliver(ctx, ep, rec, input); err != nil {
		return rec.ID, err
	}
	return rec.ID, nil
}

// Broadcast sends the notification to every user with a registered endpoint
// at call time. Deliveries run concurrently and are fully isolated: one
// recipient's failure never affects the others. Returns the number of
// recipients attempted, not the number delivered.
func (e *DispatchEngine) Broadcast(ctx context.Context, input models.NotificationInput) (int, error) {
	endpoints, err := e.endpoints.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list endpoints: %w", err)
	}

	sem := make(chan struct{}, e.cfg.BroadcastConcurrency)
	var wg sync.WaitGroup
	for _, ep := range endpoints {
		wg.Add(1)
		sem <- struct{}{}
		go func(ep models.Endpoint) {
			defer wg.Done()
			defer func() { <-sem }()
			e.broadcastOne(ctx, ep, input)
		}(ep)
	}
	wg.Wait()

	if e.metrics != nil {
		e.metrics.BroadcastRecipients.Observe(float64(len(endpoints)))
	}
	e.log.WithField("recipients", len(endpoints)).Info("broadcast dispatched")
	return len(endpoints), nil
}

func (e *DispatchEngine) broadcastOne(ctx context.Context, ep models.Endpoint, input models.NotificationInput) {
	var rec *models.NotificationRecord
	if ep.UserID != "" {
		var err error
		rec, err = e.createRecord(ctx, ep.UserID, models.KindBroadcast, input)
		if err != nil {
			e.log.WithUserID(ep.UserID).WithError(err).Error("broadcast: failed to create notification record")
			e.countOutcome(metrics.OutcomeTransient)
			return
		}
	} else {
		// Anonymous endpoint: no owner, no history record, push only. The
		// delivery still needs a concrete payload, so derive one from an
		// unsaved record.
		rec = &models.NotificationRecord{
			ID:       ep.ID,
			Title:    input.Title,
			Body:     input.Body,
			Kind:     models.KindBroadcast,
			Priority: input.Priority,
			Payload:  input.Payload,
			Actions:  input.Actions,
		}
		if rec.Priority == "" {
			rec.Priority = models.PriorityNormal
		}
	}

	if err := e.deliver(ctx, &ep, rec, input); err != nil {
		e.log.WithUserID(ep.UserID).WithError(err).Warn("broadcast: delivery failed")
	}
}

func (e *DispatchEngine) createRecord(ctx context.Context, userID string, kind models.NotificationKind, input models.NotificationInput) (*models.NotificationRecord, error) {
	rec, err := e.store.Create(ctx, userID, kind, input)
	if err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	if e.metrics != nil {
		e.metrics.NotificationsCreated.Inc()
	}
	if e.bus != nil {
		e.bus.Publish(events.Event{
			Kind:           events.NotificationCreated,
			UserID:         userID,
			NotificationID: rec.ID,
		})
	}
	return rec, nil
}

// deliver runs one push attempt with the per-call timeout and applies the
// three-way outcome: nil, permanent (endpoint evicted) or transient.
func (e *DispatchEngine) deliver(ctx context.Context, ep *models.Endpoint, rec *models.NotificationRecord, input models.NotificationInput) error {
	payload := push.NewPayload(rec, input)

	callCtx, cancel := context.WithTimeout(ctx, e.cfg.TransportTimeout)
	defer cancel()

	err := e.transport.Deliver(callCtx, ep.Endpoint, ep.Keys, payload)
	if err == nil {
		e.countOutcome(metrics.OutcomeDelivered)
		e.log.WithFields(logrus.Fields{
			"user_id":         ep.UserID,
			"notification_id": rec.ID,
		}).Debug("push delivered")
		return nil
	}

	if errors.Is(err, errs.ErrEndpointGone) {
		e.evict(ctx, ep)
		e.countOutcome(metrics.OutcomePermanent)
		return fmt.Errorf("permanent delivery failure: %w", err)
	}

	e.countOutcome(metrics.OutcomeTransient)
	return fmt.Errorf("transient delivery failure: %w", err)
}

func (e *DispatchEngine) evict(ctx context.Context, ep *models.Endpoint) {
	if err := e.endpoints.Evict(ctx, ep.ID); err != nil {
		e.log.WithEndpoint(ep.Endpoint).WithError(err).Error("failed to evict dead endpoint")
		return
	}
	if e.metrics != nil {
		e.metrics.EndpointsEvicted.Inc()
	}
	if e.bus != nil {
		e.bus.Publish(events.Event{
			Kind:       events.EndpointEvicted,
			UserID:     ep.UserID,
			EndpointID: ep.ID,
		})
	}
	e.log.WithUserID(ep.UserID).Info("evicted dead endpoint")
}

func (e *DispatchEngine) countOutcome(outcome string) {
	if e.metrics != nil {
		e.metrics.DeliveryAttempts.WithLabelValues(outcome).Inc()
	}
}
