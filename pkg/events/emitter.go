// Package events publishes card lifecycle changes and ingests navigation
// streams.
package events

import (
	"context"
	"strconv"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Emitter publishes card lifecycle events. Emission failures are logged and
// swallowed: the card write already committed and must not be rolled back by a
// broker outage.
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new card event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitCardCreated emits a card.created event
func (e *Emitter) EmitCardCreated(ctx context.Context, card *models.CardView) {
	e.emit(ctx, EventTypeCardCreated, card.ProjectID, card.MetricID, card.UserID, card)
}

// EmitCardUpdated emits a card.updated event
func (e *Emitter) EmitCardUpdated(ctx context.Context, card *models.CardView) {
	e.emit(ctx, EventTypeCardUpdated, card.ProjectID, card.MetricID, card.UserID, card)
}

// EmitCardDeleted emits a card.deleted event
func (e *Emitter) EmitCardDeleted(ctx context.Context, projectID, metricID, userID int64) {
	e.emit(ctx, EventTypeCardDeleted, projectID, metricID, userID, nil)
}

func (e *Emitter) emit(ctx context.Context, eventType EventType, projectID, metricID, userID int64, card *models.CardView) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.emit")
	defer span.End()

	if e.producer == nil {
		return
	}

	event := &CardEvent{
		EventType:     eventType,
		SchemaVersion: SchemaVersion,
		ProjectID:     projectID,
		MetricID:      metricID,
		UserID:        userID,
		Timestamp:     time.Now().UTC(),
	}
	if card != nil {
		event.MetricType = string(card.MetricType)
		event.Name = card.Name
		event.IsPublic = card.IsPublic
	}

	key := strconv.FormatInt(projectID, 10) + ":" + strconv.FormatInt(metricID, 10)
	if err := e.producer.Publish(ctx, key, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"event_type": eventType,
			"metric_id":  metricID,
		}).Error("failed to emit card event")
		return
	}

	metrics.CardEventsEmitted.WithLabelValues(string(eventType)).Inc()
}
