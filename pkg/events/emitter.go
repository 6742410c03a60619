// Package events emits dedupe lifecycle events
package events

import (
	"context"
	"encoding/json"
	"maps"
	"slices"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// Publisher delivers an encoded event. kafka.Producer implements it.
type Publisher interface {
	Publish(ctx context.Context, key, eventType, schemaVersion string, value []byte) error
}

// Emitter publishes events about runs, resolutions and merges. A nil Emitter,
// or one without a publisher, drops every event.
type Emitter struct {
	publisher Publisher
	logger    ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(publisher Publisher, logger ectologger.Logger) *Emitter {
	return &Emitter{
		publisher: publisher,
		logger:    logger,
	}
}

// EmitRunCompleted emits a dedupe.run.completed event
func (e *Emitter) EmitRunCompleted(ctx context.Context, run *models.MatchRun) {
	if !e.enabled() || run == nil {
		return
	}

	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitRunCompleted")
	defer span.End()

	event := RunCompletedEvent{
		BaseEvent:      NewBaseEvent(EventTypeRunCompleted, tracing.GetTraceID(ctx)),
		RunID:          run.RunID,
		Mode:           run.Mode,
		Threshold:      run.Threshold,
		MatchCount:     len(run.Matches),
		Truncated:      run.Truncated,
		PairsEvaluated: run.PairsEvaluated,
		PairsTotal:     run.PairsTotal,
	}

	e.publish(ctx, run.RunID, EventTypeRunCompleted, event)
}

// EmitMatchResolved emits a match.resolved event
func (e *Emitter) EmitMatchResolved(ctx context.Context, match models.DuplicateMatch, action models.ResolveAction) {
	if !e.enabled() {
		return
	}

	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitMatchResolved")
	defer span.End()

	event := MatchResolvedEvent{
		BaseEvent:  NewBaseEvent(EventTypeMatchResolved, tracing.GetTraceID(ctx)),
		ContactID1: match.ContactID1,
		ContactID2: match.ContactID2,
		Action:     action,
		Confidence: match.Confidence,
		Score:      match.Score,
	}

	e.publish(ctx, match.ContactID1, EventTypeMatchResolved, event)
}

// EmitContactMerged emits a contact.merged event
func (e *Emitter) EmitContactMerged(ctx context.Context, result *models.MergeResult) {
	if !e.enabled() || result == nil {
		return
	}

	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitContactMerged")
	defer span.End()

	event := ContactMergedEvent{
		BaseEvent:     NewBaseEvent(EventTypeContactMerged, tracing.GetTraceID(ctx)),
		MergeID:       result.ID,
		MasterID:      result.MasterID,
		MergedIDs:     result.MergedIDs,
		FieldsMerged:  slices.Sorted(maps.Keys(result.FieldsMerged)),
		ConflictCount: len(result.Conflicts),
		Strategy:      result.Strategy,
		MergedBy:      result.MergedBy,
	}

	e.publish(ctx, result.MasterID, EventTypeContactMerged, event)
}

func (e *Emitter) enabled() bool {
	return e != nil && e.publisher != nil
}

// publish never fails the caller; errors are logged and counted
func (e *Emitter) publish(ctx context.Context, key string, eventType EventType, event any) {
	log := e.logger.WithContext(ctx).WithField("event_type", eventType)

	data, err := json.Marshal(event)
	if err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(string(eventType), "error").Inc()
		log.WithError(err).Error("Failed to encode event")
		return
	}

	if err := e.publisher.Publish(ctx, key, string(eventType), SchemaVersion, data); err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(string(eventType), "error").Inc()
		log.WithError(err).Warnf("Failed to emit %s event", eventType)
		return
	}

	metrics.EventsPublishedTotal.WithLabelValues(string(eventType), "success").Inc()
}
