package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/Ramsey-B/clover/pkg/models"
)

// EventType defines the type of event
type EventType string

const (
	EventTypeRunCompleted  EventType = "dedupe.run.completed"
	EventTypeMatchResolved EventType = "match.resolved"
	EventTypeContactMerged EventType = "contact.merged"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID       string    `json:"event_id"`
	EventType     EventType `json:"event_type"`
	SchemaVersion string    `json:"schema_version"`
	Timestamp     time.Time `json:"timestamp"`
	TraceID       string    `json:"trace_id,omitempty"`
}

// RunCompletedEvent is emitted when a bulk deduplication run finishes
type RunCompletedEvent struct {
	BaseEvent
	RunID          string              `json:"run_id"`
	Mode           models.MatchRunMode `json:"mode"`
	Threshold      float64             `json:"threshold"`
	MatchCount     int                 `json:"match_count"`
	Truncated      bool                `json:"truncated"`
	PairsEvaluated int                 `json:"pairs_evaluated"`
	PairsTotal     int                 `json:"pairs_total"`
}

// MatchResolvedEvent is emitted when an operator resolves a pending match
type MatchResolvedEvent struct {
	BaseEvent
	ContactID1 string               `json:"contact_id_1"`
	ContactID2 string               `json:"contact_id_2"`
	Action     models.ResolveAction `json:"action"`
	Confidence models.Confidence    `json:"confidence"`
	Score      float64              `json:"score"`
}

// ContactMergedEvent is emitted after duplicates are merged into a master
type ContactMergedEvent struct {
	BaseEvent
	MergeID       string               `json:"merge_id"`
	MasterID      string               `json:"master_id"`
	MergedIDs     []string             `json:"merged_ids"`
	FieldsMerged  []string             `json:"fields_merged"`
	ConflictCount int                  `json:"conflict_count"`
	Strategy      models.MergeStrategy `json:"strategy"`
	MergedBy      string               `json:"merged_by"`
}

// NewBaseEvent creates a base event with common fields
func NewBaseEvent(eventType EventType, traceID string) BaseEvent {
	return BaseEvent{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		SchemaVersion: SchemaVersion,
		Timestamp:     time.Now().UTC(),
		TraceID:       traceID,
	}
}
