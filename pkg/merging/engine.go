// Package merging folds duplicate contacts into a master record
package merging

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	clovererrors "github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// DefaultMergedBy is recorded when a merge request names no actor
const DefaultMergedBy = "system"

// HistoryRecorder receives every completed merge
type HistoryRecorder interface {
	AppendMerge(result models.MergeResult)
}

// Engine handles contact merging
type Engine struct {
	logger      ectologger.Logger
	history     HistoryRecorder
	fieldMerger *FieldMerger
	now         func() time.Time
}

// NewEngine creates a new merge engine. history may be nil.
func NewEngine(logger ectologger.Logger, history HistoryRecorder) *Engine {
	return &Engine{
		logger:      logger,
		history:     history,
		fieldMerger: NewFieldMerger(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Merge combines the duplicates into the master contact.
//
// Behavior:
//   - fields are the union across all records, minus id/created_at/updated_at
//   - a populated master field that differs from a populated duplicate is a conflict; the master value stays
//   - an empty master field takes the first populated duplicate value, in duplicate_ids order
//
// An empty strategy means keep_master. keep_newest and keep_most_complete are
// accepted but only relabel conflicts as auto_resolved; no value changes.
// Any other strategy is rejected with a ConfigurationError.
//
// The result is appended to the merge history and returned.
func (e *Engine) Merge(ctx context.Context, req models.MergeRequest) (*models.MergeResult, error) {
	ctx, span := tracing.StartSpan(ctx, "merging.Engine.Merge")
	defer span.End()

	strategy := req.Strategy
	if strategy == "" {
		strategy = models.MergeStrategyKeepMaster
	}
	if !strategy.IsValid() {
		return nil, clovererrors.NewConfigurationErrorf("strategy", "unknown merge strategy %q", strategy)
	}

	mergedBy := req.MergedBy
	if mergedBy == "" {
		mergedBy = DefaultMergedBy
	}

	log := e.logger.WithContext(ctx).WithFields(map[string]any{
		"master_id":       req.MasterID,
		"duplicate_count": len(req.DuplicateIDs),
		"strategy":        strategy,
	})

	master, ok := req.Contacts[req.MasterID]
	if !ok {
		return nil, clovererrors.NewNotFoundError("contact", req.MasterID)
	}

	duplicateIDs := make([]string, 0, len(req.DuplicateIDs))
	duplicates := make([]models.Contact, 0, len(req.DuplicateIDs))
	for _, id := range req.DuplicateIDs {
		if id == req.MasterID || slices.Contains(duplicateIDs, id) {
			continue
		}
		dup, ok := req.Contacts[id]
		if !ok {
			return nil, clovererrors.NewNotFoundError("contact", id)
		}
		duplicateIDs = append(duplicateIDs, id)
		duplicates = append(duplicates, dup)
	}

	fields := unionFields(master, duplicates)

	fieldsMerged := make(map[string]string)
	conflicts := make([]models.MergeConflict, 0)
	for _, field := range fields {
		dupValues := make([]string, len(duplicates))
		for i, dup := range duplicates {
			dupValues[i] = dup[field]
		}

		fill, filled, conflict := e.fieldMerger.MergeField(field, master[field], dupValues, strategy)
		if conflict != nil {
			conflicts = append(conflicts, *conflict)
			continue
		}
		if filled {
			fieldsMerged[field] = fill
		}
	}

	record := maps.Clone(master)
	if record == nil {
		record = models.Contact{}
	}
	maps.Copy(record, fieldsMerged)

	result := models.MergeResult{
		ID:           uuid.New().String(),
		MasterID:     req.MasterID,
		MergedIDs:    duplicateIDs,
		FieldsMerged: fieldsMerged,
		Conflicts:    conflicts,
		MergedRecord: record,
		Strategy:     strategy,
		MergedAt:     e.now(),
		MergedBy:     mergedBy,
	}

	if e.history != nil {
		e.history.AppendMerge(result)
	}

	metrics.MergesTotal.WithLabelValues(string(strategy)).Inc()
	metrics.MergeConflictsTotal.Add(float64(len(conflicts)))

	log.WithFields(map[string]any{
		"merge_id":       result.ID,
		"fields_merged":  len(fieldsMerged),
		"conflict_count": len(conflicts),
	}).Info("Merged contacts")

	return &result, nil
}

// unionFields returns the sorted field names present on any record, minus excluded fields
func unionFields(master models.Contact, duplicates []models.Contact) []string {
	seen := make(map[string]bool)
	for field := range master {
		seen[field] = true
	}
	for _, dup := range duplicates {
		for field := range dup {
			seen[field] = true
		}
	}

	fields := make([]string, 0, len(seen))
	for field := range seen {
		if models.MergeExcludedFields[field] {
			continue
		}
		fields = append(fields, field)
	}
	slices.Sort(fields)
	return fields
}
