package merging

import (
	"github.com/Ramsey-B/clover/pkg/models"
)

// FieldMerger handles field-level merge logic
type FieldMerger struct{}

// NewFieldMerger creates a new FieldMerger
func NewFieldMerger() *FieldMerger {
	return &FieldMerger{}
}

// MergeField folds the duplicates' values for one field into the master.
//
// When the master has a value, every differing non-empty duplicate value is
// reported as a conflict and the master value is kept. When the master is
// empty, the first non-empty duplicate value is returned as the fill value.
func (m *FieldMerger) MergeField(
	field string,
	masterValue string,
	duplicateValues []string,
	strategy models.MergeStrategy,
) (fill string, filled bool, conflict *models.MergeConflict) {
	if !models.IsEmptyValue(masterValue) {
		return "", false, m.detectConflict(field, masterValue, duplicateValues, strategy)
	}

	fill, filled = preferNonEmpty(duplicateValues)
	return fill, filled, nil
}

// detectConflict returns the conflict between master and duplicates, or nil if they agree
func (m *FieldMerger) detectConflict(
	field string,
	masterValue string,
	duplicateValues []string,
	strategy models.MergeStrategy,
) *models.MergeConflict {
	differing := make([]string, 0, len(duplicateValues))
	for _, v := range duplicateValues {
		if models.IsEmptyValue(v) || v == masterValue {
			continue
		}
		differing = append(differing, v)
	}

	if len(differing) == 0 {
		return nil
	}

	return &models.MergeConflict{
		Field:           field,
		MasterValue:     masterValue,
		DuplicateValues: differing,
		Resolution:      resolutionFor(strategy),
	}
}

// resolutionFor labels a conflict. Only keep_master is applied; the other
// strategies leave the master value in place and are reported as auto_resolved.
func resolutionFor(strategy models.MergeStrategy) models.ConflictResolution {
	if strategy == models.MergeStrategyKeepMaster {
		return models.ConflictResolutionKeptMaster
	}
	return models.ConflictResolutionAutoResolved
}

// preferNonEmpty returns the first non-empty value
func preferNonEmpty(values []string) (string, bool) {
	for _, v := range values {
		if !models.IsEmptyValue(v) {
			return v, true
		}
	}
	return "", false
}
