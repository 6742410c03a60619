package models

import (
	"maps"
	"slices"
	"time"
)

// MergeStrategy defines how field conflicts are resolved during a merge
type MergeStrategy string

const (
	MergeStrategyKeepMaster       MergeStrategy = "keep_master"
	MergeStrategyKeepNewest       MergeStrategy = "keep_newest"
	MergeStrategyKeepMostComplete MergeStrategy = "keep_most_complete"
)

// IsValid reports whether s is an accepted merge strategy
func (s MergeStrategy) IsValid() bool {
	switch s {
	case MergeStrategyKeepMaster, MergeStrategyKeepNewest, MergeStrategyKeepMostComplete:
		return true
	}
	return false
}

// ConflictResolution describes what happened to a conflicting field
type ConflictResolution string

const (
	ConflictResolutionKeptMaster   ConflictResolution = "kept_master"
	ConflictResolutionAutoResolved ConflictResolution = "auto_resolved"
)

// MergeExcludedFields are never copied between records during a merge
var MergeExcludedFields = map[string]bool{
	ContactIDField: true,
	"created_at":   true,
	"updated_at":   true,
}

// MergeConflict represents a field where master and duplicates disagree
type MergeConflict struct {
	Field           string             `json:"field" yaml:"field"`
	MasterValue     string             `json:"master_value" yaml:"master_value"`
	DuplicateValues []string           `json:"duplicate_values" yaml:"duplicate_values"`
	Resolution      ConflictResolution `json:"resolution" yaml:"resolution"`
}

// MergeRequest is the input to a merge of duplicates into a master contact
type MergeRequest struct {
	MasterID     string             `json:"master_id" validate:"required"`
	DuplicateIDs []string           `json:"duplicate_ids" validate:"required,min=1,dive,required"`
	Contacts     map[string]Contact `json:"contacts" validate:"required"`
	Strategy     MergeStrategy      `json:"strategy"`
	MergedBy     string             `json:"merged_by"`
}

// MergeResult is the immutable record of a completed merge
type MergeResult struct {
	ID           string            `json:"id" yaml:"id"`
	MasterID     string            `json:"master_id" yaml:"master_id"`
	MergedIDs    []string          `json:"merged_ids" yaml:"merged_ids"`
	FieldsMerged map[string]string `json:"fields_merged" yaml:"fields_merged"`
	Conflicts    []MergeConflict   `json:"conflicts" yaml:"conflicts"`
	MergedRecord Contact           `json:"merged_record" yaml:"merged_record"`
	Strategy     MergeStrategy     `json:"strategy" yaml:"strategy"`
	MergedAt     time.Time         `json:"merged_at" yaml:"merged_at"`
	MergedBy     string            `json:"merged_by" yaml:"merged_by"`
}

// Clone returns a deep copy of the merge result
func (r MergeResult) Clone() MergeResult {
	r.MergedIDs = slices.Clone(r.MergedIDs)
	r.FieldsMerged = maps.Clone(r.FieldsMerged)
	r.MergedRecord = maps.Clone(r.MergedRecord)
	if r.Conflicts != nil {
		conflicts := make([]MergeConflict, len(r.Conflicts))
		for i, c := range r.Conflicts {
			c.DuplicateValues = slices.Clone(c.DuplicateValues)
			conflicts[i] = c
		}
		r.Conflicts = conflicts
	}
	return r
}
