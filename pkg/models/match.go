package models

import (
	"fmt"
	"maps"
	"slices"
	"time"
)

// Confidence is a discrete bucket summarizing a match score
type Confidence string

const (
	ConfidenceExact    Confidence = "exact"
	ConfidenceHigh     Confidence = "high"
	ConfidenceMedium   Confidence = "medium"
	ConfidenceLow      Confidence = "low"
	ConfidencePossible Confidence = "possible"
)

// Rank orders confidences from possible (1) to exact (5); unknown values rank 0
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceExact:
		return 5
	case ConfidenceHigh:
		return 4
	case ConfidenceMedium:
		return 3
	case ConfidenceLow:
		return 2
	case ConfidencePossible:
		return 1
	}
	return 0
}

// ParseConfidence converts a string into a Confidence
func ParseConfidence(s string) (Confidence, error) {
	c := Confidence(s)
	if c.Rank() == 0 {
		return "", fmt.Errorf("unknown confidence %q", s)
	}
	return c, nil
}

// RecommendedAction is the suggested next step for a detected duplicate
type RecommendedAction string

const (
	RecommendedActionMerge  RecommendedAction = "merge"
	RecommendedActionReview RecommendedAction = "review"
	RecommendedActionIgnore RecommendedAction = "ignore"
)

// ResolveAction is an operator's decision on a pending match
type ResolveAction string

const (
	ResolveActionMerge        ResolveAction = "merge"
	ResolveActionNotDuplicate ResolveAction = "not_duplicate"
	ResolveActionSkip         ResolveAction = "skip"
)

// IsValid reports whether a is a supported resolve action
func (a ResolveAction) IsValid() bool {
	switch a {
	case ResolveActionMerge, ResolveActionNotDuplicate, ResolveActionSkip:
		return true
	}
	return false
}

// MatchDetail records how a single rule scored a field
type MatchDetail struct {
	Rule   string    `json:"rule" yaml:"rule"`
	Score  float64   `json:"score" yaml:"score"`
	Values [2]string `json:"values" yaml:"values"`
}

// DuplicateMatch is a scored pair of contacts believed to be the same person
type DuplicateMatch struct {
	ContactID1        string                 `json:"contact_id_1" yaml:"contact_id_1"`
	ContactID2        string                 `json:"contact_id_2" yaml:"contact_id_2"`
	Confidence        Confidence             `json:"confidence" yaml:"confidence"`
	Score             float64                `json:"score" yaml:"score"`
	MatchedFields     []string               `json:"matched_fields" yaml:"matched_fields"`
	MatchDetails      map[string]MatchDetail `json:"match_details" yaml:"match_details"`
	RecommendedAction RecommendedAction      `json:"recommended_action" yaml:"recommended_action"`
	MasterRecordID    *string                `json:"master_record_id" yaml:"master_record_id"`
	DetectedAt        time.Time              `json:"detected_at" yaml:"detected_at"`
}

// Clone returns a deep copy of the match
func (m DuplicateMatch) Clone() DuplicateMatch {
	m.MatchedFields = slices.Clone(m.MatchedFields)
	m.MatchDetails = maps.Clone(m.MatchDetails)
	if m.MasterRecordID != nil {
		id := *m.MasterRecordID
		m.MasterRecordID = &id
	}
	return m
}

// Involves reports whether the match is for the unordered pair (id1, id2)
func (m DuplicateMatch) Involves(id1, id2 string) bool {
	return (m.ContactID1 == id1 && m.ContactID2 == id2) ||
		(m.ContactID1 == id2 && m.ContactID2 == id1)
}

// MatchRunMode identifies which finder entry point produced a run
type MatchRunMode string

const (
	MatchRunModeSingle MatchRunMode = "single"
	MatchRunModeBulk   MatchRunMode = "bulk"
)

// MatchRun is the ranked output of a duplicate search. Truncated is set when
// the run was cancelled before every pair was scored.
type MatchRun struct {
	RunID          string           `json:"run_id" yaml:"run_id"`
	Mode           MatchRunMode     `json:"mode" yaml:"mode"`
	Threshold      float64          `json:"threshold" yaml:"threshold"`
	Matches        []DuplicateMatch `json:"matches" yaml:"matches"`
	Truncated      bool             `json:"truncated" yaml:"truncated"`
	PairsEvaluated int              `json:"pairs_evaluated" yaml:"pairs_evaluated"`
	PairsTotal     int              `json:"pairs_total" yaml:"pairs_total"`
	StartedAt      time.Time        `json:"started_at" yaml:"started_at"`
	CompletedAt    time.Time        `json:"completed_at" yaml:"completed_at"`
}

// Clone returns a deep copy of the run
func (r *MatchRun) Clone() *MatchRun {
	if r == nil {
		return nil
	}
	run := *r
	run.Matches = CloneMatches(r.Matches)
	return &run
}

// CloneMatches deep-copies a slice of matches
func CloneMatches(matches []DuplicateMatch) []DuplicateMatch {
	if matches == nil {
		return nil
	}
	cloned := make([]DuplicateMatch, len(matches))
	for i, m := range matches {
		cloned[i] = m.Clone()
	}
	return cloned
}
