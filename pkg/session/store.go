// Package session holds the mutable state of one deduplication engine:
// configured rules, the current batch of pending matches and the merge history.
package session

import (
	"errors"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	clovererrors "github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Store is safe for concurrent use
type Store struct {
	mu sync.RWMutex

	rules     []models.DeduplicationRule
	ruleIndex map[string]int

	pending    []models.DuplicateMatch
	pendingRun *models.MatchRun
	pendingSeq uint64
	runSeq     uint64

	history []models.MergeResult

	now func() time.Time
}

// NewStore creates a store seeded with the default rules
func NewStore() *Store {
	s := &Store{now: func() time.Time { return time.Now().UTC() }}
	s.Reset()
	return s
}

// Reset reseeds the default rules and clears pending matches and merge history.
// In-flight runs that started before the reset can no longer replace pending matches.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.rules = s.rules[:0]
	s.ruleIndex = make(map[string]int)
	for _, rule := range models.DefaultRules() {
		rule.CreatedAt = now
		rule.UpdatedAt = now
		s.ruleIndex[rule.ID] = len(s.rules)
		s.rules = append(s.rules, rule)
	}

	s.pending = nil
	s.pendingRun = nil
	s.runSeq++
	s.pendingSeq = s.runSeq
	s.history = nil

	metrics.PendingMatches.Set(0)
}

// ConfigureRule validates and upserts a rule. An empty id gets a generated one.
func (s *Store) ConfigureRule(rule models.DeduplicationRule) (models.DeduplicationRule, error) {
	if err := validateRule(rule); err != nil {
		return models.DeduplicationRule{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	if rule.Name == "" {
		rule.Name = rule.ID
	}
	rule.UpdatedAt = now

	if i, ok := s.ruleIndex[rule.ID]; ok {
		rule.CreatedAt = s.rules[i].CreatedAt
		s.rules[i] = rule
		return rule, nil
	}

	rule.CreatedAt = now
	s.ruleIndex[rule.ID] = len(s.rules)
	s.rules = append(s.rules, rule)
	return rule, nil
}

// ListRules returns every rule in configuration order
func (s *Store) ListRules() []models.DeduplicationRule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.rules)
}

// ActiveRules returns a snapshot of the active rules for one scoring run
func (s *Store) ActiveRules() []models.DeduplicationRule {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]models.DeduplicationRule, 0, len(s.rules))
	for _, rule := range s.rules {
		if rule.IsActive {
			active = append(active, rule)
		}
	}
	return active
}

// UpdateRule applies a patch to an existing rule
func (s *Store) UpdateRule(id string, patch models.RulePatch) (models.DeduplicationRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.ruleIndex[id]
	if !ok {
		return models.DeduplicationRule{}, clovererrors.NewNotFoundError("rule", id)
	}

	updated := patch.Apply(s.rules[i])
	if err := validateRule(updated); err != nil {
		return models.DeduplicationRule{}, err
	}
	updated.UpdatedAt = s.now()
	s.rules[i] = updated
	return updated, nil
}

// BeginRun reserves a sequence number for a bulk run. Pass it to ReplacePending.
func (s *Store) BeginRun() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runSeq++
	return s.runSeq
}

// ReplacePending stores run as the current pending batch unless a run that
// began later has already stored its batch. Reports whether run was stored.
func (s *Store) ReplacePending(seq uint64, run *models.MatchRun) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq <= s.pendingSeq {
		return false
	}

	s.pendingSeq = seq
	s.pendingRun = run.Clone()
	s.pending = models.CloneMatches(run.Matches)
	metrics.PendingMatches.Set(float64(len(s.pending)))
	return true
}

// PendingMatches returns the pending matches, optionally limited to one confidence tier
func (s *Store) PendingMatches(confidence *models.Confidence) []models.DuplicateMatch {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]models.DuplicateMatch, 0, len(s.pending))
	for _, m := range s.pending {
		if confidence != nil && m.Confidence != *confidence {
			continue
		}
		matches = append(matches, m.Clone())
	}
	return matches
}

// PendingRun returns the run that produced the current pending batch, if any
func (s *Store) PendingRun() *models.MatchRun {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pendingRun.Clone()
}

// ResolvePending removes the unordered pair (id1, id2) from the pending matches
func (s *Store) ResolvePending(id1, id2 string) (models.DuplicateMatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.pending, func(m models.DuplicateMatch) bool {
		return m.Involves(id1, id2)
	})
	if i < 0 {
		return models.DuplicateMatch{}, clovererrors.NewNotFoundError("pending match", id1+"/"+id2)
	}

	match := s.pending[i]
	s.pending = slices.Delete(s.pending, i, i+1)
	metrics.PendingMatches.Set(float64(len(s.pending)))
	return match, nil
}

// AppendMerge records a completed merge
func (s *Store) AppendMerge(result models.MergeResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, result.Clone())
}

// MergeHistory returns a copy of the merges recorded so far, oldest first
func (s *Store) MergeHistory() []models.MergeResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := make([]models.MergeResult, len(s.history))
	for i, result := range s.history {
		history[i] = result.Clone()
	}
	return history
}

func validateRule(rule models.DeduplicationRule) error {
	if err := validate.Struct(rule); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return clovererrors.NewConfigurationErrorf(fe.Field(), "failed '%s' validation (value: %v)", fe.Tag(), fe.Value())
		}
		return clovererrors.NewConfigurationError("", err.Error())
	}
	return nil
}
