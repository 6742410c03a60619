// Package dedupe is the entry point to contact entity resolution. A Service
// owns one session of rules, pending matches and merge history, and wires the
// finder, merge engine and event emitter around it.
package dedupe

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"

	clovererrors "github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/matching"
	"github.com/Ramsey-B/clover/pkg/merging"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/session"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Config contains configuration for the dedupe service
type Config struct {
	DefaultThreshold float64
	BulkTimeout      time.Duration // 0 means no deadline
	DefaultMergedBy  string
	Finder           matching.FinderConfig
}

// DefaultConfig returns default service configuration
func DefaultConfig() Config {
	return Config{
		DefaultThreshold: matching.DefaultThreshold,
		DefaultMergedBy:  merging.DefaultMergedBy,
		Finder:           matching.DefaultFinderConfig(),
	}
}

// Service is safe for concurrent use
type Service struct {
	logger  ectologger.Logger
	config  Config
	store   *session.Store
	finder  *matching.Finder
	merger  *merging.Engine
	emitter *events.Emitter
}

// NewService creates a service with a fresh session seeded with the default
// rules. emitter may be nil.
func NewService(logger ectologger.Logger, config Config, emitter *events.Emitter) *Service {
	if config.DefaultMergedBy == "" {
		config.DefaultMergedBy = merging.DefaultMergedBy
	}

	store := session.NewStore()

	return &Service{
		logger:  logger,
		config:  config,
		store:   store,
		finder:  matching.NewFinder(logger, matching.NewPairScorer(matching.NewEvaluator()), config.Finder),
		merger:  merging.NewEngine(logger, store),
		emitter: emitter,
	}
}

// DefaultThreshold returns the threshold used when a caller has none
func (s *Service) DefaultThreshold() float64 {
	return s.config.DefaultThreshold
}

// ConfigureRule adds a rule, or replaces the rule with the same id
func (s *Service) ConfigureRule(ctx context.Context, rule models.DeduplicationRule) (models.DeduplicationRule, error) {
	ctx, span := tracing.StartSpan(ctx, "dedupe.Service.ConfigureRule")
	defer span.End()

	configured, err := s.store.ConfigureRule(rule)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("Rejected rule configuration")
		return models.DeduplicationRule{}, err
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"rule_id":    configured.ID,
		"field":      configured.Field,
		"match_type": configured.MatchType,
	}).Info("Configured rule")

	return configured, nil
}

// ListRules returns every configured rule
func (s *Service) ListRules(ctx context.Context) []models.DeduplicationRule {
	return s.store.ListRules()
}

// UpdateRule patches an existing rule
func (s *Service) UpdateRule(ctx context.Context, id string, patch models.RulePatch) (models.DeduplicationRule, error) {
	ctx, span := tracing.StartSpan(ctx, "dedupe.Service.UpdateRule")
	defer span.End()

	updated, err := s.store.UpdateRule(id, patch)
	if err != nil {
		return models.DeduplicationRule{}, err
	}

	s.logger.WithContext(ctx).WithField("rule_id", id).Info("Updated rule")
	return updated, nil
}

// FindDuplicates ranks the candidates that look like contact
func (s *Service) FindDuplicates(ctx context.Context, contact models.Contact, candidates []models.Contact, threshold float64) *models.MatchRun {
	ctx, span := tracing.StartSpan(ctx, "dedupe.Service.FindDuplicates")
	defer span.End()

	return s.finder.FindDuplicates(ctx, contact, candidates, s.store.ActiveRules(), threshold)
}

// RunBulkDeduplication scores every pair in contacts and stores the result as
// the pending matches. A non-positive timeout falls back to the configured bulk
// timeout. A run that started before another run, or before a reset, does not
// overwrite the newer pending matches; its result is still returned.
func (s *Service) RunBulkDeduplication(ctx context.Context, contacts []models.Contact, threshold float64, timeout time.Duration) *models.MatchRun {
	ctx, span := tracing.StartSpan(ctx, "dedupe.Service.RunBulkDeduplication")
	defer span.End()

	if timeout <= 0 {
		timeout = s.config.BulkTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	seq := s.store.BeginRun()
	rules := s.store.ActiveRules()

	run := s.finder.RunBulk(ctx, contacts, rules, threshold)

	if !s.store.ReplacePending(seq, run) {
		s.logger.WithContext(ctx).WithField("run_id", run.RunID).Warn("Newer run already stored pending matches; keeping them")
	}

	s.emitter.EmitRunCompleted(context.WithoutCancel(ctx), run)
	return run
}

// GetPendingMatches returns the pending matches, optionally for one confidence tier
func (s *Service) GetPendingMatches(ctx context.Context, confidence *models.Confidence) []models.DuplicateMatch {
	return s.store.PendingMatches(confidence)
}

// ResolveMatch removes the pair from the pending matches. The action is
// recorded on the emitted event; merging is a separate MergeContacts call.
func (s *Service) ResolveMatch(ctx context.Context, id1, id2 string, action models.ResolveAction) (models.DuplicateMatch, error) {
	ctx, span := tracing.StartSpan(ctx, "dedupe.Service.ResolveMatch")
	defer span.End()

	if !action.IsValid() {
		return models.DuplicateMatch{}, clovererrors.NewConfigurationErrorf("action", "unknown resolve action %q", action)
	}

	match, err := s.store.ResolvePending(id1, id2)
	if err != nil {
		return models.DuplicateMatch{}, err
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"contact_id_1": match.ContactID1,
		"contact_id_2": match.ContactID2,
		"action":       action,
	}).Info("Resolved pending match")

	s.emitter.EmitMatchResolved(ctx, match, action)
	return match, nil
}

// MergeContacts merges the duplicates into the master and records the result
func (s *Service) MergeContacts(ctx context.Context, req models.MergeRequest) (*models.MergeResult, error) {
	ctx, span := tracing.StartSpan(ctx, "dedupe.Service.MergeContacts")
	defer span.End()

	if req.MergedBy == "" {
		req.MergedBy = s.config.DefaultMergedBy
	}

	result, err := s.merger.Merge(ctx, req)
	if err != nil {
		return nil, err
	}

	s.emitter.EmitContactMerged(ctx, result)
	return result, nil
}

// MergeHistory returns every merge performed in this session, oldest first
func (s *Service) MergeHistory(ctx context.Context) []models.MergeResult {
	return s.store.MergeHistory()
}

// Reset reseeds the default rules and clears pending matches and merge history
func (s *Service) Reset(ctx context.Context) {
	s.store.Reset()
	s.logger.WithContext(ctx).Info("Session reset")
}
