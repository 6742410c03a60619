package matching

import (
	"cmp"
	"context"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// DefaultThreshold is the minimum score a finder keeps when callers have no preference
const DefaultThreshold = 70.0

// FinderConfig contains configuration for the duplicate finder
type FinderConfig struct {
	Workers   int // Pair-scoring goroutines (default: 4)
	ChunkSize int // Pairs handed to a worker at a time (default: 256)
}

// DefaultFinderConfig returns default finder configuration
func DefaultFinderConfig() FinderConfig {
	return FinderConfig{
		Workers:   4,
		ChunkSize: 256,
	}
}

// Finder searches contact sets for duplicate pairs
type Finder struct {
	logger ectologger.Logger
	scorer *PairScorer
	config FinderConfig
}

// NewFinder creates a new duplicate finder
func NewFinder(logger ectologger.Logger, scorer *PairScorer, config FinderConfig) *Finder {
	defaults := DefaultFinderConfig()
	if config.Workers <= 0 {
		config.Workers = defaults.Workers
	}
	if config.ChunkSize <= 0 {
		config.ChunkSize = defaults.ChunkSize
	}
	if scorer == nil {
		scorer = NewPairScorer(nil)
	}

	return &Finder{
		logger: logger,
		scorer: scorer,
		config: config,
	}
}

// pairJob is one unordered pair queued for scoring
type pairJob struct {
	ordinal  int
	a, b     models.Contact
	idA, idB string
}

type scoredPair struct {
	ordinal int
	match   *models.DuplicateMatch
}

// FindDuplicates scores contact against every candidate with a different id.
// An id-less contact is only compared with candidates that have an id.
// If ctx is cancelled the partial result is returned with Truncated set.
func (f *Finder) FindDuplicates(ctx context.Context, contact models.Contact, candidates []models.Contact, rules []models.DeduplicationRule, threshold float64) *models.MatchRun {
	ctx, span := tracing.StartSpan(ctx, "matching.Finder.FindDuplicates")
	defer span.End()

	contactID := contact.ID()

	log := f.logger.WithContext(ctx).WithFields(map[string]any{
		"contact_id":      contactID,
		"candidate_count": len(candidates),
		"threshold":       threshold,
	})
	log.Debug("Finding duplicates for contact")

	total := 0
	for _, candidate := range candidates {
		if candidate.ID() != contactID {
			total++
		}
	}

	produce := func(emit func(pairJob) bool) {
		ordinal := 0
		for i, candidate := range candidates {
			candidateID := candidate.ID()
			if candidateID == contactID {
				continue
			}
			if candidateID == "" {
				candidateID = strconv.Itoa(i)
			}

			if !emit(pairJob{ordinal: ordinal, a: contact, b: candidate, idA: contactID, idB: candidateID}) {
				return
			}
			ordinal++
		}
	}

	run := f.run(ctx, models.MatchRunModeSingle, threshold, total, rules, produce)

	log.WithFields(map[string]any{
		"match_count": len(run.Matches),
		"truncated":   run.Truncated,
	}).Debug("Found duplicates for contact")

	return run
}

// RunBulk scores every unordered pair of contacts once. Pairs are keyed by the
// sorted contact ids, with the record index standing in for a missing id, so a
// repeated key pair is only scored the first time it is seen.
// If ctx is cancelled the partial result is returned with Truncated set.
func (f *Finder) RunBulk(ctx context.Context, contacts []models.Contact, rules []models.DeduplicationRule, threshold float64) *models.MatchRun {
	ctx, span := tracing.StartSpan(ctx, "matching.Finder.RunBulk")
	defer span.End()

	log := f.logger.WithContext(ctx).WithFields(map[string]any{
		"contact_count": len(contacts),
		"rule_count":    len(rules),
		"threshold":     threshold,
		"workers":       f.config.Workers,
	})
	log.Info("Starting bulk deduplication")

	keys := make([]string, len(contacts))
	first := make(map[string]int, len(contacts))
	second := make(map[string]int)
	for i, contact := range contacts {
		key := contact.ID()
		if key == "" {
			key = strconv.Itoa(i)
		}
		keys[i] = key

		if _, ok := first[key]; !ok {
			first[key] = i
		} else if _, ok := second[key]; !ok {
			second[key] = i
		}
	}

	// firstOccurrence reports whether (i, j) is the first pair in iteration order with its key
	firstOccurrence := func(i, j int) bool {
		ki, kj := keys[i], keys[j]
		if ki == kj {
			return first[ki] == i && second[ki] == j
		}
		return first[ki] == i && first[kj] == j
	}

	produce := func(emit func(pairJob) bool) {
		ordinal := 0
		for i := 0; i < len(contacts); i++ {
			if first[keys[i]] != i {
				continue
			}
			for j := i + 1; j < len(contacts); j++ {
				if !firstOccurrence(i, j) {
					continue
				}
				if !emit(pairJob{ordinal: ordinal, a: contacts[i], b: contacts[j], idA: keys[i], idB: keys[j]}) {
					return
				}
				ordinal++
			}
		}
	}

	n := len(contacts)
	run := f.run(ctx, models.MatchRunModeBulk, threshold, n*(n-1)/2, rules, produce)

	log.WithFields(map[string]any{
		"run_id":          run.RunID,
		"match_count":     len(run.Matches),
		"pairs_evaluated": run.PairsEvaluated,
		"truncated":       run.Truncated,
	}).Info("Completed bulk deduplication")

	return run
}

// run fans the produced pairs out to a bounded worker pool, collects matches
// at or above threshold and sorts them once by score, then pair order.
func (f *Finder) run(
	ctx context.Context,
	mode models.MatchRunMode,
	threshold float64,
	total int,
	rules []models.DeduplicationRule,
	produce func(emit func(pairJob) bool),
) *models.MatchRun {
	started := time.Now().UTC()

	var (
		mu        sync.Mutex
		results   []scoredPair
		evaluated atomic.Int64
		queued    int
		stopped   bool
	)

	score := func(chunk []pairJob) {
		local := make([]scoredPair, 0, len(chunk))
		for _, job := range chunk {
			if ctx.Err() != nil {
				break
			}
			match := f.scorer.score(job.a, job.b, job.idA, job.idB, rules)
			evaluated.Add(1)
			if match != nil && match.Score >= threshold {
				local = append(local, scoredPair{ordinal: job.ordinal, match: match})
			}
		}
		if len(local) == 0 {
			return
		}
		mu.Lock()
		results = append(results, local...)
		mu.Unlock()
	}

	var g errgroup.Group
	g.SetLimit(f.config.Workers)

	chunk := make([]pairJob, 0, f.config.ChunkSize)
	flush := func() {
		if len(chunk) == 0 {
			return
		}
		jobs := chunk
		chunk = make([]pairJob, 0, f.config.ChunkSize)
		g.Go(func() error {
			score(jobs)
			return nil
		})
	}

	produce(func(job pairJob) bool {
		if ctx.Err() != nil {
			stopped = true
			return false
		}
		queued++
		chunk = append(chunk, job)
		if len(chunk) >= f.config.ChunkSize {
			flush()
		}
		return true
	})
	if ctx.Err() == nil {
		flush()
	}
	_ = g.Wait()

	slices.SortFunc(results, func(a, b scoredPair) int {
		if c := cmp.Compare(b.match.Score, a.match.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.ordinal, b.ordinal)
	})

	matches := make([]models.DuplicateMatch, len(results))
	for i, r := range results {
		matches[i] = *r.match
		metrics.MatchesTotal.WithLabelValues(string(r.match.Confidence)).Inc()
	}

	completed := time.Now().UTC()
	pairsEvaluated := int(evaluated.Load())
	truncated := stopped || pairsEvaluated < queued

	status := metrics.RunStatusComplete
	if truncated {
		status = metrics.RunStatusTruncated
	}
	metrics.PairsScoredTotal.Add(float64(pairsEvaluated))
	metrics.RunsTotal.WithLabelValues(string(mode), status).Inc()
	metrics.RunDuration.WithLabelValues(string(mode)).Observe(completed.Sub(started).Seconds())

	return &models.MatchRun{
		RunID:          uuid.New().String(),
		Mode:           mode,
		Threshold:      threshold,
		Matches:        matches,
		Truncated:      truncated,
		PairsEvaluated: pairsEvaluated,
		PairsTotal:     total,
		StartedAt:      started,
		CompletedAt:    completed,
	}
}
