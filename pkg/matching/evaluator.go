package matching

import (
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
)

// MatchStrategy scores a pair of field values for one match type
type MatchStrategy interface {
	Score(rule models.DeduplicationRule, a, b string) float64
}

// MatchStrategyFunc adapts a function into a MatchStrategy
type MatchStrategyFunc func(rule models.DeduplicationRule, a, b string) float64

func (f MatchStrategyFunc) Score(rule models.DeduplicationRule, a, b string) float64 {
	return f(rule, a, b)
}

// Evaluator applies a single deduplication rule to a pair of values
type Evaluator struct {
	strategies map[models.MatchType]MatchStrategy
}

// NewEvaluator creates an Evaluator with a strategy for every models.MatchType
func NewEvaluator() *Evaluator {
	scorer := NewScorer()

	return &Evaluator{
		strategies: map[models.MatchType]MatchStrategy{
			models.MatchTypeExact: MatchStrategyFunc(func(_ models.DeduplicationRule, a, b string) float64 {
				return scorer.ExactMatch(a, b, false)
			}),
			models.MatchTypeFuzzy: MatchStrategyFunc(func(_ models.DeduplicationRule, a, b string) float64 {
				return scorer.SequenceRatio(a, b)
			}),
			models.MatchTypeNormalized: MatchStrategyFunc(func(rule models.DeduplicationRule, a, b string) float64 {
				normalize := normalizers.ForField(rule.Field)
				return scorer.ExactMatch(normalize(a), normalize(b), true)
			}),
			models.MatchTypeDomain: MatchStrategyFunc(func(_ models.DeduplicationRule, a, b string) float64 {
				return scorer.DomainMatch(a, b)
			}),
		},
	}
}

// Evaluate returns the rule's sub-score for the pair, in [0, 1].
// A rule with an unknown match type scores 0.
func (e *Evaluator) Evaluate(rule models.DeduplicationRule, a, b string) float64 {
	strategy, ok := e.strategies[rule.MatchType]
	if !ok {
		return 0.0
	}

	score := strategy.Score(rule, a, b)
	switch {
	case score < 0:
		return 0.0
	case score > 1:
		return 1.0
	}
	return score
}
