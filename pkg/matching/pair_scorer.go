package matching

import (
	"slices"
	"time"

	"github.com/Ramsey-B/clover/pkg/models"
)

// MinMatchScore is the composite score below which a pair is never reported
const MinMatchScore = 30.0

// emailField forces an exact confidence whenever it is among the matched fields
const emailField = "email"

// PairScorer aggregates weighted rule scores for a pair of contacts
type PairScorer struct {
	evaluator *Evaluator
	now       func() time.Time
}

// NewPairScorer creates a PairScorer backed by evaluator
func NewPairScorer(evaluator *Evaluator) *PairScorer {
	if evaluator == nil {
		evaluator = NewEvaluator()
	}
	return &PairScorer{
		evaluator: evaluator,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Score compares two contacts using rules and returns nil when they do not match
func (p *PairScorer) Score(a, b models.Contact, rules []models.DeduplicationRule) *models.DuplicateMatch {
	return p.score(a, b, a.ID(), b.ID(), rules)
}

// score is Score with explicit record identifiers, used when a record has no id
func (p *PairScorer) score(a, b models.Contact, idA, idB string, rules []models.DeduplicationRule) *models.DuplicateMatch {
	var totalWeight, totalScore float64
	matchedFields := make([]string, 0, len(rules))
	details := make(map[string]models.MatchDetail)

	for _, rule := range rules {
		if !rule.IsActive {
			continue
		}

		va, okA := a.Get(rule.Field)
		vb, okB := b.Get(rule.Field)
		if !okA || !okB {
			continue
		}

		subScore := p.evaluator.Evaluate(rule, va, vb)
		totalWeight += rule.Weight
		totalScore += subScore * rule.Weight

		if subScore < rule.Threshold {
			continue
		}

		if existing, ok := details[rule.Field]; !ok || subScore > existing.Score {
			details[rule.Field] = models.MatchDetail{
				Rule:   rule.Name,
				Score:  subScore,
				Values: [2]string{va, vb},
			}
		}
		if !slices.Contains(matchedFields, rule.Field) {
			matchedFields = append(matchedFields, rule.Field)
		}
	}

	if totalWeight == 0 {
		return nil
	}

	finalScore := totalScore / totalWeight * 100
	if finalScore < MinMatchScore {
		return nil
	}

	confidence := ConfidenceForScore(finalScore, matchedFields)

	match := &models.DuplicateMatch{
		ContactID1:        idA,
		ContactID2:        idB,
		Confidence:        confidence,
		Score:             finalScore,
		MatchedFields:     matchedFields,
		MatchDetails:      details,
		RecommendedAction: RecommendedActionFor(confidence),
		DetectedAt:        p.now(),
	}

	if confidence == models.ConfidenceExact || confidence == models.ConfidenceHigh {
		master := ElectMaster(a, b, idA, idB)
		match.MasterRecordID = &master
	}

	return match
}

// ConfidenceForScore buckets a composite score. A matched email field always
// yields exact, whatever the numeric score.
func ConfidenceForScore(score float64, matchedFields []string) models.Confidence {
	if slices.Contains(matchedFields, emailField) {
		return models.ConfidenceExact
	}

	switch {
	case score >= 95:
		return models.ConfidenceExact
	case score >= 85:
		return models.ConfidenceHigh
	case score >= 70:
		return models.ConfidenceMedium
	case score >= 50:
		return models.ConfidenceLow
	}
	return models.ConfidencePossible
}

// RecommendedActionFor returns merge for exact matches and review for everything else
func RecommendedActionFor(confidence models.Confidence) models.RecommendedAction {
	if confidence == models.ConfidenceExact {
		return models.RecommendedActionMerge
	}
	return models.RecommendedActionReview
}

// ElectMaster picks the record with more populated fields. Ties go to the
// lexicographically smaller id so the result does not depend on argument order.
func ElectMaster(a, b models.Contact, idA, idB string) string {
	countA := a.PopulatedFieldCount()
	countB := b.PopulatedFieldCount()

	switch {
	case countA > countB:
		return idA
	case countB > countA:
		return idB
	case idA <= idB:
		return idA
	}
	return idB
}
