package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clovererrors "github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/models"
)

func ptr[T any](v T) *T { return &v }

func TestStore_SeededWithDefaults(t *testing.T) {
	store := NewStore()

	rules := store.ListRules()
	require.Len(t, rules, len(models.DefaultRules()))
	for i, rule := range models.DefaultRules() {
		assert.Equal(t, rule.ID, rules[i].ID)
		assert.False(t, rules[i].CreatedAt.IsZero())
	}
	assert.Len(t, store.ActiveRules(), len(rules))
	assert.Empty(t, store.PendingMatches(nil))
	assert.Empty(t, store.MergeHistory())
}

func TestStore_ConfigureRule(t *testing.T) {
	tests := []struct {
		name      string
		rule      models.DeduplicationRule
		wantField string
	}{
		{
			name:      "zero weight",
			rule:      models.DeduplicationRule{Field: "email", MatchType: models.MatchTypeExact, Weight: 0, Threshold: 1},
			wantField: "weight",
		},
		{
			name:      "negative weight",
			rule:      models.DeduplicationRule{Field: "email", MatchType: models.MatchTypeExact, Weight: -1, Threshold: 1},
			wantField: "weight",
		},
		{
			name:      "threshold above one",
			rule:      models.DeduplicationRule{Field: "email", MatchType: models.MatchTypeExact, Weight: 1, Threshold: 1.5},
			wantField: "threshold",
		},
		{
			name:      "threshold below zero",
			rule:      models.DeduplicationRule{Field: "email", MatchType: models.MatchTypeExact, Weight: 1, Threshold: -0.1},
			wantField: "threshold",
		},
		{
			name:      "unknown match type",
			rule:      models.DeduplicationRule{Field: "email", MatchType: "phonetic", Weight: 1, Threshold: 1},
			wantField: "match_type",
		},
		{
			name:      "missing field",
			rule:      models.DeduplicationRule{MatchType: models.MatchTypeExact, Weight: 1, Threshold: 1},
			wantField: "field",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewStore()
			_, err := store.ConfigureRule(tt.rule)
			require.Error(t, err)

			var cfgErr *clovererrors.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.wantField, cfgErr.Field)
			assert.Len(t, store.ListRules(), len(models.DefaultRules()))
		})
	}

	t.Run("adds a rule with a generated id", func(t *testing.T) {
		store := NewStore()
		rule, err := store.ConfigureRule(models.DeduplicationRule{
			Field: "title", MatchType: models.MatchTypeFuzzy, Weight: 0.2, Threshold: 0.9, IsActive: true,
		})
		require.NoError(t, err)

		assert.NotEmpty(t, rule.ID)
		rules := store.ListRules()
		assert.Equal(t, rule.ID, rules[len(rules)-1].ID)
	})

	t.Run("replaces a rule with the same id", func(t *testing.T) {
		store := NewStore()
		before := store.ListRules()[0]

		rule, err := store.ConfigureRule(models.DeduplicationRule{
			ID: before.ID, Name: "Email", Field: "email", MatchType: models.MatchTypeExact, Weight: 0.5, Threshold: 1,
		})
		require.NoError(t, err)

		rules := store.ListRules()
		assert.Len(t, rules, len(models.DefaultRules()))
		assert.Equal(t, 0.5, rules[0].Weight)
		assert.Equal(t, before.CreatedAt, rule.CreatedAt)
		assert.NotContains(t, store.ActiveRules(), rules[0])
	})
}

func TestStore_UpdateRule(t *testing.T) {
	store := NewStore()

	t.Run("applies the patch", func(t *testing.T) {
		rule, err := store.UpdateRule("name-fuzzy", models.RulePatch{Threshold: ptr(0.9), IsActive: ptr(false)})
		require.NoError(t, err)

		assert.Equal(t, 0.9, rule.Threshold)
		assert.False(t, rule.IsActive)
		assert.Equal(t, "full_name", rule.Field)
		for _, active := range store.ActiveRules() {
			assert.NotEqual(t, "name-fuzzy", active.ID)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := store.UpdateRule("nope", models.RulePatch{})
		assert.True(t, clovererrors.IsNotFound(err))
	})

	t.Run("invalid patch leaves the rule unchanged", func(t *testing.T) {
		_, err := store.UpdateRule("email-exact", models.RulePatch{Weight: ptr(0.0)})
		assert.True(t, clovererrors.IsConfigurationError(err))
		assert.Equal(t, 1.0, store.ListRules()[0].Weight)
	})
}

func TestStore_ActiveRulesIsASnapshot(t *testing.T) {
	store := NewStore()

	snapshot := store.ActiveRules()
	_, err := store.UpdateRule("email-exact", models.RulePatch{Weight: ptr(0.1)})
	require.NoError(t, err)

	assert.Equal(t, 1.0, snapshot[0].Weight)
}

func matchRun(pairs ...[2]string) *models.MatchRun {
	run := &models.MatchRun{}
	for _, p := range pairs {
		run.Matches = append(run.Matches, models.DuplicateMatch{
			ContactID1: p[0],
			ContactID2: p[1],
			Confidence: models.ConfidenceHigh,
			Score:      90,
		})
	}
	return run
}

func TestStore_ReplacePending(t *testing.T) {
	t.Run("later run wins regardless of completion order", func(t *testing.T) {
		store := NewStore()
		first := store.BeginRun()
		second := store.BeginRun()

		assert.True(t, store.ReplacePending(second, matchRun([2]string{"a", "b"})))
		assert.False(t, store.ReplacePending(first, matchRun([2]string{"c", "d"})))

		pending := store.PendingMatches(nil)
		require.Len(t, pending, 1)
		assert.Equal(t, "a", pending[0].ContactID1)
	})

	t.Run("reset invalidates in-flight runs", func(t *testing.T) {
		store := NewStore()
		seq := store.BeginRun()
		store.Reset()

		assert.False(t, store.ReplacePending(seq, matchRun([2]string{"a", "b"})))
		assert.Empty(t, store.PendingMatches(nil))
	})

	t.Run("keeps the producing run", func(t *testing.T) {
		store := NewStore()
		run := matchRun([2]string{"a", "b"})
		run.Truncated = true

		require.True(t, store.ReplacePending(store.BeginRun(), run))
		require.NotNil(t, store.PendingRun())
		assert.True(t, store.PendingRun().Truncated)
	})
}

func TestStore_PendingMatchesFilter(t *testing.T) {
	store := NewStore()
	run := matchRun([2]string{"a", "b"}, [2]string{"c", "d"})
	run.Matches[1].Confidence = models.ConfidenceExact
	require.True(t, store.ReplacePending(store.BeginRun(), run))

	exact := models.ConfidenceExact
	filtered := store.PendingMatches(&exact)
	require.Len(t, filtered, 1)
	assert.Equal(t, "c", filtered[0].ContactID1)

	low := models.ConfidenceLow
	assert.Empty(t, store.PendingMatches(&low))
	assert.Len(t, store.PendingMatches(nil), 2)
}

func TestStore_ResolvePending(t *testing.T) {
	store := NewStore()
	require.True(t, store.ReplacePending(store.BeginRun(), matchRun([2]string{"a", "b"}, [2]string{"c", "d"})))

	match, err := store.ResolvePending("b", "a")
	require.NoError(t, err)
	assert.Equal(t, "a", match.ContactID1)
	assert.Len(t, store.PendingMatches(nil), 1)

	_, err = store.ResolvePending("a", "b")
	assert.True(t, clovererrors.IsNotFound(err))
}

func TestStore_MergeHistoryIsAppendOnly(t *testing.T) {
	store := NewStore()
	store.AppendMerge(models.MergeResult{ID: "m1"})
	store.AppendMerge(models.MergeResult{ID: "m2"})

	history := store.MergeHistory()
	require.Len(t, history, 2)
	history[0].ID = "changed"

	assert.Equal(t, "m1", store.MergeHistory()[0].ID)
	assert.Equal(t, "m2", store.MergeHistory()[1].ID)
}

func TestStore_MergeHistoryDoesNotShareRecords(t *testing.T) {
	store := NewStore()
	result := models.MergeResult{
		ID:           "m1",
		MergedIDs:    []string{"2"},
		FieldsMerged: map[string]string{"phone": "555"},
		Conflicts:    []models.MergeConflict{{Field: "title", MasterValue: "VP", DuplicateValues: []string{"CTO"}}},
		MergedRecord: models.Contact{"id": "1", "phone": "555"},
	}
	store.AppendMerge(result)

	result.FieldsMerged["phone"] = "changed"
	result.Conflicts[0].MasterValue = "changed"
	result.MergedRecord["phone"] = "changed"
	result.MergedIDs[0] = "changed"

	read := store.MergeHistory()
	read[0].FieldsMerged["phone"] = "changed"
	read[0].Conflicts[0].DuplicateValues[0] = "changed"

	stored := store.MergeHistory()[0]
	assert.Equal(t, "555", stored.FieldsMerged["phone"])
	assert.Equal(t, "VP", stored.Conflicts[0].MasterValue)
	assert.Equal(t, []string{"CTO"}, stored.Conflicts[0].DuplicateValues)
	assert.Equal(t, "555", stored.MergedRecord["phone"])
	assert.Equal(t, []string{"2"}, stored.MergedIDs)
}

func TestStore_PendingDoesNotShareMatches(t *testing.T) {
	store := NewStore()
	master := "a"
	run := matchRun([2]string{"a", "b"})
	run.Matches[0].MatchedFields = []string{"email"}
	run.Matches[0].MatchDetails = map[string]models.MatchDetail{"email": {Rule: "email-exact", Score: 1}}
	run.Matches[0].MasterRecordID = &master
	require.True(t, store.ReplacePending(store.BeginRun(), run))

	run.Matches[0].MatchedFields[0] = "changed"
	run.Matches[0].MatchDetails["email"] = models.MatchDetail{Rule: "changed"}
	master = "changed"

	read := store.PendingMatches(nil)
	read[0].MatchedFields[0] = "changed"
	*read[0].MasterRecordID = "changed"
	store.PendingRun().Matches[0].MatchDetails["email"] = models.MatchDetail{Rule: "changed"}

	stored := store.PendingMatches(nil)[0]
	assert.Equal(t, []string{"email"}, stored.MatchedFields)
	assert.Equal(t, "email-exact", stored.MatchDetails["email"].Rule)
	assert.Equal(t, "a", *stored.MasterRecordID)
	assert.Equal(t, "email-exact", store.PendingRun().Matches[0].MatchDetails["email"].Rule)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	store := NewStore()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = store.ConfigureRule(models.DeduplicationRule{
				ID: fmt.Sprintf("r%d", i), Field: "title", MatchType: models.MatchTypeExact, Weight: 1, Threshold: 1, IsActive: true,
			})
			_ = store.ActiveRules()
			store.ReplacePending(store.BeginRun(), matchRun([2]string{"a", fmt.Sprint(i)}))
			_ = store.PendingMatches(nil)
			store.AppendMerge(models.MergeResult{ID: fmt.Sprint(i)})
		}(i)
	}
	wg.Wait()

	assert.Len(t, store.ListRules(), len(models.DefaultRules())+20)
	assert.Len(t, store.MergeHistory(), 20)
	assert.Len(t, store.PendingMatches(nil), 1)
}
