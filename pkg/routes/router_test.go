package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/dedupe"
	"github.com/Ramsey-B/clover/pkg/middleware"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/routes/duplicate"
	"github.com/Ramsey-B/clover/pkg/routes/health"
)

func newTestRouter(t *testing.T) *echo.Echo {
	t.Helper()
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	service := dedupe.NewService(logger, dedupe.DefaultConfig(), nil)
	return NewRouter(RouterConfig{ServiceName: "clover-test"}, logger, service, health.NewChecker("test"))
}

func do(e *echo.Echo, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

const bulkBody = `{
	"contacts": [
		{"id": "1", "email": "a@x.com", "phone": "555-0100"},
		{"id": "2", "email": "A@X.com", "title": "CTO"},
		{"id": "3", "full_name": "Jon Smith"},
		{"id": "4", "full_name": "John Smith"}
	]
}`

func TestRouter_Rules(t *testing.T) {
	e := newTestRouter(t)

	rec := do(e, http.MethodGet, "/api/v1/rules", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var rules []models.DeduplicationRule
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rules))
	assert.Len(t, rules, len(models.DefaultRules()))

	rec = do(e, http.MethodPost, "/api/v1/rules", `{"field":"title","match_type":"fuzzy","weight":0.2,"threshold":0.9}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.DeduplicationRule
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.IsActive)

	rec = do(e, http.MethodPost, "/api/v1/rules", `{"field":"title","match_type":"fuzzy","weight":0,"threshold":0.9}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodPost, "/api/v1/rules", `{"match_type":"fuzzy","weight":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodPut, "/api/v1/rules/name-fuzzy", `{"threshold":0.95}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated models.DeduplicationRule
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, 0.95, updated.Threshold)

	rec = do(e, http.MethodPut, "/api/v1/rules/nope", `{"threshold":0.5}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var errBody middleware.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errBody))
	assert.Contains(t, errBody.Message, "not found")
	assert.NotEmpty(t, errBody.RequestID)
}

func TestRouter_BulkPendingResolve(t *testing.T) {
	e := newTestRouter(t)

	rec := do(e, http.MethodPost, "/api/v1/duplicates/bulk", bulkBody)
	require.Equal(t, http.StatusOK, rec.Code)
	var run models.MatchRun
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	require.Len(t, run.Matches, 2)
	assert.Equal(t, 6, run.PairsTotal)
	assert.False(t, run.Truncated)

	rec = do(e, http.MethodGet, "/api/v1/duplicates/pending?confidence=exact", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var pending []models.DuplicateMatch
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pending))
	require.Len(t, pending, 1)
	assert.Equal(t, "1", pending[0].ContactID1)

	rec = do(e, http.MethodGet, "/api/v1/duplicates/pending?confidence=certain", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodPost, "/api/v1/duplicates/resolve", `{"contact_id_1":"4","contact_id_2":"3","action":"not_duplicate"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resolved duplicate.ResolveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resolved))
	assert.True(t, resolved.Resolved)
	assert.Equal(t, "3", resolved.Match.ContactID1)

	rec = do(e, http.MethodPost, "/api/v1/duplicates/resolve", `{"contact_id_1":"4","contact_id_2":"3","action":"not_duplicate"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(e, http.MethodPost, "/api/v1/duplicates/resolve", `{"contact_id_1":"1","contact_id_2":"2","action":"maybe"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodGet, "/api/v1/duplicates/pending", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pending))
	assert.Len(t, pending, 1)
}

func TestRouter_Find(t *testing.T) {
	e := newTestRouter(t)

	rec := do(e, http.MethodPost, "/api/v1/duplicates/find", `{
		"contact": {"id": "new", "full_name": "John Smith"},
		"candidates": [{"id": "a", "full_name": "Jon Smith"}, {"id": "b", "full_name": "Maria Garcia"}],
		"threshold": 90
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var run models.MatchRun
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	require.Len(t, run.Matches, 1)
	assert.Equal(t, "a", run.Matches[0].ContactID2)
	assert.Equal(t, 90.0, run.Threshold)

	rec = do(e, http.MethodPost, "/api/v1/duplicates/find", `{"contact": {"id": "x"}, "threshold": 150}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_MergeAndHistory(t *testing.T) {
	e := newTestRouter(t)

	body := `{
		"master_id": "1",
		"duplicate_ids": ["2"],
		"contacts": {
			"1": {"id": "1", "email": "a@x.com", "title": "VP"},
			"2": {"id": "2", "email": "a@x.com", "title": "CTO", "phone": "555"}
		}
	}`
	rec := do(e, http.MethodPost, "/api/v1/merges", body, middleware.HeaderUserID, "ops-7")
	require.Equal(t, http.StatusCreated, rec.Code)

	var result models.MergeResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "ops-7", result.MergedBy)
	assert.Equal(t, "555", result.FieldsMerged["phone"])
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, models.ConflictResolutionKeptMaster, result.Conflicts[0].Resolution)

	rec = do(e, http.MethodPost, "/api/v1/merges", `{"master_id":"9","duplicate_ids":["2"],"contacts":{"2":{}}}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(e, http.MethodPost, "/api/v1/merges", `{"master_id":"1","duplicate_ids":[],"contacts":{"1":{}}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodGet, "/api/v1/merges", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var history []models.MergeResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 1)
	assert.Equal(t, result.ID, history[0].ID)
}

func TestRouter_SessionReset(t *testing.T) {
	e := newTestRouter(t)

	require.Equal(t, http.StatusOK, do(e, http.MethodPost, "/api/v1/duplicates/bulk", bulkBody).Code)

	rec := do(e, http.MethodPost, "/api/v1/session/reset", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(e, http.MethodGet, "/api/v1/duplicates/pending", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	e := newTestRouter(t)

	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/api/v1/health", "").Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/api/v1/health/live", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(e, http.MethodGet, "/api/v1/health/ready", "").Code)

	do(e, http.MethodPost, "/api/v1/duplicates/bulk", bulkBody)
	rec := do(e, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "clover_matching_pairs_scored_total")
}
