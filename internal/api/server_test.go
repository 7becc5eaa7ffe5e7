package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"loan-intake-workers/internal/common/logger"
	"loan-intake-workers/internal/models"
	"loan-intake-workers/internal/scorestore"
	"loan-intake-workers/pkg/crustscore"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- Test Setup ---

type fakeStore struct {
	saved   map[string]*crustscore.Result
	scores  map[string]*models.ScoreSummary
	saveErr error
	getErr  error
	pingErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{saved: map[string]*crustscore.Result{}, scores: map[string]*models.ScoreSummary{}}
}

func (f *fakeStore) SaveScore(ctx context.Context, userID string, result *crustscore.Result) (*models.ScoreRecord, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.saved[userID] = result
	return models.NewScoreRecord("rec-1", userID, result, time.Now()), nil
}

func (f *fakeStore) GetScore(ctx context.Context, userID string) (*models.ScoreSummary, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	s, ok := f.scores[userID]
	if !ok {
		return nil, scorestore.ErrApplicantNotFound
	}
	return s, nil
}

func (f *fakeStore) Ping(ctx context.Context) error { return f.pingErr }

func newTestServer(t *testing.T, store ScoreStore, checks map[string]CheckFunc) http.Handler {
	t.Helper()
	return NewServer(Options{
		Store:    store,
		Gatherer: prometheus.NewRegistry(),
		Checks:   checks,
		Logger:   logger.NewTestLogger(t),
	}).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var decoded map[string]interface{}
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	}
	return w, decoded
}

const directBody = `{"a1":8,"a2":8,"a3":9,"b1":7,"b2":7,"b3":7,"b4":7,"b5":7,"c1":6,"c2":6,"c3":6}`

const rawBody = `{
	"title_clarity":"clean","approvals_complete":"yes","location_tier":"Tier-1",
	"infra_distance_km":1,"absorption_rate":0.9,"market_demand":"high",
	"cibil_score":800,"commercial_score":800,"net_worth_cr":10,"debt_equity_ratio":1,
	"pat_margin":0.2,"defaults":0,"dpd_days":0,"unit_pricing_cr":0.5,
	"projected_cashflow_cr":30,"loan_obligation_cr":10,"cash_reserves_cr":1,
	"escrow":"yes","financial_crimes":"no","developer_contribution_pct":0.3,
	"project_cost_cr":50
}`

// --- POST /api/user/:id/crust-score ---

func TestCalculateScore_DirectMode(t *testing.T) {
	store := newFakeStore()
	w, body := do(t, newTestServer(t, store, nil), http.MethodPost, "/api/user/42/crust-score", directBody)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, 7.2, body["crust_score"])
	assert.Equal(t, "B+", body["rating"])
	assert.Equal(t, "Moderate", body["risk"])
	assert.Equal(t, 8.3, body["asset_score"])
	assert.Equal(t, 7.0, body["behaviour_score"])
	assert.Equal(t, 6.0, body["cashflow_score"])

	require.Contains(t, store.saved, "42")
	assert.Equal(t, crustscore.ModeDirect, store.saved["42"].Mode)
}

func TestCalculateScore_RawMode(t *testing.T) {
	store := newFakeStore()
	w, body := do(t, newTestServer(t, store, nil), http.MethodPost, "/api/user/42/crust-score", rawBody)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 10.0, body["crust_score"])
	assert.Equal(t, "A+", body["rating"])
	assert.Equal(t, "Very Low", body["risk"])
	assert.Equal(t, crustscore.ModeRaw, store.saved["42"].Mode)
}

func TestCalculateScore_EngineError(t *testing.T) {
	store := newFakeStore()
	w, body := do(t, newTestServer(t, store, nil), http.MethodPost, "/api/user/42/crust-score",
		strings.Replace(rawBody, `"cibil_score":800`, `"cibil_score":250`, 1))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, map[string]interface{}{
		"success": false,
		"message": "Error processing crust score",
		"error":   "CIBIL score must be between 300 and 900",
	}, body)
	assert.Empty(t, store.saved)
}

func TestCalculateScore_MissingField(t *testing.T) {
	w, body := do(t, newTestServer(t, newFakeStore(), nil), http.MethodPost, "/api/user/42/crust-score", `{}`)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Missing input: title_clarity", body["error"])
}

func TestCalculateScore_StoreErrors(t *testing.T) {
	store := newFakeStore()
	store.saveErr = scorestore.ErrApplicantNotFound
	w, _ := do(t, newTestServer(t, store, nil), http.MethodPost, "/api/user/404/crust-score", directBody)
	assert.Equal(t, http.StatusNotFound, w.Code)

	store.saveErr = errors.New("update user score: connection reset")
	w, body := do(t, newTestServer(t, store, nil), http.MethodPost, "/api/user/42/crust-score", directBody)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Error processing crust score", body["message"])
	assert.Equal(t, "update user score: connection reset", body["error"])
}

func TestCalculateScore_MalformedBody(t *testing.T) {
	w, body := do(t, newTestServer(t, newFakeStore(), nil), http.MethodPost, "/api/user/42/crust-score", `{"a1":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])
}

// --- GET /api/user/:id/crust-score ---

func TestGetScore(t *testing.T) {
	store := newFakeStore()
	store.scores["42"] = &models.ScoreSummary{UserID: "42", CrustScore: 6.92, Rating: crustscore.RatingB, Risk: crustscore.RiskElevated}
	h := newTestServer(t, store, nil)

	w, body := do(t, h, http.MethodGet, "/api/user/42/crust-score", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]interface{}{
		"success":     true,
		"crust_score": 6.92,
		"rating":      "B",
		"risk":        "Elevated",
	}, body)

	w, _ = do(t, h, http.MethodGet, "/api/user/7/crust-score", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	store.getErr = scorestore.ErrScoreNotFound
	w, body = do(t, h, http.MethodGet, "/api/user/42/crust-score", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Crust score not calculated", body["message"])

	store.getErr = errors.New("select user score: timeout")
	w, _ = do(t, h, http.MethodGet, "/api/user/42/crust-score", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// A POST followed by a GET through the real store: the GET is served from
// the cache written by the POST.
func TestScoreRoundTrip_WithStore(t *testing.T) {
	db, mockDB, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	store := scorestore.New(db, cache, time.Hour, logger.NewNoOpLogger())
	h := newTestServer(t, store, nil)

	mockDB.ExpectBegin()
	mockDB.ExpectExec("UPDATE users").
		WithArgs(7.2, "B+", "Moderate", "42").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectExec("INSERT INTO crust_score_history").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectCommit()

	w, _ := do(t, h, http.MethodPost, "/api/user/42/crust-score", directBody)
	require.Equal(t, http.StatusOK, w.Code)

	w, body := do(t, h, http.MethodGet, "/api/user/42/crust-score", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 7.2, body["crust_score"])
	assert.Equal(t, "B+", body["rating"])

	assert.True(t, mr.Exists(scorestore.CacheKey("42")))
	assert.NoError(t, mockDB.ExpectationsWereMet())
}

// --- Health, readiness, metrics ---

func TestHealth(t *testing.T) {
	w, _ := do(t, newTestServer(t, newFakeStore(), nil), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestReady(t *testing.T) {
	store := newFakeStore()
	checks := map[string]CheckFunc{
		"zeebe": func(ctx context.Context) error { return nil },
	}
	h := newTestServer(t, store, checks)

	w, body := do(t, h, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", body["status"])

	store.pingErr = errors.New("postgres: connection refused")
	checks["zeebe"] = func(ctx context.Context) error { return errors.New("gateway unavailable") }

	w, body = do(t, h, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, map[string]interface{}{
		"store": "postgres: connection refused",
		"zeebe": "gateway unavailable",
	}, body["failures"])
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "crust_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	h := NewServer(Options{Store: newFakeStore(), Gatherer: reg, Logger: logger.NewNoOpLogger()}).Handler()
	w, _ := do(t, h, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "crust_test_total 1")
}
