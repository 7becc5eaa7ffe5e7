// test/e2e/e2e_test.go
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-intake-workers/internal/api"
	"loan-intake-workers/internal/common/config"
	"loan-intake-workers/internal/common/database"
	"loan-intake-workers/internal/common/logger"
	"loan-intake-workers/internal/scorestore"
	"loan-intake-workers/pkg/crustscore"

	calc "loan-intake-workers/internal/workers/scoring/calculate-crust-score"
	idx "loan-intake-workers/internal/workers/scoring/index-crust-score"
	persist "loan-intake-workers/internal/workers/scoring/persist-crust-score"
)

// These tests run against the docker-compose stack. Set E2E_TESTS=1 to
// enable them.

const testUserID = "e2e-applicant-1"

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func testConfig() *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{
			Postgres: config.PostgresConfig{
				Host:           envOr("DB_HOST", "localhost"),
				Port:           5432,
				Database:       envOr("DB_NAME", "loans"),
				User:           envOr("DB_USER", "postgres"),
				Password:       envOr("DB_PASSWORD", "postgres"),
				MaxConnections: 5,
				MaxIdle:        2,
				SSLMode:        "disable",
			},
			Redis:         config.RedisConfig{Address: envOr("REDIS_ADDRESS", "localhost:6379")},
			Elasticsearch: config.ElasticsearchConfig{URL: envOr("ELASTICSEARCH_URL", "http://localhost:9200")},
		},
		Scoring: config.ScoringConfig{CacheTTL: 60, IndexName: "crust-scores-e2e"},
	}
}

type stack struct {
	cfg   *config.Config
	pg    *database.PostgresClient
	rdb   *database.RedisClient
	es    *database.ElasticsearchClient
	store *scorestore.Store
	log   logger.Logger
}

func setup(t *testing.T) *stack {
	t.Helper()
	if os.Getenv("E2E_TESTS") == "" {
		t.Skip("E2E_TESTS not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := testConfig()
	log := logger.NewTestLogger(t)

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err)
	t.Cleanup(func() { pg.Close() })
	require.NoError(t, pg.Ping(ctx), "PostgreSQL unreachable")

	rdb := database.NewRedis(cfg.Database.Redis)
	t.Cleanup(func() { rdb.Close() })
	require.NoError(t, rdb.Ping(ctx), "Redis unreachable")

	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	require.NoError(t, err)
	require.NoError(t, es.Ping(ctx), "Elasticsearch unreachable")
	require.NoError(t, es.EnsureIndex(ctx, cfg.Scoring.IndexName, database.ScoreIndexMapping))

	createTables(t, pg)
	require.NoError(t, rdb.Client.Del(ctx, scorestore.CacheKey(testUserID)).Err())

	return &stack{
		cfg:   cfg,
		pg:    pg,
		rdb:   rdb,
		es:    es,
		store: scorestore.New(pg.DB, rdb.Client, cfg.Scoring.TTL(), log),
		log:   log,
	}
}

func createTables(t *testing.T, pg *database.PostgresClient) {
	t.Helper()

	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(255) PRIMARY KEY,
			fullname VARCHAR(255),
			email VARCHAR(255),
			corporatephone VARCHAR(50),
			crust_score DOUBLE PRECISION,
			crust_rating VARCHAR(4),
			risk_level VARCHAR(20)
		)`,
		`CREATE TABLE IF NOT EXISTS crust_score_history (
			id UUID PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL REFERENCES users(id),
			mode VARCHAR(10) NOT NULL,
			composite_score DOUBLE PRECISION NOT NULL,
			rating VARCHAR(4) NOT NULL,
			risk VARCHAR(20) NOT NULL,
			asset_score DOUBLE PRECISION NOT NULL,
			behaviour_score DOUBLE PRECISION NOT NULL,
			cashflow_score DOUBLE PRECISION NOT NULL,
			red_flags JSONB,
			component_scores JSONB,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`DELETE FROM crust_score_history WHERE user_id = '` + testUserID + `'`,
		`INSERT INTO users (id, fullname, email, corporatephone)
		 VALUES ('` + testUserID + `', 'E2E Applicant', 'e2e@example.com', '9876543210')
		 ON CONFLICT (id) DO UPDATE SET crust_score = NULL, crust_rating = NULL, risk_level = NULL`,
	}
	for _, q := range queries {
		_, err := pg.DB.Exec(q)
		require.NoError(t, err, "setup query failed: %s", q)
	}
}

func TestScorePipeline(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	calcH := calc.NewHandler(calc.HandlerOptions{
		Config: &calc.Config{Timeout: 5 * time.Second},
		Logger: s.log,
	})
	scored, err := calcH.Execute(ctx, &calc.Input{
		UserID: testUserID,
		ScoreInputs: map[string]interface{}{
			"a1": 8, "a2": 8, "a3": 9,
			"b1": 7, "b2": 7, "b3": 7, "b4": 7, "b5": 7,
			"c1": 6, "c2": 6, "c3": 6,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 7.2, scored.CrustScore)
	assert.Equal(t, crustscore.RatingBPlus, scored.Rating)

	persistH := persist.NewHandler(persist.HandlerOptions{
		Config: &persist.Config{Timeout: 10 * time.Second},
		Store:  s.store,
		Logger: s.log,
	})
	saved, err := persistH.Execute(ctx, &persist.Input{UserID: testUserID, ScoreVariables: scored.ScoreVariables})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ScoreRecordID)

	var history int
	require.NoError(t, s.pg.DB.QueryRow(
		`SELECT COUNT(*) FROM crust_score_history WHERE user_id = $1`, testUserID).Scan(&history))
	assert.Equal(t, 1, history)

	cached, err := s.rdb.Client.Exists(ctx, scorestore.CacheKey(testUserID)).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), cached)

	indexH := idx.NewHandler(idx.HandlerOptions{
		Config: &idx.Config{IndexName: s.cfg.Scoring.IndexName, Timeout: 10 * time.Second},
		ES:     s.es.Client,
		Logger: s.log,
	})
	indexed, err := indexH.Execute(ctx, &idx.Input{UserID: testUserID, ScoreVariables: scored.ScoreVariables})
	require.NoError(t, err)
	assert.True(t, indexed.Indexed)
	assert.Equal(t, testUserID, indexed.DocumentID)
}

func TestScoreAPI(t *testing.T) {
	s := setup(t)

	srv := httptest.NewServer(api.NewServer(api.Options{
		Store:    s.store,
		Gatherer: prometheus.NewRegistry(),
		Logger:   s.log,
	}).Handler())
	defer srv.Close()

	url := fmt.Sprintf("%s/api/user/%s/crust-score", srv.URL, testUserID)

	resp, err := http.Get(url)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Post(url, "application/json", jsonBody(t, map[string]interface{}{
		"a1": 8, "a2": 8, "a3": 9,
		"b1": 7, "b2": 7, "b3": 7, "b4": 7, "b5": 7,
		"c1": 6, "c2": 6, "c3": 6,
	}))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 7.2, body["crust_score"])
	assert.Equal(t, "B+", body["rating"])
}

func jsonBody(t *testing.T, v interface{}) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}
