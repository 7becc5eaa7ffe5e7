// Package scorestore persists crust scores on the applicant row, keeps a
// history of every calculation and caches the latest score in Redis.
package scorestore

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"loan-intake-workers/internal/common/database"
	"loan-intake-workers/internal/common/errors"
	"loan-intake-workers/internal/common/logger"
	"loan-intake-workers/internal/models"
	"loan-intake-workers/pkg/crustscore"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrApplicantNotFound = stderrors.New("applicant not found")
	ErrScoreNotFound     = stderrors.New("applicant has no crust score")
)

const cacheKeyPrefix = "crust:score:"

const (
	updateUserScoreSQL = `
		UPDATE users
		SET crust_score = $1, crust_rating = $2, risk_level = $3
		WHERE id = $4`

	insertHistorySQL = `
		INSERT INTO crust_score_history (
			id, user_id, mode, composite_score, rating, risk,
			asset_score, behaviour_score, cashflow_score,
			red_flags, component_scores, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	selectUserScoreSQL = `
		SELECT crust_score, crust_rating, risk_level
		FROM users
		WHERE id = $1`

	selectContactSQL = `
		SELECT fullname, email, corporatephone
		FROM users
		WHERE id = $1`

	clearUnscoredSQL = `
		UPDATE users
		SET crust_score = NULL, crust_rating = NULL, risk_level = NULL
		WHERE crust_score IS NULL OR crust_score = 0`
)

// Store reads and writes applicant scores. The cache is optional.
type Store struct {
	db     *sql.DB
	cache  *redis.Client
	ttl    time.Duration
	logger logger.Logger

	now   func() time.Time
	newID func() string
}

func New(db *sql.DB, cache *redis.Client, ttl time.Duration, log logger.Logger) *Store {
	return &Store{
		db:     db,
		cache:  cache,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "scorestore"}),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.New().String() },
	}
}

// CacheKey is the Redis key holding the latest score of userID.
func CacheKey(userID string) string {
	return cacheKeyPrefix + userID
}

// SaveScore writes result onto the applicant and appends a history row in one
// transaction, then refreshes the cache. A cache failure is logged only.
func (s *Store) SaveScore(ctx context.Context, userID string, result *crustscore.Result) (*models.ScoreRecord, error) {
	record := models.NewScoreRecord(s.newID(), userID, result, s.now())

	flagsJSON, err := json.Marshal(record.RedFlags)
	if err != nil {
		return nil, fmt.Errorf("encode red flags: %w", err)
	}
	var componentsJSON []byte
	if record.ComponentScores != nil {
		if componentsJSON, err = json.Marshal(record.ComponentScores); err != nil {
			return nil, fmt.Errorf("encode component scores: %w", err)
		}
	}

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, updateUserScoreSQL,
			record.CompositeScore, string(record.Rating), string(record.Risk), userID)
		if err != nil {
			return fmt.Errorf("update user score: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update user score: %w", err)
		}
		if n == 0 {
			return ErrApplicantNotFound
		}

		_, err = tx.ExecContext(ctx, insertHistorySQL,
			record.ID, userID, string(record.Mode), record.CompositeScore,
			string(record.Rating), string(record.Risk),
			record.AssetScore, record.BehaviourScore, record.CashflowScore,
			string(flagsJSON), nullableJSON(componentsJSON), record.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert score history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cacheScore(ctx, record.Summary())
	return record, nil
}

// GetScore returns the latest score of userID, from the cache when present.
func (s *Store) GetScore(ctx context.Context, userID string) (*models.ScoreSummary, error) {
	if summary, ok := s.cachedScore(ctx, userID); ok {
		return summary, nil
	}

	var (
		score  sql.NullFloat64
		rating sql.NullString
		risk   sql.NullString
	)
	err := s.db.QueryRowContext(ctx, selectUserScoreSQL, userID).Scan(&score, &rating, &risk)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, ErrApplicantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user score: %w", err)
	}
	if !score.Valid {
		return nil, ErrScoreNotFound
	}

	summary := &models.ScoreSummary{
		UserID:     userID,
		CrustScore: score.Float64,
		Rating:     crustscore.Rating(rating.String),
		Risk:       crustscore.Risk(risk.String),
	}
	s.cacheScore(ctx, summary)
	return summary, nil
}

// GetContact returns the notification details of userID.
func (s *Store) GetContact(ctx context.Context, userID string) (*models.ApplicantContact, error) {
	var name, email, phone sql.NullString
	err := s.db.QueryRowContext(ctx, selectContactSQL, userID).Scan(&name, &email, &phone)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, ErrApplicantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select applicant contact: %w", err)
	}

	return &models.ApplicantContact{
		UserID:   userID,
		FullName: name.String,
		Email:    email.String,
		Phone:    phone.String,
	}, nil
}

// ClearUnscored resets the score columns of applicants whose score is null
// or zero and returns how many rows were touched. Cached entries are left to
// expire.
func (s *Store) ClearUnscored(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, clearUnscoredSQL)
	if err != nil {
		return 0, fmt.Errorf("clear unscored applicants: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear unscored applicants: %w", err)
	}
	return n, nil
}

// Ping checks the database and, when configured, the cache.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

func (s *Store) cachedScore(ctx context.Context, userID string) (*models.ScoreSummary, bool) {
	if s.cache == nil {
		return nil, false
	}

	val, err := s.cache.Get(ctx, CacheKey(userID)).Result()
	if err != nil {
		if !stderrors.Is(err, redis.Nil) {
			s.logger.Warn("score cache read failed", map[string]interface{}{
				"userId": userID,
				"error":  errors.NewCacheOperationFailedError("get", err),
			})
		}
		return nil, false
	}

	var summary models.ScoreSummary
	if err := json.Unmarshal([]byte(val), &summary); err != nil {
		s.logger.Warn("discarding malformed cached score", map[string]interface{}{
			"userId": userID,
			"error":  err,
		})
		return nil, false
	}
	return &summary, true
}

func (s *Store) cacheScore(ctx context.Context, summary *models.ScoreSummary) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(summary)
	if err != nil {
		s.logger.Warn("score not cached", map[string]interface{}{
			"userId": summary.UserID,
			"error":  err,
		})
		return
	}

	if err := s.cache.Set(ctx, CacheKey(summary.UserID), data, s.ttl).Err(); err != nil {
		s.logger.Warn("score cache write failed", map[string]interface{}{
			"userId": summary.UserID,
			"error":  errors.NewCacheOperationFailedError("set", err),
		})
	}
}

func nullableJSON(b []byte) interface{} {
	if b == nil {
		return nil
	}
	return string(b)
}
