package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-assessment-api/internal/dto"
	"github.com/noah-isme/gema-assessment-api/internal/observability"
)

// generationTTL bounds how long a generation counter outlives its summary.
const generationTTL = 24 * time.Hour

var errSummaryStale = errors.New("summary generation moved")

// SummaryCache stores computed summaries. It is only ever a shortcut: every
// miss recomputes from the full answer set.
//
// Each (student, assessment) pair carries a generation counter that
// Invalidate bumps. Get reports the generation it observed and Set only
// writes when that generation is still current, so a summary computed before
// a submit or grade change can never overwrite the newer state.
type SummaryCache interface {
	Get(ctx context.Context, studentID, assessmentID uint) (summary dto.SummaryResponse, generation int64, ok bool)
	Set(ctx context.Context, summary dto.SummaryResponse, generation int64)
	Invalidate(ctx context.Context, studentID, assessmentID uint)
}

type redisSummaryCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewSummaryCache builds a Redis-backed cache. A nil client disables caching.
func NewSummaryCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) SummaryCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &redisSummaryCache{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "summary_cache").Logger(),
	}
}

func summaryCacheKey(studentID, assessmentID uint) string {
	return fmt.Sprintf("summary:student:%d:assessment:%d", studentID, assessmentID)
}

func summaryGenerationKey(studentID, assessmentID uint) string {
	return summaryCacheKey(studentID, assessmentID) + ":generation"
}

// Get returns generation -1 when redis could not be read; Set ignores it.
func (c *redisSummaryCache) Get(ctx context.Context, studentID, assessmentID uint) (dto.SummaryResponse, int64, bool) {
	if c.client == nil {
		return dto.SummaryResponse{}, -1, false
	}

	values, err := c.client.MGet(ctx, summaryCacheKey(studentID, assessmentID), summaryGenerationKey(studentID, assessmentID)).Result()
	if err != nil || len(values) != 2 {
		c.logger.Warn().Err(err).Msg("failed to read summary cache")
		observability.SummaryCacheLookups().WithLabelValues("miss").Inc()
		return dto.SummaryResponse{}, -1, false
	}

	generation, err := parseGeneration(values[1])
	if err != nil {
		c.logger.Warn().Err(err).Msg("invalid summary generation")
		observability.SummaryCacheLookups().WithLabelValues("miss").Inc()
		return dto.SummaryResponse{}, -1, false
	}

	cached, ok := values[0].(string)
	if !ok {
		observability.SummaryCacheLookups().WithLabelValues("miss").Inc()
		return dto.SummaryResponse{}, generation, false
	}

	var summary dto.SummaryResponse
	if err := json.Unmarshal([]byte(cached), &summary); err != nil {
		observability.SummaryCacheLookups().WithLabelValues("miss").Inc()
		return dto.SummaryResponse{}, generation, false
	}

	observability.SummaryCacheLookups().WithLabelValues("hit").Inc()
	return summary, generation, true
}

func (c *redisSummaryCache) Set(ctx context.Context, summary dto.SummaryResponse, generation int64) {
	if c.client == nil || generation < 0 {
		return
	}

	payload, err := json.Marshal(summary)
	if err != nil {
		return
	}

	key := summaryCacheKey(summary.StudentID, summary.AssessmentID)
	generationKey := summaryGenerationKey(summary.StudentID, summary.AssessmentID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, generationKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		current, err := parseGeneration(raw)
		if err != nil {
			return err
		}
		if current != generation {
			return errSummaryStale
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, c.ttl)
			return nil
		})
		return err
	}, generationKey)

	switch {
	case err == nil:
	case errors.Is(err, errSummaryStale), errors.Is(err, redis.TxFailedErr):
		c.logger.Debug().
			Uint("student_id", summary.StudentID).
			Uint("assessment_id", summary.AssessmentID).
			Msg("discarded stale summary")
	default:
		c.logger.Warn().Err(err).Msg("failed to store summary cache")
	}
}

func (c *redisSummaryCache) Invalidate(ctx context.Context, studentID, assessmentID uint) {
	if c.client == nil {
		return
	}

	generationKey := summaryGenerationKey(studentID, assessmentID)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey)
		pipe.Expire(ctx, generationKey, generationTTL)
		pipe.Del(ctx, summaryCacheKey(studentID, assessmentID))
		return nil
	})
	if err != nil {
		c.logger.Warn().Err(err).Uint("student_id", studentID).Uint("assessment_id", assessmentID).Msg("failed to invalidate summary cache")
	}
}

func parseGeneration(value interface{}) (int64, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case string:
		if v == "" {
			return 0, nil
		}
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected generation value %T", value)
	}
}
