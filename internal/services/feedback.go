package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/reframeapp/reframe/internal/database"
	"github.com/reframeapp/reframe/internal/models"
	"github.com/sirupsen/logrus"
)

const unknownLabel = "Unknown"

// StatsCache stores the aggregated feedback stats between writes.
type StatsCache interface {
	CacheFeedbackStats(ctx context.Context, stats map[string]models.FeedbackStat, expiration time.Duration) error
	GetCachedFeedbackStats(ctx context.Context) (map[string]models.FeedbackStat, error)
	InvalidateFeedbackStats(ctx context.Context) error
}

type FeedbackService struct {
	feedback models.FeedbackRepository
	cache    StatsCache
	ttl      time.Duration
	logger   *logrus.Logger
}

// NewFeedbackService creates the service. cache may be nil.
func NewFeedbackService(feedback models.FeedbackRepository, cache StatsCache, ttl time.Duration, logger *logrus.Logger) *FeedbackService {
	return &FeedbackService{
		feedback: feedback,
		cache:    cache,
		ttl:      ttl,
		logger:   logger,
	}
}

// Record stores one feedback click. Repeated clicks for the same rewrite are
// stored separately.
func (s *FeedbackService) Record(ctx context.Context, req models.FeedbackRequest) (string, error) {
	if req.RewriteID == "" {
		return "", invalidInput("rewrite_id is required")
	}
	if req.Helpful == nil {
		return "", invalidInput("helpful must be a boolean")
	}

	record := &models.Feedback{
		RewriteID:   req.RewriteID,
		Helpful:     *req.Helpful,
		Environment: req.Environment,
		Outcome:     req.Outcome,
	}
	if err := s.feedback.Create(ctx, record); err != nil {
		return "", fmt.Errorf("failed to save feedback: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.InvalidateFeedbackStats(ctx); err != nil {
			s.logger.WithError(err).Warn("Failed to invalidate feedback stats cache")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"feedback_id": record.ID,
		"rewrite_id":  record.RewriteID,
		"helpful":     record.Helpful,
	}).Info("Feedback recorded")

	return record.ID, nil
}

// Stats returns helpfulness per environment/outcome pair, from cache when
// possible.
func (s *FeedbackService) Stats(ctx context.Context) (map[string]models.FeedbackStat, error) {
	if s.cache != nil {
		stats, err := s.cache.GetCachedFeedbackStats(ctx)
		if err == nil {
			return stats, nil
		}
		if !errors.Is(err, database.ErrCacheMiss) {
			s.logger.WithError(err).Warn("Feedback stats cache read failed")
		}
	}

	rows, err := s.feedback.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load feedback: %w", err)
	}
	stats := AggregateFeedback(rows)

	if s.cache != nil {
		if err := s.cache.CacheFeedbackStats(ctx, stats, s.ttl); err != nil {
			s.logger.WithError(err).Warn("Failed to cache feedback stats")
		}
	}
	return stats, nil
}

// AggregateFeedback groups rows by "<environment>_<outcome>", using Unknown
// for a missing label. Rate is the rounded helpful percentage.
func AggregateFeedback(rows []models.Feedback) map[string]models.FeedbackStat {
	stats := make(map[string]models.FeedbackStat)
	for _, row := range rows {
		key := labelOrUnknown(row.Environment) + "_" + labelOrUnknown(row.Outcome)
		stat := stats[key]
		stat.Total++
		if row.Helpful {
			stat.Helpful++
		}
		stats[key] = stat
	}

	for key, stat := range stats {
		stat.Rate = int(math.Round(float64(stat.Helpful) * 100 / float64(stat.Total)))
		stats[key] = stat
	}
	return stats
}

func labelOrUnknown(label *string) string {
	if label == nil || *label == "" {
		return unknownLabel
	}
	return *label
}
