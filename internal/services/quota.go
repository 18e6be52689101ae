package services

import (
	"context"
	"time"

	"github.com/reframeapp/reframe/internal/models"
	"github.com/sirupsen/logrus"
)

// QuotaCounter enforces the daily rewrite allowance for non-Pro users by
// counting today's rows. The check does not reserve a slot, so concurrent
// requests at the boundary can all pass.
type QuotaCounter struct {
	rewrites models.RewriteRepository
	limit    int
	now      func() time.Time
	logger   *logrus.Logger
}

func NewQuotaCounter(rewrites models.RewriteRepository, limit int, logger *logrus.Logger) *QuotaCounter {
	return &QuotaCounter{
		rewrites: rewrites,
		limit:    limit,
		now:      time.Now,
		logger:   logger,
	}
}

// StartOfDay returns local midnight of t's day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func (q *QuotaCounter) Limit() int {
	return q.limit
}

// Used counts the user's rewrites since local midnight.
func (q *QuotaCounter) Used(ctx context.Context, userID string) (int64, error) {
	return q.rewrites.CountSince(ctx, userID, StartOfDay(q.now()))
}

// Check returns a *QuotaExceededError when the user is at or over the limit.
// A failed count is logged and the request is let through.
func (q *QuotaCounter) Check(ctx context.Context, userID string) error {
	used, err := q.Used(ctx, userID)
	if err != nil {
		q.logger.WithError(err).WithField("user_id", userID).Warn("Quota count failed, allowing request")
		return nil
	}

	if used >= int64(q.limit) {
		q.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"used":    used,
			"limit":   q.limit,
		}).Info("Daily limit reached")
		return &QuotaExceededError{Limit: q.limit, Used: used}
	}
	return nil
}
