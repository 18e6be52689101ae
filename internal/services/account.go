package services

import (
	"context"
	"fmt"

	"github.com/reframeapp/reframe/internal/identity"
	"github.com/reframeapp/reframe/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// AccountService serves a signed-in user's usage and history.
type AccountService struct {
	quota        *QuotaCounter
	entitlements Entitlements
	rewrites     models.RewriteRepository
	logger       *logrus.Logger
}

func NewAccountService(quota *QuotaCounter, entitlements Entitlements, rewrites models.RewriteRepository, logger *logrus.Logger) *AccountService {
	return &AccountService{
		quota:        quota,
		entitlements: entitlements,
		rewrites:     rewrites,
		logger:       logger,
	}
}

// Usage reports today's count. Remaining is nil for Pro users.
func (s *AccountService) Usage(ctx context.Context, id *identity.Identity) (*models.UsageResponse, error) {
	pro, err := s.entitlements.IsPro(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("entitlement check failed: %w", err)
	}

	used, err := s.quota.Used(ctx, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to count usage: %w", err)
	}

	resp := &models.UsageResponse{
		Used:  used,
		Limit: s.quota.Limit(),
		IsPro: pro,
	}
	if !pro {
		remaining := int64(s.quota.Limit()) - used
		if remaining < 0 {
			remaining = 0
		}
		resp.Remaining = &remaining
	}
	return resp, nil
}

// History lists the user's rewrites, newest first.
func (s *AccountService) History(ctx context.Context, userID string, limit int) ([]models.Rewrite, error) {
	if limit == 0 {
		limit = DefaultHistoryLimit
	}
	if limit < 1 || limit > MaxHistoryLimit {
		return nil, invalidInput("limit must be between 1 and %d", MaxHistoryLimit)
	}

	rewrites, err := s.rewrites.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	if rewrites == nil {
		rewrites = []models.Rewrite{}
	}
	return rewrites, nil
}

func (s *AccountService) ClearHistory(ctx context.Context, userID string) (int64, error) {
	deleted, err := s.rewrites.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete history: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"user_id": userID, "deleted": deleted}).Info("History cleared")
	return deleted, nil
}

// DeleteRewrite removes one of the user's rewrites. Another user's id is
// reported as ErrNotFound.
func (s *AccountService) DeleteRewrite(ctx context.Context, userID, rewriteID string) error {
	deleted, err := s.rewrites.DeleteOne(ctx, userID, rewriteID)
	if err != nil {
		return fmt.Errorf("failed to delete rewrite: %w", err)
	}
	if deleted == 0 {
		return ErrNotFound
	}
	return nil
}
