package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/reframeapp/reframe/internal/aigateway"
	"github.com/reframeapp/reframe/internal/identity"
	"github.com/reframeapp/reframe/internal/models"
	"github.com/reframeapp/reframe/internal/prompt"
	"github.com/sirupsen/logrus"
)

// MaxUserTextLength is the longest accepted input, in characters.
const MaxUserTextLength = 1500

// Completer sends a composed prompt to the language model.
type Completer interface {
	Complete(ctx context.Context, system, user string) (*aigateway.Completion, error)
}

// Entitlements reports whether a caller has unlimited usage.
type Entitlements interface {
	IsPro(ctx context.Context, id *identity.Identity) (bool, error)
}

type RewriteService struct {
	completer    Completer
	entitlements Entitlements
	quota        *QuotaCounter
	rewrites     models.RewriteRepository
	logger       *logrus.Logger
}

func NewRewriteService(
	completer Completer,
	entitlements Entitlements,
	quota *QuotaCounter,
	rewrites models.RewriteRepository,
	logger *logrus.Logger,
) *RewriteService {
	return &RewriteService{
		completer:    completer,
		entitlements: entitlements,
		quota:        quota,
		rewrites:     rewrites,
		logger:       logger,
	}
}

// Rewrite runs one rewrite request. id is nil for guests, who are never
// quota-checked or persisted. A failed insert is logged and the response
// carries a nil RewriteID.
func (s *RewriteService) Rewrite(ctx context.Context, id *identity.Identity, req models.RewriteRequest) (*models.RewriteResponse, error) {
	input := prompt.Input{
		Text:           req.UserText,
		Environment:    req.Environment,
		Outcome:        req.Outcome,
		DesiredEmotion: req.DesiredEmotion,
		AllowInfer:     req.InferAllowed(),
	}
	if err := input.Validate(); err != nil {
		return nil, invalidInput("user_text is required")
	}
	if utf8.RuneCountInString(req.UserText) > MaxUserTextLength {
		return nil, invalidInput("user_text is too long")
	}

	if id != nil {
		pro, err := s.entitlements.IsPro(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("entitlement check failed: %w", err)
		}
		if !pro {
			if err := s.quota.Check(ctx, id.UserID); err != nil {
				return nil, err
			}
		}
	}

	p, err := prompt.Compose(input)
	if err != nil {
		return nil, invalidInput("user_text is required")
	}

	completion, err := s.completer.Complete(ctx, p.System, p.User)
	if err != nil {
		s.logger.WithError(err).Error("Gateway call failed")
		return nil, err
	}

	content, err := ParseCompletion(completion.Content)
	if err != nil {
		s.logger.WithError(err).WithField("content_size", len(completion.Content)).Error("Model output rejected")
		return nil, err
	}

	latencyMs := completion.Latency.Milliseconds()

	var rewriteID *string
	if id != nil {
		rewriteID = s.persist(ctx, id, req, content, latencyMs)
	}

	s.logger.WithFields(logrus.Fields{
		"identified": id != nil,
		"variants":   len(content.Rewrites),
		"latency_ms": latencyMs,
		"persisted":  rewriteID != nil,
	}).Info("Rewrite completed")

	return &models.RewriteResponse{
		RewriteContent: *content,
		RewriteID:      rewriteID,
		ModelLatencyMs: latencyMs,
	}, nil
}

func (s *RewriteService) persist(ctx context.Context, id *identity.Identity, req models.RewriteRequest, content *models.RewriteContent, latencyMs int64) *string {
	userID := id.UserID
	record := &models.Rewrite{
		UserID:         &userID,
		OriginalText:   req.UserText,
		Environment:    optional(req.Environment),
		Outcome:        optional(req.Outcome),
		DesiredEmotion: optional(req.DesiredEmotion),
		IntentSummary:  optional(content.Diagnostics.IntentSummary()),
		ModelLatencyMs: latencyMs,
	}
	if inf := content.Inferred; inf != nil {
		record.InferredEnvironment = optional(inf.Environment)
		record.InferredOutcome = optional(inf.Outcome)
		record.InferredEmotion = optional(inf.DesiredEmotion)
	}

	if err := s.rewrites.Create(ctx, record); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("Failed to save rewrite history")
		return nil
	}
	return &record.ID
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// IsUpstreamError reports whether err came from the language model gateway.
func IsUpstreamError(err error) bool {
	return errors.Is(err, aigateway.ErrRateLimited) ||
		errors.Is(err, aigateway.ErrPaymentRequired) ||
		errors.Is(err, aigateway.ErrUpstreamUnavailable) ||
		errors.Is(err, aigateway.ErrEmptyCompletion)
}
