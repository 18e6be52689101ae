package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/reframeapp/reframe/internal/aigateway"
	"github.com/reframeapp/reframe/internal/database"
	"github.com/reframeapp/reframe/internal/identity"
	"github.com/reframeapp/reframe/internal/models"
)

type fakeRewriteRepo struct {
	mu        sync.Mutex
	rows      []models.Rewrite
	createErr error
	countErr  error
	counts    int
}

func (f *fakeRewriteRepo) Create(ctx context.Context, r *models.Rewrite) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	f.rows = append(f.rows, *r)
	return nil
}

func (f *fakeRewriteRepo) CountSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts++
	if f.countErr != nil {
		return 0, f.countErr
	}
	var n int64
	for _, r := range f.rows {
		if r.UserID != nil && *r.UserID == userID && !r.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (f *fakeRewriteRepo) ListByUser(ctx context.Context, userID string, limit int) ([]models.Rewrite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Rewrite
	for i := len(f.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if r := f.rows[i]; r.UserID != nil && *r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRewriteRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.rows[:0]
	var deleted int64
	for _, r := range f.rows {
		if r.UserID != nil && *r.UserID == userID {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	f.rows = kept
	return deleted, nil
}

func (f *fakeRewriteRepo) DeleteOne(ctx context.Context, userID, id string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.rows {
		if r.ID == id && r.UserID != nil && *r.UserID == userID {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeRewriteRepo) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

// seed adds n rows for userID created at the given time.
func (f *fakeRewriteRepo) seed(userID string, n int, at time.Time) {
	for i := 0; i < n; i++ {
		uid := userID
		f.Create(context.Background(), &models.Rewrite{UserID: &uid, OriginalText: "seed", CreatedAt: at})
	}
}

type fakeCompleter struct {
	mu      sync.Mutex
	content string
	err     error
	calls   int
	hook    func()
}

func (f *fakeCompleter) Complete(ctx context.Context, system, user string) (*aigateway.Completion, error) {
	f.mu.Lock()
	f.calls++
	hook := f.hook
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &aigateway.Completion{Content: f.content, Latency: 42 * time.Millisecond}, nil
}

func (f *fakeCompleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeEntitlements struct {
	pro   bool
	err   error
	calls int
}

func (f *fakeEntitlements) IsPro(ctx context.Context, id *identity.Identity) (bool, error) {
	f.calls++
	return f.pro, f.err
}

type fakeFeedbackRepo struct {
	rows    []models.Feedback
	listErr error
	lists   int
}

func (f *fakeFeedbackRepo) Create(ctx context.Context, fb *models.Feedback) error {
	if fb.ID == "" {
		fb.ID = uuid.NewString()
	}
	f.rows = append(f.rows, *fb)
	return nil
}

func (f *fakeFeedbackRepo) ListAll(ctx context.Context) ([]models.Feedback, error) {
	f.lists++
	return f.rows, f.listErr
}

type fakeStatsCache struct {
	stats       map[string]models.FeedbackStat
	getErr      error
	invalidated int
}

func (f *fakeStatsCache) CacheFeedbackStats(ctx context.Context, stats map[string]models.FeedbackStat, expiration time.Duration) error {
	f.stats = stats
	return nil
}

func (f *fakeStatsCache) GetCachedFeedbackStats(ctx context.Context) (map[string]models.FeedbackStat, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.stats == nil {
		return nil, database.ErrCacheMiss
	}
	return f.stats, nil
}

func (f *fakeStatsCache) InvalidateFeedbackStats(ctx context.Context) error {
	f.invalidated++
	f.stats = nil
	return nil
}

type fakeRoleRepo struct {
	roles   map[string]map[string]bool
	applied [][]models.RoleChange
	err     error
}

func (f *fakeRoleRepo) HasRole(ctx context.Context, userID, role string) (bool, error) {
	return f.roles[userID][role], nil
}

func (f *fakeRoleRepo) List(ctx context.Context) ([]models.UserRole, error) {
	var out []models.UserRole
	for user, roles := range f.roles {
		for role := range roles {
			out = append(out, models.UserRole{UserID: user, Role: role})
		}
	}
	return out, nil
}

func (f *fakeRoleRepo) ApplyChanges(ctx context.Context, changes []models.RoleChange) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.applied = append(f.applied, changes)
	return len(changes), nil
}

var errBoom = errors.New("boom")

const validCompletion = `{
  "inferred": {"environment": "Work", "outcome": "Clarity", "desired_emotion": "Calm"},
  "diagnostics": {"intent_summary": "Wants the task finished quickly", "tone_issues": "abrupt"},
  "rewrites": [
    {
      "text": "Could we aim to wrap this up by end of day?",
      "tone_label": "Collaborative",
      "pillars": {"intent": "finish", "message": "deadline", "position": "peer", "action": "wrap up", "calibration": "soft"},
      "rationale": "Invites agreement on a deadline.",
      "cautions": "May read as optional."
    }
  ]
}`
