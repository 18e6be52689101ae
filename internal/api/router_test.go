package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/reframeapp/reframe/internal/aigateway"
	"github.com/reframeapp/reframe/internal/api/handlers"
	"github.com/reframeapp/reframe/internal/billing"
	"github.com/reframeapp/reframe/internal/health"
	"github.com/reframeapp/reframe/internal/identity"
	"github.com/reframeapp/reframe/internal/models"
	"github.com/reframeapp/reframe/internal/services"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const completion = "```json\n" + `{
  "inferred": {"environment": "Work", "outcome": "Clarity", "desired_emotion": "Calm"},
  "diagnostics": {"intent_summary": "Wants it done fast"},
  "rewrites": [{
    "text": "Could we wrap this up today?",
    "tone_label": "Collaborative",
    "pillars": {"intent": "a", "message": "b", "position": "c", "action": "d", "calibration": "e"},
    "rationale": "Invites agreement.",
    "cautions": ""
  }]
}` + "\n```"

type memRewrites struct {
	mu   sync.Mutex
	rows []models.Rewrite
}

func (m *memRewrites) Create(ctx context.Context, r *models.Rewrite) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = uuid.NewString()
	r.CreatedAt = time.Now()
	m.rows = append(m.rows, *r)
	return nil
}

func (m *memRewrites) CountSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.rows {
		if *r.UserID == userID && !r.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (m *memRewrites) ListByUser(ctx context.Context, userID string, limit int) ([]models.Rewrite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Rewrite
	for i := len(m.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if *m.rows[i].UserID == userID {
			out = append(out, m.rows[i])
		}
	}
	return out, nil
}

func (m *memRewrites) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []models.Rewrite
	for _, r := range m.rows {
		if *r.UserID != userID {
			kept = append(kept, r)
		}
	}
	deleted := int64(len(m.rows) - len(kept))
	m.rows = kept
	return deleted, nil
}

func (m *memRewrites) DeleteOne(ctx context.Context, userID, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.rows {
		if r.ID == id && *r.UserID == userID {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (m *memRewrites) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type memFeedback struct{ rows []models.Feedback }

func (m *memFeedback) Create(ctx context.Context, f *models.Feedback) error {
	f.ID = uuid.NewString()
	m.rows = append(m.rows, *f)
	return nil
}

func (m *memFeedback) ListAll(ctx context.Context) ([]models.Feedback, error) { return m.rows, nil }

type memRoles struct{ admins map[string]bool }

func (m *memRoles) HasRole(ctx context.Context, userID, role string) (bool, error) {
	return role == models.RoleAdmin && m.admins[userID], nil
}

func (m *memRoles) List(ctx context.Context) ([]models.UserRole, error) {
	var out []models.UserRole
	for id := range m.admins {
		out = append(out, models.UserRole{UserID: id, Role: models.RoleAdmin})
	}
	return out, nil
}

func (m *memRoles) ApplyChanges(ctx context.Context, changes []models.RoleChange) (int, error) {
	return len(changes), nil
}

type stubCompleter struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (s *stubCompleter) Complete(ctx context.Context, system, user string) (*aigateway.Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &aigateway.Completion{Content: completion, Latency: 120 * time.Millisecond}, nil
}

// stubBilling treats every email in pro as subscribed.
type stubBilling struct{ pro map[string]bool }

func (s *stubBilling) FindCustomerID(ctx context.Context, email string) (string, error) {
	if s.pro[email] {
		return "cus_" + email, nil
	}
	return "", nil
}

func (s *stubBilling) ActiveSubscription(ctx context.Context, customerID string) (*billing.Subscription, error) {
	return &billing.Subscription{ID: "sub_1", ProductID: "prod_pro", CurrentPeriodEnd: time.Now().Add(24 * time.Hour)}, nil
}

func (s *stubBilling) CreateCheckoutSession(ctx context.Context, req billing.CheckoutRequest) (string, error) {
	return "https://checkout.test/" + req.SuccessURL, nil
}

type stubResolver map[string]*identity.Identity

func (s stubResolver) Resolve(ctx context.Context, token string) (*identity.Identity, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return nil, errors.New("invalid token")
}

type stubMinter struct{}

func (stubMinter) MintToken(ctx context.Context) (string, error) { return "voice-token", nil }

type stubHealth struct{ status string }

func (s stubHealth) Check(ctx context.Context) health.OverallHealth {
	return health.OverallHealth{Status: s.status}
}

type testApp struct {
	router    *gin.Engine
	rewrites  *memRewrites
	completer *stubCompleter
	free      *identity.Identity
	pro       *identity.Identity
	admin     *identity.Identity
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	logger := logrus.New()

	free := &identity.Identity{UserID: uuid.NewString(), Email: "free@example.com"}
	pro := &identity.Identity{UserID: uuid.NewString(), Email: "pro@example.com"}
	admin := &identity.Identity{UserID: uuid.NewString(), Email: "admin@example.com"}

	rewrites := &memRewrites{}
	completer := &stubCompleter{}
	roles := &memRoles{admins: map[string]bool{admin.UserID: true}}
	gateway := &stubBilling{pro: map[string]bool{pro.Email: true}}

	entitlements := billing.NewEntitlementChecker(gateway, logger)
	quota := services.NewQuotaCounter(rewrites, 5, logger)
	roleService := services.NewRoleService(roles, logger)

	router := NewRouter(Deps{
		Resolver: stubResolver{"free": free, "pro": pro, "admin": admin},
		Admins:   roleService,
		Logger:   logger,
		Rewrite:  handlers.NewRewriteHandler(services.NewRewriteService(completer, entitlements, quota, rewrites, logger), logger),
		Feedback: handlers.NewFeedbackHandler(services.NewFeedbackService(&memFeedback{}, nil, time.Minute, logger), logger),
		Account: handlers.NewAccountHandler(
			services.NewAccountService(quota, entitlements, rewrites, logger),
			services.NewCourseService(rewrites, logger),
			logger,
		),
		Billing: handlers.NewBillingHandler(entitlements, billing.NewCheckout(gateway, "price_1", "", ""), logger),
		Voice:   handlers.NewVoiceHandler(entitlements, stubMinter{}, logger),
		Admin:   handlers.NewAdminHandler(roleService, logger),
		Health:  handlers.NewHealthHandler(stubHealth{status: health.StatusHealthy}),
	})

	return &testApp{router: router, rewrites: rewrites, completer: completer, free: free, pro: pro, admin: admin}
}

func (a *testApp) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://app.example")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestRewrite_GuestScenario(t *testing.T) {
	app := newTestApp(t)

	w := app.do("POST", "/functions/v1/rewrite", "", gin.H{"user_text": "I need this done ASAP", "allow_infer": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	var resp map[string]interface{}
	decode(t, w, &resp)
	assert.Contains(t, resp, "rewrite_id")
	assert.Nil(t, resp["rewrite_id"])
	assert.Len(t, resp["rewrites"], 1)
	assert.EqualValues(t, 120, resp["model_latency_ms"])
	assert.Zero(t, app.rewrites.count())
}

func TestRewrite_BadTokenIsAnonymous(t *testing.T) {
	app := newTestApp(t)

	w := app.do("POST", "/functions/v1/rewrite", "expired", gin.H{"user_text": "hello"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, app.rewrites.count())
}

func TestRewrite_EmptyText(t *testing.T) {
	app := newTestApp(t)

	w := app.do("POST", "/functions/v1/rewrite", "free", gin.H{"user_text": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"user_text is required"}`, w.Body.String())
	assert.Zero(t, app.completer.calls)
}

func TestRewrite_SixthCallHitsQuota(t *testing.T) {
	app := newTestApp(t)

	for i := 0; i < 5; i++ {
		w := app.do("POST", "/functions/v1/rewrite", "free", gin.H{"user_text": "hello"})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := app.do("POST", "/functions/v1/rewrite", "free", gin.H{"user_text": "hello"})
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	var body models.QuotaExceededResponse
	decode(t, w, &body)
	assert.Equal(t, "daily_limit_reached", body.Error)
	assert.Equal(t, 5, body.Limit)
	assert.Equal(t, int64(5), body.Used)
	assert.Equal(t, 5, app.completer.calls)

	w = app.do("GET", "/functions/v1/usage", "free", nil)
	var usage models.UsageResponse
	decode(t, w, &usage)
	assert.Equal(t, int64(5), usage.Used)
	assert.Equal(t, int64(0), *usage.Remaining)
}

func TestRewrite_ProIsUnlimited(t *testing.T) {
	app := newTestApp(t)

	for i := 0; i < 7; i++ {
		w := app.do("POST", "/functions/v1/rewrite", "pro", gin.H{"user_text": "hello"})
		require.Equal(t, http.StatusOK, w.Code)

		var resp models.RewriteResponse
		decode(t, w, &resp)
		assert.NotNil(t, resp.RewriteID)
	}
	assert.Equal(t, 7, app.rewrites.count())
}

func TestRewrite_GatewayPaymentRequired(t *testing.T) {
	app := newTestApp(t)
	app.completer.err = &aigateway.APIError{StatusCode: http.StatusPaymentRequired}

	w := app.do("POST", "/functions/v1/rewrite", "free", gin.H{"user_text": "hello"})
	assert.Equal(t, http.StatusPaymentRequired, w.Code)

	var body map[string]string
	decode(t, w, &body)
	assert.Contains(t, body["error"], "Payment required")
	assert.Zero(t, app.rewrites.count())
}

func TestPreflight(t *testing.T) {
	app := newTestApp(t)

	w := app.do("OPTIONS", "/functions/v1/rewrite", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestFeedbackFlow(t *testing.T) {
	app := newTestApp(t)
	rewriteID := uuid.NewString()

	w := app.do("POST", "/functions/v1/feedback", "", gin.H{"rewrite_id": rewriteID})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do("POST", "/functions/v1/feedback", "", gin.H{"helpful": true})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	for i := 0; i < 2; i++ {
		w = app.do("POST", "/functions/v1/feedback", "", gin.H{"rewrite_id": rewriteID, "helpful": true, "environment": "Work"})
		require.Equal(t, http.StatusOK, w.Code)
		var resp models.FeedbackResponse
		decode(t, w, &resp)
		assert.True(t, resp.Success)
		assert.NotEmpty(t, resp.ID)
	}

	w = app.do("GET", "/functions/v1/feedback-stats", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"stats":{"Work_Unknown":{"total":2,"helpful":2,"rate":100}}}`, w.Body.String())
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	app := newTestApp(t)

	for _, route := range []struct{ method, path string }{
		{"GET", "/functions/v1/usage"},
		{"GET", "/functions/v1/history"},
		{"DELETE", "/functions/v1/history"},
		{"POST", "/functions/v1/check-subscription"},
		{"POST", "/functions/v1/create-checkout"},
		{"POST", "/functions/v1/voice-token"},
		{"GET", "/functions/v1/recommend-course"},
		{"GET", "/functions/v1/admin/roles"},
	} {
		w := app.do(route.method, route.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, route.path)
		assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
	}
}

func TestHistoryFlow(t *testing.T) {
	app := newTestApp(t)

	app.do("POST", "/functions/v1/rewrite", "free", gin.H{"user_text": "one"})
	app.do("POST", "/functions/v1/rewrite", "free", gin.H{"user_text": "two"})
	app.do("POST", "/functions/v1/rewrite", "pro", gin.H{"user_text": "theirs"})

	w := app.do("GET", "/functions/v1/history?limit=10", "free", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history models.HistoryResponse
	decode(t, w, &history)
	require.Len(t, history.Rewrites, 2)
	assert.Equal(t, "two", history.Rewrites[0].OriginalText)

	assert.Equal(t, http.StatusBadRequest, app.do("GET", "/functions/v1/history?limit=abc", "free", nil).Code)
	assert.Equal(t, http.StatusBadRequest, app.do("GET", "/functions/v1/history?limit=500", "free", nil).Code)

	w = app.do("GET", "/functions/v1/history", "pro", nil)
	var theirs models.HistoryResponse
	decode(t, w, &theirs)
	require.Len(t, theirs.Rewrites, 1)

	w = app.do("DELETE", "/functions/v1/history/"+theirs.Rewrites[0].ID, "free", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.do("DELETE", "/functions/v1/history/"+history.Rewrites[0].ID, "free", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = app.do("DELETE", "/functions/v1/history", "free", nil)
	assert.JSONEq(t, `{"success":true,"deleted":1}`, w.Body.String())
	assert.Equal(t, 1, app.rewrites.count())
}

func TestRecommendCourse(t *testing.T) {
	app := newTestApp(t)
	app.do("POST", "/functions/v1/rewrite", "free", gin.H{"user_text": "hello"})

	w := app.do("GET", "/functions/v1/recommend-course", "free", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var rec models.CourseRecommendation
	decode(t, w, &rec)
	assert.Equal(t, "Work", rec.Environment)
	assert.Equal(t, "Clarity", rec.Outcome)
	require.NotEmpty(t, rec.Courses)
	assert.Equal(t, "work-clarity", rec.Courses[0].ID)
}

func TestBillingRoutes(t *testing.T) {
	app := newTestApp(t)

	w := app.do("POST", "/functions/v1/check-subscription", "free", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"subscribed":false,"product_id":null,"subscription_end":null}`, w.Body.String())

	w = app.do("POST", "/functions/v1/check-subscription", "pro", nil)
	var status models.SubscriptionStatus
	decode(t, w, &status)
	assert.True(t, status.Subscribed)
	assert.Equal(t, "prod_pro", *status.ProductID)

	w = app.do("POST", "/functions/v1/create-checkout", "free", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var checkout models.CheckoutResponse
	decode(t, w, &checkout)
	assert.Equal(t, "https://checkout.test/https://app.example/?checkout=success", checkout.URL)
}

func TestVoiceToken(t *testing.T) {
	app := newTestApp(t)

	w := app.do("POST", "/functions/v1/voice-token", "free", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"Voice practice requires an active subscription"}`, w.Body.String())

	w = app.do("POST", "/functions/v1/voice-token", "pro", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"token":"voice-token"}`, w.Body.String())
}

func TestAdminRoutes(t *testing.T) {
	app := newTestApp(t)

	assert.Equal(t, http.StatusForbidden, app.do("GET", "/functions/v1/admin/roles", "free", nil).Code)

	w := app.do("GET", "/functions/v1/admin/roles", "admin", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list models.RoleListResponse
	decode(t, w, &list)
	assert.Len(t, list.Roles, 1)

	w = app.do("POST", "/functions/v1/admin/roles/batch", "admin", gin.H{"changes": []gin.H{
		{"user_id": app.free.UserID, "role": "moderator", "action": "add"},
		{"user_id": app.free.UserID, "role": "superuser", "action": "add"},
	}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do("POST", "/functions/v1/admin/roles/batch", "admin", gin.H{"changes": []gin.H{
		{"user_id": app.free.UserID, "role": "moderator", "action": "add"},
	}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"applied":1}`, w.Body.String())
}

func TestHealthRoute(t *testing.T) {
	app := newTestApp(t)
	assert.Equal(t, http.StatusOK, app.do("GET", "/functions/v1/health", "", nil).Code)
}
