package models

import "time"

type RewriteRequest struct {
	UserText       string `json:"user_text"`
	Environment    string `json:"environment"`
	Outcome        string `json:"outcome"`
	DesiredEmotion string `json:"desired_emotion"`
	AllowInfer     *bool  `json:"allow_infer"`
}

// InferAllowed reports the allow_infer flag, which defaults to true.
func (r RewriteRequest) InferAllowed() bool {
	return r.AllowInfer == nil || *r.AllowInfer
}

type RewriteResponse struct {
	RewriteContent
	RewriteID      *string `json:"rewrite_id"`
	ModelLatencyMs int64   `json:"model_latency_ms"`
}

type QuotaExceededResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Limit   int    `json:"limit"`
	Used    int64  `json:"used"`
}

type FeedbackRequest struct {
	RewriteID   string  `json:"rewrite_id"`
	Helpful     *bool   `json:"helpful"`
	Environment *string `json:"environment"`
	Outcome     *string `json:"outcome"`
}

type FeedbackResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

type FeedbackStat struct {
	Total   int `json:"total"`
	Helpful int `json:"helpful"`
	Rate    int `json:"rate"`
}

type FeedbackStatsResponse struct {
	Stats map[string]FeedbackStat `json:"stats"`
}

type UsageResponse struct {
	Used      int64  `json:"used"`
	Limit     int    `json:"limit"`
	IsPro     bool   `json:"is_pro"`
	Remaining *int64 `json:"remaining"`
}

type HistoryResponse struct {
	Rewrites []Rewrite `json:"rewrites"`
}

type DeleteHistoryResponse struct {
	Success bool  `json:"success"`
	Deleted int64 `json:"deleted"`
}

type SubscriptionStatus struct {
	Subscribed      bool       `json:"subscribed"`
	ProductID       *string    `json:"product_id"`
	SubscriptionEnd *time.Time `json:"subscription_end"`
}

type CheckoutResponse struct {
	URL string `json:"url"`
}

type VoiceTokenResponse struct {
	Token string `json:"token"`
}

type Course struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

type CourseRecommendation struct {
	Environment string   `json:"environment"`
	Outcome     string   `json:"outcome"`
	Courses     []Course `json:"courses"`
}

type RoleListResponse struct {
	Roles []UserRole `json:"roles"`
}

type RoleBatchRequest struct {
	Changes []RoleChange `json:"changes"`
}

type RoleBatchResponse struct {
	Applied int `json:"applied"`
}
