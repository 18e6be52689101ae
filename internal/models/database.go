package models

// GORM models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Rewrite is one persisted rewrite call from an identified user.
// Rows are never updated; they are removed only by the owner's history delete.
type Rewrite struct {
	ID                  string    `json:"id" gorm:"type:uuid;primaryKey"`
	UserID              *string   `json:"user_id" gorm:"type:uuid;index:idx_rewrites_user_created,priority:1"`
	OriginalText        string    `json:"original_text" gorm:"type:text;not null"`
	Environment         *string   `json:"environment"`
	Outcome             *string   `json:"outcome"`
	DesiredEmotion      *string   `json:"desired_emotion"`
	InferredEnvironment *string   `json:"inferred_environment"`
	InferredOutcome     *string   `json:"inferred_outcome"`
	InferredEmotion     *string   `json:"inferred_emotion"`
	IntentSummary       *string   `json:"intent_summary" gorm:"type:text"`
	ModelLatencyMs      int64     `json:"model_latency_ms" gorm:"default:0"`
	CreatedAt           time.Time `json:"created_at" gorm:"index:idx_rewrites_user_created,priority:2"`
}

// Feedback is one thumbs-up/down click on a rewrite. Labels are copied at
// write time so stats never need a join.
type Feedback struct {
	ID          string    `json:"id" gorm:"type:uuid;primaryKey"`
	RewriteID   string    `json:"rewrite_id" gorm:"type:uuid;not null;index"`
	Helpful     bool      `json:"helpful" gorm:"not null"`
	Environment *string   `json:"environment"`
	Outcome     *string   `json:"outcome"`
	CreatedAt   time.Time `json:"created_at"`
}

const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
	RoleUser      = "user"
)

// UserRole grants a role to a user. A user may hold several roles.
type UserRole struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    string    `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:ux_user_roles_user_role,priority:1"`
	Role      string    `json:"role" gorm:"not null;uniqueIndex:ux_user_roles_user_role,priority:2;check:role IN ('admin','moderator','user')"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	RoleActionAdd    = "add"
	RoleActionRemove = "remove"
)

// RoleChange is one staged edit from the admin dashboard.
type RoleChange struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	Action string `json:"action"`
}

// Database interfaces for repository pattern
type RewriteRepository interface {
	Create(ctx context.Context, rewrite *Rewrite) error
	CountSince(ctx context.Context, userID string, since time.Time) (int64, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]Rewrite, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
	DeleteOne(ctx context.Context, userID, id string) (int64, error)
}

type FeedbackRepository interface {
	Create(ctx context.Context, feedback *Feedback) error
	ListAll(ctx context.Context) ([]Feedback, error)
}

type UserRoleRepository interface {
	HasRole(ctx context.Context, userID, role string) (bool, error)
	List(ctx context.Context) ([]UserRole, error)
	ApplyChanges(ctx context.Context, changes []RoleChange) (int, error)
}

func (Rewrite) TableName() string  { return "rewrites" }
func (Feedback) TableName() string { return "feedback" }
func (UserRole) TableName() string { return "user_roles" }

// Model validation methods
func (r *Rewrite) Validate() error {
	if strings.TrimSpace(r.OriginalText) == "" {
		return fmt.Errorf("original text is required")
	}
	if r.UserID == nil || *r.UserID == "" {
		return fmt.Errorf("user ID is required")
	}
	if r.ModelLatencyMs < 0 {
		return fmt.Errorf("model latency cannot be negative")
	}
	return nil
}

func (f *Feedback) Validate() error {
	if f.RewriteID == "" {
		return fmt.Errorf("rewrite ID is required")
	}
	return nil
}

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleModerator, RoleUser:
		return true
	}
	return false
}

func (ur *UserRole) Validate() error {
	if ur.UserID == "" {
		return fmt.Errorf("user ID is required")
	}
	if !ValidRole(ur.Role) {
		return fmt.Errorf("invalid role: %s", ur.Role)
	}
	return nil
}

func (rc RoleChange) Validate() error {
	if _, err := uuid.Parse(rc.UserID); err != nil {
		return fmt.Errorf("invalid user_id %q", rc.UserID)
	}
	if !ValidRole(rc.Role) {
		return fmt.Errorf("invalid role %q", rc.Role)
	}
	if rc.Action != RoleActionAdd && rc.Action != RoleActionRemove {
		return fmt.Errorf("invalid action %q", rc.Action)
	}
	return nil
}

// GORM hooks
func (r *Rewrite) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return r.Validate()
}

func (f *Feedback) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return f.Validate()
}

func (ur *UserRole) BeforeCreate(tx *gorm.DB) error {
	if ur.ID == "" {
		ur.ID = uuid.NewString()
	}
	return ur.Validate()
}
