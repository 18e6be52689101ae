package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/reframeapp/reframe/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RewriteRepositoryImpl implements RewriteRepository
type RewriteRepositoryImpl struct {
	db *gorm.DB
}

func NewRewriteRepository(db *gorm.DB) models.RewriteRepository {
	return &RewriteRepositoryImpl{db: db}
}

func (r *RewriteRepositoryImpl) Create(ctx context.Context, rewrite *models.Rewrite) error {
	return r.db.WithContext(ctx).Create(rewrite).Error
}

func (r *RewriteRepositoryImpl) CountSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Rewrite{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Count(&count).Error
	return count, err
}

func (r *RewriteRepositoryImpl) ListByUser(ctx context.Context, userID string, limit int) ([]models.Rewrite, error) {
	var rewrites []models.Rewrite
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rewrites).Error
	return rewrites, err
}

func (r *RewriteRepositoryImpl) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.Rewrite{})
	return res.RowsAffected, res.Error
}

func (r *RewriteRepositoryImpl) DeleteOne(ctx context.Context, userID, id string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Rewrite{})
	return res.RowsAffected, res.Error
}

// FeedbackRepositoryImpl implements FeedbackRepository
type FeedbackRepositoryImpl struct {
	db *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) models.FeedbackRepository {
	return &FeedbackRepositoryImpl{db: db}
}

func (r *FeedbackRepositoryImpl) Create(ctx context.Context, feedback *models.Feedback) error {
	return r.db.WithContext(ctx).Create(feedback).Error
}

func (r *FeedbackRepositoryImpl) ListAll(ctx context.Context) ([]models.Feedback, error) {
	var feedback []models.Feedback
	err := r.db.WithContext(ctx).
		Select("id", "rewrite_id", "helpful", "environment", "outcome", "created_at").
		Find(&feedback).Error
	return feedback, err
}

// UserRoleRepositoryImpl implements UserRoleRepository
type UserRoleRepositoryImpl struct {
	db *gorm.DB
}

func NewUserRoleRepository(db *gorm.DB) models.UserRoleRepository {
	return &UserRoleRepositoryImpl{db: db}
}

func (r *UserRoleRepositoryImpl) HasRole(ctx context.Context, userID, role string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UserRole{}).
		Where("user_id = ? AND role = ?", userID, role).
		Count(&count).Error
	return count > 0, err
}

func (r *UserRoleRepositoryImpl) List(ctx context.Context) ([]models.UserRole, error) {
	var roles []models.UserRole
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&roles).Error
	return roles, err
}

// ApplyChanges applies every staged change in one transaction; any failure
// rolls back the whole batch.
func (r *UserRoleRepositoryImpl) ApplyChanges(ctx context.Context, changes []models.RoleChange) (int, error) {
	applied := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, change := range changes {
			switch change.Action {
			case models.RoleActionAdd:
				role := &models.UserRole{UserID: change.UserID, Role: change.Role}
				if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(role).Error; err != nil {
					return fmt.Errorf("change %d: %w", i, err)
				}
			case models.RoleActionRemove:
				if err := tx.Where("user_id = ? AND role = ?", change.UserID, change.Role).
					Delete(&models.UserRole{}).Error; err != nil {
					return fmt.Errorf("change %d: %w", i, err)
				}
			default:
				return fmt.Errorf("change %d: unknown action %q", i, change.Action)
			}
			applied++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return applied, nil
}

// RepositoryManager bundles all repositories
type RepositoryManager struct {
	Rewrite  models.RewriteRepository
	Feedback models.FeedbackRepository
	UserRole models.UserRoleRepository
}

func NewRepositoryManager(db *gorm.DB) *RepositoryManager {
	return &RepositoryManager{
		Rewrite:  NewRewriteRepository(db),
		Feedback: NewFeedbackRepository(db),
		UserRole: NewUserRoleRepository(db),
	}
}
