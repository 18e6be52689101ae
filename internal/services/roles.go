package services

import (
	"context"
	"fmt"

	"github.com/reframeapp/reframe/internal/models"
	"github.com/sirupsen/logrus"
)

type RoleService struct {
	roles  models.UserRoleRepository
	logger *logrus.Logger
}

func NewRoleService(roles models.UserRoleRepository, logger *logrus.Logger) *RoleService {
	return &RoleService{roles: roles, logger: logger}
}

func (s *RoleService) IsAdmin(ctx context.Context, userID string) (bool, error) {
	return s.roles.HasRole(ctx, userID, models.RoleAdmin)
}

func (s *RoleService) List(ctx context.Context) ([]models.UserRole, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	if roles == nil {
		roles = []models.UserRole{}
	}
	return roles, nil
}

// ApplyBatch validates every change before applying any, then applies them
// together.
func (s *RoleService) ApplyBatch(ctx context.Context, actorID string, changes []models.RoleChange) (int, error) {
	if len(changes) == 0 {
		return 0, invalidInput("changes are required")
	}
	for i, change := range changes {
		if err := change.Validate(); err != nil {
			return 0, invalidInput("change %d: %v", i, err)
		}
	}

	applied, err := s.roles.ApplyChanges(ctx, changes)
	if err != nil {
		return 0, fmt.Errorf("failed to apply role changes: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"actor_id": actorID,
		"applied":  applied,
	}).Info("Role changes applied")

	return applied, nil
}
