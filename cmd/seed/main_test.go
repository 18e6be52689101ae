package main

import (
	"testing"

	"github.com/reframeapp/reframe/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestBuildChanges(t *testing.T) {
	changes := buildChanges(" 6f1c0c36-9a7e-4c4b-8a57-0d1f5b1e2a10, ,b2f0f5d4-1111-4c4b-8a57-0d1f5b1e2a10", models.RoleAdmin, false)
	assert.Len(t, changes, 2)
	assert.Equal(t, "6f1c0c36-9a7e-4c4b-8a57-0d1f5b1e2a10", changes[0].UserID)
	assert.Equal(t, models.RoleActionAdd, changes[0].Action)
	for _, c := range changes {
		assert.NoError(t, c.Validate())
	}

	revoked := buildChanges("6f1c0c36-9a7e-4c4b-8a57-0d1f5b1e2a10", models.RoleModerator, true)
	assert.Equal(t, models.RoleActionRemove, revoked[0].Action)

	assert.Empty(t, buildChanges("", models.RoleAdmin, false))
}
