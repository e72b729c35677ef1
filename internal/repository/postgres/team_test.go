package postgres

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/taskdesk/taskdesk/internal/models"
)

func memberIDs(members []models.TeamMember) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	return ids
}

func TestInitialMembersCreatorPlusSelected(t *testing.T) {
	creator := uuid.New()
	a := uuid.New()
	b := uuid.New()

	members := initialMembers(creator, []uuid.UUID{a, b})

	assert.Len(t, members, 3)
	assert.Equal(t, creator, members[0].UserID)
	assert.Equal(t, models.TeamRoleAdmin, members[0].Role)
	assert.ElementsMatch(t, []uuid.UUID{creator, a, b}, memberIDs(members))
	for _, m := range members[1:] {
		assert.Equal(t, models.TeamRoleMember, m.Role)
	}
}

func TestInitialMembersCreatorInSelectionKeepsAdminRole(t *testing.T) {
	creator := uuid.New()
	a := uuid.New()
	b := uuid.New()

	members := initialMembers(creator, []uuid.UUID{a, creator, b})

	assert.Len(t, members, 3)
	assert.ElementsMatch(t, []uuid.UUID{creator, a, b}, memberIDs(members))
	for _, m := range members {
		if m.UserID == creator {
			assert.Equal(t, models.TeamRoleAdmin, m.Role)
		}
	}
}

func TestInitialMembersDuplicateSelectionsCollapse(t *testing.T) {
	creator := uuid.New()
	a := uuid.New()

	members := initialMembers(creator, []uuid.UUID{a, a, a})

	assert.Len(t, members, 2)
	assert.ElementsMatch(t, []uuid.UUID{creator, a}, memberIDs(members))
}

func TestInitialMembersNoSelection(t *testing.T) {
	creator := uuid.New()

	members := initialMembers(creator, nil)

	assert.Len(t, members, 1)
	assert.Equal(t, creator, members[0].UserID)
	assert.Equal(t, models.TeamRoleAdmin, members[0].Role)
}
