package postgres

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/taskdesk/taskdesk/internal/models"
	"github.com/taskdesk/taskdesk/internal/repository"
)

func TestOwnershipClausePrivilegedViewers(t *testing.T) {
	for _, role := range []models.Role{models.RoleAdministrator, models.RoleManager} {
		viewer := repository.Viewer{ID: uuid.New(), Role: role}
		args := []any{}

		clause := ownershipClause(viewer, &args)

		assert.Empty(t, clause, "role %s should not be scoped", role)
		assert.Empty(t, args, "role %s should not bind any argument", role)
	}
}

func TestOwnershipClauseWorkerScopedToOwnRows(t *testing.T) {
	viewer := repository.Viewer{ID: uuid.New(), Role: models.RoleWorker}
	args := []any{}

	clause := ownershipClause(viewer, &args)

	assert.Equal(t, "(t.created_by = $1 OR t.assigned_to = $1)", clause)
	assert.Equal(t, []any{viewer.ID}, args)
}

func TestOwnershipClauseNumbersAfterExistingArgs(t *testing.T) {
	viewer := repository.Viewer{ID: uuid.New(), Role: models.RoleWorker}
	args := []any{"in_progress"}

	clause := ownershipClause(viewer, &args)

	assert.Equal(t, "(t.created_by = $2 OR t.assigned_to = $2)", clause)
	assert.Len(t, args, 2)
	assert.Equal(t, viewer.ID, args[1])
}
