package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taskdesk/taskdesk/internal/apperr"
	"github.com/taskdesk/taskdesk/internal/models"
	"github.com/taskdesk/taskdesk/internal/repository"
)

type TaskStore struct {
	pool *pgxpool.Pool
}

func NewTaskStore(pool *pgxpool.Pool) *TaskStore {
	return &TaskStore{pool: pool}
}

const taskSelect = `
	SELECT t.id, t.title, t.description, t.status, t.priority, t.due_date,
	       t.assigned_to, t.created_by, t.created_at, t.updated_at,
	       a.full_name, c.full_name
	FROM tasks t
	LEFT JOIN profiles a ON a.id = t.assigned_to
	JOIN profiles c ON c.id = t.created_by`

func scanTask(row pgx.Row) (*models.Task, error) {
	var t models.Task
	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&t.Status,
		&t.Priority,
		&t.DueDate,
		&t.AssignedTo,
		&t.CreatedBy,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.AssigneeName,
		&t.CreatorName,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ownershipClause is the server-side role filter. Privileged viewers get
// no extra predicate; everyone else is restricted to rows where they are
// creator or assignee. Applied in SQL so unauthorized rows never cross
// the wire.
func ownershipClause(viewer repository.Viewer, args *[]any) string {
	if viewer.Privileged() {
		return ""
	}
	*args = append(*args, viewer.ID)
	n := len(*args)
	return fmt.Sprintf("(t.created_by = $%d OR t.assigned_to = $%d)", n, n)
}

func (s *TaskStore) List(ctx context.Context, viewer repository.Viewer, filter repository.TaskFilter) ([]models.Task, error) {
	args := []any{}
	where := []string{}

	if clause := ownershipClause(viewer, &args); clause != "" {
		where = append(where, clause)
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("t.status = $%d", len(args)))
	}
	if filter.Priority != "" {
		args = append(args, filter.Priority)
		where = append(where, fmt.Sprintf("t.priority = $%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		where = append(where, fmt.Sprintf("t.assigned_to = $%d", len(args)))
	}
	if filter.CreatedSince != nil {
		args = append(args, *filter.CreatedSince)
		where = append(where, fmt.Sprintf("t.created_at >= $%d", len(args)))
	}
	if filter.DueBefore != nil {
		args = append(args, *filter.DueBefore)
		where = append(where, fmt.Sprintf("t.due_date IS NOT NULL AND t.due_date <= $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where = append(where, fmt.Sprintf("(t.title ILIKE $%d OR t.description ILIKE $%d)", len(args), len(args)))
	}

	query := taskSelect
	if len(where) > 0 {
		query += "\n\tWHERE " + strings.Join(where, " AND ")
	}
	query += "\n\tORDER BY t.created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf("\n\tLIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]models.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}

	return tasks, nil
}

func (s *TaskStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	query := taskSelect + "\n\tWHERE t.id = $1"

	t, err := scanTask(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (s *TaskStore) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	query := `
		INSERT INTO tasks (id, title, description, status, priority, due_date, assigned_to, created_by, created_at, updated_at)
		VALUES (uuid_generate_v4(), $1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING id, created_at, updated_at`

	created := *task
	err := s.pool.QueryRow(ctx, query,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.DueDate,
		task.AssignedTo,
		task.CreatedBy,
	).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, "could not create task", err)
	}
	return &created, nil
}

func (s *TaskStore) Update(ctx context.Context, viewer repository.Viewer, id uuid.UUID, patch repository.TaskPatch) (*models.Task, error) {
	sets := []string{"updated_at = now()"}
	args := []any{id}

	if patch.Title != nil {
		args = append(args, *patch.Title)
		sets = append(sets, fmt.Sprintf("title = $%d", len(args)))
	}
	if patch.Description != nil {
		args = append(args, *patch.Description)
		sets = append(sets, fmt.Sprintf("description = $%d", len(args)))
	}
	if patch.Status != nil {
		args = append(args, *patch.Status)
		sets = append(sets, fmt.Sprintf("status = $%d", len(args)))
	}
	if patch.Priority != nil {
		args = append(args, *patch.Priority)
		sets = append(sets, fmt.Sprintf("priority = $%d", len(args)))
	}
	if patch.ClearDue {
		sets = append(sets, "due_date = NULL")
	} else if patch.DueDate != nil {
		args = append(args, *patch.DueDate)
		sets = append(sets, fmt.Sprintf("due_date = $%d", len(args)))
	}
	if patch.ClearAssign {
		sets = append(sets, "assigned_to = NULL")
	} else if patch.AssignedTo != nil {
		args = append(args, *patch.AssignedTo)
		sets = append(sets, fmt.Sprintf("assigned_to = $%d", len(args)))
	}

	query := `
		UPDATE tasks t
		SET ` + strings.Join(sets, ", ") + `
		WHERE t.id = $1`
	if !viewer.Privileged() {
		args = append(args, viewer.ID)
		n := len(args)
		query += fmt.Sprintf(" AND (t.created_by = $%d OR t.assigned_to = $%d)", n, n)
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, "could not update task", err)
	}
	if tag.RowsAffected() == 0 {
		// Either the row doesn't exist or the viewer doesn't own it;
		// both collapse to not-found so the response doesn't reveal
		// which.
		return nil, apperr.New(apperr.KindNotFound, "task not found")
	}

	return s.GetByID(ctx, id)
}

func (s *TaskStore) Delete(ctx context.Context, viewer repository.Viewer, id uuid.UUID) error {
	query := `DELETE FROM tasks WHERE id = $1`
	args := []any{id}
	if !viewer.Privileged() {
		args = append(args, viewer.ID)
		query += fmt.Sprintf(" AND created_by = $%d", len(args))
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return apperr.Wrap(apperr.KindPersistence, "could not delete task", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.KindNotFound, "task not found")
	}
	return nil
}

func (s *TaskStore) CountByStatus(ctx context.Context, viewer repository.Viewer) (map[models.TaskStatus]int, error) {
	args := []any{}
	query := `
		SELECT t.status, count(*)
		FROM tasks t`
	if clause := ownershipClause(viewer, &args); clause != "" {
		query += "\n\t\tWHERE " + clause
	}
	query += "\n\t\tGROUP BY t.status"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.TaskStatus]int)
	for rows.Next() {
		var status models.TaskStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan task count: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate task counts: %w", err)
	}

	return counts, nil
}
