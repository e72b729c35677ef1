package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taskdesk/taskdesk/internal/models"
)

type HistoryStore struct {
	pool *pgxpool.Pool
}

func NewHistoryStore(pool *pgxpool.Pool) *HistoryStore {
	return &HistoryStore{pool: pool}
}

func (s *HistoryStore) Record(ctx context.Context, taskID *uuid.UUID, userID uuid.UUID, action string) error {
	query := `
		INSERT INTO task_history (id, task_id, user_id, action, created_at)
		VALUES (uuid_generate_v4(), $1, $2, $3, now())`

	if _, err := s.pool.Exec(ctx, query, taskID, userID, action); err != nil {
		return fmt.Errorf("record history: %w", err)
	}
	return nil
}

func (s *HistoryStore) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.TaskHistory, error) {
	if limit <= 0 {
		limit = 20
	}

	// task_id is SET NULL on task deletion, so the LEFT JOIN keeps
	// history rows for tasks that no longer exist.
	query := `
		SELECT h.id, h.task_id, h.user_id, h.action, h.created_at, t.title
		FROM task_history h
		LEFT JOIN tasks t ON t.id = h.task_id
		WHERE h.user_id = $1
		ORDER BY h.created_at DESC
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	entries := make([]models.TaskHistory, 0)
	for rows.Next() {
		var h models.TaskHistory
		if err := rows.Scan(&h.ID, &h.TaskID, &h.UserID, &h.Action, &h.CreatedAt, &h.TaskTitle); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		entries = append(entries, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}

	return entries, nil
}
