package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taskdesk/taskdesk/internal/apperr"
	"github.com/taskdesk/taskdesk/internal/models"
	"github.com/taskdesk/taskdesk/internal/repository"
)

type TeamStore struct {
	pool *pgxpool.Pool
}

func NewTeamStore(pool *pgxpool.Pool) *TeamStore {
	return &TeamStore{pool: pool}
}

func (s *TeamStore) List(ctx context.Context) ([]models.Team, error) {
	query := `
		SELECT tm.id, tm.name, tm.description, tm.created_by, tm.created_at,
		       p.full_name,
		       (SELECT count(*) FROM team_members m WHERE m.team_id = tm.id)
		FROM teams tm
		JOIN profiles p ON p.id = tm.created_by
		ORDER BY tm.created_at DESC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	teams := make([]models.Team, 0)
	for rows.Next() {
		var t models.Team
		if err := rows.Scan(
			&t.ID,
			&t.Name,
			&t.Description,
			&t.CreatedBy,
			&t.CreatedAt,
			&t.CreatorName,
			&t.MemberCount,
		); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate teams: %w", err)
	}

	return teams, nil
}

func (s *TeamStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	query := `
		SELECT id, name, description, created_by, created_at
		FROM teams
		WHERE id = $1`

	var t models.Team
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&t.ID,
		&t.Name,
		&t.Description,
		&t.CreatedBy,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get team: %w", err)
	}
	return &t, nil
}

// initialMembers is the membership a new team starts with: the creator
// as team admin plus each selected member once. The creator keeps the
// admin slot even when also selected, and duplicate selections collapse.
func initialMembers(createdBy uuid.UUID, memberIDs []uuid.UUID) []models.TeamMember {
	members := []models.TeamMember{{UserID: createdBy, Role: models.TeamRoleAdmin}}
	seen := map[uuid.UUID]struct{}{createdBy: {}}
	for _, id := range memberIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		members = append(members, models.TeamMember{UserID: id, Role: models.TeamRoleMember})
	}
	return members
}

// Create inserts the team plus its initial membership atomically: the
// creator joins as team admin, the selected members as plain members.
// Either everything lands or nothing does.
func (s *TeamStore) Create(ctx context.Context, name string, description *string, createdBy uuid.UUID, memberIDs []uuid.UUID) (*models.Team, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, "could not create team", err)
	}
	defer tx.Rollback(ctx)

	var t models.Team
	err = tx.QueryRow(ctx, `
		INSERT INTO teams (id, name, description, created_by, created_at)
		VALUES (uuid_generate_v4(), $1, $2, $3, now())
		RETURNING id, name, description, created_by, created_at`,
		name, description, createdBy,
	).Scan(&t.ID, &t.Name, &t.Description, &t.CreatedBy, &t.CreatedAt)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, "could not create team", err)
	}

	members := initialMembers(createdBy, memberIDs)
	for _, m := range members {
		_, err = tx.Exec(ctx, `
			INSERT INTO team_members (team_id, user_id, role, joined_at)
			VALUES ($1, $2, $3, now())`,
			t.ID, m.UserID, m.Role,
		)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindPersistence, "could not add team member", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, "could not create team", err)
	}

	t.MemberCount = len(members)
	return &t, nil
}

func (s *TeamStore) Update(ctx context.Context, viewer repository.Viewer, id uuid.UUID, name string, description *string) (*models.Team, error) {
	query := `
		UPDATE teams
		SET name = $2, description = $3
		WHERE id = $1`
	args := []any{id, name, description}
	if !viewer.Privileged() {
		args = append(args, viewer.ID)
		query += fmt.Sprintf(" AND created_by = $%d", len(args))
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, "could not update team", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperr.New(apperr.KindNotFound, "team not found")
	}

	return s.GetByID(ctx, id)
}

func (s *TeamStore) Delete(ctx context.Context, viewer repository.Viewer, id uuid.UUID) error {
	// team_members has ON DELETE CASCADE; one statement removes both.
	query := `DELETE FROM teams WHERE id = $1`
	args := []any{id}
	if !viewer.Privileged() {
		args = append(args, viewer.ID)
		query += fmt.Sprintf(" AND created_by = $%d", len(args))
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return apperr.Wrap(apperr.KindPersistence, "could not delete team", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.KindNotFound, "team not found")
	}
	return nil
}

func (s *TeamStore) Members(ctx context.Context, teamID uuid.UUID) ([]models.TeamMember, error) {
	query := `
		SELECT m.team_id, m.user_id, m.role, m.joined_at,
		       ` + profileColumnsFor("p") + `
		FROM team_members m
		JOIN profiles p ON p.id = m.user_id
		WHERE m.team_id = $1
		ORDER BY m.joined_at`

	rows, err := s.pool.Query(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	defer rows.Close()

	members := make([]models.TeamMember, 0)
	for rows.Next() {
		var m models.TeamMember
		var p models.Profile
		if err := rows.Scan(
			&m.TeamID, &m.UserID, &m.Role, &m.JoinedAt,
			&p.ID, &p.Email, &p.FullName, &p.Role, &p.AvatarURL, &p.PasswordHash, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan team member: %w", err)
		}
		m.Profile = &p
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate team members: %w", err)
	}

	return members, nil
}

func (s *TeamStore) AddMember(ctx context.Context, teamID, userID uuid.UUID, role string) error {
	// ON CONFLICT DO NOTHING keeps "add member" idempotent.
	query := `
		INSERT INTO team_members (team_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (team_id, user_id) DO NOTHING`

	_, err := s.pool.Exec(ctx, query, teamID, userID, role)
	if err != nil {
		return apperr.Wrap(apperr.KindPersistence, "could not add team member", err)
	}
	return nil
}

func (s *TeamStore) RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error {
	query := `
		DELETE FROM team_members
		WHERE team_id = $1 AND user_id = $2`

	_, err := s.pool.Exec(ctx, query, teamID, userID)
	if err != nil {
		return apperr.Wrap(apperr.KindPersistence, "could not remove team member", err)
	}
	return nil
}

// profileColumnsFor qualifies the shared profile column list with a
// table alias for joins.
func profileColumnsFor(alias string) string {
	return alias + ".id, " + alias + ".email, " + alias + ".full_name, " + alias + ".role, " +
		alias + ".avatar_url, " + alias + ".password_hash, " + alias + ".created_at, " + alias + ".updated_at"
}
