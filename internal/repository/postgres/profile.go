package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taskdesk/taskdesk/internal/apperr"
	"github.com/taskdesk/taskdesk/internal/models"
	"github.com/taskdesk/taskdesk/internal/repository"
)

const profileColumns = "id, email, full_name, role, avatar_url, password_hash, created_at, updated_at"

type ProfileStore struct {
	pool *pgxpool.Pool
}

func NewProfileStore(pool *pgxpool.Pool) *ProfileStore {
	return &ProfileStore{pool: pool}
}

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var p models.Profile
	err := row.Scan(
		&p.ID,
		&p.Email,
		&p.FullName,
		&p.Role,
		&p.AvatarURL,
		&p.PasswordHash,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *ProfileStore) Create(ctx context.Context, email, fullName, passwordHash string, role models.Role) (*models.Profile, error) {
	query := `
		INSERT INTO profiles (id, email, full_name, role, password_hash, created_at, updated_at)
		VALUES (uuid_generate_v4(), $1, $2, $3, $4, now(), now())
		RETURNING ` + profileColumns

	p, err := scanProfile(s.pool.QueryRow(ctx, query, strings.ToLower(email), fullName, role, passwordHash))
	if err != nil {
		// 23505 = unique_violation on the email index.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperr.Wrap(apperr.KindConflict, "email already registered", err)
		}
		return nil, fmt.Errorf("insert profile: %w", err)
	}
	return p, nil
}

func (s *ProfileStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`

	p, err := scanProfile(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func (s *ProfileStore) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE email = $1`

	p, err := scanProfile(s.pool.QueryRow(ctx, query, strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get profile by email: %w", err)
	}
	return p, nil
}

func (s *ProfileStore) List(ctx context.Context) ([]models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles ORDER BY full_name`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]models.Profile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}

	return profiles, nil
}

func (s *ProfileStore) SearchByName(ctx context.Context, query string, exclude uuid.UUID, limit int) ([]models.Profile, error) {
	if limit <= 0 {
		limit = 5
	}

	sql := `
		SELECT ` + profileColumns + `
		FROM profiles
		WHERE full_name ILIKE $1 AND id <> $2
		ORDER BY full_name
		LIMIT $3`

	rows, err := s.pool.Query(ctx, sql, "%"+query+"%", exclude, limit)
	if err != nil {
		return nil, fmt.Errorf("search profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]models.Profile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}

	return profiles, nil
}

func (s *ProfileStore) Update(ctx context.Context, id uuid.UUID, patch repository.ProfilePatch) (*models.Profile, error) {
	// Build SET clauses only for fields present in the patch, so an
	// untouched field is never overwritten with a zero value.
	sets := []string{"updated_at = now()"}
	args := []any{id}

	if patch.FullName != nil {
		args = append(args, *patch.FullName)
		sets = append(sets, fmt.Sprintf("full_name = $%d", len(args)))
	}
	if patch.ClearAvatar {
		sets = append(sets, "avatar_url = NULL")
	} else if patch.AvatarURL != nil {
		args = append(args, *patch.AvatarURL)
		sets = append(sets, fmt.Sprintf("avatar_url = $%d", len(args)))
	}

	query := `
		UPDATE profiles
		SET ` + strings.Join(sets, ", ") + `
		WHERE id = $1
		RETURNING ` + profileColumns

	p, err := scanProfile(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "profile not found")
		}
		return nil, apperr.Wrap(apperr.KindPersistence, "could not update profile", err)
	}
	return p, nil
}

func (s *ProfileStore) SetRole(ctx context.Context, id uuid.UUID, role models.Role) error {
	query := `UPDATE profiles SET role = $2, updated_at = now() WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, id, role)
	if err != nil {
		return apperr.Wrap(apperr.KindPersistence, "could not change role", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.KindNotFound, "profile not found")
	}
	return nil
}
