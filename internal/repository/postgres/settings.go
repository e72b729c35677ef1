package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taskdesk/taskdesk/internal/apperr"
	"github.com/taskdesk/taskdesk/internal/models"
)

// SettingsStore persists the singleton app_settings row. The table is
// keyed by a constant id so there is exactly one row to fight over.
type SettingsStore struct {
	pool *pgxpool.Pool
}

func NewSettingsStore(pool *pgxpool.Pool) *SettingsStore {
	return &SettingsStore{pool: pool}
}

func (s *SettingsStore) Get(ctx context.Context) (*models.AppSettings, error) {
	query := `
		SELECT app_name, primary_color, logo_url, updated_at
		FROM app_settings
		WHERE id = 1`

	var out models.AppSettings
	err := s.pool.QueryRow(ctx, query).Scan(
		&out.AppName,
		&out.PrimaryColor,
		&out.LogoURL,
		&out.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// First boot: seed defaults so callers always get a row.
			return s.Update(ctx, models.AppSettings{
				AppName:      "TaskDesk",
				PrimaryColor: "#2563eb",
			})
		}
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return &out, nil
}

func (s *SettingsStore) Update(ctx context.Context, settings models.AppSettings) (*models.AppSettings, error) {
	query := `
		INSERT INTO app_settings (id, app_name, primary_color, logo_url, updated_at)
		VALUES (1, $1, $2, $3, now())
		ON CONFLICT (id) DO UPDATE
		SET app_name = EXCLUDED.app_name,
		    primary_color = EXCLUDED.primary_color,
		    logo_url = EXCLUDED.logo_url,
		    updated_at = now()
		RETURNING app_name, primary_color, logo_url, updated_at`

	var out models.AppSettings
	err := s.pool.QueryRow(ctx, query, settings.AppName, settings.PrimaryColor, settings.LogoURL).Scan(
		&out.AppName,
		&out.PrimaryColor,
		&out.LogoURL,
		&out.UpdatedAt,
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, "could not save settings", err)
	}
	return &out, nil
}
