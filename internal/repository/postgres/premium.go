package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taskdesk/taskdesk/internal/apperr"
	"github.com/taskdesk/taskdesk/internal/models"
)

type PremiumStore struct {
	pool *pgxpool.Pool
}

func NewPremiumStore(pool *pgxpool.Pool) *PremiumStore {
	return &PremiumStore{pool: pool}
}

const fundColumns = "id, period_start, period_end, total_fund_amount, status, created_by, created_at"

func scanFund(row pgx.Row) (*models.PremiumFund, error) {
	var f models.PremiumFund
	err := row.Scan(
		&f.ID,
		&f.PeriodStart,
		&f.PeriodEnd,
		&f.TotalAmount,
		&f.Status,
		&f.CreatedBy,
		&f.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *PremiumStore) ListFunds(ctx context.Context) ([]models.PremiumFund, error) {
	query := `SELECT ` + fundColumns + ` FROM premium_funds ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list funds: %w", err)
	}
	defer rows.Close()

	funds := make([]models.PremiumFund, 0)
	for rows.Next() {
		f, err := scanFund(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fund: %w", err)
		}
		funds = append(funds, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate funds: %w", err)
	}

	return funds, nil
}

func (s *PremiumStore) GetFund(ctx context.Context, id uuid.UUID) (*models.PremiumFund, error) {
	query := `SELECT ` + fundColumns + ` FROM premium_funds WHERE id = $1`

	f, err := scanFund(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get fund: %w", err)
	}
	return f, nil
}

func (s *PremiumStore) CreateFund(ctx context.Context, periodStart, periodEnd time.Time, totalAmount float64, createdBy uuid.UUID) (*models.PremiumFund, error) {
	query := `
		INSERT INTO premium_funds (id, period_start, period_end, total_fund_amount, status, created_by, created_at)
		VALUES (uuid_generate_v4(), $1, $2, $3, $4, $5, now())
		RETURNING ` + fundColumns

	f, err := scanFund(s.pool.QueryRow(ctx, query, periodStart, periodEnd, totalAmount, models.FundActive, createdBy))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, "could not create premium fund", err)
	}
	return f, nil
}

func (s *PremiumStore) MetricsForPeriod(ctx context.Context, periodStart, periodEnd time.Time) ([]models.EmployeeMetric, error) {
	query := `
		SELECT m.id, m.user_id, m.period_start, m.period_end,
		       m.task_completion_frequency, m.tasks_not_completed_on_time,
		       m.tasks_completed_on_time, m.total_contract_value,
		       m.number_of_delays, m.normalized_score, m.premium_amount,
		       p.full_name, p.role
		FROM employee_metrics m
		JOIN profiles p ON p.id = m.user_id
		WHERE m.period_start = $1 AND m.period_end = $2
		ORDER BY p.full_name`

	rows, err := s.pool.Query(ctx, query, periodStart, periodEnd)
	if err != nil {
		return nil, fmt.Errorf("list metrics: %w", err)
	}
	defer rows.Close()

	metrics := make([]models.EmployeeMetric, 0)
	for rows.Next() {
		var m models.EmployeeMetric
		if err := rows.Scan(
			&m.ID, &m.UserID, &m.PeriodStart, &m.PeriodEnd,
			&m.TaskCompletionFrequency, &m.TasksNotCompletedOnTime,
			&m.TasksCompletedOnTime, &m.TotalContractValue,
			&m.NumberOfDelays, &m.NormalizedScore, &m.PremiumAmount,
			&m.FullName, &m.UserRole,
		); err != nil {
			return nil, fmt.Errorf("scan metric: %w", err)
		}
		metrics = append(metrics, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate metrics: %w", err)
	}

	return metrics, nil
}

func (s *PremiumStore) AddMetric(ctx context.Context, metric *models.EmployeeMetric) (*models.EmployeeMetric, error) {
	// normalized_score and premium_amount start at zero; only the
	// stored procedure writes real values into them.
	query := `
		INSERT INTO employee_metrics
			(id, user_id, period_start, period_end,
			 task_completion_frequency, tasks_not_completed_on_time,
			 tasks_completed_on_time, total_contract_value, number_of_delays,
			 normalized_score, premium_amount)
		VALUES (uuid_generate_v4(), $1, $2, $3, $4, $5, $6, $7, $8, 0, 0)
		RETURNING id`

	created := *metric
	err := s.pool.QueryRow(ctx, query,
		metric.UserID,
		metric.PeriodStart,
		metric.PeriodEnd,
		metric.TaskCompletionFrequency,
		metric.TasksNotCompletedOnTime,
		metric.TasksCompletedOnTime,
		metric.TotalContractValue,
		metric.NumberOfDelays,
	).Scan(&created.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, "could not add metrics", err)
	}
	created.NormalizedScore = 0
	created.PremiumAmount = 0
	return &created, nil
}

// CalculateDistribution delegates the whole scoring formula to the
// calculate_premium_distribution stored procedure; the one remote
// procedure this system invokes. The procedure normalizes each
// employee's counters, splits the fund proportionally, writes the
// results into employee_metrics, and flips the fund to calculated.
func (s *PremiumStore) CalculateDistribution(ctx context.Context, fundID uuid.UUID) error {
	fund, err := s.GetFund(ctx, fundID)
	if err != nil {
		return err
	}
	if fund == nil {
		return apperr.New(apperr.KindNotFound, "premium fund not found")
	}
	if !fund.Status.CanTransition(models.FundCalculated) {
		return apperr.New(apperr.KindValidation,
			fmt.Sprintf("fund in status %q cannot be calculated", fund.Status))
	}

	if _, err := s.pool.Exec(ctx, `SELECT calculate_premium_distribution($1)`, fundID); err != nil {
		return apperr.Wrap(apperr.KindPersistence, "premium calculation failed", err)
	}
	return nil
}

func (s *PremiumStore) SetFundStatus(ctx context.Context, fundID uuid.UUID, next models.FundStatus) (*models.PremiumFund, error) {
	fund, err := s.GetFund(ctx, fundID)
	if err != nil {
		return nil, err
	}
	if fund == nil {
		return nil, apperr.New(apperr.KindNotFound, "premium fund not found")
	}
	if !fund.Status.CanTransition(next) {
		return nil, apperr.New(apperr.KindValidation,
			fmt.Sprintf("fund status cannot move from %q to %q", fund.Status, next))
	}

	// The status guard repeats in the predicate so a concurrent
	// transition can't slip a backward move in between read and write.
	query := `
		UPDATE premium_funds
		SET status = $2
		WHERE id = $1 AND status = $3
		RETURNING ` + fundColumns

	updated, err := scanFund(s.pool.QueryRow(ctx, query, fundID, next, fund.Status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.KindConflict, "fund status changed concurrently")
		}
		return nil, apperr.Wrap(apperr.KindPersistence, "could not update fund status", err)
	}
	return updated, nil
}
