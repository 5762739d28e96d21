package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

// PriorityRepository manages SLA priority tiers.
type PriorityRepository interface {
	Create(ctx context.Context, priority *domain.Priority) error
	Update(ctx context.Context, priority *domain.Priority) error
	GetByID(ctx context.Context, id string) (*domain.Priority, error)
	ListActive(ctx context.Context) ([]domain.Priority, error)
}

type priorityRepository struct {
	pool *pgxpool.Pool
}

// NewPriorityRepository builds the repository.
func NewPriorityRepository(pool *pgxpool.Pool) PriorityRepository {
	return &priorityRepository{pool: pool}
}

const priorityColumns = `id, name, level, response_target_minutes, resolution_target_minutes, profile_id, is_active, created_at, updated_at`

func (r *priorityRepository) Create(ctx context.Context, priority *domain.Priority) error {
	const query = `
        INSERT INTO priorities (name, level, response_target_minutes, resolution_target_minutes, profile_id, is_active)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		priority.Name,
		priority.Level,
		priority.ResponseTargetMinutes,
		priority.ResolutionTargetMinutes,
		priority.ProfileID,
		priority.IsActive,
	).Scan(&priority.ID, &priority.CreatedAt, &priority.UpdatedAt)
}

func (r *priorityRepository) Update(ctx context.Context, priority *domain.Priority) error {
	const query = `
        UPDATE priorities
        SET name=$1, level=$2, response_target_minutes=$3, resolution_target_minutes=$4, profile_id=$5, is_active=$6, updated_at=NOW()
        WHERE id=$7`
	cmd, err := r.pool.Exec(ctx, query,
		priority.Name,
		priority.Level,
		priority.ResponseTargetMinutes,
		priority.ResolutionTargetMinutes,
		priority.ProfileID,
		priority.IsActive,
		priority.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *priorityRepository) GetByID(ctx context.Context, id string) (*domain.Priority, error) {
	var priority domain.Priority
	if err := r.pool.QueryRow(ctx, `SELECT `+priorityColumns+` FROM priorities WHERE id=$1`, id).Scan(
		&priority.ID,
		&priority.Name,
		&priority.Level,
		&priority.ResponseTargetMinutes,
		&priority.ResolutionTargetMinutes,
		&priority.ProfileID,
		&priority.IsActive,
		&priority.CreatedAt,
		&priority.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &priority, nil
}

func (r *priorityRepository) ListActive(ctx context.Context) ([]domain.Priority, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+priorityColumns+` FROM priorities WHERE is_active = TRUE ORDER BY level`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Priority
	for rows.Next() {
		var priority domain.Priority
		if err := rows.Scan(
			&priority.ID,
			&priority.Name,
			&priority.Level,
			&priority.ResponseTargetMinutes,
			&priority.ResolutionTargetMinutes,
			&priority.ProfileID,
			&priority.IsActive,
			&priority.CreatedAt,
			&priority.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, priority)
	}
	return result, rows.Err()
}
