package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

// WorkingHoursProfileRepository manages business-hours profiles.
type WorkingHoursProfileRepository interface {
	Create(ctx context.Context, profile *domain.WorkingHoursProfile) error
	Update(ctx context.Context, profile *domain.WorkingHoursProfile) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.WorkingHoursProfile, error)
	GetDefault(ctx context.Context) (*domain.WorkingHoursProfile, error)
	List(ctx context.Context) ([]domain.WorkingHoursProfile, error)
	SetDefault(ctx context.Context, id string) error
}

type workingHoursProfileRepository struct {
	pool *pgxpool.Pool
}

// NewWorkingHoursProfileRepository builds the repository.
func NewWorkingHoursProfileRepository(pool *pgxpool.Pool) WorkingHoursProfileRepository {
	return &workingHoursProfileRepository{pool: pool}
}

const profileColumns = `id, name, timezone, working_days_mask, daily_start, daily_end, is_default, created_at, updated_at`

func (r *workingHoursProfileRepository) Create(ctx context.Context, profile *domain.WorkingHoursProfile) error {
	const query = `
        INSERT INTO working_hours_profiles (name, timezone, working_days_mask, daily_start, daily_end, is_default)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		profile.Name,
		profile.Timezone,
		int16(profile.WorkingDaysMask),
		profile.DailyStart,
		profile.DailyEnd,
		profile.IsDefault,
	).Scan(&profile.ID, &profile.CreatedAt, &profile.UpdatedAt)
}

func (r *workingHoursProfileRepository) Update(ctx context.Context, profile *domain.WorkingHoursProfile) error {
	const query = `
        UPDATE working_hours_profiles
        SET name=$1, timezone=$2, working_days_mask=$3, daily_start=$4, daily_end=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := r.pool.Exec(ctx, query,
		profile.Name,
		profile.Timezone,
		int16(profile.WorkingDaysMask),
		profile.DailyStart,
		profile.DailyEnd,
		profile.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *workingHoursProfileRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM working_hours_profiles WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *workingHoursProfileRepository) GetByID(ctx context.Context, id string) (*domain.WorkingHoursProfile, error) {
	return r.fetchSingle(ctx, `SELECT `+profileColumns+` FROM working_hours_profiles WHERE id=$1`, id)
}

func (r *workingHoursProfileRepository) GetDefault(ctx context.Context) (*domain.WorkingHoursProfile, error) {
	return r.fetchSingle(ctx, `SELECT `+profileColumns+` FROM working_hours_profiles WHERE is_default = TRUE`)
}

func (r *workingHoursProfileRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.WorkingHoursProfile, error) {
	var profile domain.WorkingHoursProfile
	var mask int16
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&profile.ID,
		&profile.Name,
		&profile.Timezone,
		&mask,
		&profile.DailyStart,
		&profile.DailyEnd,
		&profile.IsDefault,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	); err != nil {
		return nil, err
	}
	profile.WorkingDaysMask = uint8(mask)
	return &profile, nil
}

func (r *workingHoursProfileRepository) List(ctx context.Context) ([]domain.WorkingHoursProfile, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+profileColumns+` FROM working_hours_profiles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.WorkingHoursProfile
	for rows.Next() {
		var profile domain.WorkingHoursProfile
		var mask int16
		if err := rows.Scan(
			&profile.ID,
			&profile.Name,
			&profile.Timezone,
			&mask,
			&profile.DailyStart,
			&profile.DailyEnd,
			&profile.IsDefault,
			&profile.CreatedAt,
			&profile.UpdatedAt,
		); err != nil {
			return nil, err
		}
		profile.WorkingDaysMask = uint8(mask)
		result = append(result, profile)
	}
	return result, rows.Err()
}

// SetDefault flips the default flag atomically: the previous default is
// cleared and the new one set inside a single transaction, so there is never
// a moment with two defaults or none.
func (r *workingHoursProfileRepository) SetDefault(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `UPDATE working_hours_profiles SET is_default=FALSE, updated_at=NOW() WHERE is_default = TRUE`); err != nil {
		return err
	}
	cmd, err := tx.Exec(ctx, `UPDATE working_hours_profiles SET is_default=TRUE, updated_at=NOW() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return tx.Commit(ctx)
}
