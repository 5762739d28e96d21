package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

const isoDate = "2006-01-02"

// CalendarExceptionRepository manages date-level calendar overrides. ListRange
// is the engine's read contract: all exceptions inside an inclusive date range
// in one query, so duration walks never hit the store per day.
type CalendarExceptionRepository interface {
	Create(ctx context.Context, ex *domain.CalendarException) error
	Update(ctx context.Context, ex *domain.CalendarException) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.CalendarException, error)
	ListRange(ctx context.Context, from, to string) ([]domain.CalendarException, error)
}

type calendarExceptionRepository struct {
	pool *pgxpool.Pool
}

// NewCalendarExceptionRepository builds the repository.
func NewCalendarExceptionRepository(pool *pgxpool.Pool) CalendarExceptionRepository {
	return &calendarExceptionRepository{pool: pool}
}

func (r *calendarExceptionRepository) Create(ctx context.Context, ex *domain.CalendarException) error {
	const query = `
        INSERT INTO calendar_exceptions (date, kind, open_time, close_time, working_hours)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ex.Date,
		ex.Kind,
		ex.OpenTime,
		ex.CloseTime,
		ex.WorkingHours,
	).Scan(&ex.ID, &ex.CreatedAt, &ex.UpdatedAt)
}

func (r *calendarExceptionRepository) Update(ctx context.Context, ex *domain.CalendarException) error {
	const query = `
        UPDATE calendar_exceptions
        SET date=$1, kind=$2, open_time=$3, close_time=$4, working_hours=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := r.pool.Exec(ctx, query,
		ex.Date,
		ex.Kind,
		ex.OpenTime,
		ex.CloseTime,
		ex.WorkingHours,
		ex.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *calendarExceptionRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM calendar_exceptions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *calendarExceptionRepository) GetByID(ctx context.Context, id string) (*domain.CalendarException, error) {
	const query = `
        SELECT id, date, kind, open_time, close_time, working_hours, created_at, updated_at
        FROM calendar_exceptions WHERE id=$1`
	var ex domain.CalendarException
	var date time.Time
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&ex.ID,
		&date,
		&ex.Kind,
		&ex.OpenTime,
		&ex.CloseTime,
		&ex.WorkingHours,
		&ex.CreatedAt,
		&ex.UpdatedAt,
	); err != nil {
		return nil, err
	}
	ex.Date = date.Format(isoDate)
	return &ex, nil
}

func (r *calendarExceptionRepository) ListRange(ctx context.Context, from, to string) ([]domain.CalendarException, error) {
	const query = `
        SELECT id, date, kind, open_time, close_time, working_hours, created_at, updated_at
        FROM calendar_exceptions
        WHERE date >= $1 AND date <= $2
        ORDER BY date`
	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.CalendarException
	for rows.Next() {
		var ex domain.CalendarException
		var date time.Time
		if err := rows.Scan(
			&ex.ID,
			&date,
			&ex.Kind,
			&ex.OpenTime,
			&ex.CloseTime,
			&ex.WorkingHours,
			&ex.CreatedAt,
			&ex.UpdatedAt,
		); err != nil {
			return nil, err
		}
		ex.Date = date.Format(isoDate)
		result = append(result, ex)
	}
	return result, rows.Err()
}
