package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

// TicketFilter captures listing parameters.
type TicketFilter struct {
	RequesterID *string
	CategoryID  *string
	PriorityID  *string
	AssigneeID  *string
	Statuses    []domain.TicketStatus
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// BreachCandidate pairs a ticket with the deadline it has missed.
type BreachCandidate struct {
	Ticket domain.Ticket
	Kind   string // "response" or "resolution"
	DueAt  time.Time
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	ListBreachCandidates(ctx context.Context, now time.Time, limit int) ([]BreachCandidate, error)
	MarkBreachNotified(ctx context.Context, ticketID, kind string, at time.Time) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, external_key, requester_user_id, category_id, priority_id, assignee_staff_id,
        title, description, status,
        first_response_due_at, resolution_due_at, first_responded_at, resolved_at, closed_at,
        response_elapsed_minutes, resolution_elapsed_minutes, response_sla_met, resolution_sla_met,
        response_breach_notified_at, resolution_breach_notified_at,
        created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (external_key, requester_user_id, category_id, priority_id, title, description, status,
            first_response_due_at, resolution_due_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.ExternalKey,
		ticket.RequesterID,
		ticket.CategoryID,
		ticket.PriorityID,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.FirstResponseDueAt,
		ticket.ResolutionDueAt,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET category_id=$1, priority_id=$2, assignee_staff_id=$3, title=$4, description=$5, status=$6,
            first_response_due_at=$7, resolution_due_at=$8, first_responded_at=$9, resolved_at=$10, closed_at=$11,
            response_elapsed_minutes=$12, resolution_elapsed_minutes=$13, response_sla_met=$14, resolution_sla_met=$15,
            updated_at=NOW()
        WHERE id=$16`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.CategoryID,
		ticket.PriorityID,
		ticket.AssigneeID,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.FirstResponseDueAt,
		ticket.ResolutionDueAt,
		ticket.FirstRespondedAt,
		ticket.ResolvedAt,
		ticket.ClosedAt,
		ticket.ResponseElapsedMinutes,
		ticket.ResolutionElapsedMinutes,
		ticket.ResponseSLAMet,
		ticket.ResolutionSLAMet,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := scanTicket(r.pool.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id=$1`, id), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.RequesterID != nil {
		args = append(args, *filter.RequesterID)
		clauses = append(clauses, fmt.Sprintf("requester_user_id=$%d", len(args)))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		clauses = append(clauses, fmt.Sprintf("category_id=$%d", len(args)))
	}
	if filter.PriorityID != nil {
		args = append(args, *filter.PriorityID)
		clauses = append(clauses, fmt.Sprintf("priority_id=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assignee_staff_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s)", placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		ticketColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

// ListBreachCandidates returns open tickets whose response or resolution due
// instant has passed without the corresponding stamp, excluding tickets
// already notified for that deadline. The watcher compares against computed
// deadlines stored at creation, so this is a plain index scan.
func (r *ticketRepository) ListBreachCandidates(ctx context.Context, now time.Time, limit int) ([]BreachCandidate, error) {
	if limit <= 0 {
		limit = 100
	}
	query := fmt.Sprintf(`
        SELECT %s,
            CASE WHEN first_responded_at IS NULL AND first_response_due_at < $1 AND response_breach_notified_at IS NULL
                THEN 'response' ELSE 'resolution' END AS breach_kind
        FROM tickets
        WHERE status IN ('OPEN','IN_PROGRESS')
          AND (
            (first_responded_at IS NULL AND first_response_due_at < $1 AND response_breach_notified_at IS NULL)
            OR
            (resolved_at IS NULL AND resolution_due_at < $1 AND resolution_breach_notified_at IS NULL)
          )
        ORDER BY resolution_due_at NULLS LAST
        LIMIT %d`, ticketColumns, limit)

	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []BreachCandidate
	for rows.Next() {
		var ticket domain.Ticket
		var kind string
		if err := scanTicketFields(rows, &ticket, &kind); err != nil {
			return nil, err
		}
		candidate := BreachCandidate{Ticket: ticket, Kind: kind}
		if kind == "response" && ticket.FirstResponseDueAt != nil {
			candidate.DueAt = *ticket.FirstResponseDueAt
		} else if ticket.ResolutionDueAt != nil {
			candidate.DueAt = *ticket.ResolutionDueAt
		}
		result = append(result, candidate)
	}
	return result, rows.Err()
}

func (r *ticketRepository) MarkBreachNotified(ctx context.Context, ticketID, kind string, at time.Time) error {
	column := "resolution_breach_notified_at"
	if kind == "response" {
		column = "response_breach_notified_at"
	}
	cmd, err := r.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE tickets SET %s=$1, updated_at=NOW() WHERE id=$2`, column),
		at, ticketID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanTicket(row pgx.Row, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.ExternalKey,
		&ticket.RequesterID,
		&ticket.CategoryID,
		&ticket.PriorityID,
		&ticket.AssigneeID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.FirstResponseDueAt,
		&ticket.ResolutionDueAt,
		&ticket.FirstRespondedAt,
		&ticket.ResolvedAt,
		&ticket.ClosedAt,
		&ticket.ResponseElapsedMinutes,
		&ticket.ResolutionElapsedMinutes,
		&ticket.ResponseSLAMet,
		&ticket.ResolutionSLAMet,
		&ticket.ResponseBreachNotifiedAt,
		&ticket.ResolutionBreachNotifiedAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
}

func scanTicketFields(rows pgx.Rows, ticket *domain.Ticket, extra ...any) error {
	dest := []any{
		&ticket.ID,
		&ticket.ExternalKey,
		&ticket.RequesterID,
		&ticket.CategoryID,
		&ticket.PriorityID,
		&ticket.AssigneeID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.FirstResponseDueAt,
		&ticket.ResolutionDueAt,
		&ticket.FirstRespondedAt,
		&ticket.ResolvedAt,
		&ticket.ClosedAt,
		&ticket.ResponseElapsedMinutes,
		&ticket.ResolutionElapsedMinutes,
		&ticket.ResponseSLAMet,
		&ticket.ResolutionSLAMet,
		&ticket.ResponseBreachNotifiedAt,
		&ticket.ResolutionBreachNotifiedAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	}
	dest = append(dest, extra...)
	return rows.Scan(dest...)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicketFields(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
