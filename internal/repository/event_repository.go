package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/event-platform/internal/domain"
)

const eventColumns = `id, title, description, location, event_time, capacity, price_cents, status, creator_id, created_at, updated_at`

// EventFilter captures listing parameters. Search matches title or
// description as a substring; Location matches as a substring; date
// bounds are inclusive.
type EventFilter struct {
	Search   *string
	DateFrom *time.Time
	DateTo   *time.Time
	Location *string
	Status   domain.EventStatus
	Limit    int
	Offset   int
}

// EventRepository encapsulates event persistence.
type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	Update(ctx context.Context, event *domain.Event) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]domain.Event, error)
	ListByCreator(ctx context.Context, creatorID string) ([]domain.Event, error)
	ListWithFilter(ctx context.Context, filter EventFilter) ([]domain.Event, error)
	CountWithFilter(ctx context.Context, filter EventFilter) (int, error)
}

type eventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository instantiates repository.
func NewEventRepository(pool *pgxpool.Pool) EventRepository {
	return &eventRepository{pool: pool}
}

func (r *eventRepository) Create(ctx context.Context, event *domain.Event) error {
	const query = `
        INSERT INTO events (title, description, location, event_time, capacity, price_cents, status, creator_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		event.Title,
		event.Description,
		event.Location,
		event.EventTime,
		event.Capacity,
		event.PriceCents,
		event.Status,
		event.CreatorID,
	).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)
}

func (r *eventRepository) Update(ctx context.Context, event *domain.Event) error {
	const query = `
        UPDATE events SET title=$1, description=$2, location=$3, event_time=$4,
            capacity=$5, price_cents=$6, status=$7, updated_at=NOW()
        WHERE id=$8`
	cmd, err := r.pool.Exec(ctx, query,
		event.Title,
		event.Description,
		event.Location,
		event.EventTime,
		event.Capacity,
		event.PriceCents,
		event.Status,
		event.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events WHERE id=$1`, eventColumns)
	var event domain.Event
	if err := r.pool.QueryRow(ctx, query, id).Scan(eventFields(&event)...); err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepository) GetByIDs(ctx context.Context, ids []string) (map[string]domain.Event, error) {
	result := make(map[string]domain.Event, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM events WHERE id = ANY($1)`, eventColumns)
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var event domain.Event
		if err := rows.Scan(eventFields(&event)...); err != nil {
			return nil, err
		}
		result[event.ID] = event
	}
	return result, rows.Err()
}

func (r *eventRepository) ListByCreator(ctx context.Context, creatorID string) ([]domain.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events WHERE creator_id=$1 ORDER BY event_time ASC`, eventColumns)
	rows, err := r.pool.Query(ctx, query, creatorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (r *eventRepository) ListWithFilter(ctx context.Context, filter EventFilter) ([]domain.Event, error) {
	clauses, args := filterClauses(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM events WHERE %s ORDER BY event_time ASC LIMIT %d OFFSET %d`,
		eventColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (r *eventRepository) CountWithFilter(ctx context.Context, filter EventFilter) (int, error) {
	clauses, args := filterClauses(filter)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM events WHERE %s`, strings.Join(clauses, " AND "))

	var total int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func filterClauses(filter EventFilter) ([]string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Status != "" {
		args = append(args, filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.Search)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s)", placeholder, placeholder))
	}
	if filter.Location != nil && strings.TrimSpace(*filter.Location) != "" {
		location := "%" + strings.ToLower(strings.TrimSpace(*filter.Location)) + "%"
		args = append(args, location)
		clauses = append(clauses, fmt.Sprintf("LOWER(location) LIKE $%d", len(args)))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		clauses = append(clauses, fmt.Sprintf("event_time >= $%d", len(args)))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		clauses = append(clauses, fmt.Sprintf("event_time <= $%d", len(args)))
	}

	return clauses, args
}

func eventFields(event *domain.Event) []any {
	return []any{
		&event.ID,
		&event.Title,
		&event.Description,
		&event.Location,
		&event.EventTime,
		&event.Capacity,
		&event.PriceCents,
		&event.Status,
		&event.CreatorID,
		&event.CreatedAt,
		&event.UpdatedAt,
	}
}

func scanEvents(rows pgx.Rows) ([]domain.Event, error) {
	var result []domain.Event
	for rows.Next() {
		var event domain.Event
		if err := rows.Scan(eventFields(&event)...); err != nil {
			return nil, err
		}
		result = append(result, event)
	}
	return result, rows.Err()
}
