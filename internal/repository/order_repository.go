package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/event-platform/internal/domain"
)

const orderColumns = `id, user_id, event_id, status, created_at, cancelled_at`

// OrderRepository encapsulates order persistence outside the
// registration transaction. Registered counts are always live
// aggregates over active rows, never stored counters.
type OrderRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	CancelActive(ctx context.Context, orderID string, at time.Time) error
	CountActiveByEvent(ctx context.Context, eventID string) (int, error)
	ActiveCountsByEvents(ctx context.Context, eventIDs []string) (map[string]int, error)
}

type orderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository instantiates repository.
func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &orderRepository{pool: pool}
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders WHERE id=$1`
	var order domain.Order
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&order.ID,
		&order.UserID,
		&order.EventID,
		&order.Status,
		&order.CreatedAt,
		&order.CancelledAt,
	); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders WHERE user_id=$1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Order
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(
			&order.ID,
			&order.UserID,
			&order.EventID,
			&order.Status,
			&order.CreatedAt,
			&order.CancelledAt,
		); err != nil {
			return nil, err
		}
		result = append(result, order)
	}
	return result, rows.Err()
}

// CancelActive flips an active order to cancelled. The status guard in
// the WHERE clause makes concurrent cancellations race-safe: only one
// caller observes a row change, the rest get pgx.ErrNoRows.
func (r *orderRepository) CancelActive(ctx context.Context, orderID string, at time.Time) error {
	const query = `UPDATE orders SET status=$1, cancelled_at=$2 WHERE id=$3 AND status=$4`
	cmd, err := r.pool.Exec(ctx, query, domain.OrderStatusCancelled, at, orderID, domain.OrderStatusActive)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *orderRepository) CountActiveByEvent(ctx context.Context, eventID string) (int, error) {
	const query = `SELECT COUNT(*) FROM orders WHERE event_id=$1 AND status=$2`
	var count int
	if err := r.pool.QueryRow(ctx, query, eventID, domain.OrderStatusActive).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *orderRepository) ActiveCountsByEvents(ctx context.Context, eventIDs []string) (map[string]int, error) {
	result := make(map[string]int, len(eventIDs))
	if len(eventIDs) == 0 {
		return result, nil
	}
	const query = `
        SELECT event_id, COUNT(*) FROM orders
        WHERE event_id = ANY($1) AND status=$2
        GROUP BY event_id`
	rows, err := r.pool.Query(ctx, query, eventIDs, domain.OrderStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var eventID string
		var count int
		if err := rows.Scan(&eventID, &count); err != nil {
			return nil, err
		}
		result[eventID] = count
	}
	return result, rows.Err()
}
