package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/event-platform/internal/domain"
)

// RegistrationTx exposes the reads and the single write a registration
// decision needs, all scoped to one transaction that holds a row lock
// on the event.
type RegistrationTx interface {
	// LockEvent loads the event row under FOR UPDATE. Concurrent
	// registrations for the same event serialize here, so the
	// duplicate check, the capacity count and the insert all observe
	// a stable snapshot.
	LockEvent(ctx context.Context) (*domain.Event, error)
	HasActiveOrder(ctx context.Context, userID string) (bool, error)
	CountActiveOrders(ctx context.Context) (int, error)
	InsertOrder(ctx context.Context, order *domain.Order) error
}

// RegistrationStore runs a callback inside a transaction keyed to one
// event. The transaction commits only when the callback returns nil;
// any error rolls everything back, so a failed registration never
// leaves partial state.
type RegistrationStore interface {
	WithEventTx(ctx context.Context, eventID string, fn func(tx RegistrationTx) error) error
}

type registrationStore struct {
	pool *pgxpool.Pool
}

// NewRegistrationStore returns a Postgres-backed store using row-level
// event locks for registration atomicity.
func NewRegistrationStore(pool *pgxpool.Pool) RegistrationStore {
	return &registrationStore{pool: pool}
}

func (s *registrationStore) WithEventTx(ctx context.Context, eventID string, fn func(tx RegistrationTx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		// no-op once the transaction is committed
		_ = tx.Rollback(ctx)
	}()

	if err := fn(&registrationTx{tx: tx, eventID: eventID}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type registrationTx struct {
	tx      pgx.Tx
	eventID string
}

func (t *registrationTx) LockEvent(ctx context.Context) (*domain.Event, error) {
	const query = `
        SELECT id, title, description, location, event_time, capacity, price_cents, status, creator_id, created_at, updated_at
        FROM events WHERE id=$1
        FOR UPDATE`
	var event domain.Event
	if err := t.tx.QueryRow(ctx, query, t.eventID).Scan(eventFields(&event)...); err != nil {
		return nil, err
	}
	return &event, nil
}

func (t *registrationTx) HasActiveOrder(ctx context.Context, userID string) (bool, error) {
	const query = `
        SELECT EXISTS(
            SELECT 1 FROM orders WHERE user_id=$1 AND event_id=$2 AND status=$3
        )`
	var exists bool
	if err := t.tx.QueryRow(ctx, query, userID, t.eventID, domain.OrderStatusActive).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (t *registrationTx) CountActiveOrders(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM orders WHERE event_id=$1 AND status=$2`
	var count int
	if err := t.tx.QueryRow(ctx, query, t.eventID, domain.OrderStatusActive).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (t *registrationTx) InsertOrder(ctx context.Context, order *domain.Order) error {
	const query = `
        INSERT INTO orders (user_id, event_id, status)
        VALUES ($1, $2, $3)
        RETURNING id, created_at`
	return t.tx.QueryRow(ctx, query,
		order.UserID,
		order.EventID,
		order.Status,
	).Scan(&order.ID, &order.CreatedAt)
}
