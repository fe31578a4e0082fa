package service

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/event-platform/internal/domain"
	"github.com/spec-kit/event-platform/internal/repository"
	apperrors "github.com/spec-kit/event-platform/pkg/util"
)

// memStore backs registration tests with the same serialization
// contract as the Postgres store: one transaction per event at a time.
type memStore struct {
	mu     sync.Mutex
	events map[string]*domain.Event
	orders map[string]*domain.Order
	seq    int
}

func newMemStore() *memStore {
	return &memStore{
		events: make(map[string]*domain.Event),
		orders: make(map[string]*domain.Order),
	}
}

func (s *memStore) addEvent(event domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.ID] = &event
}

func (s *memStore) WithEventTx(ctx context.Context, eventID string, fn func(tx repository.RegistrationTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&memTx{store: s, eventID: eventID})
}

type memTx struct {
	store   *memStore
	eventID string
}

func (t *memTx) LockEvent(ctx context.Context) (*domain.Event, error) {
	event, ok := t.store.events[t.eventID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *event
	return &copied, nil
}

func (t *memTx) HasActiveOrder(ctx context.Context, userID string) (bool, error) {
	for _, order := range t.store.orders {
		if order.UserID == userID && order.EventID == t.eventID && order.Status == domain.OrderStatusActive {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) CountActiveOrders(ctx context.Context) (int, error) {
	count := 0
	for _, order := range t.store.orders {
		if order.EventID == t.eventID && order.Status == domain.OrderStatusActive {
			count++
		}
	}
	return count, nil
}

func (t *memTx) InsertOrder(ctx context.Context, order *domain.Order) error {
	t.store.seq++
	order.ID = "order-" + strconv.Itoa(t.store.seq)
	order.CreatedAt = time.Now()
	copied := *order
	t.store.orders[order.ID] = &copied
	return nil
}

// memOrderRepo serves the non-transactional order reads and the
// cancellation path.
type memOrderRepo struct {
	store *memStore
}

func (r *memOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	order, ok := r.store.orders[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *order
	return &copied, nil
}

func (r *memOrderRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var result []domain.Order
	for _, order := range r.store.orders {
		if order.UserID == userID {
			result = append(result, *order)
		}
	}
	return result, nil
}

func (r *memOrderRepo) CancelActive(ctx context.Context, orderID string, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	order, ok := r.store.orders[orderID]
	if !ok || order.Status != domain.OrderStatusActive {
		return pgx.ErrNoRows
	}
	order.Status = domain.OrderStatusCancelled
	order.CancelledAt = &at
	return nil
}

func (r *memOrderRepo) CountActiveByEvent(ctx context.Context, eventID string) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	count := 0
	for _, order := range r.store.orders {
		if order.EventID == eventID && order.Status == domain.OrderStatusActive {
			count++
		}
	}
	return count, nil
}

func (r *memOrderRepo) ActiveCountsByEvents(ctx context.Context, eventIDs []string) (map[string]int, error) {
	result := make(map[string]int, len(eventIDs))
	for _, id := range eventIDs {
		count, _ := r.CountActiveByEvent(ctx, id)
		if count > 0 {
			result[id] = count
		}
	}
	return result, nil
}

// memEventRepo serves event lookups outside the registration
// transaction.
type memEventRepo struct {
	store *memStore
}

func (r *memEventRepo) Create(ctx context.Context, event *domain.Event) error {
	r.store.addEvent(*event)
	return nil
}

func (r *memEventRepo) Update(ctx context.Context, event *domain.Event) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.events[event.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *event
	r.store.events[event.ID] = &copied
	return nil
}

func (r *memEventRepo) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.events[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.store.events, id)
	return nil
}

func (r *memEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	event, ok := r.store.events[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *event
	return &copied, nil
}

func (r *memEventRepo) GetByIDs(ctx context.Context, ids []string) (map[string]domain.Event, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	result := make(map[string]domain.Event, len(ids))
	for _, id := range ids {
		if event, ok := r.store.events[id]; ok {
			result[id] = *event
		}
	}
	return result, nil
}

func (r *memEventRepo) ListByCreator(ctx context.Context, creatorID string) ([]domain.Event, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var result []domain.Event
	for _, event := range r.store.events {
		if event.CreatorID == creatorID {
			result = append(result, *event)
		}
	}
	return result, nil
}

func (r *memEventRepo) ListWithFilter(ctx context.Context, filter repository.EventFilter) ([]domain.Event, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var result []domain.Event
	for _, event := range r.store.events {
		result = append(result, *event)
	}
	return result, nil
}

func (r *memEventRepo) CountWithFilter(ctx context.Context, filter repository.EventFilter) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return len(r.store.events), nil
}

func newRegistrationFixture() (*RegistrationService, *memStore) {
	store := newMemStore()
	svc := NewRegistrationService(RegistrationDependencies{
		Store:     store,
		OrderRepo: &memOrderRepo{store: store},
		EventRepo: &memEventRepo{store: store},
	})
	return svc, store
}

func activeEvent(id string, capacity int) domain.Event {
	return domain.Event{
		ID:        id,
		Title:     "City Marathon",
		Location:  "Riverside Park",
		EventTime: time.Now().Add(48 * time.Hour),
		Capacity:  capacity,
		Status:    domain.EventStatusActive,
		CreatorID: "organizer",
	}
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	var de *apperrors.DomainError
	require.ErrorAs(t, err, &de)
	return de.Code
}

func TestRegister_Success(t *testing.T) {
	svc, store := newRegistrationFixture()
	store.addEvent(activeEvent("evt-1", 10))

	detail, err := svc.Register(context.Background(), "user-1", "evt-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", detail.Order.UserID)
	assert.Equal(t, "evt-1", detail.Order.EventID)
	assert.Equal(t, domain.OrderStatusActive, detail.Order.Status)
	require.NotNil(t, detail.Event)
	assert.Equal(t, "City Marathon", detail.Event.Title)
}

func TestRegister_EventNotFound(t *testing.T) {
	svc, _ := newRegistrationFixture()

	_, err := svc.Register(context.Background(), "user-1", "missing")
	assert.Equal(t, "NOT_FOUND", domainCode(t, err))
}

func TestRegister_EventNotActive(t *testing.T) {
	svc, store := newRegistrationFixture()
	event := activeEvent("evt-1", 10)
	event.Status = domain.EventStatusCancelled
	store.addEvent(event)

	_, err := svc.Register(context.Background(), "user-1", "evt-1")
	assert.Equal(t, "INVALID_STATE", domainCode(t, err))
}

func TestRegister_EventAlreadyPassed(t *testing.T) {
	svc, store := newRegistrationFixture()
	event := activeEvent("evt-1", 10)
	event.EventTime = time.Now().Add(-time.Hour)
	store.addEvent(event)

	_, err := svc.Register(context.Background(), "user-1", "evt-1")
	assert.Equal(t, "INVALID_STATE", domainCode(t, err))
}

func TestRegister_DuplicateRejected(t *testing.T) {
	svc, store := newRegistrationFixture()
	store.addEvent(activeEvent("evt-1", 10))

	_, err := svc.Register(context.Background(), "user-1", "evt-1")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "user-1", "evt-1")
	assert.Equal(t, "CONFLICT", domainCode(t, err))
}

func TestRegister_CapacityFull(t *testing.T) {
	svc, store := newRegistrationFixture()
	store.addEvent(activeEvent("evt-1", 2))

	_, err := svc.Register(context.Background(), "user-1", "evt-1")
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), "user-2", "evt-1")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "user-3", "evt-1")
	assert.Equal(t, "CONFLICT", domainCode(t, err))
}

func TestRegister_ZeroCapacityAlwaysFull(t *testing.T) {
	svc, store := newRegistrationFixture()
	store.addEvent(activeEvent("evt-1", 0))

	_, err := svc.Register(context.Background(), "user-1", "evt-1")
	assert.Equal(t, "CONFLICT", domainCode(t, err))
}

func TestRegister_CapacityTwoScenario(t *testing.T) {
	svc, store := newRegistrationFixture()
	store.addEvent(activeEvent("evt-1", 2))

	orderA, err := svc.Register(context.Background(), "alice", "evt-1")
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), "bob", "evt-1")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "carol", "evt-1")
	assert.Equal(t, "CONFLICT", domainCode(t, err))

	require.NoError(t, svc.Cancel(context.Background(), orderA.Order.ID, "alice"))

	_, err = svc.Register(context.Background(), "carol", "evt-1")
	assert.NoError(t, err)
}

func TestRegister_CancelFreesSlot(t *testing.T) {
	svc, store := newRegistrationFixture()
	store.addEvent(activeEvent("evt-1", 1))

	first, err := svc.Register(context.Background(), "user-1", "evt-1")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "user-2", "evt-1")
	assert.Equal(t, "CONFLICT", domainCode(t, err))

	require.NoError(t, svc.Cancel(context.Background(), first.Order.ID, "user-1"))

	_, err = svc.Register(context.Background(), "user-2", "evt-1")
	assert.NoError(t, err)
}

func TestRegister_ReRegisterAfterCancel(t *testing.T) {
	svc, store := newRegistrationFixture()
	store.addEvent(activeEvent("evt-1", 5))

	first, err := svc.Register(context.Background(), "user-1", "evt-1")
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(context.Background(), first.Order.ID, "user-1"))

	second, err := svc.Register(context.Background(), "user-1", "evt-1")
	require.NoError(t, err)
	assert.NotEqual(t, first.Order.ID, second.Order.ID)
}

func TestRegister_LastSlotSingleWinner(t *testing.T) {
	svc, store := newRegistrationFixture()
	store.addEvent(activeEvent("evt-1", 1))

	const attempts = 16
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Register(context.Background(), "user-"+strconv.Itoa(i), "evt-1")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.Equal(t, "CONFLICT", domainCode(t, err))
		}
	}
	assert.Equal(t, 1, succeeded)
}

func TestCancel_NotFound(t *testing.T) {
	svc, _ := newRegistrationFixture()

	err := svc.Cancel(context.Background(), "missing", "user-1")
	assert.Equal(t, "NOT_FOUND", domainCode(t, err))
}

func TestCancel_ForeignOrderReportsNotFound(t *testing.T) {
	svc, store := newRegistrationFixture()
	store.addEvent(activeEvent("evt-1", 5))

	detail, err := svc.Register(context.Background(), "user-1", "evt-1")
	require.NoError(t, err)

	err = svc.Cancel(context.Background(), detail.Order.ID, "user-2")
	assert.Equal(t, "NOT_FOUND", domainCode(t, err))
}

func TestCancel_AlreadyCancelled(t *testing.T) {
	svc, store := newRegistrationFixture()
	store.addEvent(activeEvent("evt-1", 5))

	detail, err := svc.Register(context.Background(), "user-1", "evt-1")
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(context.Background(), detail.Order.ID, "user-1"))

	err = svc.Cancel(context.Background(), detail.Order.ID, "user-1")
	assert.Equal(t, "INVALID_STATE", domainCode(t, err))
}

func TestListForUser_AttachesEvents(t *testing.T) {
	svc, store := newRegistrationFixture()
	store.addEvent(activeEvent("evt-1", 5))
	store.addEvent(activeEvent("evt-2", 5))

	_, err := svc.Register(context.Background(), "user-1", "evt-1")
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), "user-1", "evt-2")
	require.NoError(t, err)

	details, err := svc.ListForUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, details, 2)
	for _, detail := range details {
		assert.NotNil(t, detail.Event)
	}
}

func TestGetForUser_ForeignOrderForbidden(t *testing.T) {
	svc, store := newRegistrationFixture()
	store.addEvent(activeEvent("evt-1", 5))

	detail, err := svc.Register(context.Background(), "user-1", "evt-1")
	require.NoError(t, err)

	_, err = svc.GetForUser(context.Background(), detail.Order.ID, "user-2")
	assert.Equal(t, "FORBIDDEN", domainCode(t, err))

	got, err := svc.GetForUser(context.Background(), detail.Order.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, detail.Order.ID, got.Order.ID)
}
