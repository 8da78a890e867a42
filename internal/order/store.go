package order

import (
	"sync"
	"unicode/utf8"

	"github.com/din0497/orderpulse/internal/domain"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Store is the process-wide order collection. Construct it with NewStore and share the pointer.
type Store struct {
	clock  clockwork.Clock
	newID  func() string
	mu     sync.RWMutex
	orders []domain.Order
	index  map[string]int
}

func NewStore(clock clockwork.Clock) *Store {
	return &Store{
		clock: clock,
		newID: uuid.NewString,
		index: make(map[string]int),
	}
}

// CreateOrder validates the input and appends a new PENDING order. foodName is stored as given.
func (s *Store) CreateOrder(foodName string, quantity int) (domain.Order, error) {
	if err := validate(foodName, quantity); err != nil {
		return domain.Order{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	for s.has(id) {
		id = s.newID()
	}

	o := domain.Order{
		ID:        id,
		FoodName:  foodName,
		Quantity:  quantity,
		Status:    domain.StatusPending,
		Timestamp: s.clock.Now(),
	}
	s.index[id] = len(s.orders)
	s.orders = append(s.orders, o)
	return o, nil
}

// ListOrders returns a copy of all orders in creation order.
func (s *Store) ListOrders() []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Order, len(s.orders))
	copy(out, s.orders)
	return out
}

// UpdateStatus sets the status of an existing order. Any transition is accepted.
func (s *Store) UpdateStatus(id string, status domain.Status) (domain.Order, error) {
	if !status.Valid() {
		return domain.Order{}, &domain.InvalidStatusError{Value: string(status)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	s.orders[i].Status = status
	return s.orders[i], nil
}

// GetOrder looks up an order. A missing order is reported through ok, never as an error.
func (s *Store) GetOrder(id string) (domain.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return domain.Order{}, false
	}
	return s.orders[i], true
}

// Len returns the number of stored orders.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}

// has must be called with mu held.
func (s *Store) has(id string) bool {
	_, ok := s.index[id]
	return ok
}

func validate(foodName string, quantity int) error {
	if foodName == "" {
		return &domain.ValidationError{Field: "foodName", Reason: "must not be empty"}
	}
	if utf8.RuneCountInString(foodName) > domain.MaxFoodNameLength {
		return &domain.ValidationError{Field: "foodName", Reason: "exceeds 100 characters"}
	}
	if quantity <= 0 {
		return &domain.ValidationError{Field: "quantity", Reason: "must be greater than 0"}
	}
	if quantity > domain.MaxQuantity {
		return &domain.ValidationError{Field: "quantity", Reason: "must not exceed 100"}
	}
	return nil
}
