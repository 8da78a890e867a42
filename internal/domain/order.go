package domain

import "time"

// Input bounds for new orders.
const (
	MaxFoodNameLength = 100
	MaxQuantity       = 100
)

// Status is the lifecycle state of an order. The zero value is not a valid status.
type Status string

const (
	StatusPending   Status = "pending"
	StatusReceived  Status = "received"
	StatusPreparing Status = "preparing"
	StatusCompleted Status = "completed"
)

// Statuses lists every recognized status in lifecycle order.
var Statuses = []Status{StatusPending, StatusReceived, StatusPreparing, StatusCompleted}

// Valid reports whether s is one of the recognized statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusReceived, StatusPreparing, StatusCompleted:
		return true
	}
	return false
}

// ParseStatus converts a wire value into a Status. Matching is exact: "Pending" is rejected.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", &InvalidStatusError{Value: raw}
	}
	return s, nil
}

// Order is a single food order. The ID and Timestamp never change after creation.
type Order struct {
	ID        string    `json:"id"`
	FoodName  string    `json:"foodName"`
	Quantity  int       `json:"quantity"`
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderStore is the in-memory order collection the gateway mutates.
type OrderStore interface {
	CreateOrder(foodName string, quantity int) (Order, error)
	ListOrders() []Order
	UpdateStatus(id string, status Status) (Order, error)
	GetOrder(id string) (Order, bool)
}
