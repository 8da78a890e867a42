package domain

// EventKind discriminates the envelopes pushed to viewers.
type EventKind string

const (
	EventNewOrder      EventKind = "new_order"
	EventStatusUpdate  EventKind = "status_update"
	EventInitialOrders EventKind = "initial_orders"
)

// Envelope is the tagged message sent to viewers. Data is an Order for
// new_order and status_update, and a []Order for initial_orders.
type Envelope struct {
	Type EventKind `json:"type"`
	Data any       `json:"data"`
}

// NewOrderEvent wraps a freshly created order.
func NewOrderEvent(o Order) Envelope {
	return Envelope{Type: EventNewOrder, Data: o}
}

// StatusUpdateEvent wraps an order whose status just changed.
func StatusUpdateEvent(o Order) Envelope {
	return Envelope{Type: EventStatusUpdate, Data: o}
}

// InitialOrdersEvent wraps the snapshot sent to a viewer on connect.
// A nil slice is sent as an empty JSON array.
func InitialOrdersEvent(orders []Order) Envelope {
	if orders == nil {
		orders = []Order{}
	}
	return Envelope{Type: EventInitialOrders, Data: orders}
}
