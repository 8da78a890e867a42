package broadcast

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/din0497/orderpulse/internal/adapter/metrics"
	"github.com/din0497/orderpulse/internal/domain"
)

// Gateway turns order mutations into envelopes and manages the viewer handshake.
type Gateway struct {
	store       domain.OrderStore
	broadcaster *Broadcaster
	metrics     *metrics.OrderMetrics
}

// NewGateway wires the store to the broadcaster. orderMetrics may be nil.
func NewGateway(store domain.OrderStore, broadcaster *Broadcaster, orderMetrics *metrics.OrderMetrics) *Gateway {
	return &Gateway{
		store:       store,
		broadcaster: broadcaster,
		metrics:     orderMetrics,
	}
}

// CreateOrder stores a new order and broadcasts it as new_order.
// Store errors are returned as-is and nothing is broadcast. If the order was stored but
// the envelope could not be encoded, the order is returned together with the
// *SerializationError.
func (g *Gateway) CreateOrder(ctx context.Context, foodName string, quantity int) (domain.Order, error) {
	order, err := g.store.CreateOrder(foodName, quantity)
	if err != nil {
		return domain.Order{}, fmt.Errorf("create order: %w", err)
	}
	if g.metrics != nil {
		g.metrics.Created.Inc()
	}
	slog.InfoContext(ctx, "Order created", "order_id", order.ID, "food_name", order.FoodName, "quantity", order.Quantity)

	if err := g.broadcaster.Broadcast(ctx, domain.NewOrderEvent(order)); err != nil {
		return order, fmt.Errorf("broadcast new order: %w", err)
	}
	return order, nil
}

// UpdateStatus changes an order's status and broadcasts it as status_update.
func (g *Gateway) UpdateStatus(ctx context.Context, id string, status domain.Status) (domain.Order, error) {
	order, err := g.store.UpdateStatus(id, status)
	if err != nil {
		return domain.Order{}, fmt.Errorf("update order status: %w", err)
	}
	if g.metrics != nil {
		g.metrics.StatusUpdates.WithLabelValues(string(order.Status)).Inc()
	}
	slog.InfoContext(ctx, "Order status updated", "order_id", order.ID, "status", order.Status)

	if err := g.broadcaster.Broadcast(ctx, domain.StatusUpdateEvent(order)); err != nil {
		return order, fmt.Errorf("broadcast status update: %w", err)
	}
	return order, nil
}

// ListOrders returns all orders in creation order.
func (g *Gateway) ListOrders() []domain.Order {
	return g.store.ListOrders()
}

// GetOrder returns the order with id, or false if there is none.
func (g *Gateway) GetOrder(id string) (domain.Order, bool) {
	return g.store.GetOrder(id)
}

// Connect sends conn the initial_orders snapshot and registers it for broadcasts.
// The viewer receives the snapshot before any later broadcast.
func (g *Gateway) Connect(ctx context.Context, conn Conn) error {
	err := g.broadcaster.Join(ctx, conn, func() domain.Envelope {
		return domain.InitialOrdersEvent(g.store.ListOrders())
	})
	if err != nil {
		return fmt.Errorf("join viewer: %w", err)
	}
	return nil
}

// Disconnect deregisters conn. Calling it for an already pruned connection is safe.
func (g *Gateway) Disconnect(ctx context.Context, conn Conn) {
	g.broadcaster.Leave(ctx, conn)
}
