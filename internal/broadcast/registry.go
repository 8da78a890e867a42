package broadcast

import (
	"context"
	"sync"

	"github.com/din0497/orderpulse/internal/adapter/metrics"
	"github.com/google/uuid"
)

// Conn is one viewer connection. Implementations must allow Send and Close to be
// called from different goroutines.
type Conn interface {
	ID() uuid.UUID
	Send(ctx context.Context, data []byte) error
	Close(reason string) error
}

// Registry is the set of live viewer connections, keyed by connection ID.
// It only tracks membership; it never reads from or writes to a connection.
type Registry struct {
	mu      sync.RWMutex
	conns   map[uuid.UUID]Conn
	metrics *metrics.WebSocketMetrics
}

// NewRegistry creates an empty registry. wsMetrics may be nil.
func NewRegistry(wsMetrics *metrics.WebSocketMetrics) *Registry {
	return &Registry{
		conns:   make(map[uuid.UUID]Conn),
		metrics: wsMetrics,
	}
}

// Add registers conn.
func (r *Registry) Add(conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.conns[conn.ID()] = conn
	r.recordSize()
}

// Remove deregisters conn. Removing an absent connection is a no-op and reports false.
func (r *Registry) Remove(conn Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[conn.ID()]; !ok {
		return false
	}
	delete(r.conns, conn.ID())
	r.recordSize()
	return true
}

// RemoveAll deregisters every given connection in one update and returns how many were present.
func (r *Registry) RemoveAll(conns []Conn) int {
	if len(conns) == 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for _, conn := range conns {
		if _, ok := r.conns[conn.ID()]; ok {
			delete(r.conns, conn.ID())
			removed++
		}
	}
	r.recordSize()
	return removed
}

// Snapshot returns a point-in-time copy of the members. Later Add/Remove calls do not affect it.
func (r *Registry) Snapshot() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Conn, 0, len(r.conns))
	for _, conn := range r.conns {
		out = append(out, conn)
	}
	return out
}

// Size returns the current member count.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// recordSize must be called with mu held.
func (r *Registry) recordSize() {
	if r.metrics != nil {
		r.metrics.ActiveConnections.Set(float64(len(r.conns)))
	}
}
