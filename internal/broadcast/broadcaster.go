package broadcast

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/din0497/orderpulse/internal/adapter/metrics"
	"github.com/din0497/orderpulse/internal/domain"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultSendTimeout bounds a single per-connection send so one slow viewer
	// cannot stall a fan-out round indefinitely.
	DefaultSendTimeout = 5 * time.Second

	// DefaultMaxConcurrentSends bounds the number of in-flight sends per round.
	DefaultMaxConcurrentSends = 64
)

// Option configures a Broadcaster.
type Option func(*Broadcaster)

// WithSendTimeout overrides DefaultSendTimeout. Non-positive values are ignored.
func WithSendTimeout(d time.Duration) Option {
	return func(b *Broadcaster) {
		if d > 0 {
			b.sendTimeout = d
		}
	}
}

// WithMaxConcurrentSends overrides DefaultMaxConcurrentSends. Non-positive values are ignored.
func WithMaxConcurrentSends(n int) Option {
	return func(b *Broadcaster) {
		if n > 0 {
			b.maxConcurrentSends = n
		}
	}
}

// WithMetrics attaches WebSocket metrics.
func WithMetrics(m *metrics.WebSocketMetrics) Option {
	return func(b *Broadcaster) { b.metrics = m }
}

// WithClock overrides the clock used to time fan-out rounds.
func WithClock(clock clockwork.Clock) Option {
	return func(b *Broadcaster) { b.clock = clock }
}

// Broadcaster fans envelopes out to every connection in a Registry.
//
// Fan-out rounds and joins are serialized by deliveryMu, so every connection
// sees envelopes in the order they were issued and never sees a broadcast
// before the snapshot it was joined with. The Registry has its own lock, which is
// only held for membership changes.
type Broadcaster struct {
	registry           *Registry
	clock              clockwork.Clock
	encode             func(any) ([]byte, error)
	sendTimeout        time.Duration
	maxConcurrentSends int
	metrics            *metrics.WebSocketMetrics
	deliveryMu         sync.Mutex
}

func NewBroadcaster(registry *Registry, opts ...Option) *Broadcaster {
	b := &Broadcaster{
		registry:           registry,
		clock:              clockwork.NewRealClock(),
		encode:             json.Marshal,
		sendTimeout:        DefaultSendTimeout,
		maxConcurrentSends: DefaultMaxConcurrentSends,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SendTimeout returns the per-connection send bound in effect.
func (b *Broadcaster) SendTimeout() time.Duration {
	return b.sendTimeout
}

// Broadcast encodes env once and attempts one send to each registered connection.
// Failed connections are removed from the registry and closed. Only an encoding
// failure is returned, as a *SerializationError.
func (b *Broadcaster) Broadcast(ctx context.Context, env domain.Envelope) error {
	data, err := b.encodeEnvelope(ctx, env)
	if err != nil {
		return err
	}
	if b.metrics != nil {
		b.metrics.MessagesPublished.WithLabelValues(string(env.Type)).Inc()
	}

	b.deliveryMu.Lock()
	defer b.deliveryMu.Unlock()

	start := b.clock.Now()
	recipients := b.registry.Snapshot()
	failed := b.fanOut(ctx, recipients, data)
	b.prune(ctx, failed)

	if b.metrics != nil {
		b.metrics.BroadcastDuration.Observe(b.clock.Since(start).Seconds())
	}
	slog.DebugContext(ctx, "Broadcast complete",
		"type", env.Type,
		"recipients", len(recipients),
		"failed", len(failed),
	)
	return nil
}

// Join sends conn the envelope built by snapshot and then registers it, as one step
// relative to Broadcast. snapshot runs while broadcasts are held off, so no mutation
// broadcast afterwards can be missing from it. If the send fails, conn is closed, not
// registered, and a *DeliveryError is returned.
func (b *Broadcaster) Join(ctx context.Context, conn Conn, snapshot func() domain.Envelope) error {
	b.deliveryMu.Lock()
	defer b.deliveryMu.Unlock()

	env := snapshot()
	data, err := b.encodeEnvelope(ctx, env)
	if err != nil {
		return err
	}

	if err := b.send(ctx, conn, data); err != nil {
		_ = conn.Close("initial snapshot failed")
		return err
	}

	b.registry.Add(conn)
	slog.InfoContext(ctx, "Viewer connected", "conn_id", conn.ID().String(), "total_connections", b.registry.Size())
	return nil
}

// Leave deregisters conn. It does not wait for an in-flight broadcast; a send to a
// connection that has gone away fails and is absorbed by that round.
func (b *Broadcaster) Leave(ctx context.Context, conn Conn) {
	if b.registry.Remove(conn) {
		slog.InfoContext(ctx, "Viewer disconnected", "conn_id", conn.ID().String(), "total_connections", b.registry.Size())
	}
}

// CloseAll removes every connection and sends each a close frame with reason.
func (b *Broadcaster) CloseAll(reason string) {
	b.deliveryMu.Lock()
	defer b.deliveryMu.Unlock()

	conns := b.registry.Snapshot()
	b.registry.RemoveAll(conns)
	for _, conn := range conns {
		_ = conn.Close(reason)
	}
	slog.Info("Closed all viewer connections", "count", len(conns), "reason", reason)
}

func (b *Broadcaster) encodeEnvelope(ctx context.Context, env domain.Envelope) ([]byte, error) {
	data, err := b.encode(env)
	if err != nil {
		if b.metrics != nil {
			b.metrics.SerializationFailures.Inc()
		}
		serr := &SerializationError{Kind: env.Type, Err: err}
		slog.ErrorContext(ctx, "Failed to encode envelope", "type", env.Type, "error", err)
		return nil, serr
	}
	return data, nil
}

// fanOut sends data to every recipient and returns the ones that failed.
func (b *Broadcaster) fanOut(ctx context.Context, recipients []Conn, data []byte) []Conn {
	var (
		mu     sync.Mutex
		failed []Conn
		g      errgroup.Group
	)
	g.SetLimit(b.maxConcurrentSends)

	for _, conn := range recipients {
		conn := conn
		g.Go(func() error {
			if err := b.send(ctx, conn, data); err != nil {
				mu.Lock()
				failed = append(failed, conn)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return failed
}

// send makes one delivery attempt bounded by sendTimeout. The caller's cancellation is
// not propagated: an abandoned request must not cause healthy viewers to be pruned.
func (b *Broadcaster) send(ctx context.Context, conn Conn, data []byte) error {
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.sendTimeout)
	defer cancel()

	if err := conn.Send(sendCtx, data); err != nil {
		derr := &DeliveryError{ConnID: conn.ID(), Err: err}
		if b.metrics != nil {
			b.metrics.DeliveryFailures.Inc()
		}
		slog.WarnContext(ctx, "Delivery failed", "conn_id", conn.ID().String(), "error", err)
		return derr
	}
	if b.metrics != nil {
		b.metrics.EnvelopesDelivered.Inc()
	}
	return nil
}

func (b *Broadcaster) prune(ctx context.Context, failed []Conn) {
	if len(failed) == 0 {
		return
	}

	removed := b.registry.RemoveAll(failed)
	for _, conn := range failed {
		_ = conn.Close("delivery failed")
	}

	if b.metrics != nil {
		b.metrics.ConnectionsPruned.Add(float64(removed))
	}
	slog.InfoContext(ctx, "Pruned dead connections", "count", removed, "remaining", b.registry.Size())
}
