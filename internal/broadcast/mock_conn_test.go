package broadcast

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

var errConnClosed = errors.New("connection closed")

// mockConn records every payload it is sent. A non-nil failWith makes every send fail;
// sendFn, if set, runs before recording and may block or fail.
type mockConn struct {
	id       uuid.UUID
	failWith error
	sendFn   func(ctx context.Context) error

	mu          sync.Mutex
	received    [][]byte
	closed      bool
	closeReason string
}

func newMockConn() *mockConn {
	return &mockConn{id: uuid.New()}
}

func newFailingConn() *mockConn {
	return &mockConn{id: uuid.New(), failWith: errConnClosed}
}

func (m *mockConn) ID() uuid.UUID { return m.id }

func (m *mockConn) Send(ctx context.Context, data []byte) error {
	if m.sendFn != nil {
		if err := m.sendFn(ctx); err != nil {
			return err
		}
	}
	if m.failWith != nil {
		return m.failWith
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errConnClosed
	}
	m.received = append(m.received, data)
	return nil
}

func (m *mockConn) Close(reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.closeReason = reason
	return nil
}

func (m *mockConn) messages() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.received))
	copy(out, m.received)
	return out
}

func (m *mockConn) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
