package httpserver

import (
	"context"
	"testing"
	"time"

	"github.com/din0497/orderpulse/internal/broadcast"
	"github.com/din0497/orderpulse/internal/domain"
	"github.com/din0497/orderpulse/internal/platform/config"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
)

// mockOrderService implements orderService with overridable function fields.
type mockOrderService struct {
	createOrderFn  func(ctx context.Context, foodName string, quantity int) (domain.Order, error)
	updateStatusFn func(ctx context.Context, id string, status domain.Status) (domain.Order, error)
	listOrdersFn   func() []domain.Order
	getOrderFn     func(id string) (domain.Order, bool)
	connectFn      func(ctx context.Context, conn broadcast.Conn) error
	disconnectFn   func(ctx context.Context, conn broadcast.Conn)
}

func (m *mockOrderService) CreateOrder(ctx context.Context, foodName string, quantity int) (domain.Order, error) {
	if m.createOrderFn != nil {
		return m.createOrderFn(ctx, foodName, quantity)
	}
	return domain.Order{}, nil
}

func (m *mockOrderService) UpdateStatus(ctx context.Context, id string, status domain.Status) (domain.Order, error) {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, status)
	}
	return domain.Order{}, nil
}

func (m *mockOrderService) ListOrders() []domain.Order {
	if m.listOrdersFn != nil {
		return m.listOrdersFn()
	}
	return []domain.Order{}
}

func (m *mockOrderService) GetOrder(id string) (domain.Order, bool) {
	if m.getOrderFn != nil {
		return m.getOrderFn(id)
	}
	return domain.Order{}, false
}

func (m *mockOrderService) Connect(ctx context.Context, conn broadcast.Conn) error {
	if m.connectFn != nil {
		return m.connectFn(ctx, conn)
	}
	return nil
}

func (m *mockOrderService) Disconnect(ctx context.Context, conn broadcast.Conn) {
	if m.disconnectFn != nil {
		m.disconnectFn(ctx, conn)
	}
}

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		AppName:                 "Order Management System",
		AppEnv:                  "test",
		Port:                    "8000",
		LogLevel:                "info",
		LogFormat:               "text",
		CORSAllowOrigins:        "*",
		MaxConnections:          10,
		MaxConnectionsPerIP:     5,
		ConnectionRatePerSecond: 100,
		ConnectionBurst:         100,
		OrderRatePerSecond:      1000,
		OrderRateBurst:          1000,
		SendTimeout:             time.Second,
		ShutdownTimeout:         time.Second,
	}
}

type testServerOptions struct {
	cfg          *config.Config
	clock        clockwork.Clock
	obs          Observability
	healthChecks []HealthCheck
}

func withConfig(cfg *config.Config) func(*testServerOptions) {
	return func(o *testServerOptions) { o.cfg = cfg }
}

func withClock(clock clockwork.Clock) func(*testServerOptions) {
	return func(o *testServerOptions) { o.clock = clock }
}

func withObservability(obs Observability) func(*testServerOptions) {
	return func(o *testServerOptions) { o.obs = obs }
}

func withHealthChecks(checks ...HealthCheck) func(*testServerOptions) {
	return func(o *testServerOptions) { o.healthChecks = checks }
}

func newTestServer(t *testing.T, orders orderService, opts ...func(*testServerOptions)) *Server {
	t.Helper()

	o := &testServerOptions{
		cfg:   testConfig(),
		clock: clockwork.NewFakeClockAt(testNow),
	}
	for _, opt := range opts {
		opt(o)
	}
	return NewServer(o.cfg, orders, o.clock, o.obs, o.healthChecks)
}

// callHandler runs handler behind ErrorHandlingMiddleware, the way the router does.
func callHandler(handler echo.HandlerFunc, c echo.Context) error {
	return ErrorHandlingMiddleware()(handler)(c)
}
