package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/din0497/orderpulse/internal/adapter/metrics"
	"github.com/din0497/orderpulse/internal/adapter/websocket"
	"github.com/din0497/orderpulse/internal/broadcast"
	"github.com/din0497/orderpulse/internal/domain"
	"github.com/din0497/orderpulse/internal/platform/config"
	gorillaws "github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

type orderService interface {
	CreateOrder(ctx context.Context, foodName string, quantity int) (domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.Status) (domain.Order, error)
	ListOrders() []domain.Order
	GetOrder(id string) (domain.Order, bool)
	Connect(ctx context.Context, conn broadcast.Conn) error
	Disconnect(ctx context.Context, conn broadcast.Conn)
}

// Observability bundles the Prometheus registry and the collectors the server writes to.
type Observability struct {
	Registry  *prometheus.Registry
	HTTP      *metrics.HTTPMetrics
	WebSocket *metrics.WebSocketMetrics
}

type Server struct {
	echo   *echo.Echo
	config *config.Config
	clock  clockwork.Clock

	orders   orderService
	limits   *ConnectionLimits
	upgrader gorillaws.Upgrader

	observability   Observability
	healthChecks    []HealthCheck
	readinessChecks []HealthCheck
	startTime       time.Time
}

func NewServer(cfg *config.Config, orders orderService, clock clockwork.Clock, obs Observability, healthChecks []HealthCheck) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:   e,
		config: cfg,
		clock:  clock,
		orders: orders,
		limits: NewConnectionLimits(
			clock,
			int64(cfg.MaxConnections),
			cfg.MaxConnectionsPerIP,
			cfg.ConnectionRatePerSecond,
			cfg.ConnectionBurst,
		),
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     websocket.NewCheckOrigin(cfg.AppURL, cfg.AllowedOrigins(), cfg.IsDevelopment()),
		},
		observability: obs,
		healthChecks:  healthChecks,
		startTime:     clock.Now(),
	}
	// Viewer capacity only gates readiness; startup must not depend on how many viewers are connected.
	srv.readinessChecks = append(append([]HealthCheck{}, healthChecks...), srv.capacityCheck())

	srv.registerRoutes()

	return srv
}

// Handler exposes the router, mainly for httptest servers.
func (s *Server) Handler() *echo.Echo {
	return s.echo
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port, "app", s.config.AppName)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
