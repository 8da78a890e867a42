package httpserver

import (
	"context"
	"log/slog"

	"github.com/din0497/orderpulse/internal/adapter/websocket"
	apperrors "github.com/din0497/orderpulse/internal/platform/errors"
	"github.com/labstack/echo/v4"
)

const (
	closeReasonGoingAway  = "Viewer disconnected"
	closeReasonJoinFailed = "Initial snapshot unavailable"
)

func (s *Server) registerViewerRoutes() {
	s.echo.GET("/ws", s.handleViewer)
}

// handleViewer upgrades the request, registers the viewer with the gateway (which sends the
// initial snapshot) and blocks reading until the peer leaves.
func (s *Server) handleViewer(c echo.Context) error {
	ip := c.RealIP()
	if ok, reason := s.limits.Acquire(ip); !ok {
		return s.rejectViewer(ip, reason)
	}
	defer s.limits.Release(ip)

	connection, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already written an HTTP error response.
		slog.WarnContext(c.Request().Context(), "WebSocket upgrade failed", "remote_ip", ip, "error", err)
		return nil
	}

	// The request context ends with the handler; the viewer session is bounded by ReadLoop instead.
	ctx := context.WithoutCancel(c.Request().Context())
	conn := websocket.NewConn(connection, s.clock)
	logger := slog.With("conn_id", conn.ID().String(), "remote_ip", ip, "remote_addr", conn.RemoteAddr())

	if err := s.orders.Connect(ctx, conn); err != nil {
		logger.WarnContext(ctx, "Viewer failed to join", "error", err)
		_ = conn.Close(closeReasonJoinFailed)
		return nil
	}

	defer func() {
		s.orders.Disconnect(ctx, conn)
		_ = conn.Close(closeReasonGoingAway)
	}()

	if err := conn.ReadLoop(ctx); err != nil {
		logger.DebugContext(ctx, "Viewer read loop ended", "error", err)
	}
	return nil
}

func (s *Server) rejectViewer(ip string, reason LimitReason) error {
	if m := s.observability.WebSocket; m != nil {
		m.ConnectionsRejected.WithLabelValues(string(reason)).Inc()
	}

	if reason == LimitReasonGlobal {
		return apperrors.UnavailableError("viewer capacity reached").WithField("reason", string(reason))
	}
	return apperrors.RateLimitedError("too many viewer connections").
		WithField("reason", string(reason)).
		WithField("client_ip", ip)
}
