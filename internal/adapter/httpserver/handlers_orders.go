package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/din0497/orderpulse/internal/broadcast"
	"github.com/din0497/orderpulse/internal/domain"
	apperrors "github.com/din0497/orderpulse/internal/platform/errors"
	"github.com/labstack/echo/v4"
)

type createOrderRequest struct {
	FoodName string `json:"foodName"`
	Quantity int    `json:"quantity"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) registerOrderRoutes() {
	mutations := newRateLimiter(s.config.OrderRatePerSecond, s.config.OrderRateBurst)

	s.echo.POST("/order", s.handleCreateOrder, mutations)
	s.echo.GET("/orders", s.handleListOrders)
	s.echo.GET("/order/:id", s.handleGetOrder)
	s.echo.PUT("/order/:id/status", s.handleUpdateStatus, mutations)
}

func (s *Server) handleCreateOrder(c echo.Context) error {
	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	order, err := s.orders.CreateOrder(c.Request().Context(), req.FoodName, req.Quantity)
	if err != nil && !isBroadcastOnlyFailure(c, order, err) {
		return mapOrderError(err)
	}

	if err := c.JSON(http.StatusCreated, order); err != nil {
		return fmt.Errorf("failed to write order response: %w", err)
	}
	return nil
}

func (s *Server) handleListOrders(c echo.Context) error {
	if err := c.JSON(http.StatusOK, s.orders.ListOrders()); err != nil {
		return fmt.Errorf("failed to write orders response: %w", err)
	}
	return nil
}

func (s *Server) handleGetOrder(c echo.Context) error {
	id := c.Param("id")
	order, ok := s.orders.GetOrder(id)
	if !ok {
		return apperrors.NotFoundError("order not found").WithField("order_id", id)
	}

	if err := c.JSON(http.StatusOK, order); err != nil {
		return fmt.Errorf("failed to write order response: %w", err)
	}
	return nil
}

func (s *Server) handleUpdateStatus(c echo.Context) error {
	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		return mapOrderError(err)
	}

	id := c.Param("id")
	order, err := s.orders.UpdateStatus(c.Request().Context(), id, status)
	if err != nil && !isBroadcastOnlyFailure(c, order, err) {
		return mapOrderError(err).WithField("order_id", id)
	}

	if err := c.JSON(http.StatusOK, order); err != nil {
		return fmt.Errorf("failed to write order response: %w", err)
	}
	return nil
}

// isBroadcastOnlyFailure reports whether err means the mutation was committed and only the
// live notification could not be encoded. The client still gets its order in that case.
func isBroadcastOnlyFailure(c echo.Context, order domain.Order, err error) bool {
	var serErr *broadcast.SerializationError
	if !errors.As(err, &serErr) {
		return false
	}
	slog.ErrorContext(c.Request().Context(), "Order committed but not broadcast",
		"order_id", order.ID, "event", serErr.Kind, "error", serErr.Err)
	return true
}

func mapOrderError(err error) *apperrors.Error {
	var validationErr *domain.ValidationError
	var statusErr *domain.InvalidStatusError

	switch {
	case errors.As(err, &validationErr):
		return apperrors.ValidationError(validationErr.Error()).WithField("field", validationErr.Field)
	case errors.As(err, &statusErr):
		return apperrors.UnprocessableError(statusErr.Error()).WithField("allowed", domain.Statuses)
	case errors.Is(err, domain.ErrOrderNotFound):
		return apperrors.NotFoundError("order not found")
	default:
		return apperrors.InternalError("failed to process order", err)
	}
}
