package domain

import (
	"errors"
	"fmt"
)

var ErrOrderNotFound = errors.New("order not found")

// ValidationError reports bad input to CreateOrder.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InvalidStatusError reports a status string outside the recognized set.
type InvalidStatusError struct {
	Value string
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("invalid order status %q", e.Value)
}
