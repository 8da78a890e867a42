package broadcast

import (
	"fmt"

	"github.com/din0497/orderpulse/internal/domain"
	"github.com/google/uuid"
)

// DeliveryError reports a failed send to one connection. It is logged and the connection
// pruned; Broadcast never returns it.
type DeliveryError struct {
	ConnID uuid.UUID
	Err    error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver to connection %s: %v", e.ConnID, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// SerializationError reports an envelope that could not be encoded. No viewer was sent anything.
type SerializationError struct {
	Kind domain.EventKind
	Err  error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("encode %s envelope: %v", e.Kind, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }
