package dispatcher

import (
	"context"

	"github.com/campushq/claimflow/internal/domain/event"
)

// Handler processes domain events
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerInfo pairs a handler with a name for logging
type HandlerInfo struct {
	Name      string
	EventType event.Type
	Handler   Handler
}
