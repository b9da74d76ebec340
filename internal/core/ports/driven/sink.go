package driven

import (
	"context"

	"github.com/umoja-health/tracksync/internal/core/domain"
)

// Outcome reports acceptance of one event by the delivery sink.
type Outcome struct {
	// Status is the sink's own status token (e.g. "OK").
	Status string

	// HTTPStatus is the transport-level status code.
	HTTPStatus int
}

// DeliverySink accepts transformed tracker events.
type DeliverySink interface {
	// Ping verifies connectivity. A failing sink at startup is only a
	// degraded state: delivery is deferred to the first real event.
	Ping(ctx context.Context) error

	// Deliver sends one event. A non-nil error means the event was not
	// durably accepted; structured failures carry an HTTP-like status
	// and a conflict list the core logs but does not interpret.
	Deliver(ctx context.Context, ev domain.TrackerEvent) (*Outcome, error)
}
