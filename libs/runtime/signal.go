package runtime

import (
	"context"
	"os/signal"
	"syscall"
)

// SignalContext is the root context for a service process; it is canceled
// on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
