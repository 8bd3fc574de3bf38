package runtime

import (
	"context"
	"os/signal"
	"syscall"
)

// SignalContext derives a context cancelled on SIGINT/SIGTERM. A nil parent means Background.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
