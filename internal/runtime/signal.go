package runtime

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// SignalContext is the root context of the process. It cancels on SIGINT or
// SIGTERM; the http server, the reminder loop, and the kafka writer all hang
// off it so one signal drains everything.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
