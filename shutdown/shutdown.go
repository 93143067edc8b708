// Package shutdown delivers the signals that end a session.
package shutdown

import (
	"os"
	"os/signal"
)

// Signals subscribes to the platform's termination signals. The returned
// stop func unsubscribes; the channel is never closed.
func Signals() (<-chan os.Signal, func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, terminating...)
	return ch, func() { signal.Stop(ch) }
}
