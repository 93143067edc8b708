//go:build !windows

package shutdown

import (
	"os"
	"syscall"
)

// SIGHUP covers the terminal going away under a running TUI.
var terminating = []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGHUP}
