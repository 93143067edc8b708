//go:build windows

package shutdown

import "os"

var terminating = []os.Signal{os.Interrupt}
