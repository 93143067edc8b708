package share

import (
	"context"
	"os/exec"

	"sayso/log"
)

// launch starts an opener and returns once it is running. The opener hands
// the link to a long-lived client that inherits its stdio, so output is not
// captured and the exit status is only reaped and logged in the background.
func launch(ctx context.Context, name string, args ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			log.Warnf("%s exited: %v", name, err)
		}
	}()
	return nil
}
