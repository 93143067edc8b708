package share

import (
	"context"
	"fmt"
	"os/exec"
)

type windowsTarget struct{}

func DefaultTarget() Target { return windowsTarget{} }

func (windowsTarget) Name() string { return "WhatsApp" }

// Installed checks for the whatsapp: protocol registration.
func (windowsTarget) Installed() bool {
	return exec.Command("reg", "query", `HKCR\whatsapp`).Run() == nil
}

func (windowsTarget) Send(ctx context.Context, text string) error {
	// the empty argument is the window title start expects before the URL
	if err := launch(ctx, "cmd", "/c", "start", "", DirectURL(text)); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	return nil
}
