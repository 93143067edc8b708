package share

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

type xdgTarget struct{}

func DefaultTarget() Target { return xdgTarget{} }

func (xdgTarget) Name() string { return "xdg-open" }

// Installed asks the MIME database for a whatsapp: scheme handler, which the
// desktop client and its community wrappers register.
func (xdgTarget) Installed() bool {
	out, err := exec.Command("xdg-mime", "query", "default", "x-scheme-handler/whatsapp").Output()
	return err == nil && strings.TrimSpace(string(out)) != ""
}

func (xdgTarget) Send(ctx context.Context, text string) error {
	if err := launch(ctx, "xdg-open", DirectURL(text)); err != nil {
		return fmt.Errorf("xdg-open: %w", err)
	}
	return nil
}
