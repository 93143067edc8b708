package share

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

type macTarget struct{}

func DefaultTarget() Target { return macTarget{} }

func (macTarget) Name() string { return "WhatsApp.app" }

func (macTarget) Installed() bool {
	paths := []string{"/Applications/WhatsApp.app"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, "Applications", "WhatsApp.app"))
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return true
		}
	}
	return false
}

func (macTarget) Send(ctx context.Context, text string) error {
	if err := launch(ctx, "open", "-a", "WhatsApp", DirectURL(text)); err != nil {
		return fmt.Errorf("open: %w", err)
	}
	return nil
}
