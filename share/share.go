// Package share hands text to WhatsApp: the desktop client when it is
// installed, otherwise the api.whatsapp.com web link in the default browser.
package share

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pkg/browser"

	"sayso/log"
)

const (
	directPrefix   = "whatsapp://send?text="
	fallbackPrefix = "https://api.whatsapp.com/send?text="
)

var (
	ErrLaunchFailed = errors.New("whatsapp launch failed")
	ErrNotFound     = errors.New("no handler for whatsapp link")
)

// Route says how a message left the process.
type Route string

const (
	RouteDirect   Route = "direct"
	RouteFallback Route = "fallback"
)

// Target is the locally installed messaging client.
type Target interface {
	Name() string
	Installed() bool
	Send(ctx context.Context, text string) error
}

type WhatsApp struct {
	target Target
	open   func(url string) error
	copy   func(text string) error
}

// NewWhatsApp uses the platform's desktop client, the default browser and
// the system clipboard.
func NewWhatsApp() *WhatsApp {
	// nil sends the opener's chatter to the null device. Any other writer
	// makes the opener's Run wait on a pipe the launched browser inherits.
	browser.Stdout = nil
	browser.Stderr = nil
	return &WhatsApp{
		target: DefaultTarget(),
		open:   browser.OpenURL,
		copy:   Copy,
	}
}

// Target returns the desktop client probe, nil on unsupported platforms.
func (w *WhatsApp) Target() Target { return w.target }

// Share sends text through the desktop client when it is installed. The text
// is also left on the clipboard so it can be pasted into another chat.
// Without a client the web link is opened instead.
func (w *WhatsApp) Share(ctx context.Context, text string) (Route, error) {
	if w.target != nil && w.target.Installed() {
		if err := w.copy(text); err != nil {
			log.Warnf("clipboard copy failed: %v", err)
		}
		if err := w.target.Send(ctx, text); err != nil {
			return RouteDirect, fmt.Errorf("%w: %s: %v", ErrLaunchFailed, w.target.Name(), err)
		}
		return RouteDirect, nil
	}

	if err := w.open(FallbackURL(text)); err != nil {
		return RouteFallback, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return RouteFallback, nil
}

// DirectURL is the link the desktop client registers a handler for.
func DirectURL(text string) string {
	return directPrefix + Encode(text)
}

func FallbackURL(text string) string {
	return fallbackPrefix + Encode(text)
}

// Encode percent-escapes every byte except ASCII letters, digits and
// _-!.~'()*. Space becomes %20, never '+'.
func Encode(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("_-!.~'()*", c) >= 0
}
