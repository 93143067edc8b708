// Package hotkey delivers the global push-to-talk key (Ctrl+Shift+Space).
package hotkey

type Hotkey interface {
	Register() error
	Unregister()
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
}

// notify sends without blocking; a signal nobody is waiting for is dropped.
func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
