package hotkey

import (
	"sync/atomic"
	"time"
)

type Action int

const (
	Start  Action = iota // begin listening
	Finish               // stop listening, keep the utterance
)

// Trigger turns raw key events into dictation actions. Holding the key
// longer than the long-press threshold is push-to-talk: release finishes.
// A short tap toggles: listening continues until the next tap, or until
// Reset reports that the recognizer ended on its own.
type Trigger struct {
	events chan Action
	reset  chan struct{}
	done   chan struct{}
	toggle atomic.Bool
}

func NewTrigger(hk Hotkey, longPress time.Duration) *Trigger {
	t := &Trigger{
		events: make(chan Action, 4),
		reset:  make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go t.run(hk, longPress)
	return t
}

func (t *Trigger) Events() <-chan Action { return t.events }

// IsToggle reports whether the current recording was started by a tap.
func (t *Trigger) IsToggle() bool { return t.toggle.Load() }

// Reset returns the trigger to idle after a recording ended without a key.
func (t *Trigger) Reset() { notify(t.reset) }

func (t *Trigger) Close() { close(t.done) }

func (t *Trigger) emit(a Action) bool {
	select {
	case t.events <- a:
		return true
	case <-t.done:
		return false
	}
}

func (t *Trigger) run(hk Hotkey, longPress time.Duration) {
	for {
		select {
		case <-hk.Keydown():
		case <-t.reset:
			continue
		case <-t.done:
			return
		}
		select {
		case <-t.reset:
		default:
		}
		t.toggle.Store(false)
		if !t.emit(Start) {
			return
		}

		timer := time.NewTimer(longPress)
		select {
		case <-timer.C:
			select {
			case <-hk.Keyup():
			case <-t.done:
				return
			}
			if !t.emit(Finish) {
				return
			}
			continue
		case <-hk.Keyup():
			timer.Stop()
			t.toggle.Store(true)
		case <-t.done:
			timer.Stop()
			return
		}

		select {
		case <-hk.Keydown():
			select {
			case <-hk.Keyup():
			case <-t.done:
				return
			}
			if !t.emit(Finish) {
				return
			}
		case <-t.reset:
		case <-t.done:
			return
		}
		t.toggle.Store(false)
	}
}
