// Package permission checks and requests microphone access.
package permission

import (
	"context"
	"errors"
	"time"

	"sayso/audio"
	"sayso/encoder"
)

type Status int

const (
	Unknown Status = iota
	Granted
	Denied
)

func (s Status) String() string {
	switch s {
	case Granted:
		return "granted"
	case Denied:
		return "denied"
	default:
		return "unknown"
	}
}

// ProbeTimeout bounds how long Request waits for the first audio callback.
const ProbeTimeout = 2 * time.Second

// Checker answers permission questions by talking to the audio host. There
// is no separate permission API on the desktop: listing sources tells us the
// sound server is reachable, and opening one raises the OS prompt where one
// exists (macOS TCC).
type Checker struct {
	ctx     audio.Context
	timeout time.Duration
}

func NewChecker(ctx audio.Context) *Checker {
	return &Checker{ctx: ctx, timeout: ProbeTimeout}
}

// Check reports access without opening a device.
func (c *Checker) Check() Status {
	if c.ctx == nil {
		return Unknown
	}
	devices, err := c.ctx.Devices()
	switch {
	case err != nil && errors.Is(err, audio.ErrNoDevice):
		return Unknown
	case err != nil:
		return Denied
	case len(devices) == 0:
		return Unknown
	}
	return Granted
}

// Request opens the default capture device briefly. The outcome arrives on
// the returned channel, which is buffered and receives exactly one value.
func (c *Checker) Request(ctx context.Context) <-chan Status {
	out := make(chan Status, 1)
	if c.ctx == nil {
		out <- Denied
		return out
	}
	go func() {
		out <- c.probe(ctx)
	}()
	return out
}

func (c *Checker) probe(ctx context.Context) Status {
	dev, err := c.ctx.NewCapture(nil, audio.CaptureConfig{
		SampleRate: encoder.SampleRate,
		Channels:   encoder.Channels,
	})
	if err != nil {
		return Denied
	}
	defer dev.Close()

	got := make(chan struct{}, 1)
	dev.SetCallback(func([]byte, uint32) {
		select {
		case got <- struct{}{}:
		default:
		}
	})
	defer dev.ClearCallback()

	if err := dev.Start(); err != nil {
		return Denied
	}
	defer dev.Stop()

	t := time.NewTimer(c.timeout)
	defer t.Stop()
	select {
	case <-got:
		return Granted
	case <-t.C:
		return Unknown
	case <-ctx.Done():
		return Unknown
	}
}
