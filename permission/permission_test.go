package permission

import (
	"context"
	"errors"
	"testing"
	"time"

	"sayso/audio"
)

type brokenContext struct {
	devErr     error
	captureErr error
}

func (b brokenContext) Devices() ([]audio.DeviceInfo, error) { return nil, b.devErr }
func (b brokenContext) Close()                               {}
func (b brokenContext) NewCapture(*audio.DeviceInfo, audio.CaptureConfig) (audio.CaptureDevice, error) {
	return nil, b.captureErr
}

// silentCapture starts fine but never delivers audio.
type silentCapture struct{ audio.FakeCapture }

func (*silentCapture) Start() error { return nil }
func (*silentCapture) Stop()        {}

type silentContext struct{ brokenContext }

func (silentContext) NewCapture(*audio.DeviceInfo, audio.CaptureConfig) (audio.CaptureDevice, error) {
	return &silentCapture{}, nil
}

func TestCheck(t *testing.T) {
	for _, tt := range []struct {
		name string
		ctx  audio.Context
		want Status
	}{
		{"device listed", audio.NewFakeContext(nil, false), Granted},
		{"no devices", brokenContext{devErr: audio.ErrNoDevice}, Unknown},
		{"access refused", brokenContext{devErr: errors.New("connection refused")}, Denied},
		{"no audio host", nil, Unknown},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewChecker(tt.ctx).Check(); got != tt.want {
				t.Errorf("Check() = %v, want %v", got, tt.want)
			}
		})
	}
}

func receive(t *testing.T, ch <-chan Status) Status {
	t.Helper()
	select {
	case st := <-ch:
		return st
	case <-time.After(5 * time.Second):
		t.Fatal("no permission result")
		return Unknown
	}
}

func TestRequestGranted(t *testing.T) {
	c := NewChecker(audio.NewFakeContext(make([]byte, 4096), false))
	if got := receive(t, c.Request(context.Background())); got != Granted {
		t.Errorf("got %v, want granted", got)
	}
}

func TestRequestDenied(t *testing.T) {
	c := NewChecker(brokenContext{captureErr: errors.New("not permitted")})
	if got := receive(t, c.Request(context.Background())); got != Denied {
		t.Errorf("got %v, want denied", got)
	}
	if got := receive(t, NewChecker(nil).Request(context.Background())); got != Denied {
		t.Errorf("nil context: got %v, want denied", got)
	}
}

func TestRequestTimeout(t *testing.T) {
	c := NewChecker(silentContext{})
	c.timeout = 20 * time.Millisecond
	if got := receive(t, c.Request(context.Background())); got != Unknown {
		t.Errorf("got %v, want unknown", got)
	}
}

func TestStatusString(t *testing.T) {
	if Granted.String() != "granted" || Denied.String() != "denied" || Unknown.String() != "unknown" {
		t.Error("unexpected status names")
	}
}
