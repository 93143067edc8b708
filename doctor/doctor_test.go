package doctor

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"sayso/audio"
	"sayso/encoder"
	"sayso/recognizer"
)

type target struct{ installed bool }

func (t target) Name() string                       { return "fake" }
func (t target) Installed() bool                    { return t.installed }
func (t target) Send(context.Context, string) error { return nil }

func speech() []byte {
	n := encoder.SampleRate / 2
	out := make([]byte, 2*n)
	for i := 0; i < n; i++ {
		v := int16(6000 * math.Sin(2*math.Pi*220*float64(i)/encoder.SampleRate))
		out[2*i] = byte(v)
		out[2*i+1] = byte(v >> 8)
	}
	return out
}

func testDeps() Deps {
	return Deps{
		Audio:     func() (audio.Context, error) { return audio.NewFakeContext(speech(), false), nil },
		Backend:   func() (recognizer.Backend, error) { return recognizer.NewFake(nil, "testing one two"), nil },
		Target:    target{installed: true},
		Hotkey:    func() (string, error) { return "2 keyboard(s) found", nil },
		Clipboard: func(text string) (string, error) { return text, nil },
		Record:    50 * time.Millisecond,
	}
}

func TestRunAllPass(t *testing.T) {
	var out bytes.Buffer
	code := run(strings.NewReader("\ny\n"), &out, testDeps())
	if code != 0 {
		t.Fatalf("exit code %d:\n%s", code, out.String())
	}
	for _, want := range []string{
		"PASS: using fake",
		"1. testing one two",
		"PASS: recognition verified by user",
		"desktop client found via fake",
		"PASS: clipboard write/read verified",
		"PASS: 2 keyboard(s) found",
		"All checks passed!",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestRunFailures(t *testing.T) {
	for _, tt := range []struct {
		name   string
		modify func(*Deps)
		input  string
		want   string
	}{
		{
			"no backend",
			func(d *Deps) {
				d.Backend = func() (recognizer.Backend, error) { return nil, recognizer.ErrNoBackend }
			},
			"",
			"FAIL: skipped (needs microphone and backend)",
		},
		{
			"no audio",
			func(d *Deps) {
				d.Audio = func() (audio.Context, error) { return nil, errors.New("pulse: connection refused") }
			},
			"",
			"FAIL: cannot connect to audio",
		},
		{
			"user rejects",
			func(*Deps) {},
			"\nn\n",
			"FAIL: recognition not confirmed",
		},
		{
			"backend error",
			func(d *Deps) {
				d.Backend = func() (recognizer.Backend, error) { return recognizer.NewFake(errors.New("401 bad key")), nil }
			},
			"\n",
			"401 bad key",
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			deps := testDeps()
			tt.modify(&deps)
			var out bytes.Buffer
			if code := run(strings.NewReader(tt.input), &out, deps); code != 1 {
				t.Errorf("exit code %d, want 1", code)
			}
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, out.String())
			}
		})
	}
}

func TestRunWarningsDoNotFail(t *testing.T) {
	deps := testDeps()
	deps.Target = target{installed: false}
	deps.Hotkey = func() (string, error) { return "", errors.New("no keyboard devices found") }
	deps.Clipboard = func(string) (string, error) { return "", errors.New("no xclip") }

	var out bytes.Buffer
	if code := run(strings.NewReader("\ny\n"), &out, deps); code != 0 {
		t.Fatalf("exit code %d:\n%s", code, out.String())
	}
	for _, want := range []string{
		"https://api.whatsapp.com/send?text=%E2%80%A6",
		"WARN: clipboard unavailable: no xclip",
		"WARN: no keyboard devices found",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}
