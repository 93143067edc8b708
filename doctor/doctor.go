// Package doctor runs interactive system diagnostics for the -doctor flag.
package doctor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"sayso/audio"
	"sayso/encoder"
	"sayso/hotkey"
	"sayso/permission"
	"sayso/recognizer"
	"sayso/share"
	"sayso/shutdown"
)

// Deps are the host facilities under test.
type Deps struct {
	Audio     func() (audio.Context, error)
	Backend   func() (recognizer.Backend, error)
	Target    share.Target
	Hotkey    func() (string, error)
	Clipboard func(text string) (string, error) // write, then read back
	Language  string
	Record    time.Duration
}

func DefaultDeps(lang string) Deps {
	return Deps{
		Audio:   audio.NewContext,
		Backend: func() (recognizer.Backend, error) { return recognizer.New(recognizer.ConfigFromEnv()) },
		Target:  share.DefaultTarget(),
		Hotkey:  hotkey.Diagnose,
		Clipboard: func(text string) (string, error) {
			if err := share.Copy(text); err != nil {
				return "", err
			}
			return share.Read()
		},
		Language: lang,
		Record:   3 * time.Second,
	}
}

// Run executes the checks and returns an exit code (0=all pass, 1=any fail).
func Run(lang string) int {
	resetTerminal()
	defer watchInterrupt()()
	return run(os.Stdin, os.Stdout, DefaultDeps(lang))
}

// watchInterrupt exits with 130 on Ctrl+C while a check is blocked on input
// or recording. The returned func stops watching.
func watchInterrupt() func() {
	signals, stop := shutdown.Signals()
	done := make(chan struct{})
	go func() {
		select {
		case <-signals:
			fmt.Fprintln(os.Stderr, "\nInterrupted")
			os.Exit(130)
		case <-done:
		}
	}()
	return func() {
		stop()
		close(done)
	}
}

type doctor struct {
	in   *bufio.Reader
	out  io.Writer
	deps Deps
	fail int
}

func (d *doctor) printf(format string, args ...any) { fmt.Fprintf(d.out, format, args...) }

func (d *doctor) pass(format string, args ...any) { d.printf("  PASS: "+format+"\n", args...) }
func (d *doctor) warn(format string, args ...any) { d.printf("  WARN: "+format+"\n", args...) }
func (d *doctor) failf(format string, args ...any) {
	d.fail++
	d.printf("  FAIL: "+format+"\n", args...)
}

func (d *doctor) ask(prompt string) string {
	d.printf("%s", prompt)
	line, _ := d.in.ReadString('\n')
	return strings.TrimSpace(strings.ToLower(line))
}

const totalChecks = 5

func (d *doctor) header(n int, name string) {
	d.printf("\n[%d/%d] %s\n", n, totalChecks, name)
}

func run(in io.Reader, out io.Writer, deps Deps) int {
	d := &doctor{in: bufio.NewReader(in), out: out, deps: deps}

	d.printf("sayso doctor - system diagnostics\n")
	d.printf("=================================\n")

	backend := d.checkBackend()
	actx := d.checkMicrophone()
	if actx != nil {
		defer actx.Close()
	}
	d.checkRecognition(actx, backend)
	d.checkShare()
	d.checkHotkey()

	d.printf("\n")
	if d.fail == 0 {
		d.printf("All checks passed!\n")
		return 0
	}
	d.printf("%d check(s) failed. See details above.\n", d.fail)
	return 1
}

func (d *doctor) checkBackend() recognizer.Backend {
	d.header(1, "Speech backend")
	b, err := d.deps.Backend()
	if err != nil {
		d.failf("%v", err)
		return nil
	}
	d.pass("using %s", b.Name())
	return b
}

func (d *doctor) checkMicrophone() audio.Context {
	d.header(2, "Microphone access")
	actx, err := d.deps.Audio()
	if err != nil {
		d.failf("cannot connect to audio: %v", err)
		return nil
	}

	checker := permission.NewChecker(actx)
	st := checker.Check()
	if st != permission.Granted {
		d.printf("  Requesting microphone access...\n")
		st = <-checker.Request(context.Background())
	}
	switch st {
	case permission.Granted:
		devices, _ := actx.Devices()
		d.pass("%d capture device(s)", len(devices))
		for _, dev := range devices {
			if audio.IsBluetooth(dev.Name) {
				d.warn("%s looks like a Bluetooth headset; accuracy will suffer", dev.Name)
			}
		}
	case permission.Denied:
		d.failf("microphone access denied")
	default:
		d.warn("could not confirm microphone access")
	}
	return actx
}

func (d *doctor) checkRecognition(actx audio.Context, backend recognizer.Backend) {
	d.header(3, "Recording and recognition")
	if actx == nil || backend == nil {
		d.failf("skipped (needs microphone and backend)")
		return
	}

	capture, err := actx.NewCapture(nil, audio.CaptureConfig{
		SampleRate: encoder.SampleRate,
		Channels:   encoder.Channels,
	})
	if err != nil {
		d.failf("cannot open capture device: %v", err)
		return
	}
	defer capture.Close()

	d.ask(fmt.Sprintf("Press Enter and speak for %.0f seconds...", d.deps.Record.Seconds()))

	svc := recognizer.NewService(backend, capture)
	p := svc.Recognize(context.Background(), recognizer.Request{
		Model:    recognizer.FreeForm,
		Language: d.deps.Language,
	})
	timer := time.AfterFunc(d.deps.Record, p.Finish)
	defer timer.Stop()
	res := <-p.Done()

	switch {
	case res.Status != recognizer.StatusOK:
		d.failf("%s: %v", res.Status, res.Err)
		return
	case len(res.Candidates) == 0:
		d.printf("\n  Recognized: (no speech detected)\n\n")
	default:
		d.printf("\n  Recognized %.1fs of audio:\n", res.Audio.Seconds())
		for i, c := range res.Candidates {
			d.printf("    %d. %s\n", i+1, c)
		}
		d.printf("\n")
	}

	if a := d.ask("Is this correct? [y/n]: "); a == "y" || a == "yes" {
		d.pass("recognition verified by user")
		return
	}
	d.failf("recognition not confirmed")
}

func (d *doctor) checkShare() {
	d.header(4, "WhatsApp hand-off")
	if t := d.deps.Target; t != nil && t.Installed() {
		d.pass("desktop client found via %s", t.Name())
	} else {
		d.pass("desktop client not found; messages open %s", share.FallbackURL("…"))
	}

	type cbResult struct {
		got string
		err error
	}
	probe := fmt.Sprintf("sayso-doctor-%d", time.Now().UnixNano())
	ch := make(chan cbResult, 1)
	go func() {
		got, err := d.deps.Clipboard(probe)
		ch <- cbResult{got, err}
	}()
	select {
	case r := <-ch:
		switch {
		case r.err != nil:
			d.warn("clipboard unavailable: %v", r.err)
		case r.got != probe:
			d.warn("clipboard mismatch: wrote %q, got %q", probe, r.got)
		default:
			d.pass("clipboard write/read verified")
		}
	case <-time.After(3 * time.Second):
		d.warn("clipboard timed out (clipboard tool hung - compositor not accessible?)")
	}
}

func (d *doctor) checkHotkey() {
	d.header(5, "Global hotkey")
	msg, err := d.deps.Hotkey()
	if err != nil {
		// the TUI keys still work without it
		d.warn("%v", err)
		return
	}
	d.pass("%s", msg)
}
