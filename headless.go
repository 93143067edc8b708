package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"sayso/dictation"
	"sayso/hotkey"
	"sayso/log"
	"sayso/recognizer"
	"sayso/share"
)

const (
	longPress   = 350 * time.Millisecond
	waitTimeout = 60 * time.Second
)

// printSink is the display surface without a terminal UI: every event is
// one line on out.
type printSink struct {
	mu sync.Mutex
	w  io.Writer
}

func newPrintSink(w io.Writer) *printSink { return &printSink{w: w} }

func (s *printSink) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, format+"\n", args...)
}

func (s *printSink) Show(text string)        { s.printf("DISPLAY: %s", text) }
func (s *printSink) Notify(msg string)       { s.printf("NOTICE: %s", msg) }
func (s *printSink) Listening(prompt string) { s.printf("LISTENING: %s", prompt) }
func (s *printSink) Level(float64)           {}
func (s *printSink) Stopped()                { s.printf("STOPPED") }

func (s *printSink) result(res recognizer.Result) {
	top, _ := res.Top()
	if res.Err != nil {
		s.printf("RESULT: %s %q (%v)", res.Status, top, res.Err)
		return
	}
	s.printf("RESULT: %s %q", res.Status, top)
}

// dryRunSharer prints the web link instead of opening it.
type dryRunSharer struct{ out *printSink }

func (d dryRunSharer) Share(_ context.Context, text string) (share.Route, error) {
	d.out.printf("SHARE: %s", share.FallbackURL(text))
	return share.RouteFallback, nil
}

// forwardTrigger turns hotkey actions into loop actions.
func forwardTrigger(ctx context.Context, t *hotkey.Trigger, actions chan<- action) {
	for {
		var a action
		select {
		case ev := <-t.Events():
			a = actRecord
			if ev == hotkey.Finish {
				a = actFinish
			}
			log.Infof("hotkey_%s", a)
		case <-ctx.Done():
			return
		}
		select {
		case actions <- a:
		case <-ctx.Done():
			return
		}
	}
}

type headless struct {
	svc    dictation.Recognizer
	sharer dictation.Sharer
	perms  dictation.Permissions
	cfg    dictation.Config
	copy   func(string) error

	signals <-chan os.Signal
}

// run drives one session from commands on in until QUIT or end of input.
// It returns the controller's recognition and dispatch counts.
func (h headless) run(ctx context.Context, in io.Reader, sink *printSink, setListener func(recognizer.Listener)) (int, int) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if setListener != nil {
		setListener(sink)
	}
	ctrl := dictation.New(h.cfg, h.svc, h.sharer, sink, sink, h.perms)

	fk := hotkey.NewFake()
	trig := hotkey.NewTrigger(fk, longPress)
	defer trig.Close()

	actions := make(chan action)
	results := make(chan recognizer.Result, 16)
	go forwardTrigger(ctx, trig, actions)

	copyFn := h.copy
	if copyFn == nil {
		copyFn = defaultCopy
	}
	l := &loop{
		ctrl:     ctrl,
		notifier: sink,
		copy:     copyFn,
		afterResult: func(res recognizer.Result) {
			trig.Reset()
			select {
			case results <- res:
			default:
			}
		},
	}

	go driveCommands(ctx, in, sink, actions, results, fk)
	l.run(ctx, actions, ctrl.BootstrapPermission(ctx), h.signals)
	return ctrl.Stats()
}

func driveCommands(ctx context.Context, in io.Reader, out *printSink, actions chan<- action, results <-chan recognizer.Result, fk *hotkey.Fake) {
	emit := func(a action) bool {
		select {
		case actions <- a:
			return true
		case <-ctx.Done():
			return false
		}
	}
	defer emit(actQuit)

	commands := map[string]action{
		"RECORD": actRecord,
		"FINISH": actFinish,
		"CANCEL": actCancel,
		"SEND":   actSend,
		"COPY":   actCopy,
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		cmd := strings.ToUpper(fields[0])
		if a, ok := commands[cmd]; ok {
			if !emit(a) {
				return
			}
			continue
		}
		switch cmd {
		case "KEYDOWN":
			fk.Press()
		case "KEYUP":
			fk.Release()
		case "WAIT":
			select {
			case res := <-results:
				out.result(res)
			case <-time.After(waitTimeout):
				out.printf("TIMEOUT")
			case <-ctx.Done():
				return
			}
		case "SLEEP":
			if len(fields) > 1 {
				if ms, err := strconv.Atoi(fields[1]); err == nil {
					time.Sleep(time.Duration(ms) * time.Millisecond)
				}
			}
		case "QUIT":
			return
		default:
			out.printf("ERROR: unknown command %q", fields[0])
		}
	}
}
