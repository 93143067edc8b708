package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"sayso/dictation"
	"sayso/recognizer"
	"sayso/share"
)

// instantRecognizer resolves every request with the next scripted text.
type instantRecognizer struct{ texts []string }

func (r *instantRecognizer) Name() string     { return "instant" }
func (r *instantRecognizer) Available() error { return nil }
func (r *instantRecognizer) Recognize(_ context.Context, _ recognizer.Request) *recognizer.Pending {
	p := recognizer.NewPending("id", nil)
	text := r.texts[0]
	r.texts = r.texts[1:]
	p.Resolve(recognizer.Result{Status: recognizer.StatusOK, Candidates: []string{text}})
	return p
}

type recordingSharer struct {
	sent []string
	err  error
}

func (s *recordingSharer) Share(_ context.Context, text string) (share.Route, error) {
	s.sent = append(s.sent, text)
	return share.RouteDirect, s.err
}

type loopHarness struct {
	actions chan action
	results chan recognizer.Result
	out     *bytes.Buffer
	sharer  *recordingSharer
	copied  []string
	copyErr error
	done    chan struct{}
}

func startLoop(t *testing.T, texts ...string) *loopHarness {
	t.Helper()
	h := &loopHarness{
		actions: make(chan action),
		results: make(chan recognizer.Result, 8),
		out:     &bytes.Buffer{},
		sharer:  &recordingSharer{},
		done:    make(chan struct{}),
	}
	sink := newPrintSink(h.out)
	ctrl := dictation.New(dictation.Config{Language: "en", MaxResults: 1},
		&instantRecognizer{texts: texts}, h.sharer, sink, sink, nil)
	l := &loop{
		ctrl:        ctrl,
		notifier:    sink,
		copy:        func(s string) error { h.copied = append(h.copied, s); return h.copyErr },
		afterResult: func(res recognizer.Result) { h.results <- res },
	}
	go func() {
		defer close(h.done)
		l.run(context.Background(), h.actions, nil, nil)
	}()
	t.Cleanup(func() {
		select {
		case <-h.done:
		default:
			h.actions <- actQuit
			<-h.done
		}
	})
	return h
}

func (h *loopHarness) awaitResult(t *testing.T) recognizer.Result {
	t.Helper()
	select {
	case res := <-h.results:
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("no result")
		return recognizer.Result{}
	}
}

func TestLoopRecordAndSend(t *testing.T) {
	h := startLoop(t, "hello", "world")
	h.actions <- actRecord
	h.awaitResult(t)
	h.actions <- actRecord
	h.awaitResult(t)
	h.actions <- actSend
	h.actions <- actQuit
	<-h.done

	if len(h.sharer.sent) != 1 || h.sharer.sent[0] != "hello world " {
		t.Errorf("sent = %q", h.sharer.sent)
	}
	if !strings.HasSuffix(h.out.String(), "DISPLAY: \n") {
		t.Errorf("display not cleared after send:\n%s", h.out.String())
	}
}

func TestLoopCopy(t *testing.T) {
	h := startLoop(t, "note")
	h.actions <- actCopy
	h.actions <- actRecord
	h.awaitResult(t)
	h.actions <- actCopy
	h.actions <- actQuit
	<-h.done

	out := h.out.String()
	for _, want := range []string{"NOTICE: No text to send", "NOTICE: Copied to clipboard"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q:\n%s", want, out)
		}
	}
	if len(h.copied) != 1 || h.copied[0] != "note " {
		t.Errorf("copied = %q", h.copied)
	}
}

func TestLoopCopyFailure(t *testing.T) {
	h := startLoop(t, "note")
	h.copyErr = errors.New("no clipboard")
	h.actions <- actRecord
	h.awaitResult(t)
	h.actions <- actCopy
	h.actions <- actQuit
	<-h.done

	if !strings.Contains(h.out.String(), "NOTICE: Clipboard unavailable") {
		t.Errorf("missing failure notice:\n%s", h.out.String())
	}
}

func TestLoopSendFailureKeepsRunning(t *testing.T) {
	h := startLoop(t, "first", "second")
	h.sharer.err = fmt.Errorf("%w: xdg-open", share.ErrLaunchFailed)
	h.actions <- actRecord
	h.awaitResult(t)
	h.actions <- actSend
	h.actions <- actRecord
	h.awaitResult(t)
	h.actions <- actQuit
	<-h.done

	out := h.out.String()
	if !strings.Contains(out, "NOTICE: Failed to open WhatsApp") {
		t.Errorf("missing launch failure notice:\n%s", out)
	}
	if !strings.HasSuffix(out, "DISPLAY: first second \n") {
		t.Errorf("transcript lost after failed send:\n%s", out)
	}
}

func TestLoopStopsOnSignal(t *testing.T) {
	sink := newPrintSink(&bytes.Buffer{})
	ctrl := dictation.New(dictation.Config{}, nil, nil, sink, sink, nil)
	l := &loop{ctrl: ctrl, notifier: sink}

	signals := make(chan os.Signal, 1)
	signals <- syscall.SIGTERM
	done := make(chan struct{})
	go func() {
		l.run(context.Background(), make(chan action), nil, signals)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("loop ignored signal")
	}
}

func TestActionString(t *testing.T) {
	for a, want := range map[action]string{
		actRecord: "record", actFinish: "finish", actCancel: "cancel",
		actSend: "send", actCopy: "copy", actQuit: "quit",
	} {
		if got := a.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", a, got, want)
		}
	}
}
