package main

import (
	"context"
	"os"

	"sayso/beep"
	"sayso/dictation"
	"sayso/log"
	"sayso/permission"
	"sayso/recognizer"
	"sayso/share"
)

type action int

const (
	actRecord action = iota
	actFinish
	actCancel
	actSend
	actCopy
	actQuit
)

func (a action) String() string {
	switch a {
	case actRecord:
		return "record"
	case actFinish:
		return "finish"
	case actCancel:
		return "cancel"
	case actSend:
		return "send"
	case actCopy:
		return "copy"
	default:
		return "quit"
	}
}

// loop owns the controller. Every controller call happens on the goroutine
// running loop.run, so the transcript needs no lock.
type loop struct {
	ctrl     *dictation.Controller
	notifier dictation.Notifier
	copy     func(text string) error

	// afterResult runs once a result has been applied to the transcript.
	afterResult func(recognizer.Result)
}

func (l *loop) run(ctx context.Context, actions <-chan action, perm <-chan permission.Status, signals <-chan os.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-signals:
			log.Info("signal received")
			return
		case a, ok := <-actions:
			if !ok || a == actQuit {
				return
			}
			l.handle(ctx, a)
		case res := <-l.ctrl.Pending():
			l.ctrl.HandleResult(res)
			if res.Status == recognizer.StatusFailed {
				beep.PlayError()
			}
			if l.afterResult != nil {
				l.afterResult(res)
			}
		case st := <-perm:
			l.ctrl.HandlePermission(st)
			perm = nil
		}
	}
}

func (l *loop) handle(ctx context.Context, a action) {
	switch a {
	case actRecord:
		l.ctrl.RequestRecognition(ctx)
	case actFinish:
		l.ctrl.FinishListening()
	case actCancel:
		l.ctrl.CancelRecognition()
	case actSend:
		// failures are already logged and shown as a notice
		_ = l.ctrl.Dispatch(ctx)
	case actCopy:
		text := l.ctrl.Transcript()
		if text == "" {
			l.notifier.Notify(dictation.NoticeNoText)
			return
		}
		if err := l.copy(text); err != nil {
			log.Warnf("clipboard copy failed: %v", err)
			l.notifier.Notify("Clipboard unavailable")
			return
		}
		l.notifier.Notify("Copied to clipboard")
	}
}

func defaultCopy(text string) error { return share.Copy(text) }
