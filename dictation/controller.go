// Package dictation accumulates recognized speech into a transcript and hands
// the transcript to a messaging app on request.
package dictation

import (
	"context"
	"errors"
	"time"

	"sayso/log"
	"sayso/permission"
	"sayso/recognizer"
	"sayso/share"
)

const (
	PromptSpeakNow   = "Speak Now"
	NoticeNoText     = "No text to send"
	NoticeLaunchFail = "Failed to open WhatsApp"
	NoticeNotFound   = "WhatsApp not found"
)

// Recognizer is the speech recognition facility.
type Recognizer interface {
	Name() string
	Available() error
	Recognize(ctx context.Context, req recognizer.Request) *recognizer.Pending
}

// Sharer hands text to the messaging app, directly or through its web link.
type Sharer interface {
	Share(ctx context.Context, text string) (share.Route, error)
}

// Display shows the full transcript. An empty string clears it.
type Display interface {
	Show(text string)
}

// Notifier surfaces a short-lived notice to the user.
type Notifier interface {
	Notify(msg string)
}

type Permissions interface {
	Check() permission.Status
	Request(ctx context.Context) <-chan permission.Status
}

type Config struct {
	Language   string
	MaxResults int
}

// Controller owns the transcript. It is not safe for concurrent use: every
// method must be called from the same event loop goroutine.
type Controller struct {
	cfg         Config
	recognizer  Recognizer
	sharer      Sharer
	display     Display
	notifier    Notifier
	permissions Permissions

	transcript Transcript
	pending    *recognizer.Pending

	recognitions int
	dispatches   int
}

func New(cfg Config, r Recognizer, s Sharer, d Display, n Notifier, p Permissions) *Controller {
	return &Controller{
		cfg:         cfg,
		recognizer:  r,
		sharer:      s,
		display:     d,
		notifier:    n,
		permissions: p,
	}
}

// RequestRecognition starts listening unless the recognizer is unavailable
// or a request is already outstanding. It reports whether a request started.
func (c *Controller) RequestRecognition(ctx context.Context) bool {
	if err := c.recognizer.Available(); err != nil {
		log.Warnf("recognition_unavailable: %v", err)
		return false
	}
	if c.pending != nil {
		log.Warnf("recognition_busy: request %s outstanding", c.pending.ID)
		return false
	}

	c.pending = c.recognizer.Recognize(ctx, recognizer.Request{
		Model:      recognizer.FreeForm,
		Prompt:     PromptSpeakNow,
		Language:   c.cfg.Language,
		MaxResults: c.cfg.MaxResults,
	})
	c.notifier.Notify(PromptSpeakNow)
	return true
}

// Pending returns the result channel of the outstanding request, or nil
// when idle. A nil channel blocks forever in a select.
func (c *Controller) Pending() <-chan recognizer.Result {
	if c.pending == nil {
		return nil
	}
	return c.pending.Done()
}

// Awaiting reports whether a recognition request is outstanding.
func (c *Controller) Awaiting() bool { return c.pending != nil }

// FinishListening ends capture early; the request still yields its result.
func (c *Controller) FinishListening() {
	if c.pending != nil {
		c.pending.Finish()
	}
}

// CancelRecognition abandons the outstanding request. Its result arrives as
// canceled and leaves the transcript untouched.
func (c *Controller) CancelRecognition() {
	if c.pending != nil {
		c.pending.Cancel()
	}
}

// HandleResult consumes the result of the outstanding request. Results for
// any other request are ignored.
func (c *Controller) HandleResult(res recognizer.Result) {
	if c.pending == nil || res.RequestID != c.pending.ID {
		log.Warnf("recognition_stale: id=%s", res.RequestID)
		return
	}
	c.pending = nil
	c.recognitions++

	logRecognition(c.recognizer.Name(), res)

	switch res.Status {
	case recognizer.StatusCanceled:
		log.Info("recognition canceled")
		return
	case recognizer.StatusFailed:
		log.Warnf("recognition failed: %v", res.Err)
		return
	}

	top, ok := res.Top()
	if !ok {
		log.Warn("recognition returned no candidates")
		return
	}
	c.transcript.Append(top)
	log.TranscriptText(top)
	c.display.Show(c.transcript.String())
}

// Transcript returns the accumulated text.
func (c *Controller) Transcript() string { return c.transcript.String() }

// Dispatch sends the transcript to the messaging app. The transcript is only
// cleared when the hand-off succeeds.
func (c *Controller) Dispatch(ctx context.Context) error {
	if c.transcript.Empty() {
		c.notifier.Notify(NoticeNoText)
		return nil
	}

	text := c.transcript.String()
	route, err := c.sharer.Share(ctx, text)
	log.Dispatch(string(route), len(text), err)
	if err != nil {
		switch {
		case errors.Is(err, share.ErrLaunchFailed):
			c.notifier.Notify(NoticeLaunchFail)
		case errors.Is(err, share.ErrNotFound):
			c.notifier.Notify(NoticeNotFound)
		default:
			c.notifier.Notify(err.Error())
		}
		return err
	}

	c.dispatches++
	c.transcript.Reset()
	c.display.Show("")
	return nil
}

// BootstrapPermission checks microphone access and, when not granted,
// requests it. The returned channel yields the outcome, or is nil when no
// request was needed.
func (c *Controller) BootstrapPermission(ctx context.Context) <-chan permission.Status {
	if c.permissions == nil {
		return nil
	}
	if st := c.permissions.Check(); st == permission.Granted {
		log.Info("microphone permission granted")
		return nil
	}
	return c.permissions.Request(ctx)
}

// HandlePermission records the outcome of a permission request. Recognition
// is not gated on it.
func (c *Controller) HandlePermission(st permission.Status) {
	if st == permission.Granted {
		log.Info("microphone permission granted")
		return
	}
	log.Warnf("microphone permission %s", st)
}

// Stats returns how many recognitions completed and how many dispatches
// succeeded.
func (c *Controller) Stats() (recognitions, dispatches int) {
	return c.recognitions, c.dispatches
}

func logRecognition(provider string, res recognizer.Result) {
	d := log.RecognitionData{
		RequestID:  res.RequestID,
		Provider:   provider,
		Status:     res.Status.String(),
		Candidates: len(res.Candidates),
		AudioS:     res.Audio.Seconds(),
		EncodeMs:   ms(res.EncodeTime),

		Confidence:   res.Confidence,
		BilledAudioS: res.Billed.Seconds(),
		RateLimit:    res.RateLimit,
	}
	if m := res.Metrics; m != nil {
		d.DNSMs = ms(m.DNS)
		d.TCPMs = ms(m.TCP)
		d.TLSMs = ms(m.TLS)
		d.TTFBMs = ms(m.TTFB)
		d.DownloadMs = ms(m.Download)
		d.TotalMs = ms(m.Total)
		d.ConnReused = m.ConnReused
	}
	log.Recognition(d)
}

func ms(d time.Duration) float64 { return float64(d.Microseconds()) / 1000 }
