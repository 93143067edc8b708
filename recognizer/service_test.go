package recognizer

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"sayso/audio"
	"sayso/encoder"
)

// scriptDetector answers HasSpeechTick from a script, then repeats the
// final value.
type scriptDetector struct {
	mu     sync.Mutex
	script []bool
	bytes  int
}

func (d *scriptDetector) Process(pcm []byte) {
	d.mu.Lock()
	d.bytes += len(pcm)
	d.mu.Unlock()
}

func (d *scriptDetector) HasSpeechTick() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.script) == 0 {
		return false
	}
	v := d.script[0]
	if len(d.script) > 1 {
		d.script = d.script[1:]
	}
	return v
}

type recordingListener struct {
	mu      sync.Mutex
	prompts []string
	levels  int
	stopped int
}

func (l *recordingListener) Listening(p string) {
	l.mu.Lock()
	l.prompts = append(l.prompts, p)
	l.mu.Unlock()
}

func (l *recordingListener) Level(float64) {
	l.mu.Lock()
	l.levels++
	l.mu.Unlock()
}

func (l *recordingListener) Stopped() {
	l.mu.Lock()
	l.stopped++
	l.mu.Unlock()
}

func sinePCM(seconds float64) []byte {
	n := int(seconds * encoder.SampleRate)
	out := make([]byte, n*2)
	for i := 0; i < n; i++ {
		v := int16(8000 * math.Sin(2*math.Pi*440*float64(i)/encoder.SampleRate))
		out[2*i] = byte(v)
		out[2*i+1] = byte(v >> 8)
	}
	return out
}

func newTestService(t *testing.T, backend Backend, script ...bool) (*Service, *audio.FakeCapture) {
	t.Helper()
	dev, err := audio.NewFakeContext(sinePCM(0.5), false).NewCapture(nil, audio.CaptureConfig{})
	if err != nil {
		t.Fatal(err)
	}
	capture := dev.(*audio.FakeCapture)
	s := NewService(backend, capture)
	s.endpoint = testEndpoint
	s.newDetector = func() (SpeechDetector, error) {
		return &scriptDetector{script: script}, nil
	}
	return s, capture
}

func await(t *testing.T, p *Pending) Result {
	t.Helper()
	select {
	case res := <-p.Done():
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for result")
		return Result{}
	}
}

func TestServiceEndOfSpeech(t *testing.T) {
	backend := NewFake(nil, "hello world", "hello word")
	s, capture := newTestService(t, backend, true, true, true, false)
	l := &recordingListener{}
	s.SetListener(l)

	p := s.Recognize(context.Background(), Request{Prompt: "Speak Now", MaxResults: 2})
	res := await(t, p)

	if res.Status != StatusOK {
		t.Fatalf("status = %v, err = %v", res.Status, res.Err)
	}
	if res.RequestID == "" || res.RequestID != p.ID {
		t.Errorf("request id = %q, handle id = %q", res.RequestID, p.ID)
	}
	if top, _ := res.Top(); top != "hello world" || len(res.Candidates) != 2 {
		t.Errorf("candidates = %q", res.Candidates)
	}
	if res.Audio <= 0 {
		t.Errorf("audio duration = %v", res.Audio)
	}

	calls := backend.Calls()
	if len(calls) != 1 {
		t.Fatalf("backend calls = %d", len(calls))
	}
	if calls[0].Format != "flac" || string(calls[0].Data[:4]) != "fLaC" {
		t.Errorf("uploaded %s audio starting %q", calls[0].Format, calls[0].Data[:4])
	}
	if capture.Starts() != 1 {
		t.Errorf("capture starts = %d", capture.Starts())
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.prompts) != 1 || l.prompts[0] != "Speak Now" || l.stopped != 1 || l.levels == 0 {
		t.Errorf("listener saw prompts=%q stopped=%d levels=%d", l.prompts, l.stopped, l.levels)
	}
}

// reportingBackend adds the per-request details a cloud backend reports.
type reportingBackend struct{ *Fake }

func (b reportingBackend) Transcribe(ctx context.Context, audio Audio, opts Options) (*Transcription, error) {
	t, err := b.Fake.Transcribe(ctx, audio, opts)
	if err != nil {
		return nil, err
	}
	t.Confidence = 0.8
	t.Duration = 1.25
	t.RateLimit = "5/10"
	t.Metrics = &NetworkMetrics{DNS: 3 * time.Millisecond}
	return t, nil
}

func TestServiceCarriesBackendReport(t *testing.T) {
	s, _ := newTestService(t, reportingBackend{NewFake(nil, "hi")}, true, false)
	res := await(t, s.Recognize(context.Background(), Request{}))
	if res.Status != StatusOK {
		t.Fatalf("status = %v, err = %v", res.Status, res.Err)
	}
	if res.Confidence != 0.8 || res.Billed != 1250*time.Millisecond || res.RateLimit != "5/10" {
		t.Errorf("confidence=%v billed=%v ratelimit=%q", res.Confidence, res.Billed, res.RateLimit)
	}
	if res.Metrics == nil || res.Metrics.DNS != 3*time.Millisecond {
		t.Errorf("metrics = %+v", res.Metrics)
	}
}

func TestServiceNoSpeech(t *testing.T) {
	backend := NewFake(nil, "never")
	s, _ := newTestService(t, backend, false)

	res := await(t, s.Recognize(context.Background(), Request{}))
	if res.Status != StatusFailed || !errors.Is(res.Err, ErrNoSpeech) {
		t.Errorf("status = %v, err = %v", res.Status, res.Err)
	}
	if len(backend.Calls()) != 0 {
		t.Error("backend called without speech")
	}
}

func TestServiceFinishEarly(t *testing.T) {
	backend := NewFake(nil, "done")
	s, _ := newTestService(t, backend, true)
	s.endpoint.MaxDuration = time.Minute

	p := s.Recognize(context.Background(), Request{})
	time.Sleep(50 * time.Millisecond)
	p.Finish()

	res := await(t, p)
	if res.Status != StatusOK || res.Candidates[0] != "done" {
		t.Errorf("status = %v, candidates = %q, err = %v", res.Status, res.Candidates, res.Err)
	}
}

func TestServiceCancel(t *testing.T) {
	backend := NewFake(nil, "ignored")
	s, _ := newTestService(t, backend, true)
	s.endpoint.MaxDuration = time.Minute

	p := s.Recognize(context.Background(), Request{})
	time.Sleep(20 * time.Millisecond)
	p.Cancel()

	res := await(t, p)
	if res.Status != StatusCanceled {
		t.Errorf("status = %v, want canceled", res.Status)
	}
	if len(backend.Calls()) != 0 {
		t.Error("backend called after cancel")
	}
}

func TestServiceTooShort(t *testing.T) {
	backend := NewFake(nil, "x")
	s, _ := newTestService(t, backend, true)
	s.endpoint.MaxDuration = time.Minute

	p := s.Recognize(context.Background(), Request{})
	p.Finish()

	res := await(t, p)
	// an immediate finish may still catch a few chunks; either way nothing
	// below the minimum reaches the backend
	if res.Status == StatusFailed && !errors.Is(res.Err, ErrTooShort) {
		t.Errorf("err = %v, want ErrTooShort", res.Err)
	}
	if res.Status == StatusFailed && len(backend.Calls()) != 0 {
		t.Error("backend called for short audio")
	}
}

func TestServiceBackendError(t *testing.T) {
	boom := errors.New("503 service unavailable")
	s, _ := newTestService(t, NewFake(boom), true, false)

	res := await(t, s.Recognize(context.Background(), Request{}))
	if res.Status != StatusFailed || !errors.Is(res.Err, boom) {
		t.Errorf("status = %v, err = %v", res.Status, res.Err)
	}
}

func TestServiceUnavailable(t *testing.T) {
	for _, tt := range []struct {
		name    string
		s       *Service
		wantErr error
	}{
		{"no backend", NewService(nil, &audio.FakeCapture{}), ErrNoBackend},
		{"no capture", NewService(NewFake(nil), nil), ErrNoCapture},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.s.Available(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Available() = %v, want %v", err, tt.wantErr)
			}
			res := await(t, tt.s.Recognize(context.Background(), Request{}))
			if res.Status != StatusFailed || !errors.Is(res.Err, tt.wantErr) {
				t.Errorf("status = %v, err = %v", res.Status, res.Err)
			}
		})
	}
	if NewService(nil, nil).Name() != "none" {
		t.Error("Name() without backend should be none")
	}
}

func TestRMS(t *testing.T) {
	if got := rms(nil); got != 0 {
		t.Errorf("rms(nil) = %v", got)
	}
	if got := rms(make([]byte, 64)); got != 0 {
		t.Errorf("rms(silence) = %v", got)
	}
	if got := rms(sinePCM(0.1)); got < 0.1 || got > 0.2 {
		t.Errorf("rms(sine) = %v, want about 0.17", got)
	}
}
