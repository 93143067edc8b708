package recognizer

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"sayso/audio"
	"sayso/encoder"
)

// Listener observes a request while the microphone is open.
type Listener interface {
	Listening(prompt string)
	Level(rms float64)
	Stopped()
}

type nopListener struct{}

func (nopListener) Listening(string) {}
func (nopListener) Level(float64)    {}
func (nopListener) Stopped()         {}

// Service is the speech recognition facility: it records one utterance from
// the capture device, encodes it and hands it to the backend.
type Service struct {
	backend  Backend
	capture  audio.CaptureDevice
	listener Listener

	endpoint    EndpointConfig
	newDetector func() (SpeechDetector, error)
}

// NewService wires a backend to a capture device. Either may be nil, in
// which case Available reports why recognition cannot run.
func NewService(backend Backend, capture audio.CaptureDevice) *Service {
	return &Service{
		backend:     backend,
		capture:     capture,
		listener:    nopListener{},
		endpoint:    DefaultEndpoint,
		newDetector: newVADDetector,
	}
}

func (s *Service) SetListener(l Listener) {
	if l == nil {
		l = nopListener{}
	}
	s.listener = l
}

func (s *Service) Name() string {
	if s.backend == nil {
		return "none"
	}
	return s.backend.Name()
}

func (s *Service) Available() error {
	if s.backend == nil {
		return ErrNoBackend
	}
	if s.capture == nil {
		return ErrNoCapture
	}
	return nil
}

// Recognize starts listening and returns immediately. The result arrives on
// the returned handle's Done channel.
func (s *Service) Recognize(ctx context.Context, req Request) *Pending {
	ctx, cancel := context.WithCancel(ctx)
	p := NewPending(uuid.NewString(), cancel)
	if err := s.Available(); err != nil {
		cancel()
		p.Resolve(Result{Status: StatusFailed, Err: err})
		return p
	}
	go func() {
		defer cancel()
		p.Resolve(s.recognize(ctx, p, req))
	}()
	return p
}

type endReason int

const (
	endFinished endReason = iota
	endCanceled
	endNoSpeech
)

func (s *Service) recognize(ctx context.Context, p *Pending, req Request) Result {
	if w, ok := s.backend.(interface{ Warm() }); ok {
		go w.Warm()
	}

	det, err := s.newDetector()
	if err != nil {
		return Result{Status: StatusFailed, Err: fmt.Errorf("VAD init: %w", err)}
	}
	enc, err := encoder.NewFlac()
	if err != nil {
		return Result{Status: StatusFailed, Err: err}
	}
	rec := newRecording(enc)

	var cbMu sync.Mutex
	stopped := false
	s.capture.SetCallback(func(data []byte, _ uint32) {
		cbMu.Lock()
		defer cbMu.Unlock()
		if stopped || len(data) == 0 {
			return
		}
		s.listener.Level(rms(data))
		det.Process(data)
		rec.feed(data)
	})

	s.listener.Listening(req.Prompt)
	if err := s.capture.Start(); err != nil {
		s.capture.ClearCallback()
		s.listener.Stopped()
		rec.finish()
		return Result{Status: StatusFailed, Err: fmt.Errorf("starting capture: %w", err)}
	}

	reason := s.awaitEnd(ctx, p, det)

	s.capture.Stop()
	s.capture.ClearCallback()
	cbMu.Lock()
	stopped = true
	cbMu.Unlock()
	s.listener.Stopped()

	frames, err := rec.finish()
	res := Result{Audio: encoder.Duration(frames), EncodeTime: enc.EncodeTime()}
	switch {
	case reason == endCanceled:
		res.Status, res.Err = StatusCanceled, ctx.Err()
		return res
	case reason == endNoSpeech:
		res.Status, res.Err = StatusFailed, ErrNoSpeech
		return res
	case err != nil:
		res.Status, res.Err = StatusFailed, err
		return res
	case frames < encoder.SampleRate/10:
		res.Status, res.Err = StatusFailed, ErrTooShort
		return res
	}

	t, err := s.backend.Transcribe(ctx, Audio{
		Data:        enc.Bytes(),
		Format:      enc.Format(),
		ContentType: enc.ContentType(),
	}, Options{Model: req.Model, Language: req.Language, MaxResults: req.MaxResults})
	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			res.Status, res.Err = StatusCanceled, err
		} else {
			res.Status, res.Err = StatusFailed, fmt.Errorf("%s: %w", s.backend.Name(), err)
		}
		return res
	}

	res.Status = StatusOK
	res.Candidates = t.Candidates
	res.Metrics = t.Metrics
	res.RateLimit = t.RateLimit
	res.Confidence = t.Confidence
	res.Billed = time.Duration(t.Duration * float64(time.Second))
	return res
}

func (s *Service) awaitEnd(ctx context.Context, p *Pending, det SpeechDetector) endReason {
	ep := newEndpointer(s.endpoint)
	ticker := time.NewTicker(s.endpoint.Tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return endCanceled
		case <-p.Finishing():
			return endFinished
		case <-ticker.C:
			switch ep.Tick(det.HasSpeechTick()) {
			case epEndOfSpeech, epMaxDuration:
				return endFinished
			case epNoSpeech:
				return endNoSpeech
			}
		}
	}
}

func rms(data []byte) float64 {
	n := len(data) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i+1 < len(data); i += 2 {
		v := float64(int16(binary.LittleEndian.Uint16(data[i:]))) / 32768.0
		sum += v * v
	}
	return math.Sqrt(sum / float64(n))
}

// recording encodes PCM concurrently with capture so the upload can start
// as soon as listening ends.
type recording struct {
	enc encoder.Encoder

	mu      sync.Mutex
	pending []int16
	closed  bool

	blocks chan []int16
	done   chan struct{}
	err    error
}

func newRecording(enc encoder.Encoder) *recording {
	r := &recording{
		enc:    enc,
		blocks: make(chan []int16, 64),
		done:   make(chan struct{}),
	}
	go func() {
		defer close(r.done)
		for block := range r.blocks {
			start := time.Now()
			if err := r.enc.EncodeBlock(block); err != nil && r.err == nil {
				r.err = err
			}
			r.enc.AddEncodeTime(time.Since(start))
		}
	}()
	return r
}

func (r *recording) feed(pcm []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.pending = append(r.pending, encoder.Samples(pcm)...)
	for len(r.pending) >= encoder.BlockSize {
		block := make([]int16, encoder.BlockSize)
		copy(block, r.pending[:encoder.BlockSize])
		r.pending = r.pending[encoder.BlockSize:]
		r.blocks <- block
	}
}

// finish flushes the tail, waits for the encoder and closes it.
func (r *recording) finish() (uint64, error) {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		if len(r.pending) > 0 {
			r.blocks <- r.pending
			r.pending = nil
		}
		close(r.blocks)
	}
	r.mu.Unlock()

	<-r.done
	if err := r.enc.Close(); err != nil {
		return r.enc.TotalFrames(), err
	}
	return r.enc.TotalFrames(), r.err
}
