package recognizer

import (
	"sync"
	"time"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"

	"sayso/encoder"
)

const (
	vadMode       = 3
	vadFrameMs    = 20
	vadFrameBytes = encoder.SampleRate * vadFrameMs / 1000 * 2 // 640 bytes
	vadDebounce   = 3                                          // consecutive speech frames to confirm voice

	speechThreshold = 0.10 // share of frames in a tick that must be speech
)

// SpeechDetector classifies captured audio. HasSpeechTick reports whether the
// audio processed since the previous call contained speech.
type SpeechDetector interface {
	Process(pcm []byte)
	HasSpeechTick() bool
}

type vadDetector struct {
	vad *webrtcvad.VAD

	mu         sync.Mutex
	buf        []byte
	speechRun  int
	confirmed  bool
	tickTotal  int
	tickSpeech int
}

func newVADDetector() (SpeechDetector, error) {
	v, err := webrtcvad.New()
	if err != nil {
		return nil, err
	}
	if err := v.SetMode(vadMode); err != nil {
		return nil, err
	}
	return &vadDetector{vad: v}, nil
}

func (d *vadDetector) Process(data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.buf = append(d.buf, data...)
	for len(d.buf) >= vadFrameBytes {
		frame := d.buf[:vadFrameBytes]
		d.buf = d.buf[vadFrameBytes:]

		active, err := d.vad.Process(encoder.SampleRate, frame)
		if err != nil {
			continue
		}
		d.tickTotal++
		if !active {
			d.speechRun = 0
			continue
		}
		d.speechRun++
		if d.speechRun >= vadDebounce {
			d.confirmed = true
		}
		if d.confirmed {
			d.tickSpeech++
		}
	}
}

func (d *vadDetector) HasSpeechTick() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, s := d.tickTotal, d.tickSpeech
	d.tickTotal, d.tickSpeech = 0, 0
	if t == 0 {
		return false
	}
	return float64(s)/float64(t) >= speechThreshold
}

type EndpointConfig struct {
	Tick            time.Duration
	NoSpeechTimeout time.Duration // give up if no voice at all
	TrailingSilence time.Duration // stop this long after the last voice
	MaxDuration     time.Duration
}

var DefaultEndpoint = EndpointConfig{
	Tick:            100 * time.Millisecond,
	NoSpeechTimeout: 8 * time.Second,
	TrailingSilence: 1500 * time.Millisecond,
	MaxDuration:     30 * time.Second,
}

type endpointEvent int

const (
	epNone endpointEvent = iota
	epSpeechStart
	epEndOfSpeech
	epNoSpeech
	epMaxDuration
)

// endpointer decides when an utterance is over, one tick at a time.
type endpointer struct {
	noSpeechAt int
	trailingAt int
	maxAt      int

	ticks     int
	heard     bool
	silentRun int
}

func newEndpointer(cfg EndpointConfig) *endpointer {
	ticks := func(d time.Duration) int {
		n := int(d / cfg.Tick)
		if n < 1 {
			n = 1
		}
		return n
	}
	return &endpointer{
		noSpeechAt: ticks(cfg.NoSpeechTimeout),
		trailingAt: ticks(cfg.TrailingSilence),
		maxAt:      ticks(cfg.MaxDuration),
	}
}

func (e *endpointer) Tick(hasSpeech bool) endpointEvent {
	e.ticks++
	first := false
	if hasSpeech {
		e.silentRun = 0
		first = !e.heard
		e.heard = true
	} else {
		e.silentRun++
	}

	switch {
	case e.ticks >= e.maxAt:
		return epMaxDuration
	case first:
		return epSpeechStart
	case e.heard && e.silentRun >= e.trailingAt:
		return epEndOfSpeech
	case !e.heard && e.ticks >= e.noSpeechAt:
		return epNoSpeech
	}
	return epNone
}
