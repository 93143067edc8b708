package recognizer

import (
	"context"
	"sync"
)

// Fake answers every request with fixed candidates or a fixed error.
type Fake struct {
	candidates []string
	err        error

	mu    sync.Mutex
	calls []Audio
}

func NewFake(err error, candidates ...string) *Fake {
	return &Fake{candidates: candidates, err: err}
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Transcribe(ctx context.Context, audio Audio, opts Options) (*Transcription, error) {
	f.mu.Lock()
	f.calls = append(f.calls, audio)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return &Transcription{
		Candidates: cleanCandidates(f.candidates, opts.MaxResults),
		Metrics:    &NetworkMetrics{},
	}, nil
}

// Calls returns the audio of every Transcribe call so far.
func (f *Fake) Calls() []Audio {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Audio(nil), f.calls...)
}
