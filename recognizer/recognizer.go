package recognizer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

var (
	ErrNoBackend = errors.New("no speech backend configured (set DEEPGRAM_API_KEY, GROQ_API_KEY or OPENAI_API_KEY)")
	ErrNoCapture = errors.New("no microphone available")
	ErrNoSpeech  = errors.New("no speech detected")
	ErrTooShort  = errors.New("recording too short")
)

// LanguageModel hints what kind of speech to expect. Dictation is the only
// kind sayso asks for.
type LanguageModel int

const FreeForm LanguageModel = 0

func (LanguageModel) String() string { return "free_form" }

type Request struct {
	Model      LanguageModel
	Prompt     string // shown to the user while listening
	Language   string // ISO-639-1, empty = auto-detect
	MaxResults int    // upper bound on ranked candidates, 0 = backend default
}

type Status int

const (
	StatusOK Status = iota
	StatusCanceled
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusCanceled:
		return "canceled"
	default:
		return "failed"
	}
}

// Result is delivered exactly once per request. Candidates are ranked best
// first and may be empty even when Status is StatusOK.
type Result struct {
	RequestID  string
	Status     Status
	Candidates []string
	Err        error
	Audio      time.Duration
	EncodeTime time.Duration
	Metrics    *NetworkMetrics
	RateLimit  string  // remaining/limit as reported by the backend
	Confidence float64 // top candidate, 0 when the backend has none
	Billed     time.Duration
}

// Top returns the best candidate, if any.
func (r Result) Top() (string, bool) {
	if r.Status != StatusOK || len(r.Candidates) == 0 {
		return "", false
	}
	return r.Candidates[0], true
}

type Audio struct {
	Data        []byte
	Format      string // file extension, e.g. "flac"
	ContentType string
}

type Options struct {
	Model      LanguageModel
	Language   string
	MaxResults int
}

type Transcription struct {
	Candidates []string
	Confidence float64
	Duration   float64 // seconds of audio the backend processed
	Metrics    *NetworkMetrics
	RateLimit  string
}

// Backend turns one encoded utterance into ranked text candidates.
type Backend interface {
	Name() string
	Transcribe(ctx context.Context, audio Audio, opts Options) (*Transcription, error)
}

type Config struct {
	Provider    string // "", "deepgram", "groq", "openai"
	DeepgramKey string
	GroqKey     string
	OpenAIKey   string
}

func ConfigFromEnv() Config {
	return Config{
		Provider:    strings.ToLower(os.Getenv("SAYSO_PROVIDER")),
		DeepgramKey: os.Getenv("DEEPGRAM_API_KEY"),
		GroqKey:     os.Getenv("GROQ_API_KEY"),
		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
	}
}

// New picks a backend. Without an explicit provider the first configured key
// wins, Deepgram first because it returns ranked alternatives.
func New(cfg Config) (Backend, error) {
	switch cfg.Provider {
	case "":
	case "deepgram":
		if cfg.DeepgramKey == "" {
			return nil, fmt.Errorf("provider deepgram: DEEPGRAM_API_KEY not set")
		}
		return NewDeepgram(cfg.DeepgramKey), nil
	case "groq":
		if cfg.GroqKey == "" {
			return nil, fmt.Errorf("provider groq: GROQ_API_KEY not set")
		}
		return NewGroq(cfg.GroqKey), nil
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("provider openai: OPENAI_API_KEY not set")
		}
		return NewOpenAI(cfg.OpenAIKey), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (use deepgram, groq or openai)", cfg.Provider)
	}

	switch {
	case cfg.DeepgramKey != "":
		return NewDeepgram(cfg.DeepgramKey), nil
	case cfg.GroqKey != "":
		return NewGroq(cfg.GroqKey), nil
	case cfg.OpenAIKey != "":
		return NewOpenAI(cfg.OpenAIKey), nil
	}
	return nil, ErrNoBackend
}

// cleanCandidates trims whitespace and drops empty entries, keeping order.
func cleanCandidates(in []string, limit int) []string {
	var out []string
	for _, c := range in {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		out = append(out, c)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
