package recognizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
)

// whisperForm builds the OpenAI-compatible multipart transcription request
// shared by Groq and OpenAI.
func whisperForm(audio Audio, fields map[string]string) (*bytes.Buffer, string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	part, err := w.CreateFormFile("file", "audio."+audio.Format)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(audio.Data); err != nil {
		return nil, "", err
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &body, w.FormDataContentType(), nil
}

type Groq struct {
	client *TracedClient
	apiURL string
	apiKey string
}

func NewGroq(apiKey string) *Groq {
	return &Groq{
		client: NewTracedClient(),
		apiURL: "https://api.groq.com/openai/v1/audio/transcriptions",
		apiKey: apiKey,
	}
}

func (g *Groq) Name() string { return "groq" }

func (g *Groq) Warm() { g.client.Warm(g.apiURL) }

type groqResponse struct {
	Text     string  `json:"text"`
	Duration float64 `json:"duration"`
	Segments []struct {
		NoSpeechProb float64 `json:"no_speech_prob"`
	} `json:"segments"`
}

// noSpeechThreshold matches Whisper's own cutoff for hallucinated output
// on silent input.
const noSpeechThreshold = 0.6

func (g *Groq) Transcribe(ctx context.Context, audio Audio, opts Options) (*Transcription, error) {
	body, contentType, err := whisperForm(audio, map[string]string{
		"model":           "whisper-large-v3-turbo",
		"response_format": "verbose_json",
		"language":        opts.Language,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("groq API error %d: %s", resp.StatusCode, string(resp.Body))
	}

	var gr groqResponse
	if err := json.Unmarshal(resp.Body, &gr); err != nil {
		return nil, fmt.Errorf("groq response parse error: %w", err)
	}

	text := gr.Text
	if len(gr.Segments) > 0 {
		silent := true
		for _, seg := range gr.Segments {
			if seg.NoSpeechProb < noSpeechThreshold {
				silent = false
				break
			}
		}
		if silent {
			text = ""
		}
	}

	return &Transcription{
		Candidates: cleanCandidates([]string{text}, 1),
		Duration:   gr.Duration,
		Metrics:    resp.Metrics,
		RateLimit: firstNonEmpty(resp.Header, "x-ratelimit-remaining-requests") + "/" +
			firstNonEmpty(resp.Header, "x-ratelimit-limit-requests"),
	}, nil
}
