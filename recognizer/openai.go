package recognizer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

type OpenAI struct {
	client *TracedClient
	apiURL string
	apiKey string
}

func NewOpenAI(apiKey string) *OpenAI {
	return &OpenAI{
		client: NewTracedClient(),
		apiURL: "https://api.openai.com/v1/audio/transcriptions",
		apiKey: apiKey,
	}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Warm() { o.client.Warm(o.apiURL) }

func (o *OpenAI) Transcribe(ctx context.Context, audio Audio, opts Options) (*Transcription, error) {
	body, contentType, err := whisperForm(audio, map[string]string{
		"model":           "gpt-4o-transcribe",
		"response_format": "json",
		"language":        opts.Language,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.apiURL, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai API error %d: %s", resp.StatusCode, string(resp.Body))
	}

	var or struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(resp.Body, &or); err != nil {
		return nil, fmt.Errorf("openai response parse error: %w", err)
	}

	return &Transcription{
		Candidates: cleanCandidates([]string{or.Text}, 1),
		Metrics:    resp.Metrics,
		RateLimit: firstNonEmpty(resp.Header, "x-ratelimit-remaining-requests") + "/" +
			firstNonEmpty(resp.Header, "x-ratelimit-limit-requests"),
	}, nil
}
