package recognizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Deepgram uses the pre-recorded endpoint, which can return several ranked
// alternatives for the same audio.
type Deepgram struct {
	client *TracedClient
	apiURL string
	apiKey string
}

func NewDeepgram(apiKey string) *Deepgram {
	return &Deepgram{
		client: NewTracedClient(),
		apiURL: "https://api.deepgram.com/v1/listen",
		apiKey: apiKey,
	}
}

func (d *Deepgram) Name() string { return "deepgram" }

func (d *Deepgram) Warm() { d.client.Warm(d.apiURL) }

type deepgramResponse struct {
	Metadata struct {
		Duration float64 `json:"duration"`
	} `json:"metadata"`
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

func (d *Deepgram) query(opts Options) string {
	q := url.Values{}
	q.Set("model", "nova-3")
	if opts.Language != "" {
		q.Set("language", opts.Language)
	} else {
		q.Set("detect_language", "true")
	}
	if opts.MaxResults > 1 {
		q.Set("alternatives", strconv.Itoa(opts.MaxResults))
	}
	if opts.Model == FreeForm {
		q.Set("smart_format", "true")
		q.Set("punctuate", "true")
	}
	return q.Encode()
}

func (d *Deepgram) Transcribe(ctx context.Context, audio Audio, opts Options) (*Transcription, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.apiURL+"?"+d.query(opts), bytes.NewReader(audio.Data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+d.apiKey)
	req.Header.Set("Content-Type", audio.ContentType)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("deepgram API error %d: %s", resp.StatusCode, string(resp.Body))
	}

	var dr deepgramResponse
	if err := json.Unmarshal(resp.Body, &dr); err != nil {
		return nil, fmt.Errorf("deepgram response parse error: %w", err)
	}

	t := &Transcription{
		Duration: dr.Metadata.Duration,
		Metrics:  resp.Metrics,
		RateLimit: firstNonEmpty(resp.Header, "x-dg-ratelimit-remaining", "x-ratelimit-remaining") + "/" +
			firstNonEmpty(resp.Header, "x-dg-ratelimit-limit", "x-ratelimit-limit"),
	}
	if len(dr.Results.Channels) > 0 {
		alts := dr.Results.Channels[0].Alternatives
		texts := make([]string, len(alts))
		for i, a := range alts {
			texts[i] = a.Transcript
		}
		t.Candidates = cleanCandidates(texts, opts.MaxResults)
		if len(alts) > 0 {
			t.Confidence = alts[0].Confidence
		}
	}
	return t, nil
}
