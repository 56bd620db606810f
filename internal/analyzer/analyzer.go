// Package analyzer asks a multimodal model, through an OpenAI-compatible chat
// completions gateway, whether a leaf image shows Alternaria solani.
package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/plant-disease-monitor/internal/config"
)

var (
	ErrNotConfigured    = errors.New("AI service not configured")
	ErrRateLimited      = errors.New("Rate limit exceeded. Please try again later.")
	ErrCreditsExhausted = errors.New("AI credits exhausted. Please add credits to continue.")
	ErrUpstream         = errors.New("Failed to analyze image")
	ErrUnparseable      = errors.New("Failed to parse analysis results")
)

const systemPrompt = `You are an expert plant pathologist specializing in brinjal (eggplant) diseases.
Your task is to analyze images and determine if they show signs of Alternaria Solani infection.

Alternaria Solani characteristics:
- Brown to black circular or irregular spots on leaves
- Target-like concentric rings in lesions
- Yellow halo around spots
- Leaf wilting and defoliation in severe cases
- Can affect stems and fruits with dark lesions

Respond in JSON format with:
{
  "detected": true/false,
  "confidence": 0-100,
  "severity": "none"/"mild"/"moderate"/"severe",
  "symptoms": ["list of observed symptoms"],
  "recommendations": "treatment advice if disease detected"
}`

const userPrompt = "Analyze this image and determine if it shows Alternaria Solani infection on brinjal (eggplant) plant."

// Verdict is the model's assessment of one image.
type Verdict struct {
	Detected        bool     `json:"detected"`
	Confidence      float64  `json:"confidence"`
	Severity        string   `json:"severity"`
	Symptoms        []string `json:"symptoms"`
	Recommendations string   `json:"recommendations"`
}

// Client calls the gateway.  The zero value is unusable; build one with New.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
	log     logrus.FieldLogger
}

// New returns a client for cfg.  A client with an empty API key reports
// ErrNotConfigured on every call.
func New(cfg config.AIConfig, log logrus.FieldLogger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.GatewayURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool { return c != nil && c.apiKey != "" }

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Analyze sends image (a data URL or an http(s) URL) to the model and parses
// its JSON verdict.
func (c *Client) Analyze(ctx context.Context, image string) (Verdict, error) {
	if !c.Enabled() {
		return Verdict{}, ErrNotConfigured
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: userPrompt},
				{Type: "image_url", ImageURL: &imageURL{URL: image}},
			}},
		},
	})
	if err != nil {
		return Verdict{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Verdict{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: read body: %v", ErrUpstream, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return Verdict{}, ErrRateLimited
	case resp.StatusCode == http.StatusPaymentRequired:
		return Verdict{}, ErrCreditsExhausted
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		c.log.WithFields(logrus.Fields{"status": resp.StatusCode, "body": truncate(string(raw), 512)}).
			Error("ai gateway error")
		return Verdict{}, fmt.Errorf("%w: gateway status %d", ErrUpstream, resp.StatusCode)
	}

	var cr chatResponse
	if err := json.Unmarshal(raw, &cr); err != nil || len(cr.Choices) == 0 {
		return Verdict{}, ErrUnparseable
	}
	content := cr.Choices[0].Message.Content
	c.log.WithField("content", truncate(content, 512)).Debug("ai response")

	return parseVerdict(content)
}

var (
	fencedJSON = regexp.MustCompile("(?s)```json\\s*\\n(.*?)\\n\\s*```")
	bareObject = regexp.MustCompile(`(?s)\{.*\}`)
)

// parseVerdict accepts a fenced ```json block, the outermost {...} span, or
// the raw message.
func parseVerdict(content string) (Verdict, error) {
	candidate := content
	if m := fencedJSON.FindStringSubmatch(content); m != nil {
		candidate = m[1]
	} else if m := bareObject.FindString(content); m != "" {
		candidate = m
	}
	var v Verdict
	if err := json.Unmarshal([]byte(candidate), &v); err != nil {
		return Verdict{}, ErrUnparseable
	}
	if v.Symptoms == nil {
		v.Symptoms = []string{}
	}
	return v, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
