package analyzer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/plant-disease-monitor/internal/config"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	log, _ := test.NewNullLogger()
	return New(config.AIConfig{GatewayURL: srv.URL + "/", APIKey: "k", Model: "m", Timeout: 5 * time.Second}, log)
}

func reply(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"choices": []any{map[string]any{"message": map[string]any{"content": content}}},
	})
}

func TestAnalyze_SendsImageAndParsesFencedJSON(t *testing.T) {
	var rawReq map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&rawReq))
		reply(w, "Here you go:\n```json\n{\"detected\":true,\"confidence\":87,\"severity\":\"moderate\",\"symptoms\":[\"concentric rings\"],\"recommendations\":\"apply fungicide\"}\n```")
	})

	v, err := c.Analyze(context.Background(), "data:image/jpeg;base64,AAAA")
	require.NoError(t, err)
	assert.Equal(t, Verdict{Detected: true, Confidence: 87, Severity: "moderate", Symptoms: []string{"concentric rings"}, Recommendations: "apply fungicide"}, v)

	assert.Equal(t, "m", rawReq["model"])
	msgs := rawReq["messages"].([]any)
	require.Len(t, msgs, 2)
	user := msgs[1].(map[string]any)["content"].([]any)
	img := user[1].(map[string]any)
	assert.Equal(t, "image_url", img["type"])
	assert.Equal(t, "data:image/jpeg;base64,AAAA", img["image_url"].(map[string]any)["url"])
}

func TestAnalyze_UpstreamStatuses(t *testing.T) {
	cases := map[int]error{
		http.StatusTooManyRequests:     ErrRateLimited,
		http.StatusPaymentRequired:     ErrCreditsExhausted,
		http.StatusInternalServerError: ErrUpstream,
		http.StatusBadRequest:          ErrUpstream,
	}
	for status, want := range cases {
		t.Run(http.StatusText(status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "nope", status)
			})
			_, err := c.Analyze(context.Background(), "img")
			assert.ErrorIs(t, err, want)
		})
	}
}

func TestAnalyze_Unparseable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		reply(w, "I cannot tell from this picture.")
	})
	_, err := c.Analyze(context.Background(), "img")
	assert.ErrorIs(t, err, ErrUnparseable)
}

func TestAnalyze_NotConfigured(t *testing.T) {
	log, _ := test.NewNullLogger()
	c := New(config.AIConfig{GatewayURL: "http://127.0.0.1:1"}, log)
	assert.False(t, c.Enabled())
	_, err := c.Analyze(context.Background(), "img")
	assert.ErrorIs(t, err, ErrNotConfigured)

	var nilClient *Client
	assert.False(t, nilClient.Enabled())
}

func TestParseVerdict(t *testing.T) {
	v, err := parseVerdict(`Result: {"detected": false, "confidence": 12, "severity": "none"} thanks`)
	require.NoError(t, err)
	assert.False(t, v.Detected)
	assert.Equal(t, 12.0, v.Confidence)
	assert.Equal(t, []string{}, v.Symptoms)

	v, err = parseVerdict(`{"detected":true,"confidence":55,"severity":"mild","symptoms":["halo"],"recommendations":"x"}`)
	require.NoError(t, err)
	assert.Equal(t, "mild", v.Severity)

	_, err = parseVerdict("```json\nnot json\n```")
	assert.ErrorIs(t, err, ErrUnparseable)
}
