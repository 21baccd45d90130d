package anthropic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hasti-ptl/Krishisahayk/internal/config"
	"github.com/hasti-ptl/Krishisahayk/internal/interpreter"
)

func newTestOracle(t *testing.T, h http.HandlerFunc) *Oracle {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(config.AnthropicConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/",
		Model:   "claude-3-5-haiku-latest",
	}, option.WithMaxRetries(0))
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	o := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))

		var body struct {
			Model     string `json:"model"`
			MaxTokens int64  `json:"max_tokens"`
			System    []struct {
				Text string `json:"text"`
			} `json:"system"`
			Messages []json.RawMessage `json:"messages"`
		}
		if assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) {
			assert.Equal(t, "claude-3-5-haiku-latest", body.Model)
			assert.Equal(t, int64(defaultMaxTokens), body.MaxTokens)
			if assert.Len(t, body.System, 1) {
				assert.Contains(t, body.System[0].Text, "Answer in Pure Hindi")
				assert.Contains(t, body.System[0].Text, "JSON Schema")
			}
			assert.Len(t, body.Messages, 1)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "msg_01", "type": "message", "role": "assistant", "model": "claude-3-5-haiku-latest",
			"content": [{"type": "text", "text": "{\"intent\":\"TRANSACTION\"}"}],
			"stop_reason": "end_turn", "stop_sequence": null,
			"usage": {"input_tokens": 120, "output_tokens": 12}
		}`)
	})

	got, err := o.Generate(context.Background(), interpreter.Request{
		System: "Answer in Pure Hindi.",
		Prompt: "गेहूं बेचकर 5000 रुपये मिले",
		Schema: map[string]any{"type": "object"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"intent":"TRANSACTION"}`, got)
}

func TestGenerate_APIError(t *testing.T) {
	t.Parallel()

	o := newTestOracle(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`)
	})

	_, err := o.Generate(context.Background(), interpreter.Request{Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "messages api call")
}

func TestGenerate_NoTextBlocks(t *testing.T) {
	t.Parallel()

	o := newTestOracle(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"msg_02","type":"message","role":"assistant","model":"m","content":[],
			"stop_reason":"max_tokens","usage":{"input_tokens":1,"output_tokens":0}}`)
	})

	_, err := o.Generate(context.Background(), interpreter.Request{Prompt: "x"})
	assert.ErrorContains(t, err, "max_tokens")
}
