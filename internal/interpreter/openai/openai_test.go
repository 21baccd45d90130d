package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hasti-ptl/Krishisahayk/internal/config"
	"github.com/hasti-ptl/Krishisahayk/internal/interpreter"
)

func newTestInterpreter(t *testing.T, h http.HandlerFunc) *Interpreter {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(config.OpenAIConfig{
		APIKey:             "sk-test",
		BaseURL:            srv.URL,
		TranscriptionModel: "whisper-1",
		CompletionModel:    "gpt-4o-mini",
	})
}

func TestGenerate_SendsSchemaAndReturnsContent(t *testing.T) {
	t.Parallel()

	i := newTestInterpreter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			return
		}
		assert.Equal(t, "gpt-4o-mini", req.Model)
		if assert.Len(t, req.Messages, 2) {
			assert.Equal(t, "system", req.Messages[0].Role)
			assert.Equal(t, "sowed two acres of tomato today", req.Messages[1].Content)
		}
		if !assert.NotNil(t, req.ResponseFormat) || !assert.NotNil(t, req.ResponseFormat.JSONSchema) {
			return
		}
		assert.Equal(t, "json_schema", req.ResponseFormat.Type)
		assert.Equal(t, "parsed_intent", req.ResponseFormat.JSONSchema.Name)
		assert.InDelta(t, 0.1, req.Temperature, 1e-9)

		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"{\"intent\":\"ACTIVITY\"}"}}]}`)
	})

	got, err := i.Generate(context.Background(), interpreter.Request{
		System:      "be strict",
		Prompt:      "sowed two acres of tomato today",
		Schema:      map[string]any{"type": "object"},
		SchemaName:  "parsed_intent",
		Temperature: 0.1,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"intent":"ACTIVITY"}`, got)
}

func TestGenerate_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http error", http.StatusTooManyRequests, `{"error":{"message":"rate limited"}}`},
		{"no choices", http.StatusOK, `{"choices":[]}`},
		{"refusal", http.StatusOK, `{"choices":[{"message":{"refusal":"no"}}]}`},
		{"garbage", http.StatusOK, `<html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			i := newTestInterpreter(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			_, err := i.Generate(context.Background(), interpreter.Request{Prompt: "x"})
			assert.Error(t, err)
		})
	}
}

func TestTranscribe(t *testing.T) {
	t.Parallel()

	i := newTestInterpreter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/transcriptions", r.URL.Path)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "hi", r.FormValue("language"))
		assert.Equal(t, "verbose_json", r.FormValue("response_format"))

		f, hdr, err := r.FormFile("file")
		if assert.NoError(t, err) {
			f.Close()
			assert.Equal(t, "audio.ogg", hdr.Filename)
		}

		_, _ = io.WriteString(w, `{"text":"आज दो एकड़ में टमाटर बोया","language":"hindi"}`)
	})

	got, err := i.Transcribe(context.Background(), []byte("OggS..."), "audio/ogg", interpreter.TranscribeOpts{Language: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "आज दो एकड़ में टमाटर बोया", got.Text)
	assert.Equal(t, "hi", got.Language)
}
