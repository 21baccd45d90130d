// Package interpreter defines the language-model backends the assistant talks
// to: an Oracle that answers a prompt with JSON constrained by a schema, and
// a Transcriber that turns recorded speech into text.
//
// Backends: OpenAI (cloud), Anthropic (cloud) and Local (self-hosted via
// Ollama/whisper.cpp). Anthropic has no transcription API.
package interpreter

import (
	"context"
	"encoding/json"
	"strings"
)

// Request is one structured-generation call.
type Request struct {
	// System carries the standing instructions.
	System string

	// Prompt is the user content, typically the transcript.
	Prompt string

	// Schema is a JSON Schema object the reply must satisfy. Backends that
	// support constrained decoding pass it through; the others append it to
	// the system prompt.
	Schema map[string]any

	// SchemaName labels the schema for backends that require a name.
	SchemaName string

	Temperature float64
}

// Oracle produces raw JSON text for a Request. Callers validate the reply.
type Oracle interface {
	// Name returns the backend identifier (e.g., "openai", "local").
	Name() string

	// Generate returns the model's reply text.
	Generate(ctx context.Context, req Request) (string, error)

	// Close releases any resources held by the backend.
	Close() error
}

// TranscribeOpts controls transcription behavior.
type TranscribeOpts struct {
	// Language is the ISO-639-1 code (e.g., "hi", "mr") to guide transcription.
	Language string

	// Prompt provides context to improve recognition of domain-specific terms.
	Prompt string

	// Model overrides the default transcription model.
	Model string
}

// TranscribeResult is the text recognized in a recording.
type TranscribeResult struct {
	Text string

	// Language is the ISO-639-1 code reported by the backend, if any.
	Language string
}

// Transcriber converts audio bytes to text.
type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, audio []byte, contentType string, opts TranscribeOpts) (*TranscribeResult, error)
}

// AudioExt picks a file extension for an audio content type, defaulting to .wav.
func AudioExt(ct string) string {
	switch {
	case strings.Contains(ct, "wav"):
		return ".wav"
	case strings.Contains(ct, "ogg"):
		return ".ogg"
	case strings.Contains(ct, "mp3"), strings.Contains(ct, "mpeg"):
		return ".mp3"
	case strings.Contains(ct, "flac"):
		return ".flac"
	case strings.Contains(ct, "webm"):
		return ".webm"
	case strings.Contains(ct, "m4a"), strings.Contains(ct, "mp4"):
		return ".m4a"
	default:
		return ".wav"
	}
}

// NormalizeLanguage converts full language names (as some transcription
// APIs return them) to ISO-639-1 codes.
func NormalizeLanguage(lang string) string {
	if len(lang) == 2 {
		return strings.ToLower(lang)
	}
	known := map[string]string{
		"english":  "en",
		"hindi":    "hi",
		"marathi":  "mr",
		"gujarati": "gu",
		"punjabi":  "pa",
		"bengali":  "bn",
		"tamil":    "ta",
		"telugu":   "te",
		"kannada":  "kn",
		"urdu":     "ur",
	}
	if code, ok := known[strings.ToLower(lang)]; ok {
		return code
	}
	return strings.ToLower(lang)
}

// SchemaInstruction renders req.Schema as a plain-text instruction for
// backends without constrained decoding.
func SchemaInstruction(req Request) string {
	if req.Schema == nil {
		return "Reply with a single JSON object and nothing else."
	}
	return "Reply with a single JSON object, no markdown and no commentary, that satisfies this JSON Schema:\n" + schemaJSON(req.Schema)
}

func schemaJSON(schema map[string]any) string {
	b, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}
