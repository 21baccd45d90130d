// Package openai implements the interpreter backends on OpenAI's APIs.
//
// It uses the Audio Transcription API (Whisper / gpt-4o-transcribe) for
// speech-to-text, and the Chat Completions API with a JSON Schema response
// format for structured generation.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/hasti-ptl/Krishisahayk/internal/config"
	"github.com/hasti-ptl/Krishisahayk/internal/interpreter"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Interpreter uses OpenAI APIs for transcription and generation.
type Interpreter struct {
	apiKey             string
	baseURL            string
	transcriptionModel string
	completionModel    string
	client             *http.Client
}

// New creates a new OpenAI interpreter from config.
func New(cfg config.OpenAIConfig) *Interpreter {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	return &Interpreter{
		apiKey:             cfg.APIKey,
		baseURL:            base,
		transcriptionModel: cfg.TranscriptionModel,
		completionModel:    cfg.CompletionModel,
		client:             &http.Client{},
	}
}

// Name returns the backend identifier.
func (i *Interpreter) Name() string { return "openai" }

// Transcribe sends audio to the OpenAI Transcription API.
func (i *Interpreter) Transcribe(ctx context.Context, audio []byte, contentType string, opts interpreter.TranscribeOpts) (*interpreter.TranscribeResult, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "audio"+interpreter.AudioExt(contentType))
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(audio)); err != nil {
		return nil, fmt.Errorf("writing audio: %w", err)
	}

	model := i.transcriptionModel
	if opts.Model != "" {
		model = opts.Model
	}
	_ = writer.WriteField("model", model)

	if opts.Language != "" {
		_ = writer.WriteField("language", opts.Language)
	}
	if opts.Prompt != "" {
		_ = writer.WriteField("prompt", opts.Prompt)
	}
	// gpt-4o-transcribe models only accept json; whisper-1 adds the detected language in verbose_json.
	format := "json"
	if strings.HasPrefix(model, "whisper") {
		format = "verbose_json"
	}
	_ = writer.WriteField("response_format", format)
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.baseURL+"/audio/transcriptions", body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+i.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("transcription failed (status %d): %s", resp.StatusCode, respBody)
	}

	var result struct {
		Text     string `json:"text"`
		Language string `json:"language"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding transcription: %w", err)
	}

	lang := interpreter.NormalizeLanguage(result.Language)
	if lang == "" {
		lang = opts.Language
	}

	slog.Debug("transcription complete", "text_length", len(result.Text), "language", lang)
	return &interpreter.TranscribeResult{
		Text:     result.Text,
		Language: lang,
	}, nil
}

// Generate sends the request to the Chat Completions API and returns the
// message content.
func (i *Interpreter) Generate(ctx context.Context, r interpreter.Request) (string, error) {
	reqBody := chatRequest{
		Model: i.completionModel,
		Messages: []chatMessage{
			{Role: "system", Content: r.System},
			{Role: "user", Content: r.Prompt},
		},
		ResponseFormat: responseFormatFor(r),
		Temperature:    r.Temperature,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshalling chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+i.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := i.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("chat failed (status %d): %s", resp.StatusCode, respBody)
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decoding chat response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from chat API")
	}
	choice := chatResp.Choices[0].Message
	if choice.Refusal != "" {
		return "", fmt.Errorf("model refused: %s", choice.Refusal)
	}

	slog.Debug("generation complete", "content_length", len(choice.Content))
	return choice.Content, nil
}

// Close is a no-op for the OpenAI interpreter.
func (i *Interpreter) Close() error { return nil }

// --- Internal types and helpers ---

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Temperature    float64         `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *jsonSchema `json:"json_schema,omitempty"`
}

type jsonSchema struct {
	Name   string         `json:"name"`
	Schema map[string]any `json:"schema"`
	Strict bool           `json:"strict"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
	} `json:"choices"`
}

func responseFormatFor(r interpreter.Request) *responseFormat {
	if r.Schema == nil {
		return &responseFormat{Type: "json_object"}
	}
	name := r.SchemaName
	if name == "" {
		name = "response"
	}
	return &responseFormat{
		Type:       "json_schema",
		JSONSchema: &jsonSchema{Name: name, Schema: r.Schema},
	}
}

var (
	_ interpreter.Oracle      = (*Interpreter)(nil)
	_ interpreter.Transcriber = (*Interpreter)(nil)
)
