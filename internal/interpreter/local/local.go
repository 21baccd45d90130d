// Package local implements the interpreter backends on self-hosted models.
//
// It supports any Whisper-compatible transcription endpoint (e.g., whisper.cpp
// server, faster-whisper) and either Ollama's /api/generate or any
// OpenAI-compatible chat endpoint (e.g., vLLM, llama.cpp server).
package local

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/hasti-ptl/Krishisahayk/internal/config"
	"github.com/hasti-ptl/Krishisahayk/internal/interpreter"
)

// Interpreter uses self-hosted models for transcription and generation.
type Interpreter struct {
	whisperEndpoint string
	whisperType     string // "openai" or "asr"
	llmEndpoint     string
	llmModel        string
	vadFilter       bool
	client          *http.Client
}

// New creates a new local interpreter from config.
func New(cfg config.LocalConfig) *Interpreter {
	wt := cfg.WhisperType
	if wt == "" {
		wt = "openai"
	}
	model := cfg.LLMModel
	if model == "" {
		model = "llama3"
	}
	return &Interpreter{
		whisperEndpoint: cfg.WhisperEndpoint,
		whisperType:     wt,
		llmEndpoint:     cfg.LLMEndpoint,
		llmModel:        model,
		vadFilter:       cfg.VADFilter,
		client:          &http.Client{},
	}
}

// Name returns the backend identifier.
func (i *Interpreter) Name() string { return "local" }

// Transcribe sends audio to the local Whisper-compatible endpoint.
// Supports two flavors:
//   - "openai": OpenAI-compatible API (whisper.cpp server, faster-whisper)
//   - "asr":    ahmetoner/whisper-asr-webservice (POST /asr with query params)
func (i *Interpreter) Transcribe(ctx context.Context, audio []byte, contentType string, opts interpreter.TranscribeOpts) (*interpreter.TranscribeResult, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	field := "file"
	if i.whisperType == "asr" {
		field = "audio_file"
	}
	part, err := writer.CreateFormFile(field, "audio"+interpreter.AudioExt(contentType))
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(audio)); err != nil {
		return nil, fmt.Errorf("writing audio: %w", err)
	}

	reqURL := i.whisperEndpoint
	if i.whisperType == "asr" {
		q := make(url.Values)
		q.Set("task", "transcribe")
		q.Set("output", "json")
		q.Set("encode", "true")
		if opts.Language != "" {
			q.Set("language", opts.Language)
		}
		if opts.Prompt != "" {
			q.Set("initial_prompt", opts.Prompt)
		}
		if i.vadFilter {
			q.Set("vad_filter", "true")
		}
		reqURL += "?" + q.Encode()
	} else {
		if opts.Model != "" {
			_ = writer.WriteField("model", opts.Model)
		}
		if opts.Language != "" {
			_ = writer.WriteField("language", opts.Language)
		}
		_ = writer.WriteField("response_format", "verbose_json")
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	slog.Debug("local transcription request", "url", reqURL, "type", i.whisperType)

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("local transcription request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("local transcription failed (status %d): %s", resp.StatusCode, respBody)
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
	slog.Debug("local transcription complete", "text_length", len(result.Text), "language", lang)
	return &interpreter.TranscribeResult{
		Text:     strings.TrimSpace(result.Text),
		Language: lang,
	}, nil
}

// Generate sends the request to the local LLM endpoint. Endpoints ending in
// /api/generate get Ollama's native format with the schema as the format
// constraint; anything else is treated as OpenAI-compatible chat completions.
func (i *Interpreter) Generate(ctx context.Context, r interpreter.Request) (string, error) {
	var reqBody map[string]any
	if strings.HasSuffix(i.llmEndpoint, "/api/generate") {
		var format any = "json"
		if r.Schema != nil {
			format = r.Schema
		}
		reqBody = map[string]any{
			"model":   i.llmModel,
			"system":  r.System,
			"prompt":  r.Prompt,
			"stream":  false,
			"format":  format,
			"options": map[string]any{"temperature": r.Temperature},
		}
	} else {
		reqBody = map[string]any{
			"model": i.llmModel,
			"messages": []map[string]string{
				{"role": "system", "content": r.System + "\n\n" + interpreter.SchemaInstruction(r)},
				{"role": "user", "content": r.Prompt},
			},
			"response_format": map[string]string{"type": "json_object"},
			"temperature":     r.Temperature,
			"stream":          false,
		}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshalling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.llmEndpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := i.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("local LLM request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("local LLM failed (status %d): %s", resp.StatusCode, respBody)
	}

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading LLM response: %w", err)
	}

	content := extractContent(respData)
	if content == "" {
		return "", fmt.Errorf("empty response from local LLM")
	}

	slog.Debug("local generation complete", "content_length", len(content))
	return content, nil
}

// Close is a no-op for the local interpreter.
func (i *Interpreter) Close() error { return nil }

func extractContent(data []byte) string {
	// OpenAI-compatible format: {"choices": [{"message": {"content": "..."}}]}
	var chatResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &chatResp); err == nil && len(chatResp.Choices) > 0 {
		return chatResp.Choices[0].Message.Content
	}

	// Ollama format: {"response": "..."}
	var ollamaResp struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(data, &ollamaResp); err == nil && ollamaResp.Response != "" {
		return ollamaResp.Response
	}

	return ""
}

var (
	_ interpreter.Oracle      = (*Interpreter)(nil)
	_ interpreter.Transcriber = (*Interpreter)(nil)
)
