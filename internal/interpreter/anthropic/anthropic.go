// Package anthropic implements interpreter.Oracle on the Anthropic Messages API.
package anthropic

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hasti-ptl/Krishisahayk/internal/config"
	"github.com/hasti-ptl/Krishisahayk/internal/interpreter"
)

const defaultMaxTokens = 1024

// Oracle asks a Claude model for JSON replies.
type Oracle struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// New creates an Oracle from config. Extra options are appended to the
// client options derived from cfg.
func New(cfg config.AnthropicConfig, opts ...option.RequestOption) *Oracle {
	clientOpts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.BaseURL))
	}
	clientOpts = append(clientOpts, opts...)

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &Oracle{
		client:    anthropic.NewClient(clientOpts...),
		model:     cfg.Model,
		maxTokens: maxTokens,
	}
}

// Name returns the backend identifier.
func (o *Oracle) Name() string { return "anthropic" }

// Generate sends one user turn and returns the concatenated text blocks of
// the reply. The schema travels in the system prompt.
func (o *Oracle) Generate(ctx context.Context, r interpreter.Request) (string, error) {
	system := interpreter.SchemaInstruction(r)
	if r.System != "" {
		system = r.System + "\n\n" + system
	}

	msg, err := o.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(o.model),
		MaxTokens:   o.maxTokens,
		System:      []anthropic.TextBlockParam{{Text: system}},
		Temperature: anthropic.Float(r.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(r.Prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("messages api call: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("empty response (stop reason %q)", msg.StopReason)
	}

	slog.Debug("anthropic generation complete", "model", o.model, "content_length", sb.Len(), "output_tokens", msg.Usage.OutputTokens)
	return sb.String(), nil
}

// Close is a no-op; the SDK client holds no resources.
func (o *Oracle) Close() error { return nil }

var _ interpreter.Oracle = (*Oracle)(nil)
