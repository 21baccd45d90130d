// Package intent turns a transcript into a farm.ParsedIntent using an
// interpreter.Oracle, and never trusts the oracle's reply without checking it.
package intent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hasti-ptl/Krishisahayk/internal/farm"
	"github.com/hasti-ptl/Krishisahayk/internal/i18n"
	"github.com/hasti-ptl/Krishisahayk/internal/interpreter"
)

// temperature keeps extraction close to deterministic.
const temperature = 0.1

// SchemaName labels Schema for backends that need one.
const SchemaName = "parsed_intent"

// Schema is the JSON Schema the oracle's reply must satisfy.
var Schema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"intent": map[string]any{
			"type": "string",
			"enum": []string{"ACTIVITY", "TRANSACTION", "SOIL_TEST", "QUERY", "UNKNOWN"},
		},
		"confidence": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
		"data": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"activity_type":    map[string]any{"type": "string", "description": "Sowing, Irrigation, Harvesting, Spraying, Weeding..."},
				"crop":             map[string]any{"type": "string"},
				"area":             map[string]any{"type": "number", "description": "acres"},
				"amount":           map[string]any{"type": "number", "description": "rupees"},
				"transaction_type": map[string]any{"type": "string", "enum": []string{"INCOME", "EXPENSE"}},
				"category":         map[string]any{"type": "string"},
				"raw_text":         map[string]any{"type": "string"},
			},
		},
		"confirmation_message": map[string]any{"type": "string"},
	},
	"required": []string{"intent", "confidence", "data", "confirmation_message"},
}

// Structurer is the intent structuring adapter. With a nil oracle it answers
// every transcript with a fixed offline intent.
type Structurer struct {
	oracle interpreter.Oracle
	logger *slog.Logger
}

// New returns a Structurer. Pass a nil oracle when no credential is configured.
func New(oracle interpreter.Oracle, logger *slog.Logger) *Structurer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Structurer{oracle: oracle, logger: logger.With("component", "intent")}
}

// Offline reports whether the structurer answers without an oracle.
func (s *Structurer) Offline() bool { return s.oracle == nil }

// Structure reads transcript as spoken in language. Failures are
// *farm.Failure values: EmptyInput for a blank transcript, StructuringFailed
// (carrying the transcript) for anything the oracle gets wrong.
func (s *Structurer) Structure(ctx context.Context, transcript, language string) (*farm.ParsedIntent, error) {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return nil, farm.NewFailure(farm.KindEmptyInput, errors.New("transcript is empty"))
	}
	lang := i18n.Normalize(language)

	if s.oracle == nil {
		s.logger.Info("no oracle configured, using offline intent", "language", lang)
		return offlineIntent(transcript, lang), nil
	}

	reply, err := s.oracle.Generate(ctx, interpreter.Request{
		System:      systemPrompt(lang),
		Prompt:      transcript,
		Schema:      Schema,
		SchemaName:  SchemaName,
		Temperature: temperature,
	})
	if err != nil {
		return nil, s.fail(transcript, fmt.Errorf("%s: %w", s.oracle.Name(), err))
	}

	parsed, err := Decode(reply, transcript, lang)
	if err != nil {
		s.logger.Debug("rejected oracle reply", "reply", truncate(reply, 300))
		return nil, s.fail(transcript, err)
	}

	s.logger.Info("intent structured", "kind", parsed.Kind, "confidence", parsed.Confidence, "language", lang)
	return parsed, nil
}

func (s *Structurer) fail(transcript string, err error) error {
	s.logger.Warn("structuring failed", "error", err)
	return &farm.Failure{Kind: farm.KindStructuringFailed, Transcript: transcript, Err: err}
}

func offlineIntent(transcript, lang string) *farm.ParsedIntent {
	area := 2.0
	return &farm.ParsedIntent{
		Kind:       farm.IntentActivity,
		Confidence: 0.9,
		Data: farm.IntentData{
			ActivityType: "Sowing",
			Crop:         "Tomato",
			AreaAcres:    &area,
			RawText:      transcript,
		},
		ConfirmationMessage: i18n.OfflineConfirmation(lang),
	}
}

func systemPrompt(lang string) string {
	var sb strings.Builder
	sb.WriteString("You are a farm record-keeping assistant for Indian farmers.\n")
	sb.WriteString("Classify the farmer's sentence and extract its details as JSON.\n\n")
	sb.WriteString("Intents:\n")
	sb.WriteString("- ACTIVITY: field work such as sowing, irrigation, spraying, weeding or harvesting\n")
	sb.WriteString("- TRANSACTION: money received (INCOME) or spent (EXPENSE)\n")
	sb.WriteString("- SOIL_TEST: a soil test or its results\n")
	sb.WriteString("- QUERY: a question\n")
	sb.WriteString("- UNKNOWN: anything else\n\n")
	sb.WriteString("Areas are in acres and amounts in rupees, as plain numbers. Omit fields that were not mentioned.\n")
	sb.WriteString("Use English words for activity_type, crop and category (e.g. \"Sowing\", \"Tomato\", \"Seeds\").\n\n")
	fmt.Fprintf(&sb, "confirmation_message: one short sentence repeating what will be saved, written in %s using only %s script. ",
		i18n.DisplayName(lang), i18n.ScriptName(lang))
	sb.WriteString("It is read aloud to the farmer, so do not mix scripts.\n")
	return sb.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
