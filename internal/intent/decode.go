package intent

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/hasti-ptl/Krishisahayk/internal/farm"
	"github.com/hasti-ptl/Krishisahayk/internal/i18n"
)

// ErrSchemaViolation marks a reply that parsed as JSON but broke the contract.
var ErrSchemaViolation = errors.New("reply violates intent schema")

type rawIntent struct {
	Intent     string   `json:"intent"`
	Confidence optFloat `json:"confidence"`
	Data       struct {
		ActivityType    string   `json:"activity_type"`
		Crop            string   `json:"crop"`
		Area            optFloat `json:"area"`
		Amount          optFloat `json:"amount"`
		TransactionType string   `json:"transaction_type"`
		Category        string   `json:"category"`
		RawText         string   `json:"raw_text"`
	} `json:"data"`
	ConfirmationMessage string `json:"confirmation_message"`
}

// optFloat accepts a JSON number or a numeric string. Anything else, and
// non-finite values, decode as absent.
type optFloat struct {
	v *float64
}

func (o *optFloat) UnmarshalJSON(b []byte) error {
	o.v = nil
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
	} else {
		s = string(b)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	o.v = &f
	return nil
}

// nonNegative drops negative quantities.
func (o optFloat) nonNegative() *float64 {
	if o.v == nil || *o.v < 0 {
		return nil
	}
	v := *o.v
	return &v
}

// Decode validates and normalizes an oracle reply. Unknown intent kinds
// become UNKNOWN, confidence is clamped to [0,1], negative or non-numeric
// area and amount are dropped, an unknown transaction type is dropped and a
// missing raw_text defaults to the transcript. The confirmation message must
// be present and written in lang's script.
func Decode(reply, transcript, lang string) (*farm.ParsedIntent, error) {
	body, err := extractJSON(reply)
	if err != nil {
		return nil, err
	}

	var raw rawIntent
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, fmt.Errorf("decoding reply: %w", err)
	}

	msg := strings.TrimSpace(raw.ConfirmationMessage)
	if msg == "" {
		return nil, fmt.Errorf("%w: confirmation_message is empty", ErrSchemaViolation)
	}
	if i18n.MixedScript(lang, msg) {
		return nil, fmt.Errorf("%w: confirmation_message %q is not in %s script", ErrSchemaViolation, msg, i18n.ScriptName(lang))
	}

	confidence := 0.0
	if raw.Confidence.v != nil {
		confidence = math.Max(0, math.Min(1, *raw.Confidence.v))
	}

	rawText := strings.TrimSpace(raw.Data.RawText)
	if rawText == "" {
		rawText = transcript
	}

	return &farm.ParsedIntent{
		Kind:       farm.ParseIntentKind(raw.Intent),
		Confidence: confidence,
		Data: farm.IntentData{
			ActivityType:    strings.TrimSpace(raw.Data.ActivityType),
			Crop:            strings.TrimSpace(raw.Data.Crop),
			AreaAcres:       raw.Data.Area.nonNegative(),
			Amount:          raw.Data.Amount.nonNegative(),
			TransactionType: farm.ParseTransactionType(raw.Data.TransactionType),
			Category:        strings.TrimSpace(raw.Data.Category),
			RawText:         rawText,
		},
		ConfirmationMessage: msg,
	}, nil
}

// extractJSON returns the span from the first '{' to the last '}', which
// strips markdown fences and chatter around the object.
func extractJSON(s string) (string, error) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in reply")
	}
	return s[start : end+1], nil
}
