package farm

import "strings"

// IntentKind classifies a voice command.
type IntentKind string

const (
	IntentActivity    IntentKind = "ACTIVITY"
	IntentTransaction IntentKind = "TRANSACTION"
	IntentSoilTest    IntentKind = "SOIL_TEST"
	IntentQuery       IntentKind = "QUERY"
	IntentUnknown     IntentKind = "UNKNOWN"
)

// IntentKinds lists every kind in schema order.
var IntentKinds = []IntentKind{IntentActivity, IntentTransaction, IntentSoilTest, IntentQuery, IntentUnknown}

// ParseIntentKind maps free text to a kind. Matching ignores case and treats
// spaces and dashes like underscores; anything unrecognised is IntentUnknown.
func ParseIntentKind(s string) IntentKind {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	for _, k := range IntentKinds {
		if norm == string(k) {
			return k
		}
	}
	return IntentUnknown
}

// Committable reports whether a confirmed intent of this kind produces a record.
func (k IntentKind) Committable() bool {
	return k == IntentActivity || k == IntentTransaction
}

// TransactionType is the direction of a money movement.
type TransactionType string

const (
	TransactionIncome  TransactionType = "INCOME"
	TransactionExpense TransactionType = "EXPENSE"
)

// ParseTransactionType returns the matching type, or "" when s names neither.
func ParseTransactionType(s string) TransactionType {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(TransactionIncome):
		return TransactionIncome
	case string(TransactionExpense):
		return TransactionExpense
	default:
		return ""
	}
}

// IntentData holds the sparse fields extracted from an utterance. Empty
// strings and nil pointers mean the field was not mentioned.
type IntentData struct {
	ActivityType    string          `json:"activity_type,omitempty"`
	Crop            string          `json:"crop,omitempty"`
	AreaAcres       *float64        `json:"area,omitempty"`
	Amount          *float64        `json:"amount,omitempty"`
	TransactionType TransactionType `json:"transaction_type,omitempty"`
	Category        string          `json:"category,omitempty"`
	RawText         string          `json:"raw_text,omitempty"`
}

// ParsedIntent is the structured reading of one utterance, held by the
// session until the farmer confirms or rejects it.
type ParsedIntent struct {
	Kind                IntentKind `json:"intent"`
	Confidence          float64    `json:"confidence"`
	Data                IntentData `json:"data"`
	ConfirmationMessage string     `json:"confirmation_message"`
}

// Clone returns a deep copy so callers can hand out intents without sharing
// the optional numeric fields.
func (p *ParsedIntent) Clone() *ParsedIntent {
	if p == nil {
		return nil
	}
	c := *p
	if p.Data.AreaAcres != nil {
		v := *p.Data.AreaAcres
		c.Data.AreaAcres = &v
	}
	if p.Data.Amount != nil {
		v := *p.Data.Amount
		c.Data.Amount = &v
	}
	return &c
}
