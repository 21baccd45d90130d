package session

import "github.com/hasti-ptl/Krishisahayk/internal/farm"

// Defaults for fields an intent did not mention.
const (
	DefaultActivityType = "General"
	DefaultCrop         = "Unknown"
	DefaultCategory     = "General"
)

// ActivityFromIntent maps an activity intent to the record committed for it.
func ActivityFromIntent(p *farm.ParsedIntent, today string) farm.ActivityRecord {
	rec := farm.ActivityRecord{
		Date:         today,
		ActivityType: orDefault(p.Data.ActivityType, DefaultActivityType),
		Crop:         orDefault(p.Data.Crop, DefaultCrop),
	}
	if p.Data.AreaAcres != nil {
		v := *p.Data.AreaAcres
		rec.AreaAcres = &v
	}
	return rec
}

// TransactionFromIntent maps a transaction intent to the record committed for it.
// Anything not marked income is an expense.
func TransactionFromIntent(p *farm.ParsedIntent, today string) farm.TransactionRecord {
	rec := farm.TransactionRecord{
		Date:     today,
		Type:     farm.TransactionExpense,
		Category: orDefault(p.Data.Category, DefaultCategory),
	}
	if p.Data.TransactionType == farm.TransactionIncome {
		rec.Type = farm.TransactionIncome
	}
	if p.Data.Amount != nil {
		rec.Amount = *p.Data.Amount
	}
	return rec
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
