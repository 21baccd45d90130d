package farm

import "time"

// DateLayout is the ISO calendar-day layout used for record dates.
const DateLayout = "2006-01-02"

// Day formats t as an ISO calendar day in t's location.
func Day(t time.Time) string {
	return t.Format(DateLayout)
}

// ActivityRecord is an append-only log entry for a confirmed field activity.
type ActivityRecord struct {
	ID           int64    `json:"id"`
	FarmerID     int64    `json:"farmer_id"`
	Date         string   `json:"date"`
	ActivityType string   `json:"activity_type"`
	Crop         string   `json:"crop"`
	AreaAcres    *float64 `json:"area_acres,omitempty"`
}

// TransactionRecord is an append-only log entry for a confirmed sale or expense.
type TransactionRecord struct {
	ID       int64           `json:"id"`
	FarmerID int64           `json:"farmer_id"`
	Date     string          `json:"date"`
	Type     TransactionType `json:"type"`
	Category string          `json:"category"`
	Amount   float64         `json:"amount"`
}

// Summary totals the transaction log.
type Summary struct {
	TotalIncome  float64 `json:"total_income"`
	TotalExpense float64 `json:"total_expense"`
	NetProfit    float64 `json:"net_profit"`
}

// Summarize folds transactions into totals. Income adds to TotalIncome and
// every other type adds to TotalExpense.
func Summarize(txs []TransactionRecord) Summary {
	var s Summary
	for _, tx := range txs {
		if tx.Type == TransactionIncome {
			s.TotalIncome += tx.Amount
		} else {
			s.TotalExpense += tx.Amount
		}
	}
	s.NetProfit = s.TotalIncome - s.TotalExpense
	return s
}
