package google

import (
	"time"

	"fintrack/internal/core"
)

// Column order of the mirror sheet.
var header = []string{"Date", "Description", "Amount", "Category", "Type", "ID", "Created"}

// transactionRow renders t in the column order of header. The amount is a
// signed decimal: expenses are negative regardless of the stored sign.
func transactionRow(t core.Transaction, loc *time.Location) []any {
	amount := t.Amount.Abs()
	if t.Type == core.Expense {
		amount = core.Money{Cents: -amount.Cents}
	}
	created := ""
	if !t.CreatedAt.IsZero() {
		created = t.CreatedAt.In(loc).Format(time.RFC3339)
	}
	return []any{
		t.Date.In(loc).Format("2006-01-02"),
		t.Description,
		amount.String(),
		t.Category.String(),
		string(t.Type),
		t.ID,
		created,
	}
}
