package aggregate

import "fintrack/internal/core"

// MatchesCategory reports whether a transaction category falls in a budget's
// scope. Overall matches everything; otherwise labels must be equal.
func MatchesCategory(txCategory, budgetCategory core.Category) bool {
	if budgetCategory == core.Overall {
		return true
	}
	return txCategory == budgetCategory
}
