package aggregate

import "fintrack/internal/core"

// Classify splits budgets into Overall and category-specific groups,
// keeping the relative order within each group.
func Classify(budgets []core.Budget) (overall, category []core.Budget) {
	return partition(budgets, func(b core.Budget) bool { return b.Category.IsOverall() })
}

// ClassifyViews is Classify for computed views.
func ClassifyViews(views []BudgetView) (overall, category []BudgetView) {
	return partition(views, func(v BudgetView) bool { return v.Budget.Category.IsOverall() })
}

func partition[T any](items []T, isOverall func(T) bool) (overall, category []T) {
	overall = make([]T, 0)
	category = make([]T, 0, len(items))
	for _, it := range items {
		if isOverall(it) {
			overall = append(overall, it)
		} else {
			category = append(category, it)
		}
	}
	return overall, category
}
