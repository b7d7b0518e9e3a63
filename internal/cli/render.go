package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"fintrack/internal/aggregate"
	"fintrack/internal/core"
)

var (
	colorBorder = lipgloss.Color("#575653")
	colorAccent = lipgloss.Color("#3AA99F")
	colorGreen  = lipgloss.Color("#879A39")
	colorOrange = lipgloss.Color("#DA702C")
	colorRed    = lipgloss.Color("#D14D41")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Faint(true)
)

var levelStyles = map[aggregate.Level]lipgloss.Style{
	aggregate.LevelOK:      lipgloss.NewStyle().Foreground(colorGreen),
	aggregate.LevelWarning: lipgloss.NewStyle().Foreground(colorOrange),
	aggregate.LevelOver:    lipgloss.NewStyle().Foreground(colorRed),
}

// RenderTitle renders a section heading.
func RenderTitle(title string) string {
	return titleStyle.Render(strings.ToUpper(title))
}

// RenderTable renders a bordered table.
func RenderTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.Render()
}

// RenderSummary renders totals, the top categories and recent transactions.
func RenderSummary(s aggregate.Summary, loc *time.Location) string {
	var b strings.Builder
	b.WriteString(RenderTitle("Summary"))
	b.WriteString("\n")
	b.WriteString(RenderTable(
		[]string{"Income", "Expense", "Net"},
		[][]string{{s.TotalIncome.String(), s.TotalExpense.String(), s.Net.String()}},
	))
	b.WriteString("\n\n")

	b.WriteString(RenderTitle("Top categories"))
	b.WriteString("\n")
	if len(s.TopCategories) == 0 {
		b.WriteString(mutedStyle.Render("no expenses"))
	} else {
		rows := make([][]string, 0, len(s.TopCategories))
		for _, c := range s.TopCategories {
			rows = append(rows, []string{c.Name, c.Amount.String()})
		}
		b.WriteString(RenderTable([]string{"Category", "Total"}, rows))
	}
	b.WriteString("\n\n")

	b.WriteString(RenderTitle("Recent"))
	b.WriteString("\n")
	b.WriteString(RenderTransactions(s.Recent, loc))
	if s.SkippedDates > 0 {
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(fmt.Sprintf("%d transaction(s) without a usable date not shown", s.SkippedDates)))
	}
	b.WriteString("\n")
	return b.String()
}

// RenderTransactions renders transactions one per row.
func RenderTransactions(txs []core.Transaction, loc *time.Location) string {
	if len(txs) == 0 {
		return mutedStyle.Render("no transactions")
	}
	rows := make([][]string, 0, len(txs))
	for _, t := range txs {
		date := "?"
		if !t.Date.IsZero() {
			date = t.Date.In(loc).Format("2006-01-02")
		}
		rows = append(rows, []string{date, t.Description, string(t.Category), string(t.Type), t.Amount.Abs().String()})
	}
	return RenderTable([]string{"Date", "Description", "Category", "Type", "Amount"}, rows)
}

// RenderBudgets renders computed budget views with their status.
func RenderBudgets(title string, views []aggregate.BudgetView) string {
	var b strings.Builder
	b.WriteString(RenderTitle(title))
	b.WriteString("\n")
	if len(views) == 0 {
		b.WriteString(mutedStyle.Render("none"))
		b.WriteString("\n")
		return b.String()
	}
	rows := make([][]string, 0, len(views))
	for _, v := range views {
		usage := levelStyles[v.Level].Render(fmt.Sprintf("%.0f%%", v.Progress))
		note := v.Warning
		if v.Status == aggregate.StatusOK && v.Overspent {
			note = "overspent"
		}
		rows = append(rows, []string{
			v.Budget.Name,
			string(v.Budget.Category),
			v.Period,
			v.Budget.Spent.String() + " / " + v.Budget.Amount.String(),
			v.Remaining.String(),
			usage,
			note,
		})
	}
	b.WriteString(RenderTable([]string{"Name", "Category", "Period", "Spent", "Remaining", "Used", "Note"}, rows))
	b.WriteString("\n")
	return b.String()
}
