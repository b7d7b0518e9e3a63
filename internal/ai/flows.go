package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/importer"
)

const insightsPrompt = `You are a personal finance analyst. Review the transaction history below and
describe the user's spending habits. Point out the largest categories, any unusual expenses and
two or three concrete ways to spend less.
%s
Transaction History (CSV):
%s`

const tipsPrompt = `You are a helpful and encouraging financial coach.
A user is trying to save for a goal with the following details:
- Goal Name: %s
- Target Amount: %s
- Current Amount Saved: %s
%s
Please provide 2-3 concise, actionable, and encouraging tips to help them reach this specific savings goal.
Focus on practical advice. Start each tip with a dash (-).
Keep the entire response to a maximum of 150 words.`

const queryPrompt = `You are a helpful financial assistant. Analyze the provided transaction history to answer the user's question.
Base your answers strictly on the data given in the CSV. Do not make up information or answer questions outside the scope of this transaction data.
If the question cannot be answered from the provided transaction data, clearly state that.

User's Question: %s

Transaction History (CSV):
%s
Provide a concise answer to the user's question.`

// SpendingInsights summarizes the user's spending. Optional rules are
// appended to the prompt verbatim.
func (c *Client) SpendingInsights(ctx context.Context, txs []core.Transaction, rules string, loc *time.Location) (string, error) {
	if len(txs) == 0 {
		return "", ErrNoData
	}
	var extra string
	if r := strings.TrimSpace(rules); r != "" {
		extra = "\nFollow these additional rules from the user:\n" + r + "\n"
	}
	prompt := fmt.Sprintf(insightsPrompt, extra, importer.History(txs, loc))
	return c.run(ctx, "insights", prompt, "insights", "Spending insights as plain text")
}

// SavingsTips returns a few short tips for reaching goal.
func (c *Client) SavingsTips(ctx context.Context, goal core.SavingsGoal) (string, error) {
	var deadline string
	if goal.Deadline != nil {
		deadline = "- Deadline: " + goal.Deadline.Format("2006-01-02")
	}
	prompt := fmt.Sprintf(tipsPrompt, goal.Name, goal.TargetAmount, goal.CurrentAmount, deadline)
	return c.run(ctx, "savings_tips", prompt, "tips",
		"2-3 concise, actionable and encouraging tips for reaching the savings goal")
}

// AnswerQuery answers a question about the transaction history. An empty
// model answer is replaced by FallbackAnswer; transport errors are returned.
func (c *Client) AnswerQuery(ctx context.Context, question string, txs []core.Transaction, loc *time.Location) (string, error) {
	q := strings.TrimSpace(question)
	if q == "" {
		return "", ErrEmptyQuestion
	}
	prompt := fmt.Sprintf(queryPrompt, q, importer.History(txs, loc))
	answer, err := c.run(ctx, "query", prompt, "answer",
		"The answer to the user query, based on the provided transaction history")
	if errors.Is(err, ErrEmptyResponse) {
		return FallbackAnswer, nil
	}
	return answer, err
}
