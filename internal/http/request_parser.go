// Package http provides the JSON API server and its handlers.
//
// This file implements request body decoding and the conversion of request
// payloads into domain values. Dates and categories are validated here,
// once, so the services only ever see parsed values.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fintrack/internal/core"
)

const (
	maxJSONBody   = 1 << 20
	maxImportBody = 10 << 20
)

var errBadRequest = errors.New("bad request")

// decodeJSON reads a single JSON object from the body into dst. Unknown
// fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var moneyErr *core.ParseError
		if errors.As(err, &moneyErr) {
			return moneyErr
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadRequest)
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON object", errBadRequest)
	}
	return nil
}

type transactionRequest struct {
	Date        string     `json:"date"`
	Description string     `json:"description"`
	Amount      core.Money `json:"amount"`
	Category    string     `json:"category"`
	Type        string     `json:"type"`
}

func (req transactionRequest) toTransaction(userID string, loc *time.Location) (core.Transaction, error) {
	date, err := core.ParseDate("date", req.Date, loc)
	if err != nil {
		return core.Transaction{}, err
	}
	category, err := core.ParseCategory(req.Category)
	if err != nil {
		return core.Transaction{}, err
	}
	typ, err := core.ParseTransactionType(req.Type)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		UserID:      userID,
		Date:        date,
		Description: sanitizeInput(req.Description),
		Amount:      req.Amount,
		Category:    category,
		Type:        typ,
	}, nil
}

type budgetRequest struct {
	Name      string     `json:"name"`
	Category  string     `json:"category"`
	Amount    core.Money `json:"amount"`
	StartDate string     `json:"startDate"`
	EndDate   string     `json:"endDate"`
}

func (req budgetRequest) toBudget(userID string, loc *time.Location) (core.Budget, error) {
	category, err := core.ParseBudgetCategory(req.Category)
	if err != nil {
		return core.Budget{}, err
	}
	start, err := core.ParseDate("startDate", req.StartDate, loc)
	if err != nil {
		return core.Budget{}, err
	}
	end, err := core.ParseDate("endDate", req.EndDate, loc)
	if err != nil {
		return core.Budget{}, err
	}
	return core.Budget{
		UserID:    userID,
		Name:      sanitizeInput(req.Name),
		Category:  category,
		Amount:    req.Amount,
		StartDate: start,
		EndDate:   end,
	}, nil
}

type savingsGoalRequest struct {
	Name          string     `json:"name"`
	TargetAmount  core.Money `json:"targetAmount"`
	CurrentAmount core.Money `json:"currentAmount"`
	Deadline      string     `json:"deadline,omitempty"`
}

func (req savingsGoalRequest) toGoal(userID string, loc *time.Location) (core.SavingsGoal, error) {
	g := core.SavingsGoal{
		UserID:        userID,
		Name:          sanitizeInput(req.Name),
		TargetAmount:  req.TargetAmount,
		CurrentAmount: req.CurrentAmount,
	}
	if strings.TrimSpace(req.Deadline) != "" {
		d, err := core.ParseDate("deadline", req.Deadline, loc)
		if err != nil {
			return core.SavingsGoal{}, err
		}
		g.Deadline = &d
	}
	return g, nil
}

type insightsRequest struct {
	Rules string `json:"rules"`
}

type queryRequest struct {
	Question string `json:"question"`
}

// sanitizeInput trims whitespace and drops control characters.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
