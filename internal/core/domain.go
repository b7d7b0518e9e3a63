package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	Groceries      Category = "Groceries"
	Utilities      Category = "Utilities"
	RentMortgage   Category = "Rent/Mortgage"
	Transportation Category = "Transportation"
	DiningOut      Category = "Dining Out"
	Entertainment  Category = "Entertainment"
	Shopping       Category = "Shopping"
	Healthcare     Category = "Healthcare"
	IncomeCategory Category = "Income"
	Investments    Category = "Investments"
	Travel         Category = "Travel"
	Education      Category = "Education"
	PersonalCare   Category = "Personal Care"
	GiftsDonations Category = "Gifts/Donations"
	Other          Category = "Other"
	Uncategorized  Category = "Uncategorized"

	// Overall is the budget-only sentinel that matches every expense.
	Overall Category = "Overall"
)

// TransactionCategories lists the closed set of labels a transaction may carry.
var TransactionCategories = []Category{
	Groceries, Utilities, RentMortgage, Transportation, DiningOut,
	Entertainment, Shopping, Healthcare, IncomeCategory, Investments, Travel,
	Education, PersonalCare, GiftsDonations, Other, Uncategorized,
}

type (
	TransactionType string

	Category string

	Transaction struct {
		ID          string
		UserID      string
		Date        time.Time // zero when the stored value could not be parsed
		Description string
		Amount      Money // sign is not authoritative, Type is
		Category    Category
		Type        TransactionType
		CreatedAt   time.Time
	}

	Budget struct {
		ID        string
		UserID    string
		Name      string
		Category  Category // a transaction category or Overall
		Amount    Money    // ceiling
		Spent     Money    // derived, recomputed on every read
		StartDate time.Time
		EndDate   time.Time
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	SavingsGoal struct {
		ID            string
		UserID        string
		Name          string
		TargetAmount  Money
		CurrentAmount Money
		Deadline      *time.Time
		AITips        string // opaque, never parsed
		CreatedAt     time.Time
		UpdatedAt     time.Time
	}
)

var (
	ErrNotFound           = errors.New("not found")
	ErrMissingUser        = errors.New("missing user id")
	ErrEmptyDescription   = errors.New("empty description")
	ErrEmptyName          = errors.New("empty name")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrNegativeAmount     = errors.New("amount must not be negative")
	ErrAmountTooLarge     = errors.New("amount exceeds the supported maximum")
	ErrEmptyInterval      = errors.New("budget start date is after end date")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
)

// ParseTransactionType validates a transaction type label.
func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(strings.ToLower(strings.TrimSpace(s))); t {
	case Income, Expense:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
}

// ParseCategory validates a transaction category label. Matching is exact.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.TrimSpace(s))
	for _, known := range TransactionCategories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

// ParseBudgetCategory accepts every transaction category plus Overall.
func ParseBudgetCategory(s string) (Category, error) {
	if Category(strings.TrimSpace(s)) == Overall {
		return Overall, nil
	}
	return ParseCategory(s)
}

func (c Category) String() string { return string(c) }

// IsOverall reports whether the category is the Overall sentinel.
func (c Category) IsOverall() bool { return c == Overall }

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.UserID) == "" {
		return ErrMissingUser
	}
	if t.Date.IsZero() {
		return &ParseError{Field: "date", Err: errZeroDate}
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return ErrDescriptionTooLong
	}
	if _, err := ParseCategory(string(t.Category)); err != nil {
		return err
	}
	if _, err := ParseTransactionType(string(t.Type)); err != nil {
		return err
	}
	if !t.Amount.InRange() {
		return ErrAmountTooLarge
	}
	return nil
}

// Validate checks the budget fields the producing layer owns. An inverted
// interval is accepted: the engine reports it as a warning instead.
func (b Budget) Validate() error {
	if strings.TrimSpace(b.UserID) == "" {
		return ErrMissingUser
	}
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	if _, err := ParseBudgetCategory(string(b.Category)); err != nil {
		return err
	}
	if b.Amount.Cents < 0 {
		return ErrNegativeAmount
	}
	if !b.Amount.InRange() {
		return ErrAmountTooLarge
	}
	if b.StartDate.IsZero() {
		return &ParseError{Field: "startDate", Err: errZeroDate}
	}
	if b.EndDate.IsZero() {
		return &ParseError{Field: "endDate", Err: errZeroDate}
	}
	return nil
}

func (g SavingsGoal) Validate() error {
	if strings.TrimSpace(g.UserID) == "" {
		return ErrMissingUser
	}
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if g.TargetAmount.Cents < 0 || g.CurrentAmount.Cents < 0 {
		return ErrNegativeAmount
	}
	if !g.TargetAmount.InRange() || !g.CurrentAmount.InRange() {
		return ErrAmountTooLarge
	}
	return nil
}

// Progress returns how much of the target has been saved, in percent,
// capped at 100.
func (g SavingsGoal) Progress() float64 {
	if g.TargetAmount.Cents <= 0 {
		return 0
	}
	p := float64(g.CurrentAmount.Cents) / float64(g.TargetAmount.Cents) * 100
	if p > 100 {
		return 100
	}
	return p
}
