package memory

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/importer"
)

// Store keeps every record in process memory, keyed by owner. It is meant
// for demos and tests; nothing survives a restart.
type Store struct {
	mu           sync.RWMutex
	transactions map[string]map[string]core.Transaction
	budgets      map[string]map[string]core.Budget
	goals        map[string]map[string]core.SavingsGoal
	now          func() time.Time
	last         time.Time
}

func New() *Store {
	return &Store{
		transactions: make(map[string]map[string]core.Transaction),
		budgets:      make(map[string]map[string]core.Budget),
		goals:        make(map[string]map[string]core.SavingsGoal),
		now:          time.Now,
	}
}

// NewFromFiles returns a store seeded for userID from seed_transactions.csv
// and seed_budgets.csv in base. Missing files are ignored; bad rows are
// logged and skipped.
func NewFromFiles(base, userID string) *Store {
	s := New()
	ctx := context.Background()

	if f, err := os.Open(filepath.Join(base, "seed_transactions.csv")); err == nil {
		res, err := importer.Read(f, userID, nil, time.UTC)
		f.Close()
		if err != nil {
			slog.Warn("Failed to read transaction seed", "error", err)
		}
		for _, re := range res.Rejected {
			slog.Warn("Skipping seed transaction", "line", re.Line, "error", re.Err)
		}
		for _, t := range res.Transactions {
			_, _ = s.CreateTransaction(ctx, t)
		}
	}

	if f, err := os.Open(filepath.Join(base, "seed_budgets.csv")); err == nil {
		budgets, err := readBudgets(f, userID)
		f.Close()
		if err != nil {
			slog.Warn("Failed to read budget seed", "error", err)
		}
		for _, b := range budgets {
			_, _ = s.CreateBudget(ctx, b)
		}
	}
	return s
}

// readBudgets parses rows of Name,Category,Amount,StartDate,EndDate.
func readBudgets(r io.Reader, userID string) ([]core.Budget, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 5
	cr.TrimLeadingSpace = true
	if _, err := cr.Read(); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	var out []core.Budget
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		cat, err := core.ParseBudgetCategory(rec[1])
		if err != nil {
			slog.Warn("Skipping seed budget", "name", rec[0], "error", err)
			continue
		}
		amount, err := core.ParseMoney(rec[2])
		if err != nil {
			slog.Warn("Skipping seed budget", "name", rec[0], "error", err)
			continue
		}
		// Unparseable dates stay zero and surface as date errors when computed.
		start, _ := core.ParseDate("startDate", rec[3], time.UTC)
		end, _ := core.ParseDate("endDate", rec[4], time.UTC)
		out = append(out, core.Budget{
			UserID:    userID,
			Name:      strings.TrimSpace(rec[0]),
			Category:  cat,
			Amount:    amount,
			StartDate: start,
			EndDate:   end,
		})
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = uuid.NewString()
	t.CreatedAt = s.tick()
	bucket(s.transactions, t.UserID)[t.ID] = t
	return t, nil
}

func (s *Store) ListTransactions(_ context.Context, userID string) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Transaction, 0, len(s.transactions[userID]))
	for _, t := range s.transactions[userID] {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) GetTransaction(_ context.Context, userID, id string) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transactions[userID][id]
	if !ok {
		return core.Transaction{}, core.ErrNotFound
	}
	return t, nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.transactions[t.UserID][t.ID]
	if !ok {
		return core.Transaction{}, core.ErrNotFound
	}
	t.CreatedAt = old.CreatedAt
	s.transactions[t.UserID][t.ID] = t
	return t, nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[userID][id]; !ok {
		return core.ErrNotFound
	}
	delete(s.transactions[userID], id)
	return nil
}

func (s *Store) CreateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.tick()
	b.ID = uuid.NewString()
	b.Spent = core.Money{}
	b.CreatedAt, b.UpdatedAt = now, now
	bucket(s.budgets, b.UserID)[b.ID] = b
	return b, nil
}

// ListBudgets returns budgets in creation order.
func (s *Store) ListBudgets(_ context.Context, userID string) ([]core.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Budget, 0, len(s.budgets[userID]))
	for _, b := range s.budgets[userID] {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) GetBudget(_ context.Context, userID, id string) (core.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.budgets[userID][id]
	if !ok {
		return core.Budget{}, core.ErrNotFound
	}
	return b, nil
}

func (s *Store) UpdateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.budgets[b.UserID][b.ID]
	if !ok {
		return core.Budget{}, core.ErrNotFound
	}
	b.Spent = core.Money{}
	b.CreatedAt = old.CreatedAt
	b.UpdatedAt = s.tick()
	s.budgets[b.UserID][b.ID] = b
	return b, nil
}

func (s *Store) DeleteBudget(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.budgets[userID][id]; !ok {
		return core.ErrNotFound
	}
	delete(s.budgets[userID], id)
	return nil
}

func (s *Store) CreateSavingsGoal(_ context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.tick()
	g.ID = uuid.NewString()
	g.CreatedAt, g.UpdatedAt = now, now
	bucket(s.goals, g.UserID)[g.ID] = g
	return g, nil
}

func (s *Store) ListSavingsGoals(_ context.Context, userID string) ([]core.SavingsGoal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.SavingsGoal, 0, len(s.goals[userID]))
	for _, g := range s.goals[userID] {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) GetSavingsGoal(_ context.Context, userID, id string) (core.SavingsGoal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.goals[userID][id]
	if !ok {
		return core.SavingsGoal{}, core.ErrNotFound
	}
	return g, nil
}

func (s *Store) UpdateSavingsGoal(_ context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.goals[g.UserID][g.ID]
	if !ok {
		return core.SavingsGoal{}, core.ErrNotFound
	}
	g.CreatedAt = old.CreatedAt
	g.AITips = old.AITips
	g.UpdatedAt = s.tick()
	s.goals[g.UserID][g.ID] = g
	return g, nil
}

func (s *Store) DeleteSavingsGoal(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.goals[userID][id]; !ok {
		return core.ErrNotFound
	}
	delete(s.goals[userID], id)
	return nil
}

func (s *Store) SetSavingsGoalTips(_ context.Context, userID, id, tips string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[userID][id]
	if !ok {
		return core.ErrNotFound
	}
	g.AITips = tips
	g.UpdatedAt = s.tick()
	s.goals[userID][id] = g
	return nil
}

// tick returns a strictly increasing timestamp so creation order is stable
// even when the clock does not advance between calls. Callers hold mu.
func (s *Store) tick() time.Time {
	t := s.now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Nanosecond)
	}
	s.last = t
	return t
}

func bucket[T any](m map[string]map[string]T, userID string) map[string]T {
	b, ok := m[userID]
	if !ok {
		b = make(map[string]T)
		m[userID] = b
	}
	return b
}
