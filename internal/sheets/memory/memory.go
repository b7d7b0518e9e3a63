// Package memory is an in-process TransactionMirror for tests and demos.
package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"
	ports "fintrack/internal/sheets"
)

type Store struct {
	mu    sync.Mutex
	items []core.Transaction
}

var _ ports.TransactionMirror = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// AppendTransaction stores the transaction and returns a synthetic row reference.
func (s *Store) AppendTransaction(_ context.Context, t core.Transaction) (string, error) {
	if t.Date.IsZero() {
		return "", &core.ParseError{Field: "date", Value: "", Err: fmt.Errorf("transaction %s has no date", t.ID)}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, t)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// Rows returns a copy of the mirrored transactions in append order.
func (s *Store) Rows() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.items...)
}
