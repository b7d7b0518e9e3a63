package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/importer"
	applog "fintrack/internal/log"
	"fintrack/internal/ports"
)

// ImportResult reports the stored rows and the rows the file rejected.
type ImportResult struct {
	Imported []core.Transaction
	Rejected []importer.RowError
}

// TransactionService stores transactions and publishes a mirror sync message
// for each stored row when a publisher is configured.
type TransactionService struct {
	repo      ports.Repository
	publisher SyncPublisher
	loc       *time.Location
}

func NewTransactionService(repo ports.Repository, publisher SyncPublisher, loc *time.Location) *TransactionService {
	if loc == nil {
		loc = time.UTC
	}
	return &TransactionService{repo: repo, publisher: publisher, loc: loc}
}

// List returns the user's transactions, newest first.
func (s *TransactionService) List(ctx context.Context, userID string) ([]core.Transaction, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.repo.ListTransactions(ctx, userID)
}

// Create saves a transaction and publishes its sync message. A publish
// failure is logged and does not fail the request.
func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	created, err := s.repo.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	applog.NewStructuredLogger(applog.FromContext(ctx)).
		LogTransactionCreated(ctx, created.UserID, created.ID, created.Amount.Cents, created.Category.String())
	s.publishSync(ctx, created)
	return created, nil
}

func (s *TransactionService) Update(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	updated, err := s.repo.UpdateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	return updated, nil
}

func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if err := s.repo.DeleteTransaction(ctx, userID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

// Import reads a CSV file with the given column mapping and stores every
// valid row. Rows rejected by the parser are returned, not stored.
func (s *TransactionService) Import(ctx context.Context, userID string, r io.Reader, m importer.Mapping) (ImportResult, error) {
	if err := requireUser(userID); err != nil {
		return ImportResult{}, err
	}
	if m == nil {
		m = importer.DefaultMapping()
	}
	parsed, err := importer.Read(r, userID, m, s.loc)
	if err != nil {
		return ImportResult{Rejected: parsed.Rejected}, err
	}
	if len(parsed.Transactions) == 0 {
		return ImportResult{Rejected: parsed.Rejected}, importer.ErrNoTransactions
	}

	res := ImportResult{
		Imported: make([]core.Transaction, 0, len(parsed.Transactions)),
		Rejected: parsed.Rejected,
	}
	for _, t := range parsed.Transactions {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		created, err := s.repo.CreateTransaction(ctx, t)
		if err != nil {
			return res, fmt.Errorf("save imported transaction: %w", err)
		}
		s.publishSync(ctx, created)
		res.Imported = append(res.Imported, created)
	}

	slog.InfoContext(ctx, "Transactions imported",
		applog.FieldComponent, applog.ComponentImport,
		applog.FieldUserID, userID,
		applog.FieldCount, len(res.Imported),
		"rejected", len(res.Rejected))
	return res, nil
}

// Export writes the user's transactions in the export layout.
func (s *TransactionService) Export(ctx context.Context, userID string, w io.Writer) error {
	txs, err := s.List(ctx, userID)
	if err != nil {
		return err
	}
	return importer.Write(w, txs, s.loc)
}

func (s *TransactionService) publishSync(ctx context.Context, t core.Transaction) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransactionSync(ctx, t.UserID, t.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			applog.FieldComponent, applog.ComponentAMQP,
			applog.FieldTransactionID, t.ID,
			applog.FieldError, err)
	}
}
