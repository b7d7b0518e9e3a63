package sheets

import (
	"context"

	"fintrack/internal/core"
)

// Ports for outbound adapters.
type (
	// TransactionMirror appends transactions to an external spreadsheet. The
	// mirror is write-only; the repository stays the source of truth.
	TransactionMirror interface {
		AppendTransaction(ctx context.Context, t core.Transaction) (rowRef string, err error)
	}
)
