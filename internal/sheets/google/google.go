package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	ports "fintrack/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Config selects the spreadsheet and the service account credentials.
// CredentialsJSON wins over CredentialsFile.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	CredentialsJSON string
	Location        *time.Location
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Base name without year (e.g. "Transactions"); rows go to "<year> <base>".
	sheetBase string
	loc       *time.Location
}

var _ ports.TransactionMirror = (*Client)(nil)

// New creates a Sheets client. Extra options replace the credential options
// derived from cfg.
func New(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	base := strings.TrimSpace(cfg.SheetName)
	if base == "" {
		base = "Transactions"
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	if len(opts) == 0 {
		o, err := credentialOptions(ctx, cfg)
		if err != nil {
			return nil, err
		}
		opts = o
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created", applog.FieldComponent, applog.ComponentSheets, "sheet", base)

	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetBase: base, loc: loc}, nil
}

// credentialOptions builds service account options from inline JSON or a
// credentials file.
func credentialOptions(ctx context.Context, cfg Config) ([]goption.ClientOption, error) {
	scopes := goption.WithScopes(gsheet.SpreadsheetsScope)
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		slog.InfoContext(ctx, "Using inline JSON credentials", applog.FieldComponent, applog.ComponentSheets)
		return []goption.ClientOption{goption.WithCredentialsJSON([]byte(cfg.CredentialsJSON)), scopes}, nil
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		slog.InfoContext(ctx, "Reading credentials from file", applog.FieldComponent, applog.ComponentSheets, "path", cfg.CredentialsFile)
		return []goption.ClientOption{goption.WithCredentialsFile(cfg.CredentialsFile), scopes}, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_CREDENTIALS_JSON or GOOGLE_CREDENTIALS_FILE)")
	}
}

// AppendTransaction adds one row for t to the sheet of its year and returns
// the updated range.
func (c *Client) AppendTransaction(ctx context.Context, t core.Transaction) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if t.Date.IsZero() {
		return "", fmt.Errorf("transaction %s: %w", t.ID, &core.ParseError{Field: "date", Err: errors.New("missing date")})
	}

	sheet := yearPrefixedName(c.sheetBase, t.Date.In(c.loc).Year())
	rng := fmt.Sprintf("%s!A:G", sheet)
	vr := &gsheet.ValueRange{Values: [][]any{transactionRow(t, c.loc)}}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", sheet, err)
	}
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		return resp.Updates.UpdatedRange, nil
	}
	return rng, nil
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
