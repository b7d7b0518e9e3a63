package importer

import (
	"errors"
	"strings"
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestReadDefaultMapping(t *testing.T) {
	in := "Date,Description,Amount,Category,Type\n" +
		"2024-07-03,Supermarket,30.00,Groceries,expense\n" +
		"2024-07-10,Salary,1000,Income,income\n" +
		"\n" +
		"2024-07-12,Mystery,-5.5,Gadgets,\n" +
		"not-a-date,Broken,1,Other,expense\n" +
		"2024-07-15,Bad amount,abc,Other,expense\n"

	res, err := Read(strings.NewReader(in), "u1", nil, time.UTC)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(res.Transactions) != 3 {
		t.Fatalf("got %d transactions, want 3: %+v", len(res.Transactions), res.Rejected)
	}
	if len(res.Rejected) != 2 {
		t.Fatalf("got %d rejected, want 2", len(res.Rejected))
	}
	if res.Rejected[0].Line != 6 || res.Rejected[1].Line != 7 {
		t.Errorf("rejected lines = %d,%d, want 6,7", res.Rejected[0].Line, res.Rejected[1].Line)
	}
	var pe *core.ParseError
	if !errors.As(res.Rejected[0], &pe) || pe.Field != "date" {
		t.Errorf("first rejection should be a date parse error, got %v", res.Rejected[0])
	}

	mystery := res.Transactions[2]
	if mystery.Type != core.Expense {
		t.Errorf("negative amount without type should be expense, got %s", mystery.Type)
	}
	if mystery.Category != core.Uncategorized {
		t.Errorf("unknown category should map to Uncategorized, got %s", mystery.Category)
	}
	if mystery.Amount.Cents != -550 {
		t.Errorf("amount = %d, want -550", mystery.Amount.Cents)
	}
	for _, tx := range res.Transactions {
		if tx.UserID != "u1" {
			t.Errorf("user id = %q", tx.UserID)
		}
	}
}

func TestReadCustomMapping(t *testing.T) {
	in := "booking date;text;value;kind\n"
	in = strings.ReplaceAll(in, ";", ",") + "2024-07-01,Coffee,\"3,50\",Dining Out\n"
	m := Mapping{
		FieldDate:        "Booking Date",
		FieldDescription: "TEXT",
		FieldAmount:      "value",
		FieldCategory:    "kind",
	}
	res, err := Read(strings.NewReader(in), "u1", m, time.UTC)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(res.Transactions) != 1 {
		t.Fatalf("got %d transactions: %+v", len(res.Transactions), res.Rejected)
	}
	got := res.Transactions[0]
	if got.Amount.Cents != 350 || got.Category != core.DiningOut || got.Type != core.Income {
		t.Errorf("unexpected transaction: %+v", got)
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"empty", "", ErrEmptyFile},
		{"missing column", "Date,Description,Amount\n2024-07-01,x,1\n", ErrMissingColumn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.in), "u1", nil, time.UTC)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestWriteRoundTrip(t *testing.T) {
	txs := []core.Transaction{
		{ID: "1", UserID: "u1", Date: time.Date(2024, 7, 3, 15, 0, 0, 0, time.UTC), Description: "Rent, July", Amount: core.Money{Cents: 120000}, Category: core.RentMortgage, Type: core.Expense},
		{ID: "2", UserID: "u1", Description: "undated", Amount: core.Money{Cents: 1}, Category: core.Other, Type: core.Expense},
	}
	var b strings.Builder
	if err := Write(&b, txs, time.UTC); err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := "Date,Description,Amount,Category,Type\n" +
		"2024-07-03,\"Rent, July\",1200.00,Rent/Mortgage,expense\n" +
		",undated,0.01,Other,expense\n"
	if b.String() != want {
		t.Fatalf("Write output:\n%s\nwant:\n%s", b.String(), want)
	}

	res, err := Read(strings.NewReader(b.String()), "u1", nil, time.UTC)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(res.Transactions) != 1 || res.Transactions[0].Description != "Rent, July" {
		t.Errorf("round trip lost the dated row: %+v", res.Transactions)
	}
	if len(res.Rejected) != 1 {
		t.Errorf("undated row should be rejected on import, got %d", len(res.Rejected))
	}
}
