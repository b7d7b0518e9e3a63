package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half away from zero
		{"-1.005", -101, true},
		{" 2.50 ", 250, true},
		{"-50", -5000, true},
		{"0", 0, true},
		{"1,234.56", 123456, true},
		{"1.234,56", 123456, true},
		{"-1,234,567.89", -123456789, true},
		{"100000000000", MaxAmountCents, true},
		{"-100000000000", -MaxAmountCents, true},
		{"100000000000.01", 0, false},
		{"69175290276410818.56", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("%q expected *ParseError, got %T", tc.in, err)
			}
		}
	}
}

func TestMoneyFromFloat(t *testing.T) {
	// 0.1+0.2 is not representable; the decimal path must still land on 30 cents.
	if got := MoneyFromFloat(0.1 + 0.2); got.Cents != 30 {
		t.Fatalf("expected 30 cents, got %d", got.Cents)
	}
	if got := MoneyFromFloat(-20); got.Cents != -2000 {
		t.Fatalf("expected -2000 cents, got %d", got.Cents)
	}
}

func TestMoneyJSON(t *testing.T) {
	var v struct {
		A Money `json:"a"`
		B Money `json:"b"`
	}
	if err := json.Unmarshal([]byte(`{"a": -50.5, "b": "12,34"}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.A.Cents != -5050 || v.B.Cents != 1234 {
		t.Fatalf("unexpected values: %+v", v)
	}
	out, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"a":-50.50,"b":12.34}` {
		t.Fatalf("unexpected json: %s", out)
	}
}

func TestMoneyAbs(t *testing.T) {
	if (Money{Cents: -5}).Abs().Cents != 5 || (Money{Cents: 5}).Abs().Cents != 5 {
		t.Fatalf("abs failed")
	}
	if s := (Money{Cents: -1234}).String(); s != "-12.34" {
		t.Fatalf("unexpected string %q", s)
	}
}

func TestMoneyJSONRejectsHugeAmount(t *testing.T) {
	var m Money
	err := json.Unmarshal([]byte("69175290276410818.56"), &m)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
}
