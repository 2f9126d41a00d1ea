package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func validTransaction() Transaction {
	return Transaction{
		Description: "Groceries",
		Amount:      Money{Cents: 4250},
		Kind:        Expense,
		Category:    "Food",
		Date:        NewDate(2025, 3, 14),
	}
}

func TestTransactionValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{"valid", func(tx *Transaction) {}, nil},
		{"empty description", func(tx *Transaction) { tx.Description = "   " }, ErrEmptyDescription},
		{"zero amount", func(tx *Transaction) { tx.Amount = Money{} }, ErrInvalidAmount},
		{"negative amount", func(tx *Transaction) { tx.Amount = Money{Cents: -100} }, ErrInvalidAmount},
		{"bad kind", func(tx *Transaction) { tx.Kind = "transfer" }, ErrInvalidKind},
		{"zero date", func(tx *Transaction) { tx.Date = Date{} }, ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validTransaction()
			tt.mutate(&tx)
			err := tx.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("description too long", func(t *testing.T) {
		tx := validTransaction()
		tx.Description = strings.Repeat("x", 201)
		if tx.Validate() == nil {
			t.Fatal("expected error for 201-char description")
		}
	})
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind(" Income "); err != nil || k != Income {
		t.Fatalf("ParseKind(Income) = %v, %v", k, err)
	}
	if _, err := ParseKind("transfer"); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
}

func TestLedgerAppendAssignsMonotonicIDs(t *testing.T) {
	l := EmptyLedger()
	first := l.Append(validTransaction())
	second := l.Append(validTransaction())
	if first.ID != 1 || second.ID != 2 {
		t.Fatalf("ids = %d, %d; want 1, 2", first.ID, second.ID)
	}
	if l.NextID != 3 {
		t.Fatalf("NextID = %d, want 3", l.NextID)
	}
}

func TestLedgerRemove(t *testing.T) {
	l := EmptyLedger()
	tx := l.Append(validTransaction())
	if !l.Remove(tx.ID) {
		t.Fatal("Remove on existing id returned false")
	}
	if l.Remove(tx.ID) {
		t.Fatal("Remove on absent id returned true")
	}
	if len(l.Transactions) != 0 {
		t.Fatalf("%d transactions after removal", len(l.Transactions))
	}
	// Counter is never reused after deletes.
	if next := l.Append(validTransaction()); next.ID != 2 {
		t.Fatalf("reused id %d after delete", next.ID)
	}
}

func TestLedgerJSONRoundTrip(t *testing.T) {
	l := EmptyLedger()
	l.Append(validTransaction())
	tx := validTransaction()
	tx.Kind = Income
	tx.Category = "Salary"
	tx.Amount = Money{Cents: 100000}
	l.Append(tx)

	data, err := json.Marshal(l)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Ledger
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.NextID != l.NextID || len(back.Transactions) != len(l.Transactions) {
		t.Fatalf("round trip mismatch: %+v vs %+v", back, l)
	}
	for i := range l.Transactions {
		if back.Transactions[i] != l.Transactions[i] {
			t.Fatalf("transaction %d changed: %+v vs %+v", i, back.Transactions[i], l.Transactions[i])
		}
	}
}

func TestNormalizeCategory(t *testing.T) {
	cases := []struct {
		kind     Kind
		in, want string
	}{
		{Expense, "Food", "Food"},
		{Expense, "food", "Food"},
		{Expense, "Yacht", OtherCategory},
		{Income, "Salary", "Salary"},
		{Income, "Food", OtherCategory}, // Food is an expense category only
		{Income, "", OtherCategory},
	}
	for _, tc := range cases {
		if got := NormalizeCategory(tc.kind, tc.in); got != tc.want {
			t.Errorf("NormalizeCategory(%s, %q) = %q, want %q", tc.kind, tc.in, got, tc.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("14/03/2025 09:30")
	if err != nil {
		t.Fatalf("parse datetime: %v", err)
	}
	if d.Year() != 2025 || d.Month() != 3 || d.Day() != 14 {
		t.Fatalf("parsed wrong parts: %v", d)
	}
	if d.String() != "14/03/2025 09:30" {
		t.Fatalf("format round trip: %q", d.String())
	}

	if _, err := ParseDate("14/03/2025"); err != nil {
		t.Fatalf("bare date rejected: %v", err)
	}
	if _, err := ParseDate("2025-03-14"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("ISO date should be rejected, got %v", err)
	}
}

func TestDateUnmarshalLenient(t *testing.T) {
	// A malformed stored date decodes to the zero Date instead of failing
	// the surrounding document.
	doc := `{
		"transactions": [
			{"id": 1, "description": "Salary", "amount": 1000.00, "kind": "income", "category": "Salary", "date": "01/06/2025 09:00"},
			{"id": 2, "description": "Typo", "amount": 10.00, "kind": "expense", "category": "Food", "date": "31/02/2024"}
		],
		"nextId": 3
	}`
	var ledger Ledger
	if err := json.Unmarshal([]byte(doc), &ledger); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(ledger.Transactions) != 2 {
		t.Fatalf("decoded %d transactions, want 2", len(ledger.Transactions))
	}
	if ledger.Transactions[0].Date.IsZero() {
		t.Fatalf("valid date decoded as zero")
	}
	if !ledger.Transactions[1].Date.IsZero() {
		t.Fatalf("malformed date decoded to %v, want zero", ledger.Transactions[1].Date)
	}
}
