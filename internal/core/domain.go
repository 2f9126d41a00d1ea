package core

import (
	"errors"
	"strings"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

type (
	// Kind classifies a transaction as income or expense.
	Kind string

	// Transaction is a single ledger record owned by one user.
	Transaction struct {
		ID          int64  `json:"id"`
		Description string `json:"description"`
		Amount      Money  `json:"amount"`
		Kind        Kind   `json:"kind"`
		Category    string `json:"category"`
		Date        Date   `json:"date"`
	}

	// Ledger is the complete set of transactions for one user plus the
	// next-id counter.
	Ledger struct {
		Transactions []Transaction `json:"transactions"`
		NextID       int64         `json:"nextId"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidKind      = errors.New("invalid kind")
	ErrInvalidDate      = errors.New("invalid date")
)

// ParseKind validates a kind string.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case Income:
		return Income, nil
	case Expense:
		return Expense, nil
	default:
		return "", ErrInvalidKind
	}
}

func (k Kind) Validate() error {
	if k != Income && k != Expense {
		return ErrInvalidKind
	}
	return nil
}

func (t Transaction) Validate() error {
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Kind.Validate(); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// EmptyLedger is the recovery value when a backing store is missing or
// unparsable.
func EmptyLedger() Ledger {
	return Ledger{Transactions: []Transaction{}, NextID: 1}
}

// Append assigns the next identifier to t, appends it and advances the
// counter. It returns the stored transaction.
func (l *Ledger) Append(t Transaction) Transaction {
	if l.NextID < 1 {
		l.NextID = 1
	}
	t.ID = l.NextID
	l.NextID++
	l.Transactions = append(l.Transactions, t)
	return t
}

// Remove deletes the transaction with the given id. It reports whether a
// record was found; removing an absent id is not an error.
func (l *Ledger) Remove(id int64) bool {
	for i, t := range l.Transactions {
		if t.ID == id {
			l.Transactions = append(l.Transactions[:i], l.Transactions[i+1:]...)
			return true
		}
	}
	return false
}
