// Package ledger implements the transaction ledger operations on top of the
// record store: add, get, update, list, delete, filter and clear.
package ledger

import (
	"context"
	"fmt"
	"strings"

	"financas/internal/core"
	applog "financas/internal/log"
	"financas/internal/store"
)

// EventPublisher receives a notification after each ledger mutation.
// Publishing is best-effort: failures are logged, never propagated.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, userID int64, action string, txID int64) error
}

// AddInput carries raw user input for a new transaction. Validation is
// centralized here rather than spread over entry points.
type AddInput struct {
	Description string
	Amount      string
	Kind        string
	Category    string
	// Date is optional ("dd/mm/yyyy" or "dd/mm/yyyy hh:mm"); empty means now.
	Date string
}

// UpdateInput carries partial edits for an existing transaction. Empty
// fields keep the stored value; the identifier never changes.
type UpdateInput struct {
	Description string
	Amount      string
	Kind        string
	Category    string
	Date        string
}

// Filter selects transactions by kind and/or category. Empty fields match
// everything.
type Filter struct {
	Kind     string
	Category string
}

// Service owns ledger mutations for all users. Dependencies are injected
// explicitly; there are no package-level instances.
type Service struct {
	ledgers   store.LedgerStore
	publisher EventPublisher
	logger    *applog.Logger
}

func NewService(ledgers store.LedgerStore, publisher EventPublisher, logger *applog.Logger) *Service {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Service{
		ledgers:   ledgers,
		publisher: publisher,
		logger:    logger.WithComponent(applog.ComponentLedger),
	}
}

// Add validates the input, assigns the next identifier and persists the new
// transaction. Categories outside the kind's catalog are remapped to "Other".
func (s *Service) Add(ctx context.Context, userID int64, in AddInput) (core.Transaction, error) {
	kind, err := core.ParseKind(in.Kind)
	if err != nil {
		return core.Transaction{}, err
	}
	cents, err := core.ParseDecimalToCents(in.Amount)
	if err != nil {
		return core.Transaction{}, err
	}

	date := core.Now()
	if strings.TrimSpace(in.Date) != "" {
		date, err = core.ParseDate(in.Date)
		if err != nil {
			return core.Transaction{}, err
		}
	}

	tx := core.Transaction{
		Description: strings.TrimSpace(in.Description),
		Amount:      core.Money{Cents: cents},
		Kind:        kind,
		Category:    core.NormalizeCategory(kind, in.Category),
		Date:        date,
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	err = s.ledgers.Update(ctx, userID, func(ledger *core.Ledger) error {
		tx = ledger.Append(tx)
		return nil
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("append transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "Transaction added",
		applog.FieldUserID, userID,
		applog.FieldTxID, tx.ID,
		applog.FieldKind, string(tx.Kind),
		applog.FieldCategory, tx.Category,
		applog.FieldAmount, tx.Amount.Cents)
	s.publish(ctx, userID, "created", tx.ID)
	return tx, nil
}

// Get returns the transaction with the given id, or nil when no record
// matches.
func (s *Service) Get(ctx context.Context, userID, id int64) (*core.Transaction, error) {
	ledger, err := s.ledgers.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	for i := range ledger.Transactions {
		if ledger.Transactions[i].ID == id {
			t := ledger.Transactions[i]
			return &t, nil
		}
	}
	return nil, nil
}

// Update applies the non-empty fields of in to the transaction with the
// given id and persists the result. Returns nil when no record matches.
// When the kind changes, the category is re-checked against the new kind's
// catalog and remapped to "Other" if it no longer fits.
func (s *Service) Update(ctx context.Context, userID, id int64, in UpdateInput) (*core.Transaction, error) {
	var updated *core.Transaction
	err := s.ledgers.Update(ctx, userID, func(ledger *core.Ledger) error {
		for i := range ledger.Transactions {
			if ledger.Transactions[i].ID != id {
				continue
			}
			t := ledger.Transactions[i]
			if strings.TrimSpace(in.Description) != "" {
				t.Description = strings.TrimSpace(in.Description)
			}
			if in.Kind != "" {
				kind, err := core.ParseKind(in.Kind)
				if err != nil {
					return err
				}
				t.Kind = kind
			}
			if in.Amount != "" {
				cents, err := core.ParseDecimalToCents(in.Amount)
				if err != nil {
					return err
				}
				t.Amount = core.Money{Cents: cents}
			}
			if in.Category != "" {
				t.Category = in.Category
			}
			t.Category = core.NormalizeCategory(t.Kind, t.Category)
			if in.Date != "" {
				date, err := core.ParseDate(in.Date)
				if err != nil {
					return err
				}
				t.Date = date
			}
			if err := t.Validate(); err != nil {
				return err
			}
			ledger.Transactions[i] = t
			updated = &t
			return nil
		}
		return store.ErrNoChange
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, nil
	}

	s.logger.InfoContext(ctx, "Transaction updated",
		applog.FieldUserID, userID,
		applog.FieldTxID, id,
		applog.FieldKind, string(updated.Kind),
		applog.FieldCategory, updated.Category,
		applog.FieldAmount, updated.Amount.Cents)
	s.publish(ctx, userID, "updated", id)
	return updated, nil
}

// List returns all transactions in insertion order.
func (s *Service) List(ctx context.Context, userID int64) ([]core.Transaction, error) {
	ledger, err := s.ledgers.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	return ledger.Transactions, nil
}

// Delete removes the transaction with the given id. Deleting an absent id is
// not an error; the bool reports whether a record was found.
func (s *Service) Delete(ctx context.Context, userID, id int64) (bool, error) {
	removed := false
	err := s.ledgers.Update(ctx, userID, func(ledger *core.Ledger) error {
		if !ledger.Remove(id) {
			return store.ErrNoChange
		}
		removed = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete transaction: %w", err)
	}
	if !removed {
		return false, nil
	}

	s.logger.InfoContext(ctx, "Transaction deleted",
		applog.FieldUserID, userID,
		applog.FieldTxID, id)
	s.publish(ctx, userID, "deleted", id)
	return true, nil
}

// Filter returns the intersection of the given criteria. Kind and category
// match exactly; empty criteria match all records.
func (s *Service) Filter(ctx context.Context, userID int64, f Filter) ([]core.Transaction, error) {
	ledger, err := s.ledgers.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	out := make([]core.Transaction, 0, len(ledger.Transactions))
	for _, t := range ledger.Transactions {
		if f.Kind != "" && string(t.Kind) != f.Kind {
			continue
		}
		if f.Category != "" && t.Category != f.Category {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// Clear wipes the user's ledger back to the empty state. The next-id counter
// restarts at 1.
func (s *Service) Clear(ctx context.Context, userID int64) error {
	err := s.ledgers.Update(ctx, userID, func(ledger *core.Ledger) error {
		*ledger = core.EmptyLedger()
		return nil
	})
	if err != nil {
		return fmt.Errorf("clear ledger: %w", err)
	}
	s.logger.InfoContext(ctx, "Ledger cleared", applog.FieldUserID, userID)
	s.publish(ctx, userID, "cleared", 0)
	return nil
}

func (s *Service) publish(ctx context.Context, userID int64, action string, txID int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, userID, action, txID); err != nil {
		s.logger.WarnContext(ctx, "Event publish failed",
			applog.FieldUserID, userID,
			applog.FieldOperation, action,
			applog.FieldError, err.Error())
	}
}
