package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"financas/internal/core"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return s
}

func sampleTransaction(id int64) core.Transaction {
	return core.Transaction{
		ID:          id,
		Description: "Lunch",
		Amount:      core.Money{Cents: 1250},
		Kind:        core.Expense,
		Category:    "Food",
		Date:        core.NewDate(2025, 6, 2),
	}
}

func TestFileStoreLoadMissingReturnsEmptyLedger(t *testing.T) {
	s := newTestStore(t)
	ledger, err := s.Load(context.Background(), 42)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ledger.Transactions) != 0 || ledger.NextID != 1 {
		t.Fatalf("empty ledger expected, got %+v", ledger)
	}
}

func TestFileStoreSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ledger := core.EmptyLedger()
	ledger.Append(sampleTransaction(0))
	tx := sampleTransaction(0)
	tx.Kind = core.Income
	tx.Category = "Salary"
	ledger.Append(tx)

	if err := s.Save(ctx, 7, ledger); err != nil {
		t.Fatalf("Save: %v", err)
	}
	back, err := s.Load(ctx, 7)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if back.NextID != ledger.NextID {
		t.Fatalf("NextID = %d, want %d", back.NextID, ledger.NextID)
	}
	if len(back.Transactions) != 2 {
		t.Fatalf("%d transactions, want 2", len(back.Transactions))
	}
	for i := range ledger.Transactions {
		if back.Transactions[i] != ledger.Transactions[i] {
			t.Fatalf("transaction %d changed: %+v vs %+v", i, back.Transactions[i], ledger.Transactions[i])
		}
	}
}

func TestFileStoreCorruptLedgerRecoversEmpty(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	path := s.ledgerPath(3)
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}
	ledger, err := s.Load(ctx, 3)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ledger.Transactions) != 0 || ledger.NextID != 1 {
		t.Fatalf("corrupt file should recover empty, got %+v", ledger)
	}
}

func TestFileStoreSaveIsAtomic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ledger := core.EmptyLedger()
	ledger.Append(sampleTransaction(0))
	if err := s.Save(ctx, 1, ledger); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// No temp files should survive a successful save.
	entries, err := os.ReadDir(filepath.Dir(s.ledgerPath(1)))
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	for _, e := range entries {
		if e.Name() != "user_1.json" {
			t.Fatalf("leftover file %q after save", e.Name())
		}
	}
}

func TestFileStoreCreateUserAssignsSequentialIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, err := s.CreateUser(ctx, User{Email: "a@x.com", Name: "A", CreatedAt: time.Now()})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	b, err := s.CreateUser(ctx, User{Email: "b@x.com", Name: "B", CreatedAt: time.Now()})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if a.ID != 1 || b.ID != 2 {
		t.Fatalf("ids = %d, %d; want 1, 2", a.ID, b.ID)
	}
}

func TestFileStoreCreateUserDuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateUser(ctx, User{Email: "a@x.com", Name: "A"}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	_, err := s.CreateUser(ctx, User{Email: "a@x.com", Name: "B"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	// Email matching is case-sensitive as stored.
	if _, err := s.CreateUser(ctx, User{Email: "A@x.com", Name: "C"}); err != nil {
		t.Fatalf("case-different email rejected: %v", err)
	}
}

func TestFileStoreGetUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateUser(ctx, User{Email: "a@x.com", Name: "A"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	byEmail, err := s.GetUserByEmail(ctx, "a@x.com")
	if err != nil || byEmail == nil || byEmail.ID != created.ID {
		t.Fatalf("GetUserByEmail = %+v, %v", byEmail, err)
	}
	byID, err := s.GetUserByID(ctx, created.ID)
	if err != nil || byID == nil || byID.Email != "a@x.com" {
		t.Fatalf("GetUserByID = %+v, %v", byID, err)
	}
	missing, err := s.GetUserByEmail(ctx, "nobody@x.com")
	if err != nil || missing != nil {
		t.Fatalf("missing user should be nil, nil; got %+v, %v", missing, err)
	}
}

func TestFileStoreBadDateKeepsOtherRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := `{
  "transactions": [
    {"id": 1, "description": "Salary", "amount": 1000.00, "kind": "income", "category": "Salary", "date": "01/06/2025 09:00"},
    {"id": 2, "description": "Typo", "amount": 10.00, "kind": "expense", "category": "Food", "date": "31/02/2024"}
  ],
  "nextId": 3
}`
	if err := os.WriteFile(s.ledgerPath(1), []byte(doc), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	ledger, err := s.Load(ctx, 1)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// One unparsable date must not discard the whole document.
	if len(ledger.Transactions) != 2 || ledger.NextID != 3 {
		t.Fatalf("loaded %d transactions nextId=%d, want 2 and 3", len(ledger.Transactions), ledger.NextID)
	}
	if ledger.Transactions[0].Description != "Salary" || ledger.Transactions[0].Date.IsZero() {
		t.Fatalf("valid record damaged: %+v", ledger.Transactions[0])
	}
	if !ledger.Transactions[1].Date.IsZero() {
		t.Fatalf("malformed date parsed to %v, want zero", ledger.Transactions[1].Date)
	}

	// Saving after such a load keeps the valid record on disk.
	if err := s.Save(ctx, 1, ledger); err != nil {
		t.Fatalf("Save: %v", err)
	}
	back, err := s.Load(ctx, 1)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(back.Transactions) != 2 || back.Transactions[0].Description != "Salary" {
		t.Fatalf("records lost across save: %+v", back.Transactions)
	}
}

func TestFileStoreUpdateSerializesReadModifyWrite(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const n = 25
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.Update(ctx, 1, func(ledger *core.Ledger) error {
				ledger.Append(sampleTransaction(0))
				return nil
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
	}

	ledger, err := s.Load(ctx, 1)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ledger.Transactions) != n {
		t.Fatalf("stored %d transactions, want %d", len(ledger.Transactions), n)
	}
	if ledger.NextID != n+1 {
		t.Fatalf("nextId = %d, want %d", ledger.NextID, n+1)
	}
	seen := make(map[int64]bool, n)
	for _, tx := range ledger.Transactions {
		if seen[tx.ID] {
			t.Fatalf("id %d assigned twice", tx.ID)
		}
		seen[tx.ID] = true
	}
}

func TestFileStoreUpdateNoChangeSkipsWrite(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.Update(ctx, 1, func(ledger *core.Ledger) error {
		return ErrNoChange
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, statErr := os.Stat(s.ledgerPath(1)); !os.IsNotExist(statErr) {
		t.Fatalf("no-change update created the ledger file")
	}
}

func TestFileStoreUpdateCallbackErrorAborts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ledger := core.EmptyLedger()
	ledger.Append(sampleTransaction(0))
	if err := s.Save(ctx, 1, ledger); err != nil {
		t.Fatalf("Save: %v", err)
	}

	boom := errors.New("boom")
	err := s.Update(ctx, 1, func(ledger *core.Ledger) error {
		ledger.Transactions = nil
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Update err = %v, want boom", err)
	}

	back, _ := s.Load(ctx, 1)
	if len(back.Transactions) != 1 {
		t.Fatalf("failed update persisted: %+v", back.Transactions)
	}
}
