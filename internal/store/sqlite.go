package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"financas/internal/core"
	applog "financas/internal/log"

	_ "modernc.org/sqlite"
)

// SQLiteStore is the relational backend. It keeps the same full-overwrite
// semantics as the file store: Save replaces the user's transactions and
// counter inside one database transaction. The database transaction covers
// only the write, so Update additionally serializes the read-modify-write
// per user with a mutex, same as the file backend.
type SQLiteStore struct {
	db     *sql.DB
	logger *applog.Logger

	mu      sync.Mutex
	perUser map[int64]*sync.Mutex
}

func NewSQLiteStore(dbPath string, logger *applog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{
		db:      db,
		logger:  logger.WithComponent(applog.ComponentStore),
		perUser: make(map[int64]*sync.Mutex),
	}, nil
}

func (s *SQLiteStore) userLock(userID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	mu, ok := s.perUser[userID]
	if !ok {
		mu = &sync.Mutex{}
		s.perUser[userID] = mu
	}
	return mu
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, userID int64) (core.Ledger, error) {
	ledger := core.EmptyLedger()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, description, amount_cents, kind, category, date
		 FROM transactions WHERE user_id = ? ORDER BY rowid`, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Ledger query failed, recovering with empty ledger",
			applog.FieldUserID, userID,
			applog.FieldError, err.Error())
		return core.EmptyLedger(), nil
	}
	defer rows.Close()

	for rows.Next() {
		var (
			t       core.Transaction
			kind    string
			dateStr string
		)
		if err := rows.Scan(&t.ID, &t.Description, &t.Amount.Cents, &kind, &t.Category, &dateStr); err != nil {
			return core.Ledger{}, fmt.Errorf("scan transaction: %w", err)
		}
		t.Kind = core.Kind(kind)
		date, err := core.ParseDate(dateStr)
		if err != nil {
			s.logger.ErrorContext(ctx, "Stored transaction has malformed date, skipping",
				applog.FieldUserID, userID,
				applog.FieldTxID, t.ID,
				"date", dateStr)
			continue
		}
		t.Date = date
		ledger.Transactions = append(ledger.Transactions, t)
	}
	if err := rows.Err(); err != nil {
		return core.Ledger{}, fmt.Errorf("iterate transactions: %w", err)
	}

	var nextID int64
	err = s.db.QueryRowContext(ctx,
		`SELECT next_id FROM ledger_counters WHERE user_id = ?`, userID).Scan(&nextID)
	switch {
	case err == sql.ErrNoRows:
		nextID = 1
	case err != nil:
		return core.Ledger{}, fmt.Errorf("load ledger counter: %w", err)
	}
	if nextID > ledger.NextID {
		ledger.NextID = nextID
	}
	return ledger, nil
}

func (s *SQLiteStore) Save(ctx context.Context, userID int64, ledger core.Ledger) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM transactions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}
	for _, t := range ledger.Transactions {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (user_id, id, description, amount_cents, kind, category, date)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			userID, t.ID, t.Description, t.Amount.Cents, string(t.Kind), t.Category, t.Date.String()); err != nil {
			return fmt.Errorf("insert transaction %d: %w", t.ID, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO ledger_counters (user_id, next_id) VALUES (?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET next_id = excluded.next_id`,
		userID, ledger.NextID); err != nil {
		return fmt.Errorf("save ledger counter: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	s.logger.DebugContext(ctx, "Ledger saved",
		applog.FieldUserID, userID,
		"transactions", len(ledger.Transactions))
	return nil
}

func (s *SQLiteStore) Update(ctx context.Context, userID int64, fn func(*core.Ledger) error) error {
	mu := s.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	ledger, err := s.Load(ctx, userID)
	if err != nil {
		return err
	}
	if err := fn(&ledger); err != nil {
		if err == ErrNoChange {
			return nil
		}
		return err
	}
	return s.Save(ctx, userID, ledger)
}

func (s *SQLiteStore) CreateUser(ctx context.Context, u User) (User, error) {
	var existing int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM users WHERE email = ?`, u.Email).Scan(&existing)
	if err != nil {
		return User{}, fmt.Errorf("check email: %w", err)
	}
	if existing > 0 {
		return User{}, ErrEmailTaken
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (email, name, password_hash, provider, provider_id, avatar_url, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.Email, u.Name, u.PasswordHash, u.Provider, u.ProviderID, u.AvatarURL,
		u.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return User{}, fmt.Errorf("user id: %w", err)
	}
	u.ID = id

	s.logger.InfoContext(ctx, "User created",
		applog.FieldUserID, u.ID,
		applog.FieldEmail, u.Email)
	return u, nil
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.getUser(ctx,
		`SELECT id, email, name, password_hash, provider, provider_id, avatar_url, created_at
		 FROM users WHERE email = ?`, email)
}

func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*User, error) {
	return s.getUser(ctx,
		`SELECT id, email, name, password_hash, provider, provider_id, avatar_url, created_at
		 FROM users WHERE id = ?`, id)
}

func (s *SQLiteStore) getUser(ctx context.Context, query string, arg any) (*User, error) {
	var (
		u         User
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.Name, &u.PasswordHash,
		&u.Provider, &u.ProviderID, &u.AvatarURL, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		u.CreatedAt = t
	}
	return &u, nil
}
