package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"financas/internal/core"
	applog "financas/internal/log"
)

// FileStore keeps one JSON document per user under <dir>/ledgers/ and the
// account list in <dir>/users.json. Writes go through a temp file plus
// rename so a crash mid-write never leaves a truncated document. Mutations
// go through Update, which holds the per-user lock across the whole
// load-modify-save cycle so concurrent requests never lose updates.
type FileStore struct {
	dir    string
	logger *applog.Logger

	usersMu   sync.Mutex
	ledgersMu sync.Mutex
	perUser   map[int64]*sync.Mutex
}

type userEnvelope struct {
	Users  []User `json:"users"`
	NextID int64  `json:"nextId"`
}

func NewFileStore(dir string, logger *applog.Logger) (*FileStore, error) {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	if err := os.MkdirAll(filepath.Join(dir, "ledgers"), 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &FileStore{
		dir:     dir,
		logger:  logger.WithComponent(applog.ComponentStore),
		perUser: make(map[int64]*sync.Mutex),
	}, nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) ledgerPath(userID int64) string {
	return filepath.Join(s.dir, "ledgers", fmt.Sprintf("user_%d.json", userID))
}

func (s *FileStore) usersPath() string {
	return filepath.Join(s.dir, "users.json")
}

// userLock returns the serialization mutex for one user's ledger. Update
// holds it for the full read-modify-write; Load and Save hold it for the
// single file operation.
func (s *FileStore) userLock(userID int64) *sync.Mutex {
	s.ledgersMu.Lock()
	defer s.ledgersMu.Unlock()
	mu, ok := s.perUser[userID]
	if !ok {
		mu = &sync.Mutex{}
		s.perUser[userID] = mu
	}
	return mu
}

func (s *FileStore) Load(ctx context.Context, userID int64) (core.Ledger, error) {
	mu := s.userLock(userID)
	mu.Lock()
	defer mu.Unlock()
	return s.loadLocked(ctx, userID), nil
}

func (s *FileStore) loadLocked(ctx context.Context, userID int64) core.Ledger {
	path := s.ledgerPath(userID)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			// Unreadable data is recovered with an empty ledger, but this
			// risks silent data loss, so it is logged loudly.
			s.logger.ErrorContext(ctx, "Ledger file unreadable, recovering with empty ledger",
				applog.FieldUserID, userID,
				applog.FieldPath, path,
				applog.FieldError, err.Error())
		}
		return core.EmptyLedger()
	}

	var ledger core.Ledger
	if err := json.Unmarshal(data, &ledger); err != nil {
		s.logger.ErrorContext(ctx, "Ledger file corrupt, recovering with empty ledger",
			applog.FieldUserID, userID,
			applog.FieldPath, path,
			applog.FieldError, err.Error())
		return core.EmptyLedger()
	}
	if ledger.Transactions == nil {
		ledger.Transactions = []core.Transaction{}
	}
	if ledger.NextID < 1 {
		ledger.NextID = 1
	}
	return ledger
}

func (s *FileStore) Save(ctx context.Context, userID int64, ledger core.Ledger) error {
	mu := s.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	if err := writeJSONAtomic(s.ledgerPath(userID), ledger); err != nil {
		return fmt.Errorf("save ledger for user %d: %w", userID, err)
	}
	s.logger.DebugContext(ctx, "Ledger saved",
		applog.FieldUserID, userID,
		"transactions", len(ledger.Transactions))
	return nil
}

func (s *FileStore) Update(ctx context.Context, userID int64, fn func(*core.Ledger) error) error {
	mu := s.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	ledger := s.loadLocked(ctx, userID)
	if err := fn(&ledger); err != nil {
		if err == ErrNoChange {
			return nil
		}
		return err
	}

	if err := writeJSONAtomic(s.ledgerPath(userID), ledger); err != nil {
		return fmt.Errorf("save ledger for user %d: %w", userID, err)
	}
	s.logger.DebugContext(ctx, "Ledger updated",
		applog.FieldUserID, userID,
		"transactions", len(ledger.Transactions))
	return nil
}

func (s *FileStore) CreateUser(ctx context.Context, u User) (User, error) {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	env := s.loadUsersLocked(ctx)
	for _, existing := range env.Users {
		if existing.Email == u.Email {
			return User{}, ErrEmailTaken
		}
	}
	if env.NextID < 1 {
		env.NextID = int64(len(env.Users)) + 1
	}
	u.ID = env.NextID
	env.NextID++
	env.Users = append(env.Users, u)

	if err := writeJSONAtomic(s.usersPath(), env); err != nil {
		return User{}, fmt.Errorf("save users: %w", err)
	}
	s.logger.InfoContext(ctx, "User created",
		applog.FieldUserID, u.ID,
		applog.FieldEmail, u.Email)
	return u, nil
}

func (s *FileStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	env := s.loadUsersLocked(ctx)
	for i := range env.Users {
		if env.Users[i].Email == email {
			u := env.Users[i]
			return &u, nil
		}
	}
	return nil, nil
}

func (s *FileStore) GetUserByID(ctx context.Context, id int64) (*User, error) {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	env := s.loadUsersLocked(ctx)
	for i := range env.Users {
		if env.Users[i].ID == id {
			u := env.Users[i]
			return &u, nil
		}
	}
	return nil, nil
}

func (s *FileStore) loadUsersLocked(ctx context.Context) userEnvelope {
	data, err := os.ReadFile(s.usersPath())
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.ErrorContext(ctx, "User file unreadable, starting empty",
				applog.FieldError, err.Error())
		}
		return userEnvelope{Users: []User{}, NextID: 1}
	}
	var env userEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		s.logger.ErrorContext(ctx, "User file corrupt, starting empty",
			applog.FieldError, err.Error())
		return userEnvelope{Users: []User{}, NextID: 1}
	}
	if env.Users == nil {
		env.Users = []User{}
	}
	if env.NextID < 1 {
		env.NextID = int64(len(env.Users)) + 1
	}
	return env
}

// writeJSONAtomic writes v to a temp file in the target directory and
// renames it over path. The old file stays intact if anything fails before
// the rename.
func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace file: %w", err)
	}
	return nil
}
