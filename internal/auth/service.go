// Package auth implements registration, password authentication, provider
// provisioning and opaque server-side sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	applog "financas/internal/log"
	"financas/internal/store"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned for unknown emails and wrong
	// passwords alike, so responses don't leak which one failed.
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrEmptyEmail    = errors.New("email is required")
	ErrEmptyPassword = errors.New("password is required")
)

// Profile is what an external identity provider asserts about a user after
// a successful token exchange.
type Profile struct {
	Email     string
	Name      string
	Subject   string
	AvatarURL string
}

// Service handles account lifecycle against the user store.
type Service struct {
	users  store.UserStore
	logger *applog.Logger
}

func NewService(users store.UserStore, logger *applog.Logger) *Service {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Service{
		users:  users,
		logger: logger.WithComponent(applog.ComponentAuth),
	}
}

// Register creates a password-based account. The password is hashed with
// bcrypt at the default cost. Returns store.ErrEmailTaken on duplicates.
func (s *Service) Register(ctx context.Context, email, password, name string) (store.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return store.User{}, ErrEmptyEmail
	}
	if password == "" {
		return store.User{}, ErrEmptyPassword
	}
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return store.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, store.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return store.User{}, err
	}

	s.logger.InfoContext(ctx, "User registered",
		applog.FieldUserID, user.ID,
		applog.FieldEmail, user.Email)
	return user, nil
}

// Authenticate checks a password against the stored bcrypt hash. The
// comparison is constant-time. Provider-only accounts (no hash) never
// authenticate by password.
func (s *Service) Authenticate(ctx context.Context, email, password string) (store.User, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return store.User{}, fmt.Errorf("look up user: %w", err)
	}
	if user == nil || user.PasswordHash == "" {
		// Burn a comparison anyway so unknown emails cost the same.
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return store.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return store.User{}, ErrInvalidCredentials
	}
	return *user, nil
}

// AuthenticateOrCreateProvider looks up the user by the provider-asserted
// email and creates a provider-backed account when absent. An existing
// password account with the same email is reused as-is: provider and local
// identities sharing an email merge silently.
func (s *Service) AuthenticateOrCreateProvider(ctx context.Context, provider string, p Profile) (store.User, error) {
	email := strings.TrimSpace(p.Email)
	if email == "" {
		return store.User{}, ErrEmptyEmail
	}

	existing, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return store.User{}, fmt.Errorf("look up user: %w", err)
	}
	if existing != nil {
		if existing.Provider == "" {
			s.logger.WarnContext(ctx, "Provider login merged into existing password account",
				applog.FieldUserID, existing.ID,
				applog.FieldEmail, existing.Email,
				"provider", provider)
		}
		return *existing, nil
	}

	name := p.Name
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	user, err := s.users.CreateUser(ctx, store.User{
		Email:      email,
		Name:       name,
		CreatedAt:  time.Now().UTC(),
		Provider:   provider,
		ProviderID: p.Subject,
		AvatarURL:  p.AvatarURL,
	})
	if err != nil {
		return store.User{}, err
	}

	s.logger.InfoContext(ctx, "Provider user provisioned",
		applog.FieldUserID, user.ID,
		applog.FieldEmail, user.Email,
		"provider", provider)
	return user, nil
}

// GetUser fetches an account by id (used to resolve sessions).
func (s *Service) GetUser(ctx context.Context, id int64) (*store.User, error) {
	return s.users.GetUserByID(ctx, id)
}

// dummyHash keeps the unknown-email path on the same bcrypt cost as the
// known-email path.
var dummyHash = func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("financas-dummy"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return h
}()
