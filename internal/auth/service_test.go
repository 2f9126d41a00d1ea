package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"financas/internal/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	s, err := store.NewFileStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return NewService(s, nil)
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "a@x.com", "secret", "A")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.ID == 0 || user.PasswordHash == "" {
		t.Fatalf("registered user incomplete: %+v", user)
	}
	if user.PasswordHash == "secret" {
		t.Fatal("password stored in clear")
	}

	got, err := svc.Authenticate(ctx, "a@x.com", "secret")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("authenticated wrong user: %d != %d", got.ID, user.ID)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "a@x.com", "secret", "A"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, err := svc.Register(ctx, "a@x.com", "other", "B")
	if !errors.Is(err, store.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAuthenticateFailures(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "a@x.com", "secret", "A"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	tests := []struct {
		name            string
		email, password string
	}{
		{"wrong password", "a@x.com", "wrong"},
		{"unknown email", "nobody@x.com", "secret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Authenticate(ctx, tt.email, tt.password)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestProviderUserCannotUsePassword(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.AuthenticateOrCreateProvider(ctx, "google", Profile{
		Email:   "g@x.com",
		Name:    "G",
		Subject: "sub-123",
	})
	if err != nil {
		t.Fatalf("provider provision: %v", err)
	}

	_, err = svc.Authenticate(ctx, "g@x.com", "")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("provider-only account authenticated by password: %v", err)
	}
}

func TestProviderProvisionAndMerge(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.AuthenticateOrCreateProvider(ctx, "google", Profile{
		Email:     "g@x.com",
		Name:      "G",
		Subject:   "sub-123",
		AvatarURL: "https://example.com/g.png",
	})
	if err != nil {
		t.Fatalf("provider provision: %v", err)
	}
	if created.Provider != "google" || created.ProviderID != "sub-123" {
		t.Fatalf("provider fields not stored: %+v", created)
	}

	again, err := svc.AuthenticateOrCreateProvider(ctx, "google", Profile{Email: "g@x.com"})
	if err != nil {
		t.Fatalf("repeat provider login: %v", err)
	}
	if again.ID != created.ID {
		t.Fatalf("repeat login created a second account: %d != %d", again.ID, created.ID)
	}

	// Same-email local account merges silently into provider login.
	local, err := svc.Register(ctx, "l@x.com", "secret", "L")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	merged, err := svc.AuthenticateOrCreateProvider(ctx, "google", Profile{Email: "l@x.com"})
	if err != nil {
		t.Fatalf("merge login: %v", err)
	}
	if merged.ID != local.ID {
		t.Fatalf("merge created a new account: %d != %d", merged.ID, local.ID)
	}
}

func TestSessions(t *testing.T) {
	sessions := NewSessions(time.Hour)
	defer sessions.Stop()

	token := sessions.Create(42)
	if token == "" {
		t.Fatal("empty session token")
	}
	userID, ok := sessions.Lookup(token)
	if !ok || userID != 42 {
		t.Fatalf("Lookup = %d, %v", userID, ok)
	}

	sessions.Destroy(token)
	if _, ok := sessions.Lookup(token); ok {
		t.Fatal("destroyed session still resolves")
	}
	// Destroying again is a no-op.
	sessions.Destroy(token)
}

func TestSessionExpiry(t *testing.T) {
	sessions := NewSessions(-time.Second) // already expired on creation
	defer sessions.Stop()

	token := sessions.Create(1)
	if _, ok := sessions.Lookup(token); ok {
		t.Fatal("expired session should not resolve")
	}
	if sessions.Len() != 0 {
		t.Fatalf("expired entry not removed eagerly, len = %d", sessions.Len())
	}
}
