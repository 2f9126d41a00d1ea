// Package oauth wraps the Google authorization-code exchange and userinfo
// fetch. The token exchange is the only outbound network call in the
// application: it runs under a bounded timeout and is never retried — a
// failed exchange aborts the login flow visibly.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"financas/internal/auth"
	applog "financas/internal/log"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleoauth "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// ErrExchangeFailed wraps any token-exchange or profile-fetch failure so
// callers can surface a single user-visible message.
var ErrExchangeFailed = errors.New("external authentication failed")

const exchangeTimeout = 10 * time.Second

// Google performs the provider side of the login flow.
type Google struct {
	cfg    *oauth2.Config
	logger *applog.Logger
}

func NewGoogle(clientID, clientSecret, redirectURL string, logger *applog.Logger) *Google {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Google{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		logger: logger.WithComponent(applog.ComponentOAuth),
	}
}

// AuthURL builds the provider consent URL carrying the CSRF state token.
func (g *Google) AuthURL(state string) string {
	return g.cfg.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the authorization code for a token and fetches the user's
// profile. One attempt only; any failure maps to ErrExchangeFailed.
func (g *Google) Exchange(ctx context.Context, code string) (auth.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, exchangeTimeout)
	defer cancel()

	token, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		g.logger.ErrorContext(ctx, "Token exchange failed",
			applog.FieldOperation, applog.OpExchange,
			applog.FieldError, err.Error())
		return auth.Profile{}, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	svc, err := googleoauth.NewService(ctx,
		option.WithTokenSource(g.cfg.TokenSource(ctx, token)))
	if err != nil {
		g.logger.ErrorContext(ctx, "Userinfo service init failed",
			applog.FieldError, err.Error())
		return auth.Profile{}, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		g.logger.ErrorContext(ctx, "Userinfo fetch failed",
			applog.FieldError, err.Error())
		return auth.Profile{}, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	if info.Email == "" {
		return auth.Profile{}, fmt.Errorf("%w: provider returned no email", ErrExchangeFailed)
	}

	return auth.Profile{
		Email:     info.Email,
		Name:      info.Name,
		Subject:   info.Id,
		AvatarURL: info.Picture,
	}, nil
}
