package http

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"financas/internal/auth"
	applog "financas/internal/log"
	"financas/internal/store"
)

// handleIndex is the landing route. Visitors with a live session go
// straight to the dashboard.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.currentUser(r); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	body := map[string]any{
		"service":  "financas",
		"login":    "/login",
		"register": "/register",
	}
	if s.google != nil {
		body["oauth"] = "/login/oauth"
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request format")
		return
	}

	email := sanitizeInput(r.Form.Get("email"))
	password := r.Form.Get("password")
	name := sanitizeInput(r.Form.Get("name"))

	user, err := s.accounts.Register(r.Context(), email, password, name)
	switch {
	case errors.Is(err, store.ErrEmailTaken):
		writeError(w, http.StatusConflict, "email already registered")
		return
	case errors.Is(err, auth.ErrEmptyEmail), errors.Is(err, auth.ErrEmptyPassword):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		s.logger.ErrorContext(r.Context(), "register failed",
			applog.FieldOperation, applog.OpRegister,
			applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	token := s.sessions.Create(user.ID)
	setSessionCookie(w, token, s.sessions.TTL())
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":    user.ID,
		"email": user.Email,
		"name":  user.Name,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request format")
		return
	}

	email := sanitizeInput(r.Form.Get("email"))
	password := r.Form.Get("password")

	user, err := s.accounts.Authenticate(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		s.logger.ErrorContext(r.Context(), "login failed",
			applog.FieldOperation, applog.OpLogin,
			applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	token := s.sessions.Create(user.ID)
	setSessionCookie(w, token, s.sessions.TTL())
	writeJSON(w, http.StatusOK, map[string]any{
		"id":    user.ID,
		"email": user.Email,
		"name":  user.Name,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookieName); err == nil && c.Value != "" {
		s.sessions.Destroy(c.Value)
	}
	clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleOAuthStart(w http.ResponseWriter, r *http.Request) {
	if s.google == nil {
		writeError(w, http.StatusNotFound, "google sign-in is not configured")
		return
	}

	state := generateRequestID()
	setStateCookie(w, state)
	http.Redirect(w, r, s.google.AuthURL(state), http.StatusFound)
}

func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	if s.google == nil {
		writeError(w, http.StatusNotFound, "google sign-in is not configured")
		return
	}

	clearStateCookie(w)

	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		s.logger.WarnContext(r.Context(), "oauth callback returned an error",
			applog.FieldOperation, applog.OpExchange,
			applog.FieldError, errMsg)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	stateCookie, err := r.Cookie(stateCookieName)
	state := r.URL.Query().Get("state")
	if err != nil || state == "" ||
		subtle.ConstantTimeCompare([]byte(stateCookie.Value), []byte(state)) != 1 {
		writeError(w, http.StatusBadRequest, "state mismatch")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing authorization code")
		return
	}

	profile, err := s.google.Exchange(r.Context(), code)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "oauth exchange failed",
			applog.FieldOperation, applog.OpExchange,
			applog.FieldError, err)
		writeError(w, http.StatusBadGateway, "sign-in with Google failed")
		return
	}

	user, err := s.accounts.AuthenticateOrCreateProvider(r.Context(), "google", profile)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "oauth provisioning failed",
			applog.FieldOperation, applog.OpLogin,
			applog.FieldEmail, profile.Email,
			applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "sign-in with Google failed")
		return
	}

	token := s.sessions.Create(user.ID)
	setSessionCookie(w, token, s.sessions.TTL())
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}
