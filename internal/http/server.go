package http

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"financas/internal/auth"
	"financas/internal/cache"
	"financas/internal/ledger"
	applog "financas/internal/log"
	"financas/internal/oauth"
)

const (
	sessionCookieName = "financas_session"
	stateCookieName   = "financas_oauth_state"

	chartCacheSize = 200
	chartCacheTTL  = 5 * time.Minute
)

// Server wires the ledger, auth and reporting services to HTTP routes.
// All dependencies are injected; google may be nil when OAuth sign-in is
// not configured.
type Server struct {
	http.Server

	ledger   *ledger.Service
	accounts *auth.Service
	sessions *auth.Sessions
	google   *oauth.Google
	logger   *applog.Logger

	rateLimiter *rateLimiter

	// Chart payloads are cached per user with a generation counter in the
	// key, so a single bump invalidates every cached window and kind at
	// once after a mutation.
	chartCache *cache.LRUCache[[]byte]
	caches     *cache.Manager

	genMu       sync.Mutex
	generations map[int64]uint64

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, ledgerSvc *ledger.Service, accounts *auth.Service, sessions *auth.Sessions, google *oauth.Google, logger *applog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		ledger:      ledgerSvc,
		accounts:    accounts,
		sessions:    sessions,
		google:      google,
		logger:      logger.WithComponent(applog.ComponentHTTP),
		rateLimiter: newRateLimiter(),
		chartCache:  cache.NewLRUCache[[]byte](chartCacheSize, chartCacheTTL),
		caches:      cache.NewManager(),
		generations: make(map[int64]uint64),
	}

	s.caches.Register(s.chartCache)
	s.caches.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /{$}", s.withSecurityHeaders(s.handleIndex))
	mux.HandleFunc("POST /register", s.withSecurityHeaders(s.handleRegister))
	mux.HandleFunc("POST /login", s.withSecurityHeaders(s.handleLogin))
	mux.HandleFunc("GET /logout", s.withSecurityHeaders(s.handleLogout))
	mux.HandleFunc("POST /logout", s.withSecurityHeaders(s.handleLogout))
	mux.HandleFunc("GET /login/oauth", s.withSecurityHeaders(s.handleOAuthStart))
	mux.HandleFunc("GET /login/oauth/callback", s.withSecurityHeaders(s.handleOAuthCallback))

	mux.HandleFunc("GET /dashboard", s.withSecurityHeaders(s.requireSession(s.handleDashboard)))
	mux.HandleFunc("POST /add", s.withSecurityHeaders(s.requireSession(s.handleAdd)))
	mux.HandleFunc("POST /update/{id}", s.withSecurityHeaders(s.requireSession(s.handleUpdate)))
	mux.HandleFunc("POST /delete/{id}", s.withSecurityHeaders(s.requireSession(s.handleDelete)))
	mux.HandleFunc("POST /clear", s.withSecurityHeaders(s.requireSession(s.handleClear)))
	mux.HandleFunc("GET /api/charts/{kind}", s.withSecurityHeaders(s.requireSessionAPI(s.handleCharts)))

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		if s.sessions != nil {
			s.sessions.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting and request
// logging to responses.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ip := clientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		s.logger.InfoContext(ctx, "request started",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldClientIP, ip,
			applog.FieldUserAgent, r.Header.Get("User-Agent"))

		if r.Method == http.MethodPost && !s.rateLimiter.allow(ip) {
			s.logger.WarnContext(ctx, "rate limit exceeded",
				applog.FieldClientIP, ip,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; img-src 'self' data: https://*.googleusercontent.com; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		s.logger.InfoContext(ctx, "request completed",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, duration.Milliseconds(),
			applog.FieldClientIP, ip)
	}
}

// requireSession resolves the session cookie and passes the user ID on to
// the handler. Browser routes redirect to the login page when the session
// is missing or expired.
func (s *Server) requireSession(next func(http.ResponseWriter, *http.Request, int64)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.currentUser(r)
		if !ok {
			clearSessionCookie(w)
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next(w, r, userID)
	}
}

// requireSessionAPI is the API variant: unauthenticated requests get a 401
// instead of a redirect.
func (s *Server) requireSessionAPI(next func(http.ResponseWriter, *http.Request, int64)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.currentUser(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next(w, r, userID)
	}
}

func (s *Server) currentUser(r *http.Request) (int64, bool) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return 0, false
	}
	return s.sessions.Lookup(c.Value)
}

// generation returns the current cache generation for a user. Keys built
// from stale generations simply miss and age out of the LRU.
func (s *Server) generation(userID int64) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.generations[userID]
}

func (s *Server) bumpGeneration(userID int64) {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	s.generations[userID]++
}

func (s *Server) chartKey(userID int64, kind string, params string) string {
	return strconv.FormatInt(userID, 10) + ":" + strconv.FormatUint(s.generation(userID), 10) + ":" + kind + ":" + params
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
