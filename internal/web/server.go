package web

import (
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/billed-app/billdesk/internal/bill"
	"github.com/billed-app/billdesk/internal/scanning"
	"github.com/billed-app/billdesk/internal/session"
	"github.com/billed-app/billdesk/internal/store"
	"github.com/billed-app/billdesk/internal/submission"
	"github.com/billed-app/billdesk/internal/triage"
)

const sessionCookie = "billdesk_session"

// BasicAuth holds basic authentication credentials
type BasicAuth struct {
	Username string
	Password string
}

// Server is the rendering boundary: it translates HTTP requests into
// controller calls and controller-emitted view data into HTML. All business
// logic lives in the controllers; the server only renders and navigates.
type Server struct {
	billStore store.Store
	sessions  session.Store
	scanner   scanning.Scanner // optional
	basicAuth BasicAuth
	mux       *http.ServeMux

	// Controller state is per session: each logged-in user gets their own
	// submission and triage controllers, created lazily.
	mu          sync.Mutex
	submissions map[string]*submission.Controller
	triages     map[string]*triage.Controller
}

// NewServer creates a new Server with a default mux
func NewServer(billStore store.Store, sessions session.Store, scanner scanning.Scanner, basicAuth BasicAuth) *Server {
	return NewServerWithMux(billStore, sessions, scanner, basicAuth, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(billStore store.Store, sessions session.Store, scanner scanning.Scanner, basicAuth BasicAuth, mux *http.ServeMux) *Server {
	s := &Server{
		billStore:   billStore,
		sessions:    sessions,
		scanner:     scanner,
		basicAuth:   basicAuth,
		mux:         mux,
		submissions: make(map[string]*submission.Controller),
		triages:     make(map[string]*triage.Controller),
	}
	s.registerRoutes()
	return s
}

// authenticate checks basic auth credentials
func (s *Server) authenticate(r *http.Request) bool {
	if s.basicAuth.Username == "" && s.basicAuth.Password == "" {
		return true // No auth required if not configured
	}

	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Basic ") {
		return false
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(auth, "Basic "))
	if err != nil {
		return false
	}

	credentials := strings.SplitN(string(decoded), ":", 2)
	if len(credentials) != 2 {
		return false
	}

	return credentials[0] == s.basicAuth.Username && credentials[1] == s.basicAuth.Password
}

// requireAuth middleware
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authenticate(r) {
			w.Header().Set("WWW-Authenticate", `Basic realm="Billdesk"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// requireSession resolves the session cookie to an identity and hands it to
// the handler. Requests without a valid session land on the login page.
func (s *Server) requireSession(next func(w http.ResponseWriter, r *http.Request, token string, user bill.User)) http.HandlerFunc {
	return s.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		user, err := s.sessions.Get(cookie.Value)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r, cookie.Value, user)
	})
}

// submissionController returns the session's submission controller,
// creating it on first use.
func (s *Server) submissionController(token string, user bill.User) *submission.Controller {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.submissions[token]
	if !ok {
		c = submission.NewController(s.billStore, user, s.scanner)
		s.submissions[token] = c
	}
	return c
}

// triageController returns the session's triage controller, creating it on
// first use.
func (s *Server) triageController(token string, user bill.User) *triage.Controller {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.triages[token]
	if !ok {
		c = triage.NewController(s.billStore, user)
		s.triages[token] = c
	}
	return c
}

// dropControllers forgets the session's controllers, e.g. on logout or when
// a submission completes and the draft state must not leak into the next one.
func (s *Server) dropControllers(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.submissions, token)
	delete(s.triages, token)
}

// dropSubmission forgets only the session's submission draft.
func (s *Server) dropSubmission(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.submissions, token)
}

// registerRoutes registers all routes on the server's mux
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /login", s.requireAuth(s.handleLoginPage))
	s.mux.HandleFunc("POST /login", s.requireAuth(s.handleLogin))
	s.mux.HandleFunc("POST /logout", s.requireSession(s.handleLogout))

	s.mux.HandleFunc("GET /bills", s.requireSession(s.handleBills))
	s.mux.HandleFunc("GET /bills/new", s.requireSession(s.handleNewBillPage))
	s.mux.HandleFunc("POST /bills/new/file", s.requireSession(s.handleChangeFile))
	s.mux.HandleFunc("POST /bills/new", s.requireSession(s.handleSubmitBill))

	s.mux.HandleFunc("GET /dashboard", s.requireSession(s.handleDashboard))
	s.mux.HandleFunc("POST /dashboard/panels/{index}", s.requireSession(s.handleTogglePanel))
	s.mux.HandleFunc("POST /dashboard/bills/{id}/select", s.requireSession(s.handleSelectBill))
	s.mux.HandleFunc("POST /dashboard/bills/{id}/accept", s.requireSession(s.handleAcceptBill))
	s.mux.HandleFunc("POST /dashboard/bills/{id}/refuse", s.requireSession(s.handleRefuseBill))

	s.mux.HandleFunc("GET /{$}", s.requireAuth(s.handleRoot))
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	slog.Info("Starting server", "address", addr)
	return http.ListenAndServe(addr, s.mux)
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
